/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package llmjudge

import "encoding/xml"

const systemPrompt = `You are a strict and consistent evaluator of model outputs.
You always answer with a single JSON object and nothing else.`

var judgePrompt = mustTemplate(`<task>
Grade the response in the case below against the criterion.
{{mode}}
</task>

{{case}}

{{criterion}}

<instructions>
1. Judge the response only on the criterion.
2. Give a score from 0.0 (fails completely) to 1.0 (fully satisfies it).
3. Set passed to true when the response satisfies the criterion.
4. Explain the score in one or two sentences.
</instructions>

<output_format>
Reply with a JSON object matching this schema:
{{schema}}
</output_format>`)

const (
	goldenMode     = "A reference answer is provided. Use it as the standard the response is measured against."
	standaloneMode = "No reference answer is provided. Judge the response on its own merits."
)

// judgeCase is the row as shown to the judge.
type judgeCase struct {
	XMLName   xml.Name     `xml:"case"`
	Input     string       `xml:"input,omitempty"`
	Response  string       `xml:"response"`
	Reference string       `xml:"reference_answer,omitempty"`
	Contexts  *contextList `xml:"contexts,omitempty"`
}

type contextList struct {
	Items []string `xml:"context"`
}

// contextsOf returns nil for no contexts so the element is omitted.
func contextsOf(items []string) *contextList {
	if len(items) == 0 {
		return nil
	}
	return &contextList{Items: items}
}

type criterionText struct {
	XMLName xml.Name `xml:"criterion"`
	Text    string   `xml:",chardata"`
}

func renderPrompt(c judgeCase, criterion string) (string, error) {
	mode := standaloneMode
	if c.Reference != "" {
		mode = goldenMode
	}
	p, err := judgePrompt.bindLiteral("mode", mode)
	if err != nil {
		return "", err
	}
	if p, err = p.bindXML("case", c); err != nil {
		return "", err
	}
	if p, err = p.bindXML("criterion", criterionText{Text: criterion}); err != nil {
		return "", err
	}
	if p, err = p.bindLiteral("schema", verdictSchema); err != nil {
		return "", err
	}
	return p.build()
}
