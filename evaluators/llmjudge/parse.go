/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package llmjudge

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Verdict is the judgement returned by the model.
type Verdict struct {
	Score     float64 `json:"score" jsonschema:"required,minimum=0,maximum=1" jsonschema_description:"How well the response satisfies the criterion"`
	Passed    *bool   `json:"passed,omitempty" jsonschema_description:"Whether the response satisfies the criterion"`
	Reasoning string  `json:"reasoning" jsonschema:"required" jsonschema_description:"One or two sentences explaining the score"`
}

// ExtractJSON returns the JSON payload of a model reply. It prefers the first
// ```json fenced block, then any fenced block, then the outermost {...} span.
func ExtractJSON(text string) string {
	lines := strings.Split(text, "\n")
	var buf bytes.Buffer
	inBlock, found := false, false
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if !inBlock && (trimmed == "```json" || trimmed == "```") {
			inBlock, found = true, true
			continue
		}
		if inBlock && trimmed == "```" {
			break
		}
		if inBlock {
			if buf.Len() > 0 {
				buf.WriteByte('\n')
			}
			buf.WriteString(line)
		}
	}
	if found {
		return strings.TrimSpace(buf.String())
	}

	text = strings.TrimSpace(text)
	start, end := strings.Index(text, "{"), strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		return text[start : end+1]
	}
	return text
}

// ParseVerdict extracts and validates a verdict from a model reply.
func ParseVerdict(text string) (*Verdict, error) {
	payload := ExtractJSON(text)
	if payload == "" {
		return nil, errors.New("empty verdict")
	}
	var v Verdict
	if err := json.Unmarshal([]byte(payload), &v); err != nil {
		return nil, fmt.Errorf("parsing verdict: %w", err)
	}
	if v.Score < 0 || v.Score > 1 {
		return nil, fmt.Errorf("score %v outside [0, 1]", v.Score)
	}
	return &v, nil
}
