/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package llmjudge

import (
	"context"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// DefaultAnthropicModel is used when NewAnthropic is given an empty model.
const DefaultAnthropicModel = "claude-sonnet-4-5"

type claude struct {
	client anthropic.Client
	model  string
}

// NewAnthropic returns a Provider backed by the Anthropic Messages API.
// Without options the client reads ANTHROPIC_API_KEY from the environment.
func NewAnthropic(model string, opts ...option.RequestOption) Provider {
	if model == "" {
		model = DefaultAnthropicModel
	}
	// Retries are handled by the judge.
	opts = append([]option.RequestOption{option.WithMaxRetries(0)}, opts...)
	return &claude{
		client: anthropic.NewClient(opts...),
		model:  model,
	}
}

func (c *claude) Name() string { return "anthropic" }

func (c *claude) Complete(ctx context.Context, req Completion) (*Reply, error) {
	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(c.model),
		MaxTokens:   req.MaxTokens,
		Temperature: anthropic.Float(req.Temperature),
		Messages: []anthropic.MessageParam{{
			Role:    anthropic.MessageParamRoleUser,
			Content: []anthropic.ContentBlockParamUnion{anthropic.NewTextBlock(req.Prompt)},
		}},
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}

	message, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return nil, err
	}

	var sb strings.Builder
	for _, block := range message.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	return &Reply{
		Text:         sb.String(),
		Model:        string(message.Model),
		InputTokens:  message.Usage.InputTokens,
		OutputTokens: message.Usage.OutputTokens,
	}, nil
}
