/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package llmjudge

import (
	"context"
	"errors"

	"github.com/openai/openai-go"
	oaioption "github.com/openai/openai-go/option"
)

// DefaultOpenAIModel is used when NewOpenAI is given an empty model.
const DefaultOpenAIModel = "gpt-4o-mini"

type chatgpt struct {
	client openai.Client
	model  string
}

// NewOpenAI returns a Provider backed by the OpenAI chat completions API.
// Without options the client reads OPENAI_API_KEY from the environment.
func NewOpenAI(model string, opts ...oaioption.RequestOption) Provider {
	if model == "" {
		model = DefaultOpenAIModel
	}
	opts = append([]oaioption.RequestOption{oaioption.WithMaxRetries(0)}, opts...)
	return &chatgpt{
		client: openai.NewClient(opts...),
		model:  model,
	}
}

func (c *chatgpt) Name() string { return "openai" }

func (c *chatgpt) Complete(ctx context.Context, req Completion) (*Reply, error) {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, 2)
	if req.System != "" {
		messages = append(messages, openai.SystemMessage(req.System))
	}
	messages = append(messages, openai.UserMessage(req.Prompt))

	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:               openai.ChatModel(c.model),
		Messages:            messages,
		Temperature:         openai.Float(req.Temperature),
		MaxCompletionTokens: openai.Int(req.MaxTokens),
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("openai returned no choices")
	}
	return &Reply{
		Text:         resp.Choices[0].Message.Content,
		Model:        resp.Model,
		InputTokens:  resp.Usage.PromptTokens,
		OutputTokens: resp.Usage.CompletionTokens,
	}, nil
}
