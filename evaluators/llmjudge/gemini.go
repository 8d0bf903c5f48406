/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package llmjudge

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// DefaultGeminiModel is used when NewGemini is given an empty model.
const DefaultGeminiModel = "gemini-2.5-flash"

type gemini struct {
	client *genai.Client
	model  string
}

// NewGemini returns a Provider backed by the Gemini API. A nil cfg uses the
// Gemini API backend with the key from GEMINI_API_KEY or GOOGLE_API_KEY.
func NewGemini(ctx context.Context, model string, cfg *genai.ClientConfig) (Provider, error) {
	if model == "" {
		model = DefaultGeminiModel
	}
	if cfg == nil {
		cfg = &genai.ClientConfig{Backend: genai.BackendGeminiAPI}
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}
	return &gemini{client: client, model: model}, nil
}

func (g *gemini) Name() string { return "gemini" }

func (g *gemini) Complete(ctx context.Context, req Completion) (*Reply, error) {
	config := &genai.GenerateContentConfig{
		Temperature:      ptr(float32(req.Temperature)),
		MaxOutputTokens:  int32(req.MaxTokens),
		ResponseMIMEType: "application/json",
	}
	if req.System != "" {
		config.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: req.System}}}
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, []*genai.Content{{
		Role:  "user",
		Parts: []*genai.Part{{Text: req.Prompt}},
	}}, config)
	if err != nil {
		return nil, err
	}

	reply := &Reply{Text: resp.Text(), Model: g.model}
	if resp.ModelVersion != "" {
		reply.Model = resp.ModelVersion
	}
	if resp.UsageMetadata != nil {
		reply.InputTokens = int64(resp.UsageMetadata.PromptTokenCount)
		reply.OutputTokens = int64(resp.UsageMetadata.CandidatesTokenCount)
	}
	return reply, nil
}

func ptr[T any](v T) *T { return &v }
