/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package llmjudge implements an evaluator that asks a language model to grade
// an output against a criterion.
//
// The judge renders a prompt from the row and its settings, sends it to a
// Provider, and parses a JSON verdict of the form
//
//	{"score": 0.0-1.0, "passed": true, "reasoning": "..."}
//
// from the reply. The verdict may be bare JSON or wrapped in a ```json fence.
// Transient provider failures (rate limits, overload, 5xx) are retried.
//
// Providers exist for Anthropic, OpenAI and Gemini:
//
//	judge, err := llmjudge.New(llmjudge.NewAnthropic("claude-sonnet-4-5"),
//		llmjudge.WithCriterion("The answer is factually correct"),
//		llmjudge.WithThreshold(0.7),
//	)
//
// NewOpenAI and NewGemini build the other two. NewVertex reaches Claude or
// Gemini models through Vertex AI. The settings "criterion" and "threshold"
// override the configured values per call.
package llmjudge
