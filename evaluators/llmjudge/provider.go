/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package llmjudge

import (
	"context"
	"fmt"
)

// NewProvider builds a provider by name ("anthropic", "openai", "gemini" or
// "vertex") using credentials from the environment.
func NewProvider(ctx context.Context, name, model string) (Provider, error) {
	switch name {
	case "anthropic", "claude":
		return NewAnthropic(model), nil
	case "openai":
		return NewOpenAI(model), nil
	case "gemini", "google":
		return NewGemini(ctx, model, nil)
	case "vertex":
		return vertexFromEnv(ctx, model)
	default:
		return nil, fmt.Errorf("unknown judge provider %q", name)
	}
}
