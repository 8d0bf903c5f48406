/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package llmjudge

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"cloud.google.com/go/compute/metadata"
	"github.com/anthropics/anthropic-sdk-go/vertex"
	"golang.org/x/oauth2/google"
	"google.golang.org/genai"
)

// DefaultVertexRegion is used when GOOGLE_CLOUD_LOCATION is unset.
const DefaultVertexRegion = "us-east5"

// NewVertex returns a Provider that reaches model through Vertex AI.
// Claude models use the Anthropic SDK, Gemini models use the genai SDK.
func NewVertex(ctx context.Context, projectID, region, model string) (Provider, error) {
	lower := strings.ToLower(model)
	switch {
	case strings.HasPrefix(lower, "claude-"):
		return NewAnthropic(model, vertex.WithGoogleAuth(ctx, region, projectID)), nil
	case strings.HasPrefix(lower, "gemini-"):
		return NewGemini(ctx, model, &genai.ClientConfig{
			Project:  projectID,
			Location: region,
			Backend:  genai.BackendVertexAI,
		})
	default:
		return nil, fmt.Errorf("unsupported vertex model: %s (expected claude-* or gemini-*)", model)
	}
}

// DetectProject finds the GCP project from GOOGLE_CLOUD_PROJECT, the GCE
// metadata server, or Application Default Credentials, in that order.
func DetectProject(ctx context.Context) (string, error) {
	if p := os.Getenv("GOOGLE_CLOUD_PROJECT"); p != "" {
		return p, nil
	}
	if metadata.OnGCE() {
		if p, err := metadata.ProjectIDWithContext(ctx); err == nil && p != "" {
			return p, nil
		}
	}
	creds, err := google.FindDefaultCredentials(ctx, "https://www.googleapis.com/auth/cloud-platform")
	if err == nil && creds.ProjectID != "" {
		return creds.ProjectID, nil
	}
	return "", errors.New("no GCP project found; set GOOGLE_CLOUD_PROJECT")
}

func vertexFromEnv(ctx context.Context, model string) (Provider, error) {
	project, err := DetectProject(ctx)
	if err != nil {
		return nil, err
	}
	region := os.Getenv("GOOGLE_CLOUD_LOCATION")
	if region == "" {
		region = DefaultVertexRegion
	}
	if model == "" {
		model = DefaultAnthropicModel
	}
	return NewVertex(ctx, project, region, model)
}
