/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package client

import (
	"context"
	"fmt"

	"chainguard.dev/evalrun/retry"
	"github.com/chainguard-dev/clog"
)

// ExperimentType is the run type registered by InitExperiment.
const ExperimentType = "BATCH_EVALUATION_V2"

// InitRequest is the body of POST /api/experiment/init.
type InitRequest struct {
	Name string `json:"experiment_name,omitempty"`
	Slug string `json:"experiment_slug"`
	Type string `json:"experiment_type"`
}

// ExperimentInfo is the collector's answer to InitExperiment.
type ExperimentInfo struct {
	// Path is the UI path of the experiment, relative to the endpoint.
	Path string `json:"path"`
	// Slug is the canonical slug, which may differ from the requested one.
	Slug string `json:"slug"`
}

// URL returns the link to the experiment in the collector UI.
func (e *ExperimentInfo) URL(endpoint string) string {
	return endpoint + e.Path
}

// InitExperiment registers an experiment run. A 401 invalidates the stored
// credentials and returns an error matching ErrUnauthorized.
func (c *Client) InitExperiment(ctx context.Context, name, slug string) (*ExperimentInfo, error) {
	body := InitRequest{Name: name, Slug: slug, Type: ExperimentType}

	info, err := retry.Do(ctx, c.retry, "experiment init", IsRetryable, func(ctx context.Context) (*ExperimentInfo, error) {
		var info ExperimentInfo
		if err := c.post(ctx, "/api/experiment/init", body, &info); err != nil {
			return nil, err
		}
		return &info, nil
	})
	if isUnauthorized(err) {
		if ierr := c.creds.Invalidate(ctx); ierr != nil {
			clog.WarnContextf(ctx, "Failed to invalidate credentials: %v", ierr)
		}
		return nil, fmt.Errorf("initializing experiment %q: %w", slug, err)
	} else if err != nil {
		return nil, fmt.Errorf("initializing experiment %q: %w", slug, err)
	}
	if info.Slug == "" {
		info.Slug = slug
	}
	return info, nil
}
