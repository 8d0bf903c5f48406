/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package client

import (
	"context"
	"net/url"

	"chainguard.dev/evalrun/evaluators"
)

var _ evaluators.Runner = (*Client)(nil)

// Run calls a remote evaluator. It implements evaluators.Runner.
func (c *Client) Run(ctx context.Context, evaluatorID string, req evaluators.Request) (*evaluators.Result, error) {
	var res evaluators.Result
	if err := c.post(ctx, "/api/evaluations/"+url.PathEscape(evaluatorID)+"/evaluate", req, &res); err != nil {
		return nil, err
	}
	if res.Status == "" {
		res.Status = evaluators.StatusProcessed
	}
	return &res, nil
}
