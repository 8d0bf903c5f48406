/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package client

import (
	"context"

	"chainguard.dev/evalrun/evaluators"
	"chainguard.dev/evalrun/retry"
)

// ErrorCapture describes a failure attached to an evaluation result.
type ErrorCapture struct {
	Kind      string   `json:"kind"`
	Message   string   `json:"message"`
	Traceback []string `json:"traceback,omitempty"`
}

// EvaluationResult is one row of evaluator output.
// Data is sent as "inputs".
type EvaluationResult struct {
	Name        string            `json:"name"`
	EvaluatorID string            `json:"evaluator_id,omitempty"`
	TraceID     string            `json:"trace_id,omitempty"`
	Status      evaluators.Status `json:"status"`
	Score       *float64          `json:"score,omitempty"`
	Passed      *bool             `json:"passed,omitempty"`
	Label       string            `json:"label,omitempty"`
	Details     string            `json:"details,omitempty"`
	Cost        *evaluators.Money `json:"cost,omitempty"`
	Duration    int64             `json:"duration,omitempty"`
	Error       *ErrorCapture     `json:"error,omitempty"`
	TargetID    string            `json:"target_id,omitempty"`
	Index       int               `json:"index"`
	Data        map[string]any    `json:"inputs,omitempty"`
}

// TargetInfo identifies a named comparison target.
type TargetInfo struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	Type     string         `json:"type"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// BatchEntry is one dataset row tied to an iteration or a target execution.
type BatchEntry struct {
	Index     int            `json:"index"`
	Entry     any            `json:"entry"`
	Duration  int64          `json:"duration"`
	Error     string         `json:"error,omitempty"`
	TraceID   string         `json:"trace_id,omitempty"`
	TargetID  string         `json:"target_id,omitempty"`
	Predicted map[string]any `json:"predicted,omitempty"`
}

// Timestamps are unix milliseconds.
type Timestamps struct {
	CreatedAt  int64  `json:"created_at"`
	FinishedAt *int64 `json:"finished_at,omitempty"`
	StoppedAt  *int64 `json:"stopped_at,omitempty"`
}

// BatchPayload is the body of POST /api/evaluations/batch/log_results.
type BatchPayload struct {
	ExperimentSlug string             `json:"experiment_slug"`
	Name           string             `json:"name,omitempty"`
	RunID          string             `json:"run_id"`
	Dataset        []BatchEntry       `json:"dataset"`
	Evaluations    []EvaluationResult `json:"evaluations"`
	Targets        []TargetInfo       `json:"targets,omitempty"`
	Progress       int                `json:"progress"`
	Total          int                `json:"total,omitempty"`
	Timestamps     Timestamps         `json:"timestamps"`
}

// LogResults uploads a batch, retrying transient failures.
func (c *Client) LogResults(ctx context.Context, payload *BatchPayload) error {
	_, err := retry.Do(ctx, c.retry, "log_results", IsRetryable, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, c.post(ctx, "/api/evaluations/batch/log_results", payload, nil)
	})
	return err
}
