/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package evaluators

import (
	"context"
	"fmt"
)

// Status of an evaluation result.
type Status string

const (
	StatusProcessed Status = "processed"
	StatusError     Status = "error"
	StatusSkipped   Status = "skipped"
)

// Money is a cost in a currency.
type Money struct {
	Currency string  `json:"currency"`
	Amount   float64 `json:"amount"`
}

// Row holds the fields an evaluator may look at. Every field is optional.
type Row struct {
	Input            string   `json:"input,omitempty"`
	Output           string   `json:"output,omitempty"`
	Contexts         []string `json:"contexts,omitempty"`
	ExpectedOutput   string   `json:"expected_output,omitempty"`
	ExpectedContexts []string `json:"expected_contexts,omitempty"`
}

// RowFromData builds a Row from a loosely typed data map. Unknown keys are ignored
// and non-string values are formatted with %v.
func RowFromData(data map[string]any) Row {
	return Row{
		Input:            stringField(data, "input"),
		Output:           stringField(data, "output"),
		Contexts:         listField(data, "contexts"),
		ExpectedOutput:   stringField(data, "expected_output"),
		ExpectedContexts: listField(data, "expected_contexts"),
	}
}

func stringField(data map[string]any, key string) string {
	switch v := data[key].(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprintf("%v", v)
	}
}

func listField(data map[string]any, key string) []string {
	switch v := data[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, x := range v {
			if s, ok := x.(string); ok {
				out = append(out, s)
			} else {
				out = append(out, fmt.Sprintf("%v", x))
			}
		}
		return out
	case string:
		return []string{v}
	default:
		return nil
	}
}

// Settings configures a single evaluator call.
type Settings map[string]any

// Bool returns the boolean setting key, or def when absent or not a bool.
func (s Settings) Bool(key string, def bool) bool {
	if v, ok := s[key].(bool); ok {
		return v
	}
	return def
}

// String returns the string setting key, or def when absent or not a string.
func (s Settings) String(key, def string) string {
	if v, ok := s[key].(string); ok {
		return v
	}
	return def
}

// Float returns the numeric setting key, or def when absent.
func (s Settings) Float(key string, def float64) float64 {
	switch v := s[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	}
	return def
}

// Result is the outcome of one evaluator call.
type Result struct {
	Status  Status   `json:"status"`
	Score   *float64 `json:"score,omitempty"`
	Passed  *bool    `json:"passed,omitempty"`
	Label   string   `json:"label,omitempty"`
	Details string   `json:"details,omitempty"`
	Cost    *Money   `json:"cost,omitempty"`
}

// Processed returns a processed result carrying score.
func Processed(score float64) *Result {
	return &Result{Status: StatusProcessed, Score: &score}
}

// Verdict returns a processed result carrying a score and a pass/fail verdict.
func Verdict(score float64, passed bool, details string) *Result {
	return &Result{Status: StatusProcessed, Score: &score, Passed: &passed, Details: details}
}

// Skipped returns a skipped result explaining why.
func Skipped(reason string) *Result {
	return &Result{Status: StatusSkipped, Details: reason}
}

// Failed returns an error result describing err.
func Failed(err error) *Result {
	return &Result{Status: StatusError, Details: err.Error()}
}

// Evaluator scores a single row.
type Evaluator interface {
	Evaluate(ctx context.Context, row Row, settings Settings) (*Result, error)
}

// Func adapts an ordinary function to Evaluator.
type Func func(ctx context.Context, row Row, settings Settings) (*Result, error)

// Evaluate implements Evaluator.
func (f Func) Evaluate(ctx context.Context, row Row, settings Settings) (*Result, error) {
	return f(ctx, row, settings)
}

// Request is one call to an evaluator addressed by id.
type Request struct {
	TraceID     string         `json:"trace_id,omitempty"`
	Data        map[string]any `json:"data,omitempty"`
	Settings    Settings       `json:"settings,omitempty"`
	Name        string         `json:"name,omitempty"`
	AsGuardrail bool           `json:"as_guardrail"`
}

// Runner runs evaluators by id.
type Runner interface {
	Run(ctx context.Context, evaluatorID string, req Request) (*Result, error)
}

// RunnerFunc adapts an ordinary function to Runner.
type RunnerFunc func(ctx context.Context, evaluatorID string, req Request) (*Result, error)

// Run implements Runner.
func (f RunnerFunc) Run(ctx context.Context, evaluatorID string, req Request) (*Result, error) {
	return f(ctx, evaluatorID, req)
}
