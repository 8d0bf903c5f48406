/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package experiment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"math"
	"strconv"
	"strings"
	"time"
)

type logConfig struct {
	data           map[string]any
	score          *float64
	passed         *bool
	label          string
	details        string
	status         Status
	duration       time.Duration
	cost           *Money
	err            error
	target         string
	targetMetadata map[string]any
	evaluatorID    string
}

// LogOption configures Log.
type LogOption func(*logConfig)

// WithData records the inputs the metric was computed from.
func WithData(data map[string]any) LogOption {
	return func(c *logConfig) { c.data = data }
}

// WithScore records a numeric score.
func WithScore(score float64) LogOption {
	return func(c *logConfig) { c.score = &score }
}

// WithPassed records a pass/fail verdict.
func WithPassed(passed bool) LogOption {
	return func(c *logConfig) { c.passed = &passed }
}

// WithLabel records a categorical label.
func WithLabel(label string) LogOption {
	return func(c *logConfig) { c.label = label }
}

// WithDetails records a free-form explanation.
func WithDetails(details string) LogOption {
	return func(c *logConfig) { c.details = details }
}

// WithStatus overrides the status of the result.
func WithStatus(status Status) LogOption {
	return func(c *logConfig) { c.status = status }
}

// WithDuration records how long computing the metric took.
func WithDuration(d time.Duration) LogOption {
	return func(c *logConfig) { c.duration = d }
}

// WithCost records the cost of computing the metric.
func WithCost(amount float64, currency string) LogOption {
	return func(c *logConfig) { c.cost = &Money{Currency: currency, Amount: amount} }
}

// WithError records err on the result and sets its status to error.
func WithError(err error) LogOption {
	return func(c *logConfig) { c.err = err }
}

// WithTarget attributes the result to the named target instead of the ambient one.
func WithTarget(name string) LogOption {
	return func(c *logConfig) { c.target = name }
}

// WithLogTargetMetadata is the metadata of the target named by WithTarget.
func WithLogTargetMetadata(md map[string]any) LogOption {
	return func(c *logConfig) { c.targetMetadata = md }
}

func withEvaluatorID(id string) LogOption {
	return func(c *logConfig) { c.evaluatorID = id }
}

// Log records one evaluation result for metric on row index.
//
// index must be an integer, an integral float, or a string holding an
// integer; anything else fails with ErrInvalidIndex. The target is the one
// named by WithTarget, else the ambient Target scope, else none.
func (e *Experiment) Log(ctx context.Context, metric string, index any, opts ...LogOption) error {
	idx, err := toIndex(index)
	if err != nil {
		return err
	}
	var cfg logConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	res := EvaluationResult{
		Name:        metric,
		EvaluatorID: cfg.evaluatorID,
		TraceID:     traceIDFrom(ctx),
		Status:      StatusProcessed,
		Score:       cfg.score,
		Passed:      cfg.passed,
		Label:       cfg.label,
		Details:     cfg.details,
		Cost:        cfg.cost,
		Duration:    cfg.duration.Milliseconds(),
		Index:       idx,
		Data:        maps.Clone(cfg.data),
	}
	if cfg.err != nil {
		res.Status = StatusError
		res.Error = captureError(cfg.err)
	}
	if cfg.status != "" {
		res.Status = cfg.status
	}

	switch {
	case cfg.target != "":
		info, err := e.registerTarget(cfg.target, "", cfg.targetMetadata)
		if err != nil {
			return err
		}
		res.TargetID = info.ID
	default:
		if tc := targetFrom(ctx); tc != nil {
			res.TargetID = tc.id
		}
	}

	resultCounter.WithLabelValues(e.slug, metric, string(res.Status)).Inc()
	e.metrics.RecordResult(ctx, metric, string(res.Status), cfg.duration)
	if cfg.cost != nil {
		e.metrics.RecordCost(ctx, metric, cfg.cost.Currency, cfg.cost.Amount)
	}

	e.appendEvaluation(res)
	e.observe(ctx, res)
	return nil
}

// toIndex converts a row index of any integer-like type to int.
func toIndex(v any) (int, error) {
	switch x := v.(type) {
	case int:
		return x, nil
	case int8:
		return int(x), nil
	case int16:
		return int(x), nil
	case int32:
		return int(x), nil
	case int64:
		return intFrom(x, v)
	case uint:
		return uintFrom(uint64(x), v)
	case uint8:
		return int(x), nil
	case uint16:
		return int(x), nil
	case uint32:
		return uintFrom(uint64(x), v)
	case uint64:
		return uintFrom(x, v)
	case float32:
		return floatFrom(float64(x), v)
	case float64:
		return floatFrom(x, v)
	case json.Number:
		n, err := x.Int64()
		if err != nil {
			return 0, invalidIndex(v)
		}
		return intFrom(n, v)
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(x))
		if err != nil {
			return 0, invalidIndex(v)
		}
		return n, nil
	}
	return 0, invalidIndex(v)
}

func intFrom(n int64, v any) (int, error) {
	if n > math.MaxInt || n < math.MinInt {
		return 0, invalidIndex(v)
	}
	return int(n), nil
}

func uintFrom(n uint64, v any) (int, error) {
	if n > math.MaxInt {
		return 0, invalidIndex(v)
	}
	return int(n), nil
}

func floatFrom(f float64, v any) (int, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) || f > math.MaxInt64 || f < math.MinInt64 {
		return 0, invalidIndex(v)
	}
	return int(f), nil
}

func invalidIndex(v any) error {
	return fmt.Errorf("%w: %v (%T)", ErrInvalidIndex, v, v)
}

// captureError describes err by the type of its innermost cause. Errors in the
// chain with a StackTrace method supply the traceback.
func captureError(err error) *ErrorCapture {
	inner := err
	for {
		next := errors.Unwrap(inner)
		if next == nil {
			break
		}
		inner = next
	}
	capture := &ErrorCapture{
		Kind:    fmt.Sprintf("%T", inner),
		Message: err.Error(),
	}
	var st interface{ StackTrace() []string }
	if errors.As(err, &st) {
		capture.Traceback = st.StackTrace()
	}
	return capture
}
