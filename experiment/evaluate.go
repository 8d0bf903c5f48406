/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package experiment

import (
	"context"
	"time"

	"chainguard.dev/evalrun/evaluators"
	"chainguard.dev/evalrun/tracing"
	"go.opentelemetry.io/otel/attribute"
)

type evaluateConfig struct {
	data        map[string]any
	settings    evaluators.Settings
	name        string
	asGuardrail bool
}

// EvaluateOption configures Evaluate.
type EvaluateOption func(*evaluateConfig)

// WithEvaluationData sets the row fields passed to the evaluator.
func WithEvaluationData(data map[string]any) EvaluateOption {
	return func(c *evaluateConfig) { c.data = data }
}

// WithSettings sets the evaluator settings.
func WithSettings(s evaluators.Settings) EvaluateOption {
	return func(c *evaluateConfig) { c.settings = s }
}

// WithMetricName sets the metric name of the logged result. Defaults to the evaluator id.
func WithMetricName(name string) EvaluateOption {
	return func(c *evaluateConfig) { c.name = name }
}

// AsGuardrail marks the evaluation as a guardrail check.
func AsGuardrail() EvaluateOption {
	return func(c *evaluateConfig) { c.asGuardrail = true }
}

// Evaluate runs evaluatorID on row index and logs the result.
// Errors of the evaluator runner are returned unchanged and nothing is logged.
func (e *Experiment) Evaluate(ctx context.Context, evaluatorID string, index any, opts ...EvaluateOption) error {
	if _, err := toIndex(index); err != nil {
		return err
	}
	cfg := evaluateConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	name := cfg.name
	if name == "" {
		name = evaluatorID
	}

	traceID := traceIDFrom(ctx)
	sctx, span := tracing.Start(ctx, "evaluate "+evaluatorID,
		tracing.WithType(tracing.TypeEvaluation),
		tracing.WithProvider(e.tp),
		tracing.WithInput(cfg.data),
		tracing.WithAttributes(
			attribute.String("evaluation.evaluator", evaluatorID),
			attribute.Bool("evaluation.guardrail", cfg.asGuardrail),
		))

	start := time.Now()
	res, err := e.runner.Run(sctx, evaluatorID, evaluators.Request{
		TraceID:     traceID,
		Data:        cfg.data,
		Settings:    cfg.settings,
		Name:        name,
		AsGuardrail: cfg.asGuardrail,
	})
	duration := time.Since(start)
	if err != nil {
		span.End(err)
		return err
	}
	span.SetOutput(res)
	span.End(nil)

	logOpts := []LogOption{
		WithData(cfg.data),
		WithStatus(res.Status),
		WithDuration(duration),
		withEvaluatorID(evaluatorID),
	}
	if res.Score != nil {
		logOpts = append(logOpts, WithScore(*res.Score))
	}
	if res.Passed != nil {
		logOpts = append(logOpts, WithPassed(*res.Passed))
	}
	if res.Label != "" {
		logOpts = append(logOpts, WithLabel(res.Label))
	}
	if res.Details != "" {
		logOpts = append(logOpts, WithDetails(res.Details))
	}
	if res.Cost != nil {
		logOpts = append(logOpts, WithCost(res.Cost.Amount, res.Cost.Currency))
	}
	return e.Log(ctx, name, index, logOpts...)
}
