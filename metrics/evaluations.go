/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package metrics

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// DefaultMeterName is the meter used when NewEvaluations is given an empty name.
const DefaultMeterName = "chainguard.dev/evalrun"

// Evaluations provides OpenTelemetry instruments for evaluation runs.
// Instruments that fail to initialize degrade to no-ops.
type Evaluations struct {
	results      metric.Int64Counter
	duration     metric.Float64Histogram
	cost         metric.Float64Counter
	flushes      metric.Int64Counter
	attrEnricher AttributeEnricher
}

// NewEvaluations creates the instruments on the global MeterProvider.
func NewEvaluations(meterName string) *Evaluations {
	return NewEvaluationsWithProvider(otel.GetMeterProvider(), meterName)
}

// NewEvaluationsWithProvider creates the instruments on mp.
func NewEvaluationsWithProvider(mp metric.MeterProvider, meterName string) *Evaluations {
	if meterName == "" {
		meterName = DefaultMeterName
	}
	meter := mp.Meter(meterName, metric.WithInstrumentationVersion("1.0.0"))

	results, err := meter.Int64Counter("evalrun.evaluation.results",
		metric.WithDescription("The number of evaluation results logged, by status"),
		metric.WithUnit("{results}"))
	if err != nil {
		slog.Warn("Failed to create results counter, metrics will be disabled", "error", err, "meter", meterName)
		results = noop.Int64Counter{}
	}

	duration, err := meter.Float64Histogram("evalrun.evaluation.duration",
		metric.WithDescription("Wall-clock duration of evaluator calls"),
		metric.WithUnit("ms"))
	if err != nil {
		slog.Warn("Failed to create duration histogram, metrics will be disabled", "error", err, "meter", meterName)
		duration = noop.Float64Histogram{}
	}

	cost, err := meter.Float64Counter("evalrun.evaluation.cost",
		metric.WithDescription("Reported cost of evaluations"),
		metric.WithUnit("{currency}"))
	if err != nil {
		slog.Warn("Failed to create cost counter, metrics will be disabled", "error", err, "meter", meterName)
		cost = noop.Float64Counter{}
	}

	flushes, err := meter.Int64Counter("evalrun.batch.flushes",
		metric.WithDescription("The number of batch flush attempts, by outcome"),
		metric.WithUnit("{flushes}"))
	if err != nil {
		slog.Warn("Failed to create flush counter, metrics will be disabled", "error", err, "meter", meterName)
		flushes = noop.Int64Counter{}
	}

	return &Evaluations{
		results:  results,
		duration: duration,
		cost:     cost,
		flushes:  flushes,
	}
}

// SetAttributeEnricher sets the enricher applied before each measurement.
func (m *Evaluations) SetAttributeEnricher(enricher AttributeEnricher) {
	m.attrEnricher = enricher
}

func (m *Evaluations) attrs(ctx context.Context, base []attribute.KeyValue, extra []attribute.KeyValue) metric.MeasurementOption {
	if m.attrEnricher != nil {
		base = m.attrEnricher(ctx, base)
	}
	return metric.WithAttributes(append(base, extra...)...)
}

// RecordResult counts one logged result for metric with the given status.
// A positive duration is also recorded on the histogram.
func (m *Evaluations) RecordResult(ctx context.Context, metricName, status string, d time.Duration, attrs ...attribute.KeyValue) {
	opt := m.attrs(ctx, []attribute.KeyValue{
		attribute.String("metric", metricName),
		attribute.String("status", status),
	}, attrs)

	m.results.Add(ctx, 1, opt)
	if d > 0 {
		m.duration.Record(ctx, float64(d)/float64(time.Millisecond), opt)
	}
}

// RecordCost adds amount in currency to the cost counter.
func (m *Evaluations) RecordCost(ctx context.Context, metricName, currency string, amount float64, attrs ...attribute.KeyValue) {
	if amount <= 0 {
		return
	}
	m.cost.Add(ctx, amount, m.attrs(ctx, []attribute.KeyValue{
		attribute.String("metric", metricName),
		attribute.String("currency", currency),
	}, attrs))
}

// RecordFlush counts one flush attempt; final marks the end-of-run flush.
func (m *Evaluations) RecordFlush(ctx context.Context, final bool, err error, attrs ...attribute.KeyValue) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.flushes.Add(ctx, 1, m.attrs(ctx, []attribute.KeyValue{
		attribute.Bool("final", final),
		attribute.String("outcome", outcome),
	}, attrs))
}
