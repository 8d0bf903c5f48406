/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package experiment

import (
	"context"
	"time"

	"chainguard.dev/evalrun/tracing"
	"github.com/chainguard-dev/clog"
	"go.opentelemetry.io/otel/attribute"
)

type targetConfig struct {
	typ      string
	metadata map[string]any
}

// TargetOption configures Target.
type TargetOption func(*targetConfig)

// WithTargetMetadata attaches metadata (model, temperature, ...) to the target.
// Every reference to a target must pass the same metadata or none.
func WithTargetMetadata(md map[string]any) TargetOption {
	return func(c *targetConfig) { c.metadata = md }
}

// WithTargetType sets the type tag of the target. Defaults to "custom".
func WithTargetType(typ string) TargetOption {
	return func(c *targetConfig) { c.typ = typ }
}

// Target runs fn as the named target of the current row.
//
// fn runs in its own root trace and records one dataset entry keyed by the
// row index and the target. The first Target call of a run switches the run
// to per-target tracing: rows no longer open iteration traces, and the
// calling row's iteration trace is discarded. The error of fn is returned
// after its entry is recorded; a panic is re-raised after recording.
func (e *Experiment) Target(ctx context.Context, name string, fn func(ctx context.Context) error, opts ...TargetOption) (err error) {
	cfg := targetConfig{typ: DefaultTargetType}
	for _, opt := range opts {
		opt(&cfg)
	}

	info, err := e.registerTarget(name, cfg.typ, cfg.metadata)
	if err != nil {
		return err
	}

	var index int
	var item any
	if ic := iterationFrom(ctx); ic != nil {
		index, item = ic.index, ic.item
		ic.usedTarget.Store(true)
		ic.discardSpan()
	}
	if e.targetMode.CompareAndSwap(false, true) {
		clog.FromContext(ctx).With("experiment", e.slug, "target", info.ID).
			Info("Switching to per-target tracing")
	}

	tctx, span := tracing.Start(ctx, "target "+name,
		tracing.WithNewRoot(),
		tracing.WithType(tracing.TypeAgent),
		tracing.WithProvider(e.tp),
		tracing.WithInput(item),
		tracing.WithAttributes(
			attribute.Int("evaluation.index", index),
			attribute.String("evaluation.run_id", e.runID),
			attribute.String("evaluation.target", info.ID),
		))
	tc := &targetContext{id: info.ID, index: index, traceID: span.TraceID()}
	tctx = withTarget(tctx, tc)

	start := time.Now()
	defer func() {
		r := recover()
		if r != nil {
			err = newPanicError(r)
		}

		predicted := tc.prediction()
		if predicted != nil {
			span.SetOutput(predicted)
		}
		span.End(err)

		entry := BatchEntry{
			Index:     index,
			Entry:     item,
			Duration:  time.Since(start).Milliseconds(),
			TraceID:   tc.traceID,
			TargetID:  tc.id,
			Predicted: predicted,
		}
		if err != nil {
			entry.Error = err.Error()
		}
		e.appendEntry(entry)

		if r != nil {
			panic(r)
		}
	}()

	return fn(tctx)
}
