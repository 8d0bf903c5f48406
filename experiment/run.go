/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package experiment

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"slices"
	"strings"
	"time"

	"chainguard.dev/evalrun/tracing"
	"github.com/chainguard-dev/clog"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

// Iteration is the row handed to the per-row function of Run.
type Iteration[T any] struct {
	Index int
	Item  T
}

type runConfig struct {
	threads int
	total   int
}

// RunOption configures Run.
type RunOption func(*runConfig)

// WithThreads sets the number of rows processed concurrently. 1 runs serially.
func WithThreads(n int) RunOption {
	return func(c *runConfig) { c.threads = max(n, 1) }
}

// WithTotal sets the number of rows for progress reporting.
func WithTotal(n int) RunOption {
	return func(c *runConfig) { c.total = n }
}

// RunSlice is Run over a slice. The total is taken from len(items).
func RunSlice[T any](ctx context.Context, e *Experiment, items []T, fn func(context.Context, Iteration[T]) error, opts ...RunOption) error {
	return Run(ctx, e, slices.Values(items), fn, append([]RunOption{WithTotal(len(items))}, opts...)...)
}

// Run calls fn for every item on a bounded worker pool.
//
// Errors and panics of fn are logged and recorded on the row; they do not
// stop the run. Cancellation of ctx or a panic of the item sequence stops
// submission, waits for the rows in flight, and uploads a final batch
// marked as stopped. Run returns the run-level error joined with any
// background upload errors.
func Run[T any](ctx context.Context, e *Experiment, items iter.Seq[T], fn func(context.Context, Iteration[T]) error, opts ...RunOption) error {
	cfg := runConfig{threads: e.threads}
	for _, opt := range opts {
		opt(&cfg)
	}

	e.beginRun(cfg.total)
	ctx = tracing.WithTracerProvider(ctx, e.tp)
	log := clog.FromContext(ctx).With("experiment", e.slug, "run_id", e.runID)
	log.With("threads", cfg.threads).With("total", cfg.total).Info("Starting run")

	var g errgroup.Group
	g.SetLimit(cfg.threads)

	runErr := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("iterating items: panic: %v", r)
			}
		}()
		index := 0
		for item := range items {
			if err := ctx.Err(); err != nil {
				return err
			}
			i, it := index, item
			g.Go(func() error {
				runRow(ctx, e, i, it, fn)
				return nil
			})
			index++
		}
		return ctx.Err()
	}()

	_ = g.Wait()

	kind := flushFinished
	if runErr != nil {
		kind = flushStopped
		log.Errorf("Run stopped: %v", runErr)
	}
	e.batch.mu.Lock()
	e.flushLocked(kind)
	e.batch.mu.Unlock()
	e.sends.Wait()

	log.Infof("Run complete: %s", e.url)
	return errors.Join(runErr, e.takeFlushErrors())
}

func (e *Experiment) beginRun(total int) {
	e.targetMode.Store(false)
	e.batch.mu.Lock()
	defer e.batch.mu.Unlock()
	e.batch.progress = 0
	e.batch.total = total
}

func runRow[T any](ctx context.Context, e *Experiment, index int, item T, fn func(context.Context, Iteration[T]) error) {
	ic := &iterationContext{index: index, item: item}
	ctx = withIteration(ctx, ic)

	var span *tracing.Span
	if !e.targetMode.Load() {
		ctx, span = tracing.Start(ctx, fmt.Sprintf("iteration %d", index),
			tracing.WithType(tracing.TypeChain),
			tracing.WithProvider(e.tp),
			tracing.WithInput(item),
			tracing.WithAttributes(
				attribute.Int("evaluation.index", index),
				attribute.String("evaluation.run_id", e.runID),
			))
		ic.mu.Lock()
		ic.span = span
		ic.mu.Unlock()
	}

	start := time.Now()
	err := callRow(ctx, fn, Iteration[T]{Index: index, Item: item})
	duration := time.Since(start)

	outcome := "success"
	if err != nil {
		outcome = "error"
		log := clog.FromContext(ctx).With("index", index, "error", err.Error())
		var pe *PanicError
		if errors.As(err, &pe) {
			log = log.With("traceback", strings.Join(pe.Stack, "\n"))
		}
		log.Error("Row failed")
	}
	rowCounter.WithLabelValues(e.slug, outcome).Inc()

	var traceID string
	if span != nil {
		traceID = span.TraceID()
		// No-op when a Target call discarded the span.
		span.End(err)
	}

	if !ic.usedTarget.Load() {
		entry := BatchEntry{
			Index:    index,
			Entry:    item,
			Duration: duration.Milliseconds(),
			TraceID:  traceID,
		}
		if err != nil {
			entry.Error = err.Error()
		}
		e.appendEntry(entry)
	}
	e.rowDone(ctx)
}

// callRow calls fn, converting a panic into a *PanicError.
func callRow[T any](ctx context.Context, fn func(context.Context, Iteration[T]) error, it Iteration[T]) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = newPanicError(r)
		}
	}()
	return fn(ctx, it)
}

func (e *Experiment) rowDone(ctx context.Context) {
	e.batch.mu.Lock()
	e.batch.progress++
	progress, total := e.batch.progress, e.batch.total
	e.batch.mu.Unlock()

	log := clog.FromContext(ctx).With("progress", progress)
	if total > 0 {
		step := max(total/10, 1)
		if progress%step == 0 || progress == total {
			log.With("total", total).Infof("Progress: %d/%d", progress, total)
		}
		return
	}
	log.Debug("Row complete")
}
