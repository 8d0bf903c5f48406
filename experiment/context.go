/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package experiment

import (
	"context"
	"maps"
	"sync"
	"sync/atomic"

	"chainguard.dev/evalrun/tracing"
)

type iterationKey struct{}
type targetKey struct{}

// iterationContext is bound to the context of one row.
type iterationContext struct {
	index int
	item  any

	// usedTarget is set once the row enters a Target scope.
	usedTarget atomic.Bool

	mu   sync.Mutex
	span *tracing.Span
}

// discardSpan drops the row's open iteration span, if any.
func (ic *iterationContext) discardSpan() {
	ic.mu.Lock()
	span := ic.span
	ic.span = nil
	ic.mu.Unlock()
	if span != nil && !span.Ended() {
		span.Discard()
	}
}

// targetContext is bound to the context of one Target scope.
type targetContext struct {
	id      string
	index   int
	traceID string

	mu        sync.Mutex
	predicted map[string]any
}

func (tc *targetContext) setPredicted(p map[string]any) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	tc.predicted = p
}

func (tc *targetContext) prediction() map[string]any {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	return maps.Clone(tc.predicted)
}

func withIteration(ctx context.Context, ic *iterationContext) context.Context {
	return context.WithValue(ctx, iterationKey{}, ic)
}

func iterationFrom(ctx context.Context) *iterationContext {
	ic, _ := ctx.Value(iterationKey{}).(*iterationContext)
	return ic
}

func withTarget(ctx context.Context, tc *targetContext) context.Context {
	return context.WithValue(ctx, targetKey{}, tc)
}

func targetFrom(ctx context.Context) *targetContext {
	tc, _ := ctx.Value(targetKey{}).(*targetContext)
	return tc
}

// CurrentIndex returns the index of the row ctx belongs to.
func CurrentIndex(ctx context.Context) (int, bool) {
	if tc := targetFrom(ctx); tc != nil {
		return tc.index, true
	}
	if ic := iterationFrom(ctx); ic != nil {
		return ic.index, true
	}
	return 0, false
}

// CurrentTarget returns the id of the target scope ctx belongs to.
func CurrentTarget(ctx context.Context) (string, bool) {
	if tc := targetFrom(ctx); tc != nil {
		return tc.id, true
	}
	return "", false
}

// traceIDFrom resolves the trace of ctx: the ambient target first, then the active span.
func traceIDFrom(ctx context.Context) string {
	if tc := targetFrom(ctx); tc != nil {
		return tc.traceID
	}
	return tracing.TraceIDFromContext(ctx)
}
