/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package tracing

import (
	"context"

	"go.opentelemetry.io/otel"
	oteltrace "go.opentelemetry.io/otel/trace"
)

// providerKey is the context key for the bound TracerProvider
type providerKey struct{}

// WithTracerProvider returns a new context carrying the given TracerProvider.
// Spans started from the returned context use it instead of the global provider.
func WithTracerProvider(ctx context.Context, tp oteltrace.TracerProvider) context.Context {
	return context.WithValue(ctx, providerKey{}, tp)
}

// TracerProviderFromContext returns the provider bound to ctx, or the global provider.
func TracerProviderFromContext(ctx context.Context) oteltrace.TracerProvider {
	if tp, ok := ctx.Value(providerKey{}).(oteltrace.TracerProvider); ok && tp != nil {
		return tp
	}
	return otel.GetTracerProvider()
}

// TraceIDFromContext returns the hex trace id of the active span, or "" when
// the context carries no valid span.
func TraceIDFromContext(ctx context.Context) string {
	sc := oteltrace.SpanContextFromContext(ctx)
	if !sc.HasTraceID() {
		return ""
	}
	return sc.TraceID().String()
}

// SpanIDFromContext returns the hex span id of the active span, or "".
func SpanIDFromContext(ctx context.Context) string {
	sc := oteltrace.SpanContextFromContext(ctx)
	if !sc.HasSpanID() {
		return ""
	}
	return sc.SpanID().String()
}
