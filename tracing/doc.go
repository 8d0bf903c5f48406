/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

/*
Package tracing provides scoped spans for instrumenting LLM calls and
evaluation loops on top of OpenTelemetry.

# Overview

Instrumentation is explicit. A call site opens a span, does its work and ends
the span with the outcome:

	ctx, span := tracing.Start(ctx, "summarize", tracing.WithType(tracing.TypeLLM))
	out, err := callModel(ctx, prompt)
	span.SetOutput(out)
	span.End(err)

Functions can be wrapped once instead of instrumenting every call site:

	summarize := tracing.Instrument("summarize", callModel)
	out, err := summarize(ctx, prompt)

# Providers

Spans are created from the TracerProvider bound to the context with
WithTracerProvider, falling back to the global OpenTelemetry provider. Setup
builds a provider that exports over OTLP/HTTP to the collector, and
FilterDiscarded wraps any span processor so that spans ended with Discard are
never exported.

# Independent roots

WithNewRoot starts a span that does not inherit the active span of the
context. Evaluation targets use it so that each target owns its own trace.
*/
package tracing
