/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package tracing

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"
)

const instrumentationName = "chainguard.dev/evalrun/tracing"

// Attribute keys written by this package.
const (
	AttrSpanType  = "evalrun.span.type"
	AttrInput     = "evalrun.input"
	AttrOutput    = "evalrun.output"
	AttrDiscarded = "evalrun.discarded"
)

// maxPayloadLen bounds serialized input and output attributes.
const maxPayloadLen = 8192

// SpanType classifies a span for the collector UI.
type SpanType string

const (
	TypeSpan       SpanType = "span"
	TypeLLM        SpanType = "llm"
	TypeChain      SpanType = "chain"
	TypeTool       SpanType = "tool"
	TypeAgent      SpanType = "agent"
	TypeRAG        SpanType = "rag"
	TypeEvaluation SpanType = "evaluation"
)

// Span is a scoped unit of traced work.
type Span struct {
	Name      string         `json:"name"`
	Type      SpanType       `json:"type"`
	Input     any            `json:"input,omitempty"`
	Output    any            `json:"output,omitempty"`
	Error     error          `json:"error,omitempty"`
	StartTime time.Time      `json:"start_time"`
	EndTime   time.Time      `json:"end_time"`
	Metadata  map[string]any `json:"metadata,omitempty"`

	mu    sync.Mutex // Protects mutable fields
	ended bool
	span  oteltrace.Span
}

type startConfig struct {
	spanType SpanType
	input    any
	newRoot  bool
	provider oteltrace.TracerProvider
	attrs    []attribute.KeyValue
}

// Option configures Start.
type Option func(*startConfig)

// WithType sets the span type. Defaults to TypeSpan.
func WithType(t SpanType) Option {
	return func(c *startConfig) { c.spanType = t }
}

// WithInput records the input of the traced work.
func WithInput(v any) Option {
	return func(c *startConfig) { c.input = v }
}

// WithNewRoot starts the span as the root of a new trace.
func WithNewRoot() Option {
	return func(c *startConfig) { c.newRoot = true }
}

// WithAttributes adds attributes to the span at start.
func WithAttributes(attrs ...attribute.KeyValue) Option {
	return func(c *startConfig) { c.attrs = append(c.attrs, attrs...) }
}

// WithProvider overrides the provider taken from the context.
func WithProvider(tp oteltrace.TracerProvider) Option {
	return func(c *startConfig) { c.provider = tp }
}

// Start opens a span named name and returns a context carrying it.
// The caller must call End (or Discard) exactly once; later calls are no-ops.
func Start(ctx context.Context, name string, opts ...Option) (context.Context, *Span) {
	cfg := startConfig{spanType: TypeSpan}
	for _, opt := range opts {
		opt(&cfg)
	}
	tp := cfg.provider
	if tp == nil {
		tp = TracerProviderFromContext(ctx)
	}

	tr := tp.Tracer(instrumentationName, oteltrace.WithInstrumentationVersion("1.0.0"))

	attrs := append([]attribute.KeyValue{attribute.String(AttrSpanType, string(cfg.spanType))}, cfg.attrs...)
	if cfg.input != nil {
		attrs = append(attrs, attribute.String(AttrInput, serialize(cfg.input)))
	}
	startOpts := []oteltrace.SpanStartOption{oteltrace.WithAttributes(attrs...)}
	if cfg.newRoot {
		startOpts = append(startOpts, oteltrace.WithNewRoot())
	}

	ctx, span := tr.Start(ctx, name, startOpts...)

	return ctx, &Span{
		Name:      name,
		Type:      cfg.spanType,
		Input:     cfg.input,
		StartTime: time.Now(),
		Metadata:  make(map[string]any),
		span:      span,
	}
}

// TraceID returns the hex trace id of the span, or "" for non-recording no-op spans.
func (s *Span) TraceID() string {
	sc := s.span.SpanContext()
	if !sc.HasTraceID() {
		return ""
	}
	return sc.TraceID().String()
}

// SpanID returns the hex span id of the span.
func (s *Span) SpanID() string {
	sc := s.span.SpanContext()
	if !sc.HasSpanID() {
		return ""
	}
	return sc.SpanID().String()
}

// SetInput records the input, replacing any previous value.
func (s *Span) SetInput(v any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Input = v
	s.span.SetAttributes(attribute.String(AttrInput, serialize(v)))
}

// SetOutput records the output, replacing any previous value.
func (s *Span) SetOutput(v any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Output = v
	if v != nil {
		s.span.SetAttributes(attribute.String(AttrOutput, serialize(v)))
	}
}

// SetMetadata stores a key/value pair on the span.
func (s *Span) SetMetadata(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Metadata[key] = value
	s.span.SetAttributes(attribute.String("evalrun.metadata."+key, serialize(value)))
}

// SetAttributes forwards attributes to the underlying span.
func (s *Span) SetAttributes(attrs ...attribute.KeyValue) {
	s.span.SetAttributes(attrs...)
}

// RecordUsage records model and token usage as span attributes.
func (s *Span) RecordUsage(model string, inputTokens, outputTokens int64) {
	s.span.SetAttributes(
		attribute.String("model", model),
		attribute.Int64("tokens.input", inputTokens),
		attribute.Int64("tokens.output", outputTokens),
		attribute.Int64("tokens.total", inputTokens+outputTokens),
	)
}

// End closes the span, recording err when non-nil.
func (s *Span) End(err error) {
	s.mu.Lock()
	if s.ended {
		s.mu.Unlock()
		return
	}
	s.ended = true
	s.Error = err
	s.EndTime = time.Now()
	s.mu.Unlock()

	if err != nil {
		s.span.RecordError(err)
		s.span.SetStatus(codes.Error, err.Error())
	} else {
		s.span.SetStatus(codes.Ok, "")
	}
	s.span.End()
}

// Discard closes the span and marks it so FilterDiscarded drops it.
func (s *Span) Discard() {
	s.mu.Lock()
	if s.ended {
		s.mu.Unlock()
		return
	}
	s.ended = true
	s.EndTime = time.Now()
	s.mu.Unlock()

	s.span.SetAttributes(attribute.Bool(AttrDiscarded, true))
	s.span.End()
}

// Ended reports whether End or Discard has been called.
func (s *Span) Ended() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ended
}

// Duration returns the elapsed time, up to now for open spans.
func (s *Span) Duration() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.EndTime.IsZero() {
		return time.Since(s.StartTime)
	}
	return s.EndTime.Sub(s.StartTime)
}

func serialize(v any) string {
	var out string
	switch x := v.(type) {
	case string:
		out = x
	case fmt.Stringer:
		out = x.String()
	default:
		b, err := json.Marshal(v)
		if err != nil {
			out = fmt.Sprintf("%v", v)
		} else {
			out = string(b)
		}
	}
	if len(out) > maxPayloadLen {
		n := maxPayloadLen - 3
		for n > 0 && !utf8.RuneStart(out[n]) {
			n--
		}
		out = out[:n] + "..."
	}
	return out
}
