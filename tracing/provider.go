/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package tracing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// TracesPath is the collector path spans are exported to.
const TracesPath = "/api/otel/v1/traces"

// Config configures Setup.
type Config struct {
	// Endpoint is the collector base URL, e.g. "https://app.evalrun.dev".
	// When empty no exporter is installed and spans are only kept in process.
	Endpoint string
	// APIKey is sent as a bearer token with every export.
	APIKey string
	// ServiceName is recorded on the resource.
	ServiceName string
	// BatchTimeout is the export interval. Defaults to 5s.
	BatchTimeout time.Duration
}

// Setup builds a TracerProvider that exports over OTLP/HTTP and drops
// discarded spans. The caller owns the provider and must Shutdown it.
func Setup(ctx context.Context, cfg Config) (*sdktrace.TracerProvider, error) {
	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "evalrun"
	}
	res := resource.NewSchemaless(attribute.String("service.name", serviceName))

	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	}

	if cfg.Endpoint != "" {
		if cfg.APIKey == "" {
			return nil, errors.New("tracing: an API key is required to export spans")
		}
		exporter, err := otlptracehttp.New(ctx,
			otlptracehttp.WithEndpointURL(strings.TrimRight(cfg.Endpoint, "/")+TracesPath),
			otlptracehttp.WithHeaders(map[string]string{
				"Authorization": "Bearer " + cfg.APIKey,
			}),
		)
		if err != nil {
			return nil, fmt.Errorf("tracing: creating OTLP exporter: %w", err)
		}
		timeout := cfg.BatchTimeout
		if timeout <= 0 {
			timeout = 5 * time.Second
		}
		opts = append(opts, sdktrace.WithSpanProcessor(
			FilterDiscarded(sdktrace.NewBatchSpanProcessor(exporter, sdktrace.WithBatchTimeout(timeout))),
		))
	}

	return sdktrace.NewTracerProvider(opts...), nil
}

// FilterDiscarded wraps next so that spans ended through Span.Discard are not
// forwarded. Processors that are not wrapped receive discarded spans with
// AttrDiscarded set.
func FilterDiscarded(next sdktrace.SpanProcessor) sdktrace.SpanProcessor {
	return &discardFilter{next: next}
}

type discardFilter struct {
	next sdktrace.SpanProcessor
}

func (d *discardFilter) OnStart(parent context.Context, s sdktrace.ReadWriteSpan) {
	d.next.OnStart(parent, s)
}

func (d *discardFilter) OnEnd(s sdktrace.ReadOnlySpan) {
	if IsDiscarded(s) {
		return
	}
	d.next.OnEnd(s)
}

func (d *discardFilter) Shutdown(ctx context.Context) error {
	return d.next.Shutdown(ctx)
}

func (d *discardFilter) ForceFlush(ctx context.Context) error {
	return d.next.ForceFlush(ctx)
}

// IsDiscarded reports whether s carries the discard mark.
func IsDiscarded(s sdktrace.ReadOnlySpan) bool {
	for _, kv := range s.Attributes() {
		if string(kv.Key) == AttrDiscarded && kv.Value.AsBool() {
			return true
		}
	}
	return false
}
