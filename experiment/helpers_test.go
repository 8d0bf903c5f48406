/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package experiment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"chainguard.dev/evalrun/client"
	"chainguard.dev/evalrun/config"
	"chainguard.dev/evalrun/retry"
	"chainguard.dev/evalrun/tracing"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// collector is an in-memory results collector.
type collector struct {
	srv *httptest.Server

	mu          sync.Mutex
	inits       int
	payloads    []client.BatchPayload
	batchStatus int
}

func newCollector(t *testing.T) *collector {
	t.Helper()
	c := &collector{batchStatus: http.StatusOK}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/experiment/init", func(w http.ResponseWriter, r *http.Request) {
		var req client.InitRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		c.mu.Lock()
		c.inits++
		c.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(client.ExperimentInfo{Path: "/experiments/" + req.Slug, Slug: req.Slug})
	})
	mux.HandleFunc("POST /api/evaluations/batch/log_results", func(w http.ResponseWriter, r *http.Request) {
		var p client.BatchPayload
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		c.mu.Lock()
		status := c.batchStatus
		if status < 400 {
			c.payloads = append(c.payloads, p)
		}
		c.mu.Unlock()
		w.WriteHeader(status)
	})
	c.srv = httptest.NewServer(mux)
	t.Cleanup(c.srv.Close)
	return c
}

func (c *collector) setBatchStatus(status int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.batchStatus = status
}

func (c *collector) calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.payloads)
}

func (c *collector) all() []client.BatchPayload {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]client.BatchPayload(nil), c.payloads...)
}

func (c *collector) dataset() []BatchEntry {
	var out []BatchEntry
	for _, p := range c.all() {
		out = append(out, p.Dataset...)
	}
	return out
}

func (c *collector) evaluations() []EvaluationResult {
	var out []EvaluationResult
	for _, p := range c.all() {
		out = append(out, p.Evaluations...)
	}
	return out
}

func (c *collector) targets() []TargetInfo {
	var out []TargetInfo
	for _, p := range c.all() {
		out = append(out, p.Targets...)
	}
	return out
}

type fixture struct {
	e         *Experiment
	collector *collector
	spans     *tracetest.SpanRecorder
}

func testSlug(t *testing.T) string {
	return strings.ToLower(strings.NewReplacer("/", "-", " ", "-").Replace(t.Name()))
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	col := newCollector(t)
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(tracing.FilterDiscarded(sr)))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	base := []Option{
		WithConfig(&config.Config{
			Endpoint:      col.srv.URL,
			Threads:       4,
			LogLevel:      "info",
			FlushDebounce: time.Hour,
		}),
		WithAPIKey("test-key"),
		WithHTTPClient(col.srv.Client()),
		WithRetry(retry.Config{Attempts: 3, BaseBackoff: time.Millisecond, MaxBackoff: 2 * time.Millisecond}),
		WithTracerProvider(tp),
		WithFlushErrorHandler(func(error) {}),
	}
	e, err := Init(context.Background(), testSlug(t), append(base, opts...)...)
	if err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	t.Cleanup(func() { _ = e.Close(context.Background()) })
	return &fixture{e: e, collector: col, spans: sr}
}

func (f *fixture) spanNames() []string {
	var names []string
	for _, s := range f.spans.Ended() {
		names = append(names, s.Name())
	}
	return names
}

func httpStatus(code int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(code)
	})
}
