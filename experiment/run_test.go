/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package experiment

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"
	dto "github.com/prometheus/client_model/go"
)

func TestRunSerialWithoutTargets(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	items := []string{"a", "b", "c"}
	err := RunSlice(ctx, f.e, items, func(ctx context.Context, it Iteration[string]) error {
		if got, ok := CurrentIndex(ctx); !ok || got != it.Index {
			t.Errorf("CurrentIndex(): got = %d, %v, wanted = %d", got, ok, it.Index)
		}
		return nil
	}, WithThreads(1))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	entries := f.collector.dataset()
	if len(entries) != 3 {
		t.Fatalf("dataset entries: got = %d, wanted = 3", len(entries))
	}
	traces := map[string]bool{}
	var indices []int
	for _, entry := range entries {
		if entry.TraceID == "" {
			t.Errorf("entry %d: got empty trace id", entry.Index)
		}
		if entry.TargetID != "" {
			t.Errorf("entry %d: got target %q, wanted none", entry.Index, entry.TargetID)
		}
		traces[entry.TraceID] = true
		indices = append(indices, entry.Index)
		if want := items[entry.Index]; entry.Entry != want {
			t.Errorf("entry %d payload: got = %v, wanted = %v", entry.Index, entry.Entry, want)
		}
	}
	if len(traces) != 3 {
		t.Errorf("unique trace ids: got = %d, wanted = 3", len(traces))
	}
	slices.Sort(indices)
	if diff := cmp.Diff([]int{0, 1, 2}, indices); diff != "" {
		t.Errorf("indices (-want +got):\n%s", diff)
	}

	names := f.spanNames()
	slices.Sort(names)
	if diff := cmp.Diff([]string{"iteration 0", "iteration 1", "iteration 2"}, names); diff != "" {
		t.Errorf("spans (-want +got):\n%s", diff)
	}

	payloads := f.collector.all()
	last := payloads[len(payloads)-1]
	if last.Timestamps.FinishedAt == nil {
		t.Error("final payload: got no finished_at")
	}
	if last.Progress != 3 || last.Total != 3 {
		t.Errorf("progress: got = %d/%d, wanted = 3/3", last.Progress, last.Total)
	}
	if last.RunID != f.e.RunID() {
		t.Errorf("run id: got = %q, wanted = %q", last.RunID, f.e.RunID())
	}
}

func TestRunWithTargets(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	err := RunSlice(ctx, f.e, []string{"question"}, func(ctx context.Context, it Iteration[string]) error {
		for _, name := range []string{"a", "b"} {
			if err := f.e.Target(ctx, name, func(ctx context.Context) error {
				return f.e.LogResponse(ctx, TextResponse("answer from "+name))
			}); err != nil {
				return err
			}
		}
		return nil
	}, WithThreads(1))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	entries := f.collector.dataset()
	if len(entries) != 2 {
		t.Fatalf("dataset entries: got = %d, wanted = 2", len(entries))
	}
	byTarget := map[string]BatchEntry{}
	for _, entry := range entries {
		if entry.Index != 0 {
			t.Errorf("entry index: got = %d, wanted = 0", entry.Index)
		}
		byTarget[entry.TargetID] = entry
	}
	a, b := byTarget["a"], byTarget["b"]
	if a.TraceID == "" || b.TraceID == "" || a.TraceID == b.TraceID {
		t.Errorf("target trace ids: got a = %q, b = %q, wanted distinct ids", a.TraceID, b.TraceID)
	}
	if diff := cmp.Diff(map[string]any{"output": "answer from a"}, a.Predicted); diff != "" {
		t.Errorf("predicted (-want +got):\n%s", diff)
	}

	var targetIDs []string
	for _, ti := range f.collector.targets() {
		targetIDs = append(targetIDs, ti.ID)
		if ti.Type != DefaultTargetType {
			t.Errorf("target type: got = %q, wanted = %q", ti.Type, DefaultTargetType)
		}
	}
	slices.Sort(targetIDs)
	if diff := cmp.Diff([]string{"a", "b"}, targetIDs); diff != "" {
		t.Errorf("targets (-want +got):\n%s", diff)
	}

	for _, s := range f.spans.Ended() {
		if strings.HasPrefix(s.Name(), "iteration") {
			t.Errorf("exported span %q: iteration spans must be discarded once targets are used", s.Name())
		}
		if strings.HasPrefix(s.Name(), "target") && s.Parent().IsValid() {
			t.Errorf("span %q: got parent %v, wanted a root span", s.Name(), s.Parent())
		}
	}
}

func TestTargetModeIsOneWay(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	err := RunSlice(ctx, f.e, []int{0, 1, 2}, func(ctx context.Context, it Iteration[int]) error {
		if it.Index == 0 {
			return f.e.Target(ctx, "only", func(context.Context) error { return nil })
		}
		return nil
	}, WithThreads(1))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if names := f.spanNames(); slices.ContainsFunc(names, func(n string) bool { return strings.HasPrefix(n, "iteration") }) {
		t.Errorf("spans: got = %v, wanted no iteration spans", names)
	}

	entries := f.collector.dataset()
	if len(entries) != 3 {
		t.Fatalf("dataset entries: got = %d, wanted = 3", len(entries))
	}
	for _, entry := range entries {
		switch entry.Index {
		case 0:
			if entry.TargetID != "only" {
				t.Errorf("row 0 target: got = %q, wanted = only", entry.TargetID)
			}
		default:
			if entry.TargetID != "" || entry.TraceID != "" {
				t.Errorf("row %d: got target %q trace %q, wanted neither", entry.Index, entry.TargetID, entry.TraceID)
			}
		}
	}
}

func TestRunConcurrentTargets(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	const rows = 25
	items := make([]int, rows)
	err := RunSlice(ctx, f.e, items, func(ctx context.Context, it Iteration[int]) error {
		for _, name := range []string{"small", "large"} {
			err := f.e.Target(ctx, name, func(ctx context.Context) error {
				if got, _ := CurrentIndex(ctx); got != it.Index {
					t.Errorf("CurrentIndex() in target: got = %d, wanted = %d", got, it.Index)
				}
				return f.e.Log(ctx, "latency", it.Index, WithScore(1))
			}, WithTargetMetadata(map[string]any{"model": name}))
			if err != nil {
				return err
			}
		}
		return nil
	}, WithThreads(8))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	entries := f.collector.dataset()
	if len(entries) != 2*rows {
		t.Fatalf("dataset entries: got = %d, wanted = %d", len(entries), 2*rows)
	}
	seen := map[string]bool{}
	traces := map[string]bool{}
	for _, entry := range entries {
		key := fmt.Sprintf("%d/%s", entry.Index, entry.TargetID)
		if seen[key] {
			t.Errorf("duplicate entry for %s", key)
		}
		seen[key] = true
		traces[entry.TraceID] = true
	}
	if len(traces) != 2*rows {
		t.Errorf("unique trace ids: got = %d, wanted = %d", len(traces), 2*rows)
	}

	evals := f.collector.evaluations()
	if len(evals) != 2*rows {
		t.Fatalf("evaluations: got = %d, wanted = %d", len(evals), 2*rows)
	}
	for _, ev := range evals {
		if ev.TargetID == "" || ev.TraceID == "" {
			t.Errorf("evaluation %d: got target %q trace %q, wanted both", ev.Index, ev.TargetID, ev.TraceID)
		}
	}

	for _, name := range f.spanNames() {
		if strings.HasPrefix(name, "iteration") {
			t.Errorf("exported span %q: every row used targets", name)
		}
	}
}

func TestRowErrorsAndPanicsDoNotAbort(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	err := RunSlice(ctx, f.e, []string{"ok", "error", "panic"}, func(ctx context.Context, it Iteration[string]) error {
		switch it.Item {
		case "error":
			return errors.New("boom")
		case "panic":
			panic("kaboom")
		}
		return nil
	}, WithThreads(2))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	got := map[int]string{}
	for _, entry := range f.collector.dataset() {
		got[entry.Index] = entry.Error
	}
	want := map[int]string{0: "", 1: "boom", 2: "panic: kaboom"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("entry errors (-want +got):\n%s", diff)
	}

	var m dto.Metric
	if err := rowCounter.WithLabelValues(f.e.Slug(), "error").Write(&m); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if got := m.GetCounter().GetValue(); got != 2 {
		t.Errorf("failed rows counter: got = %v, wanted = 2", got)
	}
}

func TestRunCancelled(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls atomic.Int32
	err := RunSlice(ctx, f.e, []int{0, 1, 2, 3}, func(ctx context.Context, it Iteration[int]) error {
		calls.Add(1)
		cancel()
		return nil
	}, WithThreads(1))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run() error: got = %v, wanted = %v", err, context.Canceled)
	}
	if n := calls.Load(); n >= 4 {
		t.Errorf("rows run: got = %d, wanted fewer than 4", n)
	}

	payloads := f.collector.all()
	if len(payloads) == 0 {
		t.Fatal("payloads: got none, wanted a final stopped batch")
	}
	last := payloads[len(payloads)-1]
	if last.Timestamps.StoppedAt == nil || last.Timestamps.FinishedAt != nil {
		t.Errorf("final timestamps: got = %+v, wanted stopped_at only", last.Timestamps)
	}
}

func TestRunItemSourcePanics(t *testing.T) {
	f := newFixture(t)

	items := func(yield func(int) bool) {
		if !yield(1) {
			return
		}
		panic("source exhausted badly")
	}
	err := Run(context.Background(), f.e, items, func(context.Context, Iteration[int]) error { return nil })
	if err == nil || !strings.Contains(err.Error(), "source exhausted badly") {
		t.Fatalf("Run() error: got = %v, wanted the source panic", err)
	}
	if got := len(f.collector.dataset()); got != 1 {
		t.Errorf("dataset entries: got = %d, wanted = 1", got)
	}
}

func TestRunReturnsFlushErrors(t *testing.T) {
	var handled atomic.Int32
	f := newFixture(t, WithFlushErrorHandler(func(error) { handled.Add(1) }))
	f.collector.setBatchStatus(http.StatusInternalServerError)

	err := RunSlice(context.Background(), f.e, []int{1}, func(context.Context, Iteration[int]) error { return nil })
	if err == nil || !strings.Contains(err.Error(), "log_results failed after 3 attempts") {
		t.Fatalf("Run() error: got = %v, wanted the upload failure", err)
	}
	if n := handled.Load(); n != 1 {
		t.Errorf("flush error handler calls: got = %d, wanted = 1", n)
	}
}
