/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package evaluators

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestRegistryRun(t *testing.T) {
	reg := NewDefaultRegistry()

	if diff := cmp.Diff([]string{"contains", "exact_match", "json_valid", "regex"}, reg.IDs()); diff != "" {
		t.Errorf("IDs() (-want +got):\n%s", diff)
	}

	got, err := reg.Run(context.Background(), ExactMatchID, Request{
		Data: map[string]any{"output": "4", "expected_output": 4},
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got.Passed == nil || !*got.Passed {
		t.Errorf("passed: got = %v, wanted = true", got.Passed)
	}
}

func TestRegistryUnknown(t *testing.T) {
	reg := NewRegistry()
	if _, err := reg.Run(context.Background(), "nope", Request{}); !errors.Is(err, ErrUnknownEvaluator) {
		t.Errorf("Run() error: got = %v, wanted = %v", err, ErrUnknownEvaluator)
	}
}

func TestRegistryFallback(t *testing.T) {
	reg := NewRegistry()
	var gotID string
	reg.SetFallback(RunnerFunc(func(_ context.Context, id string, req Request) (*Result, error) {
		gotID = id
		return Skipped("remote"), nil
	}))

	res, err := reg.Run(context.Background(), "answer_relevance", Request{})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if gotID != "answer_relevance" || res.Status != StatusSkipped {
		t.Errorf("fallback: got id = %q status = %q, wanted answer_relevance/skipped", gotID, res.Status)
	}
}

func TestRegistryPropagatesErrors(t *testing.T) {
	boom := errors.New("scorer crashed")
	reg := NewRegistry()
	reg.MustRegister("broken", Func(func(context.Context, Row, Settings) (*Result, error) {
		return nil, boom
	}))
	if _, err := reg.Run(context.Background(), "broken", Request{}); !errors.Is(err, boom) {
		t.Errorf("Run() error: got = %v, wanted = %v", err, boom)
	}
}

func TestRegisterDuplicate(t *testing.T) {
	reg := NewDefaultRegistry()
	if err := reg.Register(ExactMatchID, Func(ExactMatch)); err == nil {
		t.Error("Register() duplicate: got = nil, wanted error")
	}
	if err := reg.Register("", Func(ExactMatch)); err == nil {
		t.Error("Register() empty id: got = nil, wanted error")
	}
}

func TestRowFromData(t *testing.T) {
	got := RowFromData(map[string]any{
		"input":             "q",
		"output":            "a",
		"contexts":          []any{"c1", 2},
		"expected_output":   3.5,
		"expected_contexts": "only",
		"ignored":           true,
	})
	want := Row{
		Input:            "q",
		Output:           "a",
		Contexts:         []string{"c1", "2"},
		ExpectedOutput:   "3.5",
		ExpectedContexts: []string{"only"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("RowFromData() (-want +got):\n%s", diff)
	}
}

func TestSettings(t *testing.T) {
	s := Settings{"flag": true, "name": "x", "threshold": 3}
	if !s.Bool("flag", false) || s.Bool("missing", false) {
		t.Error("Bool(): got unexpected values")
	}
	if s.String("name", "") != "x" || s.String("flag", "def") != "def" {
		t.Error("String(): got unexpected values")
	}
	if s.Float("threshold", 0) != 3 || s.Float("missing", 0.5) != 0.5 {
		t.Error("Float(): got unexpected values")
	}
}
