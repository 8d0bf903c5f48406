/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package evaluators

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func ptr[T any](v T) *T { return &v }

func TestBuiltins(t *testing.T) {
	tests := []struct {
		name     string
		eval     Func
		row      Row
		settings Settings
		want     *Result
		wantErr  bool
	}{{
		name: "exact match",
		eval: ExactMatch,
		row:  Row{Output: " Paris\n", ExpectedOutput: "Paris"},
		want: &Result{Status: StatusProcessed, Score: ptr(1.0), Passed: ptr(true)},
	}, {
		name: "exact match case mismatch",
		eval: ExactMatch,
		row:  Row{Output: "paris", ExpectedOutput: "Paris"},
		want: &Result{Status: StatusProcessed, Score: ptr(0.0), Passed: ptr(false)},
	}, {
		name:     "exact match case insensitive",
		eval:     ExactMatch,
		row:      Row{Output: "paris", ExpectedOutput: "Paris"},
		settings: Settings{"case_sensitive": false},
		want:     &Result{Status: StatusProcessed, Score: ptr(1.0), Passed: ptr(true)},
	}, {
		name: "exact match without expected output",
		eval: ExactMatch,
		row:  Row{Output: "Paris"},
		want: &Result{Status: StatusSkipped, Details: "expected_output is required"},
	}, {
		name: "contains",
		eval: Contains,
		row:  Row{Output: "The capital is PARIS.", ExpectedOutput: "paris"},
		want: &Result{Status: StatusProcessed, Score: ptr(1.0), Passed: ptr(true)},
	}, {
		name:     "contains case sensitive",
		eval:     Contains,
		row:      Row{Output: "The capital is PARIS.", ExpectedOutput: "paris"},
		settings: Settings{"case_sensitive": true},
		want:     &Result{Status: StatusProcessed, Score: ptr(0.0), Passed: ptr(false)},
	}, {
		name: "contains without output",
		eval: Contains,
		row:  Row{ExpectedOutput: "paris"},
		want: &Result{Status: StatusSkipped, Details: "output is required"},
	}, {
		name:     "regex match",
		eval:     Regex,
		row:      Row{Output: "order #1234 shipped"},
		settings: Settings{"pattern": `#\d+`},
		want:     &Result{Status: StatusProcessed, Score: ptr(1.0), Passed: ptr(true)},
	}, {
		name: "regex without pattern",
		eval: Regex,
		row:  Row{Output: "x"},
		want: &Result{Status: StatusSkipped, Details: "setting 'pattern' is required"},
	}, {
		name:     "regex invalid pattern",
		eval:     Regex,
		row:      Row{Output: "x"},
		settings: Settings{"pattern": "("},
		wantErr:  true,
	}, {
		name: "json valid",
		eval: JSONValid,
		row:  Row{Output: `{"a": [1, 2]}`},
		want: &Result{Status: StatusProcessed, Score: ptr(1.0), Passed: ptr(true)},
	}, {
		name: "json without output",
		eval: JSONValid,
		want: &Result{Status: StatusSkipped, Details: "output is required"},
	}}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.eval(context.Background(), tt.row, tt.settings)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error: got = %v, wanted error = %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("result (-want +got):\n%s", diff)
			}
		})
	}
}

func TestJSONValidInvalid(t *testing.T) {
	got, err := JSONValid(context.Background(), Row{Output: "{not json"}, nil)
	if err != nil {
		t.Fatalf("JSONValid() error = %v", err)
	}
	if got.Passed == nil || *got.Passed {
		t.Errorf("passed: got = %v, wanted = false", got.Passed)
	}
	if got.Details == "" {
		t.Error("details: got = empty, wanted the parse error")
	}
}
