/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package dataset

import (
	"slices"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		path string
		want []Row
	}{{
		path: "testdata/qa.jsonl",
		want: []Row{
			{"input": "What is 2+2?", "output": "4", "expected_output": "4"},
			{"input": "Capital of France?", "output": "Paris", "expected_output": "Paris"},
			{"input": "Largest planet?", "output": "Saturn", "expected_output": "Jupiter", "contexts": []any{"astronomy"}},
		},
	}, {
		path: "testdata/qa.json",
		want: []Row{
			{"input": "What is 2+2?", "output": "4"},
			{"input": "Capital of France?", "output": "Paris"},
		},
	}, {
		path: "testdata/qa.csv",
		want: []Row{
			{"input": "What is 2+2?", "output": int64(4), "expected_output": int64(4), "contexts": []any{"math"}},
			{"input": "Capital of France?", "output": "Paris", "expected_output": "Paris", "contexts": ""},
		},
	}, {
		path: "testdata/qa.yaml",
		want: []Row{
			{"input": "What is 2+2?", "output": "4", "expected_output": "4"},
			{"input": "Capital of France?", "output": "Paris", "expected_output": "Paris", "contexts": []any{"geography"}},
		},
	}}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			ds, err := Load(tt.path)
			if err != nil {
				t.Fatalf("Load() = %v", err)
			}
			if ds.Name != "qa" {
				t.Errorf("Name: got = %q, wanted = %q", ds.Name, "qa")
			}
			if diff := cmp.Diff(tt.want, ds.Rows()); diff != "" {
				t.Errorf("rows mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLoadErrors(t *testing.T) {
	for _, path := range []string{"testdata/qa.txt", "testdata/missing.jsonl"} {
		if _, err := Load(path); err == nil {
			t.Errorf("Load(%q): got = nil, wanted error", path)
		}
	}
}

func TestReadMalformed(t *testing.T) {
	tests := []struct {
		format Format
		in     string
	}{
		{FormatJSONL, "{\"a\": 1}\n{not json}\n"},
		{FormatJSON, `{"a": 1}`},
		{FormatCSV, "a,b\n1,2,3\n"},
		{FormatYAML, "a: [1, 2"},
		{FormatParquet, "definitely not parquet"},
		{Format("xml"), "<rows/>"},
	}
	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			if _, err := Read(strings.NewReader(tt.in), tt.format); err == nil {
				t.Errorf("Read(%s): got = nil, wanted error", tt.format)
			}
		})
	}
}

func TestReadEmpty(t *testing.T) {
	for _, f := range []Format{FormatJSONL, FormatCSV, FormatYAML} {
		rows, err := Read(strings.NewReader(""), f)
		if err != nil {
			t.Errorf("Read(%s, empty) = %v", f, err)
		}
		if len(rows) != 0 {
			t.Errorf("Read(%s, empty): got = %d rows, wanted = 0", f, len(rows))
		}
	}
}

func TestInferType(t *testing.T) {
	tests := []struct {
		in   string
		want any
	}{
		{"42", int64(42)},
		{"-1", int64(-1)},
		{"0.5", 0.5},
		{"true", true},
		{`["a", "b"]`, []any{"a", "b"}},
		{"[not json", "[not json"},
		{"hello", "hello"},
		{"", ""},
	}
	for _, tt := range tests {
		if diff := cmp.Diff(tt.want, inferType(tt.in)); diff != "" {
			t.Errorf("inferType(%q) mismatch (-want +got):\n%s", tt.in, diff)
		}
	}
}

func TestDatasetAccessors(t *testing.T) {
	ds := New("d", []Row{
		{"input": "a", "score": 1},
		{"input": "b"},
		{"output": "c"},
	})

	if got := ds.Len(); got != 3 {
		t.Errorf("Len(): got = %d, wanted = 3", got)
	}
	if got := ds.Row(2).String("output"); got != "c" {
		t.Errorf("Row(2).String(output): got = %q, wanted = %q", got, "c")
	}
	if got := ds.Row(0).String("score"); got != "1" {
		t.Errorf("Row(0).String(score): got = %q, wanted = %q", got, "1")
	}
	if got := ds.Row(1).String("missing"); got != "" {
		t.Errorf("Row(1).String(missing): got = %q, wanted = empty", got)
	}
	if diff := cmp.Diff([]string{"input", "output", "score"}, ds.Columns()); diff != "" {
		t.Errorf("Columns() mismatch (-want +got):\n%s", diff)
	}

	var inputs []string
	for r := range ds.All() {
		inputs = append(inputs, r.String("input"))
	}
	if diff := cmp.Diff([]string{"a", "b", ""}, inputs); diff != "" {
		t.Errorf("All() mismatch (-want +got):\n%s", diff)
	}

	if got := ds.Head(2).Len(); got != 2 {
		t.Errorf("Head(2).Len(): got = %d, wanted = 2", got)
	}
	if got := ds.Head(10).Len(); got != 3 {
		t.Errorf("Head(10).Len(): got = %d, wanted = 3", got)
	}
	if got := ds.Head(-1).Len(); got != 0 {
		t.Errorf("Head(-1).Len(): got = %d, wanted = 0", got)
	}

	hasInput := ds.Filter(func(r Row) bool {
		_, ok := r["input"]
		return ok
	})
	if got := hasInput.Len(); got != 2 {
		t.Errorf("Filter().Len(): got = %d, wanted = 2", got)
	}

	rows := ds.Rows()
	rows[0] = Row{"replaced": true}
	if slices.Contains(ds.Columns(), "replaced") {
		t.Error("Rows() returned the backing slice")
	}
}
