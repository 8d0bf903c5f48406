/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package dataset

import (
	"fmt"
	"iter"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// Row is a single record with named fields.
type Row map[string]any

// String returns the field key formatted as a string, or "" when absent.
func (r Row) String(key string) string {
	switch v := r[key].(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprintf("%v", v)
	}
}

// Dataset is an ordered, in-memory collection of rows.
type Dataset struct {
	Name string
	rows []Row
}

// New creates a dataset over rows.
func New(name string, rows []Row) *Dataset {
	return &Dataset{Name: name, rows: rows}
}

// Load reads the file at path in the format implied by its extension.
func Load(path string) (*Dataset, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening dataset: %w", err)
	}
	defer f.Close()

	rows, err := Read(f, format)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return New(name, rows), nil
}

// Len returns the number of rows.
func (d *Dataset) Len() int { return len(d.rows) }

// Row returns the row at index i.
func (d *Dataset) Row(i int) Row { return d.rows[i] }

// Rows returns a copy of the rows slice.
func (d *Dataset) Rows() []Row { return slices.Clone(d.rows) }

// All yields the rows in order.
func (d *Dataset) All() iter.Seq[Row] {
	return slices.Values(d.rows)
}

// Columns returns the sorted union of field names across all rows.
func (d *Dataset) Columns() []string {
	set := make(map[string]struct{})
	for _, r := range d.rows {
		for k := range r {
			set[k] = struct{}{}
		}
	}
	return slices.Sorted(maps.Keys(set))
}

// Filter returns a dataset with the rows for which keep returns true.
func (d *Dataset) Filter(keep func(Row) bool) *Dataset {
	var out []Row
	for _, r := range d.rows {
		if keep(r) {
			out = append(out, r)
		}
	}
	return New(d.Name, out)
}

// Head returns a dataset with at most the first n rows.
func (d *Dataset) Head(n int) *Dataset {
	return New(d.Name, d.rows[:min(max(n, 0), len(d.rows))])
}
