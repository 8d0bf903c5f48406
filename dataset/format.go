/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package dataset

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/parquet-go/parquet-go"
	"gopkg.in/yaml.v3"
)

// Format identifies a file encoding.
type Format string

const (
	FormatJSONL   Format = "jsonl"
	FormatJSON    Format = "json"
	FormatCSV     Format = "csv"
	FormatYAML    Format = "yaml"
	FormatParquet Format = "parquet"
)

// FormatFromPath maps a file extension to a Format.
func FormatFromPath(path string) (Format, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".jsonl", ".ndjson":
		return FormatJSONL, nil
	case ".json":
		return FormatJSON, nil
	case ".csv":
		return FormatCSV, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".parquet":
		return FormatParquet, nil
	default:
		return "", fmt.Errorf("unsupported dataset extension %q", ext)
	}
}

// Read decodes all rows of r in format.
func Read(r io.Reader, format Format) ([]Row, error) {
	switch format {
	case FormatJSONL:
		return readJSONL(r)
	case FormatJSON:
		return readJSON(r)
	case FormatCSV:
		return readCSV(r)
	case FormatYAML:
		return readYAML(r)
	case FormatParquet:
		return readParquet(r)
	default:
		return nil, fmt.Errorf("unsupported format: %q", format)
	}
}

func readJSONL(r io.Reader) ([]Row, error) {
	dec := json.NewDecoder(r)
	var rows []Row
	for line := 1; ; line++ {
		var row Row
		err := dec.Decode(&row)
		if errors.Is(err, io.EOF) {
			return rows, nil
		}
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", line, err)
		}
		rows = append(rows, row)
	}
}

func readJSON(r io.Reader) ([]Row, error) {
	var rows []Row
	if err := json.NewDecoder(r).Decode(&rows); err != nil {
		return nil, fmt.Errorf("decoding JSON array: %w", err)
	}
	return rows, nil
}

func readYAML(r io.Reader) ([]Row, error) {
	var rows []Row
	if err := yaml.NewDecoder(r).Decode(&rows); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("decoding YAML sequence: %w", err)
	}
	return rows, nil
}

func readCSV(r io.Reader) ([]Row, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	headers, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}

	var rows []Row
	for n := 1; ; n++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return rows, nil
		}
		if err != nil {
			return nil, fmt.Errorf("reading CSV row %d: %w", n, err)
		}
		row := make(Row, len(record))
		for i, value := range record {
			key := fmt.Sprintf("col%d", i)
			if i < len(headers) {
				key = headers[i]
			}
			row[key] = inferType(value)
		}
		rows = append(rows, row)
	}
}

// inferType converts a CSV cell to a number, bool or JSON list when it parses
// as one.
func inferType(s string) any {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	if strings.HasPrefix(s, "[") {
		var list []any
		if err := json.Unmarshal([]byte(s), &list); err == nil {
			return list
		}
	}
	return s
}

func readParquet(r io.Reader) ([]Row, error) {
	// parquet-go needs an io.ReaderAt.
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading parquet data: %w", err)
	}
	file, err := parquet.OpenFile(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("opening parquet file: %w", err)
	}

	reader := parquet.NewGenericReader[map[string]any](file)
	defer reader.Close()

	var rows []Row
	buf := make([]map[string]any, 100)
	for {
		n, err := reader.Read(buf)
		// The reader reuses the buffered maps.
		for _, m := range buf[:n] {
			rows = append(rows, Row(maps.Clone(m)))
		}
		if errors.Is(err, io.EOF) || (err == nil && n == 0) {
			return rows, nil
		}
		if err != nil {
			return nil, fmt.Errorf("reading parquet rows: %w", err)
		}
	}
}
