/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package summary

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"
)

var headers = []string{"Target", "Metric", "Results", "Errors", "Skipped", "Mean score", "Pass rate", "Cost"}

// Render writes the summary as a markdown table.
func (c *Collector) Render(w io.Writer) error {
	table := newTable(headers, w)
	for _, s := range c.Stats() {
		if err := table.Append(row(s)); err != nil {
			return fmt.Errorf("appending row: %w", err)
		}
	}
	return table.Render()
}

// String returns the rendered table.
func (c *Collector) String() string {
	var sb strings.Builder
	_ = c.Render(&sb)
	return sb.String()
}

func row(s Stats) []string {
	target := s.Target
	if target == "" {
		target = "-"
	}
	mean, rate := "-", "-"
	if s.Scored > 0 {
		mean = fmt.Sprintf("%.3f", s.MeanScore)
	}
	if s.Judged > 0 {
		rate = fmt.Sprintf("%.1f%% (%d/%d)", s.PassRate()*100, s.Passed, s.Judged)
	}
	return []string{
		target,
		s.Metric,
		strconv.Itoa(s.Count),
		strconv.Itoa(s.Errors),
		strconv.Itoa(s.Skipped),
		mean,
		rate,
		formatCost(s.Cost),
	}
}

func formatCost(cost map[string]float64) string {
	if len(cost) == 0 {
		return "-"
	}
	parts := make([]string, 0, len(cost))
	for _, cur := range slices.Sorted(maps.Keys(cost)) {
		parts = append(parts, fmt.Sprintf("%.4f %s", cost[cur], cur))
	}
	return strings.Join(parts, ", ")
}

func newTable(headers []string, w io.Writer) *tablewriter.Table {
	cfg := tablewriter.Config{
		Header: tw.CellConfig{
			Alignment:  tw.CellAlignment{Global: tw.AlignLeft},
			Formatting: tw.CellFormatting{AutoFormat: tw.Off},
		},
		Row: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignLeft},
		},
		Behavior: tw.Behavior{TrimSpace: tw.Off},
	}
	return tablewriter.NewTable(w,
		tablewriter.WithConfig(cfg),
		tablewriter.WithHeader(headers),
		tablewriter.WithRenderer(renderer.NewBlueprint()),
		tablewriter.WithRendition(tw.Rendition{
			Symbols: tw.NewSymbols(tw.StyleMarkdown),
			Borders: tw.Border{Left: tw.On, Top: tw.Off, Right: tw.On, Bottom: tw.Off},
		}),
		tablewriter.WithRowAutoWrap(tw.WrapNone),
	)
}
