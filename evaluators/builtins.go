/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package evaluators

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// Ids of the built-in evaluators.
const (
	ExactMatchID = "exact_match"
	ContainsID   = "contains"
	RegexID      = "regex"
	JSONValidID  = "json_valid"
)

// Builtins returns the built-in evaluators keyed by id.
func Builtins() map[string]Evaluator {
	return map[string]Evaluator{
		ExactMatchID: Func(ExactMatch),
		ContainsID:   Func(Contains),
		RegexID:      Func(Regex),
		JSONValidID:  Func(JSONValid),
	}
}

func passFail(ok bool, details string) *Result {
	score := 0.0
	if ok {
		score = 1
	}
	return Verdict(score, ok, details)
}

// ExactMatch compares the trimmed output with the expected output.
// Setting "case_sensitive" (default true) controls case folding.
func ExactMatch(_ context.Context, row Row, settings Settings) (*Result, error) {
	if row.Output == "" {
		return Skipped("output is required"), nil
	}
	if row.ExpectedOutput == "" {
		return Skipped("expected_output is required"), nil
	}
	got, want := strings.TrimSpace(row.Output), strings.TrimSpace(row.ExpectedOutput)
	if !settings.Bool("case_sensitive", true) {
		return passFail(strings.EqualFold(got, want), ""), nil
	}
	return passFail(got == want, ""), nil
}

// Contains checks that the output contains the expected output.
// Setting "case_sensitive" (default false) controls case folding.
func Contains(_ context.Context, row Row, settings Settings) (*Result, error) {
	if row.Output == "" {
		return Skipped("output is required"), nil
	}
	if row.ExpectedOutput == "" {
		return Skipped("expected_output is required"), nil
	}
	output, expected := row.Output, row.ExpectedOutput
	if !settings.Bool("case_sensitive", false) {
		output, expected = strings.ToLower(output), strings.ToLower(expected)
	}
	return passFail(strings.Contains(output, expected), ""), nil
}

// Regex checks the output against the "pattern" setting.
func Regex(_ context.Context, row Row, settings Settings) (*Result, error) {
	pattern := settings.String("pattern", "")
	if pattern == "" {
		return Skipped("setting 'pattern' is required"), nil
	}
	if row.Output == "" {
		return Skipped("output is required"), nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("compiling pattern: %w", err)
	}
	return passFail(re.MatchString(row.Output), ""), nil
}

// JSONValid checks that the output parses as JSON.
func JSONValid(_ context.Context, row Row, _ Settings) (*Result, error) {
	if row.Output == "" {
		return Skipped("output is required"), nil
	}
	var v any
	if err := json.Unmarshal([]byte(row.Output), &v); err != nil {
		return passFail(false, err.Error()), nil
	}
	return passFail(true, ""), nil
}
