/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package evaluators defines the contract between an experiment and the
// functions that score its rows.
//
// An Evaluator maps a Row of optional text fields to a Result that is either
// processed (with a score, a pass/fail verdict or a label), skipped with a
// reason, or failed. Evaluators are addressed by id through a Runner: the
// Registry runs local evaluators in process, and the collector client runs
// remote ones.
//
//	reg := evaluators.NewDefaultRegistry()
//	res, err := reg.Run(ctx, "exact_match", evaluators.Request{
//		Data: map[string]any{"output": "4", "expected_output": "4"},
//	})
package evaluators
