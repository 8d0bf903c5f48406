/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package summary aggregates the results of an experiment run per target and
// metric and renders them as a markdown table.
//
// A Collector is an experiment.Observer:
//
//	sum := summary.New()
//	exp, err := experiment.Init(ctx, "my-experiment", experiment.WithObserver(sum))
//	...
//	sum.Render(os.Stdout)
package summary
