/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package dataset loads tabular rows for experiment runs.
//
// Rows are loosely typed maps. The format is taken from the file extension:
// .jsonl and .ndjson (one object per line), .json (an array of objects),
// .csv (header row plus records), .yaml and .yml (a sequence of mappings) and
// .parquet.
//
//	ds, err := dataset.Load("testdata/qa.jsonl")
//	if err != nil { ... }
//	err = experiment.Run(ctx, exp, ds.All(), func(ctx context.Context, it experiment.Iteration[dataset.Row]) error {
//		...
//	})
package dataset
