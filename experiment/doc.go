/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package experiment runs batch evaluations and uploads their results.
//
// An Experiment is registered with the collector by Init. Run then drives a
// pass over a sequence of rows on a bounded worker pool. Each row gets its
// own trace unless the row compares named targets, in which case every
// Target call owns an independently rooted trace and the run switches to
// per-target tracing for good.
//
//	e, err := experiment.Init(ctx, "qa-nightly")
//	if err != nil {
//		return err
//	}
//	defer e.Close(ctx)
//
//	err = experiment.RunSlice(ctx, e, rows, func(ctx context.Context, it experiment.Iteration[Row]) error {
//		for _, model := range models {
//			err := e.Target(ctx, model, func(ctx context.Context) error {
//				answer, err := ask(ctx, model, it.Item.Question)
//				if err != nil {
//					return err
//				}
//				if err := e.LogResponse(ctx, experiment.TextResponse(answer)); err != nil {
//					return err
//				}
//				return e.Evaluate(ctx, "exact_match", it.Index,
//					experiment.WithEvaluationData(map[string]any{
//						"output":          answer,
//						"expected_output": it.Item.Answer,
//					}))
//			}, experiment.WithTargetMetadata(map[string]any{"model": model}))
//			if err != nil {
//				return err
//			}
//		}
//		return nil
//	}, experiment.WithThreads(8))
//
// Results are buffered and uploaded in debounced batches. The last batch of
// a run is awaited before Run returns.
//
// Nested code finds the current row and target through the context, so
// helpers such as Log and LogResponse need no explicit parameters. Upload
// failures that happen in the background are passed to the flush error
// handler and returned from Run.
package experiment
