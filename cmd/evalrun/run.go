/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"chainguard.dev/evalrun/config"
	"chainguard.dev/evalrun/dataset"
	"chainguard.dev/evalrun/evaluators/llmjudge"
	"chainguard.dev/evalrun/experiment"
	"chainguard.dev/evalrun/summary"
	"github.com/chainguard-dev/clog"
	"github.com/spf13/cobra"
)

type runOptions struct {
	file      string
	threads   int
	limit     int
	threshold float64
}

func newRunCmd(root *rootOptions) *cobra.Command {
	opts := &runOptions{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Score a dataset and upload the results",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ef, err := loadExperimentFile(opts.file)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("threads") {
				ef.Threads = opts.threads
			}
			if cmd.Flags().Changed("limit") {
				ef.Limit = opts.limit
			}
			if cmd.Flags().Changed("threshold") {
				ef.Threshold = &opts.threshold
			}
			return runExperiment(cmd.Context(), cmd.OutOrStdout(), ef, root.cfg, llmjudge.NewProvider)
		},
	}
	cmd.Flags().StringVarP(&opts.file, "file", "f", "experiment.yaml", "experiment file")
	cmd.Flags().IntVar(&opts.threads, "threads", 0, "worker count; overrides the file and EVALRUN_THREADS")
	cmd.Flags().IntVar(&opts.limit, "limit", 0, "score at most this many rows")
	cmd.Flags().Float64Var(&opts.threshold, "threshold", 0, "fail when a metric's mean score (pass rate when unscored) is below this")
	return cmd
}

// runExperiment scores every row of the file's dataset and prints a summary.
func runExperiment(ctx context.Context, out io.Writer, ef *experimentFile, cfg *config.Config, newProvider providerFactory, opts ...experiment.Option) error {
	ds, err := dataset.Load(ef.Dataset)
	if err != nil {
		return err
	}
	if ef.Limit > 0 {
		ds = ds.Head(ef.Limit)
	}

	reg, err := buildRegistry(ctx, ef.Evaluators, newProvider)
	if err != nil {
		return err
	}

	sum := summary.New()
	base := []experiment.Option{
		experiment.WithConfig(cfg),
		experiment.WithName(ef.Name),
		experiment.WithLocalEvaluators(reg),
		experiment.WithObserver(sum),
	}
	exp, err := experiment.Init(ctx, ef.Slug, append(base, opts...)...)
	if err != nil {
		return err
	}

	runOpts := []experiment.RunOption{experiment.WithTotal(ds.Len())}
	if ef.Threads > 0 {
		runOpts = append(runOpts, experiment.WithThreads(ef.Threads))
	}
	clog.FromContext(ctx).With("dataset", ds.Name, "rows", ds.Len()).Info("Scoring dataset")
	runErr := experiment.Run(ctx, exp, ds.All(), scoreRow(exp, ef), runOpts...)
	closeErr := exp.Close(context.WithoutCancel(ctx))

	if err := sum.Render(out); err != nil {
		return err
	}
	fmt.Fprintf(out, "\nResults: %s\n", exp.URL())

	if err := errors.Join(runErr, closeErr); err != nil {
		return err
	}
	if ef.Threshold != nil {
		if failing := sum.Failing(*ef.Threshold); len(failing) > 0 {
			return fmt.Errorf("%d metric(s) below threshold %v: %v", len(failing), *ef.Threshold, failing)
		}
	}
	return nil
}

// scoreRow evaluates one row with every configured evaluator, inside the
// file's target when one is set.
func scoreRow(exp *experiment.Experiment, ef *experimentFile) func(context.Context, experiment.Iteration[dataset.Row]) error {
	evaluate := func(ctx context.Context, it experiment.Iteration[dataset.Row]) error {
		var errs []error
		for _, s := range ef.Evaluators {
			opts := []experiment.EvaluateOption{
				experiment.WithEvaluationData(it.Item),
				experiment.WithSettings(s.Settings),
				experiment.WithMetricName(s.metric()),
			}
			if s.Guardrail {
				opts = append(opts, experiment.AsGuardrail())
			}
			if err := exp.Evaluate(ctx, s.registryID(), it.Index, opts...); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", s.metric(), err))
			}
		}
		return errors.Join(errs...)
	}

	return func(ctx context.Context, it experiment.Iteration[dataset.Row]) error {
		t := ef.Target
		if t == nil {
			return evaluate(ctx, it)
		}
		var topts []experiment.TargetOption
		if len(t.Metadata) > 0 {
			topts = append(topts, experiment.WithTargetMetadata(t.Metadata))
		}
		if t.Type != "" {
			topts = append(topts, experiment.WithTargetType(t.Type))
		}
		return exp.Target(ctx, t.Name, func(ctx context.Context) error {
			if output := it.Item.String(t.Output); output != "" {
				if err := exp.LogResponse(ctx, experiment.TextResponse(output)); err != nil {
					return err
				}
			}
			return evaluate(ctx, it)
		}, topts...)
	}
}
