/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"log/slog"
	"os"

	"chainguard.dev/evalrun/config"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	logLevel string
	cfg      *config.Config
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:   "evalrun",
		Short: "Run batch evaluations against the evalrun collector",
		Long: `evalrun scores the recorded outputs of a dataset and uploads the
results as an experiment run.

Examples:
  # Score a dataset described by an experiment file
  evalrun run -f experiment.yaml

  # List the evaluators available locally
  evalrun evaluators
`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cmd.Context())
			if err != nil {
				return err
			}
			if opts.logLevel != "" {
				cfg.LogLevel = opts.logLevel
			}
			level, err := config.ParseLevel(cfg.LogLevel)
			if err != nil {
				return err
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
			opts.cfg = cfg
			return nil
		},
	}
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error); overrides EVALRUN_LOG_LEVEL")

	root.AddCommand(newRunCmd(opts))
	root.AddCommand(newEvaluatorsCmd())
	return root
}
