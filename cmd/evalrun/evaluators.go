/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"fmt"

	"chainguard.dev/evalrun/evaluators"
	"github.com/spf13/cobra"
)

func newEvaluatorsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "evaluators",
		Short: "List the evaluators that run locally",
		Long: `List the built-in evaluators. LLM judges are configured per experiment
file with a provider (anthropic, openai, gemini or vertex). Any other id is sent to
the collector.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			for _, id := range evaluators.NewDefaultRegistry().IDs() {
				fmt.Fprintln(cmd.OutOrStdout(), id)
			}
			return nil
		},
	}
}
