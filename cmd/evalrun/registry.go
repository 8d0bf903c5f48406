/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"context"
	"fmt"

	"chainguard.dev/evalrun/evaluators"
	"chainguard.dev/evalrun/evaluators/llmjudge"
)

type providerFactory func(ctx context.Context, name, model string) (llmjudge.Provider, error)

// buildRegistry returns the built-in evaluators plus one judge per distinct
// provider and model named in specs. Ids that stay unregistered are served by
// the collector.
func buildRegistry(ctx context.Context, specs []evaluatorSpec, newProvider providerFactory) (*evaluators.Registry, error) {
	reg := evaluators.NewDefaultRegistry()
	for _, s := range specs {
		if !s.isJudge() {
			continue
		}
		id := s.registryID()
		if _, ok := reg.Get(id); ok {
			continue
		}
		p, err := newProvider(ctx, s.Provider, s.Model)
		if err != nil {
			return nil, fmt.Errorf("evaluator %q: %w", s.metric(), err)
		}
		judge, err := llmjudge.New(p)
		if err != nil {
			return nil, fmt.Errorf("evaluator %q: %w", s.metric(), err)
		}
		if err := reg.Register(id, judge); err != nil {
			return nil, err
		}
	}
	return reg, nil
}
