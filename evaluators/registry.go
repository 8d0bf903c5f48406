/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package evaluators

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
)

// ErrUnknownEvaluator is returned by Registry.Run for ids that were never registered.
var ErrUnknownEvaluator = errors.New("unknown evaluator")

// Registry maps evaluator ids to local evaluators. It is safe for concurrent use.
type Registry struct {
	mu         sync.RWMutex
	evaluators map[string]Evaluator
	fallback   Runner
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{evaluators: make(map[string]Evaluator)}
}

// NewDefaultRegistry returns a registry holding the built-in evaluators.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	for id, e := range Builtins() {
		r.MustRegister(id, e)
	}
	return r
}

// Register adds e under id. Registering an id twice is an error.
func (r *Registry) Register(id string, e Evaluator) error {
	if id == "" {
		return errors.New("evaluator id must not be empty")
	}
	if e == nil {
		return fmt.Errorf("evaluator %q is nil", id)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.evaluators[id]; ok {
		return fmt.Errorf("evaluator %q already registered", id)
	}
	r.evaluators[id] = e
	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(id string, e Evaluator) {
	if err := r.Register(id, e); err != nil {
		panic(err)
	}
}

// SetFallback routes ids that are not registered locally to runner,
// typically the remote collector client.
func (r *Registry) SetFallback(runner Runner) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fallback = runner
}

// Get returns the evaluator registered under id.
func (r *Registry) Get(id string) (Evaluator, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.evaluators[id]
	return e, ok
}

// IDs returns the registered ids in sorted order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.evaluators))
	for id := range r.evaluators {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Run implements Runner. Evaluator errors are returned unchanged.
func (r *Registry) Run(ctx context.Context, evaluatorID string, req Request) (*Result, error) {
	r.mu.RLock()
	e, ok := r.evaluators[evaluatorID]
	fallback := r.fallback
	r.mu.RUnlock()

	if !ok {
		if fallback != nil {
			return fallback.Run(ctx, evaluatorID, req)
		}
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvaluator, evaluatorID)
	}

	res, err := e.Evaluate(ctx, RowFromData(req.Data), req.Settings)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, fmt.Errorf("evaluator %q returned no result", evaluatorID)
	}
	return res, nil
}
