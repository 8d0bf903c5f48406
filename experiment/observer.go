/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package experiment

import "context"

// Observer is notified of every result accepted by Log, after it is buffered
// for upload. Implementations must be safe for concurrent use.
type Observer interface {
	ObserveResult(ctx context.Context, res EvaluationResult)
}

// ObserverFunc adapts an ordinary function to Observer.
type ObserverFunc func(ctx context.Context, res EvaluationResult)

// ObserveResult implements Observer.
func (f ObserverFunc) ObserveResult(ctx context.Context, res EvaluationResult) {
	f(ctx, res)
}

func (e *Experiment) observe(ctx context.Context, res EvaluationResult) {
	for _, obs := range e.observers {
		obs.ObserveResult(ctx, res)
	}
}
