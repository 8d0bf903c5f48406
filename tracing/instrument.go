/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package tracing

import (
	"context"
	"fmt"
)

// Func is the shape of an instrumentable operation.
type Func[In, Out any] func(ctx context.Context, in In) (Out, error)

// Instrument wraps fn so that every call runs inside a span named name.
// The input and output are recorded on the span and a returned error ends it
// with an error status. Panics are recorded and re-raised.
func Instrument[In, Out any](name string, fn Func[In, Out], opts ...Option) Func[In, Out] {
	return func(ctx context.Context, in In) (out Out, err error) {
		startOpts := make([]Option, 0, len(opts)+1)
		startOpts = append(startOpts, WithInput(in))
		startOpts = append(startOpts, opts...)

		ctx, span := Start(ctx, name, startOpts...)
		defer func() {
			if r := recover(); r != nil {
				span.End(fmt.Errorf("panic: %v", r))
				panic(r)
			}
			span.SetOutput(out)
			span.End(err)
		}()

		return fn(ctx, in)
	}
}
