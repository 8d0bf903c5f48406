/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package experiment

import (
	"context"
	"errors"
	"maps"
)

// Response is the predicted output of a target: a TextResponse or a StructuredResponse.
type Response interface {
	predicted() map[string]any
}

// TextResponse is a plain text prediction, recorded as {"output": text}.
type TextResponse string

func (r TextResponse) predicted() map[string]any {
	return map[string]any{"output": string(r)}
}

// StructuredResponse is a prediction with named fields.
type StructuredResponse map[string]any

func (r StructuredResponse) predicted() map[string]any {
	if r == nil {
		return map[string]any{}
	}
	return maps.Clone(map[string]any(r))
}

// LogResponse records the predicted output of the ambient Target scope.
// It fails with ErrNotInTarget outside of one.
func (e *Experiment) LogResponse(ctx context.Context, r Response) error {
	tc := targetFrom(ctx)
	if tc == nil {
		return ErrNotInTarget
	}
	if r == nil {
		return errors.New("response must not be nil")
	}
	tc.setPredicted(r.predicted())
	return nil
}
