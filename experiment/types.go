/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package experiment

import (
	"errors"
	"fmt"
	"runtime/debug"
	"strings"

	"chainguard.dev/evalrun/client"
	"chainguard.dev/evalrun/evaluators"
)

// Wire types shared with the collector client.
type (
	EvaluationResult = client.EvaluationResult
	ErrorCapture     = client.ErrorCapture
	TargetInfo       = client.TargetInfo
	BatchEntry       = client.BatchEntry
	Money            = evaluators.Money
	Status           = evaluators.Status
)

const (
	StatusProcessed = evaluators.StatusProcessed
	StatusError     = evaluators.StatusError
	StatusSkipped   = evaluators.StatusSkipped
)

// DefaultTargetType is the type of targets registered without WithTargetType.
const DefaultTargetType = "custom"

var (
	// ErrInvalidIndex is returned when a row index is not an integer.
	ErrInvalidIndex = errors.New("index must be an integer")

	// ErrNotInTarget is returned by LogResponse outside of a Target scope.
	ErrNotInTarget = errors.New("LogResponse called outside of a target scope")

	// ErrTargetMetadataConflict is returned when a target is referenced with
	// metadata that differs from its registration.
	ErrTargetMetadataConflict = errors.New("target metadata conflict")

	// ErrMissingAPIKey is returned by Init when no API key is configured.
	ErrMissingAPIKey = client.ErrMissingAPIKey

	// ErrUnauthorized is returned by Init when the collector rejects the API key.
	ErrUnauthorized = client.ErrUnauthorized
)

// PanicError is a recovered panic and the stack it was raised on. Passed to
// WithError, its stack becomes the traceback of the logged result.
type PanicError struct {
	Value any
	Stack []string
}

func (p *PanicError) Error() string { return fmt.Sprintf("panic: %v", p.Value) }

// StackTrace returns the lines of the recovered stack.
func (p *PanicError) StackTrace() []string { return p.Stack }

func newPanicError(r any) *PanicError {
	return &PanicError{
		Value: r,
		Stack: strings.Split(strings.TrimSpace(string(debug.Stack())), "\n"),
	}
}
