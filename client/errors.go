/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrMissingAPIKey is returned when no API key is configured.
	ErrMissingAPIKey = errors.New("evalrun: an API key is required; set EVALRUN_API_KEY")

	// ErrUnauthorized is returned when the collector rejects the API key.
	ErrUnauthorized = errors.New("evalrun: unauthorized")
)

// APIError is a non-2xx response from the collector.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("evalrun: %s (%d): %s", http.StatusText(e.StatusCode), e.StatusCode, e.Body)
}

// Is makes errors.Is(err, ErrUnauthorized) hold for 401 responses.
func (e *APIError) Is(target error) bool {
	return target == ErrUnauthorized && e.StatusCode == http.StatusUnauthorized
}

// IsRetryable reports whether err is worth retrying: transport failures,
// 429 and 5xx responses.
func IsRetryable(err error) bool {
	if errors.Is(err, ErrMissingAPIKey) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusTooManyRequests || apiErr.StatusCode >= 500
	}
	return err != nil
}
