/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package retry runs an operation a bounded number of times with
// exponential backoff and random jitter between attempts.
package retry

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/chainguard-dev/clog"
)

// Config configures retry behavior.
type Config struct {
	// Attempts is the total number of calls made, including the first one.
	// Values below 1 are treated as 1.
	Attempts int
	// BaseBackoff is the wait after the first failure. It doubles per attempt.
	BaseBackoff time.Duration
	// MaxBackoff caps the exponential backoff.
	MaxBackoff time.Duration
	// MaxJitter is the maximum random jitter added to each wait.
	MaxJitter time.Duration
}

// Validate checks that the configuration has valid values.
func (c Config) Validate() error {
	if c.Attempts < 0 {
		return errors.New("attempts cannot be negative")
	}
	if c.BaseBackoff < 0 {
		return errors.New("base backoff cannot be negative")
	}
	if c.MaxBackoff < 0 {
		return errors.New("max backoff cannot be negative")
	}
	if c.MaxJitter < 0 {
		return errors.New("max jitter cannot be negative")
	}
	return nil
}

// DefaultConfig returns the configuration used for collector requests:
// three attempts, starting at one second and capped at ten.
func DefaultConfig() Config {
	return Config{
		Attempts:    3,
		BaseBackoff: 1 * time.Second,
		MaxBackoff:  10 * time.Second,
		MaxJitter:   250 * time.Millisecond,
	}
}

// Backoff returns the wait before attempt n+1, given that attempt n (zero based) failed.
// Jitter is not included.
func (c Config) Backoff(n int) time.Duration {
	if n < 0 {
		n = 0
	}
	// Guard the shift against overflow for absurd attempt counts.
	if n > 30 {
		return c.MaxBackoff
	}
	b := c.BaseBackoff << n
	if c.MaxBackoff > 0 && b > c.MaxBackoff {
		return c.MaxBackoff
	}
	return b
}

// Always reports every non-nil error as retryable.
func Always(err error) bool {
	return err != nil
}

// Do calls fn until it succeeds, returns an error that isRetryable rejects,
// the attempts are exhausted, or ctx is done.
// A nil isRetryable retries every error.
func Do[T any](ctx context.Context, cfg Config, operation string, isRetryable func(error) bool, fn func(context.Context) (T, error)) (T, error) {
	if isRetryable == nil {
		isRetryable = Always
	}
	attempts := max(cfg.Attempts, 1)

	var result T
	var lastErr error
	for attempt := range attempts {
		result, lastErr = fn(ctx)
		if lastErr == nil {
			return result, nil
		}
		if !isRetryable(lastErr) {
			return result, lastErr
		}
		if attempt == attempts-1 {
			break
		}

		wait := cfg.Backoff(attempt) + jitter(cfg.MaxJitter)
		clog.FromContext(ctx).With("operation", operation).
			With("attempt", attempt+1).
			With("attempts", attempts).
			With("backoff", wait).
			With("error", lastErr.Error()).
			Warn("Request failed, retrying")

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return result, ctx.Err()
		case <-timer.C:
		}
	}

	return result, fmt.Errorf("%s failed after %d attempts: %w", operation, attempts, lastErr)
}

func jitter(limit time.Duration) time.Duration {
	if limit <= 0 {
		return 0
	}
	n, err := rand.Int(rand.Reader, big.NewInt(int64(limit)))
	if err != nil {
		return 0
	}
	return time.Duration(n.Int64())
}
