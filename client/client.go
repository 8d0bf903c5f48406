/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"chainguard.dev/evalrun/retry"
	"github.com/chainguard-dev/clog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// DefaultEndpoint is the hosted collector.
const DefaultEndpoint = "https://app.evalrun.dev"

// Config holds the settings needed to construct a Client.
type Config struct {
	// Endpoint is the collector base URL. Defaults to DefaultEndpoint.
	Endpoint string

	// Credentials supplies the API key. Required.
	Credentials CredentialStore

	// HTTPClient is an optional custom HTTP client. If nil, a client with an
	// instrumented transport and a 30-second timeout is used.
	HTTPClient *http.Client

	// Retry controls retries of batch uploads. Defaults to retry.DefaultConfig().
	Retry *retry.Config

	// UserAgent is sent with every request.
	UserAgent string
}

// Client is an HTTP client for the collector. All methods are safe for concurrent use.
type Client struct {
	endpoint  string
	http      *http.Client
	creds     CredentialStore
	retry     retry.Config
	userAgent string
}

// New creates a Client from cfg.
func New(cfg Config) (*Client, error) {
	if cfg.Credentials == nil {
		return nil, ErrMissingAPIKey
	}
	endpoint := strings.TrimRight(cfg.Endpoint, "/")
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout:   30 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}

	rc := retry.DefaultConfig()
	if cfg.Retry != nil {
		rc = *cfg.Retry
	}
	if err := rc.Validate(); err != nil {
		return nil, fmt.Errorf("evalrun: invalid retry config: %w", err)
	}

	ua := cfg.UserAgent
	if ua == "" {
		ua = "evalrun-go"
	}

	return &Client{
		endpoint:  endpoint,
		http:      httpClient,
		creds:     cfg.Credentials,
		retry:     rc,
		userAgent: ua,
	}, nil
}

// Endpoint returns the collector base URL.
func (c *Client) Endpoint() string { return c.endpoint }

// APIKey returns the current API key from the credential store.
func (c *Client) APIKey(ctx context.Context) (string, error) {
	return c.creds.APIKey(ctx)
}

func (c *Client) post(ctx context.Context, path string, body any, dest any) error {
	key, err := c.creds.APIKey(ctx)
	if err != nil {
		return err
	}

	encoded, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("evalrun: marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+path, bytes.NewReader(encoded))
	if err != nil {
		return fmt.Errorf("evalrun: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Auth-Token", key)
	req.Header.Set("Authorization", "Bearer "+key)

	clog.FromContext(ctx).With("path", path, "bytes", len(encoded)).Debug("Sending request")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("evalrun: %s %s: %w", req.Method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	return handleResponse(resp, dest)
}

func handleResponse(resp *http.Response, dest any) error {
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("evalrun: read response body: %w", err)
	}
	if resp.StatusCode >= 400 {
		return &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}
	if dest == nil || resp.StatusCode == http.StatusNoContent || len(bytes.TrimSpace(b)) == 0 {
		return nil
	}
	if err := json.Unmarshal(b, dest); err != nil {
		return fmt.Errorf("evalrun: decode response: %w", err)
	}
	return nil
}

// isUnauthorized reports whether err is a 401 from the collector.
func isUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized
}
