/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package config loads evalrun settings from the environment.
package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"chainguard.dev/evalrun/client"
	"github.com/sethvargo/go-envconfig"
)

// Config is the environment configuration shared by the SDK and the CLI.
type Config struct {
	// APIKey authenticates against the collector.
	APIKey string `env:"EVALRUN_API_KEY"`

	// Endpoint is the collector base URL.
	Endpoint string `env:"EVALRUN_ENDPOINT,default=https://app.evalrun.dev"`

	// Threads is the default worker count of a run.
	Threads int `env:"EVALRUN_THREADS,default=4"`

	// LogLevel is one of debug, info, warn or error.
	LogLevel string `env:"EVALRUN_LOG_LEVEL,default=info"`

	// CredentialsFile overrides the credentials file location.
	CredentialsFile string `env:"EVALRUN_CREDENTIALS_FILE"`

	// Tracing controls span export to the collector.
	Tracing bool `env:"EVALRUN_TRACING,default=true"`

	// FlushDebounce is the minimum spacing between batch uploads.
	FlushDebounce time.Duration `env:"EVALRUN_FLUSH_DEBOUNCE,default=1s"`
}

// Load reads the configuration from the process environment.
func Load(ctx context.Context) (*Config, error) {
	return LoadWith(ctx, envconfig.OsLookuper())
}

// LoadWith reads the configuration through l.
func LoadWith(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: l,
	}); err != nil {
		return nil, fmt.Errorf("processing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	var errs []error
	if c.Threads < 1 {
		errs = append(errs, fmt.Errorf("EVALRUN_THREADS must be at least 1, got %d", c.Threads))
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if c.FlushDebounce < 0 {
		errs = append(errs, fmt.Errorf("EVALRUN_FLUSH_DEBOUNCE must not be negative, got %v", c.FlushDebounce))
	}
	return errors.Join(errs...)
}

// Level returns the parsed log level, or info when it does not parse.
func (c *Config) Level() slog.Level {
	l, err := ParseLevel(c.LogLevel)
	if err != nil {
		return slog.LevelInfo
	}
	return l
}

// Credentials returns the credential store: the API key from the
// environment first, then the credentials file.
func (c *Config) Credentials() client.CredentialStore {
	stores := client.Chain{client.NewStaticCredentials(c.APIKey)}

	path := c.CredentialsFile
	if path == "" {
		if p, err := client.DefaultCredentialsPath(); err == nil {
			path = p
		}
	}
	if path != "" {
		stores = append(stores, &client.FileCredentials{Path: path})
	}
	return stores
}

// ParseLevel parses a log level name.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("EVALRUN_LOG_LEVEL: %w", err)
	}
	return l, nil
}
