/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package client

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/chainguard-dev/clog"
	"gopkg.in/yaml.v3"
)

// CredentialStore supplies the API key and forgets it when the collector
// rejects it.
type CredentialStore interface {
	APIKey(ctx context.Context) (string, error)
	Invalidate(ctx context.Context) error
}

// StaticCredentials holds a fixed key, typically from the environment.
type StaticCredentials struct {
	mu  sync.Mutex
	key string
}

// NewStaticCredentials returns a store holding key.
func NewStaticCredentials(key string) *StaticCredentials {
	return &StaticCredentials{key: key}
}

// APIKey implements CredentialStore.
func (s *StaticCredentials) APIKey(context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.key == "" {
		return "", ErrMissingAPIKey
	}
	return s.key, nil
}

// Invalidate implements CredentialStore.
func (s *StaticCredentials) Invalidate(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.key = ""
	return nil
}

// credentialsFile is the on-disk layout of FileCredentials.
type credentialsFile struct {
	APIKey   string `yaml:"api_key,omitempty"`
	Endpoint string `yaml:"endpoint,omitempty"`
}

// FileCredentials reads the key from a YAML file written by a login flow.
// Invalidate removes the key from the file and keeps the other fields.
type FileCredentials struct {
	Path string

	mu sync.Mutex
}

// DefaultCredentialsPath returns ~/.config/evalrun/credentials.yaml.
func DefaultCredentialsPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "evalrun", "credentials.yaml"), nil
}

func (f *FileCredentials) read() (credentialsFile, error) {
	var cf credentialsFile
	b, err := os.ReadFile(f.Path)
	if err != nil {
		return cf, err
	}
	if err := yaml.Unmarshal(b, &cf); err != nil {
		return cf, fmt.Errorf("parsing %s: %w", f.Path, err)
	}
	return cf, nil
}

// APIKey implements CredentialStore.
func (f *FileCredentials) APIKey(context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cf, err := f.read()
	if errors.Is(err, fs.ErrNotExist) {
		return "", ErrMissingAPIKey
	} else if err != nil {
		return "", err
	}
	if cf.APIKey == "" {
		return "", ErrMissingAPIKey
	}
	return cf.APIKey, nil
}

// Endpoint returns the endpoint stored next to the key, if any.
func (f *FileCredentials) Endpoint() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	cf, err := f.read()
	if err != nil {
		return ""
	}
	return cf.Endpoint
}

// Invalidate implements CredentialStore.
func (f *FileCredentials) Invalidate(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cf, err := f.read()
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	} else if err != nil {
		return err
	}
	cf.APIKey = ""
	b, err := yaml.Marshal(cf)
	if err != nil {
		return err
	}
	if err := os.WriteFile(f.Path, b, 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", f.Path, err)
	}
	clog.FromContext(ctx).With("path", f.Path).Warn("Invalidated stored API key")
	return nil
}

// Chain tries each store in order and invalidates all of them.
type Chain []CredentialStore

// APIKey implements CredentialStore.
func (c Chain) APIKey(ctx context.Context) (string, error) {
	for _, s := range c {
		key, err := s.APIKey(ctx)
		if errors.Is(err, ErrMissingAPIKey) {
			continue
		} else if err != nil {
			return "", err
		}
		return key, nil
	}
	return "", ErrMissingAPIKey
}

// Invalidate implements CredentialStore.
func (c Chain) Invalidate(ctx context.Context) error {
	var errs []error
	for _, s := range c {
		errs = append(errs, s.Invalidate(ctx))
	}
	return errors.Join(errs...)
}
