/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package experiment

import (
	"context"
	"errors"
	"testing"
)

func TestRegistryRegister(t *testing.T) {
	r := make(targetRegistry)

	first, added, err := r.register("gpt", "", map[string]any{"temperature": 0.2})
	if err != nil || !added {
		t.Fatalf("register(): got added = %v, err = %v", added, err)
	}
	if first.ID != "gpt" || first.Type != DefaultTargetType {
		t.Errorf("register(): got = %+v", first)
	}

	again, added, err := r.register("gpt", "", map[string]any{"temperature": 0.2})
	if err != nil || added || again.ID != first.ID {
		t.Errorf("register() same metadata: got = %+v, added = %v, err = %v", again, added, err)
	}

	bare, added, err := r.register("gpt", "", nil)
	if err != nil || added || bare.ID != first.ID {
		t.Errorf("register() no metadata: got = %+v, added = %v, err = %v", bare, added, err)
	}

	if _, _, err := r.register("gpt", "", map[string]any{"temperature": 0.7}); !errors.Is(err, ErrTargetMetadataConflict) {
		t.Errorf("register() conflicting metadata: got = %v, wanted = %v", err, ErrTargetMetadataConflict)
	}

	if _, _, err := r.register("", "", nil); err == nil {
		t.Error("register() empty name: got = nil, wanted error")
	}
}

func TestTargetMetadataConflictIsImmediate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	md := map[string]any{"model": "small"}
	if err := f.e.Target(ctx, "a", func(context.Context) error { return nil }, WithTargetMetadata(md)); err != nil {
		t.Fatalf("Target() error = %v", err)
	}

	called := false
	err := f.e.Target(ctx, "a", func(context.Context) error {
		called = true
		return nil
	}, WithTargetMetadata(map[string]any{"model": "large"}))
	if !errors.Is(err, ErrTargetMetadataConflict) {
		t.Errorf("Target() error: got = %v, wanted = %v", err, ErrTargetMetadataConflict)
	}
	if called {
		t.Error("Target(): fn was called despite the conflict")
	}

	if err := f.e.Log(ctx, "m", 0, WithTarget("a"), WithLogTargetMetadata(map[string]any{"model": "huge"})); !errors.Is(err, ErrTargetMetadataConflict) {
		t.Errorf("Log() error: got = %v, wanted = %v", err, ErrTargetMetadataConflict)
	}
}

func TestTargetErrorIsRecordedAndReturned(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	boom := errors.New("model refused")
	if err := f.e.Target(ctx, "a", func(context.Context) error { return boom }); !errors.Is(err, boom) {
		t.Fatalf("Target() error: got = %v, wanted = %v", err, boom)
	}
	if err := f.e.Flush(ctx); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
	entries := f.collector.dataset()
	if len(entries) != 1 || entries[0].Error != "model refused" || entries[0].TargetID != "a" {
		t.Errorf("entries: got = %+v, wanted one errored entry for a", entries)
	}
}

func TestTargetPanicIsRecordedAndRaised(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	func() {
		defer func() {
			if r := recover(); r != "kaboom" {
				t.Errorf("recovered: got = %v, wanted = kaboom", r)
			}
		}()
		_ = f.e.Target(ctx, "a", func(context.Context) error { panic("kaboom") })
	}()

	if err := f.e.Flush(ctx); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
	entries := f.collector.dataset()
	if len(entries) != 1 || entries[0].Error != "panic: kaboom" {
		t.Errorf("entries: got = %+v, wanted one entry recording the panic", entries)
	}
}

func TestCurrentTarget(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, ok := CurrentTarget(ctx); ok {
		t.Error("CurrentTarget() outside: got ok, wanted none")
	}
	_ = f.e.Target(ctx, "a", func(ctx context.Context) error {
		if id, ok := CurrentTarget(ctx); !ok || id != "a" {
			t.Errorf("CurrentTarget(): got = %q, %v, wanted = a", id, ok)
		}
		return nil
	})
}
