/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package experiment

import (
	"sync"
	"time"

	"chainguard.dev/evalrun/client"
	"github.com/chainguard-dev/clog"
)

// batch accumulates results between uploads. One lock guards the buffers,
// the target registry and the flush schedule.
type batch struct {
	mu sync.Mutex

	dataset     []BatchEntry
	evaluations []EvaluationResult
	targets     []TargetInfo
	registry    targetRegistry

	progress int
	total    int

	lastFlush time.Time
	timer     *time.Timer
}

func (b *batch) empty() bool {
	return len(b.dataset) == 0 && len(b.evaluations) == 0 && len(b.targets) == 0
}

type flushKind int

const (
	flushRegular flushKind = iota
	flushFinished
	flushStopped
)

func (e *Experiment) appendEntry(entry BatchEntry) {
	e.batch.mu.Lock()
	defer e.batch.mu.Unlock()
	e.batch.dataset = append(e.batch.dataset, entry)
	e.scheduleLocked()
}

func (e *Experiment) appendEvaluation(res EvaluationResult) {
	e.batch.mu.Lock()
	defer e.batch.mu.Unlock()
	e.batch.evaluations = append(e.batch.evaluations, res)
	e.scheduleLocked()
}

func (e *Experiment) registerTarget(name, typ string, metadata map[string]any) (TargetInfo, error) {
	e.batch.mu.Lock()
	defer e.batch.mu.Unlock()
	info, added, err := e.batch.registry.register(name, typ, metadata)
	if err != nil {
		return TargetInfo{}, err
	}
	if added {
		e.batch.targets = append(e.batch.targets, info)
		e.scheduleLocked()
	}
	return info, nil
}

// scheduleLocked flushes now when the debounce interval has passed since the
// last flush, and otherwise arms a single trailing flush at its end.
func (e *Experiment) scheduleLocked() {
	b := &e.batch
	elapsed := time.Since(b.lastFlush)
	if elapsed >= e.debounce {
		e.flushLocked(flushRegular)
		return
	}
	if b.timer != nil {
		return
	}

	var t *time.Timer
	t = time.AfterFunc(e.debounce-elapsed, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if b.timer != t {
			// Superseded by a later flush.
			return
		}
		b.timer = nil
		e.flushLocked(flushRegular)
	})
	b.timer = t
}

// flushLocked snapshots and resets the buffers, then uploads the snapshot on
// a goroutine tracked by e.sends.
func (e *Experiment) flushLocked(kind flushKind) {
	b := &e.batch
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	b.lastFlush = time.Now()
	if kind == flushRegular && b.empty() {
		return
	}

	payload := &client.BatchPayload{
		ExperimentSlug: e.slug,
		Name:           e.name,
		RunID:          e.runID,
		Dataset:        orEmpty(b.dataset),
		Evaluations:    orEmpty(b.evaluations),
		Targets:        b.targets,
		Progress:       b.progress,
		Total:          b.total,
		Timestamps:     client.Timestamps{CreatedAt: e.createdAt.UnixMilli()},
	}
	switch kind {
	case flushFinished:
		now := b.lastFlush.UnixMilli()
		payload.Timestamps.FinishedAt = &now
	case flushStopped:
		now := b.lastFlush.UnixMilli()
		payload.Timestamps.StoppedAt = &now
	}
	b.dataset, b.evaluations, b.targets = nil, nil, nil

	e.sends.Add(1)
	flushesInFlight.WithLabelValues(e.slug).Inc()
	go e.send(payload, kind != flushRegular)
}

func (e *Experiment) send(payload *client.BatchPayload, final bool) {
	defer e.sends.Done()
	defer flushesInFlight.WithLabelValues(e.slug).Dec()

	ctx := e.baseCtx
	err := e.client.LogResults(ctx, payload)
	e.metrics.RecordFlush(ctx, final, err)
	if err != nil {
		flushCounter.WithLabelValues(e.slug, "error").Inc()
		e.recordFlushError(err)
		return
	}
	flushCounter.WithLabelValues(e.slug, "success").Inc()
	clog.FromContext(ctx).With("experiment", e.slug).
		With("dataset", len(payload.Dataset)).
		With("evaluations", len(payload.Evaluations)).
		With("final", final).
		Debug("Uploaded results")
}

func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
