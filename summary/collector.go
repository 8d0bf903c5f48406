/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package summary

import (
	"cmp"
	"context"
	"maps"
	"slices"
	"sync"

	"chainguard.dev/evalrun/evaluators"
	"chainguard.dev/evalrun/experiment"
)

// Key groups results.
type Key struct {
	Target string
	Metric string
}

// Stats summarizes the results of one Key.
type Stats struct {
	Key

	Count   int
	Errors  int
	Skipped int

	// Scored counts results that carried a score; MeanScore is their mean.
	Scored    int
	MeanScore float64

	// Judged counts results that carried a verdict; Passed of them passed.
	Judged int
	Passed int

	// Cost sums the reported cost per currency.
	Cost map[string]float64
}

// PassRate is the share of judged results that passed, or 0 with none judged.
func (s Stats) PassRate() float64 {
	if s.Judged == 0 {
		return 0
	}
	return float64(s.Passed) / float64(s.Judged)
}

// Collector accumulates results. It is safe for concurrent use.
type Collector struct {
	mu    sync.Mutex
	stats map[Key]*accum
}

type accum struct {
	Stats
	scoreSum float64
}

var _ experiment.Observer = (*Collector)(nil)

// New creates an empty collector.
func New() *Collector {
	return &Collector{stats: make(map[Key]*accum)}
}

// ObserveResult implements experiment.Observer.
func (c *Collector) ObserveResult(_ context.Context, res experiment.EvaluationResult) {
	c.Add(res)
}

// Add records one result.
func (c *Collector) Add(res experiment.EvaluationResult) {
	key := Key{Target: res.TargetID, Metric: res.Name}

	c.mu.Lock()
	defer c.mu.Unlock()

	a, ok := c.stats[key]
	if !ok {
		a = &accum{Stats: Stats{Key: key}}
		c.stats[key] = a
	}
	a.Count++
	if res.Cost != nil {
		if a.Cost == nil {
			a.Cost = make(map[string]float64)
		}
		a.Cost[res.Cost.Currency] += res.Cost.Amount
	}
	switch res.Status {
	case evaluators.StatusError:
		a.Errors++
		return
	case evaluators.StatusSkipped:
		a.Skipped++
		return
	}
	if res.Score != nil {
		a.Scored++
		a.scoreSum += *res.Score
		a.MeanScore = a.scoreSum / float64(a.Scored)
	}
	if res.Passed != nil {
		a.Judged++
		if *res.Passed {
			a.Passed++
		}
	}
}

// Stats returns a snapshot ordered by target, then metric.
func (c *Collector) Stats() []Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Stats, 0, len(c.stats))
	for _, a := range c.stats {
		s := a.Stats
		s.Cost = maps.Clone(a.Cost)
		out = append(out, s)
	}
	slices.SortFunc(out, func(a, b Stats) int {
		return cmp.Or(cmp.Compare(a.Target, b.Target), cmp.Compare(a.Metric, b.Metric))
	})
	return out
}

// Failing returns the keys whose mean score is below threshold. Keys without
// scores are judged on their pass rate instead, and keys with neither never fail.
func (c *Collector) Failing(threshold float64) []Key {
	var keys []Key
	for _, s := range c.Stats() {
		var fail bool
		switch {
		case s.Scored > 0:
			fail = s.MeanScore < threshold
		case s.Judged > 0:
			fail = s.PassRate() < threshold
		}
		if fail {
			keys = append(keys, s.Key)
		}
	}
	return keys
}
