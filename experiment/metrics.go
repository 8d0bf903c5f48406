/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package experiment

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	rowCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "evalrun_rows_total",
			Help: "Total number of rows processed, by outcome",
		},
		[]string{"experiment", "outcome"},
	)

	resultCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "evalrun_results_total",
			Help: "Total number of evaluation results logged",
		},
		[]string{"experiment", "metric", "status"},
	)

	flushCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "evalrun_flushes_total",
			Help: "Total number of batch uploads, by outcome",
		},
		[]string{"experiment", "outcome"},
	)

	flushesInFlight = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "evalrun_flushes_in_flight",
			Help: "Batch uploads currently in flight",
		},
		[]string{"experiment"},
	)
)
