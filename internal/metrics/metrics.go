// Package metrics exposes Prometheus collectors for report generation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "kenaz_focus"

var (
	GenerationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "report",
			Name:      "generations_total",
			Help:      "Report generation attempts by outcome",
		},
		[]string{"status"}, // success/error
	)

	GenerationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "report",
			Name:      "generation_duration_seconds",
			Help:      "Time spent in the external generator",
			Buckets:   []float64{.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
	)

	RefreshDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "report",
			Name:      "refresh_decisions_total",
			Help:      "Outcomes of the generate-if-needed check",
		},
		[]string{"decision"}, // generate/cached/in_flight
	)

	DigestBatchChars = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "digest",
			Name:      "batch_chars",
			Help:      "Aggregate character count of digest batches",
			Buckets:   prometheus.ExponentialBuckets(250, 2, 8),
		},
	)

	DigestBatchSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "digest",
			Name:      "batch_notes",
			Help:      "Number of digests per batch",
			Buckets:   []float64{0, 1, 2, 5, 10, 20, 50},
		},
	)
)
