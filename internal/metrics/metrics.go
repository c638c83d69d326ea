// Package metrics provides Prometheus metrics for the claim triage pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ClaimsProcessed counts scored claims.
	// Labels: action (AUTO_APPROVE, REQUEST_DOCS, HOLD_PAYMENT)
	ClaimsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "claimtriage",
			Subsystem: "pipeline",
			Name:      "claims_processed_total",
			Help:      "Total number of claims scored by recommended action",
		},
		[]string{"action"},
	)

	// ClaimFailures counts claims whose processing was aborted.
	ClaimFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "claimtriage",
			Subsystem: "pipeline",
			Name:      "claim_failures_total",
			Help:      "Total number of claims that could not be processed",
		},
	)

	// Scores tracks the distribution of suspicion scores.
	Scores = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "claimtriage",
			Subsystem: "pipeline",
			Name:      "suspicion_score",
			Help:      "Distribution of suspicion scores",
			Buckets:   []float64{0.1, 0.2, 0.35, 0.5, 0.75, 0.9, 1.0},
		},
	)

	// ProviderCalls counts external extraction calls.
	// Labels: result (success, error)
	ProviderCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "claimtriage",
			Subsystem: "extraction",
			Name:      "provider_calls_total",
			Help:      "Total number of external extraction provider calls",
		},
		[]string{"result"},
	)

	// CacheLookups counts extraction cache reads.
	// Labels: result (hit, miss, corrupt, error)
	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "claimtriage",
			Subsystem: "extraction",
			Name:      "cache_lookups_total",
			Help:      "Total number of extraction cache lookups",
		},
		[]string{"result"},
	)

	// StoreLookups counts verification sessions against the record store.
	// Labels: result (success, error, unavailable)
	StoreLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "claimtriage",
			Subsystem: "verification",
			Name:      "store_lookups_total",
			Help:      "Total number of record store verification sessions",
		},
		[]string{"result"},
	)
)
