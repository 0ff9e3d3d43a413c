// Package metrics holds the prometheus collectors shared by the search stack.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// UpstreamCalls counts catalog calls by catalog and outcome
	// (ok, error, malformed).
	UpstreamCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reposearch_upstream_calls_total",
			Help: "Upstream catalog calls by catalog and outcome",
		},
		[]string{"catalog", "outcome"},
	)

	// BackfillPages observes how many upstream pages one backfill needed.
	BackfillPages = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "reposearch_backfill_pages",
			Help:    "Upstream pages fetched per backfill",
			Buckets: []float64{1, 2, 3, 4, 5},
		},
		[]string{"catalog"},
	)

	// CacheLookups counts page cache lookups by result (hit, miss, seeded).
	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reposearch_cache_lookups_total",
			Help: "Page cache lookups by result",
		},
		[]string{"result"},
	)

	// SearchDuration observes full search latency by outcome.
	SearchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "reposearch_search_duration_seconds",
			Help:    "Federated search latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"outcome"},
	)
)
