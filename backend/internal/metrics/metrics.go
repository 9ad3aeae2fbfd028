// Package metrics exposes Prometheus instrumentation for the graph access
// layer, the interest mutators and the feed composer.
//
// Metrics Categories:
//   - Graph queries: latency per template and access mode, failures per error kind
//   - Interest mutations: follow/unfollow outcomes per target kind
//   - Feed composition: requests per strategy, fallbacks, end-to-end latency
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// GraphQueryDuration tracks the latency of a single graph call, session included.
	GraphQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "graph_query_duration_seconds",
			Help:    "Duration of graph store queries in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"query", "mode"},
	)

	// GraphQueryErrorsTotal counts failed graph calls by error kind.
	GraphQueryErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "graph_query_errors_total",
			Help: "Total number of failed graph store queries",
		},
		[]string{"query", "kind"},
	)

	// InterestMutationsTotal counts per-target follow/unfollow outcomes.
	InterestMutationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "interest_mutations_total",
			Help: "Total number of per-target interest graph mutations",
		},
		[]string{"kind", "op", "outcome"},
	)

	// FeedRequestsTotal counts composed feeds by the strategy that produced them.
	FeedRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_requests_total",
			Help: "Total number of composed feeds by serving strategy",
		},
		[]string{"strategy"},
	)

	// FeedFallbacksTotal counts following feeds that came back empty.
	FeedFallbacksTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "feed_fallbacks_total",
			Help: "Total number of fallbacks from the following feed to the personalized feed",
		},
	)

	// FeedComposeDuration tracks end-to-end feed composition latency.
	FeedComposeDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "feed_compose_duration_seconds",
			Help:    "Duration of feed composition in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)
)

// RecordGraphQuery records one graph call. kind is empty on success.
func RecordGraphQuery(query, mode string, duration time.Duration, kind string) {
	GraphQueryDuration.WithLabelValues(query, mode).Observe(duration.Seconds())
	if kind != "" {
		GraphQueryErrorsTotal.WithLabelValues(query, kind).Inc()
	}
}

// RecordInterestMutation records the outcome of one follow/unfollow target.
func RecordInterestMutation(kind, op, outcome string) {
	InterestMutationsTotal.WithLabelValues(kind, op, outcome).Inc()
}

// RecordFeed records a composed feed.
func RecordFeed(strategy string, fellBack bool, duration time.Duration) {
	FeedRequestsTotal.WithLabelValues(strategy).Inc()
	if fellBack {
		FeedFallbacksTotal.Inc()
	}
	FeedComposeDuration.Observe(duration.Seconds())
}
