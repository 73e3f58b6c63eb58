// internal/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ProviderCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "visibility_provider_calls_total",
			Help: "Total number of AI provider calls by outcome",
		},
		[]string{"provider", "outcome"},
	)

	ProviderLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "visibility_provider_call_duration_seconds",
			Help:    "Duration of AI provider calls in seconds",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 8),
		},
		[]string{"provider"},
	)

	OracleExtractions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "visibility_oracle_extractions_total",
			Help: "Competitor extractions by outcome (ok, cached, failed, skipped)",
		},
		[]string{"outcome"},
	)

	Runs = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "visibility_runs_total",
			Help: "Visibility runs by final status",
		},
		[]string{"status"},
	)
)
