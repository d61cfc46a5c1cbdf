// Package metrics exposes the engine's prometheus collectors.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	ComposeTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "suitepath_compose_total",
			Help: "Number of classpath compositions by suite and kind.",
		},
		[]string{"suite", "kind"},
	)
	ComposeErrorTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "suitepath_compose_error_total",
			Help: "Number of failed classpath compositions by suite and kind.",
		},
		[]string{"suite", "kind"},
	)
	ComposeCacheHitTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "suitepath_compose_cache_hit_total",
			Help: "Number of compositions answered from the per-domain cache.",
		},
		[]string{"suite", "kind"},
	)
	ProviderForcedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "suitepath_provider_forced_total",
			Help: "Total number of deferred dependency providers forced.",
		},
	)
	ResolveDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "suitepath_resolve_duration_seconds",
			Help:    "Time spent in the module graph resolver per request.",
			Buckets: prometheus.DefBuckets,
		},
	)
)

func init() {
	prometheus.MustRegister(
		ComposeTotal,
		ComposeErrorTotal,
		ComposeCacheHitTotal,
		ProviderForcedTotal,
		ResolveDuration,
	)
}
