// Package metrics exposes the service's operational counters. The
// dashboard's analytics live elsewhere; these exist for operators.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RepeaterRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gashub_repeater_requests_total",
		Help: "Repeater requests by terminal outcome",
	}, []string{"outcome"})

	ForwardDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "gashub_forward_duration_seconds",
		Help:    "Wall-clock duration of the outbound forward call",
		Buckets: prometheus.DefBuckets,
	})

	LogWriteFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gashub_log_write_failures_total",
		Help: "Request log appends rejected by the store",
	})

	CacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gashub_alias_cache_hits_total",
		Help: "Alias resolutions served from the in-process cache",
	})

	CacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gashub_alias_cache_misses_total",
		Help: "Alias resolutions that required a store round trip",
	})
)
