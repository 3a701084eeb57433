package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "searchworker",
		Name:      "http_requests_total",
		Help:      "Total HTTP requests by method, path and status code.",
	}, []string{"method", "path", "status"})

	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "searchworker",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration in seconds.",
		Buckets:   []float64{0.05, 0.1, 0.3, 0.5, 1, 2, 5, 10, 20},
	}, []string{"method", "path"})

	SourceRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "searchworker",
		Name:      "source_requests_total",
		Help:      "Total upstream source fetches by source name and outcome.",
	}, []string{"source", "outcome"})

	SourceRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "searchworker",
		Name:      "source_request_duration_seconds",
		Help:      "Upstream source fetch duration in seconds.",
		Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10},
	}, []string{"source"})

	CacheHitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "searchworker",
		Name:      "cache_hits_total",
		Help:      "Total number of aggregate cache hits.",
	})

	CacheMissesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "searchworker",
		Name:      "cache_misses_total",
		Help:      "Total number of aggregate cache misses.",
	})

	CacheWriteFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "searchworker",
		Name:      "cache_write_failures_total",
		Help:      "Aggregate cache writes that failed even after the bare-write fallback.",
	})

	ChatRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "searchworker",
		Name:      "chat_requests_total",
		Help:      "Chat completions by outcome (ok, denied, error).",
	}, []string{"outcome"})

	QuoteFallbacksTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "searchworker",
		Name:      "quote_fallbacks_total",
		Help:      "Quote requests served from the static fallback.",
	})
)

func Register(reg prometheus.Registerer) {
	reg.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		SourceRequestsTotal,
		SourceRequestDuration,
		CacheHitsTotal,
		CacheMissesTotal,
		CacheWriteFailuresTotal,
		ChatRequestsTotal,
		QuoteFallbacksTotal,
	)
}
