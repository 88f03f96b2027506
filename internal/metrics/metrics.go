package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	UpstreamRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "snowline_upstream_requests_total",
			Help: "Total outbound requests to weather data providers",
		},
		[]string{"provider", "endpoint", "status"},
	)

	UpstreamLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "snowline_upstream_latency_seconds",
			Help:    "Outbound provider request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider", "endpoint"},
	)

	CacheRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "snowline_cache_requests_total",
			Help: "Response cache lookups by outcome",
		},
		[]string{"outcome"},
	)

	SeriesPointsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "snowline_series_points_total",
			Help: "Unified series points produced, by originating source",
		},
		[]string{"source"},
	)
)
