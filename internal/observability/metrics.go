// Package observability defines the Prometheus metrics for the service.
package observability

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~20s
		},
		[]string{"method", "route", "status"},
	)

	upstreamLatencySeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "upstream_latency_seconds",
			Help:    "Latency of upstream calls in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
		},
		[]string{"upstream"},
	)

	cacheResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_results_total",
			Help: "Cache results by cache name and outcome.",
		},
		[]string{"cache", "outcome"},
	)

	geocodeProviderTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "geocode_provider_total",
			Help: "Geocoding attempts by provider and outcome.",
		},
		[]string{"provider", "outcome"},
	)

	spatialAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spatial_attempts_total",
			Help: "Spatial query attempts by endpoint and outcome.",
		},
		[]string{"endpoint", "outcome"},
	)

	invalidationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_invalidations_total",
			Help: "Cache invalidation events by outcome.",
		},
		[]string{"outcome"},
	)

	buildInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_build_info",
			Help: "Build information for the binary.",
		},
		[]string{"version"},
	)
)

func ObserveHTTP(method, route string, status int, durationSeconds float64) {
	st := strconv.Itoa(status)
	httpRequestsTotal.WithLabelValues(method, route, st).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route, st).Observe(durationSeconds)
}

func ObserveUpstreamLatency(upstream string, durationSeconds float64) {
	upstreamLatencySeconds.WithLabelValues(upstream).Observe(durationSeconds)
}

func IncCacheHit(cache string)  { cacheResults.WithLabelValues(cache, "hit").Inc() }
func IncCacheMiss(cache string) { cacheResults.WithLabelValues(cache, "miss").Inc() }

func IncGeocodeAttempt(provider, outcome string) {
	geocodeProviderTotal.WithLabelValues(provider, outcome).Inc()
}

func IncSpatialAttempt(endpoint, outcome string) {
	spatialAttemptsTotal.WithLabelValues(endpoint, outcome).Inc()
}

func IncInvalidation(outcome string) {
	invalidationsTotal.WithLabelValues(outcome).Inc()
}

func ExposeBuildInfo(version string) {
	if version == "" {
		version = "dev"
	}
	buildInfo.WithLabelValues(version).Set(1)
}
