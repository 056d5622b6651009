package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsRegistry holds all Prometheus metrics for the isochrone backend
type MetricsRegistry struct {
	// HTTP Metrics
	HTTPRequestsTotal    prometheus.CounterVec
	HTTPRequestDuration  prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.GaugeVec

	// Cache Metrics
	CacheHitsTotal   prometheus.CounterVec
	CacheMissesTotal prometheus.CounterVec

	// Batch Metrics
	OriginsProcessedTotal prometheus.CounterVec
	RoutingRequestsTotal  prometheus.CounterVec
	RoutingDuration       prometheus.HistogramVec
	BandsSavedTotal       prometheus.Counter
}

// NewMetricsRegistry initializes and returns a new MetricsRegistry with all metrics
func NewMetricsRegistry() *MetricsRegistry {
	return &MetricsRegistry{
		// HTTP Metrics
		HTTPRequestsTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "howfar_http_requests_total",
				Help: "Total HTTP requests processed by endpoint, method, and status code",
			},
			[]string{"endpoint", "method", "status_code"},
		),
		HTTPRequestDuration: *promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "howfar_http_request_duration_seconds",
				Help:    "HTTP request latency distribution in seconds",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"endpoint", "method"},
		),
		HTTPRequestsInFlight: *promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "howfar_http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed",
			},
			[]string{"endpoint"},
		),

		// Cache Metrics
		CacheHitsTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "howfar_cache_hits_total",
				Help: "Total cache hits by cache key pattern",
			},
			[]string{"cache_key_pattern"},
		),
		CacheMissesTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "howfar_cache_misses_total",
				Help: "Total cache misses by cache key pattern",
			},
			[]string{"cache_key_pattern"},
		),

		// Batch Metrics
		OriginsProcessedTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "howfar_origins_processed_total",
				Help: "Total batch origins processed by mode and outcome",
			},
			[]string{"mode", "outcome"},
		),
		RoutingRequestsTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "howfar_routing_requests_total",
				Help: "Total routing worker requests by mode and outcome",
			},
			[]string{"mode", "outcome"},
		),
		RoutingDuration: *promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "howfar_routing_request_duration_seconds",
				Help:    "Routing worker request latency distribution in seconds",
				Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600},
			},
			[]string{"mode"},
		),
		BandsSavedTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "howfar_isochrone_bands_saved_total",
				Help: "Total isochrone band rows written to the cache",
			},
		),
	}
}
