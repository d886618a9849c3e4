package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "coffeefinder"

// Search Prometheus metrics.
var (
	SearchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_requests_total",
			Help:      "Total number of venue searches",
		},
		[]string{"status"}, // "ok" / "invalid" / "error"
	)

	RankDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "rank_duration_seconds",
			Help:      "Time spent filtering, scoring and ordering one catalog snapshot",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		},
	)

	SearchResultsReturned = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_results_returned",
			Help:      "Number of venues returned per search",
			Buckets:   []float64{0, 1, 5, 10, 20, 50, 100, 500},
		},
	)

	SearchVenuesMatched = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_venues_matched",
			Help:      "Number of venues passing the hard filters per search, before truncation",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		},
	)
)

// Catalog Prometheus metrics.
var (
	CatalogVenues = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "catalog_venues",
			Help:      "Number of venues in the active catalog snapshot",
		},
	)

	CatalogVersion = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "catalog_version",
			Help:      "Version counter of the active catalog snapshot",
		},
	)

	CatalogLastRefreshTimestamp = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "catalog_last_refresh_timestamp_seconds",
			Help:      "Unix time of the last successful catalog refresh",
		},
	)

	CatalogRefreshTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "catalog_refresh_total",
			Help:      "Catalog refresh attempts",
		},
		[]string{"source", "status"},
	)
)

// Upstream provider Prometheus metrics.
var (
	UpstreamRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_requests_total",
			Help:      "Requests to external providers (Overpass, Nominatim)",
		},
		[]string{"provider", "status"}, // "ok" / "error" / "rejected"
	)

	UpstreamRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_request_duration_seconds",
			Help:      "External provider request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"provider"},
	)

	CircuitBreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "circuit_breaker_state",
			Help:      "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	OverpassCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "overpass_cache_total",
			Help:      "Overpass response cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)
)

var registerOnce sync.Once

// RegisterDomainMetrics registers search, catalog and upstream metrics. Safe to call more than once.
func RegisterDomainMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			SearchRequestsTotal,
			RankDuration,
			SearchResultsReturned,
			SearchVenuesMatched,
			CatalogVenues,
			CatalogVersion,
			CatalogLastRefreshTimestamp,
			CatalogRefreshTotal,
			UpstreamRequestsTotal,
			UpstreamRequestDuration,
			CircuitBreakerState,
			OverpassCacheTotal,
		)
	})
}
