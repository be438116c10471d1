// Package metrics exposes Prometheus instrumentation for the API and the
// offer selection pipeline.
//
// Metrics are served at /metrics in the Prometheus text format.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestsTotal counts requests by method, route pattern and status.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkin_offers_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	// HTTPRequestDuration tracks request latency by route pattern.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "checkin_offers_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 5},
		},
		[]string{"method", "route"},
	)

	// RateLimitHits counts requests rejected by the rate limiter.
	RateLimitHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "checkin_offers_rate_limit_hits_total",
			Help: "Requests rejected by the rate limiter",
		},
	)

	// RecommendationsTotal counts pipeline runs by offer source and outcome.
	RecommendationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkin_offers_recommendations_total",
			Help: "Recommendation requests by source (catalog, inline) and outcome",
		},
		[]string{"source", "outcome"},
	)

	// PipelineDuration tracks how long a full selection run takes.
	PipelineDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "checkin_offers_pipeline_duration_seconds",
			Help:    "Offer selection pipeline duration",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1},
		},
	)

	// OffersDropped counts offers removed at each pipeline stage.
	OffersDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkin_offers_pipeline_offers_dropped_total",
			Help: "Offers removed by a pipeline stage",
		},
		[]string{"stage"},
	)

	// CacheHits and CacheMisses track catalog recommendation cache lookups.
	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "checkin_offers_cache_hits_total",
			Help: "Recommendation cache hits",
		},
	)
	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "checkin_offers_cache_misses_total",
			Help: "Recommendation cache misses",
		},
	)

	// CatalogSize is the number of offers in the stored catalog.
	CatalogSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "checkin_offers_catalog_size",
			Help: "Number of offers in the catalog",
		},
	)
)

// Outcome labels for RecommendationsTotal.
const (
	OutcomeOK          = "ok"
	OutcomeClientError = "client_error"
	OutcomeServerError = "server_error"
)

// Source labels for RecommendationsTotal.
const (
	SourceCatalog = "catalog"
	SourceInline  = "inline"
)
