// Package metrics defines Prometheus metrics for melitrack.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "melitrack"

// HTTP metrics.
var (
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "Duration of HTTP requests in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests.",
	}, []string{"method", "path", "status"})
)

// Health gauges updated by the metrics middleware.
var (
	HealthzUp = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "healthz_up",
		Help:      "Whether the last liveness probe succeeded (1) or failed (0).",
	})

	ReadyzUp = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "readyz_up",
		Help:      "Whether the last readiness probe succeeded (1) or failed (0).",
	})
)

// Sync metrics.
var (
	CatalogSyncDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "catalog_sync_duration_seconds",
		Help:      "Duration of catalog sync cycles in seconds.",
		Buckets:   prometheus.DefBuckets,
	})

	CatalogListingsUpserted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "catalog_listings_upserted_total",
		Help:      "Total number of listings upserted by catalog sync.",
	})

	CatalogItemsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "catalog_items_dropped_total",
		Help:      "Total number of listings dropped after a failed detail fetch.",
	})

	OrderSyncDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "order_sync_duration_seconds",
		Help:      "Duration of order sync cycles in seconds.",
		Buckets:   prometheus.DefBuckets,
	})

	OrderSalesUpserted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "order_sales_upserted_total",
		Help:      "Total number of sales upserted by order sync.",
	})

	SyncErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sync_errors_total",
		Help:      "Total number of sync errors by job.",
	}, []string{"job"})
)

// Token metrics.
var (
	TokenRefreshesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "token_refreshes_total",
		Help:      "Total number of OAuth token refresh attempts.",
	})

	TokenRefreshFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "token_refresh_failures_total",
		Help:      "Total number of failed OAuth token refreshes.",
	})

	TokenExchangesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "token_exchanges_total",
		Help:      "Total number of authorization code exchanges.",
	})
)

// MercadoLibre API metrics.
var (
	MeliAPICallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "meli_api_calls_total",
		Help:      "Total cumulative MercadoLibre API calls by endpoint.",
	}, []string{"endpoint"})

	MeliDailyUsage = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "meli_daily_usage",
		Help:      "Current daily MercadoLibre API call count within the rolling 24-hour window.",
	})

	MeliDailyLimitHits = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "meli_daily_limit_hits_total",
		Help:      "Total number of times the daily MercadoLibre API limit was reached.",
	})
)
