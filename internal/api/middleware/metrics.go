// Package middleware provides Echo middleware for melitrack.
package middleware

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/facuhernandez/melitrack/internal/metrics"
)

// metricsSkipPaths lists URL paths excluded from HTTP request metrics.
// Probes and scrapes fire constantly and would drown the real traffic.
var metricsSkipPaths = map[string]struct{}{
	"/metrics": {},
	"/healthz": {},
	"/readyz":  {},
}

// healthGauges maps probe paths to their 0/1 gauge. Paths listed here get
// a gauge update instead of histogram/counter samples.
var healthGauges = map[string]prometheus.Gauge{
	"/healthz": metrics.HealthzUp,
	"/readyz":  metrics.ReadyzUp,
}

// Metrics returns Echo middleware that records request duration and status
// per method, route, and status code. Probe paths only update their gauges.
func Metrics() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			path := c.Path()
			if path == "" {
				path = c.Request().URL.Path
			}

			if _, skip := metricsSkipPaths[path]; skip {
				err := next(c)
				updateHealthGauge(path, c.Response().Status)
				return err
			}

			start := time.Now()
			err := next(c)
			recordRequest(c.Request().Method, path, c.Response().Status, time.Since(start))
			return err
		}
	}
}

func recordRequest(method, path string, status int, elapsed time.Duration) {
	code := strconv.Itoa(status)
	metrics.HTTPRequestDuration.WithLabelValues(method, path, code).Observe(elapsed.Seconds())
	metrics.HTTPRequestsTotal.WithLabelValues(method, path, code).Inc()
}

func updateHealthGauge(path string, status int) {
	gauge, ok := healthGauges[path]
	if !ok {
		return
	}

	if status >= 200 && status < 300 {
		gauge.Set(1)
	} else {
		gauge.Set(0)
	}
}
