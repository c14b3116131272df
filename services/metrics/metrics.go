// Package metricsvc exposes prometheus metrics for the HTTP API.
package metricsvc

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	requestCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "darasa",
			Name:      "api_requests_total",
			Help:      "Total number of API requests",
		},
		[]string{"method", "path"},
	)

	requestDurationHistogram = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "darasa",
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	errorCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "darasa",
			Name:      "api_errors_total",
			Help:      "Total number of API errors",
		},
		[]string{"method", "path", "status"},
	)

	tenantResolutionCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "darasa",
			Name:      "tenant_resolutions_total",
			Help:      "Total number of tenant resolutions by outcome",
		},
		[]string{"outcome"}, // tenant | root
	)
)

// Middleware tracks request count, duration and errors per route.
func Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			requestCounter.With(prometheus.Labels{
				"method": c.Request().Method,
				"path":   c.Path(),
			}).Inc()

			err := next(c)

			status := c.Response().Status
			if err != nil {
				if he, ok := err.(*echo.HTTPError); ok {
					status = he.Code
				}
			}
			labels := prometheus.Labels{
				"method": c.Request().Method,
				"path":   c.Path(),
				"status": strconv.Itoa(status),
			}
			requestDurationHistogram.With(labels).Observe(time.Since(start).Seconds())
			if status >= 400 {
				errorCounter.With(labels).Inc()
			}

			return err
		}
	}
}

// HandlerFunc serves the prometheus scrape endpoint.
func HandlerFunc() echo.HandlerFunc {
	return echo.WrapHandler(promhttp.Handler())
}

// RecordTenantResolution counts a resolver outcome: "tenant" when a request
// was bound to a tenant, "root" otherwise.
func RecordTenantResolution(outcome string) {
	tenantResolutionCounter.With(prometheus.Labels{"outcome": outcome}).Inc()
}
