package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jokehub",
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"service", "method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "jokehub",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"service", "method", "path"},
	)

	// AuthzDecisionsTotal counts authorization decisions by outcome
	// and deny reason. Allowed decisions carry an empty reason.
	AuthzDecisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jokehub",
			Name:      "authz_decisions_total",
			Help:      "Total number of authorization decisions",
		},
		[]string{"outcome", "reason"},
	)
)

// RecordAuthzDecision records one policy evaluation. Installed as the
// authz decision observer at startup.
func RecordAuthzDecision(allowed bool, reason string) {
	outcome := "deny"
	if allowed {
		outcome = "allow"
		reason = ""
	}
	AuthzDecisionsTotal.WithLabelValues(outcome, reason).Inc()
}

// PrometheusMetrics records request counts and latencies per route
func PrometheusMetrics(service string) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		// Use the route template so path cardinality stays bounded
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		status := strconv.Itoa(c.Writer.Status())
		httpRequestsTotal.WithLabelValues(service, c.Request.Method, path, status).Inc()
		httpRequestDuration.WithLabelValues(service, c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

// MetricsHandler exposes the Prometheus scrape endpoint
func MetricsHandler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
