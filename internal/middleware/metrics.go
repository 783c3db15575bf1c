package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "path"},
	)

	activeRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_active_requests",
			Help: "Number of currently active HTTP requests",
		},
	)

	promotionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "staging_promotions_total",
			Help: "Staging transitions by mode and outcome",
		},
		[]string{"mode", "outcome"},
	)

	revisionsCaptured = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "revisions_captured_total",
			Help: "Revision snapshots recorded by kind",
		},
		[]string{"kind"},
	)
)

// Metrics returns a gin middleware that collects Prometheus metrics
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Skip metrics endpoint itself
		if c.Request.URL.Path == "/metrics" {
			c.Next()
			return
		}

		start := time.Now()
		activeRequests.Inc()

		c.Next()

		activeRequests.Dec()
		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		// Route template keeps label cardinality bounded
		path := c.FullPath()
		if path == "" {
			path = "unknown"
		}

		httpRequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		httpRequestDuration.WithLabelValues(c.Request.Method, path).Observe(duration)
	}
}

// CountPromotion records a staging transition outcome (call from handlers)
func CountPromotion(mode string, promoted bool) {
	outcome := "promoted"
	if !promoted {
		outcome = "noop"
	}
	promotionsTotal.WithLabelValues(mode, outcome).Inc()
}

// CountRevision records a captured snapshot by kind
func CountRevision(kind string) {
	revisionsCaptured.WithLabelValues(kind).Inc()
}
