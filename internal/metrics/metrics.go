// Package metrics holds the Prometheus collectors of the API: HTTP request
// metrics recorded by a gin middleware, and ingestion/export counters.
package metrics

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
			Name: "hexapink_http_requests_total",
			Help: "HTTP requests handled, by route and status.",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hexapink_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	TablesIngested = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hexapink_tables_ingested_total",
		Help: "Tables created from uploaded files.",
	})

	LeadsIngested = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hexapink_leads_ingested_total",
		Help: "Data rows counted across ingested tables.",
	})

	IngestFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hexapink_ingest_failures_total",
		Help: "Rejected table uploads, by error kind.",
	}, []string{"kind"})

	ExportsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hexapink_exports_total",
		Help: "Order files written, by status.",
	}, []string{"status"})

	PhoneLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hexapink_phone_lookups_total",
		Help: "Phone validation lookups, by result.",
	}, []string{"result"})
)

// Middleware records request count and latency. Routes are labelled by their
// registered pattern so ids in the URL do not create new series.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())

		httpRequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		httpRequestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}
