// Package metrics holds the Prometheus collectors shared by the board's
// persistence, dispatch and HTTP layers.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	ResultSuccess = "success"
	ResultFailure = "failure"

	SourceFile  = "file"
	SourceLocal = "local"
)

var (
	// SavesTotal counts local-store saves by result
	SavesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "standup_saves_total",
			Help: "Total number of standup document saves",
		},
		[]string{"result"},
	)

	// FileWritesTotal counts shared file writes by result
	FileWritesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "standup_file_writes_total",
			Help: "Total number of shared file writes",
		},
		[]string{"result"},
	)

	// DispatchesTotal counts external changelog posts by result
	DispatchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "standup_dispatches_total",
			Help: "Total number of changelog comments posted to Azure DevOps",
		},
		[]string{"result"},
	)

	// ExternalReloadsTotal counts aggregates replaced from outside the session
	ExternalReloadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "standup_external_reloads_total",
			Help: "Total number of documents reloaded from another context",
		},
		[]string{"source"},
	)

	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "standup_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)

// Result maps an error to a result label.
func Result(err error) string {
	if err != nil {
		return ResultFailure
	}
	return ResultSuccess
}

// CollectMetrics records request durations. The route template is used as the
// path label so ids do not explode cardinality.
func CollectMetrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		requestDuration.WithLabelValues(c.Request.Method, path, status).Observe(time.Since(start).Seconds())
	}
}
