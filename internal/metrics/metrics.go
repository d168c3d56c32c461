// Package metrics provides Prometheus metrics for the codeecho server.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP request metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "codeecho_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "codeecho_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// Export metrics
	filesFetchedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "codeecho_files_fetched_total",
			Help: "Total number of files fetched and decoded for exports",
		},
	)

	bytesFetchedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "codeecho_bytes_fetched_total",
			Help: "Total decoded bytes fetched for exports",
		},
	)

	filesSkippedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "codeecho_files_skipped_total",
			Help: "Total number of files left out of exports",
		},
		[]string{"reason"},
	)

	tokensEstimatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "codeecho_tokens_estimated_total",
			Help: "Total number of tokens estimated across exports",
		},
	)

	exportsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "codeecho_exports_total",
			Help: "Total number of export and folder structure operations",
		},
		[]string{"operation", "status"},
	)
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordHTTPRequest records an HTTP request metric.
func RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordOperation records the outcome of an engine operation.
func RecordOperation(operation string, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	exportsTotal.WithLabelValues(operation, status).Inc()
}

// ExportRecorder feeds export progress into the process-wide counters.
type ExportRecorder struct{}

// FileFetched records one decoded file of the given size.
func (ExportRecorder) FileFetched(bytes int) {
	filesFetchedTotal.Inc()
	bytesFetchedTotal.Add(float64(bytes))
}

// FileSkipped records one file dropped for reason.
func (ExportRecorder) FileSkipped(reason string) {
	filesSkippedTotal.WithLabelValues(reason).Inc()
}

// TokensEstimated records the estimate for one included file.
func (ExportRecorder) TokensEstimated(tokens int) {
	tokensEstimatedTotal.Add(float64(tokens))
}
