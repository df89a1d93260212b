package metrics

import (
	"gcsmedia/backend/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestCounter counts processed HTTP requests.
	HTTPRequestCounter *prometheus.CounterVec

	// HTTPRequestDuration observes HTTP request latency.
	HTTPRequestDuration *prometheus.HistogramVec

	// UploadDirFilterCounter counts upload_dir filter invocations by outcome
	// ("rewritten" when a bucket is configured, "passthrough" otherwise).
	UploadDirFilterCounter *prometheus.CounterVec

	// StorageOperationCounter counts remote storage calls by operation and status.
	StorageOperationCounter *prometheus.CounterVec

	// AppInfo exposes build information.
	AppInfo *prometheus.GaugeVec
)

func init() {
	HTTPRequestCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gcsmedia_http_requests_total",
			Help: "Total number of HTTP requests processed.",
		},
		[]string{"method", "path", "status_code"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gcsmedia_http_request_duration_seconds",
			Help:    "Histogram of HTTP request latencies.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	UploadDirFilterCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gcsmedia_upload_dir_filter_total",
			Help: "Upload location rewrites, by outcome.",
		},
		[]string{"outcome"},
	)

	StorageOperationCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gcsmedia_storage_operations_total",
			Help: "Calls made to Google Cloud Storage, by operation and status.",
		},
		[]string{"operation", "status"},
	)

	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "gcsmedia_app_info",
			Help: "Information about the running gcsmedia build.",
		},
		[]string{"version", "host_version"},
	)
	AppInfo.With(prometheus.Labels{
		"version":      config.Cfg.AppVersion,
		"host_version": config.Cfg.HostVersion,
	}).Set(1)
}

// ObserveStorage records the outcome of a storage operation.
func ObserveStorage(operation string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	StorageOperationCounter.WithLabelValues(operation, status).Inc()
}
