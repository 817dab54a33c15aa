package observability

import (
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registerOnce          sync.Once
	httpRequestsTotal     *prometheus.CounterVec
	httpLatencySeconds    *prometheus.HistogramVec
	httpErrorsTotal       *prometheus.CounterVec
	reviewsTotal          *prometheus.CounterVec
	submissionsTotal      *prometheus.CounterVec
	uploadRequestsTotal   *prometheus.CounterVec
	uploadRejectedTotal   *prometheus.CounterVec
	uploadLatencySeconds  prometheus.Histogram
	reportsGeneratedTotal *prometheus.CounterVec
	reportCacheTotal      *prometheus.CounterVec
	notificationsTotal    *prometheus.CounterVec
	realtimeClients       prometheus.Gauge
	fileProxyTotal        *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used across the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hub_http_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "hub_http_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		httpErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hub_http_errors_total",
			Help: "Total number of error responses returned by the API.",
		}, []string{"method", "route", "status"})

		reviewsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hub_activity_reviews_total",
			Help: "Activity review attempts by outcome.",
		}, []string{"outcome"})

		submissionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hub_activity_submissions_total",
			Help: "Activity submissions by type.",
		}, []string{"type"})

		uploadRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hub_uploads_total",
			Help: "Stored certificate uploads by detected type.",
		}, []string{"type"})

		uploadRejectedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hub_uploads_rejected_total",
			Help: "Rejected certificate uploads by reason.",
		}, []string{"reason"})

		uploadLatencySeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "hub_upload_latency_seconds",
			Help:    "Time spent validating and storing uploads.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		})

		reportsGeneratedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hub_reports_generated_total",
			Help: "Reports generated by kind and format.",
		}, []string{"kind", "format"})

		reportCacheTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hub_report_cache_total",
			Help: "Statistics cache lookups by result.",
		}, []string{"result"})

		notificationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hub_notifications_published_total",
			Help: "Notifications delivered to subscribers by type.",
		}, []string{"type"})

		realtimeClients = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "hub_realtime_clients_active",
			Help: "Open notification websocket connections.",
		})

		fileProxyTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hub_file_proxy_requests_total",
			Help: "Certificate proxy requests by mode and outcome.",
		}, []string{"mode", "outcome"})

		prometheus.MustRegister(
			httpRequestsTotal, httpLatencySeconds, httpErrorsTotal,
			reviewsTotal, submissionsTotal,
			uploadRequestsTotal, uploadRejectedTotal, uploadLatencySeconds,
			reportsGeneratedTotal, reportCacheTotal,
			notificationsTotal, realtimeClients, fileProxyTotal,
		)
	})
}

// MetricsHandler serves the scrape endpoint from the default registry.
func MetricsHandler() fiber.Handler {
	RegisterMetrics()
	return adaptor.HTTPHandler(promhttp.HandlerFor(prometheus.DefaultGatherer, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	}))
}

// HTTPRequests exposes the counter for API requests.
func HTTPRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// HTTPLatency exposes the latency histogram for API requests.
func HTTPLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpLatencySeconds
}

// HTTPErrors exposes the counter for error responses.
func HTTPErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return httpErrorsTotal
}

// ActivityReviews counts review attempts labelled approved, rejected, conflict or failed.
func ActivityReviews() *prometheus.CounterVec {
	RegisterMetrics()
	return reviewsTotal
}

// ActivitySubmissions counts accepted submissions.
func ActivitySubmissions() *prometheus.CounterVec {
	RegisterMetrics()
	return submissionsTotal
}

// UploadRequests counts stored uploads.
func UploadRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return uploadRequestsTotal
}

// UploadRejected counts rejected uploads.
func UploadRejected() *prometheus.CounterVec {
	RegisterMetrics()
	return uploadRejectedTotal
}

// UploadLatency exposes the upload latency histogram.
func UploadLatency() prometheus.Histogram {
	RegisterMetrics()
	return uploadLatencySeconds
}

// ReportsGenerated counts generated reports.
func ReportsGenerated() *prometheus.CounterVec {
	RegisterMetrics()
	return reportsGeneratedTotal
}

// ReportCache counts statistics cache hits and misses.
func ReportCache() *prometheus.CounterVec {
	RegisterMetrics()
	return reportCacheTotal
}

// NotificationsPublishedTotal counts delivered notifications.
func NotificationsPublishedTotal() *prometheus.CounterVec {
	RegisterMetrics()
	return notificationsTotal
}

// RealtimeClientsActive tracks open websocket subscribers.
func RealtimeClientsActive() prometheus.Gauge {
	RegisterMetrics()
	return realtimeClients
}

// FileProxyRequests counts view and download proxy calls.
func FileProxyRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return fileProxyTotal
}
