// Package metrics holds the Prometheus collectors for conversions and the API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Metrics holds all Prometheus metrics for vcfbin
type Metrics struct {
	registry *prometheus.Registry

	// Conversion metrics
	filesTotal    *prometheus.CounterVec
	recordsTotal  prometheus.Counter
	bytesTotal    prometheus.Counter
	fileDuration  prometheus.Histogram
	filesInFlight prometheus.Gauge

	// HTTP request metrics
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// New creates the collectors on a fresh registry. Each instance is
// independent, so tests and multiple servers never collide.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		filesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vcfbin_files_total",
				Help: "Total number of files converted, by outcome",
			},
			[]string{"status"},
		),

		recordsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "vcfbin_records_total",
				Help: "Total number of variant records encoded",
			},
		),

		bytesTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "vcfbin_bytes_written_total",
				Help: "Total number of encoded bytes written",
			},
		),

		fileDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "vcfbin_file_duration_seconds",
				Help:    "Per-file conversion duration in seconds",
				Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
			},
		),

		filesInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "vcfbin_files_in_flight",
				Help: "Number of file conversions currently running",
			},
		),

		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vcfbin_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status_code"},
		),

		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "vcfbin_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),
	}
}

// Registry exposes the underlying registry, mostly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// FileStarted marks a conversion as in flight; call the returned func when done.
func (m *Metrics) FileStarted() func() {
	m.filesInFlight.Inc()
	return m.filesInFlight.Dec
}

// RecordFile records the outcome of one file conversion
func (m *Metrics) RecordFile(success bool, records, bytes int64, duration time.Duration) {
	status := StatusSuccess
	if !success {
		status = StatusError
	}

	m.filesTotal.WithLabelValues(status).Inc()
	m.fileDuration.Observe(duration.Seconds())
	if success {
		m.recordsTotal.Add(float64(records))
		m.bytesTotal.Add(float64(bytes))
	}
}

// RecordRecords adds records encoded outside of a file conversion, such as an
// API request.
func (m *Metrics) RecordRecords(records, bytes int64) {
	m.recordsTotal.Add(float64(records))
	m.bytesTotal.Add(float64(bytes))
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, endpoint string, statusCode int, duration time.Duration) {
	statusCodeStr := strconv.Itoa(statusCode)

	m.httpRequestsTotal.WithLabelValues(method, endpoint, statusCodeStr).Inc()
	m.httpRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// InstrumentHandler instruments an HTTP handler with metrics
func (m *Metrics) InstrumentHandler(method, endpoint string, handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Create response writer wrapper to capture status code
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		handler(rw, r)

		m.RecordHTTPRequest(method, endpoint, rw.statusCode, time.Since(start))
	}
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
