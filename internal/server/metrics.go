package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Vashnak/Franz-manager-sub000/internal/cache"
)

const metricsNamespace = "franz_manager"

// Metrics holds the console's Prometheus collectors.
type Metrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	InvalidPatterns *prometheus.CounterVec
	AdminErrors     *prometheus.CounterVec
	SnapshotTopics  *prometheus.GaugeVec
	SnapshotGroups  *prometheus.GaugeVec
	SnapshotBrokers *prometheus.GaugeVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		RequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status code.",
		}, []string{"route", "method", "code"}),
		RequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		InvalidPatterns: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "invalid_filter_patterns_total",
			Help:      "Listing requests whose regular expression filter did not compile.",
		}, []string{"view"}),
		AdminErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "admin_errors_total",
			Help:      "Failed cluster admin operations.",
		}, []string{"cluster", "operation"}),
		SnapshotTopics: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "snapshot_topics",
			Help:      "Topics in the latest snapshot of a cluster.",
		}, []string{"cluster"}),
		SnapshotGroups: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "snapshot_consumer_groups",
			Help:      "Consumer groups in the latest snapshot of a cluster.",
		}, []string{"cluster"}),
		SnapshotBrokers: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "snapshot_brokers",
			Help:      "Brokers in the latest snapshot of a cluster.",
		}, []string{"cluster"}),
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}

func (m *Metrics) ObserveSnapshot(snap *cache.Snapshot) {
	if snap == nil {
		return
	}
	m.SnapshotTopics.WithLabelValues(snap.Cluster).Set(float64(len(snap.Topics)))
	m.SnapshotGroups.WithLabelValues(snap.Cluster).Set(float64(len(snap.Groups)))
	m.SnapshotBrokers.WithLabelValues(snap.Cluster).Set(float64(len(snap.Brokers)))
}

// Instrument records count and latency of requests served by h under route.
func (m *Metrics) Instrument(route string, h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

		h.ServeHTTP(rw, r)

		m.RequestsTotal.WithLabelValues(route, r.Method, strconv.Itoa(rw.statusCode)).Inc()
		m.RequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// statusRecorder wraps http.ResponseWriter to capture status code
type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (rw *statusRecorder) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *statusRecorder) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
