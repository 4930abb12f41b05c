package metrics

import (
	"net/http"
	"time"

	"github.com/airbrb/booking-client/internal/platform/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Poll outcomes used as the "result" label.
const (
	PollOK      = "ok"
	PollFailed  = "failed"
	PollSkipped = "skipped"
	PollStale   = "stale"
)

// MetricsManager holds the client's Prometheus metrics. All methods are safe
// on a nil receiver so callers can run without metrics.
type MetricsManager struct {
	Registry             *prometheus.Registry
	PollsTotal           *prometheus.CounterVec
	NotificationsTotal   *prometheus.CounterVec
	SinkErrorsTotal      *prometheus.CounterVec
	APIErrorsTotal       *prometheus.CounterVec
	APILatency           *prometheus.HistogramVec
	SnapshotBookingsSize prometheus.Gauge
}

// NewMetricsManager initializes and registers the metrics on a private registry.
func NewMetricsManager(namespace string) *MetricsManager {
	registry := prometheus.NewRegistry()

	m := &MetricsManager{
		Registry: registry,
		PollsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "polls_total",
			Help:      "Reconciliation polls by result.",
		}, []string{"result"}),
		NotificationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_emitted_total",
			Help:      "Notifications emitted by type.",
		}, []string{"type"}),
		SinkErrorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notification_sink_errors_total",
			Help:      "Failed deliveries to notification sinks.",
		}, []string{"sink"}),
		APIErrorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_errors_total",
			Help:      "Backend request errors by endpoint and kind.",
		}, []string{"endpoint", "error_type"}),
		APILatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "api_request_latency_seconds",
			Help:      "Latency of backend requests by endpoint.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"endpoint"}),
		SnapshotBookingsSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "snapshot_bookings",
			Help:      "Bookings in the current reconciliation snapshot.",
		}),
	}

	registry.MustRegister(
		m.PollsTotal,
		m.NotificationsTotal,
		m.SinkErrorsTotal,
		m.APIErrorsTotal,
		m.APILatency,
		m.SnapshotBookingsSize,
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveRequest records one backend call. errorType is empty on success.
func (m *MetricsManager) ObserveRequest(endpoint string, d time.Duration, errorType string) {
	if m == nil {
		return
	}
	m.APILatency.WithLabelValues(endpoint).Observe(d.Seconds())
	if errorType != "" {
		m.APIErrorsTotal.WithLabelValues(endpoint, errorType).Inc()
	}
}

// ObservePoll records the outcome of one reconciliation tick.
func (m *MetricsManager) ObservePoll(result string, snapshotSize int) {
	if m == nil {
		return
	}
	m.PollsTotal.WithLabelValues(result).Inc()
	if result == PollOK {
		m.SnapshotBookingsSize.Set(float64(snapshotSize))
	}
}

// ObserveNotification counts an emitted notification.
func (m *MetricsManager) ObserveNotification(kind string) {
	if m == nil {
		return
	}
	m.NotificationsTotal.WithLabelValues(kind).Inc()
}

// ObserveSinkError counts a failed sink delivery.
func (m *MetricsManager) ObserveSinkError(sink string) {
	if m == nil {
		return
	}
	m.SinkErrorsTotal.WithLabelValues(sink).Inc()
}

// NewMetricsServer returns an HTTP server exposing /metrics on port.
func NewMetricsServer(port string, appLogger *logger.Logger, registry *prometheus.Registry) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	appLogger.Info("Prometheus metrics server configured", zap.String("port", port), zap.String("path", "/metrics"))
	return &http.Server{
		Addr:              ":" + port,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
