package observability

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics stores Prometheus collectors used by API and intake flows.
type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	eventsReceivedTotal *prometheus.CounterVec
	classifiedTotal     *prometheus.CounterVec
	classifyDuration    prometheus.Histogram
	classifyFailures    prometheus.Counter
	summaryRefreshes    prometheus.Counter
	digestFallbacks     prometheus.Counter
	retentionDeleted    prometheus.Counter
	workerInflight      prometheus.Gauge
}

func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "notifa_engine",
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests processed by method, path, and status.",
			},
			[]string{"method", "path", "status"},
		),
		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "notifa_engine",
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds by method and path.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		eventsReceivedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "notifa_engine",
				Name:      "events_received_total",
				Help:      "Total number of intake events processed by routing decision.",
			},
			[]string{"decision"},
		),
		classifiedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "notifa_engine",
				Name:      "notifications_classified_total",
				Help:      "Total number of notifications classified by resulting priority.",
			},
			[]string{"priority"},
		),
		classifyDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "notifa_engine",
				Name:      "classify_duration_seconds",
				Help:      "Classification call duration in seconds.",
				Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
			},
		),
		classifyFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "notifa_engine",
				Name:      "classify_failures_total",
				Help:      "Total number of classification calls that failed and fell back to IMPORTANT.",
			},
		),
		summaryRefreshes: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "notifa_engine",
				Name:      "summary_refreshes_total",
				Help:      "Total number of sticky summary rebuilds.",
			},
		),
		digestFallbacks: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "notifa_engine",
				Name:      "digest_fallbacks_total",
				Help:      "Total number of digests built from the deterministic fallback.",
			},
		),
		retentionDeleted: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "notifa_engine",
				Name:      "retention_deleted_total",
				Help:      "Total number of notifications removed by retention cleanup.",
			},
		),
		workerInflight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "notifa_engine",
				Name:      "worker_inflight",
				Help:      "Current number of in-flight intake workers.",
			},
		),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.eventsReceivedTotal,
		m.classifiedTotal,
		m.classifyDuration,
		m.classifyFailures,
		m.summaryRefreshes,
		m.digestFallbacks,
		m.retentionDeleted,
		m.workerInflight,
	)

	return m
}

func (m *Metrics) Handler() http.Handler {
	if m == nil || m.registry == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) HTTPMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		path := routePath(c)
		// Avoid self-scrape noise for request counters.
		if path == "/metrics" {
			return err
		}

		m.recordHTTPRequest(c.Method(), path, statusFromResult(c, err), time.Since(start))
		return err
	}
}

func (m *Metrics) IncEventReceived(decision string) {
	if m == nil {
		return
	}
	m.eventsReceivedTotal.WithLabelValues(normalizeLabel(decision)).Inc()
}

func (m *Metrics) IncClassified(priority string) {
	if m == nil {
		return
	}
	m.classifiedTotal.WithLabelValues(normalizeLabel(priority)).Inc()
}

func (m *Metrics) ObserveClassifyDuration(duration time.Duration) {
	if m == nil {
		return
	}
	seconds := duration.Seconds()
	if seconds < 0 {
		seconds = 0
	}
	m.classifyDuration.Observe(seconds)
}

func (m *Metrics) IncClassifyFailure() {
	if m == nil {
		return
	}
	m.classifyFailures.Inc()
}

func (m *Metrics) IncSummaryRefresh() {
	if m == nil {
		return
	}
	m.summaryRefreshes.Inc()
}

func (m *Metrics) IncDigestFallback() {
	if m == nil {
		return
	}
	m.digestFallbacks.Inc()
}

func (m *Metrics) AddRetentionDeleted(count int64) {
	if m == nil || count <= 0 {
		return
	}
	m.retentionDeleted.Add(float64(count))
}

func (m *Metrics) IncWorkerInFlight() {
	if m == nil {
		return
	}
	m.workerInflight.Inc()
}

func (m *Metrics) DecWorkerInFlight() {
	if m == nil {
		return
	}
	m.workerInflight.Dec()
}

func (m *Metrics) recordHTTPRequest(method string, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}

	methodLabel := strings.ToUpper(strings.TrimSpace(method))
	if methodLabel == "" {
		methodLabel = "UNKNOWN"
	}
	pathLabel := strings.TrimSpace(path)
	if pathLabel == "" {
		pathLabel = "unmatched"
	}

	m.httpRequestsTotal.WithLabelValues(methodLabel, pathLabel, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(methodLabel, pathLabel).Observe(duration.Seconds())
}

func routePath(c *fiber.Ctx) string {
	if c == nil {
		return "unmatched"
	}

	if route := c.Route(); route != nil {
		if path := strings.TrimSpace(route.Path); path != "" {
			return path
		}
	}
	return "unmatched"
}

func statusFromResult(c *fiber.Ctx, err error) int {
	if err != nil {
		if fiberErr, ok := err.(*fiber.Error); ok {
			return fiberErr.Code
		}
		return fiber.StatusInternalServerError
	}

	if c == nil {
		return fiber.StatusOK
	}

	status := c.Response().StatusCode()
	if status == 0 {
		return fiber.StatusOK
	}
	return status
}

func normalizeLabel(value string) string {
	normalized := strings.ToLower(strings.TrimSpace(value))
	if normalized == "" {
		return "unknown"
	}
	return normalized
}
