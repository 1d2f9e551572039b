package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "setuphub"

// Metrics holds the Prometheus collectors exported at /metrics.
// All record methods are safe on a nil receiver.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
	authResolved *prometheus.CounterVec
	starToggles  *prometheus.CounterVec
	setupSyncs   prometheus.Counter
	maintenance  *prometheus.CounterVec
}

// NewMetrics registers all collectors on a fresh registry
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: reg,
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		authResolved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_resolutions_total",
			Help:      "Auth resolutions by credential method; method is \"none\" when nothing resolved.",
		}, []string{"method"}),
		starToggles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "star_toggles_total",
			Help:      "Star toggles by outcome.",
		}, []string{"outcome"}),
		setupSyncs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "setup_syncs_total",
			Help:      "Successful setup syncs.",
		}),
		maintenance: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "maintenance_rows_total",
			Help:      "Rows touched by maintenance jobs.",
		}, []string{"job"}),
	}

	reg.MustRegister(m.httpRequests, m.httpDuration, m.authResolved, m.starToggles, m.setupSyncs, m.maintenance)
	return m
}

// Registry exposes the underlying registry, mainly for tests
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordHTTPRequest records one finished request
func (m *Metrics) RecordHTTPRequest(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// RecordAuth records how a request was authenticated
func (m *Metrics) RecordAuth(method string) {
	if m == nil {
		return
	}
	if method == "" {
		method = "none"
	}
	m.authResolved.WithLabelValues(method).Inc()
}

// RecordStarToggle records a toggle outcome: starred, unstarred, or failed
func (m *Metrics) RecordStarToggle(outcome string) {
	if m == nil {
		return
	}
	m.starToggles.WithLabelValues(outcome).Inc()
}

// RecordSetupSync counts a successful sync
func (m *Metrics) RecordSetupSync() {
	if m == nil {
		return
	}
	m.setupSyncs.Inc()
}

// RecordMaintenance adds rows touched by a maintenance job
func (m *Metrics) RecordMaintenance(job string, rows int64) {
	if m == nil || rows <= 0 {
		return
	}
	m.maintenance.WithLabelValues(job).Add(float64(rows))
}
