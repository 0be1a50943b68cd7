package obs

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service's Prometheus collectors.
// It satisfies search.Metrics.
type Metrics struct {
	CatalogCalls        *prometheus.CounterVec
	CatalogLatency      *prometheus.HistogramVec
	SupersededTotal     *prometheus.CounterVec
	StatusTransitions   *prometheus.CounterVec
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	Sessions            prometheus.Gauge
	RateLimitDropsTotal prometheus.Counter

	registry *prometheus.Registry
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		CatalogCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "catalog_calls_total",
			Help: "Catalog calls by operation and outcome",
		}, []string{"op", "outcome"}),
		CatalogLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "catalog_call_duration_seconds",
			Help:    "Latency of catalog calls",
			Buckets: prometheus.DefBuckets,
		}, []string{"op", "outcome"}),
		SupersededTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "search_superseded_total",
			Help: "Catalog responses discarded because a newer request was issued",
		}, []string{"op"}),
		StatusTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "search_status_transitions_total",
			Help: "Search status changes by resulting status",
		}, []string{"status"}),
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests",
		}, []string{"method", "path", "status"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
		Sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "search_sessions",
			Help: "Live search sessions",
		}),
		RateLimitDropsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "search_ratelimit_drops_total",
			Help: "Submissions refused by rate limiting",
		}),
		registry: reg,
	}

	reg.MustRegister(
		m.CatalogCalls,
		m.CatalogLatency,
		m.SupersededTotal,
		m.StatusTransitions,
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.Sessions,
		m.RateLimitDropsTotal,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

func (m *Metrics) ObserveCatalogCall(op, outcome string, seconds float64) {
	m.CatalogCalls.WithLabelValues(op, outcome).Inc()
	m.CatalogLatency.WithLabelValues(op, outcome).Observe(seconds)
}

func (m *Metrics) IncSuperseded(op string) { m.SupersededTotal.WithLabelValues(op).Inc() }

func (m *Metrics) IncStatus(kind string) { m.StatusTransitions.WithLabelValues(kind).Inc() }

func (m *Metrics) SetSessions(n int) { m.Sessions.Set(float64(n)) }

func (m *Metrics) IncRateLimitDrops() { m.RateLimitDropsTotal.Inc() }

func (m *Metrics) ObserveHTTPRequest(method, path, status string, seconds float64) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path, status).Observe(seconds)
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// HealthHandler returns a handler for /healthz requests.
func HealthHandler(logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			logger.Error("failed to write health response", "error", err)
		}
	}
}
