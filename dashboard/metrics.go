package dashboard

import (
	"net/http"
	"time"

	"healthdash/warehouse"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the dashboard's Prometheus collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	queryDuration *prometheus.HistogramVec
	queryErrors   *prometheus.CounterVec
	queryEmpty    *prometheus.CounterVec
	pageViews     *prometheus.CounterVec
}

// NewMetrics creates and registers the collectors.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		queryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "healthdash",
			Name:      "query_duration_seconds",
			Help:      "Catalog query latency including connection setup",
			Buckets:   prometheus.DefBuckets,
		}, []string{"query"}),
		queryErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "healthdash",
			Name:      "query_errors_total",
			Help:      "Catalog queries that failed",
		}, []string{"query"}),
		queryEmpty: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "healthdash",
			Name:      "query_empty_total",
			Help:      "Catalog queries that returned no rows",
		}, []string{"query"}),
		pageViews: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "healthdash",
			Name:      "page_views_total",
			Help:      "Dashboard page renders by view",
		}, []string{"view"}),
	}

	registry.MustRegister(m.queryDuration, m.queryErrors, m.queryEmpty, m.pageViews)
	registry.MustRegister(prometheus.NewGoCollector())
	return m
}

// ObserveQuery records one executor call.
func (m *Metrics) ObserveQuery(name warehouse.QueryName, elapsed time.Duration, rows int, err error) {
	m.queryDuration.WithLabelValues(string(name)).Observe(elapsed.Seconds())
	switch {
	case err != nil:
		m.queryErrors.WithLabelValues(string(name)).Inc()
	case rows == 0:
		m.queryEmpty.WithLabelValues(string(name)).Inc()
	}
}

func (m *Metrics) pageView(v View) {
	m.pageViews.WithLabelValues(v.String()).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}
