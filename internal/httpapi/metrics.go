package httpapi

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a private registry so several handlers (tests) can coexist.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequests *prometheus.CounterVec
	AppErrors    *prometheus.CounterVec
	Sources      *prometheus.CounterVec
	Nodes        prometheus.Gauge
	RateLimit    *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "subagg",
				Name:      "http_requests_total",
				Help:      "HTTP requests by route pattern and status.",
			},
			[]string{"pattern", "status"},
		),
		AppErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "subagg",
				Name:      "app_errors_total",
				Help:      "Application errors returned to clients.",
			},
			[]string{"stage", "code"},
		),
		Sources: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "subagg",
				Name:      "sources_total",
				Help:      "Source references processed, by outcome.",
			},
			[]string{"outcome"},
		),
		Nodes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "subagg",
			Name:      "nodes",
			Help:      "Node count of the last aggregate served.",
		}),
		RateLimit: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "subagg",
				Name:      "rate_limit_total",
				Help:      "Rate limiter decisions.",
			},
			[]string{"decision"},
		),
	}
	m.registry.MustRegister(m.HTTPRequests, m.AppErrors, m.Sources, m.Nodes, m.RateLimit)
	return m
}

// ObserveSource matches aggregate.Options.Observe.
func (m *Metrics) ObserveSource(outcome string) {
	m.Sources.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
