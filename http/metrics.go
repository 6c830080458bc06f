package http

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsSource reports the live service state exported as gauges.
type MetricsSource interface {
	CounterValue() int64
	MonitorCount() int
	RunningMonitors() int
}

// Metrics holds the Prometheus registry served on /metrics.
type Metrics struct {
	registry *prometheus.Registry
	requests *prometheus.CounterVec
}

// NewMetrics registers the pitfall collectors on a fresh registry.
func NewMetrics(source MetricsSource) *Metrics {
	registry := prometheus.NewRegistry()

	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pitfall",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by route, method and status code.",
	}, []string{"route", "method", "status"})

	registry.MustRegister(
		requests,
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "pitfall",
			Name:      "counter_value",
			Help:      "Current value of the serialized counter.",
		}, func() float64 { return float64(source.CounterValue()) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "pitfall",
			Subsystem: "monitor",
			Name:      "tasks",
			Help:      "Monitor tasks ever started. Never decreases.",
		}, func() float64 { return float64(source.MonitorCount()) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "pitfall",
			Subsystem: "monitor",
			Name:      "running_tasks",
			Help:      "Monitor tasks still ticking.",
		}, func() float64 { return float64(source.RunningMonitors()) }),
	)

	return &Metrics{registry: registry, requests: requests}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Middleware counts requests by matched route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}

		m.requests.WithLabelValues(route, r.Method, strconv.Itoa(statusOrOK(ww.Status()))).Inc()
	})
}
