// Package metrics exposes the console's Prometheus collectors.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "eduvision"

type Metrics struct {
	reg        *prometheus.Registry
	apiCalls   *prometheus.CounterVec
	apiLatency *prometheus.HistogramVec
	requests   *prometheus.CounterVec
	apps       prometheus.Gauge
}

// New builds a private registry with the Go and process collectors plus the
// console's own series.
func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		apiCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "crmapi",
			Name:      "calls_total",
			Help:      "CRM API calls by operation and outcome.",
		}, []string{"op", "outcome"}),
		apiLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "crmapi",
			Name:      "call_duration_seconds",
			Help:      "CRM API call latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Console HTTP requests by route pattern and status.",
		}, []string{"method", "route", "status"}),
		apps: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_apps",
			Help:      "Console instances held in memory.",
		}),
	}
	m.reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.apiCalls, m.apiLatency, m.requests, m.apps,
	)
	return m
}

// ObserveCall records one CRM API call.
func (m *Metrics) ObserveCall(op, outcome string, elapsed time.Duration) {
	m.apiCalls.WithLabelValues(op, outcome).Inc()
	m.apiLatency.WithLabelValues(op).Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveRequest(method, route string, status int) {
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
}

func (m *Metrics) SetActiveApps(n int) {
	m.apps.Set(float64(n))
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}
