// Package metrics exposes reconciliation and routing counters to Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "registrar"

// Result label values.
const (
	ResultOK    = "ok"
	ResultError = "error"
	ResultNone  = "none"
)

// Metrics groups every collector of the registrar on its own registry.
type Metrics struct {
	registry *prometheus.Registry

	Ticks             *prometheus.CounterVec // result
	TickDuration      prometheus.Histogram
	Mutations         *prometheus.CounterVec // op, result
	DiscoveredServers prometheus.Gauge
	HubSelections     *prometheus.CounterVec // trigger, result
}

// New registers all collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,
		Ticks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconcile_ticks_total",
			Help:      "Reconciliation ticks by result.",
		}, []string{"result"}),
		TickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "reconcile_tick_duration_seconds",
			Help:      "Duration of a reconciliation tick.",
			Buckets:   prometheus.DefBuckets,
		}),
		Mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "registry_mutations_total",
			Help:      "Register and unregister calls by result.",
		}, []string{"op", "result"}),
		DiscoveredServers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "discovered_servers",
			Help:      "Backends found in the last inventory snapshot.",
		}),
		HubSelections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "hub_selections_total",
			Help:      "Hub selections by trigger and result.",
		}, []string{"trigger", "result"}),
	}

	reg.MustRegister(
		m.Ticks,
		m.TickDuration,
		m.Mutations,
		m.DiscoveredServers,
		m.HubSelections,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
