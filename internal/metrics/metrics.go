// Package metrics exposes shell and carousel counters in Prometheus format.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors for one process. Methods are safe on a nil receiver.
type Metrics struct {
	registry *prometheus.Registry

	mounted     prometheus.Gauge
	mounts      prometheus.Counter
	unmounts    *prometheus.CounterVec
	modeChanges *prometheus.CounterVec
	navigations *prometheus.CounterVec
	streams     prometheus.Gauge
	coalesced   prometheus.Counter
}

// New registers the collectors on a private registry, plus the Go and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		mounted: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "artifacts", Subsystem: "shell", Name: "mounted",
			Help: "Shells currently mounted.",
		}),
		mounts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "artifacts", Subsystem: "shell", Name: "mounts_total",
			Help: "Shells mounted since start.",
		}),
		unmounts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "artifacts", Subsystem: "shell", Name: "unmounts_total",
			Help: "Shells unmounted, by reason.",
		}, []string{"reason"}),
		modeChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "artifacts", Subsystem: "viewport", Name: "mode_changes_total",
			Help: "Viewport mode switches, by the mode entered.",
		}, []string{"mode"}),
		navigations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "artifacts", Subsystem: "carousel", Name: "navigations_total",
			Help: "Carousel navigation requests, by action and mode.",
		}, []string{"action", "mode"}),
		streams: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "artifacts", Subsystem: "shell", Name: "streams",
			Help: "Open update streams.",
		}),
		coalesced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "artifacts", Subsystem: "shell", Name: "coalesced_updates_total",
			Help: "Controller changes folded into an already pending stream write.",
		}),
	}
	reg.MustRegister(
		m.mounted, m.mounts, m.unmounts, m.modeChanges, m.navigations, m.streams, m.coalesced,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry for tests and extra collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) Mounted() {
	if m == nil {
		return
	}
	m.mounts.Inc()
	m.mounted.Inc()
}

func (m *Metrics) Unmounted(reason string) {
	if m == nil {
		return
	}
	m.unmounts.WithLabelValues(reason).Inc()
	m.mounted.Dec()
}

func (m *Metrics) ModeChanged(mode string) {
	if m == nil {
		return
	}
	m.modeChanges.WithLabelValues(mode).Inc()
}

func (m *Metrics) Navigated(action, mode string) {
	if m == nil {
		return
	}
	m.navigations.WithLabelValues(action, mode).Inc()
}

func (m *Metrics) StreamOpened() {
	if m == nil {
		return
	}
	m.streams.Inc()
}

func (m *Metrics) StreamClosed() {
	if m == nil {
		return
	}
	m.streams.Dec()
}

func (m *Metrics) UpdateCoalesced() {
	if m == nil {
		return
	}
	m.coalesced.Inc()
}
