// Package metrics exposes Prometheus counters and gauges for a
// debugger session. Each Metrics owns a private prometheus.Registry
// rather than the global default, so a test can spin up as many
// instances as it likes without collector collisions.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors a controller updates as it
// drives a debug session.
type Metrics struct {
	commandsTotal  *prometheus.CounterVec
	breaksTotal    prometheus.Counter
	stepsTotal     *prometheus.CounterVec
	watchesTotal   prometheus.Counter
	detachesTotal  prometheus.Counter
	activeSessions prometheus.Gauge

	registry *prometheus.Registry
}

// Config names the collectors' namespace/subsystem.
type Config struct {
	Namespace string
	Subsystem string
}

func DefaultConfig() Config {
	return Config{Namespace: "rdb", Subsystem: "session"}
}

// New creates and registers the debugger's metrics collectors.
func New(config Config) *Metrics {
	if config.Namespace == "" {
		config = DefaultConfig()
	}

	registry := prometheus.NewRegistry()
	m := &Metrics{registry: registry}

	m.commandsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: config.Namespace,
			Subsystem: config.Subsystem,
			Name:      "commands_total",
			Help:      "Total number of commands sent to a debuggee, by command kind.",
		},
		[]string{"kind"},
	)
	m.breaksTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: config.Namespace,
		Subsystem: config.Subsystem,
		Name:      "breaks_total",
		Help:      "Total number of BR events raised by debuggees.",
	})
	m.stepsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: config.Namespace,
			Subsystem: config.Subsystem,
			Name:      "steps_total",
			Help:      "Total number of step/over/run/finish resume commands issued, by mode.",
		},
		[]string{"mode"},
	)
	m.watchesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: config.Namespace,
		Subsystem: config.Subsystem,
		Name:      "watches_total",
		Help:      "Total number of WATCH commands issued.",
	})
	m.detachesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: config.Namespace,
		Subsystem: config.Subsystem,
		Name:      "detaches_total",
		Help:      "Total number of debuggee detach events recorded by the controller on QT; a connection lost to an I/O error is not counted.",
	})
	m.activeSessions = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: config.Namespace,
		Subsystem: config.Subsystem,
		Name:      "active_sessions",
		Help:      "Number of debuggee connections currently attached.",
	})

	registry.MustRegister(
		m.commandsTotal,
		m.breaksTotal,
		m.stepsTotal,
		m.watchesTotal,
		m.detachesTotal,
		m.activeSessions,
	)
	return m
}

// RecordCommand counts a command dispatched to a debuggee by kind,
// e.g. "ll", "w", "sb".
func (m *Metrics) RecordCommand(kind string) {
	m.commandsTotal.WithLabelValues(kind).Inc()
}

// RecordBreak counts a BR event.
func (m *Metrics) RecordBreak() { m.breaksTotal.Inc() }

// RecordStep counts a resume command by mode label. The controller
// passes the command's wire word: "s", "o", "r" or "f".
func (m *Metrics) RecordStep(mode string) {
	m.stepsTotal.WithLabelValues(mode).Inc()
}

// RecordWatch counts a WATCH command.
func (m *Metrics) RecordWatch() { m.watchesTotal.Inc() }

// RecordDetach counts a debuggee detach.
func (m *Metrics) RecordDetach() { m.detachesTotal.Inc() }

// SessionAttached/SessionDetached track the active-sessions gauge.
func (m *Metrics) SessionAttached() { m.activeSessions.Inc() }
func (m *Metrics) SessionDetached() { m.activeSessions.Dec() }

// Handler returns an HTTP handler for the controller's optional
// /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

// Registry exposes the underlying Prometheus registry for tests that
// want to inspect collected samples directly.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }
