package clock

import (
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// MetricsCollector defines the interface for collecting clock metrics
type MetricsCollector interface {
	SetActiveEngines(n int)
	RecordTick()
	RecordTransition(event EventType)
	RecordCommand(command string, err error)
}

// NoOpMetricsCollector is a no-op implementation for when metrics aren't needed
type NoOpMetricsCollector struct{}

func (NoOpMetricsCollector) SetActiveEngines(n int)                  {}
func (NoOpMetricsCollector) RecordTick()                             {}
func (NoOpMetricsCollector) RecordTransition(event EventType)        {}
func (NoOpMetricsCollector) RecordCommand(command string, err error) {}

// PrometheusMetrics implements MetricsCollector using Prometheus
type PrometheusMetrics struct {
	activeEngines prometheus.Gauge
	ticks         prometheus.Counter
	transitions   *prometheus.CounterVec
	commands      *prometheus.CounterVec
}

// NewPrometheusMetrics creates the clock collectors and registers them with reg.
func NewPrometheusMetrics(reg prometheus.Registerer) (*PrometheusMetrics, error) {
	m := &PrometheusMetrics{
		activeEngines: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "clock",
			Name:      "active_engines",
			Help:      "Number of tournament clocks currently running.",
		}),
		ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "clock",
			Name:      "ticks_total",
			Help:      "Ticks applied across all tournament clocks.",
		}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clock",
			Name:      "transitions_total",
			Help:      "Clock state transitions by kind.",
		}, []string{"kind"}),
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clock",
			Name:      "commands_total",
			Help:      "Operator commands by command and result.",
		}, []string{"command", "result"}),
	}

	for _, c := range []prometheus.Collector{m.activeEngines, m.ticks, m.transitions, m.commands} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register clock metrics: %w", err)
		}
	}
	return m, nil
}

func (m *PrometheusMetrics) SetActiveEngines(n int) {
	m.activeEngines.Set(float64(n))
}

func (m *PrometheusMetrics) RecordTick() {
	m.ticks.Inc()
}

func (m *PrometheusMetrics) RecordTransition(event EventType) {
	m.transitions.WithLabelValues(string(event)).Inc()
}

func (m *PrometheusMetrics) RecordCommand(command string, err error) {
	m.commands.WithLabelValues(command, commandResult(err)).Inc()
}

func commandResult(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNotActive):
		return "not_active"
	case errors.Is(err, ErrInvalidTransition):
		return "rejected"
	default:
		return "error"
	}
}
