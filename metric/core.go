package metric

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics contains all platform-level metrics (not algorithm-specific)
type Metrics struct {
	// Process metrics
	ProcessExecutions    *prometheus.CounterVec
	ProcessFailures      *prometheus.CounterVec
	PermissionViolations *prometheus.CounterVec

	// Runner metrics
	RunnerState  *prometheus.GaugeVec
	RunnerTicks  *prometheus.CounterVec
	TickDuration *prometheus.HistogramVec
}

// NewMetrics creates a new Metrics instance with all platform metrics
func NewMetrics() *Metrics {
	return &Metrics{
		ProcessExecutions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "aifand",
				Subsystem: "process",
				Name:      "executions_total",
				Help:      "Total number of process executions",
			},
			[]string{"process"},
		),

		ProcessFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "aifand",
				Subsystem: "process",
				Name:      "failures_total",
				Help:      "Total number of operational failures absorbed at the process boundary",
			},
			[]string{"process"},
		),

		PermissionViolations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "aifand",
				Subsystem: "process",
				Name:      "permission_violations_total",
				Help:      "Total number of permission violations raised by the arbiter",
			},
			[]string{"process"},
		),

		RunnerState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "aifand",
				Subsystem: "runner",
				Name:      "state",
				Help:      "Runner lifecycle state (0=created, 1=running, 2=stopping, 3=stopped)",
			},
			[]string{"runner"},
		),

		RunnerTicks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "aifand",
				Subsystem: "runner",
				Name:      "ticks_total",
				Help:      "Total number of root process invocations",
			},
			[]string{"runner"},
		),

		TickDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "aifand",
				Subsystem: "runner",
				Name:      "tick_duration_seconds",
				Help:      "Root process execution duration in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
			},
			[]string{"runner"},
		),
	}
}

// collectors returns all core metrics for registration
func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.ProcessExecutions,
		m.ProcessFailures,
		m.PermissionViolations,
		m.RunnerState,
		m.RunnerTicks,
		m.TickDuration,
	}
}
