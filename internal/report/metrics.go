package report

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/psantana5/ntlm-auth-wrap/internal/spawn"
)

// Metrics aggregates many Results. The shim itself never uses this:
// it lives for one invocation. Bench runs do.
type Metrics struct {
	registry *prometheus.Registry

	invocations *prometheus.CounterVec
	elapsed     prometheus.Histogram
	exitCodes   *prometheus.CounterVec
}

// NewMetrics creates metrics on a private registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		invocations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "authwrap_invocations_total",
				Help: "Wrapped helper invocations by outcome",
			},
			[]string{"outcome"},
		),
		elapsed: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "authwrap_elapsed_milliseconds",
				Help:    "Wall-clock time from spawn to reap, in milliseconds",
				Buckets: prometheus.ExponentialBuckets(0.5, 2, 14),
			},
		),
		exitCodes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "authwrap_exit_codes_total",
				Help: "Exit codes returned to the caller",
			},
			[]string{"code"},
		),
	}

	m.registry.MustRegister(m.invocations, m.elapsed, m.exitCodes)
	return m
}

// RecordResult updates all series from a single immutable Result.
func (m *Metrics) RecordResult(r *Result) {
	m.invocations.WithLabelValues(r.Outcome()).Inc()
	m.exitCodes.WithLabelValues(exitLabel(r.ExitCode)).Inc()

	// No child, no timing.
	if r.Failure == spawn.KindProcessCreation {
		return
	}
	m.elapsed.Observe(r.ElapsedMS)
}

// Gatherer exposes the private registry.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}

func exitLabel(code int) string {
	switch {
	case code == 0:
		return "0"
	case code == 1:
		return "1"
	case code > 128:
		return "signal"
	default:
		return "other"
	}
}
