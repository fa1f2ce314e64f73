// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "crashdump"

// Metrics records invocation counters for a runner.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	Invocations *prometheus.CounterVec
	Duration    prometheus.Histogram
	InFlight    prometheus.Gauge
}

// NewMetrics creates the runner metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Invocations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "invocations_total",
			Help:      "Number of remote or local invocations by final status.",
		}, []string{"status"}),
		Duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "invocation_duration_seconds",
			Help:      "Wall clock duration of invocations.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 45, 90, 300},
		}),
		InFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "invocations_in_flight",
			Help:      "Number of invocations started and not yet reaped.",
		}),
	}

	if reg != nil {
		reg.MustRegister(m.Invocations, m.Duration, m.InFlight)
	}

	return m
}

func (m *Metrics) started() {
	if m == nil {
		return
	}

	m.InFlight.Inc()
}

func (m *Metrics) finished(res *Result, launched bool) {
	if m == nil {
		return
	}

	if launched {
		m.InFlight.Dec()
		m.Duration.Observe(res.Duration.Seconds())
	}

	m.Invocations.WithLabelValues(res.Status.String()).Inc()
}
