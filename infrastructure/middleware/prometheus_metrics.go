// Package middleware provides cross-cutting concerns for the statistics
// engine: metrics collection, estimator instrumentation, and tracing.
package middleware

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ptlab/ptstat/internal/ports"
)

var _ ports.MetricsCollector = (*PrometheusMetrics)(nil)

// PrometheusMetrics implements the MetricsCollector interface using
// Prometheus. It provides monitoring of round analyses, estimator
// convergence behavior, and execution latency.
type PrometheusMetrics struct {
	executionLatency   *prometheus.HistogramVec
	operationCounter   *prometheus.CounterVec
	valueDistributions *prometheus.HistogramVec
	systemGauges       *prometheus.GaugeVec
}

// NewPrometheusMetrics creates a new PrometheusMetrics instance and
// registers all required metrics in the global Prometheus registry.
func NewPrometheusMetrics() *PrometheusMetrics {
	return &PrometheusMetrics{
		executionLatency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ptstat_operation_duration_seconds",
				Help:    "Execution time of statistics engine operations.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation", "analyte"},
		),
		operationCounter: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ptstat_operations_total",
				Help: "Total number of statistics engine operations by outcome.",
			},
			[]string{"operation", "status", "analyte"},
		),
		valueDistributions: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ptstat_value_distribution",
				Help:    "Distributions of engine quantities such as iteration counts.",
				Buckets: prometheus.ExponentialBuckets(1, 2, 10),
			},
			[]string{"metric", "analyte"},
		),
		systemGauges: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "ptstat_system_state",
				Help: "Current state values for the statistics engine.",
			},
			[]string{"metric", "analyte"},
		),
	}
}

// RecordLatency implements the MetricsCollector interface by recording
// execution latency in a Prometheus histogram.
func (pm *PrometheusMetrics) RecordLatency(
	operation string, duration time.Duration, labels map[string]string,
) {
	pm.executionLatency.WithLabelValues(operation, analyteLabel(labels)).Observe(duration.Seconds())
}

// RecordCounter implements the MetricsCollector interface by incrementing
// Prometheus counters.
func (pm *PrometheusMetrics) RecordCounter(
	metric string, value float64, labels map[string]string,
) {
	status, ok := labels["status"]
	if !ok {
		status = "unknown"
	}
	pm.operationCounter.WithLabelValues(metric, status, analyteLabel(labels)).Add(value)
}

// RecordGauge implements the MetricsCollector interface by setting
// Prometheus gauges.
func (pm *PrometheusMetrics) RecordGauge(
	metric string, value float64, labels map[string]string,
) {
	pm.systemGauges.WithLabelValues(metric, analyteLabel(labels)).Set(value)
}

// RecordHistogram implements the MetricsCollector interface by observing
// values in a Prometheus histogram.
func (pm *PrometheusMetrics) RecordHistogram(
	metric string, value float64, labels map[string]string,
) {
	pm.valueDistributions.WithLabelValues(metric, analyteLabel(labels)).Observe(value)
}

func analyteLabel(labels map[string]string) string {
	analyte, ok := labels["analyte"]
	if !ok {
		return "unknown"
	}
	return analyte
}
