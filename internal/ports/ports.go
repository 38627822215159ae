// Package ports defines the interfaces through which the statistics core
// is consumed and observed. Implementations live under infrastructure/.
package ports

import (
	"time"

	"github.com/ptlab/ptstat/internal/domain"
)

// Estimator produces a robust location/scale estimate from a sequence of
// participant results. The canonical implementation is Algorithm A;
// middleware may wrap an Estimator to add metrics or tracing without
// touching the numerical contract.
type Estimator interface {
	// Estimate runs the robust estimation over the given results.
	// The input slice is never mutated. Implementations must be
	// deterministic: identical inputs produce identical outputs.
	Estimate(results []float64) (domain.RobustEstimate, error)
}

// MetricsCollector defines the interface for collecting operational
// metrics. Implementations should integrate with observability platforms
// like Prometheus or OpenTelemetry.
type MetricsCollector interface {
	// RecordLatency records the execution time of an operation.
	// The labels map provides additional context for the metric.
	RecordLatency(operation string, duration time.Duration, labels map[string]string)

	// RecordCounter increments a counter metric.
	// This is useful for tracking events like convergence failures.
	RecordCounter(metric string, value float64, labels map[string]string)

	// RecordGauge sets the current value of a gauge metric.
	RecordGauge(metric string, value float64, labels map[string]string)

	// RecordHistogram records a value in a histogram.
	// This is useful for tracking distributions like iteration counts.
	RecordHistogram(metric string, value float64, labels map[string]string)
}
