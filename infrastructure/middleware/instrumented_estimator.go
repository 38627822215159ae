package middleware

import (
	"errors"
	"time"

	"github.com/ptlab/ptstat/internal/domain"
	"github.com/ptlab/ptstat/internal/ports"
)

var _ ports.Estimator = (*InstrumentedEstimator)(nil)

// InstrumentedEstimator wraps an Estimator and records latency, outcome
// counters, and convergence statistics through a MetricsCollector. The
// numerical contract of the wrapped estimator is untouched.
type InstrumentedEstimator struct {
	next    ports.Estimator
	metrics ports.MetricsCollector
	analyte string
}

// NewInstrumentedEstimator wraps next so every Estimate call is observed
// under the given analyte label.
func NewInstrumentedEstimator(next ports.Estimator, metrics ports.MetricsCollector, analyte string) *InstrumentedEstimator {
	return &InstrumentedEstimator{next: next, metrics: metrics, analyte: analyte}
}

// Estimate implements ports.Estimator. It delegates to the wrapped
// estimator and records the duration, the outcome, and on success the
// iteration count and participants kept.
func (ie *InstrumentedEstimator) Estimate(results []float64) (domain.RobustEstimate, error) {
	start := time.Now()
	estimate, err := ie.next.Estimate(results)
	elapsed := time.Since(start)

	labels := map[string]string{"analyte": ie.analyte}
	ie.metrics.RecordLatency("algorithm_a_estimate", elapsed, labels)

	labels["status"] = outcomeStatus(err)
	ie.metrics.RecordCounter("algorithm_a_estimates_total", 1, labels)

	if err == nil {
		ie.metrics.RecordHistogram("algorithm_a_iterations", float64(estimate.Iterations), labels)
		ie.metrics.RecordGauge("algorithm_a_participants_used", float64(estimate.ParticipantsUsed), labels)
	}
	return estimate, err
}

// outcomeStatus folds the error taxonomy into a low-cardinality metric
// label.
func outcomeStatus(err error) string {
	if err == nil {
		return "success"
	}
	var nonConvErr *domain.NonConvergenceError
	if errors.As(err, &nonConvErr) {
		return "non_convergence"
	}
	var insufficientErr *domain.InsufficientDataError
	if errors.As(err, &insufficientErr) {
		return "insufficient_data"
	}
	var invalidErr *domain.InvalidInputError
	if errors.As(err, &invalidErr) {
		return "invalid_input"
	}
	return "error"
}
