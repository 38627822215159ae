package stats

import (
	"fmt"
	"math"

	"github.com/ptlab/ptstat/internal/domain"
	"github.com/ptlab/ptstat/internal/ports"
)

var _ ports.Estimator = (*AlgorithmA)(nil)

// AlgorithmAConfig holds the iteration parameters for Algorithm A.
// All fields are validated during construction; the configuration is
// immutable afterwards so the estimator is safe for concurrent use.
type AlgorithmAConfig struct {
	// Tolerance is the convergence criterion: iteration stops once both
	// the location and the scale move by less than this amount.
	Tolerance float64 `yaml:"tolerance" json:"tolerance" validate:"required,gt=0"`

	// MaxIterations bounds the number of reweighting passes exactly.
	// Exhausting it is a hard failure, never a silent truncation.
	MaxIterations int `yaml:"max_iterations" json:"max_iterations" validate:"required,gt=0"`
}

// DefaultAlgorithmAConfig returns the iteration parameters recommended
// for direct library use: tolerance 1e-6 with a budget of 100 passes.
func DefaultAlgorithmAConfig() AlgorithmAConfig {
	return AlgorithmAConfig{
		Tolerance:     DefaultTolerance,
		MaxIterations: DefaultMaxIterations,
	}
}

// AlgorithmA is the iteratively reweighted robust estimator of location
// (x*) and scale (s*) from ISO 13528:2022 Annex C. It down-weights
// outlying results through Huber's ψ-function instead of rejecting them
// outright.
//
// Concurrency: the estimator is stateless between calls and safe for
// concurrent use. Every call is fully self-contained; nothing is cached
// or shared across invocations.
type AlgorithmA struct {
	config AlgorithmAConfig
}

// NewAlgorithmA creates an estimator with the given iteration parameters.
// It returns an error if the configuration violates its constraints or
// the tolerance is non-finite.
func NewAlgorithmA(config AlgorithmAConfig) (*AlgorithmA, error) {
	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	if math.IsInf(config.Tolerance, 0) {
		return nil, domain.NewInvalidInputError("invalid tolerance: %v", config.Tolerance)
	}
	return &AlgorithmA{config: config}, nil
}

// Estimate runs Algorithm A over the participant results and returns the
// converged robust estimate. The input slice is never mutated.
//
// Preconditions, each reported as a distinct failure:
//   - fewer than 5 results: InsufficientDataError
//   - any non-finite result: InvalidInputError
//
// The iteration starts from x* = median, s* = 1.4826·MAD and repeats the
// Huber reweighting update until both estimates move by less than the
// configured tolerance. Exhausting the iteration budget yields a
// NonConvergenceError; a degenerate weight sum yields a MathematicalError.
func (a *AlgorithmA) Estimate(results []float64) (domain.RobustEstimate, error) {
	if len(results) < minParticipants {
		return domain.RobustEstimate{}, domain.NewInsufficientDataError(minParticipants, len(results))
	}
	if err := validFloats(results, "participant results"); err != nil {
		return domain.RobustEstimate{}, err
	}

	xStar, ok := Median(results)
	if !ok {
		return domain.RobustEstimate{}, &domain.InternalError{Message: "median of non-empty results unavailable"}
	}
	initialMAD, err := MAD(results, xStar)
	if err != nil {
		return domain.RobustEstimate{}, err
	}
	sStar := initialMAD * madToSigma
	if sStar < minScale {
		sStar = minScale
	}

	// The limit check precedes each pass, so MaxIterations bounds the
	// number of reweighting passes exactly.
	iteration := 0
	for {
		if iteration >= a.config.MaxIterations {
			return domain.RobustEstimate{}, &domain.NonConvergenceError{MaxIterations: a.config.MaxIterations}
		}

		xOld, sOld := xStar, sStar

		var sumWeights, sumWeightedValues, sumWeightedSqResiduals float64
		for _, v := range results {
			w := huberWeight((v - xStar) / sStar)
			sumWeights += w
			sumWeightedValues += w * v
			sumWeightedSqResiduals += w * (v - xStar) * (v - xStar)
		}

		// Finite data cannot push the weight sum to zero, but the
		// invariant is guarded explicitly.
		if sumWeights <= 0 {
			return domain.RobustEstimate{}, &domain.MathematicalError{Message: "sum of weights is zero or negative"}
		}

		xStar = sumWeightedValues / sumWeights
		sStar = math.Sqrt(sumWeightedSqResiduals / sumWeights)
		if sStar < minScale {
			sStar = minScale
		}

		if math.Abs(xStar-xOld) < a.config.Tolerance && math.Abs(sStar-sOld) < a.config.Tolerance {
			break
		}
		iteration++
	}

	// Recompute the per-value weights at the converged estimates and
	// count the results the robust procedure effectively kept.
	participantsUsed := 0
	for _, v := range results {
		if huberWeight((v-xStar)/sStar) > weightFloor {
			participantsUsed++
		}
	}

	return domain.RobustEstimate{
		XPt:              xStar,
		SStar:            sStar,
		ParticipantsUsed: participantsUsed,
		Iterations:       iteration,
	}, nil
}
