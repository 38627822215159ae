// Package stats implements the robust statistical procedures of
// ISO 13528:2022 for proficiency-testing schemes: the Algorithm A
// location/scale estimator, assigned-value derivation, uncertainty of the
// assigned value, and standardized performance scores.
package stats

import (
	"math"
	"sort"

	"github.com/go-playground/validator/v10"

	"github.com/ptlab/ptstat/internal/domain"
)

// Constants fixed by ISO 13528:2022 Annex C. Changing any of these
// silently alters conformance with the standard.
const (
	// madToSigma scales a MAD to a standard deviation estimate under
	// normality: 1/Φ⁻¹(3/4).
	madToSigma = 1.4826

	// huberC is Huber's standard tuning constant for the ψ-function.
	huberC = 1.5

	// minScale is the floor applied to s* to avoid degenerate division.
	minScale = 1e-10

	// zeroResidual is the threshold below which a standardized residual
	// is treated as exactly zero when forming ψ(r)/r weights.
	zeroResidual = 1e-10

	// weightFloor is the final weight above which a result counts as
	// included in participants_used.
	weightFloor = 0.1

	// minParticipants is the minimum number of results Algorithm A accepts.
	minParticipants = 5

	// uncertaintyFactor relates s* to the uncertainty of a consensus
	// assigned value: u(x_pt) = 1.25 s* / sqrt(p).
	uncertaintyFactor = 1.25
)

// Default iteration parameters for Algorithm A when the caller does not
// supply its own.
const (
	DefaultTolerance     = 1e-6
	DefaultMaxIterations = 100
)

// Package-level validator instance for configuration validation.
// Uses go-playground/validator v10 for struct tag-based validation.
var validate = validator.New()

// Median returns the median of values, or false for an empty input.
// It sorts a copy; the caller's slice is never reordered.
// Odd lengths return the middle element, even lengths the arithmetic
// mean of the two central elements.
func Median(values []float64) (float64, bool) {
	if len(values) == 0 {
		return 0, false
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2], true
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2, true
}

// MAD returns the median absolute deviation of values from center.
// The result still needs scaling by 1.4826 to estimate a standard
// deviation under normality.
func MAD(values []float64, center float64) (float64, error) {
	if len(values) == 0 {
		return 0, domain.NewInsufficientDataError(1, 0)
	}
	deviations := make([]float64, len(values))
	for i, v := range values {
		deviations[i] = math.Abs(v - center)
	}
	m, ok := Median(deviations)
	if !ok {
		return 0, &domain.InternalError{Message: "failed to calculate median of absolute deviations"}
	}
	return m, nil
}

// huberPsi is Huber's ψ-function: the identity inside [-c, c], clamped to
// ±c outside. It bounds the influence any single result can exert on the
// location and scale updates.
func huberPsi(x, c float64) float64 {
	if math.Abs(x) <= c {
		return x
	}
	if x < 0 {
		return -c
	}
	return c
}

// huberWeight is the standard M-estimator reweighting ψ(r)/r, with
// residuals inside zeroResidual treated as fully weighted to avoid 0/0
// at the center.
func huberWeight(standardizedResidual float64) float64 {
	if math.Abs(standardizedResidual) < zeroResidual {
		return 1.0
	}
	return huberPsi(standardizedResidual, huberC) / standardizedResidual
}

// validFloats returns an InvalidInputError naming the first non-finite
// element of values, or nil if all are finite.
func validFloats(values []float64, name string) error {
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return domain.NewInvalidInputError("%s contains invalid value at index %d: %v", name, i, v)
		}
	}
	return nil
}
