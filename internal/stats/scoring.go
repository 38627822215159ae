package stats

import (
	"math"

	"github.com/ptlab/ptstat/internal/domain"
)

// ZScores computes z = (x_i - x_pt) / sigma_pt for each participant
// result. sigma_pt must be finite and strictly positive.
func ZScores(results []float64, xPt, sigmaPt float64) ([]float64, error) {
	if err := validFloats(results, "participant results"); err != nil {
		return nil, err
	}
	if math.IsNaN(xPt) || math.IsInf(xPt, 0) {
		return nil, domain.NewInvalidInputError("invalid assigned value x_pt: %v", xPt)
	}
	if math.IsNaN(sigmaPt) || math.IsInf(sigmaPt, 0) || sigmaPt <= 0 {
		return nil, domain.NewInvalidInputError("invalid or non-positive sigma_pt: %v", sigmaPt)
	}

	scores := make([]float64, len(results))
	for i, x := range results {
		scores[i] = (x - xPt) / sigmaPt
	}
	return scores, nil
}

// ZPrimeScores computes the zeta-score
// z' = (x_i - x_pt) / sqrt(u_i² + u(x_pt)²) for each participant result
// and its reported standard uncertainty u_i.
//
// results and uResults must have equal length; every uncertainty must be
// non-negative. A combined variance of zero (both uncertainties zero for
// an element) fails with ErrDivisionByZero rather than producing ±Inf.
func ZPrimeScores(results, uResults []float64, xPt, uXPt float64) ([]float64, error) {
	if len(results) != len(uResults) {
		return nil, &domain.DimensionMismatchError{Expected: len(results), Actual: len(uResults)}
	}
	if err := validFloats(results, "participant results"); err != nil {
		return nil, err
	}
	if err := validFloats(uResults, "participant uncertainties"); err != nil {
		return nil, err
	}
	if math.IsNaN(xPt) || math.IsInf(xPt, 0) {
		return nil, domain.NewInvalidInputError("invalid assigned value x_pt: %v", xPt)
	}
	if math.IsNaN(uXPt) || math.IsInf(uXPt, 0) || uXPt < 0 {
		return nil, domain.NewInvalidInputError("invalid or negative u(x_pt): %v", uXPt)
	}
	for i, u := range uResults {
		if u < 0 {
			return nil, domain.NewInvalidInputError("negative uncertainty at index %d: %v", i, u)
		}
	}

	scores := make([]float64, len(results))
	for i, x := range results {
		combinedVariance := uResults[i]*uResults[i] + uXPt*uXPt
		if combinedVariance <= 0 {
			return nil, domain.ErrDivisionByZero
		}
		scores[i] = (x - xPt) / math.Sqrt(combinedVariance)
	}
	return scores, nil
}

// ZPrimeScoresAssignedOnly computes zeta-scores when participant
// uncertainties are missing, using only the assigned value uncertainty:
// z' = (x_i - x_pt) / u(x_pt). Unlike ZPrimeScores there is no
// zero-variance guard; u(x_pt) alone must be strictly positive.
func ZPrimeScoresAssignedOnly(results []float64, xPt, uXPt float64) ([]float64, error) {
	if err := validFloats(results, "participant results"); err != nil {
		return nil, err
	}
	if math.IsNaN(xPt) || math.IsInf(xPt, 0) {
		return nil, domain.NewInvalidInputError("invalid assigned value x_pt: %v", xPt)
	}
	if math.IsNaN(uXPt) || math.IsInf(uXPt, 0) || uXPt <= 0 {
		return nil, domain.NewInvalidInputError("invalid or non-positive u(x_pt): %v", uXPt)
	}

	scores := make([]float64, len(results))
	for i, x := range results {
		scores[i] = (x - xPt) / uXPt
	}
	return scores, nil
}

// BuildScores pairs raw score values with their kind and categorical
// interpretation for reporting.
func BuildScores(values []float64, kind domain.ScoreKind) []domain.Score {
	scores := make([]domain.Score, len(values))
	for i, v := range values {
		var interp domain.Interpretation
		switch kind {
		case domain.KindZPrime:
			interp = domain.InterpretZPrime(v)
		default:
			interp = domain.InterpretZ(v)
		}
		scores[i] = domain.Score{Value: v, Kind: kind, Interpretation: interp}
	}
	return scores
}
