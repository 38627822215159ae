package stats

import (
	"math"

	"github.com/ptlab/ptstat/internal/domain"
)

// ConsensusUncertainty computes the standard uncertainty of a consensus
// assigned value: u(x_pt) = 1.25 · s* / sqrt(p), where p is the number of
// participants the robust procedure kept.
func ConsensusUncertainty(sStar float64, participantsUsed int) (domain.UncertaintyEstimate, error) {
	if math.IsNaN(sStar) || math.IsInf(sStar, 0) || sStar < 0 {
		return domain.UncertaintyEstimate{}, domain.NewInvalidInputError("invalid robust standard deviation: %v", sStar)
	}
	if participantsUsed == 0 {
		return domain.UncertaintyEstimate{}, domain.NewInsufficientDataError(1, 0)
	}
	return domain.UncertaintyEstimate{
		Method: domain.MethodConsensus,
		UXPt:   uncertaintyFactor * sStar / math.Sqrt(float64(participantsUsed)),
	}, nil
}

// CRMUncertainty passes through the standard uncertainty stated on the
// CRM certificate. The value must be finite and non-negative.
func CRMUncertainty(certificateUncertainty float64) (domain.UncertaintyEstimate, error) {
	return taggedUncertainty(domain.MethodCRM, "CRM uncertainty", certificateUncertainty)
}

// FormulationUncertainty passes through the uncertainty estimated from
// the formulation process. The value must be finite and non-negative.
func FormulationUncertainty(formulationUncertainty float64) (domain.UncertaintyEstimate, error) {
	return taggedUncertainty(domain.MethodFormulation, "formulation uncertainty", formulationUncertainty)
}

// ExpertUncertainty passes through a pre-agreed uncertainty from expert
// assessment. The value must be finite and non-negative.
func ExpertUncertainty(expertUncertainty float64) (domain.UncertaintyEstimate, error) {
	return taggedUncertainty(domain.MethodExpertConsensus, "expert uncertainty", expertUncertainty)
}

// ExpertUncertaintyFromResults derives the expert-consensus uncertainty
// as the standard error of the mean of the raw expert results: sample
// standard deviation (divisor n-1) over sqrt(n). A single result yields
// zero by definition, since no estimate of spread is possible.
func ExpertUncertaintyFromResults(expertResults []float64) (domain.UncertaintyEstimate, error) {
	if len(expertResults) == 0 {
		return domain.UncertaintyEstimate{}, domain.NewInsufficientDataError(1, 0)
	}
	if err := validFloats(expertResults, "expert results"); err != nil {
		return domain.UncertaintyEstimate{}, err
	}
	if len(expertResults) == 1 {
		return domain.UncertaintyEstimate{Method: domain.MethodExpertConsensus, UXPt: 0}, nil
	}

	n := float64(len(expertResults))
	var sum float64
	for _, v := range expertResults {
		sum += v
	}
	mean := sum / n

	var sqSum float64
	for _, v := range expertResults {
		sqSum += (v - mean) * (v - mean)
	}
	stdDev := math.Sqrt(sqSum / (n - 1))

	return domain.UncertaintyEstimate{
		Method: domain.MethodExpertConsensus,
		UXPt:   stdDev / math.Sqrt(n),
	}, nil
}

func taggedUncertainty(method domain.Method, name string, value float64) (domain.UncertaintyEstimate, error) {
	if math.IsNaN(value) || math.IsInf(value, 0) || value < 0 {
		return domain.UncertaintyEstimate{}, domain.NewInvalidInputError("invalid %s: %v", name, value)
	}
	return domain.UncertaintyEstimate{Method: method, UXPt: value}, nil
}
