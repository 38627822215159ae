package stats

import (
	"math"

	"github.com/ptlab/ptstat/internal/domain"
)

// The three non-consensus assigned-value methods are validated identity
// functions. They differ only in provenance tagging: the set is fixed by
// ISO 13528:2022 and exists so the caller's chosen method stays explicit
// and auditable.

// FromCRM builds an assigned value from a certified reference material
// certificate value. The value must be finite.
func FromCRM(certifiedValue float64) (domain.AssignedValue, error) {
	return taggedValue(domain.MethodCRM, "CRM value", certifiedValue)
}

// FromFormulation builds an assigned value from the known theoretical
// value of the formulated test material. The value must be finite.
func FromFormulation(knownValue float64) (domain.AssignedValue, error) {
	return taggedValue(domain.MethodFormulation, "formulation value", knownValue)
}

// FromExpertConsensus builds an assigned value from an agreed value of
// expert laboratories. The value must be finite.
func FromExpertConsensus(consensusValue float64) (domain.AssignedValue, error) {
	return taggedValue(domain.MethodExpertConsensus, "expert consensus value", consensusValue)
}

// FromConsensus tags an Algorithm A estimate as the consensus assigned
// value for a round.
func FromConsensus(estimate domain.RobustEstimate) domain.AssignedValue {
	return domain.AssignedValue{Method: domain.MethodConsensus, XPt: estimate.XPt}
}

func taggedValue(method domain.Method, name string, value float64) (domain.AssignedValue, error) {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return domain.AssignedValue{}, domain.NewInvalidInputError("invalid %s: %v", name, value)
	}
	return domain.AssignedValue{Method: method, XPt: value}, nil
}
