// Package domain defines the core value types and error taxonomy for
// proficiency-testing statistics following ISO 13528:2022.
package domain

// Method identifies how an assigned value (x_pt) was derived.
// The set is fixed by ISO 13528:2022 and must not be extended.
type Method string

// Assigned-value derivation methods recognized by the engine.
const (
	// MethodConsensus derives x_pt from participant results using the
	// robust Algorithm A estimator (Annex C).
	MethodConsensus Method = "consensus"

	// MethodCRM takes x_pt from a certified reference material certificate.
	MethodCRM Method = "crm"

	// MethodFormulation takes x_pt from the known composition of the
	// test material.
	MethodFormulation Method = "formulation"

	// MethodExpertConsensus takes x_pt from an agreed value produced by
	// expert laboratories.
	MethodExpertConsensus Method = "expert_consensus"
)

// RobustEstimate is the outcome of one Algorithm A run.
// It is immutable once returned; a successful estimate always satisfies
// SStar > 0 and ParticipantsUsed <= len(input).
type RobustEstimate struct {
	// XPt is the robust location estimate, used as the assigned value.
	XPt float64 `json:"x_pt"`

	// SStar is the robust estimate of between-laboratory standard
	// deviation. Strictly positive (floored at 1e-10 internally).
	SStar float64 `json:"s_star"`

	// ParticipantsUsed counts the results whose final Huber weight
	// exceeded the down-weighting threshold.
	ParticipantsUsed int `json:"participants_used"`

	// Iterations is the zero-based index of the reweighting pass at
	// which convergence was reached.
	Iterations int `json:"iterations"`
}

// AssignedValue is a reference value tagged with the method that
// produced it, so the caller's choice stays explicit and auditable.
type AssignedValue struct {
	// Method records how XPt was derived.
	Method Method `json:"method"`

	// XPt is the assigned value for the round. Always finite.
	XPt float64 `json:"x_pt"`
}

// UncertaintyEstimate is the standard uncertainty of an assigned value,
// tagged with the method it was computed for.
type UncertaintyEstimate struct {
	// Method matches the AssignedValue method this uncertainty belongs to.
	Method Method `json:"method"`

	// UXPt is the standard uncertainty u(x_pt). Never negative.
	UXPt float64 `json:"u_x_pt"`
}

// ScoreKind discriminates the two standardized performance scores.
type ScoreKind string

// Performance score kinds.
const (
	// KindZ is the z-score: (x_i - x_pt) / sigma_pt.
	KindZ ScoreKind = "z"

	// KindZPrime is the zeta-score: (x_i - x_pt) / sqrt(u_i^2 + u(x_pt)^2).
	KindZPrime ScoreKind = "z_prime"
)

// Interpretation is the categorical performance assessment of a score.
type Interpretation string

// Performance categories per ISO 13528:2022 clause 9.
const (
	Satisfactory   Interpretation = "Satisfactory"
	Questionable   Interpretation = "Questionable"
	Unsatisfactory Interpretation = "Unsatisfactory"
)

// Score is a single participant's standardized performance result.
type Score struct {
	// Value is the computed score. Always finite on success.
	Value float64 `json:"value"`

	// Kind identifies the scoring formula used.
	Kind ScoreKind `json:"kind"`

	// Interpretation is the categorical reading of Value.
	Interpretation Interpretation `json:"interpretation"`
}

// InterpretZ classifies a z-score: |z| <= 2 is Satisfactory,
// 2 < |z| <= 3 is Questionable, |z| > 3 is Unsatisfactory.
func InterpretZ(z float64) Interpretation {
	abs := z
	if abs < 0 {
		abs = -abs
	}
	switch {
	case abs <= 2.0:
		return Satisfactory
	case abs <= 3.0:
		return Questionable
	default:
		return Unsatisfactory
	}
}

// InterpretZPrime classifies a zeta-score. Zeta-scores have no
// Questionable band: |z'| <= 2 is Satisfactory, anything else is not.
func InterpretZPrime(zPrime float64) Interpretation {
	abs := zPrime
	if abs < 0 {
		abs = -abs
	}
	if abs <= 2.0 {
		return Satisfactory
	}
	return Unsatisfactory
}
