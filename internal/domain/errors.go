package domain

import (
	"errors"
	"fmt"
)

// ErrDivisionByZero indicates that a computed denominator was non-positive
// where strict positivity is required.
var ErrDivisionByZero = errors.New("division by zero encountered in calculation")

// InsufficientDataError indicates that a calculation received fewer data
// points than the requested method requires.
type InsufficientDataError struct {
	// Required is the minimum number of data points for the method.
	Required int

	// Actual is the number of data points that were supplied.
	Actual int
}

// Error implements the error interface for InsufficientDataError.
func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data: need at least %d data points, got %d", e.Required, e.Actual)
}

// NewInsufficientDataError creates an InsufficientDataError with the
// given requirement and actual count.
func NewInsufficientDataError(required, actual int) *InsufficientDataError {
	return &InsufficientDataError{Required: required, Actual: actual}
}

// InvalidInputError indicates that a value is non-finite (NaN or ±Inf) or
// violates a domain constraint such as a negative uncertainty.
type InvalidInputError struct {
	// Message describes the violated constraint and the offending value.
	Message string
}

// Error implements the error interface for InvalidInputError.
func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid input: %s", e.Message)
}

// NewInvalidInputError creates an InvalidInputError with a formatted message.
func NewInvalidInputError(format string, args ...any) *InvalidInputError {
	return &InvalidInputError{Message: fmt.Sprintf(format, args...)}
}

// DimensionMismatchError indicates that two sequences that must correspond
// element-for-element differ in length.
type DimensionMismatchError struct {
	// Expected is the length the second sequence was required to have.
	Expected int

	// Actual is the length it actually had.
	Actual int
}

// Error implements the error interface for DimensionMismatchError.
func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

// NonConvergenceError indicates that Algorithm A did not satisfy its
// convergence criterion within the iteration budget. It is terminal; the
// caller may resubmit with a larger budget or looser tolerance.
type NonConvergenceError struct {
	// MaxIterations is the iteration budget that was exhausted.
	MaxIterations int
}

// Error implements the error interface for NonConvergenceError.
func (e *NonConvergenceError) Error() string {
	return fmt.Sprintf("algorithm A failed to converge after %d iterations", e.MaxIterations)
}

// MathematicalError indicates that an internal numerical invariant, such
// as a positive total weight, was violated during a calculation.
type MathematicalError struct {
	// Message describes the violated invariant.
	Message string
}

// Error implements the error interface for MathematicalError.
func (e *MathematicalError) Error() string {
	return fmt.Sprintf("mathematical error: %s", e.Message)
}

// InternalError is the defensive fallback for violated preconditions that
// the other checks should have made impossible.
type InternalError struct {
	// Message describes the unexpected condition.
	Message string
}

// Error implements the error interface for InternalError.
func (e *InternalError) Error() string {
	return fmt.Sprintf("internal calculation error: %s", e.Message)
}
