package dichotomy

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration is returned for invalid constructor arguments.
	// A search is never started with a bad configuration.
	ErrConfiguration = errors.New("invalid configuration")

	// ErrInvalidRange is returned when the minimum bound is greater than the maximum.
	ErrInvalidRange = errors.New("invalid search range")

	// ErrInvariantViolation is returned when a record would break monotonicity.
	// It means the evaluation is not monotonic in the search variable.
	ErrInvariantViolation = errors.New("search index invariant violated")

	// ErrPreconditionViolation is returned when a strategy is misused, for
	// example when a next value is requested after convergence.
	ErrPreconditionViolation = errors.New("strategy precondition violated")

	// ErrKeyMismatch is returned when two vector variables do not share a key set.
	ErrKeyMismatch = errors.New("search variable key sets differ")

	// ErrResourceLimitation is returned by a Shifter or Evaluator when the
	// scenario cannot be driven to the requested value at all.
	ErrResourceLimitation = errors.New("resource limitation")

	// ErrEvaluationFailed marks a collaborator error as a classified probe
	// failure. Evaluator errors that do not wrap it (or ErrResourceLimitation
	// or ErrInterrupted) are fatal to the search.
	ErrEvaluationFailed = errors.New("evaluation failed")

	// ErrEmptyOutcome is the fatal error of an evaluator that returns an
	// outcome built without Valid, Invalid or Failure.
	ErrEmptyOutcome = errors.New("evaluator returned an outcome with neither a verdict nor a reason")

	// ErrInterrupted marks a collaborator error as an interruption of the
	// current probe.
	ErrInterrupted = errors.New("evaluation interrupted")
)

// RangeError describes an index built with min greater than max.
//
// It matches ErrInvalidRange through errors.Is.
type RangeError struct {
	Min string
	Max string
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("invalid search range: min %s is greater than max %s", e.Min, e.Max)
}

func (e *RangeError) Unwrap() error { return ErrInvalidRange }

// InvariantError describes a monotonicity violation detected by Index.Record.
type InvariantError struct {
	Value   string
	Bound   string
	Outcome Reason
	Valid   bool
}

func (e *InvariantError) Error() string {
	if e.Valid {
		return fmt.Sprintf("valid step at %s is lower than highest valid step at %s", e.Value, e.Bound)
	}
	return fmt.Sprintf("invalid step (%s) at %s is greater than lowest invalid step at %s", e.Outcome, e.Value, e.Bound)
}

func (e *InvariantError) Unwrap() error { return ErrInvariantViolation }

func configError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConfiguration, fmt.Sprintf(format, args...))
}
