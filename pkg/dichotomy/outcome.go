package dichotomy

import "fmt"

// Reason classifies why a probe is not valid.
type Reason int

const (
	// ReasonNone is carried only by valid outcomes.
	ReasonNone Reason = iota
	// ReasonUnsecureAfterEvaluation is a confident negative verdict.
	ReasonUnsecureAfterEvaluation
	// ReasonEvaluationFailed means the evaluation could not produce a verdict.
	ReasonEvaluationFailed
	// ReasonResourceLimitation means the scenario could not be driven to the value.
	ReasonResourceLimitation
	// ReasonInterrupted means the evaluation stopped on an interruption request.
	ReasonInterrupted
)

// String returns the canonical upper-case name.
func (r Reason) String() string {
	switch r {
	case ReasonNone:
		return "NONE"
	case ReasonUnsecureAfterEvaluation:
		return "UNSECURE_AFTER_EVALUATION"
	case ReasonEvaluationFailed:
		return "EVALUATION_FAILED"
	case ReasonResourceLimitation:
		return "RESOURCE_LIMITATION"
	case ReasonInterrupted:
		return "INTERRUPTED"
	default:
		return fmt.Sprintf("Reason(%d)", int(r))
	}
}

// IsFailure reports whether the reason is a failure rather than a verdict.
func (r Reason) IsFailure() bool {
	return r == ReasonEvaluationFailed || r == ReasonResourceLimitation
}

// Outcome is the result of evaluating one probe.
//
// A valid outcome always carries a payload. An invalid outcome carries a
// reason other than ReasonNone and, for confident verdicts, usually a payload.
// Failures carry a message instead.
type Outcome[P any] struct {
	valid      bool
	reason     Reason
	payload    P
	hasPayload bool
	message    string
}

// Valid returns a valid outcome carrying payload.
func Valid[P any](payload P) Outcome[P] {
	return Outcome[P]{valid: true, reason: ReasonNone, payload: payload, hasPayload: true}
}

// Invalid returns a confident or classified invalid outcome carrying payload.
// It panics when reason is ReasonNone.
func Invalid[P any](reason Reason, payload P) Outcome[P] {
	if reason == ReasonNone {
		panic("dichotomy: invalid outcome needs a reason")
	}
	return Outcome[P]{reason: reason, payload: payload, hasPayload: true}
}

// Failure returns an invalid outcome without payload.
// It panics when reason is ReasonNone or ReasonUnsecureAfterEvaluation.
func Failure[P any](reason Reason, message string) Outcome[P] {
	if reason == ReasonNone || reason == ReasonUnsecureAfterEvaluation {
		panic(fmt.Sprintf("dichotomy: %s is not a failure reason", reason))
	}
	return Outcome[P]{reason: reason, message: message}
}

// IsValid reports whether the probe was admissible.
func (o Outcome[P]) IsValid() bool { return o.valid }

// Reason returns the invalidity reason, ReasonNone for valid outcomes.
func (o Outcome[P]) Reason() Reason { return o.reason }

// IsFailed reports whether the outcome is a failure. Confident negatives are not.
func (o Outcome[P]) IsFailed() bool { return o.reason.IsFailure() }

// Payload returns the evaluation payload, if any.
func (o Outcome[P]) Payload() (P, bool) { return o.payload, o.hasPayload }

// Message returns the failure message, if any.
func (o Outcome[P]) Message() string { return o.message }

// String formats the outcome for logs.
func (o Outcome[P]) String() string {
	if o.valid {
		return "valid"
	}
	if o.message != "" {
		return fmt.Sprintf("invalid(%s: %s)", o.reason, o.message)
	}
	return fmt.Sprintf("invalid(%s)", o.reason)
}

// Step is one recorded probe: the value tested and its outcome.
type Step[P any, V any] struct {
	Value   V
	Outcome Outcome[P]
}
