package dichotomy

import (
	"fmt"
	"time"
)

// LimitingCause explains what bounds the result of a search.
type LimitingCause string

const (
	// CauseIndexEvaluationOrMaxIteration means no bracket was formed: the
	// search stopped early, hit its budget, or the boundary lies at an edge.
	CauseIndexEvaluationOrMaxIteration LimitingCause = "INDEX_EVALUATION_OR_MAX_ITERATION"
	// CauseCriticalBranch means evaluation found a limiting constraint.
	CauseCriticalBranch LimitingCause = "CRITICAL_BRANCH"
	// CauseResourceLimitation means the scenario could not be shifted further.
	CauseResourceLimitation LimitingCause = "RESOURCE_LIMITATION"
	// CauseComputationFailure means the evaluation failed at the edge.
	CauseComputationFailure LimitingCause = "COMPUTATION_FAILURE"
)

// Termination is the terminal state of an engine run.
type Termination string

const (
	TerminationConverged     Termination = "converged"
	TerminationMaxIterations Termination = "max_iterations"
	TerminationFatal         Termination = "fatal"
	TerminationInterrupted   Termination = "interrupted"
)

// Result is the immutable outcome of a search.
type Result[P any, V Variable[V]] struct {
	runID        string
	strategy     string
	termination  Termination
	duration     time.Duration
	highestValid *Step[P, V]
	lowest       *Step[P, V]
	cause        LimitingCause
	message      string
	interrupted  bool
	fatal        bool
	fatalMessage string
	steps        []Step[P, V]
}

// ResultFromIndex classifies a terminated index.
//
// The inadmissible edge reported is the index's InadmissibleBound, so a
// failure closer to the boundary than any confident verdict is reported as
// the limiting cause.
func ResultFromIndex[P any, V Variable[V]](index *Index[P, V], interrupted bool) *Result[P, V] {
	return resultFromEdge(index, index.inadmissible(), interrupted)
}

// ResultFromBracket classifies a terminated index against the bracket of b,
// so the inadmissible edge reported is the one the strategy searched against.
func ResultFromBracket[P any, V Variable[V]](index *Index[P, V], b Bracketer[V], interrupted bool) *Result[P, V] {
	_, high := b.Bracket(index)
	return resultFromEdge(index, high, interrupted)
}

func resultFromEdge[P any, V Variable[V]](index *Index[P, V], high int, interrupted bool) *Result[P, V] {
	r := &Result[P, V]{
		interrupted: interrupted,
		steps:       index.Tested(),
		cause:       CauseIndexEvaluationOrMaxIteration,
	}
	if interrupted {
		r.termination = TerminationInterrupted
	}

	valid, hasValid := index.HighestValidStep()
	invalid, hasInvalid := index.stepAt(high)
	if hasValid {
		r.highestValid = &valid
	}
	if hasInvalid {
		r.lowest = &invalid
	}
	if !hasValid || !hasInvalid {
		return r
	}

	switch reason := invalid.Outcome.Reason(); {
	case !invalid.Outcome.IsFailed():
		r.cause = CauseCriticalBranch
	case reason == ReasonResourceLimitation:
		r.cause = CauseResourceLimitation
		r.message = invalid.Outcome.Message()
	default:
		r.cause = CauseComputationFailure
		r.message = invalid.Outcome.Message()
	}
	return r
}

// FatalResult builds the result of a search aborted by an unrecoverable error.
// It reports no bracket.
func FatalResult[P any, V Variable[V]](message string) *Result[P, V] {
	return &Result[P, V]{
		termination:  TerminationFatal,
		fatal:        true,
		fatalMessage: message,
	}
}

// RunID returns the ID of the run that produced the result.
func (r *Result[P, V]) RunID() string { return r.runID }

// Strategy returns the name of the strategy used.
func (r *Result[P, V]) Strategy() string { return r.strategy }

// Termination returns how the run ended.
func (r *Result[P, V]) Termination() Termination { return r.termination }

// Duration returns the wall time of the run.
func (r *Result[P, V]) Duration() time.Duration { return r.duration }

// HighestValid returns the highest valid step.
func (r *Result[P, V]) HighestValid() (Step[P, V], bool) { return deref(r.highestValid) }

// LowestInvalid returns the inadmissible edge of the bracket.
func (r *Result[P, V]) LowestInvalid() (Step[P, V], bool) { return deref(r.lowest) }

// LimitingCause returns the classification of the result.
func (r *Result[P, V]) LimitingCause() LimitingCause { return r.cause }

// LimitingMessage returns the failure message behind the limiting cause, if any.
func (r *Result[P, V]) LimitingMessage() string { return r.message }

// Interrupted reports whether the run was stopped by an interruption.
func (r *Result[P, V]) Interrupted() bool { return r.interrupted }

// Fatal reports whether the run was aborted by an unrecoverable error.
func (r *Result[P, V]) Fatal() bool { return r.fatal }

// FatalMessage returns the message of the fatal error.
func (r *Result[P, V]) FatalMessage() string { return r.fatalMessage }

// Steps returns every probe of the run, oldest first.
func (r *Result[P, V]) Steps() []Step[P, V] {
	out := make([]Step[P, V], len(r.steps))
	copy(out, r.steps)
	return out
}

// String summarizes the result in one line.
func (r *Result[P, V]) String() string {
	if r.fatal {
		return fmt.Sprintf("fatal after %d probes: %s", len(r.steps), r.fatalMessage)
	}
	lo, hi := "none", "none"
	if r.highestValid != nil {
		lo = r.highestValid.Value.String()
	}
	if r.lowest != nil {
		hi = r.lowest.Value.String()
	}
	return fmt.Sprintf("%s: valid<=%s invalid>=%s cause=%s probes=%d", r.termination, lo, hi, r.cause, len(r.steps))
}

// StepSummary is the plain-data form of a Step.
type StepSummary struct {
	Value   string `json:"value" yaml:"value"`
	Valid   bool   `json:"valid" yaml:"valid"`
	Reason  string `json:"reason" yaml:"reason"`
	Message string `json:"message,omitempty" yaml:"message,omitempty"`
}

// Summary is the plain-data form of a Result, for logs, JSON and storage.
type Summary struct {
	RunID         string        `json:"run_id" yaml:"run_id"`
	Strategy      string        `json:"strategy" yaml:"strategy"`
	Termination   Termination   `json:"termination" yaml:"termination"`
	Cause         LimitingCause `json:"limiting_cause,omitempty" yaml:"limiting_cause,omitempty"`
	Message       string        `json:"limiting_message,omitempty" yaml:"limiting_message,omitempty"`
	HighestValid  string        `json:"highest_valid,omitempty" yaml:"highest_valid,omitempty"`
	LowestInvalid string        `json:"lowest_invalid,omitempty" yaml:"lowest_invalid,omitempty"`
	Interrupted   bool          `json:"interrupted" yaml:"interrupted"`
	Fatal         bool          `json:"fatal" yaml:"fatal"`
	FatalMessage  string        `json:"fatal_message,omitempty" yaml:"fatal_message,omitempty"`
	Probes        int           `json:"probes" yaml:"probes"`
	Duration      time.Duration `json:"duration_ns" yaml:"duration"`
	Steps         []StepSummary `json:"steps,omitempty" yaml:"steps,omitempty"`
}

// Summary returns the plain-data form of the result.
func (r *Result[P, V]) Summary() Summary {
	s := Summary{
		RunID:        r.runID,
		Strategy:     r.strategy,
		Termination:  r.termination,
		Message:      r.message,
		Interrupted:  r.interrupted,
		Fatal:        r.fatal,
		FatalMessage: r.fatalMessage,
		Probes:       len(r.steps),
		Duration:     r.duration,
	}
	if !r.fatal {
		s.Cause = r.cause
	}
	if r.highestValid != nil {
		s.HighestValid = r.highestValid.Value.String()
	}
	if r.lowest != nil {
		s.LowestInvalid = r.lowest.Value.String()
	}
	for _, st := range r.steps {
		s.Steps = append(s.Steps, StepSummary{
			Value:   st.Value.String(),
			Valid:   st.Outcome.IsValid(),
			Reason:  st.Outcome.Reason().String(),
			Message: st.Outcome.Message(),
		})
	}
	return s
}

func deref[T any](p *T) (T, bool) {
	if p == nil {
		var zero T
		return zero, false
	}
	return *p, true
}
