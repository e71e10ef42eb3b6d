package dichotomy

import "context"

// Scenario is the model a search mutates, seen through named views.
//
// The engine never mutates the view that is current when Run starts. Each
// probe clones it into a working view, switches to the copy, shifts and
// evaluates it, then switches back and removes the copy.
type Scenario interface {
	// CurrentView returns the ID of the active view.
	CurrentView() string
	// CloneView copies view source into a new view target.
	CloneView(source, target string) error
	// SwitchView makes id the active view.
	SwitchView(id string) error
	// RemoveView discards view id. The active view cannot be removed.
	RemoveView(id string) error
}

// Shifter moves the active view of a scenario to a target value.
//
// Returning an error wrapping ErrResourceLimitation records the probe as a
// resource limitation. Any other error records an evaluation failure.
type Shifter[V Variable[V]] interface {
	Shift(ctx context.Context, target V, scenario Scenario) error
}

// ShifterFunc adapts a function to Shifter.
type ShifterFunc[V Variable[V]] func(ctx context.Context, target V, scenario Scenario) error

// Shift implements Shifter.
func (f ShifterFunc[V]) Shift(ctx context.Context, target V, scenario Scenario) error {
	return f(ctx, target, scenario)
}

// Evaluator judges the active view of a scenario.
//
// Verdicts and classified failures are returned as an Outcome. A returned
// error is fatal and ends the search, unless it wraps ErrEvaluationFailed,
// ErrResourceLimitation or ErrInterrupted, in which case it is converted to
// the matching failed Outcome. previous is the outcome of the prior probe, or
// nil, and may be used as a warm start.
type Evaluator[P any] interface {
	Evaluate(ctx context.Context, scenario Scenario, previous *Outcome[P]) (Outcome[P], error)
}

// EvaluatorFunc adapts a function to Evaluator.
type EvaluatorFunc[P any] func(ctx context.Context, scenario Scenario, previous *Outcome[P]) (Outcome[P], error)

// Evaluate implements Evaluator.
func (f EvaluatorFunc[P]) Evaluate(ctx context.Context, scenario Scenario, previous *Outcome[P]) (Outcome[P], error) {
	return f(ctx, scenario, previous)
}

// InterruptionSignal is polled before every probe. Returning true stops the
// search softly with the partial index.
type InterruptionSignal interface {
	ShouldStop(ctx context.Context, runID string) bool
}

// InterruptionFunc adapts a function to InterruptionSignal.
type InterruptionFunc func(ctx context.Context, runID string) bool

// ShouldStop implements InterruptionSignal.
func (f InterruptionFunc) ShouldStop(ctx context.Context, runID string) bool { return f(ctx, runID) }

// Exporter receives the working view of a probe that failed, for diagnosis.
// Export errors are logged and never abort the search.
type Exporter interface {
	Export(ctx context.Context, scenario Scenario, runID string, reason Reason) error
}
