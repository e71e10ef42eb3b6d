package dichotomy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// MinIterations is the smallest iteration budget an Engine accepts: enough to
// probe both sides of a bracket and refine it once.
const MinIterations = 3

// EngineConfig holds the required parts of a search.
type EngineConfig[P any, V Variable[V]] struct {
	// Min and Max bound the search range. Min must not be greater than Max.
	Min V
	Max V
	// Precision is the bracket width under which the search has converged.
	Precision float64
	// MaxIterations caps the number of probes. Must be at least MinIterations.
	MaxIterations int

	Strategy  Strategy[V]
	Shifter   Shifter[V]
	Evaluator Evaluator[P]
}

// Engine runs sequential bisection searches.
//
// An Engine holds no per-run state and may run several searches one after
// another. Each Run owns its own Index.
type Engine[P any, V Variable[V]] struct {
	cfg  EngineConfig[P, V]
	opts options
}

// NewEngine validates cfg and returns an Engine.
func NewEngine[P any, V Variable[V]](cfg EngineConfig[P, V], opts ...Option) (*Engine[P, V], error) {
	if cfg.MaxIterations < MinIterations {
		return nil, configError("max iterations must be at least %d, got %d", MinIterations, cfg.MaxIterations)
	}
	if cfg.Strategy == nil {
		return nil, configError("strategy is required")
	}
	if cfg.Shifter == nil {
		return nil, configError("shifter is required")
	}
	if cfg.Evaluator == nil {
		return nil, configError("evaluator is required")
	}
	// Fail on a bad range now rather than on the first Run.
	if _, err := NewIndex[P, V](cfg.Min, cfg.Max, cfg.Precision); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfiguration, err)
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Engine[P, V]{cfg: cfg, opts: o}, nil
}

// Run searches for the boundary on scenario.
//
// The view of scenario that is current when Run is called is never mutated
// and is current again when Run returns, on every path.
//
// A fatal evaluator error is reported through a Result with Fatal set, not as
// an error. Errors are returned for misuse: invariant or precondition
// violations and a nil scenario.
func (e *Engine[P, V]) Run(ctx context.Context, scenario Scenario) (*Result[P, V], error) {
	if scenario == nil {
		return nil, configError("scenario is required")
	}
	index, err := NewIndex[P, V](e.cfg.Min, e.cfg.Max, e.cfg.Precision)
	if err != nil {
		return nil, err
	}

	runID := e.opts.runID
	if runID == "" {
		runID = uuid.NewString()
	}
	strategy := StrategyName(e.cfg.Strategy)
	logger := e.opts.logger.With("run_id", runID, "strategy", strategy)
	started := time.Now()

	e.opts.observer.RunStarted(ctx, RunInfo{
		RunID:         runID,
		Strategy:      strategy,
		Min:           e.cfg.Min.String(),
		Max:           e.cfg.Max.String(),
		Precision:     e.cfg.Precision,
		MaxIterations: e.cfg.MaxIterations,
	})

	canonical := scenario.CurrentView()
	defer func() {
		if err := scenario.SwitchView(canonical); err != nil {
			logger.Error("failed to restore scenario view", "view", canonical, "error", err)
		}
	}()

	var (
		result    *Result[P, V]
		previous  *Outcome[P]
		iteration int
	)
loop:
	for {
		switch {
		case e.interrupted(ctx, runID):
			logger.Info("search interrupted", "probes", index.Len())
			result = e.result(index, true)
			break loop
		case e.cfg.Strategy.Converged(index):
			result = e.result(index, false)
			result.termination = TerminationConverged
			break loop
		case iteration >= e.cfg.MaxIterations:
			logger.Warn("max iterations reached", "max_iterations", e.cfg.MaxIterations, "index", index.String())
			result = e.result(index, false)
			result.termination = TerminationMaxIterations
			break loop
		}

		value, err := e.cfg.Strategy.NextValue(index)
		if err != nil {
			return nil, err
		}

		probeStart := time.Now()
		outcome, fatal := e.probe(ctx, scenario, canonical, runID, iteration, value, previous, logger)
		if fatal != nil {
			logger.Error("search aborted", "value", value.String(), "error", fatal)
			result = FatalResult[P, V](fatal.Error())
			result.steps = index.Tested()
			break loop
		}
		if err := index.Record(value, outcome); err != nil {
			logger.Error("non-monotonic evaluation", "value", value.String(), "error", err)
			return nil, err
		}

		e.opts.observer.ProbeCompleted(ctx, ProbeEvent{
			RunID:     runID,
			Iteration: iteration,
			Value:     value.String(),
			Valid:     outcome.IsValid(),
			Reason:    outcome.Reason(),
			Message:   outcome.Message(),
			Duration:  time.Since(probeStart),
		})
		logger.Debug("probe recorded", "iteration", iteration, "value", value.String(), "outcome", outcome.String())

		iteration++
		previous = &outcome
		if outcome.Reason() == ReasonInterrupted {
			logger.Info("evaluation interrupted", "value", value.String())
			result = e.result(index, true)
			break loop
		}
	}

	result.runID = runID
	result.strategy = strategy
	result.duration = time.Since(started)
	e.opts.observer.RunFinished(ctx, result.Summary())
	return result, nil
}

// probe realizes value on a fresh working view and evaluates it. The working
// view is discarded and the canonical view made current before it returns. A
// non-nil error is fatal to the search.
func (e *Engine[P, V]) probe(
	ctx context.Context,
	scenario Scenario,
	canonical, runID string,
	iteration int,
	value V,
	previous *Outcome[P],
	logger *slog.Logger,
) (_ Outcome[P], fatal error) {
	var zero Outcome[P]
	work := fmt.Sprintf("%s-probe-%d", runID, iteration)
	if err := scenario.CloneView(canonical, work); err != nil {
		return zero, fmt.Errorf("clone scenario view: %w", err)
	}
	defer func() {
		if err := scenario.SwitchView(canonical); err != nil {
			logger.Error("failed to restore scenario view", "view", canonical, "error", err)
			if fatal == nil {
				fatal = fmt.Errorf("restore scenario view: %w", err)
			}
			return
		}
		if err := scenario.RemoveView(work); err != nil {
			logger.Warn("failed to remove working view", "view", work, "error", err)
		}
	}()
	if err := scenario.SwitchView(work); err != nil {
		return zero, fmt.Errorf("switch to working view: %w", err)
	}

	if err := e.cfg.Shifter.Shift(ctx, value, scenario); err != nil {
		reason, ok := classify(err)
		if !ok {
			reason = ReasonEvaluationFailed
		}
		if reason.IsFailure() {
			e.export(ctx, scenario, runID, reason, logger)
		}
		return Failure[P](reason, err.Error()), nil
	}

	outcome, err := e.cfg.Evaluator.Evaluate(ctx, scenario, previous)
	if err != nil {
		reason, ok := classify(err)
		if !ok {
			return zero, err
		}
		outcome = Failure[P](reason, err.Error())
	}
	if !outcome.IsValid() && outcome.Reason() == ReasonNone {
		return zero, fmt.Errorf("%w at %s", ErrEmptyOutcome, value)
	}
	if outcome.IsFailed() {
		e.export(ctx, scenario, runID, outcome.Reason(), logger)
	}
	return outcome, nil
}

// result classifies index against the strategy's own bracket when it has one.
func (e *Engine[P, V]) result(index *Index[P, V], interrupted bool) *Result[P, V] {
	if b, ok := e.cfg.Strategy.(Bracketer[V]); ok {
		return ResultFromBracket(index, b, interrupted)
	}
	return ResultFromIndex(index, interrupted)
}

// classify maps a collaborator error to a failure reason.
func classify(err error) (Reason, bool) {
	switch {
	case errors.Is(err, ErrResourceLimitation):
		return ReasonResourceLimitation, true
	case errors.Is(err, ErrInterrupted), errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return ReasonInterrupted, true
	case errors.Is(err, ErrEvaluationFailed):
		return ReasonEvaluationFailed, true
	default:
		return ReasonNone, false
	}
}

func (e *Engine[P, V]) interrupted(ctx context.Context, runID string) bool {
	if ctx.Err() != nil {
		return true
	}
	return e.opts.interruption != nil && e.opts.interruption.ShouldStop(ctx, runID)
}

// export hands the working view to the exporter. Errors and panics are logged.
func (e *Engine[P, V]) export(ctx context.Context, scenario Scenario, runID string, reason Reason, logger *slog.Logger) {
	if e.opts.exporter == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			logger.Error("scenario exporter panicked", "reason", reason.String(), "panic", fmt.Sprint(r))
		}
	}()
	if err := e.opts.exporter.Export(ctx, scenario, runID, reason); err != nil {
		logger.Warn("scenario export failed", "reason", reason.String(), "error", err)
	}
}
