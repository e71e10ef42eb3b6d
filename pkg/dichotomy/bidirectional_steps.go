package dichotomy

// BiDirectionalSteps starts from an arbitrary value inside the range and steps
// away from the first verdict, upward after a valid probe and downward after an
// inadmissible one, until the verdict flips. It then bisects.
type BiDirectionalSteps[V Variable[V]] struct {
	start    V
	stepSize float64
}

// NewBiDirectionalSteps returns a BiDirectionalSteps strategy starting at
// start. A start outside the range is clamped to it key by key. stepSize must be positive.
func NewBiDirectionalSteps[V Variable[V]](start V, stepSize float64) (*BiDirectionalSteps[V], error) {
	if err := validateStep(stepSize); err != nil {
		return nil, err
	}
	return &BiDirectionalSteps[V]{start: start, stepSize: stepSize}, nil
}

// Name identifies the strategy in logs.
func (s *BiDirectionalSteps[V]) Name() string { return "bidirectional-steps" }

// Converged implements Strategy.
func (s *BiDirectionalSteps[V]) Converged(view View[V]) bool {
	return defaultBracket(view).converged(view)
}

// NextValue implements Strategy.
func (s *BiDirectionalSteps[V]) NextValue(view View[V]) (V, error) {
	b := defaultBracket(view)
	if b.converged(view) {
		var zero V
		return zero, preconditionError(s.Name())
	}
	return stepBracket(view, b, s.start, s.stepSize)
}

// stepBracket is the shared next-value rule of the bidirectional strategies.
func stepBracket[V Variable[V]](view View[V], b bracket[V], start V, step float64) (V, error) {
	if err := view.MinValue().Compatible(start); err != nil {
		var zero V
		return zero, err
	}
	switch {
	case !b.hasLow && !b.hasHigh:
		return start.Clamp(view.MinValue(), view.MaxValue()), nil
	case !b.hasHigh:
		return b.low.StepToward(view.MaxValue(), step), nil
	case !b.hasLow:
		return b.high.StepToward(view.MinValue(), step), nil
	default:
		return b.midpoint(), nil
	}
}
