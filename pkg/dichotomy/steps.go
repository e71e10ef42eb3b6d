package dichotomy

// Steps walks from one end of the range by a fixed step until the verdict
// flips, then bisects the bracket it found.
//
// This finds a bracket cheaply when the boundary is far from the middle of
// the range.
type Steps[V Variable[V]] struct {
	startWithMin bool
	stepSize     float64
}

// NewSteps returns a Steps strategy. stepSize must be positive.
func NewSteps[V Variable[V]](startWithMin bool, stepSize float64) (*Steps[V], error) {
	if err := validateStep(stepSize); err != nil {
		return nil, err
	}
	return &Steps[V]{startWithMin: startWithMin, stepSize: stepSize}, nil
}

// Name identifies the strategy in logs.
func (s *Steps[V]) Name() string { return "steps" }

// StepSize returns the linear step.
func (s *Steps[V]) StepSize() float64 { return s.stepSize }

// Converged implements Strategy.
func (s *Steps[V]) Converged(view View[V]) bool {
	return defaultBracket(view).converged(view)
}

// NextValue implements Strategy.
func (s *Steps[V]) NextValue(view View[V]) (V, error) {
	b := defaultBracket(view)
	if b.converged(view) {
		var zero V
		return zero, preconditionError(s.Name())
	}
	switch {
	case !b.hasLow && !b.hasHigh:
		if s.startWithMin {
			return view.MinValue(), nil
		}
		return view.MaxValue(), nil
	case !b.hasHigh:
		return b.low.StepToward(view.MaxValue(), s.stepSize), nil
	case !b.hasLow:
		return b.high.StepToward(view.MinValue(), s.stepSize), nil
	default:
		return b.midpoint(), nil
	}
}
