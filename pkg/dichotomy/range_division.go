package dichotomy

// RangeDivision probes one end of the range, then the other, then bisects
// between the highest valid and the lowest inadmissible value.
type RangeDivision[V Variable[V]] struct {
	// StartWithMin probes the minimum first; otherwise the maximum.
	StartWithMin bool
}

// Name identifies the strategy in logs.
func (s RangeDivision[V]) Name() string { return "range-division" }

// Converged implements Strategy.
func (s RangeDivision[V]) Converged(view View[V]) bool {
	return defaultBracket(view).converged(view)
}

// NextValue implements Strategy.
func (s RangeDivision[V]) NextValue(view View[V]) (V, error) {
	b := defaultBracket(view)
	if b.converged(view) {
		var zero V
		return zero, preconditionError(s.Name())
	}
	if s.StartWithMin {
		if !b.hasLow {
			return view.MinValue(), nil
		}
		if !b.hasHigh {
			return view.MaxValue(), nil
		}
	} else {
		if !b.hasHigh {
			return view.MaxValue(), nil
		}
		if !b.hasLow {
			return view.MinValue(), nil
		}
	}
	return b.midpoint(), nil
}
