package dichotomy

// HalfRangeDivision probes one end of the range and then halves the distance
// between the known edge and the unexplored end, bisecting normally once both
// edges are known.
//
// Unlike RangeDivision it never spends a probe on the opposite end unless the
// search actually gets there.
type HalfRangeDivision[V Variable[V]] struct {
	StartWithMin bool
}

// Name identifies the strategy in logs.
func (s HalfRangeDivision[V]) Name() string { return "half-range-division" }

// Converged implements Strategy. A lone inadmissible value near the minimum,
// or a lone valid value near the maximum, is enough.
func (s HalfRangeDivision[V]) Converged(view View[V]) bool {
	b := defaultBracket(view)
	precision := view.Precision()
	if b.hasHigh && !b.hasLow && b.high.DistanceTo(view.MinValue()) < precision {
		return true
	}
	if b.hasLow && !b.hasHigh && b.low.DistanceTo(view.MaxValue()) < precision {
		return true
	}
	return b.converged(view)
}

// NextValue implements Strategy.
func (s HalfRangeDivision[V]) NextValue(view View[V]) (V, error) {
	if s.Converged(view) {
		var zero V
		return zero, preconditionError(s.Name())
	}
	b := defaultBracket(view)
	switch {
	case !b.hasLow && !b.hasHigh:
		if s.StartWithMin {
			return view.MinValue(), nil
		}
		return view.MaxValue(), nil
	case !b.hasHigh:
		return b.low.Midpoint(view.MaxValue()), nil
	case !b.hasLow:
		return b.high.Midpoint(view.MinValue()), nil
	default:
		return b.midpoint(), nil
	}
}
