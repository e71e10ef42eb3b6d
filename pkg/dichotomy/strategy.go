package dichotomy

import "fmt"

// Strategy decides where to probe next and when a search has converged.
//
// Converged must be a pure function of the view. NextValue must not be called
// once Converged reports true; implementations return ErrPreconditionViolation
// when it is.
type Strategy[V Variable[V]] interface {
	NextValue(view View[V]) (V, error)
	Converged(view View[V]) bool
}

// Bracketer is implemented by strategies whose bracket differs from the
// index's own edges. Bracket returns the positions in view.Probes() of the
// admissible and inadmissible edges, -1 when unset. Results of a search are
// reported against this bracket.
type Bracketer[V Variable[V]] interface {
	Bracket(view View[V]) (low, high int)
}

// bracket holds the admissible (low) and inadmissible (high) edges a
// strategy works with.
type bracket[V Variable[V]] struct {
	low     V
	hasLow  bool
	high    V
	hasHigh bool
}

// defaultBracket pairs the highest valid value with the inadmissible bound,
// which lets failed probes narrow the bracket like confident negatives.
func defaultBracket[V Variable[V]](view View[V]) bracket[V] {
	var b bracket[V]
	b.low, b.hasLow = view.HighestValid()
	b.high, b.hasHigh = view.InadmissibleBound()
	return b
}

// converged applies the shared convergence rule: the boundary sits at an
// edge of the range, or the bracket is narrower than the precision.
func (b bracket[V]) converged(view View[V]) bool {
	precision := view.Precision()
	if b.hasHigh && b.high.DistanceTo(view.MinValue()) < precision {
		return true
	}
	if b.hasLow && b.low.DistanceTo(view.MaxValue()) < precision {
		return true
	}
	return b.hasLow && b.hasHigh && b.high.DistanceTo(b.low) < precision
}

func (b bracket[V]) midpoint() V { return b.low.Midpoint(b.high) }

// highestWhere returns the position of the greatest probe kept by keep,
// the earliest one on ties, or -1.
func highestWhere[V Variable[V]](probes []Probe[V], keep func(Probe[V]) bool) int {
	best := -1
	for i, p := range probes {
		if keep(p) && (best < 0 || p.Value.GreaterThan(probes[best].Value)) {
			best = i
		}
	}
	return best
}

// lowestWhere returns the position of the least probe kept by keep,
// the earliest one on ties, or -1.
func lowestWhere[V Variable[V]](probes []Probe[V], keep func(Probe[V]) bool) int {
	best := -1
	for i, p := range probes {
		if keep(p) && (best < 0 || probes[best].Value.GreaterThan(p.Value)) {
			best = i
		}
	}
	return best
}

func probeValue[V Variable[V]](probes []Probe[V], pos int) (V, bool) {
	if pos < 0 {
		var zero V
		return zero, false
	}
	return probes[pos].Value, true
}

func preconditionError(name string) error {
	return fmt.Errorf("%w: %s asked for a next value after convergence", ErrPreconditionViolation, name)
}

func validateStep(step float64) error {
	if !(step > 0) {
		return configError("step size must be positive, got %v", step)
	}
	return nil
}

// StrategyName returns a short name for s, used in logs and results.
func StrategyName[V Variable[V]](s Strategy[V]) string {
	if n, ok := s.(interface{ Name() string }); ok {
		return n.Name()
	}
	return fmt.Sprintf("%T", s)
}
