package dichotomy

// BiDirectionalStepsWithReference extends BiDirectionalSteps with a reference
// value used to place resource limitations in the bracket.
//
// A resource limitation below the reference means the scenario cannot be
// pushed further down, so the closest one acts as an admissible edge. A
// resource limitation at or above the reference means it cannot be pushed
// further up, so the closest one acts as an inadmissible edge. Each competes with the
// ordinary verdicts: the admissible edge is the greater of the highest valid
// value and the limitation below the reference, the inadmissible edge the
// lesser of the lowest invalid or failed value and the limitation above it.
//
// Only one reference is supported. Per-dimension references for vector
// variables are not defined.
type BiDirectionalStepsWithReference[V Variable[V]] struct {
	start     V
	reference V
	stepSize  float64
}

var _ Bracketer[Scalar] = (*BiDirectionalStepsWithReference[Scalar])(nil)

// NewBiDirectionalStepsWithReference returns the strategy. stepSize must be
// positive and start and reference must be comparable.
func NewBiDirectionalStepsWithReference[V Variable[V]](start, reference V, stepSize float64) (*BiDirectionalStepsWithReference[V], error) {
	if err := validateStep(stepSize); err != nil {
		return nil, err
	}
	if err := start.Compatible(reference); err != nil {
		return nil, err
	}
	return &BiDirectionalStepsWithReference[V]{start: start, reference: reference, stepSize: stepSize}, nil
}

// Name identifies the strategy in logs.
func (s *BiDirectionalStepsWithReference[V]) Name() string {
	return "bidirectional-steps-with-reference"
}

// Reference returns the reference value.
func (s *BiDirectionalStepsWithReference[V]) Reference() V { return s.reference }

// Converged implements Strategy.
func (s *BiDirectionalStepsWithReference[V]) Converged(view View[V]) bool {
	return s.bracket(view).converged(view)
}

// NextValue implements Strategy.
func (s *BiDirectionalStepsWithReference[V]) NextValue(view View[V]) (V, error) {
	b := s.bracket(view)
	if b.converged(view) {
		var zero V
		return zero, preconditionError(s.Name())
	}
	return stepBracket(view, b, s.start, s.stepSize)
}

// LimitationBelow returns the resource-limited value closest to the
// reference from below.
func (s *BiDirectionalStepsWithReference[V]) LimitationBelow(view View[V]) (V, bool) {
	probes := view.Probes()
	return probeValue(probes, highestWhere(probes, s.belowReference))
}

// LimitationAbove returns the resource-limited value closest to the
// reference from above. A limitation at the reference counts as above it.
func (s *BiDirectionalStepsWithReference[V]) LimitationAbove(view View[V]) (V, bool) {
	probes := view.Probes()
	return probeValue(probes, lowestWhere(probes, s.notBelowReference))
}

// Bracket implements Bracketer. Failed evaluations and limitations lying
// below the highest valid value do not count toward the inadmissible edge.
func (s *BiDirectionalStepsWithReference[V]) Bracket(view View[V]) (low, high int) {
	probes := view.Probes()
	valid := highestWhere(probes, func(p Probe[V]) bool { return p.Valid })
	low = valid
	if below := highestWhere(probes, s.belowReference); below >= 0 &&
		(low < 0 || probes[below].Value.GreaterThan(probes[low].Value)) {
		low = below
	}

	aboveValid := func(p Probe[V]) bool {
		return valid < 0 || !probes[valid].Value.GreaterThan(p.Value)
	}
	high = lowestWhere(probes, func(p Probe[V]) bool { return p.Reason == ReasonUnsecureAfterEvaluation })
	for _, keep := range []func(Probe[V]) bool{
		func(p Probe[V]) bool { return p.Reason == ReasonEvaluationFailed && aboveValid(p) },
		func(p Probe[V]) bool { return s.notBelowReference(p) && aboveValid(p) },
	} {
		if c := lowestWhere(probes, keep); c >= 0 && (high < 0 || probes[high].Value.GreaterThan(probes[c].Value)) {
			high = c
		}
	}
	return low, high
}

func (s *BiDirectionalStepsWithReference[V]) belowReference(p Probe[V]) bool {
	return p.Reason == ReasonResourceLimitation && s.reference.GreaterThan(p.Value)
}

func (s *BiDirectionalStepsWithReference[V]) notBelowReference(p Probe[V]) bool {
	return p.Reason == ReasonResourceLimitation && !s.reference.GreaterThan(p.Value)
}

func (s *BiDirectionalStepsWithReference[V]) bracket(view View[V]) bracket[V] {
	low, high := s.Bracket(view)
	probes := view.Probes()
	var b bracket[V]
	b.low, b.hasLow = probeValue(probes, low)
	b.high, b.hasHigh = probeValue(probes, high)
	return b
}
