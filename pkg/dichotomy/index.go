package dichotomy

import (
	"fmt"
	"math"
	"slices"
)

// Probe is the payload-free view of a recorded step exposed to strategies.
type Probe[V any] struct {
	Value  V
	Valid  bool
	Reason Reason
}

// View is the read-only access strategies get to a search index.
type View[V Variable[V]] interface {
	MinValue() V
	MaxValue() V
	Precision() float64

	// HighestValid returns the greatest valid value recorded so far.
	HighestValid() (V, bool)
	// LowestInvalid returns the least confidently invalid value recorded so far.
	LowestInvalid() (V, bool)
	// LowestFailure returns the least failed value that is not below the
	// highest valid value. With reasons given, only those reasons count.
	LowestFailure(reasons ...Reason) (V, bool)
	// InadmissibleBound is the lesser of LowestInvalid and LowestFailure.
	InadmissibleBound() (V, bool)

	// Probes returns every recorded probe in chronological order.
	Probes() []Probe[V]
	// Len returns the number of recorded probes.
	Len() int
}

// Index records every probe of one search and tracks the tightest bracket.
//
// It is owned by a single Engine run and is not safe for concurrent use.
// Strategies receive it as a View.
type Index[P any, V Variable[V]] struct {
	minValue  V
	maxValue  V
	precision float64

	tested        []Step[P, V]
	highestValid  int // position in tested, -1 when unset
	lowestInvalid int
}

var _ View[Scalar] = (*Index[struct{}, Scalar])(nil)

// NewIndex creates an empty index over [min, max].
func NewIndex[P any, V Variable[V]](minValue, maxValue V, precision float64) (*Index[P, V], error) {
	if err := minValue.Compatible(maxValue); err != nil {
		return nil, err
	}
	if minValue.GreaterThan(maxValue) {
		return nil, &RangeError{Min: minValue.String(), Max: maxValue.String()}
	}
	if math.IsNaN(precision) || precision <= 0 {
		return nil, configError("precision must be positive, got %v", precision)
	}
	return &Index[P, V]{
		minValue:      minValue,
		maxValue:      maxValue,
		precision:     precision,
		highestValid:  -1,
		lowestInvalid: -1,
	}, nil
}

// MinValue implements View.
func (x *Index[P, V]) MinValue() V { return x.minValue }

// MaxValue implements View.
func (x *Index[P, V]) MaxValue() V { return x.maxValue }

// Precision implements View.
func (x *Index[P, V]) Precision() float64 { return x.precision }

// Len implements View.
func (x *Index[P, V]) Len() int { return len(x.tested) }

// Record appends a probe and updates the bracket.
//
// A valid value below the current highest valid value, or a confidently
// invalid value above the current lowest invalid value, means the evaluation
// is not monotonic; Record then returns an *InvariantError and leaves the
// index unchanged.
func (x *Index[P, V]) Record(value V, outcome Outcome[P]) error {
	if err := x.minValue.Compatible(value); err != nil {
		return err
	}

	pos := len(x.tested)
	switch {
	case outcome.IsValid():
		if x.highestValid >= 0 {
			bound := x.tested[x.highestValid].Value
			if bound.GreaterThan(value) {
				return &InvariantError{Value: value.String(), Bound: bound.String(), Valid: true}
			}
			if value.GreaterThan(bound) {
				x.highestValid = pos
			}
		} else {
			x.highestValid = pos
		}
	case outcome.Reason() == ReasonUnsecureAfterEvaluation:
		if x.lowestInvalid >= 0 {
			bound := x.tested[x.lowestInvalid].Value
			if value.GreaterThan(bound) {
				return &InvariantError{Value: value.String(), Bound: bound.String(), Outcome: outcome.Reason()}
			}
			if bound.GreaterThan(value) {
				x.lowestInvalid = pos
			}
		} else {
			x.lowestInvalid = pos
		}
	}

	x.tested = append(x.tested, Step[P, V]{Value: value, Outcome: outcome})
	return nil
}

// HighestValid implements View.
func (x *Index[P, V]) HighestValid() (V, bool) { return x.valueAt(x.highestValid) }

// LowestInvalid implements View.
func (x *Index[P, V]) LowestInvalid() (V, bool) { return x.valueAt(x.lowestInvalid) }

// LowestFailure implements View.
func (x *Index[P, V]) LowestFailure(reasons ...Reason) (V, bool) {
	return x.valueAt(x.lowestFailure(reasons))
}

// InadmissibleBound implements View.
func (x *Index[P, V]) InadmissibleBound() (V, bool) { return x.valueAt(x.inadmissible()) }

// Probes implements View.
func (x *Index[P, V]) Probes() []Probe[V] {
	out := make([]Probe[V], len(x.tested))
	for i, s := range x.tested {
		out[i] = Probe[V]{Value: s.Value, Valid: s.Outcome.IsValid(), Reason: s.Outcome.Reason()}
	}
	return out
}

// Tested returns a copy of every recorded step, oldest first.
func (x *Index[P, V]) Tested() []Step[P, V] {
	return slices.Clone(x.tested)
}

// HighestValidStep returns the step holding the highest valid value.
func (x *Index[P, V]) HighestValidStep() (Step[P, V], bool) { return x.stepAt(x.highestValid) }

// LowestInvalidStep returns the step holding the lowest confidently invalid value.
func (x *Index[P, V]) LowestInvalidStep() (Step[P, V], bool) { return x.stepAt(x.lowestInvalid) }

// InadmissibleStep returns the step behind InadmissibleBound.
func (x *Index[P, V]) InadmissibleStep() (Step[P, V], bool) { return x.stepAt(x.inadmissible()) }

// LastStep returns the most recent step.
func (x *Index[P, V]) LastStep() (Step[P, V], bool) { return x.stepAt(len(x.tested) - 1) }

// String summarizes the bracket for logs.
func (x *Index[P, V]) String() string {
	lo, hi := "none", "none"
	if v, ok := x.HighestValid(); ok {
		lo = v.String()
	}
	if v, ok := x.InadmissibleBound(); ok {
		hi = v.String()
	}
	return fmt.Sprintf("index[%s..%s] probes=%d valid<=%s invalid>=%s",
		x.minValue, x.maxValue, len(x.tested), lo, hi)
}

func (x *Index[P, V]) lowestFailure(reasons []Reason) int {
	best := -1
	for i, s := range x.tested {
		r := s.Outcome.Reason()
		if !r.IsFailure() {
			continue
		}
		if len(reasons) > 0 && !slices.Contains(reasons, r) {
			continue
		}
		if x.highestValid >= 0 && x.tested[x.highestValid].Value.GreaterThan(s.Value) {
			continue
		}
		if best < 0 || x.tested[best].Value.GreaterThan(s.Value) {
			best = i
		}
	}
	return best
}

func (x *Index[P, V]) inadmissible() int {
	failed := x.lowestFailure(nil)
	switch {
	case failed < 0:
		return x.lowestInvalid
	case x.lowestInvalid < 0:
		return failed
	case x.tested[x.lowestInvalid].Value.GreaterThan(x.tested[failed].Value):
		return failed
	default:
		return x.lowestInvalid
	}
}

func (x *Index[P, V]) valueAt(pos int) (V, bool) {
	if pos < 0 {
		var zero V
		return zero, false
	}
	return x.tested[pos].Value, true
}

func (x *Index[P, V]) stepAt(pos int) (Step[P, V], bool) {
	if pos < 0 {
		return Step[P, V]{}, false
	}
	return x.tested[pos], true
}
