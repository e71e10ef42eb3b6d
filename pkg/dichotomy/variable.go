package dichotomy

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Variable is the coordinate a search moves along.
//
// Implementations must be immutable values. Operations between incompatible
// variables (see Compatible) are programming errors and panic.
type Variable[V any] interface {
	// GreaterThan reports whether the receiver is strictly greater than other.
	GreaterThan(other V) bool
	// DistanceTo returns a non-negative distance to other.
	DistanceTo(other V) float64
	// Midpoint returns the point halfway between the receiver and other.
	Midpoint(other V) V
	// StepToward moves by step in the direction of target without passing it.
	StepToward(target V, step float64) V
	// Clamp bounds the receiver to [lo, hi], component by component.
	Clamp(lo, hi V) V
	// Compatible returns ErrKeyMismatch when other cannot be compared to the receiver.
	Compatible(other V) error
	// String formats the value for logs and results.
	String() string
}

// Scalar is a single real-valued search variable.
type Scalar float64

var _ Variable[Scalar] = Scalar(0)

// GreaterThan implements Variable.
func (s Scalar) GreaterThan(other Scalar) bool { return s > other }

// DistanceTo implements Variable.
func (s Scalar) DistanceTo(other Scalar) float64 { return math.Abs(float64(s - other)) }

// Midpoint implements Variable.
func (s Scalar) Midpoint(other Scalar) Scalar { return (s + other) / 2 }

// StepToward implements Variable.
func (s Scalar) StepToward(target Scalar, step float64) Scalar {
	return Scalar(stepToward(float64(s), float64(target), step))
}

// Clamp implements Variable.
func (s Scalar) Clamp(lo, hi Scalar) Scalar { return max(lo, min(s, hi)) }

// Compatible implements Variable. Scalars are always comparable.
func (s Scalar) Compatible(Scalar) error { return nil }

// String implements Variable.
func (s Scalar) String() string { return strconv.FormatFloat(float64(s), 'g', -1, 64) }

// Float returns the underlying value.
func (s Scalar) Float() float64 { return float64(s) }

// Vector is a named mapping of real values searched as one variable.
//
// The key set is fixed at construction. Ordering is the conjunction over all
// keys, distance is the maximum per-key distance, and midpoints and steps are
// computed per key.
type Vector struct {
	keys   []string
	values map[string]float64
}

var _ Variable[Vector] = Vector{}

// NewVector copies values into a new Vector. An empty mapping is rejected.
func NewVector(values map[string]float64) (Vector, error) {
	if len(values) == 0 {
		return Vector{}, configError("vector variable needs at least one key")
	}
	keys := make([]string, 0, len(values))
	copied := make(map[string]float64, len(values))
	for k, v := range values {
		keys = append(keys, k)
		copied[k] = v
	}
	sort.Strings(keys)
	return Vector{keys: keys, values: copied}, nil
}

// MustVector is like NewVector but panics on error. Intended for literals and tests.
func MustVector(values map[string]float64) Vector {
	v, err := NewVector(values)
	if err != nil {
		panic(err)
	}
	return v
}

// Keys returns the sorted key set.
func (v Vector) Keys() []string {
	out := make([]string, len(v.keys))
	copy(out, v.keys)
	return out
}

// Get returns the value for key.
func (v Vector) Get(key string) (float64, bool) {
	f, ok := v.values[key]
	return f, ok
}

// Values returns a copy of the mapping.
func (v Vector) Values() map[string]float64 {
	out := make(map[string]float64, len(v.values))
	for k, f := range v.values {
		out[k] = f
	}
	return out
}

// Compatible implements Variable.
func (v Vector) Compatible(other Vector) error {
	if len(v.keys) != len(other.keys) {
		return fmt.Errorf("%w: %v vs %v", ErrKeyMismatch, v.keys, other.keys)
	}
	for i, k := range v.keys {
		if other.keys[i] != k {
			return fmt.Errorf("%w: %v vs %v", ErrKeyMismatch, v.keys, other.keys)
		}
	}
	return nil
}

// GreaterThan implements Variable. It holds only if every component is greater.
func (v Vector) GreaterThan(other Vector) bool {
	v.mustMatch(other)
	for _, k := range v.keys {
		if !(v.values[k] > other.values[k]) {
			return false
		}
	}
	return true
}

// DistanceTo implements Variable.
func (v Vector) DistanceTo(other Vector) float64 {
	v.mustMatch(other)
	var d float64
	for _, k := range v.keys {
		d = math.Max(d, math.Abs(v.values[k]-other.values[k]))
	}
	return d
}

// Midpoint implements Variable.
func (v Vector) Midpoint(other Vector) Vector {
	v.mustMatch(other)
	return v.mapKeys(func(k string) float64 {
		return (v.values[k] + other.values[k]) / 2
	})
}

// StepToward implements Variable.
func (v Vector) StepToward(target Vector, step float64) Vector {
	v.mustMatch(target)
	return v.mapKeys(func(k string) float64 {
		return stepToward(v.values[k], target.values[k], step)
	})
}

// Clamp implements Variable.
func (v Vector) Clamp(lo, hi Vector) Vector {
	v.mustMatch(lo)
	v.mustMatch(hi)
	return v.mapKeys(func(k string) float64 {
		return math.Max(lo.values[k], math.Min(v.values[k], hi.values[k]))
	})
}

// String implements Variable.
func (v Vector) String() string {
	parts := make([]string, 0, len(v.keys))
	for _, k := range v.keys {
		parts = append(parts, k+"="+strconv.FormatFloat(v.values[k], 'g', -1, 64))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func (v Vector) mapKeys(fn func(k string) float64) Vector {
	values := make(map[string]float64, len(v.keys))
	for _, k := range v.keys {
		values[k] = fn(k)
	}
	return Vector{keys: v.keys, values: values}
}

func (v Vector) mustMatch(other Vector) {
	if err := v.Compatible(other); err != nil {
		panic(err)
	}
}

func stepToward(from, target, step float64) float64 {
	if target > from {
		return math.Min(from+step, target)
	}
	return math.Max(from-step, target)
}
