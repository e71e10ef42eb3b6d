package scenario

import (
	"context"
	"fmt"

	"github.com/Aman-CERP/dichotomy/pkg/dichotomy"
)

// Coordinates maps a search value to the exchange it stands for.
type Coordinates[V dichotomy.Variable[V]] func(V) map[string]float64

// ScalarCoordinates places a scalar value on DefaultKey.
func ScalarCoordinates(v dichotomy.Scalar) map[string]float64 {
	return map[string]float64{DefaultKey: v.Float()}
}

// VectorCoordinates uses the vector components as exchange keys.
func VectorCoordinates(v dichotomy.Vector) map[string]float64 {
	return v.Values()
}

// Shifter applies a target exchange to the active view of a Network.
type Shifter[V dichotomy.Variable[V]] struct {
	coords Coordinates[V]
}

var _ dichotomy.Shifter[dichotomy.Scalar] = (*Shifter[dichotomy.Scalar])(nil)

// NewShifter returns a shifter translating values with coords.
func NewShifter[V dichotomy.Variable[V]](coords Coordinates[V]) *Shifter[V] {
	return &Shifter[V]{coords: coords}
}

// Shift implements dichotomy.Shifter. A target outside the model's shift
// limits is a resource limitation and leaves the view untouched.
func (s *Shifter[V]) Shift(ctx context.Context, target V, sc dichotomy.Scenario) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	network, ok := sc.(*Network)
	if !ok {
		return fmt.Errorf("shift: unsupported scenario type %T", sc)
	}

	exchange := s.coords(target)
	for key, value := range exchange {
		limit, bounded := network.model.ShiftLimits[key]
		if !bounded {
			continue
		}
		if value < limit.Min || value > limit.Max {
			return fmt.Errorf("%w: cannot reach %s=%g, shiftable range is [%g, %g]",
				dichotomy.ErrResourceLimitation, key, value, limit.Min, limit.Max)
		}
	}
	network.setExchange(exchange)
	return nil
}
