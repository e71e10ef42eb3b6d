package runner

import (
	"fmt"

	"github.com/Aman-CERP/dichotomy/internal/config"
	derrors "github.com/Aman-CERP/dichotomy/internal/errors"
	"github.com/Aman-CERP/dichotomy/pkg/dichotomy"
)

// PointFunc converts a configured point to a search variable.
type PointFunc[V dichotomy.Variable[V]] func(config.Point) (V, error)

// ScalarPoint converts a number point.
func ScalarPoint(p config.Point) (dichotomy.Scalar, error) {
	if p.IsVector() {
		return 0, derrors.ConfigError(fmt.Sprintf("expected a number, got %s", p), nil)
	}
	return dichotomy.Scalar(p.Scalar), nil
}

// VectorPoint converts a mapping point.
func VectorPoint(p config.Point) (dichotomy.Vector, error) {
	if !p.IsVector() {
		return dichotomy.Vector{}, derrors.ConfigError(fmt.Sprintf("expected a mapping, got %s", p), nil)
	}
	v, err := dichotomy.NewVector(p.Vector)
	if err != nil {
		return dichotomy.Vector{}, derrors.Translate(err)
	}
	return v, nil
}

// BuildStrategy creates the configured strategy.
func BuildStrategy[V dichotomy.Variable[V]](s config.SearchConfig, point PointFunc[V]) (dichotomy.Strategy[V], error) {
	optional := func(p *config.Point, name string) (V, error) {
		if p == nil {
			var zero V
			return zero, derrors.ConfigError(fmt.Sprintf("search.%s is required for strategy %s", name, s.Strategy), nil)
		}
		return point(*p)
	}

	var (
		strategy dichotomy.Strategy[V]
		err      error
	)
	switch s.Strategy {
	case config.StrategyRangeDivision:
		strategy = dichotomy.RangeDivision[V]{StartWithMin: s.StartWithMin}
	case config.StrategyHalfRangeDivision:
		strategy = dichotomy.HalfRangeDivision[V]{StartWithMin: s.StartWithMin}
	case config.StrategySteps:
		strategy, err = dichotomy.NewSteps[V](s.StartWithMin, s.StepSize)
	case config.StrategyBiDirectionalSteps:
		start, perr := optional(s.Start, "start")
		if perr != nil {
			return nil, perr
		}
		strategy, err = dichotomy.NewBiDirectionalSteps(start, s.StepSize)
	case config.StrategyBiDirectionalReference:
		start, perr := optional(s.Start, "start")
		if perr != nil {
			return nil, perr
		}
		ref, perr := optional(s.Reference, "reference")
		if perr != nil {
			return nil, perr
		}
		strategy, err = dichotomy.NewBiDirectionalStepsWithReference(start, ref, s.StepSize)
	default:
		return nil, derrors.New(derrors.ErrCodeUnknownOption,
			fmt.Sprintf("unknown strategy %q", s.Strategy), nil).
			WithSuggestion("Use one of: " + fmt.Sprint(config.Strategies))
	}
	if err != nil {
		return nil, derrors.Translate(err)
	}
	return strategy, nil
}
