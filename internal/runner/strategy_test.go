package runner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/dichotomy/internal/config"
	derrors "github.com/Aman-CERP/dichotomy/internal/errors"
	"github.com/Aman-CERP/dichotomy/pkg/dichotomy"
)

func TestBuildStrategy(t *testing.T) {
	start := &config.Point{Scalar: 0}
	ref := &config.Point{Scalar: 100}

	tests := []struct {
		name     string
		search   config.SearchConfig
		wantName string
		wantCode string
	}{
		{"range division", config.SearchConfig{Strategy: config.StrategyRangeDivision}, "range-division", ""},
		{"half range division", config.SearchConfig{Strategy: config.StrategyHalfRangeDivision}, "half-range-division", ""},
		{"steps", config.SearchConfig{Strategy: config.StrategySteps, StepSize: 10}, "steps", ""},
		{"bidirectional", config.SearchConfig{Strategy: config.StrategyBiDirectionalSteps, StepSize: 10, Start: start}, "bidirectional-steps", ""},
		{"with reference", config.SearchConfig{Strategy: config.StrategyBiDirectionalReference, StepSize: 10, Start: start, Reference: ref}, "bidirectional-steps-with-reference", ""},
		{"unknown", config.SearchConfig{Strategy: "golden-section"}, "", derrors.ErrCodeUnknownOption},
		{"missing start", config.SearchConfig{Strategy: config.StrategyBiDirectionalSteps, StepSize: 10}, "", derrors.ErrCodeConfigInvalid},
		{"missing reference", config.SearchConfig{Strategy: config.StrategyBiDirectionalReference, StepSize: 10, Start: start}, "", derrors.ErrCodeConfigInvalid},
		{"zero step", config.SearchConfig{Strategy: config.StrategySteps}, "", derrors.ErrCodeConfigInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := BuildStrategy(tt.search, ScalarPoint)
			if tt.wantCode != "" {
				require.Error(t, err)
				assert.Equal(t, tt.wantCode, derrors.GetCode(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, dichotomy.StrategyName(s))
		})
	}
}

func TestPointConversions(t *testing.T) {
	s, err := ScalarPoint(config.Point{Scalar: 2.5})
	require.NoError(t, err)
	assert.Equal(t, dichotomy.Scalar(2.5), s)

	_, err = ScalarPoint(config.Point{Vector: map[string]float64{"a": 1}})
	assert.Error(t, err)

	v, err := VectorPoint(config.Point{Vector: map[string]float64{"a": 1, "b": 2}})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, v.Keys())

	_, err = VectorPoint(config.Point{Scalar: 1})
	assert.Error(t, err)
}
