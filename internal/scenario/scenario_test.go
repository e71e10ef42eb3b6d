package scenario

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	derrors "github.com/Aman-CERP/dichotomy/internal/errors"
	"github.com/Aman-CERP/dichotomy/pkg/dichotomy"
)

// twoLineModel is secure for exchange in [-1000, 600].
func twoLineModel() Model {
	return Model{
		Name: "two-line",
		Lines: []Line{
			{ID: "L1", BaseFlow: 100, Sensitivity: map[string]float64{DefaultKey: 0.5}, Limit: 400},
			{ID: "L2", BaseFlow: -50, Sensitivity: map[string]float64{DefaultKey: -0.2}, Limit: 300},
		},
	}
}

func TestModel_FlowsAndAssessment(t *testing.T) {
	m := twoLineModel()

	flows := m.Flows(map[string]float64{DefaultKey: 200})
	assert.InDelta(t, 200.0, flows["L1"], 1e-9)
	assert.InDelta(t, -90.0, flows["L2"], 1e-9)

	a := m.assess(map[string]float64{DefaultKey: 200})
	assert.Equal(t, "L1", a.LimitingLine)
	assert.InDelta(t, 200.0, a.Margin, 1e-9)
	assert.True(t, a.Secure())

	a = m.assess(map[string]float64{DefaultKey: 700})
	assert.Equal(t, "L1", a.LimitingLine)
	assert.False(t, a.Secure())
}

func TestModel_Keys(t *testing.T) {
	m := Model{Lines: []Line{
		{ID: "a", Sensitivity: map[string]float64{"north": 1, "south": 1}},
		{ID: "b", Sensitivity: map[string]float64{"east": 1}},
	}}
	assert.Equal(t, []string{"east", "north", "south"}, m.Keys())
	assert.NoError(t, m.CheckKeys([]string{"east", "north", "south"}))
	assert.Error(t, m.CheckKeys([]string{"north", "south"}))

	m.Bands = []Band{{Key: "west"}}
	assert.ErrorContains(t, m.CheckKeys([]string{"east", "north", "south"}), "west")
}

func TestNetwork_ViewContract(t *testing.T) {
	n := NewNetwork(twoLineModel())
	assert.Equal(t, BaseView, n.CurrentView())

	require.NoError(t, n.CloneView(BaseView, "work"))
	assert.Error(t, n.CloneView(BaseView, "work"), "duplicate target")
	assert.Error(t, n.CloneView("missing", "other"))

	require.NoError(t, n.SwitchView("work"))
	n.setExchange(map[string]float64{DefaultKey: 42})
	assert.Equal(t, map[string]float64{DefaultKey: 42}, n.Exchange())

	assert.Error(t, n.RemoveView("work"), "active view cannot be removed")
	require.NoError(t, n.SwitchView(BaseView))
	assert.Empty(t, n.Exchange(), "base view is untouched")

	require.NoError(t, n.RemoveView("work"))
	assert.Equal(t, []string{BaseView}, n.Views())
	assert.Error(t, n.SwitchView("work"))
}

func TestShifter_ResourceLimitation(t *testing.T) {
	// Given: a model that can only export up to 800
	m := twoLineModel()
	m.ShiftLimits = map[string]Range{DefaultKey: {Min: -500, Max: 800}}
	n := NewNetwork(m)
	s := NewShifter(ScalarCoordinates)

	// When/Then: targets inside the range are applied
	require.NoError(t, s.Shift(context.Background(), 800, n))
	assert.Equal(t, 800.0, n.Exchange()[DefaultKey])

	// targets outside are refused and the view is kept
	err := s.Shift(context.Background(), 801, n)
	require.ErrorIs(t, err, dichotomy.ErrResourceLimitation)
	assert.Contains(t, err.Error(), "exchange=801")
	assert.Equal(t, 800.0, n.Exchange()[DefaultKey])

	assert.ErrorIs(t, s.Shift(context.Background(), -501, n), dichotomy.ErrResourceLimitation)
}

func TestShifter_RejectsForeignScenario(t *testing.T) {
	s := NewShifter(ScalarCoordinates)
	err := s.Shift(context.Background(), 1, foreignScenario{})
	require.Error(t, err)
	assert.NotErrorIs(t, err, dichotomy.ErrResourceLimitation)
}

func TestEvaluator_Verdicts(t *testing.T) {
	n := NewNetwork(twoLineModel())
	e := &Evaluator{}

	tests := []struct {
		name     string
		exchange float64
		valid    bool
		reason   dichotomy.Reason
		limiting string
	}{
		{"secure", 0, true, dichotomy.ReasonNone, "L2"},
		{"at limit", 600, true, dichotomy.ReasonNone, "L1"},
		{"overloaded", 601, false, dichotomy.ReasonUnsecureAfterEvaluation, "L1"},
		{"reverse overload", -1001, false, dichotomy.ReasonUnsecureAfterEvaluation, "L1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n.setExchange(map[string]float64{DefaultKey: tt.exchange})
			out, err := e.Evaluate(context.Background(), n, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.valid, out.IsValid())
			assert.Equal(t, tt.reason, out.Reason())
			a, ok := out.Payload()
			require.True(t, ok)
			assert.Equal(t, tt.limiting, a.LimitingLine)
			assert.False(t, a.WarmStart)
		})
	}
}

func TestEvaluator_WarmStart(t *testing.T) {
	n := NewNetwork(twoLineModel())
	prev := dichotomy.Valid(Assessment{})
	out, err := (&Evaluator{}).Evaluate(context.Background(), n, &prev)
	require.NoError(t, err)
	a, _ := out.Payload()
	assert.True(t, a.WarmStart)
}

func TestEvaluator_FailureBands(t *testing.T) {
	m := twoLineModel()
	m.Bands = []Band{
		{Key: DefaultKey, From: 100, To: 200, Message: "diverged"},
		{Key: DefaultKey, From: 300, To: 300, Fatal: true},
	}
	n := NewNetwork(m)
	e := &Evaluator{}

	n.setExchange(map[string]float64{DefaultKey: 150})
	out, err := e.Evaluate(context.Background(), n, nil)
	require.NoError(t, err)
	assert.Equal(t, dichotomy.ReasonEvaluationFailed, out.Reason())
	assert.Equal(t, "diverged", out.Message())

	n.setExchange(map[string]float64{DefaultKey: 300})
	_, err = e.Evaluate(context.Background(), n, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load flow crashed")
	assert.NotErrorIs(t, err, dichotomy.ErrEvaluationFailed)
}

func TestEvaluator_LatencyHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := (&Evaluator{Latency: time.Hour}).Evaluate(ctx, NewNetwork(twoLineModel()), nil)
	require.ErrorIs(t, err, dichotomy.ErrInterrupted)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDirExporter_WritesSnapshot(t *testing.T) {
	dir := t.TempDir()
	n := NewNetwork(twoLineModel())
	require.NoError(t, n.CloneView(BaseView, "run-probe-3"))
	require.NoError(t, n.SwitchView("run-probe-3"))
	n.setExchange(map[string]float64{DefaultKey: 700})

	x := NewDirExporter(dir, 3)
	require.NoError(t, x.Export(context.Background(), n, "run", dichotomy.ReasonEvaluationFailed))

	path := filepath.Join(dir, "run", "run-probe-3-evaluation_failed.yaml")
	assert.Equal(t, path, x.Path("run", "run-probe-3", dichotomy.ReasonEvaluationFailed))
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var snap Snapshot
	require.NoError(t, yaml.Unmarshal(data, &snap))
	assert.Equal(t, "run", snap.RunID)
	assert.Equal(t, "run-probe-3", snap.View)
	assert.Equal(t, "EVALUATION_FAILED", snap.Reason)
	assert.Equal(t, 700.0, snap.Exchange[DefaultKey])
	assert.Equal(t, "L1", snap.Assessment.LimitingLine)
}

func TestDirExporter_BreakerOpensOnRepeatedFailures(t *testing.T) {
	// Given: an export directory that is a regular file
	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))
	x := NewDirExporter(blocker, 2)
	n := NewNetwork(twoLineModel())

	// When: exporting repeatedly
	for i := 0; i < 2; i++ {
		err := x.Export(context.Background(), n, "run", dichotomy.ReasonResourceLimitation)
		require.Error(t, err)
		assert.Equal(t, derrors.ErrCodeExportFailed, derrors.GetCode(err))
	}

	// Then: the breaker stops trying
	err := x.Export(context.Background(), n, "run", dichotomy.ReasonResourceLimitation)
	assert.True(t, errors.Is(err, derrors.ErrCircuitOpen))
}

func TestEngineOverNetwork_FindsThermalBoundary(t *testing.T) {
	// Given: a network secure up to an exchange of 600
	n := NewNetwork(twoLineModel())
	engine, err := dichotomy.NewEngine(dichotomy.EngineConfig[Assessment, dichotomy.Scalar]{
		Min:           -1000,
		Max:           1000,
		Precision:     200,
		MaxIterations: 20,
		Strategy:      dichotomy.RangeDivision[dichotomy.Scalar]{StartWithMin: true},
		Shifter:       NewShifter(ScalarCoordinates),
		Evaluator:     &Evaluator{},
	})
	require.NoError(t, err)

	// When: running the search
	result, err := engine.Run(context.Background(), n)
	require.NoError(t, err)

	// Then: the bracket is [500, 625] and the base view is untouched
	hv, ok := result.HighestValid()
	require.True(t, ok)
	li, ok := result.LowestInvalid()
	require.True(t, ok)
	assert.Equal(t, dichotomy.Scalar(500), hv.Value)
	assert.Equal(t, dichotomy.Scalar(625), li.Value)
	assert.Equal(t, dichotomy.CauseCriticalBranch, result.LimitingCause())
	assert.Equal(t, BaseView, n.CurrentView())
	assert.Equal(t, []string{BaseView}, n.Views())
	assert.Empty(t, n.Exchange())
}

func TestEngineOverNetwork_ResourceLimitationIsLimitingCause(t *testing.T) {
	// Given: a network that cannot be shifted beyond 300
	m := twoLineModel()
	m.ShiftLimits = map[string]Range{DefaultKey: {Min: -1000, Max: 300}}
	n := NewNetwork(m)
	exportDir := t.TempDir()
	engine, err := dichotomy.NewEngine(dichotomy.EngineConfig[Assessment, dichotomy.Scalar]{
		Min:           -1000,
		Max:           1000,
		Precision:     100,
		MaxIterations: 20,
		Strategy:      dichotomy.RangeDivision[dichotomy.Scalar]{StartWithMin: true},
		Shifter:       NewShifter(ScalarCoordinates),
		Evaluator:     &Evaluator{},
	}, dichotomy.WithExporter(NewDirExporter(exportDir, 3)), dichotomy.WithRunID("limited"))
	require.NoError(t, err)

	// When: running the search
	result, err := engine.Run(context.Background(), n)
	require.NoError(t, err)

	// Then: the limitation bounds the result and each failed probe was exported
	assert.Equal(t, dichotomy.CauseResourceLimitation, result.LimitingCause())
	assert.Contains(t, result.LimitingMessage(), "cannot reach exchange=")
	entries, err := os.ReadDir(filepath.Join(exportDir, "limited"))
	require.NoError(t, err)
	assert.NotEmpty(t, entries)
}

func TestEngineOverNetwork_VectorSearch(t *testing.T) {
	// Given: one line loaded by two areas
	m := Model{Lines: []Line{{
		ID:          "tie",
		Sensitivity: map[string]float64{"north": 1, "south": 1},
		Limit:       1000,
	}}}
	n := NewNetwork(m)
	engine, err := dichotomy.NewEngine(dichotomy.EngineConfig[Assessment, dichotomy.Vector]{
		Min:           dichotomy.MustVector(map[string]float64{"north": 0, "south": 0}),
		Max:           dichotomy.MustVector(map[string]float64{"north": 1000, "south": 1000}),
		Precision:     50,
		MaxIterations: 20,
		Strategy:      dichotomy.RangeDivision[dichotomy.Vector]{StartWithMin: true},
		Shifter:       NewShifter(VectorCoordinates),
		Evaluator:     &Evaluator{},
	})
	require.NoError(t, err)

	// When: running the search
	result, err := engine.Run(context.Background(), n)
	require.NoError(t, err)

	// Then: the boundary at north+south=1000 is bracketed
	hv, ok := result.HighestValid()
	require.True(t, ok)
	li, ok := result.LowestInvalid()
	require.True(t, ok)
	north, _ := hv.Value.Get("north")
	assert.LessOrEqual(t, north, 500.0)
	assert.Less(t, hv.Value.DistanceTo(li.Value), 50.0)
	assert.Equal(t, dichotomy.CauseCriticalBranch, result.LimitingCause())
}

type foreignScenario struct{}

func (foreignScenario) CurrentView() string         { return "x" }
func (foreignScenario) CloneView(_, _ string) error { return nil }
func (foreignScenario) SwitchView(string) error     { return nil }
func (foreignScenario) RemoveView(string) error     { return nil }
