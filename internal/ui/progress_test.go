package ui

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/dichotomy/pkg/dichotomy"
)

func startedTracker() *ProgressTracker {
	p := NewProgressTracker()
	p.Start(dichotomy.RunInfo{RunID: "r1", Strategy: "range-division", Min: "0", Max: "100", MaxIterations: 10})
	return p
}

func TestProgressTracker_StartsEmpty(t *testing.T) {
	stats := startedTracker().Stats()

	assert.Equal(t, PhaseStarting, stats.Phase)
	assert.Equal(t, "r1", stats.RunID)
	assert.Equal(t, 10, stats.MaxIterations)
	assert.Zero(t, stats.Progress)
	assert.Zero(t, stats.ETA)
	assert.Nil(t, stats.LastProbe)
}

func TestProgressTracker_TracksBracketEdges(t *testing.T) {
	// Given: a started search
	p := startedTracker()

	// When: probes of each verdict are recorded
	p.Record(dichotomy.ProbeEvent{Iteration: 1, Value: "0", Valid: true, Duration: 10 * time.Millisecond})
	p.Record(dichotomy.ProbeEvent{Iteration: 2, Value: "100", Reason: dichotomy.ReasonUnsecureAfterEvaluation, Duration: 10 * time.Millisecond})
	p.Record(dichotomy.ProbeEvent{Iteration: 3, Value: "50", Valid: true, Duration: 10 * time.Millisecond})
	p.Record(dichotomy.ProbeEvent{Iteration: 4, Value: "75", Reason: dichotomy.ReasonEvaluationFailed, Duration: 10 * time.Millisecond})

	// Then: the latest value of each verdict is reported
	stats := p.Stats()
	assert.Equal(t, PhaseSearching, stats.Phase)
	assert.Equal(t, "50", stats.LatestValid)
	assert.Equal(t, "75", stats.LatestInvalid)
	assert.Equal(t, 1, stats.Failures)
	assert.InDelta(t, 0.4, stats.Progress, 1e-9)
	require.NotNil(t, stats.LastProbe)
	assert.Equal(t, "75", stats.LastProbe.Value)
}

func TestProgressTracker_ETAFromProbeDurations(t *testing.T) {
	p := startedTracker()

	p.Record(dichotomy.ProbeEvent{Iteration: 1, Valid: true, Duration: 100 * time.Millisecond})
	assert.Equal(t, 900*time.Millisecond, p.Stats().ETA)

	// The average moves by the smoothing factor only.
	p.Record(dichotomy.ProbeEvent{Iteration: 2, Valid: true, Duration: 200 * time.Millisecond})
	stats := p.Stats()
	assert.InDelta(t, float64(130*time.Millisecond), float64(stats.Timing.Avg), float64(time.Microsecond))
	assert.Equal(t, 200*time.Millisecond, stats.Timing.Slowest)
	assert.Equal(t, 200*time.Millisecond, stats.Timing.Last)
	assert.InDelta(t, float64(8*130*time.Millisecond), float64(stats.ETA), float64(10*time.Microsecond))
}

func TestProgressTracker_Finish(t *testing.T) {
	p := startedTracker()
	p.Record(dichotomy.ProbeEvent{Iteration: 1, Valid: true, Duration: time.Millisecond})
	assert.Nil(t, p.Summary())

	p.Finish(dichotomy.Summary{RunID: "r1", Termination: dichotomy.TerminationConverged})

	stats := p.Stats()
	assert.Equal(t, PhaseComplete, stats.Phase)
	assert.Equal(t, 1.0, stats.Progress)
	assert.Zero(t, stats.ETA)
	require.NotNil(t, p.Summary())
	assert.Equal(t, dichotomy.TerminationConverged, p.Summary().Termination)
}

func TestProgressTracker_ErrorsAndWarnings(t *testing.T) {
	p := startedTracker()
	p.AddError(ErrorEvent{Source: "export", Err: errors.New("disk full")})
	p.AddError(ErrorEvent{Source: "history", Err: errors.New("busy"), IsWarn: true})
	p.AddError(ErrorEvent{Source: "history", Err: errors.New("busy"), IsWarn: true})

	stats := p.Stats()
	assert.Equal(t, 1, stats.ErrorCount)
	assert.Equal(t, 2, stats.WarnCount)
	assert.Len(t, p.Errors(), 1)
	assert.Len(t, p.Warnings(), 2)
}

func TestProgressTracker_StartResets(t *testing.T) {
	p := startedTracker()
	p.Record(dichotomy.ProbeEvent{Iteration: 1, Value: "3", Valid: true, Duration: time.Second})

	p.Start(dichotomy.RunInfo{RunID: "r2", MaxIterations: 5})

	stats := p.Stats()
	assert.Equal(t, "r2", stats.RunID)
	assert.Empty(t, stats.LatestValid)
	assert.Zero(t, stats.Timing.Avg)
	assert.Less(t, p.Elapsed(), time.Second)
}

func TestSparkline_Render(t *testing.T) {
	s := NewSparkline(4)
	assert.Equal(t, "▁▁▁▁", s.Render(0))

	s.Add(3.5)
	s.Add(7)
	assert.Equal(t, "▄█  ", s.Render(4))
	assert.Equal(t, 2, s.Count())

	for _, v := range []float64{0, 7, 7, 7} {
		s.Add(v)
	}
	assert.Equal(t, "▁███", s.Render(4))
	assert.Equal(t, "██", s.Render(2))
	assert.Equal(t, 7.0, s.Max())

	s.Clear()
	assert.Zero(t, s.Count())
}
