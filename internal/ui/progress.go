package ui

import (
	"sync"
	"time"

	"github.com/Aman-CERP/dichotomy/pkg/dichotomy"
)

// ProgressTracker accumulates the state of one search from engine events.
// It is safe for concurrent use.
type ProgressTracker struct {
	mu        sync.RWMutex
	phase     Phase
	info      dichotomy.RunInfo
	startTime time.Time
	iteration int
	last      *dichotomy.ProbeEvent
	lastValid string
	lastBad   string
	failures  int
	summary   *dichotomy.Summary
	errors    []ErrorEvent
	warnings  []ErrorEvent

	// Probe timing, smoothed to keep the ETA stable.
	avgProbe     time.Duration
	slowestProbe time.Duration
	sparkline    *Sparkline
}

// ProbeTiming summarizes probe durations.
type ProbeTiming struct {
	Last    time.Duration
	Avg     time.Duration
	Slowest time.Duration
}

// ProgressStats is a snapshot of the tracked search.
type ProgressStats struct {
	Phase         Phase
	RunID         string
	Strategy      string
	Min, Max      string
	Iteration     int
	MaxIterations int
	// Progress is the share of the iteration budget used, in [0, 1].
	Progress float64
	// ETA bounds the remaining time assuming every remaining probe is used.
	ETA time.Duration
	// LatestValid and LatestInvalid are the most recent probe values of each
	// verdict. Every strategy probes inside the current bracket, so they are
	// its edges.
	LatestValid   string
	LatestInvalid string
	LastProbe     *dichotomy.ProbeEvent
	Failures      int
	ErrorCount    int
	WarnCount     int
	Timing        ProbeTiming
}

// NewProgressTracker creates a new progress tracker.
func NewProgressTracker() *ProgressTracker {
	return &ProgressTracker{
		startTime: time.Now(),
		sparkline: NewSparkline(60),
	}
}

// Start resets the tracker for a new search.
func (p *ProgressTracker) Start(info dichotomy.RunInfo) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.phase = PhaseStarting
	p.info = info
	p.startTime = time.Now()
	p.iteration = 0
	p.last = nil
	p.lastValid, p.lastBad = "", ""
	p.failures = 0
	p.summary = nil
	p.avgProbe, p.slowestProbe = 0, 0
	p.sparkline.Clear()
}

// probeSmoothingFactor weights the newest probe in the running average.
const probeSmoothingFactor = 0.3

// Record adds a completed probe.
func (p *ProgressTracker) Record(ev dichotomy.ProbeEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.phase = PhaseSearching
	p.iteration = ev.Iteration
	p.last = &ev
	switch {
	case ev.Valid:
		p.lastValid = ev.Value
	case ev.Reason.IsFailure():
		p.failures++
		p.lastBad = ev.Value
	default:
		p.lastBad = ev.Value
	}

	if p.avgProbe == 0 {
		p.avgProbe = ev.Duration
	} else {
		p.avgProbe = time.Duration(probeSmoothingFactor*float64(ev.Duration) +
			(1-probeSmoothingFactor)*float64(p.avgProbe))
	}
	p.slowestProbe = max(p.slowestProbe, ev.Duration)
	p.sparkline.Add(ev.Duration.Seconds())
}

// Finish marks the search complete.
func (p *ProgressTracker) Finish(s dichotomy.Summary) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.phase = PhaseComplete
	p.summary = &s
}

// AddError records an error or warning.
func (p *ProgressTracker) AddError(event ErrorEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if event.IsWarn {
		p.warnings = append(p.warnings, event)
	} else {
		p.errors = append(p.errors, event)
	}
}

// Summary returns the final summary, nil while the search runs.
func (p *ProgressTracker) Summary() *dichotomy.Summary {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.summary
}

// Elapsed returns time since the search started.
func (p *ProgressTracker) Elapsed() time.Duration {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return time.Since(p.startTime)
}

// Stats returns a snapshot of the tracked search.
func (p *ProgressTracker) Stats() ProgressStats {
	p.mu.RLock()
	defer p.mu.RUnlock()

	progress := 0.0
	if p.info.MaxIterations > 0 {
		progress = min(float64(p.iteration)/float64(p.info.MaxIterations), 1.0)
	}
	if p.phase == PhaseComplete {
		progress = 1.0
	}

	stats := ProgressStats{
		Phase:         p.phase,
		RunID:         p.info.RunID,
		Strategy:      p.info.Strategy,
		Min:           p.info.Min,
		Max:           p.info.Max,
		Iteration:     p.iteration,
		MaxIterations: p.info.MaxIterations,
		Progress:      progress,
		ETA:           p.calculateETA(),
		LatestValid:   p.lastValid,
		LatestInvalid: p.lastBad,
		Failures:      p.failures,
		ErrorCount:    len(p.errors),
		WarnCount:     len(p.warnings),
		Timing:        ProbeTiming{Avg: p.avgProbe, Slowest: p.slowestProbe},
	}
	if p.last != nil {
		last := *p.last
		stats.LastProbe = &last
		stats.Timing.Last = last.Duration
	}
	return stats
}

// calculateETA must be called with the lock held.
func (p *ProgressTracker) calculateETA() time.Duration {
	if p.phase != PhaseSearching || p.avgProbe == 0 {
		return 0
	}
	remaining := p.info.MaxIterations - p.iteration
	if remaining <= 0 {
		return 0
	}
	return time.Duration(remaining) * p.avgProbe
}

// Errors returns the recorded errors.
func (p *ProgressTracker) Errors() []ErrorEvent {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]ErrorEvent(nil), p.errors...)
}

// Warnings returns the recorded warnings.
func (p *ProgressTracker) Warnings() []ErrorEvent {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]ErrorEvent(nil), p.warnings...)
}

// RenderSparkline draws the recent probe durations.
func (p *ProgressTracker) RenderSparkline(width int) string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.sparkline.Render(width)
}
