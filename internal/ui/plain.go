package ui

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/Aman-CERP/dichotomy/pkg/dichotomy"
)

// PlainRenderer outputs plain text progress (for CI/pipes).
type PlainRenderer struct {
	mu      sync.Mutex
	out     io.Writer
	title   string
	tracker *ProgressTracker
}

var _ Renderer = (*PlainRenderer)(nil)

// NewPlainRenderer creates a plain text renderer.
func NewPlainRenderer(cfg Config) *PlainRenderer {
	return &PlainRenderer{
		out:     cfg.Output,
		title:   cfg.Title,
		tracker: NewProgressTracker(),
	}
}

// Start implements Renderer.
func (r *PlainRenderer) Start(ctx context.Context) error {
	return nil
}

// RunStarted implements dichotomy.Observer.
func (r *PlainRenderer) RunStarted(_ context.Context, info dichotomy.RunInfo) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.tracker.Start(info)
	title := ""
	if r.title != "" {
		title = r.title + " "
	}
	_, _ = fmt.Fprintf(r.out, "[%s] %srun=%s strategy=%s range=[%s, %s] precision=%g max_iterations=%d\n",
		PhaseStarting.Icon(), title, info.RunID, info.Strategy, info.Min, info.Max, info.Precision, info.MaxIterations)
}

// ProbeCompleted implements dichotomy.Observer.
//
// Format: [PROBE] iteration/max value -> verdict (duration)
func (r *PlainRenderer) ProbeCompleted(_ context.Context, ev dichotomy.ProbeEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.tracker.Record(ev)
	verdict := "valid"
	if !ev.Valid {
		verdict = ev.Reason.String()
	}
	line := fmt.Sprintf("[%s] %d/%d %s -> %s (%s)", PhaseSearching.Icon(), ev.Iteration,
		r.tracker.Stats().MaxIterations, ev.Value, verdict, formatDuration(ev.Duration))
	if ev.Message != "" {
		line += ": " + ev.Message
	}
	_, _ = fmt.Fprintln(r.out, line)
}

// RunFinished implements dichotomy.Observer.
func (r *PlainRenderer) RunFinished(_ context.Context, s dichotomy.Summary) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.tracker.Finish(s)
	_, _ = fmt.Fprintf(r.out, "[%s] %s\n", PhaseComplete.Icon(), s.Termination)
	_, _ = fmt.Fprint(r.out, RenderSummary(s, NoColorStyles(), 0))
}

// AddError implements Renderer.
func (r *PlainRenderer) AddError(event ErrorEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.tracker.AddError(event)

	prefix := "ERROR"
	if event.IsWarn {
		prefix = "WARN"
	}
	if event.Source != "" {
		_, _ = fmt.Fprintf(r.out, "%s: %s: %v\n", prefix, event.Source, event.Err)
	} else {
		_, _ = fmt.Fprintf(r.out, "%s: %v\n", prefix, event.Err)
	}
}

// Stop implements Renderer.
func (r *PlainRenderer) Stop() error {
	return nil
}
