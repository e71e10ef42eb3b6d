package dichotomy

import (
	"context"
	"time"
)

// RunInfo describes a search that is about to start.
type RunInfo struct {
	RunID         string
	Strategy      string
	Min           string
	Max           string
	Precision     float64
	MaxIterations int
}

// ProbeEvent describes one recorded probe.
type ProbeEvent struct {
	RunID     string
	Iteration int
	Value     string
	Valid     bool
	Reason    Reason
	Message   string
	Duration  time.Duration
}

// Observer receives structured events from an Engine.
//
// Calls are made synchronously from the goroutine running the search.
type Observer interface {
	RunStarted(ctx context.Context, info RunInfo)
	ProbeCompleted(ctx context.Context, event ProbeEvent)
	RunFinished(ctx context.Context, summary Summary)
}

// NopObserver ignores every event. Embed it to implement a subset of Observer.
type NopObserver struct{}

// RunStarted implements Observer.
func (NopObserver) RunStarted(context.Context, RunInfo) {}

// ProbeCompleted implements Observer.
func (NopObserver) ProbeCompleted(context.Context, ProbeEvent) {}

// RunFinished implements Observer.
func (NopObserver) RunFinished(context.Context, Summary) {}
