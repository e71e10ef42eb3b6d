package telemetry

import (
	"context"
	"slices"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/Aman-CERP/dichotomy/pkg/dichotomy"
)

// DefaultProbeCapacity bounds the probes kept per recorded run.
const DefaultProbeCapacity = 256

// RunRecord is what the Recorder keeps about one run.
type RunRecord struct {
	Info      dichotomy.RunInfo
	StartedAt time.Time
	// Summary is nil while the run is in progress.
	Summary *dichotomy.Summary
	probes  *Window[dichotomy.ProbeEvent]
}

// Probes returns the most recent probes of the run, oldest first.
func (r RunRecord) Probes() []dichotomy.ProbeEvent {
	if r.probes == nil {
		return nil
	}
	return r.probes.Snapshot()
}

// Done reports whether the run has finished.
func (r RunRecord) Done() bool { return r.Summary != nil }

// Recorder keeps the most recently started runs in memory.
// Thread-safe for concurrent access.
type Recorder struct {
	mu            sync.Mutex
	runs          *lru.Cache[string, *RunRecord]
	probeCapacity int
}

var _ dichotomy.Observer = (*Recorder)(nil)

// NewRecorder returns a recorder holding up to size runs.
func NewRecorder(size int) *Recorder {
	if size <= 0 {
		size = 100
	}
	runs, _ := lru.New[string, *RunRecord](size)
	return &Recorder{runs: runs, probeCapacity: DefaultProbeCapacity}
}

// RunStarted implements dichotomy.Observer.
func (r *Recorder) RunStarted(_ context.Context, info dichotomy.RunInfo) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs.Add(info.RunID, &RunRecord{
		Info:      info,
		StartedAt: time.Now(),
		probes:    NewWindow[dichotomy.ProbeEvent](r.probeCapacity),
	})
}

// ProbeCompleted implements dichotomy.Observer.
func (r *Recorder) ProbeCompleted(_ context.Context, ev dichotomy.ProbeEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rec, ok := r.runs.Peek(ev.RunID); ok {
		rec.probes.Push(ev)
	}
}

// RunFinished implements dichotomy.Observer.
func (r *Recorder) RunFinished(_ context.Context, s dichotomy.Summary) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.runs.Peek(s.RunID)
	if !ok {
		rec = &RunRecord{Info: dichotomy.RunInfo{RunID: s.RunID, Strategy: s.Strategy}}
		r.runs.Add(s.RunID, rec)
	}
	summary := s
	rec.Summary = &summary
}

// Get returns a copy of the record of runID.
func (r *Recorder) Get(runID string) (RunRecord, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.runs.Get(runID)
	if !ok {
		return RunRecord{}, false
	}
	return *rec, true
}

// Recent returns up to n records, most recently started first. n <= 0 means all.
func (r *Recorder) Recent(n int) []RunRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	keys := r.runs.Keys()
	slices.Reverse(keys)
	if n > 0 && len(keys) > n {
		keys = keys[:n]
	}
	out := make([]RunRecord, 0, len(keys))
	for _, k := range keys {
		if rec, ok := r.runs.Peek(k); ok {
			out = append(out, *rec)
		}
	}
	return out
}

// Len returns the number of recorded runs.
func (r *Recorder) Len() int {
	return r.runs.Len()
}
