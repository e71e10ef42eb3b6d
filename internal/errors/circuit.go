package errors

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrCircuitOpen matches every error returned while a Breaker is open.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// OpenError is returned instead of calling through an open Breaker.
type OpenError struct {
	Name  string
	Until time.Time
	// Last is the failure that opened the breaker.
	Last error
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("%s: circuit open until %s after: %v", e.Name, e.Until.Format(time.TimeOnly), e.Last)
}

func (e *OpenError) Is(target error) bool { return target == ErrCircuitOpen }

func (e *OpenError) Unwrap() error { return e.Last }

// Breaker stops calling a failing sink once Threshold consecutive calls
// have failed. After Cooldown one trial call is let through; its result
// closes or reopens the breaker.
//
// The scenario exporter runs behind one so a broken export directory is
// reported a few times and then skipped for the rest of the run.
type Breaker struct {
	Name      string
	Threshold int
	Cooldown  time.Duration

	now func() time.Time

	mu        sync.Mutex
	failures  int
	openUntil time.Time
	last      error
	trial     bool
}

// NewBreaker returns a closed breaker. A non-positive threshold means 3.
func NewBreaker(name string, threshold int, cooldown time.Duration) *Breaker {
	if threshold <= 0 {
		threshold = 3
	}
	return &Breaker{Name: name, Threshold: threshold, Cooldown: cooldown, now: time.Now}
}

// Do calls fn unless the breaker is open.
func (b *Breaker) Do(fn func() error) error {
	if err := b.admit(); err != nil {
		return err
	}
	err := fn()
	b.record(err)
	return err
}

func (b *Breaker) admit() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.openUntil.IsZero() {
		return nil
	}
	if b.trial || b.clock().Before(b.openUntil) {
		return &OpenError{Name: b.Name, Until: b.openUntil, Last: b.last}
	}
	b.trial = true
	return nil
}

func (b *Breaker) record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err == nil {
		b.failures, b.last, b.trial = 0, nil, false
		b.openUntil = time.Time{}
		return
	}
	b.failures++
	b.last = err
	if b.trial || b.failures >= b.Threshold {
		b.trial = false
		b.openUntil = b.clock().Add(b.Cooldown)
	}
}

func (b *Breaker) clock() time.Time {
	if b.now == nil {
		return time.Now()
	}
	return b.now()
}

// Open reports whether calls are currently being refused.
func (b *Breaker) Open() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return !b.openUntil.IsZero() && (b.trial || b.clock().Before(b.openUntil))
}

// Failures returns the number of consecutive failures.
func (b *Breaker) Failures() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.failures
}
