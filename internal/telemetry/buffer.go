package telemetry

import (
	"slices"
	"sync"
)

// Window keeps the most recent values pushed, oldest first.
type Window[T any] struct {
	mu    sync.RWMutex
	limit int
	items []T
}

// NewWindow returns a window of at most limit values, 100 when limit <= 0.
func NewWindow[T any](limit int) *Window[T] {
	if limit <= 0 {
		limit = 100
	}
	return &Window[T]{limit: limit, items: make([]T, 0, min(limit, 16))}
}

// Push appends v, dropping the oldest value when the window is full.
func (w *Window[T]) Push(v T) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.items) == w.limit {
		// Shift in place so the backing array never grows past limit.
		copy(w.items, w.items[1:])
		w.items = w.items[:len(w.items)-1]
	}
	w.items = append(w.items, v)
}

// Snapshot returns a copy of the values, oldest first.
func (w *Window[T]) Snapshot() []T {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return slices.Clone(w.items)
}

// Len returns the number of values held.
func (w *Window[T]) Len() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.items)
}

// Cap returns the window limit.
func (w *Window[T]) Cap() int { return w.limit }
