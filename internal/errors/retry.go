package errors

import (
	"context"
	"fmt"
	"time"
)

// Backoff retries an operation with exponentially growing pauses.
type Backoff struct {
	// Attempts is the total number of calls, including the first.
	Attempts int
	First    time.Duration
	Ceiling  time.Duration
	// Retryable decides whether an error is worth another attempt.
	// Nil retries every error.
	Retryable func(error) bool
}

// SQLiteBackoff rides out short lock contention between concurrent runs
// writing their history.
func SQLiteBackoff() Backoff {
	return Backoff{Attempts: 5, First: 25 * time.Millisecond, Ceiling: 400 * time.Millisecond, Retryable: IsRetryable}
}

// pause returns the wait after the n-th failed attempt, counting from 0.
func (b Backoff) pause(n int) time.Duration {
	d := b.First << n
	if d <= 0 || (b.Ceiling > 0 && d > b.Ceiling) {
		return b.Ceiling
	}
	return d
}

// Do calls fn until it succeeds, returns a non-retryable error, or the
// attempts run out. A cancelled ctx stops it with ctx.Err().
func (b Backoff) Do(ctx context.Context, fn func() error) error {
	attempts := max(b.Attempts, 1)
	var err error
	for n := 0; n < attempts; n++ {
		if n > 0 {
			timer := time.NewTimer(b.pause(n - 1))
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}
		if err = fn(); err == nil {
			return nil
		}
		if b.Retryable != nil && !b.Retryable(err) {
			return err
		}
	}
	return fmt.Errorf("gave up after %d attempts: %w", attempts, err)
}
