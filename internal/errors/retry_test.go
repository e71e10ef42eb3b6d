package errors

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func quick() Backoff {
	return Backoff{Attempts: 3, First: time.Millisecond, Ceiling: 5 * time.Millisecond}
}

func TestBackoff_SucceedsAfterTransientError(t *testing.T) {
	// Given: an operation that fails twice then succeeds
	calls := 0
	op := func() error {
		calls++
		if calls < 3 {
			return errors.New("database is locked")
		}
		return nil
	}

	// When: retrying
	err := quick().Do(context.Background(), op)

	// Then: the third call wins
	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestBackoff_GivesUp(t *testing.T) {
	calls := 0
	persistent := errors.New("persistent error")

	err := quick().Do(context.Background(), func() error {
		calls++
		return persistent
	})

	assert.ErrorIs(t, err, persistent)
	assert.Contains(t, err.Error(), "gave up after 3 attempts")
	assert.Equal(t, 3, calls)
}

func TestBackoff_StopsOnPermanentError(t *testing.T) {
	calls := 0
	corrupt := errors.New("file is not a database")
	b := quick()
	b.Retryable = func(err error) bool { return !errors.Is(err, corrupt) }

	err := b.Do(context.Background(), func() error {
		calls++
		return corrupt
	})

	assert.Equal(t, corrupt, err)
	assert.Equal(t, 1, calls)
}

func TestBackoff_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := SQLiteBackoff().Do(ctx, func() error {
		calls++
		return nil
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, calls)
}

func TestBackoff_PauseGrowsToCeiling(t *testing.T) {
	b := SQLiteBackoff()
	var got []time.Duration
	for n := 0; n < 6; n++ {
		got = append(got, b.pause(n))
	}
	ms := time.Millisecond
	assert.Equal(t, []time.Duration{25 * ms, 50 * ms, 100 * ms, 200 * ms, 400 * ms, 400 * ms}, got)
}

func TestBackoff_RetriesOnlyRetryableCodes(t *testing.T) {
	// Given: the history backoff and a non-retryable error
	calls := 0
	err := SQLiteBackoff().Do(context.Background(), func() error {
		calls++
		return ValidationError("bad run ID", nil)
	})

	// Then: it is returned after one call
	assert.Equal(t, ErrCodeInvalidInput, GetCode(err))
	assert.Equal(t, 1, calls)
}
