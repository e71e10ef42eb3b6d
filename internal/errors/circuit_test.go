package errors

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestBreaker(threshold int) (*Breaker, *fakeClock) {
	clock := &fakeClock{t: time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)}
	b := NewBreaker("export", threshold, time.Minute)
	b.now = clock.now
	return b, clock
}

func fail(msg string) func() error { return func() error { return errors.New(msg) } }

func TestBreaker_OpensAfterThreshold(t *testing.T) {
	// Given: a breaker that opens after 3 failures
	b, _ := newTestBreaker(3)

	// When: three calls fail
	for i := 0; i < 3; i++ {
		assert.EqualError(t, b.Do(fail("disk full")), "disk full")
	}

	// Then: further calls are refused without running
	called := false
	err := b.Do(func() error { called = true; return nil })
	assert.False(t, called)
	assert.True(t, b.Open())
	assert.ErrorIs(t, err, ErrCircuitOpen)

	var open *OpenError
	require.ErrorAs(t, err, &open)
	assert.Equal(t, "export", open.Name)
	assert.EqualError(t, open.Last, "disk full")
	assert.Contains(t, err.Error(), "circuit open until 09:01:00")
}

func TestBreaker_TrialCallCloses(t *testing.T) {
	// Given: an open breaker whose cooldown has elapsed
	b, clock := newTestBreaker(2)
	_ = b.Do(fail("x"))
	_ = b.Do(fail("x"))
	clock.advance(time.Minute)
	assert.False(t, b.Open())

	// When: the trial call succeeds
	require.NoError(t, b.Do(func() error { return nil }))

	// Then: the breaker is closed and the count reset
	assert.False(t, b.Open())
	assert.Zero(t, b.Failures())
}

func TestBreaker_TrialFailureReopens(t *testing.T) {
	b, clock := newTestBreaker(2)
	_ = b.Do(fail("x"))
	_ = b.Do(fail("x"))
	clock.advance(2 * time.Minute)

	assert.EqualError(t, b.Do(fail("still failing")), "still failing")

	assert.True(t, b.Open())
	assert.ErrorIs(t, b.Do(func() error { return nil }), ErrCircuitOpen)
}

func TestBreaker_SuccessResetsCount(t *testing.T) {
	b, _ := newTestBreaker(5)
	for i := 0; i < 3; i++ {
		_ = b.Do(fail("x"))
	}
	require.Equal(t, 3, b.Failures())

	require.NoError(t, b.Do(func() error { return nil }))
	assert.Zero(t, b.Failures())
}

func TestBreaker_Concurrent(t *testing.T) {
	b := NewBreaker("export", 100, time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = b.Do(func() error {
				if i%2 == 0 {
					return nil
				}
				return errors.New("x")
			})
		}(i)
	}
	wg.Wait()
	assert.False(t, b.Open())
}

func TestNewBreaker_DefaultThreshold(t *testing.T) {
	b := NewBreaker("scenario-export", 0, time.Minute)
	assert.Equal(t, 3, b.Threshold)
	assert.False(t, b.Open())
}
