package breaker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

var errBackend = errors.New("backend unavailable")

func failing(context.Context) error { return errBackend }
func ok(context.Context) error      { return nil }

func TestBreaker_OpensAfterThreeFailuresInWindow(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 10, 18, 10, 0, 0, 0, time.UTC)}
	b := New(3, 30*time.Second, WithClock(clock.now))
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		require.ErrorIs(t, b.Do(ctx, failing), errBackend)
		clock.advance(5 * time.Second)
	}
	require.False(t, b.Open())

	require.ErrorIs(t, b.Do(ctx, failing), errBackend)
	require.True(t, b.Open())

	calls := 0
	err := b.Do(ctx, func(context.Context) error { calls++; return nil })
	require.ErrorIs(t, err, ErrOpen)
	require.Zero(t, calls)
}

func TestBreaker_FailuresOutsideWindowAreForgotten(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 10, 18, 10, 0, 0, 0, time.UTC)}
	b := New(3, 30*time.Second, WithClock(clock.now))
	ctx := context.Background()

	_ = b.Do(ctx, failing)
	_ = b.Do(ctx, failing)
	clock.advance(31 * time.Second)
	_ = b.Do(ctx, failing)

	require.False(t, b.Open())
}

func TestBreaker_ForceClosesOnSuccess(t *testing.T) {
	b := New(1, time.Minute)
	ctx := context.Background()

	_ = b.Do(ctx, failing)
	require.True(t, b.Open())

	require.ErrorIs(t, b.Force(ctx, failing), errBackend)
	require.True(t, b.Open())

	require.NoError(t, b.Force(ctx, ok))
	require.False(t, b.Open())
	require.NoError(t, b.Do(ctx, ok))
}
