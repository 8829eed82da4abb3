package corort_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/joeycumines/corort"
)

// pingPong starts two coroutines that alternately Yield a fixed number of
// times each, and asserts they interleave in strict round-robin order.
func TestScheduler_PingPong(t *testing.T) {
	s := corort.NewScheduler()
	var order []string

	_, err := s.Start(func(any) any {
		for i := 0; i < 3; i++ {
			order = append(order, "ping")
			s.Running().Yield()
		}
		return nil
	}, nil, corort.WithName("ping"))
	require.NoError(t, err)

	_, err = s.Start(func(any) any {
		for i := 0; i < 3; i++ {
			order = append(order, "pong")
			s.Running().Yield()
		}
		return nil
	}, nil, corort.WithName("pong"))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, s.Loop(ctx, false))

	require.Equal(t, []string{"ping", "pong", "ping", "pong", "ping", "pong"}, order)
}

// TestScheduler_SuspendResumeRoundTrip asserts resume(suspend(x)) == x: the
// value passed to Suspend is exactly what a later Resume call returns.
func TestScheduler_SuspendResumeRoundTrip(t *testing.T) {
	s := corort.NewScheduler()
	var woke any

	co, err := s.Start(func(any) any {
		woke = s.Running().Suspend("hello")
		return nil
	}, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	// Non-exclusive Loop returns as soon as the ready list empties, which
	// happens the instant the coroutine suspends: safe to call Resume
	// from this (the original) context afterward, since nothing else is
	// touching the scheduler concurrently.
	require.NoError(t, s.Loop(ctx, false))
	require.Equal(t, corort.Suspended, co.State())

	old, err := s.Resume(co, "world")
	require.NoError(t, err)
	require.Equal(t, "hello", old)

	require.NoError(t, s.Loop(ctx, false))
	require.Equal(t, corort.Dead, co.State())
	require.Equal(t, "world", woke)
}

func TestScheduler_Start_AfterKillFails(t *testing.T) {
	s := corort.NewScheduler()
	s.Kill()
	_, err := s.Start(func(any) any { return nil }, nil)
	require.ErrorIs(t, err, corort.ErrStopped)
}

func TestCoroutine_ArgSetArg(t *testing.T) {
	s := corort.NewScheduler()
	var seen []any

	_, err := s.Start(func(arg any) any {
		co := s.Running()
		seen = append(seen, co.Arg())
		co.SetArg("updated")
		seen = append(seen, co.Arg())
		return nil
	}, "initial")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Loop(ctx, false))
	require.Equal(t, []any{"initial", "updated"}, seen)
}

func TestScheduler_LenReportsReadySuspendedDead(t *testing.T) {
	s := corort.NewScheduler()

	_, err := s.Start(func(any) any {
		s.Running().Suspend(nil)
		return nil
	}, nil, corort.WithName("suspender"))
	require.NoError(t, err)

	_, err = s.Start(func(any) any { return nil }, nil, corort.WithName("finisher"))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Loop(ctx, false))

	ready, suspended, dead := s.Len()
	require.Equal(t, 0, ready)
	require.Equal(t, 1, suspended)
	require.Equal(t, 1, dead)
}

// TestScheduler_Exit asserts Exit only succeeds once the scheduler has
// stopped, and tears down every coroutine it still owns.
func TestScheduler_Exit(t *testing.T) {
	s := corort.NewScheduler()

	_, err := s.Start(func(any) any { return nil }, nil)
	require.NoError(t, err)

	require.ErrorIs(t, s.Exit(), corort.ErrNotStopped)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Loop(ctx, false))

	s.Kill()
	require.NoError(t, s.Exit())

	ready, suspended, dead := s.Len()
	require.Zero(t, ready)
	require.Zero(t, suspended)
	require.Zero(t, dead)
}

// TestScheduler_ExitAfterKillWhileWaiting asserts Exit succeeds after
// killing a coroutine parked in Suspend.
func TestScheduler_ExitAfterKillWhileWaiting(t *testing.T) {
	s := corort.NewScheduler()

	_, err := s.Start(func(any) any {
		s.Running().Suspend(nil)
		return nil
	}, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Loop(ctx, false))

	s.Kill()
	require.NoError(t, s.Loop(ctx, false))
	require.NoError(t, s.Exit())
}

func TestScheduler_DeadCacheReusesCoroutine(t *testing.T) {
	s := corort.NewScheduler(corort.WithDeadCacheCap(4))

	co1, err := s.Start(func(arg any) any { return arg }, 1)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Loop(ctx, false))
	require.Equal(t, corort.Dead, co1.State())

	co2, err := s.Start(func(arg any) any { return arg }, 2)
	require.NoError(t, err)
	require.Same(t, co1, co2, "expected dead-cached coroutine to be reused")

	ctx2, cancel2 := context.WithTimeout(context.Background(), time.Second)
	defer cancel2()
	require.NoError(t, s.Loop(ctx2, false))
	require.Equal(t, corort.Dead, co2.State())
}
