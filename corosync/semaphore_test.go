package corosync_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/joeycumines/corort"
	"github.com/joeycumines/corort/corosync"
	"github.com/joeycumines/corort/ioloop"
)

func runLoop(t *testing.T, s *corort.Scheduler) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, s.Loop(ctx, false))
}

func TestSemaphore_FIFOWaiters(t *testing.T) {
	s := corort.NewScheduler()
	sem := corosync.NewSemaphore(0)
	var order []string

	for _, name := range []string{"a", "b", "c"} {
		name := name
		_, err := s.Start(func(any) any {
			if sem.Wait(s.Running(), nil, 0) == 1 {
				order = append(order, name)
			}
			return nil
		}, nil, corort.WithName(name))
		require.NoError(t, err)
	}

	// Drain the ready list: every waiter blocks in Wait, scheduler goes
	// idle with three coroutines suspended on the semaphore.
	runLoop(t, s)
	require.Empty(t, order)

	sem.Post(3)
	runLoop(t, s)

	require.Equal(t, []string{"a", "b", "c"}, order)
}

func TestSemaphore_WaitSucceedsImmediatelyWhenPositive(t *testing.T) {
	s := corort.NewScheduler()
	sem := corosync.NewSemaphore(1)
	var result int

	_, err := s.Start(func(any) any {
		result = sem.Wait(s.Running(), nil, 0)
		return nil
	}, nil)
	require.NoError(t, err)

	runLoop(t, s)
	require.Equal(t, 1, result)
	require.Equal(t, 0, sem.Value())
}

func TestSemaphore_KillCancelsWaiters(t *testing.T) {
	s := corort.NewScheduler()
	sem := corosync.NewSemaphore(0)
	var result int
	done := make(chan struct{})

	_, err := s.Start(func(any) any {
		result = sem.Wait(s.Running(), nil, 0)
		close(done)
		return nil
	}, nil)
	require.NoError(t, err)

	runLoop(t, s)
	select {
	case <-done:
		t.Fatal("coroutine should still be blocked on the semaphore")
	default:
	}

	s.Kill()
	runLoop(t, s)

	<-done
	require.Equal(t, -1, result, "Wait should report cancellation once the scheduler stops")
}

// TestSemaphore_WaitTimesOutViaIOLoopTimer arms a Semaphore.Wait timeout
// against a real *ioloop.Scheduler, exercising the tri-state timeout path
// (0, distinct from the -1 a Kill-cancellation reports).
func TestSemaphore_WaitTimesOutViaIOLoopTimer(t *testing.T) {
	io, err := ioloop.NewScheduler()
	require.NoError(t, err)
	t.Cleanup(func() { _ = io.Close() })

	s := corort.NewScheduler()
	sem := corosync.NewSemaphore(0)
	var result int

	_, err = s.Start(func(any) any {
		result = sem.Wait(s.Running(), io, 20*time.Millisecond)
		return nil
	}, nil, corort.WithName("waiter"))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	// Arms the real timer against io's wheels, leaving the waiter
	// Suspended on the semaphore.
	require.NoError(t, s.Loop(ctx, false))

	// Babysitter keeps io's Loop alive long enough for its wheel to fire
	// that timer, then stops io so Loop returns.
	_, err = io.Start(func(any) any {
		co := io.Running()
		require.NoError(t, io.Sleep(co, 50*time.Millisecond))
		io.Kill()
		return nil
	}, nil, corort.WithName("babysitter"))
	require.NoError(t, err)
	require.NoError(t, io.Loop(ctx, true))

	require.NoError(t, s.Loop(ctx, false))
	require.Equal(t, 0, result, "Wait should report timeout once io's timer fires")
}

func TestMutex_MutualExclusion(t *testing.T) {
	s := corort.NewScheduler()
	mu := corosync.NewMutex()
	var holders int
	var maxConcurrent int

	for i := 0; i < 4; i++ {
		_, err := s.Start(func(any) any {
			co := s.Running()
			if mu.Lock(co, nil, 0) != 1 {
				return nil
			}
			holders++
			if holders > maxConcurrent {
				maxConcurrent = holders
			}
			co.Yield()
			holders--
			mu.Unlock()
			return nil
		}, nil)
		require.NoError(t, err)
	}

	runLoop(t, s)
	require.Equal(t, 1, maxConcurrent)
}
