package stackless_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/joeycumines/corort"
	"github.com/joeycumines/corort/ioloop"
	"github.com/joeycumines/corort/stackless"
)

// TestCore_SleepWakesViaIOLoopTimer drives a stackless Core's Sleep
// through an *ioloop.Scheduler's timer wheels instead of the Scheduler's
// own wall-clock sleeping list.
func TestCore_SleepWakesViaIOLoopTimer(t *testing.T) {
	io, err := ioloop.NewScheduler()
	require.NoError(t, err)
	t.Cleanup(func() { _ = io.Close() })

	s := stackless.NewScheduler()
	started := time.Now()
	var elapsed time.Duration

	_, err = s.Start(func(c *stackless.Core) (any, stackless.Signal) {
		switch c.Branch {
		case 0:
			c.Branch = 1
			return c.Sleep(io, 20*time.Millisecond)
		default:
			elapsed = time.Since(started)
			return nil, stackless.Finish
		}
	}, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	// Drive the Core through its first turn, arming a real timer against
	// io's own wheels and leaving it Suspended.
	require.NoError(t, s.Loop(ctx, false))

	// Babysitter keeps io's Loop alive long enough for its wheel to fire
	// that timer, then stops io so Loop returns; the wheel is io's own
	// and advances regardless of which scheduler armed an entry on it.
	_, err = io.Start(func(any) any {
		co := io.Running()
		require.NoError(t, io.Sleep(co, 50*time.Millisecond))
		io.Kill()
		return nil
	}, nil, corort.WithName("babysitter"))
	require.NoError(t, err)
	require.NoError(t, io.Loop(ctx, true))

	// The fired timer moved the Core straight to ready via
	// resumeIfSuspended; run it to completion.
	require.NoError(t, s.Loop(ctx, false))
	require.GreaterOrEqual(t, elapsed, 20*time.Millisecond)
}

// TestCore_WaitIOWakesOnReadable drives a stackless Core's WaitIO through
// an *ioloop.Scheduler's poller.
func TestCore_WaitIOWakesOnReadable(t *testing.T) {
	io, err := ioloop.NewScheduler()
	require.NoError(t, err)
	t.Cleanup(func() { _ = io.Close() })

	r, w, err := os.Pipe()
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close(); _ = w.Close() })

	s := stackless.NewScheduler()
	var result *stackless.IOResult

	_, err = s.Start(func(c *stackless.Core) (any, stackless.Signal) {
		switch c.Branch {
		case 0:
			c.Branch = 1
			return c.WaitIO(io, int(r.Fd()), ioloop.EventRead, 2*time.Second)
		default:
			result = c.Extra.(*stackless.IOResult)
			return nil, stackless.Finish
		}
	}, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	// Arms the real wait against io's poller, leaving the Core Suspended.
	require.NoError(t, s.Loop(ctx, false))

	_, err = w.WriteString("x")
	require.NoError(t, err)

	_, err = io.Start(func(any) any {
		co := io.Running()
		require.NoError(t, io.Sleep(co, 50*time.Millisecond))
		io.Kill()
		return nil
	}, nil, corort.WithName("babysitter"))
	require.NoError(t, err)
	require.NoError(t, io.Loop(ctx, true))

	require.NoError(t, s.Loop(ctx, false))
	require.NotNil(t, result)
	require.NoError(t, result.Err)
	require.NotZero(t, result.Events&ioloop.EventRead)
}
