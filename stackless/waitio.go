package stackless

import (
	"time"

	"github.com/joeycumines/corort/ioloop"
)

// IOResult holds the outcome of a Core's WaitIO call, stashed in
// Core.Extra across the suspend/resume round-trip since a stackless Func
// has no local variables that survive between turns.
type IOResult struct {
	Events ioloop.Events
	Err    error
}

// WaitIO arms an asynchronous wait for fd to satisfy want against io's
// poller and timer wheels, then returns Suspend: the stackless flavor's
// substitute for ioloop.Scheduler.WaitIO, which blocks a
// *corort.Coroutine that a Core does not have. The Func must return
// WaitIO's result directly, and on its next turn (after being resumed)
// read the outcome from c.Extra, an *IOResult.
func (c *Core) WaitIO(io *ioloop.Scheduler, fd int, want ioloop.Events, timeout time.Duration) (any, Signal) {
	err := io.AsyncWaitIO(fd, want, timeout, func(ev ioloop.Events, err error) {
		c.Extra = &IOResult{Events: ev, Err: err}
		c.requestResume()
	})
	if err != nil {
		c.Extra = &IOResult{Err: err}
		return nil, Continue
	}
	return nil, Suspend
}

// Sleep arms a timer on io for roughly d, then returns Suspend: the
// stackless flavor's substitute for ioloop.Scheduler.Sleep, using io's
// timer wheels instead of Scheduler's own wall-clock sleeping list so a
// sleeping Core shares the same precise/coarse timer machinery WaitIO
// does.
func (c *Core) Sleep(io *ioloop.Scheduler, d time.Duration) (any, Signal) {
	if d <= 0 {
		return nil, Continue
	}
	io.AsyncSleep(d, c.requestResume)
	return nil, Suspend
}
