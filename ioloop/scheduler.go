package ioloop

import (
	"context"
	"fmt"
	"time"

	catrate "github.com/joeycumines/go-catrate"

	"github.com/joeycumines/corort"
	"github.com/joeycumines/corort/corolog"
	"github.com/joeycumines/corort/ioloop/timerwheel"
)

// ioWait is the transient state tracking one pending wait on a
// descriptor: either a blocking corort.Coroutine waiter (co set, attached
// via corort.Coroutine.Extra), or a non-blocking waiter (done set instead,
// used by AsyncWaitIO and the stackless flavor's Core.WaitIO).
type ioWait struct {
	co        *corort.Coroutine
	done      func(Events, error)
	fd        int
	want      Events
	got       Events
	timer     *timerwheel.Entry
	timedOut  bool
	cancelled bool
}

// Scheduler extends a *corort.Scheduler with Sleep and WaitIO, integrating
// a platform poller and a two-tier timer wheel via one dedicated loop
// coroutine (component C5).
type Scheduler struct {
	*corort.Scheduler

	poller poller
	precise *timerwheel.Wheel
	coarse  *timerwheel.Wheel

	active       map[int]*ioWait
	hangupCached map[int]bool

	loopCo *corort.Coroutine
	spin   *catrate.Limiter
	log    corolog.Logger

	closed bool
}

// NewScheduler constructs a Scheduler, initializes its platform poller, and
// starts the loop coroutine that drives it.
func NewScheduler(opts ...Option) (*Scheduler, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	s := &Scheduler{
		Scheduler:    corort.NewScheduler(cfg.schedOpts...),
		poller:       newPlatformPoller(),
		precise:      timerwheel.New(cfg.preciseTick, cfg.preciseSlots),
		coarse:       timerwheel.New(cfg.coarseTick, cfg.coarseSlots),
		active:       make(map[int]*ioWait),
		hangupCached: make(map[int]bool),
		log:          cfg.log,
		spin: catrate.NewLimiter(map[time.Duration]int{
			cfg.spinWindow: cfg.spinBurst,
		}),
	}
	if err := s.poller.init(); err != nil {
		return nil, err
	}

	loopCo, err := s.Scheduler.Start(s.loopBody, nil, corort.WithName("ioloop"))
	if err != nil {
		_ = s.poller.close()
		return nil, err
	}
	s.loopCo = loopCo
	return s, nil
}

// Loop runs the underlying corort.Scheduler's entry loop. See
// corort.Scheduler.Loop for the exclusive/non-exclusive distinction.
func (s *Scheduler) Loop(ctx context.Context, exclusive bool) error {
	return s.Scheduler.Loop(ctx, exclusive)
}

// Close releases the platform poller. Call once the scheduler's Loop has
// returned.
func (s *Scheduler) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.poller.close()
}

func (s *Scheduler) wheelFor(d time.Duration) *timerwheel.Wheel {
	if d >= s.coarse.Tick() {
		return s.coarse
	}
	return s.precise
}

// AsyncSleep arms a one-shot timer that calls done after roughly d has
// elapsed, without blocking any coroutine. It is the non-blocking
// primitive Sleep is built on, letting other integrations (corosync's
// Timer, the stackless flavor's Core.Sleep) arm a cooperative-loop-safe
// timeout of their own without needing a backing coroutine. The returned
// cancel function prevents done from firing if called beforehand.
func (s *Scheduler) AsyncSleep(d time.Duration, done func()) (cancel func()) {
	if d <= 0 {
		done()
		return func() {}
	}
	entry := s.wheelFor(d).Add(d, done)
	return entry.Cancel
}

// Sleep blocks the calling coroutine for at least d, or until the
// scheduler is killed. It must be called from co's own goroutine (the
// coroutine being put to sleep).
func (s *Scheduler) Sleep(co *corort.Coroutine, d time.Duration) error {
	if s.Stopped() {
		return corort.ErrStopped
	}
	if d <= 0 {
		co.Yield()
		return nil
	}

	w := &ioWait{co: co}
	w.timer = s.wheelFor(d).Add(d, func() {
		w.timedOut = true
		_, _ = s.Resume(w.co, nil)
	})
	co.Extra = w
	co.Suspend(nil)
	co.Extra = nil

	if !w.timedOut {
		w.timer.Cancel()
	}
	if s.Stopped() {
		return corort.ErrStopped
	}
	return nil
}

// WaitIO blocks the calling coroutine until fd satisfies want, or timeout
// elapses (timeout <= 0 means wait indefinitely). It reports the observed
// events, ErrTimeout on expiry, or corort.ErrStopped if the scheduler is
// killed while waiting.
//
// Registrations are level-triggered (the pollers set neither EPOLLET nor
// EV_CLEAR), one per WaitIO call. Once a hangup has been observed for fd,
// it is cached and reported immediately (without blocking) on every
// subsequent WaitIO call for that descriptor.
func (s *Scheduler) WaitIO(co *corort.Coroutine, fd int, want Events, timeout time.Duration) (Events, error) {
	if s.Stopped() {
		return 0, corort.ErrStopped
	}
	if s.hangupCached[fd] {
		return EventHangup, nil
	}
	if _, busy := s.active[fd]; busy {
		return 0, ErrFDBusy
	}

	if err := s.poller.register(fd, want); err != nil {
		return 0, err
	}

	w := &ioWait{co: co, fd: fd, want: want}
	s.active[fd] = w
	co.Extra = w
	if timeout > 0 {
		w.timer = s.wheelFor(timeout).Add(timeout, func() {
			w.timedOut = true
			s.wakeIO(w)
		})
	}

	co.Suspend(nil)

	co.Extra = nil
	// wakeIO already did this cleanup if it ran (dispatch, timeout, or
	// Cancel); redundant-but-idempotent here to also cover the case where
	// Scheduler.Kill mass-woke co directly, bypassing wakeIO entirely and
	// leaving fd's registration and timer dangling otherwise.
	if w.timer != nil && !w.timedOut {
		w.timer.Cancel()
	}
	delete(s.active, fd)
	_ = s.poller.unregister(fd)

	switch {
	case w.cancelled:
		return 0, ErrCancelled
	case w.timedOut:
		return 0, ErrTimeout
	}
	if s.Stopped() {
		return 0, corort.ErrStopped
	}
	return w.got, nil
}

// AsyncWaitIO arms a non-blocking wait for fd to satisfy want, calling
// done exactly once with either the observed events or ErrTimeout /
// ErrCancelled / corort.ErrStopped. It is WaitIO's non-blocking
// counterpart, for integrations (the stackless flavor's Core.WaitIO) with
// no backing coroutine to block.
func (s *Scheduler) AsyncWaitIO(fd int, want Events, timeout time.Duration, done func(Events, error)) error {
	if s.Stopped() {
		return corort.ErrStopped
	}
	if s.hangupCached[fd] {
		done(EventHangup, nil)
		return nil
	}
	if _, busy := s.active[fd]; busy {
		return ErrFDBusy
	}
	if err := s.poller.register(fd, want); err != nil {
		return err
	}

	w := &ioWait{fd: fd, want: want, done: done}
	s.active[fd] = w
	if timeout > 0 {
		w.timer = s.wheelFor(timeout).Add(timeout, func() {
			w.timedOut = true
			s.wakeIO(w)
		})
	}
	return nil
}

// Cancel removes fd's pending wait, if any: the poller deregistration and
// wakeup a coroutine or Core waiting on fd must go through before the
// caller closes fd out from under it (closing an fd a waiter hasn't been
// cancelled off of first is a protocol violation — the poller may then
// report spurious readiness for a descriptor nothing owns any more).
// Reports whether a wait was actually cancelled; a fd with no pending
// wait is a no-op reported as false.
func (s *Scheduler) Cancel(fd int) bool {
	w, ok := s.active[fd]
	if !ok {
		return false
	}
	w.cancelled = true
	s.wakeIO(w)
	return true
}

// Exit tears the scheduler down for good: drains the underlying
// corort.Scheduler (which must already be stopped) and releases the
// platform poller. The scheduler must not be reused once Exit returns
// successfully.
func (s *Scheduler) Exit() error {
	if err := s.Scheduler.Exit(); err != nil {
		return err
	}
	return s.Close()
}

// wakeIO cancels w's pending timer (if any), removes it from the active
// table and the poller, and hands the outcome back to whichever flavor of
// waiter w represents: Resume for a blocking corort.Coroutine, or its
// done callback for a non-blocking (AsyncWaitIO / stackless) waiter.
// Called from the dispatch callback when a descriptor becomes ready, from
// a timer firing, or from Cancel.
func (s *Scheduler) wakeIO(w *ioWait) {
	if w.timer != nil {
		w.timer.Cancel()
	}
	delete(s.active, w.fd)
	_ = s.poller.unregister(w.fd)

	if w.done != nil {
		switch {
		case w.cancelled:
			w.done(0, ErrCancelled)
		case w.timedOut:
			w.done(0, ErrTimeout)
		default:
			w.done(w.got, nil)
		}
		return
	}
	_, _ = s.Resume(w.co, nil)
}

func (s *Scheduler) dispatch(fd int, ev Events) {
	if ev&EventHangup != 0 {
		s.hangupCached[fd] = true
	}
	w, ok := s.active[fd]
	if !ok {
		return
	}
	w.got = ev
	s.wakeIO(w)
}

// maxIdlePoll bounds how long a poll call may block when neither wheel has
// anything scheduled. Kill is documented as callable from any goroutine at
// any time, including while the loop coroutine sits in poll with no timers
// and no I/O registered; capping the wait keeps Stopped() from going
// unnoticed indefinitely in that case.
const maxIdlePoll = time.Second

// nextTimeout returns how long the loop coroutine should block in poll:
// the smaller of the two wheels' next-fire estimate, capped at
// maxIdlePoll if neither wheel has anything pending.
func (s *Scheduler) nextTimeout() time.Duration {
	best := maxIdlePoll
	if ticks, ok := s.precise.NextFireTicks(); ok {
		d := time.Duration(ticks) * s.precise.Tick()
		if d < best {
			best = d
		}
	}
	if ticks, ok := s.coarse.NextFireTicks(); ok {
		d := time.Duration(ticks) * s.coarse.Tick()
		if d < best {
			best = d
		}
	}
	return best
}

func (s *Scheduler) advanceWheels(elapsed time.Duration) {
	if n := int(elapsed / s.precise.Tick()); n > 0 {
		s.precise.Advance(n)
	}
	if n := int(elapsed / s.coarse.Tick()); n > 0 {
		s.coarse.Advance(n)
	}
}

// idle reports whether the loop coroutine is the only thing left for the
// scheduler to do: no other live coroutines, no pending I/O waiters, no
// pending timers. Once stopped and idle, the loop coroutine exits for
// good, letting corort.Scheduler.Loop's ready-list-empty check end the
// outer loop.
func (s *Scheduler) idle() bool {
	ready, suspended, _ := s.Len()
	return ready+suspended <= 1 && len(s.active) == 0 && s.precise.Pending() == 0 && s.coarse.Pending() == 0
}

// loopBody is the loop coroutine's Func: the C5 algorithm. While other
// coroutines are ready, it steps aside (Yield) to let them run; once it is
// the only ready coroutine, it polls with a timeout derived from the timer
// wheels, dispatches whatever readiness or timer firings result, and
// repeats. Once the scheduler is stopped and there is truly nothing left
// to wait on, it returns, finishing itself.
func (s *Scheduler) loopBody(any) any {
	for {
		if s.Stopped() && s.idle() {
			return nil
		}
		if s.loopCo.Yield() {
			continue
		}

		timeout := s.nextTimeout()
		now := time.Now()
		if err := s.poller.poll(timeout, s.dispatch); err != nil {
			if _, allowed := s.spin.Allow("poll-error"); allowed {
				s.log.Warning().Log(fmt.Sprintf("ioloop: poll error: %v", err))
			}
		}
		elapsed := time.Since(now)
		if elapsed <= 0 {
			elapsed = time.Millisecond
		}
		s.advanceWheels(elapsed)
	}
}
