package corort

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/joeycumines/corort/corolog"
	"github.com/joeycumines/corort/internal/colist"
)

// Scheduler owns a set of stackful coroutines and enforces the invariant
// that exactly one of them is ever actually executing at a time. It is not
// safe for concurrent use from multiple goroutines except where documented
// (Kill may be called from any goroutine); everything else is meant to be
// driven from a single OS thread via Loop, mirroring the original's
// thread-bound entry-loop design (component C7).
type Scheduler struct {
	cfg schedulerConfig

	ready     *colist.List[*Coroutine]
	suspended *colist.List[*Coroutine]
	deadCache *colist.List[*Coroutine]

	running *Coroutine

	// originalCh is where control lands back in Loop: sent to exactly
	// once per "outer turn", whenever a chain of direct coroutine-to-
	// coroutine switches runs out of ready coroutines to hand off to.
	originalCh chan struct{}

	stopped  atomic.Bool
	looping  atomic.Bool
	deadLen  int
	coroutines int
}

// NewScheduler constructs an empty, unstarted Scheduler.
func NewScheduler(opts ...SchedulerOption) *Scheduler {
	cfg := defaultSchedulerConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Scheduler{
		cfg:        cfg,
		ready:      colist.New[*Coroutine](),
		suspended:  colist.New[*Coroutine](),
		deadCache:  colist.New[*Coroutine](),
		originalCh: make(chan struct{}),
	}
}

// Len reports coroutine-count introspection, restored per the original's
// tb_co_scheduler_count: ready (including the currently running coroutine,
// if any), suspended, and dead-cached counts.
func (s *Scheduler) Len() (ready, suspended, dead int) {
	ready = s.ready.Len()
	if s.running != nil {
		ready++
	}
	return ready, s.suspended.Len(), s.deadLen
}

// Running returns the coroutine currently executing, or nil if control is
// with the original (outer) context.
func (s *Scheduler) Running() *Coroutine { return s.running }

// Stopped reports whether the scheduler has been killed, or Loop has
// observed its context done; Loop returning on an empty ready list does not
// by itself stop the scheduler. Synchronization primitives in corosync consult this
// to implement cancellation: a wait operation returns a cancellation code
// once the scheduler transitions to stopped.
func (s *Scheduler) Stopped() bool { return s.stopped.Load() }

// Start creates (or reinitializes a dead-cached) coroutine to run fn(arg),
// and makes it ready. Following the insert-near-running policy, if a
// coroutine is running the new coroutine takes the running coroutine's
// place in the round-robin ring, just before the running coroutine's
// successor, so it runs before the running coroutine's next turn; otherwise
// it is appended to the tail of the ready list.
//
// Start returns ErrStopped if the scheduler has already stopped.
func (s *Scheduler) Start(fn Func, arg any, opts ...CoroutineOption) (*Coroutine, error) {
	if s.stopped.Load() {
		return nil, ErrStopped
	}
	var ccfg coroutineConfig
	for _, opt := range opts {
		opt(&ccfg)
	}

	var co *Coroutine
	if front := s.deadCache.Front(); front != nil {
		co = front.Value
		front.Remove()
		s.deadLen--
	} else {
		co = newCoroutine(s)
		s.coroutines++
	}
	co.fn = fn
	co.arg = arg
	co.ret = nil
	co.name = ccfg.name
	co.state = Ready
	initGuard(co)

	// The running coroutine is spliced out of every list, so its place in
	// the ring is marked by its round-robin successor; a successor at the
	// front of the ready list marks the same place as the tail.
	var mark *Coroutine
	if s.running != nil {
		mark = nextReady(s.running)
	}
	if mark != nil && mark.state == Ready && &mark.node != s.ready.Front() {
		s.ready.InsertBefore(&co.node, &mark.node)
	} else {
		s.ready.PushBack(&co.node)
	}

	s.cfg.log.Debug().Log(fmt.Sprintf("corort: started %s", co))
	return co, nil
}

// nextReady reports the coroutine round-robin advance would hand control
// to after co: co's own successor within whatever list last owned it
// (valid even once co has been spliced out as the running coroutine,
// thanks to colist.Node's stale-pointer-preserving Remove).
func nextReady(co *Coroutine) *Coroutine {
	next := co.node.Next()
	if next == nil {
		return nil
	}
	return next.Value
}

// switchTo transfers control from the calling (currently running)
// coroutine `from` to `to`, and blocks `from`'s backing goroutine until it
// is itself switched back to. It must only be called from code running on
// from's own goroutine.
func (s *Scheduler) switchTo(from, to *Coroutine) any {
	s.running = to
	to.state = Running
	to.resumeCh <- to.ret
	return <-from.resumeCh
}

// switchToOriginal hands control back to whatever called Loop, and blocks
// from's backing goroutine until it is switched back to.
func (s *Scheduler) switchToOriginal(from *Coroutine) any {
	s.running = nil
	s.originalCh <- struct{}{}
	return <-from.resumeCh
}

// Yield suspends the calling coroutine just long enough to let the next
// ready coroutine run, then resumes it automatically: a single round-robin
// advance. If co is not the currently running coroutine, Yield panics with
// ErrNotRunning (mirroring the original, which has no defined behavior for
// yielding on behalf of someone else). Returns false without switching if
// no other coroutine is ready.
func (co *Coroutine) Yield() bool {
	s := co.sched
	if s.running != co {
		panic(ErrNotRunning)
	}
	next := nextReady(co)
	if next == nil {
		return false
	}
	s.ready.InsertBefore(&co.node, &next.node)
	next.node.Remove()
	co.state = Ready
	s.switchTo(co, next)
	return true
}

// Suspend removes the calling coroutine from scheduling entirely and
// blocks its backing goroutine until a later Resume call. priv is stashed
// in the coroutine's pending-result slot, readable as Resume's return
// value: resume(suspend(x)) == x. Suspend returns whatever priv was
// passed to the Resume call that woke it back up.
//
// Control passes directly to the next ready coroutine if one exists,
// otherwise back to the original (outer) context; because the running
// coroutine is always spliced out of every list the instant it becomes
// running, and nextReady is taken before co is filed on the suspended
// list, nextReady can never erroneously report co itself here.
func (co *Coroutine) Suspend(priv any) any {
	s := co.sched
	if s.running != co {
		panic(ErrNotRunning)
	}
	co.ret = priv
	co.state = Suspended
	next := nextReady(co)
	s.suspended.PushBack(&co.node)

	if next != nil {
		next.node.Remove()
		return s.switchTo(co, next)
	}
	return s.switchToOriginal(co)
}

// Resume makes a suspended coroutine ready again. It does not itself run
// target; target becomes eligible the next time round-robin advance
// reaches it. Resume returns the value target last passed to Suspend (the
// contents of its pending-result slot before this call overwrites it with
// priv), matching the round-trip property resume(suspend(x)) == x.
//
// Returns ErrNotSuspended if target is not currently suspended, or
// ErrForeignCoroutine if target belongs to a different scheduler.
func (s *Scheduler) Resume(target *Coroutine, priv any) (any, error) {
	if target.sched != s {
		return nil, ErrForeignCoroutine
	}
	if target.state != Suspended {
		return nil, ErrNotSuspended
	}
	old := target.ret
	target.ret = priv
	target.node.Remove()
	target.state = Ready

	// Same placement as Start.
	var mark *Coroutine
	if s.running != nil {
		mark = nextReady(s.running)
	}
	if mark != nil && mark.state == Ready && &mark.node != s.ready.Front() {
		s.ready.InsertBefore(&target.node, &mark.node)
	} else {
		s.ready.PushBack(&target.node)
	}
	return old, nil
}

// finish is called on a coroutine's own backing goroutine once its Func
// returns. It retires the coroutine to the dead cache (evicting the
// longest-resident entry, and tearing down its goroutine, if the cache is
// over capacity) and hands control to the next ready coroutine or back to
// the original context.
func (s *Scheduler) finish(co *Coroutine, ret any) {
	co.ret = ret
	co.state = Dead
	co.fn = nil
	co.arg = nil

	next := nextReady(co)

	s.deadCache.PushBack(&co.node)
	s.deadLen++
	s.evictDeadCache()

	s.cfg.log.Debug().Log(fmt.Sprintf("corort: finished %s", co))

	if next != nil {
		next.node.Remove()
		s.running = next
		next.state = Running
		next.resumeCh <- next.ret
		return
	}
	s.running = nil
	s.originalCh <- struct{}{}
}

// evictDeadCache tears down backing goroutines for dead-cached coroutines
// beyond cfg.deadCacheCap, oldest first.
func (s *Scheduler) evictDeadCache() {
	for s.deadLen > s.cfg.deadCacheCap {
		front := s.deadCache.Front()
		if front == nil {
			return
		}
		victim := front.Value
		front.Reset()
		s.deadLen--
		s.coroutines--
		close(victim.resumeCh)
	}
}

// Finish is the public form of finish, for callers (such as stackless's
// adapter or a custom trampoline) that manage their own Func invocation and
// need to report completion on the running coroutine's behalf. Ordinary
// Start-created coroutines never need to call this directly; it is invoked
// automatically once Func returns.
func (co *Coroutine) Finish(ret any) {
	if co.sched.running != co {
		panic(ErrNotRunning)
	}
	co.sched.finish(co, ret)
}

// Loop binds the scheduler to the calling goroutine and runs coroutines,
// round-robin, until the ready list is empty. It implements component C7:
// the entry loop. Loop is not reentrant; a second concurrent call against
// the same Scheduler returns ErrAlreadyLooping. A done ctx marks the
// scheduler stopped, but Loop still runs whatever is ready before it
// returns.
//
// In both modes Loop returns as soon as the ready list empties, and may be
// called again later to resume draining work queued in the meantime.
// exclusive only changes the result: nil if exclusive is true and the
// scheduler has not stopped, ctx.Err() otherwise.
func (s *Scheduler) Loop(ctx context.Context, exclusive bool) error {
	if !s.looping.CompareAndSwap(false, true) {
		return ErrAlreadyLooping
	}
	defer s.looping.Store(false)

	for {
		if ctx.Err() != nil {
			s.stopped.Store(true)
		}
		head := s.ready.Front()
		if head == nil {
			if exclusive && !s.stopped.Load() {
				// Nothing ready yet in exclusive mode: nothing will ever
				// make more ready without a coroutine running, so this
				// is definitionally done.
				return nil
			}
			return ctx.Err()
		}
		co := head.Value
		head.Remove()
		s.running = co
		co.state = Running
		co.resumeCh <- co.ret
		<-s.originalCh
	}
}

// Exit permanently tears the scheduler down: every coroutine it still owns
// (ready, suspended, or dead-cached) has its backing goroutine torn down,
// exactly as evictDeadCache already does for dead-cache overflow. Exit
// requires the scheduler to have already stopped (via Kill, or Loop
// observing ctx.Err()), returning ErrNotStopped otherwise. The scheduler
// must not be reused once Exit returns successfully.
func (s *Scheduler) Exit() error {
	if !s.stopped.Load() {
		return ErrNotStopped
	}
	for _, list := range [...]*colist.List[*Coroutine]{s.ready, s.suspended, s.deadCache} {
		for {
			front := list.Front()
			if front == nil {
				break
			}
			victim := front.Value
			front.Reset()
			s.coroutines--
			close(victim.resumeCh)
		}
	}
	s.deadLen = 0
	s.cfg.log.Debug().Log("corort: scheduler exited")
	return nil
}

// Kill asks the scheduler to stop. Safe to call from any goroutine,
// including from within a running coroutine (self-kill) or from outside
// Loop entirely. Every coroutine currently parked in a plain Suspend is
// moved directly to the ready list, so it gets one more turn to observe
// Stopped and unwind itself instead of blocking forever on a Resume that
// will never come; cancellation of higher-level waits (corosync
// primitives) builds on this by checking Stopped after waking.
func (s *Scheduler) Kill() {
	s.stopped.Store(true)
	for {
		front := s.suspended.Front()
		if front == nil {
			break
		}
		target := front.Value
		front.Remove()
		target.state = Ready
		s.ready.PushBack(&target.node)
	}
}
