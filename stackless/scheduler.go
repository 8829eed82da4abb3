package stackless

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/joeycumines/corort/corolog"
	"github.com/joeycumines/corort/internal/colist"
)

// Errors returned by Scheduler operations, named after the condition
// reported rather than the internal check that produced it.
var (
	ErrStopped      = errors.New("stackless: scheduler stopped")
	ErrNotSuspended = errors.New("stackless: target core is not suspended")
	ErrForeignCore  = errors.New("stackless: core belongs to a different scheduler")
	ErrNotStopped   = errors.New("stackless: scheduler has not stopped")
)

// SchedulerOption configures a Scheduler at construction time.
type SchedulerOption func(*schedulerConfig)

type schedulerConfig struct {
	deadCacheCap int
	log          corolog.Logger
}

// WithDeadCacheCap bounds how many finished Cores a Scheduler retains for
// reuse by Start.
func WithDeadCacheCap(n int) SchedulerOption {
	if n < 0 {
		n = 0
	}
	return func(c *schedulerConfig) { c.deadCacheCap = n }
}

// WithLogger overrides the scheduler's logiface/stumpy-backed logger.
func WithLogger(log corolog.Logger) SchedulerOption {
	return func(c *schedulerConfig) {
		if log != nil {
			c.log = log
		}
	}
}

// CoreOption configures an individual Core at Start time.
type CoreOption func(*coreConfig)

type coreConfig struct{ name string }

// WithName attaches a diagnostic name to a core.
func WithName(name string) CoreOption {
	return func(c *coreConfig) { c.name = name }
}

// Scheduler owns a set of stackless coroutines. Unlike corort.Scheduler it
// needs no dedicated OS thread binding and no channel handoff: since every
// Func call returns before the next begins, Loop is an ordinary
// single-threaded driving loop.
type Scheduler struct {
	cfg schedulerConfig

	ready     *colist.List[*Core]
	suspended *colist.List[*Core]
	sleeping  *colist.List[*Core]
	deadCache *colist.List[*Core]
	deadLen   int

	running *Core
	stopped atomic.Bool
	looping atomic.Bool
}

// NewScheduler constructs an empty Scheduler.
func NewScheduler(opts ...SchedulerOption) *Scheduler {
	cfg := schedulerConfig{deadCacheCap: 64, log: corolog.Default()}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Scheduler{
		cfg:       cfg,
		ready:     colist.New[*Core](),
		suspended: colist.New[*Core](),
		sleeping:  colist.New[*Core](),
		deadCache: colist.New[*Core](),
	}
}

// Len reports core-count introspection paralleling
// corort.Scheduler.Len: ready (including the running core, if any),
// suspended, sleeping, and dead-cached counts.
func (s *Scheduler) Len() (ready, suspended, sleeping, dead int) {
	ready = s.ready.Len()
	if s.running != nil {
		ready++
	}
	return ready, s.suspended.Len(), s.sleeping.Len(), s.deadLen
}

// Exit permanently tears the scheduler down: every core it still owns
// (ready, suspended, sleeping, or dead-cached) is discarded. Exit
// requires the scheduler to have already stopped (via Kill, or Loop
// observing ctx.Err()), returning ErrNotStopped otherwise. The scheduler
// must not be reused once Exit returns successfully.
func (s *Scheduler) Exit() error {
	if !s.stopped.Load() {
		return ErrNotStopped
	}
	for _, list := range [...]*colist.List[*Core]{s.ready, s.suspended, s.sleeping, s.deadCache} {
		for {
			front := list.Front()
			if front == nil {
				break
			}
			front.Reset()
		}
	}
	s.deadLen = 0
	s.cfg.log.Debug().Log("stackless: scheduler exited")
	return nil
}

// Running returns the core currently executing, or nil.
func (s *Scheduler) Running() *Core { return s.running }

// Stopped reports whether Kill has been called.
func (s *Scheduler) Stopped() bool { return s.stopped.Load() }

// Kill asks the scheduler to stop. Safe to call from any goroutine. Every
// currently suspended or sleeping core is made ready so it gets one more
// turn to observe Stopped() and finish itself, mirroring
// corort.Scheduler.Kill's mass-wake.
func (s *Scheduler) Kill() {
	s.stopped.Store(true)
	for _, list := range [...]*colist.List[*Core]{s.suspended, s.sleeping} {
		for {
			front := list.Front()
			if front == nil {
				break
			}
			co := front.Value
			front.Remove()
			co.state = Ready
			s.ready.PushBack(&co.node)
		}
	}
}

// Start creates (or reinitializes a dead-cached) core to run fn(arg), and
// makes it ready.
func (s *Scheduler) Start(fn Func, arg any, opts ...CoreOption) (*Core, error) {
	if s.stopped.Load() {
		return nil, ErrStopped
	}
	var ccfg coreConfig
	for _, opt := range opts {
		opt(&ccfg)
	}

	var co *Core
	if front := s.deadCache.Front(); front != nil {
		co = front.Value
		front.Remove()
		s.deadLen--
	} else {
		co = &Core{sched: s}
		co.node.Value = co
	}
	co.fn = fn
	co.arg = arg
	co.ret = nil
	co.Branch = 0
	co.Local = nil
	co.Extra = nil
	co.resumeRequested = false
	co.name = ccfg.name
	co.state = Ready

	// step takes the running core (if any) off the front of the ready list,
	// so the tail is the place just before it in the round-robin ring.
	s.ready.PushBack(&co.node)
	return co, nil
}

// Resume makes a suspended core ready again; it does not run it
// immediately. Returns ErrNotSuspended if target is not currently
// suspended, or ErrForeignCore if it belongs to a different scheduler.
func (s *Scheduler) Resume(target *Core) error {
	if target.sched != s {
		return ErrForeignCore
	}
	if target.state != Suspended {
		return ErrNotSuspended
	}
	target.node.Remove()
	target.state = Ready
	s.ready.PushBack(&target.node)
	return nil
}

// resumeIfSuspended resumes target immediately if its Func has already
// returned Suspend and step has filed it on the suspended list. Used by
// asynchronous completion callbacks (an ioloop wait or timer firing) that
// may run before step gets a chance to react to the Suspend signal that
// triggered them in the first place, in which case target is still
// Running and this reports false; the caller must then set
// target.resumeRequested so step's own Suspend handling resumes it
// immediately instead of filing it on the suspended list.
func (s *Scheduler) resumeIfSuspended(target *Core) bool {
	if target.state != Suspended {
		return false
	}
	_ = s.Resume(target)
	return true
}

// wakeSleepers moves every core whose Deadline has elapsed from sleeping
// to ready.
func (s *Scheduler) wakeSleepers(now time.Time) {
	var due []*Core
	s.sleeping.Do(func(n *colist.Node[*Core]) {
		if !n.Value.Deadline.After(now) {
			due = append(due, n.Value)
		}
	})
	for _, co := range due {
		co.node.Remove()
		co.state = Ready
		s.ready.PushBack(&co.node)
	}
}

// step runs one ready core for a single turn, applying whatever Signal its
// Func returns.
func (s *Scheduler) step() {
	front := s.ready.Front()
	if front == nil {
		return
	}
	co := front.Value
	front.Remove()
	s.running = co
	co.state = Running

	ret, sig := co.fn(co)

	s.running = nil
	switch sig {
	case Continue:
		co.state = Ready
		s.ready.PushBack(&co.node)
	case Suspend:
		if co.resumeRequested {
			// An async completion callback (ioloop WaitIO/Sleep, or any
			// other asynchronous waker) already fired while co's Func was
			// still running this turn, before it had a chance to return
			// Suspend. Honor it immediately instead of filing co on the
			// suspended list, where it would otherwise wait forever for a
			// Resume that already happened.
			co.resumeRequested = false
			co.state = Ready
			s.ready.PushBack(&co.node)
		} else {
			co.state = Suspended
			s.suspended.PushBack(&co.node)
		}
	case Sleep:
		co.state = Sleeping
		s.sleeping.PushBack(&co.node)
	case Finish:
		co.state = Dead
		co.ret = ret
		co.fn = nil
		co.arg = nil
		s.deadCache.PushBack(&co.node)
		s.deadLen++
		s.evictDeadCache()
		s.cfg.log.Debug().Log(fmt.Sprintf("stackless: finished %s", coreLabel(co)))
	}
}

func (s *Scheduler) evictDeadCache() {
	for s.deadLen > s.cfg.deadCacheCap {
		front := s.deadCache.Front()
		if front == nil {
			return
		}
		front.Reset()
		s.deadLen--
	}
}

func coreLabel(co *Core) string {
	if co.name != "" {
		return co.name
	}
	return fmt.Sprintf("%p", co)
}

// idleSleepWait bounds how long Loop may idle when nothing is ready but
// something is sleeping or suspended, avoiding a tight busy spin while
// still checking ctx.Done() and Stopped() promptly.
const idleSleepWait = time.Millisecond

// Loop drives the scheduler, implementing component C7 with the same
// three-step contract as corort.Scheduler.Loop; neither flavor pins an OS
// thread.
//
// If exclusive is true, Loop keeps idling while nothing is ready but some
// core is suspended or sleeping, and returns once nothing is ready and
// either nothing is left suspended or sleeping or the scheduler has
// stopped (via Kill or ctx). If false, Loop
// returns as soon as the ready list empties, whether or not something
// remains suspended or sleeping, so that callers can share a single
// driving loop across schedulers and resume later with another call.
func (s *Scheduler) Loop(ctx context.Context, exclusive bool) error {
	if !s.looping.CompareAndSwap(false, true) {
		return errors.New("stackless: scheduler is already bound to a running Loop")
	}
	defer s.looping.Store(false)

	for {
		if ctx.Err() != nil {
			s.stopped.Store(true)
		}
		s.wakeSleepers(time.Now())

		if s.ready.Len() == 0 {
			if !exclusive {
				return ctx.Err()
			}
			if s.suspended.Len() == 0 && s.sleeping.Len() == 0 {
				return ctx.Err()
			}
			if s.stopped.Load() {
				return ctx.Err()
			}
			time.Sleep(idleSleepWait)
			continue
		}
		s.step()
	}
}
