package corort

import (
	"fmt"

	"github.com/joeycumines/corort/internal/colist"
)

// State is a Coroutine's lifecycle state, tracked in parallel with (and
// implied by) which of the Scheduler's three lists currently owns its node.
type State int

const (
	// Ready means the coroutine is a member of the scheduler's ready
	// list: eligible to run, but not currently running.
	Ready State = iota
	// Running means the coroutine is Scheduler.running. A running
	// coroutine's node has been spliced out of every list (invariant
	// I3); Coroutine.node.Next still reports its successor via the
	// stale-pointer rule documented on colist.Node.Remove.
	Running
	// Suspended means the coroutine is parked awaiting Resume, a timer,
	// or I/O readiness; a member of the scheduler's suspended list.
	Suspended
	// Dead means the coroutine's function has returned. It sits in the
	// scheduler's dead-cache, eligible for reinitialization by Start,
	// until evicted.
	Dead
)

func (s State) String() string {
	switch s {
	case Ready:
		return "ready"
	case Running:
		return "running"
	case Suspended:
		return "suspended"
	case Dead:
		return "dead"
	default:
		return "unknown"
	}
}

// Func is the body a coroutine runs. Its argument is whatever was passed to
// Start (or a later reinitialization pulled off the dead cache); its return
// value is stored on the coroutine when it finishes and is otherwise
// unobserved by the scheduler; no accessor exposes it.
type Func func(arg any) any

// killSentinel, if received on a dead-cached coroutine's resumeCh, makes
// its backing goroutine return instead of re-entering Func. Dead-cache
// eviction and Exit close resumeCh instead, which ends the goroutine the
// same way.
type killSentinel struct{}

// Coroutine is one stackful coroutine: a Func running on a dedicated
// goroutine, parked between turns on resumeCh. The "stack" the original
// library manages by hand is simply the backing goroutine's own Go stack;
// corort's job is purely the scheduling discipline layered on top (exactly
// one running at a time, explicit suspend/resume, round-robin fairness).
type Coroutine struct {
	sched *Scheduler

	// node is this coroutine's membership in exactly one of the
	// scheduler's ready/suspended/dead-cache lists, or in none while
	// Running (invariants I1-I3).
	node colist.Node[*Coroutine]

	state State
	name  string

	resumeCh chan any
	fn       Func
	arg      any
	ret      any // pending suspend/resume payload slot, see Scheduler.Suspend/Resume

	// Extra is reserved for extensions layered on top of corort (ioloop's
	// per-coroutine wait descriptor, for instance) that need to associate
	// data with a coroutine without corort importing them back.
	Extra any

	guard uint64 // debug-build stack watermark guard, see guard_debug.go / guard_release.go
}

func newCoroutine(s *Scheduler) *Coroutine {
	co := &Coroutine{sched: s}
	co.node.Value = co
	co.resumeCh = make(chan any)
	initGuard(co)
	go co.trampoline()
	return co
}

// trampoline is the body of a coroutine's backing goroutine. It blocks
// between turns on resumeCh, runs Func to completion, reports the result to
// the scheduler, then loops back to wait for either a dead-cache eviction
// (killSentinel, or a closed channel) or reinitialization and reuse.
func (co *Coroutine) trampoline() {
	for in := range co.resumeCh {
		if _, ok := in.(killSentinel); ok {
			return
		}
		checkGuard(co)
		ret := co.fn(co.arg)
		co.sched.finish(co, ret)
	}
}

// State reports the coroutine's current lifecycle state.
func (co *Coroutine) State() State { return co.state }

// Name returns the diagnostic name supplied via WithName, or "" if none was
// given.
func (co *Coroutine) Name() string { return co.name }

func (co *Coroutine) String() string {
	if co.name != "" {
		return fmt.Sprintf("coroutine(%s)", co.name)
	}
	return fmt.Sprintf("coroutine(%p)", co)
}

// Scheduler returns the Scheduler that owns co.
func (co *Coroutine) Scheduler() *Scheduler { return co.sched }

// Arg returns the value most recently passed to Start (or SetArg), the
// idiomatic substitute for the original's tb_co_passed_get: a slot a
// coroutine's own Func can use to carry mutable state across Yield/Suspend
// round-trips without a closure-captured variable.
func (co *Coroutine) Arg() any { return co.arg }

// SetArg overwrites the value Arg will subsequently return, the substitute
// for tb_co_passed_set.
func (co *Coroutine) SetArg(arg any) { co.arg = arg }
