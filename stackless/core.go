package stackless

import (
	"time"

	"github.com/joeycumines/corort/internal/colist"
)

// Signal is what a Func returns alongside its value, telling the Scheduler
// what to do with the Core next.
type Signal int

const (
	// Continue re-enters the Func at the next scheduler turn, with the
	// Core back at the tail of the ready list: the stackless analogue of
	// a stackful coroutine's Yield.
	Continue Signal = iota
	// Suspend removes the Core from scheduling until some other code
	// calls Scheduler.Resume on it explicitly.
	Suspend
	// Sleep removes the Core from the ready list until Core.Deadline is
	// reached, at which point it becomes ready again automatically. The
	// Func must set Deadline before returning Sleep.
	Sleep
	// Finish ends the Core for good; ret becomes its retrievable result.
	Finish
)

// Func is a stackless coroutine body. It is called once per scheduler
// turn and must return quickly: there is no blocking call that could
// yield control back without a Func return, by construction. A Func that
// needs to suspend partway through its logic tracks where it left off
// itself (conventionally via Core.Branch and Core.Local) and re-enters at
// that point next time it is called, typically via a switch on
// Core.Branch.
type Func func(c *Core) (ret any, sig Signal)

// State mirrors corort's coroutine lifecycle states for the stackless
// flavor.
type State int

const (
	Ready State = iota
	Running
	Suspended
	Sleeping
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
	case Sleeping:
		return "sleeping"
	case Dead:
		return "dead"
	default:
		return "unknown"
	}
}

// Core is one stackless coroutine. Unlike corort.Coroutine, it owns no
// goroutine and no Go call stack of its own between turns; everything it
// needs to resume correctly lives in its exported Branch and Local fields,
// which the Func is free to read and write as its own resume-point state
// machine.
type Core struct {
	sched *Scheduler
	node  colist.Node[*Core]

	state State
	name  string

	fn  Func
	arg any
	ret any

	// Branch is a resume-point counter the Func owns entirely: the
	// idiomatic substitute for the original's "labels as values"
	// resume-into-the-middle-of-a-function trick, which Go has no
	// equivalent for. A typical Func is one big switch on Branch.
	Branch int

	// Local is scratch storage for whatever state a Func needs to
	// survive across turns (its local variables, effectively), since a
	// stackless Func cannot rely on the Go call stack to hold them. By
	// convention this holds a pointer to the Func's own private struct.
	Local any

	// Deadline is read by the Scheduler when a Func returns Sleep: the
	// Core becomes ready again once time.Now() reaches it.
	Deadline time.Time

	// Extra is reserved the same way corort.Coroutine.Extra is: for an
	// extension (such as an I/O integration) to stash data associated
	// with this Core without stackless importing that extension.
	Extra any

	// resumeRequested records that an asynchronous completion callback
	// (see requestResume) fired before this turn's Func returned Suspend,
	// so step's Suspend handling must resume c immediately instead of
	// filing it on the suspended list.
	resumeRequested bool
}

// Arg returns the argument the Core was started (or reinitialized) with.
func (c *Core) Arg() any { return c.arg }

// State reports the Core's current lifecycle state.
func (c *Core) State() State { return c.state }

// Name returns the diagnostic name supplied via WithName, or "" if none
// was given.
func (c *Core) Name() string { return c.name }

// Scheduler returns the Scheduler that owns c.
func (c *Core) Scheduler() *Scheduler { return c.sched }

// Result returns the value a Finished Core's Func returned. Only
// meaningful once State returns Dead.
func (c *Core) Result() any { return c.ret }

// requestResume asks c's scheduler to resume c, either right away if c is
// already parked on the suspended list, or (if c's Func is still running
// this very turn and hasn't returned Suspend yet) by flagging
// resumeRequested for step to notice once it does. Asynchronous wait
// integrations (WaitIO, Sleep) pass this as their completion callback.
func (c *Core) requestResume() {
	if !c.sched.resumeIfSuspended(c) {
		c.resumeRequested = true
	}
}

// WaitUntil reports whether cond is currently true, the direct
// substitute for the original's wait_until: a stackless Func has no way
// to block on an arbitrary predicate, so a Func built around WaitUntil
// re-checks cond once per scheduler turn instead, e.g.:
//
//	if !c.WaitUntil(cond) {
//	    return nil, Continue
//	}
func (c *Core) WaitUntil(cond func() bool) bool {
	return cond()
}

// Pass lazily initializes and returns c.Local as a *T, the generic
// substitute for the original's per-call "passed" struct convention: a
// Func's first turn calls Pass to allocate its persistent local state,
// and every later turn calls it again to fetch that same pointer.
func Pass[T any](c *Core, init func() *T) *T {
	if c.Local == nil {
		c.Local = init()
	}
	return c.Local.(*T)
}
