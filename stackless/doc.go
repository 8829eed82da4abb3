// Package stackless implements the no-stack flavor of the runtime
// (component C3): a Core carries no call stack of its own to suspend and
// resume, only a small resume-point and a scratch slot the Func manages by
// hand. Where corort substitutes a goroutine for the context a stackful
// coroutine would otherwise need, stackless has nothing to substitute:
// there is no Go construct that captures "pause this function call and
// resume it later with its locals intact" short of the goroutine trick
// corort already uses, so a stackless Func is written the way the
// original's stackless coroutines are written in C — as an explicit
// resume-point switch, re-entered from the top on every scheduler turn.
//
// Scheduler reuses the same ready/suspended list bookkeeping as corort
// (internal/colist), but needs none of corort's goroutine/channel
// machinery: since a Func call always returns before the next one starts,
// driving the scheduler is an ordinary single-threaded loop over plain
// function calls.
//
// Core.WaitIO and Core.Sleep (waitio.go) bridge a Core into an
// ioloop.Scheduler's own poller and timer wheel via its non-blocking
// AsyncWaitIO/AsyncSleep primitives, arming the wait and returning Suspend
// immediately rather than blocking: the one thing a stackless Func can
// never do. Because that completion can fire before this turn's Suspend
// signal has even been processed by the Scheduler, Core tracks a
// resumeRequested flag so the wait always resolves, whichever order the
// two land in.
package stackless
