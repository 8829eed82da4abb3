// Package corort implements a single-threaded, cooperative coroutine
// scheduler: the stackful flavor of the runtime described by this
// repository's SPEC_FULL.md (components C1, C2, C4 and C7).
//
// A Coroutine is backed by a dedicated goroutine parked on a rendezvous
// channel. Go already performs the register/stack save-restore a stackful
// coroutine needs (that machinery lives in the runtime, not here); what
// corort adds on top is the part spec.md actually cares about: exactly one
// coroutine runs at a time, suspension and resumption are explicit,
// round-robin order is preserved across yields, and a bounded dead-cache
// amortizes goroutine (re)use the way the original amortizes stack
// allocation.
//
// See the stackless package for the no-goroutine, no-stack flavor (C3), and
// ioloop for the integrated poller/timer extension (C5) that lets a
// Scheduler's coroutines block on sockets and sleeps without blocking the
// owning OS thread.
package corort
