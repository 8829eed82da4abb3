package corort

import "errors"

// Sentinel errors returned by Scheduler operations. Each names the
// condition it reports rather than the internal check that produced it, so
// callers can errors.Is against them directly.
var (
	// ErrStopped is returned by Start when the Scheduler has already
	// entered its stopped state (Kill was called, or Loop observed
	// ctx.Err()).
	ErrStopped = errors.New("corort: scheduler stopped")

	// ErrNotRunning is the value Yield, Suspend and Finish panic with when
	// called other than from the coroutine currently designated as running.
	ErrNotRunning = errors.New("corort: caller is not the running coroutine")

	// ErrNotSuspended is returned by Resume when the target coroutine is
	// not currently a member of the suspended list.
	ErrNotSuspended = errors.New("corort: target coroutine is not suspended")

	// ErrAlreadyLooping is returned by Loop when called re-entrantly, or
	// concurrently, against the same Scheduler.
	ErrAlreadyLooping = errors.New("corort: scheduler is already bound to a running Loop")

	// ErrForeignCoroutine is returned when a Coroutine handle belonging to
	// a different Scheduler is passed to an operation.
	ErrForeignCoroutine = errors.New("corort: coroutine belongs to a different scheduler")

	// ErrGuardCorrupt reports that a stackful coroutine's watermark guard
	// word no longer matches its initialized value, the idiomatic
	// substitute for the original's stack-overflow sentinel check. Only
	// ever produced by debug builds (see guard_debug.go).
	ErrGuardCorrupt = errors.New("corort: coroutine stack guard corrupted, possible overflow")

	// ErrNotStopped is returned by Exit when called before the scheduler
	// has stopped (via Kill, or Loop observing ctx.Err()).
	ErrNotStopped = errors.New("corort: scheduler has not stopped")
)
