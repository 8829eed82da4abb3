// Package ioloop extends corort with non-blocking I/O and timers
// (component C5): a Scheduler wraps a *corort.Scheduler, adding Sleep and
// WaitIO operations backed by a platform poller (epoll on Linux, kqueue on
// the BSDs and Darwin) and a two-tier timer wheel (ioloop/timerwheel): a
// precise, millisecond-granularity wheel for short sleeps and I/O
// deadlines, and a coarse, second-granularity wheel for long ones. Cancel
// lets a caller tear down a pending wait (e.g. before closing its
// descriptor) without waiting for it to resolve on its own.
//
// AsyncSleep and AsyncWaitIO are the non-blocking counterparts to Sleep
// and WaitIO, for integrations with no backing coroutine to block: a
// completion callback fires instead of a Suspend call returning. corosync's
// Timer interface and the stackless flavor's Core.WaitIO/Core.Sleep
// (stackless/waitio.go) are both built on these.
//
// The integration point is a single extra coroutine (the "loop coroutine"),
// started alongside user coroutines on the same corort.Scheduler: whenever
// every other coroutine is blocked or finished, it calls into the poller
// with a timeout computed from both wheels, dispatches whatever comes back,
// advances the wheels, and yields again. This keeps the poll syscall (which
// really does block the OS thread) confined to exactly the moments nothing
// else could usefully run, the same trade the original's integrated
// coroutine/io scheduler makes.
package ioloop
