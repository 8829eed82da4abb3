// Package corosync implements the stackful runtime's synchronization
// primitives (component C6): a counting Semaphore, a Mutex built on top of
// it, and a generic buffered/rendezvous Chan. All three block the calling
// coroutine by delegating to corort.Coroutine.Suspend/corort.Scheduler.Resume
// rather than any lower-level primitive, so they inherit the scheduler's
// cooperative, single-OS-thread semantics for free: a Wait/Send/Recv call
// yields control to another ready coroutine exactly the way Suspend always
// does, and resumes in FIFO order once satisfied.
//
// Semaphore.Wait and Mutex.Lock additionally accept an optional Timer and
// timeout, letting a wait give up after a deadline instead of blocking
// forever; passing a *ioloop.Scheduler as the Timer arms that timeout
// against its own wheels, the same way its WaitIO does, without corosync
// importing ioloop directly.
//
// These primitives are stackful-only: stackless coroutines resume at a
// saved program-counter-like state rather than a paused Go call stack, so
// there is no call frame to block in the first place. See stackless's own
// doc comment for how it models waiting instead.
package corosync
