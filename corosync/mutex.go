package corosync

import (
	"time"

	"github.com/joeycumines/corort"
)

// Mutex is a non-reentrant mutual-exclusion lock for coroutines on the
// same Scheduler, implemented as the original implements it: a Semaphore
// with an initial value of one.
type Mutex struct {
	sem *Semaphore
}

// NewMutex constructs an unlocked Mutex.
func NewMutex() *Mutex {
	return &Mutex{sem: NewSemaphore(1)}
}

// Lock blocks the calling coroutine until the mutex is free, then takes
// it, returning 1. See Semaphore.Wait for the timer/timeout arguments and
// the 1/0/-1 tri-state return (acquired/timed-out/cancelled); the lock is
// not held unless Lock returns 1.
func (m *Mutex) Lock(co *corort.Coroutine, timer Timer, timeout time.Duration) int {
	return m.sem.Wait(co, timer, timeout)
}

// Unlock releases the mutex, waking the longest-waiting blocked coroutine
// if any. Calling Unlock without holding the lock produces the same
// observable effect as Post(1) on the underlying semaphore; callers are
// responsible for only unlocking what they locked.
func (m *Mutex) Unlock() {
	m.sem.Post(1)
}
