package corosync

import "time"

// Timer is the minimal capability Semaphore.Wait (and Mutex.Lock) need to
// arm a wait's timeout without corosync importing ioloop directly:
// anything with an AsyncSleep method of this shape — *ioloop.Scheduler,
// notably — can be passed as the timer argument. A nil Timer (or a
// non-positive timeout) means wait indefinitely, matching how ioloop's
// own WaitIO treats timeout <= 0.
type Timer interface {
	// AsyncSleep calls done after roughly d has elapsed, without blocking
	// the caller, and returns a cancel function that prevents done from
	// firing if called beforehand.
	AsyncSleep(d time.Duration, done func()) (cancel func())
}
