package corosync

import (
	"time"

	"github.com/joeycumines/corort"
	"github.com/joeycumines/corort/internal/colist"
)

// Semaphore is a counting semaphore whose waiters are released in FIFO
// order. Post and Wait are only meant to be called from
// coroutines belonging to the same Scheduler; Post may also be called from
// the scheduler's original (outer) context between Loop invocations.
type Semaphore struct {
	value   int
	waiters *colist.List[*corort.Coroutine]
}

// NewSemaphore constructs a Semaphore with the given initial value. A
// negative initial value is treated as zero.
func NewSemaphore(initial int) *Semaphore {
	if initial < 0 {
		initial = 0
	}
	return &Semaphore{
		value:   initial,
		waiters: colist.New[*corort.Coroutine](),
	}
}

// Value returns the semaphore's current count (waiters pending does not
// affect this; it is only ever positive when no one is waiting).
func (sem *Semaphore) Value() int { return sem.value }

// Wait blocks the calling coroutine until the semaphore's value is
// positive, then decrements it and returns 1 (acquired). If timeout is
// positive and timer is non-nil, a timer is armed against it the way
// ioloop arms its own waits; Wait returns 0 (timed out) if it fires
// before a post hands the semaphore off. A nil timer, or a non-positive
// timeout, waits indefinitely. Wait returns -1 (cancelled) if the
// coroutine's scheduler is, or becomes, stopped before it is handed the
// semaphore.
func (sem *Semaphore) Wait(co *corort.Coroutine, timer Timer, timeout time.Duration) int {
	if co.Scheduler().Stopped() {
		return -1
	}
	if sem.value > 0 {
		sem.value--
		return 1
	}

	var node colist.Node[*corort.Coroutine]
	node.Value = co
	sem.waiters.PushBack(&node)

	var timedOut bool
	var cancelTimer func()
	if timer != nil && timeout > 0 {
		cancelTimer = timer.AsyncSleep(timeout, func() {
			if !node.InList() {
				// Already handed off by Post (or swept up by a
				// Scheduler.Kill mass-wake below); the timer lost the race.
				return
			}
			timedOut = true
			node.Remove()
			_, _ = co.Scheduler().Resume(co, nil)
		})
	}

	co.Suspend(nil)
	node.Reset()

	if cancelTimer != nil && !timedOut {
		cancelTimer()
	}
	if timedOut {
		return 0
	}
	// A direct Post handoff never touches sem.value (see Post); only a
	// Scheduler.Kill mass-wake (which bypasses Post) leaves it up to us
	// to notice nothing was actually handed off.
	if co.Scheduler().Stopped() {
		return -1
	}
	return 1
}

// Post increments the semaphore's value by n (n must be positive),
// releasing up to n waiters in FIFO order instead of incrementing the
// count for any waiter it hands off to directly.
func (sem *Semaphore) Post(n int) {
	for i := 0; i < n; i++ {
		front := sem.waiters.Front()
		if front == nil {
			sem.value++
			continue
		}
		target := front.Value
		front.Remove()
		// Target may already have been moved to the ready list directly
		// by Scheduler.Kill's mass-wake; Resume then fails harmlessly
		// with ErrNotSuspended, nothing further to do.
		_, _ = target.Scheduler().Resume(target, nil)
	}
}
