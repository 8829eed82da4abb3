package corosync

import (
	"github.com/joeycumines/corort"
	"github.com/joeycumines/corort/internal/colist"
)

// Chan is a generic FIFO channel between coroutines on the same Scheduler,
// backed by a fixed-capacity ring buffer, or operating in zero-capacity
// rendezvous mode when constructed with capacity zero. Blocked senders and
// receivers are each released in their own FIFO order.
type Chan[T any] struct {
	buf        []T
	head, size int
	cap        int
	sendQ      *colist.List[*chanWaiter[T]]
	recvQ      *colist.List[*chanWaiter[T]]
	closed     bool
}

type chanWaiter[T any] struct {
	node colist.Node[*chanWaiter[T]]
	co   *corort.Coroutine
	val  T
}

// NewChan constructs a Chan with the given buffer capacity. Capacity zero
// means every Send blocks until a matching Recv is ready to take the value
// directly (rendezvous).
func NewChan[T any](capacity int) *Chan[T] {
	if capacity < 0 {
		capacity = 0
	}
	c := &Chan[T]{
		cap:   capacity,
		sendQ: colist.New[*chanWaiter[T]](),
		recvQ: colist.New[*chanWaiter[T]](),
	}
	if capacity > 0 {
		c.buf = make([]T, capacity)
	}
	return c
}

// Cap returns the channel's buffer capacity.
func (c *Chan[T]) Cap() int { return c.cap }

// Len returns the number of values currently buffered (not counting
// blocked senders awaiting a receiver in rendezvous mode).
func (c *Chan[T]) Len() int { return c.size }

func (c *Chan[T]) push(v T) {
	idx := (c.head + c.size) % len(c.buf)
	c.buf[idx] = v
	c.size++
}

func (c *Chan[T]) pop() T {
	v := c.buf[c.head]
	var zero T
	c.buf[c.head] = zero
	c.head = (c.head + 1) % len(c.buf)
	c.size--
	return v
}

// Send blocks until v is accepted, either buffered or handed directly to a
// waiting receiver, and returns true; or returns false if the channel is
// closed or the coroutine's scheduler is, or becomes, stopped while
// waiting.
func (c *Chan[T]) Send(co *corort.Coroutine, v T) bool {
	if c.closed {
		return false
	}
	if co.Scheduler().Stopped() {
		return false
	}

	if front := c.recvQ.Front(); front != nil {
		w := front.Value
		front.Remove()
		w.val = v
		_, _ = w.co.Scheduler().Resume(w.co, nil)
		return true
	}
	if c.cap > 0 && c.size < c.cap {
		c.push(v)
		return true
	}

	w := &chanWaiter[T]{co: co, val: v}
	w.node.Value = w
	c.sendQ.PushBack(&w.node)
	co.Suspend(nil)
	w.node.Reset()
	return !co.Scheduler().Stopped() && !c.closed
}

// Recv blocks until a value is available, either from the buffer or handed
// directly from a waiting sender, and returns it with ok true. Returns the
// zero value and ok false if the channel closes, or the coroutine's
// scheduler is, or becomes, stopped, while waiting.
func (c *Chan[T]) Recv(co *corort.Coroutine) (v T, ok bool) {
	if c.size > 0 {
		val := c.pop()
		c.wakeOneSender()
		return val, true
	}
	if front := c.sendQ.Front(); front != nil {
		w := front.Value
		front.Remove()
		val := w.val
		_, _ = w.co.Scheduler().Resume(w.co, nil)
		return val, true
	}
	if c.closed {
		var zero T
		return zero, false
	}
	if co.Scheduler().Stopped() {
		var zero T
		return zero, false
	}

	w := &chanWaiter[T]{co: co}
	w.node.Value = w
	c.recvQ.PushBack(&w.node)
	co.Suspend(nil)
	// A sender handing over a value takes w off recvQ first; Close and
	// Kill wake w with its node still queued.
	handed := !w.node.InList()
	w.node.Reset()

	if !handed || co.Scheduler().Stopped() {
		var zero T
		return zero, false
	}
	return w.val, true
}

// TrySend attempts to deliver v without blocking, only ever succeeding on a
// buffered channel (Cap() > 0) that is open and not yet full. It hands v
// to the longest-waiting blocked receiver if there is one, and otherwise
// buffers it; reports whether v was accepted.
func (c *Chan[T]) TrySend(v T) bool {
	if c.closed || c.cap == 0 || c.size >= c.cap {
		return false
	}
	// Receivers block only while the buffer is empty, so a waiting
	// receiver takes v directly and is resumed.
	if front := c.recvQ.Front(); front != nil {
		w := front.Value
		front.Remove()
		w.val = v
		_, _ = w.co.Scheduler().Resume(w.co, nil)
		return true
	}
	c.push(v)
	return true
}

// TryRecv attempts to take a buffered value without blocking, only ever
// succeeding on a buffered channel (Cap() > 0) with at least one value
// already in its buffer. Reports ok false, without blocking, if the
// buffer is empty, whether or not the channel is closed.
func (c *Chan[T]) TryRecv() (v T, ok bool) {
	if c.cap == 0 || c.size == 0 {
		return v, false
	}
	val := c.pop()
	c.wakeOneSender()
	return val, true
}

// wakeOneSender pulls the longest-waiting blocked sender's value into the
// now-freed buffer slot and releases it.
func (c *Chan[T]) wakeOneSender() {
	front := c.sendQ.Front()
	if front == nil {
		return
	}
	w := front.Value
	front.Remove()
	c.push(w.val)
	_, _ = w.co.Scheduler().Resume(w.co, nil)
}

// Close marks the channel closed: pending and future Recv calls drain any
// already-buffered values first, then fail; pending and future Send calls
// fail immediately. Close wakes every coroutine currently blocked on the
// channel so they observe the closure rather than waiting forever.
func (c *Chan[T]) Close() {
	if c.closed {
		return
	}
	c.closed = true
	c.sendQ.Do(func(n *colist.Node[*chanWaiter[T]]) {
		_, _ = n.Value.co.Scheduler().Resume(n.Value.co, nil)
	})
	c.recvQ.Do(func(n *colist.Node[*chanWaiter[T]]) {
		_, _ = n.Value.co.Scheduler().Resume(n.Value.co, nil)
	})
}
