package ioloop

import (
	"errors"
	"time"
)

// Events is a bitmask of I/O readiness conditions, mirrored from the
// platform poller's own flags into a small portable set.
type Events uint32

const (
	// EventRead means the descriptor is readable.
	EventRead Events = 1 << iota
	// EventWrite means the descriptor is writable.
	EventWrite
	// EventError means an error condition was reported for the descriptor.
	EventError
	// EventHangup means the peer end of the descriptor closed. WaitIO
	// caches a hangup against the descriptor once observed and reports it
	// at once, without polling, on every later call for that descriptor.
	EventHangup
)

// Standard poller errors.
var (
	ErrFDAlreadyRegistered = errors.New("ioloop: fd already registered")
	ErrFDNotRegistered     = errors.New("ioloop: fd not registered")
	ErrPollerClosed        = errors.New("ioloop: poller closed")
)

// poller abstracts the platform readiness-notification mechanism. It is
// deliberately minimal and single-threaded: every method is only ever
// called from the loop coroutine's own goroutine, never concurrently,
// mirroring corort's own single-running-coroutine discipline and letting
// implementations skip the locking the original's multi-threaded pollers
// need.
type poller interface {
	// init prepares the underlying poll instance (epoll_create, kqueue,
	// ...).
	init() error
	// close releases the underlying poll instance.
	close() error
	// register begins monitoring fd for the given events.
	register(fd int, ev Events) error
	// modify changes the event set a previously registered fd is
	// monitored for.
	modify(fd int, ev Events) error
	// unregister stops monitoring fd.
	unregister(fd int) error
	// poll blocks up to timeout (or indefinitely, if timeout < 0) waiting
	// for readiness, invoking cb once per ready descriptor observed. A
	// timeout of 0 polls without blocking.
	poll(timeout time.Duration, cb func(fd int, ev Events)) error
}
