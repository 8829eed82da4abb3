package ioloop

import "errors"

var (
	// ErrTimeout is returned by WaitIO when its deadline elapses before
	// the descriptor becomes ready.
	ErrTimeout = errors.New("ioloop: wait timed out")

	// ErrFDBusy is returned by WaitIO when fd already has a pending wait
	// registered by another coroutine; only one waiter per descriptor is
	// supported at a time.
	ErrFDBusy = errors.New("ioloop: fd already has a pending wait")

	// ErrClosed is returned by Scheduler operations once Close has been
	// called.
	ErrClosed = errors.New("ioloop: scheduler closed")

	// ErrCancelled is returned by WaitIO (and delivered to an
	// AsyncWaitIO/stackless WaitIO's done callback) when Cancel(fd) is
	// called against its wait before it resolved on its own.
	ErrCancelled = errors.New("ioloop: wait cancelled")
)
