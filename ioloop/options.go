package ioloop

import (
	"time"

	"github.com/joeycumines/corort"
	"github.com/joeycumines/corort/corolog"
)

// Option configures a Scheduler at construction time.
type Option func(*config)

type config struct {
	schedOpts  []corort.SchedulerOption
	log        corolog.Logger
	preciseTick time.Duration
	preciseSlots int
	coarseTick  time.Duration
	coarseSlots int
	spinWindow  time.Duration
	spinBurst   int
}

func defaultConfig() config {
	return config{
		log:          corolog.Default(),
		preciseTick:  time.Millisecond,
		preciseSlots: 256,
		coarseTick:   time.Second,
		coarseSlots:  4096,
		spinWindow:   time.Second,
		spinBurst:    5,
	}
}

// WithSchedulerOptions forwards options to the embedded corort.Scheduler
// (dead-cache capacity, logger, etc).
func WithSchedulerOptions(opts ...corort.SchedulerOption) Option {
	return func(c *config) { c.schedOpts = append(c.schedOpts, opts...) }
}

// WithLogger overrides the logger used for the loop coroutine's own
// diagnostics (poll errors, spin-guard warnings).
func WithLogger(log corolog.Logger) Option {
	return func(c *config) {
		if log != nil {
			c.log = log
		}
	}
}

// WithSpinGuard bounds how often the loop coroutine will log a warning
// about repeated poll errors: at most burst warnings per window. This is
// the anti-spin-loop protection: a misbehaving poller returning errors in
// a tight loop should not also flood the log.
func WithSpinGuard(window time.Duration, burst int) Option {
	return func(c *config) {
		if window > 0 {
			c.spinWindow = window
		}
		if burst > 0 {
			c.spinBurst = burst
		}
	}
}
