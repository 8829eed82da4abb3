package corort

import "github.com/joeycumines/corort/corolog"

// SchedulerOption configures a Scheduler at construction time.
type SchedulerOption func(*schedulerConfig)

type schedulerConfig struct {
	deadCacheCap int
	log          corolog.Logger
}

func defaultSchedulerConfig() schedulerConfig {
	return schedulerConfig{
		deadCacheCap: 64,
		log:          corolog.Default(),
	}
}

// WithDeadCacheCap bounds how many finished coroutines a Scheduler retains
// for reuse by Start. A finished coroutine beyond the cap has its backing
// goroutine torn down instead of cached. A cap of 0 disables reuse
// entirely.
func WithDeadCacheCap(n int) SchedulerOption {
	if n < 0 {
		n = 0
	}
	return func(c *schedulerConfig) { c.deadCacheCap = n }
}

// WithLogger overrides the logiface/stumpy-backed logger a Scheduler uses
// for its own diagnostics (start/finish/kill transitions). Defaults to
// corolog.Default().
func WithLogger(log corolog.Logger) SchedulerOption {
	return func(c *schedulerConfig) {
		if log != nil {
			c.log = log
		}
	}
}

// CoroutineOption configures an individual Coroutine at Start time.
type CoroutineOption func(*coroutineConfig)

type coroutineConfig struct {
	name string
}

// WithName attaches a diagnostic name to a coroutine, surfaced in log
// records and String(). Purely cosmetic; the scheduler never uses it for
// lookup or equality.
func WithName(name string) CoroutineOption {
	return func(c *coroutineConfig) { c.name = name }
}
