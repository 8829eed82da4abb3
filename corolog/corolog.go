// Package corolog wires the runtime's ambient diagnostics to logiface,
// using stumpy as the default JSON encoder. It exists so that corort,
// ioloop, and stackless can all log through one shared, swappable sink,
// rather than reaching for the standard library's log package directly.
package corolog

import (
	"os"
	"sync/atomic"

	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
)

// Logger is the shape the runtime depends on. It is satisfied by
// *logiface.Logger[*stumpy.Event], but kept as an interface so callers may
// swap in a different logiface-backed implementation.
type Logger interface {
	Emerg() *logiface.Builder[*stumpy.Event]
	Alert() *logiface.Builder[*stumpy.Event]
	Crit() *logiface.Builder[*stumpy.Event]
	Err() *logiface.Builder[*stumpy.Event]
	Warning() *logiface.Builder[*stumpy.Event]
	Notice() *logiface.Builder[*stumpy.Event]
	Info() *logiface.Builder[*stumpy.Event]
	Debug() *logiface.Builder[*stumpy.Event]
}

var defaultLogger atomic.Pointer[logiface.Logger[*stumpy.Event]]

func init() {
	defaultLogger.Store(New())
}

// New builds the package's default stumpy-backed logger, writing
// newline-delimited JSON to os.Stderr at the Notice level and above.
func New() *logiface.Logger[*stumpy.Event] {
	return stumpy.L.New(
		stumpy.L.WithStumpy(stumpy.WithWriter(os.Stderr)),
		stumpy.L.WithLevel(logiface.LevelNotice),
	)
}

// Default returns the process-wide default logger used by corort, ioloop,
// and stackless when no logger is supplied via an Option.
func Default() *logiface.Logger[*stumpy.Event] {
	return defaultLogger.Load()
}

// SetDefault replaces the process-wide default logger.
func SetDefault(l *logiface.Logger[*stumpy.Event]) {
	if l == nil {
		panic("corolog: nil logger")
	}
	defaultLogger.Store(l)
}
