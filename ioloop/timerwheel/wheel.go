// Package timerwheel implements a hashed timer wheel: the data structure
// backing the integrated I/O scheduler's precise (millisecond-granularity,
// 256 slots) and coarse (second-granularity, 4096 slots) timer tiers. It is
// grounded on the same intrusive-list technique corort's own scheduler uses
// (internal/colist), applied the way a classic hashed wheel applies it: one
// list per slot, entries whose delay exceeds one full revolution carry a
// round counter and wait out the extra laps before firing.
package timerwheel

import (
	"time"

	"github.com/joeycumines/corort/internal/colist"
)

// Entry is a single scheduled callback. The zero Entry is not usable;
// obtain one from Wheel.Add.
type Entry struct {
	node      colist.Node[*Entry]
	wheel     *Wheel
	rounds    int
	fn        func()
	cancelled bool
}

// Cancelled reports whether Cancel has already been called for this entry.
func (e *Entry) Cancelled() bool { return e.cancelled }

// Wheel is a single-tier hashed timer wheel with the given tick duration
// and slot count. A duration that spans more than slots*tick is handled by
// the round counter: an entry is placed in the slot its delay lands on
// modulo the wheel's full revolution, tagged with how many additional full
// revolutions must elapse before it actually fires.
type Wheel struct {
	tick    time.Duration
	slots   []*colist.List[*Entry]
	cursor  int
	pending int
}

// New constructs a Wheel. slots must be a positive power of two (mirroring
// the original's own wheel sizing, and colist's sentinel-per-list design
// plays well with cheap modulo-by-mask indexing).
func New(tick time.Duration, slots int) *Wheel {
	if slots <= 0 || slots&(slots-1) != 0 {
		panic("timerwheel: slots must be a positive power of two")
	}
	w := &Wheel{
		tick:  tick,
		slots: make([]*colist.List[*Entry], slots),
	}
	for i := range w.slots {
		w.slots[i] = colist.New[*Entry]()
	}
	return w
}

// Tick returns the wheel's granularity.
func (w *Wheel) Tick() time.Duration { return w.tick }

// Pending reports how many entries are currently scheduled.
func (w *Wheel) Pending() int { return w.pending }

// Span returns the longest delay a single Add call can schedule without
// relying on the round counter (one full revolution).
func (w *Wheel) Span() time.Duration { return w.tick * time.Duration(len(w.slots)) }

// Add schedules fn to run after delay elapses, rounded up to the nearest
// tick. delay <= 0 schedules into the very next tick, matching the
// original's "fire on the next pulse" treatment of non-positive timeouts.
func (w *Wheel) Add(delay time.Duration, fn func()) *Entry {
	ticks := int64(delay / w.tick)
	if delay%w.tick != 0 || ticks <= 0 {
		ticks++
	}
	n := len(w.slots)
	rounds := int(ticks-1) / n
	offset := int(ticks-1) % n
	slot := (w.cursor + offset) % n

	e := &Entry{wheel: w, rounds: rounds, fn: fn}
	e.node.Value = e
	w.slots[slot].PushBack(&e.node)
	w.pending++
	return e
}

// Cancel removes e from the wheel if it has not already fired. Safe to
// call more than once.
func (e *Entry) Cancel() {
	if e.cancelled {
		return
	}
	e.cancelled = true
	if e.node.InList() {
		e.wheel.pending--
	}
	e.node.Reset()
}

// Advance moves the wheel forward by n ticks (n >= 0), invoking, in order,
// every entry due at each intervening tick, and returns how many entries
// fired. Call this once per elapsed tick since the last Advance, in order,
// from whatever drives the wheel (normally once per poll-loop iteration
// based on elapsed wall-clock time).
func (w *Wheel) Advance(n int) int {
	fired := 0
	total := len(w.slots)
	for i := 0; i < n; i++ {
		slot := w.slots[w.cursor]
		var due []*Entry
		slot.Do(func(node *colist.Node[*Entry]) {
			e := node.Value
			if e.rounds > 0 {
				e.rounds--
				return
			}
			due = append(due, e)
		})
		for _, e := range due {
			e.node.Reset()
			w.pending--
			if e.cancelled {
				continue
			}
			fired++
			e.fn()
		}
		w.cursor = (w.cursor + 1) % total
	}
	return fired
}

// NextFireTicks returns the number of ticks until the earliest pending
// entry fires (an entry in the slot i places past the cursor fires on the
// (i+1)th Advance tick), and whether any entry is pending at all. It scans at most
// one full revolution, which is the wheel's whole point: O(slots), not
// O(pending).
func (w *Wheel) NextFireTicks() (ticks int, ok bool) {
	n := len(w.slots)
	for i := 0; i < n; i++ {
		slot := w.slots[(w.cursor+i)%n]
		front := slot.Front()
		if front == nil {
			continue
		}
		// Only a zero-round entry at offset i is truly next; a
		// positive-round entry in this slot fires on a later lap, but
		// some other slot may still hold a zero-round entry at a
		// smaller offset, so keep scanning rather than return early.
		minRounds := -1
		slot.Do(func(node *colist.Node[*Entry]) {
			if minRounds == -1 || node.Value.rounds < minRounds {
				minRounds = node.Value.rounds
			}
		})
		if minRounds == 0 {
			return i + 1, true
		}
	}
	if w.pending > 0 {
		// Every pending entry has rounds > 0 relative to this scan
		// start, which NextFireTicks above would have caught at
		// offset 0 already were the wheel non-empty there; fall back
		// to a full revolution as a conservative bound.
		return n, true
	}
	return 0, false
}
