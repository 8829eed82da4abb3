package timerwheel_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/joeycumines/corort/ioloop/timerwheel"
)

func TestWheel_AddFiresAfterAdvance(t *testing.T) {
	w := timerwheel.New(time.Millisecond, 8)
	var fired bool
	w.Add(3*time.Millisecond, func() { fired = true })
	require.Equal(t, 1, w.Pending())

	require.Equal(t, 0, w.Advance(2))
	require.False(t, fired)
	require.Equal(t, 1, w.Advance(1))
	require.True(t, fired)
	require.Equal(t, 0, w.Pending())
}

func TestWheel_NonPositiveDelayFiresNextTick(t *testing.T) {
	w := timerwheel.New(time.Millisecond, 8)
	var fired bool
	w.Add(0, func() { fired = true })

	require.Equal(t, 1, w.Advance(1))
	require.True(t, fired)
}

func TestWheel_CancelPreventsFiring(t *testing.T) {
	w := timerwheel.New(time.Millisecond, 8)
	var fired bool
	e := w.Add(2*time.Millisecond, func() { fired = true })
	e.Cancel()
	require.True(t, e.Cancelled())
	require.Equal(t, 0, w.Pending())

	require.Equal(t, 0, w.Advance(5))
	require.False(t, fired)
}

func TestWheel_CancelTwiceIsSafe(t *testing.T) {
	w := timerwheel.New(time.Millisecond, 8)
	e := w.Add(time.Millisecond, func() {})
	e.Cancel()
	require.NotPanics(t, func() { e.Cancel() })
}

func TestWheel_MultiRevolutionDelayUsesRoundCounter(t *testing.T) {
	w := timerwheel.New(time.Millisecond, 4) // span = 4ms
	var fired bool
	// 10ms spans two full revolutions plus change: must wait out the
	// round counter, not just wrap the slot index.
	w.Add(10*time.Millisecond, func() { fired = true })

	require.Equal(t, 0, w.Advance(9))
	require.False(t, fired, "entry must not fire before its rounds are exhausted")
	require.Equal(t, 1, w.Advance(1))
	require.True(t, fired)
}

func TestWheel_AdvanceFiresMultipleDueEntriesInOneCall(t *testing.T) {
	w := timerwheel.New(time.Millisecond, 8)
	var order []string
	w.Add(1*time.Millisecond, func() { order = append(order, "a") })
	w.Add(1*time.Millisecond, func() { order = append(order, "b") })

	fired := w.Advance(1)
	require.Equal(t, 2, fired)
	require.Equal(t, []string{"a", "b"}, order)
}

func TestWheel_NextFireTicksReportsEarliestPending(t *testing.T) {
	w := timerwheel.New(time.Millisecond, 16)
	_, ok := w.NextFireTicks()
	require.False(t, ok)

	w.Add(5*time.Millisecond, func() {})
	w.Add(2*time.Millisecond, func() {})

	ticks, ok := w.NextFireTicks()
	require.True(t, ok)
	require.Equal(t, 2, ticks) // 2ms lands at offset 1 and fires on the second tick
}

func TestWheel_NextFireTicksFallsBackToSpanAcrossRevolutions(t *testing.T) {
	w := timerwheel.New(time.Millisecond, 4)
	w.Add(10*time.Millisecond, func() {}) // spans multiple revolutions

	ticks, ok := w.NextFireTicks()
	require.True(t, ok)
	require.Equal(t, 4, ticks) // conservative full-revolution bound
}

func TestWheel_SpanAndTick(t *testing.T) {
	w := timerwheel.New(2*time.Millisecond, 256)
	require.Equal(t, 2*time.Millisecond, w.Tick())
	require.Equal(t, 512*time.Millisecond, w.Span())
}

func TestNew_PanicsOnNonPowerOfTwoSlots(t *testing.T) {
	require.Panics(t, func() { timerwheel.New(time.Millisecond, 3) })
	require.Panics(t, func() { timerwheel.New(time.Millisecond, 0) })
}
