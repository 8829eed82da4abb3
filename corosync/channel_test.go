package corosync_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joeycumines/corort"
	"github.com/joeycumines/corort/corosync"
)

func TestChan_BufferedFIFOOrder(t *testing.T) {
	s := corort.NewScheduler()
	ch := corosync.NewChan[int](2)
	var received []int

	_, err := s.Start(func(any) any {
		co := s.Running()
		require.True(t, ch.Send(co, 1))
		require.True(t, ch.Send(co, 2))
		require.True(t, ch.Send(co, 3))
		return nil
	}, nil, corort.WithName("sender"))
	require.NoError(t, err)

	_, err = s.Start(func(any) any {
		co := s.Running()
		for i := 0; i < 3; i++ {
			v, ok := ch.Recv(co)
			require.True(t, ok)
			received = append(received, v)
		}
		return nil
	}, nil, corort.WithName("receiver"))
	require.NoError(t, err)

	runLoop(t, s)
	require.Equal(t, []int{1, 2, 3}, received)
	require.Equal(t, 0, ch.Len())
}

func TestChan_RendezvousDirectHandoff(t *testing.T) {
	s := corort.NewScheduler()
	ch := corosync.NewChan[string](0)
	var received string
	var sendReturned bool

	_, err := s.Start(func(any) any {
		co := s.Running()
		sendReturned = ch.Send(co, "hello")
		return nil
	}, nil, corort.WithName("sender"))
	require.NoError(t, err)

	_, err = s.Start(func(any) any {
		co := s.Running()
		v, ok := ch.Recv(co)
		require.True(t, ok)
		received = v
		return nil
	}, nil, corort.WithName("receiver"))
	require.NoError(t, err)

	runLoop(t, s)
	require.True(t, sendReturned)
	require.Equal(t, "hello", received)
	require.Equal(t, 0, ch.Cap())
}

func TestChan_RecvBlocksUntilSend(t *testing.T) {
	s := corort.NewScheduler()
	ch := corosync.NewChan[int](0)
	var order []string

	_, err := s.Start(func(any) any {
		order = append(order, "recv-start")
		co := s.Running()
		v, ok := ch.Recv(co)
		require.True(t, ok)
		order = append(order, "recv-done")
		require.Equal(t, 42, v)
		return nil
	}, nil, corort.WithName("receiver"))
	require.NoError(t, err)

	_, err = s.Start(func(any) any {
		order = append(order, "send-start")
		co := s.Running()
		require.True(t, ch.Send(co, 42))
		order = append(order, "send-done")
		return nil
	}, nil, corort.WithName("sender"))
	require.NoError(t, err)

	runLoop(t, s)
	require.Equal(t, []string{"recv-start", "send-start", "send-done", "recv-done"}, order)
}

func TestChan_TrySendTryRecvNonBlocking(t *testing.T) {
	ch := corosync.NewChan[int](2)

	require.True(t, ch.TrySend(1))
	require.True(t, ch.TrySend(2))
	require.False(t, ch.TrySend(3), "buffer is full")

	v, ok := ch.TryRecv()
	require.True(t, ok)
	require.Equal(t, 1, v)

	require.True(t, ch.TrySend(3))

	v, ok = ch.TryRecv()
	require.True(t, ok)
	require.Equal(t, 2, v)
	v, ok = ch.TryRecv()
	require.True(t, ok)
	require.Equal(t, 3, v)

	_, ok = ch.TryRecv()
	require.False(t, ok, "buffer is empty")
}

func TestChan_TrySendTryRecvUndefinedOnRendezvous(t *testing.T) {
	ch := corosync.NewChan[int](0)

	require.False(t, ch.TrySend(1), "TrySend is only defined for buffered channels")
	_, ok := ch.TryRecv()
	require.False(t, ok, "TryRecv is only defined for buffered channels")
}

func TestChan_TrySendFailsOnceClosed(t *testing.T) {
	ch := corosync.NewChan[int](1)
	ch.Close()
	require.False(t, ch.TrySend(1))
}

func TestChan_CloseWakesBlockedSendAndDrainsBuffer(t *testing.T) {
	s := corort.NewScheduler()
	ch := corosync.NewChan[int](1)
	var sendResults []bool
	done := make(chan struct{})

	_, err := s.Start(func(any) any {
		co := s.Running()
		require.True(t, ch.Send(co, 1)) // fills the single buffer slot
		sendResults = append(sendResults, ch.Send(co, 2))
		close(done)
		return nil
	}, nil, corort.WithName("sender"))
	require.NoError(t, err)

	runLoop(t, s)
	select {
	case <-done:
		t.Fatal("second send should still be blocked on the full buffer")
	default:
	}

	ch.Close()
	runLoop(t, s)
	<-done
	require.Equal(t, []bool{false}, sendResults, "Send should report failure once the channel closes")

	s2 := corort.NewScheduler()
	var v int
	var ok bool
	_, err = s2.Start(func(any) any {
		v, ok = ch.Recv(s2.Running())
		return nil
	}, nil)
	require.NoError(t, err)
	runLoop(t, s2)
	require.True(t, ok, "Recv should still drain the already-buffered value after Close")
	require.Equal(t, 1, v)

	var v2 int
	var ok2 bool
	_, err = s2.Start(func(any) any {
		v2, ok2 = ch.Recv(s2.Running())
		return nil
	}, nil)
	require.NoError(t, err)
	runLoop(t, s2)
	require.False(t, ok2, "Recv should fail once the buffer is drained and the channel is closed")
	require.Zero(t, v2)
}
