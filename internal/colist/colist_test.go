package colist_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joeycumines/corort/internal/colist"
)

func TestList_PushBackOrderAndNext(t *testing.T) {
	l := colist.New[int]()
	var nodes []*colist.Node[int]
	for i := 0; i < 3; i++ {
		n := &colist.Node[int]{Value: i}
		l.PushBack(n)
		nodes = append(nodes, n)
	}
	require.Equal(t, 3, l.Len())
	require.Equal(t, 0, l.Front().Value)
	require.Equal(t, 2, l.Back().Value)

	require.Same(t, nodes[1], nodes[0].Next())
	require.Same(t, nodes[2], nodes[1].Next())
	require.Same(t, nodes[0], nodes[2].Next())
}

func TestNode_RemovePreservesStaleNeighborsForNext(t *testing.T) {
	l := colist.New[string]()
	a := &colist.Node[string]{Value: "a"}
	b := &colist.Node[string]{Value: "b"}
	c := &colist.Node[string]{Value: "c"}
	l.PushBack(a)
	l.PushBack(b)
	l.PushBack(c)

	a.Remove()
	require.False(t, a.InList())
	require.Equal(t, 2, l.Len())

	// a is spliced out, but its stale next pointer still reports b: this
	// is exactly what round-robin advance from a "running" coroutine
	// depends on.
	require.Same(t, b, a.Next())
}

func TestList_SoleNodeNextIsNilAfterRemove(t *testing.T) {
	l := colist.New[int]()
	n := &colist.Node[int]{Value: 1}
	l.PushBack(n)
	n.Remove()
	require.Nil(t, n.Next())
}

func TestList_InsertBeforeRestoresOriginalOrder(t *testing.T) {
	l := colist.New[int]()
	a := &colist.Node[int]{Value: 1}
	b := &colist.Node[int]{Value: 2}
	l.PushBack(a)
	l.PushBack(b)

	a.Remove()
	l.InsertBefore(a, b)

	var got []int
	l.Do(func(n *colist.Node[int]) { got = append(got, n.Value) })
	require.Equal(t, []int{1, 2}, got)
}

func TestList_Do(t *testing.T) {
	l := colist.New[int]()
	for i := 1; i <= 4; i++ {
		l.PushBack(&colist.Node[int]{Value: i})
	}
	var sum int
	l.Do(func(n *colist.Node[int]) { sum += n.Value })
	require.Equal(t, 10, sum)
}
