// Package colist implements the intrusive ring list shared by the stackful
// and stackless schedulers (corort.Scheduler and stackless.Scheduler). It
// exists so both flavors reuse identical ready/suspended/dead-cache
// bookkeeping instead of duplicating the list algebra twice.
//
// A Node is a member of at most one List at a time: ready, suspended,
// dead-cache, and the currently-running slot always partition all live
// coroutines. Node embeds no value comparison or allocation logic; it is
// deliberately as small as the original's single "entry" field.
package colist

// Node is an intrusive ring-list node, embedded by value inside whatever
// type the scheduler tracks (a stackful or stackless coroutine). Do not
// copy a struct embedding a Node once it has been inserted into a List.
type Node[T any] struct {
	prev, next *Node[T]
	list       *List[T]
	Value      T
}

// InList reports whether n currently belongs to any List.
func (n *Node[T]) InList() bool { return n.list != nil }

// List is a sentinel-headed circular doubly-linked list. The sentinel
// (List.head) is never a live member; Front, Back and iteration all skip
// it.
type List[T any] struct {
	head Node[T]
	len  int
}

// New returns an empty, ready-to-use List.
func New[T any]() *List[T] {
	l := &List[T]{}
	l.head.next = &l.head
	l.head.prev = &l.head
	l.head.list = l
	return l
}

// Len returns the number of nodes currently owned by l.
func (l *List[T]) Len() int { return l.len }

// Remove splices n out of whatever List currently owns it. n's own
// prev/next pointers are left pointing at its former neighbors rather than
// cleared, to support the "insert-near-running" / "next-ready" round-robin
// advance rule:
// a coroutine spliced out because it is now Scheduler.running can still be
// asked for its list successor, which is exactly what round-robin advance
// needs. Call Reset if you need a node's neighbor pointers actually
// cleared (e.g. before discarding it for good).
func (n *Node[T]) Remove() {
	if n.list == nil {
		return
	}
	n.prev.next = n.next
	n.next.prev = n.prev
	n.list.len--
	n.list = nil
}

// Reset clears n's neighbor pointers. Use when a node is being freed, not
// merely spliced out for the duration of "running".
func (n *Node[T]) Reset() {
	n.Remove()
	n.prev = nil
	n.next = nil
}

// insertBetween links n between a and b, which must be adjacent, and
// claims ownership for l.
func (l *List[T]) insertBetween(n, a, b *Node[T]) {
	n.Remove()
	n.prev = a
	n.next = b
	a.next = n
	b.prev = n
	n.list = l
	l.len++
}

// PushBack appends n to the tail of l.
func (l *List[T]) PushBack(n *Node[T]) {
	l.insertBetween(n, l.head.prev, &l.head)
}

// PushFront prepends n to the head of l.
func (l *List[T]) PushFront(n *Node[T]) {
	l.insertBetween(n, &l.head, l.head.next)
}

// InsertBefore inserts n immediately before mark, which must already be a
// member of l (or be l's sentinel, in which case this behaves like
// PushBack).
func (l *List[T]) InsertBefore(n, mark *Node[T]) {
	l.insertBetween(n, mark.prev, mark)
}

// Front returns the first node of l, or nil if l is empty.
func (l *List[T]) Front() *Node[T] {
	if l.len == 0 {
		return nil
	}
	return l.head.next
}

// Back returns the last node of l, or nil if l is empty.
func (l *List[T]) Back() *Node[T] {
	if l.len == 0 {
		return nil
	}
	return l.head.prev
}

// Next returns n's successor within whatever list last owned it, skipping
// the sentinel head exactly once: take the successor; if the successor is
// the list head sentinel, take its successor instead. This is safe to call
// on a node that was just spliced out via Remove (e.g. the running
// coroutine), since Remove does not clear n.next. Returns nil once the
// owning list is empty.
func (n *Node[T]) Next() *Node[T] {
	next := n.next
	if next == nil {
		return nil
	}
	if isHead(next) {
		next = next.next
	}
	if next == nil || isHead(next) {
		return nil
	}
	return next
}

// isHead reports whether n is some List's sentinel.
func isHead[T any](n *Node[T]) bool {
	return n.list != nil && &n.list.head == n
}

// Do calls fn for every node in l, in order, front to back. fn must not
// mutate l.
func (l *List[T]) Do(fn func(*Node[T])) {
	for n := l.head.next; n != &l.head; n = n.next {
		fn(n)
	}
}
