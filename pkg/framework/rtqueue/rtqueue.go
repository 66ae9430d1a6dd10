// Package rtqueue provides pooled singly linked FIFO queues for real-time
// use.
//
// All node storage comes from a fixed Pool allocated up front; Append, Clear
// and SpliceAppendTo never touch the Go allocator, so queue operations are
// safe inside an audio callback. The structures are not synchronized: the
// caller owns the locking discipline.
package rtqueue

type node[T any] struct {
	value T
	next  *node[T]
}

// Pool is a fixed arena of queue nodes. Its size is chosen at construction
// and never grows; when every node is in use, Append fails instead of
// allocating. Recycled nodes are not zeroed, so element types holding
// pointers keep them reachable until the node is reused.
type Pool[T any] struct {
	arena []node[T]
	free  *node[T]
	avail int
}

// NewPool allocates a pool of capacity nodes. A capacity below one is
// raised to one.
func NewPool[T any](capacity int) *Pool[T] {
	if capacity < 1 {
		capacity = 1
	}
	p := &Pool[T]{arena: make([]node[T], capacity)}
	p.Reset()
	return p
}

// Reset zeroes the arena and returns every node to the free list. Only
// valid while no queue holds nodes from this pool.
func (p *Pool[T]) Reset() {
	var zero T
	p.free = nil
	for i := len(p.arena) - 1; i >= 0; i-- {
		n := &p.arena[i]
		n.value = zero
		n.next = p.free
		p.free = n
	}
	p.avail = len(p.arena)
}

// Capacity reports the fixed node count.
func (p *Pool[T]) Capacity() int { return len(p.arena) }

// Available reports how many nodes are currently free.
func (p *Pool[T]) Available() int { return p.avail }

func (p *Pool[T]) take() *node[T] {
	n := p.free
	if n == nil {
		return nil
	}
	p.free = n.next
	n.next = nil
	p.avail--
	return n
}

// putChain links a run of count nodes ending at tail back onto the free
// list in O(1).
func (p *Pool[T]) putChain(head, tail *node[T], count int) {
	tail.next = p.free
	p.free = head
	p.avail += count
}

// Queue is a FIFO list of pooled nodes. Bind one to a pool with New; the
// zero Queue is not usable.
type Queue[T any] struct {
	pool *Pool[T]
	head *node[T]
	tail *node[T]
	size int
}

// New binds an empty queue to pool. Queues sharing a pool may splice nodes
// between each other.
func New[T any](pool *Pool[T]) Queue[T] {
	return Queue[T]{pool: pool}
}

// Append adds v at the tail. It reports false, leaving the queue unchanged,
// when the pool is exhausted.
func (q *Queue[T]) Append(v T) bool {
	n := q.pool.take()
	if n == nil {
		return false
	}
	n.value = v
	if q.tail == nil {
		q.head = n
	} else {
		q.tail.next = n
	}
	q.tail = n
	q.size++
	return true
}

// Len reports the number of queued values.
func (q *Queue[T]) Len() int { return q.size }

// Empty reports whether the queue holds no values.
func (q *Queue[T]) Empty() bool { return q.size == 0 }

// Each calls fn for every value in FIFO order. Returning false stops the
// walk early.
func (q *Queue[T]) Each(fn func(T) bool) {
	for n := q.head; n != nil; n = n.next {
		if !fn(n.value) {
			return
		}
	}
}

// Clear returns every node to the pool in O(1).
func (q *Queue[T]) Clear() {
	if q.head != nil {
		q.pool.putChain(q.head, q.tail, q.size)
	}
	q.head, q.tail, q.size = nil, nil, 0
}

// SpliceAppendTo moves the whole queue onto the tail of dst, leaving q
// empty. The move relinks two pointers regardless of element size or queue
// length. Both queues must share the same pool for node accounting to stay
// correct.
func (q *Queue[T]) SpliceAppendTo(dst *Queue[T]) {
	if q.head == nil {
		return
	}
	if dst.tail == nil {
		dst.head = q.head
	} else {
		dst.tail.next = q.head
	}
	dst.tail = q.tail
	dst.size += q.size
	q.head, q.tail, q.size = nil, nil, 0
}
