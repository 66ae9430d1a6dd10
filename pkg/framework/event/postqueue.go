package event

import (
	"sync"
	"sync/atomic"

	"github.com/justyntemme/plughost/pkg/framework/rtqueue"
)

// DefaultPostCapacity is the pool size for postponed reports.
const DefaultPostCapacity = 128

// PostQueue carries reports from the processing path to the maintenance
// side without blocking or allocating on the processing side.
//
// Threading contract: AppendRT and TrySplice run on the processing
// goroutine only; DrainEach and Clear run on maintenance goroutines. The
// pending list and the node pool belong to the processing side, and the
// mutex guards only the visible and spent lists, so a held lock can delay
// publication but never stall AppendRT.
//
// Node life cycle: AppendRT fills a pool node into pending; TrySplice moves
// pending onto visible; DrainEach delivers visible and parks the nodes on
// spent; the next TrySplice returns spent nodes to the pool.
type PostQueue struct {
	pool    *rtqueue.Pool[PostEvent]
	pending rtqueue.Queue[PostEvent]

	mu      sync.Mutex
	visible rtqueue.Queue[PostEvent]
	spent   rtqueue.Queue[PostEvent]

	dropped atomic.Uint64
}

// NewPostQueue creates a queue with the given pool capacity; zero or
// negative means DefaultPostCapacity.
func NewPostQueue(capacity int) *PostQueue {
	if capacity <= 0 {
		capacity = DefaultPostCapacity
	}
	pool := rtqueue.NewPool[PostEvent](capacity)
	return &PostQueue{
		pool:    pool,
		pending: rtqueue.New(pool),
		visible: rtqueue.New(pool),
		spent:   rtqueue.New(pool),
	}
}

// AppendRT queues one report on the processing goroutine. It never locks
// and never allocates; when the pool is exhausted the report is dropped
// and counted.
func (q *PostQueue) AppendRT(e PostEvent) bool {
	if q.pending.Append(e) {
		return true
	}
	q.dropped.Add(1)
	return false
}

// TrySplice publishes pending reports to the maintenance side and reclaims
// nodes the maintenance side has finished with. The processing goroutine
// calls it at block boundaries; when the maintenance side holds the lock
// it reports false and the reports wait one more block.
func (q *PostQueue) TrySplice() bool {
	if !q.mu.TryLock() {
		return false
	}
	q.spent.Clear()
	q.pending.SpliceAppendTo(&q.visible)
	q.mu.Unlock()
	return true
}

// DrainEach hands every published report to fn in postponement order and
// returns how many were delivered. Delivered nodes stay checked out on the
// spent list until the processing side's next TrySplice reclaims them.
func (q *PostQueue) DrainEach(fn func(PostEvent)) int {
	q.mu.Lock()
	defer q.mu.Unlock()

	n := q.visible.Len()
	q.visible.Each(func(e PostEvent) bool {
		fn(e)
		return true
	})
	q.visible.SpliceAppendTo(&q.spent)
	return n
}

// Clear discards every report, published or not, and returns all nodes to
// the pool. Only safe once the processing side is stopped.
func (q *PostQueue) Clear() {
	q.mu.Lock()
	q.spent.Clear()
	q.visible.Clear()
	q.pending.Clear()
	q.mu.Unlock()
}

// Published reports how many delivered-but-unread reports wait for the
// maintenance side.
func (q *PostQueue) Published() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.visible.Len()
}

// Capacity reports the fixed pool size.
func (q *PostQueue) Capacity() int {
	return q.pool.Capacity()
}

// Dropped reports how many reports have been dropped since construction.
func (q *PostQueue) Dropped() uint64 {
	return q.dropped.Load()
}

// TakeDropped returns the drop count and resets it, letting the
// maintenance side log drops once instead of on every poll.
func (q *PostQueue) TakeDropped() uint64 {
	return q.dropped.Swap(0)
}
