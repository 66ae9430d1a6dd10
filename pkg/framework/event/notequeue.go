package event

import (
	"sync"
	"sync/atomic"
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"

	"github.com/justyntemme/plughost/pkg/framework/debug"
	"github.com/justyntemme/plughost/pkg/framework/rtqueue"
)

// DefaultNoteCapacity is the pool size for injected notes.
const DefaultNoteCapacity = 32

const (
	appendAttempts   = 32
	appendRetryDelay = 250 * time.Microsecond
)

// NoteQueue queues externally injected notes for the processing path.
//
// Producers are UI and bridge goroutines; Append may briefly sleep waiting
// for the lock but never holds up the consumer. The consumer is the
// processing goroutine; TryDrain never waits, so a slow producer can only
// delay notes, never stall audio.
type NoteQueue struct {
	mu      sync.Mutex
	pool    *rtqueue.Pool[ExternalNote]
	data    rtqueue.Queue[ExternalNote]
	dropped atomic.Uint64
}

// NewNoteQueue creates a queue with the given pool capacity; zero or
// negative means DefaultNoteCapacity.
func NewNoteQueue(capacity int) *NoteQueue {
	if capacity <= 0 {
		capacity = DefaultNoteCapacity
	}
	pool := rtqueue.NewPool[ExternalNote](capacity)
	return &NoteQueue{
		pool: pool,
		data: rtqueue.New(pool),
	}
}

// Append queues one note. When the processing side holds the lock, Append
// retries for up to appendAttempts intervals of appendRetryDelay (8ms in
// total) before giving up. Invalid notes, pool exhaustion and lock timeout
// all report false; the latter two are counted as drops.
func (q *NoteQueue) Append(n ExternalNote) bool {
	if !debug.Checkf(n.Valid(), "external note valid: ch %d note %d", n.Channel, n.Note) {
		return false
	}
	for attempt := 0; ; attempt++ {
		if q.mu.TryLock() {
			ok := q.data.Append(n)
			q.mu.Unlock()
			if !ok {
				q.dropped.Add(1)
			}
			return ok
		}
		if attempt >= appendAttempts {
			q.dropped.Add(1)
			return false
		}
		time.Sleep(appendRetryDelay)
	}
}

// AppendMessage queues a note carried by a wire message. Messages that are
// not note-ons or note-offs report false without counting a drop. A
// note-on with velocity zero is queued as a note-off.
func (q *NoteQueue) AppendMessage(msg gomidi.Message) bool {
	var channel, note, velocity uint8
	switch {
	case msg.GetNoteStart(&channel, &note, &velocity):
		return q.Append(ExternalNote{Channel: int8(channel), Note: note, Velo: velocity})
	case msg.GetNoteEnd(&channel, &note):
		return q.Append(ExternalNote{Channel: int8(channel), Note: note, Velo: 0})
	}
	return false
}

// TryDrain hands every queued note to fn in injection order and empties the
// queue. It runs on the processing path: when a producer holds the lock it
// reports false without waiting and the notes stay queued for the next
// block.
func (q *NoteQueue) TryDrain(fn func(ExternalNote)) bool {
	if !q.mu.TryLock() {
		return false
	}
	q.data.Each(func(n ExternalNote) bool {
		fn(n)
		return true
	})
	q.data.Clear()
	q.mu.Unlock()
	return true
}

// Clear discards queued notes. Unlike TryDrain it waits for the lock, so it
// belongs on maintenance paths such as deactivation.
func (q *NoteQueue) Clear() {
	q.mu.Lock()
	q.data.Clear()
	q.mu.Unlock()
}

// Len reports how many notes are waiting.
func (q *NoteQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.data.Len()
}

// Capacity reports the fixed pool size.
func (q *NoteQueue) Capacity() int {
	return q.pool.Capacity()
}

// Dropped reports how many notes have been dropped since construction.
func (q *NoteQueue) Dropped() uint64 {
	return q.dropped.Load()
}
