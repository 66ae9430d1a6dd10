package midi

// MaxBlockEvents caps how many events one processing block carries. Events
// past the cap are dropped by the producer rather than grown into.
const MaxBlockEvents = 512

// EventQueue is a bounded, insertion-ordered event list for one processing
// block. The backing array is allocated once at construction and never
// grows, so filling and draining the queue is safe on the audio path.
// It is not synchronized: ownership passes between stages wholesale,
// never concurrently.
type EventQueue struct {
	events []Event
}

// NewEventQueue creates a queue holding at most capacity events. A
// capacity outside 1..MaxBlockEvents is replaced by MaxBlockEvents.
func NewEventQueue(capacity int) *EventQueue {
	if capacity < 1 || capacity > MaxBlockEvents {
		capacity = MaxBlockEvents
	}
	return &EventQueue{events: make([]Event, 0, capacity)}
}

// Add appends an event, reporting false when the queue is full. Callers
// append in sample-offset order; the queue does not sort.
func (q *EventQueue) Add(e Event) bool {
	if len(q.events) == cap(q.events) {
		return false
	}
	q.events = append(q.events, e)
	return true
}

// Events returns the queued events in insertion order. The slice aliases
// the queue's storage and is valid until the next Clear.
func (q *EventQueue) Events() []Event {
	return q.events
}

// Len reports the number of queued events.
func (q *EventQueue) Len() int {
	return len(q.events)
}

// Full reports whether another Add would fail.
func (q *EventQueue) Full() bool {
	return len(q.events) == cap(q.events)
}

// Capacity reports the fixed event capacity.
func (q *EventQueue) Capacity() int {
	return cap(q.events)
}

// Clear empties the queue, keeping its storage.
func (q *EventQueue) Clear() {
	q.events = q.events[:0]
}
