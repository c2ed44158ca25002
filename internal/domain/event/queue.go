package event

import (
	"container/heap"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

// ErrTimeout is returned by Get when no ready event arrives within the timeout.
var ErrTimeout = errors.New("event queue: get timed out")

// Subscriber is invoked on event completion. Panics and errors are caught by
// the queue and never propagate to the worker or to other subscribers.
type Subscriber func(Event)

// deferredEntry is one (when, event) pair held in the deferred min-heap.
type deferredEntry struct {
	when  time.Time
	event Event
}

// deferredHeap orders by when ascending, then by event ID ascending.
type deferredHeap []deferredEntry

func (h deferredHeap) Len() int { return len(h) }
func (h deferredHeap) Less(i, j int) bool {
	if h[i].when.Equal(h[j].when) {
		return h[i].event.ID < h[j].event.ID
	}
	return h[i].when.Before(h[j].when)
}
func (h deferredHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *deferredHeap) Push(x interface{}) {
	*h = append(*h, x.(deferredEntry))
}
func (h *deferredHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// Queue is the hybrid ready/deferred event queue with completion fan-out.
type Queue struct {
	nextID int64

	readyMu sync.Mutex
	ready   []Event
	readyCh chan struct{} // signalled whenever ready becomes non-empty

	deferredMu sync.Mutex
	deferred   deferredHeap

	subsMu sync.Mutex
	subs   map[Key][]Subscriber

	onSubscriberError func(Event, interface{})
}

// NewQueue creates an empty event queue. onSubscriberError, if non-nil, is
// called with the event and the recovered value whenever a subscriber
// panics; pass nil to discard.
func NewQueue(onSubscriberError func(Event, interface{})) *Queue {
	return &Queue{
		readyCh:           make(chan struct{}, 1),
		subs:              make(map[Key][]Subscriber),
		onSubscriberError: onSubscriberError,
	}
}

// NewID returns a strictly increasing, thread-safe event identifier.
func (q *Queue) NewID() int64 {
	return atomic.AddInt64(&q.nextID, 1)
}

// NewEvent assigns an ID to a new event without enqueueing it.
func (q *Queue) NewEvent(t Type, name string, args ...interface{}) Event {
	return Event{ID: q.NewID(), Type: t, Name: name, Args: args}
}

// NewEventsFrom assigns monotonically increasing IDs, in order, to a batch
// of (type, name, args) triples without enqueueing them.
func (q *Queue) NewEventsFrom(specs []EventSpec) []Event {
	events := make([]Event, len(specs))
	for i, s := range specs {
		events[i] = q.NewEvent(s.Type, s.Name, s.Args...)
	}
	return events
}

// EventSpec is a (type, name, args) triple used to batch-create events.
type EventSpec struct {
	Type Type
	Name string
	Args []interface{}
}

// Put pushes an already-created event onto the ready FIFO and returns its ID.
// Use PutNew to create and push a new event in one step.
func (q *Queue) Put(ev Event) int64 {
	q.readyMu.Lock()
	q.ready = append(q.ready, ev)
	q.readyMu.Unlock()
	q.signalReady()
	return ev.ID
}

// PutNew creates a new event and pushes it onto the ready FIFO.
func (q *Queue) PutNew(t Type, name string, args ...interface{}) Event {
	ev := q.NewEvent(t, name, args...)
	q.Put(ev)
	return ev
}

func (q *Queue) signalReady() {
	select {
	case q.readyCh <- struct{}{}:
	default:
	}
}

// Schedule inserts one event into the deferred priority queue, keyed by when
// then ID.
func (q *Queue) Schedule(when time.Time, ev Event) {
	q.deferredMu.Lock()
	heap.Push(&q.deferred, deferredEntry{when: when, event: ev})
	q.deferredMu.Unlock()
}

// ScheduleBatch inserts a batch of events at the same `when`, preserving
// their relative order (their IDs must already be monotonically increasing
// in the given order, e.g. produced by NewEventsFrom).
func (q *Queue) ScheduleBatch(when time.Time, evs []Event) {
	q.deferredMu.Lock()
	for _, ev := range evs {
		heap.Push(&q.deferred, deferredEntry{when: when, event: ev})
	}
	q.deferredMu.Unlock()
}

// Get blocks until a ready event is available or timeout elapses, in which
// case it returns ErrTimeout.
func (q *Queue) Get(timeout time.Duration) (Event, error) {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	for {
		q.readyMu.Lock()
		if len(q.ready) > 0 {
			ev := q.ready[0]
			q.ready = q.ready[1:]
			q.readyMu.Unlock()
			return ev, nil
		}
		q.readyMu.Unlock()

		select {
		case <-q.readyCh:
			continue
		case <-deadline.C:
			return Event{}, ErrTimeout
		}
	}
}

// UpdateScheduled pops all deferred entries whose `when` has arrived and
// pushes them onto the ready FIFO in scheduled order, stopping at the first
// future entry.
func (q *Queue) UpdateScheduled(now time.Time) {
	var due []Event

	q.deferredMu.Lock()
	for q.deferred.Len() > 0 {
		head := q.deferred[0]
		if head.when.After(now) {
			break
		}
		heap.Pop(&q.deferred)
		due = append(due, head.event)
	}
	q.deferredMu.Unlock()

	if len(due) == 0 {
		return
	}

	q.readyMu.Lock()
	q.ready = append(q.ready, due...)
	q.readyMu.Unlock()
	q.signalReady()
}

// Subscribe appends callback to the list invoked on completion of events
// matching (t, name).
func (q *Queue) Subscribe(t Type, name string, sub Subscriber) {
	q.subsMu.Lock()
	key := Key{Type: t, Name: name}
	q.subs[key] = append(q.subs[key], sub)
	q.subsMu.Unlock()
}

// EventDone marks an event's completion. FAIL results are never fanned out.
// Every other result invokes each subscriber registered for (event.Type,
// event.Name), in registration order; a subscriber panic is recovered and
// reported via onSubscriberError without disrupting the others.
func (q *Queue) EventDone(ev Event, result Result) {
	if result == FAIL {
		return
	}

	q.subsMu.Lock()
	subs := append([]Subscriber(nil), q.subs[ev.Key()]...)
	q.subsMu.Unlock()

	for _, sub := range subs {
		q.invokeSafely(sub, ev)
	}
}

func (q *Queue) invokeSafely(sub Subscriber, ev Event) {
	defer func() {
		if r := recover(); r != nil && q.onSubscriberError != nil {
			q.onSubscriberError(ev, r)
		}
	}()
	sub(ev)
}
