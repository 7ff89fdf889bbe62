// Package uqueue provides a user space readiness event queue.
//
// The queue is an ordered buffer of application-generated events: code
// enqueues events and a later poll delivers them in FIFO order. It has no
// OS dependency and never blocks, making it usable on its own or combined
// with an OS queue through gaea.Poll.
package uqueue

import (
	"sync"

	"github.com/eapache/queue"
	"go.uber.org/zap"

	"github.com/Thomasdezeeuw/gaea/event"
	"github.com/Thomasdezeeuw/gaea/log"
)

// Queue is a user space FIFO readiness event queue implementing
// event.Source. Polling it never returns an error.
//
// Queue is not safe for concurrent use; it belongs to the goroutine driving
// the poll loop. Use SyncQueue to enqueue events from other goroutines.
type Queue struct {
	events *queue.Queue
}

// New creates an empty user space event queue.
func New() *Queue {
	return &Queue{events: queue.New()}
}

// Add enqueues a readiness event for a later poll.
func (q *Queue) Add(ev event.Event) {
	log.Logger.Debug("adding user space event",
		zap.Uint64("id", uint64(ev.ID)), zap.Stringer("readiness", ev.Readiness))

	q.events.Add(ev)
}

// Enqueue enqueues a readiness event built from the id and readiness.
func (q *Queue) Enqueue(id event.Id, readiness event.Ready) {
	q.Add(event.Event{ID: id, Readiness: readiness})
}

// Len returns the number of pending events.
func (q *Queue) Len() int {
	return q.events.Length()
}

// Poll implements event.Source. It drains the queued events into the sink
// in FIFO order, up to the sink's capacity; events that do not fit remain
// queued.
func (q *Queue) Poll(sink event.Sink) error {
	log.Logger.Debug("polling user space events")

	for q.events.Length() > 0 && sink.CapacityLeft() != 0 {
		sink.Add(q.events.Remove().(event.Event))
	}
	return nil
}

// SyncQueue is a Queue that may be used from multiple goroutines at once.
// It trades a mutex on every operation for that safety, so it is a
// deliberate opt-in rather than the default.
//
// Note that enqueueing from another goroutine does not wake a blocked
// poll; pair the SyncQueue with an Awakener for that.
type SyncQueue struct {
	mu    sync.Mutex
	inner Queue
}

// NewSync creates an empty cross-goroutine user space event queue.
func NewSync() *SyncQueue {
	return &SyncQueue{inner: Queue{events: queue.New()}}
}

// Add enqueues a readiness event for a later poll.
func (q *SyncQueue) Add(ev event.Event) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.inner.Add(ev)
}

// Enqueue enqueues a readiness event built from the id and readiness.
func (q *SyncQueue) Enqueue(id event.Id, readiness event.Ready) {
	q.Add(event.Event{ID: id, Readiness: readiness})
}

// Len returns the number of pending events.
func (q *SyncQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.inner.Len()
}

// Poll implements event.Source, see Queue.Poll.
func (q *SyncQueue) Poll(sink event.Sink) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.inner.Poll(sink)
}
