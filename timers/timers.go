// Package timers provides a software timer event source.
//
// Timers orders deadlines by time and turns the expired ones into readiness
// events with timer readiness. It has no OS dependency and never blocks;
// combined with gaea.Poll its earliest deadline bounds the kernel wait, so
// deadlines fire on time without busy-polling.
package timers

import (
	"container/heap"
	"time"

	"go.uber.org/zap"

	"github.com/Thomasdezeeuw/gaea/event"
	"github.com/Thomasdezeeuw/gaea/log"
)

// Timers is a deadline set. Polling it emits an event for every deadline
// that has passed, in increasing time order, with ties broken by insertion
// order. Multiple deadlines may share an id, each fires independently.
//
// Timers implements event.Source and event.Deadliner. It is not safe for
// concurrent use. The zero value is not ready for use, create one with New.
type Timers struct {
	deadlines deadlineHeap
	nextSeq   uint64
}

// deadline is a pending deadline. Heap order is by when, then by seq so
// that deadlines sharing a time fire in insertion order.
type deadline struct {
	id   event.Id
	when time.Time
	seq  uint64
}

// New creates an empty deadline set.
func New() *Timers {
	return &Timers{}
}

// NewCapacity creates an empty deadline set with space for n deadlines
// preallocated, for callers that want to avoid growth at runtime.
func NewCapacity(n int) *Timers {
	return &Timers{deadlines: make(deadlineHeap, 0, n)}
}

// AddDeadline schedules an event with the given id and timer readiness to
// fire once when has passed.
func (t *Timers) AddDeadline(id event.Id, when time.Time) {
	log.Logger.Debug("adding deadline",
		zap.Uint64("id", uint64(id)), zap.Time("deadline", when))

	heap.Push(&t.deadlines, deadline{id: id, when: when, seq: t.nextSeq})
	t.nextSeq++
}

// AddTimeout schedules an event with the given id and timer readiness to
// fire once timeout has elapsed.
func (t *Timers) AddTimeout(id event.Id, timeout time.Duration) {
	t.AddDeadline(id, time.Now().Add(timeout))
}

// RemoveDeadline removes a not yet fired deadline with the given id, doing
// nothing if none exists. If multiple deadlines share the id the
// earliest-scheduled one is removed; callers that need to cancel a precise
// deadline should use a unique id per deadline.
//
// Removing is a linear scan; when performance matters it is usually cheaper
// to leave the deadline in place and ignore its event.
func (t *Timers) RemoveDeadline(id event.Id) {
	log.Logger.Debug("removing deadline", zap.Uint64("id", uint64(id)))

	remove := -1
	for i, d := range t.deadlines {
		if d.id != id {
			continue
		}
		if remove == -1 || t.deadlines[i].before(t.deadlines[remove]) {
			remove = i
		}
	}
	if remove != -1 {
		heap.Remove(&t.deadlines, remove)
	}
}

// Len returns the number of pending deadlines.
func (t *Timers) Len() int {
	return len(t.deadlines)
}

// NextDeadline implements event.Deadliner, returning the earliest pending
// deadline, or false if none is scheduled.
func (t *Timers) NextDeadline() (time.Time, bool) {
	if len(t.deadlines) == 0 {
		return time.Time{}, false
	}
	return t.deadlines[0].when, true
}

// Poll implements event.Source. It emits an event for every deadline at or
// before the current time, earliest first, up to the sink's capacity;
// deadlines that do not fit remain pending.
func (t *Timers) Poll(sink event.Sink) error {
	log.Logger.Debug("polling timers")
	now := time.Now()

	for len(t.deadlines) > 0 && sink.CapacityLeft() != 0 {
		if t.deadlines[0].when.After(now) {
			break
		}
		d := heap.Pop(&t.deadlines).(deadline)
		sink.Add(event.Event{ID: d.id, Readiness: event.Timer})
	}
	return nil
}

// before reports whether d fires before other.
func (d deadline) before(other deadline) bool {
	if !d.when.Equal(other.when) {
		return d.when.Before(other.when)
	}
	return d.seq < other.seq
}

type deadlineHeap []deadline

func (h deadlineHeap) Len() int            { return len(h) }
func (h deadlineHeap) Less(i, j int) bool  { return h[i].before(h[j]) }
func (h deadlineHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *deadlineHeap) Push(x interface{}) { *h = append(*h, x.(deadline)) }

func (h *deadlineHeap) Pop() interface{} {
	old := *h
	n := len(old)
	d := old[n-1]
	*h = old[:n-1]
	return d
}
