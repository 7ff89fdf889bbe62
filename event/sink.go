package event

// Sink is the container events are collected into while polling. Every
// source appends the events it produces to the sink passed to its poll call;
// the caller drains the sink afterwards.
//
// A sink is a pure collector: it must hold on to every event added to it.
// Sources are required to check CapacityLeft before adding events and to
// stop once a bounded sink is full, leaving the remaining events for a later
// poll. Adding to a full bounded sink is a caller error.
type Sink interface {
	// Add adds a single event to the sink.
	Add(ev Event)
	// CapacityLeft returns the number of events that can still be added,
	// or a negative value if the sink can grow without bound.
	CapacityLeft() int
}

// Buffer is a growable Sink backed by a slice. The zero value is an empty
// buffer ready for use.
//
//	var events event.Buffer
//	// ... poll into &events ...
//	for _, ev := range events {
//		// handle ev
//	}
//	events = events[:0]
type Buffer []Event

// Add adds the event to the buffer, growing it as needed.
func (b *Buffer) Add(ev Event) {
	*b = append(*b, ev)
}

// CapacityLeft always returns -1; a Buffer grows without bound.
func (b *Buffer) CapacityLeft() int { return -1 }

// FixedBuffer is a Sink with a capacity fixed at creation. It never
// allocates after NewFixedBuffer, which makes it suitable for callers that
// need to bound both memory and the number of events handled per poll
// iteration.
type FixedBuffer struct {
	events []Event
}

// NewFixedBuffer creates a FixedBuffer that holds at most n events.
func NewFixedBuffer(n int) *FixedBuffer {
	return &FixedBuffer{events: make([]Event, 0, n)}
}

// Add adds the event to the buffer. Calling Add on a full buffer is a
// caller error; sources must check CapacityLeft first.
func (b *FixedBuffer) Add(ev Event) {
	if len(b.events) < cap(b.events) {
		b.events = append(b.events, ev)
	}
}

// CapacityLeft returns the number of events that can still be added.
func (b *FixedBuffer) CapacityLeft() int { return cap(b.events) - len(b.events) }

// Events returns the collected events. The returned slice is only valid
// until the next call to Add or Reset.
func (b *FixedBuffer) Events() []Event { return b.events }

// Reset empties the buffer, keeping its capacity.
func (b *FixedBuffer) Reset() { b.events = b.events[:0] }
