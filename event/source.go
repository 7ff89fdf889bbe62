package event

import "time"

// Source is a readiness event source that can be polled without blocking.
// Implementations include the timer set, the user space queue and the signal
// adapter; the OS queue implements it as a non-blocking probe.
type Source interface {
	// Poll checks the source for readiness events and adds them to the
	// sink. It must never block and must respect the sink's capacity:
	// events that do not fit stay queued for a later poll.
	Poll(sink Sink) error
}

// BlockingSource is a readiness event source that can wait for events. At
// most one blocking source is driven per poll call; it is the only place the
// calling goroutine may be suspended.
type BlockingSource interface {
	// BlockingPoll waits up to timeout for readiness events and adds them
	// to the sink. A zero timeout is a non-blocking probe, a negative
	// timeout means wait until at least one event arrives. Returning with
	// an untouched sink is a valid outcome, it means the timeout elapsed.
	BlockingPoll(sink Sink, timeout time.Duration) error
}

// Deadliner is implemented by sources that know at what time their next
// event is due, such as the timer set. The poll orchestrator uses it to
// bound the blocking wait so a kernel wait never overshoots a pending
// software deadline.
type Deadliner interface {
	Source

	// NextDeadline returns the earliest time at which the source will
	// have an event available. The second return value is false if the
	// source currently has no pending deadline.
	NextDeadline() (time.Time, bool)
}
