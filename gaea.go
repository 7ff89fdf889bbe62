// Package gaea is a low-level readiness event library. It multiplexes OS
// readiness notifications (epoll on Linux, kqueue on the BSDs and macOS),
// software timers and user space events behind a single poll call, intended
// as the foundation of a single-threaded, event-driven application.
//
// The OS backed queue is OsQueue, software timers live in the timers
// package and the user space queue in the uqueue package. Poll drives any
// combination of them, collecting the produced events in an event.Sink.
//
// All types are owned by a single goroutine; only Awakener.Wake may be
// called from other goroutines.
package gaea

import (
	"time"

	"go.uber.org/zap"

	"github.com/Thomasdezeeuw/gaea/event"
	"github.com/Thomasdezeeuw/gaea/log"
)

// NoTimeout makes a poll wait until at least one event is available. Any
// negative timeout has the same meaning.
const NoTimeout time.Duration = -1

// Poll polls a number of event sources for new events, collecting them in
// sink.
//
// Poll first computes the blocking budget: the caller's timeout capped by
// the earliest deadline reported by any source implementing event.Deadliner,
// so a kernel wait never overshoots a pending software deadline. It then
// polls every source in order, each without blocking and draining as much of
// its backlog as the sink's capacity allows. Next the blocking source, if
// any, is polled with the computed budget; this is the only step that may
// suspend the calling goroutine. Finally every Deadliner source is polled
// once more, as deadlines may have expired during the wait.
//
// A timeout of zero turns the blocking poll into a non-blocking probe and
// NoTimeout removes the time limit. An untouched sink on return is a valid
// outcome: no events became available before the timeout.
//
// If any source fails the whole call fails with that error. The sink may
// already contain events from the sources polled before the failure; the
// caller must treat the call as failed and may re-drive Poll.
func Poll(blocking event.BlockingSource, sources []event.Source, sink event.Sink, timeout time.Duration) error {
	log.Logger.Debug("polling", zap.Duration("timeout", timeout))

	if blocking != nil {
		now := time.Now()
		for _, source := range sources {
			if d, ok := source.(event.Deadliner); ok {
				if deadline, ok := d.NextDeadline(); ok {
					timeout = minTimeout(timeout, deadline.Sub(now))
				}
			}
		}
	}

	for _, source := range sources {
		if err := source.Poll(sink); err != nil {
			return err
		}
	}

	if blocking == nil {
		return nil
	}
	if err := blocking.BlockingPoll(sink, timeout); err != nil {
		return err
	}

	// Time advanced while blocked, more deadlines may have passed.
	for _, source := range sources {
		if _, ok := source.(event.Deadliner); ok {
			if err := source.Poll(sink); err != nil {
				return err
			}
		}
	}
	return nil
}

// minTimeout returns the smaller of the two timeouts, where a negative
// timeout means unbounded and next is clamped at zero.
func minTimeout(timeout, next time.Duration) time.Duration {
	if next < 0 {
		next = 0
	}
	if timeout < 0 || next < timeout {
		return next
	}
	return timeout
}
