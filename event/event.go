// Package event defines the readiness event types shared by all event
// sources: the event itself, the sink events are collected into and the
// source interfaces implemented by the OS queue, timers and user space
// queues.
package event

import "fmt"

// Id associates a readiness event with the handle, deadline or user space
// entry that produced it.
//
// An Id does not have to be unique, it is purely a tool for the caller to map
// an Event back to its origin. It is for example fine to use the same Id for
// a connection and a timeout deadline related to that connection. The Id is
// completely opaque to the queues, but note that event attribution becomes
// ambiguous once two live registrations on the same queue share an Id.
type Id uint64

// Event is a readiness notification: an Id paired with the readiness that
// was observed. It is the unit produced by every event source.
type Event struct {
	ID        Id
	Readiness Ready
}

// String returns a description of the event, mainly useful for logging.
func (e Event) String() string {
	return fmt.Sprintf("id=%d readiness=%s", uint64(e.ID), e.Readiness)
}
