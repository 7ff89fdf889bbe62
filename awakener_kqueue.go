//go:build darwin || freebsd

package gaea

import (
	"os"

	"golang.org/x/sys/unix"

	"github.com/Thomasdezeeuw/gaea/event"
)

// Awakener wakes an OsQueue from another goroutine or thread, causing a
// blocked poll to return with a readable event for the awakener's id. It is
// the only gaea type that may be shared across threads; waking goes through
// a kernel object, never an in-process lock, so it cannot deadlock against
// a blocked poll.
//
// Wake may be called concurrently and any number of times: wakes issued
// before the previous one is observed coalesce into a single pending event.
// Once the event has been delivered the next wake produces a new one.
//
// Only a single Awakener should be created per OsQueue.
//
// On this platform the Awakener is backed by a kqueue user event
// (EVFILT_USER); waking triggers the event on a duplicate of the queue's
// kqueue descriptor.
type Awakener struct {
	kq int
	id event.Id
}

// NewAwakener creates a new Awakener for the queue, reserving a
// registration under the given id.
func NewAwakener(q *OsQueue, id event.Id) (*Awakener, error) {
	var kev unix.Kevent_t
	unix.SetKevent(&kev, 0, unix.EVFILT_USER, unix.EV_ADD|unix.EV_CLEAR|unix.EV_RECEIPT)
	if err := keventRegister(q.sys.kq, []unix.Kevent_t{kev}, false); err != nil {
		return nil, err
	}
	q.sys.userID = id
	q.sys.hasUserID = true

	// Wake must not touch the queue's state, so it gets its own handle
	// to the same kqueue.
	kq, err := unix.Dup(q.sys.kq)
	if err != nil {
		return nil, os.NewSyscallError("dup", err)
	}
	unix.CloseOnExec(kq)
	return &Awakener{kq: kq, id: id}, nil
}

// Wake wakes the queue. Safe to call from any goroutine or thread.
func (a *Awakener) Wake() error {
	var kev unix.Kevent_t
	unix.SetKevent(&kev, 0, unix.EVFILT_USER, unix.EV_ADD|unix.EV_CLEAR|unix.EV_RECEIPT)
	kev.Fflags = unix.NOTE_TRIGGER
	return keventRegister(a.kq, []unix.Kevent_t{kev}, false)
}

// Close releases the Awakener, removing the user event from the queue.
// Pending wake events are lost; call it only once no more wake ups are
// needed.
func (a *Awakener) Close(q *OsQueue) error {
	var kev unix.Kevent_t
	unix.SetKevent(&kev, 0, unix.EVFILT_USER, unix.EV_DELETE|unix.EV_RECEIPT)
	err := keventRegister(q.sys.kq, []unix.Kevent_t{kev}, true)
	q.sys.hasUserID = false

	if cerr := unix.Close(a.kq); cerr != nil && err == nil {
		err = os.NewSyscallError("close", cerr)
	}
	return err
}
