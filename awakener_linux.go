//go:build linux

package gaea

import (
	"os"
	"unsafe"

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
// On Linux the Awakener is backed by an eventfd registered edge-triggered
// under the reserved id.
type Awakener struct {
	fd int
}

// NewAwakener creates a new Awakener for the queue, reserving a
// registration under the given id.
func NewAwakener(q *OsQueue, id event.Id) (*Awakener, error) {
	fd, err := unix.Eventfd(0, unix.EFD_CLOEXEC|unix.EFD_NONBLOCK)
	if err != nil {
		return nil, os.NewSyscallError("eventfd", err)
	}
	if err := q.Register(fd, id, Readable, Edge); err != nil {
		unix.Close(fd)
		return nil, err
	}
	return &Awakener{fd: fd}, nil
}

// Wake wakes the queue. Safe to call from any goroutine or thread.
func (a *Awakener) Wake() error {
	// The eventfd object is a 64 bit counter; writes add to it in host
	// byte order and wake the poller.
	var buf [8]byte
	*(*uint64)(unsafe.Pointer(&buf[0])) = 1

	for {
		_, err := unix.Write(a.fd, buf[:])
		switch err {
		case nil:
			return nil
		case unix.EINTR:
			continue
		case unix.EAGAIN:
			// The write only blocks if the counter would overflow,
			// meaning a wake is long since pending. Reset the
			// counter and try once more.
			a.drain()
		default:
			return os.NewSyscallError("write", err)
		}
	}
}

// drain resets the eventfd counter to zero.
func (a *Awakener) drain() {
	var buf [8]byte
	// A would-block error means the counter is already zero.
	_, _ = unix.Read(a.fd, buf[:])
}

// Close releases the Awakener, removing its registration from the queue.
// Pending wake events are lost; call it only once no more wake ups are
// needed.
func (a *Awakener) Close(q *OsQueue) error {
	err := q.Deregister(a.fd)
	if cerr := unix.Close(a.fd); cerr != nil && err == nil {
		err = os.NewSyscallError("close", cerr)
	}
	return err
}
