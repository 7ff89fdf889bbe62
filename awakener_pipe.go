//go:build netbsd || openbsd

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
// On this platform the Awakener is backed by a self-pipe whose read end is
// registered edge-triggered under the reserved id; the pipe is emptied when
// waking fails because its buffer is full.
type Awakener struct {
	r, w int
}

// NewAwakener creates a new Awakener for the queue, reserving a
// registration under the given id.
func NewAwakener(q *OsQueue, id event.Id) (*Awakener, error) {
	var fds [2]int
	if err := unix.Pipe2(fds[:], unix.O_NONBLOCK|unix.O_CLOEXEC); err != nil {
		return nil, os.NewSyscallError("pipe2", err)
	}
	if err := q.Register(fds[0], id, Readable, Edge); err != nil {
		unix.Close(fds[0])
		unix.Close(fds[1])
		return nil, err
	}
	return &Awakener{r: fds[0], w: fds[1]}, nil
}

// Wake wakes the queue. Safe to call from any goroutine or thread.
func (a *Awakener) Wake() error {
	for {
		_, err := unix.Write(a.w, []byte{1})
		switch err {
		case nil:
			return nil
		case unix.EINTR:
			continue
		case unix.EAGAIN:
			// The pipe's buffer is full, so a wake is long since
			// pending. Empty it and try once more.
			a.empty()
		default:
			return os.NewSyscallError("write", err)
		}
	}
}

// empty discards the pipe's buffered bytes, ignoring any errors.
func (a *Awakener) empty() {
	var buf [4096]byte
	for {
		n, err := unix.Read(a.r, buf[:])
		if n <= 0 || err != nil {
			return
		}
	}
}

// Close releases the Awakener, removing its registration from the queue.
// Pending wake events are lost; call it only once no more wake ups are
// needed.
func (a *Awakener) Close(q *OsQueue) error {
	err := q.Deregister(a.r)
	if cerr := unix.Close(a.r); cerr != nil && err == nil {
		err = os.NewSyscallError("close", cerr)
	}
	if cerr := unix.Close(a.w); cerr != nil && err == nil {
		err = os.NewSyscallError("close", cerr)
	}
	return err
}
