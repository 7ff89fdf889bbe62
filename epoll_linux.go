//go:build linux

package gaea

import (
	"os"
	"time"

	"golang.org/x/sys/unix"

	"github.com/Thomasdezeeuw/gaea/event"
)

// sysSelector is the epoll backend of OsQueue.
type sysSelector struct {
	epfd int
}

func newSysSelector() (sysSelector, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return sysSelector{}, os.NewSyscallError("epoll_create1", err)
	}
	return sysSelector{epfd: epfd}, nil
}

func (q *OsQueue) sysRegister(fd int, id event.Id, interests Interests, opt RegisterOption) error {
	ev := newEpollEvent(fd, interests, opt)
	return os.NewSyscallError("epoll_ctl add",
		unix.EpollCtl(q.sys.epfd, unix.EPOLL_CTL_ADD, fd, &ev))
}

func (q *OsQueue) sysReregister(fd int, id event.Id, interests Interests, opt RegisterOption) error {
	ev := newEpollEvent(fd, interests, opt)
	return os.NewSyscallError("epoll_ctl mod",
		unix.EpollCtl(q.sys.epfd, unix.EPOLL_CTL_MOD, fd, &ev))
}

func (q *OsQueue) sysDeregister(fd int) error {
	err := unix.EpollCtl(q.sys.epfd, unix.EPOLL_CTL_DEL, fd, nil)
	// The kernel drops registrations itself once the last copy of the
	// file descriptor is closed, so a missing or stale registration is
	// not an error for deregister.
	if err == unix.ENOENT || err == unix.EBADF {
		err = nil
	}
	return os.NewSyscallError("epoll_ctl del", err)
}

func (q *OsQueue) sysSelect(sink event.Sink, timeout time.Duration) error {
	var events [sysEventsCap]unix.EpollEvent

	var end time.Time
	if timeout >= 0 {
		end = time.Now().Add(timeout)
	}
	msec := timeoutToMsec(timeout)

	for {
		batch := batchSize(sink)
		if batch == 0 {
			return nil
		}

		n, err := unix.EpollWait(q.sys.epfd, events[:batch], msec)
		switch {
		case err == unix.EINTR:
			// Retry with whatever remains of the timeout.
			if timeout >= 0 {
				msec = timeoutToMsec(time.Until(end))
				if msec < 0 {
					msec = 0
				}
			}
			continue
		case err != nil:
			return os.NewSyscallError("epoll_wait", err)
		case n == 0:
			// Reached the time limit, no events are pulled.
			return nil
		}

		for i := 0; i < n; i++ {
			if ev, ok := q.epollEventToEvent(&events[i]); ok {
				sink.Add(ev)
			}
		}
		if n < batch {
			// Batch not full: the kernel has no more events for us.
			return nil
		}
		// A full batch, there may be more events pending. Collect them
		// without waiting again.
		msec = 0
	}
}

func (q *OsQueue) sysClose() error {
	return os.NewSyscallError("close", unix.Close(q.sys.epfd))
}

// epollEventToEvent translates an epoll event back into an event.Event
// using the registration table. Events for file descriptors without a live
// registration are dropped as spurious.
func (q *OsQueue) epollEventToEvent(ev *unix.EpollEvent) (event.Event, bool) {
	reg, ok := q.regs[int(ev.Fd)]
	if !ok {
		return event.Event{}, false
	}

	var readiness event.Ready
	if ev.Events&(unix.EPOLLIN|unix.EPOLLPRI) != 0 {
		readiness |= event.Readable
	}
	if ev.Events&unix.EPOLLOUT != 0 {
		readiness |= event.Writable
	}
	if ev.Events&unix.EPOLLERR != 0 {
		readiness |= event.Error
	}
	if ev.Events&(unix.EPOLLRDHUP|unix.EPOLLHUP) != 0 {
		readiness |= event.Hup
	}
	return event.Event{ID: reg.id, Readiness: readiness}, true
}

func newEpollEvent(fd int, interests Interests, opt RegisterOption) unix.EpollEvent {
	events := uint32(unix.EPOLLPRI | unix.EPOLLRDHUP)
	if interests.IsReadable() {
		events |= unix.EPOLLIN
	}
	if interests.IsWritable() {
		events |= unix.EPOLLOUT
	}
	// Level-triggered is the epoll default.
	if opt.IsEdge() {
		events |= unix.EPOLLET
	}
	if opt.IsOneshot() {
		events |= unix.EPOLLONESHOT
	}
	return unix.EpollEvent{Events: events, Fd: int32(fd)}
}

// timeoutToMsec converts a timeout to the milliseconds argument of
// epoll_wait: -1 to block without limit, otherwise the duration rounded up
// so we never wake before a deadline.
func timeoutToMsec(timeout time.Duration) int {
	if timeout < 0 {
		return -1
	}
	msec := int(timeout / time.Millisecond)
	if timeout%time.Millisecond != 0 {
		msec++
	}
	return msec
}
