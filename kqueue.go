//go:build darwin || freebsd || netbsd || openbsd

package gaea

import (
	"os"
	"time"

	"golang.org/x/sys/unix"

	"github.com/Thomasdezeeuw/gaea/event"
)

// sysSelector is the kqueue backend of OsQueue.
type sysSelector struct {
	kq int

	// Set once a user event (EVFILT_USER) awakener is installed, to
	// attribute its events; user events carry no file descriptor.
	userID    event.Id
	hasUserID bool
}

func newSysSelector() (sysSelector, error) {
	kq, err := unix.Kqueue()
	if err != nil {
		return sysSelector{}, os.NewSyscallError("kqueue", err)
	}
	unix.CloseOnExec(kq)
	return sysSelector{kq: kq}, nil
}

func (q *OsQueue) sysRegister(fd int, id event.Id, interests Interests, opt RegisterOption) error {
	flags := unix.EV_ADD | unix.EV_RECEIPT | optToFlags(opt)

	// At most one change per filter.
	changes := make([]unix.Kevent_t, 0, 2)
	if interests.IsWritable() {
		var kev unix.Kevent_t
		unix.SetKevent(&kev, fd, unix.EVFILT_WRITE, flags)
		changes = append(changes, kev)
	}
	if interests.IsReadable() {
		var kev unix.Kevent_t
		unix.SetKevent(&kev, fd, unix.EVFILT_READ, flags)
		changes = append(changes, kev)
	}

	return keventRegister(q.sys.kq, changes, false)
}

func (q *OsQueue) sysReregister(fd int, id event.Id, interests Interests, opt RegisterOption) error {
	flags := unix.EV_RECEIPT | optToFlags(opt)

	// Filters are registered independently with kqueue: add the wanted
	// ones and delete the others, ignoring not-found errors for filters
	// that were never added.
	addOrDelete := func(want bool) int {
		if want {
			return flags | unix.EV_ADD
		}
		return flags | unix.EV_DELETE
	}

	changes := make([]unix.Kevent_t, 2)
	unix.SetKevent(&changes[0], fd, unix.EVFILT_WRITE, addOrDelete(interests.IsWritable()))
	unix.SetKevent(&changes[1], fd, unix.EVFILT_READ, addOrDelete(interests.IsReadable()))

	return keventRegister(q.sys.kq, changes, true)
}

func (q *OsQueue) sysDeregister(fd int) error {
	flags := unix.EV_DELETE | unix.EV_RECEIPT

	changes := make([]unix.Kevent_t, 2)
	unix.SetKevent(&changes[0], fd, unix.EVFILT_WRITE, flags)
	unix.SetKevent(&changes[1], fd, unix.EVFILT_READ, flags)

	// A filter that was never registered, or that the kernel already
	// dropped on close, reports ENOENT; both are fine for deregister.
	return keventRegister(q.sys.kq, changes, true)
}

func (q *OsQueue) sysSelect(sink event.Sink, timeout time.Duration) error {
	var events [sysEventsCap]unix.Kevent_t

	var end time.Time
	if timeout >= 0 {
		end = time.Now().Add(timeout)
	}
	timespec := timeoutToTimespec(timeout)

	for {
		batch := batchSize(sink)
		if batch == 0 {
			return nil
		}

		n, err := unix.Kevent(q.sys.kq, nil, events[:batch], timespec)
		switch {
		case err == unix.EINTR:
			if timeout >= 0 {
				remaining := time.Until(end)
				if remaining < 0 {
					remaining = 0
				}
				timespec = timeoutToTimespec(remaining)
			}
			continue
		case err != nil:
			return os.NewSyscallError("kevent", err)
		case n == 0:
			// Reached the time limit, no events are pulled.
			return nil
		}

		for i := 0; i < n; i++ {
			if ev, ok := q.keventToEvent(&events[i]); ok {
				sink.Add(ev)
			}
		}
		if n < batch {
			// Batch not full: the kernel has no more events for us.
			return nil
		}
		// A full batch, there may be more events pending. Collect them
		// without waiting again.
		timespec = timeoutToTimespec(0)
	}
}

func (q *OsQueue) sysClose() error {
	return os.NewSyscallError("close", unix.Close(q.sys.kq))
}

// keventToEvent translates a kevent back into an event.Event using the
// registration table. Events for file descriptors without a live
// registration are dropped as spurious.
func (q *OsQueue) keventToEvent(kev *unix.Kevent_t) (event.Event, bool) {
	var id event.Id
	var readiness event.Ready

	switch {
	case hasUserFilter && int(kev.Filter) == evfiltUser:
		// User events back the awakener. Platforms that wake through
		// eventfd report readable readiness, so do the same here.
		if !q.sys.hasUserID {
			return event.Event{}, false
		}
		id = q.sys.userID
		readiness = event.Readable
	default:
		reg, ok := q.regs[int(kev.Ident)]
		if !ok {
			return event.Event{}, false
		}
		id = reg.id
		switch int(kev.Filter) {
		case unix.EVFILT_READ:
			readiness = event.Readable
		case unix.EVFILT_WRITE:
			readiness = event.Writable
		}
	}

	if kev.Flags&unix.EV_ERROR != 0 {
		// The actual error is in the data field, which cannot be
		// returned from here; the caller retrieves it from the handle.
		readiness |= event.Error
	}
	if kev.Flags&unix.EV_EOF != 0 {
		readiness |= event.Hup
		// With the read end closed, fflags holds the error if any.
		if kev.Fflags != 0 {
			readiness |= event.Error
		}
	}
	return event.Event{ID: id, Readiness: readiness}, true
}

func optToFlags(opt RegisterOption) int {
	var flags int
	// Level-triggered is the kqueue default.
	if opt.IsEdge() {
		flags |= unix.EV_CLEAR
	}
	if opt.IsOneshot() {
		flags |= unix.EV_ONESHOT
	}
	return flags
}

// keventRegister applies the changes and checks the per-change receipts
// (EV_RECEIPT), returning the first failure. With ignoreNotFound set,
// ENOENT receipts are skipped.
func keventRegister(kq int, changes []unix.Kevent_t, ignoreNotFound bool) error {
	receipts := make([]unix.Kevent_t, len(changes))
	_, err := unix.Kevent(kq, changes, receipts, nil)
	if err != nil {
		// On EINTR all changes have been applied, per the man page.
		if err == unix.EINTR {
			err = nil
		}
		return os.NewSyscallError("kevent", err)
	}

	for i := range receipts {
		kev := &receipts[i]
		if kev.Flags&unix.EV_ERROR == 0 || kev.Data == 0 {
			continue
		}
		errno := unix.Errno(kev.Data)
		if ignoreNotFound && errno == unix.ENOENT {
			continue
		}
		return os.NewSyscallError("kevent", errno)
	}
	return nil
}

func timeoutToTimespec(timeout time.Duration) *unix.Timespec {
	if timeout < 0 {
		return nil
	}
	ts := unix.NsecToTimespec(timeout.Nanoseconds())
	return &ts
}
