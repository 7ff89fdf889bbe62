//go:build linux || darwin || freebsd || netbsd || openbsd

package gaea

import (
	"time"

	"go.uber.org/zap"

	"github.com/Thomasdezeeuw/gaea/event"
	"github.com/Thomasdezeeuw/gaea/log"
)

// OsQueue is a readiness event queue backed by the operating system, epoll
// on Linux and kqueue on the BSDs and macOS.
//
// File descriptors are registered with an id, the interests to monitor and a
// RegisterOption describing how events are delivered. The queue owns only
// the kernel-side registration; the file descriptor itself remains owned by
// the caller. Deregister a file descriptor before closing it: some kernels
// clean up registrations on close and some do not, so portable code must
// never rely on it.
//
// OsQueue implements event.BlockingSource and, as a non-blocking probe,
// event.Source. It must only be used from the goroutine that drives the
// poll loop.
type OsQueue struct {
	sys  sysSelector
	regs map[int]registration
}

// registration is the queue's view of one registered file descriptor.
type registration struct {
	id        event.Id
	interests Interests
	opt       RegisterOption
}

// NewOsQueue creates a new OS backed readiness event queue. It makes a
// syscall to create the kernel queue; failure of that syscall, e.g. on
// resource exhaustion, is fatal and returned as is.
func NewOsQueue() (*OsQueue, error) {
	sys, err := newSysSelector()
	if err != nil {
		return nil, err
	}
	return &OsQueue{
		sys:  sys,
		regs: make(map[int]registration),
	}, nil
}

// Register registers the file descriptor with the queue. Once registered,
// the queue reports an event with the given id whenever the file descriptor
// becomes ready for one of the operations in interests, delivered according
// to opt.
//
// A file descriptor can hold at most one live registration per queue;
// registering it again returns ErrAlreadyRegistered, use Reregister to
// change an existing registration instead.
func (q *OsQueue) Register(fd int, id event.Id, interests Interests, opt RegisterOption) error {
	if interests == 0 {
		return ErrNoInterests
	}
	if _, ok := q.regs[fd]; ok {
		return ErrAlreadyRegistered
	}

	log.Logger.Debug("registering handle",
		zap.Int("fd", fd),
		zap.Uint64("id", uint64(id)),
		zap.Stringer("interests", interests),
		zap.Stringer("opt", opt))

	if err := q.sysRegister(fd, id, interests, opt); err != nil {
		return err
	}
	q.regs[fd] = registration{id: id, interests: interests, opt: opt}
	return nil
}

// Reregister updates the registration of an already registered file
// descriptor. The new id, interests and option fully replace the previous
// values; interests dropped here are no longer monitored. Reregister is
// also how a fired oneshot registration is rearmed.
//
// Returns ErrNotRegistered if the file descriptor has no live registration
// on this queue.
func (q *OsQueue) Reregister(fd int, id event.Id, interests Interests, opt RegisterOption) error {
	if interests == 0 {
		return ErrNoInterests
	}
	if _, ok := q.regs[fd]; !ok {
		return ErrNotRegistered
	}

	log.Logger.Debug("reregistering handle",
		zap.Int("fd", fd),
		zap.Uint64("id", uint64(id)),
		zap.Stringer("interests", interests),
		zap.Stringer("opt", opt))

	if err := q.sysReregister(fd, id, interests, opt); err != nil {
		return err
	}
	q.regs[fd] = registration{id: id, interests: interests, opt: opt}
	return nil
}

// Deregister removes the registration of the file descriptor. It is
// idempotent: deregistering a file descriptor that is unknown, or whose
// registration the kernel already dropped (e.g. because the descriptor was
// closed), is a no-op.
func (q *OsQueue) Deregister(fd int) error {
	if _, ok := q.regs[fd]; !ok {
		return nil
	}

	log.Logger.Debug("deregistering handle", zap.Int("fd", fd))

	if err := q.sysDeregister(fd); err != nil {
		return err
	}
	delete(q.regs, fd)
	return nil
}

// Poll is a non-blocking probe of the queue, it implements event.Source.
func (q *OsQueue) Poll(sink event.Sink) error {
	return q.BlockingPoll(sink, 0)
}

// BlockingPoll waits up to timeout for readiness events, translating each
// kernel notification into an event.Event added to the sink. A zero timeout
// probes without blocking and a negative timeout (NoTimeout) waits until at
// least one event arrives.
//
// Interrupted waits are retried with the remaining timeout and never
// surfaced. One wait may deliver many events: BlockingPoll keeps collecting
// without blocking again while the kernel reports full batches and the sink
// has capacity. Kernel events beyond the sink's capacity stay pending and
// are delivered by a later poll.
func (q *OsQueue) BlockingPoll(sink event.Sink, timeout time.Duration) error {
	log.Logger.Debug("polling OS queue", zap.Duration("timeout", timeout))
	return q.sysSelect(sink, timeout)
}

// Close closes the queue, releasing the kernel queue handle. Registered
// file descriptors are not closed, they are owned by the caller.
func (q *OsQueue) Close() error {
	q.regs = nil
	return q.sysClose()
}

// sysEventsCap is the size of the batch pulled from the kernel per wait.
const sysEventsCap = 512

// batchSize caps the kernel batch at the sink's remaining capacity.
func batchSize(sink event.Sink) int {
	n := sysEventsCap
	if left := sink.CapacityLeft(); left >= 0 && left < n {
		n = left
	}
	return n
}
