//go:build linux || darwin || freebsd || netbsd || openbsd

package gaea

import (
	"errors"
	"os"
	"os/signal"

	"go.uber.org/zap"
	"golang.org/x/sys/unix"

	"github.com/Thomasdezeeuw/gaea/event"
	"github.com/Thomasdezeeuw/gaea/log"
)

// Signal is a process signal that can be watched with Signals.
type Signal int

const (
	// Interrupt: the controlling terminal wishes to interrupt the
	// process, e.g. because Ctrl+C was pressed (SIGINT).
	Interrupt Signal = iota
	// Terminate: the process is requested to terminate, e.g. by the
	// kill command (SIGTERM).
	Terminate
	// Quit: the process is requested to quit and dump core (SIGQUIT).
	Quit
)

func (s Signal) String() string {
	switch s {
	case Interrupt:
		return "interrupt"
	case Terminate:
		return "terminate"
	case Quit:
		return "quit"
	default:
		return "unknown"
	}
}

// osSignal returns the os.Signal to watch for.
func (s Signal) osSignal() os.Signal {
	switch s {
	case Interrupt:
		return unix.SIGINT
	case Terminate:
		return unix.SIGTERM
	default:
		return unix.SIGQUIT
	}
}

// signalFromRaw converts a raw unix signal number back into a Signal.
func signalFromRaw(raw byte) (Signal, bool) {
	switch unix.Signal(raw) {
	case unix.SIGINT:
		return Interrupt, true
	case unix.SIGTERM:
		return Terminate, true
	case unix.SIGQUIT:
		return Quit, true
	default:
		return 0, false
	}
}

// ErrNoSignals is returned by NewSignals when called without signals to
// watch.
var ErrNoSignals = errors.New("no signals to watch")

// Signals delivers process signals as readiness events.
//
// Signal delivery is turned into a pollable condition with a self-pipe:
// each received signal is recorded as a single byte written to a
// non-blocking pipe whose read end is registered level-triggered with the
// queue. While occurrences are pending, polling the queue reports a
// readable event for the Signals id; Receive pops them one at a time.
// Signals also implements event.Source: its Poll drains every pending
// occurrence into the sink as one event each.
//
// Watching a signal claims it process-wide. Create at most one Signals
// instance per signal number; a second instance watching the same signal
// steals occurrences from the first non-deterministically.
type Signals struct {
	id   event.Id
	r    *PipeReader
	w    *PipeWriter
	ch   chan os.Signal
	done chan struct{}
}

// NewSignals creates a signal notifier for the given signals, registered
// with the queue under the given id.
func NewSignals(q *OsQueue, id event.Id, signals ...Signal) (*Signals, error) {
	if len(signals) == 0 {
		return nil, ErrNoSignals
	}

	w, r, err := NewPipe()
	if err != nil {
		return nil, err
	}
	if err := r.Register(q, id, Level); err != nil {
		r.Close()
		w.Close()
		return nil, err
	}

	log.Logger.Debug("watching signals", zap.Uint64("id", uint64(id)))

	osSignals := make([]os.Signal, len(signals))
	for i, signal := range signals {
		osSignals[i] = signal.osSignal()
	}
	s := &Signals{
		id:   id,
		r:    r,
		w:    w,
		ch:   make(chan os.Signal, 8),
		done: make(chan struct{}),
	}
	signal.Notify(s.ch, osSignals...)
	go s.forward()
	return s, nil
}

// forward records received signals in the self-pipe, one byte holding the
// raw signal number each. A full pipe means plenty of occurrences are
// already pending, then the signal is dropped.
func (s *Signals) forward() {
	defer close(s.done)
	for sig := range s.ch {
		raw, ok := sig.(unix.Signal)
		if !ok {
			continue
		}
		_, _ = s.w.Write([]byte{byte(raw)})
	}
}

// Receive returns a received signal, if any. The boolean is false when no
// signal is pending.
func (s *Signals) Receive() (Signal, bool, error) {
	var buf [1]byte
	for {
		_, err := s.r.Read(buf[:])
		switch err {
		case nil:
			if sig, ok := signalFromRaw(buf[0]); ok {
				return sig, true, nil
			}
			// Not a signal we know, skip it.
		case unix.EAGAIN:
			return 0, false, nil
		case unix.EINTR:
			// Retry.
		default:
			return 0, false, os.NewSyscallError("read", err)
		}
	}
}

// Poll implements event.Source, draining all pending signal occurrences
// into the sink as one event per occurrence, with the id Signals was
// created with and readable readiness.
func (s *Signals) Poll(sink event.Sink) error {
	for sink.CapacityLeft() != 0 {
		_, ok, err := s.Receive()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		sink.Add(event.Event{ID: s.id, Readiness: event.Readable})
	}
	return nil
}

// Close stops watching the signals, restoring their default disposition,
// and removes the self-pipe's registration from the queue.
func (s *Signals) Close(q *OsQueue) error {
	signal.Stop(s.ch)
	close(s.ch)
	<-s.done

	var errs MultiError
	if err := s.r.Deregister(q); err != nil {
		errs = append(errs, err)
	}
	if err := s.r.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := s.w.Close(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}
