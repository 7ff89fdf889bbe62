//go:build linux || darwin || freebsd || netbsd || openbsd

package gaea

import (
	"os"

	"golang.org/x/sys/unix"

	"github.com/Thomasdezeeuw/gaea/event"
)

// NewPipe creates a new non-blocking unix pipe, returning the sending and
// receiving ends.
//
// Both ends can be registered with an OsQueue, the writer for writable and
// the reader for readable interests. As with any handle, deregister an end
// before closing it.
func NewPipe() (*PipeWriter, *PipeReader, error) {
	fds, err := sysPipe()
	if err != nil {
		return nil, nil, err
	}
	return &PipeWriter{fd: fds[1]}, &PipeReader{fd: fds[0]}, nil
}

// PipeReader is the receiving end of a pipe created by NewPipe.
type PipeReader struct {
	fd int
}

// Fd returns the file descriptor of the receiving end.
func (r *PipeReader) Fd() int { return r.fd }

// Read reads from the pipe. Since the pipe is non-blocking the error is
// unix.EAGAIN when no data is available.
func (r *PipeReader) Read(b []byte) (int, error) {
	n, err := unix.Read(r.fd, b)
	if n < 0 {
		n = 0
	}
	return n, err
}

// Register registers the receiving end with the queue for readable events.
func (r *PipeReader) Register(q *OsQueue, id event.Id, opt RegisterOption) error {
	return q.Register(r.fd, id, Readable, opt)
}

// Deregister removes the receiving end's registration from the queue.
func (r *PipeReader) Deregister(q *OsQueue) error {
	return q.Deregister(r.fd)
}

// Close closes the receiving end of the pipe.
func (r *PipeReader) Close() error {
	return os.NewSyscallError("close", unix.Close(r.fd))
}

// PipeWriter is the sending end of a pipe created by NewPipe.
type PipeWriter struct {
	fd int
}

// Fd returns the file descriptor of the sending end.
func (w *PipeWriter) Fd() int { return w.fd }

// Write writes to the pipe. Since the pipe is non-blocking the error is
// unix.EAGAIN when the pipe's buffer is full.
func (w *PipeWriter) Write(b []byte) (int, error) {
	n, err := unix.Write(w.fd, b)
	if n < 0 {
		n = 0
	}
	return n, err
}

// Register registers the sending end with the queue for writable events.
func (w *PipeWriter) Register(q *OsQueue, id event.Id, opt RegisterOption) error {
	return q.Register(w.fd, id, Writable, opt)
}

// Deregister removes the sending end's registration from the queue.
func (w *PipeWriter) Deregister(q *OsQueue) error {
	return q.Deregister(w.fd)
}

// Close closes the sending end of the pipe. The reader observes hup
// readiness once the buffer is drained.
func (w *PipeWriter) Close() error {
	return os.NewSyscallError("close", unix.Close(w.fd))
}
