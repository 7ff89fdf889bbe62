//go:build linux || darwin || freebsd || netbsd || openbsd

package gaea

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Thomasdezeeuw/gaea/event"
)

// newTestQueue creates an OsQueue closed when the test finishes.
func newTestQueue(t *testing.T) *OsQueue {
	t.Helper()
	q, err := NewOsQueue()
	require.NoError(t, err)
	t.Cleanup(func() { q.Close() })
	return q
}

// newTestPipe creates a pipe with both ends closed when the test finishes.
func newTestPipe(t *testing.T) (*PipeWriter, *PipeReader) {
	t.Helper()
	w, r, err := NewPipe()
	require.NoError(t, err)
	t.Cleanup(func() {
		w.Close()
		r.Close()
	})
	return w, r
}

// pollEvents waits up to timeout for events from the queue.
func pollEvents(t *testing.T, q *OsQueue, timeout time.Duration) event.Buffer {
	t.Helper()
	var events event.Buffer
	require.NoError(t, q.BlockingPoll(&events, timeout))
	return events
}

func TestOsQueueRegistrationErrors(t *testing.T) {
	q := newTestQueue(t)
	_, r := newTestPipe(t)

	assert.Equal(t, ErrNoInterests, q.Register(r.Fd(), 1, 0, Level))
	assert.Equal(t, ErrNotRegistered, q.Reregister(r.Fd(), 1, Readable, Level))

	require.NoError(t, q.Register(r.Fd(), 1, Readable, Level))
	assert.Equal(t, ErrAlreadyRegistered, q.Register(r.Fd(), 2, Readable, Level))
	assert.Equal(t, ErrNoInterests, q.Reregister(r.Fd(), 1, 0, Level))
	require.NoError(t, q.Reregister(r.Fd(), 2, Readable, Level))

	require.NoError(t, q.Deregister(r.Fd()))
	// Deregistering is idempotent.
	require.NoError(t, q.Deregister(r.Fd()))
	assert.Equal(t, ErrNotRegistered, q.Reregister(r.Fd(), 1, Readable, Level))
}

func TestOsQueueEmptyProbe(t *testing.T) {
	q := newTestQueue(t)
	_, r := newTestPipe(t)
	require.NoError(t, r.Register(q, 1, Level))

	// Nothing is ready, a zero timeout probe returns at once and empty.
	assert.Empty(t, pollEvents(t, q, 0))
}

func TestOsQueueLevelTriggered(t *testing.T) {
	q := newTestQueue(t)
	w, r := newTestPipe(t)
	require.NoError(t, r.Register(q, 1, Level))

	_, err := w.Write([]byte("wake"))
	require.NoError(t, err)

	events := pollEvents(t, q, time.Second)
	require.Len(t, events, 1)
	assert.Equal(t, event.Id(1), events[0].ID)
	assert.True(t, events[0].Readiness.IsReadable())

	// Level triggered: the condition still holds, so it is reported again.
	events = pollEvents(t, q, 0)
	require.Len(t, events, 1)
	assert.True(t, events[0].Readiness.IsReadable())

	// Draining the pipe clears the condition.
	var buf [8]byte
	_, err = r.Read(buf[:])
	require.NoError(t, err)
	assert.Empty(t, pollEvents(t, q, 0))
}

func TestOsQueueEdgeTriggered(t *testing.T) {
	q := newTestQueue(t)
	w, r := newTestPipe(t)
	require.NoError(t, r.Register(q, 1, Edge))

	_, err := w.Write([]byte("a"))
	require.NoError(t, err)

	events := pollEvents(t, q, time.Second)
	require.Len(t, events, 1)
	assert.True(t, events[0].Readiness.IsReadable())

	// Edge triggered: without a new readiness change nothing is reported,
	// even though the pipe was not drained.
	assert.Empty(t, pollEvents(t, q, 0))

	// A new write is a new edge.
	_, err = w.Write([]byte("b"))
	require.NoError(t, err)
	events = pollEvents(t, q, time.Second)
	require.Len(t, events, 1)
	assert.True(t, events[0].Readiness.IsReadable())
}

func TestOsQueueOneshot(t *testing.T) {
	q := newTestQueue(t)
	w, r := newTestPipe(t)
	require.NoError(t, r.Register(q, 1, Level|Oneshot))

	_, err := w.Write([]byte("a"))
	require.NoError(t, err)

	events := pollEvents(t, q, time.Second)
	require.Len(t, events, 1)
	assert.True(t, events[0].Readiness.IsReadable())

	// The registration fired and is disarmed, data pending or not.
	assert.Empty(t, pollEvents(t, q, 0))

	// Rearming through Reregister delivers again.
	require.NoError(t, q.Reregister(r.Fd(), 1, Readable, Level|Oneshot))
	events = pollEvents(t, q, time.Second)
	require.Len(t, events, 1)
	assert.True(t, events[0].Readiness.IsReadable())
}

func TestOsQueueWritable(t *testing.T) {
	q := newTestQueue(t)
	w, _ := newTestPipe(t)
	require.NoError(t, w.Register(q, 1, Level))

	// A fresh pipe has buffer space, the writer is immediately writable.
	events := pollEvents(t, q, time.Second)
	require.Len(t, events, 1)
	assert.Equal(t, event.Id(1), events[0].ID)
	assert.True(t, events[0].Readiness.IsWritable())
}

func TestOsQueueHup(t *testing.T) {
	q := newTestQueue(t)
	w, r, err := NewPipe()
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })
	require.NoError(t, r.Register(q, 1, Level))

	require.NoError(t, w.Close())

	events := pollEvents(t, q, time.Second)
	require.Len(t, events, 1)
	assert.Equal(t, event.Id(1), events[0].ID)
	assert.True(t, events[0].Readiness.IsHup())
}

func TestOsQueueRespectsSinkCapacity(t *testing.T) {
	q := newTestQueue(t)
	wa, ra := newTestPipe(t)
	wb, rb := newTestPipe(t)
	require.NoError(t, ra.Register(q, 1, Level))
	require.NoError(t, rb.Register(q, 2, Level))

	_, err := wa.Write([]byte("a"))
	require.NoError(t, err)
	_, err = wb.Write([]byte("b"))
	require.NoError(t, err)

	// Only one slot: one of the two events is delivered, the other stays
	// pending for a later poll.
	sink := event.NewFixedBuffer(1)
	require.NoError(t, q.BlockingPoll(sink, time.Second))
	require.Len(t, sink.Events(), 1)
	first := sink.Events()[0].ID

	sink.Reset()
	require.NoError(t, q.BlockingPoll(sink, time.Second))
	require.Len(t, sink.Events(), 1)
	assert.NotEqual(t, first, sink.Events()[0].ID)
}

func TestOsQueueBlockingPollTimeout(t *testing.T) {
	q := newTestQueue(t)
	_, r := newTestPipe(t)
	require.NoError(t, r.Register(q, 1, Level))

	start := time.Now()
	assert.Empty(t, pollEvents(t, q, 20*time.Millisecond))
	// Allow a little slack for kernel timer granularity.
	assert.GreaterOrEqual(t, time.Since(start), 15*time.Millisecond)
}
