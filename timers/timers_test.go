package timers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Thomasdezeeuw/gaea/event"
)

func TestTimersOrder(t *testing.T) {
	timers := New()
	now := time.Now()

	// Added out of order, expired deadlines must come out in time order.
	timers.AddDeadline(2, now.Add(-2*time.Millisecond))
	timers.AddDeadline(3, now.Add(-1*time.Millisecond))
	timers.AddDeadline(1, now.Add(-3*time.Millisecond))

	var events event.Buffer
	require.NoError(t, timers.Poll(&events))

	assert.Equal(t, event.Buffer{
		{ID: 1, Readiness: event.Timer},
		{ID: 2, Readiness: event.Timer},
		{ID: 3, Readiness: event.Timer},
	}, events)
	assert.Equal(t, 0, timers.Len())
}

func TestTimersInsertionOrderTieBreak(t *testing.T) {
	timers := New()
	when := time.Now().Add(-time.Millisecond)

	timers.AddDeadline(10, when)
	timers.AddDeadline(20, when)
	timers.AddDeadline(30, when)

	var events event.Buffer
	require.NoError(t, timers.Poll(&events))

	assert.Equal(t, event.Buffer{
		{ID: 10, Readiness: event.Timer},
		{ID: 20, Readiness: event.Timer},
		{ID: 30, Readiness: event.Timer},
	}, events)
}

func TestTimersNeverEarly(t *testing.T) {
	timers := New()
	timers.AddTimeout(1, time.Hour)

	var events event.Buffer
	require.NoError(t, timers.Poll(&events))
	assert.Empty(t, events)
	assert.Equal(t, 1, timers.Len())
}

func TestTimersNextDeadline(t *testing.T) {
	timers := New()

	_, ok := timers.NextDeadline()
	assert.False(t, ok)

	later := time.Now().Add(2 * time.Hour)
	earlier := time.Now().Add(time.Hour)
	timers.AddDeadline(1, later)
	timers.AddDeadline(2, earlier)

	deadline, ok := timers.NextDeadline()
	require.True(t, ok)
	assert.True(t, deadline.Equal(earlier))

	// Peeking must not remove the deadline.
	assert.Equal(t, 2, timers.Len())
}

func TestTimersRemoveDeadline(t *testing.T) {
	timers := New()
	later := time.Now().Add(2 * time.Hour)
	timers.AddDeadline(1, time.Now().Add(time.Hour))
	timers.AddDeadline(1, later)

	// Two deadlines share the id: the earliest-scheduled one is removed.
	timers.RemoveDeadline(1)
	require.Equal(t, 1, timers.Len())
	deadline, ok := timers.NextDeadline()
	require.True(t, ok)
	assert.True(t, deadline.Equal(later))

	timers.RemoveDeadline(1)
	assert.Equal(t, 0, timers.Len())

	// Removing from an empty set is a no-op.
	timers.RemoveDeadline(1)
}

func TestTimersSameIdTwice(t *testing.T) {
	timers := New()
	now := time.Now()

	// The same id may be scheduled multiple times, each deadline fires
	// independently.
	timers.AddDeadline(1, now.Add(-10*time.Millisecond))
	timers.AddDeadline(1, now.Add(-5*time.Millisecond))

	var events event.Buffer
	require.NoError(t, timers.Poll(&events))
	assert.Equal(t, event.Buffer{
		{ID: 1, Readiness: event.Timer},
		{ID: 1, Readiness: event.Timer},
	}, events)
}

func TestTimersRespectSinkCapacity(t *testing.T) {
	timers := New()
	now := time.Now()
	timers.AddDeadline(1, now.Add(-3*time.Millisecond))
	timers.AddDeadline(2, now.Add(-2*time.Millisecond))
	timers.AddDeadline(3, now.Add(-1*time.Millisecond))

	events := event.NewFixedBuffer(2)
	require.NoError(t, timers.Poll(events))

	// Only the earliest two fit, the last one stays pending.
	assert.Equal(t, []event.Event{
		{ID: 1, Readiness: event.Timer},
		{ID: 2, Readiness: event.Timer},
	}, events.Events())
	require.Equal(t, 1, timers.Len())

	events.Reset()
	require.NoError(t, timers.Poll(events))
	assert.Equal(t, []event.Event{
		{ID: 3, Readiness: event.Timer},
	}, events.Events())
}

func TestNewCapacity(t *testing.T) {
	timers := NewCapacity(8)
	assert.Equal(t, 0, timers.Len())

	timers.AddDeadline(1, time.Now().Add(-time.Millisecond))
	var events event.Buffer
	require.NoError(t, timers.Poll(&events))
	assert.Len(t, events, 1)
}
