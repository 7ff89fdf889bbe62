package event

import "strings"

// Ready is a set of readiness kinds. It describes which operations a handle
// is ready for, e.g. reading or writing, and is always a subset of what the
// registration asked for plus the error conditions the kernel reports
// unconditionally (Error and Hup).
type Ready uint8

const (
	// Readable means a read operation will not block.
	Readable Ready = 1 << iota
	// Writable means a write operation will not block.
	Writable
	// Error readiness; the handle is in an error state. The actual error
	// has to be retrieved from the handle itself.
	Error
	// Timer readiness, set on events produced by a deadline passing.
	Timer
	// Hup readiness; the other end of a connection or pipe was closed.
	Hup
)

// IsReadable returns true if the set includes readable readiness.
func (r Ready) IsReadable() bool { return r&Readable != 0 }

// IsWritable returns true if the set includes writable readiness.
func (r Ready) IsWritable() bool { return r&Writable != 0 }

// IsError returns true if the set includes error readiness.
func (r Ready) IsError() bool { return r&Error != 0 }

// IsTimer returns true if the set includes timer readiness.
func (r Ready) IsTimer() bool { return r&Timer != 0 }

// IsHup returns true if the set includes hup readiness.
func (r Ready) IsHup() bool { return r&Hup != 0 }

var readyNames = []struct {
	bit  Ready
	name string
}{
	{Readable, "READABLE"},
	{Writable, "WRITABLE"},
	{Error, "ERROR"},
	{Timer, "TIMER"},
	{Hup, "HUP"},
}

func (r Ready) String() string {
	if r == 0 {
		return "(empty)"
	}
	var names []string
	for _, rn := range readyNames {
		if r&rn.bit != 0 {
			names = append(names, rn.name)
		}
	}
	return strings.Join(names, "|")
}
