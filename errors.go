package gaea

import (
	"errors"
	"strings"
)

var (
	// ErrAlreadyRegistered is returned by OsQueue.Register when the file
	// descriptor already has a live registration on the queue. Use
	// Reregister to change the interests or options of an existing
	// registration.
	ErrAlreadyRegistered = errors.New("file descriptor is already registered")

	// ErrNotRegistered is returned by OsQueue.Reregister when the file
	// descriptor has no live registration on the queue.
	ErrNotRegistered = errors.New("file descriptor is not registered")

	// ErrNoInterests is returned when registering with an empty interests
	// set.
	ErrNoInterests = errors.New("interests must not be empty")
)

// MultiError bundles the errors of a multi-step operation, e.g. tearing
// down a resource that holds several file descriptors.
type MultiError []error

func (m MultiError) Error() string {
	var b strings.Builder
	b.WriteString("multiple errors:")
	for _, err := range m {
		b.WriteString("\n- " + err.Error())
	}
	return b.String()
}
