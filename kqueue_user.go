//go:build darwin || freebsd

package gaea

import "golang.org/x/sys/unix"

// These platforms support kqueue user events (EVFILT_USER), which back the
// awakener.
const (
	hasUserFilter = true
	evfiltUser    = unix.EVFILT_USER
)
