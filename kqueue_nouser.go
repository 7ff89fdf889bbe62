//go:build netbsd || openbsd

package gaea

// No kqueue user event support; the awakener uses a pipe instead.
const (
	hasUserFilter = false
	evfiltUser    = 0
)
