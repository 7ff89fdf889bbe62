//go:build linux || freebsd || netbsd || openbsd

package gaea

import (
	"os"

	"golang.org/x/sys/unix"
)

func sysPipe() ([2]int, error) {
	var fds [2]int
	if err := unix.Pipe2(fds[:], unix.O_NONBLOCK|unix.O_CLOEXEC); err != nil {
		return fds, os.NewSyscallError("pipe2", err)
	}
	return fds, nil
}
