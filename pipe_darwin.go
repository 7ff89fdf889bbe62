//go:build darwin

package gaea

import (
	"os"

	"golang.org/x/sys/unix"
)

// Darwin has no pipe2, the flags are applied after creation.
func sysPipe() ([2]int, error) {
	var fds [2]int
	if err := unix.Pipe(fds[:]); err != nil {
		return fds, os.NewSyscallError("pipe", err)
	}
	for _, fd := range fds {
		if err := unix.SetNonblock(fd, true); err != nil {
			unix.Close(fds[0])
			unix.Close(fds[1])
			return fds, os.NewSyscallError("fcntl", err)
		}
		unix.CloseOnExec(fd)
	}
	return fds, nil
}
