//go:build linux || darwin

package agent

import (
	"errors"

	"golang.org/x/sys/unix"
)

// writable reports whether a write to fd would not block.
func writable(fd uintptr) (bool, error) {
	fds := []unix.PollFd{{Fd: int32(fd), Events: unix.POLLOUT}}

	for {
		n, err := unix.Poll(fds, 0)
		if errors.Is(err, unix.EINTR) {
			continue
		}

		if err != nil {
			return false, err
		}

		if fds[0].Revents&(unix.POLLERR|unix.POLLHUP) != 0 {
			return false, errChannelClosed
		}

		return n > 0 && fds[0].Revents&unix.POLLOUT != 0, nil
	}
}
