//go:build !linux

package gate

import (
	"sync/atomic"
	"time"
)

const pollInterval = time.Millisecond

// futexWait polls the word where no futex syscall exists.
func futexWait(addr *uint32, val uint32, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for atomic.LoadUint32(addr) == val && time.Now().Before(deadline) {
		time.Sleep(pollInterval)
	}

	return nil
}

func futexWake(_ *uint32, _ int) {}
