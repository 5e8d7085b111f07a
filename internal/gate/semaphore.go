// Package gate implements the access discipline around the shared game state:
// counting semaphores, a readers-writer gate with an anti-starvation turnstile
// and the one-slot change notification between the arbiter and the observer.
package gate

import (
	"context"
	"sync/atomic"
	"time"
)

// Semaphore is a counting semaphore.
type Semaphore interface {
	// Wait blocks until a unit is available or ctx is done.
	Wait(ctx context.Context) error
	// TryWait takes a unit only if one is available right now.
	TryWait() bool
	Post()
}

type chanSemaphore struct {
	units chan struct{}
}

// NewLocalSemaphore - returns a semaphore usable between goroutines of one process.
func NewLocalSemaphore(initial, limit int) Semaphore {
	that := &chanSemaphore{units: make(chan struct{}, limit)}
	for range initial {
		that.units <- struct{}{}
	}

	return that
}

func (that *chanSemaphore) Wait(ctx context.Context) error {
	select {
	case <-that.units:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (that *chanSemaphore) TryWait() bool {
	select {
	case <-that.units:
		return true
	default:
		return false
	}
}

func (that *chanSemaphore) Post() {
	that.units <- struct{}{}
}

// waitSlice bounds one futex sleep so that context cancellation is noticed.
const waitSlice = 50 * time.Millisecond

type futexSemaphore struct {
	value *uint32
}

// NewSharedSemaphore - returns a semaphore whose counter is the 32-bit word at value.
// The word may live in memory mapped by several processes.
func NewSharedSemaphore(value *uint32) Semaphore {
	return &futexSemaphore{value: value}
}

func (that *futexSemaphore) TryWait() bool {
	for {
		current := atomic.LoadUint32(that.value)
		if current == 0 {
			return false
		}

		if atomic.CompareAndSwapUint32(that.value, current, current-1) {
			return true
		}
	}
}

func (that *futexSemaphore) Wait(ctx context.Context) error {
	for {
		if that.TryWait() {
			return nil
		}

		if err := ctx.Err(); err != nil {
			return err
		}

		timeout := waitSlice
		if deadline, ok := ctx.Deadline(); ok {
			remaining := time.Until(deadline)
			if remaining <= 0 {
				return context.DeadlineExceeded
			}
			timeout = min(timeout, remaining)
		}

		// Sleeps only while the counter is still zero, so a Post racing with us is not lost.
		if err := futexWait(that.value, 0, timeout); err != nil {
			return err
		}
	}
}

func (that *futexSemaphore) Post() {
	atomic.AddUint32(that.value, 1)
	futexWake(that.value, 1)
}
