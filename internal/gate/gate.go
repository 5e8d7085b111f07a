package gate

import (
	"context"
	"fmt"
	"sync/atomic"
)

// Gate is a readers-writer gate. Readers share access with each other but never
// with the writer; a queued writer closes the turnstile so that readers arriving
// after it wait behind it, and the writer releases the turnstile as soon as it
// owns the lock so readers queued behind it are not held off for more than one
// write.
//
// The counter word is touched only while holding readerMutex.
type Gate struct {
	turnstile   Semaphore
	writer      Semaphore
	readerMutex Semaphore
	readers     *uint32
}

// New - builds a gate over existing primitives. writer must start at 1 unless the
// creator keeps write access, readerMutex and turnstile at 1.
func New(turnstile, writer, readerMutex Semaphore, readers *uint32) *Gate {
	return &Gate{
		turnstile:   turnstile,
		writer:      writer,
		readerMutex: readerMutex,
		readers:     readers,
	}
}

// NewLocal - returns a gate for goroutines of a single process.
func NewLocal() *Gate {
	return New(
		NewLocalSemaphore(1, 1),
		NewLocalSemaphore(1, 1),
		NewLocalSemaphore(1, 1),
		new(uint32),
	)
}

// AcquireWrite - takes exclusive access.
func (that *Gate) AcquireWrite(ctx context.Context) error {
	if err := that.turnstile.Wait(ctx); err != nil {
		return fmt.Errorf("failed to pass turnstile: %w", err)
	}

	if err := that.writer.Wait(ctx); err != nil {
		that.turnstile.Post()
		return fmt.Errorf("failed to take writer lock: %w", err)
	}

	that.turnstile.Post()

	return nil
}

// ReleaseWrite - gives exclusive access back.
func (that *Gate) ReleaseWrite() {
	that.writer.Post()
}

// AcquireRead - takes shared access. The first reader in takes the writer lock on
// behalf of all readers.
func (that *Gate) AcquireRead(ctx context.Context) error {
	if err := that.turnstile.Wait(ctx); err != nil {
		return fmt.Errorf("failed to pass turnstile: %w", err)
	}
	that.turnstile.Post()

	if err := that.readerMutex.Wait(ctx); err != nil {
		return fmt.Errorf("failed to take reader mutex: %w", err)
	}
	defer that.readerMutex.Post()

	if atomic.AddUint32(that.readers, 1) == 1 {
		if err := that.writer.Wait(ctx); err != nil {
			atomic.AddUint32(that.readers, ^uint32(0))
			return fmt.Errorf("failed to take writer lock for readers: %w", err)
		}
	}

	return nil
}

// ReleaseRead - gives shared access back. The last reader out releases the writer lock.
func (that *Gate) ReleaseRead() {
	// Held only for a counter update, so this wait is not cancellable.
	_ = that.readerMutex.Wait(context.Background())
	defer that.readerMutex.Post()

	if atomic.AddUint32(that.readers, ^uint32(0)) == 0 {
		that.writer.Post()
	}
}

// Read - runs fn with shared access held.
func (that *Gate) Read(ctx context.Context, fn func()) error {
	if err := that.AcquireRead(ctx); err != nil {
		return err
	}
	defer that.ReleaseRead()

	fn()

	return nil
}

// Write - runs fn with exclusive access held.
func (that *Gate) Write(ctx context.Context, fn func()) error {
	if err := that.AcquireWrite(ctx); err != nil {
		return err
	}
	defer that.ReleaseWrite()

	fn()

	return nil
}

// Readers - returns the number of readers currently inside. Diagnostics only.
func (that *Gate) Readers() int {
	return int(atomic.LoadUint32(that.readers))
}
