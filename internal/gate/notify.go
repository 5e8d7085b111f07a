package gate

import (
	"context"
	"fmt"
)

// Notifier is the arbiter's end of the change notification pair. It never raises
// a signal while the previous one is unacknowledged.
type Notifier struct {
	changes Semaphore
	acks    Semaphore
	pending bool
}

// Listener is the observer's end of the change notification pair.
type Listener struct {
	changes Semaphore
	acks    Semaphore
}

// NewNotification - pairs a notifier and a listener over two semaphores starting at 0.
func NewNotification(changes, acks Semaphore) (*Notifier, *Listener) {
	return &Notifier{changes: changes, acks: acks}, &Listener{changes: changes, acks: acks}
}

// NewLocalNotification - returns a pair for goroutines of a single process.
func NewLocalNotification() (*Notifier, *Listener) {
	return NewNotification(NewLocalSemaphore(0, 1), NewLocalSemaphore(0, 1))
}

// Signal - tells the observer a new version is available, first consuming the
// acknowledgement of the previous signal if it is still outstanding.
func (that *Notifier) Signal(ctx context.Context) error {
	if err := that.AwaitAck(ctx); err != nil {
		return err
	}

	that.changes.Post()
	that.pending = true

	return nil
}

// AwaitAck - blocks until the outstanding signal is acknowledged. Returns at once
// when nothing is outstanding.
func (that *Notifier) AwaitAck(ctx context.Context) error {
	if !that.pending {
		return nil
	}

	if err := that.acks.Wait(ctx); err != nil {
		return fmt.Errorf("failed to wait for observer acknowledgement: %w", err)
	}
	that.pending = false

	return nil
}

// Pending - reports whether a signal awaits its acknowledgement.
func (that *Notifier) Pending() bool {
	return that.pending
}

// AwaitChange - blocks until the arbiter signals a new version.
func (that *Listener) AwaitChange(ctx context.Context) error {
	if err := that.changes.Wait(ctx); err != nil {
		return fmt.Errorf("failed to wait for change: %w", err)
	}

	return nil
}

// Ack - tells the arbiter the signalled version was consumed.
func (that *Listener) Ack() {
	that.acks.Post()
}
