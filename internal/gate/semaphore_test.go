package gate

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func semaphores(initial int) map[string]Semaphore {
	word := uint32(initial)

	return map[string]Semaphore{
		"local":  NewLocalSemaphore(initial, 8),
		"shared": NewSharedSemaphore(&word),
	}
}

func TestSemaphore_Counting(t *testing.T) {
	for name, sem := range semaphores(2) {
		t.Run(name, func(t *testing.T) {
			// Given: a semaphore holding two units
			ctx := context.Background()

			// When: both are taken
			require.NoError(t, sem.Wait(ctx))
			require.True(t, sem.TryWait())

			// Then: no unit is left until one is posted
			assert.False(t, sem.TryWait())
			sem.Post()
			assert.True(t, sem.TryWait())
		})
	}
}

func TestSemaphore_WaitHonoursContext(t *testing.T) {
	for name, sem := range semaphores(0) {
		t.Run(name, func(t *testing.T) {
			// Given: an empty semaphore and a short deadline
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
			defer cancel()

			// When: waiting on it
			err := sem.Wait(ctx)

			// Then: the deadline error is returned
			require.ErrorIs(t, err, context.DeadlineExceeded)
		})
	}
}

func TestSemaphore_PostWakesWaiter(t *testing.T) {
	for name, sem := range semaphores(0) {
		t.Run(name, func(t *testing.T) {
			// Given: a goroutine blocked on an empty semaphore
			done := make(chan error, 1)
			go func() {
				done <- sem.Wait(context.Background())
			}()

			// When: a unit is posted
			time.Sleep(10 * time.Millisecond)
			sem.Post()

			// Then: the waiter returns
			select {
			case err := <-done:
				require.NoError(t, err)
			case <-time.After(2 * time.Second):
				t.Fatal("waiter was not woken")
			}
		})
	}
}
