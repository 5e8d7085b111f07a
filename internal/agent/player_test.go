//go:build linux || darwin

package agent

import (
	"context"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/rocketscienceinc/gridcapture/internal/apperror"
	"github.com/rocketscienceinc/gridcapture/internal/engine"
	"github.com/rocketscienceinc/gridcapture/internal/entity"
	"github.com/rocketscienceinc/gridcapture/internal/gamestate"
	"github.com/rocketscienceinc/gridcapture/internal/gate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPID = 4242

type fixture struct {
	state  *gamestate.State
	gate   *gate.Gate
	reader *os.File
	player *Player
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	state, err := gamestate.New(gamestate.Options{Width: 10, Height: 10, Paths: []string{"a", "b"}, Seed: 7})
	require.NoError(t, err)
	state.SetPID(0, 1)
	state.SetPID(1, testPID)

	reader, writer, err := os.Pipe()
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = reader.Close()
		_ = writer.Close()
	})

	rw := gate.NewLocal()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return &fixture{
		state:  state,
		gate:   rw,
		reader: reader,
		player: NewPlayer(logger, state, rw, writer, Greedy{}, testPID, time.Millisecond),
	}
}

func (that *fixture) start() <-chan error {
	errCh := make(chan error, 1)
	go func() { errCh <- that.player.Run(context.Background()) }()

	return errCh
}

func (that *fixture) readProposal(t *testing.T, within time.Duration) (entity.Direction, bool) {
	t.Helper()

	require.NoError(t, that.reader.SetReadDeadline(time.Now().Add(within)))

	buf := make([]byte, 1)
	if _, err := that.reader.Read(buf); err != nil {
		require.ErrorIs(t, err, os.ErrDeadlineExceeded)
		return 0, false
	}

	return entity.Direction(buf[0]), true
}

func TestPlayer_Run(t *testing.T) {
	t.Run("proposes again only after the previous proposal was processed", func(t *testing.T) {
		// Given: a running player
		f := newFixture(t)
		errCh := f.start()

		// When: it sent its first proposal
		dir, ok := f.readProposal(t, 2*time.Second)
		require.True(t, ok)

		// Then: nothing follows until the master processes it
		_, ok = f.readProposal(t, 100*time.Millisecond)
		assert.False(t, ok)

		require.NoError(t, f.gate.Write(context.Background(), func() { engine.TryMove(f.state, 1, dir) }))
		_, ok = f.readProposal(t, 2*time.Second)
		assert.True(t, ok)

		// When: the game finishes
		f.state.Finish()

		// Then: the player exits cleanly
		select {
		case err := <-errCh:
			require.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Fatal("player did not stop")
		}
	})

	t.Run("greedy proposals are always valid", func(t *testing.T) {
		f := newFixture(t)
		errCh := f.start()

		for range 5 {
			dir, ok := f.readProposal(t, 2*time.Second)
			require.True(t, ok)

			var moved bool
			require.NoError(t, f.gate.Write(context.Background(), func() { moved = engine.TryMove(f.state, 1, dir) }))
			assert.True(t, moved, dir.String())
		}

		f.state.Finish()
		require.NoError(t, <-errCh)
		assert.Equal(t, uint32(5), f.state.Player(1).ValidMoves)
	})

	t.Run("blocked player stops", func(t *testing.T) {
		f := newFixture(t)
		f.state.MarkBlocked(1)

		require.NoError(t, <-f.start())
	})

	t.Run("player without a slot fails", func(t *testing.T) {
		f := newFixture(t)
		f.state.SetPID(1, 1)

		require.ErrorIs(t, <-f.start(), apperror.ErrPlayerNotFound)
	})

	t.Run("closed channel stops the player", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.reader.Close())

		require.NoError(t, <-f.start())
	})

	t.Run("cancellation", func(t *testing.T) {
		f := newFixture(t)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		require.ErrorIs(t, f.player.Run(ctx), context.Canceled)
	})
}
