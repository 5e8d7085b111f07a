// Package agent implements the player side of the game: it watches the shared
// state under reader access and proposes one direction at a time on its channel.
package agent

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/rocketscienceinc/gridcapture/internal/apperror"
	"github.com/rocketscienceinc/gridcapture/internal/gamestate"
	"github.com/rocketscienceinc/gridcapture/internal/gate"
)

var errChannelClosed = errors.New("move channel closed by the master")

// Channel is the outbound move channel. *os.File satisfies it.
type Channel interface {
	io.Writer
	Fd() uintptr
}

type Player struct {
	logger  *slog.Logger
	state   *gamestate.State
	gate    *gate.Gate
	out     Channel
	policy  Policy
	limiter *rate.Limiter
	pid     int
}

// NewPlayer - pid identifies the slot this process plays. interval paces the
// inspections of the shared state.
func NewPlayer(
	logger *slog.Logger,
	state *gamestate.State,
	rw *gate.Gate,
	out Channel,
	policy Policy,
	pid int,
	interval time.Duration,
) *Player {
	return &Player{
		logger:  logger.With("component", "player", "pid", pid),
		state:   state,
		gate:    rw,
		out:     out,
		policy:  policy,
		limiter: rate.NewLimiter(rate.Every(interval), 1),
		pid:     pid,
	}
}

// Run - plays until the game finishes, the player gets blocked or the master
// closes the channel.
func (that *Player) Run(ctx context.Context) error {
	log := that.logger.With("method", "Run")

	var sent uint32

	for {
		if err := that.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("failed to wait for next turn: %w", err)
		}

		var snapshot gamestate.Snapshot
		if err := that.gate.Read(ctx, func() { snapshot = that.state.Snapshot() }); err != nil {
			return fmt.Errorf("failed to read state: %w", err)
		}

		if snapshot.Finished {
			log.Debug("game finished")
			return nil
		}

		id, ok := snapshot.PlayerByPID(that.pid)
		if !ok {
			return fmt.Errorf("%w: pid %d", apperror.ErrPlayerNotFound, that.pid)
		}

		me := snapshot.Players[id]
		if me.Blocked {
			log.Debug("blocked", "score", me.Score)
			return nil
		}

		// The previous proposal is still queued at the master.
		if me.Requests() != sent {
			continue
		}

		ready, err := writable(that.out.Fd())
		if errors.Is(err, errChannelClosed) {
			return nil
		}

		if err != nil {
			return fmt.Errorf("failed to poll move channel: %w", err)
		}

		if !ready {
			continue
		}

		dir := that.policy.Next(&snapshot, id)
		if _, err = that.out.Write([]byte{byte(dir)}); err != nil {
			return fmt.Errorf("failed to send proposal: %w", err)
		}
		sent++
	}
}
