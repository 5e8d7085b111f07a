// Package view implements the observer: it renders one consistent snapshot for
// every change the arbiter announces.
package view

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/rocketscienceinc/gridcapture/internal/gamestate"
	"github.com/rocketscienceinc/gridcapture/internal/gate"
)

type Observer struct {
	logger   *slog.Logger
	state    *gamestate.State
	gate     *gate.Gate
	listener *gate.Listener
	renderer *Renderer
}

func NewObserver(
	logger *slog.Logger,
	state *gamestate.State,
	rw *gate.Gate,
	listener *gate.Listener,
	renderer *Renderer,
) *Observer {
	return &Observer{
		logger:   logger.With("component", "observer"),
		state:    state,
		gate:     rw,
		listener: listener,
		renderer: renderer,
	}
}

// Run - renders every announced version until it renders a finished one.
func (that *Observer) Run(ctx context.Context) error {
	log := that.logger.With("method", "Run")

	for {
		if err := that.listener.AwaitChange(ctx); err != nil {
			return err
		}

		var snapshot gamestate.Snapshot
		if err := that.gate.Read(ctx, func() { snapshot = that.state.Snapshot() }); err != nil {
			return fmt.Errorf("failed to read state: %w", err)
		}

		err := that.renderer.Render(&snapshot)
		that.listener.Ack()

		if err != nil {
			return err
		}

		if snapshot.Finished {
			log.Debug("game finished")
			return nil
		}
	}
}
