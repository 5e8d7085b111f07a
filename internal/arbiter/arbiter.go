// Package arbiter runs the master's turn loop: it multiplexes the participants'
// move channels, picks the next mover round-robin, applies the proposal under
// writer access and notifies the observer.
package arbiter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/rocketscienceinc/gridcapture/internal/engine"
	"github.com/rocketscienceinc/gridcapture/internal/entity"
	"github.com/rocketscienceinc/gridcapture/internal/gamestate"
	"github.com/rocketscienceinc/gridcapture/internal/gate"
)

var ErrChannelCount = errors.New("channel count does not match player count")

// DelayPolicy decides whether observer render time counts against the turn delay.
type DelayPolicy string

const (
	// DelayExcludesRender waits for the acknowledgement and then sleeps the full delay.
	DelayExcludesRender DelayPolicy = "exclude-render"
	// DelayIncludesRender sleeps only what is left of the delay once the observer acknowledged.
	DelayIncludesRender DelayPolicy = "include-render"
)

func (that DelayPolicy) IsValid() bool {
	return that == DelayExcludesRender || that == DelayIncludesRender
}

type Options struct {
	// Timeout is the rolling window for valid moves. It restarts on every valid move.
	Timeout time.Duration
	Delay   time.Duration
	Policy  DelayPolicy
}

// Outcome describes how the loop ended.
type Outcome struct {
	Reason       string
	Processed    int
	Disconnected []bool
}

type proposal struct {
	dir entity.Direction
	err error
}

type slot struct {
	proposals    chan proposal
	disconnected bool
	blocked      bool
}

type Arbiter struct {
	logger   *slog.Logger
	state    *gamestate.State
	gate     *gate.Gate
	notifier *gate.Notifier
	channels []io.Reader
	opts     Options
}

// New - builds an arbiter. notifier may be nil when no observer runs. channels[i]
// carries the proposals of participant i.
func New(
	logger *slog.Logger,
	state *gamestate.State,
	rw *gate.Gate,
	notifier *gate.Notifier,
	channels []io.Reader,
	opts Options,
) (*Arbiter, error) {
	if len(channels) != state.PlayerCount() {
		return nil, fmt.Errorf("%w: %d channels, %d players", ErrChannelCount, len(channels), state.PlayerCount())
	}

	if !opts.Policy.IsValid() {
		opts.Policy = DelayExcludesRender
	}

	return &Arbiter{
		logger:   logger.With("component", "arbiter"),
		state:    state,
		gate:     rw,
		notifier: notifier,
		channels: channels,
		opts:     opts,
	}, nil
}

// Run - drives the game until every participant is blocked or gone, the rolling
// timeout elapses, or ctx is cancelled. The finished flag is raised in every case.
func (that *Arbiter) Run(ctx context.Context) (Outcome, error) {
	log := that.logger.With("method", "Run")

	done := make(chan struct{})
	defer close(done)

	ready := make(chan struct{}, 1)
	slots := make([]*slot, len(that.channels))
	for i, channel := range that.channels {
		slots[i] = &slot{proposals: make(chan proposal, 1)}
		go readProposals(channel, slots[i].proposals, ready, done)
	}

	outcome := Outcome{Disconnected: make([]bool, len(slots))}

	that.publish(ctx)

	timer := time.NewTimer(that.opts.Timeout)
	defer timer.Stop()

	last := len(slots) - 1

	for {
		if !that.anyActive(slots) {
			outcome.Reason = entity.ReasonNoActivePlayers
			break
		}

		id, next, ok := that.scan(slots, last)
		if !ok {
			select {
			case <-ready:
				continue
			case <-timer.C:
				outcome.Reason = entity.ReasonTimeout
			case <-ctx.Done():
				outcome.Reason = entity.ReasonInterrupted
			}

			break
		}

		if next.err != nil {
			slots[id].disconnected = true
			log.Info("player disconnected", "player", id, "error", next.err)
			continue
		}

		var moved, allBlocked bool
		err := that.gate.Write(ctx, func() {
			moved = engine.TryMove(that.state, id, next.dir)
			allBlocked = engine.RecomputeBlocking(that.state)
		})
		if err != nil {
			outcome.Reason = entity.ReasonInterrupted
			break
		}

		last = id
		outcome.Processed++
		log.Debug("proposal processed", "player", id, "direction", next.dir.String(), "valid", moved)

		if moved {
			timer.Reset(that.opts.Timeout)
		}

		for i, s := range slots {
			if !s.blocked && that.state.IsBlocked(i) {
				s.blocked = true
				log.Info("player blocked", "player", i, "score", that.state.Player(i).Score)
			}
		}

		if allBlocked {
			outcome.Reason = entity.ReasonAllBlocked
			break
		}

		if err = that.pace(ctx); err != nil {
			outcome.Reason = entity.ReasonInterrupted
			break
		}
	}

	that.state.Finish()
	log.Info("game finished", "reason", outcome.Reason, "processed", outcome.Processed)

	for i, s := range slots {
		outcome.Disconnected[i] = s.disconnected
	}

	// The finished version is published even after interruption so the observer exits.
	that.publish(context.WithoutCancel(ctx))

	if outcome.Reason == entity.ReasonInterrupted {
		return outcome, ctx.Err()
	}

	return outcome, nil
}

// readProposals forwards single-byte proposals from channel until it fails.
func readProposals(channel io.Reader, out chan<- proposal, ready chan<- struct{}, done <-chan struct{}) {
	buf := make([]byte, 1)

	for {
		next := proposal{}
		if _, err := io.ReadFull(channel, buf); err != nil {
			next.err = err
		} else {
			next.dir = entity.Direction(buf[0])
		}

		select {
		case out <- next:
		case <-done:
			return
		}

		select {
		case ready <- struct{}{}:
		default:
		}

		if next.err != nil {
			return
		}
	}
}

func (that *Arbiter) active(id int, s *slot) bool {
	return !s.disconnected && !that.state.IsBlocked(id)
}

func (that *Arbiter) anyActive(slots []*slot) bool {
	for id, s := range slots {
		if that.active(id, s) {
			return true
		}
	}

	return false
}

// scan takes the first pending proposal of an active participant, starting just
// after last.
func (that *Arbiter) scan(slots []*slot, last int) (int, proposal, bool) {
	for step := 1; step <= len(slots); step++ {
		id := (last + step) % len(slots)
		if !that.active(id, slots[id]) {
			continue
		}

		select {
		case next := <-slots[id].proposals:
			return id, next, true
		default:
		}
	}

	return 0, proposal{}, false
}

// publish raises the change notification and waits for its acknowledgement. An
// observer that does not acknowledge within the timeout is dropped.
func (that *Arbiter) publish(ctx context.Context) {
	if that.notifier == nil {
		return
	}

	waitCtx, cancel := context.WithTimeout(ctx, that.opts.Timeout)
	defer cancel()

	err := that.notifier.Signal(waitCtx)
	if err == nil {
		err = that.notifier.AwaitAck(waitCtx)
	}

	if err != nil && ctx.Err() == nil {
		that.dropObserver(err)
	}
}

// pace publishes the new version and applies the inter-turn delay according to
// the delay policy.
func (that *Arbiter) pace(ctx context.Context) error {
	start := time.Now()

	that.publish(ctx)

	delay := that.opts.Delay
	if that.opts.Policy == DelayIncludesRender {
		delay -= time.Since(start)
	}

	return sleep(ctx, delay)
}

func (that *Arbiter) dropObserver(err error) {
	that.logger.Warn("observer stopped acknowledging, continuing without it", "error", err)
	that.notifier = nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
