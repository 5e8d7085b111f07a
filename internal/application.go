package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/rocketscienceinc/gridcapture/internal/arbiter"
	"github.com/rocketscienceinc/gridcapture/internal/config"
	"github.com/rocketscienceinc/gridcapture/internal/entity"
	"github.com/rocketscienceinc/gridcapture/internal/gamestate"
	"github.com/rocketscienceinc/gridcapture/internal/gate"
	"github.com/rocketscienceinc/gridcapture/internal/process"
	"github.com/rocketscienceinc/gridcapture/internal/repository"
	"github.com/rocketscienceinc/gridcapture/internal/repository/storage"
	"github.com/rocketscienceinc/gridcapture/internal/shm"
	"github.com/rocketscienceinc/gridcapture/internal/view"
)

var ErrReportWithoutID = errors.New("report has no game id")

const (
	statePerm = 0o644
	syncPerm  = 0o666

	exportTimeout = 5 * time.Second
)

// RunApp - runs one game: sets up shared memory, spawns the agents, arbitrates
// turns, reaps the agents and reports the standings.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigs)
	go func() {
		select {
		case sig := <-sigs:
			log.Info("Received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	if err := conf.Validate(); err != nil {
		return err
	}

	report, err := NewGame(logger, conf, os.Stdout).Play(ctx)
	if err != nil {
		return err
	}

	exportReport(log, conf, report)

	return nil
}

// Game is one match over freshly created shared memory segments.
type Game struct {
	id     string
	logger *slog.Logger
	conf   *config.Config
	out    io.Writer
}

// NewGame - out receives the final standings table.
func NewGame(logger *slog.Logger, conf *config.Config, out io.Writer) *Game {
	id := uuid.NewString()

	return &Game{
		id:     id,
		logger: logger.With("game", id),
		conf:   conf,
		out:    out,
	}
}

// Play - runs the match to completion. Setup failures are returned before any
// agent is spawned; an interruption still produces a report.
func (that *Game) Play(ctx context.Context) (*entity.Report, error) {
	log := that.logger.With("method", "Play")

	seed := that.conf.Board.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	width, height := that.conf.Board.Width, that.conf.Board.Height

	stateSeg, err := shm.Create(that.conf.SharedMemory.State, gamestate.Size(width, height), statePerm)
	if err != nil {
		return nil, fmt.Errorf("failed to create state segment: %w", err)
	}
	defer release(log, stateSeg)

	state, err := gamestate.Init(stateSeg.Bytes(), gamestate.Options{
		Width:  width,
		Height: height,
		Paths:  that.conf.Players,
		Seed:   seed,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to init state: %w", err)
	}

	syncSeg, err := shm.Create(that.conf.SharedMemory.Sync, gate.SharedSize, syncPerm)
	if err != nil {
		return nil, fmt.Errorf("failed to create sync segment: %w", err)
	}
	defer release(log, syncSeg)

	shared, err := gate.InitShared(syncSeg.Bytes())
	if err != nil {
		return nil, fmt.Errorf("failed to init sync segment: %w", err)
	}
	rw := shared.Gate()

	launcher := process.NewLauncher(that.logger, width, height, that.conf.Env()...)

	// Write access is held from InitShared until every pid is recorded.
	players, observer, err := that.spawn(launcher, state)
	if err != nil {
		state.Finish()
		rw.ReleaseWrite()
		that.reap(players, observer)

		return nil, err
	}
	rw.ReleaseWrite()

	var notifier *gate.Notifier
	if observer != nil {
		notifier, _ = shared.Notification()
	}

	channels := make([]io.Reader, len(players))
	for i, player := range players {
		channels[i] = player.Channel
	}

	arb, err := arbiter.New(that.logger, state, rw, notifier, channels, arbiter.Options{
		Timeout: that.conf.Turn.Timeout,
		Delay:   that.conf.Turn.Delay,
		Policy:  that.conf.Turn.DelayPolicy,
	})
	if err != nil {
		state.Finish()
		that.reap(players, observer)

		return nil, fmt.Errorf("failed to create arbiter: %w", err)
	}

	outcome, err := arb.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Error("arbiter stopped", "error", err)
	}

	exits := that.reap(players, observer)

	report := that.buildReport(state, outcome, exits, seed)
	if err = view.PrintReport(that.out, report); err != nil {
		log.Warn("could not print report", "error", err)
	}

	return report, nil
}

func (that *Game) spawn(launcher *process.Launcher, state *gamestate.State) ([]*process.Agent, *process.Agent, error) {
	players := make([]*process.Agent, 0, len(that.conf.Players))

	for i, path := range that.conf.Players {
		player, err := launcher.SpawnPlayer(path)
		if err != nil {
			return players, nil, fmt.Errorf("failed to spawn player %d: %w", i, err)
		}

		state.SetPID(i, player.PID)
		players = append(players, player)
	}

	if that.conf.View == "" {
		return players, nil, nil
	}

	observer, err := launcher.SpawnView(that.conf.View)
	if err != nil {
		return players, nil, fmt.Errorf("failed to spawn view: %w", err)
	}

	return players, observer, nil
}

// reap waits for every agent, killing those still alive after the grace period.
func (that *Game) reap(players []*process.Agent, observer *process.Agent) []entity.ExitStatus {
	log := that.logger.With("method", "reap")

	agents := players
	if observer != nil {
		agents = append(agents[:len(agents):len(agents)], observer)
	}

	exits := make([]entity.ExitStatus, len(agents))
	done := make(chan int, len(agents))
	for i, agent := range agents {
		go func() {
			exits[i] = agent.Wait()
			done <- i
		}()
	}

	grace := time.NewTimer(that.conf.Turn.Timeout)
	defer grace.Stop()

	for pending := len(agents); pending > 0; {
		select {
		case i := <-done:
			pending--
			log.Info("agent exited", "name", agents[i].Name, "pid", agents[i].PID, "code", exits[i].Code, "signal", exits[i].Signal)
		case <-grace.C:
			for _, agent := range agents {
				if err := agent.Kill(); err != nil {
					log.Warn("could not kill agent", "pid", agent.PID, "error", err)
				}
			}
		}
	}

	return exits[:len(players)]
}

func (that *Game) buildReport(state *gamestate.State, outcome arbiter.Outcome, exits []entity.ExitStatus, seed int64) *entity.Report {
	snapshot := state.Snapshot()

	report := &entity.Report{
		ID:         that.id,
		Width:      snapshot.Width,
		Height:     snapshot.Height,
		Seed:       seed,
		Reason:     outcome.Reason,
		FinishedAt: time.Now().UTC(),
		Players:    make([]entity.Result, len(snapshot.Players)),
	}

	for i, player := range snapshot.Players {
		report.Players[i] = entity.Result{
			Name:         player.Name,
			PID:          player.PID,
			Exit:         exits[i],
			Score:        player.Score,
			ValidMoves:   player.ValidMoves,
			InvalidMoves: player.InvalidMoves,
			Blocked:      player.Blocked,
			Disconnected: i < len(outcome.Disconnected) && outcome.Disconnected[i],
		}

		that.logger.Info("player result",
			"name", player.Name,
			"pid", player.PID,
			"exit", exits[i].Code,
			"score", player.Score,
			"valid", player.ValidMoves,
			"invalid", player.InvalidMoves)
	}

	return report
}

// exportReport hands the report to redis when configured. Failures are logged only.
func exportReport(log *slog.Logger, conf *config.Config, report *entity.Report) {
	if !conf.Redis.ReportsEnabled() {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), exportTimeout)
	defer cancel()

	redisStorage, err := storage.NewRedisStorage(ctx, conf.Redis.GetRedisAddr())
	if err != nil {
		log.Error("could not connect to redis storage", "error", err)
		return
	}

	defer func() {
		if err = redisStorage.Close(); err != nil {
			log.Error("could not close redis storage", "error", err)
		}
	}()

	reportRepo := repository.NewReportRepository(redisStorage.Connection, conf.Redis.ReportTTL)
	if err = publishReport(ctx, reportRepo, report); err != nil {
		log.Error("could not export report", "error", err)
		return
	}

	log.Info("report exported", "id", report.ID, "ttl", conf.Redis.ReportTTL)
}

type reportRepo interface {
	CreateOrUpdate(ctx context.Context, report *entity.Report) error
}

func publishReport(ctx context.Context, repo reportRepo, report *entity.Report) error {
	if report.ID == "" {
		return ErrReportWithoutID
	}

	if err := repo.CreateOrUpdate(ctx, report); err != nil {
		return fmt.Errorf("failed to store report %s: %w", report.ID, err)
	}

	return nil
}

func release(log *slog.Logger, segment *shm.Segment) {
	if err := segment.Close(); err != nil {
		log.Warn("could not close segment", "segment", segment.Name(), "error", err)
	}

	if err := segment.Unlink(); err != nil {
		log.Warn("could not unlink segment", "segment", segment.Name(), "error", err)
	}
}
