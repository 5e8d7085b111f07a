package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/rocketscienceinc/gridcapture/internal/agent"
	"github.com/rocketscienceinc/gridcapture/internal/config"
	"github.com/rocketscienceinc/gridcapture/internal/gamestate"
	"github.com/rocketscienceinc/gridcapture/internal/gate"
	"github.com/rocketscienceinc/gridcapture/internal/shm"
)

// main - is the entry point of a player. The master starts it as "player <width> <height>"
// with standard output connected to its move channel.
func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "player: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	width, height, err := parseSize(os.Args[1:])
	if err != nil {
		return err
	}

	conf, err := config.LoadAgent()
	if err != nil {
		return err
	}

	logger := initLogger(conf.LogLevel)

	// A write racing the master closing the channel must fail with EPIPE instead of killing us.
	signal.Notify(make(chan os.Signal, 1), syscall.SIGPIPE)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stateSeg, err := shm.Open(conf.SharedMemory.State, gamestate.Size(width, height), false)
	if err != nil {
		return err
	}
	defer stateSeg.Close()

	syncSeg, err := shm.Open(conf.SharedMemory.Sync, gate.SharedSize, true)
	if err != nil {
		return err
	}
	defer syncSeg.Close()

	state, err := gamestate.Attach(stateSeg.Bytes(), width, height)
	if err != nil {
		return err
	}

	shared, err := gate.AttachShared(syncSeg.Bytes())
	if err != nil {
		return err
	}

	pid := os.Getpid()

	policy, err := agent.NewPolicy(conf.Policy, time.Now().UnixNano()^int64(pid))
	if err != nil {
		return err
	}

	player := agent.NewPlayer(logger, state, shared.Gate(), os.Stdout, policy, pid, conf.PollInterval)
	if err = player.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	return nil
}

func parseSize(args []string) (int, int, error) {
	if len(args) != 2 {
		return 0, 0, fmt.Errorf("usage: player <width> <height>, got %d arguments", len(args))
	}

	width, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid width %q: %w", args[0], err)
	}

	height, err := strconv.Atoi(args[1])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid height %q: %w", args[1], err)
	}

	return width, height, nil
}

func initLogger(logLevel string) *slog.Logger {
	var level slog.Level
	_ = level.UnmarshalText([]byte(logLevel))

	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})).With("pid", os.Getpid())
}
