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

	"github.com/rocketscienceinc/gridcapture/internal/config"
	"github.com/rocketscienceinc/gridcapture/internal/gamestate"
	"github.com/rocketscienceinc/gridcapture/internal/gate"
	"github.com/rocketscienceinc/gridcapture/internal/shm"
	"github.com/rocketscienceinc/gridcapture/internal/view"
)

// main - is the entry point of the observer. The master starts it as "view <width> <height>".
func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "view: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	if len(os.Args) != 3 {
		return fmt.Errorf("usage: view <width> <height>, got %d arguments", len(os.Args)-1)
	}

	width, err := strconv.Atoi(os.Args[1])
	if err != nil {
		return fmt.Errorf("invalid width %q: %w", os.Args[1], err)
	}

	height, err := strconv.Atoi(os.Args[2])
	if err != nil {
		return fmt.Errorf("invalid height %q: %w", os.Args[2], err)
	}

	conf, err := config.LoadAgent()
	if err != nil {
		return err
	}

	var level slog.Level
	_ = level.UnmarshalText([]byte(conf.LogLevel))
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

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

	_, listener := shared.Notification()
	observer := view.NewObserver(logger, state, shared.Gate(), listener, view.NewRenderer(os.Stdout, conf.Color))

	if err = observer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	return nil
}
