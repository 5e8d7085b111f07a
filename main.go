package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	app "github.com/rocketscienceinc/gridcapture/internal"
	"github.com/rocketscienceinc/gridcapture/internal/config"
)

// main - is the entry point of the master. It loads the configuration, applies
// the command line on top of it and runs one game.
func main() {
	defer func() {
		if err := recover(); err != nil {
			fmt.Fprintf(os.Stderr, "recovered from panic: %v\n", err)
			os.Exit(1)
		}
	}()

	conf := initConfig(os.Args[1:])
	logger := initLogger(conf.LogLevel)

	if err := app.RunApp(logger, conf); err != nil {
		panic(fmt.Errorf("app run failed: %w", err))
	}
}

// initialize config. Flags that were set override the file and the environment.
func initConfig(args []string) *config.Config {
	flags := flag.NewFlagSet("gridcapture", flag.ExitOnError)
	flags.Usage = func() {
		fmt.Fprintf(flags.Output(), "usage: %s [-config file] [-w width] [-h height] [-d delay] [-t timeout] [-s seed] [-v view] [-p] player1 [player2 ...]\n", os.Args[0])
		flags.PrintDefaults()
	}

	path := flags.String("config", "./config.yml", "config file, the environment is used when it does not exist")
	width := flags.Int("w", 0, "board width")
	height := flags.Int("h", 0, "board height")
	delay := flags.Int("d", 0, "milliseconds to wait after every state change")
	timeout := flags.Int("t", 0, "seconds without a valid move before the game ends")
	seed := flags.Int64("s", 0, "board seed")
	view := flags.String("v", "", "view binary")
	flags.Bool("p", false, "marks the start of the player list")

	_ = flags.Parse(args)

	conf := config.MustLoad(*path)

	flags.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "w":
			conf.Board.Width = *width
		case "h":
			conf.Board.Height = *height
		case "d":
			conf.Turn.Delay = time.Duration(*delay) * time.Millisecond
		case "t":
			conf.Turn.Timeout = time.Duration(*timeout) * time.Second
		case "s":
			conf.Board.Seed = *seed
		case "v":
			conf.View = *view
		}
	})

	if players := flags.Args(); len(players) > 0 {
		conf.Players = players
	}

	return conf
}

// initialize logger. Standard output belongs to the view, logs go to stderr.
func initLogger(logLevel string) *slog.Logger {
	var level slog.Level

	switch logLevel {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
