package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rocketscienceinc/gridcapture/internal/apperror"
	"github.com/rocketscienceinc/gridcapture/internal/arbiter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
log-level: debug
board:
  width: 20
  height: 15
  seed: 99
turn:
  delay: 50ms
  timeout: 3s
  delay-policy: include-render
view: ./bin/view
players:
  - ./bin/player
  - ./bin/player
redis:
  host: localhost
  report-ttl: 1h
`

func TestLoad(t *testing.T) {
	t.Run("yaml file", func(t *testing.T) {
		// Given: a config file
		path := filepath.Join(t.TempDir(), "config.yml")
		require.NoError(t, os.WriteFile(path, []byte(sample), 0o600))

		// When: it is loaded
		conf, err := Load(path)

		// Then: values and defaults are set
		require.NoError(t, err)
		assert.Equal(t, "debug", conf.LogLevel)
		assert.Equal(t, Board{Width: 20, Height: 15, Seed: 99}, conf.Board)
		assert.Equal(t, Turn{Delay: 50 * time.Millisecond, Timeout: 3 * time.Second, DelayPolicy: arbiter.DelayIncludesRender}, conf.Turn)
		assert.Equal(t, "./bin/view", conf.View)
		assert.Equal(t, []string{"./bin/player", "./bin/player"}, conf.Players)
		assert.Equal(t, SharedMemory{State: "game_state", Sync: "game_sync"}, conf.SharedMemory)
		assert.Equal(t, "localhost:6379", conf.Redis.GetRedisAddr())
		assert.Equal(t, time.Hour, conf.Redis.ReportTTL)
		assert.True(t, conf.Redis.ReportsEnabled())
		require.NoError(t, conf.Validate())
	})

	t.Run("environment when the file is missing", func(t *testing.T) {
		t.Setenv("GRIDCAPTURE_PLAYERS", "a,b,c")
		t.Setenv("GRIDCAPTURE_WIDTH", "30")

		conf, err := Load(filepath.Join(t.TempDir(), "missing.yml"))

		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b", "c"}, conf.Players)
		assert.Equal(t, 30, conf.Board.Width)
		assert.Equal(t, 10, conf.Board.Height)
		assert.Equal(t, 10*time.Second, conf.Turn.Timeout)
		assert.Equal(t, arbiter.DelayExcludesRender, conf.Turn.DelayPolicy)
		assert.False(t, conf.Redis.ReportsEnabled())
		require.NoError(t, conf.Validate())
	})

	t.Run("malformed file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yml")
		require.NoError(t, os.WriteFile(path, []byte("board: [1, 2"), 0o600))

		_, err := Load(path)

		require.Error(t, err)
		assert.Panics(t, func() { MustLoad(path) })
	})
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Board:        Board{Width: 10, Height: 10},
			Turn:         Turn{Delay: 0, Timeout: time.Second, DelayPolicy: arbiter.DelayExcludesRender},
			Players:      []string{"p"},
			SharedMemory: SharedMemory{State: "s", Sync: "y"},
		}
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		target error
	}{
		{name: "board too small", mutate: func(c *Config) { c.Board.Width = 9 }, target: apperror.ErrBoardSize},
		{name: "board too large", mutate: func(c *Config) { c.Board.Height = 101 }, target: apperror.ErrBoardSize},
		{name: "no players", mutate: func(c *Config) { c.Players = nil }, target: apperror.ErrPlayerCount},
		{name: "ten players", mutate: func(c *Config) { c.Players = make([]string, 10) }, target: apperror.ErrPlayerCount},
		{name: "zero timeout", mutate: func(c *Config) { c.Turn.Timeout = 0 }, target: ErrInvalidConfig},
		{name: "negative delay", mutate: func(c *Config) { c.Turn.Delay = -time.Second }, target: ErrInvalidConfig},
		{name: "unknown policy", mutate: func(c *Config) { c.Turn.DelayPolicy = "sometimes" }, target: ErrInvalidConfig},
		{name: "same segment names", mutate: func(c *Config) { c.SharedMemory.Sync = "s" }, target: ErrInvalidConfig},
		{name: "empty segment name", mutate: func(c *Config) { c.SharedMemory.State = "" }, target: ErrInvalidConfig},
	}

	require.NoError(t, valid().Validate())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conf := valid()
			tt.mutate(conf)

			require.ErrorIs(t, conf.Validate(), tt.target)
		})
	}
}

func TestLoadAgent(t *testing.T) {
	// Given: the environment a master hands to its children
	conf := &Config{LogLevel: "warn", SharedMemory: SharedMemory{State: "st", Sync: "sy"}}
	for _, kv := range conf.Env() {
		key, value, _ := strings.Cut(kv, "=")
		t.Setenv(key, value)
	}
	t.Setenv("GRIDCAPTURE_POLICY", "greedy")

	// When: an agent loads its config
	agent, err := LoadAgent()

	// Then: it attaches to the same segments
	require.NoError(t, err)
	assert.Equal(t, "warn", agent.LogLevel)
	assert.Equal(t, conf.SharedMemory, agent.SharedMemory)
	assert.Equal(t, "greedy", agent.Policy)
	assert.Equal(t, 5*time.Millisecond, agent.PollInterval)
	assert.True(t, agent.Color)
}
