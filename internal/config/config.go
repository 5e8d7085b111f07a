package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/rocketscienceinc/gridcapture/internal/arbiter"
	"github.com/rocketscienceinc/gridcapture/internal/gamestate"
)

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	LogLevel     string       `yaml:"log-level" env:"GRIDCAPTURE_LOG_LEVEL" env-default:"info"`
	Board        Board        `yaml:"board"`
	Turn         Turn         `yaml:"turn"`
	View         string       `yaml:"view" env:"GRIDCAPTURE_VIEW"`
	Players      []string     `yaml:"players" env:"GRIDCAPTURE_PLAYERS" env-separator:","`
	SharedMemory SharedMemory `yaml:"shared-memory"`
	Redis        Redis        `yaml:"redis"`
}

type Board struct {
	Width  int   `yaml:"width" env:"GRIDCAPTURE_WIDTH" env-default:"10"`
	Height int   `yaml:"height" env:"GRIDCAPTURE_HEIGHT" env-default:"10"`
	Seed   int64 `yaml:"seed" env:"GRIDCAPTURE_SEED" env-default:"0"`
}

type Turn struct {
	Delay       time.Duration       `yaml:"delay" env:"GRIDCAPTURE_DELAY" env-default:"200ms"`
	Timeout     time.Duration       `yaml:"timeout" env:"GRIDCAPTURE_TIMEOUT" env-default:"10s"`
	DelayPolicy arbiter.DelayPolicy `yaml:"delay-policy" env:"GRIDCAPTURE_DELAY_POLICY" env-default:"exclude-render"`
}

type SharedMemory struct {
	State string `yaml:"state" env:"GRIDCAPTURE_SHM_STATE" env-default:"game_state"`
	Sync  string `yaml:"sync" env:"GRIDCAPTURE_SHM_SYNC" env-default:"game_sync"`
}

// Redis is optional, an empty host disables the report export.
type Redis struct {
	Host      string        `yaml:"host" env:"GRIDCAPTURE_REDIS_HOST"`
	Port      string        `yaml:"port" env:"GRIDCAPTURE_REDIS_PORT" env-default:"6379"`
	ReportTTL time.Duration `yaml:"report-ttl" env:"GRIDCAPTURE_REDIS_REPORT_TTL" env-default:"24h"`
}

// AgentConfig is what player and view processes read from the inherited environment.
type AgentConfig struct {
	LogLevel     string `env:"GRIDCAPTURE_LOG_LEVEL" env-default:"info"`
	SharedMemory SharedMemory
	Policy       string        `env:"GRIDCAPTURE_POLICY" env-default:"random"`
	PollInterval time.Duration `env:"GRIDCAPTURE_POLL_INTERVAL" env-default:"5ms"`
	Color        bool          `env:"GRIDCAPTURE_COLOR" env-default:"true"`
}

// Load - reads path when it exists, the environment otherwise.
func Load(path string) (*Config, error) {
	config := &Config{}

	var err error
	if _, statErr := os.Stat(path); statErr == nil {
		err = cleanenv.ReadConfig(path, config)
	} else {
		err = cleanenv.ReadEnv(config)
	}

	if err != nil {
		return nil, fmt.Errorf("unable to load config: %w", err)
	}

	return config, nil
}

// MustLoad - load all configurations in config.yml file.
func MustLoad(path string) *Config {
	config, err := Load(path)
	if err != nil {
		panic(err)
	}

	return config
}

// LoadAgent - reads the agent settings from the environment.
func LoadAgent() (*AgentConfig, error) {
	config := &AgentConfig{}

	if err := cleanenv.ReadEnv(config); err != nil {
		return nil, fmt.Errorf("unable to load agent config: %w", err)
	}

	return config, nil
}

// Validate - checks the bounds the game relies on.
func (that *Config) Validate() error {
	opts := gamestate.Options{Width: that.Board.Width, Height: that.Board.Height, Paths: that.Players}
	if err := opts.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	switch {
	case that.Turn.Timeout <= 0:
		return fmt.Errorf("%w: timeout must be positive, got %s", ErrInvalidConfig, that.Turn.Timeout)
	case that.Turn.Delay < 0:
		return fmt.Errorf("%w: delay must not be negative, got %s", ErrInvalidConfig, that.Turn.Delay)
	case !that.Turn.DelayPolicy.IsValid():
		return fmt.Errorf("%w: unknown delay policy %q", ErrInvalidConfig, that.Turn.DelayPolicy)
	case that.SharedMemory.State == "" || that.SharedMemory.Sync == "":
		return fmt.Errorf("%w: shared memory names must not be empty", ErrInvalidConfig)
	case that.SharedMemory.State == that.SharedMemory.Sync:
		return fmt.Errorf("%w: state and sync segments share the name %q", ErrInvalidConfig, that.SharedMemory.State)
	}

	return nil
}

// Env - returns the variables children need to attach to this game.
func (that *Config) Env() []string {
	return []string{
		"GRIDCAPTURE_LOG_LEVEL=" + that.LogLevel,
		"GRIDCAPTURE_SHM_STATE=" + that.SharedMemory.State,
		"GRIDCAPTURE_SHM_SYNC=" + that.SharedMemory.Sync,
	}
}

// ReportsEnabled - reports whether the final report is exported to redis.
func (that *Redis) ReportsEnabled() bool {
	return that.Host != ""
}

func (that *Redis) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", that.Host, that.Port)
}
