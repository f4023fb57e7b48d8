// Package config loads host tool settings from a YAML file and PENARM_*
// environment variables.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
	"gopkg.in/yaml.v2"

	"penarm/host/kinematics"
)

// ErrInvalid is returned for settings that fail validation
var ErrInvalid = errors.New("config: invalid setting")

// ArmConfig holds the link lengths used for inverse kinematics
type ArmConfig struct {
	L1 float64 `yaml:"l1" env:"PENARM_L1"`
	L2 float64 `yaml:"l2" env:"PENARM_L2"`
}

// Arm returns the kinematic model
func (a ArmConfig) Arm() kinematics.Arm {
	return kinematics.Arm{L1: a.L1, L2: a.L2}
}

// Config holds the host tool settings
type Config struct {
	Port          string `yaml:"port" env:"PENARM_PORT"`
	Baud          int    `yaml:"baud" env:"PENARM_BAUD"`
	ReadTimeoutMS int    `yaml:"read_timeout_ms" env:"PENARM_READ_TIMEOUT_MS"`

	Arm ArmConfig `yaml:"arm"`

	Window      int           `yaml:"window" env:"PENARM_WINDOW"`             // lines per REQUEST
	IdleTimeout time.Duration `yaml:"idle_timeout" env:"PENARM_IDLE_TIMEOUT"` // e.g. "10s"
	WaitReady   bool          `yaml:"wait_ready" env:"PENARM_WAIT_READY"`     // wait for the banner before streaming

	Machine  string `yaml:"machine" env:"PENARM_MACHINE"` // firmware JSON config used by simulate
	LogLevel string `yaml:"log_level" env:"PENARM_LOG_LEVEL"`
}

// Default returns the settings used when nothing is configured
func Default() *Config {
	return &Config{
		Port:          "/dev/ttyACM0",
		Baud:          9600,
		ReadTimeoutMS: 100,
		Arm:           ArmConfig{L1: 20, L2: 20},
		Window:        4,
		IdleTimeout:   10 * time.Second,
		LogLevel:      "info",
	}
}

// Load reads path (when not empty) over the defaults, then applies
// environment overrides
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the settings
func (c *Config) Validate() error {
	if c.Baud <= 0 {
		return fmt.Errorf("%w: baud %d", ErrInvalid, c.Baud)
	}
	if c.Window < 1 {
		return fmt.Errorf("%w: window %d", ErrInvalid, c.Window)
	}
	if err := c.Arm.Arm().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// ParseLevel maps a level name onto a slog level
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("%w: log level %q", ErrInvalid, name)
	}
}

// NewLogger returns a text logger on w at the configured level
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	level, _ := ParseLevel(c.LogLevel)
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
