package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrInvalidConfig = errors.New("invalid config")

// Config is the top-level YAML structure of the framegraph command.
type Config struct {
	Engine  EngineConf  `yaml:"engine"`
	Debug   DebugConf   `yaml:"debug"`
	Log     LogConf     `yaml:"log"`
	Metrics MetricsConf `yaml:"metrics"`
}

// EngineConf controls the frame loop. Frames stops the loop after that many
// frames; 0 runs until cancelled.
type EngineConf struct {
	Width         uint32        `yaml:"width"`
	Height        uint32        `yaml:"height"`
	FrameInterval time.Duration `yaml:"frame_interval"`
	Frames        uint64        `yaml:"frames"`
	DebugChecks   bool          `yaml:"debug_checks"`
}

// DebugConf holds the runtime toggles applied on hot reload.
type DebugConf struct {
	Overlay bool `yaml:"overlay"`
}

type LogConf struct {
	Level string `yaml:"level"`
}

type MetricsConf struct {
	// Addr is the listen address of the Prometheus endpoint; empty disables it.
	Addr string `yaml:"addr"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Engine.Width == 0 {
		cfg.Engine.Width = 1280
	}
	if cfg.Engine.Height == 0 {
		cfg.Engine.Height = 720
	}
	if cfg.Engine.FrameInterval == 0 {
		cfg.Engine.FrameInterval = 16 * time.Millisecond
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
}

// Validate checks value ranges after defaults were applied.
func Validate(cfg *Config) error {
	var errs []string
	if cfg.Engine.FrameInterval < 0 {
		errs = append(errs, "engine.frame_interval must not be negative")
	}
	if cfg.Engine.Width > 16384 || cfg.Engine.Height > 16384 {
		errs = append(errs, fmt.Sprintf("engine resolution %dx%d exceeds 16384", cfg.Engine.Width, cfg.Engine.Height))
	}
	switch strings.ToLower(cfg.Log.Level) {
	case "trace", "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Sprintf("log.level %q is not one of trace, debug, info, warn, error", cfg.Log.Level))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w:\n  - %s", ErrInvalidConfig, strings.Join(errs, "\n  - "))
	}
	return nil
}
