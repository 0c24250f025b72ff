package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/charmbracelet/log"
	herrors "github.com/tessro/hollow/internal/errors"
)

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if err := c.Player.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("player: %w", err))
	}
	if err := c.Engine.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("engine: %w", err))
	}
	if err := c.TUI.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("tui: %w", err))
	}
	if err := c.Tail.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("tail: %w", err))
	}
	if err := c.Log.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("log: %w", err))
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("%w: %w", herrors.ErrInvalidConfig, err)
	}
	return nil
}

// Validate checks PlayerConfig for errors. An empty source is allowed; the
// controller reports it once mounted.
func (c *PlayerConfig) Validate() error {
	if c.Source != "" && strings.Contains(c.Source, "://") {
		u, err := url.Parse(c.Source)
		if err != nil {
			return fmt.Errorf("invalid source: %w", err)
		}
		switch u.Scheme {
		case "file", "http", "https":
		default:
			return fmt.Errorf("invalid source scheme: %s (must be file, http, or https)", u.Scheme)
		}
	}
	if c.Volume != nil && (*c.Volume < 0 || *c.Volume > 1) {
		return errors.New("volume must be between 0 and 1")
	}
	return nil
}

// Validate checks EngineConfig for errors.
func (c *EngineConfig) Validate() error {
	switch c.SampleRate {
	case 0, 44100, 48000:
		// valid
	default:
		return fmt.Errorf("invalid sample_rate: %d (must be 44100 or 48000)", c.SampleRate)
	}
	if c.BufferMS < 0 {
		return errors.New("buffer_ms must be non-negative")
	}
	if c.TimeUpdateMS < 0 {
		return errors.New("time_update_ms must be non-negative")
	}
	if c.HTTPRetries != nil && *c.HTTPRetries < 0 {
		return errors.New("http_retries must be non-negative")
	}
	if c.MaxSourceMB < 0 {
		return errors.New("max_source_mb must be non-negative")
	}
	return nil
}

// Validate checks TUIConfig for errors.
func (c *TUIConfig) Validate() error {
	switch c.Theme {
	case "", "auto", "dark", "light", "catppuccin":
		// valid
	default:
		return fmt.Errorf("invalid theme: %s (must be auto, dark, light, or catppuccin)", c.Theme)
	}
	if c.RefreshInterval < 0 {
		return errors.New("refresh_interval must be non-negative")
	}
	return nil
}

// Validate checks TailConfig for errors.
func (c *TailConfig) Validate() error {
	if c.Interval < 0 {
		return errors.New("interval must be non-negative")
	}
	return nil
}

// Validate checks LogConfig for errors.
func (c *LogConfig) Validate() error {
	if c.Level == "" {
		return nil
	}
	if _, err := log.ParseLevel(c.Level); err != nil {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Level)
	}
	return nil
}
