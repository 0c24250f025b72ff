package config

import "time"

// Display metadata used when the config leaves it empty.
const (
	DefaultTitle    = "Hollow Purple Theme"
	DefaultArtist   = "JJK Collection"
	DefaultCoverArt = "/album-cover.jpg"
)

// Default returns a Config populated with sensible defaults.
func Default() *Config {
	return &Config{
		Player: PlayerConfig{
			Title:    DefaultTitle,
			Artist:   DefaultArtist,
			CoverArt: DefaultCoverArt,
			Volume:   ptr(0.5),
			Autoplay: ptr(true),
			Loop:     ptr(true),
		},
		Engine: EngineConfig{
			SampleRate:     44100,
			BufferMS:       100,
			TimeUpdateMS:   250,
			RequireGesture: ptr(true),
			HTTPRetries:    ptr(3),
			MaxSourceMB:    256,
		},
		TUI: TUIConfig{
			Theme:           "auto",
			RefreshInterval: 250,
			Mouse:           ptr(true),
		},
		Tail: TailConfig{
			Interval: 500,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// ApplyDefaults fills in zero values with sensible defaults.
func (c *Config) ApplyDefaults() {
	d := Default()

	// Player
	if c.Player.Title == "" {
		c.Player.Title = d.Player.Title
	}
	if c.Player.Artist == "" {
		c.Player.Artist = d.Player.Artist
	}
	if c.Player.CoverArt == "" {
		c.Player.CoverArt = d.Player.CoverArt
	}
	if c.Player.Volume == nil {
		c.Player.Volume = d.Player.Volume
	}
	if c.Player.Autoplay == nil {
		c.Player.Autoplay = d.Player.Autoplay
	}
	if c.Player.Loop == nil {
		c.Player.Loop = d.Player.Loop
	}

	// Engine
	if c.Engine.SampleRate == 0 {
		c.Engine.SampleRate = d.Engine.SampleRate
	}
	if c.Engine.BufferMS == 0 {
		c.Engine.BufferMS = d.Engine.BufferMS
	}
	if c.Engine.TimeUpdateMS == 0 {
		c.Engine.TimeUpdateMS = d.Engine.TimeUpdateMS
	}
	if c.Engine.RequireGesture == nil {
		c.Engine.RequireGesture = d.Engine.RequireGesture
	}
	if c.Engine.HTTPRetries == nil {
		c.Engine.HTTPRetries = d.Engine.HTTPRetries
	}
	if c.Engine.MaxSourceMB == 0 {
		c.Engine.MaxSourceMB = d.Engine.MaxSourceMB
	}

	// TUI
	if c.TUI.Theme == "" {
		c.TUI.Theme = d.TUI.Theme
	}
	if c.TUI.RefreshInterval == 0 {
		c.TUI.RefreshInterval = d.TUI.RefreshInterval
	}
	if c.TUI.Mouse == nil {
		c.TUI.Mouse = d.TUI.Mouse
	}

	// Tail
	if c.Tail.Interval == 0 {
		c.Tail.Interval = d.Tail.Interval
	}

	// Log
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
}

// VolumeLevel returns the initial gain.
func (c *PlayerConfig) VolumeLevel() float64 {
	return deref(c.Volume, 0.5)
}

// AutoplayEnabled reports whether playback starts without a command.
func (c *PlayerConfig) AutoplayEnabled() bool {
	return deref(c.Autoplay, true)
}

// LoopEnabled reports whether the track restarts at its end.
func (c *PlayerConfig) LoopEnabled() bool {
	return deref(c.Loop, true)
}

// GestureRequired reports whether playback waits for a first user gesture.
func (c *EngineConfig) GestureRequired() bool {
	return deref(c.RequireGesture, true)
}

// Retries returns the number of retries for http(s) sources.
func (c *EngineConfig) Retries() int {
	return deref(c.HTTPRetries, 3)
}

// MaxSourceSize returns the largest source, in bytes, that will be loaded.
func (c *EngineConfig) MaxSourceSize() int64 {
	return int64(c.MaxSourceMB) << 20
}

// BufferSize returns the device buffer length.
func (c *EngineConfig) BufferSize() time.Duration {
	return time.Duration(c.BufferMS) * time.Millisecond
}

// TimeUpdateInterval returns the progress reporting cadence.
func (c *EngineConfig) TimeUpdateInterval() time.Duration {
	return time.Duration(c.TimeUpdateMS) * time.Millisecond
}

// MouseEnabled reports whether the TUI captures the mouse.
func (c *TUIConfig) MouseEnabled() bool {
	return deref(c.Mouse, true)
}

// Refresh returns the TUI redraw interval.
func (c *TUIConfig) Refresh() time.Duration {
	return time.Duration(c.RefreshInterval) * time.Millisecond
}

// PollInterval returns how often the tail watcher samples state.
func (c *TailConfig) PollInterval() time.Duration {
	return time.Duration(c.Interval) * time.Millisecond
}

func ptr[T any](v T) *T {
	return &v
}

func deref[T any](p *T, def T) T {
	if p == nil {
		return def
	}
	return *p
}
