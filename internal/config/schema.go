package config

// Config is the root configuration structure.
type Config struct {
	Player PlayerConfig `toml:"player" envPrefix:"PLAYER_"`
	Engine EngineConfig `toml:"engine" envPrefix:"ENGINE_"`
	TUI    TUIConfig    `toml:"tui"    envPrefix:"TUI_"`
	Tail   TailConfig   `toml:"tail"   envPrefix:"TAIL_"`
	Log    LogConfig    `toml:"log"    envPrefix:"LOG_"`
}

// PlayerConfig holds the audio source and how the controller starts it.
type PlayerConfig struct {
	Source   string   `toml:"source"    env:"SOURCE"`
	Title    string   `toml:"title"     env:"TITLE"`
	Artist   string   `toml:"artist"    env:"ARTIST"`
	CoverArt string   `toml:"cover_art" env:"COVER_ART"`
	Volume   *float64 `toml:"volume"    env:"VOLUME"`
	Autoplay *bool    `toml:"autoplay"  env:"AUTOPLAY"`
	Loop     *bool    `toml:"loop"      env:"LOOP"`
}

// EngineConfig holds audio output settings.
type EngineConfig struct {
	SampleRate     int   `toml:"sample_rate"     env:"SAMPLE_RATE"`
	BufferMS       int   `toml:"buffer_ms"       env:"BUFFER_MS"`
	TimeUpdateMS   int   `toml:"time_update_ms"  env:"TIME_UPDATE_MS"`
	RequireGesture *bool `toml:"require_gesture" env:"REQUIRE_GESTURE"`
	HTTPRetries    *int  `toml:"http_retries"    env:"HTTP_RETRIES"`
	MaxSourceMB    int   `toml:"max_source_mb"   env:"MAX_SOURCE_MB"`
}

// TUIConfig holds terminal UI settings.
type TUIConfig struct {
	Theme           string `toml:"theme"            env:"THEME"`
	RefreshInterval int    `toml:"refresh_interval" env:"REFRESH_INTERVAL"`
	Mouse           *bool  `toml:"mouse"            env:"MOUSE"`
}

// TailConfig holds settings for the headless event stream.
type TailConfig struct {
	Interval int `toml:"interval" env:"INTERVAL"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `toml:"level" env:"LEVEL"`
	File  string `toml:"file"  env:"FILE"`
}
