package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
	herrors "github.com/tessro/hollow/internal/errors"
)

// EnvPrefix prefixes every environment override, e.g. HOLLOW_PLAYER_SOURCE.
const EnvPrefix = "HOLLOW_"

// Load reads configuration from standard locations with environment overrides.
// Search order: ~/.hollowrc, $XDG_CONFIG_HOME/hollow/config.toml (default
// ~/.config/hollow/config.toml). A missing file is not an error.
func Load() (*Config, error) {
	cfg := &Config{}

	if path := FindFile(); path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", herrors.ErrInvalidConfig, path, err)
		}
	}

	return finish(cfg)
}

// LoadFrom reads configuration from a specific file path.
func LoadFrom(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", herrors.ErrConfigNotFound, path)
		}
		return nil, fmt.Errorf("%w: %s: %w", herrors.ErrInvalidConfig, path, err)
	}
	return finish(cfg)
}

func finish(cfg *Config) (*Config, error) {
	cfg.ApplyDefaults()
	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides applies HOLLOW_* environment variables to the config.
func applyEnvOverrides(cfg *Config) error {
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("%w: environment: %w", herrors.ErrInvalidConfig, err)
	}
	return nil
}

// FindFile returns the first existing config file path.
func FindFile() string {
	for _, p := range searchPaths() {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// DefaultPath is where new config files are written.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".hollowrc"
	}
	return filepath.Join(home, ".hollowrc")
}

func searchPaths() []string {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil
	}

	paths := []string{
		filepath.Join(home, ".hollowrc"),
	}

	xdgConfig := os.Getenv("XDG_CONFIG_HOME")
	if xdgConfig == "" {
		xdgConfig = filepath.Join(home, ".config")
	}
	return append(paths, filepath.Join(xdgConfig, "hollow", "config.toml"))
}

// Header is written above every generated config file.
const Header = "# Hollow Configuration\n# https://github.com/tessro/hollow\n\n"

// Write encodes v as TOML with the standard header. v is a *Config or a raw
// map decoded from an existing file.
func Write(w io.Writer, v any) error {
	if _, err := io.WriteString(w, Header); err != nil {
		return err
	}
	encoder := toml.NewEncoder(w)
	encoder.Indent = "  "
	return encoder.Encode(v)
}

// Save writes v to path, creating parent directories as needed.
func Save(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	if err := Write(f, v); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write config: %w", err)
	}
	return f.Close()
}
