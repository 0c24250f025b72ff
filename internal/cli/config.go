package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"sort"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"github.com/tessro/hollow/internal/config"
	"golang.org/x/term"
)

var configInitForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long:  `Commands for viewing and editing hollow configuration.`,
	// Config commands must work even when the current file is invalid.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := initConfig(); err != nil {
			cfg = config.Default()
		}
		return initLogger(cmd)
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  `Display the effective configuration, including defaults and HOLLOW_* overrides.`,
	RunE:  runConfigShow,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file path",
	RunE:  runConfigPath,
}

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Edit configuration file",
	Long:  `Open the configuration file in your default editor.`,
	RunE:  runConfigEdit,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	Long: `Create a new configuration file.

Prompts for the track when run in a terminal; otherwise writes defaults.`,
	RunE: runConfigInit,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set a configuration value.

Supported keys:
` + settableKeysHelp() + `
Examples:
  hollow config set player.source ~/music/hollow-purple.mp3
  hollow config set player.volume 0.8
  hollow config set engine.require_gesture false`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

func init() {
	configInitCmd.Flags().BoolVar(&configInitForce, "force", false, "overwrite an existing file")

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configEditCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configSetCmd)
	rootCmd.AddCommand(configCmd)
}

type valueKind int

const (
	kindString valueKind = iota
	kindInt
	kindFloat
	kindBool
)

// settableKeys maps "section.field" to the TOML type written for it.
var settableKeys = map[string]valueKind{
	"player.source":          kindString,
	"player.title":           kindString,
	"player.artist":          kindString,
	"player.cover_art":       kindString,
	"player.volume":          kindFloat,
	"player.autoplay":        kindBool,
	"player.loop":            kindBool,
	"engine.sample_rate":     kindInt,
	"engine.buffer_ms":       kindInt,
	"engine.time_update_ms":  kindInt,
	"engine.require_gesture": kindBool,
	"engine.http_retries":    kindInt,
	"engine.max_source_mb":   kindInt,
	"tui.theme":              kindString,
	"tui.refresh_interval":   kindInt,
	"tui.mouse":              kindBool,
	"tail.interval":          kindInt,
	"log.level":              kindString,
	"log.file":               kindString,
}

func settableKeysHelp() string {
	keys := make([]string, 0, len(settableKeys))
	for k := range settableKeys {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "  %s\n", k)
	}
	return b.String()
}

// parseValue converts a command-line value to the type stored for key.
func parseValue(key, value string) (any, error) {
	kind, ok := settableKeys[key]
	if !ok {
		return nil, fmt.Errorf("unknown key %q", key)
	}

	switch kind {
	case kindInt:
		i, err := strconv.Atoi(value)
		if err != nil {
			return nil, fmt.Errorf("value must be an integer for %s", key)
		}
		return i, nil
	case kindFloat:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, fmt.Errorf("value must be a number for %s", key)
		}
		return f, nil
	case kindBool:
		switch strings.ToLower(value) {
		case "true", "1", "yes", "on":
			return true, nil
		case "false", "0", "no", "off":
			return false, nil
		}
		return nil, fmt.Errorf("value must be true or false for %s", key)
	default:
		return value, nil
	}
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	if JSONOutput() {
		return json.NewEncoder(os.Stdout).Encode(cfg)
	}

	// Pretty print as TOML
	encoder := toml.NewEncoder(os.Stdout)
	encoder.Indent = "  "
	return encoder.Encode(cfg)
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	fmt.Println(getConfigPath())
	return nil
}

func runConfigEdit(cmd *cobra.Command, args []string) error {
	configPath := getConfigPath()

	// Check if file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return fmt.Errorf("config file not found at %s. Run 'hollow config init' first", configPath)
	}

	// Find editor
	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = os.Getenv("VISUAL")
	}
	if editor == "" {
		for _, e := range []string{"nano", "vim", "vi", "notepad"} {
			if _, err := exec.LookPath(e); err == nil {
				editor = e
				break
			}
		}
	}
	if editor == "" {
		return fmt.Errorf("no editor found. Set EDITOR environment variable")
	}

	editorCmd := exec.Command(editor, configPath)
	editorCmd.Stdin = os.Stdin
	editorCmd.Stdout = os.Stdout
	editorCmd.Stderr = os.Stderr

	return editorCmd.Run()
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	configPath := getConfigPath()

	if _, err := os.Stat(configPath); err == nil && !configInitForce {
		return fmt.Errorf("config file already exists at %s (use --force to overwrite)", configPath)
	}

	newCfg := config.Default()
	if term.IsTerminal(int(os.Stdin.Fd())) {
		if err := promptTrack(&newCfg.Player); err != nil {
			return fmt.Errorf("setup cancelled: %w", err)
		}
	}
	if err := newCfg.Validate(); err != nil {
		return err
	}

	if err := config.Save(configPath, newCfg); err != nil {
		return err
	}

	if JSONOutput() {
		_ = json.NewEncoder(os.Stdout).Encode(map[string]string{
			"status": "created",
			"path":   configPath,
		})
	} else {
		fmt.Printf("Created config file: %s\n", configPath)
		if newCfg.Player.Source == "" {
			fmt.Println("\nNext step: set a track with 'hollow config set player.source <path or URL>'")
		}
	}

	return nil
}

// promptTrack asks for the track to play and how to label it.
func promptTrack(p *config.PlayerConfig) error {
	autoplay := p.AutoplayEnabled()
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Audio source").
				Description("Path or http(s) URL of an mp3 or wav file").
				Value(&p.Source),
			huh.NewInput().
				Title("Title").
				Value(&p.Title),
			huh.NewInput().
				Title("Artist").
				Value(&p.Artist),
			huh.NewConfirm().
				Title("Start playing on the first key press?").
				Value(&autoplay),
		),
	)

	if err := form.Run(); err != nil {
		return err
	}
	p.Autoplay = &autoplay
	return nil
}

func getConfigPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	if path := config.FindFile(); path != "" {
		return path
	}
	return config.DefaultPath()
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key, value := args[0], args[1]

	typedValue, err := parseValue(key, value)
	if err != nil {
		return err
	}

	configPath := getConfigPath()

	// Work on the raw file so defaults and env overrides are not written back.
	rawConfig := map[string]any{}
	if _, err := toml.DecodeFile(configPath, &rawConfig); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to parse config: %w", err)
	}

	section, field, _ := strings.Cut(key, ".")
	sectionMap, ok := rawConfig[section].(map[string]any)
	if !ok {
		sectionMap = map[string]any{}
		rawConfig[section] = sectionMap
	}
	sectionMap[field] = typedValue

	if err := validateRaw(rawConfig); err != nil {
		return err
	}
	if err := config.Save(configPath, rawConfig); err != nil {
		return err
	}

	if JSONOutput() {
		_ = json.NewEncoder(os.Stdout).Encode(map[string]string{
			"status": "updated",
			"key":    key,
			"value":  value,
		})
	} else {
		fmt.Printf("Set %s = %s\n", key, value)
	}

	return nil
}

// validateRaw checks a raw config map the same way a loaded file is checked.
func validateRaw(raw map[string]any) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(raw); err != nil {
		return err
	}

	var c config.Config
	if _, err := toml.Decode(buf.String(), &c); err != nil {
		return err
	}
	c.ApplyDefaults()
	return c.Validate()
}
