package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/tessro/hollow/internal/config"
	herrors "github.com/tessro/hollow/internal/errors"
)

var (
	cfgFile string
	jsonOut bool
	verbose bool

	sourceFlag string
	noAudio    bool

	cfg    *config.Config
	logger *log.Logger
)

var rootCmd = &cobra.Command{
	Use:   "hollow",
	Short: "Play a theme track in the terminal",
	Long: `Hollow plays a single audio track through the local audio device and
shows a small player card with progress, mute and restart controls.

Run without a subcommand to open the player.`,
	RunE:          runTUI,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	// Assigned here rather than in the literal above to avoid an
	// initialization cycle (initLogger -> isTUICommand -> rootCmd).
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if err := initConfig(); err != nil {
			return err
		}
		return initLogger(cmd)
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default: ~/.hollowrc)")
	rootCmd.PersistentFlags().BoolVarP(&jsonOut, "json", "j", false, "output as JSON")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVarP(&sourceFlag, "source", "s", "", "audio file path or URL (overrides player.source)")
	rootCmd.PersistentFlags().BoolVar(&noAudio, "no-audio", false, "simulate playback without an audio device")

	addTUIFlags(rootCmd)
}

func initConfig() error {
	var err error
	if cfgFile != "" {
		cfg, err = config.LoadFrom(cfgFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if sourceFlag != "" {
		cfg.Player.Source = sourceFlag
	}

	return cfg.Validate()
}

// initLogger configures the default logger. The full-screen player must not
// write to the terminal, so it logs to the configured file or nowhere.
func initLogger(cmd *cobra.Command) error {
	level, err := log.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = log.InfoLevel
	}
	if verbose {
		level = log.DebugLevel
	}

	var w io.Writer = os.Stderr
	if isTUICommand(cmd) {
		w = io.Discard
	}
	if cfg.Log.File != "" {
		f, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		w = f
	}

	logger = log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Level:           level,
		Prefix:          "hollow",
	})
	log.SetDefault(logger)
	return nil
}

func isTUICommand(cmd *cobra.Command) bool {
	return cmd == rootCmd || cmd == tuiCmd
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, herrors.Format(err))
		os.Exit(1)
	}
}

// JSONOutput returns true if JSON output is requested.
func JSONOutput() bool {
	return jsonOut
}

// Verbose returns true if verbose output is requested.
func Verbose() bool {
	return verbose
}
