package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/tessro/hollow/internal/tui"
)

var (
	tuiWatch   bool
	tuiRefresh int
	tuiTheme   string
	tuiNoMouse bool
)

var tuiCmd = &cobra.Command{
	Use:     "ui",
	Aliases: []string{"tui", "play"},
	Short:   "Open the player card",
	Long: `Open the interactive player card.

Playback starts on the first key press or click when autoplay is enabled.

Keyboard shortcuts:
  Space, p       Play/Pause
  m              Mute/Unmute
  r              Restart from the beginning
  ←/→, h/l       Seek backward/forward
  y              Copy source to clipboard
  o              Open cover art
  ?              Help
  q, Ctrl+C      Quit

Click or drag the progress bar to seek.`,
	RunE: runTUI,
}

func init() {
	addTUIFlags(tuiCmd)
	rootCmd.AddCommand(tuiCmd)
}

func addTUIFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVarP(&tuiWatch, "watch", "w", false, "remount when the source file changes")
	cmd.Flags().IntVar(&tuiRefresh, "refresh", 0, "refresh interval in milliseconds")
	cmd.Flags().StringVar(&tuiTheme, "theme", "", "color theme (auto, dark, light, catppuccin)")
	cmd.Flags().BoolVar(&tuiNoMouse, "no-mouse", false, "disable mouse support")
}

func runTUI(cmd *cobra.Command, args []string) error {
	opts := tui.Options{
		Refresh: cfg.TUI.Refresh(),
		Theme:   cfg.TUI.Theme,
		Mouse:   cfg.TUI.MouseEnabled() && !tuiNoMouse,
		Logger:  logger.WithPrefix("tui"),
	}
	if tuiRefresh > 0 {
		opts.Refresh = time.Duration(tuiRefresh) * time.Millisecond
	}
	if tuiTheme != "" {
		opts.Theme = tuiTheme
	}
	if tuiWatch {
		path, ok := localPath(cfg.Player.Source)
		if !ok {
			return fmt.Errorf("--watch needs a local source, got %q", cfg.Player.Source)
		}
		opts.Watch = path
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := newPlayerSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.ctrl.Mount(ctx); err != nil {
		return err
	}

	err = tui.Run(ctx, s.ctrl, s.bus, opts)
	if errors.Is(err, tea.ErrProgramKilled) || errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
