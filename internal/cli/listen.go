package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/tessro/hollow/internal/gesture"
	"github.com/tessro/hollow/internal/player"
	"github.com/tessro/hollow/internal/tail"
	"golang.org/x/term"
)

var (
	listenNoEmoji   bool
	listenTimestamp bool
	listenFormat    string
	listenInterval  time.Duration
)

var listenCmd = &cobra.Command{
	Use:     "listen",
	Aliases: []string{"tail"},
	Short:   "Play without the card and print playback changes",
	Long: `Play the configured track and print playback changes as they happen.

When stdin is a terminal, each line you enter counts as a key press and may
carry a command:
  p         Play/Pause
  m         Mute/Unmute
  r         Restart
  s <pct>   Seek to a percentage of the track
  q         Quit

Events printed:
  - Loaded, Play, Pause, Finished
  - Mute/Unmute
  - Seek
  - Errors`,
	RunE: runListen,
}

func init() {
	listenCmd.Flags().BoolVar(&listenNoEmoji, "no-emoji", false, "disable emoji output")
	listenCmd.Flags().BoolVarP(&listenTimestamp, "timestamp", "t", false, "show timestamps")
	listenCmd.Flags().StringVarP(&listenFormat, "format", "f", "", "custom format template")
	listenCmd.Flags().DurationVarP(&listenInterval, "interval", "i", 0, "poll interval (default: tail.interval)")

	rootCmd.AddCommand(listenCmd)
}

func runListen(cmd *cobra.Command, args []string) error {
	formatter := tail.NewFormatter(
		tail.WithEmoji(!listenNoEmoji),
		tail.WithTimestamp(listenTimestamp),
		tail.WithTemplate(listenFormat),
	)

	interval := listenInterval
	if interval <= 0 {
		interval = cfg.Tail.PollInterval()
	}

	// Handle Ctrl+C gracefully
	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	s, err := newPlayerSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.ctrl.Mount(ctx); err != nil {
		return err
	}

	watcher := tail.NewWatcher(s.ctrl, interval)
	errCh := make(chan error, 1)
	go func() {
		errCh <- watcher.Start(ctx)
	}()

	var lines <-chan string
	if term.IsTerminal(int(os.Stdin.Fd())) {
		lines = readLines(os.Stdin)
	} else if cfg.Engine.GestureRequired() && cfg.Player.AutoplayEnabled() {
		logger.Warn("stdin is not a terminal; playback waits for a gesture that cannot arrive",
			"hint", "set engine.require_gesture = false")
	}

	for {
		select {
		case event, ok := <-watcher.Events():
			if !ok {
				return nil
			}
			fmt.Println(formatter.Format(event))

		case line, ok := <-lines:
			if !ok {
				lines = nil
				continue
			}
			playing := s.ctrl.State().IsPlaying
			s.bus.Dispatch(gesture.Event{Kind: gesture.KeyDown, At: time.Now()})
			quit, err := runLineCommand(ctx, s.ctrl, line, playing)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
			}
			if quit {
				return nil
			}

		case err := <-errCh:
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
	}
}

// readLines scans r in the background. The goroutine exits with the process
// when r never reaches EOF.
func readLines(r io.Reader) <-chan string {
	ch := make(chan string)
	go func() {
		defer close(ch)
		sc := bufio.NewScanner(r)
		for sc.Scan() {
			ch <- sc.Text()
		}
	}()
	return ch
}

// runLineCommand applies one line of listen input to ctrl. wasPlaying is the
// play state read before the line was dispatched as a gesture. An empty line is
// just a gesture.
func runLineCommand(ctx context.Context, ctrl *player.Controller, line string, wasPlaying bool) (quit bool, err error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false, nil
	}

	switch strings.ToLower(fields[0]) {
	case "p":
		if wasPlaying {
			ctrl.Pause()
			return false, nil
		}
		return false, ctrl.Play(ctx)
	case "play":
		return false, ctrl.Play(ctx)
	case "pause":
		ctrl.Pause()
	case "m", "mute", "unmute":
		ctrl.ToggleMute()
	case "r", "restart":
		return false, ctrl.Restart(ctx)
	case "s", "seek":
		if len(fields) != 2 {
			return false, fmt.Errorf("usage: s <percent>")
		}
		pct, err := strconv.ParseFloat(strings.TrimSuffix(fields[1], "%"), 64)
		if err != nil {
			return false, fmt.Errorf("invalid percentage %q", fields[1])
		}
		ctrl.Seek(pct / 100)
	case "q", "quit", "exit":
		return true, nil
	default:
		return false, fmt.Errorf("unknown command %q", fields[0])
	}
	return false, nil
}
