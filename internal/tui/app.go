package tui

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
	"github.com/tessro/hollow/internal/browser"
	"github.com/tessro/hollow/internal/core"
	"github.com/tessro/hollow/internal/gesture"
	"github.com/tessro/hollow/internal/tail"
	"github.com/tessro/hollow/internal/tui/components"
	"github.com/tessro/hollow/internal/tui/styles"
	"golang.org/x/time/rate"
)

const (
	seekStep     = 0.05
	statusTTL    = 5 * time.Second
	maxCardWidth = 56
	minCardWidth = 24

	// dragRate caps how often a mouse drag re-seeks the engine.
	dragRate = 20

	activityLimit = 8
)

// Controller is the playback surface the UI drives.
type Controller interface {
	Mount(ctx context.Context) error
	Unmount()
	State() core.PlaybackState
	Play(ctx context.Context) error
	Pause()
	ToggleMute()
	Seek(fraction float64)
	Restart(ctx context.Context) error
}

// Options configures the UI.
type Options struct {
	Refresh time.Duration
	Theme   string
	Mouse   bool
	// Watch names a local file; writes to it remount the controller.
	Watch  string
	Logger *log.Logger

	darkBackground bool
}

// Model is the main TUI model
type Model struct {
	ctrl   Controller
	bus    *gesture.Bus
	opts   Options
	logger *log.Logger

	keys     keyMap
	help     help.Model
	styles   *styles.Styles
	card     *components.NowPlaying
	activity *components.Activity

	state   core.PlaybackState
	stateAt time.Time
	width   int
	height  int
	pulse   bool

	dragging bool
	drag     *rate.Limiter

	status       string
	statusExpiry time.Time

	watcher *fsnotify.Watcher

	copyText  func(string) error
	openCover func(string) error

	quitting bool
}

// NewModel creates a new TUI model
func NewModel(ctrl Controller, bus *gesture.Bus, opts Options) Model {
	if opts.Refresh <= 0 {
		opts.Refresh = 250 * time.Millisecond
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	st := styles.New(styles.ThemeFor(opts.Theme, opts.darkBackground))
	h := help.New()
	h.Styles.ShortKey = st.Key
	h.Styles.FullKey = st.Key
	h.Styles.ShortDesc = st.Dim
	h.Styles.FullDesc = st.Dim

	return Model{
		ctrl:      ctrl,
		bus:       bus,
		opts:      opts,
		logger:    logger,
		keys:      defaultKeyMap(),
		help:      h,
		styles:    st,
		card:      components.NewNowPlaying(st),
		activity:  components.NewActivity(st, activityLimit),
		state:     ctrl.State(),
		stateAt:   time.Now(),
		drag:      rate.NewLimiter(rate.Limit(dragRate), 1),
		copyText:  clipboard.WriteAll,
		openCover: browser.Open,
	}
}

// Messages
type tickMsg time.Time

type actionMsg struct {
	action string
	err    error
}

type reloadMsg struct{}

// Commands
func (m Model) tick() tea.Cmd {
	return tea.Tick(m.opts.Refresh, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// playOrPause acts on the play state the user saw when pressing the key.
func (m Model) playOrPause(wasPlaying bool) tea.Cmd {
	if wasPlaying {
		return func() tea.Msg {
			m.ctrl.Pause()
			return actionMsg{action: "pause"}
		}
	}
	return func() tea.Msg {
		return actionMsg{action: "play", err: m.ctrl.Play(context.Background())}
	}
}

func (m Model) restart() tea.Cmd {
	return func() tea.Msg {
		return actionMsg{action: "restart", err: m.ctrl.Restart(context.Background())}
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.tick(), m.watchFile())
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		// Read before dispatching: the key may be the gesture that unlocks
		// autoplay, and the play key must not pause what it just started.
		wasPlaying := m.ctrl.State().IsPlaying
		m.bus.Dispatch(gesture.Event{Kind: gesture.KeyDown})
		return m.handleKeyPress(msg, wasPlaying)

	case tea.MouseMsg:
		if msg.Action == tea.MouseActionPress {
			m.bus.Dispatch(gesture.Event{Kind: gesture.Click})
		}
		return m.handleMouse(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case tickMsg:
		m.refresh()
		if m.state.IsPlaying {
			m.pulse = !m.pulse
		} else {
			m.pulse = false
		}
		return m, m.tick()

	case actionMsg:
		m.refresh()
		if msg.err != nil {
			m.logger.Warn("action failed", "action", msg.action, "err", msg.err)
			m.setStatus(msg.err.Error())
		}
		return m, nil

	case reloadMsg:
		m.remount()
		return m, m.watchFile()
	}

	return m, nil
}

func (m *Model) refresh() {
	now := time.Now()
	prev, curr := m.state, m.ctrl.State()
	for _, e := range tail.Diff(&prev, &curr, now.Sub(m.stateAt)) {
		e.Timestamp = now
		m.activity.Push(e)
	}
	m.state, m.stateAt = curr, now

	if m.status != "" && now.After(m.statusExpiry) {
		m.status = ""
	}
}

func (m *Model) setStatus(s string) {
	m.status = s
	m.statusExpiry = time.Now().Add(statusTTL)
}

func (m Model) handleKeyPress(msg tea.KeyMsg, wasPlaying bool) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil

	case key.Matches(msg, m.keys.TogglePlay):
		return m, m.playOrPause(wasPlaying)

	case key.Matches(msg, m.keys.ToggleMute):
		m.ctrl.ToggleMute()
		m.refresh()
		return m, nil

	case key.Matches(msg, m.keys.Restart):
		return m, m.restart()

	case key.Matches(msg, m.keys.SeekBack):
		m.seek(m.state.ProgressPercent()/100 - seekStep)
		return m, nil

	case key.Matches(msg, m.keys.SeekForward):
		m.seek(m.state.ProgressPercent()/100 + seekStep)
		return m, nil

	case key.Matches(msg, m.keys.Copy):
		m.copySource()
		return m, nil

	case key.Matches(msg, m.keys.OpenCover):
		m.openCoverArt()
		return m, nil
	}

	return m, nil
}

func (m Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	width := m.cardWidth()

	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button != tea.MouseButtonLeft {
			return m, nil
		}
		if f, ok := components.HitTest(msg.X, msg.Y, width); ok {
			m.dragging = true
			m.seek(f)
		}

	case tea.MouseActionMotion:
		if m.dragging && m.drag.Allow() {
			m.seek(components.DragFraction(msg.X, width))
		}

	case tea.MouseActionRelease:
		if m.dragging {
			m.dragging = false
			m.seek(components.DragFraction(msg.X, width))
		}
	}

	return m, nil
}

func (m *Model) seek(fraction float64) {
	m.ctrl.Seek(fraction)
	m.refresh()
}

func (m *Model) copySource() {
	if !m.state.HasTrack() {
		m.setStatus("No source to copy")
		return
	}
	if err := m.copyText(m.state.Track.URI); err != nil {
		m.logger.Warn("clipboard copy failed", "err", err)
		m.setStatus("Clipboard unavailable")
		return
	}
	m.setStatus("Copied source")
}

func (m *Model) openCoverArt() {
	if m.state.Track == nil || m.state.Track.CoverArt == "" {
		m.setStatus("No cover art")
		return
	}
	if err := m.openCover(m.state.Track.CoverArt); err != nil {
		m.logger.Warn("open cover art failed", "cover", m.state.Track.CoverArt, "err", err)
		m.setStatus("Could not open cover art")
		return
	}
	m.setStatus("Opened cover art")
}

// remount starts a fresh session after the watched source changed.
func (m *Model) remount() {
	m.ctrl.Unmount()
	if err := m.ctrl.Mount(context.Background()); err != nil {
		m.logger.Error("remount failed", "err", err)
		m.setStatus(err.Error())
		return
	}
	m.refresh()
	m.setStatus("Reloaded " + filepath.Base(m.opts.Watch))
}

func (m Model) watchFile() tea.Cmd {
	if m.watcher == nil {
		return nil
	}
	w := m.watcher
	target := filepath.Clean(m.opts.Watch)
	logger := m.logger

	return func() tea.Msg {
		for {
			select {
			case event, ok := <-w.Events:
				if !ok {
					return nil
				}
				if filepath.Clean(event.Name) != target {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				logger.Debug("source changed", "file", event.Name, "event", event.Op)
				return reloadMsg{}
			case err, ok := <-w.Errors:
				if !ok {
					return nil
				}
				logger.Debug("fsnotify error", "file", target, "error", err)
			}
		}
	}
}

func (m Model) cardWidth() int {
	w := m.width - 2 - 2*styles.CardPaddingX
	return max(minCardWidth, min(maxCardWidth, w))
}

// View renders the UI
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	card := m.card.Render(m.state, m.cardWidth(), m.pulse, m.status)
	helpView := " " + m.help.View(m.keys)

	// Border and title take three rows.
	rows := m.height - lipgloss.Height(card) - lipgloss.Height(helpView) - 3
	if activity := m.activity.Render(m.cardWidth(), rows, time.Now()); activity != "" {
		return lipgloss.JoinVertical(lipgloss.Left, card, activity, helpView)
	}
	return lipgloss.JoinVertical(lipgloss.Left, card, helpView)
}

// Run starts the TUI application. ctrl must already be mounted.
func Run(ctx context.Context, ctrl Controller, bus *gesture.Bus, opts Options) error {
	opts.darkBackground = lipgloss.HasDarkBackground()
	model := NewModel(ctrl, bus, opts)

	if opts.Watch != "" {
		w, err := fsnotify.NewWatcher()
		if err != nil {
			return fmt.Errorf("watch %s: %w", opts.Watch, err)
		}
		defer func() { _ = w.Close() }()

		// Watch the directory so editors that replace the file are seen.
		if err := w.Add(filepath.Dir(opts.Watch)); err != nil {
			return fmt.Errorf("watch %s: %w", opts.Watch, err)
		}
		model.watcher = w
	}

	programOpts := []tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}
	if opts.Mouse {
		programOpts = append(programOpts, tea.WithMouseCellMotion())
	}

	p := tea.NewProgram(model, programOpts...)
	_, err := p.Run()
	return err
}
