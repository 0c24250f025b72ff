package components

import (
	"fmt"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
	"github.com/tessro/hollow/internal/core"
	"github.com/tessro/hollow/internal/tui/styles"
)

// Card layout, in cells, relative to the card's top-left corner.
const (
	timeWidth   = 5 // "99:59"
	progressRow = 4 // content row holding the progress bar
	minBarWidth = 10

	// CoverGlyph stands in for missing cover art.
	CoverGlyph = "♫"
)

// NowPlaying renders the player card.
type NowPlaying struct {
	styles *styles.Styles
	bar    progress.Model
}

// NewNowPlaying creates a new NowPlaying component
func NewNowPlaying(s *styles.Styles) *NowPlaying {
	bar := progress.New(
		progress.WithSolidFill(s.Theme.Primary),
		progress.WithFillCharacters('━', '─'),
		progress.WithoutPercentage(),
	)
	bar.EmptyColor = s.Theme.Border

	return &NowPlaying{styles: s, bar: bar}
}

// PlayLabel names the action the play button performs.
func PlayLabel(playing bool) string {
	if playing {
		return "Pause"
	}
	return "Play"
}

// MuteLabel names the action the mute button performs.
func MuteLabel(muted bool) string {
	if muted {
		return "Unmute"
	}
	return "Mute"
}

// BarWidth returns the progress bar width for a card whose content area is
// width cells wide.
func BarWidth(width int) int {
	return max(minBarWidth, width-2*(timeWidth+1))
}

// HitTest maps a point relative to the card's top-left corner onto the
// progress bar. It returns the seek fraction and whether the point is on
// the bar.
func HitTest(x, y, width int) (float64, bool) {
	left := 1 + styles.CardPaddingX + timeWidth + 1
	top := 1 + progressRow
	w := BarWidth(width)

	if y != top || x < left || x >= left+w {
		return 0, false
	}
	if w == 1 {
		return 0, true
	}
	return float64(x-left) / float64(w-1), true
}

// Render renders the card. width is the content width inside the border;
// pulse alternates the cover accent while playing; status is a transient
// message shown under the controls.
func (n *NowPlaying) Render(state core.PlaybackState, width int, pulse bool, status string) string {
	s := n.styles
	track := state.Track
	if track == nil {
		track = &core.Track{}
	}

	cover := n.renderCover(track, state.IsPlaying && pulse, width)

	icon := s.StatusIcon(state.IsPlaying)
	title := s.Title.Render(styles.Truncate(track.Title, width-2))
	artist := s.Subtitle.Render(styles.Truncate(track.Artist, width-2))

	progress := n.renderProgress(state, width)
	controls := n.renderControls(state)

	footer := ""
	switch {
	case status != "":
		footer = s.Muted.Render(styles.Truncate(status, width))
	case state.LastError != "":
		footer = s.Error.Render(styles.Truncate(state.LastError, width))
	case !state.IsLoaded && track.URI != "":
		footer = s.Dim.Render("Loading…")
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		cover,
		icon+" "+title,
		"  "+artist,
		"",
		progress,
		"",
		controls,
		footer,
	)

	return s.Card.Width(width + 2*styles.CardPaddingX).Render(content)
}

func (n *NowPlaying) renderCover(track *core.Track, pulse bool, width int) string {
	s := n.styles
	glyph := s.Cover
	if pulse {
		glyph = s.CoverPulse
	}

	ref := track.CoverArt
	if ref == "" {
		return glyph.Render(CoverGlyph)
	}
	return glyph.Render(CoverGlyph) + " " + s.Dim.Render(styles.Truncate(ref, width-2))
}

func (n *NowPlaying) renderProgress(state core.PlaybackState, width int) string {
	bar := n.bar
	bar.Width = BarWidth(width)

	current := core.FormatTime(state.CurrentTime)
	total := core.FormatTime(state.Duration)

	return fmt.Sprintf("%*s %s %-*s",
		timeWidth, current,
		bar.ViewAs(state.ProgressPercent()/100),
		timeWidth, total)
}

func (n *NowPlaying) renderControls(state core.PlaybackState) string {
	s := n.styles
	button := func(key, label string) string {
		return s.Key.Render(key) + " " + s.Label.Render(label)
	}

	play := button("space", PlayLabel(state.IsPlaying))
	if state.IsPlaying {
		play = s.Key.Render("space") + " " + s.Playing.Render(PlayLabel(true))
	}

	return play + "   " +
		button("m", MuteLabel(state.IsMuted)) + "   " +
		button("r", "Restart")
}

// DragFraction maps a column relative to the card onto the progress bar,
// clamping points beyond either end.
func DragFraction(x, width int) float64 {
	left := 1 + styles.CardPaddingX + timeWidth + 1
	w := BarWidth(width)
	if w <= 1 {
		return 0
	}
	f := float64(x-left) / float64(w-1)
	return max(0, min(1, f))
}
