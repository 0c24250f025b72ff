package components

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"github.com/tessro/hollow/internal/tail"
	"github.com/tessro/hollow/internal/tui/styles"
)

// Activity lists recent playback events, newest first.
type Activity struct {
	styles    *styles.Styles
	formatter *tail.Formatter
	limit     int
	entries   []tail.Event
}

// NewActivity creates an activity log that keeps at most limit events.
func NewActivity(s *styles.Styles, limit int) *Activity {
	return &Activity{
		styles:    s,
		formatter: tail.NewFormatter(tail.WithEmoji(true)),
		limit:     limit,
	}
}

// Push records events in the order they happened.
func (a *Activity) Push(events ...tail.Event) {
	for _, e := range events {
		a.entries = append([]tail.Event{e}, a.entries...)
	}
	if len(a.entries) > a.limit {
		a.entries = a.entries[:a.limit]
	}
}

// Len returns the number of recorded events.
func (a *Activity) Len() int {
	return len(a.entries)
}

// Render draws up to rows events inside a card of the given inner width.
func (a *Activity) Render(width, rows int, now time.Time) string {
	if rows <= 0 || len(a.entries) == 0 {
		return ""
	}

	lines := []string{a.styles.Label.Render("Recent")}
	for i, e := range a.entries {
		if i >= rows {
			break
		}

		ago := formatTimeAgo(now.Sub(e.Timestamp))
		agoWidth := runewidth.StringWidth(ago)
		text := styles.Truncate(a.formatter.Format(e), width-agoWidth-1)

		padding := width - runewidth.StringWidth(text) - agoWidth
		if padding < 1 {
			padding = 1
		}
		lines = append(lines, fmt.Sprintf("%s%*s%s", text, padding, "", a.styles.Dim.Render(ago)))
	}

	return a.styles.Card.Width(width + 2*styles.CardPaddingX).Render(
		lipgloss.JoinVertical(lipgloss.Left, lines...),
	)
}

func formatTimeAgo(d time.Duration) string {
	switch {
	case d < 5*time.Second:
		return "now"
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	default:
		return fmt.Sprintf("%dh", int(d.Hours()))
	}
}
