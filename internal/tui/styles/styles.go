package styles

import (
	catppuccin "github.com/catppuccin/go"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

// Theme is a color palette. Colors are hex strings so they can also feed
// components that take raw colors, such as the progress bar.
type Theme struct {
	Name      string
	Primary   string
	Secondary string
	Accent    string
	Warning   string
	Error     string
	Border    string
	Text      string
	TextMuted string
	TextDim   string
}

// Dark is the default palette.
var Dark = Theme{
	Name:      "dark",
	Primary:   "#7C3AED", // Purple
	Secondary: "#A78BFA", // Lavender
	Accent:    "#F59E0B", // Amber
	Warning:   "#F59E0B",
	Error:     "#EF4444",
	Border:    "#4B5563",
	Text:      "#F9FAFB",
	TextMuted: "#9CA3AF",
	TextDim:   "#6B7280",
}

// Light is the palette for light terminals.
var Light = Theme{
	Name:      "light",
	Primary:   "#6D28D9",
	Secondary: "#8B5CF6",
	Accent:    "#B45309",
	Warning:   "#B45309",
	Error:     "#B91C1C",
	Border:    "#D1D5DB",
	Text:      "#111827",
	TextMuted: "#4B5563",
	TextDim:   "#9CA3AF",
}

func fromFlavor(name string, f catppuccin.Flavor) Theme {
	return Theme{
		Name:      name,
		Primary:   f.Mauve().Hex,
		Secondary: f.Lavender().Hex,
		Accent:    f.Peach().Hex,
		Warning:   f.Yellow().Hex,
		Error:     f.Red().Hex,
		Border:    f.Surface2().Hex,
		Text:      f.Text().Hex,
		TextMuted: f.Subtext0().Hex,
		TextDim:   f.Overlay0().Hex,
	}
}

// ThemeFor resolves a configured theme name. "auto" and "catppuccin" follow
// the terminal background.
func ThemeFor(name string, darkBackground bool) Theme {
	switch name {
	case "dark":
		return Dark
	case "light":
		return Light
	case "catppuccin":
		if darkBackground {
			return fromFlavor("catppuccin", catppuccin.Mocha)
		}
		return fromFlavor("catppuccin", catppuccin.Latte)
	default:
		if darkBackground {
			return Dark
		}
		return Light
	}
}

// Styles are the rendered styles for one theme.
type Styles struct {
	Theme Theme

	Title     lipgloss.Style
	Subtitle  lipgloss.Style
	Label     lipgloss.Style
	Highlight lipgloss.Style
	Muted     lipgloss.Style
	Dim       lipgloss.Style
	Playing   lipgloss.Style
	Paused    lipgloss.Style
	Error     lipgloss.Style

	Card       lipgloss.Style
	Cover      lipgloss.Style
	CoverPulse lipgloss.Style
	Key        lipgloss.Style
}

// New builds the styles for t.
func New(t Theme) *Styles {
	return &Styles{
		Theme: t,

		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(t.Text)),
		Subtitle: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.TextMuted)),
		Label: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.TextDim)),
		Highlight: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(t.Primary)),
		Muted: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.TextMuted)),
		Dim: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.TextDim)),
		Playing: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Secondary)),
		Paused: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Warning)),
		Error: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Error)),

		Card: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(t.Primary)).
			Padding(0, CardPaddingX),
		Cover: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Primary)),
		CoverPulse: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(t.Secondary)),
		Key: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Accent)),
	}
}

// CardPaddingX is the horizontal padding inside the card border.
const CardPaddingX = 2

// StatusIcon returns an icon for playback status
func (s *Styles) StatusIcon(playing bool) string {
	if playing {
		return s.Playing.Render("▶")
	}
	return s.Paused.Render("⏸")
}

// Truncate shortens s to at most width terminal cells, marking the cut
// with an ellipsis.
func Truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	return runewidth.Truncate(s, width, "…")
}
