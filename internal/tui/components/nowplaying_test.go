package components

import (
	"math"
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"
	"github.com/tessro/hollow/internal/core"
	"github.com/tessro/hollow/internal/tui/styles"
)

func newCard() *NowPlaying {
	return NewNowPlaying(styles.New(styles.Dark))
}

func state() core.PlaybackState {
	return core.PlaybackState{
		Track: &core.Track{
			URI:      "theme.wav",
			Title:    "Hollow Purple Theme",
			Artist:   "JJK Collection",
			CoverArt: "/album-cover.jpg",
		},
		IsLoaded:    true,
		Duration:    200,
		CurrentTime: 65,
	}
}

func TestLabels(t *testing.T) {
	if PlayLabel(true) != "Pause" || PlayLabel(false) != "Play" {
		t.Errorf("PlayLabel = %q/%q", PlayLabel(true), PlayLabel(false))
	}
	if MuteLabel(true) != "Unmute" || MuteLabel(false) != "Mute" {
		t.Errorf("MuteLabel = %q/%q", MuteLabel(true), MuteLabel(false))
	}
}

func TestRender(t *testing.T) {
	out := ansi.Strip(newCard().Render(state(), 40, false, ""))

	for _, want := range []string{
		"Hollow Purple Theme",
		"JJK Collection",
		"/album-cover.jpg",
		"1:05",
		"3:20",
		"Play",
		"Mute",
		"Restart",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Render() missing %q:\n%s", want, out)
		}
	}
}

func TestRenderPlayingMuted(t *testing.T) {
	s := state()
	s.IsPlaying = true
	s.IsMuted = true
	out := ansi.Strip(newCard().Render(s, 40, true, ""))

	if !strings.Contains(out, "Pause") || !strings.Contains(out, "Unmute") {
		t.Errorf("Render() labels do not mirror state:\n%s", out)
	}
}

func TestRenderBeforeLoad(t *testing.T) {
	s := core.PlaybackState{
		Track:    &core.Track{URI: "theme.wav", Title: "Hollow Purple Theme"},
		Duration: math.NaN(),
	}
	out := ansi.Strip(newCard().Render(s, 40, false, ""))

	if strings.Count(out, "0:00") != 2 {
		t.Errorf("expected 0:00 / 0:00 before load:\n%s", out)
	}
	if !strings.Contains(out, "Loading") {
		t.Errorf("missing loading hint:\n%s", out)
	}
	if !strings.Contains(out, CoverGlyph) {
		t.Errorf("missing cover placeholder:\n%s", out)
	}
}

func TestRenderFooter(t *testing.T) {
	s := state()
	s.LastError = "audio playback failed"
	out := ansi.Strip(newCard().Render(s, 40, false, ""))
	if !strings.Contains(out, "audio playback failed") {
		t.Errorf("missing error footer:\n%s", out)
	}

	out = ansi.Strip(newCard().Render(s, 40, false, "Copied source"))
	if !strings.Contains(out, "Copied source") || strings.Contains(out, "audio playback failed") {
		t.Errorf("status should replace the error footer:\n%s", out)
	}
}

func TestRenderTruncatesWideText(t *testing.T) {
	s := state()
	s.Track.Title = strings.Repeat("呪術廻戦", 20)
	out := newCard().Render(s, 30, false, "")

	for _, line := range strings.Split(out, "\n") {
		if w := ansi.StringWidth(line); w > 30+2*styles.CardPaddingX+2 {
			t.Errorf("line width %d exceeds card: %q", w, ansi.Strip(line))
		}
	}
}

func TestProgressRowPosition(t *testing.T) {
	lines := strings.Split(ansi.Strip(newCard().Render(state(), 40, false, "")), "\n")
	row := lines[1+progressRow]
	if !strings.Contains(row, "1:05") || !strings.Contains(row, "━") {
		t.Errorf("progress row = %q", row)
	}
}

func TestHitTest(t *testing.T) {
	width := 40
	left := 1 + styles.CardPaddingX + timeWidth + 1
	top := 1 + progressRow
	w := BarWidth(width)

	tests := []struct {
		name   string
		x, y   int
		want   float64
		wantOK bool
	}{
		{"start", left, top, 0, true},
		{"end", left + w - 1, top, 1, true},
		{"wrong row", left + 3, top - 1, 0, false},
		{"left of bar", left - 1, top, 0, false},
		{"right of bar", left + w, top, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := HitTest(tt.x, tt.y, width)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("HitTest(%d, %d) = %v, %v; want %v, %v", tt.x, tt.y, got, ok, tt.want, tt.wantOK)
			}
		})
	}

	mid, ok := HitTest(left+(w-1)/2, top, width)
	if !ok || math.Abs(mid-0.5) > 0.05 {
		t.Errorf("HitTest(middle) = %v, %v; want ~0.5", mid, ok)
	}
}

func TestBarWidth(t *testing.T) {
	if got := BarWidth(40); got != 40-2*(timeWidth+1) {
		t.Errorf("BarWidth(40) = %d", got)
	}
	if got := BarWidth(5); got != minBarWidth {
		t.Errorf("BarWidth(5) = %d, want %d", got, minBarWidth)
	}
}

func TestDragFraction(t *testing.T) {
	width := 40
	left := 1 + styles.CardPaddingX + timeWidth + 1
	w := BarWidth(width)

	if got := DragFraction(0, width); got != 0 {
		t.Errorf("DragFraction(0) = %v, want 0", got)
	}
	if got := DragFraction(left+w+20, width); got != 1 {
		t.Errorf("DragFraction(past end) = %v, want 1", got)
	}
	if got := DragFraction(left+w-1, width); got != 1 {
		t.Errorf("DragFraction(last cell) = %v, want 1", got)
	}
}
