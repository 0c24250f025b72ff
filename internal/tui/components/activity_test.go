package components

import (
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/x/ansi"
	"github.com/tessro/hollow/internal/core"
	"github.com/tessro/hollow/internal/tail"
	"github.com/tessro/hollow/internal/tui/styles"
)

func TestActivityPushKeepsNewestFirst(t *testing.T) {
	a := NewActivity(styles.New(styles.Dark), 2)
	now := time.Now()
	state := &core.PlaybackState{CurrentTime: 30, Duration: 200}

	a.Push(
		tail.Event{Type: tail.EventPlay, Timestamp: now, Current: state},
		tail.Event{Type: tail.EventMute, Timestamp: now, Current: state},
		tail.Event{Type: tail.EventPause, Timestamp: now, Current: state},
	)
	if a.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", a.Len())
	}

	out := ansi.Strip(a.Render(40, 5, now))
	pause := strings.Index(out, "Paused at 0:30")
	mute := strings.Index(out, "Muted")
	if pause < 0 || mute < 0 || pause > mute {
		t.Errorf("Render() order wrong:\n%s", out)
	}
	if strings.Contains(out, "Playing") {
		t.Errorf("Render() kept an event past the limit:\n%s", out)
	}
}

func TestActivityRender(t *testing.T) {
	a := NewActivity(styles.New(styles.Dark), 8)
	if got := a.Render(40, 5, time.Now()); got != "" {
		t.Errorf("Render() with no events = %q, want empty", got)
	}

	now := time.Now()
	a.Push(tail.Event{Type: tail.EventMute, Timestamp: now.Add(-2 * time.Minute)})
	if got := a.Render(40, 0, now); got != "" {
		t.Errorf("Render() with no rows = %q, want empty", got)
	}

	out := ansi.Strip(a.Render(40, 5, now))
	if !strings.Contains(out, "Recent") || !strings.Contains(out, "2m") {
		t.Errorf("Render() = \n%s\nwant title and age", out)
	}
	for _, line := range strings.Split(out, "\n") {
		if w := ansi.StringWidth(line); w > 40+2+2*styles.CardPaddingX {
			t.Errorf("line %q is %d cells wide", line, w)
		}
	}
}

func TestFormatTimeAgo(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{time.Second, "now"},
		{30 * time.Second, "30s"},
		{5 * time.Minute, "5m"},
		{3 * time.Hour, "3h"},
	}
	for _, tt := range tests {
		if got := formatTimeAgo(tt.d); got != tt.want {
			t.Errorf("formatTimeAgo(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}
