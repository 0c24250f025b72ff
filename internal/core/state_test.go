package core

import (
	"math"
	"testing"
)

func TestFormatTime(t *testing.T) {
	tests := []struct {
		name    string
		seconds float64
		want    string
	}{
		{"zero", 0, "0:00"},
		{"one minute five", 65, "1:05"},
		{"just under ten minutes", 599, "9:59"},
		{"ten minutes", 600, "10:00"},
		{"fraction truncated", 59.99, "0:59"},
		{"nan", math.NaN(), "0:00"},
		{"infinite", math.Inf(1), "0:00"},
		{"negative", -3, "0:00"},
		{"long track", 3725, "62:05"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatTime(tt.seconds); got != tt.want {
				t.Errorf("FormatTime(%v) = %q, want %q", tt.seconds, got, tt.want)
			}
		})
	}
}

func TestProgress(t *testing.T) {
	for _, d := range []float64{1, 37.5, 200, 3600} {
		for _, frac := range []float64{0, 0.25, 0.5, 1} {
			cur := frac * d
			want := cur / d * 100
			if got := Progress(cur, d); got != want {
				t.Errorf("Progress(%v, %v) = %v, want %v", cur, d, got, want)
			}
		}
	}

	for _, d := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		if got := Progress(10, d); got != 0 {
			t.Errorf("Progress(10, %v) = %v, want 0", d, got)
		}
	}
}

func TestProgressPercentNilState(t *testing.T) {
	var s *PlaybackState
	if got := s.ProgressPercent(); got != 0 {
		t.Errorf("ProgressPercent() = %v, want 0", got)
	}
	if s.HasTrack() {
		t.Error("HasTrack() = true on nil state")
	}
}

func TestTrackLabel(t *testing.T) {
	tests := []struct {
		track *Track
		want  string
	}{
		{nil, ""},
		{&Track{Title: "Hollow Purple Theme", Artist: "JJK Collection"}, "JJK Collection - Hollow Purple Theme"},
		{&Track{Title: "Untitled"}, "Untitled"},
		{&Track{Artist: "Someone"}, "Someone"},
	}
	for _, tt := range tests {
		if got := tt.track.Label(); got != tt.want {
			t.Errorf("Label() = %q, want %q", got, tt.want)
		}
	}
}
