package core

import (
	"fmt"
	"math"
)

// PlaybackState is a snapshot of one playback session.
type PlaybackState struct {
	Track       *Track  `json:"track"`
	Volume      float64 `json:"volume"`
	Loop        bool    `json:"loop"`
	Autoplay    bool    `json:"autoplay"`
	IsLoaded    bool    `json:"is_loaded"`
	IsPlaying   bool    `json:"is_playing"`
	IsMuted     bool    `json:"is_muted"`
	Duration    float64 `json:"duration"`
	CurrentTime float64 `json:"current_time"`
	LastError   string  `json:"last_error,omitempty"`
}

// HasTrack returns true if the session is bound to a source.
func (s *PlaybackState) HasTrack() bool {
	return s != nil && s.Track != nil && s.Track.URI != ""
}

// ProgressPercent returns playback progress as a percentage (0-100).
func (s *PlaybackState) ProgressPercent() float64 {
	if s == nil {
		return 0
	}
	return Progress(s.CurrentTime, s.Duration)
}

// Progress returns current/duration as a percentage. It is 0 whenever the
// duration is not a positive finite number.
func Progress(current, duration float64) float64 {
	if !validDuration(duration) || math.IsNaN(current) {
		return 0
	}
	return current / duration * 100
}

// FormatTime renders seconds as M:SS. Seconds are floor-truncated and
// anything that is not a finite non-negative number renders as 0:00.
func FormatTime(seconds float64) string {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds < 0 {
		seconds = 0
	}
	total := int64(math.Floor(seconds))
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

func validDuration(d float64) bool {
	return d > 0 && !math.IsInf(d, 0)
}
