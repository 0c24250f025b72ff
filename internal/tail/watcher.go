package tail

import (
	"context"
	"math"
	"time"

	"github.com/mitchellh/hashstructure/v2"
	"github.com/tessro/hollow/internal/core"
)

// EventType represents the type of playback event.
type EventType int

const (
	EventLoaded EventType = iota
	EventPlay
	EventPause
	EventMute
	EventUnmute
	EventSeek
	EventEnded
	EventError
)

// Event represents a playback state change.
type Event struct {
	Type      EventType
	Timestamp time.Time
	Previous  *core.PlaybackState
	Current   *core.PlaybackState
}

// StateSource provides playback snapshots.
type StateSource interface {
	State() core.PlaybackState
}

// Watcher polls a controller for state changes and emits events.
type Watcher struct {
	source   StateSource
	interval time.Duration
	events   chan Event
	done     chan struct{}
}

// NewWatcher creates a new state watcher.
func NewWatcher(source StateSource, interval time.Duration) *Watcher {
	if interval == 0 {
		interval = 500 * time.Millisecond
	}
	return &Watcher{
		source:   source,
		interval: interval,
		events:   make(chan Event, 16),
		done:     make(chan struct{}),
	}
}

// Events returns the channel of playback events.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Start begins polling for state changes.
func (w *Watcher) Start(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	defer close(w.events)

	initial := w.source.State()
	prev := &initial
	prevHash := fingerprint(prev)
	prevAt := time.Now()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.done:
			return nil
		case now := <-ticker.C:
			state := w.source.State()
			curr := &state

			// A paused, unchanged snapshot produces nothing.
			hash := fingerprint(curr)
			if hash == prevHash && !curr.IsPlaying {
				prevAt = now
				continue
			}

			for _, e := range Diff(prev, curr, now.Sub(prevAt)) {
				e.Timestamp = now
				select {
				case w.events <- e:
				default:
					// Drop event if channel is full
				}
			}

			prev, prevHash, prevAt = curr, hash, now
		}
	}
}

// Stop stops the watcher.
func (w *Watcher) Stop() {
	close(w.done)
}

// fingerprint hashes the whole snapshot.
func fingerprint(s *core.PlaybackState) uint64 {
	h, err := hashstructure.Hash(s, hashstructure.FormatV2, nil)
	if err != nil {
		return 0
	}
	return h
}

// seekSlack is how far the cursor may drift from the expected position
// before the difference counts as a seek.
const seekSlack = time.Second

// Diff compares two samples and returns the events between them. elapsed is
// the wall time between the two samples.
func Diff(prev, curr *core.PlaybackState, elapsed time.Duration) []Event {
	if curr == nil {
		return nil
	}
	if prev == nil {
		prev = &core.PlaybackState{}
	}

	var events []Event
	add := func(t EventType) {
		events = append(events, Event{Type: t, Previous: prev, Current: curr})
	}

	if !prev.IsLoaded && curr.IsLoaded {
		add(EventLoaded)
	}
	if curr.LastError != "" && curr.LastError != prev.LastError {
		add(EventError)
	}

	if !prev.IsMuted && curr.IsMuted {
		add(EventMute)
	} else if prev.IsMuted && !curr.IsMuted {
		add(EventUnmute)
	}

	if prev.IsLoaded && curr.IsLoaded && wasSeek(prev, curr, elapsed) {
		add(EventSeek)
	}

	if !prev.IsPlaying && curr.IsPlaying {
		add(EventPlay)
	} else if prev.IsPlaying && !curr.IsPlaying {
		if atEnd(curr) {
			add(EventEnded)
		} else {
			add(EventPause)
		}
	}

	return events
}

// wasSeek reports whether the cursor moved somewhere playback alone would
// not have taken it.
func wasSeek(prev, curr *core.PlaybackState, elapsed time.Duration) bool {
	expected := prev.CurrentTime
	if prev.IsPlaying {
		expected += elapsed.Seconds()
	}
	if curr.Loop && validDuration(curr.Duration) && expected >= curr.Duration {
		expected = math.Mod(expected, curr.Duration)
	}
	if validDuration(curr.Duration) {
		expected = math.Min(expected, curr.Duration)
	}
	return math.Abs(curr.CurrentTime-expected) > seekSlack.Seconds()
}

// atEnd reports whether the cursor sits at the end of the track.
func atEnd(s *core.PlaybackState) bool {
	if !validDuration(s.Duration) {
		return false
	}
	return s.Duration-s.CurrentTime < 0.5
}

func validDuration(d float64) bool {
	return d > 0 && !math.IsInf(d, 0) && !math.IsNaN(d)
}
