package core

import "context"

// EventType identifies a notification emitted by an Engine.
type EventType int

const (
	// EventCanPlayThrough fires once the resource can play to the end
	// without further buffering.
	EventCanPlayThrough EventType = iota
	// EventTimeUpdate fires continuously while playing and after seeks.
	EventTimeUpdate
	EventPlay
	EventPause
	EventEnded
	// EventError reports a load failure. Event.Err carries the cause.
	EventError
)

func (t EventType) String() string {
	switch t {
	case EventCanPlayThrough:
		return "canplaythrough"
	case EventTimeUpdate:
		return "timeupdate"
	case EventPlay:
		return "play"
	case EventPause:
		return "pause"
	case EventEnded:
		return "ended"
	case EventError:
		return "error"
	default:
		return "unknown"
	}
}

// Event is a single engine notification.
type Event struct {
	Type EventType
	Err  error
}

// Engine is the media element a controller drives. Implementations must
// deliver events outside of their own method calls so listeners may call
// back into the engine.
type Engine interface {
	// Load binds the engine to uri and starts buffering. Readiness and load
	// failures are reported through EventCanPlayThrough and EventError.
	Load(ctx context.Context, uri string) error
	// Unload stops playback and releases the bound resource.
	Unload()

	SetVolume(v float64)
	SetLoop(loop bool)
	SetMuted(muted bool)
	Muted() bool

	// Play requests playback and returns once the engine has started or
	// refused to start.
	Play(ctx context.Context) error
	Pause()
	Paused() bool

	SetCurrentTime(seconds float64)
	CurrentTime() float64
	// Duration is NaN until the resource has loaded.
	Duration() float64

	// On registers fn for events of type t and returns a function that
	// removes the registration.
	On(t EventType, fn func(Event)) (cancel func())
}
