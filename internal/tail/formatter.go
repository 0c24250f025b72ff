package tail

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/tessro/hollow/internal/core"
)

// Formatter formats events for output.
type Formatter struct {
	showEmoji     bool
	showTimestamp bool
	template      *template.Template
}

// FormatterOption configures a Formatter.
type FormatterOption func(*Formatter)

// WithEmoji enables emoji output.
func WithEmoji(enabled bool) FormatterOption {
	return func(f *Formatter) {
		f.showEmoji = enabled
	}
}

// WithTimestamp enables timestamp output.
func WithTimestamp(enabled bool) FormatterOption {
	return func(f *Formatter) {
		f.showTimestamp = enabled
	}
}

// WithTemplate sets a custom format template.
func WithTemplate(tmpl string) FormatterOption {
	return func(f *Formatter) {
		if tmpl != "" {
			t, err := template.New("format").Parse(tmpl)
			if err == nil {
				f.template = t
			}
		}
	}
}

// NewFormatter creates a new formatter with the given options.
func NewFormatter(opts ...FormatterOption) *Formatter {
	f := &Formatter{
		showEmoji:     true,
		showTimestamp: false,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Format formats an event as a string.
func (f *Formatter) Format(e Event) string {
	if f.template != nil {
		return f.formatTemplate(e)
	}
	return f.formatLine(e)
}

// formatLine formats an event as a simple line.
func (f *Formatter) formatLine(e Event) string {
	var parts []string

	// Timestamp
	if f.showTimestamp {
		parts = append(parts, e.Timestamp.Format("15:04:05"))
	}

	// Emoji
	if f.showEmoji {
		parts = append(parts, eventEmoji(e.Type))
	}

	// Event description
	parts = append(parts, f.eventDescription(e))

	return strings.Join(parts, " ")
}

// formatTemplate formats an event using a custom template.
func (f *Formatter) formatTemplate(e Event) string {
	data := templateData{
		Type:      eventTypeName(e.Type),
		Emoji:     eventEmoji(e.Type),
		Timestamp: e.Timestamp,
		Time:      e.Timestamp.Format("15:04:05"),
	}

	if e.Current != nil {
		if e.Current.Track != nil {
			data.Title = e.Current.Track.Title
			data.Artist = e.Current.Track.Artist
			data.Source = e.Current.Track.URI
		}
		data.Position = core.FormatTime(e.Current.CurrentTime)
		data.Duration = core.FormatTime(e.Current.Duration)
		data.Progress = e.Current.ProgressPercent()
		data.Muted = e.Current.IsMuted
		data.Error = e.Current.LastError
	}

	var buf bytes.Buffer
	if err := f.template.Execute(&buf, data); err != nil {
		return f.formatLine(e)
	}
	return buf.String()
}

type templateData struct {
	Type      string
	Emoji     string
	Timestamp time.Time
	Time      string
	Title     string
	Artist    string
	Source    string
	Position  string
	Duration  string
	Progress  float64
	Muted     bool
	Error     string
}

// eventDescription returns a human-readable description of the event.
func (f *Formatter) eventDescription(e Event) string {
	switch e.Type {
	case EventLoaded:
		if e.Current != nil && e.Current.Track != nil {
			return fmt.Sprintf("Loaded: %s (%s)",
				e.Current.Track.Label(),
				core.FormatTime(e.Current.Duration))
		}
		return "Loaded"

	case EventPlay:
		if e.Current != nil && e.Current.Track != nil {
			return fmt.Sprintf("Playing: %s", e.Current.Track.Label())
		}
		return "Playing"

	case EventPause:
		if e.Current != nil {
			return fmt.Sprintf("Paused at %s", core.FormatTime(e.Current.CurrentTime))
		}
		return "Paused"

	case EventMute:
		return "Muted"

	case EventUnmute:
		return "Unmuted"

	case EventSeek:
		if e.Current != nil {
			return fmt.Sprintf("Seek: %s / %s",
				core.FormatTime(e.Current.CurrentTime),
				core.FormatTime(e.Current.Duration))
		}
		return "Seek"

	case EventEnded:
		if e.Current != nil && e.Current.Track != nil {
			return fmt.Sprintf("Finished: %s", e.Current.Track.Label())
		}
		return "Finished"

	case EventError:
		if e.Current != nil && e.Current.LastError != "" {
			return fmt.Sprintf("Error: %s", e.Current.LastError)
		}
		return "Error"

	default:
		return "Unknown event"
	}
}

// eventEmoji returns an emoji for the event type.
func eventEmoji(t EventType) string {
	switch t {
	case EventLoaded:
		return "💿"
	case EventPlay:
		return "▶️"
	case EventPause:
		return "⏸️"
	case EventMute:
		return "🔇"
	case EventUnmute:
		return "🔊"
	case EventSeek:
		return "⏩"
	case EventEnded:
		return "✅"
	case EventError:
		return "⚠️"
	default:
		return "❓"
	}
}

// eventTypeName returns the name of the event type.
func eventTypeName(t EventType) string {
	switch t {
	case EventLoaded:
		return "loaded"
	case EventPlay:
		return "play"
	case EventPause:
		return "pause"
	case EventMute:
		return "mute"
	case EventUnmute:
		return "unmute"
	case EventSeek:
		return "seek"
	case EventEnded:
		return "ended"
	case EventError:
		return "error"
	default:
		return "unknown"
	}
}

// String returns the event type name.
func (t EventType) String() string {
	return eventTypeName(t)
}
