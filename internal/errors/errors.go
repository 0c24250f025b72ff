package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Error types for common failure scenarios.
var (
	ErrNotMounted       = errors.New("controller not mounted")
	ErrAlreadyMounted   = errors.New("controller already mounted")
	ErrPlaybackRejected = errors.New("audio playback failed")
	ErrNotAllowed       = errors.New("playback not allowed before user interaction")
	ErrNotLoaded        = errors.New("audio not loaded")
	ErrUnsupportedMedia = errors.New("unsupported media type")
	ErrNoSource         = errors.New("no audio source configured")
	ErrNetworkError     = errors.New("network error")
	ErrNoAudioDevice    = errors.New("no audio output device")
	ErrConfigNotFound   = errors.New("config file not found")
	ErrInvalidConfig    = errors.New("invalid configuration")
)

// HollowError wraps an error with a user-friendly suggestion.
type HollowError struct {
	Err        error
	Suggestion string
}

func (e *HollowError) Error() string {
	return e.Err.Error()
}

func (e *HollowError) Unwrap() error {
	return e.Err
}

// WithSuggestion wraps an error with a helpful suggestion.
func WithSuggestion(err error, suggestion string) error {
	return &HollowError{
		Err:        err,
		Suggestion: suggestion,
	}
}

// GetSuggestion returns a suggestion for the given error.
func GetSuggestion(err error) string {
	if err == nil {
		return ""
	}

	var hErr *HollowError
	if errors.As(err, &hErr) && hErr.Suggestion != "" {
		return hErr.Suggestion
	}

	errStr := strings.ToLower(err.Error())

	if errors.Is(err, ErrNoSource) {
		return "Set player.source in ~/.hollowrc or pass --source"
	}

	if errors.Is(err, ErrNotAllowed) {
		return "Press any key to start playback"
	}

	if errors.Is(err, ErrUnsupportedMedia) {
		return "Use a WAV or MP3 file"
	}

	if errors.Is(err, ErrNoAudioDevice) || strings.Contains(errStr, "oto") {
		return "Check that an audio output device is available, or run with --no-audio"
	}

	if errors.Is(err, ErrNetworkError) || strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "no such host") || strings.Contains(errStr, "timeout") {
		return "Check your internet connection and try again"
	}

	if errors.Is(err, ErrConfigNotFound) {
		return "Run 'hollow config init' to create a configuration file"
	}

	if errors.Is(err, ErrInvalidConfig) || strings.Contains(errStr, "config") {
		return "Run 'hollow config show' to inspect the configuration"
	}

	return ""
}

// Format returns a formatted error message with suggestion if available.
func Format(err error) string {
	if err == nil {
		return ""
	}

	suggestion := GetSuggestion(err)
	if suggestion != "" {
		return fmt.Sprintf("Error: %s\n\nSuggestion: %s", err.Error(), suggestion)
	}

	return fmt.Sprintf("Error: %s", err.Error())
}
