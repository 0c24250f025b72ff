package audio

import (
	"context"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tessro/hollow/internal/core"
	herrors "github.com/tessro/hollow/internal/errors"
	"github.com/tessro/hollow/internal/gesture"
)

// MockEngine implements core.Engine without an audio device. Events are
// delivered synchronously on the goroutine that caused them, which makes the
// caller act as the host event loop.
type MockEngine struct {
	mu        sync.Mutex
	listeners map[core.EventType][]mockListener
	nextID    int

	uri      string
	duration float64
	loaded   bool
	current  float64
	volume   float64
	loop     bool
	muted    bool
	paused   bool

	// Test configuration
	autoReady  bool
	playErr    error
	gate       chan struct{}
	activation gesture.Activation

	// Metrics for testing
	playCount   atomic.Int64
	pauseCount  atomic.Int64
	loadCount   atomic.Int64
	unloadCount atomic.Int64
}

type mockListener struct {
	id int
	fn func(core.Event)
}

// MockOption configures a MockEngine.
type MockOption func(*MockEngine)

// MockAutoReady makes Load report EventCanPlayThrough immediately.
func MockAutoReady() MockOption {
	return func(m *MockEngine) { m.autoReady = true }
}

// MockRequireActivation rejects Play with ErrNotAllowed until a reports
// user activation.
func MockRequireActivation(a gesture.Activation) MockOption {
	return func(m *MockEngine) { m.activation = a }
}

// NewMockEngine creates a mock whose resource lasts duration seconds once
// loaded.
func NewMockEngine(duration float64, opts ...MockOption) *MockEngine {
	m := &MockEngine{
		listeners: make(map[core.EventType][]mockListener),
		duration:  duration,
		volume:    1,
		paused:    true,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// RejectPlay makes subsequent Play calls fail with err. A nil err restores
// normal behaviour.
func (m *MockEngine) RejectPlay(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.playErr = err
}

// HoldPlay makes Play block until the returned release func is called.
func (m *MockEngine) HoldPlay() (release func()) {
	gate := make(chan struct{})
	m.mu.Lock()
	m.gate = gate
	m.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			if m.gate == gate {
				m.gate = nil
			}
			m.mu.Unlock()
			close(gate)
		})
	}
}

// Ready marks the resource loaded and reports EventCanPlayThrough.
func (m *MockEngine) Ready() {
	m.mu.Lock()
	m.loaded = true
	m.mu.Unlock()
	m.emit(core.Event{Type: core.EventCanPlayThrough})
}

// Fail reports a load failure.
func (m *MockEngine) Fail(err error) {
	m.emit(core.Event{Type: core.EventError, Err: err})
}

// Advance moves the cursor forward by seconds while playing, wrapping or
// ending at the end of the track, and reports EventTimeUpdate.
func (m *MockEngine) Advance(seconds float64) {
	m.mu.Lock()
	if m.paused || !m.loaded {
		m.mu.Unlock()
		return
	}
	m.current += seconds
	ended := false
	if m.current >= m.duration {
		if m.loop && m.duration > 0 {
			m.current = math.Mod(m.current, m.duration)
		} else {
			m.current = m.duration
			m.paused = true
			ended = true
		}
	}
	m.mu.Unlock()

	m.emit(core.Event{Type: core.EventTimeUpdate})
	if ended {
		m.emit(core.Event{Type: core.EventPause})
		m.emit(core.Event{Type: core.EventEnded})
	}
}

// Run advances the mock in real time until ctx is done.
func (m *MockEngine) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Advance(interval.Seconds())
		}
	}
}

func (m *MockEngine) Load(_ context.Context, uri string) error {
	m.loadCount.Add(1)
	m.mu.Lock()
	m.uri = uri
	m.loaded = false
	m.current = 0
	auto := m.autoReady
	m.mu.Unlock()

	if auto {
		m.Ready()
	}
	return nil
}

func (m *MockEngine) Unload() {
	m.unloadCount.Add(1)
	m.mu.Lock()
	m.uri = ""
	m.loaded = false
	m.current = 0
	m.paused = true
	m.mu.Unlock()
}

func (m *MockEngine) SetVolume(v float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.volume = v
}

func (m *MockEngine) SetLoop(loop bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loop = loop
}

func (m *MockEngine) SetMuted(muted bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.muted = muted
}

func (m *MockEngine) Muted() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.muted
}

func (m *MockEngine) Play(ctx context.Context) error {
	m.playCount.Add(1)

	m.mu.Lock()
	gate := m.gate
	m.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	m.mu.Lock()
	switch {
	case m.playErr != nil:
		err := m.playErr
		m.mu.Unlock()
		return err
	case m.activation != nil && !m.activation.HasBeenActive():
		m.mu.Unlock()
		return herrors.ErrNotAllowed
	case !m.loaded:
		m.mu.Unlock()
		return herrors.ErrNotLoaded
	}
	wasPaused := m.paused
	m.paused = false
	m.mu.Unlock()

	if wasPaused {
		m.emit(core.Event{Type: core.EventPlay})
	}
	return nil
}

func (m *MockEngine) Pause() {
	m.pauseCount.Add(1)
	m.mu.Lock()
	wasPlaying := !m.paused
	m.paused = true
	m.mu.Unlock()

	if wasPlaying {
		m.emit(core.Event{Type: core.EventPause})
	}
}

func (m *MockEngine) Paused() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.paused
}

func (m *MockEngine) SetCurrentTime(seconds float64) {
	m.mu.Lock()
	if !m.loaded {
		m.mu.Unlock()
		return
	}
	m.current = math.Max(0, math.Min(seconds, m.duration))
	m.mu.Unlock()

	m.emit(core.Event{Type: core.EventTimeUpdate})
}

func (m *MockEngine) CurrentTime() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

func (m *MockEngine) Duration() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.loaded {
		return math.NaN()
	}
	return m.duration
}

func (m *MockEngine) On(t core.EventType, fn func(core.Event)) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	id := m.nextID
	m.listeners[t] = append(m.listeners[t], mockListener{id: id, fn: fn})

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		list := m.listeners[t]
		for i, l := range list {
			if l.id == id {
				m.listeners[t] = append(list[:i:i], list[i+1:]...)
				return
			}
		}
	}
}

func (m *MockEngine) emit(e core.Event) {
	m.mu.Lock()
	list := make([]mockListener, len(m.listeners[e.Type]))
	copy(list, m.listeners[e.Type])
	m.mu.Unlock()

	for _, l := range list {
		l.fn(e)
	}
}

// URI returns the currently bound source.
func (m *MockEngine) URI() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.uri
}

// Volume returns the last volume set.
func (m *MockEngine) Volume() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.volume
}

// Loop returns the last loop flag set.
func (m *MockEngine) Loop() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loop
}

// Listeners returns the number of registered listeners across all events.
func (m *MockEngine) Listeners() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, l := range m.listeners {
		n += len(l)
	}
	return n
}

// PlayCount returns the number of Play calls.
func (m *MockEngine) PlayCount() int64 { return m.playCount.Load() }

// PauseCount returns the number of Pause calls.
func (m *MockEngine) PauseCount() int64 { return m.pauseCount.Load() }

// LoadCount returns the number of Load calls.
func (m *MockEngine) LoadCount() int64 { return m.loadCount.Load() }

// UnloadCount returns the number of Unload calls.
func (m *MockEngine) UnloadCount() int64 { return m.unloadCount.Load() }

var _ core.Engine = (*MockEngine)(nil)
