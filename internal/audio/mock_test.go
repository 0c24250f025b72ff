package audio

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/tessro/hollow/internal/core"
	herrors "github.com/tessro/hollow/internal/errors"
	"github.com/tessro/hollow/internal/gesture"
)

func record(m *MockEngine) *[]core.EventType {
	var got []core.EventType
	for _, t := range []core.EventType{
		core.EventCanPlayThrough, core.EventTimeUpdate, core.EventPlay,
		core.EventPause, core.EventEnded, core.EventError,
	} {
		m.On(t, func(e core.Event) { got = append(got, e.Type) })
	}
	return &got
}

func TestMockEngineLifecycle(t *testing.T) {
	m := NewMockEngine(10)
	got := record(m)
	ctx := context.Background()

	if err := m.Play(ctx); !errors.Is(err, herrors.ErrNotLoaded) {
		t.Fatalf("Play() before load error = %v, want ErrNotLoaded", err)
	}
	if !math.IsNaN(m.Duration()) {
		t.Errorf("Duration() before ready = %v, want NaN", m.Duration())
	}

	_ = m.Load(ctx, "theme.wav")
	m.Ready()
	if err := m.Play(ctx); err != nil {
		t.Fatalf("Play() error = %v", err)
	}
	// A second Play while playing reports nothing new.
	_ = m.Play(ctx)
	m.Advance(4)
	m.Pause()
	m.Pause()

	want := []core.EventType{core.EventCanPlayThrough, core.EventPlay, core.EventTimeUpdate, core.EventPause}
	if len(*got) != len(want) {
		t.Fatalf("events = %v, want %v", *got, want)
	}
	for i := range want {
		if (*got)[i] != want[i] {
			t.Errorf("event %d = %v, want %v", i, (*got)[i], want[i])
		}
	}
	if m.CurrentTime() != 4 {
		t.Errorf("CurrentTime() = %v, want 4", m.CurrentTime())
	}
}

func TestMockEngineEndAndLoop(t *testing.T) {
	ctx := context.Background()

	m := NewMockEngine(10, MockAutoReady())
	got := record(m)
	_ = m.Load(ctx, "theme.wav")
	_ = m.Play(ctx)
	m.Advance(12)
	if !m.Paused() || m.CurrentTime() != 10 {
		t.Errorf("after end: paused=%v current=%v, want true 10", m.Paused(), m.CurrentTime())
	}
	if last := (*got)[len(*got)-1]; last != core.EventEnded {
		t.Errorf("last event = %v, want ended", last)
	}

	l := NewMockEngine(10, MockAutoReady())
	_ = l.Load(ctx, "theme.wav")
	l.SetLoop(true)
	_ = l.Play(ctx)
	l.Advance(12)
	if l.Paused() || l.CurrentTime() != 2 {
		t.Errorf("looping: paused=%v current=%v, want false 2", l.Paused(), l.CurrentTime())
	}
}

func TestMockEngineActivation(t *testing.T) {
	bus := gesture.NewBus()
	m := NewMockEngine(10, MockAutoReady(), MockRequireActivation(bus))
	ctx := context.Background()
	_ = m.Load(ctx, "theme.wav")

	if err := m.Play(ctx); !errors.Is(err, herrors.ErrNotAllowed) {
		t.Fatalf("Play() before activation error = %v, want ErrNotAllowed", err)
	}
	bus.Dispatch(gesture.Event{Kind: gesture.KeyDown})
	if err := m.Play(ctx); err != nil {
		t.Errorf("Play() after activation error = %v", err)
	}
}

func TestMockEngineHoldPlay(t *testing.T) {
	m := NewMockEngine(10, MockAutoReady())
	_ = m.Load(context.Background(), "theme.wav")
	release := m.HoldPlay()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := m.Play(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("held Play() with canceled ctx error = %v, want context.Canceled", err)
	}

	done := make(chan error, 1)
	go func() { done <- m.Play(context.Background()) }()
	release()
	if err := <-done; err != nil {
		t.Errorf("released Play() error = %v", err)
	}
}

func TestMockEngineListenerCancel(t *testing.T) {
	m := NewMockEngine(10)
	calls := 0
	cancel := m.On(core.EventCanPlayThrough, func(core.Event) { calls++ })
	if m.Listeners() != 1 {
		t.Fatalf("Listeners() = %d, want 1", m.Listeners())
	}
	cancel()
	cancel()
	m.Ready()
	if calls != 0 || m.Listeners() != 0 {
		t.Errorf("calls=%d listeners=%d after cancel, want 0 0", calls, m.Listeners())
	}
}
