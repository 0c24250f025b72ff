package player

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/tessro/hollow/internal/audio"
	"github.com/tessro/hollow/internal/core"
	herrors "github.com/tessro/hollow/internal/errors"
	"github.com/tessro/hollow/internal/gesture"
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Track.URI = "file:///music/hollow-purple.mp3"
	return cfg
}

func mount(t *testing.T, eng *audio.MockEngine, bus *gesture.Bus, cfg Config) *Controller {
	t.Helper()
	c := New(eng, bus, cfg)
	if err := c.Mount(context.Background()); err != nil {
		t.Fatalf("Mount() error = %v", err)
	}
	t.Cleanup(c.Unmount)
	return c
}

func TestMountAppliesConfiguration(t *testing.T) {
	eng := audio.NewMockEngine(200)
	cfg := testConfig()
	cfg.Volume = 0.3
	cfg.Loop = false
	c := mount(t, eng, gesture.NewBus(), cfg)

	if eng.URI() != cfg.Track.URI {
		t.Errorf("engine URI = %q, want %q", eng.URI(), cfg.Track.URI)
	}
	if eng.Volume() != 0.3 {
		t.Errorf("engine volume = %v, want 0.3", eng.Volume())
	}
	if eng.Loop() {
		t.Error("engine loop = true, want false")
	}

	st := c.State()
	if st.IsLoaded || st.IsPlaying {
		t.Errorf("fresh session loaded=%v playing=%v, want both false", st.IsLoaded, st.IsPlaying)
	}
	if got := st.ProgressPercent(); got != 0 {
		t.Errorf("ProgressPercent() before load = %v, want 0", got)
	}
	if got := core.FormatTime(st.Duration); got != "0:00" {
		t.Errorf("FormatTime(duration) before load = %q, want 0:00", got)
	}
}

func TestMountTwice(t *testing.T) {
	c := mount(t, audio.NewMockEngine(10), gesture.NewBus(), testConfig())
	if err := c.Mount(context.Background()); !errors.Is(err, herrors.ErrAlreadyMounted) {
		t.Errorf("second Mount() error = %v, want ErrAlreadyMounted", err)
	}
}

func TestAutoplayOnReady(t *testing.T) {
	eng := audio.NewMockEngine(200)
	c := mount(t, eng, gesture.NewBus(), testConfig())

	eng.Ready()
	c.Wait()

	st := c.State()
	if !st.IsLoaded {
		t.Error("IsLoaded = false after ready")
	}
	if st.Duration != 200 {
		t.Errorf("Duration = %v, want 200", st.Duration)
	}
	if !st.IsPlaying {
		t.Error("IsPlaying = false after autoplay")
	}
}

func TestNoAutoplayWhenNotRequested(t *testing.T) {
	eng := audio.NewMockEngine(200)
	cfg := testConfig()
	cfg.Autoplay = false
	bus := gesture.NewBus()
	c := mount(t, eng, bus, cfg)

	eng.Ready()
	bus.Dispatch(gesture.Event{Kind: gesture.Click})
	c.Wait()

	if c.State().IsPlaying {
		t.Error("IsPlaying = true without autoplay")
	}
	if n := eng.PlayCount(); n != 0 {
		t.Errorf("PlayCount = %d, want 0", n)
	}
}

func TestBlockedAutoplayUnlocksOnFirstGesture(t *testing.T) {
	bus := gesture.NewBus()
	eng := audio.NewMockEngine(200, audio.MockRequireActivation(bus))
	c := mount(t, eng, bus, testConfig())

	eng.Ready()
	c.Wait()

	st := c.State()
	if st.IsPlaying {
		t.Fatal("IsPlaying = true although the engine refused autoplay")
	}
	if st.LastError == "" {
		t.Error("LastError empty after refused autoplay")
	}

	bus.Dispatch(gesture.Event{Kind: gesture.Click})
	c.Wait()

	if !c.State().IsPlaying {
		t.Fatal("IsPlaying = false after first gesture")
	}
	if n := eng.PlayCount(); n != 2 {
		t.Errorf("PlayCount = %d, want 2", n)
	}

	if err := c.TogglePlay(context.Background()); err != nil {
		t.Fatalf("TogglePlay() error = %v", err)
	}

	bus.Dispatch(gesture.Event{Kind: gesture.Click})
	bus.Dispatch(gesture.Event{Kind: gesture.KeyDown})
	c.Wait()

	if n := eng.PlayCount(); n != 2 {
		t.Errorf("PlayCount after later gestures = %d, want 2", n)
	}
	if c.State().IsPlaying {
		t.Error("later gesture restarted playback")
	}
}

func TestGestureBeforeLoadIsSpent(t *testing.T) {
	bus := gesture.NewBus()
	eng := audio.NewMockEngine(200, audio.MockRequireActivation(bus))
	c := mount(t, eng, bus, testConfig())

	bus.Dispatch(gesture.Event{Kind: gesture.TouchStart})
	c.Wait()

	for _, k := range []gesture.Kind{gesture.Click, gesture.TouchStart, gesture.KeyDown} {
		if n := bus.Len(k); n != 0 {
			t.Errorf("bus still has %d %s listeners", n, k)
		}
	}
	if n := eng.PlayCount(); n != 0 {
		t.Errorf("PlayCount = %d, want 0", n)
	}

	// Activation is sticky, so autoplay on ready now succeeds.
	eng.Ready()
	c.Wait()
	if !c.State().IsPlaying {
		t.Error("IsPlaying = false after ready with prior activation")
	}
}

func TestTogglePlayPair(t *testing.T) {
	eng := audio.NewMockEngine(200)
	cfg := testConfig()
	cfg.Autoplay = false
	c := mount(t, eng, gesture.NewBus(), cfg)
	eng.Ready()

	for _, initial := range []bool{false, true} {
		if got := c.State().IsPlaying; got != initial {
			t.Fatalf("IsPlaying = %v, want %v", got, initial)
		}
		if err := c.TogglePlay(context.Background()); err != nil {
			t.Fatalf("TogglePlay() error = %v", err)
		}
		if err := c.TogglePlay(context.Background()); err != nil {
			t.Fatalf("TogglePlay() error = %v", err)
		}
		if got := c.State().IsPlaying; got != initial {
			t.Errorf("IsPlaying after toggle pair = %v, want %v", got, initial)
		}
		if !initial {
			_ = c.TogglePlay(context.Background())
		}
	}
}

func TestPlayAndPauseAreExplicit(t *testing.T) {
	bus := gesture.NewBus()
	eng := audio.NewMockEngine(200, audio.MockRequireActivation(bus))
	c := New(eng, bus, testConfig())
	ctx := context.Background()

	if err := c.Play(ctx); !errors.Is(err, herrors.ErrNotMounted) {
		t.Errorf("Play() before Mount error = %v, want ErrNotMounted", err)
	}
	c.Pause()

	if err := c.Mount(ctx); err != nil {
		t.Fatal(err)
	}
	defer c.Unmount()
	eng.Ready()
	c.Wait()

	// The unlock gesture starts autoplay; an explicit Play on top of it
	// must leave the track playing.
	bus.Dispatch(gesture.Event{Kind: gesture.KeyDown})
	if err := c.Play(ctx); err != nil {
		t.Fatalf("Play() error = %v", err)
	}
	c.Wait()
	if !c.State().IsPlaying || eng.Paused() {
		t.Fatalf("playing=%v engine paused=%v after gesture and Play, want true false",
			c.State().IsPlaying, eng.Paused())
	}

	c.Pause()
	c.Pause()
	if c.State().IsPlaying || !eng.Paused() {
		t.Errorf("playing=%v engine paused=%v after Pause, want false true",
			c.State().IsPlaying, eng.Paused())
	}
}

func TestTogglePlayRejected(t *testing.T) {
	eng := audio.NewMockEngine(200)
	cfg := testConfig()
	cfg.Autoplay = false
	c := mount(t, eng, gesture.NewBus(), cfg)
	eng.Ready()

	decodeErr := errors.New("decode error")
	eng.RejectPlay(decodeErr)

	err := c.TogglePlay(context.Background())
	if !errors.Is(err, herrors.ErrPlaybackRejected) {
		t.Errorf("TogglePlay() error = %v, want ErrPlaybackRejected", err)
	}
	if !errors.Is(err, decodeErr) {
		t.Errorf("TogglePlay() error = %v, want it to wrap the engine error", err)
	}
	if c.State().IsPlaying {
		t.Error("IsPlaying = true after rejected play")
	}

	eng.RejectPlay(nil)
	if err := c.TogglePlay(context.Background()); err != nil {
		t.Fatalf("retry TogglePlay() error = %v", err)
	}
	st := c.State()
	if !st.IsPlaying {
		t.Error("IsPlaying = false after successful retry")
	}
	if st.LastError != "" {
		t.Errorf("LastError = %q after success, want empty", st.LastError)
	}
}

func TestToggleMute(t *testing.T) {
	eng := audio.NewMockEngine(200)
	c := mount(t, eng, gesture.NewBus(), testConfig())

	c.ToggleMute()
	if !c.State().IsMuted || !eng.Muted() {
		t.Error("mute not applied")
	}
	c.ToggleMute()
	if c.State().IsMuted || eng.Muted() {
		t.Error("unmute not applied")
	}
}

func TestSeek(t *testing.T) {
	tests := []struct {
		name     string
		fraction float64
		want     float64
	}{
		{"half", 0.5, 100},
		{"start", 0, 0},
		{"end", 1, 200},
		{"past end", 1.7, 200},
		{"negative", -0.2, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eng := audio.NewMockEngine(200)
			cfg := testConfig()
			cfg.Autoplay = false
			c := mount(t, eng, gesture.NewBus(), cfg)
			eng.Ready()
			eng.SetCurrentTime(42)

			c.Seek(tt.fraction)

			st := c.State()
			if st.CurrentTime != tt.want {
				t.Errorf("CurrentTime = %v, want %v", st.CurrentTime, tt.want)
			}
			if want := tt.want / 200 * 100; st.ProgressPercent() != want {
				t.Errorf("ProgressPercent() = %v, want %v", st.ProgressPercent(), want)
			}
		})
	}
}

func TestSeekIgnoredWithoutDuration(t *testing.T) {
	eng := audio.NewMockEngine(200)
	c := mount(t, eng, gesture.NewBus(), testConfig())

	c.Seek(0.5)
	if got := c.State().CurrentTime; got != 0 {
		t.Errorf("CurrentTime = %v, want 0", got)
	}

	eng.Ready()
	c.Wait()
	c.Seek(math.NaN())
	if got := c.State().CurrentTime; got != 0 {
		t.Errorf("CurrentTime after NaN seek = %v, want 0", got)
	}
}

func TestTimeUpdateTracksEngine(t *testing.T) {
	eng := audio.NewMockEngine(200)
	c := mount(t, eng, gesture.NewBus(), testConfig())
	eng.Ready()
	c.Wait()

	eng.Advance(50)

	st := c.State()
	if st.CurrentTime != 50 {
		t.Errorf("CurrentTime = %v, want 50", st.CurrentTime)
	}
	if st.ProgressPercent() != 25 {
		t.Errorf("ProgressPercent() = %v, want 25", st.ProgressPercent())
	}
}

func TestRestart(t *testing.T) {
	for _, playing := range []bool{false, true} {
		eng := audio.NewMockEngine(200)
		cfg := testConfig()
		cfg.Autoplay = false
		c := mount(t, eng, gesture.NewBus(), cfg)
		eng.Ready()

		if err := c.TogglePlay(context.Background()); err != nil {
			t.Fatalf("TogglePlay() error = %v", err)
		}
		eng.Advance(120)
		if !playing {
			_ = c.TogglePlay(context.Background())
		}
		plays := eng.PlayCount()

		if err := c.Restart(context.Background()); err != nil {
			t.Fatalf("Restart() error = %v", err)
		}

		st := c.State()
		if st.CurrentTime != 0 || st.ProgressPercent() != 0 {
			t.Errorf("playing=%v: after restart time=%v progress=%v, want 0", playing, st.CurrentTime, st.ProgressPercent())
		}
		if !st.IsPlaying {
			t.Errorf("playing=%v: IsPlaying = false after restart", playing)
		}
		wantPlays := plays + 1
		if playing {
			wantPlays = plays
		}
		if got := eng.PlayCount(); got != wantPlays {
			t.Errorf("playing=%v: PlayCount = %d, want %d", playing, got, wantPlays)
		}
	}
}

func TestRestartRejectedStillResets(t *testing.T) {
	eng := audio.NewMockEngine(200)
	cfg := testConfig()
	cfg.Autoplay = false
	c := mount(t, eng, gesture.NewBus(), cfg)
	eng.Ready()
	eng.SetCurrentTime(80)
	eng.RejectPlay(errors.New("blocked"))

	err := c.Restart(context.Background())
	if !errors.Is(err, herrors.ErrPlaybackRejected) {
		t.Errorf("Restart() error = %v, want ErrPlaybackRejected", err)
	}
	st := c.State()
	if st.CurrentTime != 0 {
		t.Errorf("CurrentTime = %v, want 0", st.CurrentTime)
	}
	if st.IsPlaying {
		t.Error("IsPlaying = true after rejected restart")
	}
}

func TestEndedWithoutLoop(t *testing.T) {
	eng := audio.NewMockEngine(10)
	cfg := testConfig()
	cfg.Loop = false
	c := mount(t, eng, gesture.NewBus(), cfg)
	eng.Ready()
	c.Wait()

	eng.Advance(15)

	st := c.State()
	if st.IsPlaying {
		t.Error("IsPlaying = true after the track ended")
	}
	if st.CurrentTime != 10 {
		t.Errorf("CurrentTime = %v, want 10", st.CurrentTime)
	}
}

func TestLoadFailure(t *testing.T) {
	eng := audio.NewMockEngine(10)
	c := mount(t, eng, gesture.NewBus(), testConfig())

	eng.Fail(errors.New("404 not found"))

	st := c.State()
	if st.IsLoaded {
		t.Error("IsLoaded = true after load failure")
	}
	if st.LastError == "" {
		t.Error("LastError empty after load failure")
	}
}

func TestMissingSource(t *testing.T) {
	eng := audio.NewMockEngine(10)
	cfg := DefaultConfig()
	c := mount(t, eng, gesture.NewBus(), cfg)

	if eng.LoadCount() != 0 {
		t.Error("engine loaded an empty source")
	}
	if c.State().LastError != herrors.ErrNoSource.Error() {
		t.Errorf("LastError = %q, want %q", c.State().LastError, herrors.ErrNoSource.Error())
	}
}

func TestUnmountReleasesEverything(t *testing.T) {
	eng := audio.NewMockEngine(200)
	bus := gesture.NewBus()
	c := New(eng, bus, testConfig())
	if err := c.Mount(context.Background()); err != nil {
		t.Fatal(err)
	}
	eng.Ready()
	c.Wait()

	c.Unmount()
	c.Unmount()

	if n := eng.Listeners(); n != 0 {
		t.Errorf("engine still has %d listeners", n)
	}
	if n := bus.Len(gesture.Click) + bus.Len(gesture.TouchStart) + bus.Len(gesture.KeyDown); n != 0 {
		t.Errorf("bus still has %d listeners", n)
	}
	if eng.UnloadCount() != 1 {
		t.Errorf("UnloadCount = %d, want 1", eng.UnloadCount())
	}
	if !eng.Paused() {
		t.Error("engine still playing after unmount")
	}
	if err := c.TogglePlay(context.Background()); !errors.Is(err, herrors.ErrNotMounted) {
		t.Errorf("TogglePlay() after unmount error = %v, want ErrNotMounted", err)
	}
	if err := c.Restart(context.Background()); !errors.Is(err, herrors.ErrNotMounted) {
		t.Errorf("Restart() after unmount error = %v, want ErrNotMounted", err)
	}
}

func TestNoUpdateAfterUnmount(t *testing.T) {
	bus := gesture.NewBus()
	eng := audio.NewMockEngine(200)
	release := eng.HoldPlay()
	c := New(eng, bus, testConfig())
	if err := c.Mount(context.Background()); err != nil {
		t.Fatal(err)
	}

	eng.Ready() // autoplay attempt now pending on the gate
	c.Unmount()
	release()
	c.Wait()

	st := c.State()
	if st.IsPlaying {
		t.Error("pending play attempt updated state after unmount")
	}
	if st.LastError != "" {
		t.Errorf("LastError = %q, want empty", st.LastError)
	}
}

func TestRemountStartsFreshSession(t *testing.T) {
	eng := audio.NewMockEngine(200)
	c := New(eng, gesture.NewBus(), testConfig())
	ctx := context.Background()

	if err := c.Mount(ctx); err != nil {
		t.Fatal(err)
	}
	eng.Ready()
	c.Wait()
	eng.Advance(30)
	c.Unmount()

	if err := c.Mount(ctx); err != nil {
		t.Fatalf("remount error = %v", err)
	}
	defer c.Unmount()

	st := c.State()
	if st.IsLoaded || st.IsPlaying || st.CurrentTime != 0 {
		t.Errorf("remounted state = %+v, want a fresh session", st)
	}
	if eng.LoadCount() != 2 {
		t.Errorf("LoadCount = %d, want 2", eng.LoadCount())
	}
}
