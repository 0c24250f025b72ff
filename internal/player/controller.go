// Package player keeps a playback session in step with the media engine that
// plays it.
//
// The engine is the source of truth: commands only request transitions, and
// the state a shell renders is whatever the engine last reported or accepted.
package player

import (
	"context"
	"fmt"
	"io"
	"math"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/tessro/hollow/internal/core"
	herrors "github.com/tessro/hollow/internal/errors"
	"github.com/tessro/hollow/internal/gesture"
)

// Config is what the shell supplies when it creates a controller.
type Config struct {
	Track    core.Track
	Volume   float64
	Autoplay bool
	Loop     bool
}

// DefaultConfig returns the settings used when the shell supplies none.
func DefaultConfig() Config {
	return Config{
		Track: core.Track{
			Title:    "Hollow Purple Theme",
			Artist:   "JJK Collection",
			CoverArt: "/album-cover.jpg",
		},
		Volume:   0.5,
		Autoplay: true,
		Loop:     true,
	}
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger used for diagnostics.
func WithLogger(l *log.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// Controller owns one media resource for as long as it is mounted.
type Controller struct {
	engine   core.Engine
	gestures gesture.Source
	cfg      Config
	logger   *log.Logger

	mu    sync.Mutex
	sess  *session
	state core.PlaybackState

	// play attempts started from engine or gesture callbacks
	inflight sync.WaitGroup
}

// session is the token for one Mount..Unmount span.
type session struct {
	cancels []func()
	unlock  gesture.Subscription
}

// New creates an unmounted controller.
func New(engine core.Engine, gestures gesture.Source, cfg Config, opts ...Option) *Controller {
	cfg.Volume = clamp01(cfg.Volume)

	c := &Controller{
		engine:   engine,
		gestures: gestures,
		cfg:      cfg,
		logger:   log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.state = c.initialState()
	return c
}

func (c *Controller) initialState() core.PlaybackState {
	track := c.cfg.Track
	return core.PlaybackState{
		Track:    &track,
		Volume:   c.cfg.Volume,
		Loop:     c.cfg.Loop,
		Autoplay: c.cfg.Autoplay,
		Duration: math.NaN(),
	}
}

// State returns a snapshot of the current session.
func (c *Controller) State() core.PlaybackState {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.state
	if s.Track != nil {
		track := *s.Track
		s.Track = &track
	}
	return s
}

// Mounted reports whether a session is active.
func (c *Controller) Mounted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sess != nil
}

// Mount starts a session: it binds the engine to the configured source,
// applies volume and loop, and registers for engine and gesture
// notifications. Load failures are recorded in the state, not returned.
func (c *Controller) Mount(ctx context.Context) error {
	c.mu.Lock()
	if c.sess != nil {
		c.mu.Unlock()
		return herrors.ErrAlreadyMounted
	}
	s := &session{}
	c.sess = s
	c.state = c.initialState()
	c.mu.Unlock()

	on := func(t core.EventType, fn func(*session, core.Event)) {
		s.cancels = append(s.cancels, c.engine.On(t, func(e core.Event) { fn(s, e) }))
	}
	on(core.EventCanPlayThrough, c.handleCanPlayThrough)
	on(core.EventTimeUpdate, c.handleTimeUpdate)
	on(core.EventPlay, c.handlePlayState)
	on(core.EventPause, c.handlePlayState)
	on(core.EventEnded, c.handlePlayState)
	on(core.EventError, c.handleError)

	if c.gestures != nil {
		s.unlock = gesture.Once(c.gestures, func(gesture.Event) { c.handleGesture(s) },
			gesture.Click, gesture.TouchStart, gesture.KeyDown)
	}

	c.engine.SetVolume(c.cfg.Volume)
	c.engine.SetLoop(c.cfg.Loop)
	c.engine.SetMuted(false)

	if c.cfg.Track.URI == "" {
		c.recordError(s, herrors.ErrNoSource)
		return nil
	}

	c.logger.Debug("binding source", "uri", c.cfg.Track.URI)
	if err := c.engine.Load(ctx, c.cfg.Track.URI); err != nil {
		c.recordError(s, fmt.Errorf("load %s: %w", c.cfg.Track.URI, err))
	}
	return nil
}

// Unmount ends the session. Every registration is removed, playback stops and
// the engine releases the resource. Results of play attempts still in flight
// are discarded when they arrive.
func (c *Controller) Unmount() {
	c.mu.Lock()
	s := c.sess
	c.sess = nil
	if s != nil {
		c.state.IsPlaying = false
	}
	c.mu.Unlock()

	if s == nil {
		return
	}

	for _, cancel := range s.cancels {
		cancel()
	}
	if s.unlock != nil {
		s.unlock.Cancel()
	}
	c.engine.Pause()
	c.engine.Unload()
	c.logger.Debug("session closed")
}

// Wait blocks until play attempts started by callbacks have settled.
func (c *Controller) Wait() {
	c.inflight.Wait()
}

// TogglePlay pauses when playing and requests playback otherwise. A refused
// request leaves IsPlaying unchanged and returns an error wrapping
// ErrPlaybackRejected.
func (c *Controller) TogglePlay(ctx context.Context) error {
	c.mu.Lock()
	s := c.sess
	playing := c.state.IsPlaying
	c.mu.Unlock()

	if s == nil {
		return herrors.ErrNotMounted
	}

	if playing {
		c.pause(s)
		return nil
	}
	return c.attemptPlay(ctx, s, "toggle")
}

// Play requests playback whatever the current state. Playing an already
// playing track succeeds without effect. Failures match TogglePlay.
func (c *Controller) Play(ctx context.Context) error {
	c.mu.Lock()
	s := c.sess
	c.mu.Unlock()

	if s == nil {
		return herrors.ErrNotMounted
	}
	return c.attemptPlay(ctx, s, "play")
}

// Pause stops playback. It does nothing when not mounted.
func (c *Controller) Pause() {
	c.mu.Lock()
	s := c.sess
	c.mu.Unlock()

	if s != nil {
		c.pause(s)
	}
}

func (c *Controller) pause(s *session) {
	c.engine.Pause()
	c.update(s, func(st *core.PlaybackState) { st.IsPlaying = false })
}

// ToggleMute flips the engine's mute flag.
func (c *Controller) ToggleMute() {
	if !c.Mounted() {
		return
	}
	muted := !c.engine.Muted()
	c.engine.SetMuted(muted)

	c.mu.Lock()
	c.state.IsMuted = muted
	c.mu.Unlock()
}

// Seek moves the cursor to fraction of the track. fraction is clamped to
// [0,1]; the call does nothing until the duration is known. CurrentTime
// follows on the engine's next time update.
func (c *Controller) Seek(fraction float64) {
	if !c.Mounted() || math.IsNaN(fraction) {
		return
	}
	d := c.engine.Duration()
	if !(d > 0) || math.IsInf(d, 0) {
		return
	}
	c.engine.SetCurrentTime(clamp01(fraction) * d)
}

// Restart rewinds to the start and, if paused, requests playback. The cursor
// is reset locally even if the play request is refused.
func (c *Controller) Restart(ctx context.Context) error {
	c.mu.Lock()
	s := c.sess
	c.mu.Unlock()
	if s == nil {
		return herrors.ErrNotMounted
	}

	c.engine.SetCurrentTime(0)

	var playing bool
	c.update(s, func(st *core.PlaybackState) {
		st.CurrentTime = 0
		playing = st.IsPlaying
	})

	if playing {
		return nil
	}
	return c.attemptPlay(ctx, s, "restart")
}

// attemptPlay asks the engine to play and applies the outcome to s, unless s
// has been unmounted in the meantime.
func (c *Controller) attemptPlay(ctx context.Context, s *session, trigger string) error {
	err := c.engine.Play(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sess != s {
		c.logger.Debug("dropping play result for closed session", "trigger", trigger)
		return nil
	}
	if err != nil {
		c.state.LastError = err.Error()
		c.logger.Warn("audio playback failed", "trigger", trigger, "err", err)
		return fmt.Errorf("%w: %w", herrors.ErrPlaybackRejected, err)
	}
	c.state.IsPlaying = true
	c.state.LastError = ""
	return nil
}

// playAsync runs attemptPlay off the callback goroutine.
func (c *Controller) playAsync(s *session, trigger string) {
	c.inflight.Add(1)
	go func() {
		defer c.inflight.Done()
		_ = c.attemptPlay(context.Background(), s, trigger)
	}()
}

func (c *Controller) handleCanPlayThrough(s *session, _ core.Event) {
	d := c.engine.Duration()

	var autoplay bool
	if !c.update(s, func(st *core.PlaybackState) {
		st.IsLoaded = true
		st.Duration = d
		st.LastError = ""
		autoplay = st.Autoplay
	}) {
		return
	}

	c.logger.Debug("source ready", "duration", core.FormatTime(d))
	if autoplay {
		c.playAsync(s, "autoplay")
	}
}

func (c *Controller) handleTimeUpdate(s *session, _ core.Event) {
	t := c.engine.CurrentTime()
	c.update(s, func(st *core.PlaybackState) { st.CurrentTime = t })
}

func (c *Controller) handlePlayState(s *session, e core.Event) {
	playing := e.Type == core.EventPlay
	c.update(s, func(st *core.PlaybackState) { st.IsPlaying = playing })
}

func (c *Controller) handleError(s *session, e core.Event) {
	c.recordError(s, e.Err)
}

func (c *Controller) handleGesture(s *session) {
	var ready bool
	c.update(s, func(st *core.PlaybackState) {
		ready = st.IsLoaded && st.Autoplay && !st.IsPlaying
	})
	if ready {
		c.logger.Debug("user gesture unlocked autoplay")
		c.playAsync(s, "gesture")
	}
}

func (c *Controller) recordError(s *session, err error) {
	if err == nil {
		return
	}
	if c.update(s, func(st *core.PlaybackState) { st.LastError = err.Error() }) {
		c.logger.Error("audio source unavailable", "err", err)
	}
}

// update applies fn to the state if s is still the active session.
func (c *Controller) update(s *session, fn func(*core.PlaybackState)) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sess != s {
		return false
	}
	fn(&c.state)
	return true
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v) || v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
