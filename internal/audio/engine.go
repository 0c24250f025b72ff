package audio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/ebitengine/oto/v3"
	"github.com/gopxl/beep/v2"
	"github.com/tessro/hollow/internal/core"
	herrors "github.com/tessro/hollow/internal/errors"
	"github.com/tessro/hollow/internal/gesture"
)

// ErrClosed is returned by calls on a closed engine.
var ErrClosed = errors.New("audio engine is closed")

// EngineConfig contains configuration for the output engine.
type EngineConfig struct {
	SampleRate         int           // 44100 or 48000 Hz only
	BufferSize         time.Duration // device buffer
	TimeUpdateInterval time.Duration // cadence of EventTimeUpdate while playing
	HTTPRetries        int
	MaxSourceSize      int64 // bytes; sources above this fail to load
}

// DefaultEngineConfig returns the default engine configuration.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		SampleRate:         44100,
		BufferSize:         100 * time.Millisecond,
		TimeUpdateInterval: 250 * time.Millisecond,
		HTTPRetries:        3,
		MaxSourceSize:      DefaultMaxSourceSize,
	}
}

func (c EngineConfig) validate() error {
	if c.SampleRate != 44100 && c.SampleRate != 48000 {
		return fmt.Errorf("sample rate must be 44100 or 48000 Hz, got %d", c.SampleRate)
	}
	if c.BufferSize <= 0 {
		return errors.New("buffer size must be positive")
	}
	if c.TimeUpdateInterval <= 0 {
		return errors.New("time update interval must be positive")
	}
	if c.MaxSourceSize < 0 {
		return errors.New("max source size must not be negative")
	}
	return nil
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(l *log.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithActivation enables the autoplay policy: Play is refused with
// ErrNotAllowed until a reports user activation.
func WithActivation(a gesture.Activation) Option {
	return func(e *Engine) { e.activation = a }
}

// WithHTTPClient overrides the client used for http(s) sources.
func WithHTTPClient(c *http.Client) Option {
	return func(e *Engine) { e.client = c }
}

// The device context can only be created once per process.
var (
	deviceOnce sync.Once
	deviceCtx  *oto.Context
	deviceErr  error
)

func sharedDevice(cfg EngineConfig) (*oto.Context, error) {
	deviceOnce.Do(func() {
		op := &oto.NewContextOptions{
			SampleRate:   cfg.SampleRate,
			ChannelCount: 2,
			Format:       oto.FormatFloat32LE,
			BufferSize:   cfg.BufferSize,
		}
		ctx, ready, err := oto.NewContext(op)
		if err != nil {
			deviceErr = fmt.Errorf("%w: %w", herrors.ErrNoAudioDevice, err)
			return
		}
		<-ready
		deviceCtx = ctx
	})
	return deviceCtx, deviceErr
}

// Engine implements core.Engine on the local audio device.
type Engine struct {
	cfg        EngineConfig
	rate       beep.SampleRate
	logger     *log.Logger
	client     *http.Client
	activation gesture.Activation

	mu         sync.Mutex
	gen        int
	loadCancel context.CancelFunc
	player     *oto.Player
	stream     *pcmStream
	volume     float64
	muted      bool
	loop       bool
	paused     bool
	closed     bool

	lmu       sync.Mutex
	listeners map[core.EventType][]listener
	nextID    int

	events    chan queuedEvent
	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// queuedEvent is an event stamped with the load generation it belongs to.
type queuedEvent struct {
	gen int
	ev  core.Event
}

type listener struct {
	id int
	fn func(core.Event)
}

// NewEngine creates an engine. The audio device is opened on the first
// successful load.
func NewEngine(cfg EngineConfig, opts ...Option) (*Engine, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	e := &Engine{
		cfg:       cfg,
		rate:      beep.SampleRate(cfg.SampleRate),
		logger:    log.New(io.Discard),
		volume:    1,
		paused:    true,
		listeners: make(map[core.EventType][]listener),
		events:    make(chan queuedEvent, 64),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.client == nil {
		e.client = NewHTTPClient(cfg.HTTPRetries)
	}

	e.wg.Add(2)
	go e.dispatch()
	go e.clock()

	return e, nil
}

// Close releases the resource and stops event delivery.
func (e *Engine) Close() error {
	e.Unload()

	e.mu.Lock()
	e.closed = true
	e.mu.Unlock()

	e.closeOnce.Do(func() { close(e.done) })
	e.wg.Wait()
	return nil
}

// dispatch delivers events one at a time, in order. Events from a load that
// has since been replaced or unloaded are dropped.
func (e *Engine) dispatch() {
	defer e.wg.Done()
	for {
		select {
		case <-e.done:
			return
		case q := <-e.events:
			e.mu.Lock()
			stale := q.gen != e.gen
			e.mu.Unlock()
			if stale {
				continue
			}

			ev := q.ev
			e.lmu.Lock()
			list := make([]listener, len(e.listeners[ev.Type]))
			copy(list, e.listeners[ev.Type])
			e.lmu.Unlock()

			for _, l := range list {
				l.fn(ev)
			}
		}
	}
}

// post queues ev for delivery on behalf of load generation gen. Time updates
// are dropped rather than queued behind a slow listener.
func (e *Engine) post(gen int, ev core.Event) {
	q := queuedEvent{gen: gen, ev: ev}
	if ev.Type == core.EventTimeUpdate {
		select {
		case e.events <- q:
		default:
		}
		return
	}
	select {
	case e.events <- q:
	case <-e.done:
	}
}

// clock reports progress while playing and detects the end of the track.
func (e *Engine) clock() {
	defer e.wg.Done()
	ticker := time.NewTicker(e.cfg.TimeUpdateInterval)
	defer ticker.Stop()

	for {
		select {
		case <-e.done:
			return
		case <-ticker.C:
			e.mu.Lock()
			if e.player == nil || e.paused {
				e.mu.Unlock()
				continue
			}
			gen := e.gen
			ended := e.stream.Ended() && e.player.BufferedSize() == 0
			if ended {
				e.player.Pause()
				e.paused = true
			}
			e.mu.Unlock()

			e.post(gen, core.Event{Type: core.EventTimeUpdate})
			if ended {
				e.post(gen, core.Event{Type: core.EventPause})
				e.post(gen, core.Event{Type: core.EventEnded})
			}
		}
	}
}

func (e *Engine) Load(ctx context.Context, uri string) error {
	if uri == "" {
		return herrors.ErrNoSource
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrClosed
	}
	e.unloadLocked()
	e.gen++
	gen := e.gen
	lctx, cancel := context.WithCancel(ctx)
	e.loadCancel = cancel
	e.mu.Unlock()

	go e.load(lctx, gen, uri)
	return nil
}

func (e *Engine) load(ctx context.Context, gen int, uri string) {
	start := time.Now()

	stream, err := e.open(ctx, uri)
	if err != nil {
		if ctx.Err() == nil {
			e.post(gen, core.Event{Type: core.EventError, Err: err})
		}
		return
	}

	device, err := sharedDevice(e.cfg)
	if err != nil {
		_ = stream.Close()
		e.post(gen, core.Event{Type: core.EventError, Err: err})
		return
	}
	player := device.NewPlayer(stream)

	e.mu.Lock()
	if gen != e.gen || e.closed {
		e.mu.Unlock()
		_ = player.Close()
		_ = stream.Close()
		return
	}
	stream.SetLoop(e.loop)
	player.SetVolume(e.effectiveVolume())
	e.player = player
	e.stream = stream
	e.paused = true
	e.mu.Unlock()

	e.logger.Debug("source buffered", "uri", uri, "duration", stream.Duration(), "took", time.Since(start))
	e.post(gen, core.Event{Type: core.EventCanPlayThrough})
}

func (e *Engine) open(ctx context.Context, uri string) (*pcmStream, error) {
	media, err := Fetch(ctx, e.client, uri, e.cfg.MaxSourceSize)
	if err != nil {
		return nil, err
	}
	e.logger.Debug("source fetched", "uri", uri, "mime", media.MIME, "size", humanize.Bytes(uint64(media.Size())))

	src, format, err := Decode(media)
	if err != nil {
		return nil, err
	}
	return newPCMStream(src, format, e.rate), nil
}

func (e *Engine) Unload() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.unloadLocked()
	e.gen++
}

func (e *Engine) unloadLocked() {
	if e.loadCancel != nil {
		e.loadCancel()
		e.loadCancel = nil
	}
	if e.player != nil {
		e.player.Pause()
		_ = e.player.Close()
		e.player = nil
	}
	if e.stream != nil {
		_ = e.stream.Close()
		e.stream = nil
	}
	e.paused = true
}

func (e *Engine) SetVolume(v float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.volume = math.Max(0, math.Min(1, v))
	e.applyVolumeLocked()
}

func (e *Engine) SetMuted(muted bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.muted = muted
	e.applyVolumeLocked()
}

func (e *Engine) Muted() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.muted
}

func (e *Engine) effectiveVolume() float64 {
	if e.muted {
		return 0
	}
	return e.volume
}

func (e *Engine) applyVolumeLocked() {
	if e.player != nil {
		e.player.SetVolume(e.effectiveVolume())
	}
}

func (e *Engine) SetLoop(loop bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.loop = loop
	if e.stream != nil {
		e.stream.SetLoop(loop)
	}
}

func (e *Engine) Play(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	e.mu.Lock()
	switch {
	case e.closed:
		e.mu.Unlock()
		return ErrClosed
	case e.activation != nil && !e.activation.HasBeenActive():
		e.mu.Unlock()
		return herrors.ErrNotAllowed
	case e.player == nil:
		e.mu.Unlock()
		return herrors.ErrNotLoaded
	}

	// Playing an ended track starts it over.
	if e.stream.Ended() {
		if _, err := e.player.Seek(0, io.SeekStart); err != nil {
			e.mu.Unlock()
			return fmt.Errorf("rewind: %w", err)
		}
	}
	wasPaused := e.paused
	e.player.Play()
	e.paused = false
	gen := e.gen
	e.mu.Unlock()

	if wasPaused {
		e.post(gen, core.Event{Type: core.EventPlay})
	}
	return nil
}

func (e *Engine) Pause() {
	e.mu.Lock()
	if e.player == nil || e.paused {
		e.mu.Unlock()
		return
	}
	e.player.Pause()
	e.paused = true
	gen := e.gen
	e.mu.Unlock()

	e.post(gen, core.Event{Type: core.EventPause})
}

func (e *Engine) Paused() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.paused
}

func (e *Engine) SetCurrentTime(seconds float64) {
	if math.IsNaN(seconds) {
		return
	}

	e.mu.Lock()
	if e.player == nil {
		e.mu.Unlock()
		return
	}
	total := e.stream.Duration()
	d := time.Duration(seconds * float64(time.Second))
	d = max(0, min(d, total))
	if _, err := e.player.Seek(e.stream.byteOffset(d), io.SeekStart); err != nil {
		e.logger.Warn("seek failed", "to", d, "err", err)
	}
	gen := e.gen
	e.mu.Unlock()

	e.post(gen, core.Event{Type: core.EventTimeUpdate})
}

func (e *Engine) CurrentTime() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.player == nil {
		return 0
	}
	buffered := e.rate.D(e.player.BufferedSize() / frameBytes)
	pos := e.stream.Position() - buffered
	if pos < 0 {
		pos = 0
	}
	return pos.Seconds()
}

func (e *Engine) Duration() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stream == nil {
		return math.NaN()
	}
	return e.stream.Duration().Seconds()
}

func (e *Engine) On(t core.EventType, fn func(core.Event)) func() {
	e.lmu.Lock()
	defer e.lmu.Unlock()
	e.nextID++
	id := e.nextID
	e.listeners[t] = append(e.listeners[t], listener{id: id, fn: fn})

	return func() {
		e.lmu.Lock()
		defer e.lmu.Unlock()
		list := e.listeners[t]
		for i, l := range list {
			if l.id == id {
				e.listeners[t] = append(list[:i:i], list[i+1:]...)
				return
			}
		}
	}
}

var _ core.Engine = (*Engine)(nil)
