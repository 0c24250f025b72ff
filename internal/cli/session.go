package cli

import (
	"context"
	"net/url"
	"time"

	"github.com/tessro/hollow/internal/audio"
	"github.com/tessro/hollow/internal/core"
	"github.com/tessro/hollow/internal/gesture"
	"github.com/tessro/hollow/internal/player"
)

// simulatedDuration is used by --no-audio when the source cannot be probed.
const simulatedDuration = 3 * time.Minute

// playerSession wires a controller to an engine and a gesture bus.
type playerSession struct {
	ctrl   *player.Controller
	bus    *gesture.Bus
	engine core.Engine

	close func()
}

// newPlayerSession builds the engine described by the config, or a simulated
// one with --no-audio. The controller is returned unmounted.
func newPlayerSession(ctx context.Context) (*playerSession, error) {
	bus := gesture.NewBus()

	var (
		engine  core.Engine
		closeFn func()
	)
	if noAudio {
		mock, stop := newSimulatedEngine(ctx, bus)
		engine, closeFn = mock, stop
	} else {
		opts := []audio.Option{audio.WithLogger(logger.WithPrefix("audio"))}
		if cfg.Engine.GestureRequired() {
			opts = append(opts, audio.WithActivation(bus))
		}
		e, err := audio.NewEngine(engineConfig(), opts...)
		if err != nil {
			return nil, err
		}
		engine = e
		closeFn = func() { _ = e.Close() }
	}

	ctrl := player.New(engine, bus, playerConfig(), player.WithLogger(logger.WithPrefix("player")))

	return &playerSession{
		ctrl:   ctrl,
		bus:    bus,
		engine: engine,
		close:  closeFn,
	}, nil
}

// Close unmounts the controller and releases the engine.
func (s *playerSession) Close() {
	s.ctrl.Unmount()
	s.ctrl.Wait()
	s.close()
}

func newSimulatedEngine(ctx context.Context, bus *gesture.Bus) (*audio.MockEngine, func()) {
	duration := simulatedDuration
	if cfg.Player.Source != "" {
		probeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		info, err := audio.Probe(probeCtx, audio.NewHTTPClient(cfg.Engine.Retries()), cfg.Player.Source, cfg.Engine.MaxSourceSize())
		cancel()
		if err == nil {
			duration = info.Duration
		} else {
			logger.Debug("probe failed, simulating default length", "err", err)
		}
	}

	opts := []audio.MockOption{audio.MockAutoReady()}
	if cfg.Engine.GestureRequired() {
		opts = append(opts, audio.MockRequireActivation(bus))
	}
	mock := audio.NewMockEngine(duration.Seconds(), opts...)

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		mock.Run(runCtx, engineConfig().TimeUpdateInterval)
	}()

	return mock, func() {
		cancel()
		<-done
	}
}

// engineConfig maps the [engine] section onto the output engine, keeping the
// engine defaults for anything left at zero.
func engineConfig() audio.EngineConfig {
	ec := audio.DefaultEngineConfig()
	if cfg.Engine.SampleRate != 0 {
		ec.SampleRate = cfg.Engine.SampleRate
	}
	if d := cfg.Engine.BufferSize(); d > 0 {
		ec.BufferSize = d
	}
	if d := cfg.Engine.TimeUpdateInterval(); d > 0 {
		ec.TimeUpdateInterval = d
	}
	ec.HTTPRetries = cfg.Engine.Retries()
	if n := cfg.Engine.MaxSourceSize(); n > 0 {
		ec.MaxSourceSize = n
	}
	return ec
}

func playerConfig() player.Config {
	return player.Config{
		Track: core.Track{
			URI:      cfg.Player.Source,
			Title:    cfg.Player.Title,
			Artist:   cfg.Player.Artist,
			CoverArt: cfg.Player.CoverArt,
		},
		Volume:   cfg.Player.VolumeLevel(),
		Autoplay: cfg.Player.AutoplayEnabled(),
		Loop:     cfg.Player.LoopEnabled(),
	}
}

// localPath returns the filesystem path behind source, if it has one.
func localPath(source string) (string, bool) {
	if source == "" {
		return "", false
	}
	u, err := url.Parse(source)
	if err != nil || u.Scheme == "" || len(u.Scheme) == 1 {
		return source, true
	}
	if u.Scheme == "file" {
		return u.Path, true
	}
	return "", false
}
