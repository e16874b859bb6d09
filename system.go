// SPDX-License-Identifier: EPL-2.0

package audpool

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ik5/audpool/audio"
	"github.com/ik5/audpool/config"
	"github.com/ik5/audpool/detect"
	"github.com/ik5/audpool/formats"
	"github.com/ik5/audpool/host/beepout"
	"github.com/ik5/audpool/internal/logging"
	"github.com/ik5/audpool/library"
	"github.com/ik5/audpool/metrics"
	"github.com/ik5/audpool/playback"
	"github.com/ik5/audpool/pool"
)

// PlayerPoolName labels the player pool in logs and metrics.
const PlayerPoolName = "players"

// System is a fully wired playback subsystem.
type System struct {
	Config  *config.Config
	Library *library.Library
	Players *pool.Pool[playback.Player]
	Manager *playback.Manager

	// Starts memoizes detected start offsets by resource id.
	Starts *detect.Cache

	// Output is nil when players come from WithPlayerFactory.
	Output *beepout.Output

	logger   *log.Logger
	decoders *audio.Registry
}

type options struct {
	logger   *log.Logger
	registry prometheus.Registerer
	lib      *library.Library
	factory  func() (playback.Player, error)
	seed     *uint64
}

// Option configures New.
type Option func(*options)

// WithLogger replaces the logger built from the config's log level.
func WithLogger(logger *log.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithRegistry exports pool and playback metrics to registry.
func WithRegistry(registry prometheus.Registerer) Option {
	return func(o *options) { o.registry = registry }
}

// WithLibrary uses lib instead of loading the config's library path.
func WithLibrary(lib *library.Library) Option {
	return func(o *options) { o.lib = lib }
}

// WithPlayerFactory supplies players instead of the beep output.
func WithPlayerFactory(factory func() (playback.Player, error)) Option {
	return func(o *options) { o.factory = factory }
}

// WithSeed makes every random choice reproducible.
func WithSeed(seed uint64) Option {
	return func(o *options) { o.seed = &seed }
}

// New builds a System from cfg. A nil cfg uses config.Default.
func New(cfg *config.Config, opts ...Option) (*System, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	logger := o.logger
	if logger == nil {
		var err error
		if logger, err = logging.New(os.Stderr, cfg.Log.Level); err != nil {
			return nil, err
		}
	}

	s := &System{
		Config:   cfg,
		logger:   logging.Component(logger, "system"),
		decoders: formats.NewRegistry(),
		Starts:   detect.NewCache(cfg.DetectOptions(), 0, 0),
	}

	lib := o.lib
	if lib == nil {
		if cfg.Library.Path != "" {
			var err error
			if lib, err = library.LoadFile(cfg.Library.Path, library.WithLogger(logger)); err != nil {
				return nil, fmt.Errorf("loading library: %w", err)
			}
		} else {
			lib = library.New(library.WithLogger(logger))
		}
	}
	s.Library = lib

	factory := o.factory
	if factory == nil {
		s.Output = beepout.New(
			beepout.WithSampleRate(cfg.Output.SampleRate),
			beepout.WithBuffer(cfg.Buffer()),
			beepout.WithRegistry(s.decoders),
			beepout.WithLogger(logger),
		)
		factory = func() (playback.Player, error) {
			p, err := s.Output.NewPlayer()
			if err != nil {
				return nil, err
			}
			return p, nil
		}
	}

	poolOpts := []pool.Option[playback.Player]{
		pool.WithName[playback.Player](PlayerPoolName),
		pool.WithLogger[playback.Player](logger),
		pool.WithReset(func(p playback.Player) { p.Stop() }),
	}
	mgrOpts := []playback.Option{
		playback.WithLogger(logger),
		playback.WithDefaults(cfg.PlaybackDefaults()),
		playback.WithStartTimes(s.startTime),
	}
	if o.seed != nil {
		mgrOpts = append(mgrOpts, playback.WithRand(*o.seed))
	}

	if o.registry != nil {
		pm, err := metrics.NewPool(o.registry)
		if err != nil {
			return nil, fmt.Errorf("registering pool metrics: %w", err)
		}
		poolOpts = append(poolOpts, pool.WithObserver[playback.Player](pm))

		bm, err := metrics.NewPlayback(o.registry)
		if err != nil {
			return nil, fmt.Errorf("registering playback metrics: %w", err)
		}
		mgrOpts = append(mgrOpts, playback.WithObserver(bm))
	}

	players, err := pool.New(cfg.PoolConfig(), factory, poolOpts...)
	if err != nil {
		return nil, fmt.Errorf("building player pool: %w", err)
	}
	s.Players = players
	s.Manager = playback.NewManager(lib, players, mgrOpts...)

	s.logger.Debug("system ready",
		"resources", lib.Len(), "pool", cfg.Pool.InitialSize, "expand", cfg.Pool.Expand)
	return s, nil
}

// Start opens the speaker. It does nothing for custom players.
func (s *System) Start() error {
	if s.Output == nil {
		return nil
	}
	return s.Output.Init()
}

// Close stops every sequence and releases the speaker.
func (s *System) Close() {
	if n := s.Manager.StopAll(); n > 0 {
		s.logger.Debug("stopped sequences on close", "count", n)
	}
	if s.Output != nil {
		s.Output.Close()
	}
}

// startTime detects and caches where res becomes audible. Resources with an
// unreadable or silent clip report no offset.
func (s *System) startTime(res *library.Resource) (time.Duration, bool) {
	d, err := s.Starts.Lookup(res.ID, func() (*audio.Buffer, error) {
		if s.Output != nil {
			return s.Output.Clip(res)
		}
		if res.Path == "" {
			return nil, fmt.Errorf("%w: %q", beepout.ErrNoClip, res.Name())
		}
		return s.decoders.Load(res.Path)
	})
	if err != nil {
		if !errors.Is(err, detect.ErrNoOnset) {
			s.logger.Warn("start time detection failed", "resource", res.Name(), "err", err)
		}
		return 0, false
	}
	return d, true
}
