// SPDX-License-Identifier: EPL-2.0

package playback

import (
	"context"
	"fmt"
	"math/rand/v2"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/ik5/audpool/internal/logging"
	"github.com/ik5/audpool/library"
	"github.com/ik5/audpool/pool"
)

// Defaults are the settings every request starts from before its modules run.
type Defaults struct {
	// VolumeVariance and PitchVariance add a uniform offset in [-v, v].
	VolumeVariance float64
	PitchVariance  float64
	// DynamicStart skips leading silence unless a request turns it off.
	DynamicStart bool
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger routes playback warnings to logger.
func WithLogger(logger *log.Logger) Option {
	return func(m *Manager) { m.env.logger = logging.Component(logger, "playback") }
}

// WithObserver reports lifecycle events to o.
func WithObserver(o Observer) Option {
	return func(m *Manager) { m.env.observer = o }
}

// WithDefaults sets the settings requests start from.
func WithDefaults(d Defaults) Option {
	return func(m *Manager) {
		m.env.defaults = settings{
			varVolume: d.VolumeVariance,
			varPitch:  d.PitchVariance,
			dynStart:  d.DynamicStart,
		}
	}
}

// WithStartTimes supplies detected start offsets for resources that have none
// stored.
func WithStartTimes(fn StartTimeFunc) Option {
	return func(m *Manager) { m.env.start = fn }
}

// WithRand seeds every random choice, for reproducible playback.
func WithRand(seed uint64) Option {
	return func(m *Manager) {
		var n uint64
		var mu sync.Mutex
		next := func() *rand.Rand {
			mu.Lock()
			defer mu.Unlock()
			n++
			return rand.New(rand.NewPCG(seed, n))
		}
		m.env.rnd = next()
		m.env.pickers = newPickers(next)
	}
}

// Manager turns requests into sequences and drives them.
type Manager struct {
	env *env

	mu        sync.Mutex
	active    []*Sequence
	timeScale float64
}

// NewManager returns a manager resolving requests against lib and drawing
// players from players.
func NewManager(lib *library.Library, players *pool.Pool[Player], opts ...Option) *Manager {
	seed := func() *rand.Rand {
		return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	m := &Manager{
		env: &env{
			lib:     lib,
			pool:    players,
			logger:  logging.Component(nil, "playback"),
			rnd:     seed(),
			pickers: newPickers(seed),
		},
		timeScale: 1,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Prepare sets up a sequence for req without starting it. The sequence holds
// a pooled player until it is played to the end or stopped.
func (m *Manager) Prepare(req Request) (*Sequence, error) {
	b := newBase(m.env)
	var method PlayMethod = &Single{base: b}
	if req.IsGroup {
		method = &GroupSequence{base: b}
	}

	seq := &Sequence{
		PlayMethod: method,
		id:         uuid.NewString(),
		req:        req,
		core:       b,
		done:       make(chan struct{}),
	}
	b.finish = func(st State) {
		m.remove(seq)
		seq.finished(st)
	}

	if err := method.Setup(req); err != nil {
		m.env.logger.Warn("request not played", "request", req.Key, "group", req.IsGroup, "err", err)
		m.env.observe(EventFailed, req.Key)
		return nil, err
	}

	m.mu.Lock()
	m.active = append(m.active, seq)
	m.mu.Unlock()
	return seq, nil
}

// Play prepares and starts req. Cancelling ctx stops the sequence.
func (m *Manager) Play(ctx context.Context, req Request) (*Sequence, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("playing %q: %w", req.Key, err)
	}

	seq, err := m.Prepare(req)
	if err != nil {
		return nil, err
	}

	if ctx.Done() != nil {
		stop := context.AfterFunc(ctx, seq.Stop)
		seq.mu.Lock()
		seq.release = stop
		seq.mu.Unlock()
	}

	if err := seq.Play(); err != nil {
		seq.Stop()
		return nil, err
	}
	return seq, nil
}

// StopAll stops every active sequence and reports how many there were.
func (m *Manager) StopAll() int {
	active := m.Active()
	for _, seq := range active {
		seq.Stop()
	}
	return len(active)
}

// SetTimeScale scales the dt passed to Tick for delays and scaled fades.
// Negative values are treated as zero.
func (m *Manager) SetTimeScale(scale float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.timeScale = max(scale, 0)
}

// Tick advances every active sequence by dt of real time: pending delays
// count down, fades progress, and players without completion events are
// polled.
func (m *Manager) Tick(dt time.Duration) {
	m.mu.Lock()
	scaled := time.Duration(float64(dt) * m.timeScale)
	active := slices.Clone(m.active)
	m.mu.Unlock()

	for _, seq := range active {
		seq.core.tick(scaled, dt)
	}
}

// Active returns the running sequences in start order.
func (m *Manager) Active() []*Sequence {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.active)
}

// ResetGroups forgets where every group's selection left off.
func (m *Manager) ResetGroups() {
	m.env.pickers.reset()
}

func (m *Manager) remove(seq *Sequence) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.active = slices.DeleteFunc(m.active, func(s *Sequence) bool { return s == seq })
}
