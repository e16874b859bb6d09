// SPDX-License-Identifier: EPL-2.0

// Package beepout plays library resources through github.com/gopxl/beep.
//
// An Output owns the master mixer and one sub-mixer per library mixer
// target. Players created by an Output decode their clips through an
// audio.Registry, cache the decoded buffers, and implement
// playback.Player and playback.CompletionNotifier.
package beepout

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/speaker"

	"github.com/ik5/audpool/audio"
	"github.com/ik5/audpool/formats"
	"github.com/ik5/audpool/internal/logging"
	"github.com/ik5/audpool/library"
)

const (
	// DefaultSampleRate is the output rate used when none is configured.
	DefaultSampleRate = 48000
	// DefaultBuffer is the speaker buffer length used when none is configured.
	DefaultBuffer = 100 * time.Millisecond
)

// Option configures an Output.
type Option func(*Output)

// WithSampleRate sets the output rate in Hz.
func WithSampleRate(rate int) Option {
	return func(o *Output) {
		if rate > 0 {
			o.rate = beep.SampleRate(rate)
		}
	}
}

// WithBuffer sets the speaker buffer length.
func WithBuffer(d time.Duration) Option {
	return func(o *Output) {
		if d > 0 {
			o.buffer = d
		}
	}
}

// WithRegistry replaces the decoder registry.
func WithRegistry(r *audio.Registry) Option {
	return func(o *Output) { o.decoders = r }
}

// WithLogger routes output warnings to logger.
func WithLogger(logger *log.Logger) Option {
	return func(o *Output) { o.logger = logging.Component(logger, "beep") }
}

type bus struct {
	mixer *beep.Mixer
	vol   *effects.Volume
}

// Output is the host side of playback.
type Output struct {
	rate     beep.SampleRate
	buffer   time.Duration
	decoders *audio.Registry
	logger   *log.Logger

	master *beep.Mixer

	// audioMu serializes mixer state when the speaker is not running.
	audioMu sync.Mutex
	speaker bool

	mu    sync.RWMutex
	clips map[string]*audio.Buffer
	buses map[string]*bus
	next  int
}

// New returns an output that is silent until Init is called. Until then
// Render pulls samples manually.
func New(opts ...Option) *Output {
	o := &Output{
		rate:     DefaultSampleRate,
		buffer:   DefaultBuffer,
		decoders: formats.NewRegistry(),
		logger:   logging.Component(nil, "beep"),
		master:   &beep.Mixer{},
		clips:    make(map[string]*audio.Buffer),
		buses:    make(map[string]*bus),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Init opens the speaker and starts streaming the master mixer.
func (o *Output) Init() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.speaker {
		return nil
	}
	if err := speaker.Init(o.rate, o.rate.N(o.buffer)); err != nil {
		return fmt.Errorf("initializing speaker: %w", err)
	}
	speaker.Play(keepAlive{o.master})
	o.speaker = true
	o.logger.Debug("speaker started", "rate", int(o.rate), "buffer", o.buffer)
	return nil
}

// Close silences everything and releases the speaker.
func (o *Output) Close() {
	unlock := o.lock()
	o.master.Clear()
	unlock()

	o.mu.Lock()
	defer o.mu.Unlock()
	clear(o.buses)
	if o.speaker {
		speaker.Close()
		o.speaker = false
	}
}

// SampleRate returns the output rate in Hz.
func (o *Output) SampleRate() int { return int(o.rate) }

// Render streams n frames from the master mixer. It is only meaningful
// before Init, for offline rendering and tests.
func (o *Output) Render(n int) [][2]float64 {
	out := make([][2]float64, n)
	defer o.lock()()
	got, _ := o.master.Stream(out)
	clear(out[got:])
	return out
}

// lock takes the lock the mixers are streamed under and returns its release.
func (o *Output) lock() (unlock func()) {
	o.mu.RLock()
	sp := o.speaker
	o.mu.RUnlock()
	if sp {
		speaker.Lock()
		return speaker.Unlock
	}
	o.audioMu.Lock()
	return o.audioMu.Unlock
}

// AddClip registers a decoded buffer under a resource id, so Load does not
// read the resource's path.
func (o *Output) AddClip(id string, buf *audio.Buffer) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.clips[id] = buf
}

// Clip returns the decoded buffer for res, decoding and caching it on first use.
func (o *Output) Clip(res *library.Resource) (*audio.Buffer, error) {
	o.mu.RLock()
	buf, ok := o.clips[res.ID]
	o.mu.RUnlock()
	if ok {
		return buf, nil
	}
	if res.Path == "" {
		return nil, fmt.Errorf("%w: %q", ErrNoClip, res.Name())
	}

	buf, err := o.decoders.Load(res.Path)
	if err != nil {
		return nil, fmt.Errorf("decoding %q: %w", res.Name(), err)
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if cached, ok := o.clips[res.ID]; ok {
		return cached, nil
	}
	o.clips[res.ID] = buf
	return buf, nil
}

// Forget drops a cached clip.
func (o *Output) Forget(id string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.clips, id)
}

// NewPlayer returns a player bound to this output. It matches the factory
// signature pool.New expects.
func (o *Output) NewPlayer() (*Player, error) {
	o.mu.Lock()
	o.next++
	id := o.next
	o.mu.Unlock()

	return &Player{out: o, id: id, volume: 1, pitch: 1}, nil
}

// target returns the mixer a player routed to m streams into.
func (o *Output) target(m *library.Mixer) *beep.Mixer {
	if m == nil {
		return o.master
	}
	name := m.Handle
	if name == "" {
		name = m.Key
	}

	o.mu.Lock()
	b, ok := o.buses[name]
	if !ok {
		b = &bus{mixer: &beep.Mixer{}}
		b.vol = &effects.Volume{Streamer: keepAlive{b.mixer}, Base: 2}
		o.buses[name] = b
	}
	o.mu.Unlock()

	unlock := o.lock()
	setGain(b.vol, m.Volume)
	if !ok {
		o.master.Add(b.vol)
	}
	unlock()
	return b.mixer
}

// setGain sets a linear gain on v. Callers hold the audio lock.
func setGain(v *effects.Volume, gain float64) {
	v.Silent = gain <= 0
	if !v.Silent {
		v.Volume = math.Log2(gain)
	}
}
