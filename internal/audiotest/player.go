// SPDX-License-Identifier: EPL-2.0

package audiotest

import (
	"sync"
	"time"

	"github.com/ik5/audpool/library"
)

// FakePlayer records every call a playback sequence makes. It reports the end
// of a clip only through IsPlaying, so sequences have to poll it.
type FakePlayer struct {
	mu sync.Mutex

	ID int

	res     *library.Resource
	volume  float64
	pitch   float64
	output  *library.Mixer
	start   time.Duration
	loop    bool
	length  time.Duration
	playing bool
	paused  bool

	loads, plays, stops int

	// LoadErr and PlayErr, when set, are returned by Load and Play.
	LoadErr error
	PlayErr error
}

// NewFakePlayer returns a player whose clips last length.
func NewFakePlayer(id int, length time.Duration) *FakePlayer {
	return &FakePlayer{ID: id, length: length, volume: 1, pitch: 1}
}

func (p *FakePlayer) Load(res *library.Resource) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.LoadErr != nil {
		return p.LoadErr
	}
	p.res = res
	p.loads++
	return nil
}

func (p *FakePlayer) Play() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.PlayErr != nil {
		return p.PlayErr
	}
	p.playing = true
	p.paused = false
	p.plays++
	return nil
}

func (p *FakePlayer) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.paused = true
}

func (p *FakePlayer) Resume() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.paused = false
}

func (p *FakePlayer) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.playing = false
	p.paused = false
	p.stops++
}

func (p *FakePlayer) SetVolume(v float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.volume = v
}

func (p *FakePlayer) SetPitch(v float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pitch = v
}

func (p *FakePlayer) SetOutput(m *library.Mixer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.output = m
}

func (p *FakePlayer) SetStart(d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.start = d
}

func (p *FakePlayer) SetLoop(loop bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.loop = loop
}

func (p *FakePlayer) IsPlaying() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playing
}

func (p *FakePlayer) Length() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.length
}

// Finish simulates the clip reaching its end.
func (p *FakePlayer) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.playing = false
}

// Resource returns the last loaded resource.
func (p *FakePlayer) Resource() *library.Resource {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.res
}

// Volume returns the last volume set.
func (p *FakePlayer) Volume() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.volume
}

// Pitch returns the last pitch set.
func (p *FakePlayer) Pitch() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pitch
}

// Output returns the last mixer routed to.
func (p *FakePlayer) Output() *library.Mixer {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.output
}

// Start returns the last start offset.
func (p *FakePlayer) Start() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.start
}

// Looping returns the last loop flag.
func (p *FakePlayer) Looping() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.loop
}

// Paused reports whether Pause was called without a later Resume or Play.
func (p *FakePlayer) Paused() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.paused
}

// Calls returns how many times Load, Play and Stop ran.
func (p *FakePlayer) Calls() (loads, plays, stops int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.loads, p.plays, p.stops
}

// NotifyingPlayer is a FakePlayer that also reports completion through a
// registered callback.
type NotifyingPlayer struct {
	*FakePlayer

	cbMu       sync.Mutex
	onComplete func()
	registered int
}

// NewNotifyingPlayer returns a player that supports completion callbacks.
func NewNotifyingPlayer(id int, length time.Duration) *NotifyingPlayer {
	return &NotifyingPlayer{FakePlayer: NewFakePlayer(id, length)}
}

// OnComplete replaces the completion callback. nil clears it.
func (p *NotifyingPlayer) OnComplete(fn func()) {
	p.cbMu.Lock()
	defer p.cbMu.Unlock()
	p.onComplete = fn
	if fn != nil {
		p.registered++
	}
}

// Registrations returns how many non-nil callbacks were registered.
func (p *NotifyingPlayer) Registrations() int {
	p.cbMu.Lock()
	defer p.cbMu.Unlock()
	return p.registered
}

// HasCallback reports whether a callback is currently registered.
func (p *NotifyingPlayer) HasCallback() bool {
	p.cbMu.Lock()
	defer p.cbMu.Unlock()
	return p.onComplete != nil
}

// Finish ends the clip and fires the callback, if any.
func (p *NotifyingPlayer) Finish() {
	p.FakePlayer.Finish()

	p.cbMu.Lock()
	fn := p.onComplete
	p.cbMu.Unlock()

	if fn != nil {
		fn()
	}
}
