// SPDX-License-Identifier: EPL-2.0

package playback

import (
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/ik5/audpool/library"
	"github.com/ik5/audpool/pool"
	"github.com/ik5/audpool/transition"
	"github.com/ik5/audpool/utils"
)

// minPitch keeps variance from stopping or reversing a clip.
const minPitch = 0.01

// PlayMethod is the state machine behind a Sequence. Setup binds a request to
// a pooled player; the other methods drive it.
type PlayMethod interface {
	Setup(req Request) error
	Play() error
	Pause() error
	Resume() error
	Stop()
	OnLoop() error
	State() State
}

// StartTimeFunc returns a resource's detected start offset, or false when
// none is known.
type StartTimeFunc func(res *library.Resource) (time.Duration, bool)

// env is what play methods share with their Manager.
type env struct {
	lib      *library.Library
	pool     *pool.Pool[Player]
	logger   *log.Logger
	observer Observer
	defaults settings
	start    StartTimeFunc
	pickers  *pickers

	rndMu sync.Mutex
	rnd   *rand.Rand
}

func (e *env) pick(r library.Range, variance float64) float64 {
	e.rndMu.Lock()
	defer e.rndMu.Unlock()

	v := r.Pick(e.rnd)
	if variance > 0 {
		v += (e.rnd.Float64()*2 - 1) * variance
	}
	return v
}

func (e *env) observe(ev Event, key string) {
	if e.observer != nil {
		e.observer.ObservePlayback(ev, key)
	}
}

type fadeState struct {
	fade      transition.Fade
	unscaled  bool
	elapsed   time.Duration
	stopAtEnd bool
}

// base implements the lifecycle shared by Single and GroupSequence.
//
// Lock order: base.mu, then the pool, then the Manager. Player methods are
// called with base.mu held.
type base struct {
	env *env

	mu      sync.Mutex
	state   State
	req     Request
	cfg     settings
	player  Player
	res     *library.Resource
	mixer   *library.Mixer
	volume  float64
	pitch   float64
	gain    float64
	fade    *fadeState
	delay   time.Duration
	started bool
	gen     uint64

	// advance picks the resource played after a loop. nil repeats res.
	advance func() (*library.Resource, error)
	// finish runs once when the sequence reaches a terminal state.
	finish func(State)
}

func newBase(e *env) *base {
	return &base{env: e, gain: 1}
}

// setup resolves the request, applies its modules and binds a pool member.
// Nothing is allocated when resolution fails.
func (b *base) setup(req Request, resolve func() (*library.Resource, error)) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state != Idle || b.player != nil {
		return fmt.Errorf("%w: setup in state %s", ErrInvalidState, b.state)
	}
	if req.Key == "" {
		return setupError(req, ErrEmptyRequest)
	}

	cfg := b.env.defaults
	if err := applyModules(&cfg, req.Modules); err != nil {
		return setupError(req, err)
	}

	res, err := resolve()
	if err != nil {
		return setupError(req, err)
	}

	mixerKey := cfg.mixer
	if mixerKey == "" {
		mixerKey = res.Mixer
	}
	var mixer *library.Mixer
	if mixerKey != "" {
		if mixer, err = b.env.lib.ResolveMixer(mixerKey); err != nil {
			return setupError(req, err)
		}
	}

	player, err := b.env.pool.Assign()
	if err != nil {
		return setupError(req, err)
	}

	b.req = req
	b.cfg = cfg
	b.player = player
	b.mixer = mixer
	b.delay = cfg.delay
	if req.Transition != nil {
		b.gain = 0
		b.fade = &fadeState{
			fade:     req.Transition.Fade(0, 1),
			unscaled: req.Transition.Unscaled(),
		}
	}

	if err := b.load(res); err != nil {
		b.releaseLocked()
		b.player = nil
		return setupError(req, err)
	}
	return nil
}

// load binds res to the player with freshly picked volume and pitch.
func (b *base) load(res *library.Resource) error {
	if err := b.player.Load(res); err != nil {
		return fmt.Errorf("loading %q: %w", res.Name(), err)
	}
	b.res = res

	volRange := res.Volume
	if b.cfg.volume != nil {
		volRange = *b.cfg.volume
	}
	pitchRange := res.Pitch
	if b.cfg.pitch != nil {
		pitchRange = *b.cfg.pitch
	}
	b.volume = max(b.env.pick(volRange, b.cfg.varVolume), 0)
	b.pitch = max(b.env.pick(pitchRange, b.cfg.varPitch), minPitch)

	b.player.SetVolume(b.volume * b.gain)
	b.player.SetPitch(b.pitch)
	b.player.SetOutput(b.mixer)
	b.player.SetStart(b.startOffset(res))
	b.player.SetLoop(b.advance == nil && b.looping())
	return nil
}

func (b *base) looping() bool {
	if b.cfg.loop != nil {
		return *b.cfg.loop
	}
	return b.res != nil && b.res.Loop
}

func (b *base) startOffset(res *library.Resource) time.Duration {
	if !b.cfg.dynStart {
		return 0
	}
	if res.DynamicStart > 0 {
		return time.Duration(res.DynamicStart * float64(time.Second))
	}
	if b.env.start != nil {
		if d, ok := b.env.start(res); ok {
			return d
		}
	}
	return 0
}

// Play starts a prepared sequence. A pending delay is counted down by Tick.
func (b *base) Play() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state != Idle || b.player == nil {
		return fmt.Errorf("%w: play in state %s", ErrInvalidState, b.state)
	}
	b.state = Playing
	b.env.observe(EventStarted, b.req.Key)

	if b.delay > 0 {
		return nil
	}
	return b.startLocked()
}

// startLocked hands the clip to the player and registers the completion
// callback for this playback only.
func (b *base) startLocked() error {
	b.gen++
	gen := b.gen

	if n, ok := b.player.(CompletionNotifier); ok {
		n.OnComplete(func() { b.completed(gen) })
	}
	if err := b.player.Play(); err != nil {
		b.env.logger.Warn("player failed to start", "request", b.req.Key, "err", err)
		b.env.observe(EventFailed, b.req.Key)
		b.endLocked(Stopped)
		return fmt.Errorf("starting %q: %w", b.req.Key, err)
	}
	b.started = true
	return nil
}

// completed is the player's completion callback for playback gen.
func (b *base) completed(gen uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if gen != b.gen || b.state != Playing || !b.started {
		return
	}
	b.clipEndedLocked()
}

func (b *base) clipEndedLocked() {
	if b.looping() {
		if err := b.loopLocked(); err != nil {
			b.env.logger.Warn("loop failed", "request", b.req.Key, "err", err)
			b.env.observe(EventFailed, b.req.Key)
			b.endLocked(Stopped)
		}
		return
	}
	b.env.observe(EventCompleted, b.req.Key)
	b.endLocked(Completed)
}

// OnLoop restarts the sequence: the same resource for a Single, the next
// member for a GroupSequence. It is only valid while Playing.
func (b *base) OnLoop() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state != Playing {
		return fmt.Errorf("%w: loop in state %s", ErrInvalidState, b.state)
	}
	if err := b.loopLocked(); err != nil {
		b.env.logger.Warn("loop failed", "request", b.req.Key, "err", err)
		b.env.observe(EventFailed, b.req.Key)
		b.endLocked(Stopped)
		return err
	}
	return nil
}

func (b *base) loopLocked() error {
	b.gen++ // drop callbacks from the finished iteration
	b.player.Stop()

	res := b.res
	if b.advance != nil {
		next, err := b.advance()
		if err != nil {
			return err
		}
		res = next
	}
	if err := b.load(res); err != nil {
		return err
	}
	b.env.observe(EventLooped, b.req.Key)
	return b.startLocked()
}

// Pause holds a Playing sequence, including a pending delay.
func (b *base) Pause() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state != Playing {
		return fmt.Errorf("%w: pause in state %s", ErrInvalidState, b.state)
	}
	b.state = Paused
	if b.started {
		b.player.Pause()
	}
	return nil
}

// Resume continues a Paused sequence.
func (b *base) Resume() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state != Paused {
		return fmt.Errorf("%w: resume in state %s", ErrInvalidState, b.state)
	}
	b.state = Playing
	if b.started {
		b.player.Resume()
	}
	return nil
}

// Stop ends the sequence and returns its player to the pool. It is a no-op
// once the sequence has finished or when it was never set up.
func (b *base) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state.Finished() || b.player == nil {
		return
	}
	b.env.observe(EventStopped, b.req.Key)
	b.endLocked(Stopped)
}

// State returns the current lifecycle state.
func (b *base) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// endLocked moves to a terminal state and releases the player exactly once.
func (b *base) endLocked(st State) {
	b.state = st
	b.releaseLocked()
	if b.finish != nil {
		b.finish(st)
	}
}

func (b *base) releaseLocked() {
	if b.player == nil {
		return
	}
	b.gen++
	if n, ok := b.player.(CompletionNotifier); ok {
		n.OnComplete(nil)
	}
	b.player.Stop()
	b.env.pool.Return(b.player)
}

// fadeTo starts a fade from the current gain. With stopAtEnd the sequence
// stops once the fade completes.
func (b *base) fadeTo(target float64, spec *transition.Spec, stopAtEnd bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state.Finished() || b.player == nil {
		return
	}
	if spec == nil || spec.Duration() <= 0 {
		b.fade = nil
		b.gain = target
		b.player.SetVolume(b.volume * b.gain)
		if stopAtEnd {
			b.env.observe(EventStopped, b.req.Key)
			b.endLocked(Stopped)
		}
		return
	}
	b.fade = &fadeState{
		fade:      spec.Fade(b.gain, target),
		unscaled:  spec.Unscaled(),
		stopAtEnd: stopAtEnd,
	}
}

// tick advances delays and fades by dt (scaled) or raw (unscaled), and polls
// players that do not report completion.
func (b *base) tick(dt, raw time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state != Playing {
		return
	}

	if f := b.fade; f != nil {
		if f.unscaled {
			f.elapsed += raw
		} else {
			f.elapsed += dt
		}
		b.gain = utils.Clamp(f.fade.At(f.elapsed), 0, 1)
		b.player.SetVolume(b.volume * b.gain)
		if f.fade.Done(f.elapsed) {
			b.fade = nil
			if f.stopAtEnd {
				b.env.observe(EventStopped, b.req.Key)
				b.endLocked(Stopped)
				return
			}
		}
	}

	if !b.started {
		b.delay -= dt
		if b.delay <= 0 {
			b.delay = 0
			_ = b.startLocked()
		}
		return
	}

	if _, ok := b.player.(CompletionNotifier); !ok && !b.player.IsPlaying() {
		b.clipEndedLocked()
	}
}

func (b *base) snapshot() (res *library.Resource, player Player, gain float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.res, b.player, b.gain
}
