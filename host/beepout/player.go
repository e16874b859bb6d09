// SPDX-License-Identifier: EPL-2.0

package beepout

import (
	"fmt"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"

	"github.com/ik5/audpool/audio"
	"github.com/ik5/audpool/library"
)

// Player streams one clip at a time into its Output. Volume and loop changes
// apply immediately; pitch, start and output changes apply on the next Play.
type Player struct {
	out *Output
	id  int

	res    *library.Resource
	buf    *audio.Buffer
	volume float64
	pitch  float64
	start  time.Duration
	loop   bool
	mixer  *library.Mixer

	// guarded by the output's audio lock
	ctrl       *beep.Ctrl
	vol        *effects.Volume
	looper     *looper
	playing    bool
	onComplete func()
}

// ID numbers players in creation order.
func (p *Player) ID() int { return p.id }

func (p *Player) Load(res *library.Resource) error {
	buf, err := p.out.Clip(res)
	if err != nil {
		return err
	}
	p.Stop()
	p.res = res
	p.buf = buf
	return nil
}

// open builds the decode chain for one pass over the clip.
func (p *Player) open() (*sourceStreamer, error) {
	var src audio.Source = p.buf.Slice(p.start).Source()
	if src.Channels() > 2 {
		src = audio.NewMonoMixer(src)
	}
	if p.pitch != 1 {
		shifted, err := audio.NewPitchShifter(src, p.pitch)
		if err != nil {
			return nil, fmt.Errorf("pitch %g: %w", p.pitch, err)
		}
		src = shifted
	}
	if src.SampleRate() != p.out.SampleRate() {
		src = audio.NewResampler(src, p.out.SampleRate())
	}
	return &sourceStreamer{src: src}, nil
}

func (p *Player) Play() error {
	if p.buf == nil {
		return ErrNotLoaded
	}
	p.Stop()

	first, err := p.open()
	if err != nil {
		return err
	}
	target := p.out.target(p.mixer)

	defer p.out.lock()()

	p.looper = &looper{open: p.open, cur: first, loop: p.loop}
	p.ctrl = &beep.Ctrl{Streamer: beep.Seq(p.looper, beep.Callback(p.ended))}
	p.vol = &effects.Volume{Streamer: p.ctrl, Base: 2}
	setGain(p.vol, p.volume)
	p.playing = true
	target.Add(p.vol)
	return nil
}

// ended runs on the audio goroutine with the audio lock held. The callback is
// dispatched on its own goroutine so it may call back into the player.
func (p *Player) ended() {
	if !p.playing {
		return
	}
	p.playing = false
	if err := p.looper.Err(); err != nil {
		p.out.logger.Warn("clip ended with error", "resource", p.res.Name(), "err", err)
	}
	if fn := p.onComplete; fn != nil {
		go fn()
	}
}

func (p *Player) Pause() {
	defer p.out.lock()()
	if p.ctrl != nil {
		p.ctrl.Paused = true
	}
}

func (p *Player) Resume() {
	defer p.out.lock()()
	if p.ctrl != nil {
		p.ctrl.Paused = false
	}
}

// Stop detaches the clip from the mixer without firing the completion callback.
func (p *Player) Stop() {
	defer p.out.lock()()
	if p.ctrl != nil {
		p.ctrl.Streamer = nil
		p.ctrl = nil
	}
	p.playing = false
}

func (p *Player) SetVolume(v float64) {
	defer p.out.lock()()
	p.volume = v
	if p.vol != nil {
		setGain(p.vol, v)
	}
}

func (p *Player) SetPitch(v float64) { p.pitch = v }

func (p *Player) SetOutput(m *library.Mixer) { p.mixer = m }

func (p *Player) SetStart(d time.Duration) { p.start = max(d, 0) }

func (p *Player) SetLoop(loop bool) {
	defer p.out.lock()()
	p.loop = loop
	if p.looper != nil {
		p.looper.loop = loop
	}
}

func (p *Player) IsPlaying() bool {
	defer p.out.lock()()
	return p.playing
}

// Length returns the clip's playing time at the current pitch.
func (p *Player) Length() time.Duration {
	if p.buf == nil {
		return 0
	}
	d := p.buf.Slice(p.start).Duration()
	if p.pitch > 0 {
		d = time.Duration(float64(d) / p.pitch)
	}
	return d
}

// OnComplete replaces the end-of-clip callback. nil clears it.
func (p *Player) OnComplete(fn func()) {
	defer p.out.lock()()
	p.onComplete = fn
}
