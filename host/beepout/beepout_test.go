// SPDX-License-Identifier: EPL-2.0

package beepout

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/ik5/audpool/audio"
	"github.com/ik5/audpool/formats/wav"
	"github.com/ik5/audpool/internal/logging"
	"github.com/ik5/audpool/library"
	"github.com/ik5/audpool/playback"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var (
	_ playback.Player             = (*Player)(nil)
	_ playback.CompletionNotifier = (*Player)(nil)
)

const rate = 1000

func constant(frames, channels int, values ...float32) *audio.Buffer {
	buf := &audio.Buffer{SampleRate: rate, Channels: channels, Samples: make([]float32, frames*channels)}
	for i := range buf.Samples {
		buf.Samples[i] = values[i%channels]
	}
	return buf
}

func newOutput(t *testing.T, clips map[string]*audio.Buffer) *Output {
	t.Helper()
	out := New(WithSampleRate(rate), WithLogger(logging.Discard()))
	for id, buf := range clips {
		out.AddClip(id, buf)
	}
	t.Cleanup(out.Close)
	return out
}

func newPlayer(t *testing.T, out *Output, id string) *Player {
	t.Helper()
	p, err := out.NewPlayer()
	require.NoError(t, err)
	require.NoError(t, p.Load(&library.Resource{ID: id, Key: id}))
	return p
}

func audible(frames [][2]float64) int {
	n := 0
	for _, f := range frames {
		if f[0] != 0 || f[1] != 0 {
			n++
		}
	}
	return n
}

func waitFor(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(5 * time.Second):
		t.Fatal("completion callback not called")
	}
}

func TestPlayer_PlaysToCompletion(t *testing.T) {
	t.Parallel()

	out := newOutput(t, map[string]*audio.Buffer{"tone": constant(100, 1, 0.5)})
	p := newPlayer(t, out, "tone")

	done := make(chan struct{})
	p.OnComplete(func() { close(done) })
	require.NoError(t, p.Play())
	assert.Equal(t, 100*time.Millisecond, p.Length())

	first := out.Render(60)
	for _, f := range first {
		assert.InDelta(t, 0.5, f[0], 1e-6)
		assert.InDelta(t, 0.5, f[1], 1e-6)
	}
	assert.True(t, p.IsPlaying())

	second := out.Render(60)
	assert.Equal(t, 40, audible(second))
	assert.False(t, p.IsPlaying())
	waitFor(t, done)

	assert.Zero(t, audible(out.Render(60)))
}

func TestPlayer_Volume(t *testing.T) {
	t.Parallel()

	out := newOutput(t, map[string]*audio.Buffer{"tone": constant(100, 1, 0.5)})
	p := newPlayer(t, out, "tone")
	p.SetVolume(0.5)
	require.NoError(t, p.Play())

	assert.InDelta(t, 0.25, out.Render(10)[0][0], 1e-6)

	p.SetVolume(0)
	assert.Zero(t, audible(out.Render(10)))

	p.SetVolume(1)
	assert.InDelta(t, 0.5, out.Render(10)[0][0], 1e-6)
}

func TestPlayer_PauseResume(t *testing.T) {
	t.Parallel()

	out := newOutput(t, map[string]*audio.Buffer{"tone": constant(100, 1, 0.5)})
	p := newPlayer(t, out, "tone")
	require.NoError(t, p.Play())

	assert.Equal(t, 30, audible(out.Render(30)))
	p.Pause()
	assert.Zero(t, audible(out.Render(500)))
	assert.True(t, p.IsPlaying())

	p.Resume()
	assert.Equal(t, 70, audible(out.Render(200)))
}

func TestPlayer_StopDoesNotComplete(t *testing.T) {
	t.Parallel()

	out := newOutput(t, map[string]*audio.Buffer{"tone": constant(100, 1, 0.5)})
	p := newPlayer(t, out, "tone")

	called := make(chan struct{}, 1)
	p.OnComplete(func() { called <- struct{}{} })
	require.NoError(t, p.Play())
	out.Render(10)

	p.Stop()
	assert.False(t, p.IsPlaying())
	assert.Zero(t, audible(out.Render(200)))

	select {
	case <-called:
		t.Fatal("completion fired after Stop")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestPlayer_Loop(t *testing.T) {
	t.Parallel()

	out := newOutput(t, map[string]*audio.Buffer{"tone": constant(100, 1, 0.5)})
	p := newPlayer(t, out, "tone")
	p.SetLoop(true)
	require.NoError(t, p.Play())

	assert.Equal(t, 250, audible(out.Render(250)))
	assert.True(t, p.IsPlaying())

	p.SetLoop(false)
	assert.Equal(t, 50, audible(out.Render(100)))
	assert.False(t, p.IsPlaying())
}

func TestPlayer_StartOffset(t *testing.T) {
	t.Parallel()

	out := newOutput(t, map[string]*audio.Buffer{"tone": constant(100, 1, 0.5)})
	p := newPlayer(t, out, "tone")
	p.SetStart(40 * time.Millisecond)
	assert.Equal(t, 60*time.Millisecond, p.Length())
	require.NoError(t, p.Play())

	assert.Equal(t, 60, audible(out.Render(200)))
}

func TestPlayer_MixerBus(t *testing.T) {
	t.Parallel()

	out := newOutput(t, map[string]*audio.Buffer{"tone": constant(100, 1, 0.5)})
	p := newPlayer(t, out, "tone")
	p.SetOutput(&library.Mixer{Key: "sfx", Volume: 0.5})
	require.NoError(t, p.Play())

	assert.InDelta(t, 0.25, out.Render(10)[0][0], 1e-6)

	// the bus outlives the clip
	out.Render(200)
	q := newPlayer(t, out, "tone")
	q.SetOutput(&library.Mixer{Key: "sfx", Volume: 1})
	require.NoError(t, q.Play())
	assert.InDelta(t, 0.5, out.Render(10)[0][0], 1e-6)
}

func TestPlayer_Channels(t *testing.T) {
	t.Parallel()

	out := newOutput(t, map[string]*audio.Buffer{
		"stereo": constant(50, 2, 0.2, -0.2),
		"quad":   constant(50, 4, 0.1, 0.2, 0.3, 0.4),
	})

	s := newPlayer(t, out, "stereo")
	require.NoError(t, s.Play())
	f := out.Render(1)[0]
	assert.InDelta(t, 0.2, f[0], 1e-6)
	assert.InDelta(t, -0.2, f[1], 1e-6)
	s.Stop()

	q := newPlayer(t, out, "quad")
	require.NoError(t, q.Play())
	f = out.Render(1)[0]
	assert.InDelta(t, 0.25, f[0], 1e-6)
	assert.InDelta(t, 0.25, f[1], 1e-6)
}

func TestPlayer_PitchAndResample(t *testing.T) {
	t.Parallel()

	slow := constant(100, 1, 0.5)
	slow.SampleRate = rate / 2
	out := newOutput(t, map[string]*audio.Buffer{"tone": constant(100, 1, 0.5), "slow": slow})

	p := newPlayer(t, out, "tone")
	p.SetPitch(2)
	assert.Equal(t, 50*time.Millisecond, p.Length())
	require.NoError(t, p.Play())
	assert.InDelta(t, 50, audible(out.Render(200)), 2)

	q := newPlayer(t, out, "slow")
	require.NoError(t, q.Play())
	assert.InDelta(t, 200, audible(out.Render(400)), 2)
}

func TestPlayer_LoadErrors(t *testing.T) {
	t.Parallel()

	out := newOutput(t, nil)
	p, err := out.NewPlayer()
	require.NoError(t, err)

	assert.ErrorIs(t, p.Play(), ErrNotLoaded)
	assert.ErrorIs(t, p.Load(&library.Resource{ID: "x", Key: "x"}), ErrNoClip)
	assert.ErrorIs(t, p.Load(&library.Resource{ID: "y", Key: "y", Path: "clip.xyz"}), audio.ErrUnknownFormat)
	assert.Zero(t, p.Length())
}

func TestOutput_DecodesAndCachesClips(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "click.wav")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, wav.WriteWAV16(f, rate, 1, []int16{16384, 16384, 16384, 16384}))
	require.NoError(t, f.Close())

	out := newOutput(t, nil)
	res := &library.Resource{ID: "click", Key: "click", Path: path}

	a, err := out.Clip(res)
	require.NoError(t, err)
	assert.Equal(t, 4, a.Frames())

	require.NoError(t, os.Remove(path))
	b, err := out.Clip(res)
	require.NoError(t, err)
	assert.Same(t, a, b)

	out.Forget("click")
	_, err = out.Clip(res)
	assert.Error(t, err)
}
