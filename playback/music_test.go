// SPDX-License-Identifier: EPL-2.0

package playback

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ik5/audpool/library"
	"github.com/ik5/audpool/transition"
)

func TestMusicPlayer_Crossfade(t *testing.T) {
	t.Parallel()

	f := newFixture(t, fixtureConfig{size: 2, eager: true})
	mp := NewMusicPlayer(f.mgr, "playlist")
	spec := transition.New(time.Second, false)
	require.NoError(t, transition.Set(spec, transition.ParamCurve, "equal-power"))

	first, err := mp.PlayNext(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "theme-a", first.Resource().ID)
	assert.Equal(t, 1.0, first.Gain())
	assert.Same(t, first, mp.Current())

	second, err := mp.PlayNext(context.Background(), spec)
	require.NoError(t, err)
	assert.Equal(t, "theme-b", second.Resource().ID)
	assert.Zero(t, second.Gain())
	assert.Equal(t, 2, f.pool.InUse())

	f.mgr.Tick(500 * time.Millisecond)
	a, b := first.Gain(), second.Gain()
	assert.InDelta(t, 1, a*a+b*b, 1e-9)
	assert.InDelta(t, a, b, 1e-9)

	f.mgr.Tick(600 * time.Millisecond)
	assert.Equal(t, Stopped, first.State())
	assert.Equal(t, Playing, second.State())
	assert.Equal(t, 1.0, second.Gain())
	assert.Equal(t, 1, f.pool.InUse())
	assert.Same(t, second, mp.Current())
}

func TestMusicPlayer_FailedRequestKeepsCurrent(t *testing.T) {
	t.Parallel()

	f := newFixture(t, fixtureConfig{size: 2, eager: true})
	mp := NewMusicPlayer(f.mgr, "playlist")

	cur, err := mp.Play(context.Background(), Request{Key: "theme_a"}, nil)
	require.NoError(t, err)

	_, err = mp.Play(context.Background(), Request{Key: "missing"}, transition.New(time.Second, false))
	require.ErrorIs(t, err, ErrSetupFailed)
	assert.Same(t, cur, mp.Current())
	assert.Equal(t, Playing, cur.State())
}

func TestMusicPlayer_Stop(t *testing.T) {
	t.Parallel()

	f := newFixture(t, fixtureConfig{size: 1})
	mp := NewMusicPlayer(f.mgr, "playlist", Volume{Range: library.Fixed(0.5)})
	cur, err := mp.PlayNext(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 0.5, fake(cur.Player()).Volume())

	mp.Stop(transition.New(100*time.Millisecond, true))
	assert.Nil(t, mp.Current())
	assert.Equal(t, Playing, cur.State())

	f.mgr.Tick(100 * time.Millisecond)
	assert.Equal(t, Stopped, cur.State())
	assert.Zero(t, f.pool.InUse())

	mp.Stop(nil)
}
