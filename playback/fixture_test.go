// SPDX-License-Identifier: EPL-2.0

package playback

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ik5/audpool/internal/audiotest"
	"github.com/ik5/audpool/internal/logging"
	"github.com/ik5/audpool/library"
	"github.com/ik5/audpool/pool"
)

type fixture struct {
	lib  *library.Library
	pool *pool.Pool[Player]
	mgr  *Manager
	obs  *events

	mu      sync.Mutex
	players []*audiotest.FakePlayer
}

type fixtureConfig struct {
	size   int
	eager  bool
	expand bool
	notify bool
}

func newLibrary(t *testing.T) *library.Library {
	t.Helper()

	lib := library.New(library.WithLogger(logging.Discard()))
	add := func(r *library.Resource) {
		require.NoError(t, lib.AddResource(r))
	}
	add(&library.Resource{ID: "click01-abcd", Key: "click01", Mixer: "sfx"})
	add(&library.Resource{ID: "step-1", Key: "step1"})
	add(&library.Resource{ID: "step-2", Key: "step2"})
	add(&library.Resource{ID: "step-3", Key: "step3"})
	add(&library.Resource{ID: "hit-1", Key: "hit", DynamicStart: 0.25})
	add(&library.Resource{ID: "theme-a", Key: "theme_a", Loop: true, Mixer: "music"})
	add(&library.Resource{ID: "theme-b", Key: "theme_b", Loop: true, Mixer: "music"})

	require.NoError(t, lib.AddMixer(&library.Mixer{ID: "m-sfx", Key: "sfx", Handle: "bus:sfx"}))
	require.NoError(t, lib.AddMixer(&library.Mixer{ID: "m-music", Key: "music", Handle: "bus:music"}))

	require.NoError(t, lib.AddGroup(&library.Group{
		ID: "g-foot", Key: "footsteps", Mode: library.Sequential,
		Members: []string{"step-1", "step-2", "step-3"},
	}))
	require.NoError(t, lib.AddGroup(&library.Group{
		ID: "g-rand", Key: "impacts", Mode: library.Random,
		Members: []string{"step-1", "step-2", "step-3"},
	}))
	require.NoError(t, lib.AddGroup(&library.Group{
		ID: "g-music", Key: "playlist", Mode: library.Sequential,
		Members: []string{"theme-a", "theme-b"},
	}))
	return lib
}

func newFixture(t *testing.T, cfg fixtureConfig, opts ...Option) *fixture {
	t.Helper()

	f := &fixture{lib: newLibrary(t), obs: &events{}}
	factory := func() (Player, error) {
		f.mu.Lock()
		defer f.mu.Unlock()

		id := len(f.players) + 1
		if cfg.notify {
			p := audiotest.NewNotifyingPlayer(id, time.Second)
			f.players = append(f.players, p.FakePlayer)
			return p, nil
		}
		p := audiotest.NewFakePlayer(id, time.Second)
		f.players = append(f.players, p)
		return p, nil
	}

	var err error
	f.pool, err = pool.New(pool.Config{InitialSize: cfg.size, StartActive: cfg.eager, Expand: cfg.expand},
		factory, pool.WithLogger[Player](logging.Discard()))
	require.NoError(t, err)

	opts = append([]Option{WithLogger(logging.Discard()), WithObserver(f.obs), WithRand(7)}, opts...)
	f.mgr = NewManager(f.lib, f.pool, opts...)
	return f
}

// fake returns the FakePlayer behind a sequence's player.
func fake(p Player) *audiotest.FakePlayer {
	switch v := p.(type) {
	case *audiotest.NotifyingPlayer:
		return v.FakePlayer
	case *audiotest.FakePlayer:
		return v
	}
	return nil
}

// finish ends the clip on a sequence's player.
func finish(p Player) {
	if n, ok := p.(*audiotest.NotifyingPlayer); ok {
		n.Finish()
		return
	}
	fake(p).Finish()
}

type events struct {
	mu  sync.Mutex
	log []Event
}

func (e *events) ObservePlayback(ev Event, _ string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.log = append(e.log, ev)
}

func (e *events) count(ev Event) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := 0
	for _, got := range e.log {
		if got == ev {
			n++
		}
	}
	return n
}
