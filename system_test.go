// SPDX-License-Identifier: EPL-2.0

package audpool

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/ik5/audpool/audio"
	"github.com/ik5/audpool/config"
	"github.com/ik5/audpool/formats/wav"
	"github.com/ik5/audpool/internal/audiotest"
	"github.com/ik5/audpool/internal/logging"
	"github.com/ik5/audpool/library"
	"github.com/ik5/audpool/playback"
	"github.com/ik5/audpool/pool"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// writeClip stores silence frames of zeros followed by loud frames at half
// scale as a mono 16-bit WAV.
func writeClip(t *testing.T, rate, silence, loud int) string {
	t.Helper()
	samples := make([]int16, silence+loud)
	for i := silence; i < len(samples); i++ {
		samples[i] = 16384
	}
	path := filepath.Join(t.TempDir(), "clip.wav")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, wav.WriteWAV16(f, rate, 1, samples))
	require.NoError(t, f.Close())
	return path
}

type fakePlayers struct {
	made []*audiotest.NotifyingPlayer
}

func (f *fakePlayers) factory() (playback.Player, error) {
	p := audiotest.NewNotifyingPlayer(len(f.made)+1, time.Second)
	f.made = append(f.made, p)
	return p, nil
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Pool.InitialSize = 2
	cfg.Output.SampleRate = 1000
	return cfg
}

func TestSystem_CustomPlayers(t *testing.T) {
	t.Parallel()

	lib := library.New(library.WithLogger(logging.Discard()))
	require.NoError(t, lib.AddResource(&library.Resource{ID: "click-1", Key: "click01"}))

	players := &fakePlayers{}
	registry := prometheus.NewRegistry()
	sys, err := New(testConfig(),
		WithLogger(logging.Discard()),
		WithLibrary(lib),
		WithPlayerFactory(players.factory),
		WithRegistry(registry),
		WithSeed(1),
	)
	require.NoError(t, err)
	defer sys.Close()

	assert.Nil(t, sys.Output)
	require.NoError(t, sys.Start())

	ctx := context.Background()
	a, err := sys.Manager.Play(ctx, playback.Request{Key: "click01"})
	require.NoError(t, err)
	_, err = sys.Manager.Play(ctx, playback.Request{Key: "click01"})
	require.NoError(t, err)

	_, err = sys.Manager.Play(ctx, playback.Request{Key: "click01"})
	require.ErrorIs(t, err, pool.ErrExhausted)

	players.made[0].Finish()
	<-a.Done()
	assert.Equal(t, playback.Completed, a.Result())
	assert.Equal(t, 1, sys.Players.InUse())

	count, err := testutil.GatherAndCount(registry,
		"audpool_pool_exhausted_total", "audpool_playback_events_total")
	require.NoError(t, err)
	assert.Equal(t, 1+5, count)
}

func TestSystem_DetectsStartTimes(t *testing.T) {
	t.Parallel()

	path := writeClip(t, 1000, 100, 100)
	lib := library.New(library.WithLogger(logging.Discard()))
	require.NoError(t, lib.AddResource(&library.Resource{ID: "hit-1", Key: "hit", Path: path}))
	require.NoError(t, lib.AddResource(&library.Resource{ID: "gone-1", Key: "gone", Path: filepath.Join(t.TempDir(), "x.wav")}))

	cfg := testConfig()
	cfg.DynamicStart.Enabled = true

	players := &fakePlayers{}
	sys, err := New(cfg, WithLogger(logging.Discard()), WithLibrary(lib), WithPlayerFactory(players.factory))
	require.NoError(t, err)
	defer sys.Close()

	seq, err := sys.Manager.Play(context.Background(), playback.Request{Key: "hit"})
	require.NoError(t, err)
	fake := seq.Player().(*audiotest.NotifyingPlayer)
	assert.Equal(t, 100*time.Millisecond, fake.Start())
	assert.Equal(t, 1, sys.Starts.Len())
	seq.Stop()

	// an unreadable clip plays from the top and is not cached
	seq, err = sys.Manager.Play(context.Background(), playback.Request{Key: "gone"})
	require.NoError(t, err)
	assert.Zero(t, seq.Player().(*audiotest.NotifyingPlayer).Start())
	assert.Equal(t, 1, sys.Starts.Len())
	seq.Stop()
}

func TestSystem_LoadsLibraryFromConfig(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	table := filepath.Join(dir, "library.yaml")
	require.NoError(t, os.WriteFile(table, []byte(`version: 1.0.0
resources:
  - id: click-1
    key: click01
    path: click.wav
`), 0o600))

	cfg := testConfig()
	cfg.Library.Path = table

	sys, err := New(cfg, WithLogger(logging.Discard()))
	require.NoError(t, err)
	defer sys.Close()

	res, err := sys.Library.Resolve("click01")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "click.wav"), res.Path)
	assert.NotNil(t, sys.Output)

	cfg.Library.Path = filepath.Join(dir, "missing.yaml")
	_, err = New(cfg, WithLogger(logging.Discard()))
	assert.Error(t, err)

	bad := testConfig()
	bad.Pool.InitialSize = -1
	_, err = New(bad, WithLogger(logging.Discard()))
	assert.ErrorIs(t, err, config.ErrInvalid)
}

func TestSystem_PlaysThroughBeepOutput(t *testing.T) {
	t.Parallel()

	lib := library.New(library.WithLogger(logging.Discard()))
	require.NoError(t, lib.AddMixer(&library.Mixer{ID: "m-sfx", Key: "sfx", Volume: 0.5}))
	require.NoError(t, lib.AddResource(&library.Resource{ID: "tone-1", Key: "tone", Mixer: "sfx"}))

	sys, err := New(testConfig(), WithLogger(logging.Discard()), WithLibrary(lib))
	require.NoError(t, err)
	defer sys.Close()

	tone := &audio.Buffer{SampleRate: 1000, Channels: 1, Samples: make([]float32, 100)}
	for i := range tone.Samples {
		tone.Samples[i] = 0.5
	}
	sys.Output.AddClip("tone-1", tone)

	seq, err := sys.Manager.Play(context.Background(), playback.Request{Key: "tone"})
	require.NoError(t, err)

	frames := sys.Output.Render(150)
	assert.InDelta(t, 0.25, frames[0][0], 1e-6)
	assert.Zero(t, frames[120][0])

	select {
	case <-seq.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("sequence did not complete")
	}
	assert.Equal(t, playback.Completed, seq.Result())
	assert.Zero(t, sys.Players.InUse())
}
