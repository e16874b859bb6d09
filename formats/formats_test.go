// SPDX-License-Identifier: EPL-2.0

package formats

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ik5/audpool/formats/wav"
)

func TestNewRegistry(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	for _, ext := range []string{"wav", "WAV", ".mp3", "ogg", "aif", "aiff"} {
		_, ok := reg.Get(ext)
		assert.True(t, ok, ext)
	}
	_, ok := reg.Get("flac")
	assert.False(t, ok)
}

func TestNewRegistry_LoadsWav(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "click.wav")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, wav.WriteWAV16(f, 22050, 1, []int16{0, 0, 0, 16384}))
	require.NoError(t, f.Close())

	clip, err := NewRegistry().Load(path)
	require.NoError(t, err)
	assert.Equal(t, 4, clip.Frames())
	assert.Equal(t, 22050, clip.SampleRate)
	assert.InDelta(t, 0.5, clip.Samples[3], 1e-6)
}
