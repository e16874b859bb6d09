// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ik5/audpool/internal/audiotest"
)

func TestResampler_Rates(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		srcRate int
		dstRate int
		frames  int
		want    int
	}{
		{"same rate", 8000, 8000, 1000, 1000},
		{"downsample", 48000, 8000, 48000, 8000},
		{"upsample", 8000, 16000, 8000, 16000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			src := audiotest.NewSineSource(tt.srcRate, 1, tt.frames, 100)
			r := NewResampler(src, tt.dstRate)
			assert.Equal(t, tt.dstRate, r.SampleRate())

			buf, err := ReadAll(r)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, buf.Frames(), 2)
		})
	}
}

func TestResampler_SameRatePreservesSamples(t *testing.T) {
	t.Parallel()

	src := audiotest.NewMockSource(8000, 2, 100, func(frame, ch int) float32 {
		return float32(frame) / 100 * float32(1-2*ch)
	})
	buf, err := ReadAll(NewResampler(src, 8000))
	require.NoError(t, err)
	require.Equal(t, 100, buf.Frames())

	for f := range 100 {
		assert.InDelta(t, float32(f)/100, buf.Samples[2*f], 1e-5)
		assert.InDelta(t, -float32(f)/100, buf.Samples[2*f+1], 1e-5)
	}
}

func TestResampler_InvalidDstSize(t *testing.T) {
	t.Parallel()

	r := NewResampler(audiotest.NewSilentSource(8000, 2, 10), 8000)
	_, err := r.ReadSamples(make([]float32, 3))
	assert.ErrorIs(t, err, ErrInvalidDstSize)
}

func TestPitchShifter(t *testing.T) {
	t.Parallel()

	_, err := NewPitchShifter(audiotest.NewSilentSource(8000, 1, 10), 0)
	require.ErrorIs(t, err, ErrInvalidRatio)

	up, err := NewPitchShifter(audiotest.NewConstantSource(8000, 1, 8000, 0.5), 2)
	require.NoError(t, err)
	assert.Equal(t, 8000, up.SampleRate())

	buf, err := ReadAll(up)
	require.NoError(t, err)
	assert.InDelta(t, 4000, buf.Frames(), 2)

	down, err := NewPitchShifter(audiotest.NewConstantSource(8000, 1, 8000, 0.5), 0.5)
	require.NoError(t, err)
	buf, err = ReadAll(down)
	require.NoError(t, err)
	assert.InDelta(t, 16000, buf.Frames(), 2)
	for _, v := range buf.Samples {
		assert.InDelta(t, 0.5, v, 1e-5)
	}
}

func TestResampler_Close(t *testing.T) {
	t.Parallel()

	src := audiotest.NewSilentSource(8000, 1, 10)
	require.NoError(t, NewResampler(src, 4000).Close())
	assert.True(t, src.Closed())
}

func BenchmarkResampler_Downsample(b *testing.B) {
	buf := make([]float32, 4096)
	b.ReportAllocs()
	for range b.N {
		r := NewResampler(audiotest.NewSineSource(44100, 2, 44100, 440), 8000)
		for {
			if _, err := r.ReadSamples(buf); err != nil {
				break
			}
		}
	}
}
