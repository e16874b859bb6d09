// SPDX-License-Identifier: EPL-2.0

package pcm

import (
	"io"
	"testing"

	goaudio "github.com/go-audio/audio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sliceReader struct {
	data []int
}

func (r *sliceReader) PCMBuffer(buf *goaudio.IntBuffer) (int, error) {
	n := copy(buf.Data, r.data)
	r.data = r.data[n:]
	return n, nil
}

func TestSource_Scaling(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		bits     int
		unsigned bool
		in       []int
		want     []float32
	}{
		{"16 bit", 16, false, []int{0, 16384, -32768, 32767}, []float32{0, 0.5, -1, 32767.0 / 32768}},
		{"unsigned 8 bit", 8, true, []int{128, 255, 0, 192}, []float32{0, 127.0 / 128, -1, 0.5}},
		{"signed 8 bit", 8, false, []int{0, -128, 64, 0}, []float32{0, -1, 0.5, 0}},
		{"24 bit", 24, false, []int{1 << 22, -(1 << 23), 0, 0}, []float32{0.5, -1, 0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			format := &goaudio.Format{NumChannels: 2, SampleRate: 8000}
			src, err := NewSource(&sliceReader{data: tt.in}, format, tt.bits, tt.unsigned, 2)
			require.NoError(t, err)
			assert.Equal(t, int64(2), src.Frames())

			dst := make([]float32, 4)
			n, err := src.ReadSamples(dst)
			require.NoError(t, err)
			require.Equal(t, 4, n)
			for i := range tt.want {
				assert.InDelta(t, tt.want[i], dst[i], 1e-6)
			}
		})
	}
}

func TestSource_ShortReadEndsStream(t *testing.T) {
	t.Parallel()

	format := &goaudio.Format{NumChannels: 1, SampleRate: 8000}
	src, err := NewSource(&sliceReader{data: []int{1, 2, 3}}, format, 16, false, -1)
	require.NoError(t, err)

	dst := make([]float32, 8)
	n, err := src.ReadSamples(dst)
	assert.Equal(t, 3, n)
	assert.ErrorIs(t, err, io.EOF)

	n, err = src.ReadSamples(dst)
	assert.Zero(t, n)
	assert.ErrorIs(t, err, io.EOF)
}

func TestNewSource_Rejects(t *testing.T) {
	t.Parallel()

	_, err := NewSource(&sliceReader{}, nil, 16, false, 0)
	assert.ErrorIs(t, err, ErrInvalidFormat)

	_, err = NewSource(&sliceReader{}, &goaudio.Format{NumChannels: 1, SampleRate: 8000}, 12, false, 0)
	assert.ErrorIs(t, err, ErrUnsupportedBitDepth)
}
