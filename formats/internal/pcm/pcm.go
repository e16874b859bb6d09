// SPDX-License-Identifier: EPL-2.0

// Package pcm adapts go-audio integer decoders (WAV, AIFF) to audio.Source.
package pcm

import (
	"fmt"
	"io"

	goaudio "github.com/go-audio/audio"
)

// IntReader is the PCM read side shared by go-audio's wav and aiff decoders.
type IntReader interface {
	PCMBuffer(buf *goaudio.IntBuffer) (int, error)
}

// Source converts integer PCM to float32 samples in [-1,1].
type Source struct {
	dec      IntReader
	format   *goaudio.Format
	scale    float32
	offset   int // subtracted before scaling, non-zero for unsigned 8-bit
	frames   int64
	buf      *goaudio.IntBuffer
	finished bool
}

// NewSource wraps dec. frames is the total frame count or -1 when unknown.
// unsigned8 selects the unsigned 8-bit layout used by WAV.
func NewSource(dec IntReader, format *goaudio.Format, bitDepth int, unsigned8 bool, frames int64) (*Source, error) {
	if format == nil || format.NumChannels <= 0 || format.SampleRate <= 0 {
		return nil, ErrInvalidFormat
	}

	s := &Source{
		dec:    dec,
		format: format,
		frames: frames,
	}

	switch bitDepth {
	case 8:
		s.scale = 1 << 7
		if unsigned8 {
			s.offset = 1 << 7
		}
	case 16:
		s.scale = 1 << 15
	case 24:
		s.scale = 1 << 23
	case 32:
		s.scale = 1 << 31
	default:
		return nil, fmt.Errorf("%w: %d bits", ErrUnsupportedBitDepth, bitDepth)
	}

	return s, nil
}

func (s *Source) SampleRate() int { return s.format.SampleRate }
func (s *Source) Channels() int   { return s.format.NumChannels }
func (s *Source) Close() error    { return nil }

// Frames returns the total frame count, or -1 if the container did not say.
func (s *Source) Frames() int64 { return s.frames }

func (s *Source) BufSize() int {
	if s.buf != nil {
		return cap(s.buf.Data)
	}
	return 4096
}

func (s *Source) ReadSamples(dst []float32) (int, error) {
	if s.finished {
		return 0, io.EOF
	}

	want := len(dst) - len(dst)%s.format.NumChannels
	if want == 0 {
		return 0, nil
	}

	if s.buf == nil || cap(s.buf.Data) < want {
		s.buf = &goaudio.IntBuffer{
			Data:   make([]int, want),
			Format: s.format,
		}
	}
	s.buf.Data = s.buf.Data[:want]

	n, err := s.dec.PCMBuffer(s.buf)
	for i, v := range s.buf.Data[:n] {
		dst[i] = float32(v-s.offset) / s.scale
	}

	switch {
	case err == io.EOF || (err == nil && n < want):
		s.finished = true
		if n == 0 {
			return 0, io.EOF
		}
		return n, io.EOF
	case err != nil:
		return n, fmt.Errorf("reading pcm: %w", err)
	}
	return n, nil
}
