// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"fmt"
	"io"
	"time"
)

// Buffer is a fully decoded clip held in memory as interleaved float32 samples.
type Buffer struct {
	Samples    []float32
	SampleRate int
	Channels   int
}

// Frames returns the number of sample frames (samples per channel).
func (b *Buffer) Frames() int {
	if b.Channels <= 0 {
		return 0
	}
	return len(b.Samples) / b.Channels
}

// Duration returns the playback length of the buffer.
func (b *Buffer) Duration() time.Duration {
	if b.SampleRate <= 0 {
		return 0
	}
	return time.Duration(b.Frames()) * time.Second / time.Duration(b.SampleRate)
}

// Slice returns a view of the buffer starting at the frame closest to offset.
func (b *Buffer) Slice(offset time.Duration) *Buffer {
	frame := int(offset.Seconds() * float64(b.SampleRate))
	frame = max(0, min(frame, b.Frames()))

	return &Buffer{
		Samples:    b.Samples[frame*b.Channels:],
		SampleRate: b.SampleRate,
		Channels:   b.Channels,
	}
}

// Source returns a new reader over the buffer. Sources share the sample slice,
// so many players can stream one decoded clip at the same time.
func (b *Buffer) Source() Source {
	return &bufferSource{buf: b}
}

type bufferSource struct {
	buf *Buffer
	pos int
}

func (s *bufferSource) SampleRate() int { return s.buf.SampleRate }
func (s *bufferSource) Channels() int   { return s.buf.Channels }
func (s *bufferSource) BufSize() int    { return 4096 }
func (s *bufferSource) Close() error    { return nil }

func (s *bufferSource) ReadSamples(dst []float32) (int, error) {
	if s.pos >= len(s.buf.Samples) {
		return 0, io.EOF
	}

	// Keep reads frame aligned
	want := len(dst) - len(dst)%s.buf.Channels
	n := copy(dst[:want], s.buf.Samples[s.pos:])
	s.pos += n

	if s.pos >= len(s.buf.Samples) {
		return n, io.EOF
	}
	return n, nil
}

// ReadAll drains src into a Buffer. src is not closed.
func ReadAll(src Source) (*Buffer, error) {
	channels := src.Channels()
	if channels <= 0 {
		return nil, fmt.Errorf("%w: %d channels", ErrInvalidDstSize, channels)
	}

	size := src.BufSize()
	if size <= 0 {
		size = 4096
	}
	size -= size % channels
	if size == 0 {
		size = channels
	}

	out := &Buffer{
		SampleRate: src.SampleRate(),
		Channels:   channels,
	}
	chunk := make([]float32, size)
	empty := 0

	for {
		n, err := src.ReadSamples(chunk)
		if n > 0 {
			out.Samples = append(out.Samples, chunk[:n]...)
			empty = 0
		}
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("reading samples: %w", err)
		}
		if n == 0 {
			empty++
			if empty >= maxEmptyReads {
				return nil, io.ErrNoProgress
			}
		}
	}
}

const maxEmptyReads = 100
