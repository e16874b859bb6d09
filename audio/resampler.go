// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"fmt"
	"io"

	"github.com/ik5/audpool/utils"
)

// Resampler streams src at a different playback rate using cubic interpolation.
// Works on interleaved samples and preserves the channel count. A one-pole
// low-pass filter is applied whenever source frames are skipped.
type Resampler struct {
	src      Source
	ratio    float64 // source frames consumed per output frame
	outRate  int
	channels int

	// window[1] is the current frame, window[0] the previous one, and
	// window[2..3] the upcoming frames
	window [4][]float32
	valid  [4]bool
	primed bool
	pos    float64

	frame []float32
	eof   bool
	err   error

	lowpass bool
	alpha   float32
	state   []float32
}

// NewResampler converts src to dstRate Hz.
func NewResampler(src Source, dstRate int) *Resampler {
	return newResampler(src, float64(src.SampleRate())/float64(dstRate), dstRate)
}

// NewPitchShifter plays src pitch times faster while still reporting the
// source sample rate, which raises (pitch > 1) or lowers (pitch < 1) the
// perceived pitch and shortens or stretches the clip accordingly.
func NewPitchShifter(src Source, pitch float64) (*Resampler, error) {
	if pitch <= 0 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRatio, pitch)
	}
	return newResampler(src, pitch, src.SampleRate()), nil
}

func newResampler(src Source, ratio float64, outRate int) *Resampler {
	channels := src.Channels()

	r := &Resampler{
		src:      src,
		ratio:    ratio,
		outRate:  outRate,
		channels: channels,
		frame:    make([]float32, channels),
		lowpass:  ratio > 1,
		alpha:    0.5,
		state:    make([]float32, channels),
	}
	for i := range r.window {
		r.window[i] = make([]float32, channels)
	}
	return r
}

func (r *Resampler) SampleRate() int { return r.outRate }
func (r *Resampler) Channels() int   { return r.channels }
func (r *Resampler) BufSize() int    { return r.src.BufSize() }

func (r *Resampler) Close() error {
	if err := r.src.Close(); err != nil {
		return fmt.Errorf("%w", err)
	}
	return nil
}

// readFrame pulls the next source frame into dst.
func (r *Resampler) readFrame(dst []float32, first bool) bool {
	for empty := 0; !r.eof; {
		n, err := r.src.ReadSamples(r.frame)
		if err != nil {
			r.eof = true
			if err != io.EOF {
				r.err = err
			}
		}
		if n >= r.channels {
			copy(dst, r.frame)
			if r.lowpass {
				if first {
					copy(r.state, dst)
				}
				for c := range dst {
					dst[c] = r.alpha*dst[c] + (1-r.alpha)*r.state[c]
					r.state[c] = dst[c]
				}
			}
			return true
		}
		if n == 0 && err == nil {
			empty++
			if empty >= maxEmptyReads {
				r.eof = true
			}
		}
	}
	return false
}

func (r *Resampler) prime() {
	r.primed = true
	r.valid[1] = r.readFrame(r.window[1], true)
	if !r.valid[1] {
		return
	}
	// Mirror the first frame so output starts exactly on it
	copy(r.window[0], r.window[1])
	r.valid[0] = true
	r.valid[2] = r.readFrame(r.window[2], false)
	if r.valid[2] {
		r.valid[3] = r.readFrame(r.window[3], false)
	}
}

func (r *Resampler) advance() {
	w0 := r.window[0]
	copy(r.window[:3], r.window[1:])
	copy(r.valid[:3], r.valid[1:])
	r.window[3] = w0
	r.valid[3] = r.valid[2] && r.readFrame(r.window[3], false)
}

func (r *Resampler) endErr() error {
	if r.err != nil {
		return fmt.Errorf("%w", r.err)
	}
	return io.EOF
}

// ReadSamples produces interleaved samples at the output rate.
// dst length must be a multiple of the channel count.
func (r *Resampler) ReadSamples(dst []float32) (int, error) {
	if len(dst)%r.channels != 0 {
		return 0, ErrInvalidDstSize
	}
	if !r.primed {
		r.prime()
	}

	frames := len(dst) / r.channels
	written := 0

	for written < frames {
		for r.pos >= 1 {
			r.pos--
			r.advance()
		}
		if !r.valid[1] {
			break
		}

		x := float32(r.pos)
		out := dst[written*r.channels : (written+1)*r.channels]
		for c := range out {
			y1 := r.window[1][c]
			y0 := y1
			if r.valid[0] {
				y0 = r.window[0][c]
			}
			y2 := y1
			if r.valid[2] {
				y2 = r.window[2][c]
			}
			y3 := y2
			if r.valid[3] {
				y3 = r.window[3][c]
			}
			out[c] = utils.CubicInterpolate(y0, y1, y2, y3, x)
		}

		written++
		r.pos += r.ratio
	}

	if written < frames {
		return written * r.channels, r.endErr()
	}
	return written * r.channels, nil
}
