// SPDX-License-Identifier: EPL-2.0

package beepout

import (
	"errors"
	"io"

	"github.com/gopxl/beep"

	"github.com/ik5/audpool/audio"
)

const maxEmptyReads = 100

// sourceStreamer adapts an audio.Source to a beep.Streamer. Mono sources are
// copied to both sides; sources with more than two channels must be mixed
// down first.
type sourceStreamer struct {
	src  audio.Source
	buf  []float32
	err  error
	done bool
}

func (s *sourceStreamer) Stream(samples [][2]float64) (int, bool) {
	if s.done {
		return 0, false
	}

	ch := s.src.Channels()
	if want := len(samples) * ch; cap(s.buf) < want {
		s.buf = make([]float32, want)
	}

	filled, empty := 0, 0
	for filled < len(samples) {
		n, err := s.src.ReadSamples(s.buf[:(len(samples)-filled)*ch])
		frames := n / ch
		for i := range frames {
			l := float64(s.buf[i*ch])
			r := l
			if ch > 1 {
				r = float64(s.buf[i*ch+1])
			}
			samples[filled+i] = [2]float64{l, r}
		}
		filled += frames

		if err != nil {
			if !errors.Is(err, io.EOF) {
				s.err = err
			}
			s.done = true
			break
		}
		if n == 0 {
			if empty++; empty >= maxEmptyReads {
				s.err = io.ErrNoProgress
				s.done = true
				break
			}
		}
	}

	if filled == 0 && s.done {
		return 0, false
	}
	return filled, true
}

func (s *sourceStreamer) Err() error { return s.err }

// looper replays the clip from its start offset while loop is set. It reads
// loop under the audio lock.
type looper struct {
	open   func() (*sourceStreamer, error)
	cur    *sourceStreamer
	loop   bool
	played int
	err    error
}

func (l *looper) Stream(samples [][2]float64) (int, bool) {
	n := 0
	for n < len(samples) && l.cur != nil {
		sn, ok := l.cur.Stream(samples[n:])
		n += sn
		l.played += sn
		if ok {
			continue
		}
		if err := l.cur.Err(); err != nil {
			l.err = err
			l.cur = nil
			break
		}
		// an empty clip would spin forever
		if !l.loop || l.played == 0 {
			l.cur = nil
			break
		}
		next, err := l.open()
		if err != nil {
			l.err = err
			l.cur = nil
			break
		}
		l.cur, l.played = next, 0
	}
	return n, n > 0 || l.cur != nil
}

func (l *looper) Err() error { return l.err }

// keepAlive pads an inner streamer with silence and never drains, so a bus
// stays in its parent mixer while idle.
type keepAlive struct {
	beep.Streamer
}

func (k keepAlive) Stream(samples [][2]float64) (int, bool) {
	n, _ := k.Streamer.Stream(samples)
	clear(samples[n:])
	return len(samples), true
}

func (k keepAlive) Err() error { return nil }
