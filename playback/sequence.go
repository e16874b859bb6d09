// SPDX-License-Identifier: EPL-2.0

package playback

import (
	"sync"

	"github.com/ik5/audpool/library"
	"github.com/ik5/audpool/transition"
)

// Sequence is a handle on one playback started by a Manager.
type Sequence struct {
	PlayMethod

	id   string
	req  Request
	core *base

	done     chan struct{}
	doneOnce sync.Once
	mu       sync.Mutex
	result   State
	release  func() bool
}

// ID is unique per sequence.
func (s *Sequence) ID() string { return s.id }

// Request returns the request the sequence was set up from.
func (s *Sequence) Request() Request { return s.req }

// Done is closed when the sequence completes or stops.
func (s *Sequence) Done() <-chan struct{} { return s.done }

// Result returns the terminal state, or Idle while the sequence runs.
func (s *Sequence) Result() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}

// Resource returns the resource currently bound to the player.
func (s *Sequence) Resource() *library.Resource {
	res, _, _ := s.core.snapshot()
	return res
}

// Player returns the pooled player. It belongs to another sequence once this
// one has finished.
func (s *Sequence) Player() Player {
	_, p, _ := s.core.snapshot()
	return p
}

// Gain returns the current fade gain in [0,1].
func (s *Sequence) Gain() float64 {
	_, _, g := s.core.snapshot()
	return g
}

// FadeTo fades the sequence's gain to target over spec's duration. A nil spec
// applies it immediately.
func (s *Sequence) FadeTo(target float64, spec *transition.Spec) {
	s.core.fadeTo(target, spec, false)
}

// FadeOut fades to silence and then stops the sequence.
func (s *Sequence) FadeOut(spec *transition.Spec) {
	s.core.fadeTo(0, spec, true)
}

func (s *Sequence) finished(st State) {
	s.doneOnce.Do(func() {
		s.mu.Lock()
		s.result = st
		release := s.release
		s.mu.Unlock()

		if release != nil {
			release()
		}
		close(s.done)
	})
}
