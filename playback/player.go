// SPDX-License-Identifier: EPL-2.0

package playback

import (
	"time"

	"github.com/ik5/audpool/library"
)

// Player is the host's playable source. Sequences drive one Player at a
// time; a Player is reused across sequences through the pool.
//
// Stop must not invoke a completion callback.
type Player interface {
	Load(res *library.Resource) error
	Play() error
	Pause()
	Resume()
	Stop()

	SetVolume(v float64)
	SetPitch(p float64)
	SetOutput(m *library.Mixer)
	SetStart(d time.Duration)
	SetLoop(loop bool)

	IsPlaying() bool
	Length() time.Duration
}

// CompletionNotifier is implemented by players that report the end of a clip
// instead of being polled. OnComplete replaces any earlier callback; nil
// clears it. The callback may run on any goroutine.
type CompletionNotifier interface {
	OnComplete(fn func())
}
