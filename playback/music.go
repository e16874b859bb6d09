// SPDX-License-Identifier: EPL-2.0

package playback

import (
	"context"
	"sync"

	"github.com/ik5/audpool/transition"
)

// MusicPlayer keeps at most one music track audible, crossfading between
// tracks. Both the outgoing and incoming track hold a pooled player until
// the fade finishes.
type MusicPlayer struct {
	mgr      *Manager
	playlist string
	modules  []Module

	mu      sync.Mutex
	current *Sequence
}

// NewMusicPlayer returns a player whose PlayNext walks the group playlist.
// modules are applied to every playlist track.
func NewMusicPlayer(mgr *Manager, playlist string, modules ...Module) *MusicPlayer {
	return &MusicPlayer{mgr: mgr, playlist: playlist, modules: modules}
}

// Play starts req, fading it in and the current track out over spec. A nil
// spec cuts immediately. When req cannot be played the current track keeps
// playing.
func (p *MusicPlayer) Play(ctx context.Context, req Request, spec *transition.Spec) (*Sequence, error) {
	p.mu.Lock()
	prev := p.current
	p.mu.Unlock()

	if spec != nil && spec.Duration() > 0 {
		req.Transition = spec
	}

	next, err := p.mgr.Play(ctx, req)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	p.current = next
	p.mu.Unlock()

	if prev != nil {
		prev.FadeOut(spec)
	}
	return next, nil
}

// PlayNext crossfades to the playlist's next track.
func (p *MusicPlayer) PlayNext(ctx context.Context, spec *transition.Spec) (*Sequence, error) {
	return p.Play(ctx, Request{Key: p.playlist, IsGroup: true, Modules: p.modules}, spec)
}

// Stop fades the current track out over spec.
func (p *MusicPlayer) Stop(spec *transition.Spec) {
	p.mu.Lock()
	prev := p.current
	p.current = nil
	p.mu.Unlock()

	if prev != nil {
		prev.FadeOut(spec)
	}
}

// Current returns the track most recently started, or nil.
func (p *MusicPlayer) Current() *Sequence {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.current != nil && p.current.State().Finished() {
		p.current = nil
	}
	return p.current
}
