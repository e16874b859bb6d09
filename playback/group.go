// SPDX-License-Identifier: EPL-2.0

package playback

import (
	"math/rand/v2"
	"sync"

	"github.com/ik5/audpool/library"
)

// GroupSequence plays the members of a group one at a time, choosing each by
// the group's play mode. The choice carries over between requests for the
// same group, so repeated requests walk through the group.
type GroupSequence struct {
	*base

	group  *library.Group
	picker *picker
}

// Setup resolves req.Key as a group, picks its next member and binds a player.
func (g *GroupSequence) Setup(req Request) error {
	return g.setup(req, func() (*library.Resource, error) {
		grp, err := g.env.lib.ResolveGroup(req.Key)
		if err != nil {
			return nil, err
		}
		g.group = grp
		g.picker = g.env.pickers.get(grp)
		g.advance = g.next
		return g.next()
	})
}

// Group returns the resolved group, or nil before Setup.
func (g *GroupSequence) Group() *library.Group {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.group
}

func (g *GroupSequence) next() (*library.Resource, error) {
	members, err := g.env.lib.GroupMembers(g.group.ID)
	if err != nil {
		return nil, err
	}
	return members[g.picker.next(len(members))], nil
}

// picker remembers where a group's selection left off.
type picker struct {
	mu    sync.Mutex
	mode  library.PlayMode
	rnd   *rand.Rand
	last  int
	order []int
	pos   int
}

func newPicker(mode library.PlayMode, rnd *rand.Rand) *picker {
	return &picker{mode: mode, rnd: rnd, last: -1}
}

// next returns the index of the member to play out of n.
func (p *picker) next(n int) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	if n <= 1 {
		p.last = 0
		return 0
	}

	var i int
	switch p.mode {
	case library.Random:
		if p.last < 0 || p.last >= n {
			i = p.rnd.IntN(n)
			break
		}
		// skip over the previous pick
		i = p.rnd.IntN(n - 1)
		if i >= p.last {
			i++
		}
	case library.Shuffle:
		if len(p.order) != n || p.pos >= n {
			p.reshuffle(n)
		}
		i = p.order[p.pos]
		p.pos++
	default:
		i = (p.last + 1) % n
	}
	p.last = i
	return i
}

// reshuffle draws a new permutation whose first entry differs from the last
// pick, so no member plays twice in a row across rounds.
func (p *picker) reshuffle(n int) {
	p.order = p.rnd.Perm(n)
	p.pos = 0
	if p.order[0] == p.last {
		j := 1 + p.rnd.IntN(n-1)
		p.order[0], p.order[j] = p.order[j], p.order[0]
	}
}

// pickers holds one picker per group id.
type pickers struct {
	mu  sync.Mutex
	rnd func() *rand.Rand
	m   map[string]*picker
}

func newPickers(seed func() *rand.Rand) *pickers {
	return &pickers{rnd: seed, m: make(map[string]*picker)}
}

func (ps *pickers) get(g *library.Group) *picker {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	p, ok := ps.m[g.ID]
	if !ok || p.mode != g.Mode {
		p = newPicker(g.Mode, ps.rnd())
		ps.m[g.ID] = p
	}
	return p
}

func (ps *pickers) reset() {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	clear(ps.m)
}
