// SPDX-License-Identifier: EPL-2.0

package playback

import "github.com/ik5/audpool/library"

// Single plays one resource on one pooled player.
type Single struct {
	*base
}

// Setup resolves req.Key as a resource id or key and binds a player to it.
func (s *Single) Setup(req Request) error {
	return s.setup(req, func() (*library.Resource, error) {
		return s.env.lib.Resolve(req.Key)
	})
}
