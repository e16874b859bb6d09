// SPDX-License-Identifier: EPL-2.0

package beepout

import "errors"

var (
	// ErrNotLoaded is returned by Play before a successful Load.
	ErrNotLoaded = errors.New("no clip loaded")

	// ErrNoClip is returned by Load for a resource without a path or
	// preloaded clip.
	ErrNoClip = errors.New("resource has no clip")
)
