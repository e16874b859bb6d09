// SPDX-License-Identifier: EPL-2.0

package pcm

import "errors"

var (
	ErrInvalidFormat       = errors.New("pcm format is missing channels or sample rate")
	ErrUnsupportedBitDepth = errors.New("unsupported pcm bit depth")
)
