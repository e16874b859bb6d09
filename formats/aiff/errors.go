// SPDX-License-Identifier: EPL-2.0

package aiff

import "errors"

var (
	// ErrNotAiffFile indicates the data is not a FORM/AIFF container
	ErrNotAiffFile = errors.New("not an AIFF file")

	// ErrUnsupportedAiffLayout indicates a container go-audio could not read
	ErrUnsupportedAiffLayout = errors.New("unsupported AIFF layout")
)
