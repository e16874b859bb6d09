// SPDX-License-Identifier: EPL-2.0

package transition

import "errors"

var (
	// ErrInvalidParameter is returned for a missing key or a value stored
	// under a different kind than the one requested.
	ErrInvalidParameter = errors.New("invalid transition parameter")

	// ErrUnknownCurve is returned by ParseCurve for an unregistered name.
	ErrUnknownCurve = errors.New("unknown curve")
)
