// SPDX-License-Identifier: EPL-2.0

package pool

import "errors"

var (
	// ErrExhausted is returned by Assign when every member is in use and the
	// pool may not grow.
	ErrExhausted = errors.New("pool exhausted")

	// ErrInvalidConfig is returned by New for a negative size or a maximum
	// below the initial size.
	ErrInvalidConfig = errors.New("invalid pool config")

	// ErrNilFactory is returned by New when no factory is supplied.
	ErrNilFactory = errors.New("pool factory is nil")
)
