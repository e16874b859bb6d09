// SPDX-License-Identifier: EPL-2.0

package detect

import "errors"

var (
	// ErrNoOnset is returned when no sample rises above the threshold.
	ErrNoOnset = errors.New("no onset found")

	// ErrInvalidFormat is returned for a non-positive channel count or sample rate.
	ErrInvalidFormat = errors.New("invalid sample format")

	// ErrInvalidThreshold is returned for a negative or non-finite threshold.
	ErrInvalidThreshold = errors.New("invalid threshold")
)
