// SPDX-License-Identifier: EPL-2.0

package playback

import (
	"errors"
	"fmt"
)

var (
	// ErrSetupFailed wraps every failure to prepare a sequence.
	ErrSetupFailed = errors.New("playback setup failed")

	// ErrParserNotFound is returned for an edit module no parser handles.
	ErrParserNotFound = errors.New("edit module parser not found")

	// ErrInvalidModule is returned for an edit module with an out of range value.
	ErrInvalidModule = errors.New("invalid edit module")

	// ErrInvalidState is returned for a transition the state machine forbids.
	ErrInvalidState = errors.New("invalid playback state")

	// ErrEmptyRequest is returned for a request without a key.
	ErrEmptyRequest = errors.New("empty playback request")
)

// SetupError reports why a request could not be prepared. It matches
// ErrSetupFailed and the underlying cause with errors.Is.
type SetupError struct {
	Request string
	Err     error
}

func (e *SetupError) Error() string {
	return fmt.Sprintf("setting up %q: %v", e.Request, e.Err)
}

func (e *SetupError) Unwrap() []error {
	return []error{ErrSetupFailed, e.Err}
}

func setupError(req Request, err error) error {
	return &SetupError{Request: req.Key, Err: err}
}
