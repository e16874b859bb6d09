// SPDX-License-Identifier: EPL-2.0

package library

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrDuplicate          = errors.New("duplicate id or key")
	ErrDanglingReference  = errors.New("group references a missing resource")
	ErrInvalidRecord      = errors.New("invalid library record")
	ErrUnsupportedVersion = errors.New("unsupported library version")
)

// Kind names the table a lookup ran against.
type Kind string

const (
	KindResource Kind = "resource"
	KindGroup    Kind = "group"
	KindMixer    Kind = "mixer"
)

// NotFoundError reports a request that matched neither an id nor a key.
type NotFoundError struct {
	Kind    Kind
	Request string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.Request)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// DanglingReferenceError names the group member that no longer resolves.
type DanglingReferenceError struct {
	Group  string
	Member string
}

func (e *DanglingReferenceError) Error() string {
	return fmt.Sprintf("group %q: member %q does not resolve to a resource", e.Group, e.Member)
}

func (e *DanglingReferenceError) Unwrap() error { return ErrDanglingReference }
