// SPDX-License-Identifier: EPL-2.0

// Package transition describes timed fades between playback sources.
//
// A Spec is a typed parameter bag created once per transition. The duration
// and unscaled-time flag live in the bag under "duration" (float seconds) and
// "unscaled" (bool), so hosts can read every setting through one API.
package transition

import (
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/ik5/audpool/internal/logging"
)

// Reserved parameter keys.
const (
	ParamDuration = "duration"
	ParamUnscaled = "unscaled"
	ParamCurve    = "curve"
)

// Spec is one transition's parameters.
type Spec struct {
	ID string

	mu     sync.RWMutex
	params map[string]Value
	logger *log.Logger
}

// Option configures a Spec.
type Option func(*Spec)

// WithLogger routes missing-parameter warnings to logger.
func WithLogger(logger *log.Logger) Option {
	return func(s *Spec) { s.logger = logging.Component(logger, "transition") }
}

// WithID overrides the generated id.
func WithID(id string) Option {
	return func(s *Spec) { s.ID = id }
}

// New returns a spec with a fresh id. A negative duration is stored as zero.
func New(duration time.Duration, unscaled bool, opts ...Option) *Spec {
	s := &Spec{
		ID:     uuid.NewString(),
		params: make(map[string]Value, 4),
		logger: logging.Component(nil, "transition"),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.SetDuration(duration)
	s.SetUnscaled(unscaled)
	return s
}

// Duration returns the transition length.
func (s *Spec) Duration() time.Duration {
	secs, _ := Lookup[float64](s, ParamDuration)
	return time.Duration(secs * float64(time.Second))
}

// SetDuration stores d, clamped at zero.
func (s *Spec) SetDuration(d time.Duration) {
	s.set(ParamDuration, ValueOf(max(d, 0).Seconds()))
}

// Unscaled reports whether the transition ignores the host's time scale.
func (s *Spec) Unscaled() bool {
	v, _ := Lookup[bool](s, ParamUnscaled)
	return v
}

// SetUnscaled stores the unscaled-time flag.
func (s *Spec) SetUnscaled(v bool) {
	s.set(ParamUnscaled, ValueOf(v))
}

// Curve returns the curve named by the "curve" parameter, Linear by default.
func (s *Spec) Curve() Curve {
	name, err := Lookup[string](s, ParamCurve)
	if err != nil {
		return Linear
	}
	c, err := ParseCurve(name)
	if err != nil {
		s.logger.Warn("unknown curve, using linear", "transition", s.ID, "curve", name)
		return Linear
	}
	return c
}

// Fade returns a fade from one gain to another using the spec's duration and
// curve.
func (s *Spec) Fade(from, to float64) Fade {
	return Fade{From: from, To: to, Duration: s.Duration(), Curve: s.Curve()}
}

// Has reports whether key is set.
func (s *Spec) Has(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.params[key]
	return ok
}

// Keys lists the parameter keys in sorted order.
func (s *Spec) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Sorted(maps.Keys(s.params))
}

// Delete removes key. The reserved keys cannot be removed.
func (s *Spec) Delete(key string) {
	if key == ParamDuration || key == ParamUnscaled {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.params, key)
}

func (s *Spec) String() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fmt.Sprintf("transition(%s, %d params)", s.ID, len(s.params))
}

func (s *Spec) set(key string, v Value) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.params[key] = v
}

func (s *Spec) get(key string) (Value, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.params[key]
	return v, ok
}

// Set stores v under key, replacing any previous value. "duration" accepts
// float seconds or a time.Duration and is clamped at zero; "unscaled" only
// accepts a bool.
func Set[T Scalar](s *Spec, key string, v T) error {
	val := ValueOf(v)
	switch key {
	case ParamDuration:
		secs, ok := Get[float64](val)
		if d, isDur := Get[time.Duration](val); isDur {
			secs, ok = d.Seconds(), true
		}
		if !ok {
			return fmt.Errorf("%w: %q must be float seconds, got %s", ErrInvalidParameter, key, val.Kind())
		}
		val = ValueOf(max(secs, 0))
	case ParamUnscaled:
		if val.Kind() != KindBool {
			return fmt.Errorf("%w: %q must be bool, got %s", ErrInvalidParameter, key, val.Kind())
		}
	}
	s.set(key, val)
	return nil
}

// Lookup returns the value under key as a T, or ErrInvalidParameter when the
// key is missing or holds another kind.
func Lookup[T Scalar](s *Spec, key string) (T, error) {
	v, ok := s.get(key)
	if !ok {
		var zero T
		return zero, fmt.Errorf("%w: %q not set", ErrInvalidParameter, key)
	}
	out, ok := Get[T](v)
	if !ok {
		return out, fmt.Errorf("%w: %q holds %s, not %s", ErrInvalidParameter, key, v.Kind(), kindOf[T]())
	}
	return out, nil
}

// Param returns the value under key, or T's zero value with a warning.
func Param[T Scalar](s *Spec, key string) T {
	var zero T
	return ParamOr(s, key, zero)
}

// ParamOr returns the value under key, or def with a warning.
func ParamOr[T Scalar](s *Spec, key string, def T) T {
	v, err := Lookup[T](s, key)
	if err != nil {
		s.logger.Warn("using default transition parameter", "transition", s.ID, "key", key, "default", def, "err", err)
		return def
	}
	return v
}
