// SPDX-License-Identifier: EPL-2.0

package playback

import (
	"fmt"
	"math"
	"time"

	"github.com/ik5/audpool/library"
)

// Module is an edit applied to a request's settings. The set of modules is
// closed: Volume, Pitch, Delay, Loop, MixerRoute, DynamicStart and
// GlobalVariance.
type Module interface {
	apply(s *settings) error
	fmt.Stringer
}

// settings are the playback parameters a request resolves to before a
// resource's own defaults are filled in.
type settings struct {
	volume    *library.Range
	pitch     *library.Range
	delay     time.Duration
	loop      *bool
	mixer     string
	dynStart  bool
	varVolume float64
	varPitch  float64
}

// Volume overrides the resource's volume range.
type Volume struct{ Range library.Range }

func (m Volume) apply(s *settings) error {
	if m.Range.Min < 0 || m.Range.Min > m.Range.Max {
		return fmt.Errorf("%w: %s", ErrInvalidModule, m)
	}
	r := m.Range
	s.volume = &r
	return nil
}

func (m Volume) String() string { return fmt.Sprintf("volume[%g,%g]", m.Range.Min, m.Range.Max) }

// Pitch overrides the resource's pitch range.
type Pitch struct{ Range library.Range }

func (m Pitch) apply(s *settings) error {
	if m.Range.Min <= 0 || m.Range.Min > m.Range.Max {
		return fmt.Errorf("%w: %s", ErrInvalidModule, m)
	}
	r := m.Range
	s.pitch = &r
	return nil
}

func (m Pitch) String() string { return fmt.Sprintf("pitch[%g,%g]", m.Range.Min, m.Range.Max) }

// Delay postpones the start. Delays accumulate.
type Delay struct{ After time.Duration }

func (m Delay) apply(s *settings) error {
	if m.After < 0 {
		return fmt.Errorf("%w: %s", ErrInvalidModule, m)
	}
	s.delay += m.After
	return nil
}

func (m Delay) String() string { return "delay(" + m.After.String() + ")" }

// Loop overrides the resource's loop flag. A looping group advances to its
// next member each time one ends.
type Loop struct{ Enabled bool }

func (m Loop) apply(s *settings) error {
	v := m.Enabled
	s.loop = &v
	return nil
}

func (m Loop) String() string { return fmt.Sprintf("loop(%t)", m.Enabled) }

// MixerRoute sends the output to the mixer target with the given id or key.
type MixerRoute struct{ Mixer string }

func (m MixerRoute) apply(s *settings) error {
	if m.Mixer == "" {
		return fmt.Errorf("%w: mixer route without a target", ErrInvalidModule)
	}
	s.mixer = m.Mixer
	return nil
}

func (m MixerRoute) String() string { return "mixer(" + m.Mixer + ")" }

// DynamicStart toggles skipping the resource's leading silence.
type DynamicStart struct{ Enabled bool }

func (m DynamicStart) apply(s *settings) error {
	s.dynStart = m.Enabled
	return nil
}

func (m DynamicStart) String() string { return fmt.Sprintf("dynamic-start(%t)", m.Enabled) }

// GlobalVariance adds a uniform random offset in [-Volume, Volume] and
// [-Pitch, Pitch] on top of the picked values.
type GlobalVariance struct{ Volume, Pitch float64 }

func (m GlobalVariance) apply(s *settings) error {
	if m.Volume < 0 || m.Pitch < 0 || math.IsNaN(m.Volume) || math.IsNaN(m.Pitch) {
		return fmt.Errorf("%w: %s", ErrInvalidModule, m)
	}
	s.varVolume = m.Volume
	s.varPitch = m.Pitch
	return nil
}

func (m GlobalVariance) String() string {
	return fmt.Sprintf("variance(volume=%g, pitch=%g)", m.Volume, m.Pitch)
}

// applyModules runs mods over s in order.
func applyModules(s *settings, mods []Module) error {
	for i, m := range mods {
		if m == nil {
			return fmt.Errorf("%w: module %d is nil", ErrParserNotFound, i)
		}
		if err := m.apply(s); err != nil {
			return err
		}
	}
	return nil
}
