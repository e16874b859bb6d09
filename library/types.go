// SPDX-License-Identifier: EPL-2.0

package library

import (
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// Range is an inclusive [Min, Max] interval a playback value is drawn from.
type Range struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

// Fixed returns a range that always yields v.
func Fixed(v float64) Range { return Range{Min: v, Max: v} }

// IsZero reports whether the range was left unset.
func (r Range) IsZero() bool { return r.Min == 0 && r.Max == 0 }

// Pick draws a value uniformly from the range. A nil rnd uses the global source.
func (r Range) Pick(rnd *rand.Rand) float64 {
	if r.Max <= r.Min {
		return r.Min
	}
	f := rand.Float64
	if rnd != nil {
		f = rnd.Float64
	}
	return r.Min + f()*(r.Max-r.Min)
}

// Resource is one playable clip and its playback defaults.
//
// Records handed out by a Library are shared; treat them as read-only and
// use Library.UpdateResource to change one.
type Resource struct {
	ID         string `yaml:"id"`
	Key        string `yaml:"key"`
	DefaultKey string `yaml:"default_key,omitempty"`
	Path       string `yaml:"path,omitempty"`

	Volume Range `yaml:"volume"`
	Pitch  Range `yaml:"pitch"`

	// DynamicStart is the detected offset in seconds where audible content
	// begins. Zero plays from the first sample.
	DynamicStart float64 `yaml:"dynamic_start,omitempty"`

	Tags     []string `yaml:"tags,omitempty"`
	Category string   `yaml:"category,omitempty"`
	Loop     bool     `yaml:"loop,omitempty"`
	Mixer    string   `yaml:"mixer,omitempty"`
}

// Name is the key the resource answers to: Key, or DefaultKey when unset.
func (r *Resource) Name() string {
	if r.Key != "" {
		return r.Key
	}
	return r.DefaultKey
}

// HasTag reports whether the resource carries tag.
func (r *Resource) HasTag(tag string) bool {
	return slices.Contains(r.Tags, tag)
}

// Clone returns a deep copy suitable for editing before UpdateResource.
func (r *Resource) Clone() *Resource {
	c := *r
	c.Tags = slices.Clone(r.Tags)
	return &c
}

func (r *Resource) normalize() {
	if r.Volume.IsZero() {
		r.Volume = Fixed(1)
	}
	if r.Pitch.IsZero() {
		r.Pitch = Fixed(1)
	}
}

func (r *Resource) validate() error {
	if r.Name() == "" {
		return fmt.Errorf("%w: resource %s has no key", ErrInvalidRecord, r.ID)
	}
	if r.Volume.Min > r.Volume.Max || r.Pitch.Min > r.Pitch.Max {
		return fmt.Errorf("%w: resource %q has an inverted range", ErrInvalidRecord, r.Name())
	}
	if r.Pitch.Min <= 0 {
		return fmt.Errorf("%w: resource %q pitch must be positive", ErrInvalidRecord, r.Name())
	}
	if r.DynamicStart < 0 {
		return fmt.Errorf("%w: resource %q has a negative start time", ErrInvalidRecord, r.Name())
	}
	return nil
}

// PlayMode selects how a group picks its next member.
type PlayMode int

const (
	// Sequential walks the members in order and wraps around.
	Sequential PlayMode = iota
	// Random picks any member except the one played last.
	Random
	// Shuffle plays every member once in random order before reshuffling.
	Shuffle
)

var playModeNames = [...]string{"sequential", "random", "shuffle"}

func (m PlayMode) String() string {
	if m < 0 || int(m) >= len(playModeNames) {
		return fmt.Sprintf("PlayMode(%d)", int(m))
	}
	return playModeNames[m]
}

// ParsePlayMode maps a mode name to its PlayMode.
func ParsePlayMode(s string) (PlayMode, error) {
	for i, name := range playModeNames {
		if strings.EqualFold(s, name) {
			return PlayMode(i), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown play mode %q", ErrInvalidRecord, s)
}

func (m PlayMode) MarshalYAML() (any, error) {
	return m.String(), nil
}

func (m *PlayMode) UnmarshalYAML(value *yaml.Node) error {
	mode, err := ParsePlayMode(value.Value)
	if err != nil {
		return err
	}
	*m = mode
	return nil
}

// Group is a named ordered set of resource ids.
type Group struct {
	ID      string   `yaml:"id"`
	Key     string   `yaml:"key"`
	Members []string `yaml:"members"`
	Mode    PlayMode `yaml:"mode"`
}

// Name is the key the group answers to.
func (g *Group) Name() string { return g.Key }

// HasMember reports whether id is one of the group's members.
func (g *Group) HasMember(id string) bool {
	return slices.Contains(g.Members, id)
}

func (g *Group) validate() error {
	if g.Key == "" {
		return fmt.Errorf("%w: group %s has no key", ErrInvalidRecord, g.ID)
	}
	if len(g.Members) == 0 {
		return fmt.Errorf("%w: group %q has no members", ErrInvalidRecord, g.Key)
	}
	return nil
}

// Mixer identifies an output bus on the host.
type Mixer struct {
	ID     string  `yaml:"id"`
	Key    string  `yaml:"key"`
	Handle string  `yaml:"handle,omitempty"`
	Volume float64 `yaml:"volume"`
}

// Name is the key the mixer answers to.
func (m *Mixer) Name() string { return m.Key }

func (m *Mixer) validate() error {
	if m.Key == "" {
		return fmt.Errorf("%w: mixer %s has no key", ErrInvalidRecord, m.ID)
	}
	if m.Volume < 0 {
		return fmt.Errorf("%w: mixer %q has negative volume", ErrInvalidRecord, m.Key)
	}
	return nil
}
