// SPDX-License-Identifier: EPL-2.0

package library

import (
	"cmp"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Version is a major.minor.patch triple compared field by field.
type Version struct {
	Major, Minor, Patch int
}

// CurrentVersion is the table layout this package reads and writes.
var CurrentVersion = Version{Major: 1}

// ParseVersion accepts "1", "1.2" or "1.2.3".
func ParseVersion(s string) (Version, error) {
	var v Version
	parts := strings.Split(strings.TrimPrefix(s, "v"), ".")
	if len(parts) > 3 || s == "" {
		return v, fmt.Errorf("%w: %q", ErrUnsupportedVersion, s)
	}

	fields := []*int{&v.Major, &v.Minor, &v.Patch}
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return Version{}, fmt.Errorf("%w: %q", ErrUnsupportedVersion, s)
		}
		*fields[i] = n
	}
	return v, nil
}

// Compare returns -1, 0 or +1.
func (v Version) Compare(o Version) int {
	if c := cmp.Compare(v.Major, o.Major); c != 0 {
		return c
	}
	if c := cmp.Compare(v.Minor, o.Minor); c != 0 {
		return c
	}
	return cmp.Compare(v.Patch, o.Patch)
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

func (v Version) MarshalYAML() (any, error) {
	return v.String(), nil
}

func (v *Version) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := ParseVersion(value.Value)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// document is the on-disk table.
type document struct {
	Version   Version     `yaml:"version"`
	Resources []*Resource `yaml:"resources"`
	Groups    []*Group    `yaml:"groups,omitempty"`
	Mixers    []*Mixer    `yaml:"mixers,omitempty"`
}

// Load reads a YAML table into a new library. Tables written by a newer
// major version are rejected.
func Load(r io.Reader, opts ...Option) (*Library, error) {
	var doc document
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decoding library: %w", err)
	}
	if doc.Version.Major > CurrentVersion.Major {
		return nil, fmt.Errorf("%w: %s is newer than %s", ErrUnsupportedVersion, doc.Version, CurrentVersion)
	}

	l := New(opts...)
	for _, m := range doc.Mixers {
		if err := l.AddMixer(m); err != nil {
			return nil, err
		}
	}
	for _, res := range doc.Resources {
		if err := l.AddResource(res); err != nil {
			return nil, err
		}
	}
	for _, g := range doc.Groups {
		if err := l.AddGroup(g); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// LoadFile loads a table from disk. Relative clip paths are resolved against
// the table's directory.
func LoadFile(path string, opts ...Option) (*Library, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening library: %w", err)
	}
	defer f.Close()

	l, err := Load(f, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}

	dir := filepath.Dir(path)
	l.mu.Lock()
	for _, res := range l.resources.byID {
		if res.Path != "" && !filepath.IsAbs(res.Path) {
			res.Path = filepath.Join(dir, res.Path)
		}
	}
	l.mu.Unlock()

	return l, nil
}

// Save writes the library as a YAML table.
func (l *Library) Save(w io.Writer) error {
	doc := document{
		Version:   CurrentVersion,
		Resources: l.Resources(),
		Groups:    l.Groups(),
		Mixers:    l.Mixers(),
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return fmt.Errorf("encoding library: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("%w", err)
	}
	return nil
}
