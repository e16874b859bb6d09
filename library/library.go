// SPDX-License-Identifier: EPL-2.0

package library

import (
	"fmt"
	"slices"
	"sort"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/ik5/audpool/internal/logging"
)

// Library owns every resource, group and mixer record together with the
// indices derived from them. All mutation goes through its methods, which
// invalidate the indices; lookups rebuild them on first use.
type Library struct {
	mu sync.RWMutex

	resources *table[*Resource]
	groups    *table[*Group]
	mixers    *table[*Mixer]

	tags map[string][]string // tag -> sorted resource keys, nil when stale

	logger *log.Logger
	newID  func() string
}

// Option configures a Library.
type Option func(*Library)

// WithLogger routes lookup warnings to logger.
func WithLogger(logger *log.Logger) Option {
	return func(l *Library) {
		l.logger = logging.Component(logger, "library")
	}
}

// WithIDGenerator replaces uuid.NewString for records added without an id.
func WithIDGenerator(gen func() string) Option {
	return func(l *Library) {
		l.newID = gen
	}
}

// New returns an empty library.
func New(opts ...Option) *Library {
	l := &Library{
		resources: newTable(KindResource,
			func(r *Resource) string { return r.ID },
			func(r *Resource) []string { return []string{r.DefaultKey} }),
		groups: newTable[*Group](KindGroup,
			func(g *Group) string { return g.ID }, nil),
		mixers: newTable[*Mixer](KindMixer,
			func(m *Mixer) string { return m.ID }, nil),
		logger: logging.Component(nil, "library"),
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// lookup runs get against t, rebuilding a stale index under the write lock.
func lookup[T record](l *Library, t *table[T], request string) (T, error) {
	l.mu.RLock()
	fresh := t.fresh()
	var (
		v  T
		ok bool
	)
	if fresh {
		v, ok = t.get(request)
	}
	l.mu.RUnlock()

	if !fresh {
		l.mu.Lock()
		if !t.fresh() {
			t.index()
		}
		v, ok = t.get(request)
		l.mu.Unlock()
	}

	if !ok {
		l.logger.Warn("lookup failed", "kind", t.kind, "request", request)
		return v, &NotFoundError{Kind: t.kind, Request: request}
	}
	return v, nil
}

// Resolve finds a resource by id, then by key, then by default key.
func (l *Library) Resolve(request string) (*Resource, error) {
	return lookup(l, l.resources, request)
}

// ResolveGroup finds a group by id, then by key.
func (l *Library) ResolveGroup(request string) (*Group, error) {
	return lookup(l, l.groups, request)
}

// ResolveMixer finds a mixer target by id, then by key.
func (l *Library) ResolveMixer(request string) (*Mixer, error) {
	return lookup(l, l.mixers, request)
}

// GroupMembers resolves every member of the group named by request, in order.
func (l *Library) GroupMembers(request string) ([]*Resource, error) {
	g, err := l.ResolveGroup(request)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.resources.fresh() {
		l.resources.index()
	}
	out := make([]*Resource, 0, len(g.Members))
	for _, member := range g.Members {
		r, ok := l.resources.get(member)
		if !ok {
			return nil, &DanglingReferenceError{Group: g.Key, Member: member}
		}
		out = append(out, r)
	}
	return out, nil
}

// AddResource stores r, assigning an id when it has none. A rejected r
// keeps the id it came with.
func (l *Library) AddResource(r *Resource) error {
	r.normalize()
	if err := r.validate(); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	generated := l.assignID(&r.ID)
	if err := l.resources.add(r); err != nil {
		if generated {
			r.ID = ""
		}
		return err
	}
	l.tags = nil
	return nil
}

// UpdateResource replaces the stored record with the same id. Use it after
// changing tags, ranges or the detected start time on a Clone.
func (l *Library) UpdateResource(r *Resource) error {
	r.normalize()
	if err := r.validate(); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.resources.replace(r); err != nil {
		return err
	}
	l.tags = nil
	return nil
}

// RemoveResource deletes the resource matching request (id or key).
// Groups that still list it report ErrDanglingReference on their next use.
func (l *Library) RemoveResource(request string) (*Resource, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	r, ok := l.resources.remove(request)
	if !ok {
		return nil, &NotFoundError{Kind: KindResource, Request: request}
	}
	l.tags = nil
	return r, nil
}

// AddGroup stores g, assigning an id when it has none.
func (l *Library) AddGroup(g *Group) error {
	if err := g.validate(); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	generated := l.assignID(&g.ID)
	if err := l.groups.add(g); err != nil {
		if generated {
			g.ID = ""
		}
		return err
	}
	return nil
}

// RemoveGroup deletes the group matching request.
func (l *Library) RemoveGroup(request string) (*Group, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	g, ok := l.groups.remove(request)
	if !ok {
		return nil, &NotFoundError{Kind: KindGroup, Request: request}
	}
	return g, nil
}

// AddMixer stores m. A zero volume is treated as unity gain.
func (l *Library) AddMixer(m *Mixer) error {
	if m.Volume == 0 {
		m.Volume = 1
	}
	if err := m.validate(); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	generated := l.assignID(&m.ID)
	if err := l.mixers.add(m); err != nil {
		if generated {
			m.ID = ""
		}
		return err
	}
	return nil
}

// assignID fills an empty id and reports whether it did.
func (l *Library) assignID(id *string) bool {
	if *id != "" {
		return false
	}
	*id = l.newID()
	return true
}

// RemoveMixer deletes the mixer matching request.
func (l *Library) RemoveMixer(request string) (*Mixer, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	m, ok := l.mixers.remove(request)
	if !ok {
		return nil, &NotFoundError{Kind: KindMixer, Request: request}
	}
	return m, nil
}

// Clear drops every record.
func (l *Library) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.resources.clear()
	l.groups.clear()
	l.mixers.clear()
	l.tags = nil
}

// Resources lists resources in insertion order.
func (l *Library) Resources() []*Resource {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.resources.list()
}

// Groups lists groups in insertion order.
func (l *Library) Groups() []*Group {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.groups.list()
}

// Mixers lists mixer targets in insertion order.
func (l *Library) Mixers() []*Mixer {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.mixers.list()
}

// Len returns the number of resources.
func (l *Library) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.resources.byID)
}

// KeysWithTag returns the sorted keys of resources tagged with tag.
func (l *Library) KeysWithTag(tag string) []string {
	return slices.Clone(l.tagIndex()[tag])
}

// Tags returns a copy of the tag -> resource keys index.
func (l *Library) Tags() map[string][]string {
	idx := l.tagIndex()
	out := make(map[string][]string, len(idx))
	for tag, keys := range idx {
		out[tag] = slices.Clone(keys)
	}
	return out
}

func (l *Library) tagIndex() map[string][]string {
	l.mu.RLock()
	if l.tags != nil {
		idx := l.tags
		l.mu.RUnlock()
		return idx
	}
	l.mu.RUnlock()

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.tags == nil {
		idx := make(map[string][]string)
		for _, r := range l.resources.byID {
			for _, tag := range r.Tags {
				if !slices.Contains(idx[tag], r.Name()) {
					idx[tag] = append(idx[tag], r.Name())
				}
			}
		}
		for _, keys := range idx {
			sort.Strings(keys)
		}
		l.tags = idx
	}
	return l.tags
}

func (l *Library) String() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return fmt.Sprintf("library(%d resources, %d groups, %d mixers)",
		len(l.resources.byID), len(l.groups.byID), len(l.mixers.byID))
}
