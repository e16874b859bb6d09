// SPDX-License-Identifier: EPL-2.0

package library

import (
	"fmt"
	"slices"
)

// record is implemented by *Resource, *Group and *Mixer.
type record interface {
	Name() string
}

// table owns one record kind: the primary id map, insertion order and the
// lazily built key -> id reverse index. Callers hold the Library lock.
type table[T record] struct {
	kind  Kind
	idOf  func(T) string
	alias func(T) []string // extra keys a record answers to

	byID  map[string]T
	order []string
	keys  map[string]string // nil when stale
}

func newTable[T record](kind Kind, idOf func(T) string, alias func(T) []string) *table[T] {
	return &table[T]{
		kind:  kind,
		idOf:  idOf,
		alias: alias,
		byID:  make(map[string]T),
	}
}

func (t *table[T]) invalidate() {
	t.keys = nil
}

func (t *table[T]) fresh() bool {
	return t.keys != nil
}

// index rebuilds the reverse map. Primary keys win over aliases.
func (t *table[T]) index() {
	keys := make(map[string]string, len(t.byID))
	for _, id := range t.order {
		if t.alias == nil {
			break
		}
		for _, a := range t.alias(t.byID[id]) {
			if a != "" {
				keys[a] = id
			}
		}
	}
	for _, id := range t.order {
		keys[t.byID[id].Name()] = id
	}
	t.keys = keys
}

// get looks request up as an id, then as a key. The index must be fresh.
func (t *table[T]) get(request string) (T, bool) {
	if v, ok := t.byID[request]; ok {
		return v, true
	}
	if id, ok := t.keys[request]; ok {
		return t.byID[id], true
	}
	var zero T
	return zero, false
}

// keyOwner returns the id of the record whose primary key is key.
func (t *table[T]) keyOwner(key string) (string, bool) {
	if !t.fresh() {
		t.index()
	}
	owner, ok := t.keys[key]
	if !ok || t.byID[owner].Name() != key {
		return "", false
	}
	return owner, true
}

// conflict reports whether id or key would resolve to a record other than
// the one stored under id. Ids and keys share one lookup namespace.
func (t *table[T]) conflict(id, key string) error {
	if owner, ok := t.keyOwner(key); ok && owner != id {
		return fmt.Errorf("%w: %s key %q", ErrDuplicate, t.kind, key)
	}
	if other, ok := t.byID[key]; ok && t.idOf(other) != id {
		return fmt.Errorf("%w: %s key %q is the id of another %s", ErrDuplicate, t.kind, key, t.kind)
	}
	if owner, ok := t.keyOwner(id); ok && owner != id {
		return fmt.Errorf("%w: %s id %q is the key of another %s", ErrDuplicate, t.kind, id, t.kind)
	}
	return nil
}

func (t *table[T]) add(v T) error {
	id := t.idOf(v)
	if _, ok := t.byID[id]; ok {
		return fmt.Errorf("%w: %s id %q", ErrDuplicate, t.kind, id)
	}
	if err := t.conflict(id, v.Name()); err != nil {
		return err
	}

	t.byID[id] = v
	t.order = append(t.order, id)
	t.invalidate()
	return nil
}

func (t *table[T]) replace(v T) error {
	id := t.idOf(v)
	old, ok := t.byID[id]
	if !ok {
		return &NotFoundError{Kind: t.kind, Request: id}
	}
	if old.Name() != v.Name() {
		if err := t.conflict(id, v.Name()); err != nil {
			return err
		}
	}

	t.byID[id] = v
	t.invalidate()
	return nil
}

func (t *table[T]) remove(request string) (T, bool) {
	if !t.fresh() {
		t.index()
	}
	v, ok := t.get(request)
	if !ok {
		return v, false
	}

	id := t.idOf(v)
	delete(t.byID, id)
	t.order = slices.DeleteFunc(t.order, func(s string) bool { return s == id })
	t.invalidate()
	return v, true
}

func (t *table[T]) clear() {
	t.byID = make(map[string]T)
	t.order = nil
	t.invalidate()
}

func (t *table[T]) list() []T {
	out := make([]T, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, t.byID[id])
	}
	return out
}
