// SPDX-License-Identifier: EPL-2.0

// Package pool provides a generic object pool that partitions its members into
// available and in-use sets.
//
// Every operation serializes on a single mutex, so a Pool may be shared between
// the caller's update loop and audio callbacks.
package pool

import (
	"fmt"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/ik5/audpool/internal/logging"
)

// Config controls the pool's size and growth policy.
type Config struct {
	// InitialSize members are created by New when StartActive is set,
	// otherwise lazily by Assign up to the same count.
	InitialSize int
	// StartActive creates the initial members eagerly and runs Activate on them.
	StartActive bool
	// Expand lets Assign grow the pool past InitialSize when nothing is free.
	Expand bool
	// MaxSize caps growth. Zero means unbounded.
	MaxSize int
}

// Stats is a snapshot of the pool's partition.
type Stats struct {
	Size      int
	InUse     int
	Available int
	Assigned  uint64
	Exhausted uint64
}

// Event names the operation that produced a Stats snapshot.
type Event int

const (
	EventAssign Event = iota
	EventReturn
	EventGrow
	EventExhausted
	EventReset
)

func (e Event) String() string {
	switch e {
	case EventAssign:
		return "assign"
	case EventReturn:
		return "return"
	case EventGrow:
		return "grow"
	case EventExhausted:
		return "exhausted"
	case EventReset:
		return "reset"
	default:
		return fmt.Sprintf("Event(%d)", int(e))
	}
}

// Observer receives a snapshot after every state change. It is called with
// the pool lock held and must not call back into the pool.
type Observer interface {
	ObservePool(name string, ev Event, st Stats)
}

// Option configures a Pool.
type Option[T comparable] func(*Pool[T])

// WithName labels log lines and observer callbacks.
func WithName[T comparable](name string) Option[T] {
	return func(p *Pool[T]) { p.name = name }
}

// WithLogger routes pool warnings to logger.
func WithLogger[T comparable](logger *log.Logger) Option[T] {
	return func(p *Pool[T]) { p.logger = logging.Component(logger, "pool") }
}

// WithReset runs fn on a member each time it returns to the available set.
func WithReset[T comparable](fn func(T)) Option[T] {
	return func(p *Pool[T]) { p.reset = fn }
}

// WithActivate runs fn on every member created eagerly by StartActive.
func WithActivate[T comparable](fn func(T)) Option[T] {
	return func(p *Pool[T]) { p.activate = fn }
}

// WithObserver reports every state change to o.
func WithObserver[T comparable](o Observer) Option[T] {
	return func(p *Pool[T]) { p.observer = o }
}

// Pool hands out reusable members. A member is either available or in use,
// never both, and the in-use set is always a subset of the members.
type Pool[T comparable] struct {
	mu sync.Mutex

	cfg     Config
	factory func() (T, error)

	members []T
	index   map[T]int
	busy    []bool
	inUse   int

	assigned  uint64
	exhausted uint64

	name     string
	logger   *log.Logger
	reset    func(T)
	activate func(T)
	observer Observer
}

// New builds a pool. With cfg.StartActive the initial members are created
// immediately and a factory error aborts construction.
func New[T comparable](cfg Config, factory func() (T, error), opts ...Option[T]) (*Pool[T], error) {
	if factory == nil {
		return nil, ErrNilFactory
	}
	if cfg.InitialSize < 0 || cfg.MaxSize < 0 {
		return nil, fmt.Errorf("%w: negative size", ErrInvalidConfig)
	}
	if cfg.MaxSize > 0 && cfg.MaxSize < cfg.InitialSize {
		return nil, fmt.Errorf("%w: max size %d below initial size %d",
			ErrInvalidConfig, cfg.MaxSize, cfg.InitialSize)
	}

	p := &Pool[T]{
		cfg:     cfg,
		factory: factory,
		index:   make(map[T]int, cfg.InitialSize),
		name:    "default",
		logger:  logging.Component(nil, "pool"),
	}
	for _, opt := range opts {
		opt(p)
	}

	if cfg.StartActive {
		for range cfg.InitialSize {
			m, err := p.grow()
			if err != nil {
				return nil, err
			}
			if p.activate != nil {
				p.activate(m)
			}
		}
	}
	return p, nil
}

// grow creates one member and appends it to the available set.
func (p *Pool[T]) grow() (T, error) {
	m, err := p.factory()
	if err != nil {
		var zero T
		return zero, fmt.Errorf("creating pool member: %w", err)
	}
	if _, dup := p.index[m]; dup {
		var zero T
		return zero, fmt.Errorf("%w: factory returned an existing member", ErrInvalidConfig)
	}

	p.index[m] = len(p.members)
	p.members = append(p.members, m)
	p.busy = append(p.busy, false)
	p.notify(EventGrow)
	return m, nil
}

func (p *Pool[T]) canGrow() bool {
	n := len(p.members)
	if n < p.cfg.InitialSize {
		return true
	}
	if !p.cfg.Expand {
		return false
	}
	return p.cfg.MaxSize == 0 || n < p.cfg.MaxSize
}

// Assign returns the first available member, growing the pool when allowed.
// It returns ErrExhausted when nothing is free and the pool may not grow.
func (p *Pool[T]) Assign() (T, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, busy := range p.busy {
		if !busy {
			return p.take(i), nil
		}
	}

	if !p.canGrow() {
		p.exhausted++
		p.notify(EventExhausted)
		p.logger.Warn("no free member", "pool", p.name, "size", len(p.members))
		var zero T
		return zero, fmt.Errorf("%w: %s has %d members in use", ErrExhausted, p.name, p.inUse)
	}

	if _, err := p.grow(); err != nil {
		var zero T
		return zero, err
	}
	return p.take(len(p.members) - 1), nil
}

func (p *Pool[T]) take(i int) T {
	p.busy[i] = true
	p.inUse++
	p.assigned++
	p.notify(EventAssign)
	return p.members[i]
}

// Return moves m back to the available set. It reports false, and changes
// nothing, when m is unknown or already available.
func (p *Pool[T]) Return(m T) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	i, ok := p.index[m]
	if !ok || !p.busy[i] {
		return false
	}
	p.release(i)
	p.notify(EventReturn)
	return true
}

func (p *Pool[T]) release(i int) {
	p.busy[i] = false
	p.inUse--
	if p.reset != nil {
		p.reset(p.members[i])
	}
}

// ResetAll forcibly returns every in-use member and reports how many there were.
func (p *Pool[T]) ResetAll() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	n := 0
	for i, busy := range p.busy {
		if busy {
			p.release(i)
			n++
		}
	}
	if n > 0 {
		p.logger.Debug("reset", "pool", p.name, "returned", n)
	}
	p.notify(EventReset)
	return n
}

// InUseMember reports whether m is currently assigned.
func (p *Pool[T]) InUseMember(m T) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	i, ok := p.index[m]
	return ok && p.busy[i]
}

// Each calls fn for every member currently in use. fn runs without the pool
// lock held and may call Return.
func (p *Pool[T]) Each(fn func(T)) {
	p.mu.Lock()
	var active []T
	for i, busy := range p.busy {
		if busy {
			active = append(active, p.members[i])
		}
	}
	p.mu.Unlock()

	for _, m := range active {
		fn(m)
	}
}

// Len returns the number of members.
func (p *Pool[T]) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.members)
}

// InUse returns the number of assigned members.
func (p *Pool[T]) InUse() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.inUse
}

// Available returns the number of members ready for Assign.
func (p *Pool[T]) Available() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.members) - p.inUse
}

// Stats returns a snapshot of the pool.
func (p *Pool[T]) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stats()
}

func (p *Pool[T]) stats() Stats {
	return Stats{
		Size:      len(p.members),
		InUse:     p.inUse,
		Available: len(p.members) - p.inUse,
		Assigned:  p.assigned,
		Exhausted: p.exhausted,
	}
}

func (p *Pool[T]) notify(ev Event) {
	if p.observer != nil {
		p.observer.ObservePool(p.name, ev, p.stats())
	}
}
