// SPDX-License-Identifier: EPL-2.0

package pool

import (
	"errors"
	"math/rand/v2"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ik5/audpool/internal/logging"
)

type item struct {
	id     int
	resets int
	active bool
}

func counter() func() (*item, error) {
	n := 0
	return func() (*item, error) {
		n++
		return &item{id: n}, nil
	}
}

func newPool(t *testing.T, cfg Config, opts ...Option[*item]) *Pool[*item] {
	t.Helper()
	opts = append([]Option[*item]{WithLogger[*item](logging.Discard())}, opts...)
	p, err := New(cfg, counter(), opts...)
	require.NoError(t, err)
	return p
}

func TestAssign_ExhaustedWithoutGrowth(t *testing.T) {
	t.Parallel()

	for _, eager := range []bool{true, false} {
		p := newPool(t, Config{InitialSize: 2, StartActive: eager})

		a, err := p.Assign()
		require.NoError(t, err)
		b, err := p.Assign()
		require.NoError(t, err)
		assert.NotSame(t, a, b)

		_, err = p.Assign()
		require.ErrorIs(t, err, ErrExhausted)
		assert.Equal(t, 2, p.Len())
		assert.Equal(t, uint64(1), p.Stats().Exhausted)
	}
}

func TestAssign_Grows(t *testing.T) {
	t.Parallel()

	p := newPool(t, Config{InitialSize: 1, StartActive: true, Expand: true, MaxSize: 3})
	for range 3 {
		_, err := p.Assign()
		require.NoError(t, err)
	}
	assert.Equal(t, 3, p.Len())

	_, err := p.Assign()
	assert.ErrorIs(t, err, ErrExhausted)
}

func TestAssign_FirstAvailable(t *testing.T) {
	t.Parallel()

	p := newPool(t, Config{InitialSize: 3, StartActive: true})
	a, _ := p.Assign()
	b, _ := p.Assign()
	_, _ = p.Assign()

	require.True(t, p.Return(b))
	require.True(t, p.Return(a))

	got, err := p.Assign()
	require.NoError(t, err)
	assert.Same(t, a, got)
}

func TestReturn_Idempotent(t *testing.T) {
	t.Parallel()

	p := newPool(t, Config{InitialSize: 2, StartActive: true})
	m, err := p.Assign()
	require.NoError(t, err)

	assert.True(t, p.Return(m))
	once := p.Stats()
	assert.False(t, p.Return(m))
	assert.Equal(t, once, p.Stats())

	assert.False(t, p.Return(&item{id: 99}))
	assert.Equal(t, once, p.Stats())
}

func TestResetHookAndResetAll(t *testing.T) {
	t.Parallel()

	p := newPool(t, Config{InitialSize: 3, StartActive: true},
		WithReset(func(it *item) { it.resets++ }),
		WithActivate(func(it *item) { it.active = true }))

	a, _ := p.Assign()
	b, _ := p.Assign()
	assert.True(t, a.active)

	p.Return(a)
	assert.Equal(t, 1, a.resets)

	assert.Equal(t, 1, p.ResetAll())
	assert.Equal(t, 1, b.resets)
	assert.Zero(t, p.InUse())
	assert.Equal(t, 3, p.Available())
	assert.Zero(t, p.ResetAll())
}

func TestNew_Errors(t *testing.T) {
	t.Parallel()

	_, err := New[*item](Config{}, nil)
	assert.ErrorIs(t, err, ErrNilFactory)

	_, err = New(Config{InitialSize: -1}, counter())
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = New(Config{InitialSize: 4, MaxSize: 2}, counter())
	assert.ErrorIs(t, err, ErrInvalidConfig)

	boom := errors.New("boom")
	_, err = New(Config{InitialSize: 1, StartActive: true}, func() (*item, error) { return nil, boom })
	assert.ErrorIs(t, err, boom)

	shared := &item{}
	p, err := New(Config{InitialSize: 2}, func() (*item, error) { return shared, nil },
		WithLogger[*item](logging.Discard()))
	require.NoError(t, err)
	_, err = p.Assign()
	require.NoError(t, err)
	_, err = p.Assign()
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestEach(t *testing.T) {
	t.Parallel()

	p := newPool(t, Config{InitialSize: 3, StartActive: true})
	a, _ := p.Assign()
	b, _ := p.Assign()

	var seen []*item
	p.Each(func(it *item) {
		seen = append(seen, it)
		p.Return(it)
	})
	assert.Equal(t, []*item{a, b}, seen)
	assert.Zero(t, p.InUse())
	assert.False(t, p.InUseMember(a))
}

type recorder struct {
	mu     sync.Mutex
	events []Event
	last   Stats
}

func (r *recorder) ObservePool(_ string, ev Event, st Stats) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	r.last = st
}

func TestObserver(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	p := newPool(t, Config{InitialSize: 1}, WithObserver[*item](rec), WithName[*item]("sfx"))

	m, err := p.Assign()
	require.NoError(t, err)
	_, err = p.Assign()
	require.Error(t, err)
	p.Return(m)

	assert.Equal(t, []Event{EventGrow, EventAssign, EventExhausted, EventReturn}, rec.events)
	assert.Equal(t, Stats{Size: 1, Available: 1, Assigned: 1, Exhausted: 1}, rec.last)
	assert.Equal(t, "exhausted", EventExhausted.String())
}

// In-use never exceeds the initial size for any interleaving of assign and
// return when growth is disabled.
func TestInUseBounded(t *testing.T) {
	t.Parallel()

	const n = 4
	p := newPool(t, Config{InitialSize: n, StartActive: true})
	rnd := rand.New(rand.NewPCG(1, 2))

	var held []*item
	for range 1000 {
		if rnd.IntN(2) == 0 {
			m, err := p.Assign()
			if err == nil {
				held = append(held, m)
			} else {
				require.ErrorIs(t, err, ErrExhausted)
				require.Len(t, held, n)
			}
		} else if len(held) > 0 {
			i := rnd.IntN(len(held))
			require.True(t, p.Return(held[i]))
			held = append(held[:i], held[i+1:]...)
		}

		require.LessOrEqual(t, p.InUse(), n)
		require.Equal(t, len(held), p.InUse())
		require.Equal(t, n, p.Len())
	}
}

func TestConcurrentAssignReturn(t *testing.T) {
	t.Parallel()

	const n = 8
	p := newPool(t, Config{InitialSize: n, StartActive: true})

	var wg sync.WaitGroup
	for range 32 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 200 {
				m, err := p.Assign()
				if err != nil {
					continue
				}
				assert.LessOrEqual(t, p.InUse(), n)
				p.Return(m)
			}
		}()
	}
	wg.Wait()

	assert.Zero(t, p.InUse())
	assert.Equal(t, n, p.Len())
}

func BenchmarkAssignReturn(b *testing.B) {
	p, err := New(Config{InitialSize: 16, StartActive: true}, counter(),
		WithLogger[*item](logging.Discard()))
	require.NoError(b, err)

	b.ReportAllocs()
	b.ResetTimer()
	for b.Loop() {
		m, _ := p.Assign()
		p.Return(m)
	}
}
