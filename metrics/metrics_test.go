// SPDX-License-Identifier: EPL-2.0

package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ik5/audpool/playback"
	"github.com/ik5/audpool/pool"
)

func TestPool_ObservesPool(t *testing.T) {
	t.Parallel()

	registry := prometheus.NewRegistry()
	m, err := NewPool(registry)
	require.NoError(t, err)

	n := 0
	p, err := pool.New(pool.Config{InitialSize: 2}, func() (*int, error) {
		n++
		v := n
		return &v, nil
	}, pool.WithName[*int]("sfx"), pool.WithObserver[*int](m))
	require.NoError(t, err)

	a, err := p.Assign()
	require.NoError(t, err)
	_, err = p.Assign()
	require.NoError(t, err)
	_, err = p.Assign()
	require.ErrorIs(t, err, pool.ErrExhausted)

	assert.InDelta(t, 2, testutil.ToFloat64(m.size.WithLabelValues("sfx")), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(m.inUse.WithLabelValues("sfx")), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(m.assigned.WithLabelValues("sfx")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.exhausted.WithLabelValues("sfx")), 0)

	require.True(t, p.Return(a))
	assert.InDelta(t, 1, testutil.ToFloat64(m.inUse.WithLabelValues("sfx")), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(m.size.WithLabelValues("sfx")), 0)
}

func TestPlayback_CountsEvents(t *testing.T) {
	t.Parallel()

	registry := prometheus.NewRegistry()
	m, err := NewPlayback(registry)
	require.NoError(t, err)

	m.ObservePlayback(playback.EventStarted, "click01")
	m.ObservePlayback(playback.EventStarted, "footsteps")
	m.ObservePlayback(playback.EventCompleted, "click01")
	m.ObservePlayback(playback.EventFailed, "missing")

	assert.InDelta(t, 2, testutil.ToFloat64(m.events.WithLabelValues("started")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.events.WithLabelValues("completed")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.events.WithLabelValues("failed")), 0)
	assert.InDelta(t, 0, testutil.ToFloat64(m.events.WithLabelValues("stopped")), 0)

	// every event kind is exported before it happens
	assert.Equal(t, 5, testutil.CollectAndCount(m, "audpool_playback_events_total"))
}

func TestRegisterTwice(t *testing.T) {
	t.Parallel()

	registry := prometheus.NewRegistry()
	_, err := NewPool(registry)
	require.NoError(t, err)
	_, err = NewPool(registry)
	assert.Error(t, err)

	_, err = NewPlayback(registry)
	require.NoError(t, err)
	_, err = NewPlayback(registry)
	assert.Error(t, err)
}
