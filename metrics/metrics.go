// SPDX-License-Identifier: EPL-2.0

// Package metrics exports pool and playback activity as Prometheus metrics.
// Each collector set registers itself on the registry it is built with.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ik5/audpool/playback"
	"github.com/ik5/audpool/pool"
)

const namespace = "audpool"

// Pool implements pool.Observer.
type Pool struct {
	size      *prometheus.GaugeVec
	inUse     *prometheus.GaugeVec
	assigned  *prometheus.CounterVec
	exhausted *prometheus.CounterVec

	collectors []prometheus.Collector
}

var _ pool.Observer = (*Pool)(nil)

// NewPool creates and registers the pool metrics.
func NewPool(registry prometheus.Registerer) (*Pool, error) {
	m := &Pool{
		size: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "pool",
			Name:      "members",
			Help:      "Number of members created by the pool",
		}, []string{"pool"}),
		inUse: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "pool",
			Name:      "in_use",
			Help:      "Number of members currently assigned",
		}, []string{"pool"}),
		assigned: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pool",
			Name:      "assigned_total",
			Help:      "Total number of successful assignments",
		}, []string{"pool"}),
		exhausted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pool",
			Name:      "exhausted_total",
			Help:      "Total number of assignments refused because every member was in use",
		}, []string{"pool"}),
	}
	m.collectors = []prometheus.Collector{m.size, m.inUse, m.assigned, m.exhausted}

	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Pool) ObservePool(name string, ev pool.Event, st pool.Stats) {
	m.size.WithLabelValues(name).Set(float64(st.Size))
	m.inUse.WithLabelValues(name).Set(float64(st.InUse))

	switch ev {
	case pool.EventAssign:
		m.assigned.WithLabelValues(name).Inc()
	case pool.EventExhausted:
		m.exhausted.WithLabelValues(name).Inc()
	}
}

func (m *Pool) Describe(ch chan<- *prometheus.Desc) {
	for _, c := range m.collectors {
		c.Describe(ch)
	}
}

func (m *Pool) Collect(ch chan<- prometheus.Metric) {
	for _, c := range m.collectors {
		c.Collect(ch)
	}
}

// Playback implements playback.Observer. Events are counted per kind; the
// request key is not used as a label to keep cardinality bounded.
type Playback struct {
	events *prometheus.CounterVec

	collectors []prometheus.Collector
}

var _ playback.Observer = (*Playback)(nil)

// NewPlayback creates and registers the playback metrics.
func NewPlayback(registry prometheus.Registerer) (*Playback, error) {
	m := &Playback{
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "playback",
			Name:      "events_total",
			Help:      "Sequence lifecycle events by kind",
		}, []string{"event"}),
	}
	m.collectors = []prometheus.Collector{m.events}

	// pre-create every series so dashboards see zeros
	for _, ev := range []playback.Event{
		playback.EventStarted, playback.EventLooped, playback.EventCompleted,
		playback.EventStopped, playback.EventFailed,
	} {
		m.events.WithLabelValues(ev.String())
	}

	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Playback) ObservePlayback(ev playback.Event, _ string) {
	m.events.WithLabelValues(ev.String()).Inc()
}

func (m *Playback) Describe(ch chan<- *prometheus.Desc) {
	for _, c := range m.collectors {
		c.Describe(ch)
	}
}

func (m *Playback) Collect(ch chan<- prometheus.Metric) {
	for _, c := range m.collectors {
		c.Collect(ch)
	}
}
