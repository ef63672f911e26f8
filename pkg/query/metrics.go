package query

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes the query engine counters. A nil *Metrics is valid and records nothing.
type Metrics struct {
	fetches       *prometheus.CounterVec
	cacheHits     prometheus.Counter
	invalidations prometheus.Counter
	entries       prometheus.Gauge
}

// NewMetrics creates the engine metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "booking_query_fetches_total",
			Help: "Fetches issued by the query engine, by outcome.",
		}, []string{"outcome"}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "booking_query_cache_hits_total",
			Help: "Subscriptions served from a cached success entry.",
		}),
		invalidations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "booking_query_invalidations_total",
			Help: "Entries matched by Invalidate or Remove.",
		}),
		entries: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "booking_query_entries",
			Help: "Entries currently held by the cache.",
		}),
	}
	for _, c := range []prometheus.Collector{m.fetches, m.cacheHits, m.invalidations, m.entries} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register query metrics: %w", err)
		}
	}
	return m, nil
}

// Fetches returns the counter for the given outcome ("success", "error", "superseded").
func (m *Metrics) Fetches(outcome string) prometheus.Counter {
	return m.fetches.WithLabelValues(outcome)
}

// CacheHits returns the cache-hit counter.
func (m *Metrics) CacheHits() prometheus.Counter {
	return m.cacheHits
}

// Entries returns the gauge tracking the number of cached entries.
func (m *Metrics) Entries() prometheus.Gauge {
	return m.entries
}

func (m *Metrics) fetched(outcome string) {
	if m != nil {
		m.fetches.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) hit() {
	if m != nil {
		m.cacheHits.Inc()
	}
}

func (m *Metrics) invalidated(n int) {
	if m != nil && n > 0 {
		m.invalidations.Add(float64(n))
	}
}

func (m *Metrics) setEntries(n int) {
	if m != nil {
		m.entries.Set(float64(n))
	}
}
