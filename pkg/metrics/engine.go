package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// initEngineMetrics initializes memory engine metrics.
func (m *Manager) initEngineMetrics(cfg Config) {
	m.storesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "memory_stores_total",
			Help: "Total number of ungated stores by tier",
		},
		[]string{"tier"},
	)

	m.updatesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "memory_updates_total",
			Help: "Total number of gated update attempts by tier and outcome",
		},
		[]string{"tier", "outcome"},
	)

	m.retrievalsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "memory_retrievals_total",
			Help: "Total number of retrievals by tier",
		},
		[]string{"tier"},
	)

	m.retrievalHits = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "memory_retrieval_hits",
			Help:    "Number of results returned per retrieval",
			Buckets: []float64{0, 1, 2, 5, 10, 20, 50, 100},
		},
		[]string{"tier"},
	)

	m.evictionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "memory_evictions_total",
			Help: "Total number of capacity evictions by tier",
		},
		[]string{"tier"},
	)

	m.searchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "memory_search_duration_seconds",
			Help:    "Similarity index search duration in seconds",
			Buckets: cfg.SearchDurationBuckets,
		},
		[]string{"tier"},
	)

	m.tierSize = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "memory_tier_size",
			Help: "Current number of entries per tier",
		},
		[]string{"tier"},
	)

	m.indexSize = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "memory_index_size",
			Help: "Current number of records in the shared similarity index",
		},
	)

	m.registry.MustRegister(m.storesTotal)
	m.registry.MustRegister(m.updatesTotal)
	m.registry.MustRegister(m.retrievalsTotal)
	m.registry.MustRegister(m.retrievalHits)
	m.registry.MustRegister(m.evictionsTotal)
	m.registry.MustRegister(m.searchDuration)
	m.registry.MustRegister(m.tierSize)
	m.registry.MustRegister(m.indexSize)
}

// RecordStore records an ungated store.
func (m *Manager) RecordStore(tier string) {
	if !m.enabled {
		return
	}
	m.storesTotal.WithLabelValues(tier).Inc()
}

// RecordUpdate records a gated update attempt and whether it was admitted.
func (m *Manager) RecordUpdate(tier string, admitted bool) {
	if !m.enabled {
		return
	}
	outcome := "rejected"
	if admitted {
		outcome = "admitted"
	}
	m.updatesTotal.WithLabelValues(tier, outcome).Inc()
}

// RecordRetrieval records one retrieval and its hit count.
func (m *Manager) RecordRetrieval(tier string, hits int) {
	if !m.enabled {
		return
	}
	m.retrievalsTotal.WithLabelValues(tier).Inc()
	m.retrievalHits.WithLabelValues(tier).Observe(float64(hits))
}

// RecordEviction records a capacity eviction.
func (m *Manager) RecordEviction(tier string) {
	if !m.enabled {
		return
	}
	m.evictionsTotal.WithLabelValues(tier).Inc()
}

// ObserveSearchDuration records one index search duration.
func (m *Manager) ObserveSearchDuration(tier string, seconds float64) {
	if !m.enabled {
		return
	}
	m.searchDuration.WithLabelValues(tier).Observe(seconds)
}

// SetTierSize sets the current entry count for a tier.
func (m *Manager) SetTierSize(tier string, size int) {
	if !m.enabled {
		return
	}
	m.tierSize.WithLabelValues(tier).Set(float64(size))
}

// SetIndexSize sets the current shared index record count.
func (m *Manager) SetIndexSize(size int) {
	if !m.enabled {
		return
	}
	m.indexSize.Set(float64(size))
}

// StatusLabel converts an HTTP status code to a metric label.
func StatusLabel(code int) string {
	return strconv.Itoa(code)
}
