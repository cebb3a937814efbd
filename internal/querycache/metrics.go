package querycache

import "github.com/prometheus/client_golang/prometheus"

// Metrics exposes counters for cache behavior.
type Metrics struct {
	hits          *prometheus.CounterVec
	misses        *prometheus.CounterVec
	fetches       *prometheus.CounterVec
	invalidations *prometheus.CounterVec
	dedupShared   prometheus.Counter
}

// NewMetrics registers cache metrics on reg (nil means the default
// registerer).
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		hits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "netra",
			Subsystem: "querycache",
			Name:      "hits_total",
			Help:      "Cache lookups served from a fresh entry",
		}, []string{"resource"}),
		misses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "netra",
			Subsystem: "querycache",
			Name:      "misses_total",
			Help:      "Cache lookups that required a fetch",
		}, []string{"resource"}),
		fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "netra",
			Subsystem: "querycache",
			Name:      "fetches_total",
			Help:      "Fetch executions by outcome",
		}, []string{"resource", "status"}),
		invalidations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "netra",
			Subsystem: "querycache",
			Name:      "invalidations_total",
			Help:      "Entries marked stale by mutations",
		}, []string{"resource"}),
		dedupShared: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "netra",
			Subsystem: "querycache",
			Name:      "inflight_shared_total",
			Help:      "Concurrent lookups that joined an in-flight fetch",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.hits, m.misses, m.fetches, m.invalidations, m.dedupShared)
	return m
}

func (m *Metrics) observeHit(resource string) {
	if m == nil {
		return
	}
	m.hits.WithLabelValues(resource).Inc()
}

func (m *Metrics) observeMiss(resource string) {
	if m == nil {
		return
	}
	m.misses.WithLabelValues(resource).Inc()
}

func (m *Metrics) observeFetch(resource, status string) {
	if m == nil {
		return
	}
	m.fetches.WithLabelValues(resource, status).Inc()
}

func (m *Metrics) observeInvalidation(resource string) {
	if m == nil {
		return
	}
	m.invalidations.WithLabelValues(resource).Inc()
}

func (m *Metrics) observeShared() {
	if m == nil {
		return
	}
	m.dedupShared.Inc()
}
