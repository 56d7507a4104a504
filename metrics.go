package tasknest

import "sync/atomic"

// MetricID identifies a counter in the in-process metrics set.
type MetricID uint16

const (
	// MetricRegisterSuccess counts completed registrations.
	MetricRegisterSuccess MetricID = iota
	// MetricRegisterDuplicate counts registrations rejected on a uniqueness
	// collision, whether by pre-check or by the store constraint.
	MetricRegisterDuplicate
	// MetricLoginSuccess counts logins that issued a session.
	MetricLoginSuccess
	// MetricLoginFailure counts logins rejected for an unknown identifier or
	// a password mismatch.
	MetricLoginFailure
	// MetricSessionCreated counts sessions persisted to the store.
	MetricSessionCreated
	// MetricSessionDestroyed counts sessions removed by logout or logout-all.
	MetricSessionDestroyed
	// MetricLogout counts single-session logout calls.
	MetricLogout
	// MetricLogoutAll counts all-device logout calls.
	MetricLogoutAll

	metricIDCount
)

const cacheLineSize = 64

// paddedCounter keeps adjacent counters on separate cache lines.
type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics holds atomic counters for the engine's flows. When disabled, all
// operations are no-ops.
type Metrics struct {
	enabled  bool
	counters [metricIDCount]paddedCounter
}

// NewMetrics creates a Metrics instance configured by cfg.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{enabled: cfg.Enabled}
}

// Inc increments a counter by one.
func (m *Metrics) Inc(id MetricID) {
	m.Add(id, 1)
}

// Add increments a counter by n.
func (m *Metrics) Add(id MetricID, n uint64) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, n)
}

// MetricsSnapshot is a point-in-time deep copy of all counters.
type MetricsSnapshot struct {
	Counters map[MetricID]uint64
}

// Snapshot returns a consistent-enough copy of all counters. Counters are
// read individually; no cross-counter atomicity is implied.
func (m *Metrics) Snapshot() MetricsSnapshot {
	snap := MetricsSnapshot{Counters: make(map[MetricID]uint64, metricIDCount)}
	if m == nil || !m.enabled {
		return snap
	}
	for id := MetricID(0); id < metricIDCount; id++ {
		snap.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}
	return snap
}
