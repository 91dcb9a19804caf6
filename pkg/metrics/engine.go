package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// EngineMetrics records reconciliation engine activity.
type EngineMetrics struct {
	authAttempts    prometheus.Counter
	duplicateSkips  prometheus.Counter
	staleDiscards   prometheus.Counter
	mergeWrites     prometheus.Counter
	unknownStatuses prometheus.Counter
}

// NewEngineMetrics registers the engine metrics on the provided registerer.
func NewEngineMetrics(reg prometheus.Registerer) *EngineMetrics {
	if reg == nil {
		return &EngineMetrics{}
	}
	authAttempts := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "payment_auth_attempts_total",
		Help: "Step-up authentication calls started.",
	})
	duplicateSkips := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "payment_auth_duplicate_pushes_total",
		Help: "Requires-action pushes skipped because a call was already in flight.",
	})
	staleDiscards := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "payment_auth_stale_results_total",
		Help: "Authentication results discarded after teardown or a terminal push.",
	})
	mergeWrites := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "payment_merge_writes_total",
		Help: "Processor intent snapshots merged into payment documents.",
	})
	unknownStatuses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "payment_unknown_statuses_total",
		Help: "Pushes carrying a processor status this build does not recognize.",
	})
	reg.MustRegister(authAttempts, duplicateSkips, staleDiscards, mergeWrites, unknownStatuses)
	return &EngineMetrics{
		authAttempts:    authAttempts,
		duplicateSkips:  duplicateSkips,
		staleDiscards:   staleDiscards,
		mergeWrites:     mergeWrites,
		unknownStatuses: unknownStatuses,
	}
}

// IncAuthAttempt counts a started authentication call.
func (m *EngineMetrics) IncAuthAttempt() {
	if m == nil || m.authAttempts == nil {
		return
	}
	m.authAttempts.Inc()
}

// IncDuplicateSkip counts a deduplicated requires-action push.
func (m *EngineMetrics) IncDuplicateSkip() {
	if m == nil || m.duplicateSkips == nil {
		return
	}
	m.duplicateSkips.Inc()
}

// IncStaleDiscard counts a discarded late authentication result.
func (m *EngineMetrics) IncStaleDiscard() {
	if m == nil || m.staleDiscards == nil {
		return
	}
	m.staleDiscards.Inc()
}

// IncMergeWrite counts a merge-write of processor fields.
func (m *EngineMetrics) IncMergeWrite() {
	if m == nil || m.mergeWrites == nil {
		return
	}
	m.mergeWrites.Inc()
}

// IncUnknownStatus counts an unrecognized processor status.
func (m *EngineMetrics) IncUnknownStatus() {
	if m == nil || m.unknownStatuses == nil {
		return
	}
	m.unknownStatuses.Inc()
}
