/*
 * @module service/metrics/metrics
 * @description Prometheus instrumentation for sync attempts and batch runs
 * @architecture observability layer
 * @documentReference dev_docs/monitoring.md
 * @stateFlow syncers and batch driver record outcomes, /metrics exposes them
 * @rules label cardinality stays bounded: entity kind and status only
 * @dependencies github.com/prometheus/client_golang
 * @refs service/syncer, service/batch, main.go
 */

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector holds the sync metrics. One instance is created in main and
// injected where needed.
type Collector struct {
	syncAttempts *prometheus.CounterVec
	syncDuration *prometheus.HistogramVec
	batchRuns    *prometheus.CounterVec
}

// NewCollector creates and registers the collectors on the given registerer.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		syncAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pennylane_sync_attempts_total",
			Help: "Sync attempts by entity kind and outcome status.",
		}, []string{"entity_kind", "status"}),
		syncDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pennylane_sync_duration_seconds",
			Help:    "Duration of individual entity syncs.",
			Buckets: prometheus.DefBuckets,
		}, []string{"entity_kind"}),
		batchRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pennylane_sync_batch_runs_total",
			Help: "Batch steps by entity kind and outcome status.",
		}, []string{"entity_kind", "status"}),
	}

	reg.MustRegister(c.syncAttempts, c.syncDuration, c.batchRuns)
	return c
}

// ObserveSync records one entity sync attempt.
func (c *Collector) ObserveSync(entityKind, status string, duration time.Duration) {
	c.syncAttempts.WithLabelValues(entityKind, status).Inc()
	c.syncDuration.WithLabelValues(entityKind).Observe(duration.Seconds())
}

// ObserveBatch records one batch step.
func (c *Collector) ObserveBatch(entityKind, status string) {
	c.batchRuns.WithLabelValues(entityKind, status).Inc()
}
