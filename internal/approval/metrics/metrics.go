package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the approval module.
type Metrics struct {
	Enqueued        *prometheus.CounterVec
	DuplicateSkips  prometheus.Counter
	Decided         *prometheus.CounterVec
	BulkItemsFailed prometheus.Counter
	PendingDepth    prometheus.Gauge
}

// New creates a new Metrics instance with all approval module metrics registered.
func New() *Metrics {
	return &Metrics{
		Enqueued: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "timeclock_approvals_enqueued_total",
			Help: "Total number of approval requests enqueued, by type",
		}, []string{"type"}),
		DuplicateSkips: promauto.NewCounter(prometheus.CounterOpts{
			Name: "timeclock_approvals_duplicate_enqueues_total",
			Help: "Total number of enqueues skipped because the id already existed",
		}),
		Decided: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "timeclock_approvals_decided_total",
			Help: "Total number of approval decisions, by outcome",
		}, []string{"status"}),
		BulkItemsFailed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "timeclock_approvals_bulk_items_failed_total",
			Help: "Total number of bulk decision items that failed",
		}),
		PendingDepth: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "timeclock_approvals_pending",
			Help: "Current number of pending approval requests",
		}),
	}
}
