package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the workplace module.
type Metrics struct {
	PunchesRecorded   *prometheus.CounterVec
	PunchesRejected   *prometheus.CounterVec
	WorkplacesCreated prometheus.Counter
	WorkplacesReused  prometheus.Counter
}

// New creates a new Metrics instance with all workplace module metrics registered.
func New() *Metrics {
	return &Metrics{
		PunchesRecorded: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "timeclock_workplace_punches_recorded_total",
			Help: "Total number of temporary workplace punches recorded, by punch type",
		}, []string{"punch_type"}),
		PunchesRejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "timeclock_workplace_punches_rejected_total",
			Help: "Total number of punches rejected by policy validation, by reason",
		}, []string{"reason"}),
		WorkplacesCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "timeclock_workplace_reusable_created_total",
			Help: "Total number of reusable workplaces created",
		}),
		WorkplacesReused: promauto.NewCounter(prometheus.CounterOpts{
			Name: "timeclock_workplace_reusable_touched_total",
			Help: "Total number of punches that referenced an existing reusable workplace",
		}),
	}
}
