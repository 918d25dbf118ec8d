// Package metrics defines Prometheus collectors for punch orchestration.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Punches             *prometheus.CounterVec
	LocationUnavailable prometheus.Counter
	MatchDistance       prometheus.Histogram
}

func New() *Metrics {
	return &Metrics{
		Punches: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "timeclock",
			Subsystem: "punch",
			Name:      "requests_total",
			Help:      "Punch requests by route taken.",
		}, []string{"route"}),
		LocationUnavailable: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "timeclock",
			Subsystem: "punch",
			Name:      "location_unavailable_total",
			Help:      "Punches rejected because no usable fix was supplied.",
		}),
		MatchDistance: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: "timeclock",
			Subsystem: "punch",
			Name:      "match_distance_meters",
			Help:      "Distance from the fix to the nearest active zone center.",
			Buckets:   []float64{10, 25, 50, 100, 250, 500, 1000, 5000, 25000},
		}),
	}
}

// IncrementPunch counts a punch by the route it took: in_zone, out_of_zone,
// or rejected.
func (m *Metrics) IncrementPunch(route string) {
	m.Punches.WithLabelValues(route).Inc()
}

func (m *Metrics) IncrementLocationUnavailable() {
	m.LocationUnavailable.Inc()
}

func (m *Metrics) ObserveMatchDistance(meters float64) {
	m.MatchDistance.Observe(meters)
}
