package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the verification module.
// Tracks session lifecycle counts, attempt outcomes, and provider latency.
type Metrics struct {
	SessionsStarted     prometheus.Counter
	SessionsTerminal    *prometheus.CounterVec
	Attempts            *prometheus.CounterVec
	ProviderUnavailable prometheus.Counter
	ProviderDuration    prometheus.Histogram
}

// New creates a new Metrics instance with all verification module metrics registered.
func New() *Metrics {
	return &Metrics{
		SessionsStarted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "timeclock_verification_sessions_started_total",
			Help: "Total number of verification sessions started",
		}),
		SessionsTerminal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "timeclock_verification_sessions_terminal_total",
			Help: "Total number of sessions reaching a terminal state",
		}, []string{"state"}),
		Attempts: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "timeclock_verification_attempts_total",
			Help: "Total number of verification attempts by outcome",
		}, []string{"outcome"}),
		ProviderUnavailable: promauto.NewCounter(prometheus.CounterOpts{
			Name: "timeclock_verification_provider_unavailable_total",
			Help: "Total number of provider calls that failed with an availability error",
		}),
		ProviderDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "timeclock_verification_provider_duration_seconds",
			Help:    "Duration of provider Verify calls",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
	}
}

// IncrementSessionStarted records a newly opened session.
func (m *Metrics) IncrementSessionStarted() {
	m.SessionsStarted.Inc()
}

// IncrementSessionTerminal records a session reaching the given terminal state.
func (m *Metrics) IncrementSessionTerminal(state string) {
	m.SessionsTerminal.WithLabelValues(state).Inc()
}

// IncrementAttempt records one judged attempt.
func (m *Metrics) IncrementAttempt(success bool) {
	outcome := "failure"
	if success {
		outcome = "success"
	}
	m.Attempts.WithLabelValues(outcome).Inc()
}

// IncrementProviderUnavailable records a provider call that did not complete.
func (m *Metrics) IncrementProviderUnavailable() {
	m.ProviderUnavailable.Inc()
}

// ObserveProviderCall records the duration of a provider Verify call.
// Call with time.Now() at the start of the call.
func (m *Metrics) ObserveProviderCall(start time.Time) {
	m.ProviderDuration.Observe(time.Since(start).Seconds())
}
