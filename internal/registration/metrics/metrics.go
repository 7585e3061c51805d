package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the registration flow.
type Metrics struct {
	Registrations *prometheus.CounterVec
	ReplaysCaught prometheus.Counter
}

// New creates and registers the registration module metrics.
func New() *Metrics {
	return &Metrics{
		Registrations: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "namereg_registrations_total",
			Help: "Registration attempts by outcome",
		}, []string{"outcome"}),
		ReplaysCaught: promauto.NewCounter(prometheus.CounterOpts{
			Name: "namereg_payment_replays_caught_total",
			Help: "Replayed block references caught at the consume step",
		}),
	}
}

// IncrementRegistration records a registration outcome.
func (m *Metrics) IncrementRegistration(outcome string) {
	if m != nil {
		m.Registrations.WithLabelValues(outcome).Inc()
	}
}

// IncrementReplayCaught records a replay detected inside the commit
// critical section, after the ledger round-trip.
func (m *Metrics) IncrementReplayCaught() {
	if m != nil {
		m.ReplaysCaught.Inc()
	}
}
