package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the season module.
type Metrics struct {
	SeasonsCreated prometheus.Counter
	Transitions    *prometheus.CounterVec
}

// New creates and registers the season module metrics.
func New() *Metrics {
	return &Metrics{
		SeasonsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "namereg_seasons_created_total",
			Help: "Total number of seasons created",
		}),
		Transitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "namereg_season_transitions_total",
			Help: "Season lifecycle transitions by target status",
		}, []string{"to"}),
	}
}

// IncrementCreated records a season creation.
func (m *Metrics) IncrementCreated() {
	if m != nil {
		m.SeasonsCreated.Inc()
	}
}

// IncrementTransition records a lifecycle transition.
func (m *Metrics) IncrementTransition(to string) {
	if m != nil {
		m.Transitions.WithLabelValues(to).Inc()
	}
}
