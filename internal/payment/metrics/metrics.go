package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for payment verification.
type Metrics struct {
	Verifications  *prometheus.CounterVec
	LedgerDuration prometheus.Histogram
}

// New creates and registers the payment module metrics.
func New() *Metrics {
	return &Metrics{
		Verifications: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "namereg_payment_verifications_total",
			Help: "Payment verification attempts by outcome",
		}, []string{"outcome"}),
		LedgerDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "namereg_ledger_query_duration_seconds",
			Help:    "Latency of external ledger block queries",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

// IncrementVerification records a verification outcome.
func (m *Metrics) IncrementVerification(outcome string) {
	if m != nil {
		m.Verifications.WithLabelValues(outcome).Inc()
	}
}

// ObserveLedgerQuery records one ledger round-trip duration in seconds.
func (m *Metrics) ObserveLedgerQuery(seconds float64) {
	if m != nil {
		m.LedgerDuration.Observe(seconds)
	}
}
