package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the payable settlement module.
type Metrics struct {
	SettlementsCompleted prometheus.Counter
	SettlementsRejected  prometheus.Counter
	SettleDuration       prometheus.Histogram
}

// New registers all settlement metrics on the default registry.
func New() *Metrics {
	return &Metrics{
		SettlementsCompleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "tillbook_settlements_completed_total",
			Help: "Total number of installment settlements completed",
		}),
		SettlementsRejected: promauto.NewCounter(prometheus.CounterOpts{
			Name: "tillbook_settlements_rejected_total",
			Help: "Total number of settlements rejected by validation",
		}),
		SettleDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "tillbook_settle_duration_seconds",
			Help:    "Duration of settle operations",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

// ObserveSettle records a completed settlement.
func (m *Metrics) ObserveSettle(start time.Time) {
	m.SettlementsCompleted.Inc()
	m.SettleDuration.Observe(time.Since(start).Seconds())
}
