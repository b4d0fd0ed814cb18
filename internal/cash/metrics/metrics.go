package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the cash session module.
type Metrics struct {
	SessionsOpened  *prometheus.CounterVec
	SessionsClosed  prometheus.Counter
	EntriesRecorded prometheus.Counter
	OpenDuration    prometheus.Histogram
	CloseDuration   prometheus.Histogram
}

// New registers all cash module metrics on the default registry.
func New() *Metrics {
	return &Metrics{
		SessionsOpened: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "tillbook_cash_sessions_opened_total",
			Help: "Total number of cash sessions opened, by kind",
		}, []string{"kind"}),
		SessionsClosed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "tillbook_cash_sessions_closed_total",
			Help: "Total number of cash sessions closed",
		}),
		EntriesRecorded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "tillbook_ledger_entries_total",
			Help: "Total number of ledger entries recorded",
		}),
		OpenDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "tillbook_cash_session_open_duration_seconds",
			Help:    "Duration of session open operations",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		CloseDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "tillbook_cash_session_close_duration_seconds",
			Help:    "Duration of session close operations",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

// ObserveOpen records the duration of an open operation.
// Call with time.Now() captured at the start.
func (m *Metrics) ObserveOpen(kind string, start time.Time) {
	m.SessionsOpened.WithLabelValues(kind).Inc()
	m.OpenDuration.Observe(time.Since(start).Seconds())
}

// ObserveClose records the duration of a close operation.
func (m *Metrics) ObserveClose(start time.Time) {
	m.SessionsClosed.Inc()
	m.CloseDuration.Observe(time.Since(start).Seconds())
}
