package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the participation engine.
// Tracks operation outcomes, waitlist promotions and expired tickets.
type Metrics struct {
	Operations        *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec
	Promotions        prometheus.Counter
	TicketsExpired    prometheus.Counter
	NotifyDropped     prometheus.Counter
	Retries           *prometheus.CounterVec
}

// New registers the engine metrics with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Operations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "rollcall_operations_total",
			Help: "Participation operations by outcome code",
		}, []string{"op", "outcome"}),
		OperationDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "rollcall_operation_duration_seconds",
			Help:    "Duration of participation operations, retries included",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"op"}),
		Promotions: f.NewCounter(prometheus.CounterOpts{
			Name: "rollcall_promotions_total",
			Help: "Waitlisted participants promoted to registered",
		}),
		TicketsExpired: f.NewCounter(prometheus.CounterOpts{
			Name: "rollcall_tickets_expired_total",
			Help: "Tickets consumed by the expiry sweep",
		}),
		NotifyDropped: f.NewCounter(prometheus.CounterOpts{
			Name: "rollcall_notifications_dropped_total",
			Help: "Notifications dropped because the queue was full",
		}),
		Retries: f.NewCounterVec(prometheus.CounterOpts{
			Name: "rollcall_retries_total",
			Help: "Unit-of-work retries after a store conflict",
		}, []string{"op"}),
	}
}

// ObserveOperation records one finished operation. outcome is "ok" or an
// error code. Call with time.Now() taken at the start of the operation.
func (m *Metrics) ObserveOperation(op, outcome string, start time.Time) {
	m.Operations.WithLabelValues(op, outcome).Inc()
	m.OperationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

func (m *Metrics) IncrementPromotions(n int) {
	m.Promotions.Add(float64(n))
}

func (m *Metrics) IncrementExpired(n int) {
	m.TicketsExpired.Add(float64(n))
}

func (m *Metrics) IncrementDropped() {
	m.NotifyDropped.Inc()
}

func (m *Metrics) IncrementRetry(op string) {
	m.Retries.WithLabelValues(op).Inc()
}
