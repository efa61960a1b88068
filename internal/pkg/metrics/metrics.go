package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups the collectors exported on /metrics.
type Metrics struct {
	// HTTP requests by method, route and status code
	HTTPRequestsTotal *prometheus.CounterVec
	// HTTP latency by method and route
	HTTPRequestDuration *prometheus.HistogramVec

	// reservation attempts by status: success, insufficient, invalid, error
	ReservationsTotal *prometheus.CounterVec
	// seats moved from FREE to RESERVED
	SeatsReservedTotal prometheus.Counter
	// cancellation attempts by status: success, late, forbidden, not_found, error
	CancellationsTotal *prometheus.CounterVec
	// payment attempts by status: paid, declined, error
	PaymentsTotal *prometheus.CounterVec
	// time spent inside reserve/cancel transactions
	TxDuration *prometheus.HistogramVec
}

// New registers the collectors on the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry registers the collectors on reg.
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status_code"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		ReservationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reservations_total",
				Help: "Total number of reservation attempts",
			},
			[]string{"status"},
		),
		SeatsReservedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "seats_reserved_total",
				Help: "Total number of seats moved to RESERVED",
			},
		),
		CancellationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cancellations_total",
				Help: "Total number of cancellation attempts",
			},
			[]string{"status"},
		),
		PaymentsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "payments_total",
				Help: "Total number of payment attempts",
			},
			[]string{"status"},
		),
		TxDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "reservation_tx_duration_seconds",
				Help:    "Duration of reserve and cancel transactions",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
			},
			[]string{"operation"},
		),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.ReservationsTotal,
		m.SeatsReservedTotal,
		m.CancellationsTotal,
		m.PaymentsTotal,
		m.TxDuration,
	)
	return m
}

// NewNop returns collectors registered on a private registry, for tests and
// tools that do not expose /metrics.
func NewNop() *Metrics {
	return NewWithRegistry(prometheus.NewRegistry())
}
