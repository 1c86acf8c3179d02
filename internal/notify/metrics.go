package notify

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Delivery outcomes used as metric labels.
const (
	outcomeDelivered   = "delivered"
	outcomeSkipped     = "skipped"
	outcomeUnreachable = "unreachable"
	outcomeFailed      = "failed"
)

// Metrics holds the Prometheus collectors for passes and deliveries.
// A nil *Metrics records nothing.
type Metrics struct {
	PassesTotal       *prometheus.CounterVec   // passes by kind and result (healthy, degraded)
	PassDuration      *prometheus.HistogramVec // pass latency by kind
	DeliveriesTotal   *prometheus.CounterVec   // delivery decisions by kind and outcome
	DroppedRowsTotal  *prometheus.CounterVec   // feed rows with unparseable dates
	LastPassTimestamp *prometheus.GaugeVec     // unix time of the last finished pass
}

// NewMetrics creates the collectors and registers them with registerer.
func NewMetrics(registerer prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		PassesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gamewatch_passes_total",
				Help: "Total number of notification passes by kind and result",
			},
			[]string{"kind", "result"},
		),
		PassDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gamewatch_pass_duration_seconds",
				Help:    "Time taken by a notification pass",
				Buckets: []float64{0.1, 0.5, 1, 5, 15, 30, 60, 300, 900},
			},
			[]string{"kind"},
		),
		DeliveriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gamewatch_deliveries_total",
				Help: "Notification delivery decisions by kind and outcome",
			},
			[]string{"kind", "outcome"},
		),
		DroppedRowsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gamewatch_dropped_feed_rows_total",
				Help: "Feed rows dropped because their date could not be parsed",
			},
			[]string{"kind"},
		),
		LastPassTimestamp: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "gamewatch_last_pass_timestamp_seconds",
				Help: "Unix time at which the last pass of each kind finished",
			},
			[]string{"kind"},
		),
	}

	for _, c := range []prometheus.Collector{
		m.PassesTotal, m.PassDuration, m.DeliveriesTotal, m.DroppedRowsTotal, m.LastPassTimestamp,
	} {
		if err := registerer.Register(c); err != nil {
			return nil, fmt.Errorf("registering pass metrics: %w", err)
		}
	}
	return m, nil
}

func (m *Metrics) delivery(kind, outcome string) {
	if m == nil {
		return
	}
	m.DeliveriesTotal.WithLabelValues(kind, outcome).Inc()
}

func (m *Metrics) observePass(r PassReport) {
	if m == nil {
		return
	}
	kind := string(r.Kind)
	result := "healthy"
	if !r.Healthy() {
		result = "degraded"
	}
	m.PassesTotal.WithLabelValues(kind, result).Inc()
	m.PassDuration.WithLabelValues(kind).Observe(r.Duration.Seconds())
	m.DroppedRowsTotal.WithLabelValues(kind).Add(float64(r.DroppedRows))
	m.LastPassTimestamp.WithLabelValues(kind).Set(float64(r.Started.Add(r.Duration).Unix()))
}
