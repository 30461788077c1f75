// Package metrics provides Prometheus instruments for the dialogue and the
// form-filling engine. A nil *Metrics is valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "enquirybot"

type Metrics struct {
	transitions  *prometheus.CounterVec
	rejections   *prometheus.CounterVec
	fills        *prometheus.CounterVec
	fillDuration prometheus.Histogram
	fieldFills   *prometheus.CounterVec
}

// New registers the instruments on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		transitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "dialogue_transitions_total",
				Help:      "Dialogue state transitions by source and target state",
			},
			[]string{"from", "to"},
		),
		rejections: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "validation_rejections_total",
				Help:      "Inputs rejected and re-prompted, by dialogue state",
			},
			[]string{"state"},
		),
		fills: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "fills_total",
				Help:      "Form fill operations by outcome",
			},
			[]string{"outcome"},
		),
		fillDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "fill_duration_seconds",
				Help:      "Duration of form fill operations",
				Buckets:   []float64{1, 5, 10, 20, 30, 45, 60, 90, 120},
			},
		),
		fieldFills: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "field_fills_total",
				Help:      "Per-field fill attempts by winning strategy and outcome",
			},
			[]string{"field", "strategy", "outcome"},
		),
	}
}

func (m *Metrics) ObserveTransition(from, to string) {
	if m == nil || from == to {
		return
	}
	m.transitions.WithLabelValues(from, to).Inc()
}

func (m *Metrics) ObserveRejection(state string) {
	if m == nil {
		return
	}
	m.rejections.WithLabelValues(state).Inc()
}

func (m *Metrics) ObserveFill(outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.fills.WithLabelValues(outcome).Inc()
	m.fillDuration.Observe(duration.Seconds())
}

// ObserveField records the outcome of one field. strategy is empty when
// every strategy failed.
func (m *Metrics) ObserveField(field, strategy, outcome string) {
	if m == nil {
		return
	}
	if strategy == "" {
		strategy = "none"
	}
	m.fieldFills.WithLabelValues(field, strategy, outcome).Inc()
}
