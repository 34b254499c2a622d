// Package observability provides Prometheus metrics for condevent engines.
package observability

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/roach88/condevent/internal/engine"
)

// Metrics implements engine.Observer by counting engine activity.
// One Metrics may observe many engines; the engine name is a label.
type Metrics struct {
	// EvaluationsTotal counts requirement evaluations by outcome.
	EvaluationsTotal *prometheus.CounterVec

	// DispatchesTotal counts proceeded dispatches by final polarity and
	// whether fan-out was deferred.
	DispatchesTotal *prometheus.CounterVec

	// SuppressionsTotal counts dispatch attempts that did not proceed.
	SuppressionsTotal *prometheus.CounterVec

	// SinkFaultsTotal counts recovered event sink panics.
	SinkFaultsTotal *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		EvaluationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "condevent_evaluations_total",
				Help: "Requirement evaluations",
			},
			[]string{"engine", "result"},
		),
		DispatchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "condevent_dispatches_total",
				Help: "Proceeded dispatches",
			},
			[]string{"engine", "polarity", "delayed"},
		),
		SuppressionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "condevent_suppressions_total",
				Help: "Suppressed dispatch attempts",
			},
			[]string{"engine", "reason"},
		),
		SinkFaultsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "condevent_sink_faults_total",
				Help: "Recovered event sink panics",
			},
			[]string{"engine"},
		),
	}

	for _, c := range []prometheus.Collector{
		m.EvaluationsTotal,
		m.DispatchesTotal,
		m.SuppressionsTotal,
		m.SinkFaultsTotal,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// MustNewMetrics is like NewMetrics but panics on registration failure.
func MustNewMetrics(reg prometheus.Registerer) *Metrics {
	m, err := NewMetrics(reg)
	if err != nil {
		panic(err)
	}
	return m
}

func (m *Metrics) OnEvaluate(engineName string, met bool) {
	result := "unmet"
	if met {
		result = "met"
	}
	m.EvaluationsTotal.WithLabelValues(engineName, result).Inc()
}

func (m *Metrics) OnDispatch(d engine.Dispatch) {
	polarity := "negative"
	if d.Polarity {
		polarity = "positive"
	}
	m.DispatchesTotal.WithLabelValues(d.Engine, polarity, strconv.FormatBool(d.Delayed())).Inc()
}

func (m *Metrics) OnSuppressed(s engine.Suppression) {
	m.SuppressionsTotal.WithLabelValues(s.Engine, s.Reason).Inc()
}

func (m *Metrics) OnSinkFault(engineName string, _ int, _ error) {
	m.SinkFaultsTotal.WithLabelValues(engineName).Inc()
}

// Handler serves the metrics gathered by g in the Prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
