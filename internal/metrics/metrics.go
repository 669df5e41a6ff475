// Package metrics exports turn-level telemetry for the coaching pipeline.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Turn outcome labels.
const (
	OutcomeGuardrail = "guardrail"
	OutcomeGenerated = "generated"
)

// Observer captures telemetry for turn processing.
type Observer interface {
	RecordTurn(outcome string, duration time.Duration)
	RecordGuardrail(kind string)
	RecordGenerationFallback()
	RecordStrategySelected(name string)
}

// PrometheusObserver exports turn metrics to Prometheus.
type PrometheusObserver struct {
	turnDuration        *prometheus.HistogramVec
	guardrailHits       *prometheus.CounterVec
	generationFallbacks prometheus.Counter
	strategySelections  *prometheus.CounterVec
}

// NewPrometheusObserver registers the turn metrics on reg, defaulting to the
// global registerer.
func NewPrometheusObserver(namespace string, reg prometheus.Registerer) (*PrometheusObserver, error) {
	if namespace == "" {
		namespace = "flou"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	observer := &PrometheusObserver{
		turnDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "turn_duration_seconds",
			Help:      "Latency of one conversational turn.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"outcome"}),
		guardrailHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "guardrail_hits_total",
			Help:      "Turns answered deterministically, by guardrail kind.",
		}, []string{"kind"}),
		generationFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generation_fallbacks_total",
			Help:      "Turns where generation failed and canned text was served.",
		}),
		strategySelections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "strategy_selections_total",
			Help:      "Strategies proposed to users, by strategy name.",
		}, []string{"strategy"}),
	}
	collectors := []prometheus.Collector{
		observer.turnDuration, observer.guardrailHits,
		observer.generationFallbacks, observer.strategySelections,
	}
	for _, collector := range collectors {
		if err := reg.Register(collector); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			return nil, fmt.Errorf("register turn metric: %w", err)
		}
	}
	return observer, nil
}

func (o *PrometheusObserver) RecordTurn(outcome string, duration time.Duration) {
	if o == nil {
		return
	}
	o.turnDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}

func (o *PrometheusObserver) RecordGuardrail(kind string) {
	if o == nil {
		return
	}
	o.guardrailHits.WithLabelValues(kind).Inc()
}

func (o *PrometheusObserver) RecordGenerationFallback() {
	if o == nil {
		return
	}
	o.generationFallbacks.Inc()
}

func (o *PrometheusObserver) RecordStrategySelected(name string) {
	if o == nil {
		return
	}
	o.strategySelections.WithLabelValues(name).Inc()
}

type nopObserver struct{}

func (nopObserver) RecordTurn(string, time.Duration) {}

func (nopObserver) RecordGuardrail(string) {}

func (nopObserver) RecordGenerationFallback() {}

func (nopObserver) RecordStrategySelected(string) {}

// Nop returns an observer that discards everything.
func Nop() Observer { return nopObserver{} }
