// Package metrics exposes prometheus collectors for mutation rounds, impact
// feedback and schema synthesis. A nil *Collector records nothing.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "genesearch"

type Collector struct {
	mutations *prometheus.CounterVec
	failures  *prometheus.CounterVec
	retries   prometheus.Counter
	outcomes  *prometheus.CounterVec
	warnings  *prometheus.CounterVec
	actions   prometheus.Counter
	impacts   prometheus.Gauge
}

// NewCollector creates the collectors and registers them with reg. A nil
// reg leaves them unregistered.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "mutator",
			Name:      "mutations_total",
			Help:      "Mutation rounds applied, by operator.",
		}, []string{"operator"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "mutator",
			Name:      "failures_total",
			Help:      "Mutation rounds that returned an error, by operator.",
		}, []string{"operator"}),
		retries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "mutator",
			Name:      "validity_retries_total",
			Help:      "Child mutations repeated because the parent gene was left invalid.",
		}),
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "impact",
			Name:      "outcomes_total",
			Help:      "Per-target outcomes credited to mutated genes.",
		}, []string{"outcome"}),
		warnings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "synthesis",
			Name:      "unsupported_kinds_total",
			Help:      "Distinct unsupported schema kinds degraded to placeholders.",
		}, []string{"kind"}),
		actions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "synthesis",
			Name:      "actions_total",
			Help:      "Actions synthesized from schemas.",
		}),
		impacts: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "impact",
			Name:      "tracked_genes",
			Help:      "Gene impact records held by the latest individual.",
		}),
	}
	if reg == nil {
		return c, nil
	}
	for _, col := range []prometheus.Collector{c.mutations, c.failures, c.retries, c.outcomes, c.warnings, c.actions, c.impacts} {
		if err := reg.Register(col); err != nil {
			return nil, fmt.Errorf("register metrics: %w", err)
		}
	}
	return c, nil
}

func (c *Collector) ObserveMutation(operator string) {
	if c == nil {
		return
	}
	c.mutations.WithLabelValues(operator).Inc()
}

func (c *Collector) ObserveFailure(operator string) {
	if c == nil {
		return
	}
	c.failures.WithLabelValues(operator).Inc()
}

func (c *Collector) ObserveRetry() {
	if c == nil {
		return
	}
	c.retries.Inc()
}

// ObserveOutcome adds n outcomes of the named kind.
func (c *Collector) ObserveOutcome(outcome string, n int) {
	if c == nil || n <= 0 {
		return
	}
	c.outcomes.WithLabelValues(outcome).Add(float64(n))
}

func (c *Collector) ObserveUnsupportedKind(kind string) {
	if c == nil {
		return
	}
	c.warnings.WithLabelValues(kind).Inc()
}

func (c *Collector) ObserveActions(n int) {
	if c == nil || n <= 0 {
		return
	}
	c.actions.Add(float64(n))
}

func (c *Collector) SetTrackedImpacts(n int) {
	if c == nil {
		return
	}
	c.impacts.Set(float64(n))
}
