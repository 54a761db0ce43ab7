// Package metrics exposes Prometheus collectors for the ingest and routing
// pipeline. All methods are safe on a nil *Metrics so callers can skip
// instrumentation in tests.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Ingest outcomes.
const (
	OutcomeIngested = "ingested"
	OutcomeSkipped  = "skipped"
	OutcomeFailed   = "failed"
)

// Metrics holds the service's Prometheus collectors.
type Metrics struct {
	itemsIngested  *prometheus.CounterVec
	rulesMatched   *prometheus.CounterVec
	dispatches     *prometheus.CounterVec
	schemeDuration prometheus.Histogram
	providerRuns   *prometheus.CounterVec
}

// New creates and registers the collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		itemsIngested: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ingest_router",
			Name:      "items_total",
			Help:      "Ingested items by provider and outcome.",
		}, []string{"provider", "outcome"}),
		rulesMatched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ingest_router",
			Name:      "rules_matched_total",
			Help:      "Routing rule matches by scheme and rule.",
		}, []string{"scheme", "rule"}),
		dispatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ingest_router",
			Name:      "dispatches_total",
			Help:      "Dispatched fetch/publish actions by outcome.",
		}, []string{"action", "outcome"}),
		schemeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "ingest_router",
			Name:      "scheme_apply_seconds",
			Help:      "Time spent applying a routing scheme to one item.",
			Buckets:   prometheus.DefBuckets,
		}),
		providerRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ingest_router",
			Name:      "provider_runs_total",
			Help:      "Provider update runs by outcome.",
		}, []string{"provider", "outcome"}),
	}

	reg.MustRegister(m.itemsIngested, m.rulesMatched, m.dispatches, m.schemeDuration, m.providerRuns)
	return m
}

// ItemResult counts one ingested item's outcome for a provider.
func (m *Metrics) ItemResult(provider, outcome string) {
	if m == nil {
		return
	}
	m.itemsIngested.WithLabelValues(provider, outcome).Inc()
}

// RuleMatched counts one rule match.
func (m *Metrics) RuleMatched(scheme, rule string) {
	if m == nil {
		return
	}
	m.rulesMatched.WithLabelValues(scheme, rule).Inc()
}

// DispatchResult counts one dispatched fetch or publish action.
func (m *Metrics) DispatchResult(action string, ok bool) {
	if m == nil {
		return
	}
	outcome := "ok"
	if !ok {
		outcome = "error"
	}
	m.dispatches.WithLabelValues(action, outcome).Inc()
}

// ObserveSchemeApply records the duration of one scheme application.
func (m *Metrics) ObserveSchemeApply(d time.Duration) {
	if m == nil {
		return
	}
	m.schemeDuration.Observe(d.Seconds())
}

// ProviderRun counts one provider update run.
func (m *Metrics) ProviderRun(provider string, ok bool) {
	if m == nil {
		return
	}
	outcome := "ok"
	if !ok {
		outcome = "error"
	}
	m.providerRuns.WithLabelValues(provider, outcome).Inc()
}
