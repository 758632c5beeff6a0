// Package metrics exposes Prometheus metrics for policy evaluation.
package metrics

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"parapet-hq/parapet/pkg/policy/engine"
)

// DecisionMetrics tracks policy evaluation outcomes. It implements
// engine.Observer, so wiring it into an Enforcer is a single AddObserver
// call.
//
// Metrics:
//   - parapet_policy_decisions_total: decisions by endpoint, phase, decision
//   - parapet_policy_evaluation_duration_seconds: evaluation latency
//   - parapet_policy_evaluation_errors_total: fail-closed runtime errors
type DecisionMetrics struct {
	registry *prometheus.Registry

	decisionsTotal     *prometheus.CounterVec
	evaluationDuration *prometheus.HistogramVec
	errorsTotal        *prometheus.CounterVec
}

// NewDecisionMetrics creates and registers the decision metrics. A nil
// registry gets a fresh one, exposed via Handler.
func NewDecisionMetrics(registry *prometheus.Registry) *DecisionMetrics {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	m := &DecisionMetrics{
		registry: registry,
		decisionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "parapet",
				Name:      "policy_decisions_total",
				Help:      "Total policy decisions by endpoint, phase, and outcome",
			},
			[]string{"endpoint", "phase", "decision"},
		),
		evaluationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "parapet",
				Name:      "policy_evaluation_duration_seconds",
				Help:      "Duration of policy evaluation in seconds",
				// Evaluations are in-memory tree walks; sub-millisecond is normal.
				Buckets: prometheus.ExponentialBuckets(0.000001, 2, 15),
			},
			[]string{"endpoint", "phase"},
		),
		errorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "parapet",
				Name:      "policy_evaluation_errors_total",
				Help:      "Total runtime evaluation errors handled fail-closed",
			},
			[]string{"endpoint", "phase"},
		),
	}

	registry.MustRegister(m.decisionsTotal, m.evaluationDuration, m.errorsTotal)
	return m
}

// ObserveDecision records one evaluation outcome.
func (m *DecisionMetrics) ObserveDecision(_ context.Context, event engine.DecisionEvent) {
	endpoint := event.Endpoint
	phase := string(event.Phase)

	m.decisionsTotal.WithLabelValues(endpoint, phase, string(event.Decision)).Inc()
	m.evaluationDuration.WithLabelValues(endpoint, phase).Observe(event.Duration.Seconds())
	if event.Err != nil {
		m.errorsTotal.WithLabelValues(endpoint, phase).Inc()
	}
}

// Handler returns an HTTP handler serving the metrics registry.
func (m *DecisionMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry for callers that expose other
// collectors on the same endpoint.
func (m *DecisionMetrics) Registry() *prometheus.Registry {
	return m.registry
}
