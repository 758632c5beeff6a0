package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"parapet-hq/parapet/pkg/policy/engine"
)

func TestDecisionMetrics_CountsDecisions(t *testing.T) {
	m := NewDecisionMetrics(nil)
	ctx := context.Background()

	m.ObserveDecision(ctx, engine.DecisionEvent{
		Endpoint: "employee_lookup",
		Phase:    engine.PhaseInput,
		Decision: engine.DecisionDeny,
		Duration: 50 * time.Microsecond,
	})
	m.ObserveDecision(ctx, engine.DecisionEvent{
		Endpoint: "employee_lookup",
		Phase:    engine.PhaseInput,
		Decision: engine.DecisionAllow,
		Duration: 30 * time.Microsecond,
	})

	deny := testutil.ToFloat64(m.decisionsTotal.WithLabelValues("employee_lookup", "input", "deny"))
	if deny != 1 {
		t.Errorf("deny count = %v, want 1", deny)
	}
	allow := testutil.ToFloat64(m.decisionsTotal.WithLabelValues("employee_lookup", "input", "allow"))
	if allow != 1 {
		t.Errorf("allow count = %v, want 1", allow)
	}
}

func TestDecisionMetrics_CountsErrors(t *testing.T) {
	m := NewDecisionMetrics(prometheus.NewRegistry())

	m.ObserveDecision(context.Background(), engine.DecisionEvent{
		Endpoint: "lookup",
		Phase:    engine.PhaseOutput,
		Decision: engine.DecisionAllow,
		Err:      &engine.RuntimeEvaluationError{Endpoint: "lookup"},
	})

	errs := testutil.ToFloat64(m.errorsTotal.WithLabelValues("lookup", "output"))
	if errs != 1 {
		t.Errorf("error count = %v, want 1", errs)
	}
}

func TestDecisionMetrics_HandlerServesRegistry(t *testing.T) {
	m := NewDecisionMetrics(nil)
	if m.Handler() == nil {
		t.Fatal("Handler returned nil")
	}
	if m.Registry() == nil {
		t.Fatal("Registry returned nil")
	}
}
