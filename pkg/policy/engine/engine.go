package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// deniedByPolicyError is the generic user-visible reason when a condition
// fails at runtime and the engine fails closed. Internal detail goes to the
// audit trail only.
const deniedByPolicyError = "Request denied by policy"

// Enforcer evaluates endpoint policy sets. It is safe for concurrent use:
// ReplaceAll and SetPolicySet swap sets atomically under a write lock, while
// evaluations hold a read lock only long enough to take a snapshot, so
// in-flight evaluations continue against the rules they started with.
type Enforcer struct {
	mu        sync.RWMutex
	sets      map[string]*EndpointPolicySet
	logger    *slog.Logger
	observers []Observer
}

// NewEnforcer creates an Enforcer with no policy sets loaded. A nil logger
// is replaced with slog.Default().
func NewEnforcer(logger *slog.Logger) *Enforcer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Enforcer{
		sets:   make(map[string]*EndpointPolicySet),
		logger: logger,
	}
}

// AddObserver registers an observer for decision events. Not safe to call
// concurrently with evaluations; wire observers during setup.
func (e *Enforcer) AddObserver(obs Observer) {
	e.observers = append(e.observers, obs)
}

// SetPolicySet validates and installs the policy set for one endpoint,
// replacing any previous set atomically.
func (e *Enforcer) SetPolicySet(set *EndpointPolicySet) error {
	if err := set.Validate(); err != nil {
		return err
	}

	e.mu.Lock()
	e.sets[set.Endpoint] = set
	e.mu.Unlock()

	e.logger.Info("policy set installed",
		"endpoint", set.Endpoint,
		"input_rules", len(set.Input),
		"output_rules", len(set.Output),
	)
	return nil
}

// ReplaceAll validates and installs a full new collection of policy sets,
// replacing everything previously loaded in one atomic swap. On validation
// failure nothing is replaced and the previous sets stay in effect.
func (e *Enforcer) ReplaceAll(sets []*EndpointPolicySet) error {
	next := make(map[string]*EndpointPolicySet, len(sets))
	for _, set := range sets {
		if err := set.Validate(); err != nil {
			return err
		}
		next[set.Endpoint] = set
	}

	e.mu.Lock()
	e.sets = next
	e.mu.Unlock()

	e.logger.Info("policy sets replaced", "endpoints", len(next))
	return nil
}

// PolicySet returns the installed set for an endpoint, or nil.
func (e *Enforcer) PolicySet(endpoint string) *EndpointPolicySet {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.sets[endpoint]
}

// Endpoints returns the endpoints with installed policy sets.
func (e *Enforcer) Endpoints() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	names := make([]string, 0, len(e.sets))
	for name := range e.sets {
		names = append(names, name)
	}
	return names
}

// snapshot takes the current set for an endpoint under the read lock. The
// returned set is immutable; later reloads install new sets rather than
// mutating this one.
func (e *Enforcer) snapshot(endpoint string) *EndpointPolicySet {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.sets[endpoint]
}

// EvaluateInput runs the input-phase rules for an endpoint against the
// caller identity and validated parameters. Rules run in declared order;
// the first rule whose condition is true denies and terminates evaluation
// immediately, so later rules are never evaluated. A runtime evaluation
// error fails closed as a deny. Endpoints without policies allow.
func (e *Enforcer) EvaluateInput(ctx context.Context, endpoint string, user *UserContext, params map[string]interface{}) Decision {
	start := time.Now()
	set := e.snapshot(endpoint)
	if set == nil || len(set.Input) == 0 {
		return allowDecision(nil)
	}

	env := inputEnv(endpoint, user, params, e.logger)

	for i := range set.Input {
		rule := &set.Input[i]
		matched, err := rule.Condition.EvaluateBool(env)
		if err != nil {
			// Fail closed: a broken condition is an implicit deny. Full
			// detail goes to the audit trail, never to the caller.
			evalErr := &RuntimeEvaluationError{Endpoint: endpoint, Phase: PhaseInput, RuleIndex: i, Cause: err}
			e.logger.Error("input rule condition failed, denying request",
				"endpoint", endpoint,
				"rule", i,
				"error", err,
			)
			decision := denyDecision(deniedByPolicyError, i)
			e.observe(ctx, set, PhaseInput, decision, user, evalErr, start)
			return decision
		}
		if !matched {
			continue
		}

		// Load-time validation guarantees input rules are deny-only.
		decision := denyDecision(rule.Reason, i)
		e.logger.Info("request denied by input rule",
			"endpoint", endpoint,
			"rule", i,
			"user_role", roleOf(user),
		)
		e.observe(ctx, set, PhaseInput, decision, user, nil, start)
		return decision
	}

	decision := allowDecision(nil)
	e.observe(ctx, set, PhaseInput, decision, user, nil, start)
	return decision
}

// EvaluateOutput runs the output-phase rules for an endpoint over the raw
// response. The rules fold over a working document in declared order: field
// actions apply to the current document, and conditions in later rules see
// all prior mutations. A true deny stops immediately and discards the
// working document entirely, so no partial data is ever returned on denial.
// A runtime evaluation error skips the triggering rule's action without
// exposing the response further. On allow, the decision carries the final
// working document.
func (e *Enforcer) EvaluateOutput(ctx context.Context, endpoint string, user *UserContext, response interface{}) Decision {
	start := time.Now()
	set := e.snapshot(endpoint)
	if set == nil || len(set.Output) == 0 {
		return allowDecision(response)
	}

	working := response
	var lastErr error
	errorRules := 0

	for i := range set.Output {
		rule := &set.Output[i]
		matched, err := rule.Condition.EvaluateBool(outputEnv(user, working))
		if err != nil {
			// Fail closed: skip this rule's action; redactions already
			// applied stay applied, and nothing further is exposed.
			lastErr = &RuntimeEvaluationError{Endpoint: endpoint, Phase: PhaseOutput, RuleIndex: i, Cause: err}
			errorRules++
			e.logger.Error("output rule condition failed, skipping rule",
				"endpoint", endpoint,
				"rule", i,
				"error", err,
			)
			continue
		}
		if !matched {
			continue
		}

		switch rule.Action {
		case ActionDeny:
			decision := denyDecision(rule.Reason, i)
			e.logger.Info("response withheld by output rule",
				"endpoint", endpoint,
				"rule", i,
				"user_role", roleOf(user),
			)
			e.observe(ctx, set, PhaseOutput, decision, user, nil, start)
			return decision

		case ActionFilterFields:
			working = FilterFields(working, rule.Fields)

		case ActionMaskFields:
			working = MaskFields(working, rule.Fields)

		case ActionFilterSensitiveFields:
			working = FilterSensitiveFields(working, set.Sensitivity)
		}
	}

	decision := allowDecision(working)
	e.observe(ctx, set, PhaseOutput, decision, user, lastErr, start)
	if errorRules > 0 {
		e.logger.Warn("output evaluation completed with failed rules",
			"endpoint", endpoint,
			"failed_rules", errorRules,
		)
	}
	return decision
}

func (e *Enforcer) observe(ctx context.Context, set *EndpointPolicySet, phase Phase, d Decision, user *UserContext, err error, start time.Time) {
	if len(e.observers) == 0 {
		return
	}
	event := DecisionEvent{
		Endpoint:      set.Endpoint,
		Phase:         phase,
		Decision:      d.Kind,
		Reason:        d.Reason,
		RuleIndex:     d.RuleIndex,
		Err:           err,
		User:          user,
		PolicyVersion: set.Version,
		Time:          start,
		Duration:      time.Since(start),
	}
	for _, obs := range e.observers {
		obs.ObserveDecision(ctx, event)
	}
}

func roleOf(user *UserContext) string {
	if user == nil {
		return AnonymousRole
	}
	return user.Role
}
