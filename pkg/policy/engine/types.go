package engine

import (
	"time"

	"parapet-hq/parapet/pkg/pel"
)

// Phase identifies when a rule runs relative to endpoint execution.
type Phase string

const (
	// PhaseInput rules run before execution and can only deny.
	PhaseInput Phase = "input"

	// PhaseOutput rules run after execution and can deny or reshape the
	// response document.
	PhaseOutput Phase = "output"
)

// ActionKind is the action a rule takes when its condition is true.
type ActionKind string

const (
	// ActionDeny rejects the invocation (input) or withholds the entire
	// response (output).
	ActionDeny ActionKind = "deny"

	// ActionFilterFields removes the named top-level fields from the
	// response document.
	ActionFilterFields ActionKind = "filter_fields"

	// ActionMaskFields replaces the named top-level fields with the mask
	// token.
	ActionMaskFields ActionKind = "mask_fields"

	// ActionFilterSensitiveFields removes every field the endpoint's return
	// schema marks sensitive, at any depth.
	ActionFilterSensitiveFields ActionKind = "filter_sensitive_fields"
)

// PolicyRule is a single compiled condition+action pair. Rules are compiled
// when the endpoint definition loads and are immutable afterwards.
type PolicyRule struct {
	// Condition gates the action; evaluated per invocation.
	Condition *pel.Expression

	// Action is what happens when the condition is true.
	Action ActionKind

	// Fields names the top-level fields for ActionFilterFields and
	// ActionMaskFields, in declared order.
	Fields []string

	// Reason is the user-visible denial text for ActionDeny. Denials never
	// surface condition text or internal error detail.
	Reason string

	// Phase is the phase the rule belongs to.
	Phase Phase
}

// Validate checks the load-time constraints on a rule. Violations are
// *ConfigurationError values and are fatal: the endpoint cannot be served
// until the definition is fixed.
func (r *PolicyRule) Validate() error {
	if r.Condition == nil {
		return &ConfigurationError{Phase: r.Phase, RuleIndex: -1, Message: "rule has no condition"}
	}

	switch r.Action {
	case ActionDeny:
		if len(r.Fields) > 0 {
			return &ConfigurationError{Phase: r.Phase, RuleIndex: -1, Message: "deny action cannot carry fields"}
		}
	case ActionFilterFields, ActionMaskFields:
		if r.Phase == PhaseInput {
			return &ConfigurationError{Phase: r.Phase, RuleIndex: -1, Message: string(r.Action) + " is not allowed in the input phase; input rules support deny only"}
		}
		if len(r.Fields) == 0 {
			return &ConfigurationError{Phase: r.Phase, RuleIndex: -1, Message: string(r.Action) + " requires a non-empty fields list"}
		}
	case ActionFilterSensitiveFields:
		if r.Phase == PhaseInput {
			return &ConfigurationError{Phase: r.Phase, RuleIndex: -1, Message: "filter_sensitive_fields is not allowed in the input phase; input rules support deny only"}
		}
		if len(r.Fields) > 0 {
			return &ConfigurationError{Phase: r.Phase, RuleIndex: -1, Message: "filter_sensitive_fields derives fields from the schema and cannot carry an explicit list"}
		}
	default:
		return &ConfigurationError{Phase: r.Phase, RuleIndex: -1, Message: "unknown action " + string(r.Action)}
	}
	return nil
}

// EndpointPolicySet is the ordered rule lists for one endpoint, replaced
// atomically as a whole on hot reload.
type EndpointPolicySet struct {
	// Endpoint is the endpoint name the set applies to.
	Endpoint string

	// Input rules run in order before execution; the first true deny wins.
	Input []PolicyRule

	// Output rules run in order after execution, folding over the response.
	Output []PolicyRule

	// Sensitivity is the endpoint's declared return-schema sensitivity
	// annotations, consumed by filter_sensitive_fields.
	Sensitivity SchemaSensitivity

	// Version identifies the policy revision, when the set was loaded from
	// a versioned source. Nil for file and in-memory sources.
	Version *PolicyVersion
}

// Validate normalizes rule phases and checks every rule in the set.
func (s *EndpointPolicySet) Validate() error {
	for i := range s.Input {
		s.Input[i].Phase = PhaseInput
		if err := s.Input[i].Validate(); err != nil {
			cfgErr := err.(*ConfigurationError)
			cfgErr.Endpoint = s.Endpoint
			cfgErr.RuleIndex = i
			return cfgErr
		}
	}
	for i := range s.Output {
		s.Output[i].Phase = PhaseOutput
		if err := s.Output[i].Validate(); err != nil {
			cfgErr := err.(*ConfigurationError)
			cfgErr.Endpoint = s.Endpoint
			cfgErr.RuleIndex = i
			return cfgErr
		}
	}
	return nil
}

// PolicyVersion pins the revision of a policy set loaded from a versioned
// source, recorded into audit entries.
type PolicyVersion struct {
	CommitSHA  string    `json:"commit_sha"`
	CommitTime time.Time `json:"commit_time"`
	Branch     string    `json:"branch"`
	Repository string    `json:"repository"`
	Author     string    `json:"author"`
}

// SchemaSensitivity maps dotted field paths of the endpoint's declared
// return type to their sensitive annotation. Array hops are transparent:
// the path "items.ssn" covers ssn inside each element of an items array.
// Fields absent from the map are never treated as sensitive, regardless of
// name.
type SchemaSensitivity map[string]bool

// Sensitive reports whether the given dotted path is annotated sensitive.
func (s SchemaSensitivity) Sensitive(path string) bool {
	return s != nil && s[path]
}

// UserContext is the caller identity supplied per request by the external
// authentication component. It is borrowed read-only by the engine. Fields
// beyond ID and Role may be empty depending on the provider.
type UserContext struct {
	ID          string   `json:"id"`
	Email       string   `json:"email"`
	Name        string   `json:"name"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
	Groups      []string `json:"groups"`
	Provider    string   `json:"provider"`
}

// AnonymousRole is the sentinel role for unauthenticated callers.
const AnonymousRole = "anonymous"

// AnonymousUser returns the sentinel identity used for unauthenticated
// callers. Conditions always see a user binding, never an absent one.
func AnonymousUser() *UserContext {
	return &UserContext{
		Role:        AnonymousRole,
		Permissions: []string{},
		Groups:      []string{},
	}
}

// DecisionKind is the terminal verdict of a phase evaluation.
type DecisionKind string

const (
	DecisionAllow DecisionKind = "allow"
	DecisionDeny  DecisionKind = "deny"
)

// Decision is the outcome of evaluating one phase for one invocation. It is
// created per invocation and discarded once consumed.
type Decision struct {
	// Kind is allow or deny.
	Kind DecisionKind

	// Reason is the rule's user-visible denial text, set only on deny.
	Reason string

	// RuleIndex is the zero-based index of the rule that denied, or -1 when
	// no rule triggered.
	RuleIndex int

	// Response is the (possibly reshaped) response document, set only for
	// output-phase allow decisions.
	Response interface{}
}

// Allowed reports whether the decision permits the invocation to proceed.
func (d Decision) Allowed() bool {
	return d.Kind == DecisionAllow
}

// allowDecision builds an allow verdict with no triggering rule.
func allowDecision(response interface{}) Decision {
	return Decision{Kind: DecisionAllow, RuleIndex: -1, Response: response}
}

// denyDecision builds a deny verdict for the rule at index i.
func denyDecision(reason string, i int) Decision {
	return Decision{Kind: DecisionDeny, Reason: reason, RuleIndex: i}
}
