package engine

import (
	"context"
	"time"
)

// DecisionEvent is the record of one phase evaluation, handed to observers
// such as the audit recorder and the metrics collector. The Error field
// carries full internal detail; it is for the audit trail only and must
// never be surfaced to end callers.
type DecisionEvent struct {
	// Endpoint is the endpoint the decision applies to.
	Endpoint string

	// Phase is the evaluated phase.
	Phase Phase

	// Decision is the terminal verdict.
	Decision DecisionKind

	// Reason is the user-visible denial reason, empty on allow.
	Reason string

	// RuleIndex is the zero-based index of the triggering rule, or -1.
	RuleIndex int

	// Err is the runtime evaluation error behind a fail-closed decision,
	// nil otherwise.
	Err error

	// User is the caller the decision was made for (read-only).
	User *UserContext

	// PolicyVersion is the revision of the evaluated policy set, when the
	// set came from a versioned source.
	PolicyVersion *PolicyVersion

	// Time is when evaluation started; Duration how long it took.
	Time     time.Time
	Duration time.Duration
}

// Observer receives decision events. Implementations must not block for
// long: observers run inline on the request path.
type Observer interface {
	ObserveDecision(ctx context.Context, event DecisionEvent)
}
