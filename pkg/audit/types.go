package audit

import (
	"context"
	"time"
)

// DecisionRecord is the persisted audit trail entry for one policy
// evaluation. The Error field carries the full internal detail of a
// fail-closed decision; callers only ever saw the generic reason.
type DecisionRecord struct {
	// ID is a UUID v4 assigned at recording time.
	ID string `json:"id"`

	// Time is when evaluation started.
	Time time.Time `json:"time"`

	// Endpoint and Phase locate the evaluation.
	Endpoint string `json:"endpoint"`
	Phase    string `json:"phase"`

	// Decision is "allow" or "deny".
	Decision string `json:"decision"`

	// Reason is the user-visible denial reason, empty on allow.
	Reason string `json:"reason,omitempty"`

	// RuleIndex is the zero-based index of the triggering rule, or -1.
	RuleIndex int `json:"rule_index"`

	// Error is the internal evaluation error text, empty when evaluation
	// was clean.
	Error string `json:"error,omitempty"`

	// UserID and UserRole identify the caller the decision was made for.
	UserID   string `json:"user_id,omitempty"`
	UserRole string `json:"user_role"`

	// PolicyCommit pins the policy revision for versioned sources.
	PolicyCommit string `json:"policy_commit,omitempty"`

	// Duration is how long evaluation took.
	Duration time.Duration `json:"duration"`
}

// Query filters decision records.
type Query struct {
	// Start and End bound Time inclusively. Nil means unbounded.
	Start *time.Time `json:"start,omitempty"`
	End   *time.Time `json:"end,omitempty"`

	Endpoint string `json:"endpoint,omitempty"`
	Phase    string `json:"phase,omitempty"`
	Decision string `json:"decision,omitempty"`
	UserID   string `json:"user_id,omitempty"`

	// Limit and Offset paginate; Limit 0 means no limit. Results are
	// ordered newest first.
	Limit  int `json:"limit,omitempty"`
	Offset int `json:"offset,omitempty"`
}

// Matches reports whether a record satisfies the query's filters,
// ignoring pagination.
func (q *Query) Matches(r *DecisionRecord) bool {
	if q.Start != nil && r.Time.Before(*q.Start) {
		return false
	}
	if q.End != nil && r.Time.After(*q.End) {
		return false
	}
	if q.Endpoint != "" && r.Endpoint != q.Endpoint {
		return false
	}
	if q.Phase != "" && r.Phase != q.Phase {
		return false
	}
	if q.Decision != "" && r.Decision != q.Decision {
		return false
	}
	if q.UserID != "" && r.UserID != q.UserID {
		return false
	}
	return true
}

// Storage is a decision record backend. Implementations must be safe for
// concurrent use.
type Storage interface {
	// Store persists one record.
	Store(ctx context.Context, record *DecisionRecord) error

	// Query returns records matching the filters, newest first.
	Query(ctx context.Context, query *Query) ([]*DecisionRecord, error)

	// Count returns the number of records matching the filters.
	Count(ctx context.Context, query *Query) (int64, error)

	// Delete removes matching records and returns how many were removed.
	// Retention pruning is built on this.
	Delete(ctx context.Context, query *Query) (int64, error)

	// Close releases backend resources.
	Close() error
}
