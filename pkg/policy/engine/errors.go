package engine

import "fmt"

// ConfigurationError is a load-time violation of the rule constraints, such
// as a deny action carrying fields or a field action in the input phase.
// It is fatal: the endpoint cannot be served until the definition is fixed.
type ConfigurationError struct {
	Endpoint  string
	Phase     Phase
	RuleIndex int
	Message   string
}

// Error returns the error message.
func (e *ConfigurationError) Error() string {
	if e.Endpoint != "" {
		return fmt.Sprintf("endpoint %s: %s rule %d: %s", e.Endpoint, e.Phase, e.RuleIndex, e.Message)
	}
	return fmt.Sprintf("%s rule: %s", e.Phase, e.Message)
}

// RuntimeEvaluationError wraps a type error raised while evaluating a rule
// condition at request time. It never reaches end callers: the engine fails
// closed and surfaces only a generic denial reason, while the full error is
// handed to the audit collaborator.
type RuntimeEvaluationError struct {
	Endpoint  string
	Phase     Phase
	RuleIndex int
	Cause     error
}

// Error returns the error message.
func (e *RuntimeEvaluationError) Error() string {
	return fmt.Sprintf("endpoint %s: %s rule %d: condition evaluation failed: %v", e.Endpoint, e.Phase, e.RuleIndex, e.Cause)
}

// Unwrap returns the underlying cause.
func (e *RuntimeEvaluationError) Unwrap() error {
	return e.Cause
}
