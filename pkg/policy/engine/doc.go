// Package engine evaluates endpoint policy sets against invocations.
//
// An Enforcer holds one EndpointPolicySet per endpoint. For each invocation
// the host calls EvaluateInput before executing the endpoint and, when
// allowed, EvaluateOutput on the raw result. Input rules are deny-only and
// short-circuit on the first match; output rules fold over a working
// response document, cumulatively filtering, masking, or redacting fields,
// with deny discarding the document entirely.
//
// Conditions are compiled PEL expressions (see pkg/pel). The evaluation
// context always binds "user" (the sentinel anonymous identity when the
// caller is unauthenticated), plus the caller parameters in the input phase
// or "response" in the output phase. Reserved bindings take precedence over
// caller parameters by construction.
//
// The engine is synchronous, CPU-bound pure computation. Policy sets are
// immutable once installed and are replaced atomically on hot reload;
// in-flight evaluations keep the snapshot they started with. Runtime
// evaluation failures fail closed, and denial responses surface only the
// rule's reason text.
package engine
