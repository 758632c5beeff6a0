package pel

import (
	"time"

	"parapet-hq/parapet/pkg/pel/ast"
	"parapet-hq/parapet/pkg/pel/eval"
	"parapet-hq/parapet/pkg/pel/parser"
)

// Expression is a compiled, immutable condition. A single Expression is safe
// to evaluate concurrently from multiple goroutines.
type Expression struct {
	src  string
	root ast.Node
}

// Compile parses and statically checks a condition string. Compilation
// failures are *errors.Error (or *errors.ErrorList) values from the errors
// subpackage, carrying the failure position inside src.
func Compile(src string) (*Expression, error) {
	root, err := parser.Parse(src)
	if err != nil {
		return nil, err
	}
	return &Expression{src: src, root: root}, nil
}

// MustCompile is Compile for expressions known to be valid, panicking on
// error. Intended for tests and fixed built-in conditions.
func MustCompile(src string) *Expression {
	expr, err := Compile(src)
	if err != nil {
		panic(err)
	}
	return expr
}

// Source returns the original condition text.
func (e *Expression) Source() string { return e.src }

// Evaluate evaluates the expression against env and returns the resulting
// value. Runtime type failures are *eval.RuntimeError values.
func (e *Expression) Evaluate(env eval.Env) (ast.Value, error) {
	ev := &eval.Evaluator{}
	return ev.Evaluate(e.root, env)
}

// EvaluateBool evaluates the expression and requires a boolean result, as
// policy conditions do.
func (e *Expression) EvaluateBool(env eval.Env) (bool, error) {
	ev := &eval.Evaluator{}
	return ev.EvaluateBool(e.root, env)
}

// EvaluateBoolAt is EvaluateBool with a fixed clock for the now() builtin,
// so time-dependent conditions are reproducible in tests.
func (e *Expression) EvaluateBoolAt(env eval.Env, now time.Time) (bool, error) {
	ev := &eval.Evaluator{Now: func() time.Time { return now }}
	return ev.EvaluateBool(e.root, env)
}
