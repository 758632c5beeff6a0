// Package eval walks compiled PEL trees against an evaluation environment.
//
// Evaluation is pure: no I/O, no side effects on the environment, and a
// shared tree can be evaluated concurrently. Unresolved identifiers and
// missing nested fields yield null; applying a type-specific operation to
// null or a mismatched type yields a *RuntimeError.
package eval

import (
	"fmt"
	"math"
	"strings"
	"time"

	"parapet-hq/parapet/pkg/pel/ast"
)

// Env resolves top-level identifiers during evaluation. Implementations must
// be safe for read-only concurrent use.
type Env interface {
	// Resolve returns the value bound to name, and whether a binding exists.
	Resolve(name string) (ast.Value, bool)
}

// MapEnv is the basic Env backed by a map.
type MapEnv map[string]ast.Value

// Resolve implements Env.
func (m MapEnv) Resolve(name string) (ast.Value, bool) {
	v, ok := m[name]
	return v, ok
}

// bindEnv layers a single binding over a parent Env, used for comprehension
// iteration variables.
type bindEnv struct {
	parent Env
	name   string
	val    ast.Value
}

func (b *bindEnv) Resolve(name string) (ast.Value, bool) {
	if name == b.name {
		return b.val, true
	}
	return b.parent.Resolve(name)
}

// RuntimeError is a type error raised while evaluating a condition, such as
// calling a string method on null. It carries the position of the failing
// node in the original condition text.
type RuntimeError struct {
	Message string
	Offset  int
}

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	return fmt.Sprintf("evaluation error at offset %d: %s", e.Offset, e.Message)
}

func runtimeErrorf(offset int, format string, args ...interface{}) error {
	return &RuntimeError{Message: fmt.Sprintf(format, args...), Offset: offset}
}

// Evaluator evaluates compiled trees. The zero value is usable; Now is only
// consulted by the now() builtin and defaults to time.Now, overridable for
// tests.
type Evaluator struct {
	Now func() time.Time
}

// Evaluate walks the tree against env and returns the resulting value.
func (ev *Evaluator) Evaluate(node ast.Node, env Env) (ast.Value, error) {
	switch n := node.(type) {
	case *ast.Literal:
		return n.Val, nil

	case *ast.ListLit:
		elems := make([]ast.Value, len(n.Elems))
		for i, e := range n.Elems {
			v, err := ev.Evaluate(e, env)
			if err != nil {
				return ast.Null(), err
			}
			elems[i] = v
		}
		return ast.List(elems), nil

	case *ast.Ident:
		v, ok := env.Resolve(n.Name)
		if !ok {
			// Dynamic resolution: unknown names are null, not errors.
			return ast.Null(), nil
		}
		return v, nil

	case *ast.Select:
		x, err := ev.Evaluate(n.X, env)
		if err != nil {
			return ast.Null(), err
		}
		return ev.selectField(x, n.Name, n.Offset)

	case *ast.Index:
		return ev.evalIndex(n, env)

	case *ast.Unary:
		return ev.evalUnary(n, env)

	case *ast.Binary:
		return ev.evalBinary(n, env)

	case *ast.Call:
		return ev.evalCall(n, env)

	case *ast.Method:
		return ev.evalMethod(n, env)

	case *ast.Comprehension:
		return ev.evalComprehension(n, env)

	default:
		return ast.Null(), runtimeErrorf(node.Pos(), "unknown node type %T", node)
	}
}

// EvaluateBool evaluates the tree and requires a boolean result, as needed
// for policy conditions.
func (ev *Evaluator) EvaluateBool(node ast.Node, env Env) (bool, error) {
	v, err := ev.Evaluate(node, env)
	if err != nil {
		return false, err
	}
	b, ok := v.AsBool()
	if !ok {
		return false, runtimeErrorf(node.Pos(), "condition evaluated to %s, expected bool", v.Kind())
	}
	return b, nil
}

// selectField resolves x.name. Null bases propagate null so chained access
// over missing data never raises; selecting on a concrete non-map value is
// a type error.
func (ev *Evaluator) selectField(x ast.Value, name string, offset int) (ast.Value, error) {
	switch x.Kind() {
	case ast.KindNull:
		return ast.Null(), nil
	case ast.KindMap:
		return x.Field(name), nil
	default:
		return ast.Null(), runtimeErrorf(offset, "cannot access field %q on %s value", name, x.Kind())
	}
}

func (ev *Evaluator) evalIndex(n *ast.Index, env Env) (ast.Value, error) {
	x, err := ev.Evaluate(n.X, env)
	if err != nil {
		return ast.Null(), err
	}
	key, err := ev.Evaluate(n.Key, env)
	if err != nil {
		return ast.Null(), err
	}

	switch x.Kind() {
	case ast.KindNull:
		return ast.Null(), nil

	case ast.KindList:
		idx, ok := key.AsNumber()
		if !ok {
			return ast.Null(), runtimeErrorf(n.Key.Pos(), "list index must be a number, not %s", key.Kind())
		}
		if idx != math.Trunc(idx) {
			return ast.Null(), runtimeErrorf(n.Key.Pos(), "list index must be an integer")
		}
		list, _ := x.AsList()
		i := int(idx)
		if i < 0 || i >= len(list) {
			return ast.Null(), nil
		}
		return list[i], nil

	case ast.KindMap:
		name, ok := key.AsString()
		if !ok {
			return ast.Null(), runtimeErrorf(n.Key.Pos(), "map key must be a string, not %s", key.Kind())
		}
		return x.Field(name), nil

	default:
		return ast.Null(), runtimeErrorf(n.Offset, "cannot index %s value", x.Kind())
	}
}

func (ev *Evaluator) evalUnary(n *ast.Unary, env Env) (ast.Value, error) {
	x, err := ev.Evaluate(n.X, env)
	if err != nil {
		return ast.Null(), err
	}

	if n.Op == ast.OpNot {
		b, ok := x.AsBool()
		if !ok {
			return ast.Null(), runtimeErrorf(n.Offset, "operator ! requires a bool operand, got %s", x.Kind())
		}
		return ast.Bool(!b), nil
	}

	// unary minus
	num, ok := x.AsNumber()
	if !ok {
		return ast.Null(), runtimeErrorf(n.Offset, "unary - requires a number operand, got %s", x.Kind())
	}
	return ast.Number(-num), nil
}

func (ev *Evaluator) evalBinary(n *ast.Binary, env Env) (ast.Value, error) {
	// Logical operators short-circuit, so the right side is only evaluated
	// when it can affect the result.
	if n.Op == ast.OpAnd || n.Op == ast.OpOr {
		return ev.evalLogical(n, env)
	}

	x, err := ev.Evaluate(n.X, env)
	if err != nil {
		return ast.Null(), err
	}
	y, err := ev.Evaluate(n.Y, env)
	if err != nil {
		return ast.Null(), err
	}

	switch n.Op {
	case ast.OpEqual:
		return ast.Bool(x.Equal(y)), nil
	case ast.OpNotEqual:
		return ast.Bool(!x.Equal(y)), nil

	case ast.OpLessThan, ast.OpLessEqual, ast.OpGreaterThan, ast.OpGreaterEqual:
		cmp, err := x.Compare(y)
		if err != nil {
			return ast.Null(), runtimeErrorf(n.Offset, "%v", err)
		}
		switch n.Op {
		case ast.OpLessThan:
			return ast.Bool(cmp < 0), nil
		case ast.OpLessEqual:
			return ast.Bool(cmp <= 0), nil
		case ast.OpGreaterThan:
			return ast.Bool(cmp > 0), nil
		default:
			return ast.Bool(cmp >= 0), nil
		}

	case ast.OpIn:
		return ev.evalIn(x, y, n.Offset)

	case ast.OpAdd, ast.OpSub, ast.OpMul, ast.OpDiv:
		return ev.evalArithmetic(n.Op, x, y, n.Offset)

	default:
		return ast.Null(), runtimeErrorf(n.Offset, "unknown operator %s", n.Op)
	}
}

func (ev *Evaluator) evalLogical(n *ast.Binary, env Env) (ast.Value, error) {
	x, err := ev.Evaluate(n.X, env)
	if err != nil {
		return ast.Null(), err
	}
	xb, ok := x.AsBool()
	if !ok {
		return ast.Null(), runtimeErrorf(n.X.Pos(), "operator %s requires bool operands, got %s", n.Op, x.Kind())
	}

	// Short-circuit.
	if n.Op == ast.OpAnd && !xb {
		return ast.Bool(false), nil
	}
	if n.Op == ast.OpOr && xb {
		return ast.Bool(true), nil
	}

	y, err := ev.Evaluate(n.Y, env)
	if err != nil {
		return ast.Null(), err
	}
	yb, ok := y.AsBool()
	if !ok {
		return ast.Null(), runtimeErrorf(n.Y.Pos(), "operator %s requires bool operands, got %s", n.Op, y.Kind())
	}
	return ast.Bool(yb), nil
}

// evalIn implements membership: element of a list, or key of a map.
func (ev *Evaluator) evalIn(x, y ast.Value, offset int) (ast.Value, error) {
	switch y.Kind() {
	case ast.KindList:
		list, _ := y.AsList()
		for _, e := range list {
			if x.Equal(e) {
				return ast.Bool(true), nil
			}
		}
		return ast.Bool(false), nil

	case ast.KindMap:
		key, ok := x.AsString()
		if !ok {
			return ast.Null(), runtimeErrorf(offset, "map membership requires a string key, got %s", x.Kind())
		}
		m, _ := y.AsMap()
		_, found := m[key]
		return ast.Bool(found), nil

	default:
		return ast.Null(), runtimeErrorf(offset, "operator in requires a list or map on the right, got %s", y.Kind())
	}
}

func (ev *Evaluator) evalArithmetic(op ast.Op, x, y ast.Value, offset int) (ast.Value, error) {
	// Number arithmetic is the common case.
	if xn, ok := x.AsNumber(); ok {
		yn, ok := y.AsNumber()
		if !ok {
			return ast.Null(), runtimeErrorf(offset, "operator %s cannot combine number with %s", op, y.Kind())
		}
		switch op {
		case ast.OpAdd:
			return ast.Number(xn + yn), nil
		case ast.OpSub:
			return ast.Number(xn - yn), nil
		case ast.OpMul:
			return ast.Number(xn * yn), nil
		default:
			if yn == 0 {
				return ast.Null(), runtimeErrorf(offset, "division by zero")
			}
			return ast.Number(xn / yn), nil
		}
	}

	if op == ast.OpMul || op == ast.OpDiv {
		return ast.Null(), runtimeErrorf(offset, "operator %s requires number operands, got %s", op, x.Kind())
	}

	// String and list concatenation.
	if op == ast.OpAdd {
		if xs, ok := x.AsString(); ok {
			ys, ok := y.AsString()
			if !ok {
				return ast.Null(), runtimeErrorf(offset, "operator + cannot combine string with %s", y.Kind())
			}
			return ast.String(xs + ys), nil
		}
		if xl, ok := x.AsList(); ok {
			yl, ok := y.AsList()
			if !ok {
				return ast.Null(), runtimeErrorf(offset, "operator + cannot combine list with %s", y.Kind())
			}
			joined := make([]ast.Value, 0, len(xl)+len(yl))
			joined = append(joined, xl...)
			joined = append(joined, yl...)
			return ast.List(joined), nil
		}
	}

	// Date/interval arithmetic.
	if xt, ok := x.AsTime(); ok {
		if yd, ok := y.AsDuration(); ok {
			if op == ast.OpAdd {
				return ast.Time(xt.Add(yd)), nil
			}
			return ast.Time(xt.Add(-yd)), nil
		}
		if yt, ok := y.AsTime(); ok && op == ast.OpSub {
			return ast.Duration(xt.Sub(yt)), nil
		}
		return ast.Null(), runtimeErrorf(offset, "operator %s cannot combine timestamp with %s", op, y.Kind())
	}
	if xd, ok := x.AsDuration(); ok {
		if yd, ok := y.AsDuration(); ok {
			if op == ast.OpAdd {
				return ast.Duration(xd + yd), nil
			}
			return ast.Duration(xd - yd), nil
		}
		if yt, ok := y.AsTime(); ok && op == ast.OpAdd {
			return ast.Time(yt.Add(xd)), nil
		}
		return ast.Null(), runtimeErrorf(offset, "operator %s cannot combine duration with %s", op, y.Kind())
	}

	return ast.Null(), runtimeErrorf(offset, "operator %s cannot be applied to %s", op, x.Kind())
}

func (ev *Evaluator) evalCall(n *ast.Call, env Env) (ast.Value, error) {
	args := make([]ast.Value, len(n.Args))
	for i, a := range n.Args {
		v, err := ev.Evaluate(a, env)
		if err != nil {
			return ast.Null(), err
		}
		args[i] = v
	}

	switch n.Fn {
	case "now":
		now := ev.Now
		if now == nil {
			now = time.Now
		}
		return ast.Time(now()), nil

	case "timestamp":
		s, ok := args[0].AsString()
		if !ok {
			return ast.Null(), runtimeErrorf(n.Offset, "timestamp expects a string argument, got %s", args[0].Kind())
		}
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return ast.Null(), runtimeErrorf(n.Offset, "invalid timestamp %q: must be RFC 3339", s)
		}
		return ast.Time(t), nil

	case "duration":
		s, ok := args[0].AsString()
		if !ok {
			return ast.Null(), runtimeErrorf(n.Offset, "duration expects a string argument, got %s", args[0].Kind())
		}
		d, err := time.ParseDuration(s)
		if err != nil {
			return ast.Null(), runtimeErrorf(n.Offset, "invalid duration %q", s)
		}
		return ast.Duration(d), nil

	default:
		return ast.Null(), runtimeErrorf(n.Offset, "unknown function %q", n.Fn)
	}
}

func (ev *Evaluator) evalMethod(n *ast.Method, env Env) (ast.Value, error) {
	recv, err := ev.Evaluate(n.X, env)
	if err != nil {
		return ast.Null(), err
	}
	s, ok := recv.AsString()
	if !ok {
		return ast.Null(), runtimeErrorf(n.Offset, "cannot call %s on %s value", n.Name, recv.Kind())
	}

	arg, err := ev.Evaluate(n.Args[0], env)
	if err != nil {
		return ast.Null(), err
	}
	as, ok := arg.AsString()
	if !ok {
		return ast.Null(), runtimeErrorf(n.Args[0].Pos(), "%s expects a string argument, got %s", n.Name, arg.Kind())
	}

	switch n.Name {
	case "contains":
		return ast.Bool(strings.Contains(s, as)), nil
	case "startsWith":
		return ast.Bool(strings.HasPrefix(s, as)), nil
	case "endsWith":
		return ast.Bool(strings.HasSuffix(s, as)), nil
	default:
		return ast.Null(), runtimeErrorf(n.Offset, "unknown method %q", n.Name)
	}
}

func (ev *Evaluator) evalComprehension(n *ast.Comprehension, env Env) (ast.Value, error) {
	recv, err := ev.Evaluate(n.X, env)
	if err != nil {
		return ast.Null(), err
	}
	list, ok := recv.AsList()
	if !ok {
		return ast.Null(), runtimeErrorf(n.Offset, "cannot call %s on %s value", n.Name, recv.Kind())
	}

	for _, elem := range list {
		child := &bindEnv{parent: env, name: n.Var, val: elem}
		matched, err := ev.EvaluateBool(n.Pred, child)
		if err != nil {
			return ast.Null(), err
		}
		if n.Name == "exists" && matched {
			return ast.Bool(true), nil
		}
		if n.Name == "all" && !matched {
			return ast.Bool(false), nil
		}
	}
	// exists over an empty or unmatched list is false; all is true.
	return ast.Bool(n.Name == "all"), nil
}
