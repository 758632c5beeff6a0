package parser

import (
	"fmt"

	"parapet-hq/parapet/pkg/pel/ast"
	pelerrors "parapet-hq/parapet/pkg/pel/errors"
)

// check runs the static type pass over a parsed tree. Only applications that
// can never succeed are rejected; anything involving a dynamically-resolved
// name passes through to runtime.
func check(node ast.Node, src string) error {
	c := &checker{src: src, errs: pelerrors.NewErrorList()}
	c.kindOf(node)
	return c.errs.ErrOrNil()
}

type checker struct {
	src  string
	errs *pelerrors.ErrorList
}

// unknownKind marks a subexpression whose type is only known at runtime.
const unknownKind = ast.Kind(-1)

func (c *checker) errorf(offset int, format string, args ...interface{}) {
	c.errs.Add(&pelerrors.Error{
		Type:    pelerrors.ErrorTypeType,
		Message: fmt.Sprintf(format, args...),
		Expr:    c.src,
		Offset:  offset,
	})
}

// kindOf type-checks a node and returns its static kind, or unknownKind when
// the type depends on runtime data.
func (c *checker) kindOf(node ast.Node) ast.Kind {
	switch n := node.(type) {
	case *ast.Literal:
		return n.Val.Kind()

	case *ast.ListLit:
		for _, e := range n.Elems {
			c.kindOf(e)
		}
		return ast.KindList

	case *ast.Ident:
		return unknownKind

	case *ast.Select:
		c.kindOf(n.X)
		return unknownKind

	case *ast.Index:
		c.kindOf(n.X)
		if k := c.kindOf(n.Key); k != unknownKind && k != ast.KindNumber && k != ast.KindString {
			c.errorf(n.Key.Pos(), "index must be a number or string, not %s", k)
		}
		return unknownKind

	case *ast.Unary:
		k := c.kindOf(n.X)
		if n.Op == ast.OpNot {
			if k != unknownKind && k != ast.KindBool {
				c.errorf(n.Offset, "operator ! requires a bool operand, not %s", k)
			}
			return ast.KindBool
		}
		// unary minus
		if k != unknownKind && k != ast.KindNumber {
			c.errorf(n.Offset, "unary - requires a number operand, not %s", k)
		}
		return ast.KindNumber

	case *ast.Binary:
		return c.checkBinary(n)

	case *ast.Call:
		for _, a := range n.Args {
			if k := c.kindOf(a); k != unknownKind && k != ast.KindString {
				c.errorf(a.Pos(), "%s expects a string argument, not %s", n.Fn, k)
			}
		}
		switch n.Fn {
		case "duration":
			return ast.KindDuration
		default: // now, timestamp
			return ast.KindTime
		}

	case *ast.Method:
		if k := c.kindOf(n.X); k != unknownKind && k != ast.KindString {
			c.errorf(n.Offset, "%s is a string method, cannot apply to %s", n.Name, k)
		}
		for _, a := range n.Args {
			if k := c.kindOf(a); k != unknownKind && k != ast.KindString {
				c.errorf(a.Pos(), "%s expects a string argument, not %s", n.Name, k)
			}
		}
		return ast.KindBool

	case *ast.Comprehension:
		if k := c.kindOf(n.X); k != unknownKind && k != ast.KindList {
			c.errorf(n.Offset, "%s requires a list receiver, not %s", n.Name, k)
		}
		if k := c.kindOf(n.Pred); k != unknownKind && k != ast.KindBool {
			c.errorf(n.Pred.Pos(), "%s predicate must be a bool expression, not %s", n.Name, k)
		}
		return ast.KindBool

	default:
		return unknownKind
	}
}

func (c *checker) checkBinary(n *ast.Binary) ast.Kind {
	xk := c.kindOf(n.X)
	yk := c.kindOf(n.Y)

	switch n.Op {
	case ast.OpAnd, ast.OpOr:
		if xk != unknownKind && xk != ast.KindBool {
			c.errorf(n.X.Pos(), "operator %s requires bool operands, not %s", n.Op, xk)
		}
		if yk != unknownKind && yk != ast.KindBool {
			c.errorf(n.Y.Pos(), "operator %s requires bool operands, not %s", n.Op, yk)
		}
		return ast.KindBool

	case ast.OpEqual, ast.OpNotEqual:
		// Cross-kind equality is legal and simply false at runtime.
		return ast.KindBool

	case ast.OpLessThan, ast.OpLessEqual, ast.OpGreaterThan, ast.OpGreaterEqual:
		for _, side := range []struct {
			k   ast.Kind
			pos int
		}{{xk, n.X.Pos()}, {yk, n.Y.Pos()}} {
			if side.k == unknownKind {
				continue
			}
			switch side.k {
			case ast.KindNumber, ast.KindString, ast.KindTime, ast.KindDuration:
			default:
				c.errorf(side.pos, "operator %s cannot order %s values", n.Op, side.k)
			}
		}
		if xk != unknownKind && yk != unknownKind && xk != yk {
			c.errorf(n.Offset, "operator %s cannot compare %s with %s", n.Op, xk, yk)
		}
		return ast.KindBool

	case ast.OpIn:
		if yk != unknownKind && yk != ast.KindList && yk != ast.KindMap {
			c.errorf(n.Y.Pos(), "operator in requires a list or map on the right, not %s", yk)
		}
		return ast.KindBool

	case ast.OpMul, ast.OpDiv:
		if xk != unknownKind && xk != ast.KindNumber {
			c.errorf(n.X.Pos(), "operator %s requires number operands, not %s", n.Op, xk)
		}
		if yk != unknownKind && yk != ast.KindNumber {
			c.errorf(n.Y.Pos(), "operator %s requires number operands, not %s", n.Op, yk)
		}
		return ast.KindNumber

	case ast.OpAdd:
		return c.checkAdditive(n, xk, yk, true)

	default: // OpSub
		return c.checkAdditive(n, xk, yk, false)
	}
}

// checkAdditive validates + and -. Beyond numbers, + concatenates strings
// and lists and shifts timestamps by durations; - also subtracts timestamps
// to produce a duration.
func (c *checker) checkAdditive(n *ast.Binary, xk, yk ast.Kind, add bool) ast.Kind {
	allowed := func(k ast.Kind) bool {
		switch k {
		case ast.KindNumber, ast.KindTime, ast.KindDuration:
			return true
		case ast.KindString, ast.KindList:
			return add
		default:
			return false
		}
	}
	if xk != unknownKind && !allowed(xk) {
		c.errorf(n.X.Pos(), "operator %s cannot be applied to %s", n.Op, xk)
		return unknownKind
	}
	if yk != unknownKind && !allowed(yk) {
		c.errorf(n.Y.Pos(), "operator %s cannot be applied to %s", n.Op, yk)
		return unknownKind
	}
	if xk == unknownKind || yk == unknownKind {
		return unknownKind
	}

	switch {
	case xk == ast.KindNumber && yk == ast.KindNumber:
		return ast.KindNumber
	case add && xk == ast.KindString && yk == ast.KindString:
		return ast.KindString
	case add && xk == ast.KindList && yk == ast.KindList:
		return ast.KindList
	case xk == ast.KindTime && yk == ast.KindDuration:
		return ast.KindTime
	case add && xk == ast.KindDuration && yk == ast.KindTime:
		return ast.KindTime
	case xk == ast.KindDuration && yk == ast.KindDuration:
		return ast.KindDuration
	case !add && xk == ast.KindTime && yk == ast.KindTime:
		return ast.KindDuration
	default:
		c.errorf(n.Offset, "operator %s cannot combine %s with %s", n.Op, xk, yk)
		return unknownKind
	}
}
