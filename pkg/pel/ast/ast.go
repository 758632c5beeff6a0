package ast

// Op is a unary or binary operator in a PEL expression.
type Op string

const (
	OpOr  Op = "||"
	OpAnd Op = "&&"
	OpNot Op = "!"

	OpEqual        Op = "=="
	OpNotEqual     Op = "!="
	OpLessThan     Op = "<"
	OpGreaterThan  Op = ">"
	OpLessEqual    Op = "<="
	OpGreaterEqual Op = ">="
	OpIn           Op = "in"

	OpAdd Op = "+"
	OpSub Op = "-"
	OpMul Op = "*"
	OpDiv Op = "/"

	// OpNeg is unary minus, distinct from OpSub for error reporting.
	OpNeg Op = "-u"
)

// Node is a single node of a compiled condition. Pos returns the byte offset
// of the node in the original condition string, for error reporting.
type Node interface {
	Pos() int
	exprNode()
}

// Literal is a string, number, boolean, or null literal.
type Literal struct {
	Val    Value
	Offset int
}

// ListLit is a list literal such as ['admin', 'hr'].
type ListLit struct {
	Elems  []Node
	Offset int
}

// Ident is a top-level identifier, resolved dynamically against the
// evaluation environment at runtime.
type Ident struct {
	Name   string
	Offset int
}

// Select is dotted field access x.name.
type Select struct {
	X      Node
	Name   string
	Offset int
}

// Index is subscript access x[key].
type Index struct {
	X      Node
	Key    Node
	Offset int
}

// Unary is a prefix operator application (! or unary minus).
type Unary struct {
	Op     Op
	X      Node
	Offset int
}

// Binary is an infix operator application. Logical operators short-circuit
// left to right.
type Binary struct {
	Op     Op
	X      Node
	Y      Node
	Offset int
}

// Call is a builtin function call such as now() or duration('24h').
type Call struct {
	Fn     string
	Args   []Node
	Offset int
}

// Method is a method-style call on a receiver, covering the string methods
// (contains, startsWith, endsWith).
type Method struct {
	X      Node
	Name   string
	Args   []Node
	Offset int
}

// Comprehension is a collection predicate: x.exists(v, pred) or
// x.all(v, pred). Var is bound in Pred's scope while iterating.
type Comprehension struct {
	X      Node
	Name   string // "exists" or "all"
	Var    string
	Pred   Node
	Offset int
}

func (n *Literal) Pos() int       { return n.Offset }
func (n *ListLit) Pos() int       { return n.Offset }
func (n *Ident) Pos() int         { return n.Offset }
func (n *Select) Pos() int        { return n.Offset }
func (n *Index) Pos() int         { return n.Offset }
func (n *Unary) Pos() int         { return n.Offset }
func (n *Binary) Pos() int        { return n.Offset }
func (n *Call) Pos() int          { return n.Offset }
func (n *Method) Pos() int        { return n.Offset }
func (n *Comprehension) Pos() int { return n.Offset }

func (*Literal) exprNode()       {}
func (*ListLit) exprNode()       {}
func (*Ident) exprNode()         {}
func (*Select) exprNode()        {}
func (*Index) exprNode()         {}
func (*Unary) exprNode()         {}
func (*Binary) exprNode()        {}
func (*Call) exprNode()          {}
func (*Method) exprNode()        {}
func (*Comprehension) exprNode() {}

// Walk traverses the tree in depth-first order, calling fn for every node.
// Traversal of a subtree stops when fn returns false.
func Walk(n Node, fn func(Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	switch node := n.(type) {
	case *ListLit:
		for _, e := range node.Elems {
			Walk(e, fn)
		}
	case *Select:
		Walk(node.X, fn)
	case *Index:
		Walk(node.X, fn)
		Walk(node.Key, fn)
	case *Unary:
		Walk(node.X, fn)
	case *Binary:
		Walk(node.X, fn)
		Walk(node.Y, fn)
	case *Call:
		for _, a := range node.Args {
			Walk(a, fn)
		}
	case *Method:
		Walk(node.X, fn)
		for _, a := range node.Args {
			Walk(a, fn)
		}
	case *Comprehension:
		Walk(node.X, fn)
		Walk(node.Pred, fn)
	}
}
