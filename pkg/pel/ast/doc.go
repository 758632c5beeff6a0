// Package ast defines the Abstract Syntax Tree for PEL (Parapet Expression
// Language) conditions, together with the dynamic Value variant the evaluator
// operates on.
//
// Nodes are built by the parser subpackage and are immutable after
// construction. A compiled tree is safe to share across concurrently
// executing evaluations.
package ast
