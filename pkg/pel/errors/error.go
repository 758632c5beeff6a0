// Package errors provides rich error types for PEL compilation, with the
// position of the failure inside the condition string and an optional
// suggested fix.
package errors

import (
	"fmt"
	"strings"
)

// ErrorType categorizes the type of error encountered during compilation.
type ErrorType string

const (
	ErrorTypeSyntax   ErrorType = "syntax"   // Malformed condition text
	ErrorTypeType     ErrorType = "type"     // Statically-impossible operator use
	ErrorTypeArgument ErrorType = "argument" // Bad builtin/method arity or argument
)

// Error is a compile-time error for a single condition string. It renders
// with the offending source and a caret at the failure position.
type Error struct {
	Type       ErrorType // Category of error
	Message    string    // Error message
	Expr       string    // The condition source text
	Offset     int       // Byte offset of the failure within Expr
	Suggestion string    // Suggested fix (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("[%s] %s\n", e.Type, e.Message))

	if e.Expr != "" {
		sb.WriteString("  | " + e.Expr + "\n")
		offset := e.Offset
		if offset > len(e.Expr) {
			offset = len(e.Expr)
		}
		sb.WriteString("  | " + strings.Repeat(" ", offset) + "^\n")
	}

	if e.Suggestion != "" {
		sb.WriteString(fmt.Sprintf("  = suggestion: %s\n", e.Suggestion))
	}

	return sb.String()
}

// ErrorList accumulates multiple compile errors so static checking can
// report everything wrong with a condition in one pass.
type ErrorList struct {
	Errors []*Error
}

// NewErrorList creates a new empty error list.
func NewErrorList() *ErrorList {
	return &ErrorList{Errors: make([]*Error, 0)}
}

// Add appends an error to the list.
func (el *ErrorList) Add(err *Error) {
	el.Errors = append(el.Errors, err)
}

// AddError creates and adds a new error with the given parameters.
func (el *ErrorList) AddError(errType ErrorType, message, expr string, offset int) {
	el.Add(&Error{Type: errType, Message: message, Expr: expr, Offset: offset})
}

// HasErrors returns true if the error list contains any errors.
func (el *ErrorList) HasErrors() bool {
	return len(el.Errors) > 0
}

// Error implements the error interface by joining the contained errors.
func (el *ErrorList) Error() string {
	if len(el.Errors) == 1 {
		return el.Errors[0].Error()
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d errors:\n", len(el.Errors)))
	for _, e := range el.Errors {
		sb.WriteString(e.Error())
	}
	return sb.String()
}

// ErrOrNil returns the list itself when it holds errors, nil otherwise.
// It keeps callers from returning a non-nil error interface around an
// empty list.
func (el *ErrorList) ErrOrNil() error {
	if el.HasErrors() {
		return el
	}
	return nil
}
