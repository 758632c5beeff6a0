// Package parser compiles PEL condition strings into immutable ASTs.
//
// Parsing is precedence-climbing over the lexer's token stream. After the
// tree is built, a static checking pass rejects operator applications that
// can never succeed (for example, arithmetic on a boolean literal). Unknown
// identifiers are deliberately NOT rejected: name resolution is dynamic and
// unresolved names evaluate to null at runtime.
package parser
