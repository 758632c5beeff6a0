// Package lexer tokenizes PEL condition strings for the parser.
package lexer

import "fmt"

// TokenType identifies the class of a lexed token.
type TokenType int

const (
	EOF TokenType = iota
	ILLEGAL

	IDENT  // user, quantity
	NUMBER // 10, 3.5
	STRING // 'admin', "admin"

	TRUE  // true
	FALSE // false
	NULL  // null
	IN    // in

	OR  // ||
	AND // &&
	NOT // !

	EQ // ==
	NE // !=
	LT // <
	GT // >
	LE // <=
	GE // >=

	PLUS  // +
	MINUS // -
	STAR  // *
	SLASH // /

	LPAREN   // (
	RPAREN   // )
	LBRACKET // [
	RBRACKET // ]
	COMMA    // ,
	DOT      // .
)

var tokenNames = map[TokenType]string{
	EOF:      "end of expression",
	ILLEGAL:  "illegal token",
	IDENT:    "identifier",
	NUMBER:   "number",
	STRING:   "string",
	TRUE:     "'true'",
	FALSE:    "'false'",
	NULL:     "'null'",
	IN:       "'in'",
	OR:       "'||'",
	AND:      "'&&'",
	NOT:      "'!'",
	EQ:       "'=='",
	NE:       "'!='",
	LT:       "'<'",
	GT:       "'>'",
	LE:       "'<='",
	GE:       "'>='",
	PLUS:     "'+'",
	MINUS:    "'-'",
	STAR:     "'*'",
	SLASH:    "'/'",
	LPAREN:   "'('",
	RPAREN:   "')'",
	LBRACKET: "'['",
	RBRACKET: "']'",
	COMMA:    "','",
	DOT:      "'.'",
}

// String returns a human-readable name for the token type.
func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return fmt.Sprintf("token(%d)", int(t))
}

// Token is a single lexed token with its source position.
type Token struct {
	Type    TokenType
	Literal string // Raw text; for STRING, the unquoted contents
	Offset  int    // Byte offset of the token start in the source
}

// keywords maps reserved identifiers to their token types.
var keywords = map[string]TokenType{
	"true":  TRUE,
	"false": FALSE,
	"null":  NULL,
	"in":    IN,
}
