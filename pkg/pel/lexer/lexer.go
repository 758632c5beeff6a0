package lexer

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Lexer scans a PEL condition string into tokens. It is single-use; create a
// new Lexer per condition.
type Lexer struct {
	src string
	pos int // current scan offset
}

// New creates a lexer over the given condition source.
func New(src string) *Lexer {
	return &Lexer{src: src}
}

// Next returns the next token. After the source is exhausted it returns EOF
// tokens forever. Lexical errors are returned as ILLEGAL tokens with the
// error text in Literal.
func (l *Lexer) Next() Token {
	l.skipSpace()

	start := l.pos
	if l.pos >= len(l.src) {
		return Token{Type: EOF, Offset: start}
	}

	c := l.src[l.pos]
	switch {
	case isIdentStart(rune(c)):
		return l.scanIdent()
	case c >= '0' && c <= '9':
		return l.scanNumber()
	case c == '\'' || c == '"':
		return l.scanString()
	}

	l.pos++
	switch c {
	case '(':
		return Token{Type: LPAREN, Literal: "(", Offset: start}
	case ')':
		return Token{Type: RPAREN, Literal: ")", Offset: start}
	case '[':
		return Token{Type: LBRACKET, Literal: "[", Offset: start}
	case ']':
		return Token{Type: RBRACKET, Literal: "]", Offset: start}
	case ',':
		return Token{Type: COMMA, Literal: ",", Offset: start}
	case '.':
		return Token{Type: DOT, Literal: ".", Offset: start}
	case '+':
		return Token{Type: PLUS, Literal: "+", Offset: start}
	case '-':
		return Token{Type: MINUS, Literal: "-", Offset: start}
	case '*':
		return Token{Type: STAR, Literal: "*", Offset: start}
	case '/':
		return Token{Type: SLASH, Literal: "/", Offset: start}
	case '|':
		if l.peek() == '|' {
			l.pos++
			return Token{Type: OR, Literal: "||", Offset: start}
		}
		return l.illegal(start, "expected '||'")
	case '&':
		if l.peek() == '&' {
			l.pos++
			return Token{Type: AND, Literal: "&&", Offset: start}
		}
		return l.illegal(start, "expected '&&'")
	case '=':
		if l.peek() == '=' {
			l.pos++
			return Token{Type: EQ, Literal: "==", Offset: start}
		}
		return l.illegal(start, "expected '==' (assignment is not supported)")
	case '!':
		if l.peek() == '=' {
			l.pos++
			return Token{Type: NE, Literal: "!=", Offset: start}
		}
		return Token{Type: NOT, Literal: "!", Offset: start}
	case '<':
		if l.peek() == '=' {
			l.pos++
			return Token{Type: LE, Literal: "<=", Offset: start}
		}
		return Token{Type: LT, Literal: "<", Offset: start}
	case '>':
		if l.peek() == '=' {
			l.pos++
			return Token{Type: GE, Literal: ">=", Offset: start}
		}
		return Token{Type: GT, Literal: ">", Offset: start}
	}

	return l.illegal(start, fmt.Sprintf("unexpected character %q", c))
}

// peek returns the byte at the current position without consuming it, or 0
// at end of source.
func (l *Lexer) peek() byte {
	if l.pos >= len(l.src) {
		return 0
	}
	return l.src[l.pos]
}

func (l *Lexer) skipSpace() {
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		if c != ' ' && c != '\t' && c != '\n' && c != '\r' {
			break
		}
		l.pos++
	}
}

func (l *Lexer) scanIdent() Token {
	start := l.pos
	for l.pos < len(l.src) {
		r, size := utf8.DecodeRuneInString(l.src[l.pos:])
		if !isIdentPart(r) {
			break
		}
		l.pos += size
	}
	lit := l.src[start:l.pos]
	if kw, ok := keywords[lit]; ok {
		return Token{Type: kw, Literal: lit, Offset: start}
	}
	return Token{Type: IDENT, Literal: lit, Offset: start}
}

func (l *Lexer) scanNumber() Token {
	start := l.pos
	seenDot := false
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		if c == '.' {
			// A second dot, or a dot followed by an identifier, belongs to
			// the surrounding expression (e.g. indexing into a list literal).
			if seenDot || l.pos+1 >= len(l.src) || l.src[l.pos+1] < '0' || l.src[l.pos+1] > '9' {
				break
			}
			seenDot = true
			l.pos++
			continue
		}
		if c < '0' || c > '9' {
			break
		}
		l.pos++
	}
	return Token{Type: NUMBER, Literal: l.src[start:l.pos], Offset: start}
}

func (l *Lexer) scanString() Token {
	start := l.pos
	quote := l.src[l.pos]
	l.pos++

	var sb strings.Builder
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch c {
		case quote:
			l.pos++
			return Token{Type: STRING, Literal: sb.String(), Offset: start}
		case '\\':
			l.pos++
			if l.pos >= len(l.src) {
				return l.illegal(start, "unterminated string literal")
			}
			esc := l.src[l.pos]
			switch esc {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case '\\', '\'', '"':
				sb.WriteByte(esc)
			default:
				return l.illegal(l.pos, fmt.Sprintf("unknown escape sequence '\\%c'", esc))
			}
			l.pos++
		default:
			sb.WriteByte(c)
			l.pos++
		}
	}
	return l.illegal(start, "unterminated string literal")
}

func (l *Lexer) illegal(offset int, msg string) Token {
	return Token{Type: ILLEGAL, Literal: msg, Offset: offset}
}

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
