package parser

import (
	"fmt"
	"strconv"

	"parapet-hq/parapet/pkg/pel/ast"
	pelerrors "parapet-hq/parapet/pkg/pel/errors"
	"parapet-hq/parapet/pkg/pel/lexer"
)

// builtins maps builtin function names to their required argument count.
var builtins = map[string]int{
	"now":       0,
	"timestamp": 1,
	"duration":  1,
}

// stringMethods maps string-method names to their required argument count.
var stringMethods = map[string]int{
	"contains":   1,
	"startsWith": 1,
	"endsWith":   1,
}

// comprehensions is the set of collection-predicate method names.
var comprehensions = map[string]bool{
	"exists": true,
	"all":    true,
}

// Parse compiles a condition string into an AST. The returned tree is
// immutable; errors are *errors.Error (or *errors.ErrorList from the static
// checking pass) carrying the failure position inside src.
func Parse(src string) (ast.Node, error) {
	p := &parser{src: src, lex: lexer.New(src)}
	p.next()

	node, err := p.parseExpr(1)
	if err != nil {
		return nil, err
	}
	if p.tok.Type == lexer.ILLEGAL {
		return nil, p.errorf(p.tok.Offset, "%s", p.tok.Literal)
	}
	if p.tok.Type != lexer.EOF {
		return nil, p.errorf(p.tok.Offset, "unexpected %s after expression", p.tok.Type)
	}

	if err := check(node, src); err != nil {
		return nil, err
	}
	return node, nil
}

type parser struct {
	src string
	lex *lexer.Lexer
	tok lexer.Token
}

func (p *parser) next() {
	p.tok = p.lex.Next()
}

func (p *parser) errorf(offset int, format string, args ...interface{}) error {
	return &pelerrors.Error{
		Type:    pelerrors.ErrorTypeSyntax,
		Message: fmt.Sprintf(format, args...),
		Expr:    p.src,
		Offset:  offset,
	}
}

func (p *parser) expect(t lexer.TokenType) (lexer.Token, error) {
	if p.tok.Type != t {
		return lexer.Token{}, p.errorf(p.tok.Offset, "expected %s, found %s", t, p.describe(p.tok))
	}
	tok := p.tok
	p.next()
	return tok, nil
}

func (p *parser) describe(tok lexer.Token) string {
	switch tok.Type {
	case lexer.EOF:
		return "end of expression"
	case lexer.IDENT, lexer.NUMBER:
		return fmt.Sprintf("%q", tok.Literal)
	case lexer.STRING:
		return fmt.Sprintf("string %q", tok.Literal)
	default:
		return tok.Type.String()
	}
}

// binaryPrec returns the binding power of an infix operator token, or 0 when
// the token is not an infix operator.
func binaryPrec(t lexer.TokenType) int {
	switch t {
	case lexer.OR:
		return 1
	case lexer.AND:
		return 2
	case lexer.EQ, lexer.NE, lexer.LT, lexer.GT, lexer.LE, lexer.GE, lexer.IN:
		return 3
	case lexer.PLUS, lexer.MINUS:
		return 4
	case lexer.STAR, lexer.SLASH:
		return 5
	default:
		return 0
	}
}

func binaryOp(t lexer.TokenType) ast.Op {
	switch t {
	case lexer.OR:
		return ast.OpOr
	case lexer.AND:
		return ast.OpAnd
	case lexer.EQ:
		return ast.OpEqual
	case lexer.NE:
		return ast.OpNotEqual
	case lexer.LT:
		return ast.OpLessThan
	case lexer.GT:
		return ast.OpGreaterThan
	case lexer.LE:
		return ast.OpLessEqual
	case lexer.GE:
		return ast.OpGreaterEqual
	case lexer.IN:
		return ast.OpIn
	case lexer.PLUS:
		return ast.OpAdd
	case lexer.MINUS:
		return ast.OpSub
	case lexer.STAR:
		return ast.OpMul
	default:
		return ast.OpDiv
	}
}

// parseExpr parses with precedence climbing; minPrec is the lowest operator
// binding power this call may consume.
func (p *parser) parseExpr(minPrec int) (ast.Node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}

	for {
		prec := binaryPrec(p.tok.Type)
		if prec == 0 || prec < minPrec {
			return left, nil
		}
		opTok := p.tok
		p.next()

		right, err := p.parseExpr(prec + 1)
		if err != nil {
			return nil, err
		}
		left = &ast.Binary{
			Op:     binaryOp(opTok.Type),
			X:      left,
			Y:      right,
			Offset: opTok.Offset,
		}
	}
}

func (p *parser) parseUnary() (ast.Node, error) {
	switch p.tok.Type {
	case lexer.NOT:
		tok := p.tok
		p.next()
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.Unary{Op: ast.OpNot, X: x, Offset: tok.Offset}, nil
	case lexer.MINUS:
		tok := p.tok
		p.next()
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.Unary{Op: ast.OpNeg, X: x, Offset: tok.Offset}, nil
	default:
		return p.parsePostfix()
	}
}

// parsePostfix parses a primary expression followed by any number of field
// selections, method calls, and subscripts.
func (p *parser) parsePostfix() (ast.Node, error) {
	x, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}

	for {
		switch p.tok.Type {
		case lexer.DOT:
			dot := p.tok
			p.next()
			name, err := p.expect(lexer.IDENT)
			if err != nil {
				return nil, err
			}
			if p.tok.Type == lexer.LPAREN {
				x, err = p.parseMethod(x, name, dot.Offset)
				if err != nil {
					return nil, err
				}
				continue
			}
			x = &ast.Select{X: x, Name: name.Literal, Offset: dot.Offset}

		case lexer.LBRACKET:
			lb := p.tok
			p.next()
			key, err := p.parseExpr(1)
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(lexer.RBRACKET); err != nil {
				return nil, err
			}
			x = &ast.Index{X: x, Key: key, Offset: lb.Offset}

		default:
			return x, nil
		}
	}
}

// parseMethod parses a method-style call after "recv.name" when the next
// token is '('. Collection predicates get their own node with a bound
// iteration variable.
func (p *parser) parseMethod(recv ast.Node, name lexer.Token, offset int) (ast.Node, error) {
	if comprehensions[name.Literal] {
		return p.parseComprehension(recv, name, offset)
	}

	wantArgs, known := stringMethods[name.Literal]
	if !known {
		return nil, &pelerrors.Error{
			Type:       pelerrors.ErrorTypeArgument,
			Message:    fmt.Sprintf("unknown method %q", name.Literal),
			Expr:       p.src,
			Offset:     name.Offset,
			Suggestion: "supported methods: contains, startsWith, endsWith, exists, all",
		}
	}

	args, err := p.parseArgs()
	if err != nil {
		return nil, err
	}
	if len(args) != wantArgs {
		return nil, &pelerrors.Error{
			Type:    pelerrors.ErrorTypeArgument,
			Message: fmt.Sprintf("%s expects %d argument(s), got %d", name.Literal, wantArgs, len(args)),
			Expr:    p.src,
			Offset:  name.Offset,
		}
	}
	return &ast.Method{X: recv, Name: name.Literal, Args: args, Offset: offset}, nil
}

// parseComprehension parses x.exists(v, pred) / x.all(v, pred). The first
// argument must be a plain identifier naming the iteration variable.
func (p *parser) parseComprehension(recv ast.Node, name lexer.Token, offset int) (ast.Node, error) {
	if _, err := p.expect(lexer.LPAREN); err != nil {
		return nil, err
	}
	varTok, err := p.expect(lexer.IDENT)
	if err != nil {
		return nil, &pelerrors.Error{
			Type:       pelerrors.ErrorTypeArgument,
			Message:    fmt.Sprintf("%s requires an iteration variable as its first argument", name.Literal),
			Expr:       p.src,
			Offset:     p.tok.Offset,
			Suggestion: fmt.Sprintf("write e.g. items.%s(i, i.amount > 10)", name.Literal),
		}
	}
	if _, err := p.expect(lexer.COMMA); err != nil {
		return nil, err
	}
	pred, err := p.parseExpr(1)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.RPAREN); err != nil {
		return nil, err
	}
	return &ast.Comprehension{
		X:      recv,
		Name:   name.Literal,
		Var:    varTok.Literal,
		Pred:   pred,
		Offset: offset,
	}, nil
}

// parseArgs parses a parenthesized, comma-separated argument list, consuming
// the opening and closing parens.
func (p *parser) parseArgs() ([]ast.Node, error) {
	if _, err := p.expect(lexer.LPAREN); err != nil {
		return nil, err
	}
	var args []ast.Node
	if p.tok.Type == lexer.RPAREN {
		p.next()
		return args, nil
	}
	for {
		arg, err := p.parseExpr(1)
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		if p.tok.Type == lexer.COMMA {
			p.next()
			continue
		}
		break
	}
	if _, err := p.expect(lexer.RPAREN); err != nil {
		return nil, err
	}
	return args, nil
}

func (p *parser) parsePrimary() (ast.Node, error) {
	tok := p.tok
	switch tok.Type {
	case lexer.NUMBER:
		p.next()
		n, err := strconv.ParseFloat(tok.Literal, 64)
		if err != nil {
			return nil, p.errorf(tok.Offset, "invalid number %q", tok.Literal)
		}
		return &ast.Literal{Val: ast.Number(n), Offset: tok.Offset}, nil

	case lexer.STRING:
		p.next()
		return &ast.Literal{Val: ast.String(tok.Literal), Offset: tok.Offset}, nil

	case lexer.TRUE:
		p.next()
		return &ast.Literal{Val: ast.Bool(true), Offset: tok.Offset}, nil

	case lexer.FALSE:
		p.next()
		return &ast.Literal{Val: ast.Bool(false), Offset: tok.Offset}, nil

	case lexer.NULL:
		p.next()
		return &ast.Literal{Val: ast.Null(), Offset: tok.Offset}, nil

	case lexer.IDENT:
		p.next()
		if p.tok.Type == lexer.LPAREN {
			return p.parseCall(tok)
		}
		return &ast.Ident{Name: tok.Literal, Offset: tok.Offset}, nil

	case lexer.LPAREN:
		p.next()
		x, err := p.parseExpr(1)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.RPAREN); err != nil {
			return nil, err
		}
		return x, nil

	case lexer.LBRACKET:
		return p.parseListLit()

	case lexer.ILLEGAL:
		return nil, p.errorf(tok.Offset, "%s", tok.Literal)

	default:
		return nil, p.errorf(tok.Offset, "expected expression, found %s", p.describe(tok))
	}
}

// parseCall parses a builtin function call; the name token has already been
// consumed and the current token is '('.
func (p *parser) parseCall(name lexer.Token) (ast.Node, error) {
	wantArgs, known := builtins[name.Literal]
	if !known {
		return nil, &pelerrors.Error{
			Type:       pelerrors.ErrorTypeArgument,
			Message:    fmt.Sprintf("unknown function %q", name.Literal),
			Expr:       p.src,
			Offset:     name.Offset,
			Suggestion: "supported functions: now, timestamp, duration",
		}
	}
	args, err := p.parseArgs()
	if err != nil {
		return nil, err
	}
	if len(args) != wantArgs {
		return nil, &pelerrors.Error{
			Type:    pelerrors.ErrorTypeArgument,
			Message: fmt.Sprintf("%s expects %d argument(s), got %d", name.Literal, wantArgs, len(args)),
			Expr:    p.src,
			Offset:  name.Offset,
		}
	}
	return &ast.Call{Fn: name.Literal, Args: args, Offset: name.Offset}, nil
}

func (p *parser) parseListLit() (ast.Node, error) {
	lb := p.tok
	p.next()

	var elems []ast.Node
	if p.tok.Type == lexer.RBRACKET {
		p.next()
		return &ast.ListLit{Elems: elems, Offset: lb.Offset}, nil
	}
	for {
		e, err := p.parseExpr(1)
		if err != nil {
			return nil, err
		}
		elems = append(elems, e)
		if p.tok.Type == lexer.COMMA {
			p.next()
			continue
		}
		break
	}
	if _, err := p.expect(lexer.RBRACKET); err != nil {
		return nil, err
	}
	return &ast.ListLit{Elems: elems, Offset: lb.Offset}, nil
}
