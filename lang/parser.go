package lang

import (
	"io"
	"log"
	"maps"
)

// Parser is a recursive descent parser for the bfsys language.
type Parser struct {
	Verbose bool           // If set, verbosely logs the parser actions.
	Equate  map[string]int // Equates visible to $(...) expressions.

	predefine map[string]int
	tokens    []Token
	index     int
}

// Predefine defines a new equate, or redefines an existing one, for all
// subsequent calls to Parse.
func (p *Parser) Predefine(equ string, value int) {
	if p.predefine == nil {
		p.predefine = map[string]int{equ: value}
	} else {
		p.predefine[equ] = value
	}
}

// Parse reads an entire program.
func (p *Parser) Parse(input io.Reader) (prog *Block, err error) {
	src, err := io.ReadAll(input)
	if err != nil {
		return
	}

	return p.ParseString(string(src))
}

// ParseString parses an entire program held in a string.
func (p *Parser) ParseString(src string) (prog *Block, err error) {
	p.Equate = maps.Clone(p.predefine)
	if p.Equate == nil {
		p.Equate = map[string]int{}
	}

	p.tokens, err = NewLexer(src).Tokens()
	if err != nil {
		return
	}
	p.index = 0

	prog = &Block{Pos: Pos{Line: 1, Col: 1}}
	for p.peek().Type != TOKEN_EOF {
		var stmt Stmt
		stmt, err = p.statement()
		if err != nil {
			prog = nil
			return
		}
		prog.Stmts = append(prog.Stmts, stmt)
	}

	if p.Verbose {
		log.Printf("parse: %d statements", len(prog.Stmts))
	}

	return
}

func (p *Parser) peek() Token {
	return p.tokens[p.index]
}

func (p *Parser) next() (tok Token) {
	tok = p.tokens[p.index]
	if tok.Type != TOKEN_EOF {
		p.index++
	}
	return
}

func (p *Parser) fail(pos Pos, err error) error {
	return &ErrSyntax{Pos: pos, Err: err}
}

func (p *Parser) expect(tt TokenType) (tok Token, err error) {
	tok = p.next()
	if tok.Type != tt {
		err = p.fail(tok.Pos, &ErrTokenUnexpected{Expected: tt.String(), Found: tok.String()})
	}
	return
}

func (p *Parser) statement() (stmt Stmt, err error) {
	tok := p.peek()

	switch tok.Type {
	case TOKEN_IDENT:
		stmt, err = p.assign()
	case TOKEN_IF:
		stmt, err = p.ifStmt()
	case TOKEN_WHILE:
		stmt, err = p.whileStmt()
	case TOKEN_OUTPUT:
		stmt, err = p.output()
	case TOKEN_INPUT:
		stmt, err = p.input()
	case TOKEN_SYSCALL:
		var call *Syscall
		call, err = p.syscall()
		if err != nil {
			return
		}
		_, err = p.expect(TOKEN_SEMICOLON)
		stmt = call
	case TOKEN_LBRACE:
		stmt, err = p.block()
	default:
		err = p.fail(tok.Pos, ErrStatementInvalid)
	}

	if err != nil {
		stmt = nil
	}

	return
}

func (p *Parser) assign() (stmt *Assign, err error) {
	name := p.next()
	_, err = p.expect(TOKEN_ASSIGN)
	if err != nil {
		return
	}
	value, err := p.expr()
	if err != nil {
		return
	}
	_, err = p.expect(TOKEN_SEMICOLON)
	if err != nil {
		return
	}

	stmt = &Assign{Pos: name.Pos, Name: name.Text, Value: value}
	return
}

// condition parses a parenthesized expression.
func (p *Parser) condition() (cond Expr, err error) {
	_, err = p.expect(TOKEN_LPAREN)
	if err != nil {
		return
	}
	cond, err = p.expr()
	if err != nil {
		return
	}
	_, err = p.expect(TOKEN_RPAREN)
	return
}

func (p *Parser) ifStmt() (stmt *If, err error) {
	tok := p.next()

	cond, err := p.condition()
	if err != nil {
		return
	}
	then, err := p.block()
	if err != nil {
		return
	}

	stmt = &If{Pos: tok.Pos, Cond: cond, Then: then}

	if p.peek().Type != TOKEN_ELSE {
		return
	}
	p.next()

	switch p.peek().Type {
	case TOKEN_IF:
		stmt.Else, err = p.ifStmt()
	default:
		stmt.Else, err = p.block()
	}

	if err != nil {
		stmt = nil
	}

	return
}

func (p *Parser) whileStmt() (stmt *While, err error) {
	tok := p.next()

	cond, err := p.condition()
	if err != nil {
		return
	}
	body, err := p.block()
	if err != nil {
		return
	}

	stmt = &While{Pos: tok.Pos, Cond: cond, Body: body}
	return
}

func (p *Parser) output() (stmt *Output, err error) {
	tok := p.next()

	value, err := p.condition()
	if err != nil {
		return
	}
	_, err = p.expect(TOKEN_SEMICOLON)
	if err != nil {
		return
	}

	stmt = &Output{Pos: tok.Pos, Value: value}
	return
}

func (p *Parser) input() (stmt *Input, err error) {
	tok := p.next()

	_, err = p.expect(TOKEN_LPAREN)
	if err != nil {
		return
	}
	name, err := p.expect(TOKEN_IDENT)
	if err != nil {
		return
	}
	_, err = p.expect(TOKEN_RPAREN)
	if err != nil {
		return
	}
	_, err = p.expect(TOKEN_SEMICOLON)
	if err != nil {
		return
	}

	stmt = &Input{Pos: tok.Pos, Name: name.Text}
	return
}

func (p *Parser) block() (block *Block, err error) {
	tok, err := p.expect(TOKEN_LBRACE)
	if err != nil {
		return
	}

	block = &Block{Pos: tok.Pos}
	for p.peek().Type != TOKEN_RBRACE {
		if p.peek().Type == TOKEN_EOF {
			tok := p.peek()
			err = p.fail(tok.Pos, &ErrTokenUnexpected{Expected: TOKEN_RBRACE.String(), Found: tok.String()})
			block = nil
			return
		}
		var stmt Stmt
		stmt, err = p.statement()
		if err != nil {
			block = nil
			return
		}
		block.Stmts = append(block.Stmts, stmt)
	}
	p.next()

	return
}

func (p *Parser) syscall() (call *Syscall, err error) {
	tok := p.next()

	_, err = p.expect(TOKEN_LPAREN)
	if err != nil {
		return
	}

	id, err := p.expr()
	if err != nil {
		return
	}

	call = &Syscall{Pos: tok.Pos, Id: id}
	for p.peek().Type == TOKEN_COMMA {
		p.next()
		var arg Expr
		arg, err = p.expr()
		if err != nil {
			call = nil
			return
		}
		call.Args = append(call.Args, arg)
	}

	_, err = p.expect(TOKEN_RPAREN)
	if err != nil {
		call = nil
	}

	return
}

// expr parses equality, which binds looser than ordering.
func (p *Parser) expr() (expr Expr, err error) {
	expr, err = p.relational()
	if err != nil {
		return
	}

	for {
		tok := p.peek()
		if tok.Type != TOKEN_EQ && tok.Type != TOKEN_NE {
			return
		}
		p.next()

		var right Expr
		right, err = p.relational()
		if err != nil {
			expr = nil
			return
		}

		if tok.Type == TOKEN_EQ {
			expr = &Eq{Pos: tok.Pos, Left: expr, Right: right}
		} else {
			expr = &Ne{Pos: tok.Pos, Left: expr, Right: right}
		}
	}
}

// relational parses the orderings, which bind looser than addition.
func (p *Parser) relational() (expr Expr, err error) {
	expr, err = p.additive()
	if err != nil {
		return
	}

	for {
		tok := p.peek()
		switch tok.Type {
		case TOKEN_LT, TOKEN_LE, TOKEN_GT, TOKEN_GE:
		default:
			return
		}
		p.next()

		var right Expr
		right, err = p.additive()
		if err != nil {
			expr = nil
			return
		}

		switch tok.Type {
		case TOKEN_LT:
			expr = &Lt{Pos: tok.Pos, Left: expr, Right: right}
		case TOKEN_LE:
			expr = &Le{Pos: tok.Pos, Left: expr, Right: right}
		case TOKEN_GT:
			expr = &Gt{Pos: tok.Pos, Left: expr, Right: right}
		default:
			expr = &Ge{Pos: tok.Pos, Left: expr, Right: right}
		}
	}
}

func (p *Parser) additive() (expr Expr, err error) {
	expr, err = p.primary()
	if err != nil {
		return
	}

	for {
		tok := p.peek()
		if tok.Type != TOKEN_PLUS && tok.Type != TOKEN_MINUS {
			return
		}
		p.next()

		var right Expr
		right, err = p.primary()
		if err != nil {
			expr = nil
			return
		}

		if tok.Type == TOKEN_PLUS {
			expr = &Add{Pos: tok.Pos, Left: expr, Right: right}
		} else {
			expr = &Sub{Pos: tok.Pos, Left: expr, Right: right}
		}
	}
}

func (p *Parser) primary() (expr Expr, err error) {
	tok := p.peek()

	switch tok.Type {
	case TOKEN_NUMBER, TOKEN_CHAR, TOKEN_CONSTEXPR:
		var value byte
		value, err = p.byteConst()
		if err != nil {
			return
		}
		expr = &Number{Pos: tok.Pos, Value: value}
	case TOKEN_STRING:
		p.next()
		expr = &String{Pos: tok.Pos, Value: tok.Text}
	case TOKEN_LBRACKET:
		expr, err = p.bytes()
	case TOKEN_IDENT:
		p.next()
		expr = &Var{Pos: tok.Pos, Name: tok.Text}
	case TOKEN_SYSCALL:
		expr, err = p.syscall()
	case TOKEN_LPAREN:
		p.next()
		expr, err = p.expr()
		if err != nil {
			return
		}
		_, err = p.expect(TOKEN_RPAREN)
	default:
		err = p.fail(tok.Pos, ErrExpressionInvalid)
	}

	if err != nil {
		expr = nil
	}

	return
}

// intConst parses a number, character or $(...) as an unbounded integer.
func (p *Parser) intConst() (value int, pos Pos, err error) {
	tok := p.next()
	pos = tok.Pos

	switch tok.Type {
	case TOKEN_NUMBER, TOKEN_CHAR:
		value = tok.Value
	case TOKEN_CONSTEXPR:
		p.Equate["LINENO"] = tok.Line
		value, err = p.constEval(tok.Text)
		if err != nil {
			err = p.fail(tok.Pos, &ErrConstExpr{Expr: tok.Text, Err: err})
		}
	default:
		err = p.fail(tok.Pos, ErrConstInvalid)
	}

	return
}

// byteConst parses a constant that must fit a cell.
func (p *Parser) byteConst() (value byte, err error) {
	v, pos, err := p.intConst()
	if err != nil {
		return
	}
	if v < 0 || v > 255 {
		err = p.fail(pos, ErrNumberRange)
		return
	}
	value = byte(v)
	return
}

// Longest repeat of a byte array element.
const REPEAT_MAX = 0xffff

func (p *Parser) bytes() (expr *Bytes, err error) {
	tok := p.next()

	expr = &Bytes{Pos: tok.Pos, Value: []byte{}}
	if p.peek().Type == TOKEN_RBRACKET {
		p.next()
		return
	}

	for {
		var value byte
		value, err = p.byteConst()
		if err != nil {
			expr = nil
			return
		}

		count := 1
		if p.peek().Type == TOKEN_SEMICOLON {
			p.next()
			var pos Pos
			count, pos, err = p.intConst()
			if err != nil {
				expr = nil
				return
			}
			if count < 0 || count > REPEAT_MAX {
				err = p.fail(pos, ErrCountRange)
				expr = nil
				return
			}
		}

		for range count {
			expr.Value = append(expr.Value, value)
		}

		if p.peek().Type != TOKEN_COMMA {
			break
		}
		p.next()
	}

	_, err = p.expect(TOKEN_RBRACKET)
	if err != nil {
		expr = nil
	}

	return
}
