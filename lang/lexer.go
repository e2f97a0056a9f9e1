package lang

import (
	"strconv"
	"strings"
)

// Lexer splits source text into tokens.
type Lexer struct {
	src  string
	off  int
	line int
	col  int
}

// NewLexer returns a lexer positioned at the start of src.
func NewLexer(src string) *Lexer {
	return &Lexer{src: src, line: 1, col: 1}
}

// Tokens lexes the entire source. The final token is always TOKEN_EOF.
func (lex *Lexer) Tokens() (tokens []Token, err error) {
	for {
		var tok Token
		tok, err = lex.Next()
		if err != nil {
			return
		}
		tokens = append(tokens, tok)
		if tok.Type == TOKEN_EOF {
			return
		}
	}
}

func (lex *Lexer) peek(n int) byte {
	if lex.off+n >= len(lex.src) {
		return 0
	}
	return lex.src[lex.off+n]
}

func (lex *Lexer) advance() (ch byte) {
	ch = lex.src[lex.off]
	lex.off++
	if ch == '\n' {
		lex.line++
		lex.col = 1
	} else {
		lex.col++
	}
	return
}

func (lex *Lexer) eof() bool {
	return lex.off >= len(lex.src)
}

func (lex *Lexer) pos() Pos {
	return Pos{Line: lex.line, Col: lex.col}
}

func (lex *Lexer) fail(pos Pos, err error) error {
	return &ErrSyntax{Pos: pos, Err: err}
}

func isLetter(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch == '_'
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

// skip passes over whitespace and comments.
func (lex *Lexer) skip() {
	for !lex.eof() {
		ch := lex.peek(0)
		switch {
		case ch == ' ' || ch == '\t' || ch == '\r' || ch == '\n':
			lex.advance()
		case ch == '/' && lex.peek(1) == '/':
			for !lex.eof() && lex.peek(0) != '\n' {
				lex.advance()
			}
		default:
			return
		}
	}
}

var _punct = map[byte]TokenType{
	'{': TOKEN_LBRACE,
	'}': TOKEN_RBRACE,
	'(': TOKEN_LPAREN,
	')': TOKEN_RPAREN,
	'[': TOKEN_LBRACKET,
	']': TOKEN_RBRACKET,
	';': TOKEN_SEMICOLON,
	',': TOKEN_COMMA,
	'+': TOKEN_PLUS,
	'-': TOKEN_MINUS,
}

// Next returns the next token.
func (lex *Lexer) Next() (tok Token, err error) {
	lex.skip()

	tok.Pos = lex.pos()
	if lex.eof() {
		tok.Type = TOKEN_EOF
		return
	}

	start := lex.off
	ch := lex.peek(0)

	switch {
	case isLetter(ch):
		for !lex.eof() && (isLetter(lex.peek(0)) || isDigit(lex.peek(0))) {
			lex.advance()
		}
		tok.Text = lex.src[start:lex.off]
		keyword, ok := _keywords[tok.Text]
		if ok {
			tok.Type = keyword
		} else {
			tok.Type = TOKEN_IDENT
		}
	case isDigit(ch):
		for !lex.eof() && (isLetter(lex.peek(0)) || isDigit(lex.peek(0))) {
			lex.advance()
		}
		tok.Type = TOKEN_NUMBER
		tok.Text = lex.src[start:lex.off]
		var v64 int64
		v64, err = strconv.ParseInt(tok.Text, 0, 32)
		if err != nil {
			err = lex.fail(tok.Pos, ErrNumberInvalid)
			return
		}
		tok.Value = int(v64)
	case ch == '\'':
		tok.Type = TOKEN_CHAR
		err = lex.char(&tok)
	case ch == '"':
		tok.Type = TOKEN_STRING
		err = lex.quoted(&tok)
	case ch == '$' && lex.peek(1) == '(':
		tok.Type = TOKEN_CONSTEXPR
		err = lex.constExpr(&tok)
	case ch == '=':
		lex.advance()
		tok.Type = TOKEN_ASSIGN
		if lex.peek(0) == '=' {
			lex.advance()
			tok.Type = TOKEN_EQ
		}
		tok.Text = lex.src[start:lex.off]
	case ch == '<' || ch == '>':
		lex.advance()
		equal := lex.peek(0) == '='
		if equal {
			lex.advance()
		}
		switch {
		case ch == '<' && equal:
			tok.Type = TOKEN_LE
		case ch == '<':
			tok.Type = TOKEN_LT
		case equal:
			tok.Type = TOKEN_GE
		default:
			tok.Type = TOKEN_GT
		}
		tok.Text = lex.src[start:lex.off]
	case ch == '!' && lex.peek(1) == '=':
		lex.advance()
		lex.advance()
		tok.Type = TOKEN_NE
		tok.Text = "!="
	default:
		punct, ok := _punct[ch]
		if !ok {
			err = lex.fail(tok.Pos, ErrCharacterInvalid)
			return
		}
		lex.advance()
		tok.Type = punct
		tok.Text = string(ch)
	}

	return
}

// escape decodes one escape sequence; the leading backslash has been consumed.
func (lex *Lexer) escape() (value byte, err error) {
	pos := lex.pos()
	if lex.eof() {
		err = lex.fail(pos, ErrEscapeInvalid)
		return
	}

	switch ch := lex.advance(); ch {
	case 'n':
		value = '\n'
	case 'r':
		value = '\r'
	case 't':
		value = '\t'
	case '0':
		value = 0
	case '\\', '\'', '"':
		value = ch
	case 'x':
		if lex.off+2 > len(lex.src) {
			err = lex.fail(pos, ErrEscapeInvalid)
			return
		}
		var v64 uint64
		v64, err = strconv.ParseUint(lex.src[lex.off:lex.off+2], 16, 8)
		if err != nil {
			err = lex.fail(pos, ErrEscapeInvalid)
			return
		}
		lex.advance()
		lex.advance()
		value = byte(v64)
	default:
		err = lex.fail(pos, ErrEscapeInvalid)
	}

	return
}

func (lex *Lexer) char(tok *Token) (err error) {
	start := lex.off
	lex.advance()

	if lex.eof() || lex.peek(0) == '\'' || lex.peek(0) == '\n' {
		return lex.fail(tok.Pos, ErrCharInvalid)
	}

	var value byte
	if lex.peek(0) == '\\' {
		lex.advance()
		value, err = lex.escape()
		if err != nil {
			return
		}
	} else {
		value = lex.advance()
	}

	if lex.eof() || lex.peek(0) != '\'' {
		return lex.fail(tok.Pos, ErrCharInvalid)
	}
	lex.advance()

	tok.Text = lex.src[start:lex.off]
	tok.Value = int(value)
	return
}

func (lex *Lexer) quoted(tok *Token) (err error) {
	lex.advance()

	var text strings.Builder
	for {
		if lex.eof() || lex.peek(0) == '\n' {
			return lex.fail(tok.Pos, ErrStringUnterminated)
		}
		ch := lex.advance()
		switch ch {
		case '"':
			tok.Text = text.String()
			return
		case '\\':
			var value byte
			value, err = lex.escape()
			if err != nil {
				return
			}
			text.WriteByte(value)
		default:
			text.WriteByte(ch)
		}
	}
}

// constExpr collects the text of a `$(...)`, balancing parentheses and
// skipping over quoted Starlark strings.
func (lex *Lexer) constExpr(tok *Token) (err error) {
	lex.advance()
	lex.advance()

	start := lex.off
	depth := 1
	var quote byte
	for {
		if lex.eof() {
			return lex.fail(tok.Pos, ErrConstExprUnterminated)
		}
		ch := lex.peek(0)
		switch {
		case quote != 0:
			if ch == '\\' {
				lex.advance()
				if lex.eof() {
					return lex.fail(tok.Pos, ErrConstExprUnterminated)
				}
			} else if ch == quote {
				quote = 0
			}
		case ch == '\'' || ch == '"':
			quote = ch
		case ch == '(':
			depth++
		case ch == ')':
			depth--
			if depth == 0 {
				tok.Text = strings.TrimSpace(lex.src[start:lex.off])
				lex.advance()
				return
			}
		}
		lex.advance()
	}
}
