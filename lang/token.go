package lang

import (
	"fmt"
)

// Pos is a 1-based source position.
type Pos struct {
	Line int
	Col  int
}

func (pos Pos) String() string {
	return fmt.Sprintf("%d:%d", pos.Line, pos.Col)
}

// Position returns the position itself, so that every node embedding a Pos
// satisfies Node.
func (pos Pos) Position() Pos {
	return pos
}

// TokenType is the lexical class of a token.
type TokenType int

const (
	TOKEN_EOF TokenType = iota
	TOKEN_IDENT
	TOKEN_NUMBER
	TOKEN_CHAR
	TOKEN_STRING
	TOKEN_CONSTEXPR

	// Keywords
	TOKEN_IF
	TOKEN_ELSE
	TOKEN_WHILE
	TOKEN_SYSCALL
	TOKEN_OUTPUT
	TOKEN_INPUT

	// Punctuation
	TOKEN_LBRACE
	TOKEN_RBRACE
	TOKEN_LPAREN
	TOKEN_RPAREN
	TOKEN_LBRACKET
	TOKEN_RBRACKET
	TOKEN_SEMICOLON
	TOKEN_COMMA
	TOKEN_ASSIGN
	TOKEN_PLUS
	TOKEN_MINUS
	TOKEN_EQ
	TOKEN_NE
	TOKEN_LT
	TOKEN_LE
	TOKEN_GT
	TOKEN_GE
)

var _token_names = map[TokenType]string{
	TOKEN_EOF:       "end of file",
	TOKEN_IDENT:     "identifier",
	TOKEN_NUMBER:    "number",
	TOKEN_CHAR:      "character",
	TOKEN_STRING:    "string",
	TOKEN_CONSTEXPR: "$(...)",
	TOKEN_IF:        "'if'",
	TOKEN_ELSE:      "'else'",
	TOKEN_WHILE:     "'while'",
	TOKEN_SYSCALL:   "'syscall'",
	TOKEN_OUTPUT:    "'output'",
	TOKEN_INPUT:     "'input'",
	TOKEN_LBRACE:    "'{'",
	TOKEN_RBRACE:    "'}'",
	TOKEN_LPAREN:    "'('",
	TOKEN_RPAREN:    "')'",
	TOKEN_LBRACKET:  "'['",
	TOKEN_RBRACKET:  "']'",
	TOKEN_SEMICOLON: "';'",
	TOKEN_COMMA:     "','",
	TOKEN_ASSIGN:    "'='",
	TOKEN_PLUS:      "'+'",
	TOKEN_MINUS:     "'-'",
	TOKEN_EQ:        "'=='",
	TOKEN_NE:        "'!='",
	TOKEN_LT:        "'<'",
	TOKEN_LE:        "'<='",
	TOKEN_GT:        "'>'",
	TOKEN_GE:        "'>='",
}

func (tt TokenType) String() string {
	name, ok := _token_names[tt]
	if !ok {
		return fmt.Sprintf("TokenType(%d)", int(tt))
	}
	return name
}

var _keywords = map[string]TokenType{
	"if":      TOKEN_IF,
	"else":    TOKEN_ELSE,
	"while":   TOKEN_WHILE,
	"syscall": TOKEN_SYSCALL,
	"output":  TOKEN_OUTPUT,
	"input":   TOKEN_INPUT,
}

// Token is a lexical unit.
//
// For TOKEN_NUMBER and TOKEN_CHAR, Value holds the parsed value. For
// TOKEN_STRING, Text holds the decoded bytes. For TOKEN_CONSTEXPR, Text holds
// the expression between the parentheses.
type Token struct {
	Type  TokenType
	Text  string
	Value int
	Pos
}

func (tok Token) String() string {
	switch tok.Type {
	case TOKEN_IDENT:
		return fmt.Sprintf("identifier '%v'", tok.Text)
	case TOKEN_NUMBER:
		return fmt.Sprintf("number %v", tok.Text)
	case TOKEN_STRING:
		return fmt.Sprintf("string %q", tok.Text)
	case TOKEN_CONSTEXPR:
		return fmt.Sprintf("$(%v)", tok.Text)
	}
	return tok.Type.String()
}
