package lang

import (
	"errors"

	"github.com/ezrec/bfsys/translate"
)

var f = translate.From

var (
	// Lexical errors
	ErrCharacterInvalid      = errors.New(f("invalid character"))
	ErrCharInvalid           = errors.New(f("invalid character literal"))
	ErrStringUnterminated    = errors.New(f("unterminated string"))
	ErrEscapeInvalid         = errors.New(f("invalid escape"))
	ErrConstExprUnterminated = errors.New(f("unterminated $( expression"))
	ErrNumberInvalid         = errors.New(f("invalid number"))
	ErrNumberRange           = errors.New(f("number not in 0..255"))
	ErrCountRange            = errors.New(f("repeat count out of range"))

	// Grammar errors
	ErrStatementInvalid  = errors.New(f("statement expected"))
	ErrExpressionInvalid = errors.New(f("expression expected"))
	ErrConstInvalid      = errors.New(f("constant expected"))
)

// ErrSyntax is a parse failure at a source position.
type ErrSyntax struct {
	Pos Pos
	Err error
}

func (err *ErrSyntax) Error() string {
	return f("%v: %v", err.Pos.String(), err.Err)
}

func (err *ErrSyntax) Unwrap() error {
	return err.Err
}

// ErrTokenUnexpected is raised when the parser finds a token it cannot use.
type ErrTokenUnexpected struct {
	Expected string
	Found    string
}

func (err *ErrTokenUnexpected) Error() string {
	return f("expected %v, found %v", err.Expected, err.Found)
}

func (err *ErrTokenUnexpected) Is(target error) (ok bool) {
	_, ok = target.(*ErrTokenUnexpected)
	return
}

// ErrConstExpr is a `$(...)` expression that failed to evaluate to a byte.
type ErrConstExpr struct {
	Expr string
	Err  error
}

func (err *ErrConstExpr) Error() string {
	return f("$(%v): %v", err.Expr, err.Err)
}

func (err *ErrConstExpr) Unwrap() error {
	return err.Err
}

func (err *ErrConstExpr) Is(target error) (ok bool) {
	_, ok = target.(*ErrConstExpr)
	return
}
