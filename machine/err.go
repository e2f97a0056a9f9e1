package machine

import (
	"errors"

	"github.com/ezrec/bfsys/translate"
)

var f = translate.From

var (
	ErrTickLimit          = errors.New(f("tick limit reached"))
	ErrSyscallUnavailable = errors.New(f("no syscall dispatcher"))
	ErrNoProgram          = errors.New(f("no program loaded"))
)

// ErrBracketMismatch is an unbalanced `[` or `]` at an operation index.
type ErrBracketMismatch struct {
	Pc int
}

func (err *ErrBracketMismatch) Error() string {
	return f("unbalanced bracket at op %d", err.Pc)
}

func (err *ErrBracketMismatch) Is(target error) (ok bool) {
	_, ok = target.(*ErrBracketMismatch)
	return
}

// ErrOutOfBounds is a pointer move outside of the tape.
type ErrOutOfBounds struct {
	Pc  int
	Ptr int
}

func (err *ErrOutOfBounds) Error() string {
	return f("op %d: pointer %d out of bounds", err.Pc, err.Ptr)
}

func (err *ErrOutOfBounds) Is(target error) (ok bool) {
	_, ok = target.(*ErrOutOfBounds)
	return
}
