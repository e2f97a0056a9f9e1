package compiler

import (
	"errors"

	"github.com/ezrec/bfsys/lang"
	"github.com/ezrec/bfsys/translate"
)

var f = translate.From

var (
	ErrConfigInvalid    = errors.New(f("invalid memory layout"))
	ErrOutOfMemory      = errors.New(f("out of memory"))
	ErrVariableUnknown  = errors.New(f("unknown variable"))
	ErrVariableReserved = errors.New(f("reserved variable"))
	ErrArgumentCount    = errors.New(f("too many syscall arguments"))
	ErrModeSyscall      = errors.New(f("syscall in plain mode"))
)

// ErrCompile is a compile failure at a source position. Name is the
// variable or construct involved.
type ErrCompile struct {
	Pos  lang.Pos
	Name string
	Err  error
}

func (err *ErrCompile) Error() string {
	return f("%v: %v: %v", err.Pos.String(), err.Name, err.Err)
}

func (err *ErrCompile) Unwrap() error {
	return err.Err
}
