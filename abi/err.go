package abi

import (
	"github.com/ezrec/bfsys/translate"
)

var f = translate.From

// ErrArchUnknown is returned for an unrecognized architecture name.
type ErrArchUnknown string

func (err ErrArchUnknown) Error() string {
	return f("architecture '%v' unknown", string(err))
}

// ErrUnsupportedSyscall is returned when the syscall number cell holds an id
// that the active architecture does not define.
type ErrUnsupportedSyscall struct {
	Arch Arch
	Id   byte
}

func (err *ErrUnsupportedSyscall) Error() string {
	return f("syscall %d unsupported on %v", err.Id, err.Arch.String())
}

func (err *ErrUnsupportedSyscall) Is(target error) (ok bool) {
	_, ok = target.(*ErrUnsupportedSyscall)
	return
}
