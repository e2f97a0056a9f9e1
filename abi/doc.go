// Package abi defines the syscall calling convention of the tape machine.
//
// Cells 0 through 7 of the tape form the syscall block:
//
//	cell 0     return value (_syscall_result)
//	cells 1-6  arguments 0-5, in calling-convention order
//	cell 7     syscall number
//
// User memory starts at cell 8. The compiler, the interpreter and the
// reference evaluator all use the constants in this package; there is no
// other layout.
//
// A Descriptor maps the numeric syscall ids of one architecture (x86_64 or
// arm64) to named calls with typed arguments. A Table couples a Descriptor to
// a Host, marshalling tape cells into a real host syscall.
package abi
