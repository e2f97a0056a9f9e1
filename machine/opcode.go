package machine

import (
	"strings"
)

// Operation characters.
const (
	OP_RIGHT = '>'
	OP_LEFT  = '<'
	OP_INC   = '+'
	OP_DEC   = '-'
	OP_OPEN  = '['
	OP_CLOSE = ']'
	OP_PUTC  = '.'
	OP_GETC  = ','
)

// OPS is the set of all operation characters. Any other character in
// program text is ignored.
const OPS = "><+-[].,"

// IsOp reports whether a character is an operation.
func IsOp(ch byte) bool {
	return strings.IndexByte(OPS, ch) >= 0
}

// Filter removes all non-operation characters from text.
func Filter(text string) string {
	var ops strings.Builder
	for n := range len(text) {
		if IsOp(text[n]) {
			ops.WriteByte(text[n])
		}
	}
	return ops.String()
}

// Mode selects the meaning of the `.` operation.
type Mode int

//go:generate go tool stringer -linecomment -type=Mode
const (
	MODE_PLAIN   = Mode(0) // plain
	MODE_SYSCALL = Mode(1) // syscall
)

// State is the execution state of a machine.
type State int

//go:generate go tool stringer -linecomment -type=State
const (
	STATE_RUNNING = State(0) // running
	STATE_HALTED  = State(1) // halted
	STATE_ERROR   = State(2) // error
)
