package compiler

import (
	"fmt"
	"strings"

	"github.com/ezrec/bfsys/abi"
	"github.com/ezrec/bfsys/machine"
)

// HEADER_PREFIX starts the annotation line of a syscall mode program.
const HEADER_PREFIX = "#!bfa "

// Op is a run of operations emitted for one source construct.
type Op struct {
	LineNo  int    // Source line.
	Ip      int    // Offset of the first operation in the stream.
	Code    string // Operation characters.
	Comment string // Description of the construct.
}

// Program is a compiled operation stream.
type Program struct {
	Arch   abi.Arch
	Mode   machine.Mode
	Ops    []Op
	Layout *Layout
}

// Debug locates the op that contains an operation index.
type Debug struct {
	*Op
	Index int
}

// Debug returns the op containing operation pc. The Op is nil if pc is out
// of range.
func (prog *Program) Debug(pc int) (dbg Debug) {
	for n, op := range prog.Ops {
		if pc >= op.Ip && pc < op.Ip+len(op.Code) {
			dbg = Debug{
				Op:    &prog.Ops[n],
				Index: pc - op.Ip,
			}
			break
		}
	}

	return
}

// Len returns the number of operations.
func (prog *Program) Len() (count int) {
	for _, op := range prog.Ops {
		count += len(op.Code)
	}
	return
}

// Code returns the bare operation stream.
func (prog *Program) Code() string {
	var code strings.Builder
	for _, op := range prog.Ops {
		code.WriteString(op.Code)
	}
	return code.String()
}

// Header returns the annotation line for the program, or the empty string
// in plain mode.
func (prog *Program) Header() string {
	if prog.Mode != machine.MODE_SYSCALL {
		return ""
	}
	return HEADER_PREFIX + prog.Arch.String() + "\n"
}

// Text returns the program as instruction text.
func (prog *Program) Text() string {
	return prog.Header() + prog.Code() + "\n"
}

// Comments must never contain operation characters.
var sanitizer = strings.NewReplacer(
	">", "gt",
	"<", "lt",
	"+", "add",
	"-", "sub",
	"[", "(",
	"]", ")",
	".", ":",
	",", ";",
)

// Listing returns the program with one op per line, each followed by its
// source line and comment. The listing runs the same as Text.
func (prog *Program) Listing() string {
	var text strings.Builder

	text.WriteString(prog.Header())
	for _, op := range prog.Ops {
		comment := sanitizer.Replace(fmt.Sprintf("%d: %s", op.LineNo, op.Comment))
		fmt.Fprintf(&text, "%-32s # %s\n", op.Code, comment)
	}

	return text.String()
}

// ParseHeader reads the annotation line of instruction text. A text without
// a header is plain mode.
func ParseHeader(text string) (mode machine.Mode, arch abi.Arch, err error) {
	arch, _ = abi.HostArch()
	mode = machine.MODE_PLAIN

	line, _, _ := strings.Cut(text, "\n")
	name, ok := strings.CutPrefix(strings.TrimSpace(line), strings.TrimSpace(HEADER_PREFIX))
	if !ok {
		return
	}

	arch, err = abi.ParseArch(strings.TrimSpace(name))
	if err != nil {
		return
	}
	mode = machine.MODE_SYSCALL

	return
}
