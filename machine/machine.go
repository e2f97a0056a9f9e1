package machine

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/ezrec/bfsys/abi"
	"github.com/ezrec/bfsys/internal"
	"github.com/ezrec/bfsys/io"
)

// Syscaller carries out a syscall trigger. *abi.Table is the usual
// implementation.
type Syscaller interface {
	Dispatch(id byte, args [abi.ARG_COUNT]byte, cells []byte) (result int64, err error)
}

var _ Syscaller = (*abi.Table)(nil)

// Machine is the simulation context of a tape machine.
type Machine struct {
	Verbose bool // Set to enable verbose logging.

	Cells []byte // Tape cells.
	Ptr   int    // Data pointer.
	Pc    int    // Index of the next operation.
	Mode  Mode   // Meaning of the `.` operation.
	State State  // Execution state.

	Ticks  int   // Operations executed since reset.
	Limit  int   // If non-zero, maximum operations before ErrTickLimit.
	Result int64 // Full signed result of the last syscall trigger.

	Console io.Console // Console for plain mode output and all input.
	System  Syscaller  // Dispatcher for syscall mode triggers.

	code []byte
	jump []int
}

// NewMachine creates a machine with a tape of size cells.
func NewMachine(size int) (m *Machine) {
	m = &Machine{
		Cells: make([]byte, size),
		State: STATE_HALTED,
	}

	return
}

// Load replaces the program with the operations of code, ignoring all other
// characters. The tape is left untouched; on error nothing changes.
func (m *Machine) Load(code string) (err error) {
	ops := append([]byte{}, Filter(code)...)

	jump := make([]int, len(ops))
	open := internal.Stack[int]{}
	for pc, op := range ops {
		switch op {
		case OP_OPEN:
			open.Push(pc)
		case OP_CLOSE:
			start, ok := open.Pop()
			if !ok {
				err = &ErrBracketMismatch{Pc: pc}
				return
			}
			jump[start] = pc
			jump[pc] = start
		}
	}

	if start, ok := open.Peek(); ok {
		err = &ErrBracketMismatch{Pc: start}
		return
	}

	m.code = ops
	m.jump = jump
	m.Pc = 0
	m.Ticks = 0
	m.State = STATE_RUNNING

	if m.Verbose {
		log.Printf("machine: loaded %d ops", len(ops))
	}

	return
}

// Code returns the loaded operations.
func (m *Machine) Code() string {
	return string(m.code)
}

// Match returns the index of the bracket matching the one at pc.
func (m *Machine) Match(pc int) (match int, ok bool) {
	if pc < 0 || pc >= len(m.code) {
		return
	}

	switch m.code[pc] {
	case OP_OPEN, OP_CLOSE:
		match, ok = m.jump[pc], true
	}

	return
}

// Reset zeroes the tape, the pointer, the program counter and the counters,
// and rewinds the console.
func (m *Machine) Reset() {
	if m.Verbose {
		log.Printf("machine: reset")
	}

	clear(m.Cells)
	m.Ptr = 0
	m.Pc = 0
	m.Ticks = 0
	m.Result = 0

	if m.code != nil {
		m.State = STATE_RUNNING
	} else {
		m.State = STATE_HALTED
	}

	if m.Console != nil {
		m.Console.Rewind()
	}
}

// fail puts the machine into the error state.
func (m *Machine) fail(err error) (bool, error) {
	m.State = STATE_ERROR
	return true, err
}

// Tick executes a single operation. done is set once the machine has halted.
func (m *Machine) Tick() (done bool, err error) {
	if m.State != STATE_RUNNING {
		done = true
		return
	}

	if m.Pc >= len(m.code) {
		m.State = STATE_HALTED
		done = true
		return
	}

	if m.Limit > 0 && m.Ticks >= m.Limit {
		return m.fail(ErrTickLimit)
	}

	switch m.code[m.Pc] {
	case OP_RIGHT:
		if m.Ptr+1 >= len(m.Cells) {
			return m.fail(&ErrOutOfBounds{Pc: m.Pc, Ptr: m.Ptr + 1})
		}
		m.Ptr++
	case OP_LEFT:
		if m.Ptr-1 < 0 {
			return m.fail(&ErrOutOfBounds{Pc: m.Pc, Ptr: m.Ptr - 1})
		}
		m.Ptr--
	case OP_INC:
		m.Cells[m.Ptr]++
	case OP_DEC:
		m.Cells[m.Ptr]--
	case OP_OPEN:
		if m.Cells[m.Ptr] == 0 {
			m.Pc = m.jump[m.Pc]
		}
	case OP_CLOSE:
		if m.Cells[m.Ptr] != 0 {
			m.Pc = m.jump[m.Pc]
		}
	case OP_PUTC:
		if m.Mode == MODE_SYSCALL {
			err = m.trigger()
		} else if m.Console != nil {
			err = m.Console.Send(m.Cells[m.Ptr])
		}
		if err != nil {
			return m.fail(err)
		}
	case OP_GETC:
		var value byte
		if m.Console != nil {
			value, _ = m.Console.Receive()
		}
		m.Cells[m.Ptr] = value
	}

	m.Pc++
	m.Ticks++

	if m.Pc >= len(m.code) {
		m.State = STATE_HALTED
		done = true
	}

	return
}

// trigger performs a syscall from the ABI cells. Only the return cell is
// written.
func (m *Machine) trigger() (err error) {
	if m.System == nil {
		err = ErrSyscallUnavailable
		return
	}

	var args [abi.ARG_COUNT]byte
	copy(args[:], m.Cells[abi.CELL_ARG0:abi.CELL_ARG0+abi.ARG_COUNT])
	id := m.Cells[abi.CELL_NUMBER]

	result, err := m.System.Dispatch(id, args, m.Cells)
	if err != nil {
		return
	}

	if m.Verbose {
		log.Printf("machine: syscall %d%v = %d", id, args, result)
	}

	m.Result = result
	m.Cells[abi.CELL_RETURN] = byte(result)

	return
}

// Run ticks the machine until it halts, fails, or ctx is done. The context
// is checked between operations only.
func (m *Machine) Run(ctx context.Context) (err error) {
	if m.code == nil {
		err = ErrNoProgram
		return
	}

	for {
		select {
		case <-ctx.Done():
			err = ctx.Err()
			return
		default:
		}

		var done bool
		done, err = m.Tick()
		if err != nil || done {
			return
		}
	}
}

// String returns the machine state and the cells around the pointer.
func (m *Machine) String() string {
	var text strings.Builder

	fmt.Fprintf(&text, "state: %v\n", m.State)
	fmt.Fprintf(&text, " mode: %v\n", m.Mode)
	fmt.Fprintf(&text, "   pc: %d/%d\n", m.Pc, len(m.code))
	fmt.Fprintf(&text, "  ptr: %d\n", m.Ptr)
	fmt.Fprintf(&text, "ticks: %d\n", m.Ticks)

	lo := max(0, m.Ptr-4)
	hi := min(len(m.Cells), m.Ptr+5)
	fmt.Fprintf(&text, "cells:")
	for n := lo; n < hi; n++ {
		if n == m.Ptr {
			fmt.Fprintf(&text, " [%02x]", m.Cells[n])
		} else {
			fmt.Fprintf(&text, " %02x", m.Cells[n])
		}
	}
	text.WriteString("\n")

	return text.String()
}
