// Package eval runs a syntax tree directly, without compiling it.
//
// The evaluator uses the same Layout as the compiler and writes the same
// cells: variables, literal spans, and the ABI cells around every syscall.
// After a run, its tape matches the tape of the compiled program.
package eval

import (
	"context"
	"errors"
	"log"

	"github.com/ezrec/bfsys/abi"
	"github.com/ezrec/bfsys/compiler"
	"github.com/ezrec/bfsys/io"
	"github.com/ezrec/bfsys/lang"
	"github.com/ezrec/bfsys/machine"
	"github.com/ezrec/bfsys/translate"
)

var f = translate.From

var (
	ErrStepLimit = errors.New(f("step limit reached"))
)

// Evaluator is a tree walking interpreter over a tape.
type Evaluator struct {
	Verbose bool // If set, logs every syscall.

	Layout  *compiler.Layout
	Cells   []byte
	Console io.Console
	System  machine.Syscaller

	Steps int // Statements and loop iterations executed.
	Limit int // If non-zero, maximum steps before ErrStepLimit.
}

// NewEvaluator creates an evaluator with a zeroed tape sized by the layout.
func NewEvaluator(layout *compiler.Layout) (ev *Evaluator) {
	ev = &Evaluator{
		Layout: layout,
		Cells:  make([]byte, layout.TapeSize),
	}

	return
}

// Run executes a program. The context is checked before every statement
// and every loop iteration.
func (ev *Evaluator) Run(ctx context.Context, prog *lang.Block) (err error) {
	return ev.block(ctx, prog)
}

func (ev *Evaluator) block(ctx context.Context, block *lang.Block) (err error) {
	for _, stmt := range block.Stmts {
		err = ev.stmt(ctx, stmt)
		if err != nil {
			return
		}
	}
	return
}

func (ev *Evaluator) lookup(pos lang.Pos, name string) (cell int, err error) {
	cell, ok := ev.Layout.Lookup(name)
	if !ok {
		err = &compiler.ErrCompile{Pos: pos, Name: name, Err: compiler.ErrVariableUnknown}
	}
	return
}

// step counts one statement or loop iteration.
func (ev *Evaluator) step(ctx context.Context) (err error) {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if ev.Limit > 0 && ev.Steps >= ev.Limit {
		return ErrStepLimit
	}
	ev.Steps++

	return
}

func (ev *Evaluator) stmt(ctx context.Context, stmt lang.Stmt) (err error) {
	err = ev.step(ctx)
	if err != nil {
		return
	}

	switch s := stmt.(type) {
	case *lang.Assign:
		var cell int
		cell, err = ev.lookup(s.Pos, s.Name)
		if err != nil {
			return
		}
		var value byte
		value, err = ev.expr(s.Value)
		if err != nil {
			return
		}
		ev.Cells[cell] = value
	case *lang.If:
		var cond byte
		cond, err = ev.expr(s.Cond)
		if err != nil {
			return
		}
		switch {
		case cond != 0:
			err = ev.block(ctx, s.Then)
		case s.Else != nil:
			err = ev.stmt(ctx, s.Else)
		}
	case *lang.While:
		for {
			var cond byte
			cond, err = ev.expr(s.Cond)
			if err != nil || cond == 0 {
				return
			}
			err = ev.block(ctx, s.Body)
			if err != nil {
				return
			}
			err = ev.step(ctx)
			if err != nil {
				return
			}
		}
	case *lang.Output:
		err = ev.output(s)
	case *lang.Input:
		err = ev.input(s)
	case *lang.Syscall:
		_, err = ev.syscall(s)
	case *lang.Block:
		err = ev.block(ctx, s)
	}

	return
}

func (ev *Evaluator) expr(expr lang.Expr) (value byte, err error) {
	switch e := expr.(type) {
	case *lang.Number:
		value = e.Value
	case *lang.Var:
		if cell, ok := ev.Layout.Lookup(e.Name); ok {
			value = ev.Cells[cell]
		} else if id, ok := ev.Layout.SyscallID(e.Name); ok {
			value = id
		} else {
			err = &compiler.ErrCompile{Pos: e.Pos, Name: e.Name, Err: compiler.ErrVariableUnknown}
		}
	case *lang.String, *lang.Bytes:
		span, ok := ev.Layout.Span(e)
		if !ok {
			err = &compiler.ErrCompile{Pos: e.Position(), Name: e.String(), Err: compiler.ErrOutOfMemory}
			return
		}
		copy(ev.Cells[span.Start:], span.Data)
		value = byte(span.Start)
	case *lang.Add:
		value, err = ev.binary(e.Left, e.Right, func(a, b byte) byte { return a + b })
	case *lang.Sub:
		value, err = ev.binary(e.Left, e.Right, func(a, b byte) byte { return a - b })
	case *lang.Eq:
		value, err = ev.binary(e.Left, e.Right, func(a, b byte) byte { return truth(a == b) })
	case *lang.Ne:
		value, err = ev.binary(e.Left, e.Right, func(a, b byte) byte { return truth(a != b) })
	case *lang.Lt:
		value, err = ev.binary(e.Left, e.Right, func(a, b byte) byte { return truth(a < b) })
	case *lang.Le:
		value, err = ev.binary(e.Left, e.Right, func(a, b byte) byte { return truth(a <= b) })
	case *lang.Gt:
		value, err = ev.binary(e.Left, e.Right, func(a, b byte) byte { return truth(a > b) })
	case *lang.Ge:
		value, err = ev.binary(e.Left, e.Right, func(a, b byte) byte { return truth(a >= b) })
	case *lang.Syscall:
		value, err = ev.syscall(e)
	}

	return
}

func truth(cond bool) byte {
	if cond {
		return 1
	}
	return 0
}

func (ev *Evaluator) binary(left, right lang.Expr, op func(a, b byte) byte) (value byte, err error) {
	a, err := ev.expr(left)
	if err != nil {
		return
	}
	b, err := ev.expr(right)
	if err != nil {
		return
	}
	value = op(a, b)
	return
}

func (ev *Evaluator) syscall(call *lang.Syscall) (value byte, err error) {
	if ev.Layout.Mode != machine.MODE_SYSCALL {
		err = &compiler.ErrCompile{Pos: call.Pos, Name: call.Id.String(), Err: compiler.ErrModeSyscall}
		return
	}
	if len(call.Args) > abi.ARG_COUNT {
		err = &compiler.ErrCompile{Pos: call.Pos, Name: call.Id.String(), Err: compiler.ErrArgumentCount}
		return
	}

	id, err := ev.expr(call.Id)
	if err != nil {
		return
	}

	var args [abi.ARG_COUNT]byte
	for n, arg := range call.Args {
		args[n], err = ev.expr(arg)
		if err != nil {
			return
		}
	}

	return ev.trigger(id, args)
}

// trigger writes the ABI cells and dispatches, as the machine does.
func (ev *Evaluator) trigger(id byte, args [abi.ARG_COUNT]byte) (value byte, err error) {
	if ev.System == nil {
		err = machine.ErrSyscallUnavailable
		return
	}

	ev.Cells[abi.CELL_NUMBER] = id
	copy(ev.Cells[abi.CELL_ARG0:], args[:])

	result, err := ev.System.Dispatch(id, args, ev.Cells)
	if err != nil {
		return
	}

	if ev.Verbose {
		log.Printf("eval: syscall %d%v = %d", id, args, result)
	}

	value = byte(result)
	ev.Cells[abi.CELL_RETURN] = value
	return
}

func (ev *Evaluator) hostCall(name string, args ...byte) (err error) {
	id, ok := ev.Layout.Syscalls.Number(name)
	if !ok {
		return &abi.ErrUnsupportedSyscall{Arch: ev.Layout.Arch}
	}

	var cells [abi.ARG_COUNT]byte
	copy(cells[:], args)
	_, err = ev.trigger(id, cells)
	return
}

func (ev *Evaluator) output(s *lang.Output) (err error) {
	value, err := ev.expr(s.Value)
	if err != nil {
		return
	}

	if ev.Layout.Mode != machine.MODE_SYSCALL {
		if ev.Console != nil {
			err = ev.Console.Send(value)
		}
		return
	}

	var buffer int
	if v, ok := s.Value.(*lang.Var); ok {
		buffer, err = ev.lookup(v.Pos, v.Name)
		if err != nil {
			return
		}
	} else {
		span, ok := ev.Layout.Span(s)
		if !ok {
			return &compiler.ErrCompile{Pos: s.Pos, Name: s.String(), Err: compiler.ErrOutOfMemory}
		}
		buffer = span.Start
		ev.Cells[buffer] = value
	}

	return ev.hostCall("write", 1, byte(buffer), 1)
}

func (ev *Evaluator) input(s *lang.Input) (err error) {
	cell, err := ev.lookup(s.Pos, s.Name)
	if err != nil {
		return
	}

	ev.Cells[cell] = 0

	if ev.Layout.Mode != machine.MODE_SYSCALL {
		if ev.Console != nil {
			ev.Cells[cell], _ = ev.Console.Receive()
		}
		return
	}

	return ev.hostCall("read", 0, byte(cell), 1)
}
