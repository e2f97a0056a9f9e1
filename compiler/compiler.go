package compiler

import (
	"io"
	"log"
	"strings"

	"github.com/ezrec/bfsys/abi"
	"github.com/ezrec/bfsys/internal"
	"github.com/ezrec/bfsys/lang"
	"github.com/ezrec/bfsys/machine"
)

// target is a destination cell of a drain, and the direction it moves.
type target struct {
	cell int
	sign int
}

// Compiler lowers a syntax tree into a tape machine program.
//
// The compiler tracks the machine pointer statically: every loop it emits
// opens and closes on the same cell, so the cursor is known at every op.
type Compiler struct {
	Verbose bool // If set, verbosely logs the compiler actions.

	layout  *Layout
	ops     []Op
	pending strings.Builder
	ip      int
	cursor  int
	scratch internal.Stack[int]
}

// Compile parses source text and compiles it.
func Compile(input io.Reader, cfg Config) (prog *Program, err error) {
	equates, err := cfg.Equates()
	if err != nil {
		return
	}

	parser := &lang.Parser{Verbose: cfg.Verbose}
	for name, value := range equates {
		parser.Predefine(name, value)
	}

	tree, err := parser.Parse(input)
	if err != nil {
		return
	}

	layout, err := Allocate(tree, cfg)
	if err != nil {
		return
	}

	comp := &Compiler{Verbose: cfg.Verbose}
	prog, err = comp.Compile(tree, layout)
	return
}

// Compile lowers a program into operations against a layout.
func (c *Compiler) Compile(tree *lang.Block, layout *Layout) (prog *Program, err error) {
	c.layout = layout
	c.ops = nil
	c.pending.Reset()
	c.ip = 0
	c.cursor = 0
	c.scratch = internal.Stack[int]{Limit: layout.ScratchLimit - layout.ScratchBase}

	for _, stmt := range tree.Stmts {
		err = c.stmt(stmt)
		if err != nil {
			return
		}
	}

	prog = &Program{
		Arch:   layout.Arch,
		Mode:   layout.Mode,
		Ops:    c.ops,
		Layout: layout,
	}

	if c.Verbose {
		log.Printf("compiler: %d ops, %d operations", len(prog.Ops), prog.Len())
	}

	return
}

func (c *Compiler) emit(code string) {
	c.pending.WriteString(code)
}

// flush closes the pending operations into an op.
func (c *Compiler) flush(pos lang.Pos, comment string) {
	if c.pending.Len() == 0 {
		return
	}

	code := c.pending.String()
	c.ops = append(c.ops, Op{LineNo: pos.Line, Ip: c.ip, Code: code, Comment: comment})
	c.ip += len(code)
	c.pending.Reset()
}

// alloc reserves a scratch cell. Scratch cells are zero when allocated and
// must be zero again when freed.
func (c *Compiler) alloc(pos lang.Pos) (cell int, err error) {
	if c.scratch.Full() {
		err = &ErrCompile{Pos: pos, Name: "scratch", Err: ErrOutOfMemory}
		return
	}

	cell = c.layout.ScratchBase + c.scratch.Len()
	c.scratch.Push(cell)
	return
}

func (c *Compiler) free(cell int) {
	top, ok := c.scratch.Pop()
	if !ok || top != cell {
		panic("compiler: scratch cell freed out of order")
	}
}

// moveTo moves the pointer to a cell.
func (c *Compiler) moveTo(cell int) {
	switch {
	case cell > c.cursor:
		c.emit(strings.Repeat(string(machine.OP_RIGHT), cell-c.cursor))
	case cell < c.cursor:
		c.emit(strings.Repeat(string(machine.OP_LEFT), c.cursor-cell))
	}
	c.cursor = cell
}

// clear zeroes a cell.
func (c *Compiler) clear(cell int) {
	c.moveTo(cell)
	c.emit("[-]")
}

// addConst adds (sign > 0) or subtracts n from a cell, modulo 256, using
// the shorter of the two directions.
func (c *Compiler) addConst(cell int, n byte, sign int) {
	if sign < 0 {
		n = -n
	}
	if n == 0 {
		return
	}

	c.moveTo(cell)
	if n <= 128 {
		c.emit(strings.Repeat(string(machine.OP_INC), int(n)))
	} else {
		c.emit(strings.Repeat(string(machine.OP_DEC), 256-int(n)))
	}
}

// drain moves the value of src into every target, leaving src zero.
func (c *Compiler) drain(src int, targets ...target) {
	c.moveTo(src)
	c.emit("[-")
	for _, t := range targets {
		c.addConst(t.cell, 1, t.sign)
	}
	c.moveTo(src)
	c.emit("]")
}

// copyAdd adds (or subtracts) src into dst, preserving src.
func (c *Compiler) copyAdd(pos lang.Pos, src, dst int, sign int) (err error) {
	tmp, err := c.alloc(pos)
	if err != nil {
		return
	}

	c.drain(src, target{dst, sign}, target{tmp, 1})
	c.drain(tmp, target{src, 1})
	c.free(tmp)

	return
}

// copy sets dst to the value of src, preserving src.
func (c *Compiler) copy(pos lang.Pos, src, dst int) (err error) {
	c.clear(dst)
	return c.copyAdd(pos, src, dst, 1)
}

// evalInto sets a cell to the value of an expression.
func (c *Compiler) evalInto(expr lang.Expr, dst int) (err error) {
	c.clear(dst)
	return c.accumulate(expr, dst, 1)
}

// accumulate adds (sign > 0) or subtracts the value of an expression into a
// cell.
func (c *Compiler) accumulate(expr lang.Expr, dst int, sign int) (err error) {
	switch e := expr.(type) {
	case *lang.Number:
		c.addConst(dst, e.Value, sign)
	case *lang.Var:
		if cell, ok := c.layout.Lookup(e.Name); ok {
			err = c.copyAdd(e.Pos, cell, dst, sign)
		} else if id, ok := c.layout.SyscallID(e.Name); ok {
			c.addConst(dst, id, sign)
		} else {
			err = &ErrCompile{Pos: e.Pos, Name: e.Name, Err: ErrVariableUnknown}
		}
	case *lang.String, *lang.Bytes:
		var span Span
		span, err = c.literal(e)
		if err != nil {
			return
		}
		c.addConst(dst, byte(span.Start), sign)
	case *lang.Add:
		err = c.accumulate(e.Left, dst, sign)
		if err != nil {
			return
		}
		err = c.accumulate(e.Right, dst, sign)
	case *lang.Sub:
		err = c.accumulate(e.Left, dst, sign)
		if err != nil {
			return
		}
		err = c.accumulate(e.Right, dst, -sign)
	case *lang.Eq:
		err = c.compare(e.Pos, e.Left, e.Right, true, dst, sign)
	case *lang.Ne:
		err = c.compare(e.Pos, e.Left, e.Right, false, dst, sign)
	case *lang.Lt:
		err = c.order(e.Pos, e.Left, e.Right, false, false, dst, sign)
	case *lang.Gt:
		err = c.order(e.Pos, e.Left, e.Right, true, false, dst, sign)
	case *lang.Le:
		err = c.order(e.Pos, e.Left, e.Right, true, true, dst, sign)
	case *lang.Ge:
		err = c.order(e.Pos, e.Left, e.Right, false, true, dst, sign)
	case *lang.Syscall:
		err = c.syscall(e)
		if err != nil {
			return
		}
		err = c.copyAdd(e.Pos, abi.CELL_RETURN, dst, sign)
	}

	return
}

// literal initializes the bytes of a literal span, every time it is
// evaluated.
func (c *Compiler) literal(node lang.Expr) (span Span, err error) {
	span, ok := c.layout.Span(node)
	if !ok {
		err = &ErrCompile{Pos: node.Position(), Name: node.String(), Err: ErrOutOfMemory}
		return
	}

	for n, value := range span.Data {
		c.clear(span.Start + n)
		c.addConst(span.Start+n, value, 1)
	}

	return
}

// compare adds the truth of Left == Right (or Left != Right) into dst.
func (c *Compiler) compare(pos lang.Pos, left, right lang.Expr, equal bool, dst int, sign int) (err error) {
	flag, err := c.alloc(pos)
	if err != nil {
		return
	}
	diff, err := c.alloc(pos)
	if err != nil {
		return
	}

	err = c.accumulate(left, diff, 1)
	if err != nil {
		return
	}
	err = c.accumulate(right, diff, -1)
	if err != nil {
		return
	}

	c.zeroTest(diff, flag, equal)
	c.free(diff)

	c.drain(flag, target{dst, sign})
	c.free(flag)

	return
}

// zeroTest sets the zero flag to (cell == 0) when zero is set, or to
// (cell != 0) otherwise. The cell is cleared.
func (c *Compiler) zeroTest(cell int, flag int, zero bool) {
	// flag = zero; cell[ [-] flag = !zero cell]
	if zero {
		c.addConst(flag, 1, 1)
	}
	c.moveTo(cell)
	c.emit("[")
	c.clear(cell)
	if zero {
		c.addConst(flag, 1, -1)
	} else {
		c.addConst(flag, 1, 1)
	}
	c.moveTo(cell)
	c.emit("]")
}

// order adds the truth of an unsigned ordering of Left and Right into dst.
// Operands are always evaluated left to right; swap compares Right < Left,
// and negate inverts the result.
//
//	a < b:  order(a, b, false, false)
//	a > b:  order(a, b, true, false)
//	a <= b: order(a, b, true, true)
//	a >= b: order(a, b, false, true)
func (c *Compiler) order(pos lang.Pos, left, right lang.Expr, swap, negate bool, dst int, sign int) (err error) {
	flag, err := c.alloc(pos)
	if err != nil {
		return
	}
	x, err := c.alloc(pos)
	if err != nil {
		return
	}
	y, err := c.alloc(pos)
	if err != nil {
		return
	}

	err = c.accumulate(left, x, 1)
	if err != nil {
		return
	}
	err = c.accumulate(right, y, 1)
	if err != nil {
		return
	}

	a, b := x, y
	if swap {
		a, b = y, x
	}

	t, err := c.alloc(pos)
	if err != nil {
		return
	}
	z, err := c.alloc(pos)
	if err != nil {
		return
	}

	c.less(a, b, t, z)

	c.free(z)
	c.free(t)

	// a is now zero; b is non-zero exactly when a < b.
	c.zeroTest(b, flag, negate)
	c.free(y)
	c.free(x)

	c.drain(flag, target{dst, sign})
	c.free(flag)

	return
}

// less decrements a and b in lockstep until a is zero, clearing a early if b
// runs out first. Afterwards b is non-zero exactly when a was less than b.
// t and z are zero scratch cells, and are zero again afterwards.
func (c *Compiler) less(a, b, t, z int) {
	c.moveTo(a)
	c.emit("[")
	c.addConst(a, 1, -1)

	// t = (b == 0), restoring b through z.
	c.addConst(t, 1, 1)
	c.drain(b, target{z, 1})
	c.moveTo(z)
	c.emit("[")
	c.addConst(z, 1, -1)
	c.addConst(b, 1, 1)
	c.clear(t)
	c.moveTo(z)
	c.emit("]")

	c.addConst(b, 1, -1)

	// b ran out: undo its wrap and stop.
	c.moveTo(t)
	c.emit("[")
	c.clear(a)
	c.addConst(b, 1, 1)
	c.addConst(t, 1, -1)
	c.moveTo(t)
	c.emit("]")

	c.moveTo(a)
	c.emit("]")
}

// syscall loads the argument cells and the number cell, then triggers.
func (c *Compiler) syscall(call *lang.Syscall) (err error) {
	if c.layout.Mode != machine.MODE_SYSCALL {
		err = &ErrCompile{Pos: call.Pos, Name: call.Id.String(), Err: ErrModeSyscall}
		return
	}

	if len(call.Args) > abi.ARG_COUNT {
		err = &ErrCompile{Pos: call.Pos, Name: call.Id.String(), Err: ErrArgumentCount}
		return
	}

	exprs := append([]lang.Expr{call.Id}, call.Args...)
	cells := []int{abi.CELL_NUMBER}
	for n := range call.Args {
		cells = append(cells, abi.ArgCell(n))
	}

	nested := false
	for _, expr := range exprs {
		nested = nested || lang.HasSyscall(expr)
	}

	if nested {
		// Inner syscalls overwrite the ABI cells, so evaluate everything
		// first.
		temps := make([]int, len(exprs))
		for n, expr := range exprs {
			temps[n], err = c.alloc(call.Pos)
			if err != nil {
				return
			}
			err = c.accumulate(expr, temps[n], 1)
			if err != nil {
				return
			}
		}
		for n, cell := range cells {
			c.clear(cell)
			c.drain(temps[n], target{cell, 1})
		}
		for n := len(temps) - 1; n >= 0; n-- {
			c.free(temps[n])
		}
	} else {
		for n, expr := range exprs {
			err = c.evalInto(expr, cells[n])
			if err != nil {
				return
			}
		}
	}

	for n := len(call.Args); n < abi.ARG_COUNT; n++ {
		c.clear(abi.ArgCell(n))
	}

	c.emit(string(machine.OP_PUTC))

	return
}

// hostCall triggers a syscall by name with constant arguments.
func (c *Compiler) hostCall(pos lang.Pos, name string, args ...byte) (err error) {
	id, ok := c.layout.Syscalls.Number(name)
	if !ok {
		err = &ErrCompile{Pos: pos, Name: name, Err: &abi.ErrUnsupportedSyscall{Arch: c.layout.Arch}}
		return
	}

	for n := range abi.ARG_COUNT {
		c.clear(abi.ArgCell(n))
		if n < len(args) {
			c.addConst(abi.ArgCell(n), args[n], 1)
		}
	}
	c.clear(abi.CELL_NUMBER)
	c.addConst(abi.CELL_NUMBER, id, 1)
	c.emit(string(machine.OP_PUTC))

	return
}

func (c *Compiler) stmt(stmt lang.Stmt) (err error) {
	pos := stmt.Position()

	switch s := stmt.(type) {
	case *lang.Assign:
		err = c.assign(s)
	case *lang.If:
		err = c.ifStmt(s)
	case *lang.While:
		err = c.whileStmt(s)
	case *lang.Output:
		err = c.output(s)
	case *lang.Input:
		err = c.input(s)
	case *lang.Syscall:
		err = c.syscall(s)
	case *lang.Block:
		for _, inner := range s.Stmts {
			err = c.stmt(inner)
			if err != nil {
				return
			}
		}
	}

	if err != nil {
		return
	}

	c.flush(pos, stmt.String())

	return
}

func (c *Compiler) assign(s *lang.Assign) (err error) {
	cell, ok := c.layout.Lookup(s.Name)
	if !ok {
		err = &ErrCompile{Pos: s.Pos, Name: s.Name, Err: ErrVariableUnknown}
		return
	}

	if v, ok := s.Value.(*lang.Var); ok {
		src, isVar := c.layout.Lookup(v.Name)
		if isVar {
			if src != cell {
				err = c.copy(s.Pos, src, cell)
			}
			return
		}
	}

	tmp, err := c.alloc(s.Pos)
	if err != nil {
		return
	}
	err = c.accumulate(s.Value, tmp, 1)
	if err != nil {
		return
	}
	c.clear(cell)
	c.drain(tmp, target{cell, 1})
	c.free(tmp)

	return
}

func (c *Compiler) ifStmt(s *lang.If) (err error) {
	other := -1
	if s.Else != nil {
		other, err = c.alloc(s.Pos)
		if err != nil {
			return
		}
		c.addConst(other, 1, 1)
	}

	flag, err := c.alloc(s.Pos)
	if err != nil {
		return
	}
	err = c.accumulate(s.Cond, flag, 1)
	if err != nil {
		return
	}

	c.moveTo(flag)
	c.emit("[")
	if other >= 0 {
		c.clear(other)
	}
	c.flush(s.Pos, s.String())

	err = c.stmt(s.Then)
	if err != nil {
		return
	}

	c.clear(flag)
	c.emit("]")
	c.free(flag)

	if other < 0 {
		return
	}

	c.moveTo(other)
	c.emit("[")
	c.flush(s.Pos, "else")

	err = c.stmt(s.Else)
	if err != nil {
		return
	}

	c.clear(other)
	c.emit("]")
	c.free(other)

	return
}

func (c *Compiler) whileStmt(s *lang.While) (err error) {
	flag, err := c.alloc(s.Pos)
	if err != nil {
		return
	}
	err = c.accumulate(s.Cond, flag, 1)
	if err != nil {
		return
	}

	c.moveTo(flag)
	c.emit("[")
	c.flush(s.Pos, s.String())

	err = c.stmt(s.Body)
	if err != nil {
		return
	}

	c.clear(flag)
	err = c.accumulate(s.Cond, flag, 1)
	if err != nil {
		return
	}
	c.moveTo(flag)
	c.emit("]")
	c.free(flag)

	return
}

func (c *Compiler) output(s *lang.Output) (err error) {
	buffer := -1
	if v, ok := s.Value.(*lang.Var); ok {
		buffer, ok = c.layout.Lookup(v.Name)
		if !ok {
			err = &ErrCompile{Pos: v.Pos, Name: v.Name, Err: ErrVariableUnknown}
			return
		}
	}

	if c.layout.Mode != machine.MODE_SYSCALL {
		if buffer >= 0 {
			c.moveTo(buffer)
			c.emit(string(machine.OP_PUTC))
			return
		}

		var tmp int
		tmp, err = c.alloc(s.Pos)
		if err != nil {
			return
		}
		err = c.accumulate(s.Value, tmp, 1)
		if err != nil {
			return
		}
		c.moveTo(tmp)
		c.emit(string(machine.OP_PUTC))
		c.clear(tmp)
		c.free(tmp)
		return
	}

	if buffer < 0 {
		span, ok := c.layout.Span(s)
		if !ok {
			err = &ErrCompile{Pos: s.Pos, Name: s.String(), Err: ErrOutOfMemory}
			return
		}
		buffer = span.Start
		err = c.evalInto(s.Value, buffer)
		if err != nil {
			return
		}
	}

	err = c.hostCall(s.Pos, "write", 1, byte(buffer), 1)
	return
}

func (c *Compiler) input(s *lang.Input) (err error) {
	cell, ok := c.layout.Lookup(s.Name)
	if !ok {
		err = &ErrCompile{Pos: s.Pos, Name: s.Name, Err: ErrVariableUnknown}
		return
	}

	if c.layout.Mode != machine.MODE_SYSCALL {
		c.moveTo(cell)
		c.emit(string(machine.OP_GETC))
		return
	}

	// End of input leaves 0, as in plain mode.
	c.clear(cell)
	err = c.hostCall(s.Pos, "read", 0, byte(cell), 1)
	return
}
