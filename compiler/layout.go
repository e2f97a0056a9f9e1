package compiler

import (
	"log"

	"github.com/ezrec/bfsys/abi"
	"github.com/ezrec/bfsys/lang"
	"github.com/ezrec/bfsys/machine"
)

// Span is a contiguous run of literal cells and their initial bytes.
type Span struct {
	Start int
	Data  []byte
}

// End returns the cell just past the span.
func (span Span) End() int {
	return span.Start + len(span.Data)
}

// Layout is the memory map of one program: a cell for every variable and a
// span for every literal.
type Layout struct {
	Config
	Syscalls *abi.Descriptor // Syscall table of the target architecture.

	Vars  map[string]int     // Variable name to cell.
	Order []string           // Variable names in allocation order.
	Spans map[lang.Node]Span // Literal (or syscall output) node to its span.

	nextVar     int
	nextLiteral int
}

// Allocate assigns cells to every variable and literal of a program, in
// source order.
func Allocate(prog *lang.Block, cfg Config) (lay *Layout, err error) {
	err = cfg.Validate()
	if err != nil {
		return
	}

	desc, err := abi.NewDescriptor(cfg.Arch)
	if err != nil {
		return
	}

	lay = &Layout{
		Config:      cfg,
		Syscalls:    desc,
		Vars:        map[string]int{},
		Spans:       map[lang.Node]Span{},
		nextVar:     abi.CELL_USER,
		nextLiteral: cfg.VarLimit,
	}

	lang.Walk(prog, func(node lang.Node) bool {
		if err != nil {
			return false
		}

		switch n := node.(type) {
		case *lang.Assign:
			err = lay.variable(n.Pos, n.Name)
		case *lang.Input:
			err = lay.variable(n.Pos, n.Name)
		case *lang.String:
			err = lay.literal(n, []byte(n.Value))
		case *lang.Bytes:
			err = lay.literal(n, n.Value)
		case *lang.Output:
			if _, isVar := n.Value.(*lang.Var); !isVar && cfg.Mode == machine.MODE_SYSCALL {
				err = lay.literal(n, []byte{0})
			}
		}

		return err == nil
	})

	if err != nil {
		lay = nil
		return
	}

	if cfg.Verbose {
		log.Printf("layout: %d vars, %d literal cells", len(lay.Order), lay.nextLiteral-cfg.VarLimit)
	}

	return
}

func (lay *Layout) variable(pos lang.Pos, name string) (err error) {
	if name == abi.RESULT_NAME {
		err = &ErrCompile{Pos: pos, Name: name, Err: ErrVariableReserved}
		return
	}

	if _, ok := lay.Vars[name]; ok {
		return
	}

	if lay.nextVar >= lay.VarLimit {
		err = &ErrCompile{Pos: pos, Name: name, Err: ErrOutOfMemory}
		return
	}

	lay.Vars[name] = lay.nextVar
	lay.Order = append(lay.Order, name)
	lay.nextVar++

	return
}

func (lay *Layout) literal(node lang.Node, data []byte) (err error) {
	start := lay.nextLiteral
	if start+len(data) > lay.LiteralLimit {
		err = &ErrCompile{Pos: node.Position(), Name: "literal", Err: ErrOutOfMemory}
		return
	}

	// An empty literal holds no cells, but its address must still be a byte.
	if len(data) == 0 && start == lay.LiteralLimit && start > 0 {
		start--
	}

	lay.Spans[node] = Span{Start: start, Data: data}
	lay.nextLiteral += len(data)

	return
}

// Lookup returns the cell of a variable. The reserved result name is always
// the return cell.
func (lay *Layout) Lookup(name string) (cell int, ok bool) {
	if name == abi.RESULT_NAME {
		return abi.CELL_RETURN, true
	}

	cell, ok = lay.Vars[name]
	return
}

// Span returns the literal span allocated to a node.
func (lay *Layout) Span(node lang.Node) (span Span, ok bool) {
	span, ok = lay.Spans[node]
	return
}

// SyscallID resolves a name that is not a variable to the number of the
// syscall of that name.
func (lay *Layout) SyscallID(name string) (id byte, ok bool) {
	if _, isVar := lay.Lookup(name); isVar {
		return
	}

	return lay.Syscalls.Number(name)
}
