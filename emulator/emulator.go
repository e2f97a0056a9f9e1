// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

// Package emulator ties a compiled program to a tape machine, its console
// and its syscall dispatch table.
package emulator

import (
	"context"
	"iter"
	"log"
	"strings"

	"github.com/ezrec/bfsys/abi"
	"github.com/ezrec/bfsys/compiler"
	"github.com/ezrec/bfsys/internal"
	"github.com/ezrec/bfsys/io"
	"github.com/ezrec/bfsys/machine"
)

// Emulator state. Machine + console + syscall table.
type Emulator struct {
	Verbose          bool              // If set, enables verbose logging.
	*machine.Machine                   // Reference to the machine simulation.
	Program          *compiler.Program // Reference to the currently running program.

	Tape  io.Tape    // Console of the machine.
	Host  abi.Host   // If set, receives syscalls instead of the operating system.
	Table *abi.Table // Dispatch table of the program architecture, set by Reset.
}

// NewEmulator creates a new emulator.
func NewEmulator() (emu *Emulator) {
	arch, _ := abi.HostArch()

	emu = &Emulator{
		Machine: machine.NewMachine(compiler.TAPE_SIZE),
		Program: &compiler.Program{Arch: arch},
	}

	emu.Machine.Console = &emu.Tape

	return
}

// Defines returns an iterator over the cell layout and the syscall
// numbers of the program architecture.
func (emu *Emulator) Defines() iter.Seq2[string, int] {
	desc, err := abi.NewDescriptor(emu.Program.Arch)
	if err != nil {
		return abi.LayoutDefines()
	}

	return internal.IterSeq2Concat(abi.LayoutDefines(), desc.Defines())
}

// Reset loads the program into the machine and clears the tape.
func (emu *Emulator) Reset() (err error) {
	emu.Machine.Verbose = emu.Verbose

	size := compiler.TAPE_SIZE
	if emu.Program.Layout != nil {
		size = emu.Program.Layout.TapeSize
	}
	if len(emu.Machine.Cells) != size {
		emu.Machine.Cells = make([]byte, size)
	}

	emu.Machine.Mode = emu.Program.Mode
	emu.Machine.System = nil
	emu.Table = nil
	if emu.Program.Mode == machine.MODE_SYSCALL {
		emu.Table, err = abi.NewTable(emu.Program.Arch)
		if err != nil {
			return
		}
		if emu.Host != nil {
			emu.Table.Host = emu.Host
		}
		emu.Table.Verbose = emu.Verbose
		emu.Machine.System = emu.Table
	}

	err = emu.Machine.Load(emu.Program.Text())
	if err != nil {
		return
	}

	emu.Machine.Reset()

	if emu.Verbose {
		log.Printf("emulator: %v mode, %v, %d ops", emu.Program.Mode, emu.Program.Arch, emu.Program.Len())
	}

	return
}

// LoadText loads bare or annotated instruction text as the program. The
// header, if any, selects syscall mode and the architecture. Each source
// line with operations becomes one op.
func (emu *Emulator) LoadText(text string) (err error) {
	mode, arch, err := compiler.ParseHeader(text)
	if err != nil {
		return
	}

	prog := &compiler.Program{Arch: arch, Mode: mode}
	ip := 0
	for n, line := range strings.Split(text, "\n") {
		code := machine.Filter(line)
		if len(code) == 0 {
			continue
		}
		prog.Ops = append(prog.Ops, compiler.Op{LineNo: n + 1, Ip: ip, Code: code})
		ip += len(code)
	}

	emu.Program = prog

	return emu.Reset()
}

// LineNo returns the current line number for the executing op.
func (emu *Emulator) LineNo() int {
	dbg := emu.Program.Debug(emu.Machine.Pc)
	if dbg.Op == nil {
		return 0
	}

	return dbg.LineNo
}

// Tick performs a single tick of the emulator.
func (emu *Emulator) Tick() (done bool, err error) {
	emu.Machine.Verbose = emu.Verbose

	lineno := emu.LineNo()
	pc := emu.Machine.Pc
	defer func() {
		if err != nil {
			err = &ErrRuntime{LineNo: lineno, Pc: pc, Err: err}
		}
	}()

	done, err = emu.Machine.Tick()

	return
}

// Run ticks until the program is done, fails, or ctx is done. A syscall in
// progress is never interrupted.
func (emu *Emulator) Run(ctx context.Context) (err error) {
	for {
		select {
		case <-ctx.Done():
			err = ctx.Err()
			return
		default:
		}

		var done bool
		done, err = emu.Tick()
		if err != nil || done {
			return
		}
	}
}
