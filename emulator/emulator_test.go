package emulator

import (
	"bytes"
	"context"
	"errors"
	"maps"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ezrec/bfsys/abi"
	"github.com/ezrec/bfsys/compiler"
	"github.com/ezrec/bfsys/machine"
)

// recordHost records invoked syscalls, and returns the count argument.
type recordHost struct {
	names []string
}

func (host *recordHost) Invoke(name string, args [abi.ARG_COUNT]uintptr) (result int64) {
	host.names = append(host.names, name)
	return int64(args[2])
}

func TestEmulator(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator()

	assert.False(emu.Verbose)
	assert.NotNil(emu.Machine)
	assert.Len(emu.Cells, compiler.TAPE_SIZE)
	assert.Equal(machine.STATE_HALTED, emu.State)

	defines := maps.Collect(emu.Defines())
	assert.Equal(abi.CELL_NUMBER, defines["CELL_NUMBER"])
	_, ok := defines["SYS_WRITE"]
	assert.True(ok)
}

func doCompile(emu *Emulator, src string, cfg compiler.Config, input []byte, t *testing.T) (output *bytes.Buffer) {
	prog, err := compiler.Compile(strings.NewReader(src), cfg)
	require.NoError(t, err)
	emu.Program = prog

	require.NoError(t, emu.Reset())

	emu.Tape.Input = bytes.NewReader(input)
	output = &bytes.Buffer{}
	emu.Tape.Output = output

	return
}

func TestEmulator_Plain(t *testing.T) {
	table := [](struct {
		src    string
		input  string
		output string
	}){
		{"x = 'h'; output(x); output(x + 1);", "", "hi"},
		{"input(c); while (c != 0) { output(c); input(c); }", "echo", "echo"},
		{"a = 3; if (a == 3) { output('y'); } else { output('n'); }", "", "y"},
	}

	for _, entry := range table {
		t.Run(entry.src, func(t *testing.T) {
			assert := assert.New(t)

			emu := NewEmulator()
			output := doCompile(emu, entry.src, compiler.DefaultConfig(machine.MODE_PLAIN, abi.ARCH_X86_64), []byte(entry.input), t)

			err := emu.Run(context.Background())
			assert.NoError(err)
			assert.Equal(entry.output, output.String())
			assert.Equal(machine.STATE_HALTED, emu.State)
		})
	}
}

func TestEmulator_LineNo(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator()
	doCompile(emu, "x = 2;\n\nwhile (x) {\n  x = x - 1;\n}\n", compiler.DefaultConfig(machine.MODE_PLAIN, abi.ARCH_X86_64), nil, t)

	lines := map[int]bool{}
	for {
		lines[emu.LineNo()] = true
		done, err := emu.Tick()
		require.NoError(t, err)
		if done {
			break
		}
	}

	assert.Equal(map[int]bool{1: true, 3: true, 4: true}, lines)
	assert.Equal(0, emu.LineNo(), "past the last op")
	assert.Equal(byte(0), emu.Cells[abi.CELL_USER])
}

func TestEmulator_Syscall(t *testing.T) {
	assert := assert.New(t)

	for _, arch := range []abi.Arch{abi.ARCH_X86_64, abi.ARCH_ARM64} {
		host := &recordHost{}

		emu := NewEmulator()
		emu.Host = host
		doCompile(emu, "n = syscall(write, 1, \"hey\", 3);\noutput(n);", compiler.DefaultConfig(machine.MODE_SYSCALL, arch), nil, t)
		assert.NotNil(emu.Table)
		assert.Equal(arch, emu.Table.Arch)

		err := emu.Run(context.Background())
		assert.NoError(err)
		assert.Equal([]string{"write", "write"}, host.names)
		assert.Equal(int64(1), emu.Result)
	}
}

func TestEmulator_LoadText(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator()
	emu.Host = &recordHost{}

	err := emu.LoadText("#!bfa arm64\n+++ set\n>++\n.\n")
	require.NoError(t, err)
	assert.Equal(machine.MODE_SYSCALL, emu.Mode)
	assert.Equal(abi.ARCH_ARM64, emu.Program.Arch)
	assert.Len(emu.Program.Ops, 3)
	assert.Equal("+++>++.", emu.Code())

	emu.Limit = 3
	err = emu.Run(context.Background())
	assert.ErrorIs(err, machine.ErrTickLimit)

	var rte *ErrRuntime
	if assert.True(errors.As(err, &rte)) {
		assert.Equal(3, rte.LineNo)
		assert.Equal(3, rte.Pc)
	}

	err = emu.LoadText("+.")
	require.NoError(t, err)
	assert.Equal(machine.MODE_PLAIN, emu.Mode)
	assert.Nil(emu.Table)
	output := &bytes.Buffer{}
	emu.Tape.Output = output
	assert.NoError(emu.Run(context.Background()))
	assert.Equal("\x01", output.String())

	err = emu.LoadText("#!bfa vax\n+")
	assert.ErrorIs(err, abi.ErrArchUnknown("vax"))

	err = emu.LoadText("[\n")
	assert.ErrorIs(err, &machine.ErrBracketMismatch{})
}

func TestEmulator_RuntimeError(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator()
	require.NoError(t, emu.LoadText("+\n\n<\n"))

	done, err := emu.Tick()
	assert.False(done)
	assert.NoError(err)

	done, err = emu.Tick()
	assert.True(done)
	assert.ErrorIs(err, &machine.ErrOutOfBounds{})

	var rte *ErrRuntime
	if assert.True(errors.As(err, &rte)) {
		assert.Equal(3, rte.LineNo)
		assert.Equal(1, rte.Pc)
	}
	assert.Equal(machine.STATE_ERROR, emu.State)
}

func TestEmulator_Context(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator()
	require.NoError(t, emu.LoadText("+[]"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := emu.Run(ctx)
	assert.ErrorIs(err, context.Canceled)
}
