package machine

import (
	"bytes"
	"context"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ezrec/bfsys/abi"
	"github.com/ezrec/bfsys/io"
)

type trigger struct {
	id   byte
	args [abi.ARG_COUNT]byte
}

type recordSystem struct {
	triggers []trigger
	result   int64
}

func (rs *recordSystem) Dispatch(id byte, args [abi.ARG_COUNT]byte, cells []byte) (int64, error) {
	rs.triggers = append(rs.triggers, trigger{id, args})
	return rs.result, nil
}

type nullHost struct{}

func (nullHost) Invoke(name string, args [abi.ARG_COUNT]uintptr) int64 {
	return 0
}

func TestFilter(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("+[-]>.", Filter("#!bfa x86_64\n+ comment [-] then > and ."))
	assert.True(IsOp(','))
	assert.False(IsOp('#'))
}

func TestLoad(t *testing.T) {
	assert := assert.New(t)

	m := NewMachine(16)
	assert.Equal(STATE_HALTED, m.State)
	require.NoError(t, m.Load("[[x]]\n[]"))
	assert.Equal("[[]][]", m.Code())
	assert.Equal(STATE_RUNNING, m.State)

	table := [](struct {
		pc    int
		match int
		ok    bool
	}){
		{0, 3, true},
		{1, 2, true},
		{2, 1, true},
		{3, 0, true},
		{4, 5, true},
		{5, 4, true},
		{6, 0, false},
		{-1, 0, false},
	}

	for _, entry := range table {
		match, ok := m.Match(entry.pc)
		assert.Equal(entry.ok, ok, entry.pc)
		assert.Equal(entry.match, match, entry.pc)
	}
}

func TestLoad_Mismatch(t *testing.T) {
	table := [](struct {
		code string
		pc   int
	}){
		{"[", 0},
		{"]", 0},
		{"+]", 1},
		{"[[]", 0},
		{"[][", 2},
		{"[]]", 2},
		{"[[[]]", 0},
		{"+[+[+]", 1},
	}

	for _, entry := range table {
		t.Run(entry.code, func(t *testing.T) {
			assert := assert.New(t)

			m := NewMachine(4)
			require.NoError(t, m.Load("+>+"))
			m.Cells[2] = 7

			err := m.Load(entry.code)
			var mismatch *ErrBracketMismatch
			if assert.ErrorAs(err, &mismatch) {
				assert.Equal(entry.pc, mismatch.Pc)
			}
			assert.ErrorIs(err, &ErrBracketMismatch{})

			// Nothing changed.
			assert.Equal("+>+", m.Code())
			assert.Equal([]byte{0, 0, 7, 0}, m.Cells)
		})
	}
}

func TestTick(t *testing.T) {
	table := [](struct {
		code  string
		cells []byte
		ptr   int
	}){
		{"", []byte{0, 0, 0, 0}, 0},
		{"+++>++<-", []byte{2, 2, 0, 0}, 0},
		{"-", []byte{255, 0, 0, 0}, 0},
		{"+++++[>++<-]", []byte{0, 10, 0, 0}, 0},
		{"++[>++[>+<-]<-]", []byte{0, 0, 4, 0}, 0},
		{"[+++]>+", []byte{0, 1, 0, 0}, 1},
		{"+[-]", []byte{0, 0, 0, 0}, 0},
		{">>>", []byte{0, 0, 0, 0}, 3},
	}

	for _, entry := range table {
		t.Run(entry.code, func(t *testing.T) {
			assert := assert.New(t)

			m := NewMachine(4)
			require.NoError(t, m.Load(entry.code))
			assert.NoError(m.Run(context.Background()))
			assert.Equal(entry.cells, m.Cells)
			assert.Equal(entry.ptr, m.Ptr)
			assert.Equal(STATE_HALTED, m.State)

			done, err := m.Tick()
			assert.True(done)
			assert.NoError(err)
		})
	}
}

func TestTick_Counts(t *testing.T) {
	assert := assert.New(t)

	m := NewMachine(4)
	require.NoError(t, m.Load("++[-]"))

	done, err := m.Tick()
	assert.False(done)
	assert.NoError(err)
	assert.Equal(1, m.Pc)
	assert.Equal(1, m.Ticks)

	assert.NoError(m.Run(context.Background()))
	// Two increments, the open bracket, then two rounds of -]
	assert.Equal(2+1+2*2, m.Ticks)
}

func TestTick_OutOfBounds(t *testing.T) {
	table := [](struct {
		code string
		pc   int
		ptr  int
	}){
		{"+<", 1, -1},
		{">>>>", 3, 4},
		{"+[>+]", 2, 4},
	}

	for _, entry := range table {
		t.Run(entry.code, func(t *testing.T) {
			assert := assert.New(t)

			m := NewMachine(4)
			require.NoError(t, m.Load(entry.code))
			err := m.Run(context.Background())

			var oob *ErrOutOfBounds
			if assert.ErrorAs(err, &oob) {
				assert.Equal(entry.pc, oob.Pc)
				assert.Equal(entry.ptr, oob.Ptr)
			}
			assert.Equal(STATE_ERROR, m.State)
			assert.Equal(entry.pc, m.Pc)
			assert.True(m.Ptr >= 0 && m.Ptr < len(m.Cells))

			cells := slices.Clone(m.Cells)
			done, err := m.Tick()
			assert.True(done)
			assert.NoError(err)
			assert.Equal(cells, m.Cells)
		})
	}
}

func TestPlain_Console(t *testing.T) {
	assert := assert.New(t)

	output := &bytes.Buffer{}
	m := NewMachine(8)
	m.Console = &io.Tape{
		Input:  strings.NewReader("A"),
		Output: output,
	}
	m.Cells[1] = 9

	require.NoError(t, m.Load(",.>,.+++."))
	assert.NoError(m.Run(context.Background()))

	// The second read is at end of input and stores 0.
	assert.Equal([]byte{'A', 0, 3}, output.Bytes())
	assert.Equal(byte('A'), m.Cells[0])
	assert.Equal(byte(3), m.Cells[1])
}

func TestPlain_Loopback(t *testing.T) {
	assert := assert.New(t)

	m := NewMachine(8)
	m.Console = &io.Temporary{Capacity: 4}
	require.NoError(t, m.Load("+++.>,"))
	assert.NoError(m.Run(context.Background()))
	assert.Equal(byte(3), m.Cells[1])
}

func TestPlain_ConsoleFull(t *testing.T) {
	assert := assert.New(t)

	m := NewMachine(8)
	m.Console = &io.Temporary{Capacity: 1}
	require.NoError(t, m.Load(".."))
	assert.ErrorIs(m.Run(context.Background()), io.ErrChannelFull)
	assert.Equal(STATE_ERROR, m.State)
	assert.Equal(1, m.Pc)
}

func TestSyscall_Trigger(t *testing.T) {
	assert := assert.New(t)

	system := &recordSystem{result: -98}
	m := NewMachine(512)
	m.Mode = MODE_SYSCALL
	m.System = system

	copy(m.Cells, []byte{0x55, 1, 64, 3, 4, 5, 6, 1, 'h', 'i'})
	m.Ptr = 9
	require.NoError(t, m.Load("."))

	before := slices.Clone(m.Cells)
	assert.NoError(m.Run(context.Background()))

	if assert.Len(system.triggers, 1) {
		assert.Equal(trigger{1, [abi.ARG_COUNT]byte{1, 64, 3, 4, 5, 6}}, system.triggers[0])
	}
	assert.Equal(int64(-98), m.Result)
	assert.Equal(byte(158), m.Cells[abi.CELL_RETURN])

	// Only the return cell changed.
	before[abi.CELL_RETURN] = byte(158)
	assert.Equal(before, m.Cells)
	assert.Equal(9, m.Ptr)
}

func TestSyscall_Input(t *testing.T) {
	assert := assert.New(t)

	system := &recordSystem{}
	m := NewMachine(16)
	m.Mode = MODE_SYSCALL
	m.System = system
	m.Console = &io.Tape{Input: strings.NewReader("z")}

	require.NoError(t, m.Load(">,"))
	assert.NoError(m.Run(context.Background()))
	assert.Equal(byte('z'), m.Cells[1])
	assert.Len(system.triggers, 0)
}

func TestSyscall_Errors(t *testing.T) {
	assert := assert.New(t)

	m := NewMachine(512)
	m.Mode = MODE_SYSCALL
	require.NoError(t, m.Load("."))
	assert.ErrorIs(m.Run(context.Background()), ErrSyscallUnavailable)
	assert.Equal(STATE_ERROR, m.State)

	table, err := abi.NewTable(abi.ARCH_X86_64)
	require.NoError(t, err)
	table.Host = nullHost{}
	m.System = table

	m.Reset()
	m.Cells[abi.CELL_NUMBER] = 250
	m.Cells[abi.CELL_RETURN] = 42
	err = m.Run(context.Background())
	var unsupported *abi.ErrUnsupportedSyscall
	if assert.ErrorAs(err, &unsupported) {
		assert.Equal(byte(250), unsupported.Id)
		assert.Equal(abi.ARCH_X86_64, unsupported.Arch)
	}
	assert.Equal(byte(42), m.Cells[abi.CELL_RETURN])
}

func TestRun_Limit(t *testing.T) {
	assert := assert.New(t)

	m := NewMachine(4)
	m.Limit = 100
	require.NoError(t, m.Load("+[]"))
	assert.ErrorIs(m.Run(context.Background()), ErrTickLimit)
	assert.Equal(100, m.Ticks)
	assert.Equal(STATE_ERROR, m.State)
}

func TestRun_Context(t *testing.T) {
	assert := assert.New(t)

	m := NewMachine(4)
	assert.ErrorIs(m.Run(context.Background()), ErrNoProgram)

	require.NoError(t, m.Load("+[]"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(m.Run(ctx), context.Canceled)
	assert.Equal(0, m.Ticks)
	assert.Equal(STATE_RUNNING, m.State)
}

func TestReset(t *testing.T) {
	assert := assert.New(t)

	temp := &io.Temporary{Capacity: 4}
	m := NewMachine(4)
	m.Console = temp
	require.NoError(t, m.Load("+>+."))
	assert.NoError(m.Run(context.Background()))
	assert.Equal(1, temp.Size)

	m.Reset()
	assert.Equal([]byte{0, 0, 0, 0}, m.Cells)
	assert.Equal(0, m.Ptr)
	assert.Equal(0, m.Pc)
	assert.Equal(0, m.Ticks)
	assert.Equal(STATE_RUNNING, m.State)
	assert.Equal(0, temp.Size)

	assert.Contains(m.String(), "state: running")
	assert.Contains(m.String(), "cells: [00] 00 00 00")
}

func TestStrings(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("plain", MODE_PLAIN.String())
	assert.Equal("syscall", MODE_SYSCALL.String())
	assert.Equal("Mode(2)", Mode(2).String())
	assert.Equal("running", STATE_RUNNING.String())
	assert.Equal("halted", STATE_HALTED.String())
	assert.Equal("error", STATE_ERROR.String())
}
