package eval

import (
	"bytes"
	"context"
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ezrec/bfsys/abi"
	"github.com/ezrec/bfsys/compiler"
	bfio "github.com/ezrec/bfsys/io"
	"github.com/ezrec/bfsys/lang"
	"github.com/ezrec/bfsys/machine"
)

type trigger struct {
	id   byte
	args [abi.ARG_COUNT]byte
	buf  []byte
}

// recordSystem records every trigger. It answers x86_64 getpid with a
// counter, and its x86_64 read stores 'Z'.
type recordSystem struct {
	triggers []trigger
	pid      int64
}

func (rs *recordSystem) Dispatch(id byte, args [abi.ARG_COUNT]byte, cells []byte) (int64, error) {
	trig := trigger{id: id, args: args}
	if int(args[1])+int(args[2]) <= len(cells) {
		trig.buf = slices.Clone(cells[args[1] : int(args[1])+int(args[2])])
	}
	rs.triggers = append(rs.triggers, trig)

	switch id {
	case 39:
		rs.pid += 7
		return rs.pid, nil
	case 0:
		cells[args[1]] = 'Z'
	}
	return int64(args[2]), nil
}

func parse(t *testing.T, src string) *lang.Block {
	p := &lang.Parser{}
	prog, err := p.ParseString(src)
	require.NoError(t, err)
	return prog
}

func plainConfig() compiler.Config {
	cfg := compiler.DefaultConfig(machine.MODE_PLAIN, abi.ARCH_X86_64)
	cfg.TapeSize = compiler.TAPE_MIN
	return cfg
}

// run evaluates a tree and runs its compiled program with the same input,
// returning both tapes and both outputs.
func run(t *testing.T, tree *lang.Block, cfg compiler.Config, input []byte) (ev *Evaluator, m *machine.Machine, evOut, mOut string, evSys, mSys *recordSystem) {
	t.Helper()

	layout, err := compiler.Allocate(tree, cfg)
	require.NoError(t, err)

	evBuf := &bytes.Buffer{}
	evSys = &recordSystem{}
	ev = NewEvaluator(layout)
	ev.Console = &bfio.Tape{Input: bytes.NewReader(input), Output: evBuf}
	ev.System = evSys
	require.NoError(t, ev.Run(context.Background(), tree))

	prog, err := (&compiler.Compiler{}).Compile(tree, layout)
	require.NoError(t, err)

	mBuf := &bytes.Buffer{}
	mSys = &recordSystem{}
	m = machine.NewMachine(cfg.TapeSize)
	m.Mode = cfg.Mode
	m.Console = &bfio.Tape{Input: bytes.NewReader(input), Output: mBuf}
	m.System = mSys
	m.Limit = 100_000_000
	require.NoError(t, m.Load(prog.Text()))
	require.NoError(t, m.Run(context.Background()))

	evOut = evBuf.String()
	mOut = mBuf.String()
	return
}

func TestEval_OutputVariable(t *testing.T) {
	assert := assert.New(t)

	tree := parse(t, "x = 5; output(x);")
	ev, m, evOut, mOut, _, _ := run(t, tree, plainConfig(), nil)

	assert.Equal("\x05", evOut)
	assert.Equal(evOut, mOut)

	cell, ok := ev.Layout.Lookup("x")
	require.True(t, ok)
	assert.Equal(byte(5), ev.Cells[cell])
	assert.Equal(ev.Cells, m.Cells)
}

func TestEval_AddPreserves(t *testing.T) {
	assert := assert.New(t)

	table := [](struct{ a, b byte }){
		{0, 0}, {1, 2}, {200, 100}, {255, 1}, {128, 128}, {17, 0},
	}

	for _, entry := range table {
		tree := parse(t, fmt.Sprintf("a = %d; b = %d; c = a + b;", entry.a, entry.b))
		ev, m, _, _, _, _ := run(t, tree, plainConfig(), nil)

		a, _ := ev.Layout.Lookup("a")
		b, _ := ev.Layout.Lookup("b")
		c, _ := ev.Layout.Lookup("c")
		for _, cells := range [][]byte{ev.Cells, m.Cells} {
			assert.Equal(entry.a, cells[a])
			assert.Equal(entry.b, cells[b])
			assert.Equal(entry.a+entry.b, cells[c])
		}
	}
}

func TestEval_Literals(t *testing.T) {
	assert := assert.New(t)

	// Literal bytes are restored every time the literal is evaluated.
	tree := parse(t, "i = 2; while (i) { s = \"ab\"; syscall(read, 0, s, 1); i = i - 1; }")
	cfg := compiler.DefaultConfig(machine.MODE_SYSCALL, abi.ARCH_X86_64)
	ev, m, _, _, evSys, mSys := run(t, tree, cfg, nil)

	assert.Equal(ev.Cells, m.Cells)
	assert.Equal(evSys.triggers, mSys.triggers)
	if assert.Len(evSys.triggers, 2) {
		assert.Equal([]byte("a"), evSys.triggers[1].buf)
	}
}

func TestEval_Errors(t *testing.T) {
	assert := assert.New(t)

	layout, err := compiler.Allocate(parse(t, "x = 1;"), plainConfig())
	require.NoError(t, err)

	ev := NewEvaluator(layout)
	err = ev.Run(context.Background(), parse(t, "output(y);"))
	assert.ErrorIs(err, compiler.ErrVariableUnknown)

	err = ev.Run(context.Background(), parse(t, "x = syscall(1);"))
	assert.ErrorIs(err, compiler.ErrModeSyscall)

	ev.Limit = 100
	err = ev.Run(context.Background(), parse(t, "while (1) { }"))
	assert.ErrorIs(err, ErrStepLimit)
	assert.Equal(100, ev.Steps)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ev.Limit = 0
	err = ev.Run(ctx, parse(t, "x = 2;"))
	assert.ErrorIs(err, context.Canceled)

	scfg := compiler.DefaultConfig(machine.MODE_SYSCALL, abi.ARCH_X86_64)
	slayout, err := compiler.Allocate(parse(t, "x = 1;"), scfg)
	require.NoError(t, err)
	ev = NewEvaluator(slayout)
	err = ev.Run(context.Background(), parse(t, "syscall(1, 2, 3, 4, 5, 6, 7, 8);"))
	assert.ErrorIs(err, compiler.ErrArgumentCount)
	err = ev.Run(context.Background(), parse(t, "syscall(getpid);"))
	assert.ErrorIs(err, machine.ErrSyscallUnavailable)
}

func TestEquivalence_Syscall(t *testing.T) {
	table := []string{
		"n = syscall(getpid); output(n); output(n + 1);",
		"syscall(write, 1, \"x\", syscall(getpid) - syscall(getpid) + 1);",
		"a = syscall(write, 1, [1, 2, 3], 3); b = _syscall_result; input(c); output(a + b + c);",
		"i = 3; while (i) { if (syscall(getpid) == 14) { output('!'); } i = i - 1; }",
		"syscall(close, syscall(getpid), syscall(getpid));",
		"if (syscall(getpid) > syscall(getpid)) { output('>'); } x = syscall(getpid) <= syscall(getpid); y = x >= 1;",
	}

	for n, src := range table {
		t.Run(fmt.Sprintf("case_%d", n), func(t *testing.T) {
			assert := assert.New(t)

			for _, arch := range []abi.Arch{abi.ARCH_X86_64, abi.ARCH_ARM64} {
				cfg := compiler.DefaultConfig(machine.MODE_SYSCALL, arch)
				ev, m, _, _, evSys, mSys := run(t, parse(t, src), cfg, []byte("q"))
				assert.Equal(ev.Cells, m.Cells, arch.String())
				assert.Equal(evSys.triggers, mSys.triggers, arch.String())
				assert.NotEmpty(evSys.triggers)
			}
		})
	}
}

// gen builds random syscall free programs that always terminate.
type gen struct {
	rng      *rand.Rand
	vars     []string
	loops    int
	literals int
	orders   int
}

func (g *gen) byteValue() byte {
	return byte(g.rng.IntN(256))
}

func (g *gen) variable() *lang.Var {
	return &lang.Var{Name: g.vars[g.rng.IntN(len(g.vars))]}
}

func (g *gen) expr(depth int) lang.Expr {
	choice := g.rng.IntN(9)
	if depth <= 0 {
		choice = g.rng.IntN(3)
	}

	switch choice {
	case 0:
		return &lang.Number{Value: g.byteValue()}
	case 1:
		return g.variable()
	case 2:
		if g.literals >= 8 {
			return &lang.Number{Value: g.byteValue()}
		}
		g.literals++
		data := make([]byte, 1+g.rng.IntN(3))
		for n := range data {
			data[n] = g.byteValue()
		}
		if g.rng.IntN(2) == 0 {
			return &lang.Bytes{Value: data}
		}
		return &lang.String{Value: string(data)}
	case 3:
		return &lang.Sub{Left: g.expr(depth - 1), Right: g.expr(depth - 1)}
	case 4:
		return &lang.Eq{Left: g.expr(depth - 1), Right: g.expr(depth - 1)}
	case 5:
		return &lang.Ne{Left: g.expr(depth - 1), Right: g.expr(depth - 1)}
	case 6:
		// Orderings cost up to a*b ticks, so keep them few and flat.
		if g.orders >= 3 {
			return g.variable()
		}
		g.orders++
		left, right := g.expr(0), g.expr(0)
		switch g.rng.IntN(4) {
		case 0:
			return &lang.Lt{Left: left, Right: right}
		case 1:
			return &lang.Le{Left: left, Right: right}
		case 2:
			return &lang.Gt{Left: left, Right: right}
		default:
			return &lang.Ge{Left: left, Right: right}
		}
	default:
		return &lang.Add{Left: g.expr(depth - 1), Right: g.expr(depth - 1)}
	}
}

func (g *gen) block(depth int, count int) *lang.Block {
	block := &lang.Block{}
	for range count {
		block.Stmts = append(block.Stmts, g.stmt(depth))
	}
	return block
}

func (g *gen) stmt(depth int) lang.Stmt {
	choice := g.rng.IntN(6)
	if depth <= 0 {
		choice = g.rng.IntN(3)
	}

	switch choice {
	case 0:
		return &lang.Assign{Name: g.variable().Name, Value: g.expr(2)}
	case 1:
		return &lang.Output{Value: g.expr(2)}
	case 2:
		return &lang.Input{Name: g.variable().Name}
	case 3:
		s := &lang.If{Cond: g.expr(2), Then: g.block(depth-1, 1+g.rng.IntN(2))}
		switch g.rng.IntN(3) {
		case 1:
			s.Else = g.block(depth-1, 1+g.rng.IntN(2))
		case 2:
			s.Else = &lang.If{Cond: g.expr(1), Then: g.block(depth-1, 1), Else: g.block(depth-1, 1)}
		}
		return s
	case 4:
		return g.block(depth-1, 1+g.rng.IntN(3))
	default:
		// A counted loop over a counter the body never assigns.
		counter := fmt.Sprintf("i%d", g.loops)
		g.loops++
		body := g.block(depth-1, 1+g.rng.IntN(2))
		body.Stmts = append(body.Stmts, &lang.Assign{
			Name:  counter,
			Value: &lang.Sub{Left: &lang.Var{Name: counter}, Right: &lang.Number{Value: 1}},
		})
		return &lang.Block{Stmts: []lang.Stmt{
			&lang.Assign{Name: counter, Value: &lang.Number{Value: byte(g.rng.IntN(4))}},
			&lang.While{Cond: &lang.Var{Name: counter}, Body: body},
		}}
	}
}

func (g *gen) program() *lang.Block {
	prog := &lang.Block{}
	for _, name := range g.vars {
		prog.Stmts = append(prog.Stmts, &lang.Assign{Name: name, Value: &lang.Number{Value: g.byteValue()}})
	}
	prog.Stmts = append(prog.Stmts, g.block(3, 2+g.rng.IntN(4)).Stmts...)
	return prog
}

func TestEquivalence(t *testing.T) {
	seeds := 200
	if testing.Short() {
		seeds = 20
	}

	for seed := range seeds {
		t.Run(fmt.Sprintf("seed_%d", seed), func(t *testing.T) {
			assert := assert.New(t)

			g := &gen{
				rng:  rand.New(rand.NewPCG(uint64(seed), 0x5eed)),
				vars: []string{"a", "b", "c", "d"},
			}
			tree := g.program()

			input := make([]byte, g.rng.IntN(6))
			for n := range input {
				input[n] = g.byteValue()
			}

			ev, m, evOut, mOut, _, _ := run(t, tree, plainConfig(), input)
			assert.Equal(evOut, mOut)
			assert.Equal(ev.Cells, m.Cells)
		})
	}
}

func TestEquivalence_Parsed(t *testing.T) {
	src := strings.Join([]string{
		"n = 0; i = 5;",
		"while (i != 0) {",
		"  if (i == 3) { n = n + 10; } else if (i - 1 == 3) { n = n - 1; } else { n = n + i; }",
		"  i = i - 1;",
		"}",
		"msg = \"ok\";",
		"output(n); output(msg);",
	}, "\n")

	ev, m, evOut, mOut, _, _ := run(t, parse(t, src), plainConfig(), nil)
	assert.Equal(t, evOut, mOut)
	assert.Equal(t, ev.Cells, m.Cells)
	assert.Equal(t, string([]byte{5 + 10 - 1 + 2 + 1, compiler.VAR_LIMIT}), evOut)
}
