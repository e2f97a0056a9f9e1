package lang

import (
	"fmt"
	"strings"
)

// Node is any element of the syntax tree.
type Node interface {
	Position() Pos
}

// Expr is a node that produces a byte value.
type Expr interface {
	Node
	String() string
	expr()
}

// Stmt is a node executed for effect.
type Stmt interface {
	Node
	String() string
	stmt()
}

// Number is a byte constant.
type Number struct {
	Pos
	Value byte
}

// String is a literal whose value is the tape address of its bytes.
type String struct {
	Pos
	Value string
}

// Bytes is a byte array literal whose value is the tape address of its bytes.
type Bytes struct {
	Pos
	Value []byte
}

// Var is a variable reference.
type Var struct {
	Pos
	Name string
}

// Add is Left + Right, modulo 256.
type Add struct {
	Pos
	Left, Right Expr
}

// Sub is Left - Right, modulo 256.
type Sub struct {
	Pos
	Left, Right Expr
}

// Eq is 1 if Left == Right, else 0.
type Eq struct {
	Pos
	Left, Right Expr
}

// Ne is 1 if Left != Right, else 0.
type Ne struct {
	Pos
	Left, Right Expr
}

// Lt is 1 if Left < Right, else 0. Le, Gt and Ge are the other unsigned
// orderings.
type Lt struct {
	Pos
	Left, Right Expr
}

type Le struct {
	Pos
	Left, Right Expr
}

type Gt struct {
	Pos
	Left, Right Expr
}

type Ge struct {
	Pos
	Left, Right Expr
}

// Syscall invokes a host system call. Its value is the low byte of the result.
type Syscall struct {
	Pos
	Id   Expr
	Args []Expr
}

// Assign stores Value into the variable Name.
type Assign struct {
	Pos
	Name  string
	Value Expr
}

// If runs Then when Cond is non-zero. Else is nil, a *Block, or an *If.
type If struct {
	Pos
	Cond Expr
	Then *Block
	Else Stmt
}

// While runs Body while Cond is non-zero.
type While struct {
	Pos
	Cond Expr
	Body *Block
}

// Output writes the byte value of Value to the console.
type Output struct {
	Pos
	Value Expr
}

// Input reads one console byte into the variable Name.
type Input struct {
	Pos
	Name string
}

// Block is a statement sequence.
type Block struct {
	Pos
	Stmts []Stmt
}

func (*Number) expr()  {}
func (*String) expr()  {}
func (*Bytes) expr()   {}
func (*Var) expr()     {}
func (*Add) expr()     {}
func (*Sub) expr()     {}
func (*Eq) expr()      {}
func (*Ne) expr()      {}
func (*Lt) expr()      {}
func (*Le) expr()      {}
func (*Gt) expr()      {}
func (*Ge) expr()      {}
func (*Syscall) expr() {}

func (*Syscall) stmt() {}
func (*Assign) stmt()  {}
func (*If) stmt()      {}
func (*While) stmt()   {}
func (*Output) stmt()  {}
func (*Input) stmt()   {}
func (*Block) stmt()   {}

func (n *Number) String() string { return fmt.Sprintf("%d", n.Value) }
func (n *String) String() string { return fmt.Sprintf("%q", n.Value) }
func (n *Var) String() string    { return n.Name }
func (n *Add) String() string    { return fmt.Sprintf("(%v + %v)", n.Left, n.Right) }
func (n *Sub) String() string    { return fmt.Sprintf("(%v - %v)", n.Left, n.Right) }
func (n *Eq) String() string     { return fmt.Sprintf("(%v == %v)", n.Left, n.Right) }
func (n *Ne) String() string     { return fmt.Sprintf("(%v != %v)", n.Left, n.Right) }
func (n *Lt) String() string     { return fmt.Sprintf("(%v < %v)", n.Left, n.Right) }
func (n *Le) String() string     { return fmt.Sprintf("(%v <= %v)", n.Left, n.Right) }
func (n *Gt) String() string     { return fmt.Sprintf("(%v > %v)", n.Left, n.Right) }
func (n *Ge) String() string     { return fmt.Sprintf("(%v >= %v)", n.Left, n.Right) }

func (n *Bytes) String() string {
	words := make([]string, len(n.Value))
	for i, b := range n.Value {
		words[i] = fmt.Sprintf("%d", b)
	}
	return "[" + strings.Join(words, ", ") + "]"
}

func (n *Syscall) String() string {
	words := []string{n.Id.String()}
	for _, arg := range n.Args {
		words = append(words, arg.String())
	}
	return "syscall(" + strings.Join(words, ", ") + ")"
}

func (n *Assign) String() string { return fmt.Sprintf("%v = %v", n.Name, n.Value) }
func (n *If) String() string     { return fmt.Sprintf("if %v", n.Cond) }
func (n *While) String() string  { return fmt.Sprintf("while %v", n.Cond) }
func (n *Output) String() string { return fmt.Sprintf("output %v", n.Value) }
func (n *Input) String() string  { return fmt.Sprintf("input %v", n.Name) }
func (n *Block) String() string  { return fmt.Sprintf("block of %d", len(n.Stmts)) }

// Walk visits node and its descendants depth first, in source order. It
// stops descending into a node when visit returns false.
func Walk(node Node, visit func(Node) bool) {
	if node == nil || !visit(node) {
		return
	}

	switch n := node.(type) {
	case *Add:
		Walk(n.Left, visit)
		Walk(n.Right, visit)
	case *Sub:
		Walk(n.Left, visit)
		Walk(n.Right, visit)
	case *Eq:
		Walk(n.Left, visit)
		Walk(n.Right, visit)
	case *Ne:
		Walk(n.Left, visit)
		Walk(n.Right, visit)
	case *Lt:
		Walk(n.Left, visit)
		Walk(n.Right, visit)
	case *Le:
		Walk(n.Left, visit)
		Walk(n.Right, visit)
	case *Gt:
		Walk(n.Left, visit)
		Walk(n.Right, visit)
	case *Ge:
		Walk(n.Left, visit)
		Walk(n.Right, visit)
	case *Syscall:
		Walk(n.Id, visit)
		for _, arg := range n.Args {
			Walk(arg, visit)
		}
	case *Assign:
		Walk(n.Value, visit)
	case *If:
		Walk(n.Cond, visit)
		Walk(n.Then, visit)
		if n.Else != nil {
			Walk(n.Else, visit)
		}
	case *While:
		Walk(n.Cond, visit)
		Walk(n.Body, visit)
	case *Output:
		Walk(n.Value, visit)
	case *Block:
		for _, stmt := range n.Stmts {
			Walk(stmt, visit)
		}
	}
}

// HasSyscall reports whether an expression contains a system call.
func HasSyscall(expr Expr) (found bool) {
	Walk(expr, func(node Node) bool {
		if _, ok := node.(*Syscall); ok {
			found = true
		}
		return !found
	})
	return
}
