package lang

import (
	"errors"
	"fmt"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

var (
	ErrConstExprResult = errors.New(f("result is not an integer"))
)

// constEval does compile-time $(...) evaluations.
func (p *Parser) constEval(expr string) (value int, err error) {
	thread := starlark.Thread{Name: "constexpr"}
	opts := syntax.FileOptions{}
	pred := starlark.StringDict{}
	for key, v := range p.Equate {
		pred[key] = starlark.MakeInt(v)
	}

	prog := "rc=" + expr + "\n"
	dict, err := starlark.ExecFileOptions(&opts, &thread, "expr", prog, pred)
	if err != nil {
		return
	}

	switch rc := dict["rc"].(type) {
	case starlark.Int:
		v64, ok := rc.Int64()
		if !ok {
			err = ErrConstExprResult
			return
		}
		value = int(v64)
	case starlark.Bool:
		if rc {
			value = 1
		}
	default:
		err = fmt.Errorf("%w: %v", ErrConstExprResult, dict["rc"])
	}

	return
}
