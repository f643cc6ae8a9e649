package machine

import (
	"fmt"

	"github.com/tomhrr/cosh/lang/compiler"
)

// Function is a callable value backed by a compiled Chunk: either a named
// top-level definition, an anonymous closure with captured Freevars, or a
// generator template (spec.md §5, §9). Grounded on the teacher's
// function.go/Module split, collapsed here since cosh has a single
// compiler.Program per run rather than a module system.
type Function struct {
	Chunk    *compiler.Chunk
	Freevars []*Cell
}

var (
	_ Value    = (*Function)(nil)
	_ Callable = (*Function)(nil)
)

func (fn *Function) String() string { return fmt.Sprintf("function(%s)", fn.Name()) }
func (*Function) Type() string      { return "function" }

func (fn *Function) Name() string {
	if fn.Chunk.Name == "" {
		return "anonymous"
	}
	return fn.Chunk.Name
}

func (fn *Function) Call(th *Thread, args []Value) ([]Value, error) {
	if fn.Chunk.Kind == compiler.GeneratorChunk {
		return []Value{NewGenerator(th, fn, args)}, nil
	}
	return th.runChunk(fn, args)
}
