package machine

import "github.com/tomhrr/cosh/lang/compiler"

// Frame is one activation of a Chunk: its local slots and a dynamic link to
// the frame that lexically encloses it. The resolver assigns Local and Cell
// bindings from the same slot counter (lang/resolver's Scope.NumLocals), so
// a single Locals slice, sized NumLocals, holds both: a Local slot holds its
// Value directly, a Cell slot holds a *Cell that MAKECELL allocates on first
// execution and CELL/SETCELL dereference. Named nested Defines are resolved
// through Parent at call time (LEXOUTER/SETLEXOUTER walk Depth hops up this
// chain); closures never use Parent — they carry their captured Cells
// directly in Function.Freevars instead.
type Frame struct {
	Chunk  *compiler.Chunk
	Fn     *Function
	Locals []Value
	Parent *Frame
	pc     int
}

func newFrame(ch *compiler.Chunk, fn *Function, parent *Frame) *Frame {
	return &Frame{
		Chunk:  ch,
		Fn:     fn,
		Locals: make([]Value, ch.NumLocals),
		Parent: parent,
	}
}

// lexicalOuter walks depth hops of Parent links and returns the frame whose
// own locals/cells the LEXOUTER/SETLEXOUTER operand addresses.
func (fr *Frame) lexicalOuter(depth int) *Frame {
	cur := fr
	for i := 0; i < depth; i++ {
		if cur.Parent == nil {
			return nil
		}
		cur = cur.Parent
	}
	return cur
}
