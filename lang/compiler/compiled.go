package compiler

// ChunkKind distinguishes the four kinds of compiled code units, mirroring
// the resolver.ScopeKind they are built from.
type ChunkKind int8

const (
	TopLevelChunk ChunkKind = iota
	FunctionChunk
	ClosureChunk
	GeneratorChunk
)

// Chunk is the compiled code of one program unit: the top-level script, a
// named Define, an anonymous Closure, or a GeneratorDefine body. Renamed from
// the teacher's Funcode (spec.md has no per-function source position table
// worth keeping since cosh has no exceptions/defer blocks to report against).
type Chunk struct {
	Prog *Program
	Kind ChunkKind
	Name string // empty for Closure and the top-level chunk
	Code []byte

	NumLocals int
	NumCells  int // how many of the first NumLocals slots are cell-backed

	// Captures lists, for a ClosureChunk, the enclosing frame's local cell
	// slots that must be pushed (via CELL) immediately before MAKEFUNC, in
	// freevar-index order; empty for every other ChunkKind.
	Captures []int

	// MaxAccepted/MinRequired are the generator arity bounds from
	// ":~ NAME max req … ,," (spec.md §4.5); unused for non-generator chunks.
	MaxAccepted int
	MinRequired int
}

// Program is a whole compiled cosh unit: the shared constant pool plus every
// Chunk reachable from Toplevel, grounded on the teacher's compiler.Program
// (Loads/Names/Constants shared across Funcodes).
type Program struct {
	Constants []Constant
	Chunks    []*Chunk
	Toplevel  *Chunk

	// Builtins and Globals are name tables resolved once at link time so
	// CALLBUILTIN/CALLGLOBAL instructions carry a plain index. GlobalChunks
	// is parallel to Globals; CALLGLOBAL<i> runs GlobalChunks[i].
	Builtins     []string
	Globals      []string
	GlobalChunks []*Chunk
}

// ConstKind identifies the representation of a pooled constant.
type ConstKind int8

const (
	ConstInt ConstKind = iota
	ConstBigInt
	ConstFloat
	ConstString
	ConstNull
	ConstBool
)

// Constant is a compile-time literal value. It intentionally does not import
// lang/machine's Value representation to avoid a dependency cycle (machine
// imports compiler to execute Chunks); lang/machine converts a Constant to
// its own Value when a Program is loaded.
type Constant struct {
	Kind  ConstKind
	Int   int64
	Big   string // base-10 text, parsed with math/big on load
	Float float64
	Str   string
	Bool  bool
}
