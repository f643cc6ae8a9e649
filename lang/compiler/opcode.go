package compiler

import "fmt"

// Version is bumped whenever the bytecode format changes, forcing
// recompilation of any saved .chc library (spec.md §6.4), mirroring the
// teacher's lang/compiler/opcode.go Version constant.
const Version = 0

// Opcode is a single cosh VM instruction. Grounded on the teacher's
// lang/compiler/opcode.go table and "stack picture" comment convention, but
// trimmed to cosh's concatenative semantics: there is no ATTR/SETFIELD (cosh
// has no objects), no CALL_VAR/kwargs (cosh calls take their arguments
// straight off the operand stack), and MAKESET/MAKEHASH/YIELD/MAKECELL are
// added for forms the teacher's language doesn't have.
type Opcode uint8

const ( //nolint:revive
	NOP Opcode = iota // - NOP -

	// stack operations (spec.md §4.5 core stack words)
	DUP   //     x DUP     x x
	POP   //     x POP     -
	SWAP  //   x y SWAP    y x
	OVER  //   x y OVER    x y x
	ROT   // x y z ROT     y z x
	NIP   //   x y NIP     y
	DEPTH //     - DEPTH   n
	CLEAR //   ... CLEAR   -

	// binary comparisons (order matches token.Kind relational grouping)
	LT
	LE
	GT
	GE
	EQL
	NEQ

	// binary arithmetic
	PLUS
	MINUS
	STAR
	SLASH
	SLASHSLASH
	PERCENT
	CIRCUMFLEX
	AMPERSAND
	PIPE
	TILDE
	LTLT
	GTGT

	// unary operators
	UMINUS // x UMINUS -x
	NOT    // x NOT    !x
	LEN    // x LEN    #x

	NULLV // - NULLV Null
	TRUEV // - TRUEV True
	FALSEV // - FALSEV False

	RETURN // value RETURN -
	YIELD  // value YIELD  -     valid only inside a generator chunk

	// --- opcodes with an argument must go below this line ---

	JMP  //    - JMP<addr>  -
	CJMP // cond CJMP<addr> -     pops cond, jumps if false

	CONSTANT //               - CONSTANT<const>     value
	MAKELIST //       x1 ... xn MAKELIST<n>         list
	MAKESET  //       x1 ... xn MAKESET<n>          set
	MAKEHASH // k1 v1 ... kn vn MAKEHASH<n>         hash   (n = pair count)
	MAKEFUNC //        cellvals MAKEFUNC<chunk>      fn     closure over captured cells

	LOCAL       //        - LOCAL<slot>        value
	SETLOCAL    //    value SETLOCAL<slot>     -
	CELL        //        - CELL<slot>         value   cell owned by the current frame
	SETCELL     //    value SETCELL<slot>      -
	MAKECELL    //        - MAKECELL<slot>     -      allocates a fresh heap cell at slot
	FREE        //        - FREE<freevar>      value   cell captured from an enclosing closure
	SETFREE     //    value SETFREE<freevar>   -
	LEXOUTER    //        - LEXOUTER<enc>       value  enc packs (depth<<16 | slot)
	SETLEXOUTER //    value SETLEXOUTER<enc>    -

	CALLBUILTIN // args... CALLBUILTIN<idx>  result...
	CALLGLOBAL  // args... CALLGLOBAL<idx>   result...
	CALLVALUE   //  fn args... CALLVALUE<argc> result...

	OpcodeArgMin = JMP
	OpcodeMax    = CALLVALUE
	opcodeJMPMin = JMP
	opcodeJMPMax = CJMP
)

var opcodeNames = [...]string{
	NOP: "nop",

	DUP: "dup", POP: "pop", SWAP: "swap", OVER: "over", ROT: "rot", NIP: "nip",
	DEPTH: "depth", CLEAR: "clear",

	LT: "lt", LE: "le", GT: "gt", GE: "ge", EQL: "eql", NEQ: "neq",

	PLUS: "plus", MINUS: "minus", STAR: "star", SLASH: "slash",
	SLASHSLASH: "slashslash", PERCENT: "percent", CIRCUMFLEX: "circumflex",
	AMPERSAND: "ampersand", PIPE: "pipe", TILDE: "tilde", LTLT: "ltlt", GTGT: "gtgt",

	UMINUS: "uminus", NOT: "not", LEN: "len",

	NULLV: "nullv", TRUEV: "truev", FALSEV: "falsev",

	RETURN: "return", YIELD: "yield",

	JMP: "jmp", CJMP: "cjmp",

	CONSTANT: "constant", MAKELIST: "makelist", MAKESET: "makeset",
	MAKEHASH: "makehash", MAKEFUNC: "makefunc",

	LOCAL: "local", SETLOCAL: "setlocal", CELL: "cell", SETCELL: "setcell",
	MAKECELL: "makecell", FREE: "free", SETFREE: "setfree",
	LEXOUTER: "lexouter", SETLEXOUTER: "setlexouter",

	CALLBUILTIN: "callbuiltin", CALLGLOBAL: "callglobal", CALLVALUE: "callvalue",
}

func isJump(op Opcode) bool { return opcodeJMPMin <= op && op <= opcodeJMPMax }

func (op Opcode) String() string {
	if op <= OpcodeMax {
		if name := opcodeNames[op]; name != "" {
			return name
		}
	}
	return fmt.Sprintf("illegal op (%d)", op)
}

// EncodeLexOuter packs a lexical-chain depth and slot index into the single
// uint32 argument carried by LEXOUTER/SETLEXOUTER.
func EncodeLexOuter(depth, slot int) uint32 { return uint32(depth)<<16 | uint32(slot&0xffff) }

// DecodeLexOuter reverses EncodeLexOuter.
func DecodeLexOuter(enc uint32) (depth, slot int) { return int(enc >> 16), int(enc & 0xffff) }
