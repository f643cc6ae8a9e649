// Package compiler lowers a resolved ast.Form tree into bytecode Chunks
// (spec.md §4.2). Grounded on the teacher's lang/compiler/compiler.go
// single-pass AST walk emitting directly into a growing Code []byte slice,
// with a patch-list approach for forward jumps; simplified because cosh has
// no expression precedence, kwargs, or exception handling to lower.
package compiler

import (
	"encoding/binary"
	"fmt"

	"github.com/tomhrr/cosh/lang/ast"
	"github.com/tomhrr/cosh/lang/resolver"
	"github.com/tomhrr/cosh/lang/token"
)

// Error is a compile-time failure tied to a source position.
type Error struct {
	Pos token.Position
	Msg string
}

func (e *Error) Error() string { return fmt.Sprintf("%s: %s", e.Pos, e.Msg) }

type compiler struct {
	prog *Program
	res  *resolver.Result

	constIndex   map[Constant]int
	builtinIndex map[string]int
	globalIndex  map[string]int
	nodeToChunk  map[ast.Form]*Chunk
	err          error
}

// Compile lowers a fully parsed and resolved program into a Program of
// bytecode Chunks, with Program.Toplevel as the entry point.
func Compile(forms []ast.Form, res *resolver.Result) (*Program, error) {
	c := &compiler{
		prog:         &Program{},
		res:          res,
		constIndex:   map[Constant]int{},
		builtinIndex: map[string]int{},
		globalIndex:  map[string]int{},
		nodeToChunk:  map[ast.Form]*Chunk{},
	}

	top := c.newChunk(TopLevelChunk, "")
	top.NumLocals = res.TopLevel.NumLocals
	top.NumCells = res.TopLevel.NumCells
	c.prog.Toplevel = top

	c.prescan(forms)
	if c.err != nil {
		return nil, c.err
	}

	cw := &chunkWriter{chunk: top}
	c.compileSeq(cw, res.TopLevel, forms)
	cw.emit(RETURN)
	if c.err != nil {
		return nil, c.err
	}
	return c.prog, nil
}

// prescan registers every Define/GeneratorDefine chunk (recursively, at any
// nesting depth) before any body is compiled, so forward references within
// the same file resolve correctly (spec.md §4.4).
func (c *compiler) prescan(forms []ast.Form) {
	for _, f := range forms {
		switch n := f.(type) {
		case *ast.Define:
			c.registerGlobal(n.Name, FunctionChunk, n)
			c.prescan(n.Body)
		case *ast.GeneratorDefine:
			c.registerGlobal(n.Name, GeneratorChunk, n)
			c.prescan(n.Body)
		case *ast.If:
			c.prescan(n.Then)
			c.prescan(n.Else)
		case *ast.Begin:
			c.prescan(n.Body)
		case *ast.ListLit:
			c.prescan(n.Elems)
		case *ast.SetLit:
			c.prescan(n.Elems)
		case *ast.HashLit:
			c.prescan(n.Elems)
		case *ast.Closure:
			c.prescan(n.Body)
		}
	}
}

func (c *compiler) registerGlobal(name string, kind ChunkKind, node ast.Form) {
	scope := c.res.Scopes[node]
	chunk := c.newChunk(kind, name)
	if scope != nil {
		chunk.NumLocals = scope.NumLocals
		chunk.NumCells = scope.NumCells
	}
	if gd, ok := node.(*ast.GeneratorDefine); ok {
		chunk.MaxAccepted = gd.Max
		chunk.MinRequired = gd.Req
	}
	// A later Define/GeneratorDefine with a name already seen shadows the
	// earlier one: the Globals slot is reused so every CALLGLOBAL reference
	// (forward or backward) reaches the latest definition, matching how a
	// re-":"  redefinition behaves in an interactive session.
	if idx, ok := c.globalIndex[name]; ok {
		c.prog.GlobalChunks[idx] = chunk
	} else {
		idx = len(c.prog.Globals)
		c.prog.Globals = append(c.prog.Globals, name)
		c.prog.GlobalChunks = append(c.prog.GlobalChunks, chunk)
		c.globalIndex[name] = idx
	}
	c.nodeToChunk[node] = chunk
}

func (c *compiler) newChunk(kind ChunkKind, name string) *Chunk {
	chunk := &Chunk{Prog: c.prog, Kind: kind, Name: name}
	c.prog.Chunks = append(c.prog.Chunks, chunk)
	return chunk
}

func (c *compiler) fail(pos token.Position, format string, args ...any) {
	if c.err == nil {
		c.err = &Error{Pos: pos, Msg: fmt.Sprintf(format, args...)}
	}
}

func (c *compiler) builtinIdx(name string) uint32 {
	if idx, ok := c.builtinIndex[name]; ok {
		return uint32(idx)
	}
	idx := len(c.prog.Builtins)
	c.prog.Builtins = append(c.prog.Builtins, name)
	c.builtinIndex[name] = idx
	return uint32(idx)
}

func (c *compiler) constIdx(k Constant) uint32 {
	if idx, ok := c.constIndex[k]; ok {
		return uint32(idx)
	}
	idx := len(c.prog.Constants)
	c.prog.Constants = append(c.prog.Constants, k)
	c.constIndex[k] = idx
	return uint32(idx)
}

// chunkWriter accumulates bytecode for one Chunk, with a stack of pending
// "leave" patch lists — one per enclosing Begin/until loop — so a "leave"
// form deep inside nested loops always jumps out of the innermost one
// (spec.md §4.2).
type chunkWriter struct {
	chunk      *Chunk
	leaveStack [][]int
}

func (w *chunkWriter) emit(op Opcode) {
	w.chunk.Code = append(w.chunk.Code, byte(op))
}

func (w *chunkWriter) emitArg(op Opcode, arg uint32) {
	w.chunk.Code = append(w.chunk.Code, byte(op))
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], arg)
	w.chunk.Code = append(w.chunk.Code, buf[:]...)
}

// emitJump writes op followed by a placeholder 4-byte target and returns the
// byte offset of that placeholder, to be filled in later by patchHere.
func (w *chunkWriter) emitJump(op Opcode) int {
	w.chunk.Code = append(w.chunk.Code, byte(op), 0, 0, 0, 0)
	return len(w.chunk.Code) - 4
}

func (w *chunkWriter) patchHere(patchPos int) { w.patchTo(patchPos, len(w.chunk.Code)) }

func (w *chunkWriter) patchTo(patchPos, target int) {
	binary.BigEndian.PutUint32(w.chunk.Code[patchPos:patchPos+4], uint32(target))
}

func (w *chunkWriter) here() int { return len(w.chunk.Code) }

// compileSeq emits the code for one flat form sequence (a chunk body, an if
// branch, or a loop body) evaluated under scope.
func (c *compiler) compileSeq(cw *chunkWriter, scope *resolver.Scope, forms []ast.Form) {
	for i := 0; i < len(forms); i++ {
		if c.err != nil {
			return
		}
		f := forms[i]
		if w, ok := f.(*ast.Word); ok {
			if isVarOperandNameAt(forms, i) {
				continue // consumed by the following var/varm/@/! word, see below
			}
			if isGetSetKeyNameAt(forms, i) {
				cw.emitArg(CONSTANT, c.constIdx(Constant{Kind: ConstString, Str: w.Name}))
				continue
			}
		}
		switch n := f.(type) {
		case *ast.Literal:
			c.compileLiteral(cw, n)
		case *ast.Word:
			c.compileWord(cw, scope, n)
		case *ast.ListLit:
			c.compileSeq(cw, scope, n.Elems)
			cw.emitArg(MAKELIST, uint32(len(n.Elems)))
		case *ast.SetLit:
			c.compileSeq(cw, scope, n.Elems)
			cw.emitArg(MAKESET, uint32(len(n.Elems)))
		case *ast.HashLit:
			c.compileHashElems(cw, scope, n.Elems)
			cw.emitArg(MAKEHASH, uint32(len(n.Elems)/2))
		case *ast.Closure:
			c.compileClosure(cw, n)
		case *ast.Define:
			c.compileNamedChunk(n, n.Body)
		case *ast.GeneratorDefine:
			c.compileNamedChunk(n, n.Body)
		case *ast.If:
			c.compileIf(cw, scope, n)
		case *ast.Begin:
			c.compileBegin(cw, scope, n)
		case *ast.Leave:
			if len(cw.leaveStack) == 0 {
				c.fail(n.Pos(), "leave outside of a begin/until loop")
				return
			}
			pos := cw.emitJump(JMP)
			top := len(cw.leaveStack) - 1
			cw.leaveStack[top] = append(cw.leaveStack[top], pos)
		case *ast.Return:
			cw.emit(RETURN)
		case *ast.Yield:
			cw.emit(YIELD)
		default:
			c.fail(f.Pos(), "unhandled form %T", f)
		}
	}
}

// isVarOperandNameAt reports whether forms[i] is the name operand consumed by
// a following var/varm/@/! word (spec.md §4.3), mirroring the resolver's
// precedingName check from the opposite direction.
func isVarOperandNameAt(forms []ast.Form, i int) bool {
	if i+1 >= len(forms) {
		return false
	}
	next, ok := forms[i+1].(*ast.Word)
	if !ok {
		return false
	}
	switch next.Name {
	case "var", "varm", "@", "!":
		return true
	}
	return false
}

// isGetSetKeyNameAt reports whether forms[i] is a bareword standing in key
// position for a following "get" or "set". A word in this position is always
// compiled as an implicit string key, even when it also names a core op,
// global or built-in; spec.md's own hash scenarios
// (S4: `b get`, `c 3 set`) use it as an implicit string key, the same
// convention compileHashElems already applies inside h(...) literals.
//
// "get" is arity 2 (container key -- value), so its key sits immediately
// before the word itself. "set" is arity 3 (container key value -- container),
// so its key sits two forms back, with the value form in between.
func isGetSetKeyNameAt(forms []ast.Form, i int) bool {
	if i+1 < len(forms) {
		if next, ok := forms[i+1].(*ast.Word); ok && next.Name == "get" {
			return true
		}
	}
	if i+2 < len(forms) {
		if next, ok := forms[i+2].(*ast.Word); ok && next.Name == "set" {
			return true
		}
	}
	return false
}

// compileHashElems compiles a HashLit's key/value pairs, auto-quoting a bare
// Word in key position as a string constant instead of compiling it as a
// word reference: `h(a 1 b 2)` keys the hash with the strings "a"/"b", the
// same bareword-key convention the spec's own hash-literal scenarios use,
// rather than forcing every hash literal to spell its keys as `h("a" 1 ...)`.
// Anything else in key position (a string literal, a parenthesized
// expression) compiles normally.
func (c *compiler) compileHashElems(cw *chunkWriter, scope *resolver.Scope, elems []ast.Form) {
	for i, f := range elems {
		if i%2 == 0 {
			if w, ok := f.(*ast.Word); ok {
				cw.emitArg(CONSTANT, c.constIdx(Constant{Kind: ConstString, Str: w.Name}))
				continue
			}
		}
		c.compileSeq(cw, scope, []ast.Form{f})
	}
}

func (c *compiler) compileLiteral(cw *chunkWriter, lit *ast.Literal) {
	switch lit.Kind {
	case token.INT:
		n, bigLit, overflow := parseInt(lit.Lit)
		if overflow {
			cw.emitArg(CONSTANT, c.constIdx(Constant{Kind: ConstBigInt, Big: bigLit}))
		} else {
			cw.emitArg(CONSTANT, c.constIdx(Constant{Kind: ConstInt, Int: n}))
		}
	case token.FLOAT:
		f, _ := parseFloat(lit.Lit)
		cw.emitArg(CONSTANT, c.constIdx(Constant{Kind: ConstFloat, Float: f}))
	case token.STRING:
		cw.emitArg(CONSTANT, c.constIdx(Constant{Kind: ConstString, Str: lit.Lit}))
	case token.IDENT:
		switch lit.Lit {
		case ".t":
			cw.emit(TRUEV)
		case ".f":
			cw.emit(FALSEV)
		case "null":
			cw.emit(NULLV)
		default:
			c.fail(lit.Pos(), "unrecognized literal %q", lit.Lit)
		}
	default:
		c.fail(lit.Pos(), "unrecognized literal kind %v", lit.Kind)
	}
}

// compileWord handles one bare Word, including the var/varm/@/! idiom, whose
// name operand was a Word immediately preceding it (already skipped in
// compileSeq's loop above).
func (c *compiler) compileWord(cw *chunkWriter, scope *resolver.Scope, w *ast.Word) {
	switch w.Name {
	case ";":
		return // bare statement separator, no-op
	case "var", "varm":
		b, ok := c.res.Decl[w]
		if !ok {
			c.fail(w.Pos(), "%q with no preceding variable name", w.Name)
			return
		}
		if b.Kind == resolver.Cell {
			cw.emitArg(MAKECELL, uint32(b.Slot))
		}
		return
	case "@":
		b, ok := c.res.Refs[w]
		if !ok {
			c.fail(w.Pos(), "@ with no preceding variable name")
			return
		}
		c.compileLoad(cw, scope, w, b)
		return
	case "!":
		b, ok := c.res.Refs[w]
		if !ok {
			c.fail(w.Pos(), "! with no preceding variable name")
			return
		}
		c.compileStore(cw, scope, w, b)
		return
	}

	if op, ok := coreWordOpcodes[w.Name]; ok {
		cw.emit(op)
		return
	}

	if w.Name == "funcall" {
		// funcall drives the otherwise-unreachable CALLVALUE opcode
		// directly (spec.md §4.3, §9): "fn arg funcall" pops the argument,
		// then the Callable beneath it, and invokes it through the same
		// Callable.Call path built-ins like "map" already use internally.
		// Fixed at one argument, the same convention "map" uses for its
		// own per-element calls.
		cw.emitArg(CALLVALUE, 1)
		return
	}

	if c.res.Globals[w.Name] {
		idx, ok := c.globalIndex[w.Name]
		if !ok {
			c.fail(w.Pos(), "internal error: global %q missing from prescan", w.Name)
			return
		}
		cw.emitArg(CALLGLOBAL, uint32(idx))
		return
	}
	if builtinNames[w.Name] {
		cw.emitArg(CALLBUILTIN, c.builtinIdx(w.Name))
		return
	}
	// spec.md §4.2: a bare word that isn't a recognized form lowers to
	// PUSH_STRING, not a call — only a word statically known to resolve
	// (a declared global, or a name in the built-in registry) is a call.
	// Everything else is data, e.g. spec.md §8 scenario S6's `asdf` regex
	// subject, which has no built-in of that name.
	cw.emitArg(CONSTANT, c.constIdx(Constant{Kind: ConstString, Str: w.Name}))
}

// builtinNames lists every name internal/builtins.Registry registers.
// lang/compiler cannot import internal/builtins directly: internal/builtins
// imports lang/machine, and lang/machine imports lang/compiler, so the
// reverse import would cycle. Kept in sync by hand, the same way
// coreWordOpcodes above hand-lists the VM's dedicated opcodes.
var builtinNames = map[string]bool{
	"add": true, "c": true, "clone": true, "contains": true,
	"db-exec": true, "db-open": true, "db-query": true, "difference": true,
	"empty": true, "exists": true, "exit": true, "format-time": true,
	"from-json": true, "get": true, "has": true,
	"haskey": true, "hdel": true, "hget": true, "hset": true,
	"http-get": true, "http-get-json": true, "http-get-yaml": true,
	"interactive?": true, "intersection": true, "ip-in-prefix": true,
	"ip-parse": true, "join": true, "keys": true, "kill": true, "lower": true,
	"ls": true, "map": true, "match": true, "now": true, "parse-time": true,
	"pfor": true, "pforn": true, "pgrepn": true, "pick": true, "pmap": true,
	"pop": true, "print": true, "println": true, "push": true, "r": true,
	"re-replace": true, "re-split": true, "read-file": true, "read-line": true,
	"remove": true, "replace": true, "reverse": true, "run": true,
	"run-bg": true, "run-gen": true, "set": true, "shift": true, "sort": true,
	"split": true, "status": true, "take": true, "take-all": true,
	"to-float": true, "to-int": true, "to-json": true, "to-string": true,
	"trim": true, "tuck": true, "union": true, "unshift": true, "upper": true,
	"uuid": true, "values": true, "write-file": true,
}

// coreWordOpcodes maps the handful of stack, arithmetic and relational words
// that always mean the same dedicated instruction (spec.md §4.5's core
// vocabulary) straight to an Opcode, bypassing the builtin registry
// indirection. compileWord checks this table before globals and built-ins,
// so a Define named like one of these words (e.g. "len") does not shadow
// it; a word found in none of the tables is pushed as a string.
var coreWordOpcodes = map[string]Opcode{
	"dup": DUP, "drop": POP, "swap": SWAP, "over": OVER,
	"rot": ROT, "nip": NIP, "depth": DEPTH, "clear": CLEAR,

	"+": PLUS, "-": MINUS, "*": STAR, "/": SLASH, "//": SLASHSLASH,
	"%": PERCENT, "^": CIRCUMFLEX, "&": AMPERSAND, "|": PIPE, "~": TILDE,
	"<<": LTLT, ">>": GTGT,

	"<": LT, "<=": LE, ">": GT, ">=": GE, "=": EQL, "!=": NEQ,

	"not": NOT, "len": LEN,
}

func (c *compiler) compileLoad(cw *chunkWriter, scope *resolver.Scope, w *ast.Word, b *resolver.Binding) {
	switch b.Kind {
	case resolver.Local:
		cw.emitArg(LOCAL, uint32(b.Slot))
	case resolver.Cell:
		if _, mine := scope.Owns(b.Name); mine {
			cw.emitArg(CELL, uint32(b.Slot))
		} else {
			cw.emitArg(FREE, uint32(cw.chunk.freevarIndex(b.Slot)))
		}
	case resolver.LexicalOuter:
		cw.emitArg(LEXOUTER, EncodeLexOuter(b.Depth, b.Slot))
	case resolver.Builtin:
		// No local/cell/lexical binding for this name anywhere in scope
		// (spec.md §3.5's lookup order falls through to the built-in
		// registry last); the dynamic CALLBUILTIN lookup at run time raises
		// UnknownName when nothing is registered under it either, which is
		// how `x @` fails once `x`'s owning function has returned (spec.md
		// §8 invariant 6).
		cw.emitArg(CALLBUILTIN, c.builtinIdx(b.Name))
	default:
		c.fail(w.Pos(), "cannot load %q: unexpected binding kind %v", b.Name, b.Kind)
	}
}

func (c *compiler) compileStore(cw *chunkWriter, scope *resolver.Scope, w *ast.Word, b *resolver.Binding) {
	switch b.Kind {
	case resolver.Local:
		cw.emitArg(SETLOCAL, uint32(b.Slot))
	case resolver.Cell:
		if _, mine := scope.Owns(b.Name); mine {
			cw.emitArg(SETCELL, uint32(b.Slot))
		} else {
			cw.emitArg(SETFREE, uint32(cw.chunk.freevarIndex(b.Slot)))
		}
	case resolver.LexicalOuter:
		cw.emitArg(SETLEXOUTER, EncodeLexOuter(b.Depth, b.Slot))
	default:
		c.fail(w.Pos(), "cannot store %q: unexpected binding kind %v", b.Name, b.Kind)
	}
}

// freevarIndex returns the freevar slot assigned to an enclosing-frame cell
// slot, assigning a new one on first use. Only meaningful for ClosureChunks;
// the index order here must match compileClosure's capture-push order, which
// is why both sides share this same lazily-growing table.
func (ch *Chunk) freevarIndex(enclosingSlot int) int {
	for i, s := range ch.Captures {
		if s == enclosingSlot {
			return i
		}
	}
	idx := len(ch.Captures)
	ch.Captures = append(ch.Captures, enclosingSlot)
	return idx
}

// compileClosure compiles a "[ … ]" literal into its own Chunk and emits the
// MAKEFUNC instruction that builds the runtime closure value (spec.md §4.4).
// Captured cells are discovered lazily: compiling the closure body first
// populates chunk.Captures (via Chunk.freevarIndex) as each captured name is
// encountered, then the enclosing writer emits CELL for each of those slots
// in order immediately before MAKEFUNC, pushing each cell's current value;
// MAKEFUNC boxes each value in a new Cell owned by the closure.
func (c *compiler) compileClosure(cw *chunkWriter, n *ast.Closure) {
	scope := c.res.Scopes[n]
	chunk := c.newChunk(ClosureChunk, "")
	chunkIdx := len(c.prog.Chunks) - 1 // stable: later appends never move earlier entries
	if scope != nil {
		chunk.NumLocals = scope.NumLocals
		chunk.NumCells = scope.NumCells
	}
	body := &chunkWriter{chunk: chunk}
	c.compileSeq(body, scope, n.Body)
	body.emit(RETURN)

	for _, slot := range chunk.Captures {
		cw.emitArg(CELL, uint32(slot))
	}
	cw.emitArg(MAKEFUNC, uint32(chunkIdx))
}

// compileNamedChunk compiles the body of a Define/GeneratorDefine into the
// Chunk that prescan already registered for it.
func (c *compiler) compileNamedChunk(node ast.Form, body []ast.Form) {
	chunk, ok := c.nodeToChunk[node]
	if !ok {
		c.fail(node.Pos(), "internal error: chunk not prescanned")
		return
	}
	scope := c.res.Scopes[node]
	w := &chunkWriter{chunk: chunk}
	c.compileSeq(w, scope, body)
	w.emit(RETURN)
}

// compileIf lowers "if; THEN [else; ELSE] then;": CJMP skips THEN when the
// condition is false, and an unconditional JMP at the end of THEN skips over
// ELSE (spec.md §4.2).
func (c *compiler) compileIf(cw *chunkWriter, scope *resolver.Scope, n *ast.If) {
	cjmp := cw.emitJump(CJMP)
	c.compileSeq(cw, scope, n.Then)
	if len(n.Else) == 0 {
		cw.patchHere(cjmp)
		return
	}
	skipElse := cw.emitJump(JMP)
	cw.patchHere(cjmp)
	c.compileSeq(cw, scope, n.Else)
	cw.patchHere(skipElse)
}

// compileBegin lowers "begin; BODY until;": BODY runs, pops a bool, and CJMP
// loops back to the start while that bool is false; "leave" anywhere inside
// BODY jumps past the loop instead (spec.md §4.2, §9).
func (c *compiler) compileBegin(cw *chunkWriter, scope *resolver.Scope, n *ast.Begin) {
	cw.leaveStack = append(cw.leaveStack, nil)
	start := cw.here()
	c.compileSeq(cw, scope, n.Body)
	back := cw.emitJump(CJMP)
	cw.patchTo(back, start)
	end := cw.here()

	top := len(cw.leaveStack) - 1
	for _, patch := range cw.leaveStack[top] {
		cw.patchTo(patch, end)
	}
	cw.leaveStack = cw.leaveStack[:top]
}
