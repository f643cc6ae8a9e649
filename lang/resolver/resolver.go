// Package resolver walks the parsed ast.Form tree and assigns every variable
// reference to a storage class (spec.md §4.3, §4.4, §9 "Closures vs nested
// functions"). It plays the role of the teacher's lang/resolver package —
// static scope/slot assignment ahead of bytecode emission — but cosh has two
// distinct nesting mechanisms where the teacher had one:
//
//   - A Closure ("[ … ]") truly captures enclosing locals: a captured name is
//     promoted to a heap Cell in its owning scope, and the closure gets a
//     Cell of its own holding that value when it is made (spec.md §4.4).
//   - A named nested Define sees an enclosing Define's locals only through a
//     lexical-parent chain resolved at call time; it never captures, so no
//     Cell is allocated for it (spec.md §9).
//
// The teacher's resolver has no analogue for the second mechanism, so it is
// grounded only in spec.md itself (documented as Open Question O5 in
// DESIGN.md) rather than in a specific teacher file.
package resolver

import (
	"fmt"

	"github.com/tomhrr/cosh/lang/ast"
	"github.com/tomhrr/cosh/lang/token"
)

// BindingKind classifies how a variable reference is satisfied at runtime.
type BindingKind int8

const (
	Local BindingKind = iota
	Cell
	LexicalOuter
	Global
	Builtin
)

func (k BindingKind) String() string {
	switch k {
	case Local:
		return "local"
	case Cell:
		return "cell"
	case LexicalOuter:
		return "lexical-outer"
	case Global:
		return "global"
	case Builtin:
		return "builtin"
	default:
		return "unknown"
	}
}

// Binding records the resolution of one variable name within a Scope.
type Binding struct {
	Kind BindingKind
	Name string
	Slot int // meaningful for Local, Cell and LexicalOuter
	// Depth is the number of Define/GeneratorDefine scope boundaries crossed
	// to reach the declaring scope; meaningful for LexicalOuter only, where
	// it tells the VM how many dynamic lexical-parent frame hops to make
	// (spec.md §9 "Closures vs nested functions").
	Depth int
}

// ScopeKind distinguishes the four contexts that own their own slot space.
type ScopeKind int8

const (
	TopLevelScope ScopeKind = iota
	DefineScope
	ClosureScope
	GeneratorScope
)

// Scope is the variable-binding environment of one chunk (top-level program,
// named Define, anonymous Closure, or GeneratorDefine body).
type Scope struct {
	Kind   ScopeKind
	Parent *Scope // lexical parent: enclosing Define/Closure/top-level, or nil
	Node   ast.Form

	names     map[string]*Binding
	NumLocals int
	NumCells  int
}

// Owns reports whether name was declared directly in this scope (as opposed
// to being reached through the parent chain), and returns its Binding. The
// compiler uses this to tell apart a Cell it owns (emit CELL/SETCELL) from
// one captured from an enclosing Closure (emit FREE/SETFREE).
func (s *Scope) Owns(name string) (*Binding, bool) {
	b, ok := s.names[name]
	return b, ok
}

func newScope(kind ScopeKind, parent *Scope, node ast.Form) *Scope {
	return &Scope{Kind: kind, Parent: parent, Node: node, names: map[string]*Binding{}}
}

// capturesFromParent reports whether this scope's runtime frame can reach
// into parent for captured cells (true only for Closure scopes; a Define
// nested in another Define resolves outer names lexically instead, never by
// capture).
func (s *Scope) capturesFromParent() bool { return s.Kind == ClosureScope }

// DuplicateVariableError mirrors spec.md §7's DuplicateVariable error kind.
type DuplicateVariableError struct {
	Pos  token.Position
	Name string
}

func (e *DuplicateVariableError) Error() string {
	return fmt.Sprintf("%s: duplicate variable %q", e.Pos, e.Name)
}

// Result is the output of resolving a whole program: per-scope slot counts
// and a reference table keyed by the *ast.Word node that named the variable
// operation (var/varm/@/!).
type Result struct {
	TopLevel *Scope
	Scopes   map[ast.Form]*Scope
	Refs     map[*ast.Word]*Binding
	// Decl maps a declaring var/varm Word to the Binding it introduced, so the
	// compiler can emit the matching slot without re-deriving it.
	Decl map[*ast.Word]*Binding
	// Globals lists every Define/GeneratorDefine name seen anywhere in the
	// program (spec.md §4.4: named functions, even nested ones, are callable
	// by name rather than captured).
	Globals map[string]bool
}

type resolver struct {
	res *Result
}

// Resolve performs static scope resolution over a fully parsed program.
func Resolve(forms []ast.Form) (*Result, error) {
	r := &resolver{
		res: &Result{
			Scopes:  map[ast.Form]*Scope{},
			Refs:    map[*ast.Word]*Binding{},
			Decl:    map[*ast.Word]*Binding{},
			Globals: map[string]bool{},
		},
	}
	top := newScope(TopLevelScope, nil, nil)
	r.res.TopLevel = top
	r.res.Scopes[nil] = top

	// A first pass collects top-level Define/GeneratorDefine names as globals,
	// since cosh allows forward reference to a function defined later in the
	// same file (spec.md §4.4).
	for _, f := range forms {
		switch n := f.(type) {
		case *ast.Define:
			r.res.Globals[n.Name] = true
		case *ast.GeneratorDefine:
			r.res.Globals[n.Name] = true
		}
	}

	if err := r.resolveSeq(top, forms); err != nil {
		return nil, err
	}
	return r.res, nil
}

func (r *resolver) resolveSeq(sc *Scope, forms []ast.Form) error {
	for i, f := range forms {
		switch n := f.(type) {
		case *ast.Word:
			if err := r.resolveWord(sc, forms, i, n); err != nil {
				return err
			}
		case *ast.ListLit:
			if err := r.resolveSeq(sc, n.Elems); err != nil {
				return err
			}
		case *ast.SetLit:
			if err := r.resolveSeq(sc, n.Elems); err != nil {
				return err
			}
		case *ast.HashLit:
			if err := r.resolveSeq(sc, n.Elems); err != nil {
				return err
			}
		case *ast.If:
			if err := r.resolveSeq(sc, n.Then); err != nil {
				return err
			}
			if err := r.resolveSeq(sc, n.Else); err != nil {
				return err
			}
		case *ast.Begin:
			if err := r.resolveSeq(sc, n.Body); err != nil {
				return err
			}
		case *ast.Closure:
			child := newScope(ClosureScope, sc, n)
			r.res.Scopes[n] = child
			if err := r.resolveSeq(child, n.Body); err != nil {
				return err
			}
		case *ast.Define:
			r.res.Globals[n.Name] = true
			child := newScope(DefineScope, sc, n)
			r.res.Scopes[n] = child
			if err := r.resolveSeq(child, n.Body); err != nil {
				return err
			}
		case *ast.GeneratorDefine:
			r.res.Globals[n.Name] = true
			child := newScope(GeneratorScope, sc, n)
			r.res.Scopes[n] = child
			if err := r.resolveSeq(child, n.Body); err != nil {
				return err
			}
		case *ast.Literal, *ast.Leave, *ast.Return, *ast.Yield:
			// no variable references
		}
	}
	return nil
}

// resolveWord handles one bare word. When it is one of the four variable
// operators and is preceded by a name-bearing Word, it performs the
// declare/load/store resolution described in spec.md §4.3; a preceding
// control keyword such as "if"/"begin"/"else" never counts as a name (the
// parser never leaves those as Word nodes, so this is purely a defensive
// check).
func (r *resolver) resolveWord(sc *Scope, forms []ast.Form, i int, w *ast.Word) error {
	switch w.Name {
	case "var", "varm":
		name, ok := precedingName(forms, i)
		if !ok {
			return nil // bare "var"/"varm" with no operand is a runtime error, not static
		}
		return r.declare(sc, w, name, w.Name == "varm")
	case "@", "!":
		name, ok := precedingName(forms, i)
		if !ok {
			return nil
		}
		b := r.lookup(sc, name)
		r.res.Refs[w] = b
		return nil
	}
	return nil
}

func precedingName(forms []ast.Form, i int) (string, bool) {
	if i == 0 {
		return "", false
	}
	if w, ok := forms[i-1].(*ast.Word); ok {
		switch w.Name {
		case "var", "varm", "@", "!":
			return "", false
		}
		return w.Name, true
	}
	return "", false
}

func (r *resolver) declare(sc *Scope, op *ast.Word, name string, isVarm bool) error {
	if existing, ok := sc.names[name]; ok {
		if !isVarm || sc.Kind != TopLevelScope {
			return &DuplicateVariableError{Pos: op.Pos(), Name: name}
		}
		// varm re-declaration at top level reuses the existing slot.
		r.res.Decl[op] = existing
		return nil
	}
	b := &Binding{Kind: Local, Name: name, Slot: sc.NumLocals}
	sc.NumLocals++
	sc.names[name] = b
	r.res.Decl[op] = b
	return nil
}

// lookup resolves name against sc and its ancestors, applying the capture
// rule only across Closure boundaries and the lexical-outer rule across
// Define boundaries (spec.md §9).
func (r *resolver) lookup(sc *Scope, name string) *Binding {
	if b, ok := sc.names[name]; ok {
		return b
	}
	crossedClosure := sc.capturesFromParent()
	depth := 0
	cur := sc
	for parent := cur.Parent; parent != nil; parent = cur.Parent {
		depth++
		if b, ok := parent.names[name]; ok {
			if crossedClosure {
				// Promote the binding (in its owning scope) to a Cell; the
				// closure's MAKEFUNC copies its value into a Cell of its own.
				if b.Kind == Local {
					b.Kind = Cell
					parent.NumCells++
				}
				return &Binding{Kind: Cell, Name: name, Slot: b.Slot}
			}
			return &Binding{Kind: LexicalOuter, Name: name, Slot: b.Slot, Depth: depth}
		}
		cur = parent
		if cur.capturesFromParent() {
			crossedClosure = true
		}
	}
	if r.res.Globals[name] {
		return &Binding{Kind: Global, Name: name}
	}
	return &Binding{Kind: Builtin, Name: name}
}
