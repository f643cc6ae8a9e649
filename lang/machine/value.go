// Package machine implements the cosh stack machine: value representation,
// call frames, the bytecode dispatch loop and the generator/coroutine
// engine (spec.md §3, §5). Grounded on the teacher's lang/machine package
// (Value/Callable/Ordered/HasBinary/HasUnary/Iterable interface split), with
// the teacher's object-system mixins (HasAttrs/HasSetField/HasMetamap)
// dropped — cosh values have no fields or metatables — and the teacher's
// duplicate lang/types package folded into this one (the teacher itself
// keeps two overlapping Value hierarchies in lang/machine/value.go and
// lang/types/value.go; cosh needs only one).
package machine

import "fmt"

// Value is the interface implemented by every value a cosh program can push
// onto the stack, store in a container, or hold in a variable (spec.md §3
// "Value model").
type Value interface {
	String() string
	Type() string
}

// Callable is a value that CALLVALUE (funcall) and built-ins such as map
// may invoke.
type Callable interface {
	Value
	Name() string
	Call(th *Thread, args []Value) ([]Value, error)
}

// Ordered values support relational comparison (spec.md §3's numeric tower
// and lexicographic string ordering); Byte, Int, BigInt, Float and String
// implement it, containers do not.
type Ordered interface {
	Value
	Cmp(y Value) (int, error)
}

// HasEqual lets a type define its own equality when ordering doesn't apply
// (Bool, List, Set, Hash — compared by contents).
type HasEqual interface {
	Value
	Equals(y Value) (bool, error)
}

// Iterable abstracts a value that "r" (reify), generators, and the `pfor`
// family of built-ins can walk without knowing its concrete type.
type Iterable interface {
	Value
	Iterate() Iterator
}

// Sequence is an Iterable of statically known length.
type Sequence interface {
	Iterable
	Len() int
}

// Indexable supports positional element access (List, and a reified
// Generator).
type Indexable interface {
	Value
	Index(i int) Value
	Len() int
}

// Iterator yields a sequence of values; Done releases any resources held
// open for the duration of iteration (spec.md §9 "iterator invalidation").
type Iterator interface {
	Next(p *Value) bool
	Done()
}

// Mapping is implemented by Hash.
type Mapping interface {
	Value
	Get(k Value) (v Value, found bool, err error)
	SetKey(k, v Value) error
}

// HasBinary lets a value participate in +, -, *, /, //, %, etc.; relational
// comparison goes through Ordered and equality instead.
// Returning (nil, nil) declines, letting the dispatcher try the other
// operand or fail with a TypeMismatch.
type HasBinary interface {
	Value
	Binary(op BinOp, y Value, side Side) (Value, error)
}

// Side indicates which operand position a HasBinary receiver occupies.
type Side bool

const (
	Left  Side = false
	Right Side = true
)

// BinOp identifies a binary operator at the Value level, independent of the
// bytecode Opcode that triggered it (letting built-ins invoke the same
// numeric promotion logic the VM uses for PLUS/MINUS/etc.).
type BinOp int8

const (
	OpAdd BinOp = iota
	OpSub
	OpMul
	OpDiv
	OpIntDiv
	OpMod
	OpXor
	OpAnd
	OpOr
	OpShl
	OpShr
)

// HasUnary lets a value implement UMINUS/NOT/LEN.
type HasUnary interface {
	Value
	Unary(op UnOp) (Value, error)
}

// UnOp identifies a unary operator at the Value level.
type UnOp int8

const (
	OpNeg UnOp = iota
	OpNot
	OpLen
)

// Clone returns a value equal to v under "=" whose container structure (if
// any) is independent of v's own: mutating the result does not mutate v
// (spec.md §8 invariant 2). Scalars are already Go value types copied by
// assignment, so they round-trip through Clone unchanged.
func Clone(v Value) Value {
	switch t := v.(type) {
	case *List:
		return t.Clone()
	case *Set:
		return t.Clone()
	case *Hash:
		return t.Clone()
	default:
		return v
	}
}

// TypeError reports an operation applied to a value of the wrong type
// (spec.md §7 TypeMismatch).
type TypeError struct {
	Op      string
	Operand Value
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("%s: unsupported operand type %s", e.Op, e.Operand.Type())
}
