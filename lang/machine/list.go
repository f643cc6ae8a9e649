package machine

import "strings"

// List is a reference-semantics, growable sequence (spec.md §3 "List").
// Grounded on the teacher's list.go: a thin wrapper over a Go slice with
// value-identity equality deferred to element-wise comparison.
type List struct {
	elems []Value
}

var (
	_ Value     = (*List)(nil)
	_ Indexable = (*List)(nil)
	_ Sequence  = (*List)(nil)
	_ HasEqual  = (*List)(nil)
	_ HasBinary = (*List)(nil)
	_ HasUnary  = (*List)(nil)
)

// Unary implements "len" (spec.md §6.1's generic length word).
func (l *List) Unary(op UnOp) (Value, error) {
	if op == OpLen {
		return Int(l.Len()), nil
	}
	return nil, nil
}

// NewList takes ownership of elems; callers must not retain a reference to
// the backing slice afterwards.
func NewList(elems []Value) *List { return &List{elems: elems} }

func (l *List) Elems() []Value { return l.elems }

func (l *List) String() string {
	var b strings.Builder
	b.WriteByte('(')
	for i, e := range l.elems {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(printRepr(e))
	}
	b.WriteByte(')')
	return b.String()
}

func (*List) Type() string { return "list" }

func (l *List) Len() int { return len(l.elems) }

func (l *List) Index(i int) Value {
	if i < 0 {
		i += len(l.elems)
	}
	if i < 0 || i >= len(l.elems) {
		return nil
	}
	return l.elems[i]
}

// SetIndex replaces the element at i (negative counts from the end),
// reporting whether i was in range.
func (l *List) SetIndex(i int, v Value) bool {
	if i < 0 {
		i += len(l.elems)
	}
	if i < 0 || i >= len(l.elems) {
		return false
	}
	l.elems[i] = v
	return true
}

// Clone returns a shallow copy: a new backing slice holding the same
// elements (spec.md §8 invariant 2 — mutating the clone's own structure
// must not mutate the original's).
func (l *List) Clone() *List {
	return NewList(append([]Value(nil), l.elems...))
}

func (l *List) Push(v Value) { l.elems = append(l.elems, v) }

func (l *List) Pop() (Value, bool) {
	if len(l.elems) == 0 {
		return nil, false
	}
	v := l.elems[len(l.elems)-1]
	l.elems = l.elems[:len(l.elems)-1]
	return v, true
}

func (l *List) Unshift(v Value) { l.elems = append([]Value{v}, l.elems...) }

func (l *List) Shift() (Value, bool) {
	if len(l.elems) == 0 {
		return nil, false
	}
	v := l.elems[0]
	l.elems = l.elems[1:]
	return v, true
}

func (l *List) Iterate() Iterator { return &listIterator{l: l} }

type listIterator struct {
	l *List
	i int
}

func (it *listIterator) Next(p *Value) bool {
	if it.i >= len(it.l.elems) {
		return false
	}
	*p = it.l.elems[it.i]
	it.i++
	return true
}
func (it *listIterator) Done() {}

func (l *List) Equals(y Value) (bool, error) {
	o, ok := y.(*List)
	if !ok {
		return false, nil
	}
	if l == o {
		return true, nil
	}
	if len(l.elems) != len(o.elems) {
		return false, nil
	}
	for i, e := range l.elems {
		eq, err := valuesEqual(e, o.elems[i])
		if err != nil {
			return false, err
		}
		if !eq {
			return false, nil
		}
	}
	return true, nil
}

// Binary implements "+" as concatenation, matching the teacher's convention
// that containers overload arithmetic operators for their natural
// structural operation.
func (l *List) Binary(op BinOp, y Value, side Side) (Value, error) {
	if op != OpAdd {
		return nil, nil
	}
	o, ok := y.(*List)
	if !ok {
		return nil, nil
	}
	a, b := l.elems, o.elems
	if side == Right {
		a, b = b, a
	}
	out := make([]Value, 0, len(a)+len(b))
	out = append(out, a...)
	out = append(out, b...)
	return NewList(out), nil
}

func valuesEqual(a, b Value) (bool, error) {
	if ea, ok := a.(HasEqual); ok {
		return ea.Equals(b)
	}
	if oa, ok := a.(Ordered); ok {
		c, err := oa.Cmp(b)
		if err != nil {
			return false, nil
		}
		return c == 0, nil
	}
	return false, nil
}

func printRepr(v Value) string {
	if s, ok := v.(String); ok {
		return "\"" + string(s) + "\""
	}
	return v.String()
}
