package machine

import (
	"strings"

	"golang.org/x/exp/slices"
)

// Set is an insertion-ordered collection of distinct values (spec.md §3
// "Set"). Grounded on the teacher's own use of golang.org/x/exp/slices for
// its set type: membership is a linear scan with equality via valuesEqual,
// which is adequate at the set sizes cosh scripts build (no hashing
// requirement on arbitrary Value, unlike Hash's string/scalar keys).
type Set struct {
	elems []Value
}

var (
	_ Value     = (*Set)(nil)
	_ Sequence  = (*Set)(nil)
	_ HasEqual  = (*Set)(nil)
	_ HasBinary = (*Set)(nil)
	_ HasUnary  = (*Set)(nil)
)

// Unary implements "len" (spec.md §6.1's generic length word, exercised by
// §8 scenario S7).
func (s *Set) Unary(op UnOp) (Value, error) {
	if op == OpLen {
		return Int(s.Len()), nil
	}
	return nil, nil
}

func NewSet() *Set { return &Set{} }

func (s *Set) String() string {
	var b strings.Builder
	b.WriteString("{")
	for i, e := range s.elems {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(printRepr(e))
	}
	b.WriteString("}")
	return b.String()
}

func (*Set) Type() string { return "set" }

func (s *Set) Len() int { return len(s.elems) }

func (s *Set) indexOf(v Value) int {
	return slices.IndexFunc(s.elems, func(e Value) bool {
		eq, err := valuesEqual(e, v)
		return err == nil && eq
	})
}

// Add reports whether v was newly inserted.
func (s *Set) Add(v Value) bool {
	if s.indexOf(v) >= 0 {
		return false
	}
	s.elems = append(s.elems, v)
	return true
}

// Remove reports whether v was present.
func (s *Set) Remove(v Value) bool {
	i := s.indexOf(v)
	if i < 0 {
		return false
	}
	s.elems = slices.Delete(s.elems, i, i+1)
	return true
}

func (s *Set) Contains(v Value) bool { return s.indexOf(v) >= 0 }

// Clone returns a shallow copy holding the same elements in a fresh slice.
func (s *Set) Clone() *Set {
	out := NewSet()
	out.elems = append([]Value(nil), s.elems...)
	return out
}

func (s *Set) Iterate() Iterator { return &setIterator{s: s} }

type setIterator struct {
	s *Set
	i int
}

func (it *setIterator) Next(p *Value) bool {
	if it.i >= len(it.s.elems) {
		return false
	}
	*p = it.s.elems[it.i]
	it.i++
	return true
}
func (it *setIterator) Done() {}

func (s *Set) Equals(y Value) (bool, error) {
	o, ok := y.(*Set)
	if !ok {
		return false, nil
	}
	if s == o {
		return true, nil
	}
	if len(s.elems) != len(o.elems) {
		return false, nil
	}
	for _, e := range s.elems {
		if !o.Contains(e) {
			return false, nil
		}
	}
	return true, nil
}

// Binary implements "+"/"-" as union/difference, "&" as intersection, per
// spec.md §3's set algebra.
func (s *Set) Binary(op BinOp, y Value, side Side) (Value, error) {
	o, ok := y.(*Set)
	if !ok {
		return nil, nil
	}
	a, b := s, o
	switch op {
	case OpAdd:
		out := NewSet()
		for _, e := range a.elems {
			out.Add(e)
		}
		for _, e := range b.elems {
			out.Add(e)
		}
		return out, nil
	case OpSub:
		if side == Right {
			a, b = b, a
		}
		out := NewSet()
		for _, e := range a.elems {
			if !b.Contains(e) {
				out.Add(e)
			}
		}
		return out, nil
	case OpAnd:
		out := NewSet()
		for _, e := range a.elems {
			if b.Contains(e) {
				out.Add(e)
			}
		}
		return out, nil
	}
	return nil, nil
}
