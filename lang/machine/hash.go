package machine

import (
	"strings"

	"github.com/dolthub/swiss"
)

// Hash is cosh's associative container (spec.md §3 "Hash"). Grounded on the
// teacher's map.go (backed by github.com/dolthub/swiss for O(1) average
// lookup), extended with an explicit insertion-ordered key slice: swiss.Map
// iterates in an unspecified order, but spec.md §3 requires Hash iteration
// and printing to observe insertion order.
type Hash struct {
	m    *swiss.Map[Value, Value]
	keys []Value
}

var (
	_ Value    = (*Hash)(nil)
	_ Mapping  = (*Hash)(nil)
	_ Iterable = (*Hash)(nil)
	_ HasEqual = (*Hash)(nil)
	_ HasUnary = (*Hash)(nil)
)

// Unary implements "len" (spec.md §6.1).
func (h *Hash) Unary(op UnOp) (Value, error) {
	if op == OpLen {
		return Int(h.Len()), nil
	}
	return nil, nil
}

// NewHash returns an empty Hash with initial capacity for at least size
// entries.
func NewHash(size int) *Hash {
	if size < 1 {
		size = 1
	}
	return &Hash{m: swiss.NewMap[Value, Value](uint32(size))}
}

func (h *Hash) String() string {
	var b strings.Builder
	b.WriteByte('#')
	b.WriteByte('{')
	for i, k := range h.keys {
		if i > 0 {
			b.WriteByte(' ')
		}
		v, _ := h.m.Get(k)
		b.WriteString(printRepr(k))
		b.WriteByte(' ')
		b.WriteString(printRepr(v))
	}
	b.WriteByte('}')
	return b.String()
}

func (*Hash) Type() string { return "hash" }

func (h *Hash) Len() int { return len(h.keys) }

func (h *Hash) Get(k Value) (Value, bool, error) {
	v, ok := h.m.Get(k)
	return v, ok, nil
}

func (h *Hash) SetKey(k, v Value) error {
	if _, existed := h.m.Get(k); !existed {
		h.keys = append(h.keys, k)
	}
	h.m.Put(k, v)
	return nil
}

func (h *Hash) Delete(k Value) bool {
	if _, ok := h.m.Get(k); !ok {
		return false
	}
	h.m.Delete(k)
	for i, kk := range h.keys {
		if eq, _ := valuesEqual(kk, k); eq {
			h.keys = append(h.keys[:i], h.keys[i+1:]...)
			break
		}
	}
	return true
}

func (h *Hash) Keys() []Value { return h.keys }

// Clone returns a shallow copy: a fresh map and key slice holding the same
// key/value pairs (spec.md §8 invariant 2).
func (h *Hash) Clone() *Hash {
	out := NewHash(len(h.keys))
	for _, k := range h.keys {
		v, _ := h.m.Get(k)
		out.SetKey(k, v)
	}
	return out
}

func (h *Hash) Iterate() Iterator { return &hashIterator{h: h} }

type hashIterator struct {
	h *Hash
	i int
}

func (it *hashIterator) Next(p *Value) bool {
	if it.i >= len(it.h.keys) {
		return false
	}
	k := it.h.keys[it.i]
	v, _ := it.h.m.Get(k)
	*p = NewList([]Value{k, v})
	it.i++
	return true
}
func (it *hashIterator) Done() {}

func (h *Hash) Equals(y Value) (bool, error) {
	o, ok := y.(*Hash)
	if !ok {
		return false, nil
	}
	if h == o {
		return true, nil
	}
	if len(h.keys) != len(o.keys) {
		return false, nil
	}
	for _, k := range h.keys {
		v, _ := h.m.Get(k)
		ov, found := o.m.Get(k)
		if !found {
			return false, nil
		}
		eq, err := valuesEqual(v, ov)
		if err != nil {
			return false, err
		}
		if !eq {
			return false, nil
		}
	}
	return true, nil
}
