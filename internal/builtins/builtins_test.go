package builtins

import (
	"testing"

	"github.com/tomhrr/cosh/internal/jobs"
	"github.com/tomhrr/cosh/lang/machine"
)

// call runs a single built-in by name against a fresh stack holding args (in
// push order), returning whatever remains on the stack.
func call(t *testing.T, name string, args ...machine.Value) []machine.Value {
	t.Helper()
	reg := Registry(jobs.NewTable())
	b, ok := reg[name]
	if !ok {
		t.Fatalf("no built-in named %q", name)
	}
	stack := append([]machine.Value(nil), args...)
	if err := b(nil, &stack); err != nil {
		t.Fatalf("%s%v: %v", name, args, err)
	}
	return stack
}

func single1(t *testing.T, name string, args ...machine.Value) machine.Value {
	t.Helper()
	out := call(t, name, args...)
	if len(out) != 1 {
		t.Fatalf("%s%v: expected 1 result, got %d (%v)", name, args, len(out), out)
	}
	return out[0]
}

func TestStackPick(t *testing.T) {
	out := call(t, "pick", machine.Int(10), machine.Int(20), machine.Int(30), machine.Int(1))
	if len(out) != 4 || out[3] != machine.Int(20) {
		t.Fatalf("pick 1: expected 20 pushed above the three originals, got %v", out)
	}
}

func TestStackTuck(t *testing.T) {
	out := call(t, "tuck", machine.Int(1), machine.Int(2))
	want := []machine.Value{machine.Int(2), machine.Int(1), machine.Int(2)}
	if len(out) != len(want) {
		t.Fatalf("tuck: expected %v, got %v", want, out)
	}
	for i := range want {
		if out[i] != want[i] {
			t.Fatalf("tuck: expected %v, got %v", want, out)
		}
	}
}

func TestStackClone(t *testing.T) {
	orig := machine.NewList([]machine.Value{machine.Int(1), machine.Int(2)})
	v := single1(t, "clone", orig)
	l, ok := v.(*machine.List)
	if !ok {
		t.Fatalf("clone: expected a list, got %T", v)
	}
	if l == orig {
		t.Fatalf("clone: expected a distinct list, got the same pointer")
	}
	l.SetIndex(0, machine.Int(99))
	if orig.Index(0) != machine.Int(1) {
		t.Fatalf("clone: mutating the clone changed the original: %v", orig)
	}
}

func TestListPushPopUnshift(t *testing.T) {
	// push/unshift pop their receiver list off the top of the stack, with
	// the value to insert underneath it (popListAnd pops the list first).
	l := machine.NewList([]machine.Value{machine.Int(1), machine.Int(2)})
	v := single1(t, "push", machine.Int(3), l)
	pushed, ok := v.(*machine.List)
	if !ok || pushed.Len() != 3 || pushed.Index(2) != machine.Int(3) {
		t.Fatalf("push: expected (1 2 3), got %v", v)
	}

	v = single1(t, "pop", pushed)
	if v != machine.Int(3) {
		t.Fatalf("pop: expected 3, got %v", v)
	}
	if pushed.Len() != 2 {
		t.Fatalf("pop: expected the list to shrink, got %v", pushed)
	}

	v = single1(t, "unshift", machine.Int(0), pushed)
	unshifted, ok := v.(*machine.List)
	if !ok || unshifted.Index(0) != machine.Int(0) {
		t.Fatalf("unshift: expected 0 at the front, got %v", v)
	}
}

func TestListGetSet(t *testing.T) {
	l := machine.NewList([]machine.Value{machine.Int(10), machine.Int(20)})
	if v := single1(t, "get", l, machine.Int(1)); v != machine.Int(20) {
		t.Fatalf("get: expected 20, got %v", v)
	}

	h := machine.NewHash(1)
	h.SetKey(machine.String("a"), machine.Int(1))
	if v := single1(t, "get", h, machine.String("a")); v != machine.Int(1) {
		t.Fatalf("get on a hash: expected 1, got %v", v)
	}

	v := single1(t, "set", l, machine.Int(0), machine.Int(99))
	out, ok := v.(*machine.List)
	if !ok || out.Index(0) != machine.Int(99) {
		t.Fatalf("set: expected (99 20), got %v", v)
	}
}

// incrementer is a minimal machine.Callable for exercising "map" without a
// compiled chunk: it adds 1 to an Int argument.
type incrementer struct{}

func (incrementer) String() string { return "function(incrementer)" }
func (incrementer) Type() string   { return "function" }
func (incrementer) Name() string   { return "incrementer" }
func (incrementer) Call(th *machine.Thread, args []machine.Value) ([]machine.Value, error) {
	n, ok := args[0].(machine.Int)
	if !ok {
		return nil, machine.NewError(machine.TypeMismatch, "incrementer expects an int")
	}
	return []machine.Value{n + 1}, nil
}

func TestListMap(t *testing.T) {
	l := machine.NewList([]machine.Value{machine.Int(1), machine.Int(2), machine.Int(3)})
	v := single1(t, "map", l, incrementer{})
	out, ok := v.(*machine.List)
	if !ok {
		t.Fatalf("map: expected a list, got %T", v)
	}
	want := []int64{2, 3, 4}
	if out.Len() != len(want) {
		t.Fatalf("map: expected %d elements, got %d", len(want), out.Len())
	}
	for i, w := range want {
		if out.Index(i) != machine.Int(w) {
			t.Fatalf("map: element %d: expected %d, got %v", i, w, out.Index(i))
		}
	}
}

func TestListReverseSortJoin(t *testing.T) {
	l := machine.NewList([]machine.Value{machine.Int(3), machine.Int(1), machine.Int(2)})
	v := single1(t, "reverse", l)
	rev := v.(*machine.List)
	if rev.Index(0) != machine.Int(2) || rev.Index(2) != machine.Int(3) {
		t.Fatalf("reverse: expected (2 1 3), got %v", rev)
	}

	v = single1(t, "sort", l)
	sorted := v.(*machine.List)
	want := []int64{1, 2, 3}
	for i, w := range want {
		if sorted.Index(i) != machine.Int(w) {
			t.Fatalf("sort: expected %v, got %v", want, sorted)
		}
	}

	// join pops its receiver list off the top of the stack too
	// (popListAnd), with the separator underneath.
	strs := machine.NewList([]machine.Value{machine.String("a"), machine.String("b")})
	v = single1(t, "join", machine.String(","), strs)
	if v != machine.String("a,b") {
		t.Fatalf("join: expected \"a,b\", got %v", v)
	}
}

func TestSetOps(t *testing.T) {
	// add/remove/has pop their receiver set off the top of the stack
	// (popSetAnd), with the element underneath.
	s := machine.NewSet()
	v := single1(t, "add", machine.Int(1), s)
	s1 := v.(*machine.Set)
	if !s1.Contains(machine.Int(1)) {
		t.Fatalf("add: expected the set to contain 1, got %v", s1)
	}
	if v := single1(t, "has", machine.Int(1), s1); v != machine.Bool(true) {
		t.Fatalf("has: expected true, got %v", v)
	}
	v = single1(t, "remove", machine.Int(1), s1)
	s2 := v.(*machine.Set)
	if s2.Contains(machine.Int(1)) {
		t.Fatalf("remove: expected 1 to be gone, got %v", s2)
	}

	a := machine.NewSet()
	a.Add(machine.Int(1))
	a.Add(machine.Int(2))
	b := machine.NewSet()
	b.Add(machine.Int(2))
	b.Add(machine.Int(3))

	u := single1(t, "union", a, b).(*machine.Set)
	if u.Len() != 3 {
		t.Fatalf("union: expected 3 elements, got %v", u)
	}
	i := single1(t, "intersection", a, b).(*machine.Set)
	if i.Len() != 1 || !i.Contains(machine.Int(2)) {
		t.Fatalf("intersection: expected {2}, got %v", i)
	}
	d := single1(t, "difference", a, b).(*machine.Set)
	if d.Len() != 1 || !d.Contains(machine.Int(1)) {
		t.Fatalf("difference: expected {1}, got %v", d)
	}
}

func TestHashOps(t *testing.T) {
	// hget/hset/hdel/haskey pop their receiver hash off the top of the
	// stack (popHashAnd), with the key (and, for hset, the value above
	// that) underneath.
	h := machine.NewHash(1)
	v := single1(t, "hset", machine.String("a"), h, machine.Int(1))
	h1 := v.(*machine.Hash)
	if v := single1(t, "hget", machine.String("a"), h1); v != machine.Int(1) {
		t.Fatalf("hget: expected 1, got %v", v)
	}
	if v := single1(t, "haskey", machine.String("a"), h1); v != machine.Bool(true) {
		t.Fatalf("haskey: expected true, got %v", v)
	}
	single1(t, "hdel", machine.String("a"), h1)
	if v := single1(t, "haskey", machine.String("a"), h1); v != machine.Bool(false) {
		t.Fatalf("hdel: expected the key to be gone, got %v", v)
	}

	h2 := machine.NewHash(2)
	h2.SetKey(machine.String("x"), machine.Int(1))
	h2.SetKey(machine.String("y"), machine.Int(2))
	ks := single1(t, "keys", h2).(*machine.List)
	vs := single1(t, "values", h2).(*machine.List)
	if ks.Len() != 2 || vs.Len() != 2 {
		t.Fatalf("keys/values: expected 2 entries each, got %v / %v", ks, vs)
	}
	if ks.Index(0) != machine.String("x") || ks.Index(1) != machine.String("y") {
		t.Fatalf("keys: expected insertion order (x y), got %v", ks)
	}
}

func TestStringOps(t *testing.T) {
	parts := single1(t, "split", machine.String("a,b,c"), machine.String(",")).(*machine.List)
	if parts.Len() != 3 || parts.Index(1) != machine.String("b") {
		t.Fatalf("split: expected (a b c), got %v", parts)
	}

	if v := single1(t, "upper", machine.String("ab")); v != machine.String("AB") {
		t.Fatalf("upper: expected AB, got %v", v)
	}
	if v := single1(t, "lower", machine.String("AB")); v != machine.String("ab") {
		t.Fatalf("lower: expected ab, got %v", v)
	}
	if v := single1(t, "trim", machine.String("  ab  ")); v != machine.String("ab") {
		t.Fatalf("trim: expected \"ab\", got %q", v)
	}
	if v := single1(t, "replace", machine.String("aba"), machine.String("a"), machine.String("x")); v != machine.String("xbx") {
		t.Fatalf("replace: expected xbx, got %v", v)
	}
	if v := single1(t, "contains", machine.String("abc"), machine.String("b")); v != machine.Bool(true) {
		t.Fatalf("contains: expected true, got %v", v)
	}
	if v := single1(t, "to-int", machine.String(" 42 ")); v != machine.Int(42) {
		t.Fatalf("to-int: expected 42, got %v", v)
	}
	if v := single1(t, "to-float", machine.String("1.5")); v != machine.Float(1.5) {
		t.Fatalf("to-float: expected 1.5, got %v", v)
	}
	if v := single1(t, "to-string", machine.Int(7)); v != machine.String("7") {
		t.Fatalf("to-string: expected \"7\", got %v", v)
	}
}

func TestRegexOps(t *testing.T) {
	if v := single1(t, "match", machine.String("asdf"), machine.String("^as")); v != machine.Bool(true) {
		t.Fatalf("match: expected true, got %v", v)
	}
	if v := single1(t, "re-replace", machine.String("asdf"), machine.String("s"), machine.String("X")); v != machine.String("aXdf") {
		t.Fatalf("re-replace: expected aXdf, got %v", v)
	}
	caps := single1(t, "c", machine.String("asdf"), machine.String(".(.)")).(*machine.List)
	if caps.Len() != 2 || caps.Index(0) != machine.String("as") || caps.Index(1) != machine.String("s") {
		t.Fatalf("c: expected (as s), got %v", caps)
	}
	parts := single1(t, "re-split", machine.String("a1b2c"), machine.String("[0-9]")).(*machine.List)
	if parts.Len() != 3 {
		t.Fatalf("re-split: expected 3 parts, got %v", parts)
	}
}

func TestIPOps(t *testing.T) {
	v := single1(t, "ip-parse", machine.String("192.168.1.1"))
	if v != machine.String("192.168.1.1") {
		t.Fatalf("ip-parse: expected 192.168.1.1, got %v", v)
	}
	v = single1(t, "ip-in-prefix", machine.String("192.168.1.5"), machine.String("192.168.1.0/24"))
	if v != machine.Bool(true) {
		t.Fatalf("ip-in-prefix: expected true, got %v", v)
	}
	v = single1(t, "ip-in-prefix", machine.String("10.0.0.1"), machine.String("192.168.1.0/24"))
	if v != machine.Bool(false) {
		t.Fatalf("ip-in-prefix: expected false, got %v", v)
	}
}

func TestJSONRoundTrip(t *testing.T) {
	h := machine.NewHash(2)
	h.SetKey(machine.String("a"), machine.Int(1))
	h.SetKey(machine.String("b"), machine.String("two"))

	encoded := single1(t, "to-json", h)
	s, ok := encoded.(machine.String)
	if !ok {
		t.Fatalf("to-json: expected a string, got %T", encoded)
	}

	decoded := single1(t, "from-json", s)
	out, ok := decoded.(*machine.Hash)
	if !ok {
		t.Fatalf("from-json: expected a hash, got %T", decoded)
	}
	a, found, err := out.Get(machine.String("a"))
	if err != nil || !found {
		t.Fatalf("from-json: expected key \"a\" present, err=%v found=%v", err, found)
	}
	if a != machine.Int(1) {
		t.Fatalf("from-json: expected int 1 (not float), got %v (%T)", a, a)
	}
	b, found, err := out.Get(machine.String("b"))
	if err != nil || !found || b != machine.String("two") {
		t.Fatalf("from-json: expected \"two\", got %v", b)
	}
}
