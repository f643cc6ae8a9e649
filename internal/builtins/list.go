package builtins

import (
	"sort"

	"github.com/tomhrr/cosh/lang/machine"
)

// registerList adds the List built-ins named in spec.md §6.2: push/unshift
// mutate in place and return the list itself, matching the teacher's
// convention (seen throughout the retrieved pack) of builders returning
// their receiver so calls chain without an explicit temporary; pop removes
// the last element and pushes that element instead.
func registerList(reg map[string]machine.Builtin) {
	reg["push"] = func(th *machine.Thread, stack *[]machine.Value) error {
		v, l, err := popListAnd(stack)
		if err != nil {
			return err
		}
		l.Push(v)
		machine.Push(stack, l)
		return nil
	}
	reg["pop"] = func(th *machine.Thread, stack *[]machine.Value) error {
		l, err := popList(stack)
		if err != nil {
			return err
		}
		v, ok := l.Pop()
		if !ok {
			return machine.NewError(machine.IndexError, "pop: empty list")
		}
		machine.Push(stack, v)
		return nil
	}
	reg["unshift"] = func(th *machine.Thread, stack *[]machine.Value) error {
		v, l, err := popListAnd(stack)
		if err != nil {
			return err
		}
		l.Unshift(v)
		machine.Push(stack, l)
		return nil
	}
	// "get" is polymorphic: an int index into a List, or a key into a Hash,
	// matching spec.md §8 scenario S3's generic container access (a reified
	// generator is a List by the time "get" sees it).
	reg["get"] = func(th *machine.Thread, stack *[]machine.Value) error {
		key, err := machine.Pop(stack)
		if err != nil {
			return err
		}
		cv, err := machine.Pop(stack)
		if err != nil {
			return err
		}
		switch c := cv.(type) {
		case *machine.List:
			i, ok := key.(machine.Int)
			if !ok {
				return machine.NewError(machine.TypeMismatch, "get expects an int index into a list")
			}
			v := c.Index(int(i))
			if v == nil {
				return machine.NewError(machine.IndexError, "index %d out of range", i)
			}
			machine.Push(stack, v)
		case *machine.Hash:
			v, found, err := c.Get(key)
			if err != nil {
				return err
			}
			if !found {
				return machine.NewError(machine.IndexError, "key not found")
			}
			machine.Push(stack, v)
		default:
			return machine.NewError(machine.TypeMismatch, "get expects a list or hash, got %s", cv.Type())
		}
		return nil
	}
	// "set" mirrors "get": an int index into a List, or a key into a Hash.
	reg["set"] = func(th *machine.Thread, stack *[]machine.Value) error {
		v, err := machine.Pop(stack)
		if err != nil {
			return err
		}
		key, err := machine.Pop(stack)
		if err != nil {
			return err
		}
		cv, err := machine.Pop(stack)
		if err != nil {
			return err
		}
		switch c := cv.(type) {
		case *machine.List:
			i, ok := key.(machine.Int)
			if !ok {
				return machine.NewError(machine.TypeMismatch, "set expects an int index into a list")
			}
			if !c.SetIndex(int(i), v) {
				return machine.NewError(machine.IndexError, "index %d out of range", i)
			}
			machine.Push(stack, c)
		case *machine.Hash:
			if err := c.SetKey(key, v); err != nil {
				return err
			}
			machine.Push(stack, c)
		default:
			return machine.NewError(machine.TypeMismatch, "set expects a list or hash, got %s", cv.Type())
		}
		return nil
	}
	// "map" applies fn to every element of a list, collecting results into a
	// new list (spec.md §8 scenario S3); "take-all" below passes a List
	// through unchanged so the same pipeline also reads as a generator drain.
	reg["map"] = func(th *machine.Thread, stack *[]machine.Value) error {
		fnv, err := machine.Pop(stack)
		if err != nil {
			return err
		}
		fn, ok := fnv.(machine.Callable)
		if !ok {
			return machine.NewError(machine.TypeMismatch, "map expects a function, got %s", fnv.Type())
		}
		l, err := popList(stack)
		if err != nil {
			return err
		}
		out := make([]machine.Value, 0, l.Len())
		for _, e := range l.Elems() {
			results, err := fn.Call(th, []machine.Value{e})
			if err != nil {
				return err
			}
			if len(results) == 0 {
				return machine.NewError(machine.TypeMismatch, "map: function produced no value")
			}
			out = append(out, results[len(results)-1])
		}
		machine.Push(stack, machine.NewList(out))
		return nil
	}
	reg["reverse"] = func(th *machine.Thread, stack *[]machine.Value) error {
		l, err := popList(stack)
		if err != nil {
			return err
		}
		elems := l.Elems()
		out := make([]machine.Value, len(elems))
		for i, e := range elems {
			out[len(elems)-1-i] = e
		}
		machine.Push(stack, machine.NewList(out))
		return nil
	}
	reg["sort"] = func(th *machine.Thread, stack *[]machine.Value) error {
		l, err := popList(stack)
		if err != nil {
			return err
		}
		out := append([]machine.Value(nil), l.Elems()...)
		var sortErr error
		sort.SliceStable(out, func(i, j int) bool {
			ord, ok := out[i].(machine.Ordered)
			if !ok {
				sortErr = machine.NewError(machine.TypeMismatch, "sort: unorderable element")
				return false
			}
			c, err := ord.Cmp(out[j])
			if err != nil {
				sortErr = err
				return false
			}
			return c < 0
		})
		if sortErr != nil {
			return sortErr
		}
		machine.Push(stack, machine.NewList(out))
		return nil
	}
	reg["join"] = func(th *machine.Thread, stack *[]machine.Value) error {
		sep, l, err := popListAnd(stack)
		if err != nil {
			return err
		}
		sepS, ok := sep.(machine.String)
		if !ok {
			return machine.NewError(machine.TypeMismatch, "join expects a string separator")
		}
		var out string
		for i, e := range l.Elems() {
			if i > 0 {
				out += string(sepS)
			}
			out += machine.Display(e)
		}
		machine.Push(stack, machine.String(out))
		return nil
	}
}

func popList(stack *[]machine.Value) (*machine.List, error) {
	v, err := machine.Pop(stack)
	if err != nil {
		return nil, err
	}
	l, ok := v.(*machine.List)
	if !ok {
		return nil, machine.NewError(machine.TypeMismatch, "expected a list, got %s", v.Type())
	}
	return l, nil
}

// popListAnd pops the list (top of stack) and the value below it, returning
// (below-value, list) — the convention spec.md's stack-contract notation
// uses for "v list word -> ...".
func popListAnd(stack *[]machine.Value) (machine.Value, *machine.List, error) {
	l, err := popList(stack)
	if err != nil {
		return nil, nil, err
	}
	v, err := machine.Pop(stack)
	if err != nil {
		return nil, nil, err
	}
	return v, l, nil
}
