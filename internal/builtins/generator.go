package builtins

import "github.com/tomhrr/cosh/lang/machine"

// registerGenerator adds "shift" (polymorphic: pops one element off a List
// or pulls one value from a Generator), "take", "take-all" and "r"
// (reification), matching spec.md §6.3's generator-consumption words.
func registerGenerator(reg map[string]machine.Builtin) {
	reg["shift"] = func(th *machine.Thread, stack *[]machine.Value) error {
		v, err := machine.Pop(stack)
		if err != nil {
			return err
		}
		switch t := v.(type) {
		case *machine.List:
			e, ok := t.Shift()
			if !ok {
				return machine.NewError(machine.IndexError, "shift: empty list")
			}
			machine.Push(stack, e)
		case *machine.Generator:
			var e machine.Value
			if !t.Next(&e) {
				if err := t.Err(); err != nil {
					return err
				}
				// GeneratorExhausted (spec.md §7) is internal: it tells Done
				// apart from an actual Null yielded by the body, but a caller
				// of "shift" against an exhausted generator just sees Null
				// (spec.md §4.5, §8 invariant 7), not a runtime error.
				machine.Push(stack, machine.Null{})
				return nil
			}
			machine.Push(stack, e)
		default:
			return machine.NewError(machine.TypeMismatch, "shift expects a list or generator, got %s", v.Type())
		}
		return nil
	}
	reg["take"] = func(th *machine.Thread, stack *[]machine.Value) error {
		nv, err := machine.Pop(stack)
		if err != nil {
			return err
		}
		n, ok := nv.(machine.Int)
		if !ok {
			return machine.NewError(machine.TypeMismatch, "take expects an int count")
		}
		gv, err := machine.Pop(stack)
		if err != nil {
			return err
		}
		g, ok := gv.(*machine.Generator)
		if !ok {
			return machine.NewError(machine.TypeMismatch, "take expects a generator")
		}
		var out []machine.Value
		for i := int64(0); i < int64(n); i++ {
			var v machine.Value
			if !g.Next(&v) {
				break
			}
			out = append(out, v)
		}
		if g.Err() != nil {
			return g.Err()
		}
		machine.Push(stack, machine.NewList(out))
		return nil
	}
	// take-all drains a Generator; a List is already fully realized, so it
	// passes through unchanged, letting "map" (eager, over a List) and a true
	// lazy generator pipeline share the same trailing "take-all" idiom
	// (spec.md §8 scenario S3).
	reg["take-all"] = func(th *machine.Thread, stack *[]machine.Value) error {
		v, err := machine.Pop(stack)
		if err != nil {
			return err
		}
		switch t := v.(type) {
		case *machine.Generator:
			l, err := t.Reify()
			if err != nil {
				return err
			}
			machine.Push(stack, l)
		case *machine.List:
			machine.Push(stack, t)
		default:
			return machine.NewError(machine.TypeMismatch, "take-all expects a generator or list")
		}
		return nil
	}
	reg["r"] = func(th *machine.Thread, stack *[]machine.Value) error {
		v, err := machine.Pop(stack)
		if err != nil {
			return err
		}
		l, err := machine.Reify(v)
		if err != nil {
			return err
		}
		machine.Push(stack, l)
		return nil
	}
	// "empty" exhausts a Generator outright rather than peeking at it
	// (spec.md §4.5/§9: "by design, to avoid storing a peek buffer users
	// could find surprising"), pushing whether it held nothing at all.
	reg["empty"] = func(th *machine.Thread, stack *[]machine.Value) error {
		v, err := machine.Pop(stack)
		if err != nil {
			return err
		}
		g, ok := v.(*machine.Generator)
		if !ok {
			return machine.NewError(machine.TypeMismatch, "empty expects a generator, got %s", v.Type())
		}
		drained := false
		var e machine.Value
		for g.Next(&e) {
			drained = true
		}
		if err := g.Err(); err != nil {
			return err
		}
		machine.Push(stack, machine.Bool(!drained))
		return nil
	}
}
