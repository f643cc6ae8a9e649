package builtins

import "github.com/tomhrr/cosh/lang/machine"

// registerSet adds the Set built-ins beyond the +/-/& operator overloads
// already handled by Set.Binary (spec.md §6.2).
func registerSet(reg map[string]machine.Builtin) {
	reg["add"] = func(th *machine.Thread, stack *[]machine.Value) error {
		v, s, err := popSetAnd(stack)
		if err != nil {
			return err
		}
		s.Add(v)
		machine.Push(stack, s)
		return nil
	}
	reg["remove"] = func(th *machine.Thread, stack *[]machine.Value) error {
		v, s, err := popSetAnd(stack)
		if err != nil {
			return err
		}
		s.Remove(v)
		machine.Push(stack, s)
		return nil
	}
	reg["has"] = func(th *machine.Thread, stack *[]machine.Value) error {
		v, s, err := popSetAnd(stack)
		if err != nil {
			return err
		}
		machine.Push(stack, machine.Bool(s.Contains(v)))
		return nil
	}
	// union/intersection/difference name Set.Binary's +/&/- overloads
	// explicitly, matching spec.md §8 scenario S7's named-word spelling.
	reg["union"] = setBinaryOp(machine.OpAdd)
	reg["intersection"] = setBinaryOp(machine.OpAnd)
	reg["difference"] = setBinaryOp(machine.OpSub)
}

func setBinaryOp(op machine.BinOp) machine.Builtin {
	return func(th *machine.Thread, stack *[]machine.Value) error {
		bv, err := machine.Pop(stack)
		if err != nil {
			return err
		}
		b, ok := bv.(*machine.Set)
		if !ok {
			return machine.NewError(machine.TypeMismatch, "expected a set, got %s", bv.Type())
		}
		av, err := machine.Pop(stack)
		if err != nil {
			return err
		}
		a, ok := av.(*machine.Set)
		if !ok {
			return machine.NewError(machine.TypeMismatch, "expected a set, got %s", av.Type())
		}
		out, err := a.Binary(op, b, machine.Left)
		if err != nil {
			return err
		}
		machine.Push(stack, out)
		return nil
	}
}

func popSetAnd(stack *[]machine.Value) (machine.Value, *machine.Set, error) {
	sv, err := machine.Pop(stack)
	if err != nil {
		return nil, nil, err
	}
	s, ok := sv.(*machine.Set)
	if !ok {
		return nil, nil, machine.NewError(machine.TypeMismatch, "expected a set, got %s", sv.Type())
	}
	v, err := machine.Pop(stack)
	if err != nil {
		return nil, nil, err
	}
	return v, s, nil
}
