package builtins

import "github.com/tomhrr/cosh/lang/machine"

// registerStack adds the handful of stack-shuffling words that don't earn a
// dedicated opcode (spec.md §6.1): the hot path (dup/drop/swap/over/rot/nip/
// depth/clear) is compiled directly by lang/compiler's coreWordOpcodes
// table instead.
func registerStack(reg map[string]machine.Builtin) {
	reg["pick"] = func(th *machine.Thread, stack *[]machine.Value) error {
		n, err := machine.Pop(stack)
		if err != nil {
			return err
		}
		idx, ok := n.(machine.Int)
		if !ok {
			return machine.NewError(machine.TypeMismatch, "pick expects an int depth")
		}
		v, err := machine.Peek(stack, int(idx))
		if err != nil {
			return err
		}
		machine.Push(stack, v)
		return nil
	}
	reg["tuck"] = func(th *machine.Thread, stack *[]machine.Value) error {
		a, b, err := arity2(stack)
		if err != nil {
			return err
		}
		machine.Push(stack, b)
		machine.Push(stack, a)
		machine.Push(stack, b)
		return nil
	}
	reg["clone"] = func(th *machine.Thread, stack *[]machine.Value) error {
		v, err := machine.Pop(stack)
		if err != nil {
			return err
		}
		machine.Push(stack, machine.Clone(v))
		return nil
	}
}
