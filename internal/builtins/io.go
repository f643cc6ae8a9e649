package builtins

import (
	"fmt"

	"github.com/tomhrr/cosh/lang/machine"
)

// registerIO adds the basic terminal I/O words (spec.md §6.4): print writes
// without a trailing newline, println adds one, read-line blocks for one
// line of input on the thread's Stdin.
func registerIO(reg map[string]machine.Builtin) {
	reg["print"] = func(th *machine.Thread, stack *[]machine.Value) error {
		v, err := machine.Pop(stack)
		if err != nil {
			return err
		}
		fmt.Fprint(th.Stdout, machine.Display(v))
		return nil
	}
	reg["println"] = func(th *machine.Thread, stack *[]machine.Value) error {
		v, err := machine.Pop(stack)
		if err != nil {
			return err
		}
		fmt.Fprintln(th.Stdout, machine.Display(v))
		return nil
	}
	reg["read-line"] = func(th *machine.Thread, stack *[]machine.Value) error {
		line, ok := th.StdinLine()
		if !ok {
			machine.Push(stack, machine.Null{})
			return nil
		}
		machine.Push(stack, machine.String(line))
		return nil
	}
}
