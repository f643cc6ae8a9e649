package builtins

import (
	"fmt"

	"github.com/tomhrr/cosh/lang/machine"
)

// ExitError is returned by the `exit` builtin (spec.md §6.3: "user `exit n`
// maps to a new mainer.ExitCode(n)") so internal/maincmd can unwrap it and
// translate it into a process exit code instead of the generic Failure
// every other builtin error produces.
type ExitError int

func (e ExitError) Error() string { return fmt.Sprintf("exit %d", int(e)) }

// registerExit adds the `exit` word (spec.md §6.3), which unwinds out of
// whatever script or REPL line is running with the given process exit
// code.
func registerExit(reg map[string]machine.Builtin) {
	reg["exit"] = func(th *machine.Thread, stack *[]machine.Value) error {
		nv, err := machine.Pop(stack)
		if err != nil {
			return err
		}
		n, ok := nv.(machine.Int)
		if !ok {
			return machine.NewError(machine.TypeMismatch, "exit expects an integer code")
		}
		return ExitError(n)
	}
}
