package builtins

import (
	"os"

	"github.com/mattn/go-isatty"

	"github.com/tomhrr/cosh/lang/machine"
)

// registerTerm adds `interactive?` (spec.md §6.11), gating REPL-only
// behavior such as prompt display — grounded on the retrieved pack's own
// use of github.com/mattn/go-isatty for the same purpose.
func registerTerm(reg map[string]machine.Builtin) {
	reg["interactive?"] = func(th *machine.Thread, stack *[]machine.Value) error {
		machine.Push(stack, machine.Bool(isatty.IsTerminal(os.Stdin.Fd())))
		return nil
	}
}
