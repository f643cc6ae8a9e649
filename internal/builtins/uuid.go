package builtins

import (
	"github.com/google/uuid"

	"github.com/tomhrr/cosh/lang/machine"
)

// registerUUID adds the `uuid` word (spec.md §6.10), grounded on the
// retrieved pack's own use of github.com/google/uuid for identifier
// generation.
func registerUUID(reg map[string]machine.Builtin) {
	reg["uuid"] = func(th *machine.Thread, stack *[]machine.Value) error {
		machine.Push(stack, machine.String(uuid.NewString()))
		return nil
	}
}
