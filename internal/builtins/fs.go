package builtins

import (
	"os"

	"github.com/tomhrr/cosh/lang/machine"
)

// registerFS adds the filesystem words (spec.md §6.5): read-file/
// write-file/exists/ls, built directly on stdlib os/io-fs since no
// filesystem library appears anywhere in the retrieved pack.
func registerFS(reg map[string]machine.Builtin) {
	reg["read-file"] = func(th *machine.Thread, stack *[]machine.Value) error {
		pv, err := machine.Pop(stack)
		if err != nil {
			return err
		}
		path, ok := pv.(machine.String)
		if !ok {
			return machine.NewError(machine.TypeMismatch, "read-file expects a path string")
		}
		data, err := os.ReadFile(string(path))
		if err != nil {
			return machine.NewError(machine.ExternalError, "read-file %q: %v", path, err)
		}
		machine.Push(stack, machine.String(data))
		return nil
	}
	reg["write-file"] = func(th *machine.Thread, stack *[]machine.Value) error {
		contents, err := machine.Pop(stack)
		if err != nil {
			return err
		}
		pv, err := machine.Pop(stack)
		if err != nil {
			return err
		}
		path, ok := pv.(machine.String)
		if !ok {
			return machine.NewError(machine.TypeMismatch, "write-file expects a path string")
		}
		if err := os.WriteFile(string(path), []byte(machine.Display(contents)), 0o644); err != nil {
			return machine.NewError(machine.ExternalError, "write-file %q: %v", path, err)
		}
		return nil
	}
	reg["exists"] = func(th *machine.Thread, stack *[]machine.Value) error {
		pv, err := machine.Pop(stack)
		if err != nil {
			return err
		}
		path, ok := pv.(machine.String)
		if !ok {
			return machine.NewError(machine.TypeMismatch, "exists expects a path string")
		}
		_, statErr := os.Stat(string(path))
		machine.Push(stack, machine.Bool(statErr == nil))
		return nil
	}
	reg["ls"] = func(th *machine.Thread, stack *[]machine.Value) error {
		pv, err := machine.Pop(stack)
		if err != nil {
			return err
		}
		path, ok := pv.(machine.String)
		if !ok {
			return machine.NewError(machine.TypeMismatch, "ls expects a path string")
		}
		entries, err := os.ReadDir(string(path))
		if err != nil {
			return machine.NewError(machine.ExternalError, "ls %q: %v", path, err)
		}
		out := make([]machine.Value, len(entries))
		for i, e := range entries {
			out[i] = machine.String(e.Name())
		}
		machine.Push(stack, machine.NewList(out))
		return nil
	}
}
