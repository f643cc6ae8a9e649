package builtins

import "github.com/tomhrr/cosh/lang/machine"

// registerHash adds the Hash built-ins (spec.md §6.2): hget/hset/hdel/
// haskey/keys/values, mirroring the Mapping interface lang/machine/hash.go
// implements.
func registerHash(reg map[string]machine.Builtin) {
	reg["hget"] = func(th *machine.Thread, stack *[]machine.Value) error {
		k, h, err := popHashAnd(stack)
		if err != nil {
			return err
		}
		v, found, err := h.Get(k)
		if err != nil {
			return err
		}
		if !found {
			return machine.NewError(machine.IndexError, "key not found")
		}
		machine.Push(stack, v)
		return nil
	}
	reg["hset"] = func(th *machine.Thread, stack *[]machine.Value) error {
		v, err := machine.Pop(stack)
		if err != nil {
			return err
		}
		k, h, err := popHashAnd(stack)
		if err != nil {
			return err
		}
		if err := h.SetKey(k, v); err != nil {
			return err
		}
		machine.Push(stack, h)
		return nil
	}
	reg["hdel"] = func(th *machine.Thread, stack *[]machine.Value) error {
		k, h, err := popHashAnd(stack)
		if err != nil {
			return err
		}
		h.Delete(k)
		machine.Push(stack, h)
		return nil
	}
	reg["haskey"] = func(th *machine.Thread, stack *[]machine.Value) error {
		k, h, err := popHashAnd(stack)
		if err != nil {
			return err
		}
		_, found, err := h.Get(k)
		if err != nil {
			return err
		}
		machine.Push(stack, machine.Bool(found))
		return nil
	}
	reg["keys"] = func(th *machine.Thread, stack *[]machine.Value) error {
		v, err := machine.Pop(stack)
		if err != nil {
			return err
		}
		h, ok := v.(*machine.Hash)
		if !ok {
			return machine.NewError(machine.TypeMismatch, "keys expects a hash")
		}
		machine.Push(stack, machine.NewList(append([]machine.Value(nil), h.Keys()...)))
		return nil
	}
	reg["values"] = func(th *machine.Thread, stack *[]machine.Value) error {
		v, err := machine.Pop(stack)
		if err != nil {
			return err
		}
		h, ok := v.(*machine.Hash)
		if !ok {
			return machine.NewError(machine.TypeMismatch, "values expects a hash")
		}
		var out []machine.Value
		for _, k := range h.Keys() {
			vv, _, _ := h.Get(k)
			out = append(out, vv)
		}
		machine.Push(stack, machine.NewList(out))
		return nil
	}
}

func popHashAnd(stack *[]machine.Value) (machine.Value, *machine.Hash, error) {
	hv, err := machine.Pop(stack)
	if err != nil {
		return nil, nil, err
	}
	h, ok := hv.(*machine.Hash)
	if !ok {
		return nil, nil, machine.NewError(machine.TypeMismatch, "expected a hash, got %s", hv.Type())
	}
	k, err := machine.Pop(stack)
	if err != nil {
		return nil, nil, err
	}
	return k, h, nil
}
