package builtins

import (
	"strconv"
	"strings"

	"github.com/tomhrr/cosh/lang/machine"
)

// registerString adds the string built-ins named in spec.md §6.2: split,
// join (see list.go, shared with List), case conversion, trimming,
// substitution, and the numeric/string conversions every scalar type
// supports.
func registerString(reg map[string]machine.Builtin) {
	reg["split"] = func(th *machine.Thread, stack *[]machine.Value) error {
		sep, s, err := popStringAnd(stack)
		if err != nil {
			return err
		}
		parts := strings.Split(string(s), string(sep))
		out := make([]machine.Value, len(parts))
		for i, p := range parts {
			out[i] = machine.String(p)
		}
		machine.Push(stack, machine.NewList(out))
		return nil
	}
	reg["upper"] = stringUnary(strings.ToUpper)
	reg["lower"] = stringUnary(strings.ToLower)
	reg["trim"] = stringUnary(strings.TrimSpace)
	reg["replace"] = func(th *machine.Thread, stack *[]machine.Value) error {
		repl, err := machine.Pop(stack)
		if err != nil {
			return err
		}
		old, s, err := popStringAnd(stack)
		if err != nil {
			return err
		}
		replS, ok := repl.(machine.String)
		if !ok {
			return machine.NewError(machine.TypeMismatch, "replace expects a string")
		}
		machine.Push(stack, machine.String(strings.ReplaceAll(string(s), string(old), string(replS))))
		return nil
	}
	reg["contains"] = func(th *machine.Thread, stack *[]machine.Value) error {
		needle, s, err := popStringAnd(stack)
		if err != nil {
			return err
		}
		machine.Push(stack, machine.Bool(strings.Contains(string(s), string(needle))))
		return nil
	}
	reg["to-int"] = func(th *machine.Thread, stack *[]machine.Value) error {
		v, err := machine.Pop(stack)
		if err != nil {
			return err
		}
		s, ok := v.(machine.String)
		if !ok {
			return machine.NewError(machine.TypeMismatch, "to-int expects a string")
		}
		n, err := strconv.ParseInt(strings.TrimSpace(string(s)), 10, 64)
		if err != nil {
			return machine.NewError(machine.DomainError, "not an integer: %q", s)
		}
		machine.Push(stack, machine.Int(n))
		return nil
	}
	reg["to-float"] = func(th *machine.Thread, stack *[]machine.Value) error {
		v, err := machine.Pop(stack)
		if err != nil {
			return err
		}
		s, ok := v.(machine.String)
		if !ok {
			return machine.NewError(machine.TypeMismatch, "to-float expects a string")
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(string(s)), 64)
		if err != nil {
			return machine.NewError(machine.DomainError, "not a float: %q", s)
		}
		machine.Push(stack, machine.Float(f))
		return nil
	}
	reg["to-string"] = func(th *machine.Thread, stack *[]machine.Value) error {
		v, err := machine.Pop(stack)
		if err != nil {
			return err
		}
		machine.Push(stack, machine.String(machine.Display(v)))
		return nil
	}
}

func stringUnary(f func(string) string) machine.Builtin {
	return func(th *machine.Thread, stack *[]machine.Value) error {
		v, err := machine.Pop(stack)
		if err != nil {
			return err
		}
		s, ok := v.(machine.String)
		if !ok {
			return machine.NewError(machine.TypeMismatch, "expected a string, got %s", v.Type())
		}
		machine.Push(stack, machine.String(f(string(s))))
		return nil
	}
}

func popStringAnd(stack *[]machine.Value) (machine.String, machine.String, error) {
	topV, err := machine.Pop(stack)
	if err != nil {
		return "", "", err
	}
	top, ok := topV.(machine.String)
	if !ok {
		return "", "", machine.NewError(machine.TypeMismatch, "expected a string, got %s", topV.Type())
	}
	belowV, err := machine.Pop(stack)
	if err != nil {
		return "", "", err
	}
	below, ok := belowV.(machine.String)
	if !ok {
		return "", "", machine.NewError(machine.TypeMismatch, "expected a string, got %s", belowV.Type())
	}
	return top, below, nil
}
