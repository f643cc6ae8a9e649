package builtins

import (
	"time"

	"github.com/tomhrr/cosh/lang/machine"
)

// registerDatetime adds now/format-time/parse-time (spec.md §6.7), built on
// stdlib time since no ecosystem date/time library appears in the
// retrieved pack.
func registerDatetime(reg map[string]machine.Builtin) {
	reg["now"] = func(th *machine.Thread, stack *[]machine.Value) error {
		machine.Push(stack, machine.Int(time.Now().Unix()))
		return nil
	}
	reg["format-time"] = func(th *machine.Thread, stack *[]machine.Value) error {
		layout, err := machine.Pop(stack)
		if err != nil {
			return err
		}
		layoutS, ok := layout.(machine.String)
		if !ok {
			return machine.NewError(machine.TypeMismatch, "format-time expects a layout string")
		}
		tsv, err := machine.Pop(stack)
		if err != nil {
			return err
		}
		ts, ok := tsv.(machine.Int)
		if !ok {
			return machine.NewError(machine.TypeMismatch, "format-time expects an int unix timestamp")
		}
		t := time.Unix(int64(ts), 0).UTC()
		machine.Push(stack, machine.String(t.Format(string(layoutS))))
		return nil
	}
	reg["parse-time"] = func(th *machine.Thread, stack *[]machine.Value) error {
		sv, err := machine.Pop(stack)
		if err != nil {
			return err
		}
		s, ok := sv.(machine.String)
		if !ok {
			return machine.NewError(machine.TypeMismatch, "parse-time expects a string")
		}
		lv, err := machine.Pop(stack)
		if err != nil {
			return err
		}
		layout, ok := lv.(machine.String)
		if !ok {
			return machine.NewError(machine.TypeMismatch, "parse-time expects a layout string")
		}
		t, err := time.Parse(string(layout), string(s))
		if err != nil {
			return machine.NewError(machine.DomainError, "parse-time: %v", err)
		}
		machine.Push(stack, machine.Int(t.Unix()))
		return nil
	}
}
