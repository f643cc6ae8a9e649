package builtins

import (
	"regexp"

	"github.com/tomhrr/cosh/lang/machine"
)

// registerRegex adds match/re-replace/re-split (spec.md §6.8), built on
// stdlib regexp since no third-party regex engine appears in the retrieved
// pack.
func registerRegex(reg map[string]machine.Builtin) {
	reg["match"] = func(th *machine.Thread, stack *[]machine.Value) error {
		pat, s, err := popStringAnd(stack)
		if err != nil {
			return err
		}
		re, err := regexp.Compile(string(pat))
		if err != nil {
			return machine.NewError(machine.DomainError, "match: bad pattern: %v", err)
		}
		machine.Push(stack, machine.Bool(re.MatchString(string(s))))
		return nil
	}
	reg["re-replace"] = func(th *machine.Thread, stack *[]machine.Value) error {
		repl, err := machine.Pop(stack)
		if err != nil {
			return err
		}
		replS, ok := repl.(machine.String)
		if !ok {
			return machine.NewError(machine.TypeMismatch, "re-replace expects a string replacement")
		}
		pat, s, err := popStringAnd(stack)
		if err != nil {
			return err
		}
		re, err := regexp.Compile(string(pat))
		if err != nil {
			return machine.NewError(machine.DomainError, "re-replace: bad pattern: %v", err)
		}
		machine.Push(stack, machine.String(re.ReplaceAllString(string(s), string(replS))))
		return nil
	}
	// "c" (capture, spec.md §8 scenario S6) returns a list holding the first
	// match's whole text followed by each of the pattern's capture groups,
	// e.g. `asdf ".(.)" c` gives ("as" "s").
	reg["c"] = func(th *machine.Thread, stack *[]machine.Value) error {
		pat, s, err := popStringAnd(stack)
		if err != nil {
			return err
		}
		re, err := regexp.Compile(string(pat))
		if err != nil {
			return machine.NewError(machine.DomainError, "c: bad pattern: %v", err)
		}
		m := re.FindStringSubmatch(string(s))
		if m == nil {
			return machine.NewError(machine.DomainError, "c: no match")
		}
		out := make([]machine.Value, 0, len(m))
		for _, g := range m {
			out = append(out, machine.String(g))
		}
		machine.Push(stack, machine.NewList(out))
		return nil
	}
	reg["re-split"] = func(th *machine.Thread, stack *[]machine.Value) error {
		pat, s, err := popStringAnd(stack)
		if err != nil {
			return err
		}
		re, err := regexp.Compile(string(pat))
		if err != nil {
			return machine.NewError(machine.DomainError, "re-split: bad pattern: %v", err)
		}
		parts := re.Split(string(s), -1)
		out := make([]machine.Value, len(parts))
		for i, p := range parts {
			out[i] = machine.String(p)
		}
		machine.Push(stack, machine.NewList(out))
		return nil
	}
}
