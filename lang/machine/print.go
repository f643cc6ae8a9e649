package machine

// Reify materializes any Iterable into a List, draining a Generator if
// necessary; this backs the "r" built-in (spec.md §9 "reification").
// Non-generator Iterables (List, Set, Hash) are copied rather than mutated
// in place, so reifying one twice never observes partial consumption the
// way a Generator's single-pass drain does.
func Reify(v Value) (*List, error) {
	switch t := v.(type) {
	case *List:
		return NewList(append([]Value(nil), t.Elems()...)), nil
	case *Generator:
		return t.Reify()
	case Iterable:
		var out []Value
		it := t.Iterate()
		defer it.Done()
		var x Value
		for it.Next(&x) {
			out = append(out, x)
		}
		return NewList(out), nil
	}
	return nil, &TypeError{Op: "reify", Operand: v}
}

// Display renders v the way the REPL echoes a top-level result: strings
// print unquoted (unlike printRepr, used inside container literals where
// quoting disambiguates element boundaries).
func Display(v Value) string {
	if s, ok := v.(String); ok {
		return string(s)
	}
	return v.String()
}
