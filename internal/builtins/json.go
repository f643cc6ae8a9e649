package builtins

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/tomhrr/cosh/lang/machine"
)

// registerJSON adds to-json/from-json (spec.md §8 round-trip law 8), built
// on stdlib encoding/json since no third-party JSON library appears
// anywhere in the retrieved pack.
func registerJSON(reg map[string]machine.Builtin) {
	reg["to-json"] = func(th *machine.Thread, stack *[]machine.Value) error {
		v, err := machine.Pop(stack)
		if err != nil {
			return err
		}
		nv, err := valueToJSON(v)
		if err != nil {
			return err
		}
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		if err := enc.Encode(nv); err != nil {
			return machine.NewError(machine.DomainError, "to-json: %v", err)
		}
		machine.Push(stack, machine.String(strings.TrimRight(buf.String(), "\n")))
		return nil
	}
	reg["from-json"] = func(th *machine.Thread, stack *[]machine.Value) error {
		v, err := machine.Pop(stack)
		if err != nil {
			return err
		}
		s, ok := v.(machine.String)
		if !ok {
			return machine.NewError(machine.TypeMismatch, "from-json expects a string, got %s", v.Type())
		}
		dec := json.NewDecoder(strings.NewReader(string(s)))
		dec.UseNumber()
		var nv interface{}
		if err := dec.Decode(&nv); err != nil {
			return machine.NewError(machine.DomainError, "from-json: %v", err)
		}
		out, err := jsonToValue(nv)
		if err != nil {
			return err
		}
		machine.Push(stack, out)
		return nil
	}
}

func valueToJSON(v machine.Value) (interface{}, error) {
	switch t := v.(type) {
	case machine.Null:
		return nil, nil
	case machine.Bool:
		return bool(t), nil
	case machine.Int:
		return json.Number(t.String()), nil
	case machine.Float:
		return json.Number(t.String()), nil
	case machine.String:
		return string(t), nil
	case *machine.List:
		out := make([]interface{}, 0, t.Len())
		for _, e := range t.Elems() {
			jv, err := valueToJSON(e)
			if err != nil {
				return nil, err
			}
			out = append(out, jv)
		}
		return out, nil
	case *machine.Hash:
		out := make(map[string]interface{}, t.Len())
		for _, k := range t.Keys() {
			ks, ok := k.(machine.String)
			if !ok {
				return nil, machine.NewError(machine.TypeMismatch, "to-json: hash keys must be strings, got %s", k.Type())
			}
			vv, _, _ := t.Get(k)
			jv, err := valueToJSON(vv)
			if err != nil {
				return nil, err
			}
			out[string(ks)] = jv
		}
		return out, nil
	default:
		return nil, machine.NewError(machine.TypeMismatch, "to-json: unsupported type %s", v.Type())
	}
}

func jsonToValue(x interface{}) (machine.Value, error) {
	switch t := x.(type) {
	case nil:
		return machine.Null{}, nil
	case bool:
		return machine.Bool(t), nil
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return machine.Int(i), nil
		}
		f, err := t.Float64()
		if err != nil {
			return nil, machine.NewError(machine.DomainError, "from-json: bad number %q", t.String())
		}
		return machine.Float(f), nil
	case string:
		return machine.String(t), nil
	case []interface{}:
		out := make([]machine.Value, 0, len(t))
		for _, e := range t {
			ev, err := jsonToValue(e)
			if err != nil {
				return nil, err
			}
			out = append(out, ev)
		}
		return machine.NewList(out), nil
	case map[string]interface{}:
		h := machine.NewHash(len(t))
		for k, vv := range t {
			cv, err := jsonToValue(vv)
			if err != nil {
				return nil, err
			}
			if err := h.SetKey(machine.String(k), cv); err != nil {
				return nil, err
			}
		}
		return h, nil
	default:
		return nil, machine.NewError(machine.DomainError, "from-json: unsupported JSON value")
	}
}
