package builtins

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/tomhrr/cosh/lang/machine"
)

// registerHTTP adds http-get/http-get-json/http-get-yaml (spec.md §6.13).
// No ecosystem HTTP client appears in the retrieved pack, so the request
// itself goes through stdlib net/http; gopkg.in/yaml.v3, already an
// indirect dependency of the example pack's config loaders, backs the
// YAML-typed response decoder the way it backs config-file parsing.
func registerHTTP(reg map[string]machine.Builtin) {
	client := &http.Client{Timeout: 30 * time.Second}

	reg["http-get"] = func(th *machine.Thread, stack *[]machine.Value) error {
		body, err := httpGet(client, stack)
		if err != nil {
			return err
		}
		machine.Push(stack, machine.String(body))
		return nil
	}
	reg["http-get-json"] = func(th *machine.Thread, stack *[]machine.Value) error {
		body, err := httpGet(client, stack)
		if err != nil {
			return err
		}
		var v any
		if err := json.Unmarshal([]byte(body), &v); err != nil {
			return machine.NewError(machine.ExternalError, "http-get-json: %v", err)
		}
		machine.Push(stack, anyToMachine(v))
		return nil
	}
	reg["http-get-yaml"] = func(th *machine.Thread, stack *[]machine.Value) error {
		body, err := httpGet(client, stack)
		if err != nil {
			return err
		}
		var v any
		if err := yaml.Unmarshal([]byte(body), &v); err != nil {
			return machine.NewError(machine.ExternalError, "http-get-yaml: %v", err)
		}
		machine.Push(stack, anyToMachine(v))
		return nil
	}
}

func httpGet(client *http.Client, stack *[]machine.Value) (string, error) {
	uv, err := machine.Pop(stack)
	if err != nil {
		return "", err
	}
	u, ok := uv.(machine.String)
	if !ok {
		return "", machine.NewError(machine.TypeMismatch, "expected a URL string")
	}
	resp, err := client.Get(string(u))
	if err != nil {
		return "", machine.NewError(machine.ExternalError, "http-get %q: %v", u, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", machine.NewError(machine.ExternalError, "http-get %q: %v", u, err)
	}
	return string(data), nil
}

func anyToMachine(v any) machine.Value {
	switch t := v.(type) {
	case nil:
		return machine.Null{}
	case bool:
		return machine.Bool(t)
	case string:
		return machine.String(t)
	case float64:
		return machine.Float(t)
	case int:
		return machine.Int(t)
	case []any:
		out := make([]machine.Value, len(t))
		for i, e := range t {
			out[i] = anyToMachine(e)
		}
		return machine.NewList(out)
	case map[string]any:
		h := machine.NewHash(len(t))
		for k, e := range t {
			h.SetKey(machine.String(k), anyToMachine(e))
		}
		return h
	case map[any]any:
		h := machine.NewHash(len(t))
		for k, e := range t {
			h.SetKey(anyToMachine(k), anyToMachine(e))
		}
		return h
	default:
		return machine.String("")
	}
}
