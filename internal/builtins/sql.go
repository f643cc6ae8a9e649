package builtins

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/tomhrr/cosh/lang/machine"
)

// dbHandle is a host value wrapping an open database/sql connection
// (spec.md §6.12 "host handles"); cosh has no object system, so a host
// handle is just an opaque Value that only the builtins that created it
// know how to unwrap.
type dbHandle struct{ db *sql.DB }

func (h *dbHandle) String() string { return fmt.Sprintf("db-conn(%p)", h.db) }
func (*dbHandle) Type() string     { return "db-conn" }

var _ machine.Value = (*dbHandle)(nil)

// registerSQL adds db-open/db-exec/db-query (spec.md §6.12), grounded on
// the retrieved pack's own use of modernc.org/sqlite, the pure-Go SQLite
// driver, as its database/sql backend.
func registerSQL(reg map[string]machine.Builtin) {
	reg["db-open"] = func(th *machine.Thread, stack *[]machine.Value) error {
		pv, err := machine.Pop(stack)
		if err != nil {
			return err
		}
		path, ok := pv.(machine.String)
		if !ok {
			return machine.NewError(machine.TypeMismatch, "db-open expects a path string")
		}
		db, err := sql.Open("sqlite", string(path))
		if err != nil {
			return machine.NewError(machine.ExternalError, "db-open: %v", err)
		}
		machine.Push(stack, &dbHandle{db: db})
		return nil
	}
	reg["db-exec"] = func(th *machine.Thread, stack *[]machine.Value) error {
		query, h, err := popStringAndDB(stack)
		if err != nil {
			return err
		}
		if _, err := h.db.Exec(string(query)); err != nil {
			return machine.NewError(machine.ExternalError, "db-exec: %v", err)
		}
		return nil
	}
	reg["db-query"] = func(th *machine.Thread, stack *[]machine.Value) error {
		query, h, err := popStringAndDB(stack)
		if err != nil {
			return err
		}
		rows, err := h.db.Query(string(query))
		if err != nil {
			return machine.NewError(machine.ExternalError, "db-query: %v", err)
		}
		defer rows.Close()
		cols, err := rows.Columns()
		if err != nil {
			return machine.NewError(machine.ExternalError, "db-query: %v", err)
		}
		var out []machine.Value
		for rows.Next() {
			raw := make([]any, len(cols))
			ptrs := make([]any, len(cols))
			for i := range raw {
				ptrs[i] = &raw[i]
			}
			if err := rows.Scan(ptrs...); err != nil {
				return machine.NewError(machine.ExternalError, "db-query: %v", err)
			}
			rowVals := make([]machine.Value, len(cols))
			for i, v := range raw {
				rowVals[i] = sqlValueToMachine(v)
			}
			out = append(out, machine.NewList(rowVals))
		}
		machine.Push(stack, machine.NewList(out))
		return nil
	}
}

func sqlValueToMachine(v any) machine.Value {
	switch t := v.(type) {
	case nil:
		return machine.Null{}
	case int64:
		return machine.Int(t)
	case float64:
		return machine.Float(t)
	case string:
		return machine.String(t)
	case []byte:
		return machine.String(t)
	case bool:
		return machine.Bool(t)
	default:
		return machine.String(fmt.Sprint(t))
	}
}

func popStringAndDB(stack *[]machine.Value) (machine.String, *dbHandle, error) {
	qv, err := machine.Pop(stack)
	if err != nil {
		return "", nil, err
	}
	q, ok := qv.(machine.String)
	if !ok {
		return "", nil, machine.NewError(machine.TypeMismatch, "expected a query string")
	}
	hv, err := machine.Pop(stack)
	if err != nil {
		return "", nil, err
	}
	h, ok := hv.(*dbHandle)
	if !ok {
		return "", nil, machine.NewError(machine.TypeMismatch, "expected a db connection, got %s", hv.Type())
	}
	return q, h, nil
}
