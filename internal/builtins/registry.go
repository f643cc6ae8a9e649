// Package builtins implements the built-in words that are not compiled
// straight to a dedicated opcode (spec.md §6). Each exported registration
// function adds a handful of words to a shared map, grouped one file per
// concern the way the teacher's own package layout groups unrelated
// responsibilities into sibling files rather than one monolith.
package builtins

import (
	"github.com/tomhrr/cosh/internal/jobs"
	"github.com/tomhrr/cosh/lang/machine"
)

// Registry builds the full name -> implementation table threaded into a
// machine.Thread as Thread.Builtins. table tracks the external-process
// children spawned by the run-bg builtin (internal/jobs, spec.md
// §5 "Process-wide state"); pass a fresh jobs.NewTable() per process.
func Registry(table *jobs.Table) map[string]machine.Builtin {
	reg := map[string]machine.Builtin{}
	registerStack(reg)
	registerList(reg)
	registerSet(reg)
	registerHash(reg)
	registerString(reg)
	registerGenerator(reg)
	registerIO(reg)
	registerFS(reg)
	registerProcess(reg, table)
	registerWorker(reg)
	registerExit(reg)
	registerDatetime(reg)
	registerRegex(reg)
	registerIP(reg)
	registerUUID(reg)
	registerTerm(reg)
	registerSQL(reg)
	registerHTTP(reg)
	registerJSON(reg)
	return reg
}

func arity1(stack *[]machine.Value) (machine.Value, error) {
	return machine.Pop(stack)
}

func arity2(stack *[]machine.Value) (machine.Value, machine.Value, error) {
	b, err := machine.Pop(stack)
	if err != nil {
		return nil, nil, err
	}
	a, err := machine.Pop(stack)
	if err != nil {
		return nil, nil, err
	}
	return a, b, nil
}
