package builtins

import (
	"bufio"
	"os/exec"
	"strings"

	"github.com/tomhrr/cosh/internal/jobs"
	"github.com/tomhrr/cosh/lang/machine"
)

// registerProcess adds the process-invocation words (spec.md §6.6): `run`
// executes a shell command to completion and returns its captured stdout
// and stderr combined;
// `run-gen` runs it as a Generator, yielding one line of stdout at a time
// so a long-running command's output can be consumed lazily rather than
// buffered in full, matching the lazy-by-default feel of cosh generators.
// `status` reports on, and `kill` signals, a job previously returned by
// `run-bg` (internal/jobs, spec.md §5 "Process-wide state").
func registerProcess(reg map[string]machine.Builtin, table *jobs.Table) {
	reg["run"] = func(th *machine.Thread, stack *[]machine.Value) error {
		cv, err := machine.Pop(stack)
		if err != nil {
			return err
		}
		cmdline, ok := cv.(machine.String)
		if !ok {
			return machine.NewError(machine.TypeMismatch, "run expects a command string")
		}
		cmd := exec.Command("/bin/sh", "-c", string(cmdline))
		out, runErr := cmd.CombinedOutput()
		if runErr != nil {
			return machine.NewError(machine.ExternalError, "run %q: %v", cmdline, runErr)
		}
		machine.Push(stack, machine.String(strings.TrimRight(string(out), "\n")))
		return nil
	}
	reg["run-gen"] = func(th *machine.Thread, stack *[]machine.Value) error {
		cv, err := machine.Pop(stack)
		if err != nil {
			return err
		}
		cmdline, ok := cv.(machine.String)
		if !ok {
			return machine.NewError(machine.TypeMismatch, "run-gen expects a command string")
		}
		cmd := exec.Command("/bin/sh", "-c", string(cmdline))
		stdout, err := cmd.StdoutPipe()
		if err != nil {
			return machine.NewError(machine.ExternalError, "run-gen %q: %v", cmdline, err)
		}
		if err := cmd.Start(); err != nil {
			return machine.NewError(machine.ExternalError, "run-gen %q: %v", cmdline, err)
		}
		machine.Push(stack, machine.NewHostIterator(bufio.NewScanner(stdout), func(s *bufio.Scanner) (machine.Value, bool) {
			if !s.Scan() {
				cmd.Wait()
				return nil, false
			}
			return machine.String(s.Text()), true
		}))
		return nil
	}
	reg["run-bg"] = func(th *machine.Thread, stack *[]machine.Value) error {
		cv, err := machine.Pop(stack)
		if err != nil {
			return err
		}
		cmdline, ok := cv.(machine.String)
		if !ok {
			return machine.NewError(machine.TypeMismatch, "run-bg expects a command string")
		}
		cmd := exec.Command("/bin/sh", "-c", string(cmdline))
		if err := cmd.Start(); err != nil {
			return machine.NewError(machine.ExternalError, "run-bg %q: %v", cmdline, err)
		}
		job := table.Add(cmd)
		go func() {
			err := cmd.Wait()
			if err != nil {
				job.SetStatus(jobs.Signaled, err)
			} else {
				job.SetStatus(jobs.Exited, nil)
			}
		}()
		machine.Push(stack, machine.Int(job.ID))
		return nil
	}
	reg["status"] = func(th *machine.Thread, stack *[]machine.Value) error {
		idv, err := machine.Pop(stack)
		if err != nil {
			return err
		}
		id, ok := idv.(machine.Int)
		if !ok {
			return machine.NewError(machine.TypeMismatch, "status expects a job id")
		}
		job, ok := table.Get(int(id))
		if !ok {
			return machine.NewError(machine.DomainError, "status: no such job %d", id)
		}
		s, jerr := job.Status()
		if s == jobs.Running {
			// SIGTERM on status read of a still-running child (spec.md §5
			// "Cancellation").
			_ = job.Signal()
		}
		var text string
		switch s {
		case jobs.Running:
			text = "running"
		case jobs.Exited:
			text = "exited"
		case jobs.Signaled:
			text = "signaled"
		}
		_ = jerr
		machine.Push(stack, machine.String(text))
		return nil
	}
	reg["kill"] = func(th *machine.Thread, stack *[]machine.Value) error {
		idv, err := machine.Pop(stack)
		if err != nil {
			return err
		}
		id, ok := idv.(machine.Int)
		if !ok {
			return machine.NewError(machine.TypeMismatch, "kill expects a job id")
		}
		job, ok := table.Get(int(id))
		if !ok {
			return machine.NewError(machine.DomainError, "kill: no such job %d", id)
		}
		if err := job.Signal(); err != nil {
			return machine.NewError(machine.ExternalError, "kill: %v", err)
		}
		return nil
	}
}
