package maincmd

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/mna/mainer"

	"github.com/tomhrr/cosh/internal/builtins"
	"github.com/tomhrr/cosh/lang/compiler"
	"github.com/tomhrr/cosh/lang/machine"
)

// repl implements the no-args interactive shell (spec.md §6.3, §7 "REPL
// error handling"): each line is compiled and run as its own top-level
// program against a shared Builtins registry, so a `:` definition entered
// on one line is callable by name on the next line — registered as a
// Builtin under compileWord's CALLBUILTIN fallback path, via
// machine.CallShared — and a runtime error is reported with the loop
// continuing rather than exiting the process. Bare top-level `var` locals
// do NOT persist across lines, only named Define()s do; see DESIGN.md
// Open Question O6.
func (c *Cmd) repl(ctx context.Context, stdio mainer.Stdio, _ []string) error {
	reg := c.builtinRegistry()
	if err := c.preloadLibs(ctx, reg, stdio); err != nil {
		fmt.Fprintln(stdio.Stderr, err)
	}
	scan := bufio.NewScanner(stdio.Stdin)
	for {
		fmt.Fprint(stdio.Stdout, c.prompt())
		if !scan.Scan() {
			break
		}
		line := scan.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		if err := c.evalLine(ctx, reg, line, stdio); err != nil {
			if ec, ok := err.(builtins.ExitError); ok {
				return ec
			}
			fmt.Fprintln(stdio.Stderr, err)
		}
	}
	return nil
}

func (c *Cmd) prompt() string {
	if c.cfg != nil && c.cfg.Prompt != "" {
		return c.cfg.Prompt
	}
	return "cosh> "
}

func (c *Cmd) evalLine(ctx context.Context, reg map[string]machine.Builtin, line string, stdio mainer.Stdio) error {
	prog, err := compileSource([]byte(line))
	if err != nil {
		return err
	}
	th := c.newThreadWith(prog, reg, stdio)
	results, err := th.Run(ctx, prog)
	if err != nil {
		return err
	}
	registerGlobals(reg, prog)
	for _, v := range results {
		fmt.Fprintln(stdio.Stdout, v)
	}
	return nil
}

// registerGlobals adds a Builtin wrapper for every Define/GeneratorDefine
// seen in prog to reg, so a later REPL line can call it by bare word even
// though that line's own compile never saw the definition
// (resolver.Result.Globals is scoped to a single compile unit, per
// compiler.go's compileWord CALLGLOBAL/CALLBUILTIN split).
func registerGlobals(reg map[string]machine.Builtin, prog *compiler.Program) {
	for i, name := range prog.Globals {
		fn := &machine.Function{Chunk: prog.GlobalChunks[i]}
		reg[name] = func(th *machine.Thread, stack *[]machine.Value) error {
			return machine.CallShared(th, fn, stack)
		}
	}
}
