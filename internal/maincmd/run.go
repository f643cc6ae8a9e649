package maincmd

import (
	"context"
	"fmt"
	"os"

	"github.com/mna/mainer"

	"github.com/tomhrr/cosh/internal/builtins"
	"github.com/tomhrr/cosh/internal/chunkfile"
	"github.com/tomhrr/cosh/lang/compiler"
	"github.com/tomhrr/cosh/lang/machine"
)

// runScript executes args[0] as a cosh script (spec.md §6.3 "path [args…]
// → script runner"). args[1:] are accepted but not passed to the script:
// it starts with an empty stack and has no argument list.
func (c *Cmd) runScript(ctx context.Context, stdio mainer.Stdio, args []string) error {
	path := args[0]
	prog, err := c.loadProgram(path)
	if err != nil {
		fmt.Fprintln(stdio.Stderr, err)
		return err
	}
	reg := c.builtinRegistry()
	if err := c.preloadLibs(ctx, reg, stdio); err != nil {
		fmt.Fprintln(stdio.Stderr, err)
		return err
	}
	th := c.newThreadWith(prog, reg, stdio)
	_, err = th.Run(ctx, prog)
	if err != nil {
		if _, ok := err.(builtins.ExitError); !ok {
			fmt.Fprintln(stdio.Stderr, err)
		}
		return err
	}
	return nil
}

// compileCmd implements -c <src> -o <out>: compile without running, writing
// a .chc container (spec.md §6.2).
func (c *Cmd) compileCmd(ctx context.Context, stdio mainer.Stdio, _ []string) error {
	src, err := os.ReadFile(c.Compile)
	if err != nil {
		fmt.Fprintln(stdio.Stderr, err)
		return err
	}
	prog, err := compileSource(src)
	if err != nil {
		fmt.Fprintln(stdio.Stderr, err)
		return err
	}
	if err := chunkfile.Write(c.Output, prog); err != nil {
		fmt.Fprintln(stdio.Stderr, err)
		return err
	}
	return nil
}

// loadProgram compiles path from source, unless it is itself a .chc
// container (detected by a failed compile-from-source fallback would be
// fragile, so a .chc is recognized by its conventional extension instead).
func (c *Cmd) loadProgram(path string) (*compiler.Program, error) {
	if hasChunkExt(path) {
		return chunkfile.Read(path)
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return compileSource(src)
}

func hasChunkExt(path string) bool {
	return len(path) > 4 && path[len(path)-4:] == ".chc"
}

// preloadLibs runs every startup library path from the loaded config
// (spec.md §2 "Configuration": "startup library paths") into reg before the
// main program runs, unless --no-rt was given. Each library's top-level
// var/Define effects run once, and its Define()s are registered into reg by
// name the same way the REPL persists one line's definitions into the
// next (registerGlobals) so the main script can call them by bare word.
func (c *Cmd) preloadLibs(ctx context.Context, reg map[string]machine.Builtin, stdio mainer.Stdio) error {
	if c.NoRT || c.cfg == nil {
		return nil
	}
	for _, lib := range c.cfg.Libs {
		prog, err := c.loadProgram(lib)
		if err != nil {
			return fmt.Errorf("preloading %s: %w", lib, err)
		}
		th := c.newThreadWith(prog, reg, stdio)
		if _, err := th.Run(ctx, prog); err != nil {
			return fmt.Errorf("preloading %s: %w", lib, err)
		}
		registerGlobals(reg, prog)
	}
	return nil
}

func (c *Cmd) newThread(prog *compiler.Program, stdio mainer.Stdio) *machine.Thread {
	return c.newThreadWith(prog, c.builtinRegistry(), stdio)
}

func (c *Cmd) newThreadWith(prog *compiler.Program, reg map[string]machine.Builtin, stdio mainer.Stdio) *machine.Thread {
	th := machine.NewThread(prog, reg)
	th.Stdout = stdio.Stdout
	th.Stderr = stdio.Stderr
	th.Stdin = stdio.Stdin
	return th
}
