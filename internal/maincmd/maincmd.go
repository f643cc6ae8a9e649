// Package maincmd implements cosh's command-line front end (spec.md §6.3):
// no-args starts the interactive REPL, a path argument runs it as a script,
// and -c/-o compiles a source file to a .chc bytecode container. Dispatch
// itself is unchanged from the teacher: buildCmds reflects over Cmd's own
// methods to find command handlers, rather than a hand-maintained switch.
package maincmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/mna/mainer"

	"github.com/tomhrr/cosh/internal/builtins"
	"github.com/tomhrr/cosh/internal/config"
	"github.com/tomhrr/cosh/internal/jobs"
	"github.com/tomhrr/cosh/lang/machine"
)

const binName = "cosh"

var (
	shortUsage = fmt.Sprintf(`
usage: %s [<option>...] [<path> [<arg>...]]
Run '%[1]s --help' for details.
`, binName)

	longUsage = fmt.Sprintf(`usage: %s [<option>...] [<path> [<arg>...]]
       %[1]s -c <src> -o <out>
       %[1]s -h|--help
       %[1]s -v|--version

A concatenative, stack-based, bytecode-compiled shell.

With no <path>, starts an interactive REPL reading forms from stdin. With a
<path>, runs it as a script; any remaining arguments are accepted but not
passed to the script. With -c/-o, compiles <src> to a .chc bytecode
container instead of running it.

Valid flag options are:
       -h --help                 Show this help and exit.
       -v --version              Print version and exit.
       -c --compile <path>       Compile <path> instead of running it.
       -o --output <path>        Write -c's compiled output to <path>.
       --no-cosh-conf            Skip loading ~/.config/cosh/config.yaml.
       --no-rt                   Skip the .chc runtime/library preload
                                 listed in the user config's "libs".

Debug commands (one-off introspection of the compiler pipeline):
       tokenize <path>           Print the token stream for <path>.
       parse <path>              Print the parsed form tree for <path>.
       resolve <path>            Print the form tree with resolved bindings.

More information on the %[1]s repository:
       https://github.com/tomhrr/cosh
`, binName)
)

// Cmd holds cosh's parsed command-line flags plus the process-wide state
// (config, job table, builtin registry) every subcommand shares.
type Cmd struct {
	BuildVersion string
	BuildDate    string

	Help    bool `flag:"h,help"`
	Version bool `flag:"v,version"`

	Compile    string `flag:"c,compile"`
	Output     string `flag:"o,output"`
	NoCoshConf bool   `flag:"no-cosh-conf"`
	NoRT       bool   `flag:"no-rt"`

	args  []string
	flags map[string]bool
	cmdFn func(context.Context, mainer.Stdio, []string) error

	cfg *config.Config
	jbs *jobs.Table
	reg map[string]machine.Builtin
}

func (c *Cmd) SetArgs(args []string) {
	c.args = args
}

func (c *Cmd) SetFlags(flags map[string]bool) {
	c.flags = flags
}

func (c *Cmd) Validate() error {
	if c.Help || c.Version {
		return nil
	}

	if c.Compile != "" || c.Output != "" {
		if c.Compile == "" || c.Output == "" {
			return errors.New("-c and -o must be given together")
		}
		c.cmdFn = c.compileCmd
		return nil
	}

	debugCmds := buildCmds(c)
	if len(c.args) > 0 {
		if fn, ok := debugCmds[c.args[0]]; ok {
			if len(c.args[1:]) == 0 {
				return fmt.Errorf("%s: a path must be provided", c.args[0])
			}
			c.cmdFn = fn
			c.args = c.args[1:]
			return nil
		}
	}

	if len(c.args) == 0 {
		c.cmdFn = c.repl
		return nil
	}
	c.cmdFn = c.runScript
	return nil
}

func (c *Cmd) Main(args []string, stdio mainer.Stdio) mainer.ExitCode {
	p := mainer.Parser{
		EnvVars:   false,
		EnvPrefix: strings.ToUpper(binName) + "_",
	}
	if err := p.Parse(args, c); err != nil {
		fmt.Fprintf(stdio.Stderr, "invalid arguments: %s\n%s", err, shortUsage)
		return mainer.InvalidArgs
	}

	switch {
	case c.Help:
		fmt.Fprint(stdio.Stdout, longUsage)
		return mainer.Success

	case c.Version:
		fmt.Fprintf(stdio.Stdout, "%s %s %s\n", binName, c.BuildVersion, c.BuildDate)
		return mainer.Success
	}

	cfg, err := config.Load(c.NoCoshConf)
	if err != nil {
		fmt.Fprintf(stdio.Stderr, "loading config: %s\n", err)
		return mainer.Failure
	}
	c.cfg = cfg
	c.jbs = jobs.NewTable()
	defer c.jbs.KillAll()

	ctx := mainer.CancelOnSignal(context.Background(), os.Interrupt)
	if err := c.cmdFn(ctx, stdio, c.args); err != nil {
		if ec, ok := err.(builtins.ExitError); ok {
			return mainer.ExitCode(ec)
		}
		return mainer.Failure
	}
	return mainer.Success
}

func (c *Cmd) builtinRegistry() map[string]machine.Builtin {
	if c.reg == nil {
		c.reg = builtins.Registry(c.jbs)
	}
	return c.reg
}

// buildCmds reflects over v's methods, picking out the debug subcommands:
// those taking (context.Context, mainer.Stdio, []string) and returning a
// single error, the same signature-matching convention the teacher used to
// register its own parse/resolve/tokenize commands.
func buildCmds(v interface{}) map[string]func(context.Context, mainer.Stdio, []string) error {
	cmds := make(map[string]func(context.Context, mainer.Stdio, []string) error)

	vv := reflect.ValueOf(v)
	vt := vv.Type()
	for i := 0; i < vt.NumMethod(); i++ {
		m := vt.Method(i)
		mt := m.Type

		if mt.NumIn() != 4 || mt.NumOut() != 1 {
			continue
		}
		if rt := mt.Out(0); rt.Kind() != reflect.Interface || rt.Name() != "error" {
			continue
		}
		if p0 := mt.In(0); p0.Kind() != reflect.Ptr || p0.Elem().Name() != "Cmd" {
			continue
		}
		if p1 := mt.In(1); p1.Kind() != reflect.Interface || p1.Name() != "Context" {
			continue
		}
		if p2 := mt.In(2); p2.Kind() != reflect.Struct || p2.Name() != "Stdio" {
			continue
		}
		if p3 := mt.In(3); p3.Kind() != reflect.Slice || p3.Elem().Name() != "string" {
			continue
		}
		name := strings.ToLower(m.Name)
		switch name {
		case "tokenize", "parse", "resolve":
			cmds[name] = vv.Method(i).Interface().(func(context.Context, mainer.Stdio, []string) error)
		}
	}
	return cmds
}
