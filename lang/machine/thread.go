package machine

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"sync/atomic"

	"github.com/tomhrr/cosh/lang/compiler"
)

// Builtin is the signature every internal/builtins registry entry must
// implement (spec.md §6 "built-in words"). A builtin is a concatenative
// word: it operates directly on the shared operand stack, popping whatever
// operands it needs and pushing whatever results it produces, exactly like
// the dedicated stack-op/arithmetic opcodes it stands in for. This mirrors
// how CALLGLOBAL dispatches a named Define against the same stack rather
// than marshaling a fixed argument list.
type Builtin func(th *Thread, stack *[]Value) error

// Thread carries everything one run of a program needs: its I/O streams,
// step/recursion limits, the compiled program's constant and global tables,
// the built-in word registry, and (while executing inside a generator's
// goroutine) the channel pair that YIELD rendezvous on. Grounded on the
// teacher's thread.go; MaxCallStackDepth/MaxSteps/Stdout/Stderr/Stdin carry
// over directly, Load/Predeclared (module loading, a feature cosh has no
// equivalent of) are dropped, and Builtins/Globals/gen are added for cosh's
// own dispatch needs.
type Thread struct {
	Name string

	Stdout io.Writer
	Stderr io.Writer
	Stdin  io.Reader

	MaxSteps          int
	MaxCallStackDepth int

	Builtins map[string]Builtin

	prog      *compiler.Program
	constants []Value
	globals   []*Cell

	ctx       context.Context
	ctxCancel func()
	callStack []*Frame
	cancelled *atomic.Bool

	steps, maxSteps uint64

	gen       *genState
	stdinBuf  *bufio.Reader
}

// StdinLine reads one newline-terminated line from Stdin, buffering across
// calls so successive read-line invocations don't each discard whatever the
// previous call's Scanner had read ahead.
func (th *Thread) StdinLine() (string, bool) {
	if th.stdinBuf == nil {
		th.stdinBuf = bufio.NewReader(th.Stdin)
	}
	line, err := th.stdinBuf.ReadString('\n')
	if err != nil && line == "" {
		return "", false
	}
	for len(line) > 0 && (line[len(line)-1] == '\n' || line[len(line)-1] == '\r') {
		line = line[:len(line)-1]
	}
	return line, true
}

// NewThread prepares a Thread to run p, materializing its constant pool into
// machine Values and allocating one Cell per global Define/GeneratorDefine
// so that mutually-recursive and forward-referencing top-level definitions
// all resolve to the same storage cosh-wide.
func NewThread(p *compiler.Program, builtins map[string]Builtin) *Thread {
	th := &Thread{prog: p, Builtins: builtins, cancelled: new(atomic.Bool)}
	th.init()
	th.bindProgram(p)
	return th
}

func (th *Thread) init() {
	if th.MaxSteps <= 0 {
		th.maxSteps--
	} else {
		th.maxSteps = uint64(th.MaxSteps)
	}
	if th.Stdout == nil {
		th.Stdout = os.Stdout
	}
	if th.Stderr == nil {
		th.Stderr = os.Stderr
	}
	if th.Stdin == nil {
		th.Stdin = os.Stdin
	}
	if th.ctx == nil {
		th.ctx = context.Background()
		th.ctxCancel = func() {}
	}
}

func (th *Thread) bindProgram(p *compiler.Program) {
	th.constants = make([]Value, len(p.Constants))
	for i, c := range p.Constants {
		th.constants[i] = constantToValue(c)
	}
	th.globals = make([]*Cell, len(p.GlobalChunks))
	for i, ch := range p.GlobalChunks {
		fn := &Function{Chunk: ch}
		th.globals[i] = NewCell(fn)
	}
}

func constantToValue(c compiler.Constant) Value {
	switch c.Kind {
	case compiler.ConstInt:
		return Int(c.Int)
	case compiler.ConstBigInt:
		return newBigIntFromString(c.Big)
	case compiler.ConstFloat:
		return Float(c.Float)
	case compiler.ConstString:
		return String(c.Str)
	case compiler.ConstBool:
		return Bool(c.Bool)
	case compiler.ConstNull:
		return Null{}
	}
	panic(fmt.Sprintf("unexpected constant kind %v", c.Kind))
}

// Run compiles program p (already compiled, here just bound to the thread)
// by executing its top-level chunk to completion and returning whatever
// values are left on the operand stack.
func (th *Thread) Run(ctx context.Context, p *compiler.Program) ([]Value, error) {
	thCtx, cancel := context.WithCancel(ctx)
	th.ctx = thCtx
	th.ctxCancel = cancel
	go func() {
		<-th.ctx.Done()
		th.cancelled.Store(true)
	}()
	top := &Function{Chunk: p.Toplevel}
	return th.runChunk(top, nil)
}

// Cancelled reports whether the context passed to Run has been cancelled;
// execFrame checks this between steps so a long-running script can be
// interrupted (spec.md §6 "signal handling").
func (th *Thread) Cancelled() bool { return th.cancelled.Load() }

// forGenerator returns a Thread that shares this Thread's program binding,
// builtin registry and I/O, but runs with its own call stack and is marked
// as executing inside gs for the YIELD opcode handler.
func (th *Thread) forGenerator(gs *genState) *Thread {
	cp := *th
	cp.callStack = nil
	cp.gen = gs
	return &cp
}

// Fork returns a Thread sharing this Thread's program binding, builtin
// registry and I/O, but with its own call stack and step counter, suitable
// for invoking a Function concurrently from a worker goroutine (the
// multi-worker builtins of spec.md §5 use this instead of a subprocess
// pool: a Thread's mutable per-call state — callStack, steps — is not
// safe to share across goroutines, but everything else is read-only once
// bound).
func (th *Thread) Fork() *Thread {
	cp := *th
	cp.callStack = nil
	cp.steps = 0
	cp.gen = nil
	return &cp
}

func (th *Thread) pushFrame(fr *Frame) error {
	if th.MaxCallStackDepth > 0 && len(th.callStack) >= th.MaxCallStackDepth {
		return newError(StackOverflow, "call stack depth exceeded %d", th.MaxCallStackDepth)
	}
	th.callStack = append(th.callStack, fr)
	return nil
}

func (th *Thread) popFrame() {
	th.callStack = th.callStack[:len(th.callStack)-1]
}

func (th *Thread) topFrame() *Frame {
	if len(th.callStack) == 0 {
		return nil
	}
	return th.callStack[len(th.callStack)-1]
}
