package machine

// Generator implements cosh's lazy sequence values as a stackful coroutine:
// the generator body runs on its own goroutine and rendezvous with its
// consumer over a pair of unbuffered channels, one value at a time (spec.md
// §9 "generators"). This has no analogue in the teacher repo (nenuphar has
// no generators); it is grounded on Go's standard goroutine+channel
// coroutine idiom instead, which is the ecosystem's usual answer to
// stackful-coroutine needs that the language itself does not provide.
type Generator struct {
	fn   *Function
	args []Value
	th   *Thread

	out     chan genMsg
	resume  chan struct{}
	started bool
	done    bool
	err     error
}

type genMsg struct {
	val  Value
	done bool
	err  error
}

// genState is attached to a Thread that is executing inside a generator's
// goroutine; the YIELD opcode handler in the dispatch loop looks for it.
type genState struct {
	out    chan genMsg
	resume chan struct{}
}

var (
	_ Value    = (*Generator)(nil)
	_ Iterable = (*Generator)(nil)
)

func NewGenerator(th *Thread, fn *Function, args []Value) *Generator {
	return &Generator{
		fn:     fn,
		args:   args,
		th:     th,
		out:    make(chan genMsg),
		resume: make(chan struct{}),
	}
}

func (g *Generator) String() string { return "generator" }
func (*Generator) Type() string     { return "generator" }

// start launches the generator's body on its own goroutine. Called lazily,
// on the first Next.
func (g *Generator) start() {
	gs := &genState{out: g.out, resume: g.resume}
	gth := g.th.forGenerator(gs)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				err, ok := r.(error)
				if !ok {
					err = newError(ExternalError, "generator panic: %v", r)
				}
				g.out <- genMsg{err: err, done: true}
				return
			}
		}()
		// The body's private stack starts with the collected arguments and,
		// on top of them, the number of arguments received.
		args := append(append([]Value(nil), g.args...), Int(len(g.args)))
		_, err := gth.runChunk(g.fn, args)
		if err != nil {
			g.out <- genMsg{err: err, done: true}
			return
		}
		g.out <- genMsg{done: true}
	}()
}

// Next advances the generator by one value. It satisfies Iterator so
// generic container/iteration builtins can drive a Generator exactly like a
// List or Set.
func (g *Generator) Next(p *Value) bool {
	if g.done {
		return false
	}
	if !g.started {
		g.started = true
		g.start()
	} else {
		g.resume <- struct{}{}
	}
	msg := <-g.out
	if msg.err != nil {
		g.err = msg.err
		g.done = true
		return false
	}
	if msg.done {
		g.done = true
		return false
	}
	*p = msg.val
	return true
}

func (g *Generator) Done() {}

// Err returns the error that terminated the generator, if any (spec.md §7
// "errors raised inside a generator surface to the first caller that
// resumes past them").
func (g *Generator) Err() error { return g.err }

func (g *Generator) Iterate() Iterator { return g }

// Reify drains the generator into a List (the "r" builtin, spec.md §9).
// Exhausts the generator as a side effect.
func (g *Generator) Reify() (*List, error) {
	var out []Value
	var v Value
	for g.Next(&v) {
		out = append(out, v)
	}
	if g.err != nil {
		return nil, g.err
	}
	return NewList(out), nil
}
