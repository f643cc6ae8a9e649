package machine

import "github.com/tomhrr/cosh/lang/compiler"

// callGlobalShared runs target's chunk against stack directly, sharing it
// with the calling frame parent rather than marshaling an argument list —
// the CALLGLOBAL calling convention (see the comment above runChunk).
// parent is nil when there is no enclosing Frame (a top-level REPL builtin
// wrapper calling a previously-Defined function; see CallShared).
func (th *Thread) callGlobalShared(target *Function, parent *Frame, stack *[]Value) error {
	if target.Chunk.Kind == compiler.GeneratorChunk {
		n := target.Chunk.MaxAccepted
		avail := len(*stack)
		if avail < target.Chunk.MinRequired {
			return newError(ArityError, "generator %s needs %d arguments, found %d",
				target.Chunk.Name, target.Chunk.MinRequired, avail)
		}
		if n > avail {
			n = avail
		}
		args, err := popN(stack, n)
		if err != nil {
			return err
		}
		push(stack, NewGenerator(th, target, args))
		return nil
	}
	sub := newFrame(target.Chunk, target, parent)
	if err := th.pushFrame(sub); err != nil {
		return err
	}
	err := th.execFrame(sub, stack)
	th.popFrame()
	return err
}

// CallShared runs fn against stack using the CALLGLOBAL shared-stack
// convention, with no parent frame. internal/maincmd's REPL uses this to
// register a previously-Defined top-level function as a Builtin under its
// own name, so a later REPL line can call it by bare word the same way a
// script's own CALLGLOBAL would (see internal/maincmd/repl.go).
func CallShared(th *Thread, fn *Function, stack *[]Value) error {
	return th.callGlobalShared(fn, nil, stack)
}

// runChunk executes fn's chunk against a fresh operand stack seeded with
// args, returning whatever is left on that stack when the chunk's RETURN
// fires. This is the "boxed" calling convention used by CALLVALUE (a
// first-class function invoked indirectly) and by a Generator's goroutine;
// CALLGLOBAL, by contrast, runs a named Define's chunk directly against the
// caller's own stack (see execFrame's CALLGLOBAL case) since concatenative
// word calls share the data stack rather than marshal an argument list.
func (th *Thread) runChunk(fn *Function, args []Value) ([]Value, error) {
	stack := append([]Value(nil), args...)
	fr := newFrame(fn.Chunk, fn, nil)
	if err := th.pushFrame(fr); err != nil {
		return nil, err
	}
	defer th.popFrame()
	if err := th.execFrame(fr, &stack); err != nil {
		return nil, err
	}
	return stack, nil
}

// execFrame interprets fr.Chunk.Code against stack until a RETURN opcode
// (or an error) ends the frame.
func (th *Thread) execFrame(fr *Frame, stack *[]Value) error {
	code := fr.Chunk.Code
	for fr.pc < len(code) {
		th.steps++
		if th.steps > th.maxSteps {
			return newError(StackOverflow, "step limit exceeded")
		}
		if th.cancelled.Load() {
			return newError(ExternalError, "execution cancelled")
		}
		op := compiler.Opcode(code[fr.pc])
		fr.pc++
		var arg uint32
		if op >= compiler.OpcodeArgMin {
			arg = decodeArg(code[fr.pc:])
			fr.pc += 4
		}
		switch op {
		case compiler.NOP:
			// no-op

		case compiler.DUP:
			v, err := peek(stack, 0)
			if err != nil {
				return err
			}
			push(stack, v)
		case compiler.POP:
			if _, err := pop(stack); err != nil {
				return err
			}
		case compiler.SWAP:
			a, b, err := pop2(stack)
			if err != nil {
				return err
			}
			push(stack, b)
			push(stack, a)
		case compiler.OVER:
			b, err := peek(stack, 1)
			if err != nil {
				return err
			}
			push(stack, b)
		case compiler.ROT:
			if len(*stack) < 3 {
				return newError(StackUnderflow, "rot needs 3 values")
			}
			n := len(*stack)
			(*stack)[n-3], (*stack)[n-2], (*stack)[n-1] = (*stack)[n-2], (*stack)[n-1], (*stack)[n-3]
		case compiler.NIP:
			a, b, err := pop2(stack)
			if err != nil {
				return err
			}
			_ = a
			push(stack, b)
		case compiler.DEPTH:
			push(stack, Int(len(*stack)))
		case compiler.CLEAR:
			*stack = (*stack)[:0]

		case compiler.LT, compiler.LE, compiler.GT, compiler.GE, compiler.EQL, compiler.NEQ:
			a, b, err := pop2(stack)
			if err != nil {
				return err
			}
			r, err := compare(op, a, b)
			if err != nil {
				return err
			}
			push(stack, Bool(r))

		case compiler.PLUS, compiler.MINUS, compiler.STAR, compiler.SLASH,
			compiler.SLASHSLASH, compiler.PERCENT, compiler.CIRCUMFLEX,
			compiler.AMPERSAND, compiler.PIPE, compiler.TILDE, compiler.LTLT, compiler.GTGT:
			a, b, err := pop2(stack)
			if err != nil {
				return err
			}
			r, err := binary(arithOp(op), a, b)
			if err != nil {
				return err
			}
			push(stack, r)

		case compiler.UMINUS:
			v, err := pop(stack)
			if err != nil {
				return err
			}
			r, err := unary(OpNeg, v)
			if err != nil {
				return err
			}
			push(stack, r)
		case compiler.NOT:
			v, err := pop(stack)
			if err != nil {
				return err
			}
			r, err := unary(OpNot, v)
			if err != nil {
				return err
			}
			push(stack, r)
		case compiler.LEN:
			v, err := pop(stack)
			if err != nil {
				return err
			}
			r, err := unary(OpLen, v)
			if err != nil {
				return err
			}
			push(stack, r)

		case compiler.NULLV:
			push(stack, Null{})
		case compiler.TRUEV:
			push(stack, Bool(true))
		case compiler.FALSEV:
			push(stack, Bool(false))

		case compiler.RETURN:
			return nil
		case compiler.YIELD:
			v, err := pop(stack)
			if err != nil {
				return err
			}
			if th.gen == nil {
				return newError(EscapedEnvironment, "yield outside a generator")
			}
			th.gen.out <- genMsg{val: v}
			<-th.gen.resume

		case compiler.JMP:
			fr.pc = int(arg)
		case compiler.CJMP:
			v, err := pop(stack)
			if err != nil {
				return err
			}
			if !truthy(v) {
				fr.pc = int(arg)
			}

		case compiler.CONSTANT:
			push(stack, th.constants[arg])
		case compiler.MAKELIST:
			n := int(arg)
			elems, err := popN(stack, n)
			if err != nil {
				return err
			}
			push(stack, NewList(elems))
		case compiler.MAKESET:
			n := int(arg)
			elems, err := popN(stack, n)
			if err != nil {
				return err
			}
			s := NewSet()
			for _, e := range elems {
				s.Add(e)
			}
			push(stack, s)
		case compiler.MAKEHASH:
			n := int(arg)
			pairs, err := popN(stack, n*2)
			if err != nil {
				return err
			}
			h := NewHash(n)
			for i := 0; i < len(pairs); i += 2 {
				if err := h.SetKey(pairs[i], pairs[i+1]); err != nil {
					return err
				}
			}
			push(stack, h)
		case compiler.MAKEFUNC:
			chunk := th.prog.Chunks[arg]
			cells, err := popN(stack, len(chunk.Captures))
			if err != nil {
				return err
			}
			// CELL pushed each captured cell's current value; the closure
			// gets its own fresh Cell per value, so a scalar stored through
			// the closure does not reach the outer slot, while a List/Set/
			// Hash stays shared by pointer.
			fv := make([]*Cell, len(cells))
			for i, c := range cells {
				fv[i] = NewCell(c)
			}
			push(stack, &Function{Chunk: chunk, Freevars: fv})

		case compiler.LOCAL:
			push(stack, fr.Locals[arg])
		case compiler.SETLOCAL:
			v, err := pop(stack)
			if err != nil {
				return err
			}
			fr.Locals[arg] = v
		case compiler.CELL:
			c, ok := fr.Locals[arg].(*Cell)
			if !ok {
				return newError(EscapedEnvironment, "cell slot %d not initialized", arg)
			}
			push(stack, c.Get())
		case compiler.SETCELL:
			v, err := pop(stack)
			if err != nil {
				return err
			}
			c, ok := fr.Locals[arg].(*Cell)
			if !ok {
				return newError(EscapedEnvironment, "cell slot %d not initialized", arg)
			}
			c.Set(v)
		case compiler.MAKECELL:
			fr.Locals[arg] = NewCell(Null{})
		case compiler.FREE:
			push(stack, fr.Fn.Freevars[arg].Get())
		case compiler.SETFREE:
			v, err := pop(stack)
			if err != nil {
				return err
			}
			fr.Fn.Freevars[arg].Set(v)
		case compiler.LEXOUTER:
			depth, slot := compiler.DecodeLexOuter(arg)
			outer := fr.lexicalOuter(depth)
			if outer == nil {
				return newError(EscapedEnvironment, "lexical outer frame no longer live")
			}
			push(stack, outer.Locals[slot])
		case compiler.SETLEXOUTER:
			v, err := pop(stack)
			if err != nil {
				return err
			}
			depth, slot := compiler.DecodeLexOuter(arg)
			outer := fr.lexicalOuter(depth)
			if outer == nil {
				return newError(EscapedEnvironment, "lexical outer frame no longer live")
			}
			outer.Locals[slot] = v

		case compiler.CALLBUILTIN:
			name := th.prog.Builtins[arg]
			b, ok := th.Builtins[name]
			if !ok {
				return newError(UnknownName, "unknown built-in word %q", name)
			}
			if err := b(th, stack); err != nil {
				return err
			}
		case compiler.CALLGLOBAL:
			target := th.globals[arg].Get().(*Function)
			if err := th.callGlobalShared(target, fr, stack); err != nil {
				return err
			}
		case compiler.CALLVALUE:
			n := int(arg)
			args, err := popN(stack, n)
			if err != nil {
				return err
			}
			fnv, err := pop(stack)
			if err != nil {
				return err
			}
			callable, ok := fnv.(Callable)
			if !ok {
				return newError(TypeMismatch, "%s is not callable", fnv.Type())
			}
			results, err := callable.Call(th, args)
			if err != nil {
				return err
			}
			for _, r := range results {
				push(stack, r)
			}

		default:
			return newError(TypeMismatch, "unhandled opcode %v", op)
		}
	}
	return nil
}

// Push, Pop, PopN and Peek let internal/builtins manipulate the operand
// stack a CALLBUILTIN handler receives with the same primitives the
// dispatch loop itself uses.
func Push(stack *[]Value, v Value)              { push(stack, v) }
func Pop(stack *[]Value) (Value, error)          { return pop(stack) }
func PopN(stack *[]Value, n int) ([]Value, error) { return popN(stack, n) }
func Peek(stack *[]Value, fromTop int) (Value, error) { return peek(stack, fromTop) }

func decodeArg(b []byte) uint32 {
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}

func push(stack *[]Value, v Value) { *stack = append(*stack, v) }

func pop(stack *[]Value) (Value, error) {
	n := len(*stack)
	if n == 0 {
		return nil, newError(StackUnderflow, "stack underflow")
	}
	v := (*stack)[n-1]
	*stack = (*stack)[:n-1]
	return v, nil
}

func pop2(stack *[]Value) (Value, Value, error) {
	b, err := pop(stack)
	if err != nil {
		return nil, nil, err
	}
	a, err := pop(stack)
	if err != nil {
		return nil, nil, err
	}
	return a, b, nil
}

func popN(stack *[]Value, n int) ([]Value, error) {
	if n == 0 {
		return nil, nil
	}
	if len(*stack) < n {
		return nil, newError(StackUnderflow, "expected %d values, found %d", n, len(*stack))
	}
	start := len(*stack) - n
	out := append([]Value(nil), (*stack)[start:]...)
	*stack = (*stack)[:start]
	return out, nil
}

func peek(stack *[]Value, fromTop int) (Value, error) {
	n := len(*stack)
	if n <= fromTop {
		return nil, newError(StackUnderflow, "stack underflow")
	}
	return (*stack)[n-1-fromTop], nil
}

// Truthy reports cosh's truthiness rule (see truthy below), exported for
// internal/builtins to use in boolean-producing words.
func Truthy(v Value) bool { return truthy(v) }

// truthy implements spec.md §8 invariant 5: false iff v is Null, Bool
// false, numeric zero, or one of the strings "", "0", "0.0".
func truthy(v Value) bool {
	switch t := v.(type) {
	case Bool:
		return bool(t)
	case Null:
		return false
	case Int:
		return t != 0
	case Float:
		return t != 0
	case Byte:
		return t != 0
	case *BigInt:
		return t.v.Sign() != 0
	case String:
		switch t {
		case "", "0", "0.0":
			return false
		}
		return true
	default:
		return true
	}
}

func arithOp(op compiler.Opcode) BinOp {
	switch op {
	case compiler.PLUS:
		return OpAdd
	case compiler.MINUS:
		return OpSub
	case compiler.STAR:
		return OpMul
	case compiler.SLASH:
		return OpDiv
	case compiler.SLASHSLASH:
		return OpIntDiv
	case compiler.PERCENT:
		return OpMod
	case compiler.CIRCUMFLEX:
		return OpXor
	case compiler.AMPERSAND:
		return OpAnd
	case compiler.PIPE:
		return OpOr
	case compiler.LTLT:
		return OpShl
	case compiler.GTGT:
		return OpShr
	}
	panic("unreachable arithOp")
}

func binary(op BinOp, a, b Value) (Value, error) {
	if hb, ok := a.(HasBinary); ok {
		if r, err := hb.Binary(op, b, Left); err != nil {
			return nil, err
		} else if r != nil {
			return r, nil
		}
	}
	if hb, ok := b.(HasBinary); ok {
		if r, err := hb.Binary(op, a, Right); err != nil {
			return nil, err
		} else if r != nil {
			return r, nil
		}
	}
	return nil, &TypeError{Op: "binary operator", Operand: a}
}

func unary(op UnOp, v Value) (Value, error) {
	if hu, ok := v.(HasUnary); ok {
		if r, err := hu.Unary(op); err != nil {
			return nil, err
		} else if r != nil {
			return r, nil
		}
	}
	return nil, &TypeError{Op: "unary operator", Operand: v}
}

func compare(op compiler.Opcode, a, b Value) (bool, error) {
	if op == compiler.EQL || op == compiler.NEQ {
		eq, err := valuesEqual(a, b)
		if err != nil {
			return false, err
		}
		if op == compiler.NEQ {
			return !eq, nil
		}
		return eq, nil
	}
	ord, ok := a.(Ordered)
	if !ok {
		return false, &TypeError{Op: "compare", Operand: a}
	}
	c, err := ord.Cmp(b)
	if err != nil {
		return false, err
	}
	switch op {
	case compiler.LT:
		return c < 0, nil
	case compiler.LE:
		return c <= 0, nil
	case compiler.GT:
		return c > 0, nil
	case compiler.GE:
		return c >= 0, nil
	}
	panic("unreachable compare")
}
