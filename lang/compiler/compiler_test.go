package compiler

import (
	"testing"

	"github.com/tomhrr/cosh/lang/parser"
	"github.com/tomhrr/cosh/lang/resolver"
	"github.com/tomhrr/cosh/lang/scanner"
)

func compileSrc(t *testing.T, src string) *Program {
	t.Helper()
	toks, err := scanner.ScanAll([]byte(src))
	if err != nil {
		t.Fatalf("scan error: %v", err)
	}
	forms, err := parser.Parse(toks)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	res, err := resolver.Resolve(forms)
	if err != nil {
		t.Fatalf("resolve error: %v", err)
	}
	prog, err := Compile(forms, res)
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}
	return prog
}

func firstOp(code []byte) Opcode { return Opcode(code[0]) }

func TestCompileArithmeticConstants(t *testing.T) {
	prog := compileSrc(t, "1 2 +")
	code := prog.Toplevel.Code
	if firstOp(code) != CONSTANT {
		t.Fatalf("expected first op CONSTANT, got %v", firstOp(code))
	}
	if len(prog.Constants) != 2 {
		t.Fatalf("expected 2 pooled constants, got %d", len(prog.Constants))
	}
	// "+" is a core word compiled straight to the PLUS opcode, not dispatched
	// through the builtin registry; it is the last op before the chunk's
	// closing RETURN.
	if Opcode(code[len(code)-1]) != RETURN {
		t.Fatalf("expected closing RETURN opcode, got %v", Opcode(code[len(code)-1]))
	}
	last := code[len(code)-2]
	if Opcode(last) != PLUS {
		t.Fatalf("expected trailing PLUS opcode, got %v", Opcode(last))
	}
	if len(prog.Builtins) != 0 {
		t.Fatalf("expected no registry builtins for a core word, got %v", prog.Builtins)
	}
}

func TestCompileKnownWordUsesBuiltinRegistry(t *testing.T) {
	prog := compileSrc(t, "(1 2) reverse")
	if len(prog.Builtins) != 1 || prog.Builtins[0] != "reverse" {
		t.Fatalf("expected builtin 'reverse', got %v", prog.Builtins)
	}
}

// TestCompileUnresolvedWordPushesString covers spec.md §4.2's lowering table:
// a bare word that isn't statically known to resolve (no Define, no entry in
// the built-in registry) lowers to PUSH_STRING, not a call, matching
// spec.md §8 scenario S6's `asdf` regex subject.
func TestCompileUnresolvedWordPushesString(t *testing.T) {
	prog := compileSrc(t, "square")
	if len(prog.Builtins) != 0 {
		t.Fatalf("expected no builtin references, got %v", prog.Builtins)
	}
	found := false
	for _, k := range prog.Constants {
		if k.Kind == ConstString && k.Str == "square" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a string constant %q, got %v", "square", prog.Constants)
	}
}

func TestCompileDefineRegistersGlobal(t *testing.T) {
	prog := compileSrc(t, ": add-1 1 + ; ,, 5 add-1")
	if len(prog.Globals) != 1 || prog.Globals[0] != "add-1" {
		t.Fatalf("expected global add-1, got %v", prog.Globals)
	}
	if prog.GlobalChunks[0].Kind != FunctionChunk {
		t.Fatalf("expected FunctionChunk")
	}
}

func TestCompileVarDeclLoadStore(t *testing.T) {
	prog := compileSrc(t, ": f x var; 10 x !; x @; ,,")
	var chunk *Chunk
	for _, ch := range prog.Chunks {
		if ch.Name == "f" {
			chunk = ch
		}
	}
	if chunk == nil {
		t.Fatalf("expected chunk named f")
	}
	if chunk.NumLocals != 1 {
		t.Fatalf("expected 1 local, got %d", chunk.NumLocals)
	}
	foundSetLocal, foundLocal := false, false
	for i := 0; i < len(chunk.Code); {
		op := Opcode(chunk.Code[i])
		switch op {
		case SETLOCAL:
			foundSetLocal = true
		case LOCAL:
			foundLocal = true
		}
		if op >= OpcodeArgMin {
			i += 5
		} else {
			i++
		}
	}
	if !foundSetLocal || !foundLocal {
		t.Fatalf("expected both SETLOCAL and LOCAL in %q's chunk", "f")
	}
}

func TestCompileClosureCapturesCell(t *testing.T) {
	prog := compileSrc(t, ": f x var; 10 x !; [x @] ,,")
	var closureChunk *Chunk
	for _, ch := range prog.Chunks {
		if ch.Kind == ClosureChunk {
			closureChunk = ch
		}
	}
	if closureChunk == nil {
		t.Fatalf("expected a closure chunk")
	}
	if len(closureChunk.Captures) != 1 {
		t.Fatalf("expected 1 capture, got %d", len(closureChunk.Captures))
	}
}

func TestCompileIfElse(t *testing.T) {
	prog := compileSrc(t, ".t if; 1 else; 2 then")
	code := prog.Toplevel.Code
	sawCJMP, sawJMP := false, false
	for i := 0; i < len(code); {
		op := Opcode(code[i])
		if op == CJMP {
			sawCJMP = true
		}
		if op == JMP {
			sawJMP = true
		}
		if op >= OpcodeArgMin {
			i += 5
		} else {
			i++
		}
	}
	if !sawCJMP || !sawJMP {
		t.Fatalf("expected both CJMP and JMP in if/else lowering")
	}
}

func TestCompileBeginUntilLoopsBack(t *testing.T) {
	prog := compileSrc(t, "begin; .t until")
	code := prog.Toplevel.Code
	foundBackJump := false
	for i := 0; i < len(code); {
		op := Opcode(code[i])
		if op == CJMP {
			target := int(code[i+1])<<24 | int(code[i+2])<<16 | int(code[i+3])<<8 | int(code[i+4])
			if target <= i {
				foundBackJump = true
			}
		}
		if op >= OpcodeArgMin {
			i += 5
		} else {
			i++
		}
	}
	if !foundBackJump {
		t.Fatalf("expected a backward CJMP closing the loop")
	}
}
