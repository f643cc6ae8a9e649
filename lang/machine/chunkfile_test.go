package machine_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/tomhrr/cosh/internal/builtins"
	"github.com/tomhrr/cosh/internal/chunkfile"
	"github.com/tomhrr/cosh/internal/jobs"
	"github.com/tomhrr/cosh/lang/compiler"
	"github.com/tomhrr/cosh/lang/machine"
	"github.com/tomhrr/cosh/lang/parser"
	"github.com/tomhrr/cosh/lang/resolver"
	"github.com/tomhrr/cosh/lang/scanner"
)

func compileSrc(t *testing.T, src string) *compiler.Program {
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
	prog, err := compiler.Compile(forms, res)
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}
	return prog
}

func execProg(t *testing.T, prog *compiler.Program) []machine.Value {
	t.Helper()
	reg := builtins.Registry(jobs.NewTable())
	th := machine.NewThread(prog, reg)
	out, err := th.Run(context.Background(), prog)
	if err != nil {
		t.Fatalf("run error: %v", err)
	}
	return out
}

// TestInvariantChunkRoundTrip exercises spec.md §8 invariant 1: re-executing
// a chunk loaded back from a .chc container produces the same final stack as
// executing the original text did.
func TestInvariantChunkRoundTrip(t *testing.T) {
	const src = "h(a 1 b 2) c 3 set; b get; (1 2 3) [1 +] map; take-all; swap; drop"

	prog := compileSrc(t, src)
	want := execProg(t, prog)

	path := filepath.Join(t.TempDir(), "round-trip.chc")
	if err := chunkfile.Write(path, prog); err != nil {
		t.Fatalf("chunkfile.Write: %v", err)
	}
	loaded, err := chunkfile.Read(path)
	if err != nil {
		t.Fatalf("chunkfile.Read: %v", err)
	}

	got := execProg(t, loaded)

	if len(got) != len(want) {
		t.Fatalf("invariant 1: expected %d values, got %d (want %v, got %v)", len(want), len(got), want, got)
	}
	for i := range want {
		wl, wIsList := want[i].(*machine.List)
		gl, gIsList := got[i].(*machine.List)
		if wIsList || gIsList {
			if !wIsList || !gIsList || wl.Len() != gl.Len() {
				t.Fatalf("invariant 1: element %d: expected %v, got %v", i, want[i], got[i])
			}
			for j := 0; j < wl.Len(); j++ {
				if wl.Index(j) != gl.Index(j) {
					t.Fatalf("invariant 1: element %d[%d]: expected %v, got %v", i, j, wl.Index(j), gl.Index(j))
				}
			}
			continue
		}
		if want[i] != got[i] {
			t.Fatalf("invariant 1: element %d: expected %v, got %v", i, want[i], got[i])
		}
	}
}
