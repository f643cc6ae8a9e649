package parser

import (
	"testing"

	"github.com/tomhrr/cosh/lang/ast"
	"github.com/tomhrr/cosh/lang/scanner"
)

func parseSrc(t *testing.T, src string) []ast.Form {
	t.Helper()
	toks, err := scanner.ScanAll([]byte(src))
	if err != nil {
		t.Fatalf("scan error: %v", err)
	}
	forms, err := Parse(toks)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	return forms
}

func TestParseSimpleArithmetic(t *testing.T) {
	forms := parseSrc(t, "1 2 +")
	if len(forms) != 3 {
		t.Fatalf("expected 3 forms, got %d", len(forms))
	}
	if _, ok := forms[0].(*ast.Literal); !ok {
		t.Fatalf("expected literal, got %T", forms[0])
	}
	w, ok := forms[2].(*ast.Word)
	if !ok || w.Name != "+" {
		t.Fatalf("expected word '+', got %#v", forms[2])
	}
}

func TestParseDefine(t *testing.T) {
	forms := parseSrc(t, ": add-1 1 + ; ,, 1 add-1")
	def, ok := forms[0].(*ast.Define)
	if !ok {
		t.Fatalf("expected Define, got %T", forms[0])
	}
	if def.Name != "add-1" {
		t.Fatalf("expected name add-1, got %q", def.Name)
	}
	if len(def.Body) == 0 {
		t.Fatalf("expected non-empty body")
	}
}

func TestParseGeneratorDefine(t *testing.T) {
	forms := parseSrc(t, ":~ gen 0 0 drop; ,,")
	gen, ok := forms[0].(*ast.GeneratorDefine)
	if !ok {
		t.Fatalf("expected GeneratorDefine, got %T", forms[0])
	}
	if gen.Name != "gen" || gen.Max != 0 || gen.Req != 0 {
		t.Fatalf("got %#v", gen)
	}
}

func TestParseIfElseThen(t *testing.T) {
	forms := parseSrc(t, "x if; .t else; .f then")
	ifForm, ok := forms[1].(*ast.If)
	if !ok {
		t.Fatalf("expected If, got %T", forms[1])
	}
	if len(ifForm.Then) != 1 || len(ifForm.Else) != 1 {
		t.Fatalf("got %#v", ifForm)
	}
}

func TestParseBeginUntil(t *testing.T) {
	forms := parseSrc(t, "begin; n @; yield; n @; 1 +; n !; n @; 3 >; until")
	b, ok := forms[0].(*ast.Begin)
	if !ok {
		t.Fatalf("expected Begin, got %T", forms[0])
	}
	if len(b.Body) == 0 {
		t.Fatalf("expected non-empty body")
	}
}

func TestParseContainers(t *testing.T) {
	forms := parseSrc(t, "(1 2 3) s(1 2) h(a 1)")
	if _, ok := forms[0].(*ast.ListLit); !ok {
		t.Fatalf("expected ListLit, got %T", forms[0])
	}
	if _, ok := forms[1].(*ast.SetLit); !ok {
		t.Fatalf("expected SetLit, got %T", forms[1])
	}
	if _, ok := forms[2].(*ast.HashLit); !ok {
		t.Fatalf("expected HashLit, got %T", forms[2])
	}
}

func TestParseClosure(t *testing.T) {
	forms := parseSrc(t, "[1 +]")
	cl, ok := forms[0].(*ast.Closure)
	if !ok {
		t.Fatalf("expected Closure, got %T", forms[0])
	}
	if len(cl.Body) != 2 {
		t.Fatalf("expected 2 forms in closure body, got %d", len(cl.Body))
	}
}

func TestParseVarIdiom(t *testing.T) {
	forms := parseSrc(t, "x var; 10 x !; x @;")
	// var/varm/@/! remain plain words; the compiler, not the parser,
	// recognizes the preceding-name idiom.
	for _, f := range forms {
		if w, ok := f.(*ast.Word); ok && w.Name == "var" {
			return
		}
	}
	t.Fatalf("expected a 'var' word form among %#v", forms)
}
