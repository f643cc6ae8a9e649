package resolver

import (
	"testing"

	"github.com/tomhrr/cosh/lang/ast"
	"github.com/tomhrr/cosh/lang/parser"
	"github.com/tomhrr/cosh/lang/scanner"
)

func resolveSrc(t *testing.T, src string) ([]ast.Form, *Result) {
	t.Helper()
	toks, err := scanner.ScanAll([]byte(src))
	if err != nil {
		t.Fatalf("scan error: %v", err)
	}
	forms, err := parser.Parse(toks)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	res, err := Resolve(forms)
	if err != nil {
		t.Fatalf("resolve error: %v", err)
	}
	return forms, res
}

func TestResolveLocalVarDeclAndLoadStore(t *testing.T) {
	forms, res := resolveSrc(t, ": f x var; 10 x !; x @; ,,")
	def := forms[0].(*ast.Define)
	scope := res.Scopes[def]
	if scope.NumLocals != 1 {
		t.Fatalf("expected 1 local, got %d", scope.NumLocals)
	}
	var loadRef, storeRef *Binding
	for _, w := range def.Body {
		word, ok := w.(*ast.Word)
		if !ok {
			continue
		}
		switch word.Name {
		case "@":
			loadRef = res.Refs[word]
		case "!":
			storeRef = res.Refs[word]
		}
	}
	if loadRef == nil || loadRef.Kind != Local || loadRef.Slot != 0 {
		t.Fatalf("bad load ref: %#v", loadRef)
	}
	if storeRef == nil || storeRef.Kind != Local || storeRef.Slot != 0 {
		t.Fatalf("bad store ref: %#v", storeRef)
	}
}

func TestResolveDuplicateVarFails(t *testing.T) {
	toks, err := scanner.ScanAll([]byte(": f x var; x var; ,,"))
	if err != nil {
		t.Fatalf("scan error: %v", err)
	}
	forms, err := parser.Parse(toks)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if _, err := Resolve(forms); err == nil {
		t.Fatalf("expected DuplicateVariable error")
	} else if _, ok := err.(*DuplicateVariableError); !ok {
		t.Fatalf("expected *DuplicateVariableError, got %T", err)
	}
}

func TestResolveVarmTopLevelRedeclareOK(t *testing.T) {
	_, res := resolveSrc(t, "x varm; x varm;")
	if res.TopLevel.NumLocals != 1 {
		t.Fatalf("expected 1 local slot reused, got %d", res.TopLevel.NumLocals)
	}
}

func TestResolveClosureCapture(t *testing.T) {
	forms, res := resolveSrc(t, ": f x var; 10 x !; [x @] ,,")
	def := forms[0].(*ast.Define)
	var closure *ast.Closure
	for _, f := range def.Body {
		if c, ok := f.(*ast.Closure); ok {
			closure = c
		}
	}
	if closure == nil {
		t.Fatalf("expected a closure in body")
	}
	var loadRef *Binding
	for _, f := range closure.Body {
		if w, ok := f.(*ast.Word); ok && w.Name == "@" {
			loadRef = res.Refs[w]
		}
	}
	if loadRef == nil || loadRef.Kind != Cell {
		t.Fatalf("expected captured Cell reference, got %#v", loadRef)
	}
	defScope := res.Scopes[def]
	if defScope.NumCells != 1 {
		t.Fatalf("expected owning scope to record 1 cell, got %d", defScope.NumCells)
	}
}

func TestResolveNestedDefineIsLexicalOuterNotCell(t *testing.T) {
	forms, res := resolveSrc(t, ": outer x var; 10 x !; : inner x @; ,, ,,")
	outer := forms[0].(*ast.Define)
	var inner *ast.Define
	for _, f := range outer.Body {
		if d, ok := f.(*ast.Define); ok {
			inner = d
		}
	}
	if inner == nil {
		t.Fatalf("expected nested define")
	}
	var loadRef *Binding
	for _, f := range inner.Body {
		if w, ok := f.(*ast.Word); ok && w.Name == "@" {
			loadRef = res.Refs[w]
		}
	}
	if loadRef == nil || loadRef.Kind != LexicalOuter {
		t.Fatalf("expected LexicalOuter reference, got %#v", loadRef)
	}
}

func TestResolveUnknownWordIsBuiltin(t *testing.T) {
	forms, res := resolveSrc(t, "x @")
	w, ok := forms[1].(*ast.Word)
	if !ok || w.Name != "@" {
		t.Fatalf("expected '@' word, got %#v", forms[1])
	}
	if b := res.Refs[w]; b == nil || b.Kind != Builtin {
		t.Fatalf("expected Builtin reference for undeclared x, got %#v", b)
	}
}
