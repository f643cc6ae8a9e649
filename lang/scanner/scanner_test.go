package scanner

import (
	"testing"

	"github.com/tomhrr/cosh/lang/token"
)

func kinds(toks []token.Token) []token.Kind {
	ks := make([]token.Kind, len(toks))
	for i, t := range toks {
		ks[i] = t.Kind
	}
	return ks
}

func TestScanAllBasic(t *testing.T) {
	toks, err := ScanAll([]byte(`1 2 +`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []token.Kind{token.INT, token.INT, token.IDENT, token.EOF}
	got := kinds(toks)
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("token %d: got %v, want %v", i, got[i], want[i])
		}
	}
	if toks[1].Lit != "2" {
		t.Fatalf("expected literal 2, got %q", toks[1].Lit)
	}
}

func TestScanAllContainersAndDefine(t *testing.T) {
	toks, err := ScanAll([]byte(`: add-1 1 + ; ,, h(a 1) s(1 2) [1 +]`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []token.Kind{
		token.COLON, token.IDENT, token.INT, token.IDENT, token.SEMI, token.COMMA2,
		token.HPAREN, token.IDENT, token.INT, token.RPAREN,
		token.SPAREN, token.INT, token.INT, token.RPAREN,
		token.LBRACKET, token.INT, token.IDENT, token.RBRACKET,
		token.EOF,
	}
	got := kinds(toks)
	if len(got) != len(want) {
		t.Fatalf("got %v (%d), want %v (%d)", got, len(got), want, len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("token %d: got %v, want %v", i, got[i], want[i])
		}
	}
}

func TestScanGeneratorDef(t *testing.T) {
	toks, err := ScanAll([]byte(`:~ gen 0 0 drop; ,,`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if toks[0].Kind != token.COLONTILDE {
		t.Fatalf("expected :~ , got %v", toks[0].Kind)
	}
}

func TestScanStringLiteralWithEscapes(t *testing.T) {
	toks, err := ScanAll([]byte(`"a\nb"`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if toks[0].Kind != token.STRING || toks[0].Lit != "a\nb" {
		t.Fatalf("got %#v", toks[0])
	}
}

func TestScanTrailingSemiGluedToWord(t *testing.T) {
	toks, err := ScanAll([]byte(`drop;`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if toks[0].Kind != token.IDENT || toks[0].Lit != "drop" {
		t.Fatalf("got %#v", toks[0])
	}
	if toks[1].Kind != token.SEMI {
		t.Fatalf("got %#v", toks[1])
	}
}

func TestScanNegativeNumberAndFloat(t *testing.T) {
	toks, err := ScanAll([]byte(`-5 3.14 -0.5`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []token.Kind{token.INT, token.FLOAT, token.FLOAT, token.EOF}
	got := kinds(toks)
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("token %d: got %v, want %v", i, got[i], want[i])
		}
	}
}

func TestScanCommentAndContinuation(t *testing.T) {
	toks, err := ScanAll([]byte("1 # comment\n\\\n2 +"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []token.Kind{token.INT, token.INT, token.IDENT, token.EOF}
	got := kinds(toks)
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("token %d: got %v, want %v", i, got[i], want[i])
		}
	}
}
