// Package parser builds the flat ast.Form tree from a cosh token stream
// (spec.md §6.1). It is its own pipeline stage — mirroring the teacher's
// scanner → parser → resolver → compiler layering — even though cosh's
// grammar needs no expression-precedence climbing: the only recursive
// structure comes from containers, closures, definitions and the if/begin
// control forms, all of which nest explicitly via their own delimiters.
package parser

import (
	"fmt"

	"github.com/tomhrr/cosh/lang/ast"
	"github.com/tomhrr/cosh/lang/token"
)

// Error is a parse error with position information (spec.md §7 ParseError).
type Error struct {
	Pos token.Position
	Msg string
}

func (e *Error) Error() string { return fmt.Sprintf("%s: %s", e.Pos, e.Msg) }

type parser struct {
	toks []token.Token
	pos  int
	errs []error
}

// Parse builds a top-level list of forms from already-scanned tokens.
func Parse(toks []token.Token) ([]ast.Form, error) {
	p := &parser{toks: toks}
	forms := p.parseUntil()
	if !p.atEOF() {
		p.errorf("unexpected %s", p.cur())
	}
	if len(p.errs) > 0 {
		return forms, &Error{Pos: p.toks[p.pos].Pos, Msg: p.errs[0].Error()}
	}
	return forms, nil
}

func (p *parser) cur() token.Token  { return p.toks[p.pos] }
func (p *parser) atEOF() bool       { return p.cur().Kind == token.EOF }
func (p *parser) advance() token.Token {
	t := p.toks[p.pos]
	if t.Kind != token.EOF {
		p.pos++
	}
	return t
}

func (p *parser) errorf(format string, args ...any) {
	p.errs = append(p.errs, fmt.Errorf(format, args...))
}

// isKeyword reports whether an IDENT token is one of the reserved control
// words recognized structurally by the parser (spec.md §4.2's lowering
// table). All other bare words, including "var"/"varm"/"@"/"!", are left as
// plain ast.Word forms for the compiler to interpret contextually.
func isKeyword(t token.Token, words ...string) bool {
	if t.Kind != token.IDENT {
		return false
	}
	for _, w := range words {
		if t.Lit == w {
			return true
		}
	}
	return false
}

// parseUntil parses forms until EOF, a ",," definition terminator, or a
// reserved terminator keyword is seen (without consuming the terminator),
// returning what was collected.
func (p *parser) parseUntil(terminators ...string) []ast.Form {
	var forms []ast.Form
	for {
		if p.atEOF() || p.cur().Kind == token.COMMA2 {
			return forms
		}
		if t := p.cur(); isKeyword(t, terminators...) {
			return forms
		}
		forms = append(forms, p.parseForm())
	}
}

func (p *parser) parseForm() ast.Form {
	t := p.cur()

	switch t.Kind {
	case token.INT, token.FLOAT, token.STRING:
		p.advance()
		return &ast.Literal{Kind: t.Kind, Lit: t.Lit, P: t.Pos}

	case token.SEMI:
		// A bare ';' with nothing pending is a no-op CALL site; the compiler
		// handles it by simply emitting nothing extra, so surface it as a
		// zero-width word that resolves to nothing at compile time.
		p.advance()
		return &ast.Word{Name: ";", P: t.Pos}

	case token.LPAREN:
		return p.parseList()
	case token.SPAREN:
		return p.parseSet()
	case token.HPAREN:
		return p.parseHash()
	case token.LBRACKET:
		return p.parseClosure()
	case token.COLON:
		return p.parseDefine()
	case token.COLONTILDE:
		return p.parseGeneratorDefine()

	case token.IDENT:
		switch t.Lit {
		case ".t", ".f", "null":
			p.advance()
			return &ast.Literal{Kind: token.IDENT, Lit: t.Lit, P: t.Pos}
		case "if":
			return p.parseIf()
		case "begin":
			return p.parseBegin()
		case "leave":
			p.advance()
			return &ast.Leave{P: t.Pos}
		case "return":
			p.advance()
			return &ast.Return{P: t.Pos}
		case "yield":
			p.advance()
			return &ast.Yield{P: t.Pos}
		default:
			p.advance()
			return &ast.Word{Name: t.Lit, P: t.Pos}
		}

	default:
		p.advance()
		p.errorf("unexpected token %s", t)
		return &ast.Word{Name: t.String(), P: t.Pos}
	}
}

// consumeOptSemi allows (but does not require) a ';' immediately following a
// control-form terminator keyword, matching the "if; … else; … then;" surface
// spelling in spec.md §4.2 while tolerating "then" with no trailing ';' too.
func (p *parser) consumeOptSemi() {
	if p.cur().Kind == token.SEMI {
		p.advance()
	}
}

func (p *parser) expectKeyword(word string) token.Token {
	t := p.cur()
	if !isKeyword(t, word) {
		p.errorf("expected %q, got %s", word, t)
		return t
	}
	p.advance()
	p.consumeOptSemi()
	return t
}

func (p *parser) parseIf() ast.Form {
	pos := p.advance().Pos // consume "if"
	p.consumeOptSemi()
	thenForms := p.parseUntil("else", "then")
	var elseForms []ast.Form
	if isKeyword(p.cur(), "else") {
		p.expectKeyword("else")
		elseForms = p.parseUntil("then")
	}
	p.expectKeyword("then")
	return &ast.If{Then: thenForms, Else: elseForms, P: pos}
}

func (p *parser) parseBegin() ast.Form {
	pos := p.advance().Pos // consume "begin"
	p.consumeOptSemi()
	body := p.parseUntil("until")
	p.expectKeyword("until")
	return &ast.Begin{Body: body, P: pos}
}

func (p *parser) parseList() ast.Form {
	pos := p.advance().Pos
	elems := p.parseUntilRParen()
	return &ast.ListLit{Elems: elems, P: pos}
}

func (p *parser) parseSet() ast.Form {
	pos := p.advance().Pos
	elems := p.parseUntilRParen()
	return &ast.SetLit{Elems: elems, P: pos}
}

func (p *parser) parseHash() ast.Form {
	pos := p.advance().Pos
	elems := p.parseUntilRParen()
	return &ast.HashLit{Elems: elems, P: pos}
}

func (p *parser) parseUntilRParen() []ast.Form {
	var forms []ast.Form
	for !p.atEOF() && p.cur().Kind != token.RPAREN {
		forms = append(forms, p.parseForm())
	}
	if p.cur().Kind == token.RPAREN {
		p.advance()
	} else {
		p.errorf("unterminated container, expected )")
	}
	return forms
}

func (p *parser) parseClosure() ast.Form {
	pos := p.advance().Pos
	var body []ast.Form
	for !p.atEOF() && p.cur().Kind != token.RBRACKET {
		body = append(body, p.parseForm())
	}
	if p.cur().Kind == token.RBRACKET {
		p.advance()
	} else {
		p.errorf("unterminated closure, expected ]")
	}
	return &ast.Closure{Body: body, P: pos}
}

func (p *parser) parseDefine() ast.Form {
	pos := p.advance().Pos // consume ":"
	name := p.expectIdent()
	body := p.parseUntil()
	p.expectComma2()
	return &ast.Define{Name: name, Body: body, P: pos}
}

func (p *parser) parseGeneratorDefine() ast.Form {
	pos := p.advance().Pos // consume ":~"
	name := p.expectIdent()
	maxN := p.expectInt()
	reqN := p.expectInt()
	body := p.parseUntil()
	p.expectComma2()
	return &ast.GeneratorDefine{Name: name, Max: maxN, Req: reqN, Body: body, P: pos}
}

func (p *parser) expectIdent() string {
	t := p.cur()
	if t.Kind != token.IDENT {
		p.errorf("expected name, got %s", t)
		return ""
	}
	p.advance()
	return t.Lit
}

func (p *parser) expectInt() int {
	t := p.cur()
	if t.Kind != token.INT {
		p.errorf("expected integer, got %s", t)
		return 0
	}
	p.advance()
	n := 0
	neg := false
	lit := t.Lit
	if len(lit) > 0 && (lit[0] == '+' || lit[0] == '-') {
		neg = lit[0] == '-'
		lit = lit[1:]
	}
	for _, c := range lit {
		n = n*10 + int(c-'0')
	}
	if neg {
		n = -n
	}
	return n
}

func (p *parser) expectComma2() {
	if p.cur().Kind != token.COMMA2 {
		p.errorf("expected ,, to close definition, got %s", p.cur())
		return
	}
	p.advance()
}
