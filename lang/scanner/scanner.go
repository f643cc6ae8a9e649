// Package scanner tokenizes cosh source text (spec.md §4.1). The scanning
// loop and its error-aggregation style are adapted from the teacher's
// lang/scanner/scanner.go, simplified because cosh's surface grammar has no
// nested quoting styles, numeric bases, or keyword table: words are
// classified purely by their leading structural character or digit.
package scanner

import (
	"fmt"
	"go/scanner"
	gotoken "go/token"
	"strings"
	"unicode/utf8"

	"github.com/tomhrr/cosh/lang/token"
)

type (
	// Error and ErrorList reuse the stdlib's go/scanner error aggregation,
	// exactly as the teacher's scanner package does.
	Error     = scanner.Error
	ErrorList = scanner.ErrorList
)

// Scanner tokenizes a single chunk of cosh source text.
type Scanner struct {
	src []byte
	err func(token.Position, string)

	off, roff  int // byte offsets: current rune, next-read position
	line, col  int
	cur        rune
}

// Init prepares the scanner to tokenize src, reporting errors via errHandler.
func (s *Scanner) Init(src []byte, errHandler func(token.Position, string)) {
	s.src = src
	s.err = errHandler
	s.off, s.roff = 0, 0
	s.line, s.col = 1, 0
	s.advance()
}

func (s *Scanner) advance() {
	if s.cur == '\n' {
		s.line++
		s.col = 0
	}
	if s.roff >= len(s.src) {
		s.off = len(s.src)
		s.cur = -1
		return
	}
	s.off = s.roff
	r, w := rune(s.src[s.roff]), 1
	if r >= utf8.RuneSelf {
		r, w = utf8.DecodeRune(s.src[s.roff:])
		if r == utf8.RuneError && w == 1 {
			s.errorf("illegal UTF-8 encoding")
		}
	}
	s.roff += w
	s.col++
	s.cur = r
}

func (s *Scanner) peek() byte {
	if s.roff < len(s.src) {
		return s.src[s.roff]
	}
	return 0
}

func (s *Scanner) pos() token.Position { return token.Position{Line: s.line, Col: s.col} }

func (s *Scanner) error(pos token.Position, msg string) {
	if s.err != nil {
		s.err(pos, msg)
	}
}

func (s *Scanner) errorf(format string, args ...any) {
	s.error(s.pos(), fmt.Sprintf(format, args...))
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\r' || r == '\n'
}

func isStructural(r rune) bool {
	switch r {
	case '(', ')', '[', ']':
		return true
	}
	return false
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }

// skipSpaceAndComments consumes whitespace, backslash-newline line
// continuations (spec.md §4.1), and "#" line comments.
func (s *Scanner) skipSpaceAndComments() {
	for {
		switch {
		case s.cur == '\\' && s.peek() == '\n':
			s.advance() // backslash
			s.advance() // newline
		case isSpace(s.cur):
			s.advance()
		case s.cur == '#':
			for s.cur != '\n' && s.cur != -1 {
				s.advance()
			}
		default:
			return
		}
	}
}

// ScanAll tokenizes the entirety of src, returning the token list (always
// ending with an EOF token) and any scanning errors.
func ScanAll(src []byte) ([]token.Token, error) {
	var (
		s  Scanner
		el ErrorList
	)
	s.Init(src, func(p token.Position, msg string) {
		el.Add(goscannerPos(p), msg)
	})

	var toks []token.Token
	for {
		tok := s.Scan()
		toks = append(toks, tok)
		if tok.Kind == token.EOF {
			break
		}
	}
	el.Sort()
	return toks, el.Err()
}

func goscannerPos(p token.Position) gotoken.Position {
	return gotoken.Position{Line: p.Line, Column: p.Col}
}

// Scan returns the next token from the source text.
func (s *Scanner) Scan() token.Token {
	s.skipSpaceAndComments()
	pos := s.pos()

	if s.cur == -1 {
		return token.Token{Kind: token.EOF, Pos: pos}
	}

	switch s.cur {
	case '(':
		s.advance()
		return token.Token{Kind: token.LPAREN, Pos: pos}
	case ')':
		s.advance()
		return token.Token{Kind: token.RPAREN, Pos: pos}
	case '[':
		s.advance()
		return token.Token{Kind: token.LBRACKET, Pos: pos}
	case ']':
		s.advance()
		return token.Token{Kind: token.RBRACKET, Pos: pos}
	case ';':
		s.advance()
		return token.Token{Kind: token.SEMI, Pos: pos}
	case '"':
		return s.scanString(pos)
	case ':':
		s.advance()
		if s.cur == '~' {
			s.advance()
			return token.Token{Kind: token.COLONTILDE, Pos: pos}
		}
		return token.Token{Kind: token.COLON, Pos: pos}
	case ',':
		s.advance()
		if s.cur == ',' {
			s.advance()
			return token.Token{Kind: token.COMMA2, Pos: pos}
		}
		// a lone comma is itself just a bare word, spec.md has no single-comma
		// structural token.
		return token.Token{Kind: token.IDENT, Lit: ",", Pos: pos}
	}

	// "h(" and "s(" are two-character structural tokens, but only when
	// immediately followed by '(' with no intervening space (spec.md §4.1).
	if s.cur == 'h' && s.peek() == '(' {
		s.advance()
		s.advance()
		return token.Token{Kind: token.HPAREN, Pos: pos}
	}
	if s.cur == 's' && s.peek() == '(' {
		s.advance()
		s.advance()
		return token.Token{Kind: token.SPAREN, Pos: pos}
	}

	return s.scanWord(pos)
}

// scanWord consumes a maximal run of non-whitespace, non-structural runes,
// classifying it as INT, FLOAT or IDENT (bare word). A trailing ';' glued to
// a word is split off as its own SEMI token, per spec.md §4.1.
func (s *Scanner) scanWord(pos token.Position) token.Token {
	var sb strings.Builder
	for s.cur != -1 && !isSpace(s.cur) && !isStructural(s.cur) && s.cur != ';' {
		sb.WriteRune(s.cur)
		s.advance()
	}
	lit := sb.String()
	if lit == "" {
		// Only reachable for an unhandled structural rune; treat it as a
		// single-character bare word to always make progress.
		lit = string(s.cur)
		s.advance()
	}
	if kind, ok := classifyNumber(lit); ok {
		return token.Token{Kind: kind, Lit: lit, Pos: pos}
	}
	return token.Token{Kind: token.IDENT, Lit: lit, Pos: pos}
}

// classifyNumber reports whether lit is a signed integer or decimal float
// literal (spec.md §4.2 "Scalar-literal recognition").
func classifyNumber(lit string) (token.Kind, bool) {
	i := 0
	if i < len(lit) && (lit[i] == '+' || lit[i] == '-') {
		i++
	}
	if i >= len(lit) {
		return 0, false
	}
	sawDigit := false
	sawDot := false
	for ; i < len(lit); i++ {
		c := lit[i]
		switch {
		case c >= '0' && c <= '9':
			sawDigit = true
		case c == '.' && !sawDot:
			sawDot = true
		default:
			return 0, false
		}
	}
	if !sawDigit {
		return 0, false
	}
	if sawDot {
		return token.FLOAT, true
	}
	return token.INT, true
}

// scanString consumes a double-quoted string literal with C-style escapes.
func (s *Scanner) scanString(pos token.Position) token.Token {
	s.advance() // opening quote
	var sb strings.Builder
	for {
		switch s.cur {
		case -1:
			s.error(pos, "unterminated string literal")
			return token.Token{Kind: token.STRING, Lit: sb.String(), Pos: pos}
		case '"':
			s.advance()
			return token.Token{Kind: token.STRING, Lit: sb.String(), Pos: pos}
		case '\\':
			s.advance()
			sb.WriteRune(s.unescape())
		default:
			sb.WriteRune(s.cur)
			s.advance()
		}
	}
}

func (s *Scanner) unescape() rune {
	c := s.cur
	s.advance()
	switch c {
	case 'n':
		return '\n'
	case 't':
		return '\t'
	case 'r':
		return '\r'
	case '0':
		return 0
	case '\\', '"':
		return c
	default:
		return c
	}
}
