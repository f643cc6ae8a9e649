package maincmd

import (
	"fmt"

	"github.com/tomhrr/cosh/lang/ast"
	"github.com/tomhrr/cosh/lang/compiler"
	"github.com/tomhrr/cosh/lang/parser"
	"github.com/tomhrr/cosh/lang/resolver"
	"github.com/tomhrr/cosh/lang/scanner"
)

// compileSource runs the full tokenize/parse/resolve/compile pipeline over
// src, the way both the script runner and the -c/-o compile command need
// to. Each phase's error already carries a formatted position (spec.md §7),
// so callers just print err.Error().
func compileSource(src []byte) (*compiler.Program, error) {
	toks, err := scanner.ScanAll(src)
	if err != nil {
		return nil, err
	}
	forms, err := parser.Parse(toks)
	if err != nil {
		return nil, err
	}
	res, err := resolver.Resolve(forms)
	if err != nil {
		return nil, err
	}
	return compiler.Compile(forms, res)
}

// parseSource runs just the tokenize+parse phases, for the `parse`/`resolve`
// debug commands.
func parseSource(src []byte) ([]ast.Form, error) {
	toks, err := scanner.ScanAll(src)
	if err != nil {
		return nil, err
	}
	return parser.Parse(toks)
}

func formatForms(forms []ast.Form) string {
	var out string
	for _, f := range forms {
		out += fmt.Sprintf("%s\n", formatForm(f, 0))
	}
	return out
}

func formatForm(f ast.Form, depth int) string {
	indent := ""
	for i := 0; i < depth; i++ {
		indent += "  "
	}
	switch n := f.(type) {
	case *ast.Literal:
		return fmt.Sprintf("%s%s %s %q", indent, n.Pos(), n.Kind, n.Lit)
	case *ast.Word:
		return fmt.Sprintf("%s%s word %q", indent, n.Pos(), n.Name)
	case *ast.ListLit:
		return fmt.Sprintf("%s%s list(%d)", indent, n.Pos(), len(n.Elems))
	case *ast.SetLit:
		return fmt.Sprintf("%s%s set(%d)", indent, n.Pos(), len(n.Elems))
	case *ast.HashLit:
		return fmt.Sprintf("%s%s hash(%d)", indent, n.Pos(), len(n.Elems))
	case *ast.Closure:
		s := fmt.Sprintf("%s%s closure", indent, n.Pos())
		for _, b := range n.Body {
			s += "\n" + formatForm(b, depth+1)
		}
		return s
	case *ast.Define:
		s := fmt.Sprintf("%s%s define %q", indent, n.Pos(), n.Name)
		for _, b := range n.Body {
			s += "\n" + formatForm(b, depth+1)
		}
		return s
	case *ast.GeneratorDefine:
		s := fmt.Sprintf("%s%s generator-define %q max=%d req=%d", indent, n.Pos(), n.Name, n.Max, n.Req)
		for _, b := range n.Body {
			s += "\n" + formatForm(b, depth+1)
		}
		return s
	case *ast.If:
		s := fmt.Sprintf("%s%s if", indent, n.Pos())
		for _, b := range n.Then {
			s += "\n" + formatForm(b, depth+1)
		}
		if len(n.Else) > 0 {
			s += fmt.Sprintf("\n%selse", indent)
			for _, b := range n.Else {
				s += "\n" + formatForm(b, depth+1)
			}
		}
		return s
	case *ast.Begin:
		s := fmt.Sprintf("%s%s begin", indent, n.Pos())
		for _, b := range n.Body {
			s += "\n" + formatForm(b, depth+1)
		}
		return s
	case *ast.Leave:
		return fmt.Sprintf("%s%s leave", indent, n.Pos())
	case *ast.Return:
		return fmt.Sprintf("%s%s return", indent, n.Pos())
	case *ast.Yield:
		return fmt.Sprintf("%s%s yield", indent, n.Pos())
	default:
		return fmt.Sprintf("%s%s %T", indent, f.Pos(), f)
	}
}
