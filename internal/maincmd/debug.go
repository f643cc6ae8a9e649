package maincmd

import (
	"context"
	"fmt"
	"os"

	"github.com/mna/mainer"

	"github.com/tomhrr/cosh/lang/resolver"
	"github.com/tomhrr/cosh/lang/scanner"
)

// Tokenize prints the token stream for a single source file, the debug
// entry point for inspecting the scanner phase in isolation (adapted from
// the teacher's multi-file Tokenize command to cosh's single-file model,
// DESIGN.md Open Question O1).
func (c *Cmd) Tokenize(ctx context.Context, stdio mainer.Stdio, args []string) error {
	src, err := os.ReadFile(args[0])
	if err != nil {
		fmt.Fprintln(stdio.Stderr, err)
		return err
	}
	toks, err := scanner.ScanAll(src)
	if err != nil {
		fmt.Fprintln(stdio.Stderr, err)
		return err
	}
	for _, t := range toks {
		fmt.Fprintf(stdio.Stdout, "%s %s %q\n", t.Pos, t.Kind, t.Lit)
	}
	return nil
}

// Parse prints the parsed form tree for a single source file.
func (c *Cmd) Parse(ctx context.Context, stdio mainer.Stdio, args []string) error {
	src, err := os.ReadFile(args[0])
	if err != nil {
		fmt.Fprintln(stdio.Stderr, err)
		return err
	}
	forms, err := parseSource(src)
	if err != nil {
		fmt.Fprintln(stdio.Stderr, err)
		return err
	}
	fmt.Fprint(stdio.Stdout, formatForms(forms))
	return nil
}

// Resolve prints the parsed form tree annotated with resolved bindings for
// every var/varm/@/! reference.
func (c *Cmd) Resolve(ctx context.Context, stdio mainer.Stdio, args []string) error {
	src, err := os.ReadFile(args[0])
	if err != nil {
		fmt.Fprintln(stdio.Stderr, err)
		return err
	}
	forms, err := parseSource(src)
	if err != nil {
		fmt.Fprintln(stdio.Stderr, err)
		return err
	}
	res, err := resolver.Resolve(forms)
	if err != nil {
		fmt.Fprintln(stdio.Stderr, err)
		return err
	}
	fmt.Fprint(stdio.Stdout, formatForms(forms))
	fmt.Fprintf(stdio.Stdout, "\n%d reference(s):\n", len(res.Refs))
	for w, b := range res.Refs {
		fmt.Fprintf(stdio.Stdout, "  %s %q -> %s slot=%d depth=%d\n", w.Pos(), w.Name, b.Kind, b.Slot, b.Depth)
	}
	return nil
}
