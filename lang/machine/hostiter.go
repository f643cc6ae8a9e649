package machine

import "bufio"

// HostIterator adapts an external streaming source (a running process's
// stdout, in internal/builtins/process.go) into an Iterable, so built-ins
// that produce "lazy" output can hand back something the `shift`/`take`/`r`
// words already know how to drive without a dedicated Value variant per
// source.
type HostIterator struct {
	scanner *bufio.Scanner
	next    func(*bufio.Scanner) (Value, bool)
}

var (
	_ Value    = (*HostIterator)(nil)
	_ Iterable = (*HostIterator)(nil)
)

// NewHostIterator wraps scanner, pulling one Value per call to next.
func NewHostIterator(scanner *bufio.Scanner, next func(*bufio.Scanner) (Value, bool)) *HostIterator {
	return &HostIterator{scanner: scanner, next: next}
}

func (*HostIterator) String() string { return "host-iterator" }
func (*HostIterator) Type() string   { return "host-iterator" }

func (h *HostIterator) Iterate() Iterator { return h }

func (h *HostIterator) Next(p *Value) bool {
	v, ok := h.next(h.scanner)
	if !ok {
		return false
	}
	*p = v
	return true
}

func (h *HostIterator) Done() {}
