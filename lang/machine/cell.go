package machine

// Cell is a heap box for a local variable that a closure captures: the
// owning frame keeps one Cell in the variable's slot, and each closure built
// by MAKEFUNC holds a fresh Cell initialized with that variable's value at
// the time the closure was made. Grounded on the teacher's cell.go, which is
// a one-line box around the same idea.
type Cell struct{ v Value }

var _ Value = (*Cell)(nil)

func NewCell(v Value) *Cell { return &Cell{v: v} }

func (c *Cell) Get() Value  { return c.v }
func (c *Cell) Set(v Value) { c.v = v }

func (c *Cell) String() string { return "cell" }
func (*Cell) Type() string     { return "cell" }
