package machine

import (
	"fmt"
	"math/big"
	"strconv"
)

// Null is cosh's single null value (spec.md §3).
type Null struct{}

var (
	_ Value    = Null{}
	_ HasEqual = Null{}
)

func (Null) String() string { return "null" }
func (Null) Type() string   { return "null" }
func (Null) Equals(y Value) (bool, error) {
	_, ok := y.(Null)
	return ok, nil
}

// Bool is a boolean scalar, printed ".t"/".f" matching the literal spelling
// used in source (spec.md §4.2).
type Bool bool

var (
	_ Value    = Bool(false)
	_ HasEqual = Bool(false)
)

func (b Bool) String() string {
	if b {
		return ".t"
	}
	return ".f"
}
func (Bool) Type() string { return "bool" }
func (b Bool) Equals(y Value) (bool, error) {
	o, ok := y.(Bool)
	return ok && o == b, nil
}
func (b Bool) Unary(op UnOp) (Value, error) {
	if op == OpNot {
		return Bool(!b), nil
	}
	return nil, nil
}

// Byte is a single octet, distinct from Int to support binary-data builtins
// without allocation (spec.md §3 "Byte").
type Byte byte

var (
	_ Value   = Byte(0)
	_ Ordered = Byte(0)
)

func (b Byte) String() string { return strconv.Itoa(int(b)) }
func (Byte) Type() string     { return "byte" }
func (b Byte) Cmp(y Value) (int, error) {
	o, ok := y.(Byte)
	if !ok {
		return 0, &TypeError{Op: "compare", Operand: y}
	}
	switch {
	case b < o:
		return -1, nil
	case b > o:
		return 1, nil
	default:
		return 0, nil
	}
}

// Int is a machine-word signed integer. Arithmetic that would overflow
// promotes to BigInt rather than wrapping (spec.md §3 "Int promotes to
// BigInt on overflow").
type Int int64

var (
	_ Value     = Int(0)
	_ Ordered   = Int(0)
	_ HasBinary = Int(0)
	_ HasUnary  = Int(0)
)

func (i Int) String() string { return strconv.FormatInt(int64(i), 10) }
func (Int) Type() string     { return "int" }

func (i Int) Cmp(y Value) (int, error) {
	switch o := y.(type) {
	case Int:
		switch {
		case i < o:
			return -1, nil
		case i > o:
			return 1, nil
		}
		return 0, nil
	case *BigInt:
		return big.NewInt(int64(i)).Cmp(o.v), nil
	case Float:
		return Float(i).Cmp(o)
	}
	return 0, &TypeError{Op: "compare", Operand: y}
}

func (i Int) Unary(op UnOp) (Value, error) {
	switch op {
	case OpNeg:
		if i == minInt64 {
			return newBigIntFromInt64(int64(i)).Neg(), nil
		}
		return -i, nil
	}
	return nil, nil
}

const minInt64 = Int(-1 << 63)

func (i Int) Binary(op BinOp, y Value, side Side) (Value, error) {
	switch o := y.(type) {
	case Int:
		return intBinary(op, i, o)
	case *BigInt:
		return bigIntBinary(op, newBigIntFromInt64(int64(i)), o, side)
	case Float:
		if side == Left {
			return floatBinary(op, Float(i), o)
		}
		return floatBinary(op, o, Float(i))
	}
	return nil, nil
}

func intBinary(op BinOp, a, b Int) (Value, error) {
	switch op {
	case OpAdd:
		r := a + b
		if (b > 0 && r < a) || (b < 0 && r > a) {
			return newBigIntFromInt64(int64(a)).Add(newBigIntFromInt64(int64(b))), nil
		}
		return r, nil
	case OpSub:
		r := a - b
		if (b < 0 && r < a) || (b > 0 && r > a) {
			return newBigIntFromInt64(int64(a)).Sub(newBigIntFromInt64(int64(b))), nil
		}
		return r, nil
	case OpMul:
		if a == 0 || b == 0 {
			return Int(0), nil
		}
		r := a * b
		if r/b != a {
			return newBigIntFromInt64(int64(a)).Mul(newBigIntFromInt64(int64(b))), nil
		}
		return r, nil
	case OpDiv:
		if b == 0 {
			return nil, fmt.Errorf("division by zero")
		}
		return Float(a) / Float(b), nil
	case OpIntDiv:
		if b == 0 {
			return nil, fmt.Errorf("division by zero")
		}
		return Int(floorDivInt(int64(a), int64(b))), nil
	case OpMod:
		if b == 0 {
			return nil, fmt.Errorf("division by zero")
		}
		return Int(floorModInt(int64(a), int64(b))), nil
	case OpXor:
		return a ^ b, nil
	case OpAnd:
		return a & b, nil
	case OpOr:
		return a | b, nil
	case OpShl:
		return a << uint(b), nil
	case OpShr:
		return a >> uint(b), nil
	}
	return nil, nil
}

func floorDivInt(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func floorModInt(a, b int64) int64 {
	m := a % b
	if m != 0 && ((a < 0) != (b < 0)) {
		m += b
	}
	return m
}

// BigInt is an arbitrary-precision integer, used once Int arithmetic would
// overflow (spec.md §3).
type BigInt struct{ v *big.Int }

var (
	_ Value     = (*BigInt)(nil)
	_ Ordered   = (*BigInt)(nil)
	_ HasBinary = (*BigInt)(nil)
	_ HasUnary  = (*BigInt)(nil)
)

func newBigIntFromInt64(n int64) *BigInt { return &BigInt{v: big.NewInt(n)} }

// newBigIntFromString parses the decimal literal text a compiler.Constant
// stored for a numeral that overflowed int64 at compile time.
func newBigIntFromString(s string) *BigInt {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		v = big.NewInt(0)
	}
	return &BigInt{v: v}
}

func (b *BigInt) String() string { return b.v.String() }
func (*BigInt) Type() string     { return "bigint" }

func (b *BigInt) Add(o *BigInt) *BigInt { return &BigInt{v: new(big.Int).Add(b.v, o.v)} }
func (b *BigInt) Sub(o *BigInt) *BigInt { return &BigInt{v: new(big.Int).Sub(b.v, o.v)} }
func (b *BigInt) Mul(o *BigInt) *BigInt { return &BigInt{v: new(big.Int).Mul(b.v, o.v)} }
func (b *BigInt) Neg() *BigInt          { return &BigInt{v: new(big.Int).Neg(b.v)} }

func (b *BigInt) Cmp(y Value) (int, error) {
	switch o := y.(type) {
	case *BigInt:
		return b.v.Cmp(o.v), nil
	case Int:
		return b.v.Cmp(big.NewInt(int64(o))), nil
	case Float:
		bf := new(big.Float).SetInt(b.v)
		return bf.Cmp(big.NewFloat(float64(o))), nil
	}
	return 0, &TypeError{Op: "compare", Operand: y}
}

func (b *BigInt) Unary(op UnOp) (Value, error) {
	if op == OpNeg {
		return b.Neg(), nil
	}
	return nil, nil
}

func (b *BigInt) Binary(op BinOp, y Value, side Side) (Value, error) {
	switch o := y.(type) {
	case Int:
		return bigIntBinary(op, b, newBigIntFromInt64(int64(o)), side)
	case *BigInt:
		if side == Right {
			return bigIntBinary(op, o, b, Left)
		}
		return bigIntBinary(op, b, o, Left)
	case Float:
		bf, _ := new(big.Float).SetInt(b.v).Float64()
		if side == Left {
			return floatBinary(op, Float(bf), o)
		}
		return floatBinary(op, o, Float(bf))
	}
	return nil, nil
}

func bigIntBinary(op BinOp, a, b *BigInt, side Side) (Value, error) {
	if side == Right {
		a, b = b, a
	}
	switch op {
	case OpAdd:
		return a.Add(b), nil
	case OpSub:
		return a.Sub(b), nil
	case OpMul:
		return a.Mul(b), nil
	case OpDiv:
		af, _ := new(big.Float).SetInt(a.v).Float64()
		bf, _ := new(big.Float).SetInt(b.v).Float64()
		return Float(af / bf), nil
	case OpIntDiv:
		if b.v.Sign() == 0 {
			return nil, fmt.Errorf("division by zero")
		}
		q, m := new(big.Int).QuoRem(a.v, b.v, new(big.Int))
		if m.Sign() != 0 && (a.v.Sign() < 0) != (b.v.Sign() < 0) {
			q.Sub(q, big.NewInt(1))
		}
		return &BigInt{v: q}, nil
	case OpMod:
		if b.v.Sign() == 0 {
			return nil, fmt.Errorf("division by zero")
		}
		m := new(big.Int).Mod(a.v, b.v)
		return &BigInt{v: m}, nil
	case OpXor:
		return &BigInt{v: new(big.Int).Xor(a.v, b.v)}, nil
	case OpAnd:
		return &BigInt{v: new(big.Int).And(a.v, b.v)}, nil
	case OpOr:
		return &BigInt{v: new(big.Int).Or(a.v, b.v)}, nil
	case OpShl:
		return &BigInt{v: new(big.Int).Lsh(a.v, uint(b.v.Int64()))}, nil
	case OpShr:
		return &BigInt{v: new(big.Int).Rsh(a.v, uint(b.v.Int64()))}, nil
	}
	return nil, nil
}

// Float is a 64-bit floating point number. Its original source text is not
// retained: it prints with strconv's shortest 'g' formatting, so e.g.
// trailing zeros written in the source are lost.
type Float float64

var (
	_ Value     = Float(0)
	_ Ordered   = Float(0)
	_ HasBinary = Float(0)
	_ HasUnary  = Float(0)
)

func (f Float) String() string { return strconv.FormatFloat(float64(f), 'g', -1, 64) }
func (Float) Type() string     { return "float" }

func (f Float) Cmp(y Value) (int, error) {
	var o Float
	switch v := y.(type) {
	case Float:
		o = v
	case Int:
		o = Float(v)
	case *BigInt:
		bf, _ := new(big.Float).SetInt(v.v).Float64()
		o = Float(bf)
	default:
		return 0, &TypeError{Op: "compare", Operand: y}
	}
	switch {
	case f > o:
		return 1, nil
	case f < o:
		return -1, nil
	case f == o:
		return 0, nil
	}
	if f == f {
		return -1, nil
	} else if o == o {
		return 1, nil
	}
	return 0, nil
}

func (f Float) Unary(op UnOp) (Value, error) {
	if op == OpNeg {
		return -f, nil
	}
	return nil, nil
}

func (f Float) Binary(op BinOp, y Value, side Side) (Value, error) {
	var o Float
	switch v := y.(type) {
	case Float:
		o = v
	case Int:
		o = Float(v)
	case *BigInt:
		bf, _ := new(big.Float).SetInt(v.v).Float64()
		o = Float(bf)
	default:
		return nil, nil
	}
	if side == Right {
		f, o = o, f
	}
	return floatBinary(op, f, o)
}

func floatBinary(op BinOp, a, b Float) (Value, error) {
	switch op {
	case OpAdd:
		return a + b, nil
	case OpSub:
		return a - b, nil
	case OpMul:
		return a * b, nil
	case OpDiv:
		return a / b, nil
	case OpIntDiv:
		q := a / b
		if q >= 0 {
			return Float(int64(q)), nil
		}
		i := int64(q)
		if Float(i) != q {
			i--
		}
		return Float(i), nil
	case OpMod:
		m := a - b*Float(int64(a/b))
		if m != 0 && (m < 0) != (b < 0) {
			m += b
		}
		return m, nil
	}
	return nil, &TypeError{Op: "bitwise on float", Operand: a}
}

// String is an immutable UTF-8 text value.
type String string

var (
	_ Value     = String("")
	_ Ordered   = String("")
	_ HasBinary = String("")
	_ HasUnary  = String("")
)

func (s String) String() string { return string(s) }
func (String) Type() string     { return "string" }

func (s String) Cmp(y Value) (int, error) {
	o, ok := y.(String)
	if !ok {
		return 0, &TypeError{Op: "compare", Operand: y}
	}
	switch {
	case s < o:
		return -1, nil
	case s > o:
		return 1, nil
	}
	return 0, nil
}

func (s String) Unary(op UnOp) (Value, error) {
	if op == OpLen {
		return Int(len([]rune(string(s)))), nil
	}
	return nil, nil
}

func (s String) Binary(op BinOp, y Value, side Side) (Value, error) {
	if op != OpAdd {
		return nil, nil
	}
	o, ok := y.(String)
	if !ok {
		return nil, nil
	}
	if side == Left {
		return s + o, nil
	}
	return o + s, nil
}
