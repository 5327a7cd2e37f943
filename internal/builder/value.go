package builder

import (
	"fmt"

	"github.com/born-ml/axon/internal/ir"
)

// Value is a symbolic handle to a recorded node.
//
// The zero Value is invalid. Values are cheap to copy and compare.
type Value struct {
	b     *Builder
	index int
}

// Valid reports whether v refers to a recorded node.
func (v Value) Valid() bool { return v.b != nil }

// Index returns the node index v refers to. It panics on the zero Value.
func (v Value) Index() int {
	if !v.Valid() {
		panic("builder: use of invalid value")
	}
	return v.index
}

// String implements fmt.Stringer.
func (v Value) String() string {
	if !v.Valid() {
		return "v<invalid>"
	}
	return fmt.Sprintf("v%d", v.index)
}

// owner returns the builder all operands belong to, after checking that it
// is the active one.
func owner(vs ...Value) *Builder {
	cur := Active()
	for _, v := range vs {
		if !v.Valid() {
			panic("builder: use of invalid value")
		}
		if v.b != cur {
			if cur == nil {
				panic(fmt.Sprintf("builder: %s used with no active builder", v))
			}
			panic(fmt.Sprintf("builder: %s belongs to an inactive builder", v))
		}
	}
	return cur
}

func (v Value) unary(k ir.Kind) Value {
	return owner(v).push(ir.NewUnary(k, v.index))
}

func (v Value) binary(k ir.Kind, o Value) Value {
	return owner(v, o).push(ir.NewBinary(k, v.index, o.index))
}

// Add returns v + o.
func (v Value) Add(o Value) Value { return v.binary(ir.Add, o) }

// Sub returns v - o.
func (v Value) Sub(o Value) Value { return v.binary(ir.Sub, o) }

// Mul returns v * o.
func (v Value) Mul(o Value) Value { return v.binary(ir.Mul, o) }

// Neg returns -v.
func (v Value) Neg() Value { return v.unary(ir.Negate) }

// Recip returns 1/v.
func (v Value) Recip() Value { return v.unary(ir.Reciprocal) }

// Sqrt returns the square root of v.
func (v Value) Sqrt() Value { return v.unary(ir.Sqrt) }

// Exp returns e**v.
func (v Value) Exp() Value { return v.unary(ir.Exp) }

// ReLU returns max(v, 0).
func (v Value) ReLU() Value { return v.unary(ir.ReLU) }

// Sigmoid returns 1/(1+exp(-v)).
func (v Value) Sigmoid() Value { return v.unary(ir.Sigmoid) }

// Heaviside returns 1 where v > 0 and 0 elsewhere.
func (v Value) Heaviside() Value { return v.unary(ir.Heaviside) }

// Sin returns sin(v).
func (v Value) Sin() Value { return v.unary(ir.Sin) }

// Cos returns cos(v).
func (v Value) Cos() Value { return v.unary(ir.Cos) }

// Scale returns v * c for a constant c.
func (v Value) Scale(c float32) Value {
	return v.Mul(owner(v).Const(c))
}
