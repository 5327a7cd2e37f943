package autodiff

import (
	"fmt"

	"github.com/born-ml/axon/internal/ir"
)

// backward applies the local derivative rule of forward node i, whose
// accumulated upstream gradient is held by node g.
//
// Rules (g = upstream gradient):
//
//	Add(l,r)       g -> l, g -> r
//	Sub(l,r)       g -> l, -g -> r
//	Mul(l,r)       g*r -> l, g*l -> r
//	Negate(x)      -g -> x
//	Reciprocal(x)  g * -(1/x * 1/x) -> x
//	Sqrt(x)        g * (0.5 * 1/sqrt(x)) -> x
//	Exp(x)         g * exp(x) -> x
//	ReLU(x)        g * heaviside(x) -> x
//	Sigmoid(x)     g * (sigmoid(x) * (1 - sigmoid(x))) -> x
//	Sin(x)         g * cos(x) -> x
//	Cos(x)         g * -sin(x) -> x
//	Heaviside(x)   nothing, the step has zero derivative
//	Param(p)       GradAccumulate(p, g)
//
// Values of the forward pass (exp(x), sigmoid(x), ...) are recomputed from
// the forward operand rather than read from the forward node, which keeps
// every rule local to the operand index.
func (t *transform) backward(i, g int) {
	n := t.fwd.Node(i)
	switch n.Kind {
	case ir.Input, ir.Const, ir.Output, ir.Heaviside:
		// terminal

	case ir.Param:
		t.push(ir.NewGradAccumulate(n.Slot, g))

	case ir.Add:
		if t.receives(n.A) {
			t.contribute(n.A, g)
		}
		if t.receives(n.B) {
			t.contribute(n.B, g)
		}

	case ir.Sub:
		if t.receives(n.A) {
			t.contribute(n.A, g)
		}
		if t.receives(n.B) {
			t.contribute(n.B, t.unary(ir.Negate, g))
		}

	case ir.Mul:
		if t.receives(n.A) {
			t.contribute(n.A, t.binary(ir.Mul, g, n.B))
		}
		if t.receives(n.B) {
			t.contribute(n.B, t.binary(ir.Mul, g, n.A))
		}

	case ir.Negate:
		if t.receives(n.A) {
			t.contribute(n.A, t.unary(ir.Negate, g))
		}

	case ir.Reciprocal:
		if t.receives(n.A) {
			r1 := t.unary(ir.Reciprocal, n.A)
			r2 := t.unary(ir.Reciprocal, n.A)
			sq := t.binary(ir.Mul, r1, r2)
			d := t.unary(ir.Negate, sq)
			t.contribute(n.A, t.binary(ir.Mul, g, d))
		}

	case ir.Sqrt:
		if t.receives(n.A) {
			half := t.push(ir.NewConst(0.5))
			s := t.unary(ir.Sqrt, n.A)
			rs := t.unary(ir.Reciprocal, s)
			d := t.binary(ir.Mul, half, rs)
			t.contribute(n.A, t.binary(ir.Mul, g, d))
		}

	case ir.Exp:
		if t.receives(n.A) {
			e := t.unary(ir.Exp, n.A)
			t.contribute(n.A, t.binary(ir.Mul, g, e))
		}

	case ir.ReLU:
		if t.receives(n.A) {
			mask := t.unary(ir.Heaviside, n.A)
			t.contribute(n.A, t.binary(ir.Mul, g, mask))
		}

	case ir.Sigmoid:
		if t.receives(n.A) {
			s1 := t.unary(ir.Sigmoid, n.A)
			one := t.push(ir.NewConst(1))
			s2 := t.unary(ir.Sigmoid, n.A)
			c := t.binary(ir.Sub, one, s2)
			d := t.binary(ir.Mul, s1, c)
			t.contribute(n.A, t.binary(ir.Mul, g, d))
		}

	case ir.Sin:
		if t.receives(n.A) {
			c := t.unary(ir.Cos, n.A)
			t.contribute(n.A, t.binary(ir.Mul, g, c))
		}

	case ir.Cos:
		if t.receives(n.A) {
			s := t.unary(ir.Sin, n.A)
			d := t.unary(ir.Negate, s)
			t.contribute(n.A, t.binary(ir.Mul, g, d))
		}

	case ir.GradAccumulate:
		panic(fmt.Sprintf("autodiff: node v%d is a gradient node inside a forward module", i))

	default:
		panic(fmt.Sprintf("autodiff: no rule for %s", n.Kind))
	}
}
