// Package autodiff implements reverse-mode automatic differentiation as a
// module-to-module transform.
//
// Differentiate takes a frozen forward module and the index of a scalar loss
// node, and returns a new module whose first N nodes are the forward module
// unchanged, followed by the nodes computing the gradient of the loss with
// respect to every parameter. Each reached Param occurrence ends in a
// GradAccumulate node adding its gradient into the parameter's slot.
//
// Algorithm:
//  1. Seed the gradient of the loss node with Const(1).
//  2. Walk forward nodes in strictly decreasing index order from the loss.
//     A node with no recorded gradient has no path to the loss and is skipped.
//  3. Apply the node's local rule (rules.go), emitting new nodes and
//     contributing a gradient to each operand.
//  4. A second contribution to the same node is summed with an Add node.
//     Every consumer of node j has an index greater than j, so all
//     contributions are summed before j is visited.
package autodiff

import (
	"github.com/born-ml/axon/internal/ir"
)

const noGrad = -1

// transform holds the state of one differentiation.
type transform struct {
	fwd   *ir.Module
	extra []ir.Node // nodes appended after the forward prefix
	grads []int     // forward index -> node holding its accumulated gradient
}

// Differentiate returns fwd extended with the gradient of node loss.
func Differentiate(fwd *ir.Module, loss int) (*ir.Module, error) {
	if loss < 0 || loss >= fwd.Len() {
		return nil, ir.Errorf("loss index %d out of range [0,%d)", loss, fwd.Len())
	}
	if k := fwd.Node(loss).Kind; k.IsSideEffect() {
		return nil, ir.Errorf("loss node v%d (%s) has no value", loss, k)
	}

	t := &transform{
		fwd:   fwd,
		grads: make([]int, fwd.Len()),
	}
	for i := range t.grads {
		t.grads[i] = noGrad
	}

	t.grads[loss] = t.push(ir.NewConst(1))

	for i := loss; i >= 0; i-- {
		g := t.grads[i]
		if g == noGrad {
			continue
		}
		t.backward(i, g)
	}

	return fwd.Extend(t.extra)
}

// push appends n and returns its index in the extended module.
func (t *transform) push(n ir.Node) int {
	t.extra = append(t.extra, n)
	return t.fwd.Len() + len(t.extra) - 1
}

// receives reports whether node i can make use of a gradient. Inputs and
// constants are terminal, so no nodes are emitted on their behalf.
func (t *transform) receives(i int) bool {
	switch t.fwd.Node(i).Kind {
	case ir.Input, ir.Const:
		return false
	default:
		return true
	}
}

// contribute adds g to the gradient of forward node i.
func (t *transform) contribute(i, g int) {
	if existing := t.grads[i]; existing != noGrad {
		t.grads[i] = t.push(ir.NewBinary(ir.Add, existing, g))
		return
	}
	t.grads[i] = g
}

func (t *transform) unary(k ir.Kind, x int) int {
	return t.push(ir.NewUnary(k, x))
}

func (t *transform) binary(k ir.Kind, l, r int) int {
	return t.push(ir.NewBinary(k, l, r))
}
