// Package interp executes ir.Modules numerically.
//
// An Interpreter walks the node list once per Exec, writing one result slot
// per node. Each slot holds `lanes` floats so that a batch of independent
// samples is evaluated in lockstep: Input nodes read one value per lane,
// Param and Const nodes broadcast, arithmetic is lanewise, and
// GradAccumulate folds the lanes into a single gradient entry by averaging.
package interp

import (
	"fmt"
	"slices"

	"github.com/born-ml/axon/internal/ir"
)

// SupportedLanes lists the accepted lane widths.
var SupportedLanes = []int{1, 4, 8, 16}

// LanesSupported reports whether n is an accepted lane width.
func LanesSupported(n int) bool { return slices.Contains(SupportedLanes, n) }

// Interpreter runs one module at a fixed lane width.
type Interpreter struct {
	m       *ir.Module
	nodes   []ir.Node
	lanes   int
	params  []float32
	grad    []float32
	results []float32
	outputs []float32
	execs   int
}

// New creates an interpreter for m.
//
// params and grad are used by reference: the interpreter reads parameters
// from params and adds gradients into grad on every Exec, so their owner
// (usually the optimizer) sees updates without copying. grad may be nil, in
// which case GradAccumulate nodes are skipped.
func New(m *ir.Module, lanes int, params, grad []float32) (*Interpreter, error) {
	if !LanesSupported(lanes) {
		return nil, ir.Errorf("unsupported lane width %d (want one of %v)", lanes, SupportedLanes)
	}
	if len(params) < m.NumParams() {
		return nil, ir.Errorf("parameter buffer has %d entries, module needs %d", len(params), m.NumParams())
	}
	if grad != nil && len(grad) < m.NumParams() {
		return nil, ir.Errorf("gradient buffer has %d entries, module needs %d", len(grad), m.NumParams())
	}
	return &Interpreter{
		m:       m,
		nodes:   m.Nodes(),
		lanes:   lanes,
		params:  params,
		grad:    grad,
		results: make([]float32, m.Len()*lanes),
		outputs: make([]float32, m.NumOutputs()*lanes),
	}, nil
}

// Module returns the module being executed.
func (it *Interpreter) Module() *ir.Module { return it.m }

// Lanes returns the lane width.
func (it *Interpreter) Lanes() int { return it.lanes }

// Execs returns the number of Exec calls since the last ResetExecs.
func (it *Interpreter) Execs() int { return it.execs }

// ResetExecs clears the Exec counter.
func (it *Interpreter) ResetExecs() { it.execs = 0 }

// Exec evaluates every node once, in index order.
//
// input is lane-major: the value of input slot s in lane l is
// input[s*lanes+l]. Exec panics if input is shorter than NumInputs*lanes.
func (it *Interpreter) Exec(input []float32) {
	if need := it.m.NumInputs() * it.lanes; len(input) < need {
		panic(fmt.Sprintf("interp: input has %d values, need %d", len(input), need))
	}
	for i, n := range it.nodes {
		it.eval(i, n, input)
	}
	it.execs++
}

// Value returns a copy of the lanes of the node v refers to, as computed by
// the most recent Exec. Both builder.Value and plain node indices wrapped in
// Node satisfy the argument.
func (it *Interpreter) Value(v interface{ Index() int }) []float32 {
	return slices.Clone(it.slot(v.Index()))
}

// Output returns a copy of the lanes written to output slot k.
func (it *Interpreter) Output(k int) []float32 {
	if k < 0 || k >= it.m.NumOutputs() {
		panic(fmt.Sprintf("interp: output slot %d out of range [0,%d)", k, it.m.NumOutputs()))
	}
	return slices.Clone(it.outputs[k*it.lanes : (k+1)*it.lanes])
}

// Node is a bare node index usable with Value.
type Node int

// Index implements the handle interface accepted by Value.
func (n Node) Index() int { return int(n) }

func (it *Interpreter) slot(i int) []float32 {
	if i < 0 || i >= len(it.nodes) {
		panic(fmt.Sprintf("interp: node index %d out of range [0,%d)", i, len(it.nodes)))
	}
	return it.results[i*it.lanes : (i+1)*it.lanes]
}

func (it *Interpreter) eval(i int, n ir.Node, input []float32) {
	dst := it.slot(i)
	switch n.Kind {
	case ir.Input:
		copy(dst, input[n.Slot*it.lanes:(n.Slot+1)*it.lanes])
	case ir.Param:
		fill(dst, it.params[n.Slot])
	case ir.Const:
		fill(dst, n.Value)
	case ir.Negate, ir.Reciprocal, ir.Sqrt, ir.Exp, ir.ReLU, ir.Sigmoid, ir.Heaviside, ir.Sin, ir.Cos:
		unary(n.Kind, dst, it.slot(n.A))
	case ir.Add, ir.Sub, ir.Mul:
		binary(n.Kind, dst, it.slot(n.A), it.slot(n.B))
	case ir.Output:
		src := it.slot(n.A)
		copy(dst, src)
		copy(it.outputs[n.Slot*it.lanes:], src)
	case ir.GradAccumulate:
		src := it.slot(n.A)
		copy(dst, src)
		if it.grad != nil {
			it.grad[n.Slot] += mean(src)
		}
	default:
		panic(fmt.Sprintf("interp: node %d has unknown kind %s", i, n.Kind))
	}
}
