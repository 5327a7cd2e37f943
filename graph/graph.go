// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package graph records scalar models and runs them.
//
// A model is described by calling Input, Param and Const on the active
// builder and combining the returned values. Build freezes the recording
// into a Module; BuildWithGrad also appends the reverse-mode gradient of a
// loss. Modules run on an Interpreter, optionally over 4, 8 or 16 samples
// at once.
//
// Example:
//
//	b, done := graph.New()
//	defer done()
//
//	m := graph.Param("m")
//	c := graph.Param("b")
//	x := graph.Input()
//	y := m.Mul(x).Add(c)
//
//	eval, _ := b.Build(y)
//	it, _ := graph.NewInterpreter(eval, 1, []float32{2, 1}, nil)
//	it.Exec([]float32{3})
//	fmt.Println(it.Output(0)) // [7]
package graph

import (
	"io"

	"github.com/born-ml/axon/internal/builder"
	"github.com/born-ml/axon/internal/interp"
	"github.com/born-ml/axon/internal/ir"
)

// IR types

// Module is a frozen, ordered node list.
type Module = ir.Module

// Node is one IR instruction.
type Node = ir.Node

// Kind identifies the operation performed by a Node.
type Kind = ir.Kind

// NamedSlot maps a parameter name to its first slot.
type NamedSlot = ir.NamedSlot

// Error is a contract violation reported with the caller's location.
type Error = ir.Error

// Node kinds.
const (
	KindInput          = ir.Input
	KindParam          = ir.Param
	KindConst          = ir.Const
	KindNegate         = ir.Negate
	KindReciprocal     = ir.Reciprocal
	KindSqrt           = ir.Sqrt
	KindExp            = ir.Exp
	KindReLU           = ir.ReLU
	KindSigmoid        = ir.Sigmoid
	KindHeaviside      = ir.Heaviside
	KindSin            = ir.Sin
	KindCos            = ir.Cos
	KindAdd            = ir.Add
	KindSub            = ir.Sub
	KindMul            = ir.Mul
	KindOutput         = ir.Output
	KindGradAccumulate = ir.GradAccumulate
)

// NewModule validates nodes and returns a Module.
func NewModule(nodes []Node, numInputs, numParams int) (*Module, error) {
	return ir.New(nodes, numInputs, numParams)
}

// Fprint writes a one-line-per-node listing of m to w.
func Fprint(w io.Writer, m *Module) error { return ir.Fprint(w, m) }

// Recording

// Builder accumulates nodes for one model description.
type Builder = builder.Builder

// Value is a handle to a recorded node.
type Value = builder.Value

// New creates a builder, makes it active, and returns a func restoring the
// previously active builder.
func New() (*Builder, func()) { return builder.New() }

// With runs fn with b active and restores the previous builder afterwards.
func With(b *Builder, fn func() error) error { return builder.With(b, fn) }

// Active returns the active builder, or nil.
func Active() *Builder { return builder.Active() }

// Input allocates an input slot on the active builder.
func Input() Value { return builder.Input() }

// Param allocates a named parameter on the active builder.
func Param(name string) Value { return builder.Param(name) }

// ParamGroup allocates n parameters, naming only the first.
func ParamGroup(name string, n int) []Value { return builder.ParamGroup(name, n) }

// Const records a constant on the active builder.
func Const(v float32) Value { return builder.Const(v) }

// Execution

// Interpreter executes a Module over a fixed number of lanes.
type Interpreter = interp.Interpreter

// SupportedLanes lists the lane widths an Interpreter accepts.
var SupportedLanes = interp.SupportedLanes

// NewInterpreter prepares m for execution over lanes samples at a time.
// grad may be nil when m has no GradAccumulate nodes to honor.
func NewInterpreter(m *Module, lanes int, params, grad []float32) (*Interpreter, error) {
	return interp.New(m, lanes, params, grad)
}
