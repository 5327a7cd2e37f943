// Package ir defines the flat intermediate representation shared by the
// builder, the autodiff transform, the interpreter and the code generators.
//
// A computation is an ordered list of nodes. A node may only reference nodes
// with a strictly smaller index, so the list is a topologically sorted DAG
// by construction and needs no cycle detection.
//
// Node kinds:
//   - Input, Param, Const: leaves
//   - Negate, Reciprocal, Sqrt, Exp, ReLU, Sigmoid, Heaviside, Sin, Cos: unary
//   - Add, Sub, Mul: binary
//   - Output, GradAccumulate: side effects only, no value of their own
package ir

import "fmt"

// Kind identifies the operation performed by a Node.
type Kind uint8

// Node kinds.
const (
	Input Kind = iota
	Param
	Const
	Negate
	Reciprocal
	Sqrt
	Exp
	ReLU
	Sigmoid
	Heaviside
	Sin
	Cos
	Add
	Sub
	Mul
	Output
	GradAccumulate

	numKinds
)

var kindNames = [numKinds]string{
	Input:          "input",
	Param:          "param",
	Const:          "const",
	Negate:         "neg",
	Reciprocal:     "rcp",
	Sqrt:           "sqrt",
	Exp:            "exp",
	ReLU:           "relu",
	Sigmoid:        "sigmoid",
	Heaviside:      "heaviside",
	Sin:            "sin",
	Cos:            "cos",
	Add:            "add",
	Sub:            "sub",
	Mul:            "mul",
	Output:         "output",
	GradAccumulate: "grad_add",
}

// String returns the mnemonic used by the printer.
func (k Kind) String() string {
	if k < numKinds {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Valid reports whether k is a known node kind.
func (k Kind) Valid() bool {
	return k < numKinds
}

// IsUnary reports whether nodes of this kind read exactly one operand (A).
func (k Kind) IsUnary() bool {
	return k >= Negate && k <= Cos
}

// IsBinary reports whether nodes of this kind read two operands (A and B).
func (k Kind) IsBinary() bool {
	return k >= Add && k <= Mul
}

// IsSideEffect reports whether the node exists only for its effect and
// produces no value of its own.
func (k Kind) IsSideEffect() bool {
	return k == Output || k == GradAccumulate
}

// Node is one IR instruction.
//
// Field use per kind:
//
//	Input           Slot = input slot
//	Param           Slot = parameter slot, Name = optional group name
//	Const           Value
//	unary           A = operand
//	binary          A = left, B = right
//	Output          Slot = output slot, A = value
//	GradAccumulate  Slot = parameter slot, A = value
type Node struct {
	Kind  Kind
	A     int
	B     int
	Slot  int
	Value float32
	Name  string
}

// NewInput returns an Input node reading the given input slot.
func NewInput(slot int) Node { return Node{Kind: Input, Slot: slot} }

// NewParam returns a Param node for the given parameter slot.
func NewParam(slot int, name string) Node { return Node{Kind: Param, Slot: slot, Name: name} }

// NewConst returns a Const node.
func NewConst(v float32) Node { return Node{Kind: Const, Value: v} }

// NewUnary returns a unary node of kind k applied to operand.
func NewUnary(k Kind, operand int) Node {
	if !k.IsUnary() {
		panic(fmt.Sprintf("ir: %s is not a unary kind", k))
	}
	return Node{Kind: k, A: operand}
}

// NewBinary returns a binary node of kind k.
func NewBinary(k Kind, left, right int) Node {
	if !k.IsBinary() {
		panic(fmt.Sprintf("ir: %s is not a binary kind", k))
	}
	return Node{Kind: k, A: left, B: right}
}

// NewOutput returns a node writing value into output slot.
func NewOutput(slot, value int) Node { return Node{Kind: Output, Slot: slot, A: value} }

// NewGradAccumulate returns a node adding value into the gradient of param.
func NewGradAccumulate(param, value int) Node {
	return Node{Kind: GradAccumulate, Slot: param, A: value}
}

// Operands returns the node indices read by n.
func (n Node) Operands() []int {
	switch {
	case n.Kind.IsBinary():
		return []int{n.A, n.B}
	case n.Kind.IsUnary(), n.Kind.IsSideEffect():
		return []int{n.A}
	default:
		return nil
	}
}
