package ir

import (
	"fmt"
	"math"
	"slices"
)

// Module is a frozen, ordered node list.
//
// The index of a node is its identity: it is the single-assignment slot the
// interpreter writes and the local variable name the code generators emit.
// A Module is never mutated after New returns, so it can be shared freely by
// readers; extension always produces a new Module (see Extend).
type Module struct {
	nodes      []Node
	numInputs  int
	numParams  int
	numOutputs int
}

// New validates nodes and returns a Module owning a private copy of them.
//
// numInputs and numParams are the number of declared input and parameter
// slots. They may exceed the slots referenced by nodes (a declared parameter
// that no node reads still occupies a slot in the parameter buffer).
func New(nodes []Node, numInputs, numParams int) (*Module, error) {
	m := &Module{
		nodes:     slices.Clone(nodes),
		numInputs: numInputs,
		numParams: numParams,
	}
	if err := m.validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// MustNew is like New but panics on an invalid node list. It is meant for
// callers that construct the list themselves and treat a failure as a bug.
func MustNew(nodes []Node, numInputs, numParams int) *Module {
	m, err := New(nodes, numInputs, numParams)
	if err != nil {
		panic(fmt.Sprintf("ir: %v", err))
	}
	return m
}

func (m *Module) validate() error {
	if m.numInputs < 0 || m.numParams < 0 {
		return Errorf("negative slot count: inputs=%d params=%d", m.numInputs, m.numParams)
	}
	outputs := 0
	for i, n := range m.nodes {
		if !n.Kind.Valid() {
			return Errorf("node %d: unknown kind %d", i, n.Kind)
		}
		for _, op := range n.Operands() {
			if op < 0 || op >= i {
				return Errorf("node %d (%s): operand %d is not an earlier node", i, n.Kind, op)
			}
			if m.nodes[op].Kind.IsSideEffect() {
				return Errorf("node %d (%s): operand %d (%s) has no value", i, n.Kind, op, m.nodes[op].Kind)
			}
		}
		switch n.Kind {
		case Input:
			if n.Slot < 0 || n.Slot >= m.numInputs {
				return Errorf("node %d: input slot %d out of range [0,%d)", i, n.Slot, m.numInputs)
			}
		case Param, GradAccumulate:
			if n.Slot < 0 || n.Slot >= m.numParams {
				return Errorf("node %d: parameter slot %d out of range [0,%d)", i, n.Slot, m.numParams)
			}
		case Output:
			if n.Slot < 0 {
				return Errorf("node %d: negative output slot %d", i, n.Slot)
			}
			outputs = max(outputs, n.Slot+1)
		}
	}
	m.numOutputs = outputs
	return nil
}

// Len returns the number of nodes.
func (m *Module) Len() int { return len(m.nodes) }

// Node returns the node at index i. It panics if i is out of range.
func (m *Module) Node(i int) Node {
	if i < 0 || i >= len(m.nodes) {
		panic(fmt.Sprintf("ir: node index %d out of range [0,%d)", i, len(m.nodes)))
	}
	return m.nodes[i]
}

// Nodes returns a copy of the node list.
func (m *Module) Nodes() []Node { return slices.Clone(m.nodes) }

// NumInputs returns the number of input slots.
func (m *Module) NumInputs() int { return m.numInputs }

// NumParams returns the number of parameter slots.
func (m *Module) NumParams() int { return m.numParams }

// NumOutputs returns one past the highest output slot written.
func (m *Module) NumOutputs() int { return m.numOutputs }

// Extend returns a new Module made of m's nodes followed by extra.
// m itself is left untouched.
func (m *Module) Extend(extra []Node) (*Module, error) {
	nodes := make([]Node, 0, len(m.nodes)+len(extra))
	nodes = append(nodes, m.nodes...)
	nodes = append(nodes, extra...)
	return New(nodes, m.numInputs, m.numParams)
}

// HasPrefix reports whether the first prefix.Len() nodes of m are identical
// to the nodes of prefix. A forward+grad module always has its forward
// module as a prefix.
func (m *Module) HasPrefix(prefix *Module) bool {
	if prefix.Len() > m.Len() {
		return false
	}
	return slices.EqualFunc(m.nodes[:prefix.Len()], prefix.nodes, sameNode)
}

// sameNode compares constants by bit pattern so that NaN constants compare
// equal to themselves.
func sameNode(a, b Node) bool {
	return a.Kind == b.Kind && a.A == b.A && a.B == b.B && a.Slot == b.Slot &&
		a.Name == b.Name && math.Float32bits(a.Value) == math.Float32bits(b.Value)
}

// Count returns the number of nodes of kind k.
func (m *Module) Count(k Kind) int {
	c := 0
	for _, n := range m.nodes {
		if n.Kind == k {
			c++
		}
	}
	return c
}

// ParamNames returns the named parameter slots in node order. Only the first
// parameter of a named group carries the name.
func (m *Module) ParamNames() []NamedSlot {
	var names []NamedSlot
	for _, n := range m.nodes {
		if n.Kind == Param && n.Name != "" {
			names = append(names, NamedSlot{Name: n.Name, Slot: n.Slot})
		}
	}
	return names
}

// NamedSlot maps a human-readable parameter group name to its first slot.
type NamedSlot struct {
	Name string
	Slot int
}
