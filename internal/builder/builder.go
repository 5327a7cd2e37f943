// Package builder records scalar arithmetic on symbolic values into an
// append-only node list and freezes it into ir.Modules.
//
// Binding policy: a Value is bound to the Builder that minted it, and that
// Builder must be the active one whenever the Value is used. Mixing values
// from two builders, using a value while its builder is inactive, or using
// the zero Value are programmer errors and panic.
//
// Usage:
//
//	b, done := builder.New()
//	defer done()
//
//	m := builder.Param("m")
//	c := builder.Param("b")
//	x := builder.Input()
//	y := m.Mul(x).Add(c)
//
//	eval, _ := b.Build(y)
package builder

import (
	"fmt"
	"slices"
	"sync"

	"github.com/born-ml/axon/internal/autodiff"
	"github.com/born-ml/axon/internal/ir"
)

var (
	activeMu sync.Mutex
	active   *Builder
)

// Active returns the active builder, or nil if none is active.
func Active() *Builder {
	activeMu.Lock()
	defer activeMu.Unlock()
	return active
}

func mustActive() *Builder {
	b := Active()
	if b == nil {
		panic("builder: no active builder")
	}
	return b
}

// Builder accumulates nodes for one model description.
type Builder struct {
	nodes     []ir.Node
	numInputs int
	numParams int
}

// New creates a builder, makes it the active one, and returns a func that
// restores the previously active builder. Callers should defer it.
func New() (*Builder, func()) {
	b := &Builder{}
	return b, b.Activate()
}

// Activate makes b the active builder and returns a func restoring the
// builder that was active before. Calling the returned func more than once
// has no further effect.
func (b *Builder) Activate() func() {
	activeMu.Lock()
	prev := active
	active = b
	activeMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			activeMu.Lock()
			active = prev
			activeMu.Unlock()
		})
	}
}

// With runs fn with b active and restores the previously active builder on
// every exit path, including a panic inside fn.
func With(b *Builder, fn func() error) error {
	restore := b.Activate()
	defer restore()
	return fn()
}

// Len returns the number of nodes recorded so far.
func (b *Builder) Len() int { return len(b.nodes) }

// NumInputs returns the number of input slots allocated so far.
func (b *Builder) NumInputs() int { return b.numInputs }

// NumParams returns the number of parameter slots allocated so far.
func (b *Builder) NumParams() int { return b.numParams }

// Input allocates the next input slot.
func (b *Builder) Input() Value {
	slot := b.numInputs
	b.numInputs++
	return b.push(ir.NewInput(slot))
}

// Param allocates the next parameter slot. name is only used by generated
// artifacts and may be empty.
func (b *Builder) Param(name string) Value {
	slot := b.numParams
	b.numParams++
	return b.push(ir.NewParam(slot, name))
}

// ParamGroup allocates n consecutive parameters. Only the first carries
// name, since the name describes the whole block (a weight matrix, say).
func (b *Builder) ParamGroup(name string, n int) []Value {
	values := make([]Value, n)
	for i := range values {
		if i == 0 {
			values[i] = b.Param(name)
		} else {
			values[i] = b.Param("")
		}
	}
	return values
}

// Const records a constant.
func (b *Builder) Const(v float32) Value {
	return b.push(ir.NewConst(v))
}

func (b *Builder) push(n ir.Node) Value {
	b.nodes = append(b.nodes, n)
	return Value{b: b, index: len(b.nodes) - 1}
}

// Build freezes the recorded nodes into a forward module, appending one
// Output node per value in outputs (output slot i reads outputs[i]).
// The builder is left untouched and may keep recording.
func (b *Builder) Build(outputs ...Value) (*ir.Module, error) {
	nodes := slices.Clone(b.nodes)
	for i, v := range outputs {
		b.check(v)
		nodes = append(nodes, ir.NewOutput(i, v.index))
	}
	return ir.New(nodes, b.numInputs, b.numParams)
}

// BuildWithGrad freezes the recorded nodes and appends the reverse-mode
// gradient of loss with respect to every parameter. The builder is left
// untouched, so the same session can also produce a forward module.
func (b *Builder) BuildWithGrad(loss Value) (*ir.Module, error) {
	b.check(loss)
	forward, err := ir.New(b.nodes, b.numInputs, b.numParams)
	if err != nil {
		return nil, err
	}
	return autodiff.Differentiate(forward, loss.index)
}

// check panics unless v was minted by b.
func (b *Builder) check(v Value) {
	if !v.Valid() {
		panic("builder: use of invalid value")
	}
	if v.b != b {
		panic(fmt.Sprintf("builder: value v%d belongs to a different builder", v.index))
	}
}

// Input allocates an input slot on the active builder.
func Input() Value { return mustActive().Input() }

// Param allocates a parameter slot on the active builder.
func Param(name string) Value { return mustActive().Param(name) }

// ParamGroup allocates n parameters on the active builder.
func ParamGroup(name string, n int) []Value { return mustActive().ParamGroup(name, n) }

// Const records a constant on the active builder.
func Const(v float32) Value { return mustActive().Const(v) }
