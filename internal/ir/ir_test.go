package ir

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func linearNodes() []Node {
	return []Node{
		NewParam(0, "m"),
		NewParam(1, "b"),
		NewInput(0),
		NewBinary(Mul, 0, 2),
		NewBinary(Add, 3, 1),
	}
}

func TestNew_CopiesNodes(t *testing.T) {
	nodes := linearNodes()
	m, err := New(nodes, 1, 2)
	require.NoError(t, err)

	nodes[3] = NewConst(7)
	assert.Equal(t, Mul, m.Node(3).Kind, "module must not alias the caller's slice")

	out := m.Nodes()
	out[0] = NewConst(1)
	assert.Equal(t, Param, m.Node(0).Kind, "Nodes must return a copy")
}

func TestNew_RejectsForwardReference(t *testing.T) {
	nodes := []Node{
		NewInput(0),
		NewBinary(Add, 0, 2),
		NewConst(1),
	}
	_, err := New(nodes, 1, 0)
	require.Error(t, err)

	var irErr *Error
	require.True(t, errors.As(err, &irErr))
	assert.Contains(t, irErr.Msg, "not an earlier node")
	assert.NotEmpty(t, irErr.File)
}

func TestNew_RejectsSelfReference(t *testing.T) {
	_, err := New([]Node{NewUnary(Negate, 0)}, 0, 0)
	require.Error(t, err)
}

func TestNew_RejectsReadingSideEffectNode(t *testing.T) {
	nodes := []Node{
		NewInput(0),
		NewOutput(0, 0),
		NewUnary(Exp, 1),
	}
	_, err := New(nodes, 1, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "has no value")
}

func TestNew_SlotRanges(t *testing.T) {
	_, err := New([]Node{NewInput(1)}, 1, 0)
	assert.Error(t, err)

	_, err = New([]Node{NewParam(2, "")}, 0, 2)
	assert.Error(t, err)

	_, err = New([]Node{NewConst(1), NewGradAccumulate(0, 0)}, 0, 0)
	assert.Error(t, err)
}

func TestModule_NumOutputs(t *testing.T) {
	nodes := append(linearNodes(), NewOutput(2, 4), NewOutput(0, 3))
	m := MustNew(nodes, 1, 2)
	assert.Equal(t, 3, m.NumOutputs())
	assert.Equal(t, 2, m.Count(Output))
}

func TestModule_ExtendKeepsPrefix(t *testing.T) {
	m := MustNew(linearNodes(), 1, 2)
	ext, err := m.Extend([]Node{NewConst(1), NewGradAccumulate(0, 5)})
	require.NoError(t, err)

	assert.Equal(t, 5, m.Len())
	assert.Equal(t, 7, ext.Len())
	assert.True(t, ext.HasPrefix(m))
	assert.False(t, m.HasPrefix(ext))
}

func TestModule_HasPrefixNaN(t *testing.T) {
	nan := float32(math.NaN())
	m := MustNew([]Node{NewConst(nan)}, 0, 0)
	ext, err := m.Extend([]Node{NewUnary(Exp, 0)})
	require.NoError(t, err)
	assert.True(t, ext.HasPrefix(m))
}

func TestModule_NodePanicsOutOfRange(t *testing.T) {
	m := MustNew(linearNodes(), 1, 2)
	assert.Panics(t, func() { m.Node(5) })
	assert.Panics(t, func() { m.Node(-1) })
}

func TestModule_ParamNames(t *testing.T) {
	nodes := []Node{
		NewParam(0, "w"),
		NewParam(1, ""),
		NewParam(2, ""),
		NewParam(3, "bias"),
	}
	m := MustNew(nodes, 0, 4)
	assert.Equal(t, []NamedSlot{{Name: "w", Slot: 0}, {Name: "bias", Slot: 3}}, m.ParamNames())
}

func TestFprint(t *testing.T) {
	nodes := append(linearNodes(), NewOutput(0, 4))
	m := MustNew(nodes, 1, 2)

	want := strings.Join([]string{
		`v0 = param 0 "m"`,
		`v1 = param 1 "b"`,
		`v2 = input 0`,
		`v3 = mul v0 v2`,
		`v4 = add v3 v1`,
		`output 0 <- v4`,
	}, "\n") + "\n"
	assert.Equal(t, want, m.String())
}

func TestKindClassification(t *testing.T) {
	for k := Input; k < numKinds; k++ {
		classes := 0
		if k.IsUnary() {
			classes++
		}
		if k.IsBinary() {
			classes++
		}
		if k.IsSideEffect() {
			classes++
		}
		assert.LessOrEqual(t, classes, 1, "kind %s", k)
		assert.NotContains(t, k.String(), "Kind(", "kind %d has no name", k)
	}
	assert.False(t, numKinds.Valid())
	assert.Panics(t, func() { NewUnary(Add, 0) })
	assert.Panics(t, func() { NewBinary(Exp, 0, 0) })
}
