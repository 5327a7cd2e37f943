package builder

import (
	"errors"
	"testing"

	"github.com/born-ml/axon/internal/ir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilder_SlotsAndNames(t *testing.T) {
	b, done := New()
	defer done()

	w := ParamGroup("w", 3)
	x0 := Input()
	x1 := Input()
	c := Param("bias")
	k := Const(2)

	assert.Equal(t, 4, b.NumParams())
	assert.Equal(t, 2, b.NumInputs())
	assert.Equal(t, 7, b.Len())

	m, err := b.Build(w[0].Mul(x0).Add(w[1].Mul(x1)).Add(c).Mul(k))
	require.NoError(t, err)

	assert.Equal(t, ir.NewParam(0, "w"), m.Node(w[0].Index()))
	assert.Equal(t, ir.NewParam(1, ""), m.Node(w[1].Index()))
	assert.Equal(t, ir.NewInput(1), m.Node(x1.Index()))
	assert.Equal(t, ir.NewParam(3, "bias"), m.Node(c.Index()))
	assert.Equal(t, ir.NewConst(2), m.Node(k.Index()))
	assert.Equal(t, []ir.NamedSlot{{Name: "w", Slot: 0}, {Name: "bias", Slot: 3}}, m.ParamNames())
}

func TestBuilder_BuildAppendsOutputs(t *testing.T) {
	b, done := New()
	defer done()

	x := Input()
	y := x.Exp()
	z := x.Neg()

	m, err := b.Build(y, z)
	require.NoError(t, err)
	assert.Equal(t, 5, m.Len())
	assert.Equal(t, ir.NewOutput(0, y.Index()), m.Node(3))
	assert.Equal(t, ir.NewOutput(1, z.Index()), m.Node(4))
	assert.Equal(t, 2, m.NumOutputs())
	assert.Equal(t, 3, b.Len(), "Build must not record outputs in the builder")
}

func TestBuilder_BuildIsIndependentOfLaterRecording(t *testing.T) {
	b, done := New()
	defer done()

	x := Input()
	y := x.Sin()
	m, err := b.Build(y)
	require.NoError(t, err)
	before := m.String()

	_ = y.Cos().Add(x)
	assert.Equal(t, before, m.String())
	assert.Equal(t, 3, m.Len())
}

func TestBuilder_BuildWithGradLeavesBuilderUntouched(t *testing.T) {
	b, done := New()
	defer done()

	p := Param("p")
	loss := p.Mul(p)

	grad, err := b.BuildWithGrad(loss)
	require.NoError(t, err)
	assert.Equal(t, 2, b.Len())
	assert.Greater(t, grad.Len(), 2)

	eval, err := b.Build(loss)
	require.NoError(t, err)
	assert.True(t, grad.HasPrefix(mustForward(t, b)))
	assert.Equal(t, 3, eval.Len())
}

func mustForward(t *testing.T, b *Builder) *ir.Module {
	t.Helper()
	m, err := b.Build()
	require.NoError(t, err)
	return m
}

func TestBuilder_Scale(t *testing.T) {
	b, done := New()
	defer done()

	x := Input()
	y := x.Scale(0.5)
	m, err := b.Build(y)
	require.NoError(t, err)
	assert.Equal(t, ir.NewConst(0.5), m.Node(1))
	assert.Equal(t, ir.NewBinary(ir.Mul, 0, 1), m.Node(2))
}

func TestValue_Zero(t *testing.T) {
	var v Value
	assert.False(t, v.Valid())
	assert.Equal(t, "v<invalid>", v.String())
	assert.Panics(t, func() { v.Index() })

	_, done := New()
	defer done()
	x := Input()
	assert.Panics(t, func() { x.Add(v) })
	assert.Panics(t, func() { v.Exp() })
}

func TestValue_CrossBuilderPanics(t *testing.T) {
	b1, done1 := New()
	x1 := Input()
	done1()

	_, done2 := New()
	defer done2()
	x2 := Input()

	assert.PanicsWithValue(t, "builder: v0 belongs to an inactive builder", func() { x2.Add(x1) })
	assert.Panics(t, func() { x1.Exp() })
	assert.Panics(t, func() { _, _ = b1.Build(x2) })
}

func TestValue_NoActiveBuilderPanics(t *testing.T) {
	_, done := New()
	x := Input()
	done()

	require.Nil(t, Active())
	assert.PanicsWithValue(t, "builder: v0 used with no active builder", func() { x.Neg() })
	assert.PanicsWithValue(t, "builder: no active builder", func() { Input() })
}

func TestActivate_RestoresPrevious(t *testing.T) {
	outer, doneOuter := New()
	defer doneOuter()

	inner, doneInner := New()
	assert.Same(t, inner, Active())
	doneInner()
	assert.Same(t, outer, Active())

	// extra calls are no-ops
	restore := inner.Activate()
	restore()
	restore()
	assert.Same(t, outer, Active())
}

func TestWith_RestoresOnError(t *testing.T) {
	outer, done := New()
	defer done()

	inner := &Builder{}
	errBoom := errors.New("boom")
	err := With(inner, func() error {
		assert.Same(t, inner, Active())
		Input()
		return errBoom
	})
	assert.ErrorIs(t, err, errBoom)
	assert.Same(t, outer, Active())
	assert.Equal(t, 1, inner.NumInputs())
}

func TestWith_RestoresOnPanic(t *testing.T) {
	outer, done := New()
	defer done()

	inner := &Builder{}
	assert.Panics(t, func() {
		_ = With(inner, func() error {
			panic("recipe failed")
		})
	})
	assert.Same(t, outer, Active())
}
