package autodiff_test

import (
	"errors"
	"math"
	"testing"

	"github.com/born-ml/axon/internal/autodiff"
	"github.com/born-ml/axon/internal/builder"
	"github.com/born-ml/axon/internal/interp"
	"github.com/born-ml/axon/internal/ir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// forwardValue evaluates node idx of m for one sample.
func forwardValue(t *testing.T, m *ir.Module, idx int, params, input []float32) float32 {
	t.Helper()
	it, err := interp.New(m, 1, params, nil)
	require.NoError(t, err)
	it.Exec(input)
	return it.Value(interp.Node(idx))[0]
}

// analyticGrad runs a forward+grad module once and returns the gradient.
func analyticGrad(t *testing.T, m *ir.Module, params, input []float32) []float32 {
	t.Helper()
	g := make([]float32, m.NumParams())
	it, err := interp.New(m, 1, params, g)
	require.NoError(t, err)
	it.Exec(input)
	return g
}

// numericalGrad computes the central difference df/dp for every parameter.
func numericalGrad(t *testing.T, m *ir.Module, loss int, params, input []float32) []float32 {
	t.Helper()
	const h = 1e-2
	out := make([]float32, len(params))
	for p := range params {
		orig := params[p]
		params[p] = orig + h
		plus := forwardValue(t, m, loss, params, input)
		params[p] = orig - h
		minus := forwardValue(t, m, loss, params, input)
		params[p] = orig
		out[p] = (plus - minus) / (2 * h)
	}
	return out
}

func assertClose(t *testing.T, want, got []float32, tol float64) {
	t.Helper()
	require.Len(t, got, len(want))
	for i := range want {
		assert.InDelta(t, want[i], got[i], tol, "gradient %d: want %v got %v", i, want[i], got[i])
	}
}

func TestDifferentiate_LinearFiniteDifference(t *testing.T) {
	b, done := builder.New()
	defer done()

	w := builder.Param("w")
	c := builder.Param("b")
	x := builder.Input()
	target := builder.Input()
	d := w.Mul(x).Add(c).Sub(target)
	loss := d.Mul(d)

	grad, err := b.BuildWithGrad(loss)
	require.NoError(t, err)
	forward, err := b.Build()
	require.NoError(t, err)

	params := []float32{0.3, -0.2}
	input := []float32{1.5, 2}
	want := numericalGrad(t, forward, loss.Index(), params, input)
	got := analyticGrad(t, grad, params, input)
	assertClose(t, want, got, 1e-2)

	r := params[0]*input[0] + params[1] - input[1]
	assert.InDelta(t, 2*r*input[0], got[0], 1e-5)
	assert.InDelta(t, 2*r, got[1], 1e-5)
}

func TestDifferentiate_KeepsForwardPrefix(t *testing.T) {
	b, done := builder.New()
	defer done()

	p := builder.Param("p")
	x := builder.Input()
	loss := p.Mul(x).Sigmoid().Add(p.Exp())

	forward, err := b.Build()
	require.NoError(t, err)
	grad, err := autodiff.Differentiate(forward, loss.Index())
	require.NoError(t, err)

	assert.True(t, grad.HasPrefix(forward))
	assert.Greater(t, grad.Len(), forward.Len())
	assert.Equal(t, forward.NumInputs(), grad.NumInputs())
	assert.Equal(t, forward.NumParams(), grad.NumParams())
	assert.Equal(t, 6, b.Len(), "differentiation must not touch the builder")
}

func TestDifferentiate_DeadParamHasNoGradient(t *testing.T) {
	b, done := builder.New()
	defer done()

	live := builder.Param("live")
	dead := builder.Param("dead")
	x := builder.Input()
	_ = dead.Mul(x)
	loss := live.Mul(x)

	grad, err := b.BuildWithGrad(loss)
	require.NoError(t, err)

	for _, n := range grad.Nodes() {
		if n.Kind == ir.GradAccumulate {
			assert.Equal(t, 0, n.Slot, "only the live parameter may receive a gradient")
		}
	}
	assert.Equal(t, 1, grad.Count(ir.GradAccumulate))
}

func TestDifferentiate_SquareIsTwoX(t *testing.T) {
	b, done := builder.New()
	defer done()

	p := builder.Param("p")
	loss := p.Mul(p)

	grad, err := b.BuildWithGrad(loss)
	require.NoError(t, err)
	assert.Equal(t, 1, grad.Count(ir.GradAccumulate), "one accumulation per parameter node")

	for _, v := range []float32{-3, 0.5, 2} {
		got := analyticGrad(t, grad, []float32{v}, nil)
		assert.InDelta(t, 2*v, got[0], 1e-6)
	}
}

func TestDifferentiate_SumsSharedSubexpression(t *testing.T) {
	b, done := builder.New()
	defer done()

	p := builder.Param("p")
	x := builder.Input()
	a := p.Mul(x)
	loss := a.Add(a).Add(a)

	grad, err := b.BuildWithGrad(loss)
	require.NoError(t, err)

	got := analyticGrad(t, grad, []float32{1}, []float32{5})
	assert.InDelta(t, 15, got[0], 1e-6, "three uses of p*x must sum, not replace")
}

func TestDifferentiate_ParamUsedTwice(t *testing.T) {
	b, done := builder.New()
	defer done()

	p := builder.Param("p")
	x := builder.Input()
	q := builder.Param("")
	loss := p.Mul(x).Add(p).Add(q.Mul(q))

	grad, err := b.BuildWithGrad(loss)
	require.NoError(t, err)
	assert.Equal(t, 2, grad.Count(ir.GradAccumulate), "one accumulation per parameter node")

	got := analyticGrad(t, grad, []float32{0.5, 2}, []float32{3})
	assert.InDelta(t, 4, got[0], 1e-6)
	assert.InDelta(t, 4, got[1], 1e-6)
}

func TestDifferentiate_TwoParamNodesSameSlot(t *testing.T) {
	forward := ir.MustNew([]ir.Node{
		ir.NewParam(0, "p"),
		ir.NewParam(0, ""),
		ir.NewBinary(ir.Mul, 0, 1),
	}, 0, 1)

	grad, err := autodiff.Differentiate(forward, 2)
	require.NoError(t, err)

	var slots []int
	for _, n := range grad.Nodes() {
		if n.Kind == ir.GradAccumulate {
			slots = append(slots, n.Slot)
		}
	}
	assert.Equal(t, []int{0, 0}, slots, "each Param node accumulates into the shared slot")
	assert.InDelta(t, 6, analyticGrad(t, grad, []float32{3}, nil)[0], 1e-6)
}

func TestDifferentiate_HeavisideStopsGradient(t *testing.T) {
	b, done := builder.New()
	defer done()

	p := builder.Param("p")
	loss := p.Heaviside()

	grad, err := b.BuildWithGrad(loss)
	require.NoError(t, err)
	assert.Equal(t, 0, grad.Count(ir.GradAccumulate))
}

func TestDifferentiate_UnaryRules(t *testing.T) {
	tests := []struct {
		name string
		op   func(builder.Value) builder.Value
		at   float32
	}{
		{"neg", builder.Value.Neg, 0.7},
		{"recip", builder.Value.Recip, 0.7},
		{"sqrt", builder.Value.Sqrt, 0.7},
		{"exp", builder.Value.Exp, 0.7},
		{"relu_pos", builder.Value.ReLU, 0.7},
		{"relu_neg", builder.Value.ReLU, -0.7},
		{"sigmoid", builder.Value.Sigmoid, 0.7},
		{"sin", builder.Value.Sin, 0.7},
		{"cos", builder.Value.Cos, 0.7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, done := builder.New()
			defer done()

			p := builder.Param("p")
			loss := tt.op(p)

			forward, err := b.Build()
			require.NoError(t, err)
			grad, err := b.BuildWithGrad(loss)
			require.NoError(t, err)

			params := []float32{tt.at}
			want := numericalGrad(t, forward, loss.Index(), params, nil)
			got := analyticGrad(t, grad, params, nil)
			assertClose(t, want, got, 1e-2)
		})
	}
}

func TestDifferentiate_ClosedForms(t *testing.T) {
	b, done := builder.New()
	defer done()

	p := builder.Param("p")
	loss := p.Sigmoid().Add(p.Sin()).Add(p.Cos())

	grad, err := b.BuildWithGrad(loss)
	require.NoError(t, err)

	v := 0.3
	s := 1 / (1 + math.Exp(-v))
	want := s*(1-s) + math.Cos(v) - math.Sin(v)
	got := analyticGrad(t, grad, []float32{float32(v)}, nil)
	assert.InDelta(t, want, got[0], 1e-5)
}

func TestDifferentiate_Errors(t *testing.T) {
	m := ir.MustNew([]ir.Node{
		ir.NewParam(0, "p"),
		ir.NewOutput(0, 0),
	}, 0, 1)

	var irErr *ir.Error
	_, err := autodiff.Differentiate(m, 2)
	require.True(t, errors.As(err, &irErr))
	assert.Contains(t, irErr.Msg, "out of range")

	_, err = autodiff.Differentiate(m, -1)
	assert.Error(t, err)

	_, err = autodiff.Differentiate(m, 1)
	require.True(t, errors.As(err, &irErr))
	assert.Contains(t, irErr.Msg, "has no value")
}
