package interp

import (
	"errors"
	"math"
	"testing"

	"github.com/born-ml/axon/internal/builder"
	"github.com/born-ml/axon/internal/ir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func floatEqual(a, b float32) bool {
	return math.Abs(float64(a-b)) < 1e-5
}

// linear builds y = m*x + b with a squared error loss against target t.
func linear(t *testing.T) (eval, grad *ir.Module, y, loss builder.Value) {
	t.Helper()
	b, done := builder.New()
	defer done()

	m := builder.Param("m")
	c := builder.Param("b")
	x := builder.Input()
	target := builder.Input()
	y = m.Mul(x).Add(c)
	d := y.Sub(target)
	loss = d.Mul(d)

	var err error
	eval, err = b.Build(y)
	require.NoError(t, err)
	grad, err = b.BuildWithGrad(loss)
	require.NoError(t, err)
	return eval, grad, y, loss
}

func TestNew_RejectsLaneWidth(t *testing.T) {
	eval, _, _, _ := linear(t)
	for _, lanes := range []int{0, 2, 3, 32} {
		_, err := New(eval, lanes, make([]float32, 2), nil)
		var irErr *ir.Error
		require.True(t, errors.As(err, &irErr), "lanes=%d", lanes)
	}
	for _, lanes := range SupportedLanes {
		_, err := New(eval, lanes, make([]float32, 2), nil)
		assert.NoError(t, err, "lanes=%d", lanes)
	}
}

func TestNew_ShortParameterBuffer(t *testing.T) {
	eval, _, _, _ := linear(t)
	_, err := New(eval, 1, make([]float32, 1), nil)
	assert.Error(t, err)
	_, err = New(eval, 1, make([]float32, 2), make([]float32, 1))
	assert.Error(t, err)
}

func TestExec_Lanes(t *testing.T) {
	eval, _, y, _ := linear(t)
	it, err := New(eval, 4, []float32{2, 0.5}, nil)
	require.NoError(t, err)

	// slot 0 (x) then slot 1 (target), four lanes each
	it.Exec([]float32{
		1, 2, 3, 4,
		0, 0, 0, 0,
	})
	assert.Equal(t, []float32{2.5, 4.5, 6.5, 8.5}, it.Output(0))
	assert.Equal(t, it.Output(0), it.Value(y))
	assert.Equal(t, 1, it.Execs())
}

func TestExec_ParamUpdatesVisible(t *testing.T) {
	eval, _, _, _ := linear(t)
	params := []float32{1, 0}
	it, err := New(eval, 1, params, nil)
	require.NoError(t, err)

	it.Exec([]float32{3, 0})
	assert.Equal(t, []float32{3}, it.Output(0))

	params[0] = -1
	it.Exec([]float32{3, 0})
	assert.Equal(t, []float32{-3}, it.Output(0))
}

func TestExec_GradAccumulateAveragesLanes(t *testing.T) {
	_, grad, _, loss := linear(t)
	params := []float32{1, 0}
	g := make([]float32, 2)
	it, err := New(grad, 4, params, g)
	require.NoError(t, err)

	xs := []float32{1, 2, 3, 4}
	ts := []float32{0, 0, 0, 0}
	it.Exec(append(append([]float32{}, xs...), ts...))

	// loss = (m*x + b - t)^2, dL/dm = 2(mx+b-t)x, dL/db = 2(mx+b-t)
	var wantM, wantB float32
	for l := range xs {
		r := params[0]*xs[l] + params[1] - ts[l]
		wantM += 2 * r * xs[l]
		wantB += 2 * r
	}
	wantM /= 4
	wantB /= 4
	assert.True(t, floatEqual(wantM, g[0]), "dm: want %v got %v", wantM, g[0])
	assert.True(t, floatEqual(wantB, g[1]), "db: want %v got %v", wantB, g[1])
	assert.Equal(t, []float32{1, 4, 9, 16}, it.Value(loss))

	// a second Exec adds on top
	it.Exec(append(append([]float32{}, xs...), ts...))
	assert.True(t, floatEqual(2*wantM, g[0]))
}

func TestExec_NilGradient(t *testing.T) {
	_, grad, _, _ := linear(t)
	it, err := New(grad, 1, []float32{1, 1}, nil)
	require.NoError(t, err)
	assert.NotPanics(t, func() { it.Exec([]float32{1, 0}) })
}

func TestExec_ShortInputPanics(t *testing.T) {
	eval, _, _, _ := linear(t)
	it, err := New(eval, 4, []float32{1, 1}, nil)
	require.NoError(t, err)
	assert.Panics(t, func() { it.Exec(make([]float32, 7)) })
}

func TestValue_ReturnsCopy(t *testing.T) {
	eval, _, y, _ := linear(t)
	it, err := New(eval, 1, []float32{1, 1}, nil)
	require.NoError(t, err)
	it.Exec([]float32{1, 0})

	v := it.Value(y)
	v[0] = 100
	assert.Equal(t, []float32{2}, it.Value(y))
	assert.Panics(t, func() { it.Value(Node(eval.Len())) })
	assert.Panics(t, func() { it.Output(1) })
}

func TestKernels(t *testing.T) {
	nodes := []ir.Node{
		ir.NewInput(0),
		ir.NewUnary(ir.Negate, 0),
		ir.NewUnary(ir.Reciprocal, 0),
		ir.NewUnary(ir.Sqrt, 0),
		ir.NewUnary(ir.Exp, 0),
		ir.NewUnary(ir.ReLU, 1),
		ir.NewUnary(ir.Sigmoid, 0),
		ir.NewUnary(ir.Heaviside, 0),
		ir.NewUnary(ir.Sin, 0),
		ir.NewUnary(ir.Cos, 0),
		ir.NewUnary(ir.Heaviside, 1),
		ir.NewUnary(ir.ReLU, 0),
	}
	m := ir.MustNew(nodes, 1, 0)
	it, err := New(m, 1, nil, nil)
	require.NoError(t, err)

	x := float32(4)
	it.Exec([]float32{x})
	want := []float32{
		x,
		-x,
		0.25,
		2,
		float32(math.Exp(4)),
		0,
		float32(1 / (1 + math.Exp(-4))),
		1,
		float32(math.Sin(4)),
		float32(math.Cos(4)),
		0,
		4,
	}
	for i, w := range want {
		got := it.Value(Node(i))[0]
		assert.True(t, floatEqual(w, got), "node %d (%s): want %v got %v", i, nodes[i].Kind, w, got)
	}
}

func TestKernels_ReLUOfNaNIsZero(t *testing.T) {
	m := ir.MustNew([]ir.Node{
		ir.NewInput(0),
		ir.NewUnary(ir.ReLU, 0),
	}, 1, 0)
	it, err := New(m, 4, nil, nil)
	require.NoError(t, err)

	nan := float32(math.NaN())
	it.Exec([]float32{nan, -1, 0, 2})
	assert.Equal(t, []float32{0, 0, 0, 2}, it.Value(Node(1)))
}
