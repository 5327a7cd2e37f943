package models

import (
	"math"
	"testing"

	"github.com/born-ml/axon/internal/compiler"
	"github.com/born-ml/axon/internal/ir"
	"github.com/born-ml/axon/internal/optim"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry(t *testing.T) {
	assert.Equal(t, []string{"image_encoder", "linear"}, Names())

	m, err := Lookup("linear")
	require.NoError(t, err)
	assert.Equal(t, 2, m.Columns)

	_, err = Lookup("resnet")
	assert.Error(t, err)

	assert.Panics(t, func() { Register(Linear()) })
}

func TestModels_ColumnsMatchGradInputs(t *testing.T) {
	for _, name := range Names() {
		t.Run(name, func(t *testing.T) {
			m, err := Lookup(name)
			require.NoError(t, err)
			c, err := compiler.Compile(compiler.Options{Name: name}, m.Recipe)
			require.NoError(t, err)
			assert.Equal(t, m.Columns, c.GradModule().NumInputs())
			assert.True(t, c.GradModule().Count(ir.GradAccumulate) > 0)
		})
	}
}

func TestImageEncoder_Shape(t *testing.T) {
	c, err := compiler.Compile(compiler.Options{}, ImageEncoder().Recipe)
	require.NoError(t, err)

	eval := c.EvalModule()
	assert.Equal(t, 2, eval.NumInputs())
	assert.Equal(t, 3, eval.NumOutputs())

	in := 2 + 2*2*FourierBands
	hidden := HiddenLayers * (HiddenWidth*HiddenWidth + HiddenWidth)
	head := 3*HiddenWidth + 3
	assert.Equal(t, HiddenWidth*in+hidden+head, eval.NumParams())

	var names []string
	for _, ns := range eval.ParamNames() {
		names = append(names, ns.Name)
	}
	assert.Equal(t, []string{
		"encoder_in",
		"hidden0_weight", "hidden0_bias",
		"hidden1_weight", "hidden1_bias",
		"hidden2_weight", "hidden2_bias",
		"rgb_weight", "rgb_bias",
	}, names)
}

func TestLinear_Dataset(t *testing.T) {
	ds, err := Linear().Dataset(32, 7)
	require.NoError(t, err)
	assert.Equal(t, 32, ds.Rows())

	for i := 0; i < ds.Rows(); i++ {
		row := ds.Row(i)
		assert.GreaterOrEqual(t, row[0], float32(-1))
		assert.Less(t, row[0], float32(1))
		assert.InDelta(t, LinearSlope*row[0]+LinearIntercept, row[1], 1e-5)
	}

	again, err := Linear().Dataset(32, 7)
	require.NoError(t, err)
	assert.Equal(t, ds.Data(), again.Data())
}

func TestImageEncoder_TrainsWithoutBlowingUp(t *testing.T) {
	m := ImageEncoder()
	c, err := compiler.Compile(compiler.Options{}, m.Recipe)
	require.NoError(t, err)

	ds, err := m.Dataset(64, 1)
	require.NoError(t, err)

	opt, err := optim.New(c.GradModule(), ds, optim.Config{
		BatchSize: 16,
		Seed:      1,
		LR:        0.01,
		Momentum:  0.9,
	})
	require.NoError(t, err)

	for epoch := 0; epoch < 3; epoch++ {
		loss := opt.RunEpoch(c.Loss())
		assert.False(t, math.IsNaN(float64(loss)) || math.IsInf(float64(loss), 0), "epoch %d loss %v", epoch, loss)
	}
	assert.Equal(t, 12, opt.Steps())
}
