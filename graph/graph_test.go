package graph_test

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/born-ml/axon/autodiff"
	"github.com/born-ml/axon/export"
	"github.com/born-ml/axon/graph"
	"github.com/born-ml/axon/nn"
	"github.com/born-ml/axon/optim"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublicAPI_EndToEnd(t *testing.T) {
	b, done := graph.New()
	defer done()

	m := graph.Param("m")
	c := graph.Param("b")
	x := graph.Input()
	y := m.Mul(x).Add(c)

	eval, err := b.Build(y)
	require.NoError(t, err)

	it, err := graph.NewInterpreter(eval, 1, []float32{2, 1}, nil)
	require.NoError(t, err)
	it.Exec([]float32{3})
	assert.Equal(t, []float32{7}, it.Output(0))

	loss := nn.SquaredError(y, graph.Input())
	forward, err := graph.NewModule(eval.Nodes(), eval.NumInputs(), eval.NumParams())
	require.NoError(t, err)
	assert.True(t, eval.HasPrefix(forward))

	grad, err := b.BuildWithGrad(loss)
	require.NoError(t, err)
	assert.Equal(t, 2, grad.Count(graph.KindGradAccumulate))

	viaFacade, err := autodiff.Differentiate(mustForward(t, b), loss.Index())
	require.NoError(t, err)
	assert.True(t, viaFacade.HasPrefix(grad) && grad.HasPrefix(viaFacade))

	data := make([]float32, 0, 32)
	for i := 0; i < 16; i++ {
		xv := float32(i)/8 - 1
		data = append(data, xv, -5.2*xv+0.3)
	}
	ds, err := optim.NewDataset(16, 2, data)
	require.NoError(t, err)

	opt, err := optim.New(grad, ds, optim.Config{BatchSize: 4, LR: 0.1, Momentum: 0.5, Sampling: optim.Sequential})
	require.NoError(t, err)
	first := opt.RunEpoch(loss)
	var last float32
	for i := 0; i < 20; i++ {
		last = opt.RunEpoch(loss)
	}
	assert.Less(t, last, first)

	whole, err := optim.Evaluate(grad, opt.Parameters(), ds, loss)
	require.NoError(t, err)
	assert.Less(t, whole, first)

	var buf bytes.Buffer
	e, err := export.Lookup("c", export.ExporterOptions{})
	require.NoError(t, err)
	require.NoError(t, e.ExportFull(&buf, eval, grad))
	assert.Contains(t, buf.String(), "axon_eval(")
	assert.Contains(t, export.Exporters(), "go")

	path := filepath.Join(t.TempDir(), "grad.axm")
	require.NoError(t, export.SaveModule(path, grad))
	loaded, err := export.LoadModule(path)
	require.NoError(t, err)
	assert.Equal(t, grad.Len(), loaded.Len())

	var listing bytes.Buffer
	require.NoError(t, graph.Fprint(&listing, eval))
	assert.NotEmpty(t, listing.String())
}

// mustForward freezes b's nodes without outputs.
func mustForward(t *testing.T, b *graph.Builder) *graph.Module {
	t.Helper()
	m, err := b.Build()
	require.NoError(t, err)
	return m
}
