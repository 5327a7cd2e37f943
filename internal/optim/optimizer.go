// Package optim trains the parameters of a forward+grad module against a
// dataset.
//
// The Optimizer owns the parameter, gradient and momentum buffers and an
// interpreter whose lane width equals the batch size. Each Step:
//
//  1. clears the gradient,
//  2. picks the next BatchSize rows and transposes them into the
//     interpreter's lane-major input layout,
//  3. executes the module once, so every GradAccumulate adds the batch mean
//     of its contribution,
//  4. applies SGD with momentum (see sgd.go).
//
// Example usage:
//
//	opt, err := optim.New(grad, ds, optim.Config{
//	    BatchSize: 4,
//	    LR:        0.01,
//	    Momentum:  0.9,
//	})
//	if err != nil {
//	    return err
//	}
//	for epoch := range epochs {
//	    loss := opt.RunEpoch(lossValue)
//	}
package optim

import (
	"io"
	"log/slog"
	"math/rand"
	"slices"

	"github.com/born-ml/axon/internal/dataset"
	"github.com/born-ml/axon/internal/interp"
	"github.com/born-ml/axon/internal/ir"
)

// Sampling selects the order rows are visited in.
type Sampling int

const (
	// Shuffled permutes the rows once at construction and then walks the
	// permutation round-robin, without reshuffling between epochs.
	Shuffled Sampling = iota
	// Sequential walks rows in dataset order.
	Sequential
)

// String implements fmt.Stringer.
func (s Sampling) String() string {
	switch s {
	case Shuffled:
		return "shuffled"
	case Sequential:
		return "sequential"
	default:
		return "unknown"
	}
}

// Config holds the optimizer settings.
type Config struct {
	BatchSize  int          // Rows per step, one of interp.SupportedLanes (default: 1)
	Seed       int64        // Seeds initialization and shuffling
	LR         float32      // Learning rate (default: 0.01)
	Momentum   float32      // Momentum decay in [0, 1) (default: 0.0)
	InitStdDev float32      // Stddev of the normal parameter init (default: 0.1)
	Sampling   Sampling     // Row order (default: Shuffled)
	Logger     *slog.Logger // Debug progress (default: discard)
}

func (c *Config) setDefaults() {
	if c.BatchSize == 0 {
		c.BatchSize = 1
	}
	if c.LR == 0 {
		c.LR = 0.01
	}
	if c.InitStdDev == 0 {
		c.InitStdDev = 0.1
	}
	if c.Logger == nil {
		c.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
}

// Optimizer runs SGD with momentum over a dataset.
type Optimizer struct {
	cfg    Config
	module *ir.Module
	it     *interp.Interpreter

	params   []float32
	grad     []float32
	momentum []float32

	data    []float32
	cols    int
	indices []int
	offset  int
	input   []float32
	steps   int
}

// New creates an optimizer for the forward+grad module m.
//
// It returns an *ir.Error if the batch size is unsupported, if the module's
// input count differs from the dataset's column count, if the dataset is
// empty, or if the row count is not a multiple of the batch size.
func New(m *ir.Module, ds dataset.Dataset, cfg Config) (*Optimizer, error) {
	cfg.setDefaults()
	n := cfg.BatchSize

	if !interp.LanesSupported(n) {
		return nil, ir.Errorf("unsupported batch size %d (want one of %v)", n, interp.SupportedLanes)
	}
	if m.NumInputs() != ds.Cols() {
		return nil, ir.Errorf("the number of inputs to the network (%d) does not match the number of columns in the dataset (%d)",
			m.NumInputs(), ds.Cols())
	}
	if ds.Rows() == 0 {
		return nil, ir.Errorf("dataset is empty")
	}
	if ds.Rows()%n != 0 {
		return nil, ir.Errorf("the number of rows in the dataset (%d) should be divisible by the batch size (%d)",
			ds.Rows(), n)
	}

	//nolint:gosec // math/rand is appropriate for weight initialization and sampling
	rng := rand.New(rand.NewSource(cfg.Seed))

	o := &Optimizer{
		cfg:      cfg,
		module:   m,
		params:   make([]float32, m.NumParams()),
		grad:     make([]float32, m.NumParams()),
		momentum: make([]float32, m.NumParams()),
		data:     slices.Clone(ds.Data()),
		cols:     ds.Cols(),
		indices:  make([]int, ds.Rows()),
		input:    make([]float32, n*m.NumInputs()),
	}
	for i := range o.indices {
		o.indices[i] = i
	}
	if cfg.Sampling == Shuffled {
		rng.Shuffle(len(o.indices), func(i, j int) {
			o.indices[i], o.indices[j] = o.indices[j], o.indices[i]
		})
	}
	for i := range o.params {
		o.params[i] = float32(rng.NormFloat64()) * cfg.InitStdDev
	}

	it, err := interp.New(m, n, o.params, o.grad)
	if err != nil {
		return nil, err
	}
	o.it = it

	cfg.Logger.Debug("optimizer created",
		"params", m.NumParams(),
		"rows", ds.Rows(),
		"cols", ds.Cols(),
		"batch", n,
		"sampling", cfg.Sampling.String())
	return o, nil
}

// Step runs one batch and updates the parameters. It returns the mean loss
// over the batch, as computed before the update.
func (o *Optimizer) Step(loss interface{ Index() int }) float32 {
	o.ZeroGrad()
	o.loadBatch()
	o.it.Exec(o.input)
	if o.it.Execs() != 1 {
		panic("optim: gradient accumulated over more than one execution")
	}

	sgdMomentum(o.params, o.momentum, o.grad, o.cfg.LR, o.cfg.Momentum)
	o.steps++

	return mean(o.it.Value(loss))
}

// RunEpoch runs Rows/BatchSize steps and returns the mean step loss.
func (o *Optimizer) RunEpoch(loss interface{ Index() int }) float32 {
	numSteps := len(o.indices) / o.cfg.BatchSize
	var sum float32
	for i := 0; i < numSteps; i++ {
		sum += o.Step(loss)
	}
	avg := sum / float32(numSteps)
	o.cfg.Logger.Debug("epoch finished", "steps", numSteps, "loss", avg)
	return avg
}

// ZeroGrad clears the gradient and the interpreter's execution counter.
func (o *Optimizer) ZeroGrad() {
	clear(o.grad)
	o.it.ResetExecs()
}

// loadBatch copies the next BatchSize rows into o.input, column by column:
// input[col*N+lane] = row(lane)[col].
func (o *Optimizer) loadBatch() {
	n := o.cfg.BatchSize
	for lane := 0; lane < n; lane++ {
		r := o.indices[o.offset+lane]
		row := o.data[r*o.cols : (r+1)*o.cols]
		for col, v := range row {
			o.input[col*n+lane] = v
		}
	}
	o.offset = (o.offset + n) % len(o.indices)
}

// Parameters returns a copy of the current parameters.
func (o *Optimizer) Parameters() []float32 { return slices.Clone(o.params) }

// SetParameters replaces the parameters, e.g. with a saved checkpoint.
func (o *Optimizer) SetParameters(p []float32) error {
	if len(p) != len(o.params) {
		return ir.Errorf("got %d parameters, module has %d", len(p), len(o.params))
	}
	copy(o.params, p)
	return nil
}

// Gradient returns a copy of the gradient computed by the last Step.
func (o *Optimizer) Gradient() []float32 { return slices.Clone(o.grad) }

// Steps returns the number of steps taken.
func (o *Optimizer) Steps() int { return o.steps }

// GetLR returns the current learning rate.
func (o *Optimizer) GetLR() float32 { return o.cfg.LR }

// SetLR sets the learning rate for subsequent steps.
func (o *Optimizer) SetLR(lr float32) { o.cfg.LR = lr }

// Module returns the module being trained.
func (o *Optimizer) Module() *ir.Module { return o.module }

func mean(v []float32) float32 {
	var sum float32
	for _, x := range v {
		sum += x
	}
	return sum / float32(len(v))
}
