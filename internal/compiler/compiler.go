// Package compiler drives one model description from recipe to artifact.
//
// A Compiler owns a builder for the lifetime of the session. The recipe
// runs with that builder active and records exactly one eval module and
// one grad module; Export then hands both to the selected exporter.
package compiler

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/born-ml/axon/internal/builder"
	"github.com/born-ml/axon/internal/codegen"
	"github.com/born-ml/axon/internal/interp"
	"github.com/born-ml/axon/internal/ir"
	"github.com/born-ml/axon/internal/serialization"
)

// Options configures a compiler session.
type Options struct {
	// Name is the network name. It prefixes every generated symbol and must
	// be a valid C identifier (default: "net").
	Name string

	// Output is the artifact path (default: "net.h").
	Output string

	// Release selects the lean artifact: eval only, parameters baked in.
	Release bool

	// ParamsPath is the trained parameter file read in release mode
	// (default: "params.bin").
	ParamsPath string

	// Exporter names a registered exporter (default: "c").
	Exporter string
}

// DefaultOptions returns the default session options.
func DefaultOptions() Options {
	return Options{
		Name:       "net",
		Output:     "net.h",
		ParamsPath: "params.bin",
		Exporter:   "c",
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Name == "" {
		o.Name = d.Name
	}
	if o.Output == "" {
		o.Output = d.Output
	}
	if o.ParamsPath == "" {
		o.ParamsPath = d.ParamsPath
	}
	if o.Exporter == "" {
		o.Exporter = d.Exporter
	}
	return o
}

// Validate reports an *ir.Error when Name cannot be used as a symbol prefix.
func (o Options) Validate() error {
	if o.Name == "" {
		return ir.Errorf("network name is empty")
	}
	for i, r := range o.Name {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return ir.Errorf("network name %q is not a valid identifier", o.Name)
		}
	}
	return nil
}

// Recipe describes a model on the active builder and records its modules
// through c.
type Recipe func(c *Compiler) error

// Compiler is a single model description session.
type Compiler struct {
	opts Options
	b    *builder.Builder
	eval *ir.Module
	grad *ir.Module
	loss interp.Node
}

// New returns a session with a fresh builder. The builder is not left active.
func New(opts Options) (*Compiler, error) {
	opts = opts.withDefaults()
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	b, done := builder.New()
	done()
	return &Compiler{opts: opts, b: b}, nil
}

// Compile runs recipe in a new session and checks that it built both
// modules.
func Compile(opts Options, recipe Recipe) (*Compiler, error) {
	c, err := New(opts)
	if err != nil {
		return nil, err
	}
	if err := c.Describe(recipe); err != nil {
		return nil, err
	}
	if c.eval == nil {
		return nil, ir.Errorf("no module was defined")
	}
	if c.grad == nil {
		return nil, ir.Errorf("no grad module was defined")
	}
	return c, nil
}

// Describe runs recipe with the session's builder active. The previously
// active builder is restored on return, including on panic.
func (c *Compiler) Describe(recipe Recipe) error {
	return builder.With(c.b, func() error { return recipe(c) })
}

// BuildEval freezes the eval module with outputs in slot order.
// A session builds at most one eval module.
func (c *Compiler) BuildEval(outputs ...builder.Value) error {
	if c.eval != nil {
		return ir.Errorf("eval module already created")
	}
	m, err := c.b.Build(outputs...)
	if err != nil {
		return err
	}
	c.eval = m
	return nil
}

// BuildGrad freezes the grad module of loss. A session builds at most one
// grad module.
func (c *Compiler) BuildGrad(loss builder.Value) error {
	if c.grad != nil {
		return ir.Errorf("grad module already created")
	}
	m, err := c.b.BuildWithGrad(loss)
	if err != nil {
		return err
	}
	c.grad = m
	c.loss = interp.Node(loss.Index())
	return nil
}

// Loss returns the loss node of the grad module, for use with the
// optimizer. It is only meaningful after BuildGrad.
func (c *Compiler) Loss() interp.Node { return c.loss }

// Options returns the session options with defaults filled in.
func (c *Compiler) Options() Options { return c.opts }

// EvalModule returns the eval module, or nil before BuildEval.
func (c *Compiler) EvalModule() *ir.Module { return c.eval }

// GradModule returns the grad module, or nil before BuildGrad.
func (c *Compiler) GradModule() *ir.Module { return c.grad }

// Export writes the artifact to w. In release mode params are baked into
// the lean artifact; otherwise params is ignored.
func (c *Compiler) Export(w io.Writer, params []float32) error {
	if c.eval == nil {
		return ir.Errorf("no module was defined")
	}
	if c.grad == nil {
		return ir.Errorf("no grad module was defined")
	}
	e, err := codegen.Lookup(c.opts.Exporter, codegen.Options{Prefix: c.opts.Name})
	if err != nil {
		return err
	}
	if c.opts.Release {
		return e.ExportLean(w, c.eval, params)
	}
	return e.ExportFull(w, c.eval, c.grad)
}

// WriteArtifact exports to Options.Output. In release mode the parameters
// are read from Options.ParamsPath. Nothing is written if export fails.
func (c *Compiler) WriteArtifact() error {
	var params []float32
	if c.opts.Release {
		p, err := serialization.LoadParams(c.opts.ParamsPath)
		if err != nil {
			return fmt.Errorf("failed to load parameters: %w", err)
		}
		params = p.Values
	}

	var buf bytes.Buffer
	if err := c.Export(&buf, params); err != nil {
		return err
	}
	//nolint:gosec // G306: generated sources are meant to be readable
	if err := os.WriteFile(c.opts.Output, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write artifact: %w", err)
	}
	return nil
}

// SaveModules writes the eval and grad modules to the given paths.
func (c *Compiler) SaveModules(evalPath, gradPath string) error {
	if c.eval == nil || c.grad == nil {
		return ir.Errorf("both modules must be built before saving")
	}
	if err := serialization.SaveModule(evalPath, c.eval); err != nil {
		return err
	}
	return serialization.SaveModule(gradPath, c.grad)
}
