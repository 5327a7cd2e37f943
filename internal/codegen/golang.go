package codegen

import (
	"fmt"
	"go/format"
	"io"
	"math"
	"strings"

	"github.com/born-ml/axon/internal/ir"
)

// Go emits a single gofmt-formatted Go source file.
//
// Symbols are not prefixed; the package clause (Options.Package) namespaces
// them instead. Grad adds one sample's gradient into its gradient argument.
type Go struct {
	opts Options
}

// NewGo returns a Go exporter.
func NewGo(opts Options) *Go {
	return &Go{opts: opts.withDefaults()}
}

// ExportFull implements Exporter.
func (g *Go) ExportFull(w io.Writer, eval, grad *ir.Module) error {
	if eval.NumParams() != grad.NumParams() {
		return ir.Errorf("eval and grad modules disagree on parameter count (%d vs %d)", eval.NumParams(), grad.NumParams())
	}

	var s source
	g.preamble(&s)
	s.line("const (")
	s.line("\tParameters = %d", eval.NumParams())
	s.blank()
	s.line("\tEvalInputs = %d", eval.NumInputs())
	s.line("\tEvalOutputs = %d", eval.NumOutputs())
	s.blank()
	s.line("\tGradInputs = %d", grad.NumInputs())
	s.line("\tGradOutputs = %d", grad.NumOutputs())
	s.line(")")
	s.blank()
	if names := paramConstants(eval); len(names) > 0 {
		s.line("// Parameter slots by name.")
		s.line("const (")
		for _, n := range names {
			s.line("\tParameter%s = %d", exportedName(n.Name), n.Slot)
		}
		s.line(")")
		s.blank()
	}

	s.line("// Eval runs the model on one sample.")
	s.line("func Eval(parameters, input, output []float32) {")
	g.body(&s, eval, nil)
	s.line("}")
	s.blank()
	s.line("// Grad adds the loss gradient of one sample to gradient.")
	s.line("func Grad(parameters, input, output, gradient []float32) {")
	g.body(&s, grad, nil)
	s.line("}")
	s.blank()
	s.raw(goRuntime)
	s.raw(goOptimizer)
	return g.flush(&s, w)
}

// ExportLean implements Exporter.
func (g *Go) ExportLean(w io.Writer, eval *ir.Module, params []float32) error {
	if err := checkParams(eval, params); err != nil {
		return err
	}
	if params == nil {
		params = []float32{}
	}

	var s source
	g.preamble(&s)
	s.line("const (")
	s.line("\tEvalInputs = %d", eval.NumInputs())
	s.line("\tEvalOutputs = %d", eval.NumOutputs())
	s.line(")")
	s.blank()
	s.line("// Eval runs the model on one sample.")
	s.line("func Eval(input, output []float32) {")
	g.body(&s, eval, params)
	s.line("}")
	s.blank()
	s.raw(goRuntime)
	return g.flush(&s, w)
}

func (g *Go) preamble(s *source) {
	s.line("// Code generated by axon; DO NOT EDIT.")
	s.blank()
	s.line("package %s", g.opts.Package)
	s.blank()
	s.line(`import "math"`)
	s.blank()
}

func (g *Go) flush(s *source, w io.Writer) error {
	out, err := format.Source(s.buf.Bytes())
	if err != nil {
		return fmt.Errorf("codegen: format generated Go: %w", err)
	}
	if _, err := w.Write(out); err != nil {
		return fmt.Errorf("codegen: write: %w", err)
	}
	return nil
}

// body emits one statement per node. Values nobody reads are assigned to
// the blank identifier so the file compiles.
func (g *Go) body(s *source, m *ir.Module, baked []float32) {
	uses := readers(m)
	for i := 0; i < m.Len(); i++ {
		n := m.Node(i)
		switch n.Kind {
		case ir.Output:
			s.line("\toutput[%d] = v%d", n.Slot, n.A)
			continue
		case ir.GradAccumulate:
			s.line("\tgradient[%d] += v%d", n.Slot, n.A)
			continue
		case ir.Param:
			if baked != nil {
				s.line("\tv%d := %s", i, goFloat(baked[n.Slot]))
			} else {
				s.line("\tv%d := parameters[%d]", i, n.Slot)
			}
		default:
			s.line("\tv%d := %s", i, goExpr(n))
		}
		if uses[i] == 0 {
			s.line("\t_ = v%d", i)
		}
	}
}

// goExpr returns the Go expression computing a value node.
func goExpr(n ir.Node) string {
	a, b := fmt.Sprintf("v%d", n.A), fmt.Sprintf("v%d", n.B)
	switch n.Kind {
	case ir.Input:
		return fmt.Sprintf("input[%d]", n.Slot)
	case ir.Const:
		return goFloat(n.Value)
	case ir.Negate:
		return "-" + a
	case ir.Reciprocal:
		return "1 / " + a
	case ir.Sqrt:
		return "float32(math.Sqrt(float64(" + a + ")))"
	case ir.Exp:
		return "float32(math.Exp(float64(" + a + ")))"
	case ir.ReLU:
		return "relu(" + a + ")"
	case ir.Sigmoid:
		return "sigmoid(" + a + ")"
	case ir.Heaviside:
		return "heaviside(" + a + ")"
	case ir.Sin:
		return "float32(math.Sin(float64(" + a + ")))"
	case ir.Cos:
		return "float32(math.Cos(float64(" + a + ")))"
	case ir.Add:
		return a + " + " + b
	case ir.Sub:
		return a + " - " + b
	case ir.Mul:
		return a + " * " + b
	default:
		panic(fmt.Sprintf("codegen: %s has no Go expression", n.Kind))
	}
}

// goFloat formats v as a float32 expression.
func goFloat(v float32) string {
	if s, ok := formatFloat(v); ok {
		return "float32(" + s + ")"
	}
	switch {
	case math.IsNaN(float64(v)):
		return "float32(math.NaN())"
	case v > 0:
		return "float32(math.Inf(1))"
	default:
		return "float32(math.Inf(-1))"
	}
}

// exportedName turns snake_case into an exported CamelCase identifier.
func exportedName(name string) string {
	var b strings.Builder
	for _, part := range strings.Split(name, "_") {
		if part == "" {
			continue
		}
		b.WriteString(strings.ToUpper(part[:1]))
		b.WriteString(part[1:])
	}
	if b.Len() == 0 {
		return "_"
	}
	return b.String()
}

const goRuntime = `func relu(x float32) float32 {
	if x > 0 {
		return x
	}
	return 0
}

func sigmoid(x float32) float32 {
	return 1 / (1 + float32(math.Exp(float64(-x))))
}

func heaviside(x float32) float32 {
	if x > 0 {
		return 1
	}
	return 0
}
`

const goOptimizer = `
// RNG is a linear congruential generator. It is a weak fallback for
// programs that have nothing better; prefer math/rand where available.
type RNG struct {
	state uint32
}

// NewRNG returns a generator seeded with seed.
func NewRNG(seed uint32) *RNG {
	if seed == 0 {
		seed = 1
	}
	return &RNG{state: seed}
}

// Next returns the next raw value.
func (r *RNG) Next() uint32 {
	r.state = 1664525*r.state + 1013904223
	return r.state
}

// Range returns a value in [a, b] without modulo bias.
func (r *RNG) Range(a, b uint32) uint32 {
	n := b - a + 1
	if n == 0 {
		return r.Next()
	}
	limit := math.MaxUint32 - (math.MaxUint32 % n)
	x := r.Next()
	for x >= limit {
		x = r.Next()
	}
	return a + x%n
}

// Float returns a value in [0, 1).
func (r *RNG) Float() float32 {
	return float32(r.Next()>>8) * (1.0 / 16777216.0)
}

// InitParameters fills parameters uniformly in [-0.1, 0.1).
func InitParameters(parameters []float32, seed uint32) {
	r := NewRNG(seed)
	for i := range parameters {
		parameters[i] = r.Float()*0.2 - 0.1
	}
}

// Optimizer holds the gradient and momentum buffers of SGD with momentum.
type Optimizer struct {
	Gradient [Parameters]float32
	momentum [2][Parameters]float32
	step     int
}

// ZeroGrad clears the gradient.
func (o *Optimizer) ZeroGrad() {
	o.Gradient = [Parameters]float32{}
}

// Step applies m = m*momentum + g*(1-momentum) and parameters -= m*lr.
func (o *Optimizer) Step(lr, momentum float32, parameters []float32) {
	m0 := &o.momentum[o.step&1]
	m1 := &o.momentum[(o.step+1)&1]
	for i := range o.Gradient {
		m := m0[i]*momentum + o.Gradient[i]*(1-momentum)
		m1[i] = m
		parameters[i] -= m * lr
	}
	o.step++
}
`
