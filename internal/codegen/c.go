package codegen

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/born-ml/axon/internal/ir"
)

// C emits a self-contained C99 header.
//
// Full artifact order: feature macros, RNG, size constants, named parameter
// constants, eval, grad, optimizer. The grad function expects the gradient
// buffer to be cleared by the caller and adds one sample's gradient to it.
type C struct {
	opts   Options
	rename *strings.Replacer
	upper  string
}

// NewC returns a C exporter.
func NewC(opts Options) *C {
	opts = opts.withDefaults()
	upper := strings.ToUpper(opts.Prefix)
	return &C{
		opts:   opts,
		rename: strings.NewReplacer("AXON", upper, "axon", opts.Prefix),
		upper:  upper,
	}
}

// ExportFull implements Exporter.
func (c *C) ExportFull(w io.Writer, eval, grad *ir.Module) error {
	if eval.NumParams() != grad.NumParams() {
		return ir.Errorf("eval and grad modules disagree on parameter count (%d vs %d)", eval.NumParams(), grad.NumParams())
	}

	var s source
	s.raw(cHeader)
	s.blank()
	s.raw(c.rename.Replace(cMacros))
	s.blank()
	s.raw(c.rename.Replace(cRNG))
	s.blank()
	s.line("#define %s_PARAMETERS %d", c.upper, eval.NumParams())
	s.blank()
	s.line("#define %s_EVAL_INPUTS %d", c.upper, eval.NumInputs())
	s.line("#define %s_EVAL_OUTPUTS %d", c.upper, eval.NumOutputs())
	s.blank()
	s.line("#define %s_GRAD_INPUTS %d", c.upper, grad.NumInputs())
	s.line("#define %s_GRAD_OUTPUTS %d", c.upper, grad.NumOutputs())
	s.blank()
	if names := paramConstants(eval); len(names) > 0 {
		for _, n := range names {
			s.line("#define %s_PARAMETER_%s %d", c.upper, n.Name, n.Slot)
		}
		s.blank()
	}

	s.line("static inline void")
	s.line("%s_eval(const float* %s_RESTRICT parameters, const float* %s_RESTRICT input, float* %s_RESTRICT output)",
		c.opts.Prefix, c.upper, c.upper, c.upper)
	s.line("{")
	c.body(&s, eval, nil)
	s.line("}")
	s.blank()

	s.line("static inline void")
	s.line("%s_grad(const float* %s_RESTRICT parameters, const float* %s_RESTRICT input, float* %s_RESTRICT output, float* %s_RESTRICT gradient)",
		c.opts.Prefix, c.upper, c.upper, c.upper, c.upper)
	s.line("{")
	c.body(&s, grad, nil)
	s.line("}")
	s.blank()

	s.raw(c.rename.Replace(cOptimizer))
	return s.flush(w)
}

// ExportLean implements Exporter.
func (c *C) ExportLean(w io.Writer, eval *ir.Module, params []float32) error {
	if err := checkParams(eval, params); err != nil {
		return err
	}

	var s source
	s.line("#pragma once")
	s.blank()
	s.line("/* Note: This file is automatically generated. Edits may be lost. */")
	s.blank()
	s.line("#include <math.h>")
	s.blank()
	s.raw(c.rename.Replace(cMacros))
	s.blank()
	s.line("#define %s_EVAL_INPUTS %d", c.upper, eval.NumInputs())
	s.line("#define %s_EVAL_OUTPUTS %d", c.upper, eval.NumOutputs())
	s.blank()
	s.line("static inline void")
	s.line("%s_eval(const float* %s_RESTRICT input, float* %s_RESTRICT output)", c.opts.Prefix, c.upper, c.upper)
	s.line("{")
	if params == nil {
		params = []float32{}
	}
	c.body(&s, eval, params)
	s.line("}")
	return s.flush(w)
}

// body emits one statement per node. When baked is non-nil, parameters are
// replaced by their values.
func (c *C) body(s *source, m *ir.Module, baked []float32) {
	s.indent++
	defer func() { s.indent-- }()

	s.line("(void)input;")
	s.line("(void)output;")
	if baked == nil {
		s.line("(void)parameters;")
	}
	for i := 0; i < m.Len(); i++ {
		n := m.Node(i)
		switch n.Kind {
		case ir.Output:
			s.line("output[%d] = v%d;", n.Slot, n.A)
		case ir.GradAccumulate:
			s.line("gradient[%d] += v%d;", n.Slot, n.A)
		case ir.Param:
			if baked != nil {
				s.line("const float v%d = %s;", i, cFloat(baked[n.Slot]))
			} else {
				s.line("const float v%d = parameters[%d];", i, n.Slot)
			}
		default:
			s.line("const float v%d = %s;", i, cExpr(n))
		}
	}
}

// cExpr returns the C expression computing a value node.
func cExpr(n ir.Node) string {
	a, b := fmt.Sprintf("v%d", n.A), fmt.Sprintf("v%d", n.B)
	switch n.Kind {
	case ir.Input:
		return fmt.Sprintf("input[%d]", n.Slot)
	case ir.Const:
		return cFloat(n.Value)
	case ir.Negate:
		return "-" + a
	case ir.Reciprocal:
		return "1.0F / " + a
	case ir.Sqrt:
		return "sqrtf(" + a + ")"
	case ir.Exp:
		return "expf(" + a + ")"
	case ir.ReLU:
		return "fmaxf(" + a + ", 0.0F)"
	case ir.Sigmoid:
		return "1.0F / (1.0F + expf(-" + a + "))"
	case ir.Heaviside:
		return a + " > 0.0F ? 1.0F : 0.0F"
	case ir.Sin:
		return "sinf(" + a + ")"
	case ir.Cos:
		return "cosf(" + a + ")"
	case ir.Add:
		return a + " + " + b
	case ir.Sub:
		return a + " - " + b
	case ir.Mul:
		return a + " * " + b
	default:
		panic(fmt.Sprintf("codegen: %s has no C expression", n.Kind))
	}
}

// cFloat formats v as a C float literal.
func cFloat(v float32) string {
	if s, ok := formatFloat(v); ok {
		return s + "F"
	}
	switch {
	case math.IsNaN(float64(v)):
		return "NAN"
	case v > 0:
		return "INFINITY"
	default:
		return "-INFINITY"
	}
}
