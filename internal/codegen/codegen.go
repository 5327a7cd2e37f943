// Package codegen turns frozen modules into standalone source code.
//
// Every node becomes one local assignment named after its index
// (`v<index>`), emitted in node order with no simplification, so generated
// code can be lined up with an ir.Fprint dump line by line.
//
// Exporters are looked up by name. The built-in ones are "c", a single C
// header, and "go", a single Go source file. Both support two variants:
//
//   - Full: eval and grad functions, the parameter RNG, and the momentum
//     optimizer step. Parameters live in a caller-owned buffer.
//   - Lean: eval only, with the trained parameters baked in as literals.
package codegen

import (
	"fmt"
	"io"
	"math"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/born-ml/axon/internal/ir"
)

// DefaultPrefix is the symbol prefix used when Options.Prefix is empty.
const DefaultPrefix = "axon"

// Exporter writes generated source for a pair of modules.
type Exporter interface {
	// ExportFull writes eval, grad and the optimizer support code.
	ExportFull(w io.Writer, eval, grad *ir.Module) error

	// ExportLean writes eval only, reading parameters from params.
	ExportLean(w io.Writer, eval *ir.Module, params []float32) error
}

// Options configures an exporter.
type Options struct {
	// Prefix namespaces every generated symbol (default: "axon").
	Prefix string

	// Package is the package clause of generated Go code (default: Prefix).
	Package string
}

func (o Options) withDefaults() Options {
	if o.Prefix == "" {
		o.Prefix = DefaultPrefix
	}
	if o.Package == "" {
		o.Package = o.Prefix
	}
	return o
}

// Factory creates an exporter configured with opts.
type Factory func(opts Options) Exporter

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{}
)

func init() {
	Register("c", func(opts Options) Exporter { return NewC(opts) })
	Register("go", func(opts Options) Exporter { return NewGo(opts) })
}

// Register makes an exporter available under name. Registering the same
// name twice panics.
func Register(name string, f Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, dup := registry[name]; dup {
		panic(fmt.Sprintf("codegen: exporter %q registered twice", name))
	}
	registry[name] = f
}

// Lookup returns the exporter registered under name, configured with opts.
func Lookup(name string, opts Options) (Exporter, error) {
	registryMu.RLock()
	f, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return nil, ir.Errorf("unknown exporter %q (available: %s)", name, strings.Join(Names(), ", "))
	}
	return f(opts), nil
}

// Names returns the registered exporter names, sorted.
func Names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// formatFloat returns the shortest decimal that round-trips v as float32.
// ok is false for NaN and infinities, which need a language-specific form.
func formatFloat(v float32) (s string, ok bool) {
	f := float64(v)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "", false
	}
	s = strconv.FormatFloat(f, 'g', -1, 32)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s, true
}

// checkParams validates a lean parameter buffer against eval.
func checkParams(eval *ir.Module, params []float32) error {
	if len(params) != eval.NumParams() {
		return ir.Errorf("got %d parameters, module has %d", len(params), eval.NumParams())
	}
	return nil
}

// readers counts, for every node, how many later nodes read it.
func readers(m *ir.Module) []int {
	n := make([]int, m.Len())
	for i := 0; i < m.Len(); i++ {
		for _, op := range m.Node(i).Operands() {
			n[op]++
		}
	}
	return n
}

// paramConstant names a parameter slot in generated code.
type paramConstant struct {
	Name string
	Slot int
}

// paramConstants returns the named parameters of m with their names made
// into identifiers. A name seen before gets the slot appended.
func paramConstants(m *ir.Module) []paramConstant {
	var out []paramConstant
	seen := map[string]bool{}
	for _, ns := range m.ParamNames() {
		name := identifier(ns.Name)
		if seen[name] {
			name = fmt.Sprintf("%s_%d", name, ns.Slot)
		}
		seen[name] = true
		out = append(out, paramConstant{Name: name, Slot: ns.Slot})
	}
	return out
}

// identifier maps name onto [A-Za-z0-9_], prefixing an underscore when it
// would start with a digit.
func identifier(name string) string {
	var b strings.Builder
	for i, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_':
			b.WriteRune(r)
		case r >= '0' && r <= '9':
			if i == 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
