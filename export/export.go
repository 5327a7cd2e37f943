// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package export turns modules into standalone source code and files.
//
// The code generators emit one statement per node, in order, so generated
// code lines up with a graph.Fprint listing. The built-in exporters are
// "c" (a single C99 header) and "go" (a single Go file).
//
// Example:
//
//	c, err := export.Compile(export.Options{Name: "net", Output: "net.h"}, func(c *export.Compiler) error {
//	    x := graph.Input()
//	    w := graph.Param("w")
//	    y := w.Mul(x)
//	    if err := c.BuildEval(y); err != nil {
//	        return err
//	    }
//	    return c.BuildGrad(nn.SquaredError(y, graph.Input()))
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := c.WriteArtifact(); err != nil {
//	    log.Fatal(err)
//	}
package export

import (
	"github.com/born-ml/axon/internal/codegen"
	"github.com/born-ml/axon/internal/compiler"
	"github.com/born-ml/axon/internal/ir"
	"github.com/born-ml/axon/internal/serialization"
)

// Code generation

// Exporter writes generated source for a pair of modules.
type Exporter = codegen.Exporter

// ExporterOptions configures an exporter.
type ExporterOptions = codegen.Options

// Factory creates an exporter configured with opts.
type Factory = codegen.Factory

// Register makes an exporter available under name.
func Register(name string, f Factory) { codegen.Register(name, f) }

// Lookup returns the exporter registered under name.
func Lookup(name string, opts ExporterOptions) (Exporter, error) {
	return codegen.Lookup(name, opts)
}

// Exporters returns the registered exporter names, sorted.
func Exporters() []string { return codegen.Names() }

// Compiler sessions

// Compiler is a single model description session.
type Compiler = compiler.Compiler

// Options configures a compiler session.
type Options = compiler.Options

// Recipe describes a model and records its modules through a Compiler.
type Recipe = compiler.Recipe

// DefaultOptions returns the default session options.
func DefaultOptions() Options { return compiler.DefaultOptions() }

// NewCompiler returns a session with a fresh builder.
func NewCompiler(opts Options) (*Compiler, error) { return compiler.New(opts) }

// Compile runs recipe in a new session and checks that it built both
// modules.
func Compile(opts Options, recipe Recipe) (*Compiler, error) {
	return compiler.Compile(opts, recipe)
}

// Files

// Params is a trained parameter buffer with its parameter names.
type Params = serialization.Params

// Serialization errors.
var (
	ErrInvalidMagic     = serialization.ErrInvalidMagic
	ErrChecksumMismatch = serialization.ErrChecksumMismatch
)

// SaveModule writes m to a module file.
func SaveModule(path string, m *ir.Module) error { return serialization.SaveModule(path, m) }

// LoadModule reads a module file.
func LoadModule(path string) (*ir.Module, error) { return serialization.LoadModule(path) }

// SaveParams writes p to a parameter file.
func SaveParams(path string, p Params) error { return serialization.SaveParams(path, p) }

// LoadParams reads a parameter file.
func LoadParams(path string) (*Params, error) { return serialization.LoadParams(path) }
