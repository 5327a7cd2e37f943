// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides composite model recipes: matrices of symbolic values,
// fully connected layers, embeddings, activations and losses.
//
// Every recipe expands into scalar nodes on the active graph builder.
//
// Example:
//
//	b, done := graph.New()
//	defer done()
//
//	x := nn.Inputs(2, 1)
//	h := nn.ReLU(nn.Linear("hidden", x, 16, true))
//	y := nn.Linear("out", h, 1, true)
//	target := graph.Input()
//	loss := nn.SquaredError(y.Index(0), target)
package nn

import (
	"github.com/born-ml/axon/internal/builder"
	"github.com/born-ml/axon/internal/nn"
)

// Matrix is a fixed-shape, row-major grid of symbolic values.
type Matrix = nn.Matrix

// NewMatrix returns a rows x cols matrix to be filled with Set.
func NewMatrix(rows, cols int) Matrix { return nn.NewMatrix(rows, cols) }

// Column returns a column vector holding vs.
func Column(vs ...builder.Value) Matrix { return nn.Column(vs...) }

// Inputs allocates rows*cols consecutive input slots.
func Inputs(rows, cols int) Matrix { return nn.Inputs(rows, cols) }

// Params allocates rows*cols consecutive parameters named name.
func Params(name string, rows, cols int) Matrix { return nn.Params(name, rows, cols) }

// Layers

// Dot returns the inner product of two column vectors.
func Dot(a, b Matrix) builder.Value { return nn.Dot(a, b) }

// MatMul returns the matrix product a b.
func MatMul(a, b Matrix) Matrix { return nn.MatMul(a, b) }

// Linear applies a fully connected layer y = W x + b.
func Linear(name string, x Matrix, out int, bias bool) Matrix {
	return nn.Linear(name, x, out, bias)
}

// Residual returns relu(x) + (W x + b).
func Residual(name string, x Matrix) Matrix { return nn.Residual(name, x) }

// FourierEmbed expands a scalar into 2*bands sin/cos features.
func FourierEmbed(v builder.Value, bands int) Matrix { return nn.FourierEmbed(v, bands) }

// Concat stacks column vectors vertically.
func Concat(ms ...Matrix) Matrix { return nn.Concat(ms...) }

// Elementwise

// Map applies f to every element.
func Map(m Matrix, f func(builder.Value) builder.Value) Matrix { return nn.Map(m, f) }

// Add returns a + b.
func Add(a, b Matrix) Matrix { return nn.Add(a, b) }

// Sub returns a - b.
func Sub(a, b Matrix) Matrix { return nn.Sub(a, b) }

// ReLU applies max(x, 0).
func ReLU(m Matrix) Matrix { return nn.ReLU(m) }

// Sigmoid applies 1/(1+exp(-x)).
func Sigmoid(m Matrix) Matrix { return nn.Sigmoid(m) }

// Heaviside applies the unit step.
func Heaviside(m Matrix) Matrix { return nn.Heaviside(m) }

// Exp applies e**x.
func Exp(m Matrix) Matrix { return nn.Exp(m) }

// Sin applies sin(x).
func Sin(m Matrix) Matrix { return nn.Sin(m) }

// Cos applies cos(x).
func Cos(m Matrix) Matrix { return nn.Cos(m) }

// Losses

// MSE returns the mean squared error between two matrices.
func MSE(a, b Matrix) builder.Value { return nn.MSE(a, b) }

// SquaredError returns (a - b)².
func SquaredError(a, b builder.Value) builder.Value { return nn.SquaredError(a, b) }
