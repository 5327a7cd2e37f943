// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package autodiff provides reverse-mode automatic differentiation of
// modules.
//
// The gradient of a scalar loss node is appended to a copy of the forward
// module: the first Len() nodes of the result are the forward nodes,
// unchanged, followed by the backward pass and one GradAccumulate node per
// parameter that influences the loss.
//
// Example:
//
//	grad, err := autodiff.Differentiate(forward, loss.Index())
package autodiff

import (
	"github.com/born-ml/axon/internal/autodiff"
	"github.com/born-ml/axon/internal/ir"
)

// Differentiate returns forward extended with the gradient of the node at
// index loss with respect to every parameter.
func Differentiate(forward *ir.Module, loss int) (*ir.Module, error) {
	return autodiff.Differentiate(forward, loss)
}
