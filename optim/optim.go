// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package optim trains a grad module with mini-batch SGD and momentum.
//
// Example:
//
//	opt, err := optim.New(grad, ds, optim.Config{
//	    BatchSize: 16,
//	    LR:        0.01,
//	    Momentum:  0.9,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for epoch := range 100 {
//	    loss := opt.RunEpoch(lossNode)
//	    fmt.Println(epoch, loss)
//	}
package optim

import (
	"github.com/born-ml/axon/internal/dataset"
	"github.com/born-ml/axon/internal/ir"
	"github.com/born-ml/axon/internal/optim"
	"github.com/born-ml/axon/internal/parallel"
)

// Optimizer owns the parameters, gradient and momentum of one training run.
type Optimizer = optim.Optimizer

// Config contains configuration for the optimizer.
type Config = optim.Config

// Sampling selects the order rows are visited in.
type Sampling = optim.Sampling

// Row orders.
const (
	Shuffled   = optim.Shuffled
	Sequential = optim.Sequential
)

// Dataset is a read-only row-major table of samples.
type Dataset = dataset.Dataset

// New creates an optimizer for the grad module m over ds.
//
// The dataset must have one column per input slot of m, and its row count
// must be a multiple of the batch size.
func New(m *ir.Module, ds Dataset, config Config) (*Optimizer, error) {
	return optim.New(m, ds, config)
}

// Evaluate returns the mean loss of m over every row of ds at params. Rows
// are evaluated concurrently, one interpreter per worker.
func Evaluate(m *ir.Module, params []float32, ds Dataset, loss interface{ Index() int }) (float32, error) {
	return optim.Evaluate(m, params, ds, loss, parallel.DefaultConfig())
}

// NewDataset wraps data as a rows x cols dataset.
func NewDataset(rows, cols int, data []float32) (Dataset, error) {
	return dataset.New(rows, cols, data)
}

// LoadDataset reads an AXD dataset file.
func LoadDataset(path string) (Dataset, error) {
	return dataset.Load(path)
}

// SaveDataset writes ds as an AXD dataset file.
func SaveDataset(path string, ds Dataset) error {
	return dataset.Save(path, ds)
}
