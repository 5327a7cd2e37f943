// Package dataset provides the training data collaborator: a dense
// rows x cols table of float32 values, stored row-major.
//
// Each row is one sample. By convention the model's input slots come first
// in a row, in slot order, and the loss targets (also input slots) follow.
package dataset

import (
	"github.com/born-ml/axon/internal/ir"
)

// Dataset is a read-only row-major table of samples.
type Dataset interface {
	Rows() int
	Cols() int
	// Data returns the rows*cols values. Callers must not modify it.
	Data() []float32
}

// Memory is an in-memory Dataset.
type Memory struct {
	rows, cols int
	data       []float32
}

// New wraps data as a rows x cols dataset. data is used without copying.
func New(rows, cols int, data []float32) (*Memory, error) {
	if rows < 0 || cols < 0 {
		return nil, ir.Errorf("invalid dataset shape %dx%d", rows, cols)
	}
	if len(data) != rows*cols {
		return nil, ir.Errorf("dataset %dx%d needs %d values, got %d", rows, cols, rows*cols, len(data))
	}
	return &Memory{rows: rows, cols: cols, data: data}, nil
}

// Rows returns the number of samples.
func (m *Memory) Rows() int { return m.rows }

// Cols returns the number of values per sample.
func (m *Memory) Cols() int { return m.cols }

// Data returns the backing slice.
func (m *Memory) Data() []float32 { return m.data }

// Row returns sample i.
func (m *Memory) Row(i int) []float32 {
	return m.data[i*m.cols : (i+1)*m.cols]
}

// Generator produces procedural samples.
type Generator interface {
	// Generate fills row with one sample.
	Generate(row []float32)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(row []float32)

// Generate calls f(row).
func (f GeneratorFunc) Generate(row []float32) { f(row) }

// Generate builds a rows x cols dataset by calling g once per row, in order.
func Generate(rows, cols int, g Generator) (*Memory, error) {
	m, err := New(rows, cols, make([]float32, rows*cols))
	if err != nil {
		return nil, err
	}
	for i := 0; i < rows; i++ {
		g.Generate(m.Row(i))
	}
	return m, nil
}
