// Package nn provides composite model recipes built from builder primitives.
//
// Everything here expands into plain scalar nodes on the active builder:
// a Matrix is a row-major grid of builder.Values, and layers are loops over
// Mul and Add. Shapes are fixed when the model is described, so a shape
// mismatch is a bug in the recipe and panics.
//
// Example:
//
//	b, done := builder.New()
//	defer done()
//
//	x := nn.Inputs(4, 1)
//	h := nn.ReLU(nn.Linear("hidden", x, 8, true))
//	y := nn.Linear("out", h, 1, true)
//	target := nn.Inputs(1, 1)
//	loss := nn.MSE(target, y)
package nn

import (
	"fmt"

	"github.com/born-ml/axon/internal/builder"
)

// Matrix is a fixed-shape, row-major grid of symbolic values.
type Matrix struct {
	rows, cols int
	data       []builder.Value
}

// NewMatrix returns a rows x cols matrix of invalid values, to be filled
// with Set.
func NewMatrix(rows, cols int) Matrix {
	if rows <= 0 || cols <= 0 {
		panic(fmt.Sprintf("nn: invalid matrix shape %dx%d", rows, cols))
	}
	return Matrix{rows: rows, cols: cols, data: make([]builder.Value, rows*cols)}
}

// Column returns a column vector holding vs.
func Column(vs ...builder.Value) Matrix {
	m := NewMatrix(len(vs), 1)
	copy(m.data, vs)
	return m
}

// Inputs allocates rows*cols consecutive input slots in row-major order.
func Inputs(rows, cols int) Matrix {
	m := NewMatrix(rows, cols)
	for i := range m.data {
		m.data[i] = builder.Input()
	}
	return m
}

// Params allocates rows*cols consecutive parameters in row-major order.
// Only the first parameter carries name.
func Params(name string, rows, cols int) Matrix {
	m := NewMatrix(rows, cols)
	copy(m.data, builder.ParamGroup(name, rows*cols))
	return m
}

// Rows returns the number of rows.
func (m Matrix) Rows() int { return m.rows }

// Cols returns the number of columns.
func (m Matrix) Cols() int { return m.cols }

// Len returns rows*cols.
func (m Matrix) Len() int { return len(m.data) }

// At returns the element at (row, col).
func (m Matrix) At(row, col int) builder.Value {
	return m.data[m.offset(row, col)]
}

// Set replaces the element at (row, col).
func (m Matrix) Set(row, col int, v builder.Value) {
	m.data[m.offset(row, col)] = v
}

// Index returns the i-th element in row-major order.
func (m Matrix) Index(i int) builder.Value { return m.data[i] }

// Values returns a copy of the elements in row-major order.
func (m Matrix) Values() []builder.Value {
	out := make([]builder.Value, len(m.data))
	copy(out, m.data)
	return out
}

func (m Matrix) offset(row, col int) int {
	if row < 0 || row >= m.rows || col < 0 || col >= m.cols {
		panic(fmt.Sprintf("nn: index (%d,%d) out of range for %dx%d matrix", row, col, m.rows, m.cols))
	}
	return row*m.cols + col
}

func (m Matrix) sameShape(o Matrix, op string) {
	if m.rows != o.rows || m.cols != o.cols {
		panic(fmt.Sprintf("nn: %s: shape mismatch %dx%d vs %dx%d", op, m.rows, m.cols, o.rows, o.cols))
	}
}

// Map applies f to every element.
func Map(m Matrix, f func(builder.Value) builder.Value) Matrix {
	out := NewMatrix(m.rows, m.cols)
	for i, v := range m.data {
		out.data[i] = f(v)
	}
	return out
}

func zip(a, b Matrix, op string, f func(x, y builder.Value) builder.Value) Matrix {
	a.sameShape(b, op)
	out := NewMatrix(a.rows, a.cols)
	for i := range a.data {
		out.data[i] = f(a.data[i], b.data[i])
	}
	return out
}

// Add returns the elementwise sum a + b.
func Add(a, b Matrix) Matrix { return zip(a, b, "add", builder.Value.Add) }

// Sub returns the elementwise difference a - b.
func Sub(a, b Matrix) Matrix { return zip(a, b, "sub", builder.Value.Sub) }
