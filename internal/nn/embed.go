package nn

import (
	"fmt"
	"math"

	"github.com/born-ml/axon/internal/builder"
)

// FourierEmbed expands a scalar into 2*bands features
//
//	[sin(2πx), cos(2πx), sin(4πx), cos(4πx), ...]
//
// doubling the frequency for every band. Coordinate-based networks use it
// to represent high-frequency detail.
func FourierEmbed(v builder.Value, bands int) Matrix {
	if bands <= 0 {
		panic(fmt.Sprintf("nn: fourier embed: invalid band count %d", bands))
	}
	out := NewMatrix(2*bands, 1)
	e := float32(1)
	for i := 0; i < bands; i++ {
		f := builder.Const(2 * math.Pi * e)
		x := f.Mul(v)
		out.data[2*i] = x.Sin()
		out.data[2*i+1] = x.Cos()
		e *= 2
	}
	return out
}

// Concat stacks column vectors vertically.
func Concat(ms ...Matrix) Matrix {
	rows := 0
	for _, m := range ms {
		if m.cols != 1 {
			panic(fmt.Sprintf("nn: concat: want column vectors, got %dx%d", m.rows, m.cols))
		}
		rows += m.rows
	}
	out := NewMatrix(rows, 1)
	at := 0
	for _, m := range ms {
		at += copy(out.data[at:], m.data)
	}
	return out
}
