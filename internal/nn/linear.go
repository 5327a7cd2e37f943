package nn

import (
	"fmt"

	"github.com/born-ml/axon/internal/builder"
)

// Dot returns the inner product of two column vectors of equal length.
//
// The sum starts from Const(0) and folds products in index order, so the
// node layout is stable for a given length.
func Dot(a, b Matrix) builder.Value {
	if a.cols != 1 || b.cols != 1 {
		panic(fmt.Sprintf("nn: dot: want column vectors, got %dx%d and %dx%d", a.rows, a.cols, b.rows, b.cols))
	}
	a.sameShape(b, "dot")
	sum := builder.Const(0)
	for i := range a.data {
		sum = a.data[i].Mul(b.data[i]).Add(sum)
	}
	return sum
}

// MatMul returns the product of an RxM and an MxC matrix.
func MatMul(a, b Matrix) Matrix {
	if a.cols != b.rows {
		panic(fmt.Sprintf("nn: matmul: inner dimensions differ, %dx%d * %dx%d", a.rows, a.cols, b.rows, b.cols))
	}
	out := NewMatrix(a.rows, b.cols)
	for i := 0; i < a.rows; i++ {
		for j := 0; j < b.cols; j++ {
			sum := builder.Const(0)
			for k := 0; k < a.cols; k++ {
				sum = sum.Add(a.At(i, k).Mul(b.At(k, j)))
			}
			out.Set(i, j, sum)
		}
	}
	return out
}

// Linear applies a fully connected layer to the column vector x:
//
//	y = W x + b
//
// W is a fresh out x in parameter block and b a fresh out x 1 block (only
// when bias is set). When name is non-empty the blocks are named
// name+"_weight" and name+"_bias" in generated artifacts.
//
// Example:
//
//	x := nn.Inputs(2, 1)
//	y := nn.Linear("proj", x, 16, true) // 16x1
func Linear(name string, x Matrix, out int, bias bool) Matrix {
	if x.cols != 1 {
		panic(fmt.Sprintf("nn: linear: want a column vector, got %dx%d", x.rows, x.cols))
	}
	y := MatMul(Params(suffix(name, "weight"), out, x.rows), x)
	if !bias {
		return y
	}
	return Add(y, Params(suffix(name, "bias"), out, 1))
}

// Residual returns relu(x) + (W x + b) with a square W, so the output has
// the shape of x.
func Residual(name string, x Matrix) Matrix {
	y := Linear(name, x, x.rows, true)
	return Add(ReLU(x), y)
}

func suffix(name, part string) string {
	if name == "" {
		return ""
	}
	return name + "_" + part
}
