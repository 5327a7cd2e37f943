package nn

import "github.com/born-ml/axon/internal/builder"

// MSE returns the mean squared error between two matrices of equal shape:
//
//	Loss = sum((a - b)²) / len(a)
func MSE(a, b Matrix) builder.Value {
	delta := Sub(a, b)
	sum := builder.Const(0)
	for _, d := range delta.data {
		sum = sum.Add(d.Mul(d))
	}
	return sum.Mul(builder.Const(1 / float32(delta.Len())))
}

// SquaredError returns (a - b)² for two scalars.
func SquaredError(a, b builder.Value) builder.Value {
	d := a.Sub(b)
	return d.Mul(d)
}
