package interp

import (
	"fmt"
	"math"

	"github.com/born-ml/axon/internal/ir"
)

func fill(dst []float32, v float32) {
	for i := range dst {
		dst[i] = v
	}
}

func mean(src []float32) float32 {
	var sum float32
	for _, v := range src {
		sum += v
	}
	return sum / float32(len(src))
}

// unary applies a lanewise unary kernel.
func unary(k ir.Kind, dst, x []float32) {
	switch k {
	case ir.Negate:
		for i, v := range x {
			dst[i] = -v
		}
	case ir.Reciprocal:
		for i, v := range x {
			dst[i] = 1 / v
		}
	case ir.Sqrt:
		for i, v := range x {
			dst[i] = float32(math.Sqrt(float64(v)))
		}
	case ir.Exp:
		for i, v := range x {
			dst[i] = float32(math.Exp(float64(v)))
		}
	case ir.ReLU:
		for i, v := range x {
			dst[i] = ReLU(v)
		}
	case ir.Sigmoid:
		for i, v := range x {
			dst[i] = Sigmoid(v)
		}
	case ir.Heaviside:
		for i, v := range x {
			if v > 0 {
				dst[i] = 1
			} else {
				dst[i] = 0
			}
		}
	case ir.Sin:
		for i, v := range x {
			dst[i] = float32(math.Sin(float64(v)))
		}
	case ir.Cos:
		for i, v := range x {
			dst[i] = float32(math.Cos(float64(v)))
		}
	default:
		panic(fmt.Sprintf("interp: %s is not unary", k))
	}
}

// binary applies a lanewise binary kernel.
func binary(k ir.Kind, dst, a, b []float32) {
	switch k {
	case ir.Add:
		for i := range dst {
			dst[i] = a[i] + b[i]
		}
	case ir.Sub:
		for i := range dst {
			dst[i] = a[i] - b[i]
		}
	case ir.Mul:
		for i := range dst {
			dst[i] = a[i] * b[i]
		}
	default:
		panic(fmt.Sprintf("interp: %s is not binary", k))
	}
}

// ReLU returns x when x > 0 and 0 otherwise, NaN included, matching C's
// fmaxf(x, 0.0F).
func ReLU(x float32) float32 {
	if x > 0 {
		return x
	}
	return 0
}

// Sigmoid computes 1/(1+exp(-x)) in float32, matching generated code.
func Sigmoid(x float32) float32 {
	return 1 / (1 + float32(math.Exp(float64(-x))))
}
