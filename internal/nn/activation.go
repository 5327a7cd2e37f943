package nn

import "github.com/born-ml/axon/internal/builder"

// ReLU applies max(x, 0) elementwise.
func ReLU(m Matrix) Matrix { return Map(m, builder.Value.ReLU) }

// Sigmoid applies 1/(1+exp(-x)) elementwise.
func Sigmoid(m Matrix) Matrix { return Map(m, builder.Value.Sigmoid) }

// Heaviside applies the unit step elementwise.
func Heaviside(m Matrix) Matrix { return Map(m, builder.Value.Heaviside) }

// Exp applies e**x elementwise.
func Exp(m Matrix) Matrix { return Map(m, builder.Value.Exp) }

// Sin applies sin(x) elementwise.
func Sin(m Matrix) Matrix { return Map(m, builder.Value.Sin) }

// Cos applies cos(x) elementwise.
func Cos(m Matrix) Matrix { return Map(m, builder.Value.Cos) }
