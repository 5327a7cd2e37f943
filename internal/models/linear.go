package models

import (
	"math/rand"

	"github.com/born-ml/axon/internal/builder"
	"github.com/born-ml/axon/internal/compiler"
	"github.com/born-ml/axon/internal/nn"
)

// Slope and intercept of the line the linear model learns.
const (
	LinearSlope     = -5.2
	LinearIntercept = 0.3
)

// Linear returns the y = m*x + b regression model. Rows are (x, y) with x
// uniform in [-1, 1).
func Linear() Model {
	return Model{
		Name:        "linear",
		Description: "1-D linear regression, y = m*x + b",
		Recipe:      linearRecipe,
		Columns:     2,
		Sample: func(rng *rand.Rand, row []float32) {
			x := rng.Float32()*2 - 1
			row[0] = x
			row[1] = LinearSlope*x + LinearIntercept
		},
	}
}

func linearRecipe(c *compiler.Compiler) error {
	m := builder.Param("m")
	b := builder.Param("b")
	x := builder.Input()
	y := m.Mul(x).Add(b)
	if err := c.BuildEval(y); err != nil {
		return err
	}

	target := builder.Input()
	return c.BuildGrad(nn.SquaredError(y, target))
}
