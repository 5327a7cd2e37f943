package models

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/born-ml/axon/internal/builder"
	"github.com/born-ml/axon/internal/compiler"
	"github.com/born-ml/axon/internal/nn"
)

// Image encoder dimensions.
const (
	FourierBands = 6
	HiddenWidth  = 16
	HiddenLayers = 3
)

// ImageEncoder returns a coordinate network mapping a pixel position (u, v)
// to an RGB color. Both coordinates are Fourier embedded and concatenated
// with the raw pair (26 features), then fed through a ReLU input layer,
// three residual layers of width 16, and a sigmoid RGB head.
//
// Rows are (u, v, r, g, b) sampled from a smooth synthetic image.
func ImageEncoder() Model {
	return Model{
		Name:        "image_encoder",
		Description: "coordinate MLP mapping (u, v) to RGB",
		Recipe:      imageEncoderRecipe,
		Columns:     5,
		Sample: func(rng *rand.Rand, row []float32) {
			u, v := rng.Float64(), rng.Float64()
			row[0], row[1] = float32(u), float32(v)
			row[2] = float32(0.5 + 0.5*math.Sin(2*math.Pi*u))
			row[3] = float32(0.5 + 0.5*math.Cos(2*math.Pi*v))
			row[4] = float32(u * v)
		},
	}
}

func imageEncoderRecipe(c *compiler.Compiler) error {
	u := builder.Input()
	v := builder.Input()

	features := nn.Concat(
		nn.Column(u, v),
		nn.FourierEmbed(u, FourierBands),
		nn.FourierEmbed(v, FourierBands),
	)
	x := nn.ReLU(nn.MatMul(nn.Params("encoder_in", HiddenWidth, features.Rows()), features))
	for i := 0; i < HiddenLayers; i++ {
		x = nn.Residual(fmt.Sprintf("hidden%d", i), x)
	}
	rgb := nn.Sigmoid(nn.Linear("rgb", x, 3, true))

	if err := c.BuildEval(rgb.Values()...); err != nil {
		return err
	}

	target := nn.Inputs(3, 1)
	return c.BuildGrad(nn.MSE(target, rgb))
}
