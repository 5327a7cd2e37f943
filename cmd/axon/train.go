package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/born-ml/axon/internal/config"
	"github.com/born-ml/axon/internal/dataset"
	"github.com/born-ml/axon/internal/optim"
	"github.com/born-ml/axon/internal/parallel"
	"github.com/born-ml/axon/internal/serialization"
)

func runTrain(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("train", stderr)
	p := newProjectFlags(fs)
	p.str("data", "Dataset file (see 'axon gen-data').", func(c *config.Config, v string) { c.Dataset = v })
	p.str("params", "Output parameter file.", func(c *config.Config, v string) { c.Params = v })
	p.integer("epochs", "Number of epochs.", func(c *config.Config, v int) { c.Train.Epochs = &v })
	p.integer("batch-size", "Rows per step: 1, 4, 8 or 16.", func(c *config.Config, v int) { c.Train.BatchSize = v })
	p.float("lr", "Learning rate.", func(c *config.Config, v float64) { c.Train.LR = v })
	p.float("momentum", "Momentum decay in [0, 1).", func(c *config.Config, v float64) { c.Train.Momentum = &v })
	p.integer("seed", "Initialization and shuffling seed.", func(c *config.Config, v int) { c.Train.Seed = int64(v) })
	p.str("sampling", "Row order: shuffled or sequential.", func(c *config.Config, v string) { c.Train.Sampling = v })
	resume := fs.Bool("resume", false, "Start from the parameters already in the output file.")
	if help, err := parseFlags(fs, args); help || err != nil {
		return err
	}

	cfg, err := p.resolve()
	if err != nil {
		return err
	}
	logger := cfg.NewLogger(stderr)

	c, err := compileProject(cfg)
	if err != nil {
		return err
	}
	ds, err := dataset.Load(cfg.Dataset)
	if err != nil {
		return err
	}

	opt, err := optim.New(c.GradModule(), ds, cfg.OptimConfig(logger))
	if err != nil {
		return err
	}
	if *resume {
		prev, err := serialization.LoadParams(cfg.Params)
		if err != nil {
			return err
		}
		if err := opt.SetParameters(prev.Values); err != nil {
			return err
		}
	}

	logger.Info("training started",
		"model", cfg.Model,
		"rows", ds.Rows(),
		"params", c.GradModule().NumParams(),
		"epochs", *cfg.Train.Epochs)

	start := time.Now()
	epochs := *cfg.Train.Epochs
	every := max(1, epochs/10)
	var loss float32
	epoch := 0
	for ; epoch < epochs; epoch++ {
		if ctx.Err() != nil {
			logger.Warn("training interrupted", "epoch", epoch)
			break
		}
		loss = opt.RunEpoch(c.Loss())
		if (epoch+1)%every == 0 {
			logger.Info("epoch", "epoch", epoch+1, "loss", loss)
		}
	}

	err = serialization.SaveParams(cfg.Params, serialization.Params{
		Values: opt.Parameters(),
		Names:  c.GradModule().ParamNames(),
	})
	if err != nil {
		return err
	}

	final, err := optim.Evaluate(c.GradModule(), opt.Parameters(), ds, c.Loss(), parallel.DefaultConfig())
	if err != nil {
		return err
	}

	logger.Info("training finished",
		"epochs", epoch,
		"steps", opt.Steps(),
		"loss", loss,
		"dataset_loss", final,
		"elapsed", time.Since(start).Round(time.Millisecond))
	fmt.Fprintf(stdout, "%s\t%g\n", cfg.Params, loss)
	return nil
}
