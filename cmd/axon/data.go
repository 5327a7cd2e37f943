package main

import (
	"context"
	"fmt"
	"io"

	"github.com/born-ml/axon/internal/config"
	"github.com/born-ml/axon/internal/dataset"
	"github.com/born-ml/axon/internal/models"
)

func runGenData(_ context.Context, args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("gen-data", stderr)
	p := newProjectFlags(fs)
	p.str("o", "Output dataset file.", func(c *config.Config, v string) { c.Dataset = v })
	rows := fs.Int("rows", 1024, "Number of samples.")
	seed := fs.Int64("seed", 1, "Sampling seed.")
	if help, err := parseFlags(fs, args); help || err != nil {
		return err
	}
	if *rows <= 0 {
		return usageError("-rows must be positive, got %d", *rows)
	}

	cfg, err := p.resolve()
	if err != nil {
		return err
	}
	logger := cfg.NewLogger(stderr)

	m, err := models.Lookup(cfg.Model)
	if err != nil {
		return usageError("%v", err)
	}
	ds, err := m.Dataset(*rows, *seed)
	if err != nil {
		return err
	}
	if err := dataset.Save(cfg.Dataset, ds); err != nil {
		return err
	}

	logger.Info("dataset written", "model", m.Name, "rows", ds.Rows(), "cols", ds.Cols(), "path", cfg.Dataset)
	fmt.Fprintln(stdout, cfg.Dataset)
	return nil
}
