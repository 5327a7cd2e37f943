package main

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/born-ml/axon/internal/compiler"
	"github.com/born-ml/axon/internal/config"
	"github.com/born-ml/axon/internal/models"
	"github.com/born-ml/axon/internal/serialization"
	"golang.org/x/sync/errgroup"
)

func runExport(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("export", stderr)
	p := newProjectFlags(fs)
	p.str("name", "Network name, prefixing every generated symbol.", func(c *config.Config, v string) { c.Name = v })
	p.str("exporter", "Exporter: c or go.", func(c *config.Config, v string) { c.Exporter = v })
	p.str("o", "Output file.", func(c *config.Config, v string) { c.Output = v })
	p.str("params", "Trained parameter file (release builds).", func(c *config.Config, v string) { c.Params = v })
	p.boolean("release", "Emit eval only, with trained parameters baked in.", func(c *config.Config, v bool) { c.Release = v })
	modulesDir := fs.String("modules", "", "Also write eval.axm and grad.axm to this directory.")
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

	g, _ := errgroup.WithContext(ctx)
	g.Go(c.WriteArtifact)
	if *modulesDir != "" {
		g.Go(func() error {
			return serialization.SaveModule(filepath.Join(*modulesDir, "eval.axm"), c.EvalModule())
		})
		g.Go(func() error {
			return serialization.SaveModule(filepath.Join(*modulesDir, "grad.axm"), c.GradModule())
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	logger.Info("artifact written",
		"model", cfg.Model,
		"exporter", cfg.Exporter,
		"output", cfg.Output,
		"release", cfg.Release,
		"nodes", c.GradModule().Len())
	fmt.Fprintln(stdout, cfg.Output)
	return nil
}

// compileProject compiles the configured built-in model.
func compileProject(cfg *config.Config) (*compiler.Compiler, error) {
	m, err := models.Lookup(cfg.Model)
	if err != nil {
		return nil, usageError("%v", err)
	}
	return compiler.Compile(cfg.CompilerOptions(), m.Recipe)
}
