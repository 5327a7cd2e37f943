package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"

	"github.com/born-ml/axon/internal/config"
	"github.com/born-ml/axon/internal/models"
)

// ExitError is an error carrying a specific process exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface.
func (e *ExitError) Error() string {
	return e.Message
}

func usageError(format string, args ...any) error {
	return &ExitError{Code: 2, Message: fmt.Sprintf(format, args...)}
}

type command struct {
	name    string
	summary string
	run     func(ctx context.Context, args []string, stdout, stderr io.Writer) error
}

func commands() []command {
	return []command{
		{"version", "Show version", runVersion},
		{"models", "List built-in models", runModels},
		{"gen-data", "Write a synthetic dataset for a model", runGenData},
		{"train", "Train a model and save its parameters", runTrain},
		{"export", "Generate source code for a model", runExport},
	}
}

// run dispatches args to a subcommand.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		printUsage(stdout)
		return nil
	}
	for _, c := range commands() {
		if c.name == args[0] {
			return c.run(ctx, args[1:], stdout, stderr)
		}
	}
	printUsage(stderr)
	return usageError("unknown command %q", args[0])
}

func printUsage(w io.Writer) {
	fmt.Fprintf(w, "axon %s - a tiny model compiler\n\n", version)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  axon <command> [options]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	for _, c := range commands() {
		fmt.Fprintf(w, "  %-10s %s\n", c.name, c.summary)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'axon <command> -h' for command options.")
}

func runVersion(_ context.Context, _ []string, stdout, _ io.Writer) error {
	fmt.Fprintf(stdout, "axon %s\n", version)
	return nil
}

func runModels(_ context.Context, _ []string, stdout, _ io.Writer) error {
	for _, name := range models.Names() {
		m, err := models.Lookup(name)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "%-16s %s\n", m.Name, m.Description)
	}
	return nil
}

// newFlagSet returns a flag set that reports errors instead of exiting.
func newFlagSet(name string, stderr io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet("axon "+name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	return fs
}

// parseFlags parses args. The second result is true when help was requested.
func parseFlags(fs *flag.FlagSet, args []string) (bool, error) {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return true, nil
		}
		return false, &ExitError{Code: 2, Message: err.Error()}
	}
	if fs.NArg() > 0 {
		return false, usageError("unexpected argument %q", fs.Arg(0))
	}
	return false, nil
}

// projectFlags binds command-line overrides of a project file. A flag only
// overrides the file when it is given explicitly.
type projectFlags struct {
	fs         *flag.FlagSet
	configPath string
	apply      map[string]func(c *config.Config) error
}

func newProjectFlags(fs *flag.FlagSet) *projectFlags {
	p := &projectFlags{fs: fs, apply: map[string]func(*config.Config) error{}}
	fs.StringVar(&p.configPath, "config", "", "Path to an HCL project file.")
	p.str("model", "Built-in model name (see 'axon models').", func(c *config.Config, v string) { c.Model = v })
	p.str("log-level", "Logging level: debug, info, warn or error.", func(c *config.Config, v string) { c.Log.Level = v })
	p.str("log-format", "Log output format: text or json.", func(c *config.Config, v string) { c.Log.Format = v })
	return p
}

func (p *projectFlags) str(name, usage string, set func(c *config.Config, v string)) {
	v := p.fs.String(name, "", usage)
	p.apply[name] = func(c *config.Config) error {
		set(c, *v)
		return nil
	}
}

// number registers a flag parsed by parse, so overrides keep their exact
// textual value until a project is resolved.
func (p *projectFlags) number(name, usage string, set func(c *config.Config, v string) error) {
	v := p.fs.String(name, "", usage)
	p.apply[name] = func(c *config.Config) error {
		if err := set(c, *v); err != nil {
			return usageError("invalid value %q for -%s: %v", *v, name, err)
		}
		return nil
	}
}

func (p *projectFlags) integer(name, usage string, set func(c *config.Config, v int)) {
	p.number(name, usage, func(c *config.Config, s string) error {
		v, err := strconv.Atoi(s)
		if err != nil {
			return err
		}
		set(c, v)
		return nil
	})
}

func (p *projectFlags) float(name, usage string, set func(c *config.Config, v float64)) {
	p.number(name, usage, func(c *config.Config, s string) error {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return err
		}
		set(c, v)
		return nil
	})
}

func (p *projectFlags) boolean(name, usage string, set func(c *config.Config, v bool)) {
	v := p.fs.Bool(name, false, usage)
	p.apply[name] = func(c *config.Config) error {
		set(c, *v)
		return nil
	}
}

// resolve loads the project file, if any, and applies the explicitly set
// flags on top of it.
func (p *projectFlags) resolve() (*config.Config, error) {
	cfg := config.Defaults()
	if p.configPath != "" {
		loaded, err := config.Load(p.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	var err error
	p.fs.Visit(func(f *flag.Flag) {
		if apply, ok := p.apply[f.Name]; ok && err == nil {
			err = apply(cfg)
		}
	})
	if err != nil {
		return nil, err
	}
	if cfg.Model == "" {
		return nil, usageError("no model given: use -model or -config")
	}
	if err := cfg.Normalize(); err != nil {
		return nil, usageError("%v", err)
	}
	return cfg, nil
}
