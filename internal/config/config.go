// Package config loads project files written in HCL.
//
// A project file names the model to compile, where its artifacts go, and
// how it is trained:
//
//	model    = "image_encoder"
//	name     = "encoder"
//	exporter = "c"
//	output   = "${env.OUT_DIR}/encoder.h"
//	dataset  = "pixels.axd"
//
//	train {
//	  epochs     = 200
//	  batch_size = 16
//	  lr         = 0.01
//	  momentum   = 0.9
//	}
//
//	log {
//	  level  = "debug"
//	  format = "json"
//	}
//
// Expressions are evaluated with the process environment under env.* and
// the functions upper, lower, format, min and max.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/born-ml/axon/internal/compiler"
	"github.com/born-ml/axon/internal/optim"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"
)

// Defaults for values a project file may omit.
const (
	DefaultDataset   = "data.axd"
	DefaultEpochs    = 100
	DefaultMomentum  = 0.9
	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"
)

// Config is a decoded project file.
type Config struct {
	Model    string `hcl:"model"`
	Name     string `hcl:"name,optional"`
	Exporter string `hcl:"exporter,optional"`
	Output   string `hcl:"output,optional"`
	Release  bool   `hcl:"release,optional"`
	Params   string `hcl:"params,optional"`
	Dataset  string `hcl:"dataset,optional"`
	Train    *Train `hcl:"train,block"`
	Log      *Log   `hcl:"log,block"`
}

// Train configures the training loop.
type Train struct {
	Epochs     *int     `hcl:"epochs,optional"`
	BatchSize  int      `hcl:"batch_size,optional"`
	LR         float64  `hcl:"lr,optional"`
	Momentum   *float64 `hcl:"momentum,optional"`
	InitStdDev float64  `hcl:"init_std_dev,optional"`
	Seed       int64    `hcl:"seed,optional"`
	Sampling   string   `hcl:"sampling,optional"`
}

// Log configures the process logger.
type Log struct {
	Level  string `hcl:"level,optional"`
	Format string `hcl:"format,optional"`
}

// Load parses the project file at path, evaluating expressions against the
// process environment.
func Load(path string) (*Config, error) {
	src, err := os.ReadFile(path) //nolint:gosec // G304: config path comes from the command line
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return Parse(src, path, Environ())
}

// Parse decodes src. filename is used in diagnostics only.
func Parse(src []byte, filename string, env map[string]string) (*Config, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %w", filename, diags)
	}

	var cfg Config
	diags = gohcl.DecodeBody(file.Body, evalContext(env), &cfg)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL file %s: %w", filename, diags)
	}
	if err := cfg.Normalize(); err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return &cfg, nil
}

// Environ returns the process environment as a map.
func Environ() map[string]string {
	env := make(map[string]string)
	for _, e := range os.Environ() {
		if k, v, ok := strings.Cut(e, "="); ok {
			env[k] = v
		}
	}
	return env
}

func evalContext(env map[string]string) *hcl.EvalContext {
	vars := make(map[string]cty.Value, len(env))
	for k, v := range env {
		vars[k] = cty.StringVal(v)
	}
	envVal := cty.EmptyObjectVal
	if len(vars) > 0 {
		envVal = cty.ObjectVal(vars)
	}
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{"env": envVal},
		Functions: map[string]function.Function{
			"upper":  stdlib.UpperFunc,
			"lower":  stdlib.LowerFunc,
			"format": stdlib.FormatFunc,
			"min":    stdlib.MinFunc,
			"max":    stdlib.MaxFunc,
		},
	}
}

// Defaults returns a Config with every optional value filled in and no
// model.
func Defaults() *Config {
	c := &Config{}
	c.setDefaults()
	return c
}

// Normalize fills in defaults and validates c. It is idempotent, so callers
// that override fields of a loaded Config call it again.
func (c *Config) Normalize() error {
	c.setDefaults()
	return c.validate()
}

func (c *Config) setDefaults() {
	d := compiler.DefaultOptions()
	if c.Name == "" {
		c.Name = d.Name
	}
	if c.Exporter == "" {
		c.Exporter = d.Exporter
	}
	if c.Output == "" {
		c.Output = d.Output
	}
	if c.Params == "" {
		c.Params = d.ParamsPath
	}
	if c.Dataset == "" {
		c.Dataset = DefaultDataset
	}

	if c.Train == nil {
		c.Train = &Train{}
	}
	if c.Train.Epochs == nil {
		n := DefaultEpochs
		c.Train.Epochs = &n
	}
	if c.Train.Momentum == nil {
		m := DefaultMomentum
		c.Train.Momentum = &m
	}
	if c.Train.Sampling == "" {
		c.Train.Sampling = optim.Shuffled.String()
	}

	if c.Log == nil {
		c.Log = &Log{}
	}
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	if c.Log.Format == "" {
		c.Log.Format = DefaultLogFormat
	}
}

func (c *Config) validate() error {
	if c.Model == "" {
		return fmt.Errorf("model must not be empty")
	}
	if err := c.CompilerOptions().Validate(); err != nil {
		return err
	}
	if m := *c.Train.Momentum; m < 0 || m >= 1 {
		return fmt.Errorf("train: momentum must be in [0, 1), got %g", m)
	}
	if n := *c.Train.Epochs; n < 0 {
		return fmt.Errorf("train: epochs must not be negative, got %d", n)
	}
	if _, err := c.sampling(); err != nil {
		return err
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log: unknown level %q", c.Log.Level)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log: unknown format %q", c.Log.Format)
	}
	return nil
}

func (c *Config) sampling() (optim.Sampling, error) {
	for _, s := range []optim.Sampling{optim.Shuffled, optim.Sequential} {
		if c.Train.Sampling == s.String() {
			return s, nil
		}
	}
	return 0, fmt.Errorf("train: unknown sampling %q", c.Train.Sampling)
}

// CompilerOptions returns the compiler session options.
func (c *Config) CompilerOptions() compiler.Options {
	return compiler.Options{
		Name:       c.Name,
		Output:     c.Output,
		Release:    c.Release,
		ParamsPath: c.Params,
		Exporter:   c.Exporter,
	}
}

// OptimConfig returns the optimizer configuration. Zero values are left for
// the optimizer to default. It must only be called on a loaded Config.
func (c *Config) OptimConfig(logger *slog.Logger) optim.Config {
	s, _ := c.sampling()
	return optim.Config{
		BatchSize:  c.Train.BatchSize,
		Seed:       c.Train.Seed,
		LR:         float32(c.Train.LR),
		InitStdDev: float32(c.Train.InitStdDev),
		Momentum:   float32(*c.Train.Momentum),
		Sampling:   s,
		Logger:     logger,
	}
}

// NewLogger returns a logger writing to w as configured by the log block.
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	return NewLogger(c.Log.Level, c.Log.Format, w)
}

// NewLogger creates a slog.Logger. Unknown levels fall back to info and
// unknown formats to text.
func NewLogger(levelStr, formatStr string, w io.Writer) *slog.Logger {
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if formatStr == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}
