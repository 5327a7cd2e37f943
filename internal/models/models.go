// Package models holds the built-in model recipes.
//
// Each model pairs a compiler recipe with a procedural sampler, so it can
// be exported, given a synthetic training set, and trained end to end from
// the command line.
package models

import (
	"fmt"
	"math/rand"
	"slices"
	"sync"

	"github.com/born-ml/axon/internal/compiler"
	"github.com/born-ml/axon/internal/dataset"
	"github.com/born-ml/axon/internal/ir"
)

// Model is a named recipe with a synthetic training distribution.
type Model struct {
	Name        string
	Description string
	Recipe      compiler.Recipe

	// Columns is the dataset row width: the eval inputs in slot order,
	// then the loss targets.
	Columns int

	// Sample fills one dataset row.
	Sample func(rng *rand.Rand, row []float32)
}

// Dataset draws rows samples from m's distribution.
func (m Model) Dataset(rows int, seed int64) (*dataset.Memory, error) {
	//nolint:gosec // G404: synthetic data, not security sensitive
	rng := rand.New(rand.NewSource(seed))
	return dataset.Generate(rows, m.Columns, dataset.GeneratorFunc(func(row []float32) {
		m.Sample(rng, row)
	}))
}

var (
	mu       sync.RWMutex
	registry = map[string]Model{}
)

func init() {
	Register(Linear())
	Register(ImageEncoder())
}

// Register adds m to the registry. Registering a name twice panics.
func Register(m Model) {
	mu.Lock()
	defer mu.Unlock()
	if _, dup := registry[m.Name]; dup {
		panic(fmt.Sprintf("models: model %q registered twice", m.Name))
	}
	registry[m.Name] = m
}

// Lookup returns the model registered under name.
func Lookup(name string) (Model, error) {
	mu.RLock()
	m, ok := registry[name]
	mu.RUnlock()
	if !ok {
		return Model{}, ir.Errorf("unknown model %q", name)
	}
	return m, nil
}

// Names returns the registered model names, sorted.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
