// Package config loads training run settings from HCL files.
//
// Every attribute is optional; omitted values take the defaults from
// Default. The evaluation context exposes the process environment as the
// object `env`, so a file may say `seed = env.SEED`.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/joelsearcy/scalargrad/pkg/nn"
)

// Config is a complete, validated training run description.
type Config struct {
	Seed         uint64
	Epochs       int
	BatchSize    int
	LearningRate float64
	LRDecay      bool

	Model     Model
	Optimizer Optimizer
	Dataset   Dataset
}

// Model describes the MLP shape. The input width comes from the dataset and
// a single output is always appended.
type Model struct {
	Hidden     []int
	Activation string
	Output     string
}

// Optimizer names the update rule and its hyperparameters.
type Optimizer struct {
	Name    string
	Beta1   float64
	Beta2   float64
	Epsilon float64
}

// Dataset selects a synthetic generator or a CSV file.
type Dataset struct {
	Kind      string // linear, circle, xor or csv
	Samples   int
	Noise     float64
	Path      string
	URL       string
	TestSplit float64
}

// Default returns the configuration used for omitted values.
func Default() Config {
	return Config{
		Seed:         42,
		Epochs:       50,
		BatchSize:    8,
		LearningRate: 0.05,
		LRDecay:      true,
		Model: Model{
			Hidden:     []int{4, 4},
			Activation: "tanh",
			Output:     "tanh",
		},
		Optimizer: Optimizer{
			Name:    "sgd",
			Beta1:   0.85,
			Beta2:   0.99,
			Epsilon: 1e-8,
		},
		Dataset: Dataset{
			Kind:      "linear",
			Samples:   200,
			TestSplit: 0.2,
		},
	}
}

// Validate reports every invalid field at once.
func (c *Config) Validate() error {
	var errs []error
	if c.Epochs <= 0 {
		errs = append(errs, fmt.Errorf("epochs must be positive, got %d", c.Epochs))
	}
	if c.BatchSize <= 0 {
		errs = append(errs, fmt.Errorf("batch_size must be positive, got %d", c.BatchSize))
	}
	if c.LearningRate <= 0 {
		errs = append(errs, fmt.Errorf("learning_rate must be positive, got %g", c.LearningRate))
	}
	for i, h := range c.Model.Hidden {
		if h <= 0 {
			errs = append(errs, fmt.Errorf("model.hidden[%d] must be positive, got %d", i, h))
		}
	}
	for _, act := range []string{c.Model.Activation, c.Model.Output} {
		if _, err := nn.ParseActivation(act); err != nil {
			errs = append(errs, err)
		}
	}
	switch strings.ToLower(c.Optimizer.Name) {
	case "sgd":
	case "adam":
		if c.Optimizer.Beta1 < 0 || c.Optimizer.Beta1 >= 1 || c.Optimizer.Beta2 < 0 || c.Optimizer.Beta2 >= 1 {
			errs = append(errs, errors.New("optimizer betas must be in [0, 1)"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown optimizer %q", c.Optimizer.Name))
	}
	switch c.Dataset.Kind {
	case "linear", "circle", "xor":
		if c.Dataset.Samples <= 0 {
			errs = append(errs, fmt.Errorf("dataset.samples must be positive, got %d", c.Dataset.Samples))
		}
	case "csv":
		if c.Dataset.Path == "" {
			errs = append(errs, errors.New("dataset.path is required for kind \"csv\""))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown dataset kind %q", c.Dataset.Kind))
	}
	if c.Dataset.TestSplit < 0 || c.Dataset.TestSplit >= 1 {
		errs = append(errs, fmt.Errorf("dataset.test_split must be in [0, 1), got %g", c.Dataset.TestSplit))
	}
	return errors.Join(errs...)
}
