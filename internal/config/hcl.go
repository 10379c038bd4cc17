package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	"github.com/joelsearcy/scalargrad/internal/ctxlog"
)

// fileRoot mirrors the HCL layout. Pointer fields distinguish omitted
// attributes from zero values.
type fileRoot struct {
	Seed         *uint64  `hcl:"seed,optional"`
	Epochs       *int     `hcl:"epochs,optional"`
	BatchSize    *int     `hcl:"batch_size,optional"`
	LearningRate *float64 `hcl:"learning_rate,optional"`
	LRDecay      *bool    `hcl:"lr_decay,optional"`

	Model     *modelBlock     `hcl:"model,block"`
	Optimizer *optimizerBlock `hcl:"optimizer,block"`
	Dataset   *datasetBlock   `hcl:"dataset,block"`
}

type modelBlock struct {
	Hidden     []int   `hcl:"hidden,optional"`
	Activation *string `hcl:"activation,optional"`
	Output     *string `hcl:"output,optional"`
}

type optimizerBlock struct {
	Name    string   `hcl:"name,label"`
	Beta1   *float64 `hcl:"beta1,optional"`
	Beta2   *float64 `hcl:"beta2,optional"`
	Epsilon *float64 `hcl:"epsilon,optional"`
}

type datasetBlock struct {
	Kind      *string  `hcl:"kind,optional"`
	Samples   *int     `hcl:"samples,optional"`
	Noise     *float64 `hcl:"noise,optional"`
	Path      *string  `hcl:"path,optional"`
	URL       *string  `hcl:"url,optional"`
	TestSplit *float64 `hcl:"test_split,optional"`
}

// Load reads, decodes and validates the HCL file at path.
func Load(ctx context.Context, path string) (*Config, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Loading training config.", "path", path)

	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	cfg, err := Parse(src, path, os.Environ())
	if err != nil {
		return nil, err
	}

	logger.Debug("Training config loaded.", "epochs", cfg.Epochs, "batch_size", cfg.BatchSize, "optimizer", cfg.Optimizer.Name, "dataset", cfg.Dataset.Kind)
	return cfg, nil
}

// Parse decodes src over Default and validates the result. environ is
// exposed to expressions as `env` (KEY=VALUE pairs, as from os.Environ).
func Parse(src []byte, filename string, environ []string) (*Config, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %w", filename, diags)
	}

	var root fileRoot
	diags = gohcl.DecodeBody(file.Body, evalContext(environ), &root)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL file %s: %w", filename, diags)
	}

	cfg := Default()
	root.apply(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", filename, err)
	}
	return &cfg, nil
}

func evalContext(environ []string) *hcl.EvalContext {
	vars := make(map[string]cty.Value, len(environ))
	for _, kv := range environ {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || !hclIdent(k) {
			continue
		}
		vars[k] = cty.StringVal(v)
	}
	env := cty.EmptyObjectVal
	if len(vars) > 0 {
		env = cty.ObjectVal(vars)
	}
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{"env": env},
	}
}

// hclIdent reports whether s can be used as an attribute name after `env.`.
func hclIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
		case i > 0 && (r == '-' || (r >= '0' && r <= '9')):
		default:
			return false
		}
	}
	return true
}

func (r *fileRoot) apply(cfg *Config) {
	set(&cfg.Seed, r.Seed)
	set(&cfg.Epochs, r.Epochs)
	set(&cfg.BatchSize, r.BatchSize)
	set(&cfg.LearningRate, r.LearningRate)
	set(&cfg.LRDecay, r.LRDecay)

	if m := r.Model; m != nil {
		if m.Hidden != nil {
			cfg.Model.Hidden = m.Hidden
		}
		set(&cfg.Model.Activation, m.Activation)
		set(&cfg.Model.Output, m.Output)
	}
	if o := r.Optimizer; o != nil {
		cfg.Optimizer.Name = o.Name
		set(&cfg.Optimizer.Beta1, o.Beta1)
		set(&cfg.Optimizer.Beta2, o.Beta2)
		set(&cfg.Optimizer.Epsilon, o.Epsilon)
	}
	if d := r.Dataset; d != nil {
		set(&cfg.Dataset.Kind, d.Kind)
		set(&cfg.Dataset.Samples, d.Samples)
		set(&cfg.Dataset.Noise, d.Noise)
		set(&cfg.Dataset.Path, d.Path)
		set(&cfg.Dataset.URL, d.URL)
		set(&cfg.Dataset.TestSplit, d.TestSplit)
	}
}

func set[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}
