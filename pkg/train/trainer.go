// Package train fits an MLP to labelled samples by gradient descent.
//
// A Trainer builds one batch graph up front: BatchSize copies of the network
// sharing the same weights, each fed by its own input leaves, reduced to a
// mean squared error. Every step only rewrites leaf values and then runs
// Forward, Reset and Backprop over that fixed graph.
package train

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/joelsearcy/scalargrad/pkg/autograd"
	"github.com/joelsearcy/scalargrad/pkg/data"
	"github.com/joelsearcy/scalargrad/pkg/nn"
	"github.com/joelsearcy/scalargrad/pkg/optim"
)

var (
	// ErrBatchTooLarge is returned when a batch exceeds Options.BatchSize.
	ErrBatchTooLarge = errors.New("train: batch larger than batch size")
	// ErrFeatureMismatch is returned when a sample has the wrong number of features.
	ErrFeatureMismatch = errors.New("train: sample feature count mismatch")
)

// Options configures a Trainer.
type Options struct {
	Features  int
	Hidden    []int
	HiddenAct nn.Activation
	OutputAct nn.Activation
	BatchSize int
	Optimizer optim.Settings
	Seed      uint64
}

// Trainer owns the batch graph and the optimizer state.
type Trainer struct {
	graph *autograd.Graph
	model *nn.MLP
	opt   optim.Optimizer

	inputs  [][]autograd.Node // [replica][feature]
	targets []autograd.Node
	masks   []autograd.Node // 1 for replicas holding a sample, 0 for padding
	preds   []autograd.Node
	scale   autograd.Node // 1 / number of active replicas
	loss    autograd.Node

	features int
}

// Metrics summarizes model quality over a set of samples.
type Metrics struct {
	Loss     float32
	Accuracy float64
}

// New builds the batch graph described by opts.
func New(opts Options) (*Trainer, error) {
	if opts.Features <= 0 {
		return nil, fmt.Errorf("train: features must be positive, got %d", opts.Features)
	}
	if opts.BatchSize <= 0 {
		return nil, fmt.Errorf("train: batch size must be positive, got %d", opts.BatchSize)
	}
	if opts.HiddenAct == nil {
		opts.HiddenAct = nn.Tanh
	}
	if opts.OutputAct == nil {
		opts.OutputAct = nn.Tanh
	}

	g := autograd.NewGraph()
	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed))
	sizes := append(append([]int(nil), opts.Hidden...), 1)
	model := nn.NewMLP(g, opts.Features, sizes, opts.HiddenAct, opts.OutputAct, rng)

	opt, err := optim.New(opts.Optimizer, len(model.Params()))
	if err != nil {
		return nil, err
	}

	t := &Trainer{
		graph:    g,
		model:    model,
		opt:      opt,
		inputs:   make([][]autograd.Node, opts.BatchSize),
		targets:  make([]autograd.Node, opts.BatchSize),
		masks:    make([]autograd.Node, opts.BatchSize),
		preds:    make([]autograd.Node, opts.BatchSize),
		features: opts.Features,
	}

	terms := make([]autograd.Node, opts.BatchSize)
	for r := range opts.BatchSize {
		x := make([]autograd.Node, opts.Features)
		for i := range x {
			x[i] = g.Input(0)
		}
		t.inputs[r] = x
		t.targets[r] = g.Input(0)
		t.masks[r] = g.Input(1)
		t.preds[r] = model.Call(x)[0]

		diff := t.preds[r].Sub(t.targets[r])
		terms[r] = diff.Mul(diff).Mul(t.masks[r])
	}
	t.scale = g.Input(1 / float32(opts.BatchSize))
	t.loss = autograd.Sum(terms...).Mul(t.scale)

	return t, nil
}

// Params returns the trainable parameters.
func (t *Trainer) Params() []autograd.Node {
	return t.model.Params()
}

// Loss returns the root of the batch graph.
func (t *Trainer) Loss() autograd.Node {
	return t.loss
}

// BatchSize returns the number of replicas in the batch graph.
func (t *Trainer) BatchSize() int {
	return len(t.preds)
}

// load writes batch into the replica leaves and recomputes the graph.
func (t *Trainer) load(batch []data.Sample) error {
	if len(batch) > len(t.preds) {
		return fmt.Errorf("%w: %d > %d", ErrBatchTooLarge, len(batch), len(t.preds))
	}
	if len(batch) == 0 {
		return errors.New("train: empty batch")
	}
	for r, s := range batch {
		if len(s.X) != t.features {
			return fmt.Errorf("%w: sample %d: got %d, want %d", ErrFeatureMismatch, r, len(s.X), t.features)
		}
	}
	for r := range t.preds {
		if r >= len(batch) {
			t.masks[r].SetValue(0)
			continue
		}
		s := batch[r]
		for i, v := range s.X {
			t.inputs[r][i].SetValue(v)
		}
		t.targets[r].SetValue(s.Y)
		t.masks[r].SetValue(1)
	}
	t.scale.SetValue(1 / float32(len(batch)))
	autograd.Forward(t.loss)
	return nil
}

// Step performs one gradient update on batch and returns the batch loss
// measured before the update.
func (t *Trainer) Step(batch []data.Sample, lrScale float64) (float32, error) {
	if err := t.load(batch); err != nil {
		return 0, err
	}
	loss := t.loss.Value()

	autograd.Reset(t.loss)
	autograd.Backprop(t.loss)
	t.opt.Step(t.Params(), lrScale)

	return loss, nil
}

// Predict returns the network output for x.
func (t *Trainer) Predict(x []float32) (float32, error) {
	if len(x) != t.features {
		return 0, fmt.Errorf("%w: got %d, want %d", ErrFeatureMismatch, len(x), t.features)
	}
	for i, v := range x {
		t.inputs[0][i].SetValue(v)
	}
	autograd.Forward(t.preds[0])
	return t.preds[0].Value(), nil
}

// Evaluate returns the mean loss and sign accuracy over samples without
// touching gradients or parameters.
func (t *Trainer) Evaluate(samples []data.Sample) (Metrics, error) {
	if len(samples) == 0 {
		return Metrics{}, nil
	}
	var lossSum float64
	correct := 0
	for _, batch := range data.Batches(samples, len(t.preds)) {
		if err := t.load(batch); err != nil {
			return Metrics{}, err
		}
		lossSum += float64(t.loss.Value()) * float64(len(batch))
		for r, s := range batch {
			if (t.preds[r].Value() >= 0) == (s.Y >= 0) {
				correct++
			}
		}
	}
	return Metrics{
		Loss:     float32(lossSum / float64(len(samples))),
		Accuracy: float64(correct) / float64(len(samples)),
	}, nil
}
