// Package optim updates leaf parameters from their accumulated gradients.
// Optimizers read gradients but never clear them; callers reset the graph
// between steps.
package optim

import (
	"fmt"
	"strings"

	"github.com/joelsearcy/scalargrad/pkg/autograd"
)

// Optimizer applies one update to params.
type Optimizer interface {
	Step(params []autograd.Node, lrScale float64)
	Reset()
}

// SGD is plain gradient descent: p -= lr * lrScale * grad.
type SGD struct {
	LR float64
}

// NewSGD creates a gradient descent optimizer.
func NewSGD(lr float64) *SGD {
	return &SGD{LR: lr}
}

// Step performs one optimization step.
func (opt *SGD) Step(params []autograd.Node, lrScale float64) {
	step := float32(opt.LR * lrScale)
	for _, p := range params {
		p.SetValue(p.Value() - step*p.Grad())
	}
}

// Reset is a no-op; SGD is stateless.
func (opt *SGD) Reset() {}

// Settings selects and parameterizes an optimizer by name.
type Settings struct {
	Name    string // "sgd" or "adam"
	LR      float64
	Beta1   float64
	Beta2   float64
	Epsilon float64
}

// New builds the optimizer described by s for numParams parameters.
func New(s Settings, numParams int) (Optimizer, error) {
	switch strings.ToLower(s.Name) {
	case "sgd":
		return NewSGD(s.LR), nil
	case "adam":
		return NewAdam(numParams, s.LR, s.Beta1, s.Beta2, s.Epsilon), nil
	default:
		return nil, fmt.Errorf("optim: unknown optimizer %q", s.Name)
	}
}

var (
	_ Optimizer = (*SGD)(nil)
	_ Optimizer = (*AdamOptimizer)(nil)
)
