package optim

import (
	"fmt"
	"math"

	"github.com/joelsearcy/scalargrad/pkg/autograd"
)

// AdamOptimizer keeps bias-corrected running moments of each parameter's
// gradient and scales every update by the ratio of the two.
type AdamOptimizer struct {
	LR      float64
	Beta1   float64 // decay of the gradient mean
	Beta2   float64 // decay of the squared gradient mean
	Epsilon float64

	mean  []float64
	sqr   []float64
	steps int
}

// NewAdam returns an Adam optimizer for exactly numParams parameters.
func NewAdam(numParams int, lr, beta1, beta2, eps float64) *AdamOptimizer {
	return &AdamOptimizer{
		LR:      lr,
		Beta1:   beta1,
		Beta2:   beta2,
		Epsilon: eps,
		mean:    make([]float64, numParams),
		sqr:     make([]float64, numParams),
	}
}

// Step moves each parameter against its gradient. The effective rate is
// LR*lrScale. Gradients are read, not cleared. Step panics if params does not
// have the length the optimizer was built for.
func (opt *AdamOptimizer) Step(params []autograd.Node, lrScale float64) {
	if len(params) != len(opt.mean) {
		panic(fmt.Sprintf("optim: adam built for %d params, got %d", len(opt.mean), len(params)))
	}

	opt.steps++
	n := float64(opt.steps)
	meanCorr := 1 - math.Pow(opt.Beta1, n)
	sqrCorr := 1 - math.Pow(opt.Beta2, n)
	rate := opt.LR * lrScale

	for i, p := range params {
		g := float64(p.Grad())
		opt.mean[i] += (1 - opt.Beta1) * (g - opt.mean[i])
		opt.sqr[i] += (1 - opt.Beta2) * (g*g - opt.sqr[i])

		delta := rate * (opt.mean[i] / meanCorr) / (math.Sqrt(opt.sqr[i]/sqrCorr) + opt.Epsilon)
		p.SetValue(p.Value() - float32(delta))
	}
}

// Reset forgets the moments and the step count.
func (opt *AdamOptimizer) Reset() {
	clear(opt.mean)
	clear(opt.sqr)
	opt.steps = 0
}
