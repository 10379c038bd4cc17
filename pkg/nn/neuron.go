package nn

import (
	"fmt"

	"github.com/joelsearcy/scalargrad/pkg/autograd"
)

// Module is anything that owns trainable parameters.
type Module interface {
	Params() []autograd.Node
}

// Neuron computes act(bias + Σ wᵢ·xᵢ).
type Neuron struct {
	Weights []autograd.Node
	Bias    autograd.Node
	Act     Activation
}

// Call builds the neuron's output over inputs. The sum is folded left
// starting from the bias.
func (n *Neuron) Call(inputs []autograd.Node) autograd.Node {
	if len(inputs) != len(n.Weights) {
		panic(fmt.Sprintf("nn: neuron has %d weights, got %d inputs", len(n.Weights), len(inputs)))
	}
	acc := n.Bias
	for i, w := range n.Weights {
		acc = acc.Add(w.Mul(inputs[i]))
	}
	if n.Act == nil {
		return acc
	}
	return n.Act(acc)
}

// Params returns the weights followed by the bias.
func (n *Neuron) Params() []autograd.Node {
	params := make([]autograd.Node, len(n.Weights)+1)
	copy(params, n.Weights)
	params[len(n.Weights)] = n.Bias
	return params
}
