package nn

import (
	"fmt"
	"strings"

	"github.com/joelsearcy/scalargrad/pkg/autograd"
)

// Activation is applied to a neuron's weighted sum.
type Activation func(autograd.Node) autograd.Node

// Identity returns its input unchanged.
func Identity(n autograd.Node) autograd.Node { return n }

// Tanh applies the hyperbolic tangent.
func Tanh(n autograd.Node) autograd.Node { return n.Tanh() }

// ReLU applies max(0, x).
func ReLU(n autograd.Node) autograd.Node { return n.ReLU() }

// ParseActivation maps a configuration name to an Activation.
func ParseActivation(name string) (Activation, error) {
	switch strings.ToLower(name) {
	case "tanh":
		return Tanh, nil
	case "relu":
		return ReLU, nil
	case "identity", "linear", "none":
		return Identity, nil
	default:
		return nil, fmt.Errorf("nn: unknown activation %q", name)
	}
}
