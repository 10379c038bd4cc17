package nn

import (
	"math"
	"math/rand/v2"

	"github.com/joelsearcy/scalargrad/pkg/autograd"
)

// Layer is a fully connected layer: W is [out, in], B is [out].
type Layer struct {
	W   *Matrix
	B   []autograd.Node
	Act Activation
}

// NewLayer creates a layer with Gaussian weights scaled by 1/sqrt(nin) and
// zero biases.
func NewLayer(g *autograd.Graph, nin, nout int, act Activation, rng *rand.Rand) *Layer {
	b := make([]autograd.Node, nout)
	for i := range b {
		b[i] = g.Input(0)
	}
	return &Layer{
		W:   NewMatrix(g, nout, nin, 1/math.Sqrt(float64(nin)), rng),
		B:   b,
		Act: act,
	}
}

// Neuron returns a view of the i-th output neuron.
func (l *Layer) Neuron(i int) *Neuron {
	return &Neuron{Weights: l.W.Row(i), Bias: l.B[i], Act: l.Act}
}

// Call builds one output per neuron over the same inputs.
func (l *Layer) Call(inputs []autograd.Node) []autograd.Node {
	out := make([]autograd.Node, l.W.Rows)
	for i := range out {
		out[i] = l.Neuron(i).Call(inputs)
	}
	return out
}

// Params returns all weights followed by all biases.
func (l *Layer) Params() []autograd.Node {
	params := make([]autograd.Node, 0, len(l.W.Data)+len(l.B))
	params = append(params, l.W.Data...)
	return append(params, l.B...)
}

// MLP chains layers. Parameters live in one graph; Call may be applied to
// several input sets, all sharing the same weights.
type MLP struct {
	Layers []*Layer

	params []autograd.Node // cached flat list
}

// NewMLP creates an MLP with nin inputs and one layer per entry in sizes.
// Hidden layers use hidden; the last layer uses out.
func NewMLP(g *autograd.Graph, nin int, sizes []int, hidden, out Activation, rng *rand.Rand) *MLP {
	m := &MLP{Layers: make([]*Layer, len(sizes))}
	prev := nin
	for i, size := range sizes {
		act := hidden
		if i == len(sizes)-1 {
			act = out
		}
		m.Layers[i] = NewLayer(g, prev, size, act, rng)
		prev = size
	}
	for _, l := range m.Layers {
		m.params = append(m.params, l.Params()...)
	}
	return m
}

// Call builds the network's outputs for inputs.
func (m *MLP) Call(inputs []autograd.Node) []autograd.Node {
	x := inputs
	for _, l := range m.Layers {
		x = l.Call(x)
	}
	return x
}

// Params returns the flattened list of all parameters (cached)
func (m *MLP) Params() []autograd.Node {
	return m.params
}
