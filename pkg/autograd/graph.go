// Package autograd implements scalar reverse-mode automatic differentiation.
//
// A Graph owns every node of a computation. Nodes are created bottom-up with
// Graph.Input and the builder methods on Node (Add, Sub, Mul, Tanh, ...), each
// of which computes its value immediately. Forward recomputes cached values
// after leaf values change, Backprop accumulates ∂root/∂n into every node n
// reachable from root, and Reset zeroes those gradients again.
//
// Nodes only ever reference operands that already exist, so the graph is
// acyclic by construction. A Graph is not safe for concurrent use.
package autograd

import (
	"errors"
	"fmt"
)

var (
	// ErrDerivedMutation is raised when SetValue is called on a node that is
	// not an Input.
	ErrDerivedMutation = errors.New("autograd: cannot set value of a derived node")
	// ErrForeignNode is raised when nodes from two different graphs are combined.
	ErrForeignNode = errors.New("autograd: node belongs to a different graph")
	// ErrInvalidNode is raised when the zero Node is used.
	ErrInvalidNode = errors.New("autograd: invalid node")
)

// NodeID is the stable index of a node inside its Graph.
type NodeID int32

// node is the arena-owned state of a single graph vertex.
type node struct {
	op    Op
	a, b  NodeID  // operands; unused slots are ignored per op arity
	k     float32 // constant exponent for OpPow
	value float32 // cached forward value
	grad  float32 // accumulated gradient
}

// Graph is an append-only arena of nodes.
type Graph struct {
	nodes          []node
	legacySubtract bool
}

// Option configures a Graph.
type Option func(*Graph)

// WithLegacySubtract makes Subtract push +g into its right operand instead of
// -g, reproducing the behavior of the engine this package replaces.
func WithLegacySubtract() Option {
	return func(g *Graph) {
		g.legacySubtract = true
	}
}

// WithCapacity preallocates room for n nodes.
func WithCapacity(n int) Option {
	return func(g *Graph) {
		g.nodes = make([]node, 0, n)
	}
}

// NewGraph creates an empty Graph.
func NewGraph(opts ...Option) *Graph {
	g := &Graph{}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Len returns the number of nodes in the graph.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// Input creates a leaf node with the given value.
func (g *Graph) Input(value float32) Node {
	return g.push(node{op: OpInput, value: value})
}

// Scalar is an alias for Input, typically used for constants.
func (g *Graph) Scalar(value float32) Node {
	return g.Input(value)
}

// Node returns the handle for id. It panics if id is out of range.
func (g *Graph) Node(id NodeID) Node {
	if id < 0 || int(id) >= len(g.nodes) {
		panic(fmt.Errorf("%w: id %d out of range [0, %d)", ErrInvalidNode, id, len(g.nodes)))
	}
	return Node{g: g, id: id}
}

// push appends n, evaluating its value from the current operand values.
func (g *Graph) push(n node) Node {
	if n.op != OpInput {
		n.value = g.eval(&n)
	}
	id := NodeID(len(g.nodes))
	g.nodes = append(g.nodes, n)
	return Node{g: g, id: id}
}
