package autograd

import (
	"fmt"
)

// Node is a handle to a node in a Graph. Handles are cheap to copy; two
// handles refer to the same node iff they compare equal.
type Node struct {
	g  *Graph
	id NodeID
}

// ID returns the node's index in its graph.
func (n Node) ID() NodeID {
	return n.id
}

// Graph returns the graph that owns the node.
func (n Node) Graph() *Graph {
	return n.g
}

// Valid reports whether n refers to a node.
func (n Node) Valid() bool {
	return n.g != nil
}

func (n Node) state() *node {
	if n.g == nil {
		panic(ErrInvalidNode)
	}
	return &n.g.nodes[n.id]
}

// Op returns the operation that produced the node.
func (n Node) Op() Op {
	return n.state().op
}

// IsInput reports whether n is a leaf.
func (n Node) IsInput() bool {
	return n.state().op == OpInput
}

// Value returns the cached forward value.
func (n Node) Value() float32 {
	return n.state().value
}

// SetValue sets the value of an Input node. Derived node values are a
// function of their operands, so SetValue panics for them.
func (n Node) SetValue(v float32) {
	s := n.state()
	if s.op != OpInput {
		panic(fmt.Errorf("%w: node %d is %s", ErrDerivedMutation, n.id, s.op))
	}
	s.value = v
}

// Grad returns the accumulated gradient.
func (n Node) Grad() float32 {
	return n.state().grad
}

// AddGrad accumulates delta into the gradient.
func (n Node) AddGrad(delta float32) {
	n.state().grad += delta
}

// ResetGrad zeroes the gradient.
func (n Node) ResetGrad() {
	n.state().grad = 0
}

// Dependencies returns the direct operands of n in operand order. A node
// used as both operands appears twice.
func (n Node) Dependencies() []Node {
	s := n.state()
	switch s.op.Arity() {
	case 0:
		return nil
	case 1:
		return []Node{{n.g, s.a}}
	default:
		return []Node{{n.g, s.a}, {n.g, s.b}}
	}
}

// Forward recomputes n and everything it depends on. See Forward.
func (n Node) Forward() {
	Forward(n)
}

// Back pushes n's current gradient into its direct operands using the local
// derivative of its operation. It does not recurse; Input nodes are a no-op.
func (n Node) Back() {
	n.state()
	n.g.back(n.id)
}

func (n Node) String() string {
	if n.g == nil {
		return "Node(invalid)"
	}
	s := n.state()
	return fmt.Sprintf("Node(id=%d, op=%s, value=%g, grad=%g)", n.id, s.op, s.value, s.grad)
}

// mustJoin checks that n and other can be combined and returns their graph.
func (n Node) mustJoin(other Node) *Graph {
	if n.g == nil || other.g == nil {
		panic(ErrInvalidNode)
	}
	if n.g != other.g {
		panic(fmt.Errorf("%w: nodes %d and %d", ErrForeignNode, n.id, other.id))
	}
	return n.g
}

func (n Node) unary(op Op, k float32) Node {
	if n.g == nil {
		panic(ErrInvalidNode)
	}
	return n.g.push(node{op: op, a: n.id, k: k})
}

func (n Node) binary(op Op, other Node) Node {
	return n.mustJoin(other).push(node{op: op, a: n.id, b: other.id})
}

// Add returns a new node representing n + other.
func (n Node) Add(other Node) Node {
	return n.binary(OpAdd, other)
}

// Sub returns a new node representing n - other.
func (n Node) Sub(other Node) Node {
	return n.binary(OpSub, other)
}

// Mul returns a new node representing n * other. n.Mul(n) is valid and
// differentiates as x².
func (n Node) Mul(other Node) Node {
	return n.binary(OpMul, other)
}

// Tanh returns a new node representing tanh(n).
func (n Node) Tanh() Node {
	return n.unary(OpTanh, 0)
}

// Exp returns a new node representing e^n.
func (n Node) Exp() Node {
	return n.unary(OpExp, 0)
}

// ReLU returns a new node representing max(0, n).
func (n Node) ReLU() Node {
	return n.unary(OpReLU, 0)
}

// Pow returns a new node representing n^exp for a constant exp.
func (n Node) Pow(exp float32) Node {
	return n.unary(OpPow, exp)
}

// Neg returns a new node representing -n, implemented as n * (-1).
func (n Node) Neg() Node {
	return n.MulScalar(-1)
}

// AddScalar returns n + k with k held in a fresh constant leaf.
func (n Node) AddScalar(k float32) Node {
	if n.g == nil {
		panic(ErrInvalidNode)
	}
	return n.Add(n.g.Scalar(k))
}

// MulScalar returns n * k with k held in a fresh constant leaf.
func (n Node) MulScalar(k float32) Node {
	if n.g == nil {
		panic(ErrInvalidNode)
	}
	return n.Mul(n.g.Scalar(k))
}

// Add returns a + b.
func Add(a, b Node) Node { return a.Add(b) }

// Subtract returns a - b.
func Subtract(a, b Node) Node { return a.Sub(b) }

// Multiply returns a * b.
func Multiply(a, b Node) Node { return a.Mul(b) }

// Tanh returns tanh(a).
func Tanh(a Node) Node { return a.Tanh() }

// Sum folds nodes left to right with Add. It panics if nodes is empty.
func Sum(nodes ...Node) Node {
	if len(nodes) == 0 {
		panic(fmt.Errorf("%w: Sum of no nodes", ErrInvalidNode))
	}
	acc := nodes[0]
	for _, n := range nodes[1:] {
		acc = acc.Add(n)
	}
	return acc
}
