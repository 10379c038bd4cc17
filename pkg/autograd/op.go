package autograd

import (
	"math"
)

// Op identifies the operation that produced a node.
type Op uint8

const (
	OpInput Op = iota // leaf; value set by client code
	OpAdd             // a + b
	OpSub             // a - b
	OpMul             // a * b
	OpTanh            // tanh(a)
	OpExp             // e^a
	OpReLU            // max(0, a)
	OpPow             // a^k for a constant k
)

var opNames = [...]string{
	OpInput: "input",
	OpAdd:   "add",
	OpSub:   "sub",
	OpMul:   "mul",
	OpTanh:  "tanh",
	OpExp:   "exp",
	OpReLU:  "relu",
	OpPow:   "pow",
}

func (o Op) String() string {
	if int(o) < len(opNames) {
		return opNames[o]
	}
	return "unknown"
}

// Arity returns the number of operands taken by the operation.
func (o Op) Arity() int {
	switch o {
	case OpInput:
		return 0
	case OpTanh, OpExp, OpReLU, OpPow:
		return 1
	default:
		return 2
	}
}

// eval computes n's value from the current values of its operands.
func (g *Graph) eval(n *node) float32 {
	switch n.op {
	case OpAdd:
		return g.nodes[n.a].value + g.nodes[n.b].value
	case OpSub:
		return g.nodes[n.a].value - g.nodes[n.b].value
	case OpMul:
		return g.nodes[n.a].value * g.nodes[n.b].value
	case OpTanh:
		return float32(math.Tanh(float64(g.nodes[n.a].value)))
	case OpExp:
		return float32(math.Exp(float64(g.nodes[n.a].value)))
	case OpReLU:
		return max(0, g.nodes[n.a].value)
	case OpPow:
		return float32(math.Pow(float64(g.nodes[n.a].value), float64(n.k)))
	default:
		return n.value
	}
}

// back pushes the gradient of node id into its direct operands.
func (g *Graph) back(id NodeID) {
	n := &g.nodes[id]
	grad := n.grad
	switch n.op {
	case OpAdd:
		g.nodes[n.a].grad += grad
		g.nodes[n.b].grad += grad
	case OpSub:
		g.nodes[n.a].grad += grad
		if g.legacySubtract {
			g.nodes[n.b].grad += grad
		} else {
			g.nodes[n.b].grad -= grad
		}
	case OpMul:
		a, b := &g.nodes[n.a], &g.nodes[n.b]
		if n.a == n.b {
			// d(x*x)/dx = 2x
			a.grad += grad * 2 * a.value
			return
		}
		a.grad += grad * b.value
		b.grad += grad * a.value
	case OpTanh:
		t := n.value
		g.nodes[n.a].grad += grad * (1 - t*t)
	case OpExp:
		g.nodes[n.a].grad += grad * n.value
	case OpReLU:
		if g.nodes[n.a].value > 0 {
			g.nodes[n.a].grad += grad
		}
	case OpPow:
		x := float64(g.nodes[n.a].value)
		g.nodes[n.a].grad += grad * n.k * float32(math.Pow(x, float64(n.k)-1))
	}
}
