package autograd

// order returns the ids reachable from root in topological order: every node
// appears after all of its operands, and each distinct node appears once.
func (g *Graph) order(root NodeID) []NodeID {
	// Operands always have smaller ids, so root+1 slots cover the reachable set.
	visited := make([]bool, root+1)
	topo := make([]NodeID, 0, root+1)

	// Iterative DFS using explicit stack
	type stackItem struct {
		id       NodeID
		expanded bool
	}
	stack := []stackItem{{root, false}}

	for len(stack) > 0 {
		item := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if item.expanded {
			topo = append(topo, item.id)
			continue
		}
		if visited[item.id] {
			continue
		}
		visited[item.id] = true

		// Emit after operands
		stack = append(stack, stackItem{item.id, true})

		n := &g.nodes[item.id]
		switch n.op.Arity() {
		case 2:
			if !visited[n.b] {
				stack = append(stack, stackItem{n.b, false})
			}
			fallthrough
		case 1:
			if !visited[n.a] {
				stack = append(stack, stackItem{n.a, false})
			}
		}
	}
	return topo
}

// Reachable returns every node reachable from root, operands before the
// nodes that consume them, ending with root.
func Reachable(root Node) []Node {
	root.state()
	ids := root.g.order(root.id)
	out := make([]Node, len(ids))
	for i, id := range ids {
		out[i] = Node{root.g, id}
	}
	return out
}

// Forward recomputes the cached value of root and of every derived node it
// depends on, operands first. Each shared node is recomputed once. Input
// values are left as set.
func Forward(root Node) {
	root.state()
	g := root.g
	for _, id := range g.order(root.id) {
		n := &g.nodes[id]
		if n.op != OpInput {
			n.value = g.eval(n)
		}
	}
}

// Backprop seeds root's gradient with 1 and propagates it to every node
// reachable from root. Each node's Back runs exactly once, after every node
// that consumes it has pushed into it, so afterwards Grad() holds ∂root/∂n.
//
// Backprop accumulates into whatever gradients are already present; call
// Reset between steps.
func Backprop(root Node) {
	root.state()
	g := root.g
	topo := g.order(root.id)

	g.nodes[root.id].grad += 1
	for i := len(topo) - 1; i >= 0; i-- {
		g.back(topo[i])
	}
}

// Reset zeroes the gradient of root and every node reachable from it.
func Reset(root Node) {
	root.state()
	g := root.g
	visited := make([]bool, root.id+1)
	visited[root.id] = true
	g.nodes[root.id].grad = 0

	queue := []NodeID{root.id}
	for len(queue) > 0 {
		id := queue[len(queue)-1]
		queue = queue[:len(queue)-1]

		n := &g.nodes[id]
		deps := [2]NodeID{n.a, n.b}
		for _, dep := range deps[:n.op.Arity()] {
			if !visited[dep] {
				visited[dep] = true
				g.nodes[dep].grad = 0
				queue = append(queue, dep)
			}
		}
	}
}
