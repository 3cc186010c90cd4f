package fgraph

// Diagnostics describes what the last linearization silently dropped.
type Diagnostics struct {
	// Unreachable lists registered nodes not reachable backwards from the
	// final node, in registration order. They are never initialized or
	// computed.
	Unreachable []string

	// BackEdges lists connections that closed a cycle during the walk. The
	// order was built as if they did not exist.
	BackEdges []Link
}

// Diagnostics returns the findings of the last Finalize.
func (g *Graph) Diagnostics() Diagnostics {
	return g.diag
}

// linearize rebuilds g.order with a depth-first walk from the final node
// along input connections.
//
// A node is marked visited on entry and appended once all of its producers
// have been appended, so every producer precedes its consumers, including
// producers shared by several consumers. Producers are visited in input
// registration order, then connection order. The visited set bounds the walk
// on cyclic graphs; an edge back into the current path is skipped.
func (g *Graph) linearize() {
	n := len(g.byIndex)
	visited := make([]bool, n)
	onPath := make([]bool, n)
	order := g.order[:0]
	var backEdges []Link

	var visit func(ref NodeRef)
	visit = func(ref NodeRef) {
		e, ok := g.entry(ref)
		if !ok || visited[e.index] {
			return
		}
		visited[e.index] = true
		onPath[e.index] = true

		for _, slot := range e.pass.Ports().InputSlots() {
			to := PlugRef{Node: ref, Slot: slot}
			for _, from := range e.links[slot] {
				if pe, ok := g.entry(from.Node); ok && onPath[pe.index] {
					backEdges = append(backEdges, g.describe(from, to))
				}
				visit(from.Node)
			}
		}

		onPath[e.index] = false
		order = append(order, ref)
	}

	if !g.final.IsZero() {
		visit(g.final)
	}

	g.order = order

	var unreachable []string
	for _, ref := range g.byIndex {
		if e, ok := g.entry(ref); ok && !visited[e.index] {
			unreachable = append(unreachable, e.pass.Name())
		}
	}
	g.diag = Diagnostics{Unreachable: unreachable, BackEdges: backEdges}
}
