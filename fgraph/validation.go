package fgraph

import (
	"fmt"
	"strings"
)

// Validate checks the wiring without changing it. It reports
// ErrNoFinalNode, ErrCycleDetected (anywhere in the graph, with the cycle
// path) and ErrUnreachableNodes (relative to the final node), in that order.
//
// Finalize never calls Validate on its own: cycles and dead passes are
// tolerated at runtime. Use it in debug builds and tests.
func (g *Graph) Validate() error {
	if _, ok := g.entry(g.final); !ok {
		return ErrNoFinalNode
	}

	if err := g.detectCycles(); err != nil {
		return fmt.Errorf("frame graph validation failed: %w", err)
	}

	if err := g.validateReachable(); err != nil {
		return fmt.Errorf("frame graph validation failed: %w", err)
	}

	return nil
}

// detectCycles runs a DFS from every node along producer -> consumer edges.
// Time complexity: O(V + E).
func (g *Graph) detectCycles() error {
	n := len(g.byIndex)
	visited := make([]bool, n)
	recStack := make([]bool, n)

	var dfs func(NodeRef, []string) error
	dfs = func(ref NodeRef, path []string) error {
		e, ok := g.entry(ref)
		if !ok {
			return nil
		}
		visited[e.index] = true
		recStack[e.index] = true
		path = append(path, e.pass.Name())

		for _, slot := range e.pass.Ports().OutputSlots() {
			for _, to := range e.links[slot] {
				ce, ok := g.entry(to.Node)
				if !ok {
					continue
				}
				if !visited[ce.index] {
					if err := dfs(to.Node, path); err != nil {
						return err
					}
				} else if recStack[ce.index] {
					cyclePath := append(path, ce.pass.Name())
					return fmt.Errorf("%w: %s", ErrCycleDetected, strings.Join(cyclePath, " -> "))
				}
			}
		}

		recStack[e.index] = false
		return nil
	}

	for _, ref := range g.byIndex {
		e, ok := g.entry(ref)
		if !ok || visited[e.index] {
			continue
		}
		if err := dfs(ref, nil); err != nil {
			return err
		}
	}
	return nil
}

// validateReachable checks that every node feeds the final node.
func (g *Graph) validateReachable() error {
	reachable := make([]bool, len(g.byIndex))

	var mark func(NodeRef)
	mark = func(ref NodeRef) {
		e, ok := g.entry(ref)
		if !ok || reachable[e.index] {
			return
		}
		reachable[e.index] = true
		for _, slot := range e.pass.Ports().InputSlots() {
			for _, from := range e.links[slot] {
				mark(from.Node)
			}
		}
	}
	mark(g.final)

	var dead []string
	for _, ref := range g.byIndex {
		if e, ok := g.entry(ref); ok && !reachable[e.index] {
			dead = append(dead, e.pass.Name())
		}
	}
	if len(dead) > 0 {
		return fmt.Errorf("%w: %s", ErrUnreachableNodes, strings.Join(dead, ", "))
	}
	return nil
}
