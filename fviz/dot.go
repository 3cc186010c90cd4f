// Package fviz renders a frame graph as a Graphviz node-link diagram.
package fviz

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/birdayz/framegraph/fgraph"
)

// Options configures DOT export.
type Options struct {
	// Detailed adds the type tag and execution position to node labels.
	Detailed bool

	// PlugLabels labels every edge with its producer and consumer plug.
	PlugLabels bool
}

// ToDOT converts g to Graphviz DOT format. Nodes are listed in execution
// order followed by nodes left out of it. Nodes that do not run are drawn
// dashed and grey; the final node gets a double border.
//
// The execution order is only known after Finalize. On a graph with pending
// edits every node is drawn as not running.
func ToDOT(g *fgraph.Graph, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph framegraph {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  edge [fontsize=10];\n")
	buf.WriteString("\n")

	order := g.Order()
	position := make(map[string]int, len(order))
	for i, name := range order {
		position[name] = i
	}

	names := append([]string(nil), order...)
	for _, name := range g.Names() {
		if _, ok := position[name]; !ok {
			names = append(names, name)
		}
	}

	final := g.FinalNode()
	for _, name := range names {
		pos, runs := position[name]
		label := name
		if opts.Detailed {
			label = fmtLabel(g, name, pos, runs)
		}
		attrs := []string{fmt.Sprintf("label=%q", label)}
		if !runs {
			attrs = append(attrs, "style=\"rounded,filled,dashed\"", "fillcolor=lightgrey", "fontcolor=dimgrey")
		}
		if name == final {
			attrs = append(attrs, "peripheries=2")
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", name, strings.Join(attrs, ", "))
	}

	back := make(map[fgraph.Link]bool)
	if !g.Dirty() {
		for _, l := range g.Diagnostics().BackEdges {
			back[l] = true
		}
	}

	buf.WriteString("\n")
	for _, l := range g.Links() {
		var attrs []string
		if opts.PlugLabels {
			attrs = append(attrs, fmt.Sprintf("label=%q", l.ProducerPlug+" -> "+l.ConsumerPlug))
		}
		if back[l] {
			attrs = append(attrs, "color=red", "style=dashed", "constraint=false")
		}
		if len(attrs) == 0 {
			fmt.Fprintf(&buf, "  %q -> %q;\n", l.Producer, l.Consumer)
			continue
		}
		fmt.Fprintf(&buf, "  %q -> %q [%s];\n", l.Producer, l.Consumer, strings.Join(attrs, ", "))
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(g *fgraph.Graph, name string, pos int, runs bool) string {
	parts := []string{name}
	if p, ok := g.Node(name); ok {
		parts = append(parts, "type: "+p.Type())
	}
	if runs {
		parts = append(parts, fmt.Sprintf("order: %d", pos))
	} else {
		parts = append(parts, "order: -")
	}
	return strings.Join(parts, "\n")
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}
