package fviz

import (
	"strings"
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/birdayz/framegraph/fgraph"
	"github.com/birdayz/framegraph/fnode"
	"github.com/birdayz/framegraph/passes"
)

func demoGraph(t *testing.T) *fgraph.Graph {
	t.Helper()
	g := fgraph.New(fgraph.WithSize(64, 64))
	assert.NoError(t, passes.BuildDemo(g, passes.NewDevice()))
	return g
}

func TestToDOT(t *testing.T) {
	t.Run("finalized demo", func(t *testing.T) {
		g := demoGraph(t)
		g.MustFinalize(t.Context())

		dot := ToDOT(g, Options{})
		assert.True(t, strings.HasPrefix(dot, "digraph framegraph {\n"))
		assert.Contains(t, dot, `"assets" [label="assets"];`)
		assert.Contains(t, dot, `"blit" [label="blit", peripheries=2];`)
		assert.Contains(t, dot, `"gbuffer" -> "lighting";`)
		assert.Contains(t, dot, `"post" -> "blit";`)
		assert.Equal(t, 7, strings.Count(dot, " -> "))

		// execution order
		assert.True(t, strings.Index(dot, `"skybox" [`) < strings.Index(dot, `"post" [`))
	})

	t.Run("detailed labels and plugs", func(t *testing.T) {
		g := demoGraph(t)
		g.MustFinalize(t.Context())

		dot := ToDOT(g, Options{Detailed: true, PlugLabels: true})
		assert.Contains(t, dot, `label="gbuffer\ntype: gbuffer\norder: 1"`)
		assert.Contains(t, dot, `"skybox" -> "post" [label="sky -> sky"];`)
	})

	t.Run("unreachable nodes are dashed", func(t *testing.T) {
		g := demoGraph(t)
		g.MustAddNode(fnode.NewFunc("orphan", "test", nil))
		g.MustFinalize(t.Context())

		dot := ToDOT(g, Options{})
		assert.Contains(t, dot, `"orphan" [label="orphan", style="rounded,filled,dashed", fillcolor=lightgrey, fontcolor=dimgrey];`)
	})

	t.Run("back edges are marked", func(t *testing.T) {
		g := fgraph.New()
		for _, name := range []string{"a", "b"} {
			g.MustAddNode(fnode.NewFunc(name, "test", nil, fnode.WithPlugs(
				fnode.InputPlug("in", fnode.KindTexture),
				fnode.OutputPlug("out", fnode.KindTexture),
			)))
		}
		g.MustConnectNodes("a", "out", "b", "in")
		g.MustConnectNodes("b", "out", "a", "in")
		g.MustSetFinalNode("b")
		g.MustFinalize(t.Context())

		dot := ToDOT(g, Options{})
		assert.Contains(t, dot, `"b" -> "a" [color=red, style=dashed, constraint=false];`)
		assert.Contains(t, dot, `"a" -> "b";`)
	})

	t.Run("pending edits", func(t *testing.T) {
		g := demoGraph(t)
		dot := ToDOT(g, Options{})
		assert.Equal(t, 6, strings.Count(dot, "dashed"))
	})
}

func TestRenderSVG(t *testing.T) {
	g := demoGraph(t)
	g.MustFinalize(t.Context())

	svg, err := RenderSVG(t.Context(), ToDOT(g, Options{}))
	assert.NoError(t, err)
	assert.Contains(t, string(svg), "<svg")
	assert.Contains(t, string(svg), "gbuffer")
}
