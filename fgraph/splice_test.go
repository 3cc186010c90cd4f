package fgraph

import (
	"errors"
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/birdayz/framegraph/fnode"
)

func newOverlay(rec *recorder) *TestPass {
	return newTestPass(rec, "debug", "debug-overlay", []string{"scene"}, []string{"composited"})
}

func TestInsertNode(t *testing.T) {
	t.Run("debug overlay between post and blit", func(t *testing.T) {
		rec := &recorder{}
		g := renderGraph(rec)
		g.MustFinalize(t.Context())

		assert.NoError(t, g.InsertNode(newOverlay(rec), "blit", "color", WithExpectedType("debug-overlay")))
		assert.True(t, g.Dirty())

		producers, err := g.Producers("blit", "color")
		assert.NoError(t, err)
		assert.Equal(t, []Link{{Producer: "debug", ProducerPlug: "composited", Consumer: "blit", ConsumerPlug: "color"}}, producers)

		producers, err = g.Producers("debug", "scene")
		assert.NoError(t, err)
		assert.Equal(t, []Link{{Producer: "post", ProducerPlug: "color", Consumer: "debug", ConsumerPlug: "scene"}}, producers)

		out, _ := g.Connections("post", "color")
		assert.Equal(t, []PlugRef{g.MustInputRef("debug", "scene")}, out)

		g.MustFinalize(t.Context())
		order := g.Order()
		assert.Equal(t, 7, len(order))
		assert.True(t, indexIn(order, "post") < indexIn(order, "debug"))
		assert.True(t, indexIn(order, "debug") < indexIn(order, "blit"))
	})

	t.Run("explicit plugs", func(t *testing.T) {
		rec := &recorder{}
		g, _ := chain(rec, "a", "b")
		p := newTestPass(rec, "mid", "test", []string{"aux", "main"}, []string{"x", "y"})

		assert.NoError(t, g.InsertNode(p, "b", "in", WithSplicePlugs("main", "y")))
		producers, _ := g.Producers("b", "in")
		assert.Equal(t, "mid.y -> b.in", producers[0].String())
		producers, _ = g.Producers("mid", "main")
		assert.Equal(t, "a.out -> mid.main", producers[0].String())
	})

	t.Run("anchor without a connection", func(t *testing.T) {
		rec := &recorder{}
		g := New()
		g.MustAddNode(newTestPass(rec, "b", "test", []string{"in"}, nil))
		err := g.InsertNode(newOverlay(rec), "b", "in")
		assert.True(t, errors.Is(err, ErrFanIn))
		assert.Equal(t, 1, g.Len())
	})

	t.Run("anchor with fan-in", func(t *testing.T) {
		rec := &recorder{}
		g := New()
		g.MustAddNode(newTestPass(rec, "x", "test", nil, []string{"out"}))
		g.MustAddNode(newTestPass(rec, "y", "test", nil, []string{"out"}))
		g.MustAddNode(newTestPass(rec, "b", "test", []string{"in"}, nil))
		g.MustConnectNodes("x", "out", "b", "in")
		g.MustConnectNodes("y", "out", "b", "in")

		err := g.InsertNode(newOverlay(rec), "b", "in")
		assert.True(t, errors.Is(err, ErrFanIn))
		in, _ := g.Connections("b", "in")
		assert.Equal(t, 2, len(in))
	})

	t.Run("type mismatch", func(t *testing.T) {
		rec := &recorder{}
		g, _ := chain(rec, "a", "b")
		err := g.InsertNode(newTestPass(rec, "mid", "post-process", []string{"in"}, []string{"out"}), "b", "in",
			WithExpectedType("debug-overlay"))
		assert.True(t, errors.Is(err, ErrTypeMismatch))
		assert.Equal(t, 2, g.Len())
	})

	t.Run("kind mismatch leaves the graph untouched", func(t *testing.T) {
		rec := &recorder{}
		g, _ := chain(rec, "a", "b")
		bad := fnode.NewFunc("mid", "test", nil, fnode.WithPlugs(
			fnode.InputPlug("in", fnode.KindGPUBuffer),
			fnode.OutputPlug("out", fnode.KindTexture),
		))
		err := g.InsertNode(bad, "b", "in")
		assert.True(t, errors.Is(err, ErrKindMismatch))
		assert.Equal(t, 2, g.Len())
		producers, _ := g.Producers("b", "in")
		assert.Equal(t, "a.out -> b.in", producers[0].String())
	})

	t.Run("name taken by another pass", func(t *testing.T) {
		rec := &recorder{}
		g, _ := chain(rec, "a", "b")
		err := g.InsertNode(newTestPass(rec, "a", "test", []string{"in"}, []string{"out"}), "b", "in")
		assert.True(t, errors.Is(err, ErrNodeAlreadyExists))
	})

	t.Run("already registered pass", func(t *testing.T) {
		rec := &recorder{}
		g, _ := chain(rec, "a", "b")
		p := newOverlay(rec)
		g.MustAddNode(p)
		assert.NoError(t, g.InsertNode(p, "b", "in"))
		assert.Equal(t, 3, g.Len())
	})
}

func TestRemoveNode(t *testing.T) {
	t.Run("insert then remove restores the edge", func(t *testing.T) {
		rec := &recorder{}
		g := renderGraph(rec)
		g.MustFinalize(t.Context())
		before := g.Links()

		overlay := newOverlay(rec)
		g.MustInsertNode(overlay, "blit", "color")
		g.MustFinalize(t.Context())
		assert.NoError(t, g.Compute(t.Context()))

		removed, err := g.RemoveNode("debug", WithExpectedType("debug-overlay"))
		assert.NoError(t, err)
		assert.Equal(t, fnode.Pass(overlay), removed)
		assert.True(t, g.Dirty())

		producers, _ := g.Producers("blit", "color")
		assert.Equal(t, []Link{{Producer: "post", ProducerPlug: "color", Consumer: "blit", ConsumerPlug: "color"}}, producers)
		out, _ := g.Connections("post", "color")
		assert.Equal(t, 1, len(out))
		assert.Equal(t, before, g.Links())

		_, ok := g.Node("debug")
		assert.False(t, ok)
		g.MustFinalize(t.Context())
		assert.Equal(t, []string{"assets", "gbuffer", "lighting", "skybox", "post", "blit"}, g.Order())
	})

	t.Run("fans out to every consumer", func(t *testing.T) {
		rec := &recorder{}
		g := New()
		g.MustAddNode(newTestPass(rec, "src", "test", nil, []string{"out"}))
		g.MustAddNode(newTestPass(rec, "mid", "test", []string{"in"}, []string{"out"}))
		g.MustAddNode(newTestPass(rec, "x", "test", []string{"in"}, nil))
		g.MustAddNode(newTestPass(rec, "y", "test", []string{"in"}, nil))
		g.MustConnectNodes("src", "out", "mid", "in")
		g.MustConnectNodes("mid", "out", "x", "in")
		g.MustConnectNodes("mid", "out", "y", "in")

		_, err := g.RemoveNode("mid")
		assert.NoError(t, err)
		out, _ := g.Connections("src", "out")
		assert.Equal(t, 2, len(out))
		for _, name := range []string{"x", "y"} {
			producers, _ := g.Producers(name, "in")
			assert.Equal(t, 1, len(producers))
			assert.Equal(t, "src", producers[0].Producer)
		}
	})

	t.Run("final node is refused", func(t *testing.T) {
		rec := &recorder{}
		g, _ := chain(rec, "a", "b")
		_, err := g.RemoveNode("b")
		assert.True(t, errors.Is(err, ErrInvalidGraph))
	})

	t.Run("no producer", func(t *testing.T) {
		rec := &recorder{}
		g, _ := chain(rec, "a", "b", "c")
		_, err := g.RemoveNode("a")
		assert.True(t, errors.Is(err, ErrPlugNotFound))

		assert.NoError(t, g.Disconnect("a", "out", "b", "in"))
		_, err = g.RemoveNode("b")
		assert.True(t, errors.Is(err, ErrFanIn))
	})

	t.Run("other live connections", func(t *testing.T) {
		rec := &recorder{}
		g := New()
		g.MustAddNode(newTestPass(rec, "src", "test", nil, []string{"out"}))
		g.MustAddNode(newTestPass(rec, "aux", "test", nil, []string{"out"}))
		g.MustAddNode(newTestPass(rec, "mid", "test", []string{"in", "extra"}, []string{"out"}))
		g.MustAddNode(newTestPass(rec, "dst", "test", []string{"in"}, nil))
		g.MustConnectNodes("src", "out", "mid", "in")
		g.MustConnectNodes("aux", "out", "mid", "extra")
		g.MustConnectNodes("mid", "out", "dst", "in")

		_, err := g.RemoveNode("mid")
		assert.True(t, errors.Is(err, ErrInvalidGraph))
		assert.Equal(t, 4, g.Len())
	})

	t.Run("type mismatch", func(t *testing.T) {
		rec := &recorder{}
		g, _ := chain(rec, "a", "b", "c")
		_, err := g.RemoveNode("b", WithExpectedType("debug-overlay"))
		assert.True(t, errors.Is(err, ErrTypeMismatch))
		assert.Equal(t, 3, g.Len())
	})

	t.Run("unknown node", func(t *testing.T) {
		g := New()
		_, err := g.RemoveNode("nope")
		assert.True(t, errors.Is(err, ErrNodeNotFound))
		assert.Panics(t, func() { g.MustRemoveNode("nope") })
	})
}
