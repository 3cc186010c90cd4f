package passes

import (
	"errors"
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/go-logr/logr"

	"github.com/birdayz/framegraph/fgraph"
	"github.com/birdayz/framegraph/fnode"
)

func newDemo(t *testing.T) (*fgraph.Graph, *Device) {
	t.Helper()
	dev := NewDevice()
	g := fgraph.New(fgraph.WithSize(1280, 720))
	assert.NoError(t, BuildDemo(g, dev))
	assert.NoError(t, g.Validate())
	return g, dev
}

func TestDevice(t *testing.T) {
	dev := NewDevice()
	a := dev.Alloc(Resource{Kind: fnode.KindTexture, Owner: "x", Width: 4, Height: 4})
	b := dev.Alloc(Resource{Kind: fnode.KindGPUBuffer, Owner: "y"})
	assert.NotEqual(t, a, b)
	assert.Equal(t, 2, dev.Live(""))
	assert.Equal(t, 1, dev.Live("x"))

	r, ok := dev.Lookup(a)
	assert.True(t, ok)
	assert.Equal(t, uint32(4), r.Width)

	assert.NoError(t, dev.Free(a))
	assert.True(t, errors.Is(dev.Free(a), ErrUnknownHandle))
	assert.Equal(t, 1, dev.Live(""))

	dev.Record("cmd %d", 1)
	assert.Equal(t, []string{"cmd 1"}, dev.Present())
	assert.Equal(t, 0, len(dev.Present()))
}

func TestDemoFrame(t *testing.T) {
	g, dev := newDemo(t)
	assert.NoError(t, g.Finalize(t.Context()))
	assert.Equal(t, []string{DemoAssets, DemoGBuffer, DemoLighting, DemoSkybox, DemoPost, DemoBlit}, g.Order())

	// mesh stream + 3 gbuffer + hdr + sky + color
	assert.Equal(t, 7, dev.Live(""))

	assert.NoError(t, g.Compute(t.Context()))
	cmds := dev.Present()
	assert.Equal(t, 6, len(cmds))
	assert.Contains(t, cmds[0], "upload assets")
	assert.Contains(t, cmds[5], "blit blit")

	node, _ := g.Node(DemoBlit)
	blit := node.(*FinalBlit)
	post, _ := g.Node(DemoPost)
	assert.Equal(t, post.(*PostProcess).Target(0), blit.Last())
	assert.Equal(t, uint64(1), blit.Presented())
}

func TestDemoResize(t *testing.T) {
	g, dev := newDemo(t)
	assert.NoError(t, g.Finalize(t.Context()))

	node, _ := g.Node(DemoLighting)
	before := node.(*Lighting).Target(0)

	assert.NoError(t, g.Resize(640, 360))
	after := node.(*Lighting).Target(0)
	assert.NotEqual(t, before, after)

	r, ok := dev.Lookup(uint32(after))
	assert.True(t, ok)
	assert.Equal(t, uint32(640), r.Width)
	assert.Equal(t, uint32(360), r.Height)
	_, ok = dev.Lookup(uint32(before))
	assert.False(t, ok)
	assert.Equal(t, 7, dev.Live(""))
}

func TestDemoOverlay(t *testing.T) {
	g, dev := newDemo(t)
	assert.NoError(t, g.Finalize(t.Context()))

	overlay := OverlayFactory(dev)()
	assert.NoError(t, g.InsertNode(overlay, DemoOverlayAnchor, DemoOverlayInput,
		fgraph.WithExpectedType(TypeDebugOverlay)))
	assert.NoError(t, g.Finalize(t.Context()))
	assert.NoError(t, g.Compute(t.Context()))

	node, _ := g.Node(DemoBlit)
	assert.Equal(t, overlay.(*DebugOverlay).Target(0), node.(*FinalBlit).Last())

	removed, err := g.RemoveNode(DemoOverlay, fgraph.WithExpectedType(TypeDebugOverlay))
	assert.NoError(t, err)
	assert.NoError(t, removed.Clear())
	assert.Equal(t, 0, dev.Live(DemoOverlay))

	assert.NoError(t, g.Finalize(t.Context()))
	assert.NoError(t, g.Compute(t.Context()))
	post, _ := g.Node(DemoPost)
	assert.Equal(t, post.(*PostProcess).Target(0), node.(*FinalBlit).Last())
}

func TestTeardownReleasesEverything(t *testing.T) {
	g, dev := newDemo(t)
	assert.NoError(t, g.Finalize(t.Context()))
	assert.NoError(t, g.Compute(t.Context()))
	assert.NoError(t, g.Clear())
	assert.Equal(t, 0, dev.Live(""))
}

func TestComputeBeforeInitialize(t *testing.T) {
	dev := NewDevice()
	a := NewAsset(dev, "assets", 1)
	err := a.Compute(fnode.NewContext(t.Context(), fnode.FrameInfo{}, logr.Discard(), nil, nil))
	assert.True(t, errors.Is(err, ErrNotInitialized))
}
