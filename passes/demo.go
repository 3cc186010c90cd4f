package passes

import (
	"github.com/birdayz/framegraph/fgraph"
	"github.com/birdayz/framegraph/fnode"
)

// Node names used by BuildDemo.
const (
	DemoAssets   = "assets"
	DemoGBuffer  = "gbuffer"
	DemoLighting = "lighting"
	DemoSkybox   = "skybox"
	DemoPost     = "post"
	DemoBlit     = "blit"
	DemoOverlay  = "debug"

	// DemoOverlayAnchor and DemoOverlayInput locate the connection the debug
	// overlay is spliced into.
	DemoOverlayAnchor = DemoBlit
	DemoOverlayInput  = "color"
)

// BuildDemo wires the reference frame into g:
//
//	assets -> gbuffer -> {lighting, skybox} -> post -> blit
func BuildDemo(g *fgraph.Graph, dev *Device) error {
	nodes := []fnode.Pass{
		NewAsset(dev, DemoAssets, 64),
		NewGBuffer(dev, DemoGBuffer),
		NewLighting(dev, DemoLighting),
		NewSkybox(dev, DemoSkybox),
		NewPostProcess(dev, DemoPost),
		NewFinalBlit(dev, DemoBlit),
	}
	for _, n := range nodes {
		if _, err := g.AddNode(n); err != nil {
			return err
		}
	}

	links := [][4]string{
		{DemoAssets, "meshes", DemoGBuffer, "meshes"},
		{DemoGBuffer, "albedo", DemoLighting, "albedo"},
		{DemoGBuffer, "normal", DemoLighting, "normal"},
		{DemoGBuffer, "depth", DemoSkybox, "depth"},
		{DemoLighting, "hdr", DemoPost, "lit"},
		{DemoSkybox, "sky", DemoPost, "sky"},
		{DemoPost, "color", DemoBlit, "color"},
	}
	for _, l := range links {
		if err := g.ConnectNodes(l[0], l[1], l[2], l[3]); err != nil {
			return err
		}
	}
	return g.SetFinalNode(DemoBlit)
}

// MustBuildDemo is like BuildDemo but panics on error.
func MustBuildDemo(g *fgraph.Graph, dev *Device) {
	if err := BuildDemo(g, dev); err != nil {
		panic(err)
	}
}

// OverlayFactory returns a constructor for debug overlays on dev, in the
// shape the engine expects.
func OverlayFactory(dev *Device) func() fnode.Pass {
	return func() fnode.Pass {
		return NewDebugOverlay(dev, DemoOverlay)
	}
}
