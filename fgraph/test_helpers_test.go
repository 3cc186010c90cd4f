package fgraph

import (
	"fmt"

	"github.com/birdayz/framegraph/fnode"
)

// recorder collects lifecycle calls of test passes in call order.
type recorder struct {
	events []string
}

func (r *recorder) add(format string, args ...any) {
	r.events = append(r.events, fmt.Sprintf(format, args...))
}

func (r *recorder) filter(prefix string) []string {
	var out []string
	for _, e := range r.events {
		if len(e) > len(prefix) && e[:len(prefix)] == prefix {
			out = append(out, e[len(prefix):])
		}
	}
	return out
}

func (r *recorder) reset() {
	r.events = nil
}

// TestPass is a texture-only pass that records its lifecycle and writes its
// own id to every output.
type TestPass struct {
	fnode.Base

	rec *recorder
	id  uint32

	computeErr error
	initErr    error
	clearErr   error
	resizeErr  error

	// seen holds the values read from every input during the last compute.
	seen map[string][]fnode.Value
}

var nextTestID uint32

func newTestPass(rec *recorder, name, typeTag string, inputs, outputs []string) *TestPass {
	nextTestID++
	p := &TestPass{
		Base: fnode.NewBase(name, typeTag),
		rec:  rec,
		id:   nextTestID,
		seen: make(map[string][]fnode.Value),
	}
	for _, in := range inputs {
		p.Ports().MustRegisterPlug(fnode.InputPlug(in, fnode.KindTexture))
	}
	for _, out := range outputs {
		p.Ports().MustRegisterPlug(fnode.OutputPlug(out, fnode.KindTexture))
	}
	return p
}

func (p *TestPass) Initialize(*fnode.Context) error {
	p.rec.add("init:%s", p.Name())
	return p.initErr
}

func (p *TestPass) Compute(ctx *fnode.Context) error {
	p.rec.add("compute:%s", p.Name())
	if p.computeErr != nil {
		return p.computeErr
	}
	for _, in := range p.Ports().Inputs() {
		values, err := ctx.Inputs(in.Name)
		if err != nil {
			return err
		}
		p.seen[in.Name] = values
	}
	for _, out := range p.Ports().Outputs() {
		if err := ctx.SetOutput(out.Name, fnode.TextureValue(fnode.TextureHandle(p.id))); err != nil {
			return err
		}
	}
	return nil
}

func (p *TestPass) Clear() error {
	p.rec.add("clear:%s", p.Name())
	return p.clearErr
}

func (p *TestPass) Resize(width, height uint32) error {
	p.rec.add("resize:%s:%dx%d", p.Name(), width, height)
	return p.resizeErr
}

// chain builds a -> b -> ... with "in"/"out" plugs and sets the last node as final.
func chain(rec *recorder, names ...string) (*Graph, []*TestPass) {
	g := New()
	passes := make([]*TestPass, len(names))
	for i, name := range names {
		var ins, outs []string
		if i > 0 {
			ins = []string{"in"}
		}
		outs = []string{"out"}
		passes[i] = newTestPass(rec, name, "test", ins, outs)
		g.MustAddNode(passes[i])
	}
	for i := 1; i < len(names); i++ {
		g.MustConnectNodes(names[i-1], "out", names[i], "in")
	}
	g.MustSetFinalNode(names[len(names)-1])
	return g, passes
}

// renderGraph builds the reference frame:
//
//	assets -> gbuffer -> {lighting, skybox} -> post -> blit
func renderGraph(rec *recorder) *Graph {
	g := New()
	g.MustAddNode(newTestPass(rec, "assets", "asset", nil, []string{"meshes"}))
	g.MustAddNode(newTestPass(rec, "gbuffer", "gbuffer", []string{"meshes"}, []string{"albedo", "normal", "depth"}))
	g.MustAddNode(newTestPass(rec, "lighting", "lighting", []string{"albedo", "normal"}, []string{"hdr"}))
	g.MustAddNode(newTestPass(rec, "skybox", "skybox", []string{"depth"}, []string{"sky"}))
	g.MustAddNode(newTestPass(rec, "post", "post-process", []string{"lit", "sky"}, []string{"color"}))
	g.MustAddNode(newTestPass(rec, "blit", "final-blit", []string{"color"}, []string{"swapchain"}))

	g.MustConnectNodes("assets", "meshes", "gbuffer", "meshes")
	g.MustConnectNodes("gbuffer", "albedo", "lighting", "albedo")
	g.MustConnectNodes("gbuffer", "normal", "lighting", "normal")
	g.MustConnectNodes("gbuffer", "depth", "skybox", "depth")
	g.MustConnectNodes("lighting", "hdr", "post", "lit")
	g.MustConnectNodes("skybox", "sky", "post", "sky")
	g.MustConnectNodes("post", "color", "blit", "color")
	g.MustSetFinalNode("blit")
	return g
}

func indexIn(order []string, name string) int {
	for i, n := range order {
		if n == name {
			return i
		}
	}
	return -1
}
