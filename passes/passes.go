package passes

import (
	"errors"
	"fmt"
	"strings"

	"github.com/birdayz/framegraph/fnode"
)

var ErrNotInitialized = errors.New("pass not initialized")

// Type tags of the reference passes.
const (
	TypeAsset        = "asset"
	TypeGBuffer      = "gbuffer"
	TypeLighting     = "lighting"
	TypeSkybox       = "skybox"
	TypePostProcess  = "post-process"
	TypeDebugOverlay = "debug-overlay"
	TypeFinalBlit    = "final-blit"
)

// stage is a screen-space pass: it reads one texture per input plug and
// renders into one resolution-dependent texture per output plug.
type stage struct {
	fnode.Base

	dev     *Device
	verb    string
	inputs  []string
	targets targets
}

func newStage(dev *Device, name, typeTag, verb string, inputs, outputs []string) stage {
	s := stage{
		Base:    fnode.NewBase(name, typeTag),
		dev:     dev,
		verb:    verb,
		inputs:  inputs,
		targets: newTargets(dev, name, outputs...),
	}
	for _, in := range inputs {
		s.Ports().MustRegisterPlug(fnode.InputPlug(in, fnode.KindTexture))
	}
	for _, out := range outputs {
		s.Ports().MustRegisterPlug(fnode.OutputPlug(out, fnode.KindTexture))
	}
	return s
}

func (s *stage) Initialize(ctx *fnode.Context) error {
	s.targets.create(ctx.Frame.Width, ctx.Frame.Height)
	ctx.Log.V(1).Info("render targets created", "count", len(s.targets.handles),
		"width", ctx.Frame.Width, "height", ctx.Frame.Height)
	return nil
}

func (s *stage) Compute(ctx *fnode.Context) error {
	in, err := readTextures(ctx, s.inputs...)
	if err != nil {
		return err
	}
	if err := s.targets.publish(ctx); err != nil {
		return err
	}
	s.dev.Record("%s %s %s -> %s", s.verb, s.Name(), joinHandles(in), joinHandles(s.targets.handles))
	return nil
}

func (s *stage) Clear() error {
	return s.targets.release()
}

func (s *stage) Resize(width, height uint32) error {
	return s.targets.recreate(width, height)
}

// Target returns the texture written to the i-th output plug, or 0 before
// Initialize.
func (s *stage) Target(i int) fnode.TextureHandle {
	return s.targets.handle(i)
}

func joinHandles(hs []fnode.TextureHandle) string {
	parts := make([]string, len(hs))
	for i, h := range hs {
		parts[i] = fmt.Sprint(uint32(h))
	}
	return "[" + strings.Join(parts, ",") + "]"
}

// Asset publishes the scene's mesh stream.
type Asset struct {
	fnode.Base

	dev    *Device
	meshes int
	stream fnode.MeshStreamHandle
}

// NewAsset creates an asset pass streaming the given number of meshes.
func NewAsset(dev *Device, name string, meshes int) *Asset {
	a := &Asset{
		Base:   fnode.NewBase(name, TypeAsset),
		dev:    dev,
		meshes: meshes,
	}
	a.Ports().MustRegisterPlug(fnode.OutputPlug("meshes", fnode.KindMeshes))
	return a
}

func (a *Asset) Initialize(*fnode.Context) error {
	if a.stream == 0 {
		a.stream = fnode.MeshStreamHandle(a.dev.Alloc(Resource{Kind: fnode.KindMeshes, Owner: a.Name()}))
	}
	return nil
}

func (a *Asset) Compute(ctx *fnode.Context) error {
	if a.stream == 0 {
		return fmt.Errorf("%s: %w", a.Name(), ErrNotInitialized)
	}
	a.dev.Record("upload %s meshes=%d -> %d", a.Name(), a.meshes, uint32(a.stream))
	return ctx.SetOutput("meshes", fnode.MeshesValue(a.stream))
}

func (a *Asset) Clear() error {
	if a.stream == 0 {
		return nil
	}
	err := a.dev.Free(uint32(a.stream))
	a.stream = 0
	return err
}

// GBuffer rasterizes the scene into albedo, normal and depth targets.
type GBuffer struct {
	stage
}

func NewGBuffer(dev *Device, name string) *GBuffer {
	g := &GBuffer{stage: newStage(dev, name, TypeGBuffer, "raster", nil, []string{"albedo", "normal", "depth"})}
	g.Ports().MustRegisterPlug(fnode.InputPlug("meshes", fnode.KindMeshes))
	return g
}

func (g *GBuffer) Compute(ctx *fnode.Context) error {
	meshes, err := ctx.InputMeshes("meshes")
	if err != nil {
		return err
	}
	if err := g.targets.publish(ctx); err != nil {
		return err
	}
	g.dev.Record("raster %s meshes=%d -> %s", g.Name(), uint32(meshes), joinHandles(g.targets.handles))
	return nil
}

// Lighting resolves the gbuffer into an HDR image.
type Lighting struct {
	stage
}

func NewLighting(dev *Device, name string) *Lighting {
	return &Lighting{stage: newStage(dev, name, TypeLighting, "shade", []string{"albedo", "normal"}, []string{"hdr"})}
}

// Skybox renders the sky behind the depth buffer.
type Skybox struct {
	stage
}

func NewSkybox(dev *Device, name string) *Skybox {
	return &Skybox{stage: newStage(dev, name, TypeSkybox, "sky", []string{"depth"}, []string{"sky"})}
}

// PostProcess composites lighting and sky and tonemaps the result.
type PostProcess struct {
	stage
}

func NewPostProcess(dev *Device, name string) *PostProcess {
	return &PostProcess{stage: newStage(dev, name, TypePostProcess, "tonemap", []string{"lit", "sky"}, []string{"color"})}
}

// DebugOverlay draws debug visualization on top of its input. It is meant
// to be spliced in front of the final blit at runtime.
type DebugOverlay struct {
	stage
}

func NewDebugOverlay(dev *Device, name string) *DebugOverlay {
	return &DebugOverlay{stage: newStage(dev, name, TypeDebugOverlay, "overlay", []string{"scene"}, []string{"composited"})}
}

// FinalBlit copies its input to the swapchain.
type FinalBlit struct {
	fnode.Base

	dev       *Device
	presented uint64
	last      fnode.TextureHandle
}

func NewFinalBlit(dev *Device, name string) *FinalBlit {
	b := &FinalBlit{
		Base: fnode.NewBase(name, TypeFinalBlit),
		dev:  dev,
	}
	b.Ports().MustRegisterPlug(fnode.InputPlug("color", fnode.KindTexture))
	return b
}

func (b *FinalBlit) Compute(ctx *fnode.Context) error {
	src, err := ctx.InputTexture("color")
	if err != nil {
		return err
	}
	b.dev.Record("blit %s %d -> swapchain", b.Name(), uint32(src))
	b.last = src
	b.presented++
	return nil
}

// Presented returns the number of frames blitted so far.
func (b *FinalBlit) Presented() uint64 {
	return b.presented
}

// Last returns the texture blitted in the most recent frame.
func (b *FinalBlit) Last() fnode.TextureHandle {
	return b.last
}
