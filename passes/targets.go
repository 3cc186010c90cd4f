package passes

import (
	"fmt"

	"go.uber.org/multierr"

	"github.com/birdayz/framegraph/fnode"
)

// targets owns the resolution-dependent textures a pass writes to its
// output plugs.
type targets struct {
	dev     *Device
	owner   string
	outputs []string
	handles []fnode.TextureHandle
	width   uint32
	height  uint32
}

func newTargets(dev *Device, owner string, outputs ...string) targets {
	return targets{dev: dev, owner: owner, outputs: outputs}
}

// create allocates one texture per output. Existing textures are kept.
func (t *targets) create(width, height uint32) {
	if len(t.handles) > 0 {
		return
	}
	t.width, t.height = width, height
	for range t.outputs {
		h := t.dev.Alloc(Resource{Kind: fnode.KindTexture, Owner: t.owner, Width: width, Height: height})
		t.handles = append(t.handles, fnode.TextureHandle(h))
	}
}

func (t *targets) release() error {
	var errs error
	for _, h := range t.handles {
		errs = multierr.Append(errs, t.dev.Free(uint32(h)))
	}
	t.handles = t.handles[:0]
	return errs
}

// recreate is the usual resize: release, then allocate at the new size.
func (t *targets) recreate(width, height uint32) error {
	if err := t.release(); err != nil {
		return err
	}
	t.create(width, height)
	return nil
}

// publish writes every texture to its output plug.
func (t *targets) publish(ctx *fnode.Context) error {
	if len(t.handles) != len(t.outputs) {
		return fmt.Errorf("%s: %w", t.owner, ErrNotInitialized)
	}
	for i, name := range t.outputs {
		if err := ctx.SetOutput(name, fnode.TextureValue(t.handles[i])); err != nil {
			return err
		}
	}
	return nil
}

func (t *targets) handle(i int) fnode.TextureHandle {
	if i >= len(t.handles) {
		return 0
	}
	return t.handles[i]
}

// readTextures reads one texture from each named input.
func readTextures(ctx *fnode.Context, names ...string) ([]fnode.TextureHandle, error) {
	out := make([]fnode.TextureHandle, len(names))
	for i, name := range names {
		h, err := ctx.InputTexture(name)
		if err != nil {
			return nil, err
		}
		out[i] = h
	}
	return out, nil
}
