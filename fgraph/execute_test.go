package fgraph

import (
	"errors"
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"
	"go.uber.org/multierr"

	"github.com/birdayz/framegraph/fnode"
)

type observedCall struct {
	node string
	err  error
}

type testObserver struct {
	calls []observedCall
}

func (o *testObserver) NodeComputed(node string, _ time.Duration, err error) {
	o.calls = append(o.calls, observedCall{node: node, err: err})
}

func TestFinalize(t *testing.T) {
	t.Run("clears all then initializes in order", func(t *testing.T) {
		rec := &recorder{}
		g, _ := chain(rec, "a", "b", "c")
		assert.NoError(t, g.Finalize(t.Context()))

		assert.Equal(t, []string{
			"clear:a", "clear:b", "clear:c",
			"init:a", "init:b", "init:c",
		}, rec.events)
		assert.False(t, g.Dirty())
	})

	t.Run("no final node", func(t *testing.T) {
		g := New()
		err := g.Finalize(t.Context())
		assert.True(t, errors.Is(err, ErrNoFinalNode))
		assert.Panics(t, func() { g.MustFinalize(t.Context()) })
	})

	t.Run("initialize fails fast", func(t *testing.T) {
		rec := &recorder{}
		g, passes := chain(rec, "a", "b", "c")
		passes[1].initErr = errors.New("out of memory")

		err := g.Finalize(t.Context())
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "initialize b")
		assert.Equal(t, []string{"a", "b"}, rec.filter("init:"))
		assert.True(t, g.Dirty())
	})

	t.Run("clear errors are aggregated", func(t *testing.T) {
		rec := &recorder{}
		g, passes := chain(rec, "a", "b", "c")
		passes[0].clearErr = errors.New("first")
		passes[2].clearErr = errors.New("second")

		err := g.Finalize(t.Context())
		assert.Error(t, err)
		assert.Equal(t, 2, len(multierr.Errors(errors.Unwrap(err))))
		assert.Equal(t, 0, len(rec.filter("init:")))
	})
}

func TestCompute(t *testing.T) {
	t.Run("runs in order and passes values", func(t *testing.T) {
		rec := &recorder{}
		g, passes := chain(rec, "a", "b", "c")
		g.MustFinalize(t.Context())
		rec.reset()

		assert.NoError(t, g.Compute(t.Context()))
		assert.Equal(t, []string{"compute:a", "compute:b", "compute:c"}, rec.events)

		got := passes[2].seen["in"]
		assert.Equal(t, 1, len(got))
		h, ok := got[0].Texture()
		assert.True(t, ok)
		assert.Equal(t, fnode.TextureHandle(passes[1].id), h)

		v, err := g.Value("c", "out")
		assert.NoError(t, err)
		assert.Equal(t, fnode.TextureValue(fnode.TextureHandle(passes[2].id)), v)
		assert.Equal(t, uint64(1), g.Frame())
	})

	t.Run("refuses to run while dirty", func(t *testing.T) {
		rec := &recorder{}
		g, _ := chain(rec, "a", "b")
		assert.True(t, errors.Is(g.Compute(t.Context()), ErrNotFinalized))

		g.MustFinalize(t.Context())
		assert.NoError(t, g.Compute(t.Context()))

		g.MustAddNode(newTestPass(rec, "c", "test", nil, nil))
		assert.True(t, errors.Is(g.Compute(t.Context()), ErrNotFinalized))
	})

	t.Run("first error aborts the frame", func(t *testing.T) {
		rec := &recorder{}
		obs := &testObserver{}
		g, passes := chain(rec, "a", "b", "c")
		g.SetObserver(obs)
		g.MustFinalize(t.Context())
		rec.reset()

		boom := errors.New("device lost")
		passes[1].computeErr = boom

		err := g.Compute(t.Context())
		assert.True(t, errors.Is(err, boom))
		assert.Contains(t, err.Error(), "compute b")
		assert.Equal(t, []string{"a", "b"}, rec.filter("compute:"))

		assert.Equal(t, 2, len(obs.calls))
		assert.Equal(t, "b", obs.calls[1].node)
		assert.True(t, errors.Is(obs.calls[1].err, boom))
	})

	t.Run("frame info reaches passes", func(t *testing.T) {
		var frames []fnode.FrameInfo
		g := New(WithSize(640, 480))
		g.MustAddNode(fnode.NewFunc("only", "test", func(ctx *fnode.Context) error {
			frames = append(frames, ctx.Frame)
			return nil
		}))
		g.MustSetFinalNode("only")
		g.MustFinalize(t.Context())

		assert.NoError(t, g.Compute(t.Context()))
		assert.NoError(t, g.Compute(t.Context()))
		assert.Equal(t, []fnode.FrameInfo{
			{Index: 0, Width: 640, Height: 480},
			{Index: 1, Width: 640, Height: 480},
		}, frames)
	})

	t.Run("producer writes are kind checked", func(t *testing.T) {
		g := New()
		g.MustAddNode(fnode.NewFunc("bad", "test", func(ctx *fnode.Context) error {
			return ctx.SetOutput("tex", fnode.BufferValue(3))
		}, fnode.WithPlugs(fnode.OutputPlug("tex", fnode.KindTexture))))
		g.MustSetFinalNode("bad")
		g.MustFinalize(t.Context())

		err := g.Compute(t.Context())
		assert.True(t, errors.Is(err, ErrKindMismatch))
		var kerr *fnode.KindError
		assert.True(t, errors.As(err, &kerr))
		assert.Equal(t, "bad.tex", kerr.Plug)
	})

	t.Run("single input read rejects fan-in", func(t *testing.T) {
		g := New()
		g.MustAddNode(fnode.NewFunc("x", "test", nil, fnode.WithPlugs(fnode.OutputPlug("out", fnode.KindTexture))))
		g.MustAddNode(fnode.NewFunc("y", "test", nil, fnode.WithPlugs(fnode.OutputPlug("out", fnode.KindTexture))))
		g.MustAddNode(fnode.NewFunc("merge", "test", func(ctx *fnode.Context) error {
			_, err := ctx.InputTexture("in")
			return err
		}, fnode.WithPlugs(fnode.InputPlug("in", fnode.KindTexture))))
		g.MustConnectNodes("x", "out", "merge", "in")
		g.MustConnectNodes("y", "out", "merge", "in")
		g.MustSetFinalNode("merge")
		g.MustFinalize(t.Context())

		assert.True(t, errors.Is(g.Compute(t.Context()), ErrFanIn))
	})
}

func TestResize(t *testing.T) {
	t.Run("resizes linearized nodes in order", func(t *testing.T) {
		rec := &recorder{}
		g, _ := chain(rec, "a", "b")
		g.MustAddNode(newTestPass(rec, "dead", "test", nil, nil))
		g.MustFinalize(t.Context())
		rec.reset()

		assert.NoError(t, g.Resize(800, 600))
		assert.Equal(t, []string{"resize:a:800x600", "resize:b:800x600"}, rec.events)

		w, h := g.Size()
		assert.Equal(t, uint32(800), w)
		assert.Equal(t, uint32(600), h)
	})

	t.Run("errors are aggregated and every node runs", func(t *testing.T) {
		rec := &recorder{}
		g, passes := chain(rec, "a", "b", "c")
		g.MustFinalize(t.Context())
		rec.reset()
		passes[0].resizeErr = errors.New("a failed")
		passes[1].resizeErr = errors.New("b failed")

		err := g.Resize(10, 10)
		assert.Equal(t, 2, len(multierr.Errors(err)))
		assert.Equal(t, 3, len(rec.filter("resize:")))
	})

	t.Run("records the size while dirty", func(t *testing.T) {
		var got fnode.FrameInfo
		g := New()
		g.MustAddNode(fnode.NewFunc("only", "test", nil, fnode.WithInitialize(func(ctx *fnode.Context) error {
			got = ctx.Frame
			return nil
		})))
		g.MustSetFinalNode("only")

		assert.NoError(t, g.Resize(320, 200))
		g.MustFinalize(t.Context())
		assert.Equal(t, uint32(320), got.Width)
		assert.Equal(t, uint32(200), got.Height)
	})
}

func TestClear(t *testing.T) {
	rec := &recorder{}
	g, passes := chain(rec, "a", "b")
	g.MustFinalize(t.Context())
	assert.NoError(t, g.Compute(t.Context()))
	rec.reset()

	passes[1].clearErr = errors.New("busy")
	err := g.Clear()
	assert.Error(t, err)
	assert.Equal(t, []string{"clear:a", "clear:b"}, rec.events)
	assert.True(t, g.Dirty())

	v, err := g.Value("a", "out")
	assert.NoError(t, err)
	assert.True(t, v.IsZero())
}
