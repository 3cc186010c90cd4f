package fnode

import (
	"context"

	"github.com/go-logr/logr"
)

// Pass is the contract every render stage implements. A pass advertises its
// data dependencies only through its plugs.
//
// The graph calls Initialize once per finalize in dependency order, Compute
// once per frame, Resize when the output resolution changes and Clear when
// transient or resolution-dependent resources must be released.
type Pass interface {
	Name() string
	Type() string
	Ports() *Ports

	Initialize(ctx *Context) error
	Compute(ctx *Context) error
	Clear() error
	Resize(width, height uint32) error
}

// Base carries the identity and plugs of a pass and gives empty Initialize,
// Clear and Resize bodies. Concrete passes embed it and implement Compute.
type Base struct {
	name    string
	typeTag string
	ports   Ports
}

// NewBase creates a Base with the given node name and type tag.
func NewBase(name, typeTag string) Base {
	return Base{name: name, typeTag: typeTag}
}

// Name returns the unique node name.
func (b *Base) Name() string { return b.name }

// Type returns the type tag used by FindNodeOfType and splice checks.
func (b *Base) Type() string { return b.typeTag }

// Ports returns the plug set.
func (b *Base) Ports() *Ports { return &b.ports }

func (b *Base) Initialize(*Context) error { return nil }

func (b *Base) Clear() error { return nil }

func (b *Base) Resize(_, _ uint32) error { return nil }

// FrameInfo describes the frame a pass is executed for.
type FrameInfo struct {
	Index  uint64
	Width  uint32
	Height uint32
}

// PlugIO gives a pass access to its own plug values. It is implemented by
// the graph and scoped to one node.
type PlugIO interface {
	// Input returns the value of the single producer connected to the input
	// plug. It fails with ErrFanIn unless exactly one connection exists.
	Input(name string) (Value, error)
	// Inputs returns the values of all connected producers in connection order.
	Inputs(name string) ([]Value, error)
	// SetOutput writes the value of an output plug.
	SetOutput(name string, v Value) error
	// Output returns the value last written to an output plug.
	Output(name string) (Value, error)
}

// Context is handed to Initialize and Compute. It replaces any process-wide
// state a pass would otherwise reach for.
type Context struct {
	context.Context

	Frame FrameInfo
	Log   logr.Logger

	// Env is supplied by the engine owner, typically device and resource
	// managers shared by all passes.
	Env any

	io PlugIO
}

// NewContext creates a Context bound to io.
func NewContext(ctx context.Context, frame FrameInfo, log logr.Logger, env any, io PlugIO) *Context {
	return &Context{
		Context: ctx,
		Frame:   frame,
		Log:     log,
		Env:     env,
		io:      io,
	}
}

func (c *Context) Input(name string) (Value, error) {
	if c.io == nil {
		return Value{}, ErrNoPlugIO
	}
	return c.io.Input(name)
}

func (c *Context) Inputs(name string) ([]Value, error) {
	if c.io == nil {
		return nil, ErrNoPlugIO
	}
	return c.io.Inputs(name)
}

func (c *Context) SetOutput(name string, v Value) error {
	if c.io == nil {
		return ErrNoPlugIO
	}
	return c.io.SetOutput(name, v)
}

func (c *Context) Output(name string) (Value, error) {
	if c.io == nil {
		return Value{}, ErrNoPlugIO
	}
	return c.io.Output(name)
}

// InputTexture reads a single texture from an input plug.
func (c *Context) InputTexture(name string) (TextureHandle, error) {
	v, err := c.Input(name)
	if err != nil {
		return 0, err
	}
	h, ok := v.Texture()
	if !ok {
		return 0, &KindError{Plug: name, Want: KindTexture, Got: v.Kind()}
	}
	return h, nil
}

// InputMeshes reads a single mesh stream from an input plug.
func (c *Context) InputMeshes(name string) (MeshStreamHandle, error) {
	v, err := c.Input(name)
	if err != nil {
		return 0, err
	}
	h, ok := v.Meshes()
	if !ok {
		return 0, &KindError{Plug: name, Want: KindMeshes, Got: v.Kind()}
	}
	return h, nil
}
