package fnode

// FuncOption configures optional behavior for NewFunc passes.
type FuncOption func(*funcPass)

// WithPlugs registers plugs on a NewFunc pass, in order.
func WithPlugs(plugs ...Plug) FuncOption {
	return func(p *funcPass) {
		for _, plug := range plugs {
			p.Ports().MustRegisterPlug(plug)
		}
	}
}

// WithInitialize adds custom initialization logic to a NewFunc pass.
func WithInitialize(fn func(ctx *Context) error) FuncOption {
	return func(p *funcPass) {
		p.initFn = fn
	}
}

// WithClear adds custom cleanup logic to a NewFunc pass.
func WithClear(fn func() error) FuncOption {
	return func(p *funcPass) {
		p.clearFn = fn
	}
}

// WithResize adds custom resize logic to a NewFunc pass.
func WithResize(fn func(width, height uint32) error) FuncOption {
	return func(p *funcPass) {
		p.resizeFn = fn
	}
}

// NewFunc creates a pass from a compute function.
//
// Example:
//
//	fnode.NewFunc("tonemap", "post", func(ctx *fnode.Context) error {
//	    hdr, err := ctx.InputTexture("hdr")
//	    if err != nil {
//	        return err
//	    }
//	    return ctx.SetOutput("ldr", fnode.TextureValue(hdr))
//	}, fnode.WithPlugs(
//	    fnode.InputPlug("hdr", fnode.KindTexture),
//	    fnode.OutputPlug("ldr", fnode.KindTexture),
//	))
//
// Plug registration errors from WithPlugs panic.
func NewFunc(name, typeTag string, computeFn func(ctx *Context) error, opts ...FuncOption) Pass {
	p := &funcPass{
		Base:      NewBase(name, typeTag),
		computeFn: computeFn,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

type funcPass struct {
	Base

	computeFn func(*Context) error
	initFn    func(*Context) error
	clearFn   func() error
	resizeFn  func(width, height uint32) error
}

func (p *funcPass) Compute(ctx *Context) error {
	if p.computeFn == nil {
		return nil
	}
	return p.computeFn(ctx)
}

func (p *funcPass) Initialize(ctx *Context) error {
	if p.initFn != nil {
		return p.initFn(ctx)
	}
	return nil
}

func (p *funcPass) Clear() error {
	if p.clearFn != nil {
		return p.clearFn()
	}
	return nil
}

func (p *funcPass) Resize(width, height uint32) error {
	if p.resizeFn != nil {
		return p.resizeFn(width, height)
	}
	return nil
}
