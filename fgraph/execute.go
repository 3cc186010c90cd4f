package fgraph

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/birdayz/framegraph/fnode"
)

// Finalize prepares the graph for execution: it clears every registered
// node and all plug values, linearizes from the final node and initializes
// the linearized nodes in dependency order, so a node can rely on its
// producers being initialized.
//
// Finalize must run after construction and after every structural edit
// before the next Compute.
func (g *Graph) Finalize(ctx context.Context) error {
	if _, ok := g.entry(g.final); !ok {
		return ErrNoFinalNode
	}

	if err := g.clearAll(); err != nil {
		return fmt.Errorf("clear nodes: %w", err)
	}

	g.linearize()

	frame := fnode.FrameInfo{Index: g.frame, Width: g.width, Height: g.height}
	for _, ref := range g.order {
		e, _ := g.entry(ref)
		e.fctx = fnode.NewContext(ctx, frame, g.log.WithName(e.pass.Name()), g.env, &e.io)
		if err := e.pass.Initialize(e.fctx); err != nil {
			return fmt.Errorf("initialize %s: %w", e.pass.Name(), err)
		}
	}
	g.dirty = false

	g.log.Info("frame graph finalized",
		"nodes", len(g.order),
		"registered", len(g.byIndex),
		"final", g.FinalNode())
	if len(g.diag.Unreachable) > 0 {
		g.log.V(1).Info("nodes excluded from execution", "nodes", g.diag.Unreachable)
	}
	for _, l := range g.diag.BackEdges {
		g.log.V(1).Info("cycle ignored during linearization", "edge", l.String())
	}
	return nil
}

// MustFinalize is like Finalize but panics on error.
func (g *Graph) MustFinalize(ctx context.Context) {
	must(g.Finalize(ctx))
}

// Compute runs one frame: every linearized node computes once, in order, on
// the calling goroutine. The first failing node aborts the frame; there is
// no cancellation between nodes.
func (g *Graph) Compute(ctx context.Context) error {
	if g.dirty {
		return ErrNotFinalized
	}

	frame := fnode.FrameInfo{Index: g.frame, Width: g.width, Height: g.height}
	g.frame++

	for _, ref := range g.order {
		e, _ := g.entry(ref)
		e.fctx.Context = ctx
		e.fctx.Frame = frame

		start := time.Now()
		err := e.pass.Compute(e.fctx)
		if g.observer != nil {
			g.observer.NodeComputed(e.pass.Name(), time.Since(start), err)
		}
		if err != nil {
			return fmt.Errorf("compute %s: %w", e.pass.Name(), err)
		}
	}
	return nil
}

// Resize records the new output resolution and calls Resize on every
// linearized node in order. All nodes are resized even when some fail.
// While the graph has unfinalized edits only the resolution is recorded;
// the next Finalize initializes nodes with it.
func (g *Graph) Resize(width, height uint32) error {
	g.width, g.height = width, height
	if g.dirty {
		return nil
	}

	var errs error
	for _, ref := range g.order {
		e, _ := g.entry(ref)
		if e.fctx != nil {
			e.fctx.Frame.Width, e.fctx.Frame.Height = width, height
		}
		if err := e.pass.Resize(width, height); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("resize %s: %w", e.pass.Name(), err))
		}
	}
	g.log.V(1).Info("frame graph resized", "width", width, "height", height)
	return errs
}

// Clear calls Clear on every registered node and drops all plug values.
// Used on teardown; call Finalize before computing again.
func (g *Graph) Clear() error {
	err := g.clearAll()
	g.dirty = true
	return err
}

func (g *Graph) clearAll() error {
	var errs error
	for _, ref := range g.byIndex {
		e, ok := g.entry(ref)
		if !ok {
			continue
		}
		clear(e.values)
		if err := e.pass.Clear(); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("clear %s: %w", e.pass.Name(), err))
		}
	}
	return errs
}

// nodeIO resolves plug values for one node.
type nodeIO struct {
	g   *Graph
	ref NodeRef
}

var _ fnode.PlugIO = (*nodeIO)(nil)

func (io *nodeIO) self() (*entry, error) {
	e, ok := io.g.entry(io.ref)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, io.ref)
	}
	return e, nil
}

func (io *nodeIO) Input(name string) (fnode.Value, error) {
	e, err := io.self()
	if err != nil {
		return fnode.Value{}, err
	}
	p, err := e.pass.Ports().Input(name)
	if err != nil {
		return fnode.Value{}, err
	}
	links := e.links[p.Slot]
	if len(links) != 1 {
		return fnode.Value{}, fmt.Errorf("%w: %s.%s has %d connections, want 1",
			ErrFanIn, e.pass.Name(), name, len(links))
	}
	return io.g.value(links[0]), nil
}

func (io *nodeIO) Inputs(name string) ([]fnode.Value, error) {
	e, err := io.self()
	if err != nil {
		return nil, err
	}
	p, err := e.pass.Ports().Input(name)
	if err != nil {
		return nil, err
	}
	links := e.links[p.Slot]
	values := make([]fnode.Value, len(links))
	for i, l := range links {
		values[i] = io.g.value(l)
	}
	return values, nil
}

func (io *nodeIO) SetOutput(name string, v fnode.Value) error {
	e, err := io.self()
	if err != nil {
		return err
	}
	p, err := e.pass.Ports().Output(name)
	if err != nil {
		return err
	}
	if !v.IsZero() && !p.Kinds.Intersects(v.Kind()) {
		return &fnode.KindError{Plug: e.pass.Name() + "." + name, Want: p.Kinds, Got: v.Kind()}
	}
	e.values[p.Slot] = v
	return nil
}

func (io *nodeIO) Output(name string) (fnode.Value, error) {
	e, err := io.self()
	if err != nil {
		return fnode.Value{}, err
	}
	p, err := e.pass.Ports().Output(name)
	if err != nil {
		return fnode.Value{}, err
	}
	return e.values[p.Slot], nil
}

func (g *Graph) value(ref PlugRef) fnode.Value {
	e, ok := g.entry(ref.Node)
	if !ok {
		return fnode.Value{}
	}
	return e.values[ref.Slot]
}

// Value returns the value currently held by the output plug of node.
func (g *Graph) Value(node, plug string) (fnode.Value, error) {
	ref, err := g.OutputRef(node, plug)
	if err != nil {
		return fnode.Value{}, err
	}
	return g.value(ref), nil
}
