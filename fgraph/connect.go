package fgraph

import (
	"fmt"

	"golang.org/x/exp/slices"

	"github.com/birdayz/framegraph/fnode"
)

// resolvePlug finds the plug called name with direction want. When the name
// only exists with the opposite direction it reports ErrDirectionMismatch.
func resolvePlug(e *entry, name string, want fnode.Direction) (fnode.Plug, error) {
	ports := e.pass.Ports()
	p, err := ports.Lookup(want, name)
	if err == nil {
		return p, nil
	}
	if _, oerr := ports.Lookup(want.Opposite(), name); oerr == nil {
		return fnode.Plug{}, fmt.Errorf("%w: %s.%s is an %s plug, want %s",
			ErrDirectionMismatch, e.pass.Name(), name, want.Opposite(), want)
	}
	return fnode.Plug{}, fmt.Errorf("%s: %w", e.pass.Name(), err)
}

// InputRef returns the reference of an input plug.
func (g *Graph) InputRef(node, plug string) (PlugRef, error) {
	return g.plugRef(node, plug, fnode.Input)
}

// OutputRef returns the reference of an output plug.
func (g *Graph) OutputRef(node, plug string) (PlugRef, error) {
	return g.plugRef(node, plug, fnode.Output)
}

// MustInputRef is like InputRef but panics on error.
func (g *Graph) MustInputRef(node, plug string) PlugRef {
	ref, err := g.InputRef(node, plug)
	must(err)
	return ref
}

// MustOutputRef is like OutputRef but panics on error.
func (g *Graph) MustOutputRef(node, plug string) PlugRef {
	ref, err := g.OutputRef(node, plug)
	must(err)
	return ref
}

func (g *Graph) plugRef(node, plug string, dir fnode.Direction) (PlugRef, error) {
	ref, e, err := g.lookup(node)
	if err != nil {
		return PlugRef{}, err
	}
	p, err := resolvePlug(e, plug, dir)
	if err != nil {
		return PlugRef{}, err
	}
	return PlugRef{Node: ref, Slot: p.Slot}, nil
}

// Plug returns the plug behind ref.
func (g *Graph) Plug(ref PlugRef) (fnode.Plug, error) {
	e, ok := g.entry(ref.Node)
	if !ok {
		return fnode.Plug{}, fmt.Errorf("%w: %s", ErrNodeNotFound, ref.Node)
	}
	p, ok := e.pass.Ports().Slot(ref.Slot)
	if !ok {
		return fnode.Plug{}, fmt.Errorf("%w: %s has no slot %d", ErrPlugNotFound, e.pass.Name(), ref.Slot)
	}
	return p, nil
}

// ConnectNodes wires the output plug srcPlug of src to the input plug
// dstPlug of dst. The connection is recorded on both endpoints.
//
// The resource kinds of both plugs must intersect and the pair must not be
// connected already. Self-loops are not rejected.
func (g *Graph) ConnectNodes(src, srcPlug, dst, dstPlug string) error {
	from, err := g.OutputRef(src, srcPlug)
	if err != nil {
		return fmt.Errorf("cannot connect %s.%s -> %s.%s: %w", src, srcPlug, dst, dstPlug, err)
	}
	to, err := g.InputRef(dst, dstPlug)
	if err != nil {
		return fmt.Errorf("cannot connect %s.%s -> %s.%s: %w", src, srcPlug, dst, dstPlug, err)
	}
	if err := g.checkLink(from, to); err != nil {
		return fmt.Errorf("cannot connect %s.%s -> %s.%s: %w", src, srcPlug, dst, dstPlug, err)
	}

	g.link(from, to)
	g.log.V(1).Info("connected", "from", src+"."+srcPlug, "to", dst+"."+dstPlug)
	return nil
}

// MustConnectNodes is like ConnectNodes but panics on error.
func (g *Graph) MustConnectNodes(src, srcPlug, dst, dstPlug string) {
	must(g.ConnectNodes(src, srcPlug, dst, dstPlug))
}

// checkLink validates a producer output -> consumer input pair before any
// mutation happens.
func (g *Graph) checkLink(from, to PlugRef) error {
	fp, err := g.Plug(from)
	if err != nil {
		return err
	}
	tp, err := g.Plug(to)
	if err != nil {
		return err
	}
	if fp.Direction != fnode.Output || tp.Direction != fnode.Input {
		return fmt.Errorf("%w: %s -> %s", ErrDirectionMismatch, fp.Direction, tp.Direction)
	}
	if !fp.Kinds.Intersects(tp.Kinds) {
		return fmt.Errorf("%w: %s produces %s but %s accepts %s",
			ErrKindMismatch, fp.Name, fp.Kinds, tp.Name, tp.Kinds)
	}
	if g.connected(from, to) {
		return ErrAlreadyConnected
	}
	return nil
}

func (g *Graph) connected(a, b PlugRef) bool {
	e, ok := g.entry(a.Node)
	if !ok {
		return false
	}
	return slices.Index(e.links[a.Slot], b) >= 0
}

// link records the connection on both endpoints. Callers validate first.
func (g *Graph) link(from, to PlugRef) {
	fe, _ := g.entry(from.Node)
	te, _ := g.entry(to.Node)
	fe.links[from.Slot] = append(fe.links[from.Slot], to)
	te.links[to.Slot] = append(te.links[to.Slot], from)
	g.dirty = true
}

// unlink erases the connection from both endpoints. Order within the link
// lists is not preserved.
func (g *Graph) unlink(a, b PlugRef) error {
	ae, ok := g.entry(a.Node)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, a.Node)
	}
	be, ok := g.entry(b.Node)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, b.Node)
	}
	ai := slices.Index(ae.links[a.Slot], b)
	bi := slices.Index(be.links[b.Slot], a)
	if ai < 0 || bi < 0 {
		return ErrNotConnected
	}
	ae.links[a.Slot] = swapRemove(ae.links[a.Slot], ai)
	be.links[b.Slot] = swapRemove(be.links[b.Slot], bi)
	g.dirty = true
	return nil
}

// RemoveConnection erases the connection between plug plugName of node and
// other. plugName is resolved with the direction opposite to other's plug.
func (g *Graph) RemoveConnection(node, plugName string, other PlugRef) error {
	op, err := g.Plug(other)
	if err != nil {
		return err
	}
	self, err := g.plugRef(node, plugName, op.Direction.Opposite())
	if err != nil {
		return err
	}
	if err := g.unlink(self, other); err != nil {
		on, _ := g.NodeName(other.Node)
		return fmt.Errorf("%w: %s.%s and %s.%s", err, node, plugName, on, op.Name)
	}
	g.log.V(1).Info("connection removed", "node", node, "plug", plugName)
	return nil
}

// MustRemoveConnection is like RemoveConnection but panics on error.
func (g *Graph) MustRemoveConnection(node, plugName string, other PlugRef) {
	must(g.RemoveConnection(node, plugName, other))
}

// Disconnect removes the connection made by ConnectNodes with the same arguments.
func (g *Graph) Disconnect(src, srcPlug, dst, dstPlug string) error {
	from, err := g.OutputRef(src, srcPlug)
	if err != nil {
		return err
	}
	return g.RemoveConnection(dst, dstPlug, from)
}

// Connections returns the plugs on other nodes wired to the given plug of
// node. Inputs are looked up first, then outputs.
func (g *Graph) Connections(node, plug string) ([]PlugRef, error) {
	_, e, err := g.lookup(node)
	if err != nil {
		return nil, err
	}
	p, err := e.pass.Ports().Input(plug)
	if err != nil {
		p, err = e.pass.Ports().Output(plug)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", node, err)
		}
	}
	out := make([]PlugRef, len(e.links[p.Slot]))
	copy(out, e.links[p.Slot])
	return out, nil
}

// Producers returns the links feeding the input plug of node, in
// connection order.
func (g *Graph) Producers(node, plug string) ([]Link, error) {
	to, err := g.InputRef(node, plug)
	if err != nil {
		return nil, err
	}
	e, _ := g.entry(to.Node)
	links := make([]Link, 0, len(e.links[to.Slot]))
	for _, from := range e.links[to.Slot] {
		links = append(links, g.describe(from, to))
	}
	return links, nil
}

// Links returns every connection once, producer first, ordered by producer
// registration, output slot and connection order.
func (g *Graph) Links() []Link {
	var links []Link
	for _, ref := range g.byIndex {
		e, ok := g.entry(ref)
		if !ok {
			continue
		}
		for _, slot := range e.pass.Ports().OutputSlots() {
			from := PlugRef{Node: ref, Slot: slot}
			for _, to := range e.links[slot] {
				links = append(links, g.describe(from, to))
			}
		}
	}
	return links
}

func (g *Graph) describe(from, to PlugRef) Link {
	var l Link
	l.Producer, _ = g.NodeName(from.Node)
	l.Consumer, _ = g.NodeName(to.Node)
	if p, err := g.Plug(from); err == nil {
		l.ProducerPlug = p.Name
	}
	if p, err := g.Plug(to); err == nil {
		l.ConsumerPlug = p.Name
	}
	return l
}

func swapRemove(refs []PlugRef, i int) []PlugRef {
	last := len(refs) - 1
	refs[i] = refs[last]
	refs[last] = PlugRef{}
	return refs[:last]
}
