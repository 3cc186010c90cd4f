package fgraph

import (
	"fmt"

	"github.com/birdayz/framegraph/fnode"
)

// SpliceOption configures InsertNode and RemoveNode.
type SpliceOption func(*spliceConfig)

type spliceConfig struct {
	input        string
	output       string
	expectedType string
}

// WithSplicePlugs selects the input and output plug of the spliced node.
// By default its first registered input and output are used.
func WithSplicePlugs(input, output string) SpliceOption {
	return func(c *spliceConfig) {
		c.input = input
		c.output = output
	}
}

// WithExpectedType makes the splice fail with ErrTypeMismatch unless the
// spliced node has the given type tag.
func WithExpectedType(typeTag string) SpliceOption {
	return func(c *spliceConfig) {
		c.expectedType = typeTag
	}
}

func newSpliceConfig(opts []SpliceOption) spliceConfig {
	var c spliceConfig
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// splicePlugs picks the input and output plug of pass used by a splice.
func (c spliceConfig) splicePlugs(pass fnode.Pass) (in, out fnode.Plug, err error) {
	ports := pass.Ports()
	if c.input != "" {
		if in, err = ports.Input(c.input); err != nil {
			return in, out, fmt.Errorf("%s: %w", pass.Name(), err)
		}
	} else {
		inputs := ports.Inputs()
		if len(inputs) == 0 {
			return in, out, fmt.Errorf("%w: %s has no input plug", ErrPlugNotFound, pass.Name())
		}
		in = inputs[0]
	}
	if c.output != "" {
		if out, err = ports.Output(c.output); err != nil {
			return in, out, fmt.Errorf("%s: %w", pass.Name(), err)
		}
	} else {
		outputs := ports.Outputs()
		if len(outputs) == 0 {
			return in, out, fmt.Errorf("%w: %s has no output plug", ErrPlugNotFound, pass.Name())
		}
		out = outputs[0]
	}
	return in, out, nil
}

func (c spliceConfig) checkType(pass fnode.Pass) error {
	if c.expectedType != "" && pass.Type() != c.expectedType {
		return fmt.Errorf("%w: %s is %q, want %q", ErrTypeMismatch, pass.Name(), pass.Type(), c.expectedType)
	}
	return nil
}

// InsertNode splices pass into the single connection feeding the input
// plug anchorInput of anchor:
//
//	producer -> anchor   becomes   producer -> pass -> anchor
//
// pass is registered if it is not yet part of the graph. The anchor input
// must have exactly one connection (ErrFanIn otherwise). Every check runs
// before the graph is touched, so a failed insert leaves it unchanged apart
// from a possible registration of pass. Call Finalize before the next Compute.
func (g *Graph) InsertNode(pass fnode.Pass, anchor, anchorInput string, opts ...SpliceOption) error {
	cfg := newSpliceConfig(opts)
	if err := cfg.checkType(pass); err != nil {
		return err
	}
	in, out, err := cfg.splicePlugs(pass)
	if err != nil {
		return err
	}

	anchorIn, err := g.InputRef(anchor, anchorInput)
	if err != nil {
		return err
	}
	ae, _ := g.entry(anchorIn.Node)
	if n := len(ae.links[anchorIn.Slot]); n != 1 {
		return fmt.Errorf("%w: %s.%s has %d connections, want 1", ErrFanIn, anchor, anchorInput, n)
	}
	producer := ae.links[anchorIn.Slot][0]
	pp, err := g.Plug(producer)
	if err != nil {
		return err
	}
	if !pp.Kinds.Intersects(in.Kinds) {
		return fmt.Errorf("%w: %s produces %s but %s.%s accepts %s",
			ErrKindMismatch, pp.Name, pp.Kinds, pass.Name(), in.Name, in.Kinds)
	}
	ap, _ := g.Plug(anchorIn)
	if !out.Kinds.Intersects(ap.Kinds) {
		return fmt.Errorf("%w: %s.%s produces %s but %s.%s accepts %s",
			ErrKindMismatch, pass.Name(), out.Name, out.Kinds, anchor, anchorInput, ap.Kinds)
	}

	ref, registered := g.byName[pass.Name()]
	if registered {
		e, ok := g.entry(ref)
		if !ok || e.pass != pass {
			return fmt.Errorf("%w: %s", ErrNodeAlreadyExists, pass.Name())
		}
		if len(e.links[in.Slot]) > 0 || len(e.links[out.Slot]) > 0 {
			return fmt.Errorf("%w: %s splice plugs are in use", ErrAlreadyConnected, pass.Name())
		}
	} else {
		if ref, err = g.AddNode(pass); err != nil {
			return err
		}
	}
	if ref == anchorIn.Node || ref == producer.Node {
		return fmt.Errorf("%w: cannot splice %s next to itself", ErrInvalidGraph, pass.Name())
	}

	newIn := PlugRef{Node: ref, Slot: in.Slot}
	newOut := PlugRef{Node: ref, Slot: out.Slot}

	if err := g.unlink(producer, anchorIn); err != nil {
		return err
	}
	g.link(producer, newIn)
	g.link(newOut, anchorIn)

	pn, _ := g.NodeName(producer.Node)
	g.log.Info("node spliced in", "node", pass.Name(), "producer", pn, "anchor", anchor+"."+anchorInput)
	return nil
}

// MustInsertNode is like InsertNode but panics on error.
func (g *Graph) MustInsertNode(pass fnode.Pass, anchor, anchorInput string, opts ...SpliceOption) {
	must(g.InsertNode(pass, anchor, anchorInput, opts...))
}

// RemoveNode is the inverse of InsertNode: the node's single producer is
// wired directly to every consumer of the node's splice output, using the
// same plugs, and the node is unregistered. Graph indices are re-packed,
// which is O(N). The removed pass is returned so the caller can release it.
//
// The node must not be the final node and must have no connections besides
// its splice input and output. Call Finalize before the next Compute.
func (g *Graph) RemoveNode(name string, opts ...SpliceOption) (fnode.Pass, error) {
	cfg := newSpliceConfig(opts)
	ref, e, err := g.lookup(name)
	if err != nil {
		return nil, err
	}
	if err := cfg.checkType(e.pass); err != nil {
		return nil, err
	}
	if ref == g.final {
		return nil, fmt.Errorf("%w: cannot remove final node %s", ErrInvalidGraph, name)
	}
	in, out, err := cfg.splicePlugs(e.pass)
	if err != nil {
		return nil, err
	}
	if n := len(e.links[in.Slot]); n != 1 {
		return nil, fmt.Errorf("%w: %s.%s has %d connections, want 1", ErrFanIn, name, in.Name, n)
	}
	for slot, links := range e.links {
		if uint32(slot) != in.Slot && uint32(slot) != out.Slot && len(links) > 0 {
			p, _ := e.pass.Ports().Slot(uint32(slot))
			return nil, fmt.Errorf("%w: %s.%s is still connected", ErrInvalidGraph, name, p.Name)
		}
	}

	self := PlugRef{Node: ref, Slot: in.Slot}
	selfOut := PlugRef{Node: ref, Slot: out.Slot}
	producer := e.links[in.Slot][0]
	if producer.Node == ref {
		return nil, fmt.Errorf("%w: %s feeds itself", ErrInvalidGraph, name)
	}
	pp, err := g.Plug(producer)
	if err != nil {
		return nil, err
	}
	consumers := make([]PlugRef, len(e.links[out.Slot]))
	copy(consumers, e.links[out.Slot])
	for _, c := range consumers {
		cp, err := g.Plug(c)
		if err != nil {
			return nil, err
		}
		if !pp.Kinds.Intersects(cp.Kinds) {
			return nil, fmt.Errorf("%w: %s produces %s but %s accepts %s",
				ErrKindMismatch, pp.Name, pp.Kinds, cp.Name, cp.Kinds)
		}
		if g.connected(producer, c) {
			return nil, fmt.Errorf("%w: producer of %s already feeds %s", ErrAlreadyConnected, name, cp.Name)
		}
	}

	if err := g.unlink(producer, self); err != nil {
		return nil, err
	}
	for _, c := range consumers {
		if err := g.unlink(selfOut, c); err != nil {
			return nil, err
		}
		g.link(producer, c)
	}

	pass := e.pass
	g.unregister(ref)

	pn, _ := g.NodeName(producer.Node)
	g.log.Info("node spliced out", "node", name, "producer", pn, "consumers", len(consumers))
	return pass, nil
}

// MustRemoveNode is like RemoveNode but panics on error.
func (g *Graph) MustRemoveNode(name string, opts ...SpliceOption) fnode.Pass {
	pass, err := g.RemoveNode(name, opts...)
	must(err)
	return pass
}

// DeleteNode drops every connection of a node and unregisters it. Unlike
// RemoveNode it does not rewire anything. The final node cannot be deleted.
func (g *Graph) DeleteNode(name string) (fnode.Pass, error) {
	ref, e, err := g.lookup(name)
	if err != nil {
		return nil, err
	}
	if ref == g.final {
		return nil, fmt.Errorf("%w: cannot delete final node %s", ErrInvalidGraph, name)
	}
	for slot := range e.links {
		self := PlugRef{Node: ref, Slot: uint32(slot)}
		for len(e.links[slot]) > 0 {
			if err := g.unlink(self, e.links[slot][0]); err != nil {
				return nil, err
			}
		}
	}
	pass := e.pass
	g.unregister(ref)
	g.log.Info("node deleted", "node", name)
	return pass, nil
}
