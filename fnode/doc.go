// Package fnode defines the contract between the frame graph and the render
// passes it schedules.
//
// A pass is a named node with a type tag and a fixed set of plugs. Each plug
// has a direction (Input or Output), a declared set of resource kinds and a
// name that is unique among plugs of the same direction on that node:
//
//	type Lighting struct {
//	    fnode.Base
//	}
//
//	func NewLighting() *Lighting {
//	    l := &Lighting{Base: fnode.NewBase("lighting", "lighting")}
//	    l.Ports().MustRegisterPlug(fnode.InputPlug("albedo", fnode.KindTexture))
//	    l.Ports().MustRegisterPlug(fnode.OutputPlug("lit", fnode.KindTexture))
//	    return l
//	}
//
//	func (l *Lighting) Compute(ctx *fnode.Context) error {
//	    albedo, err := ctx.InputTexture("albedo")
//	    ...
//	}
//
// Plug payloads are Values: a 32-bit handle tagged with one resource kind.
// The graph checks kinds when plugs are connected and when a producer writes
// an output, never on reads; the typed accessors on Value let consumers
// decode a handle without reinterpreting raw integers.
package fnode
