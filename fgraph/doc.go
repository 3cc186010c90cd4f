// Package fgraph provides the frame graph: a registry of render passes, the
// connections between their plugs and the execution order derived from them.
//
// # Overview
//
// A frame is described as a graph of passes (see package fnode). Each pass
// exposes named, directional, typed plugs. Connecting an output plug of one
// pass to an input plug of another declares a resource dependency. One pass
// is designated as the final node, typically the composite that writes the
// swapchain image.
//
// The graph goes through two phases:
//
// 1. **Edit Phase**: Register passes, connect plugs, choose the final node,
// splice nodes in and out
// 2. **Execute Phase**: Finalize once, then Compute once per frame
//
// Every structural edit marks the graph dirty. Compute refuses to run on a
// dirty graph until Finalize has been called again.
//
// # Basic Usage
//
//	g := fgraph.New(fgraph.WithLogger(logger), fgraph.WithSize(1920, 1080))
//
//	g.MustAddNode(passes.NewAsset("assets", alloc))
//	g.MustAddNode(passes.NewGBuffer("gbuffer", alloc))
//	g.MustAddNode(passes.NewFinalBlit("blit", alloc))
//
//	g.MustConnectNodes("assets", "meshes", "gbuffer", "meshes")
//	g.MustConnectNodes("gbuffer", "albedo", "blit", "color")
//	g.MustSetFinalNode("blit")
//
//	g.MustFinalize(ctx)
//	for {
//	    if err := g.Compute(ctx); err != nil {
//	        return err
//	    }
//	}
//
// # Linearization
//
// Finalize walks the graph depth-first from the final node along input
// connections. A node is appended before its producers are visited and the
// list is reversed at the end, so every producer runs before its consumers.
// Ties are broken by input registration order, then connection order, which
// makes the order deterministic for a given build sequence.
//
// Nodes that do not feed the final node are left out: they are never
// initialized or computed. A cycle does not stop the walk; the edge closing
// it is ignored. Both cases are silent by default and reported through
// Diagnostics after each Finalize. Validate turns them into errors:
//
//	if err := g.Validate(); errors.Is(err, fgraph.ErrCycleDetected) {
//	    // "frame graph validation failed: cycle detected in frame graph: a -> b -> a"
//	}
//
// # Splicing
//
// InsertNode places a pass on an existing single connection:
//
//	producer -> anchor   becomes   producer -> pass -> anchor
//
// RemoveNode reverses it, wiring the producer to every consumer of the
// removed node. Both edits require a Finalize before the next Compute.
// DeleteNode drops a node and all of its connections without rewiring.
//
// # Errors
//
// Fallible calls return errors wrapping the package sentinels, so callers
// match them with errors.Is. Each construction call has a Must variant that
// panics instead, for graphs built from code that cannot be wrong at runtime.
//
// # Thread Safety
//
// Graph is NOT safe for concurrent use. The framegraph.Engine serializes
// edits requested from other goroutines and applies them between frames.
package fgraph
