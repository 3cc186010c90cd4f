// Package framegraph runs a render dependency graph frame by frame.
//
// The graph itself lives in package fgraph and its nodes implement
// fnode.Pass. An Engine owns one graph: it finalizes it, computes frames in a
// loop and applies structural edits that other goroutines queue through
// Submit, SetDebugOverlay or RequestResize. Edits only ever run between two
// frames, after the device queue has been flushed, so a pass never sees its
// inputs rewired mid-frame.
//
//	g := fgraph.New()
//	passes.MustBuildDemo(g, dev)
//
//	e := framegraph.MustNew(g,
//		framegraph.WithQueueFlusher(dev),
//		framegraph.WithDebugOverlay(passes.OverlayFactory(dev), passes.DemoOverlayAnchor, passes.DemoOverlayInput),
//	)
//	defer e.Close()
//
//	go e.Run(ctx, 0)
//	<-e.SetDebugOverlay(true)
package framegraph
