package framegraph

import (
	"context"
	"time"

	"github.com/go-logr/logr"

	"github.com/birdayz/framegraph/fmetrics"
	"github.com/birdayz/framegraph/fnode"
)

// Option is a function that configures an Engine
type Option func(*Engine)

// QueueFlusher waits until the device has finished all submitted work.
// The engine calls it before it applies structural edits.
type QueueFlusher interface {
	Flush(ctx context.Context) error
}

// QueueFlusherFunc adapts a function to QueueFlusher.
type QueueFlusherFunc func(ctx context.Context) error

func (f QueueFlusherFunc) Flush(ctx context.Context) error {
	return f(ctx)
}

// DefaultDebugOverlayType is the type tag the engine looks for when it
// toggles the debug overlay.
const DefaultDebugOverlayType = "debug-overlay"

// WithLogr sets the logger for the engine and its graph
var WithLogr = func(log logr.Logger) Option {
	return func(e *Engine) {
		e.log = log
	}
}

// WithMetrics records frame, node and splice metrics
var WithMetrics = func(m *fmetrics.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithDebugChecks makes every finalize fail on cycles and unreachable nodes
var WithDebugChecks = func(enabled bool) Option {
	return func(e *Engine) {
		e.debugChecks = enabled
	}
}

// WithQueueFlusher sets the device queue flushed before structural edits
var WithQueueFlusher = func(f QueueFlusher) Option {
	return func(e *Engine) {
		e.flusher = f
	}
}

// WithDebugOverlay enables SetDebugOverlay. factory creates a fresh overlay
// pass each time it is switched on; it is spliced into the single
// connection feeding anchorInput of anchor.
var WithDebugOverlay = func(factory func() fnode.Pass, anchor, anchorInput string) Option {
	return func(e *Engine) {
		e.overlay = factory
		e.overlayAnchor = anchor
		e.overlayInput = anchorInput
	}
}

// WithDebugOverlayType sets the type tag of the overlay pass
var WithDebugOverlayType = func(typeTag string) Option {
	return func(e *Engine) {
		e.overlayType = typeTag
	}
}

// WithSize sets the initial output resolution
var WithSize = func(width, height uint32) Option {
	return func(e *Engine) {
		e.width = width
		e.height = height
	}
}

// WithEnv sets the value passes receive as fnode.Context.Env
var WithEnv = func(env any) Option {
	return func(e *Engine) {
		e.env = env
		e.envSet = true
	}
}

// WithFrameInterval sets the pacing of Run. Zero runs frames back to back.
var WithFrameInterval = func(interval time.Duration) Option {
	return func(e *Engine) {
		e.interval = interval
	}
}
