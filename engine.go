package framegraph

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-logr/logr"
	"go.uber.org/multierr"

	"github.com/birdayz/framegraph/fgraph"
	"github.com/birdayz/framegraph/fmetrics"
	"github.com/birdayz/framegraph/fnode"
)

var (
	ErrInvalidEngine = errors.New("framegraph: invalid engine configuration")
	ErrNotStarted    = errors.New("framegraph: engine not started")
	ErrClosed        = errors.New("framegraph: engine closed")
	ErrNoOverlay     = errors.New("framegraph: no debug overlay configured")
)

// Edit is a structural change applied to the graph between two frames.
type Edit func(g *fgraph.Graph) error

type pendingEdit struct {
	name   string
	apply  Edit
	result chan error
}

type resizeRequest struct {
	width, height uint32
}

// Engine drives a frame graph: it finalizes it, computes one frame per tick
// and applies structural edits requested from other goroutines at frame
// boundaries, after the device queue has been flushed.
//
// The graph belongs to the engine once New returns. Only Submit,
// SetDebugOverlay, RequestResize and Close may be called concurrently with
// Run.
type Engine struct {
	g *fgraph.Graph

	log         logr.Logger
	metrics     *fmetrics.Metrics
	debugChecks bool
	flusher     QueueFlusher
	interval    time.Duration
	env         any
	envSet      bool

	width  uint32
	height uint32

	overlay       func() fnode.Pass
	overlayAnchor string
	overlayInput  string
	overlayType   string

	// loopMu is held while a frame or the whole Run loop owns the graph.
	loopMu  sync.Mutex
	started bool

	frames    atomic.Uint64
	overlayOn atomic.Bool

	mu      sync.Mutex
	pending []pendingEdit
	resize  *resizeRequest
	closed  bool
	quit    chan struct{}
}

// New creates an engine for g.
func New(g *fgraph.Graph, opts ...Option) (*Engine, error) {
	if g == nil {
		return nil, fmt.Errorf("%w: graph is nil", ErrInvalidEngine)
	}
	e := &Engine{
		g:           g,
		log:         logr.Discard(),
		overlayType: DefaultDebugOverlayType,
		quit:        make(chan struct{}),
	}
	e.width, e.height = g.Size()

	for _, opt := range opts {
		opt(e)
	}

	if e.interval < 0 {
		return nil, fmt.Errorf("%w: negative frame interval %s", ErrInvalidEngine, e.interval)
	}
	if e.overlay != nil && (e.overlayAnchor == "" || e.overlayInput == "") {
		return nil, fmt.Errorf("%w: debug overlay needs an anchor node and input plug", ErrInvalidEngine)
	}

	g.SetLogger(e.log.WithName("graph"))
	if e.envSet {
		g.SetEnv(e.env)
	}
	if e.metrics != nil {
		g.SetObserver(e.metrics)
	}
	return e, nil
}

// MustNew is like New but panics on configuration errors.
func MustNew(g *fgraph.Graph, opts ...Option) *Engine {
	e, err := New(g, opts...)
	if err != nil {
		panic(err)
	}
	return e
}

// Graph returns the driven graph. It must not be edited directly while Run
// is active; use Submit.
func (e *Engine) Graph() *fgraph.Graph {
	return e.g
}

// Frames returns the number of frames computed so far.
func (e *Engine) Frames() uint64 {
	return e.frames.Load()
}

// Start applies the initial resolution and finalizes the graph.
func (e *Engine) Start(ctx context.Context) error {
	e.loopMu.Lock()
	defer e.loopMu.Unlock()
	return e.start(ctx)
}

func (e *Engine) start(ctx context.Context) error {
	if e.isClosed() {
		return ErrClosed
	}
	if e.started {
		return nil
	}
	if err := e.g.Resize(e.width, e.height); err != nil {
		return fmt.Errorf("initial resize: %w", err)
	}
	if err := e.finalize(ctx); err != nil {
		return err
	}
	e.started = true
	e.log.Info("engine started", "width", e.width, "height", e.height, "final", e.g.FinalNode())
	return nil
}

// Frame applies pending edits and computes one frame.
func (e *Engine) Frame(ctx context.Context) error {
	e.loopMu.Lock()
	defer e.loopMu.Unlock()
	if !e.started {
		return ErrNotStarted
	}
	if e.isClosed() {
		return ErrClosed
	}
	return e.frame(ctx)
}

func (e *Engine) frame(ctx context.Context) error {
	if err := e.applyPending(ctx); err != nil {
		return err
	}

	start := time.Now()
	err := e.g.Compute(ctx)
	if e.metrics != nil {
		e.metrics.FrameComputed(time.Since(start), err)
	}
	if err != nil {
		return fmt.Errorf("frame %d: %w", e.frames.Load(), err)
	}
	e.frames.Add(1)
	return nil
}

// Run computes frames until ctx is cancelled, Close is called or, when
// frames is non-zero, that many frames have been computed. It starts the
// engine if needed. Cancellation is a graceful stop and returns nil.
func (e *Engine) Run(ctx context.Context, frames uint64) error {
	e.loopMu.Lock()
	defer e.loopMu.Unlock()

	if err := e.start(ctx); err != nil {
		return err
	}

	var tick <-chan time.Time
	if e.interval > 0 {
		ticker := time.NewTicker(e.interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for n := uint64(0); frames == 0 || n < frames; n++ {
		if tick != nil {
			select {
			case <-ctx.Done():
				return nil
			case <-e.quit:
				return nil
			case <-tick:
			}
		} else {
			select {
			case <-ctx.Done():
				return nil
			case <-e.quit:
				return nil
			default:
			}
		}
		if err := e.frame(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Submit queues an edit for the next frame boundary. The returned channel
// receives the edit's result once it has been applied.
func (e *Engine) Submit(name string, edit Edit) <-chan error {
	result := make(chan error, 1)
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		result <- ErrClosed
		return result
	}
	e.pending = append(e.pending, pendingEdit{name: name, apply: edit, result: result})
	return result
}

// RequestResize queues a resolution change for the next frame boundary.
// Only the latest request is applied.
func (e *Engine) RequestResize(width, height uint32) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.resize = &resizeRequest{width: width, height: height}
}

// SetDebugOverlay queues splicing the debug overlay in or out. Switching it
// to its current state is a no-op.
func (e *Engine) SetDebugOverlay(enabled bool) <-chan error {
	if e.overlay == nil {
		result := make(chan error, 1)
		result <- ErrNoOverlay
		return result
	}
	if enabled {
		return e.Submit("debug-overlay-on", e.insertOverlay)
	}
	return e.Submit("debug-overlay-off", e.removeOverlay)
}

func (e *Engine) insertOverlay(g *fgraph.Graph) error {
	if _, ok := g.FindNodeOfType(e.overlayType); ok {
		e.overlayOn.Store(true)
		return nil
	}
	pass := e.overlay()
	err := g.InsertNode(pass, e.overlayAnchor, e.overlayInput, fgraph.WithExpectedType(e.overlayType))
	if err != nil {
		if p, ok := g.Node(pass.Name()); ok && p == pass {
			_, derr := g.DeleteNode(pass.Name())
			err = multierr.Append(err, derr)
		}
		return err
	}
	e.overlayOn.Store(true)
	if e.metrics != nil {
		e.metrics.Spliced(fmetrics.OpInsert)
	}
	return nil
}

func (e *Engine) removeOverlay(g *fgraph.Graph) error {
	pass, ok := g.FindNodeOfType(e.overlayType)
	if !ok {
		e.overlayOn.Store(false)
		return nil
	}
	removed, err := g.RemoveNode(pass.Name(), fgraph.WithExpectedType(e.overlayType))
	if err != nil {
		return err
	}
	e.overlayOn.Store(false)
	if e.metrics != nil {
		e.metrics.Spliced(fmetrics.OpRemove)
	}
	// unregistered nodes are not cleared by the next finalize
	return removed.Clear()
}

// DebugOverlay reports whether the overlay was part of the graph after the
// last applied edit.
func (e *Engine) DebugOverlay() bool {
	return e.overlayOn.Load()
}

// applyPending flushes the device queue and applies queued edits and the
// latest resize request, then re-finalizes if the graph changed. Failed
// edits are reported to their submitter and do not stop the frame.
func (e *Engine) applyPending(ctx context.Context) error {
	e.mu.Lock()
	pending := e.pending
	resize := e.resize
	e.pending = nil
	e.resize = nil
	e.mu.Unlock()

	if len(pending) == 0 && resize == nil {
		return nil
	}

	if e.flusher != nil {
		if err := e.flusher.Flush(ctx); err != nil {
			e.requeue(pending, resize)
			return fmt.Errorf("flush queue: %w", err)
		}
	}

	for _, p := range pending {
		err := p.apply(e.g)
		if err != nil {
			e.log.Error(err, "graph edit failed", "edit", p.name)
		} else {
			e.log.V(1).Info("graph edit applied", "edit", p.name)
		}
		p.result <- err
	}

	// on a dirty graph Resize only records the size for the finalize below
	if resize != nil {
		e.width, e.height = resize.width, resize.height
		if err := e.g.Resize(resize.width, resize.height); err != nil {
			return fmt.Errorf("resize %dx%d: %w", resize.width, resize.height, err)
		}
		e.log.Info("resized", "width", resize.width, "height", resize.height)
	}
	if e.g.Dirty() {
		return e.finalize(ctx)
	}
	return nil
}

// requeue puts edits back after a failed flush. Once Close has drained the
// queue nobody would pick them up again, so they fail with ErrClosed.
func (e *Engine) requeue(pending []pendingEdit, resize *resizeRequest) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		for _, p := range pending {
			p.result <- ErrClosed
		}
		return
	}
	e.pending = append(pending, e.pending...)
	if e.resize == nil {
		e.resize = resize
	}
}

func (e *Engine) finalize(ctx context.Context) error {
	if e.debugChecks {
		if err := e.g.Validate(); err != nil {
			return err
		}
	}
	if err := e.g.Finalize(ctx); err != nil {
		return fmt.Errorf("finalize: %w", err)
	}
	if e.metrics != nil {
		e.metrics.Finalized(len(e.g.Order()), len(e.g.Diagnostics().Unreachable))
	}
	return nil
}

func (e *Engine) isClosed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closed
}

// Close stops Run, fails queued edits with ErrClosed, flushes the device
// queue and clears every node.
func (e *Engine) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	close(e.quit)
	pending := e.pending
	e.pending = nil
	e.mu.Unlock()

	for _, p := range pending {
		p.result <- ErrClosed
	}

	// wait for the frame loop to let go of the graph
	e.loopMu.Lock()
	defer e.loopMu.Unlock()

	var errs error
	if e.flusher != nil {
		errs = multierr.Append(errs, e.flusher.Flush(context.Background()))
	}
	errs = multierr.Append(errs, e.g.Clear())
	e.log.Info("engine closed", "frames", e.frames.Load())
	return errs
}
