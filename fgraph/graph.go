package fgraph

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-logr/logr"
	"golang.org/x/exp/slices"

	"github.com/birdayz/framegraph/fnode"
	"github.com/birdayz/framegraph/internal/arena"
)

// MaxNodes bounds the number of registered nodes.
const MaxNodes = 4096

// NodeRef identifies a registered node. Refs of removed nodes go stale and
// never resolve again, even when the slot is reused.
type NodeRef struct {
	h arena.Handle
}

// IsZero reports whether r refers to no node.
func (r NodeRef) IsZero() bool {
	return r.h.IsZero()
}

func (r NodeRef) String() string {
	return r.h.String()
}

// PlugRef identifies one plug slot of a registered node.
type PlugRef struct {
	Node NodeRef
	Slot uint32
}

// Link is a connection described by names, producer first.
type Link struct {
	Producer     string
	ProducerPlug string
	Consumer     string
	ConsumerPlug string
}

func (l Link) String() string {
	return fmt.Sprintf("%s.%s -> %s.%s", l.Producer, l.ProducerPlug, l.Consumer, l.ConsumerPlug)
}

// Observer is notified after every node compute.
type Observer interface {
	NodeComputed(node string, elapsed time.Duration, err error)
}

type entry struct {
	pass fnode.Pass

	// index is dense over registered nodes and only used as a visited-set key.
	index uint32

	values []fnode.Value
	links  [][]PlugRef

	io   nodeIO
	fctx *fnode.Context
}

// Graph is the frame graph: a registry of passes, their connections, one
// final node and the execution order derived from them.
//
// IMPORTANT: Graph is NOT safe for concurrent use. Build, edit and execute
// it from one goroutine, typically the render thread.
type Graph struct {
	log      logr.Logger
	env      any
	observer Observer

	nodes   *arena.Pool[*entry]
	byName  map[string]NodeRef
	byIndex []NodeRef

	final NodeRef
	order []NodeRef
	diag  Diagnostics

	width  uint32
	height uint32
	frame  uint64

	// dirty is set by every structural edit and cleared by Finalize.
	dirty bool
}

// Option configures a Graph.
type Option func(*Graph)

// WithLogger sets the logger. Nodes get a child logger named after them.
func WithLogger(log logr.Logger) Option {
	return func(g *Graph) {
		g.log = log
	}
}

// WithEnv sets the value exposed to passes as fnode.Context.Env.
func WithEnv(env any) Option {
	return func(g *Graph) {
		g.env = env
	}
}

// WithObserver sets the per-node compute observer.
func WithObserver(o Observer) Option {
	return func(g *Graph) {
		g.observer = o
	}
}

// WithSize sets the initial output resolution.
func WithSize(width, height uint32) Option {
	return func(g *Graph) {
		g.width = width
		g.height = height
	}
}

// New creates an empty graph.
func New(opts ...Option) *Graph {
	g := &Graph{
		log:    logr.Discard(),
		nodes:  arena.NewPool[*entry](32),
		byName: make(map[string]NodeRef),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// SetObserver replaces the per-node compute observer.
func (g *Graph) SetObserver(o Observer) {
	g.observer = o
}

// SetLogger replaces the logger. Node loggers pick it up on the next Finalize.
func (g *Graph) SetLogger(log logr.Logger) {
	g.log = log
}

// SetEnv replaces the value exposed to passes as fnode.Context.Env. Passes
// see it from the next Finalize on.
func (g *Graph) SetEnv(env any) {
	g.env = env
}

func validateName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: name cannot be empty", ErrInvalidNodeName)
	}
	if strings.ContainsAny(name, " \t\n\r") {
		return fmt.Errorf("%w: %q cannot contain whitespace", ErrInvalidNodeName, name)
	}
	return nil
}

// AddNode registers a pass. Its plug set is sealed from here on. The graph
// does not own the pass; the caller keeps it alive and releases it.
func (g *Graph) AddNode(pass fnode.Pass) (NodeRef, error) {
	name := pass.Name()
	if err := validateName(name); err != nil {
		return NodeRef{}, err
	}
	if _, exists := g.byName[name]; exists {
		return NodeRef{}, fmt.Errorf("%w: %s", ErrNodeAlreadyExists, name)
	}
	if len(g.byIndex) >= MaxNodes {
		return NodeRef{}, fmt.Errorf("%w: node count exceeds maximum %d", ErrInvalidGraph, MaxNodes)
	}

	ports := pass.Ports()
	ports.Seal()

	e := &entry{
		pass:   pass,
		index:  uint32(len(g.byIndex)),
		values: make([]fnode.Value, ports.Len()),
		links:  make([][]PlugRef, ports.Len()),
	}
	ref := NodeRef{h: g.nodes.Alloc(e)}
	e.io = nodeIO{g: g, ref: ref}

	g.byName[name] = ref
	g.byIndex = append(g.byIndex, ref)
	g.dirty = true

	g.log.V(1).Info("node added", "node", name, "type", pass.Type(), "index", e.index)
	return ref, nil
}

// MustAddNode is like AddNode but panics on error.
func (g *Graph) MustAddNode(pass fnode.Pass) NodeRef {
	ref, err := g.AddNode(pass)
	must(err)
	return ref
}

// SetFinalNode designates the sink of the graph. Only nodes reachable
// backwards from it are executed.
func (g *Graph) SetFinalNode(name string) error {
	ref, _, err := g.lookup(name)
	if err != nil {
		return err
	}
	if g.final != ref {
		g.final = ref
		g.dirty = true
	}
	return nil
}

// MustSetFinalNode is like SetFinalNode but panics on error.
func (g *Graph) MustSetFinalNode(name string) {
	must(g.SetFinalNode(name))
}

// FinalNode returns the name of the final node, or "" if none is set.
func (g *Graph) FinalNode() string {
	e, ok := g.entry(g.final)
	if !ok {
		return ""
	}
	return e.pass.Name()
}

// Node returns the pass registered under name.
func (g *Graph) Node(name string) (fnode.Pass, bool) {
	_, e, err := g.lookup(name)
	if err != nil {
		return nil, false
	}
	return e.pass, true
}

// Ref returns the reference of the node registered under name.
func (g *Graph) Ref(name string) (NodeRef, bool) {
	ref, ok := g.byName[name]
	return ref, ok
}

// NodeName returns the name of the node behind ref.
func (g *Graph) NodeName(ref NodeRef) (string, bool) {
	e, ok := g.entry(ref)
	if !ok {
		return "", false
	}
	return e.pass.Name(), true
}

// FindNodeOfType returns the first registered node, in registration order,
// whose type tag equals typeTag. It is the only lookup that reports absence
// without an error.
func (g *Graph) FindNodeOfType(typeTag string) (fnode.Pass, bool) {
	for _, ref := range g.byIndex {
		e, ok := g.entry(ref)
		if ok && e.pass.Type() == typeTag {
			return e.pass, true
		}
	}
	return nil, false
}

// Names returns the names of all registered nodes in registration order.
func (g *Graph) Names() []string {
	names := make([]string, 0, len(g.byIndex))
	for _, ref := range g.byIndex {
		if e, ok := g.entry(ref); ok {
			names = append(names, e.pass.Name())
		}
	}
	return names
}

// Len returns the number of registered nodes.
func (g *Graph) Len() int {
	return len(g.byIndex)
}

// Order returns the node names of the last finalize in execution order.
// It is empty while the graph has unfinalized edits.
func (g *Graph) Order() []string {
	if g.dirty {
		return nil
	}
	names := make([]string, 0, len(g.order))
	for _, ref := range g.order {
		if e, ok := g.entry(ref); ok {
			names = append(names, e.pass.Name())
		}
	}
	return names
}

// Dirty reports whether the graph has structural edits that need a Finalize.
func (g *Graph) Dirty() bool {
	return g.dirty
}

// Size returns the current output resolution.
func (g *Graph) Size() (width, height uint32) {
	return g.width, g.height
}

// Frame returns the number of frames computed so far.
func (g *Graph) Frame() uint64 {
	return g.frame
}

func (g *Graph) entry(ref NodeRef) (*entry, bool) {
	e, ok := g.nodes.Get(ref.h)
	if !ok {
		return nil, false
	}
	return *e, true
}

func (g *Graph) lookup(name string) (NodeRef, *entry, error) {
	ref, ok := g.byName[name]
	if !ok {
		return NodeRef{}, nil, fmt.Errorf("%w: %s", ErrNodeNotFound, name)
	}
	e, ok := g.entry(ref)
	if !ok {
		return NodeRef{}, nil, fmt.Errorf("%w: %s (stale reference)", ErrNodeNotFound, name)
	}
	return ref, e, nil
}

// unregister drops a node that has no connections left and re-packs the
// graph indices so they stay dense.
func (g *Graph) unregister(ref NodeRef) {
	e, ok := g.entry(ref)
	if !ok {
		return
	}
	delete(g.byName, e.pass.Name())
	g.nodes.Free(ref.h)
	if g.final == ref {
		g.final = NodeRef{}
	}

	g.byIndex = slices.DeleteFunc(g.byIndex, func(r NodeRef) bool { return r == ref })
	for i, r := range g.byIndex {
		if re, ok := g.entry(r); ok {
			re.index = uint32(i)
		}
	}

	g.order = g.order[:0]
	g.dirty = true
}
