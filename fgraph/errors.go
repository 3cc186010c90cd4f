package fgraph

import (
	"errors"

	"github.com/birdayz/framegraph/fnode"
)

// Sentinel errors for common failure cases.
var (
	ErrNodeAlreadyExists = errors.New("node already exists")
	ErrNodeNotFound      = errors.New("node not found")
	ErrInvalidNodeName   = errors.New("invalid node name")
	ErrDirectionMismatch = errors.New("plug direction mismatch")
	ErrAlreadyConnected  = errors.New("plugs already connected")
	ErrNotConnected      = errors.New("plugs not connected")
	ErrNoFinalNode       = errors.New("no final node set")
	ErrNotFinalized      = errors.New("graph changed since last finalize")
	ErrTypeMismatch      = errors.New("node type mismatch")
	ErrCycleDetected     = errors.New("cycle detected in frame graph")
	ErrUnreachableNodes  = errors.New("nodes unreachable from final node")
	ErrInvalidGraph      = errors.New("invalid frame graph")

	// Re-exported from fnode so callers can match every graph error in one place.
	ErrPlugNotFound = fnode.ErrPlugNotFound
	ErrKindMismatch = fnode.ErrKindMismatch
	ErrFanIn        = fnode.ErrFanIn
)

func must(err error) {
	if err != nil {
		panic(err)
	}
}
