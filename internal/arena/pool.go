// Package arena provides a slab pool addressed by generation-checked handles.
//
// Entries live in one backing slice that only grows. Freed slots are recycled
// through a free list, and every reuse bumps the slot's generation so stale
// handles are detected instead of aliasing the new occupant.
package arena

import "fmt"

// Handle addresses one slot of a Pool. The zero Handle is never valid.
type Handle struct {
	index uint32
	gen   uint32
}

// IsZero reports whether h is the zero handle.
func (h Handle) IsZero() bool {
	return h.gen == 0
}

func (h Handle) String() string {
	return fmt.Sprintf("%d@%d", h.index, h.gen)
}

type slot[T any] struct {
	value T
	gen   uint32
	live  bool
}

// Pool is a slab of T values. It is not safe for concurrent use.
type Pool[T any] struct {
	slots []slot[T]
	free  []uint32
}

// NewPool creates a pool with room for capacity entries before it grows.
func NewPool[T any](capacity int) *Pool[T] {
	return &Pool[T]{
		slots: make([]slot[T], 0, capacity),
	}
}

// Alloc stores v and returns its handle.
func (p *Pool[T]) Alloc(v T) Handle {
	if n := len(p.free); n > 0 {
		idx := p.free[n-1]
		p.free = p.free[:n-1]
		s := &p.slots[idx]
		s.value = v
		s.live = true
		return Handle{index: idx, gen: s.gen}
	}

	// Generations start at 1 so the zero Handle never resolves.
	p.slots = append(p.slots, slot[T]{value: v, gen: 1, live: true})
	return Handle{index: uint32(len(p.slots) - 1), gen: 1}
}

// Get returns a pointer to the value behind h. The pointer is only valid
// until the next Alloc.
func (p *Pool[T]) Get(h Handle) (*T, bool) {
	if h.IsZero() || int(h.index) >= len(p.slots) {
		return nil, false
	}
	s := &p.slots[h.index]
	if !s.live || s.gen != h.gen {
		return nil, false
	}
	return &s.value, true
}

// Free releases the slot behind h. It reports false for stale or unknown handles.
func (p *Pool[T]) Free(h Handle) bool {
	if _, ok := p.Get(h); !ok {
		return false
	}
	s := &p.slots[h.index]
	var zero T
	s.value = zero
	s.live = false
	s.gen++
	if s.gen == 0 {
		s.gen = 1
	}
	p.free = append(p.free, h.index)
	return true
}
