package passes

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/birdayz/framegraph/fnode"
)

var ErrUnknownHandle = errors.New("unknown resource handle")

// Resource describes one live allocation.
type Resource struct {
	Kind   fnode.Kind
	Owner  string
	Width  uint32
	Height uint32
}

// Device is a stand-in for a graphics device: it hands out resource handles
// and records the commands passes issue during a frame.
type Device struct {
	mu       sync.Mutex
	next     uint32
	live     map[uint32]Resource
	commands []string
}

func NewDevice() *Device {
	return &Device{
		live: make(map[uint32]Resource),
	}
}

// Alloc creates a resource and returns its handle. Handles are never zero
// and never reused.
func (d *Device) Alloc(r Resource) uint32 {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.next++
	d.live[d.next] = r
	return d.next
}

// Free releases a handle returned by Alloc.
func (d *Device) Free(h uint32) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.live[h]; !ok {
		return fmt.Errorf("%w: %d", ErrUnknownHandle, h)
	}
	delete(d.live, h)
	return nil
}

// Lookup returns the resource behind h.
func (d *Device) Lookup(h uint32) (Resource, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	r, ok := d.live[h]
	return r, ok
}

// Live returns the number of live resources, optionally limited to the
// given owner.
func (d *Device) Live(owner string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	if owner == "" {
		return len(d.live)
	}
	n := 0
	for _, r := range d.live {
		if r.Owner == owner {
			n++
		}
	}
	return n
}

// Record appends a command to the current frame's command list.
func (d *Device) Record(format string, args ...any) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.commands = append(d.commands, fmt.Sprintf(format, args...))
}

// Present returns the recorded command list and starts a new one.
func (d *Device) Present() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	cmds := d.commands
	d.commands = nil
	return cmds
}

// Flush waits for the device to go idle. The stand-in has no queue, so it
// only drops commands that were never presented.
func (d *Device) Flush(context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.commands = nil
	return nil
}
