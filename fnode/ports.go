package fnode

import (
	"fmt"
	"strings"
)

// Ports is the plug set of one node. Passes fill it in their constructor;
// the graph seals it when the node is added.
type Ports struct {
	plugs   []Plug
	inputs  []uint32
	outputs []uint32
	sealed  bool
}

// RegisterPlug appends p to the inputs or outputs depending on its
// direction and returns the slot stamped on it.
func (ps *Ports) RegisterPlug(p Plug) (uint32, error) {
	if ps.sealed {
		return 0, fmt.Errorf("%w: cannot register %q", ErrPortsSealed, p.Name)
	}
	if p.Name == "" || strings.ContainsAny(p.Name, " \t\n\r") {
		return 0, fmt.Errorf("%w: name %q", ErrInvalidPlug, p.Name)
	}
	if p.Direction != Input && p.Direction != Output {
		return 0, fmt.Errorf("%w: plug %q has no direction", ErrInvalidPlug, p.Name)
	}
	if p.Kinds == 0 {
		return 0, fmt.Errorf("%w: plug %q declares no resource kind", ErrInvalidPlug, p.Name)
	}
	if _, ok := ps.lookup(p.Direction, p.Name); ok {
		return 0, fmt.Errorf("%w: %s %q", ErrDuplicatePlug, p.Direction, p.Name)
	}

	p.Slot = uint32(len(ps.plugs))
	ps.plugs = append(ps.plugs, p)
	if p.Direction == Input {
		ps.inputs = append(ps.inputs, p.Slot)
	} else {
		ps.outputs = append(ps.outputs, p.Slot)
	}
	return p.Slot, nil
}

// MustRegisterPlug is like RegisterPlug but panics on error.
func (ps *Ports) MustRegisterPlug(p Plug) uint32 {
	slot, err := ps.RegisterPlug(p)
	if err != nil {
		panic(err)
	}
	return slot
}

// Input looks up an input plug by name.
func (ps *Ports) Input(name string) (Plug, error) {
	p, ok := ps.lookup(Input, name)
	if !ok {
		return Plug{}, fmt.Errorf("%w: input %q", ErrPlugNotFound, name)
	}
	return p, nil
}

// Output looks up an output plug by name.
func (ps *Ports) Output(name string) (Plug, error) {
	p, ok := ps.lookup(Output, name)
	if !ok {
		return Plug{}, fmt.Errorf("%w: output %q", ErrPlugNotFound, name)
	}
	return p, nil
}

// MustInput is like Input but panics on error.
func (ps *Ports) MustInput(name string) Plug {
	p, err := ps.Input(name)
	if err != nil {
		panic(err)
	}
	return p
}

// MustOutput is like Output but panics on error.
func (ps *Ports) MustOutput(name string) Plug {
	p, err := ps.Output(name)
	if err != nil {
		panic(err)
	}
	return p
}

// Lookup finds a plug by direction and name.
func (ps *Ports) Lookup(dir Direction, name string) (Plug, error) {
	if dir == Input {
		return ps.Input(name)
	}
	return ps.Output(name)
}

// Slot returns the plug stamped with slot.
func (ps *Ports) Slot(slot uint32) (Plug, bool) {
	if int(slot) >= len(ps.plugs) {
		return Plug{}, false
	}
	return ps.plugs[slot], true
}

// Len returns the total number of slots.
func (ps *Ports) Len() int {
	return len(ps.plugs)
}

// Inputs returns the input plugs in registration order.
func (ps *Ports) Inputs() []Plug {
	return ps.collect(ps.inputs)
}

// Outputs returns the output plugs in registration order.
func (ps *Ports) Outputs() []Plug {
	return ps.collect(ps.outputs)
}

// InputSlots returns the slots of the input plugs in registration order.
// The returned slice must not be modified.
func (ps *Ports) InputSlots() []uint32 {
	return ps.inputs
}

// OutputSlots returns the slots of the output plugs in registration order.
// The returned slice must not be modified.
func (ps *Ports) OutputSlots() []uint32 {
	return ps.outputs
}

// Seal freezes the plug set. Called by the graph when the node is added.
func (ps *Ports) Seal() {
	ps.sealed = true
}

// Sealed reports whether the plug set is frozen.
func (ps *Ports) Sealed() bool {
	return ps.sealed
}

func (ps *Ports) lookup(dir Direction, name string) (Plug, bool) {
	slots := ps.inputs
	if dir == Output {
		slots = ps.outputs
	}
	for _, s := range slots {
		if ps.plugs[s].Name == name {
			return ps.plugs[s], true
		}
	}
	return Plug{}, false
}

func (ps *Ports) collect(slots []uint32) []Plug {
	out := make([]Plug, len(slots))
	for i, s := range slots {
		out[i] = ps.plugs[s]
	}
	return out
}
