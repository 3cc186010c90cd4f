package fnode

import (
	"fmt"
	"strings"
)

// Direction is the data direction of a plug.
type Direction int

const (
	// Input plugs consume a value written by a producer plug on another node.
	Input Direction = iota + 1
	// Output plugs carry a value written by the owning node.
	Output
)

func (d Direction) String() string {
	switch d {
	case Input:
		return "input"
	case Output:
		return "output"
	default:
		return "invalid"
	}
}

// Opposite returns the direction a plug must have to be connected to d.
func (d Direction) Opposite() Direction {
	switch d {
	case Input:
		return Output
	case Output:
		return Input
	default:
		return 0
	}
}

// Kind is a bitset of resource categories. A plug declares the set it
// accepts; a Value carries exactly one.
type Kind uint32

const (
	KindGPUBuffer Kind = 1 << iota
	KindTexture
	KindCPUBuffer
	KindMeshes

	// KindAny accepts every resource category.
	KindAny = KindGPUBuffer | KindTexture | KindCPUBuffer | KindMeshes
)

var kindNames = []struct {
	kind Kind
	name string
}{
	{KindGPUBuffer, "gpu-buffer"},
	{KindTexture, "texture"},
	{KindCPUBuffer, "cpu-buffer"},
	{KindMeshes, "meshes"},
}

// Intersects reports whether k and other share at least one category.
func (k Kind) Intersects(other Kind) bool {
	return k&other != 0
}

func (k Kind) String() string {
	if k == 0 {
		return "none"
	}
	var parts []string
	for _, kn := range kindNames {
		if k&kn.kind != 0 {
			parts = append(parts, kn.name)
		}
	}
	if rest := k &^ KindAny; rest != 0 {
		parts = append(parts, fmt.Sprintf("0x%x", uint32(rest)))
	}
	return strings.Join(parts, "|")
}

// Plug is a named, directional, typed port on a node.
type Plug struct {
	Name      string
	Direction Direction
	Kinds     Kind

	// Slot is stamped by Ports.RegisterPlug. Inputs and outputs share one
	// dense slot space in registration order.
	Slot uint32
}

// InputPlug declares an input plug accepting kinds.
func InputPlug(name string, kinds Kind) Plug {
	return Plug{Name: name, Direction: Input, Kinds: kinds}
}

// OutputPlug declares an output plug producing kinds.
func OutputPlug(name string, kinds Kind) Plug {
	return Plug{Name: name, Direction: Output, Kinds: kinds}
}

func (p Plug) String() string {
	return fmt.Sprintf("%s(%s %s)", p.Name, p.Direction, p.Kinds)
}
