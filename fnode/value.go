package fnode

import "fmt"

// Handle types carried through plugs. Their meaning is agreed between
// producer and consumer; the graph never interprets them.
type (
	TextureHandle    uint32
	BufferHandle     uint32
	CPUBufferHandle  uint32
	MeshStreamHandle uint32
)

// Value is the payload of a plug: a 32-bit handle tagged with exactly one
// resource kind. The zero Value means nothing has been written yet.
type Value struct {
	kind   Kind
	handle uint32
}

// TextureValue wraps a texture handle.
func TextureValue(h TextureHandle) Value {
	return Value{kind: KindTexture, handle: uint32(h)}
}

// BufferValue wraps a GPU buffer handle.
func BufferValue(h BufferHandle) Value {
	return Value{kind: KindGPUBuffer, handle: uint32(h)}
}

// CPUBufferValue wraps a CPU buffer handle.
func CPUBufferValue(h CPUBufferHandle) Value {
	return Value{kind: KindCPUBuffer, handle: uint32(h)}
}

// MeshesValue wraps a mesh stream handle.
func MeshesValue(h MeshStreamHandle) Value {
	return Value{kind: KindMeshes, handle: uint32(h)}
}

// Kind returns the resource kind of v, or 0 for the zero Value.
func (v Value) Kind() Kind {
	return v.kind
}

// IsZero reports whether no value has been written.
func (v Value) IsZero() bool {
	return v.kind == 0
}

// Raw returns the untyped handle.
func (v Value) Raw() uint32 {
	return v.handle
}

// Texture returns the texture handle if v holds one.
func (v Value) Texture() (TextureHandle, bool) {
	return TextureHandle(v.handle), v.kind == KindTexture
}

// Buffer returns the GPU buffer handle if v holds one.
func (v Value) Buffer() (BufferHandle, bool) {
	return BufferHandle(v.handle), v.kind == KindGPUBuffer
}

// CPUBuffer returns the CPU buffer handle if v holds one.
func (v Value) CPUBuffer() (CPUBufferHandle, bool) {
	return CPUBufferHandle(v.handle), v.kind == KindCPUBuffer
}

// Meshes returns the mesh stream handle if v holds one.
func (v Value) Meshes() (MeshStreamHandle, bool) {
	return MeshStreamHandle(v.handle), v.kind == KindMeshes
}

func (v Value) String() string {
	if v.IsZero() {
		return "<unset>"
	}
	return fmt.Sprintf("%s:%d", v.kind, v.handle)
}
