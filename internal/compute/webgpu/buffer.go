//go:build windows

package webgpu

import (
	"fmt"
	"sync"
	"unsafe"

	"github.com/born-ml/reorder/internal/engine"
	"github.com/born-ml/reorder/internal/memory"
	"github.com/go-webgpu/webgpu/wgpu"
)

const bufferUsage = wgpu.BufferUsageStorage | wgpu.BufferUsageCopySrc | wgpu.BufferUsageCopyDst

// align4 rounds n up to the copy alignment of WebGPU buffers.
func align4(n uint64) uint64 {
	return (n + 3) &^ 3
}

// Buffer is a device storage buffer. Mapping reads the contents into a
// host shadow; unmapping uploads the shadow back.
type Buffer struct {
	engine *Engine
	buf    *wgpu.Buffer
	size   uint64

	mu       sync.Mutex
	host     []byte
	released bool
}

func newBuffer(e *Engine, size uint64) *Buffer {
	return &Buffer{
		engine: e,
		buf:    e.device.CreateBuffer(&wgpu.BufferDescriptor{Usage: bufferUsage, Size: align4(max(size, 4))}),
		size:   size,
	}
}

// Engine returns the owning engine.
func (b *Buffer) Engine() engine.Engine { return b.engine }

// Size returns the logical size in bytes.
func (b *Buffer) Size() uint64 { return b.size }

// IsEmpty reports false: a device buffer is never the empty storage.
func (b *Buffer) IsEmpty() bool { return false }

// Map reads the buffer into host memory.
func (b *Buffer) Map() ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.released {
		return nil, memory.ErrReleased
	}
	if b.host != nil {
		return nil, memory.ErrAlreadyMapped
	}
	data, err := b.engine.read(b.buf, align4(b.size))
	if err != nil {
		return nil, err
	}
	b.host = data
	return data[:b.size], nil
}

// Unmap uploads host, which must come from Map, and ends the mapping.
func (b *Buffer) Unmap(host []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.host == nil || len(host) != int(b.size) || (b.size > 0 && &host[0] != &b.host[0]) { //nolint:gosec // G115: size fits in int for mapped buffers
		return memory.ErrNotMapped
	}
	data := b.host
	b.host = nil
	if b.released {
		return memory.ErrReleased
	}
	b.engine.write(b.buf, 0, data)
	return nil
}

// Release frees the device buffer once pending work using it is submitted.
func (b *Buffer) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.released {
		b.engine.flush()
		b.buf.Release()
		b.released = true
	}
}

// read copies size bytes of src into a new host slice through a staging buffer.
func (e *Engine) read(src *wgpu.Buffer, size uint64) ([]byte, error) {
	staging := e.staging.Acquire(size)
	defer e.staging.Release(staging)

	encoder := e.device.CreateCommandEncoder(nil)
	encoder.CopyBufferToBuffer(src, 0, staging.buffer, 0, size)
	e.submit(encoder.Finish(nil))
	e.flush()

	if err := staging.buffer.MapAsync(e.device, wgpu.MapModeRead, 0, size); err != nil {
		return nil, fmt.Errorf("webgpu: failed to map staging buffer: %w", err)
	}
	ptr := staging.buffer.GetMappedRange(0, size)
	//nolint:gosec // unsafe.Slice for zero-copy conversion from unsafe.Pointer
	mapped := unsafe.Slice((*byte)(ptr), size)
	out := make([]byte, size)
	copy(out, mapped)
	staging.buffer.Unmap()
	return out, nil
}

// write uploads data into dst at offset. len(data) must be a multiple of 4.
func (e *Engine) write(dst *wgpu.Buffer, offset uint64, data []byte) {
	size := uint64(len(data))
	if size == 0 {
		return
	}
	upload := e.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage:            wgpu.BufferUsageCopySrc,
		Size:             size,
		MappedAtCreation: wgpu.True,
	})

	ptr := upload.GetMappedRange(0, size)
	//nolint:gosec // unsafe.Slice for zero-copy conversion from unsafe.Pointer
	copy(unsafe.Slice((*byte)(ptr), size), data)
	upload.Unmap()

	encoder := e.device.CreateCommandEncoder(nil)
	encoder.CopyBufferToBuffer(upload, 0, dst, offset, size)
	e.submit(encoder.Finish(nil), upload.Release)
}
