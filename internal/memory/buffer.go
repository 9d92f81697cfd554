package memory

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/born-ml/reorder/internal/engine"
)

// Buffer is storage that lives in host RAM on behalf of an engine.
// Engines that share the address space with the host (or emulate an
// accelerator in host memory) hand these out.
//
// Buffers are reference counted: the memory is dropped when the count
// reaches zero.
type Buffer struct {
	engine   engine.Engine
	data     []byte
	refCount atomic.Int32
	mu       sync.Mutex
	mapped   bool
}

// NewBuffer allocates a zero-filled buffer of size bytes owned by eng.
func NewBuffer(eng engine.Engine, size uint64) *Buffer {
	b := &Buffer{
		engine: eng,
		data:   make([]byte, size),
	}
	b.refCount.Store(1)
	return b
}

// Engine returns the owning engine.
func (b *Buffer) Engine() engine.Engine {
	return b.engine
}

// Size returns the size in bytes.
func (b *Buffer) Size() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return uint64(len(b.data))
}

// IsEmpty always returns false.
func (b *Buffer) IsEmpty() bool {
	return false
}

// Map returns the buffer contents. Only one mapping may be live at a time.
func (b *Buffer) Map() ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.data == nil && b.refCount.Load() <= 0 {
		return nil, ErrReleased
	}
	if b.mapped {
		return nil, ErrAlreadyMapped
	}
	b.mapped = true
	return b.data, nil
}

// Unmap ends the mapping started by Map. host must be the slice Map returned.
func (b *Buffer) Unmap(host []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.mapped {
		return ErrNotMapped
	}
	if len(host) != len(b.data) || (len(host) > 0 && &host[0] != &b.data[0]) {
		return fmt.Errorf("%w: foreign host pointer", ErrNotMapped)
	}
	b.mapped = false
	return nil
}

// Mapped reports whether a mapping is live.
func (b *Buffer) Mapped() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.mapped
}

// Bytes gives engines direct access to the contents without mapping.
func (b *Buffer) Bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.data
}

// Retain increments the reference count.
func (b *Buffer) Retain() {
	b.refCount.Add(1)
}

// Release decrements the reference count and drops the memory at zero.
func (b *Buffer) Release() {
	if b.refCount.Add(-1) == 0 {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.data = nil
	}
}

// HostBytes returns the contents of a host-resident storage without mapping.
func HostBytes(s Storage) ([]byte, error) {
	if IsEmpty(s) {
		return nil, ErrEmptyStorage
	}
	b, ok := s.(*Buffer)
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrNotHost, s)
	}
	data := b.Bytes()
	if data == nil && b.refCount.Load() <= 0 {
		return nil, ErrReleased
	}
	return data, nil
}
