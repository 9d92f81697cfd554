//go:build windows

package webgpu

import (
	"sync"

	"github.com/go-webgpu/webgpu/wgpu"
)

const (
	smallThreshold  = 4 * 1024    // 4KB
	mediumThreshold = 1024 * 1024 // 1MB
	maxPoolSize     = 16          // Max buffers per category
)

const stagingUsage = wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst

type stagingBuffer struct {
	buffer *wgpu.Buffer
	size   uint64
}

// stagingPool recycles the mappable buffers used to read device memory.
// Buffers are grouped by size category; a request is served by any pooled
// buffer of its category that is large enough.
type stagingPool struct {
	device *wgpu.Device
	pools  [3][]stagingBuffer
	mu     sync.Mutex

	hits   uint64
	misses uint64
}

func newStagingPool(device *wgpu.Device) *stagingPool {
	return &stagingPool{device: device}
}

func category(size uint64) int {
	switch {
	case size < smallThreshold:
		return 0
	case size < mediumThreshold:
		return 1
	default:
		return 2
	}
}

// Acquire returns a staging buffer of at least size bytes.
func (p *stagingPool) Acquire(size uint64) stagingBuffer {
	p.mu.Lock()
	defer p.mu.Unlock()

	c := category(size)
	for i, sb := range p.pools[c] {
		if sb.size >= size {
			p.pools[c] = append(p.pools[c][:i], p.pools[c][i+1:]...)
			p.hits++
			return sb
		}
	}

	p.misses++
	return stagingBuffer{
		buffer: p.device.CreateBuffer(&wgpu.BufferDescriptor{Usage: stagingUsage, Size: size}),
		size:   size,
	}
}

// Release returns sb to the pool, or frees it when the pool is full.
func (p *stagingPool) Release(sb stagingBuffer) {
	p.mu.Lock()
	defer p.mu.Unlock()

	c := category(sb.size)
	if len(p.pools[c]) >= maxPoolSize {
		sb.buffer.Release()
		return
	}
	p.pools[c] = append(p.pools[c], sb)
}

// Clear releases all pooled buffers.
func (p *stagingPool) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for c := range p.pools {
		for _, sb := range p.pools[c] {
			sb.buffer.Release()
		}
		p.pools[c] = nil
	}
}

// Stats returns pool hits, misses and the number of pooled buffers.
func (p *stagingPool) Stats() (hits, misses uint64, pooled int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for c := range p.pools {
		pooled += len(p.pools[c])
	}
	return p.hits, p.misses, pooled
}
