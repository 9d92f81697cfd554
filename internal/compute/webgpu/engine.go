//go:build windows

// Package webgpu implements a compute engine on a WebGPU device.
// Uses go-webgpu (github.com/go-webgpu/webgpu) for zero-CGO WebGPU bindings.
//
// Storages live in device buffers. Reorder kernels are rendered to WGSL with
// the job's dimensions baked in and cached as compute pipelines per source.
package webgpu

import (
	"fmt"
	"sync"

	"github.com/born-ml/reorder/internal/compute"
	"github.com/born-ml/reorder/internal/engine"
	"github.com/born-ml/reorder/internal/memory"
	"github.com/go-webgpu/webgpu/wgpu"
	"k8s.io/klog/v2"
)

// Verify that Engine implements compute.Engine.
var _ compute.Engine = (*Engine)(nil)

// wgslSource is implemented by kernel configurations that render to WGSL.
type wgslSource interface {
	compute.KernelConf
	WGSL(r compute.NDRange) (string, error)
}

// Engine is a WebGPU device.
type Engine struct {
	id   string
	name string

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue
	info     *wgpu.AdapterInfo

	// Pipelines keyed by WGSL source.
	pipelines map[string]*wgpu.ComputePipeline
	shaders   []*wgpu.ShaderModule
	mu        sync.Mutex

	staging *stagingPool

	// Command buffers are batched and submitted together on flush. Resources
	// they reference are released after submission.
	pending   []*wgpu.CommandBuffer
	cleanup   []func()
	pendingMu sync.Mutex
}

// New creates an engine on the default high-performance adapter.
// Returns an error if WebGPU is not available or initialization fails.
func New() (e *Engine, err error) {
	// Recover from panic if wgpu_native library is not found.
	defer func() {
		if r := recover(); r != nil {
			e = nil
			err = fmt.Errorf("webgpu: native library not available: %v", r)
		}
	}()

	instance := wgpu.CreateInstance(nil)
	adapter, err := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		PowerPreference: wgpu.PowerPreferenceHighPerformance,
	})
	if err != nil {
		instance.Release()
		return nil, fmt.Errorf("webgpu: failed to request adapter: %w", err)
	}
	info := adapter.GetInfo()

	device, err := adapter.RequestDevice(nil)
	if err != nil {
		adapter.Release()
		instance.Release()
		return nil, fmt.Errorf("webgpu: failed to request device: %w", err)
	}

	queue := device.GetQueue()
	if queue == nil {
		device.Release()
		adapter.Release()
		instance.Release()
		return nil, fmt.Errorf("webgpu: failed to get queue")
	}

	e = &Engine{
		id:        engine.NewID(),
		instance:  instance,
		adapter:   adapter,
		device:    device,
		queue:     queue,
		info:      &info,
		pipelines: make(map[string]*wgpu.ComputePipeline),
		staging:   newStagingPool(device),
	}
	e.name = fmt.Sprintf("webgpu (%s %s)", info.Device, info.Vendor)
	klog.V(1).InfoS("Created webgpu engine", "engine", e.name, "id", e.id)
	return e, nil
}

// IsAvailable checks if WebGPU is available on this system.
func IsAvailable() (available bool) {
	defer func() {
		if r := recover(); r != nil {
			available = false
		}
	}()

	instance := wgpu.CreateInstance(nil)
	defer instance.Release()

	adapter, err := instance.RequestAdapter(nil)
	if err != nil {
		return false
	}
	adapter.Release()
	return true
}

// ID returns the engine identifier.
func (e *Engine) ID() string { return e.id }

// Kind is always engine.GPU.
func (e *Engine) Kind() engine.Kind { return engine.GPU }

// Name returns the adapter description.
func (e *Engine) Name() string { return e.name }

// AdapterInfo returns information about the GPU adapter.
func (e *Engine) AdapterInfo() *wgpu.AdapterInfo { return e.info }

// NewStorage allocates a zero-filled device buffer.
func (e *Engine) NewStorage(size uint64) (memory.Storage, error) {
	return newBuffer(e, size), nil
}

// CreateKernel records conf. The shader is generated at launch, when the
// work-group size is known.
func (e *Engine) CreateKernel(conf compute.KernelConf) (compute.Kernel, error) {
	src, ok := conf.(wgslSource)
	if !ok {
		return nil, fmt.Errorf("webgpu: %w: %s has no WGSL form", compute.ErrUnknownKernel, conf.KernelName())
	}
	return &Kernel{name: conf.KernelName(), engine: e, src: src}, nil
}

// NewStream creates a stream on the device queue.
func (e *Engine) NewStream() (compute.Stream, error) {
	return &Stream{id: engine.NewID(), engine: e}, nil
}

// Close flushes pending work and releases all WebGPU resources.
func (e *Engine) Close() error {
	e.flush()

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.staging != nil {
		e.staging.Clear()
		e.staging = nil
	}
	for _, p := range e.pipelines {
		p.Release()
	}
	e.pipelines = nil
	for _, s := range e.shaders {
		s.Release()
	}
	e.shaders = nil

	if e.queue != nil {
		e.queue.Release()
		e.queue = nil
	}
	if e.device != nil {
		e.device.Release()
		e.device = nil
	}
	if e.adapter != nil {
		e.adapter.Release()
		e.adapter = nil
	}
	if e.instance != nil {
		e.instance.Release()
		e.instance = nil
	}
	return nil
}

// submit queues cmd; release runs once cmd has been submitted.
func (e *Engine) submit(cmd *wgpu.CommandBuffer, release ...func()) {
	e.pendingMu.Lock()
	defer e.pendingMu.Unlock()
	e.pending = append(e.pending, cmd)
	e.cleanup = append(e.cleanup, release...)
}

// flush submits all pending command buffers in order.
func (e *Engine) flush() {
	e.pendingMu.Lock()
	defer e.pendingMu.Unlock()
	if len(e.pending) == 0 {
		return
	}
	e.queue.Submit(e.pending...)
	for _, f := range e.cleanup {
		f()
	}
	e.pending = e.pending[:0]
	e.cleanup = e.cleanup[:0]
}

// pipeline returns the cached pipeline for code, compiling it on first use.
func (e *Engine) pipeline(code string) *wgpu.ComputePipeline {
	e.mu.Lock()
	defer e.mu.Unlock()

	if p, ok := e.pipelines[code]; ok {
		return p
	}
	shader := e.device.CreateShaderModuleWGSL(code)
	e.shaders = append(e.shaders, shader)
	p := e.device.CreateComputePipelineSimple(nil, shader, "main")
	e.pipelines[code] = p
	return p
}

// Kernel is a reorder configuration bound to a WebGPU engine.
type Kernel struct {
	name   string
	engine *Engine
	src    wgslSource
}

// Name returns the kernel name.
func (k *Kernel) Name() string { return k.name }

// Engine returns the engine the kernel was created on.
func (k *Kernel) Engine() engine.Engine { return k.engine }
