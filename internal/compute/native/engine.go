// Package native implements engines whose memory lives in host RAM and
// whose kernels run as Go programs. A native engine can present itself as
// either kind, so a GPU-kind native engine emulates an accelerator.
package native

import (
	"fmt"

	"github.com/born-ml/reorder/internal/compute"
	"github.com/born-ml/reorder/internal/engine"
	"github.com/born-ml/reorder/internal/kernels"
	"github.com/born-ml/reorder/internal/memory"
	"github.com/born-ml/reorder/internal/parallel"
	"k8s.io/klog/v2"
)

// Verify that Engine implements compute.Engine.
var _ compute.Engine = (*Engine)(nil)

// Engine is a host-memory engine.
type Engine struct {
	id       string
	kind     engine.Kind
	name     string
	parallel parallel.Config
}

// Option configures an Engine.
type Option func(*Engine)

// WithParallel overrides the parallel loop configuration used by kernels.
func WithParallel(cfg parallel.Config) Option {
	return func(e *Engine) {
		e.parallel = cfg
	}
}

// New creates a native engine of the given kind.
func New(kind engine.Kind, name string, opts ...Option) *Engine {
	e := &Engine{
		id:       engine.NewID(),
		kind:     kind,
		name:     name,
		parallel: parallel.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(e)
	}
	klog.V(1).InfoS("Created native engine", "engine", e.name, "kind", e.kind, "id", e.id)
	return e
}

// ID returns the engine identifier.
func (e *Engine) ID() string { return e.id }

// Kind returns the engine kind.
func (e *Engine) Kind() engine.Kind { return e.kind }

// Name returns the engine name.
func (e *Engine) Name() string {
	if e.name == "" {
		return "native-" + e.kind.String()
	}
	return e.name
}

// NewStorage allocates a zero-filled buffer.
func (e *Engine) NewStorage(size uint64) (memory.Storage, error) {
	return memory.NewBuffer(e, size), nil
}

// CreateKernel builds a Go program for conf.
func (e *Engine) CreateKernel(conf compute.KernelConf) (compute.Kernel, error) {
	prog, err := kernels.Build(conf)
	if err != nil {
		return nil, fmt.Errorf("native: create kernel %s: %w", conf.KernelName(), err)
	}
	return &Kernel{name: conf.KernelName(), engine: e, prog: prog}, nil
}

// NewStream creates an in-order stream.
func (e *Engine) NewStream() (compute.Stream, error) {
	return &Stream{id: engine.NewID(), engine: e}, nil
}

// Close releases engine resources.
func (e *Engine) Close() error {
	klog.V(1).InfoS("Closed native engine", "engine", e.Name(), "id", e.id)
	return nil
}

// Kernel is a Go program bound to a native engine.
type Kernel struct {
	name   string
	engine *Engine
	prog   kernels.Program
}

// Name returns the kernel name.
func (k *Kernel) Name() string { return k.name }

// Engine returns the engine the kernel was built for.
func (k *Kernel) Engine() engine.Engine { return k.engine }
