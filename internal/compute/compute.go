// Package compute defines the execution-side contracts shared by engines:
// work partitions, kernel argument lists, kernels, streams and engines.
package compute

import (
	"errors"
	"fmt"

	"github.com/born-ml/reorder/internal/engine"
	"github.com/born-ml/reorder/internal/memory"
)

// Compute errors.
var (
	ErrOutOfRange     = errors.New("compute: copy out of range")
	ErrKernelMismatch = errors.New("compute: kernel does not belong to stream engine")
	ErrUnknownKernel  = errors.New("compute: unknown kernel")
	ErrBadArg         = errors.New("compute: bad kernel argument")
	ErrBadRange       = errors.New("compute: bad nd range")
)

// KernelConf is the compile-time configuration of a kernel. Engines turn a
// KernelConf into a Kernel (Go program, shader module, ...).
type KernelConf interface {
	KernelName() string
}

// Kernel is a compiled kernel bound to one engine.
type Kernel interface {
	Name() string
	Engine() engine.Engine
}

// Stream is an in-order execution queue on one engine.
type Stream interface {
	ID() string
	Engine() engine.Engine
	// ParallelFor enqueues kernel over the work partition r.
	ParallelFor(r NDRange, kernel Kernel, args *ArgList) error
	// Copy enqueues a flat byte copy of size bytes from src to dst.
	// The two storages may belong to different engines.
	Copy(src, dst memory.Storage, size uint64) error
	// Wait blocks until all enqueued work has completed.
	Wait() error
}

// Engine is an engine that can allocate storage, build kernels and
// create streams.
type Engine interface {
	engine.Engine
	NewStorage(size uint64) (memory.Storage, error)
	CreateKernel(conf KernelConf) (Kernel, error)
	NewStream() (Stream, error)
	Close() error
}

// CheckCopy validates the endpoints of a copy of size bytes.
func CheckCopy(src, dst memory.Storage, size uint64) error {
	if memory.IsEmpty(src) || memory.IsEmpty(dst) {
		return fmt.Errorf("copy: %w", memory.ErrEmptyStorage)
	}
	if size > src.Size() {
		return fmt.Errorf("%w: %d bytes from %d-byte source", ErrOutOfRange, size, src.Size())
	}
	if size > dst.Size() {
		return fmt.Errorf("%w: %d bytes into %d-byte destination", ErrOutOfRange, size, dst.Size())
	}
	return nil
}

// CheckKernel validates that kernel was built for the stream's engine.
func CheckKernel(s Stream, kernel Kernel) error {
	if kernel == nil {
		return fmt.Errorf("%w: nil kernel", ErrUnknownKernel)
	}
	if kernel.Engine() == nil || kernel.Engine().ID() != s.Engine().ID() {
		return fmt.Errorf("%w: %s", ErrKernelMismatch, kernel.Name())
	}
	return nil
}
