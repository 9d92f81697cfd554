package native

import (
	"fmt"

	"github.com/born-ml/reorder/internal/compute"
	"github.com/born-ml/reorder/internal/engine"
	"github.com/born-ml/reorder/internal/memory"
	"github.com/born-ml/reorder/internal/parallel"
	"k8s.io/klog/v2"
)

// Stream executes work synchronously in submission order.
type Stream struct {
	id     string
	engine *Engine
}

// ID returns the stream identifier.
func (s *Stream) ID() string { return s.id }

// Engine returns the owning engine.
func (s *Stream) Engine() engine.Engine { return s.engine }

// ParallelFor runs kernel over every work item of r.
func (s *Stream) ParallelFor(r compute.NDRange, kernel compute.Kernel, args *compute.ArgList) error {
	if err := compute.CheckKernel(s, kernel); err != nil {
		return err
	}
	k, ok := kernel.(*Kernel)
	if !ok {
		return fmt.Errorf("%w: %T", compute.ErrKernelMismatch, kernel)
	}
	if err := r.Validate(); err != nil {
		return err
	}

	item, err := k.prog.Bind(args)
	if err != nil {
		return fmt.Errorf("native: bind %s: %w", k.name, err)
	}

	gx, gy, gz := r.Global[0], r.Global[1], r.Global[2]
	parallel.ForBatch(gz, gy, func(z, y int) {
		for x := 0; x < gx; x++ {
			item(x, y, z)
		}
	}, s.engine.parallel)

	compute.ObserveLaunch(s.engine.kind.String(), k.name)
	klog.V(4).InfoS("Launched kernel", "stream", s.id, "kernel", k.name, "range", r)
	return nil
}

// Copy copies size bytes from src to dst. Both must be host-resident.
func (s *Stream) Copy(src, dst memory.Storage, size uint64) error {
	if err := compute.CheckCopy(src, dst, size); err != nil {
		return err
	}
	from, err := memory.HostBytes(src)
	if err != nil {
		return fmt.Errorf("native: copy source: %w", err)
	}
	to, err := memory.HostBytes(dst)
	if err != nil {
		return fmt.Errorf("native: copy destination: %w", err)
	}
	copy(to[:size], from[:size])

	srcKind, dstKind := kindOf(src), kindOf(dst)
	compute.ObserveCopy(srcKind, dstKind, size)
	klog.V(4).InfoS("Copied bytes", "stream", s.id, "src", srcKind, "dst", dstKind, "bytes", size)
	return nil
}

// Wait is a no-op: native work completes before ParallelFor and Copy return.
func (s *Stream) Wait() error {
	return nil
}

func kindOf(st memory.Storage) string {
	if e := st.Engine(); e != nil {
		return e.Kind().String()
	}
	return "none"
}
