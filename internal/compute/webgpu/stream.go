//go:build windows

package webgpu

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/born-ml/reorder/internal/compute"
	"github.com/born-ml/reorder/internal/engine"
	"github.com/born-ml/reorder/internal/memory"
	"github.com/go-webgpu/webgpu/wgpu"
	"k8s.io/klog/v2"
)

// Stream submits work to the device queue. The queue runs submissions in
// order, and every read back waits for the work before it.
type Stream struct {
	id     string
	engine *Engine
}

// ID returns the stream identifier.
func (s *Stream) ID() string { return s.id }

// Engine returns the owning engine.
func (s *Stream) Engine() engine.Engine { return s.engine }

// Wait submits all queued work. Reads through Map or a device-to-host Copy
// flush on their own and block until the data is available.
func (s *Stream) Wait() error {
	s.engine.flush()
	return nil
}

// ParallelFor renders kernel for r and dispatches it. Non-empty storage
// arguments bind in order from 0; the float arguments follow as a uniform.
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
	code, err := k.src.WGSL(r)
	if err != nil {
		return fmt.Errorf("webgpu: render %s: %w", k.name, err)
	}

	var entries []wgpu.BindGroupEntry
	var scalars []float32
	for i := 0; i < args.Len(); i++ {
		arg := args.Get(i)
		switch arg.Kind() {
		case compute.ArgStorage:
			if memory.IsEmpty(arg.Storage()) {
				continue
			}
			b, err := s.deviceBuffer(arg.Storage())
			if err != nil {
				return fmt.Errorf("%w: argument %d: %v", compute.ErrBadArg, i, err)
			}
			//nolint:gosec // G115: binding count is small
			entries = append(entries, wgpu.BufferBindingEntry(uint32(len(entries)), b.buf, 0, align4(max(b.size, 4))))
		case compute.ArgFloat32:
			scalars = append(scalars, arg.Float32())
		default:
			return fmt.Errorf("%w: argument %d is unset", compute.ErrBadArg, i)
		}
	}

	pipeline := s.engine.pipeline(code)

	params := make([]byte, (4*len(scalars)+15)&^15)
	for i, v := range scalars {
		binary.LittleEndian.PutUint32(params[4*i:], math.Float32bits(v))
	}
	var uniform *wgpu.Buffer
	if len(params) > 0 {
		uniform = s.engine.device.CreateBuffer(&wgpu.BufferDescriptor{
			Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
			Size:  uint64(len(params)),
		})
		s.engine.write(uniform, 0, params)
		//nolint:gosec // G115: binding count is small
		entries = append(entries, wgpu.BufferBindingEntry(uint32(len(entries)), uniform, 0, uint64(len(params))))
	}

	layout := pipeline.GetBindGroupLayout(0)
	bindGroup := s.engine.device.CreateBindGroupSimple(layout, entries)

	encoder := s.engine.device.CreateCommandEncoder(nil)
	pass := encoder.BeginComputePass(nil)
	pass.SetPipeline(pipeline)
	pass.SetBindGroup(0, bindGroup, nil)
	wg := r.WorkGroups()
	//nolint:gosec // G115: work-group counts are validated positive
	pass.DispatchWorkgroups(uint32(wg[0]), uint32(wg[1]), uint32(wg[2]))
	pass.End()
	release := []func(){bindGroup.Release}
	if uniform != nil {
		release = append(release, uniform.Release)
	}
	s.engine.submit(encoder.Finish(nil), release...)

	compute.ObserveLaunch(engine.GPU.String(), k.name)
	klog.V(4).InfoS("Dispatched kernel", "stream", s.id, "kernel", k.name, "range", r)
	return nil
}

// Copy moves size bytes between any pair of device buffers of this engine
// and host buffers, as long as one side is on the device.
func (s *Stream) Copy(src, dst memory.Storage, size uint64) error {
	if err := compute.CheckCopy(src, dst, size); err != nil {
		return err
	}
	from, fromDevice := src.(*Buffer)
	to, toDevice := dst.(*Buffer)
	if fromDevice && from.engine != s.engine || toDevice && to.engine != s.engine {
		return fmt.Errorf("webgpu: %w: buffer belongs to another engine", compute.ErrBadArg)
	}

	var err error
	switch {
	case fromDevice && toDevice:
		err = s.copyDevice(from, to, size)
	case fromDevice:
		err = s.download(from, dst, size)
	case toDevice:
		err = s.upload(src, to, size)
	default:
		err = fmt.Errorf("webgpu: %w: neither side of the copy is on the device", compute.ErrBadArg)
	}
	if err != nil {
		return err
	}

	srcKind, dstKind := kindOf(src), kindOf(dst)
	compute.ObserveCopy(srcKind, dstKind, size)
	klog.V(4).InfoS("Copied bytes", "stream", s.id, "src", srcKind, "dst", dstKind, "bytes", size)
	return nil
}

func (s *Stream) copyDevice(from, to *Buffer, size uint64) error {
	if size%4 != 0 {
		data, err := s.engine.read(from.buf, align4(size))
		if err != nil {
			return err
		}
		return s.writeDevice(to, data[:size])
	}
	if size == 0 {
		return nil
	}
	encoder := s.engine.device.CreateCommandEncoder(nil)
	encoder.CopyBufferToBuffer(from.buf, 0, to.buf, 0, size)
	s.engine.submit(encoder.Finish(nil))
	return nil
}

func (s *Stream) download(from *Buffer, dst memory.Storage, size uint64) error {
	host, err := memory.HostBytes(dst)
	if err != nil {
		return fmt.Errorf("webgpu: copy destination: %w", err)
	}
	if size == 0 {
		return nil
	}
	data, err := s.engine.read(from.buf, align4(size))
	if err != nil {
		return err
	}
	copy(host[:size], data[:size])
	return nil
}

func (s *Stream) upload(src memory.Storage, to *Buffer, size uint64) error {
	host, err := memory.HostBytes(src)
	if err != nil {
		return fmt.Errorf("webgpu: copy source: %w", err)
	}
	return s.writeDevice(to, host[:size])
}

// writeDevice stores data at the start of to. An unaligned tail keeps the
// bytes that follow it in the device buffer.
func (s *Stream) writeDevice(to *Buffer, data []byte) error {
	n := uint64(len(data))
	aligned := align4(n)
	buf := make([]byte, aligned)
	if aligned != n {
		cur, err := s.engine.read(to.buf, aligned)
		if err != nil {
			return err
		}
		copy(buf, cur)
	}
	copy(buf, data)
	s.engine.write(to.buf, 0, buf)
	return nil
}

func (s *Stream) deviceBuffer(st memory.Storage) (*Buffer, error) {
	b, ok := st.(*Buffer)
	if !ok {
		return nil, fmt.Errorf("%T is not a device buffer", st)
	}
	if b.engine != s.engine {
		return nil, fmt.Errorf("buffer belongs to engine %s", b.engine.Name())
	}
	return b, nil
}

func kindOf(st memory.Storage) string {
	if e := st.Engine(); e != nil {
		return e.Kind().String()
	}
	return "none"
}
