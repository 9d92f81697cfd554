//go:build windows

package webgpu

import (
	"testing"

	"github.com/born-ml/reorder/internal/compute"
	"github.com/born-ml/reorder/internal/compute/native"
	"github.com/born-ml/reorder/internal/engine"
	"github.com/born-ml/reorder/internal/kernels"
	"github.com/born-ml/reorder/internal/memory"
	"github.com/born-ml/reorder/internal/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := New()
	if err != nil {
		t.Logf("WebGPU not available: %v", err)
		t.Skip("WebGPU not available on this system")
	}
	t.Cleanup(func() { _ = e.Close() })
	return e
}

func TestIsAvailable(t *testing.T) {
	t.Logf("WebGPU available: %v", IsAvailable())
}

func TestEngine_New(t *testing.T) {
	e := newTestEngine(t)
	assert.Equal(t, engine.GPU, e.Kind())
	assert.NotEmpty(t, e.ID())
	assert.NotEmpty(t, e.Name())
}

func TestBuffer_MapUnmap(t *testing.T) {
	e := newTestEngine(t)

	s, err := e.NewStorage(6)
	require.NoError(t, err)
	defer s.(*Buffer).Release()

	require.NoError(t, memory.WithMapped(s, func(host []byte) error {
		assert.Len(t, host, 6)
		copy(host, []byte{1, 2, 3, 4, 5, 6})
		return nil
	}))

	host, err := s.Map()
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6}, host)
	_, err = s.Map()
	assert.ErrorIs(t, err, memory.ErrAlreadyMapped)
	assert.ErrorIs(t, s.Unmap(make([]byte, 6)), memory.ErrNotMapped)
	require.NoError(t, s.Unmap(host))
}

func TestStream_Copy(t *testing.T) {
	e := newTestEngine(t)
	host := native.New(engine.CPU, "host")
	stream, err := e.NewStream()
	require.NoError(t, err)

	src, err := host.NewStorage(10)
	require.NoError(t, err)
	copy(src.(*memory.Buffer).Bytes(), []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10})
	dev, err := e.NewStorage(10)
	require.NoError(t, err)
	dev2, err := e.NewStorage(10)
	require.NoError(t, err)
	back, err := host.NewStorage(10)
	require.NoError(t, err)

	require.NoError(t, stream.Copy(src, dev, 10))
	require.NoError(t, stream.Copy(dev, dev2, 7))
	require.NoError(t, stream.Copy(dev2, back, 10))
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6, 7, 0, 0, 0}, back.(*memory.Buffer).Bytes())

	assert.ErrorIs(t, stream.Copy(src, back, 4), compute.ErrBadArg)
	assert.ErrorIs(t, stream.Copy(src, dev, 11), compute.ErrOutOfRange)
}

func TestStream_ParallelFor(t *testing.T) {
	e := newTestEngine(t)
	host := native.New(engine.CPU, "host")
	stream, err := e.NewStream()
	require.NoError(t, err)

	dims := tensor.Shape{2, 3, 4}
	srcMD := tensor.Plain(dims, tensor.Float32)
	dstMD, err := tensor.NewMemoryDesc(dims, tensor.Float32, "cba")
	require.NoError(t, err)
	conf := kernels.ReorderConf{Src: srcMD, Dst: dstMD, ScaleMask: 1 << 1}

	k, err := e.CreateKernel(conf)
	require.NoError(t, err)

	values := make([]float32, dims.NumElements())
	for i := range values {
		values[i] = float32(i)
	}
	src, err := e.NewStorage(srcMD.Size())
	require.NoError(t, err)
	require.NoError(t, memory.WithMapped(src, func(b []byte) error { return memory.PutFloat32s(b, values) }))
	dst, err := e.NewStorage(dstMD.Size())
	require.NoError(t, err)
	scales, err := e.NewStorage(12)
	require.NoError(t, err)
	require.NoError(t, memory.WithMapped(scales, func(b []byte) error {
		return memory.PutFloat32s(b, []float32{1, 2, 3})
	}))

	var args compute.ArgList
	args.SetStorage(kernels.ArgSrc, src)
	args.SetStorage(kernels.ArgDst, dst)
	args.SetFloat32(kernels.ArgAlpha, 1)
	args.SetFloat32(kernels.ArgBeta, 0)
	args.SetStorage(kernels.ArgScales, scales)

	r, err := compute.NewNDRange([]int{4, 3, 2}, []int{4, 1, 1})
	require.NoError(t, err)
	require.NoError(t, stream.ParallelFor(r, k, &args))

	out, err := host.NewStorage(dstMD.Size())
	require.NoError(t, err)
	require.NoError(t, stream.Copy(dst, out, dstMD.Size()))
	got := memory.Float32s(out.(*memory.Buffer).Bytes())

	idx := make([]int, 3)
	for i, v := range values {
		dims.Unravel(i, idx)
		assert.Equal(t, v*float32(idx[1]+1), got[dstMD.Offset(idx)])
	}
}

func TestEngine_CreateKernelUnknown(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.CreateKernel(unknownConf{})
	assert.ErrorIs(t, err, compute.ErrUnknownKernel)
}

type unknownConf struct{}

func (unknownConf) KernelName() string { return "unknown" }

func TestStagingPool(t *testing.T) {
	e := newTestEngine(t)
	p := newStagingPool(e.device)
	defer p.Clear()

	a := p.Acquire(64)
	p.Release(a)
	b := p.Acquire(32)
	hits, misses, pooled := p.Stats()
	assert.Equal(t, uint64(1), hits)
	assert.Equal(t, uint64(1), misses)
	assert.Equal(t, 0, pooled)
	assert.Same(t, a.buffer, b.buffer)
	p.Release(b)

	assert.Equal(t, 0, category(1))
	assert.Equal(t, 1, category(smallThreshold))
	assert.Equal(t, 2, category(mediumThreshold))
}
