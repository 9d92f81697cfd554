// Package kernels holds the reorder kernel: its compile-time configuration,
// a Go program for engines that execute in host memory, and the WGSL source
// for WebGPU engines.
package kernels

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/born-ml/reorder/internal/compute"
	"github.com/born-ml/reorder/internal/memory"
	"github.com/born-ml/reorder/internal/tensor"
)

// ReorderName is the kernel name of the reorder kernel.
const ReorderName = "reorder"

// Positional arguments of the reorder kernel.
const (
	ArgSrc = iota
	ArgDst
	ArgAlpha
	ArgBeta
	ArgScales
)

// ReorderConf is the compile-time configuration of a reorder kernel:
// dst[i] = alpha * scale(i) * src[i] + beta * dst[i] over logical index i.
type ReorderConf struct {
	Src tensor.MemoryDesc
	Dst tensor.MemoryDesc
	// ScaleMask selects the logical dims indexed by the per-channel scales.
	// Zero means no per-channel scales.
	ScaleMask int
}

// KernelName implements compute.KernelConf.
func (c ReorderConf) KernelName() string {
	return ReorderName
}

// NumScales returns how many per-channel scales the kernel reads.
func (c ReorderConf) NumScales() int {
	return ScaleCount(c.Dst.Dims, c.ScaleMask)
}

// ScaleCount returns the product of the dims selected by mask, 0 when mask is 0.
func ScaleCount(dims tensor.Shape, mask int) int {
	if mask == 0 {
		return 0
	}
	n := 1
	for d, v := range dims {
		if mask&(1<<d) != 0 {
			n *= v
		}
	}
	return n
}

// Validate checks that source and destination describe the same tensor.
func (c ReorderConf) Validate() error {
	if len(c.Src.Dims) == 0 {
		return fmt.Errorf("reorder kernel: scalar tensors are not supported")
	}
	if !c.Src.Dims.Equal(c.Dst.Dims) {
		return fmt.Errorf("reorder kernel: dims mismatch %v vs %v", c.Src.Dims, c.Dst.Dims)
	}
	if c.ScaleMask < 0 || c.ScaleMask >= 1<<len(c.Dst.Dims) {
		return fmt.Errorf("reorder kernel: scale mask %#x out of range for %d dims", c.ScaleMask, len(c.Dst.Dims))
	}
	return nil
}

// Program is a kernel that runs in host memory. Bind resolves the
// arguments once and returns the per-work-item body.
type Program interface {
	Bind(args *compute.ArgList) (func(x, y, z int), error)
}

// Build turns a kernel configuration into a Program.
func Build(conf compute.KernelConf) (Program, error) {
	switch c := conf.(type) {
	case ReorderConf:
		if err := c.Validate(); err != nil {
			return nil, err
		}
		return &reorderProgram{conf: c}, nil
	case *ReorderConf:
		return Build(*c)
	default:
		return nil, fmt.Errorf("%w: %s", compute.ErrUnknownKernel, conf.KernelName())
	}
}

type reorderProgram struct {
	conf ReorderConf
}

func (p *reorderProgram) Bind(args *compute.ArgList) (func(x, y, z int), error) {
	src, err := hostArg(args, ArgSrc, p.conf.Src.Size())
	if err != nil {
		return nil, err
	}
	dst, err := hostArg(args, ArgDst, p.conf.Dst.Size())
	if err != nil {
		return nil, err
	}
	alpha, err := args.Float32(ArgAlpha)
	if err != nil {
		return nil, err
	}
	beta, err := args.Float32(ArgBeta)
	if err != nil {
		return nil, err
	}

	var scales []float32
	if n := p.conf.NumScales(); n > 0 {
		raw, err := hostArg(args, ArgScales, uint64(4*n)) //nolint:gosec // G115: n is positive
		if err != nil {
			return nil, err
		}
		scales = memory.Float32s(raw[:4*n])
	}

	dims := p.conf.Dst.Dims
	ndims := len(dims)
	srcMD, dstMD := p.conf.Src, p.conf.Dst
	mask := p.conf.ScaleMask

	return func(x, y, z int) {
		var idx [tensor.MaxDims]int
		idx[ndims-1] = x
		if ndims > 1 {
			idx[ndims-2] = y
		}
		for d := ndims - 3; d >= 0; d-- {
			idx[d] = z % dims[d]
			z /= dims[d]
		}
		i := idx[:ndims]

		scale := float32(1)
		if scales != nil {
			k := 0
			for d := 0; d < ndims; d++ {
				if mask&(1<<d) != 0 {
					k = k*dims[d] + i[d]
				}
			}
			scale = scales[k]
		}

		dOff := dstMD.Offset(i)
		v := alpha * scale * load(src, srcMD.DType, srcMD.Offset(i))
		if beta != 0 {
			v += beta * load(dst, dstMD.DType, dOff)
		}
		store(dst, dstMD.DType, dOff, v)
	}, nil
}

func hostArg(args *compute.ArgList, i int, need uint64) ([]byte, error) {
	s, err := args.Storage(i)
	if err != nil {
		return nil, err
	}
	data, err := memory.HostBytes(s)
	if err != nil {
		return nil, fmt.Errorf("%w: arg %d: %w", compute.ErrBadArg, i, err)
	}
	if uint64(len(data)) < need {
		return nil, fmt.Errorf("%w: arg %d holds %d bytes, need %d", compute.ErrBadArg, i, len(data), need)
	}
	return data, nil
}

func load(buf []byte, dt tensor.DataType, off int) float32 {
	switch dt {
	case tensor.Float32:
		return math.Float32frombits(binary.LittleEndian.Uint32(buf[4*off:]))
	case tensor.Float64:
		return float32(math.Float64frombits(binary.LittleEndian.Uint64(buf[8*off:])))
	case tensor.Int32:
		return float32(int32(binary.LittleEndian.Uint32(buf[4*off:]))) //nolint:gosec // G115: reinterpretation
	case tensor.Int64:
		return float32(int64(binary.LittleEndian.Uint64(buf[8*off:]))) //nolint:gosec // G115: reinterpretation
	case tensor.Int8:
		return float32(int8(buf[off]))
	case tensor.Uint8:
		return float32(buf[off])
	default:
		panic("unknown data type")
	}
}

func store(buf []byte, dt tensor.DataType, off int, v float32) {
	switch dt {
	case tensor.Float32:
		binary.LittleEndian.PutUint32(buf[4*off:], math.Float32bits(v))
	case tensor.Float64:
		binary.LittleEndian.PutUint64(buf[8*off:], math.Float64bits(float64(v)))
	case tensor.Int32:
		binary.LittleEndian.PutUint32(buf[4*off:], uint32(int32(saturate(v, math.MinInt32, math.MaxInt32)))) //nolint:gosec // G115: saturated
	case tensor.Int64:
		binary.LittleEndian.PutUint64(buf[8*off:], uint64(int64(saturate(v, math.MinInt64, maxInt64Float)))) //nolint:gosec // G115: saturated
	case tensor.Int8:
		buf[off] = byte(int8(saturate(v, math.MinInt8, math.MaxInt8)))
	case tensor.Uint8:
		buf[off] = byte(saturate(v, 0, math.MaxUint8))
	default:
		panic("unknown data type")
	}
}

// maxInt64Float is the largest float64 below 2^63.
var maxInt64Float = math.Nextafter(math.MaxInt64, 0)

// saturate rounds half to even and clamps into [lo, hi].
func saturate(v float32, lo, hi float64) float64 {
	r := math.RoundToEven(float64(v))
	switch {
	case math.IsNaN(r):
		return 0
	case r < lo:
		return lo
	case r >= hi:
		return hi
	default:
		return r
	}
}
