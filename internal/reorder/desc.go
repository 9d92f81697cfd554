package reorder

import (
	"errors"
	"fmt"

	"github.com/born-ml/reorder/internal/compute"
	"github.com/born-ml/reorder/internal/engine"
	"github.com/born-ml/reorder/internal/tensor"
	"k8s.io/klog/v2"
)

// Reorder errors.
var (
	ErrInvalidDesc     = errors.New("reorder: invalid descriptor")
	ErrMissingArgument = errors.New("reorder: missing argument")
	ErrStreamMismatch  = errors.New("reorder: stream engine mismatch")
	ErrEngineMismatch  = errors.New("reorder: engine mismatch")
)

// maxLocalSize bounds the innermost work-group dimension.
const maxLocalSize = 16

// JobParams is the per-primitive execution configuration, computed once.
type JobParams struct {
	NDRange compute.NDRange
	// DoReorder is false when the destination layout and values equal the
	// source's, so moving bytes is enough.
	DoReorder bool
}

// PrimitiveDesc describes a reorder between two engines.
type PrimitiveDesc struct {
	srcEngine engine.Engine
	dstEngine engine.Engine
	srcDesc   tensor.MemoryDesc
	dstDesc   tensor.MemoryDesc
	attr      Attr
	jrp       JobParams
}

// NewPrimitiveDesc validates a reorder and computes its job parameters.
func NewPrimitiveDesc(srcEngine engine.Engine, src tensor.MemoryDesc,
	dstEngine engine.Engine, dst tensor.MemoryDesc, attr Attr) (*PrimitiveDesc, error) {
	if srcEngine == nil || dstEngine == nil {
		return nil, fmt.Errorf("%w: nil engine", ErrInvalidDesc)
	}
	if len(src.Dims) == 0 {
		return nil, fmt.Errorf("%w: empty source descriptor", ErrInvalidDesc)
	}
	if err := src.Dims.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDesc, err)
	}
	if !src.Dims.Equal(dst.Dims) {
		return nil, fmt.Errorf("%w: dims mismatch %v vs %v", ErrInvalidDesc, src.Dims, dst.Dims)
	}
	if !src.DType.Valid() || !dst.DType.Valid() {
		return nil, fmt.Errorf("%w: unsupported data type", ErrInvalidDesc)
	}
	if len(src.Strides) != len(src.Dims) || len(dst.Strides) != len(dst.Dims) {
		return nil, fmt.Errorf("%w: strides do not match dims", ErrInvalidDesc)
	}
	if err := checkStrides(src); err != nil {
		return nil, fmt.Errorf("%w: src: %w", ErrInvalidDesc, err)
	}
	if err := checkStrides(dst); err != nil {
		return nil, fmt.Errorf("%w: dst: %w", ErrInvalidDesc, err)
	}
	if err := attr.validate(dst.Dims); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDesc, err)
	}

	pd := &PrimitiveDesc{
		srcEngine: srcEngine,
		dstEngine: dstEngine,
		srcDesc:   src,
		dstDesc:   dst,
		attr:      attr.clone(),
	}
	pd.jrp = pd.initJobParams()

	klog.V(2).InfoS("Created reorder descriptor",
		"src", src, "srcEngine", srcEngine.Kind(),
		"dst", dst, "dstEngine", dstEngine.Kind(),
		"doReorder", pd.jrp.DoReorder, "range", pd.jrp.NDRange)
	return pd, nil
}

// checkStrides rejects strides that would place elements before the start
// of the buffer. Unit dims are never stepped, so their stride is ignored.
func checkStrides(md tensor.MemoryDesc) error {
	for i, d := range md.Dims {
		if d > 1 && md.Strides[i] < 1 {
			return fmt.Errorf("stride %d of dim %d must be positive", md.Strides[i], i)
		}
	}
	return nil
}

func (pd *PrimitiveDesc) initJobParams() JobParams {
	dims := pd.dstDesc.Dims
	n := len(dims)

	global := [3]int{dims[n-1], 1, 1}
	if n > 1 {
		global[1] = dims[n-2]
	}
	for d := 0; d < n-2; d++ {
		global[2] *= dims[d]
	}

	local := [3]int{1, 1, 1}
	for l := min(global[0], maxLocalSize); l > 0; l-- {
		if global[0]%l == 0 {
			local[0] = l
			break
		}
	}

	doReorder := !pd.srcDesc.SameLayout(pd.dstDesc) ||
		pd.Alpha() != 1 || pd.Beta() != 0 || pd.attr.OutputScales.PerChannel()

	return JobParams{
		NDRange:   compute.NDRange{Global: global, Local: local},
		DoReorder: doReorder,
	}
}

// SrcEngine returns the engine owning the source.
func (pd *PrimitiveDesc) SrcEngine() engine.Engine { return pd.srcEngine }

// DstEngine returns the engine owning the destination.
func (pd *PrimitiveDesc) DstEngine() engine.Engine { return pd.dstEngine }

// SrcDesc returns the source memory descriptor.
func (pd *PrimitiveDesc) SrcDesc() tensor.MemoryDesc { return pd.srcDesc }

// DstDesc returns the destination memory descriptor.
func (pd *PrimitiveDesc) DstDesc() tensor.MemoryDesc { return pd.dstDesc }

// Attr returns the primitive attributes.
func (pd *PrimitiveDesc) Attr() Attr { return pd.attr }

// JobParams returns the precomputed job parameters.
func (pd *PrimitiveDesc) JobParams() JobParams { return pd.jrp }

// Alpha is the multiplicative factor: the common output scale, or 1.
func (pd *PrimitiveDesc) Alpha() float32 {
	s := pd.attr.OutputScales
	if !s.PerChannel() && len(s.Values) == 1 {
		return s.Values[0]
	}
	return 1
}

// Beta is the additive factor applied to the existing destination.
func (pd *PrimitiveDesc) Beta() float32 {
	return pd.attr.SumScale
}

// ComputeEngine returns the engine that runs the kernel and owns the
// stream: the accelerator side of a crossing, the destination otherwise.
func (pd *PrimitiveDesc) ComputeEngine() engine.Engine {
	if pd.srcEngine.Kind() == engine.GPU && pd.dstEngine.Kind() != engine.GPU {
		return pd.srcEngine
	}
	return pd.dstEngine
}

// SetOutputScales replaces the per-channel scale values. The count must not
// change. The next Execute uploads them.
func (pd *PrimitiveDesc) SetOutputScales(values []float32) error {
	if !pd.attr.OutputScales.PerChannel() {
		return fmt.Errorf("%w: descriptor has no per-channel scales", ErrInvalidDesc)
	}
	if len(values) != len(pd.attr.OutputScales.Values) {
		return fmt.Errorf("%w: expected %d scales, got %d",
			ErrInvalidDesc, len(pd.attr.OutputScales.Values), len(values))
	}
	copy(pd.attr.OutputScales.Values, values)
	return nil
}
