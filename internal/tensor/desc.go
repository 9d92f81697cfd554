package tensor

import (
	"fmt"
	"strings"
)

// MaxDims is the largest number of logical dimensions a MemoryDesc may carry.
const MaxDims = 6

// MemoryDesc describes a tensor's logical dimensions, element type and
// physical layout (element strides per logical dimension).
type MemoryDesc struct {
	Dims    Shape
	DType   DataType
	Strides []int
}

// NewMemoryDesc builds a dense descriptor from a format tag.
//
// The tag has one letter per dimension, 'a' naming logical dim 0, 'b' dim 1
// and so on, listed from the outermost to the innermost physical position:
//
//	"abcd" -> NCHW (row-major)
//	"acdb" -> NHWC
//	"ba"   -> transposed matrix
func NewMemoryDesc(dims Shape, dtype DataType, tag string) (MemoryDesc, error) {
	if err := dims.Validate(); err != nil {
		return MemoryDesc{}, fmt.Errorf("invalid dims: %w", err)
	}
	if !dtype.Valid() {
		return MemoryDesc{}, fmt.Errorf("unsupported data type %d", dtype)
	}
	order, err := parseTag(tag, len(dims))
	if err != nil {
		return MemoryDesc{}, err
	}

	strides := make([]int, len(dims))
	stride := 1
	for i := len(order) - 1; i >= 0; i-- {
		d := order[i]
		strides[d] = stride
		stride *= dims[d]
	}

	return MemoryDesc{
		Dims:    dims.Clone(),
		DType:   dtype,
		Strides: strides,
	}, nil
}

// Plain returns the row-major descriptor for dims.
func Plain(dims Shape, dtype DataType) MemoryDesc {
	return MemoryDesc{
		Dims:    dims.Clone(),
		DType:   dtype,
		Strides: dims.ComputeStrides(),
	}
}

// PlainTag returns the row-major format tag for n dimensions ("abc..").
func PlainTag(n int) string {
	var sb strings.Builder
	for i := 0; i < n; i++ {
		sb.WriteByte(byte('a' + i))
	}
	return sb.String()
}

func parseTag(tag string, ndims int) ([]int, error) {
	if len(tag) != ndims {
		return nil, fmt.Errorf("format tag %q does not match %d dims", tag, ndims)
	}
	seen := make([]bool, ndims)
	order := make([]int, ndims)
	for i := 0; i < len(tag); i++ {
		d := int(tag[i] - 'a')
		if d < 0 || d >= ndims {
			return nil, fmt.Errorf("format tag %q: letter %q out of range", tag, tag[i])
		}
		if seen[d] {
			return nil, fmt.Errorf("format tag %q: letter %q repeated", tag, tag[i])
		}
		seen[d] = true
		order[i] = d
	}
	return order, nil
}

// NumElements returns the number of logical elements.
func (m MemoryDesc) NumElements() int {
	if len(m.Dims) == 0 {
		return 0
	}
	return m.Dims.NumElements()
}

// Size returns the byte footprint: the span covered by the strides.
func (m MemoryDesc) Size() uint64 {
	if len(m.Dims) == 0 {
		return 0
	}
	span := 1
	for i, d := range m.Dims {
		span += (d - 1) * m.Strides[i]
	}
	return uint64(span * m.DType.Size()) //nolint:gosec // G115: span is positive
}

// Offset returns the physical element offset of a logical multi-index.
func (m MemoryDesc) Offset(idx []int) int {
	off := 0
	for i, v := range idx {
		off += v * m.Strides[i]
	}
	return off
}

// SameLayout reports whether two descriptors place every element at the same
// byte offset with the same type.
func (m MemoryDesc) SameLayout(other MemoryDesc) bool {
	if m.DType != other.DType || !m.Dims.Equal(other.Dims) {
		return false
	}
	for i := range m.Strides {
		// Strides of unit dims never contribute to an offset.
		if m.Dims[i] != 1 && m.Strides[i] != other.Strides[i] {
			return false
		}
	}
	return true
}

// String implements fmt.Stringer.
func (m MemoryDesc) String() string {
	return fmt.Sprintf("%s%v:%v", m.DType, []int(m.Dims), m.Strides)
}
