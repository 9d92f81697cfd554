package reorder

import (
	"fmt"
	"slices"

	"github.com/born-ml/reorder/internal/kernels"
	"github.com/born-ml/reorder/internal/tensor"
)

// Scales are output scale coefficients. Mask bit i selects logical dim i;
// a zero mask means one common scale.
type Scales struct {
	Mask   int
	Values []float32
}

// PerChannel reports whether the scales vary along some dim.
func (s Scales) PerChannel() bool {
	return s.Mask != 0
}

// Attr holds the primitive attributes that affect numerics.
type Attr struct {
	OutputScales Scales
	// SumScale is the weight of the existing destination values (beta).
	SumScale float32
}

// DefaultAttr returns attributes for a plain reorder: scale 1, no sum.
func DefaultAttr() Attr {
	return Attr{OutputScales: Scales{Values: []float32{1}}}
}

func (a Attr) clone() Attr {
	a.OutputScales.Values = slices.Clone(a.OutputScales.Values)
	return a
}

func (a Attr) validate(dims tensor.Shape) error {
	s := a.OutputScales
	if s.Mask < 0 || s.Mask >= 1<<len(dims) {
		return fmt.Errorf("output scales mask %#x out of range for %d dims", s.Mask, len(dims))
	}
	if !s.PerChannel() {
		if len(s.Values) > 1 {
			return fmt.Errorf("common output scale needs 1 value, got %d", len(s.Values))
		}
		return nil
	}
	if want := kernels.ScaleCount(dims, s.Mask); len(s.Values) != want {
		return fmt.Errorf("output scales mask %#x needs %d values, got %d", s.Mask, want, len(s.Values))
	}
	return nil
}
