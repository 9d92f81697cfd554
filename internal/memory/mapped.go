package memory

import (
	"encoding/binary"
	"fmt"
	"math"
)

// WithMapped maps s, runs fn on the host view and unmaps, on every path.
// The first error wins: map, then fn, then unmap.
func WithMapped(s Storage, fn func(host []byte) error) (err error) {
	host, err := s.Map()
	if err != nil {
		return err
	}
	defer func() {
		if uerr := s.Unmap(host); uerr != nil && err == nil {
			err = uerr
		}
	}()
	return fn(host)
}

// PutFloat32s writes values as little-endian float32 into dst.
func PutFloat32s(dst []byte, values []float32) error {
	if len(dst) < 4*len(values) {
		return fmt.Errorf("memory: %d bytes cannot hold %d float32 values", len(dst), len(values))
	}
	for i, v := range values {
		binary.LittleEndian.PutUint32(dst[4*i:], math.Float32bits(v))
	}
	return nil
}

// Float32s decodes little-endian float32 values from src.
func Float32s(src []byte) []float32 {
	out := make([]float32, len(src)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(src[4*i:]))
	}
	return out
}
