// Package tensor describes how tensor data is laid out in memory.
package tensor

import (
	"fmt"
	"strings"
)

// DataType represents runtime type information for tensor elements.
type DataType int

// Supported data types for tensors.
const (
	Float32 DataType = iota
	Float64
	Int32
	Int64
	Int8
	Uint8
)

// Size returns the byte size of the data type.
func (dt DataType) Size() int {
	switch dt {
	case Float32, Int32:
		return 4
	case Float64, Int64:
		return 8
	case Int8, Uint8:
		return 1
	default:
		panic("unknown data type")
	}
}

// String returns a human-readable name for the data type.
func (dt DataType) String() string {
	switch dt {
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	case Int32:
		return "int32"
	case Int64:
		return "int64"
	case Int8:
		return "int8"
	case Uint8:
		return "uint8"
	default:
		return "unknown"
	}
}

// Valid reports whether dt is one of the supported data types.
func (dt DataType) Valid() bool {
	return dt >= Float32 && dt <= Uint8
}

// IsInteger reports whether values of this type are rounded and saturated on store.
func (dt DataType) IsInteger() bool {
	switch dt {
	case Int32, Int64, Int8, Uint8:
		return true
	default:
		return false
	}
}

// ParseDataType converts a name such as "f32" or "int8" into a DataType.
func ParseDataType(s string) (DataType, error) {
	switch strings.ToLower(s) {
	case "float32", "f32":
		return Float32, nil
	case "float64", "f64":
		return Float64, nil
	case "int32", "s32":
		return Int32, nil
	case "int64", "s64":
		return Int64, nil
	case "int8", "s8":
		return Int8, nil
	case "uint8", "u8":
		return Uint8, nil
	default:
		return 0, fmt.Errorf("unknown data type %q", s)
	}
}
