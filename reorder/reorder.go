// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package reorder

import (
	"github.com/born-ml/reorder/internal/compute"
	"github.com/born-ml/reorder/internal/engine"
	"github.com/born-ml/reorder/internal/memory"
	internalreorder "github.com/born-ml/reorder/internal/reorder"
	"github.com/born-ml/reorder/internal/tensor"
)

// Engine kinds.
type Kind = engine.Kind

// Engine kinds.
const (
	CPU = engine.CPU
	GPU = engine.GPU
)

// Engine is a compute engine: it allocates storage, creates kernels and
// opens streams.
type Engine = compute.Engine

// Stream executes copies and kernels in order.
type Stream = compute.Stream

// Storage is engine-owned memory.
type Storage = memory.Storage

// Data types and descriptors.
type (
	DataType   = tensor.DataType
	Shape      = tensor.Shape
	MemoryDesc = tensor.MemoryDesc
)

// Data types.
const (
	Float32 = tensor.Float32
	Float64 = tensor.Float64
	Int32   = tensor.Int32
	Int64   = tensor.Int64
	Int8    = tensor.Int8
	Uint8   = tensor.Uint8
)

// Primitive types.
type (
	Attr          = internalreorder.Attr
	Scales        = internalreorder.Scales
	PrimitiveDesc = internalreorder.PrimitiveDesc
	Primitive     = internalreorder.Primitive
	ExecCtx       = internalreorder.ExecCtx
	Step          = internalreorder.Step
)

// Argument ids for ExecCtx.
const (
	ArgFrom = internalreorder.ArgFrom
	ArgTo   = internalreorder.ArgTo
)

// Errors.
var (
	ErrInvalidDesc     = internalreorder.ErrInvalidDesc
	ErrMissingArgument = internalreorder.ErrMissingArgument
	ErrStreamMismatch  = internalreorder.ErrStreamMismatch
	ErrEngineMismatch  = internalreorder.ErrEngineMismatch
)

// NewMemoryDesc creates a descriptor whose layout is given by a dimension
// tag such as "abcd" (plain) or "acdb" (channels last).
func NewMemoryDesc(dims Shape, dtype DataType, tag string) (MemoryDesc, error) {
	return tensor.NewMemoryDesc(dims, dtype, tag)
}

// Plain creates a dense row-major descriptor.
func Plain(dims Shape, dtype DataType) MemoryDesc {
	return tensor.Plain(dims, dtype)
}

// DefaultAttr returns attributes with a unit scale and no sum.
func DefaultAttr() Attr {
	return internalreorder.DefaultAttr()
}

// NewPrimitiveDesc validates a reorder from src on srcEngine to dst on
// dstEngine.
func NewPrimitiveDesc(srcEngine Engine, src MemoryDesc, dstEngine Engine, dst MemoryDesc, attr Attr) (*PrimitiveDesc, error) {
	return internalreorder.NewPrimitiveDesc(srcEngine, src, dstEngine, dst, attr)
}

// New creates the primitive on the descriptor's compute engine.
func New(pd *PrimitiveDesc, eng Engine) (*Primitive, error) {
	return internalreorder.New(pd, eng)
}

// NewExecCtx binds a stream and argument storages for one Execute.
func NewExecCtx(stream Stream, args map[int]Storage) *ExecCtx {
	return internalreorder.NewExecCtx(stream, args)
}
