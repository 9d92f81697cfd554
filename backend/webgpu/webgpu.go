//go:build windows

// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package webgpu provides a WebGPU accelerator engine for reorders.
//
// Example:
//
//	gpu, err := webgpu.New()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer gpu.Close()
//
//	pd, _ := reorder.NewPrimitiveDesc(gpu, src, host, dst, reorder.DefaultAttr())
//	prim, _ := reorder.New(pd, gpu)
package webgpu

import (
	"github.com/born-ml/reorder/internal/compute"
	internalwebgpu "github.com/born-ml/reorder/internal/compute/webgpu"
)

// Engine is a WebGPU device engine.
type Engine = internalwebgpu.Engine

// Compile-time check that Engine implements compute.Engine.
var _ compute.Engine = (*Engine)(nil)

// New creates an engine on the default high-performance adapter.
//
// Returns an error if WebGPU initialization fails (e.g., no compatible GPU).
func New() (*Engine, error) {
	return internalwebgpu.New()
}

// IsAvailable checks if WebGPU is available on the current system.
func IsAvailable() bool {
	return internalwebgpu.IsAvailable()
}
