// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package native provides engines that keep memory in host RAM and run
// kernels as Go code.
//
// A native engine reports the kind it was created with, so a GPU-kind
// native engine stands in for an accelerator when no device is present:
//
//	host := native.New(reorder.CPU, "host")
//	gpu := native.New(reorder.GPU, "emulated-gpu")
package native

import (
	"github.com/born-ml/reorder/internal/compute"
	internalnative "github.com/born-ml/reorder/internal/compute/native"
	"github.com/born-ml/reorder/internal/engine"
	"github.com/born-ml/reorder/internal/parallel"
)

// Engine is a host-memory engine.
type Engine = internalnative.Engine

// Compile-time check that Engine implements compute.Engine.
var _ compute.Engine = (*Engine)(nil)

// ParallelConfig controls how kernels split work across goroutines.
type ParallelConfig = parallel.Config

// New creates a native engine of the given kind.
func New(kind engine.Kind, name string) *Engine {
	return internalnative.New(kind, name)
}

// NewWithParallel creates a native engine with a custom parallel config.
func NewWithParallel(kind engine.Kind, name string, cfg ParallelConfig) *Engine {
	return internalnative.New(kind, name, internalnative.WithParallel(cfg))
}
