// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package reorder moves tensors between a host engine and an accelerator
// engine, converting layout and data type and applying output scales on
// the way.
//
// # Overview
//
// A reorder is described once by a PrimitiveDesc and executed any number
// of times by a Primitive. Depending on the engine kinds and on whether
// the layouts differ, execution is one of:
//
//   - accelerator to host: kernel into a scratch buffer, then copy out
//   - host to accelerator: copy into a scratch buffer, then kernel
//   - same kind: a single kernel, or a plain copy
//
// # Basic Usage
//
//	host := native.New(reorder.CPU, "host")
//	gpu := native.New(reorder.GPU, "gpu")
//
//	src := reorder.Plain(reorder.Shape{2, 3, 4, 5}, reorder.Float32)
//	dst, _ := reorder.NewMemoryDesc(reorder.Shape{2, 3, 4, 5}, reorder.Float32, "acdb")
//
//	pd, _ := reorder.NewPrimitiveDesc(gpu, src, host, dst, reorder.DefaultAttr())
//	prim, _ := reorder.New(pd, gpu)
//	defer prim.Close()
//
//	stream, _ := gpu.NewStream()
//	err := prim.Execute(reorder.NewExecCtx(stream, map[int]reorder.Storage{
//	    reorder.ArgFrom: in,
//	    reorder.ArgTo:   out,
//	}))
package reorder
