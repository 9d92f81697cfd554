//go:build windows

package main

import (
	"fmt"

	"github.com/born-ml/reorder/internal/compute"
	"github.com/born-ml/reorder/internal/compute/native"
	"github.com/born-ml/reorder/internal/compute/webgpu"
	"github.com/born-ml/reorder/internal/config"
	"github.com/born-ml/reorder/internal/engine"
)

func newAccelerator(backend string) (compute.Engine, error) {
	switch backend {
	case config.BackendNative:
		return native.New(engine.GPU, "emulated-gpu"), nil
	case config.BackendWebGPU:
		e, err := webgpu.New()
		if err != nil {
			return nil, err
		}
		return e, nil
	default:
		return nil, fmt.Errorf("unknown backend %q", backend)
	}
}
