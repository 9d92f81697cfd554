//go:build !windows

package main

import (
	"fmt"

	"github.com/born-ml/reorder/internal/compute"
	"github.com/born-ml/reorder/internal/compute/native"
	"github.com/born-ml/reorder/internal/config"
	"github.com/born-ml/reorder/internal/engine"
)

func newAccelerator(backend string) (compute.Engine, error) {
	switch backend {
	case config.BackendNative:
		return native.New(engine.GPU, "emulated-gpu"), nil
	case config.BackendWebGPU:
		return nil, fmt.Errorf("the %s backend is only built on windows", backend)
	default:
		return nil, fmt.Errorf("unknown backend %q", backend)
	}
}
