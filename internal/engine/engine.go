// Package engine defines execution engines: the memory and execution domains
// (host processor or accelerator) that own storage and run kernels.
package engine

import (
	"fmt"
	"strings"

	"github.com/oklog/ulid/v2"
)

// Kind is the class of an engine.
type Kind int

// Supported engine kinds.
const (
	CPU Kind = iota // host-class
	GPU             // accelerator-class
)

// String returns a human-readable engine kind.
func (k Kind) String() string {
	switch k {
	case CPU:
		return "cpu"
	case GPU:
		return "gpu"
	default:
		return "unknown"
	}
}

// ParseKind converts "cpu" or "gpu" (any case) into a Kind.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "cpu", "host":
		return CPU, nil
	case "gpu", "accelerator":
		return GPU, nil
	default:
		return 0, fmt.Errorf("unknown engine kind %q", s)
	}
}

// Engine is an execution and memory domain.
type Engine interface {
	// ID is unique per engine instance.
	ID() string
	Kind() Kind
	Name() string
}

// NewID generates a new ULID string used to identify engines and streams.
func NewID() string {
	return ulid.Make().String()
}
