// Package memory provides storage handles: engine-owned blocks of memory that
// can be mapped to host-visible memory or passed to kernels and copies.
package memory

import (
	"errors"

	"github.com/born-ml/reorder/internal/engine"
)

// Storage errors.
var (
	ErrEmptyStorage  = errors.New("memory: empty storage")
	ErrAlreadyMapped = errors.New("memory: storage already mapped")
	ErrNotMapped     = errors.New("memory: storage not mapped")
	ErrReleased      = errors.New("memory: storage released")
	ErrNotHost       = errors.New("memory: storage is not host addressable")
)

// Storage is an abstract reference to a block of memory owned by an engine.
type Storage interface {
	// Engine returns the owning engine, nil for the empty storage.
	Engine() engine.Engine
	// Size returns the size in bytes.
	Size() uint64
	// Map makes the contents host-visible. The returned slice is valid
	// until Unmap and must be passed back to it.
	Map() ([]byte, error)
	// Unmap publishes host writes back to the storage.
	Unmap(host []byte) error
	// IsEmpty reports whether this is the "no buffer" sentinel.
	IsEmpty() bool
}

type emptyStorage struct{}

var empty Storage = emptyStorage{}

// Empty returns the sentinel storage that stands for "no buffer".
func Empty() Storage {
	return empty
}

func (emptyStorage) Engine() engine.Engine { return nil }
func (emptyStorage) Size() uint64          { return 0 }
func (emptyStorage) Map() ([]byte, error)  { return nil, ErrEmptyStorage }
func (emptyStorage) Unmap([]byte) error    { return ErrEmptyStorage }
func (emptyStorage) IsEmpty() bool         { return true }

// IsEmpty reports whether s is nil or the empty sentinel.
func IsEmpty(s Storage) bool {
	return s == nil || s.IsEmpty()
}
