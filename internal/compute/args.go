package compute

import (
	"fmt"

	"github.com/born-ml/reorder/internal/memory"
)

// ArgKind tells what a kernel argument holds.
type ArgKind int

// Kernel argument kinds.
const (
	ArgUnset ArgKind = iota
	ArgStorage
	ArgFloat32
)

// Arg is one positional kernel argument.
type Arg struct {
	kind    ArgKind
	storage memory.Storage
	scalar  float32
}

// Kind returns what the argument holds.
func (a Arg) Kind() ArgKind { return a.kind }

// Storage returns the storage held by the argument (nil for scalars).
func (a Arg) Storage() memory.Storage { return a.storage }

// Float32 returns the scalar held by the argument.
func (a Arg) Float32() float32 { return a.scalar }

// ArgList is a positional kernel argument list.
type ArgList struct {
	args []Arg
}

func (l *ArgList) set(i int, a Arg) {
	if i >= len(l.args) {
		grown := make([]Arg, i+1)
		copy(grown, l.args)
		l.args = grown
	}
	l.args[i] = a
}

// SetStorage sets argument i to a storage. A nil storage is recorded as
// memory.Empty().
func (l *ArgList) SetStorage(i int, s memory.Storage) {
	if s == nil {
		s = memory.Empty()
	}
	l.set(i, Arg{kind: ArgStorage, storage: s})
}

// SetFloat32 sets argument i to a scalar.
func (l *ArgList) SetFloat32(i int, v float32) {
	l.set(i, Arg{kind: ArgFloat32, scalar: v})
}

// Len returns the number of argument slots.
func (l *ArgList) Len() int {
	return len(l.args)
}

// Get returns argument i.
func (l *ArgList) Get(i int) Arg {
	if i < 0 || i >= len(l.args) {
		return Arg{}
	}
	return l.args[i]
}

// Storage returns argument i, which must be a storage.
func (l *ArgList) Storage(i int) (memory.Storage, error) {
	a := l.Get(i)
	if a.kind != ArgStorage {
		return nil, fmt.Errorf("%w: arg %d is not a storage", ErrBadArg, i)
	}
	return a.storage, nil
}

// Float32 returns argument i, which must be a float32 scalar.
func (l *ArgList) Float32(i int) (float32, error) {
	a := l.Get(i)
	if a.kind != ArgFloat32 {
		return 0, fmt.Errorf("%w: arg %d is not a float32", ErrBadArg, i)
	}
	return a.scalar, nil
}
