package reorder

import (
	"fmt"

	"github.com/born-ml/reorder/internal/compute"
	"github.com/born-ml/reorder/internal/engine"
	"github.com/born-ml/reorder/internal/memory"
)

// fakeEngine hands out fakeStorages and records everything its streams do.
type fakeEngine struct {
	id   string
	kind engine.Kind
	log  []string

	copyErr   error
	launchErr error
	launches  []compute.ArgList

	// allocErr fails the failAlloc-th NewStorage call, counting from 1.
	allocErr  error
	failAlloc int
	allocs    []*fakeStorage
}

func newFakeEngine(id string, kind engine.Kind) *fakeEngine {
	return &fakeEngine{id: id, kind: kind}
}

func (e *fakeEngine) ID() string        { return e.id }
func (e *fakeEngine) Kind() engine.Kind { return e.kind }
func (e *fakeEngine) Name() string      { return e.id }
func (e *fakeEngine) Close() error      { return nil }

func (e *fakeEngine) NewStorage(size uint64) (memory.Storage, error) {
	if e.failAlloc == len(e.allocs)+1 {
		return nil, e.allocErr
	}
	s := newFakeStorage(e, "buffer", size)
	e.allocs = append(e.allocs, s)
	return s, nil
}

func (e *fakeEngine) CreateKernel(conf compute.KernelConf) (compute.Kernel, error) {
	return fakeKernel{name: conf.KernelName(), eng: e}, nil
}

func (e *fakeEngine) NewStream() (compute.Stream, error) {
	return &fakeStream{eng: e}, nil
}

type fakeKernel struct {
	name string
	eng  engine.Engine
}

func (k fakeKernel) Name() string          { return k.name }
func (k fakeKernel) Engine() engine.Engine { return k.eng }

type fakeStream struct {
	eng *fakeEngine
}

func (s *fakeStream) ID() string            { return "stream-" + s.eng.id }
func (s *fakeStream) Engine() engine.Engine { return s.eng }
func (s *fakeStream) Wait() error           { return nil }

func (s *fakeStream) ParallelFor(r compute.NDRange, kernel compute.Kernel, args *compute.ArgList) error {
	in, _ := args.Storage(0)
	out, _ := args.Storage(1)
	s.eng.log = append(s.eng.log, fmt.Sprintf("launch %s %s->%s", kernel.Name(), nameOf(in), nameOf(out)))
	if s.eng.launchErr != nil {
		return s.eng.launchErr
	}
	s.eng.launches = append(s.eng.launches, *args)
	return nil
}

func (s *fakeStream) Copy(src, dst memory.Storage, size uint64) error {
	s.eng.log = append(s.eng.log, fmt.Sprintf("copy %s->%s %d", nameOf(src), nameOf(dst), size))
	return s.eng.copyErr
}

// fakeStorage is host memory with injectable map failures.
type fakeStorage struct {
	eng      engine.Engine
	name     string
	data     []byte
	mapped   bool
	maps     int
	mapErr   error
	unmapErr error
	released bool
}

func newFakeStorage(eng engine.Engine, name string, size uint64) *fakeStorage {
	return &fakeStorage{eng: eng, name: name, data: make([]byte, size)}
}

func (s *fakeStorage) Engine() engine.Engine { return s.eng }
func (s *fakeStorage) Size() uint64          { return uint64(len(s.data)) }
func (s *fakeStorage) IsEmpty() bool         { return false }
func (s *fakeStorage) Release()              { s.released = true }

func (s *fakeStorage) Map() ([]byte, error) {
	if s.mapErr != nil {
		return nil, s.mapErr
	}
	s.mapped = true
	s.maps++
	return s.data, nil
}

func (s *fakeStorage) Unmap([]byte) error {
	// The mapping ends even when the unmap reports an error.
	s.mapped = false
	return s.unmapErr
}

func nameOf(s memory.Storage) string {
	if memory.IsEmpty(s) {
		return "empty"
	}
	if fs, ok := s.(*fakeStorage); ok {
		return fs.name
	}
	return fmt.Sprintf("%T", s)
}
