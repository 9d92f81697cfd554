package main

import (
	"context"
	"testing"

	"github.com/born-ml/reorder/internal/config"
	"github.com/born-ml/reorder/internal/engine"
	"github.com/born-ml/reorder/internal/memory"
	"github.com/born-ml/reorder/internal/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultJob(t *testing.T) {
	job := defaultJob()
	require.NoError(t, job.Validate())
}

func TestInitialInput(t *testing.T) {
	md, err := tensor.NewMemoryDesc(tensor.Shape{2, 3}, tensor.Float32, "ba")
	require.NoError(t, err)

	raw, err := initialInput(md)
	require.NoError(t, err)
	// Logical [[-100 -99 -98] [-97 -96 -95]] stored column-major.
	assert.Equal(t, []float32{-100, -97, -99, -96, -98, -95}, memory.Float32s(raw))
}

func TestRunJob_Native(t *testing.T) {
	tests := map[string]func(j *config.Job){
		"gpu to cpu with sum": func(j *config.Job) {
			j.SumScale = 0.5
			j.Repeat = 2
		},
		"cpu to gpu with sum": func(j *config.Job) {
			j.Src.Engine, j.Dst.Engine = "cpu", "gpu"
			j.Src.Tag, j.Dst.Tag = "acdb", ""
			j.SumScale = 2
			j.Repeat = 2
		},
		"int8 destination": func(j *config.Job) {
			j.Dst.DType = "s8"
			j.Scales = config.Scales{}
			j.Alpha = 3
		},
		"copy only": func(j *config.Job) {
			j.Dst.Tag = ""
			j.Scales = config.Scales{}
		},
	}
	for name, edit := range tests {
		t.Run(name, func(t *testing.T) {
			job := defaultJob()
			edit(&job)
			assert.NoError(t, runJob(context.Background(), job, true))
		})
	}
}

func TestRunJob_InvalidJob(t *testing.T) {
	job := defaultJob()
	job.Backend = "opencl"
	assert.ErrorIs(t, runJob(context.Background(), job, true), config.ErrInvalidJob)
}

func TestCompare(t *testing.T) {
	md := tensor.Plain(tensor.Shape{2, 2}, tensor.Float32)
	want := make([]byte, md.Size())
	require.NoError(t, memory.PutFloat32s(want, []float32{1, -2, 3, -4}))
	assert.NoError(t, compare(md, want, want))

	bad := append([]byte(nil), want...)
	bad[3] ^= 0x80
	assert.Error(t, compare(md, bad, want))

	i8 := tensor.Plain(tensor.Shape{3}, tensor.Int8)
	assert.NoError(t, compare(i8, []byte{1, 2, 3}, []byte{1, 2, 3}))
	assert.Error(t, compare(i8, []byte{1, 2, 4}, []byte{1, 2, 3}))
}

func TestNewEngines_SameKind(t *testing.T) {
	engines, err := newEngines(config.BackendNative, engine.GPU, engine.GPU)
	require.NoError(t, err)
	defer engines.Close()
	assert.Same(t, engines.src, engines.dst)
	assert.Same(t, engines.src, engines.byID(engines.dst.ID()))

	_, err = newEngines("opencl", engine.CPU, engine.GPU)
	assert.Error(t, err)
}
