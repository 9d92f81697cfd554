// Package config loads reorder job descriptions from YAML.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/born-ml/reorder/internal/engine"
	"github.com/born-ml/reorder/internal/reorder"
	"github.com/born-ml/reorder/internal/tensor"
	"gopkg.in/yaml.v3"
)

const (
	// BackendNative runs both engines as native Go engines.
	BackendNative = "native"
	// BackendWebGPU runs the accelerator side on a WebGPU device.
	BackendWebGPU = "webgpu"

	envBackend = "BORN_REORDER_BACKEND"
)

// ErrInvalidJob is returned by Validate.
var ErrInvalidJob = errors.New("config: invalid job")

// Side describes one end of a reorder.
type Side struct {
	Engine string `yaml:"engine"`
	DType  string `yaml:"dtype"`
	Tag    string `yaml:"tag"`
}

// Scales are per-channel output scales selected by a dimension mask.
type Scales struct {
	Mask   int       `yaml:"mask"`
	Values []float32 `yaml:"values"`
}

// Job is one reorder to run.
type Job struct {
	Name     string  `yaml:"name"`
	Backend  string  `yaml:"backend"`
	Dims     []int   `yaml:"dims"`
	Src      Side    `yaml:"src"`
	Dst      Side    `yaml:"dst"`
	Alpha    float32 `yaml:"alpha"`
	Scales   Scales  `yaml:"scales"`
	SumScale float32 `yaml:"sum_scale"`
	Repeat   int     `yaml:"repeat"`
}

// Default returns a job with every optional field set.
func Default() Job {
	return Job{
		Name:    "reorder",
		Backend: BackendNative,
		Src:     Side{Engine: "gpu", DType: "f32"},
		Dst:     Side{Engine: "cpu", DType: "f32"},
		Alpha:   1,
		Repeat:  1,
	}
}

// Load reads a job file. The BORN_REORDER_BACKEND environment variable
// overrides the backend named in the file.
func Load(path string) (Job, error) {
	f, err := os.Open(path)
	if err != nil {
		return Job{}, fmt.Errorf("config: %w", err)
	}
	defer f.Close()

	job, err := Parse(f)
	if err != nil {
		return Job{}, fmt.Errorf("config: %s: %w", path, err)
	}
	if v := os.Getenv(envBackend); v != "" {
		job.Backend = v
	}
	return job, nil
}

// Parse decodes a job over the defaults. Unknown fields are rejected.
func Parse(r io.Reader) (Job, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Job{}, err
	}
	job := Default()
	if len(bytes.TrimSpace(data)) == 0 {
		return job, nil
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&job); err != nil {
		return Job{}, err
	}
	return job, nil
}

// Validate checks the job and the descriptors it builds.
func (j Job) Validate() error {
	if j.Backend != BackendNative && j.Backend != BackendWebGPU {
		return fmt.Errorf("%w: unknown backend %q", ErrInvalidJob, j.Backend)
	}
	if len(j.Dims) == 0 {
		return fmt.Errorf("%w: dims are required", ErrInvalidJob)
	}
	if j.Repeat < 1 {
		return fmt.Errorf("%w: repeat must be positive", ErrInvalidJob)
	}
	if j.Scales.Mask != 0 && j.Alpha != 1 {
		return fmt.Errorf("%w: alpha cannot be combined with per-channel scales", ErrInvalidJob)
	}
	if _, _, err := j.Kinds(); err != nil {
		return err
	}
	if _, _, err := j.Descs(); err != nil {
		return err
	}
	return nil
}

// Kinds returns the source and destination engine kinds.
func (j Job) Kinds() (src, dst engine.Kind, err error) {
	if src, err = engine.ParseKind(j.Src.Engine); err != nil {
		return 0, 0, fmt.Errorf("%w: src: %v", ErrInvalidJob, err)
	}
	if dst, err = engine.ParseKind(j.Dst.Engine); err != nil {
		return 0, 0, fmt.Errorf("%w: dst: %v", ErrInvalidJob, err)
	}
	return src, dst, nil
}

// Descs builds the source and destination memory descriptors.
func (j Job) Descs() (src, dst tensor.MemoryDesc, err error) {
	if src, err = j.Src.desc(j.Dims); err != nil {
		return src, dst, fmt.Errorf("%w: src: %v", ErrInvalidJob, err)
	}
	if dst, err = j.Dst.desc(j.Dims); err != nil {
		return src, dst, fmt.Errorf("%w: dst: %v", ErrInvalidJob, err)
	}
	return src, dst, nil
}

func (s Side) desc(dims []int) (tensor.MemoryDesc, error) {
	dt, err := tensor.ParseDataType(s.DType)
	if err != nil {
		return tensor.MemoryDesc{}, err
	}
	tag := s.Tag
	if tag == "" {
		tag = tensor.PlainTag(len(dims))
	}
	return tensor.NewMemoryDesc(tensor.Shape(dims), dt, tag)
}

// Attr returns the reorder attributes: alpha as a common scale unless
// per-channel scales are given.
func (j Job) Attr() reorder.Attr {
	attr := reorder.Attr{SumScale: j.SumScale}
	if j.Scales.Mask != 0 {
		attr.OutputScales = reorder.Scales{
			Mask:   j.Scales.Mask,
			Values: append([]float32(nil), j.Scales.Values...),
		}
	} else {
		attr.OutputScales = reorder.Scales{Values: []float32{j.Alpha}}
	}
	return attr
}
