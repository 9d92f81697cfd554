// Package main provides the reorder CLI. It runs a reorder job between two
// engines and optionally checks the result against a host-only run.
package main

import (
	"context"
	"encoding/binary"
	"flag"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/born-ml/reorder/internal/compute"
	"github.com/born-ml/reorder/internal/compute/native"
	"github.com/born-ml/reorder/internal/config"
	"github.com/born-ml/reorder/internal/engine"
	"github.com/born-ml/reorder/internal/memory"
	"github.com/born-ml/reorder/internal/parallel"
	"github.com/born-ml/reorder/internal/reorder"
	"github.com/born-ml/reorder/internal/tensor"
	"k8s.io/klog/v2"
)

const version = "v0.0.1-dev"

func main() {
	if len(os.Args) > 1 && os.Args[1] == "version" {
		fmt.Printf("Born reorder %s\n", version)
		return
	}

	ctx := context.Background()
	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	jobPath := flag.String("job", "", "path to a YAML job file (default: NCHW to NHWC, gpu to cpu)")
	backend := flag.String("backend", "", "accelerator backend: native or webgpu (overrides the job file)")
	verify := flag.Bool("verify", true, "compare the result with a host-only reorder")

	klog.InitFlags(nil)
	flag.Parse()

	job := defaultJob()
	if *jobPath != "" {
		var err error
		if job, err = config.Load(*jobPath); err != nil {
			return err
		}
	}
	if *backend != "" {
		job.Backend = *backend
	}
	return runJob(ctx, job, *verify)
}

// runJob executes job across its engines and, with verify set, checks the
// destination against a host-only run of the same job.
func runJob(ctx context.Context, job config.Job, verify bool) error {
	log := klog.FromContext(ctx)

	if err := job.Validate(); err != nil {
		return err
	}

	srcKind, dstKind, _ := job.Kinds()
	srcMD, dstMD, _ := job.Descs()
	attr := job.Attr()

	engines, err := newEngines(job.Backend, srcKind, dstKind)
	if err != nil {
		return err
	}
	defer engines.Close()

	pd, err := reorder.NewPrimitiveDesc(engines.src, srcMD, engines.dst, dstMD, attr)
	if err != nil {
		return err
	}
	computeEng := engines.byID(pd.ComputeEngine().ID())
	prim, err := reorder.New(pd, computeEng)
	if err != nil {
		return err
	}
	defer prim.Close()

	log.Info("Prepared reorder", "job", job.Name, "backend", job.Backend,
		"src", srcMD, "dst", dstMD, "steps", fmt.Sprint(prim.Steps()),
		"range", pd.JobParams().NDRange, "doReorder", pd.JobParams().DoReorder)

	input, err := initialInput(srcMD)
	if err != nil {
		return err
	}
	initial, err := initialOutput(dstMD)
	if err != nil {
		return err
	}

	in, err := upload(engines.src, input)
	if err != nil {
		return fmt.Errorf("preparing input: %w", err)
	}
	out, err := upload(engines.dst, initial)
	if err != nil {
		return fmt.Errorf("preparing output: %w", err)
	}

	stream, err := computeEng.NewStream()
	if err != nil {
		return err
	}
	ectx := reorder.NewExecCtx(stream, map[int]memory.Storage{
		reorder.ArgFrom: in,
		reorder.ArgTo:   out,
	})

	start := time.Now()
	for i := 0; i < job.Repeat; i++ {
		if err := prim.Execute(ectx); err != nil {
			return fmt.Errorf("executing reorder (run %d): %w", i, err)
		}
	}
	if err := stream.Wait(); err != nil {
		return err
	}
	elapsed := time.Since(start)

	got, err := download(out)
	if err != nil {
		return fmt.Errorf("reading output: %w", err)
	}
	log.Info("Executed reorder", "runs", job.Repeat, "elapsed", elapsed, "bytes", len(got))

	if !verify {
		return nil
	}
	want, err := hostReorder(srcMD, dstMD, attr, input, initial, job.Repeat)
	if err != nil {
		return fmt.Errorf("computing reference: %w", err)
	}
	if err := compare(dstMD, got, want); err != nil {
		return err
	}
	log.Info("Verified reorder against host reference", "elements", dstMD.NumElements())
	return nil
}

func defaultJob() config.Job {
	job := config.Default()
	job.Name = "nchw-to-nhwc"
	job.Dims = []int{2, 3, 4, 5}
	job.Dst.Tag = "acdb"
	job.Scales = config.Scales{Mask: 1 << 1, Values: []float32{1, 2, 0.5}}
	return job
}

// engineSet holds the engines of a job; src and dst may be the same engine.
type engineSet struct {
	src, dst compute.Engine
}

func newEngines(backend string, srcKind, dstKind engine.Kind) (*engineSet, error) {
	kinds := map[engine.Kind]compute.Engine{}
	for _, k := range []engine.Kind{srcKind, dstKind} {
		if _, ok := kinds[k]; ok {
			continue
		}
		if k == engine.CPU {
			kinds[k] = native.New(engine.CPU, "host")
			continue
		}
		acc, err := newAccelerator(backend)
		if err != nil {
			for _, e := range kinds {
				_ = e.Close()
			}
			return nil, err
		}
		kinds[k] = acc
	}
	return &engineSet{src: kinds[srcKind], dst: kinds[dstKind]}, nil
}

func (s *engineSet) byID(id string) compute.Engine {
	if s.src.ID() == id {
		return s.src
	}
	return s.dst
}

func (s *engineSet) Close() {
	_ = s.src.Close()
	if s.dst != s.src {
		_ = s.dst.Close()
	}
}

// initialInput returns the source bytes: the sequence 0, 1, 2, ... wrapped
// to fit int8, converted into md's type and layout on the host.
func initialInput(md tensor.MemoryDesc) ([]byte, error) {
	n := md.NumElements()
	ramp := make([]float32, n)
	for i := range ramp {
		ramp[i] = float32(i%200 - 100)
	}
	plain := tensor.Plain(md.Dims, tensor.Float32)
	raw := make([]byte, plain.Size())
	if err := memory.PutFloat32s(raw, ramp); err != nil {
		return nil, err
	}
	return hostReorder(plain, md, reorder.DefaultAttr(), raw, make([]byte, md.Size()), 1)
}

// initialOutput fills the destination with ones so that a sum scale has
// something to accumulate onto.
func initialOutput(md tensor.MemoryDesc) ([]byte, error) {
	plain := tensor.Plain(md.Dims, tensor.Float32)
	ones := make([]float32, md.NumElements())
	for i := range ones {
		ones[i] = 1
	}
	raw := make([]byte, plain.Size())
	if err := memory.PutFloat32s(raw, ones); err != nil {
		return nil, err
	}
	return hostReorder(plain, md, reorder.DefaultAttr(), raw, make([]byte, md.Size()), 1)
}

// hostReorder runs the reorder between two native host engines.
func hostReorder(src, dst tensor.MemoryDesc, attr reorder.Attr, input, output []byte, runs int) ([]byte, error) {
	host := native.New(engine.CPU, "reference")
	pd, err := reorder.NewPrimitiveDesc(host, src, host, dst, attr)
	if err != nil {
		return nil, err
	}
	prim, err := reorder.New(pd, host)
	if err != nil {
		return nil, err
	}
	defer prim.Close()

	in := memory.NewBuffer(host, src.Size())
	copy(in.Bytes(), input)
	out := memory.NewBuffer(host, dst.Size())
	copy(out.Bytes(), output)

	stream, err := host.NewStream()
	if err != nil {
		return nil, err
	}
	ctx := reorder.NewExecCtx(stream, map[int]memory.Storage{reorder.ArgFrom: in, reorder.ArgTo: out})
	for i := 0; i < runs; i++ {
		if err := prim.Execute(ctx); err != nil {
			return nil, err
		}
	}
	return out.Bytes(), nil
}

func upload(e compute.Engine, data []byte) (memory.Storage, error) {
	s, err := e.NewStorage(uint64(len(data)))
	if err != nil {
		return nil, err
	}
	err = memory.WithMapped(s, func(host []byte) error {
		copy(host, data)
		return nil
	})
	return s, err
}

func download(s memory.Storage) ([]byte, error) {
	var out []byte
	err := memory.WithMapped(s, func(host []byte) error {
		out = append([]byte(nil), host...)
		return nil
	})
	return out, err
}

// compare checks every logical element of md. Float32 elements may differ
// by a relative 1e-5; other types must match exactly.
func compare(md tensor.MemoryDesc, got, want []byte) error {
	size := md.DType.Size()
	return parallel.ForErr(md.NumElements(), func(i int) error {
		idx := make([]int, len(md.Dims))
		md.Dims.Unravel(i, idx)
		off := md.Offset(idx) * size
		g, w := got[off:off+size], want[off:off+size]

		if md.DType == tensor.Float32 {
			gv := math.Float32frombits(binary.LittleEndian.Uint32(g))
			wv := math.Float32frombits(binary.LittleEndian.Uint32(w))
			if math.Abs(float64(gv-wv)) > 1e-5*math.Max(1, math.Abs(float64(wv))) {
				return fmt.Errorf("mismatch at %v: got %g, want %g", idx, gv, wv)
			}
			return nil
		}
		for b := range g {
			if g[b] != w[b] {
				return fmt.Errorf("mismatch at %v: got % x, want % x", idx, g, w)
			}
		}
		return nil
	}, parallel.DefaultConfig())
}
