// Package reorder implements the cross-engine reorder primitive: it moves a
// tensor between a host and an accelerator engine, changing its layout and
// rescaling its values on the way.
package reorder

import (
	"fmt"

	"github.com/born-ml/reorder/internal/compute"
	"github.com/born-ml/reorder/internal/kernels"
	"github.com/born-ml/reorder/internal/memory"
)

// Primitive executes a reorder described by a PrimitiveDesc.
//
// The scratch and scale buffers belong to the primitive and are reused by
// every Execute, so executions of one Primitive must not overlap.
type Primitive struct {
	pd      *PrimitiveDesc
	engine  compute.Engine
	steps   []Step
	kernel  compute.Kernel
	scratch memory.Storage
	scales  memory.Storage
}

// New creates the primitive on eng, which must be pd.ComputeEngine(). The
// kernel, the scale buffer and the scratch buffer are created only when the
// plan needs them.
func New(pd *PrimitiveDesc, eng compute.Engine) (*Primitive, error) {
	if eng == nil || eng.ID() != pd.ComputeEngine().ID() {
		return nil, fmt.Errorf("%w: primitive must be created on %s", ErrEngineMismatch, pd.ComputeEngine().Name())
	}

	jrp := pd.JobParams()
	steps, err := Plan(pd.SrcEngine().Kind(), pd.DstEngine().Kind(), jrp.DoReorder, pd.Beta() != 0)
	if err != nil {
		return nil, err
	}

	p := &Primitive{pd: pd, engine: eng, steps: steps}

	if NeedsKernel(steps) {
		conf := kernels.ReorderConf{
			Src:       pd.SrcDesc(),
			Dst:       pd.DstDesc(),
			ScaleMask: pd.Attr().OutputScales.Mask,
		}
		if p.kernel, err = eng.CreateKernel(conf); err != nil {
			p.Close()
			return nil, err
		}
		if n := conf.NumScales(); n > 0 {
			if p.scales, err = eng.NewStorage(uint64(4 * n)); err != nil { //nolint:gosec // G115: n is positive
				p.Close()
				return nil, fmt.Errorf("reorder: allocate scales: %w", err)
			}
		}
	}

	if NeedsScratch(steps) {
		// The scratch holds the tensor in the layout found at the copy boundary.
		size := pd.DstDesc().Size()
		if pd.SrcEngine().Kind() != pd.ComputeEngine().Kind() {
			size = pd.SrcDesc().Size()
		}
		if p.scratch, err = eng.NewStorage(size); err != nil {
			p.Close()
			return nil, fmt.Errorf("reorder: allocate scratch: %w", err)
		}
	}

	return p, nil
}

// Desc returns the primitive descriptor.
func (p *Primitive) Desc() *PrimitiveDesc { return p.pd }

// Steps returns the step sequence Execute runs.
func (p *Primitive) Steps() []Step { return p.steps }

// Scratch returns the scratch buffer, or nil when the plan needs none.
func (p *Primitive) Scratch() memory.Storage { return p.scratch }

// ScaleBuffer returns the per-channel scale buffer, or nil.
func (p *Primitive) ScaleBuffer() memory.Storage { return p.scales }

// Close releases the scratch and scale buffers.
func (p *Primitive) Close() {
	for _, s := range []memory.Storage{p.scratch, p.scales} {
		if r, ok := s.(interface{ Release() }); ok {
			r.Release()
		}
	}
	p.scratch, p.scales = nil, nil
}

// Execute runs the plan on ctx's stream. The first failing step's error is
// returned as is and the remaining steps are skipped; the destination is
// then undefined.
func (p *Primitive) Execute(ctx *ExecCtx) error {
	stream := ctx.Stream()
	if stream == nil {
		return fmt.Errorf("%w: nil stream", ErrStreamMismatch)
	}
	if stream.Engine() == nil || stream.Engine().ID() != p.engine.ID() {
		return fmt.Errorf("%w: stream belongs to another engine", ErrStreamMismatch)
	}
	input := ctx.Input(ArgFrom)
	output := ctx.Output(ArgTo)
	if input.IsEmpty() || output.IsEmpty() {
		return fmt.Errorf("%w: both source and destination are required", ErrMissingArgument)
	}

	operands := [...]memory.Storage{Input: input, Output: output, Scratch: p.scratch}

	for _, step := range p.steps {
		from, to := operands[step.From], operands[step.To]
		if memory.IsEmpty(from) || memory.IsEmpty(to) {
			return fmt.Errorf("%w: %s has an empty operand", ErrMissingArgument, step)
		}

		var err error
		switch step.Kind {
		case StepReorder:
			err = p.reorder(stream, from, to)
		case StepCopy:
			err = stream.Copy(from, to, p.copySize(step.Size))
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (p *Primitive) copySize(from SizeFrom) uint64 {
	if from == SizeSrc {
		return p.pd.SrcDesc().Size()
	}
	return p.pd.DstDesc().Size()
}

// reorder refreshes the scale buffer and launches the kernel.
func (p *Primitive) reorder(stream compute.Stream, in, out memory.Storage) error {
	scales := memory.Empty()
	if p.scales != nil {
		if err := p.refreshScales(); err != nil {
			return err
		}
		scales = p.scales
	}

	var args compute.ArgList
	args.SetStorage(kernels.ArgSrc, in)
	args.SetStorage(kernels.ArgDst, out)
	args.SetFloat32(kernels.ArgAlpha, p.pd.Alpha())
	args.SetFloat32(kernels.ArgBeta, p.pd.Beta())
	args.SetStorage(kernels.ArgScales, scales)

	return stream.ParallelFor(p.pd.JobParams().NDRange, p.kernel, &args)
}

// refreshScales uploads the attribute scales into the device scale buffer.
func (p *Primitive) refreshScales() error {
	values := p.pd.Attr().OutputScales.Values
	return memory.WithMapped(p.scales, func(host []byte) error {
		return memory.PutFloat32s(host, values)
	})
}
