package reorder

import (
	"fmt"

	"github.com/born-ml/reorder/internal/engine"
)

// Operand names a storage taking part in a step.
type Operand int

// Step operands.
const (
	Input Operand = iota
	Output
	Scratch
)

// String returns the operand name.
func (o Operand) String() string {
	switch o {
	case Input:
		return "input"
	case Output:
		return "output"
	case Scratch:
		return "scratch"
	default:
		return "unknown"
	}
}

// StepKind is the operation a step performs.
type StepKind int

// Step kinds.
const (
	// StepReorder launches the layout-transform kernel.
	StepReorder StepKind = iota
	// StepCopy moves raw bytes, possibly across engines.
	StepCopy
)

// String returns the step kind name.
func (k StepKind) String() string {
	switch k {
	case StepReorder:
		return "reorder"
	case StepCopy:
		return "copy"
	default:
		return "unknown"
	}
}

// SizeFrom tells which descriptor sizes a copy.
type SizeFrom int

// Copy size sources.
const (
	SizeNone SizeFrom = iota
	SizeSrc
	SizeDst
)

// Step is one sub-operation of an execution.
type Step struct {
	Kind StepKind
	From Operand
	To   Operand
	Size SizeFrom
}

// String implements fmt.Stringer.
func (s Step) String() string {
	return fmt.Sprintf("%s(%s->%s)", s.Kind, s.From, s.To)
}

type transition struct {
	src, dst  engine.Kind
	doReorder bool
}

var (
	reorderInOut = Step{Kind: StepReorder, From: Input, To: Output}
	copyInOutDst = Step{Kind: StepCopy, From: Input, To: Output, Size: SizeDst}
	seedScratch  = Step{Kind: StepCopy, From: Output, To: Scratch, Size: SizeDst}
)

// plans is the decision table: an engine-kind transition maps to a fixed
// sequence of steps.
var plans = map[transition][]Step{
	{engine.GPU, engine.CPU, true}: {
		{Kind: StepReorder, From: Input, To: Scratch},
		{Kind: StepCopy, From: Scratch, To: Output, Size: SizeDst},
	},
	{engine.GPU, engine.CPU, false}: {
		copyInOutDst,
	},
	{engine.CPU, engine.GPU, true}: {
		{Kind: StepCopy, From: Input, To: Scratch, Size: SizeSrc},
		{Kind: StepReorder, From: Scratch, To: Output},
	},
	{engine.CPU, engine.GPU, false}: {
		{Kind: StepCopy, From: Input, To: Output, Size: SizeSrc},
	},
	{engine.GPU, engine.GPU, true}:  {reorderInOut},
	{engine.GPU, engine.GPU, false}: {copyInOutDst},
	{engine.CPU, engine.CPU, true}:  {reorderInOut},
	{engine.CPU, engine.CPU, false}: {copyInOutDst},
}

// Plan returns the steps that move a tensor from an engine of kind src to
// one of kind dst. With accumulate set the kernel reads the destination, so
// a kernel writing the scratch buffer is preceded by a copy of the
// destination into the scratch. The returned slice must not be modified.
func Plan(src, dst engine.Kind, doReorder, accumulate bool) ([]Step, error) {
	steps, ok := plans[transition{src, dst, doReorder}]
	if !ok {
		return nil, fmt.Errorf("%w: no plan for %s -> %s", ErrInvalidDesc, src, dst)
	}
	if !accumulate {
		return steps, nil
	}
	for i, s := range steps {
		if s.Kind == StepReorder && s.To == Scratch {
			seeded := make([]Step, 0, len(steps)+1)
			seeded = append(seeded, steps[:i]...)
			seeded = append(seeded, seedScratch)
			return append(seeded, steps[i:]...), nil
		}
	}
	return steps, nil
}

// NeedsScratch reports whether any step reads or writes the scratch buffer.
func NeedsScratch(steps []Step) bool {
	for _, s := range steps {
		if s.From == Scratch || s.To == Scratch {
			return true
		}
	}
	return false
}

// NeedsKernel reports whether any step launches the kernel.
func NeedsKernel(steps []Step) bool {
	for _, s := range steps {
		if s.Kind == StepReorder {
			return true
		}
	}
	return false
}
