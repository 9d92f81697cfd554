package reorder

import (
	"fmt"
	"testing"

	"github.com/born-ml/reorder/internal/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlan(t *testing.T) {
	tests := []struct {
		src, dst  engine.Kind
		doReorder bool
		want      []Step
	}{
		{engine.GPU, engine.CPU, true, []Step{
			{Kind: StepReorder, From: Input, To: Scratch},
			{Kind: StepCopy, From: Scratch, To: Output, Size: SizeDst},
		}},
		{engine.GPU, engine.CPU, false, []Step{
			{Kind: StepCopy, From: Input, To: Output, Size: SizeDst},
		}},
		{engine.CPU, engine.GPU, true, []Step{
			{Kind: StepCopy, From: Input, To: Scratch, Size: SizeSrc},
			{Kind: StepReorder, From: Scratch, To: Output},
		}},
		{engine.CPU, engine.GPU, false, []Step{
			{Kind: StepCopy, From: Input, To: Output, Size: SizeSrc},
		}},
		{engine.GPU, engine.GPU, true, []Step{
			{Kind: StepReorder, From: Input, To: Output},
		}},
		{engine.GPU, engine.GPU, false, []Step{
			{Kind: StepCopy, From: Input, To: Output, Size: SizeDst},
		}},
		{engine.CPU, engine.CPU, true, []Step{
			{Kind: StepReorder, From: Input, To: Output},
		}},
		{engine.CPU, engine.CPU, false, []Step{
			{Kind: StepCopy, From: Input, To: Output, Size: SizeDst},
		}},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s_to_%s_reorder_%v", tt.src, tt.dst, tt.doReorder), func(t *testing.T) {
			steps, err := Plan(tt.src, tt.dst, tt.doReorder, false)
			require.NoError(t, err)
			assert.Equal(t, tt.want, steps)
		})
	}
}

func TestPlan_Accumulate(t *testing.T) {
	steps, err := Plan(engine.GPU, engine.CPU, true, true)
	require.NoError(t, err)
	assert.Equal(t, []Step{
		{Kind: StepCopy, From: Output, To: Scratch, Size: SizeDst},
		{Kind: StepReorder, From: Input, To: Scratch},
		{Kind: StepCopy, From: Scratch, To: Output, Size: SizeDst},
	}, steps)

	// The table itself is left untouched.
	steps, err = Plan(engine.GPU, engine.CPU, true, false)
	require.NoError(t, err)
	assert.Len(t, steps, 2)

	// Kernels that write the real destination read it directly.
	for _, tr := range []struct{ src, dst engine.Kind }{
		{engine.CPU, engine.GPU},
		{engine.GPU, engine.GPU},
		{engine.CPU, engine.CPU},
	} {
		withSum, err := Plan(tr.src, tr.dst, true, true)
		require.NoError(t, err)
		without, err := Plan(tr.src, tr.dst, true, false)
		require.NoError(t, err)
		assert.Equal(t, without, withSum)
	}
}

func TestPlan_UnknownKind(t *testing.T) {
	_, err := Plan(engine.Kind(7), engine.CPU, true, false)
	assert.ErrorIs(t, err, ErrInvalidDesc)
}

func TestPlan_Needs(t *testing.T) {
	steps, err := Plan(engine.GPU, engine.CPU, true, false)
	require.NoError(t, err)
	assert.True(t, NeedsScratch(steps))
	assert.True(t, NeedsKernel(steps))

	steps, err = Plan(engine.GPU, engine.CPU, false, false)
	require.NoError(t, err)
	assert.False(t, NeedsScratch(steps))
	assert.False(t, NeedsKernel(steps))

	steps, err = Plan(engine.CPU, engine.CPU, true, false)
	require.NoError(t, err)
	assert.False(t, NeedsScratch(steps))
	assert.True(t, NeedsKernel(steps))
}

func TestStep_String(t *testing.T) {
	assert.Equal(t, "reorder(input->scratch)", Step{Kind: StepReorder, From: Input, To: Scratch}.String())
	assert.Equal(t, "copy(scratch->output)", Step{Kind: StepCopy, From: Scratch, To: Output}.String())
}
