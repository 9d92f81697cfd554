package tensor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMemoryDesc_Tags(t *testing.T) {
	dims := Shape{2, 3, 4, 5}

	tests := []struct {
		tag     string
		strides []int
	}{
		{"abcd", []int{60, 20, 5, 1}},
		{"acdb", []int{60, 1, 15, 3}},
		{"bacd", []int{20, 40, 5, 1}},
		{"dcba", []int{1, 2, 6, 24}},
	}
	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			md, err := NewMemoryDesc(dims, Float32, tt.tag)
			require.NoError(t, err)
			assert.Equal(t, tt.strides, md.Strides)
			assert.Equal(t, uint64(120*4), md.Size())
		})
	}
}

func TestNewMemoryDesc_InvalidTag(t *testing.T) {
	dims := Shape{2, 3}

	for _, tag := range []string{"a", "abc", "aa", "ac", "zb"} {
		_, err := NewMemoryDesc(dims, Float32, tag)
		assert.Error(t, err, "tag %q", tag)
	}

	_, err := NewMemoryDesc(Shape{2, 0}, Float32, "ab")
	assert.Error(t, err)

	_, err = NewMemoryDesc(dims, DataType(99), "ab")
	assert.Error(t, err)
}

func TestPlain(t *testing.T) {
	md := Plain(Shape{2, 3}, Int8)
	assert.Equal(t, []int{3, 1}, md.Strides)
	assert.Equal(t, uint64(6), md.Size())
	assert.Equal(t, 6, md.NumElements())
	assert.Equal(t, "abcd", PlainTag(4))
}

func TestMemoryDesc_Offset(t *testing.T) {
	md, err := NewMemoryDesc(Shape{2, 3, 4}, Float32, "acb")
	require.NoError(t, err)

	// acb: strides a=12, c=3, b=1
	assert.Equal(t, []int{12, 1, 3}, md.Strides)
	assert.Equal(t, 12+2+9, md.Offset([]int{1, 2, 3}))
}

func TestMemoryDesc_SameLayout(t *testing.T) {
	nchw, err := NewMemoryDesc(Shape{1, 3, 2, 2}, Float32, "abcd")
	require.NoError(t, err)
	nhwc, err := NewMemoryDesc(Shape{1, 3, 2, 2}, Float32, "acdb")
	require.NoError(t, err)

	assert.True(t, nchw.SameLayout(Plain(Shape{1, 3, 2, 2}, Float32)))
	assert.False(t, nchw.SameLayout(nhwc))
	assert.False(t, nchw.SameLayout(Plain(Shape{1, 3, 2, 2}, Int32)))

	// Unit dims carry no layout information.
	a, err := NewMemoryDesc(Shape{1, 4}, Float32, "ab")
	require.NoError(t, err)
	b, err := NewMemoryDesc(Shape{1, 4}, Float32, "ba")
	require.NoError(t, err)
	assert.True(t, a.SameLayout(b))
}

func TestMemoryDesc_EmptySize(t *testing.T) {
	var md MemoryDesc
	assert.Equal(t, uint64(0), md.Size())
	assert.Equal(t, 0, md.NumElements())
}

func TestParseDataType(t *testing.T) {
	dt, err := ParseDataType("s8")
	require.NoError(t, err)
	assert.Equal(t, Int8, dt)
	assert.Equal(t, 1, dt.Size())
	assert.True(t, dt.IsInteger())

	dt, err = ParseDataType("float32")
	require.NoError(t, err)
	assert.False(t, dt.IsInteger())

	_, err = ParseDataType("bf16")
	assert.Error(t, err)
}

func TestShape_Unravel(t *testing.T) {
	idx := make([]int, 3)
	Shape{2, 3, 4}.Unravel(23, idx)
	assert.Equal(t, []int{1, 2, 3}, idx)
}
