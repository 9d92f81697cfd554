package kernels

import (
	"fmt"
	"strings"

	"github.com/born-ml/reorder/internal/compute"
	"github.com/born-ml/reorder/internal/tensor"
)

// WGSL renders the reorder kernel as a WGSL compute shader with dims and
// strides baked in. Only float32 tensors are supported.
//
// Bindings follow the WebGPU stream convention: non-empty storage
// arguments in order (src, dst, then scales when present) followed by one
// uniform holding the scalar arguments (alpha, beta).
func (c ReorderConf) WGSL(r compute.NDRange) (string, error) {
	if err := c.Validate(); err != nil {
		return "", err
	}
	if c.Src.DType != tensor.Float32 || c.Dst.DType != tensor.Float32 {
		return "", fmt.Errorf("reorder wgsl: only float32 is supported, got %s -> %s", c.Src.DType, c.Dst.DType)
	}
	if err := r.Validate(); err != nil {
		return "", err
	}

	dims := c.Dst.Dims
	n := len(dims)
	hasScales := c.ScaleMask != 0

	var sb strings.Builder
	sb.WriteString("@group(0) @binding(0) var<storage, read> src: array<f32>;\n")
	sb.WriteString("@group(0) @binding(1) var<storage, read_write> dst: array<f32>;\n")
	paramsBinding := 2
	if hasScales {
		sb.WriteString("@group(0) @binding(2) var<storage, read> scales: array<f32>;\n")
		paramsBinding = 3
	}
	fmt.Fprintf(&sb, `
struct Params {
    alpha: f32,
    beta: f32,
}
@group(0) @binding(%d) var<uniform> params: Params;

@compute @workgroup_size(%d, %d, %d)
fn main(@builtin(global_invocation_id) gid: vec3<u32>) {
    if (gid.x >= %du || gid.y >= %du || gid.z >= %du) {
        return;
    }
`, paramsBinding, r.Local[0], r.Local[1], r.Local[2], r.Global[0], r.Global[1], r.Global[2])

	fmt.Fprintf(&sb, "    let i%d = gid.x;\n", n-1)
	if n > 1 {
		fmt.Fprintf(&sb, "    let i%d = gid.y;\n", n-2)
	}
	if n > 2 {
		sb.WriteString("    var z = gid.z;\n")
		for d := n - 3; d >= 0; d-- {
			fmt.Fprintf(&sb, "    let i%d = z %% %du;\n", d, dims[d])
			if d > 0 {
				fmt.Fprintf(&sb, "    z = z / %du;\n", dims[d])
			}
		}
	}

	fmt.Fprintf(&sb, "    let s_off = %s;\n", offsetExpr(c.Src.Strides))
	fmt.Fprintf(&sb, "    let d_off = %s;\n", offsetExpr(c.Dst.Strides))

	if hasScales {
		sb.WriteString("    var k = 0u;\n")
		for d := 0; d < n; d++ {
			if c.ScaleMask&(1<<d) != 0 {
				fmt.Fprintf(&sb, "    k = k * %du + i%d;\n", dims[d], d)
			}
		}
		sb.WriteString("    var v = params.alpha * scales[k] * src[s_off];\n")
	} else {
		sb.WriteString("    var v = params.alpha * src[s_off];\n")
	}
	sb.WriteString(`    if (params.beta != 0.0) {
        v = v + params.beta * dst[d_off];
    }
    dst[d_off] = v;
}
`)
	return sb.String(), nil
}

func offsetExpr(strides []int) string {
	terms := make([]string, 0, len(strides))
	for d, s := range strides {
		terms = append(terms, fmt.Sprintf("i%d * %du", d, s))
	}
	return strings.Join(terms, " + ")
}
