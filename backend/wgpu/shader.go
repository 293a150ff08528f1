package wgpu

import (
	"fmt"

	"github.com/gogpu/naga"
)

// trailShaderWGSL draws trail records as colored line strips. Positions are
// in world units and mapped to clip space by the per-axis scale uniform.
const trailShaderWGSL = `
struct Uniforms {
    scale: vec4<f32>,
}

@group(0) @binding(0) var<uniform> uniforms: Uniforms;

struct VertexOutput {
    @builtin(position) position: vec4<f32>,
    @location(0) color: vec3<f32>,
}

@vertex
fn vs_main(@location(0) pos: vec3<f32>, @location(1) color: vec3<f32>) -> VertexOutput {
    var out: VertexOutput;
    out.position = vec4<f32>(pos.xy * uniforms.scale.xy, 0.0, 1.0);
    out.color = color;
    return out;
}

@fragment
fn fs_main(v: VertexOutput) -> @location(0) vec4<f32> {
    return vec4<f32>(v.color, 1.0);
}
`

const (
	vertexEntryPoint   = "vs_main"
	fragmentEntryPoint = "fs_main"
)

// ValidateShader compiles the trail shader to SPIR-V with naga and returns
// the module size in bytes.
func ValidateShader() (int, error) {
	spirv, err := naga.Compile(trailShaderWGSL)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrShaderInvalid, err)
	}
	if len(spirv) < 4 || len(spirv)%4 != 0 {
		return 0, fmt.Errorf("%w: SPIR-V output of %d bytes", ErrShaderInvalid, len(spirv))
	}
	return len(spirv), nil
}
