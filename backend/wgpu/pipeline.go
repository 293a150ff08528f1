package wgpu

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu"

	"github.com/gogpu/epicycle/backend"
)

// uniformSize is the size of the scale uniform: one vec4<f32>.
const uniformSize = 16

// vertexLayout describes one trail record as two vec3<f32> attributes.
func vertexLayout() gputypes.VertexBufferLayout {
	return gputypes.VertexBufferLayout{
		ArrayStride: backend.VertexStride,
		StepMode:    gputypes.VertexStepModeVertex,
		Attributes: []gputypes.VertexAttribute{
			{Format: gputypes.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},
			{Format: gputypes.VertexFormatFloat32x3, Offset: 12, ShaderLocation: 1},
		},
	}
}

// encodeScale packs the per-axis scale into the uniform layout.
func encodeScale(sx, sy float64) []byte {
	buf := make([]byte, uniformSize)
	binary.LittleEndian.PutUint32(buf[0:], math.Float32bits(float32(sx)))
	binary.LittleEndian.PutUint32(buf[4:], math.Float32bits(float32(sy)))
	binary.LittleEndian.PutUint32(buf[8:], math.Float32bits(1))
	binary.LittleEndian.PutUint32(buf[12:], math.Float32bits(1))
	return buf
}

// trailPipeline holds the GPU objects shared by every trail draw.
type trailPipeline struct {
	shader    *wgpu.ShaderModule
	bindings  *wgpu.BindGroupLayout
	layout    *wgpu.PipelineLayout
	pipeline  *wgpu.RenderPipeline
	uniforms  *wgpu.Buffer
	bindGroup *wgpu.BindGroup
}

// newTrailPipeline creates the line-strip pipeline for format. On error every
// object created so far is released.
func newTrailPipeline(device *wgpu.Device, format gputypes.TextureFormat) (p *trailPipeline, err error) {
	p = &trailPipeline{}
	defer func() {
		if err != nil {
			p.destroy()
			p = nil
		}
	}()

	p.shader, err = device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label: "epicycle trail shader",
		WGSL:  trailShaderWGSL,
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: shader module: %w", err)
	}

	p.bindings, err = device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "epicycle uniforms layout",
		Entries: []gputypes.BindGroupLayoutEntry{{
			Binding:    0,
			Visibility: gputypes.ShaderStageVertex,
			Buffer: &gputypes.BufferBindingLayout{
				Type:           gputypes.BufferBindingTypeUniform,
				MinBindingSize: uniformSize,
			},
		}},
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: bind group layout: %w", err)
	}

	p.layout, err = device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            "epicycle trail layout",
		BindGroupLayouts: []*wgpu.BindGroupLayout{p.bindings},
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: pipeline layout: %w", err)
	}

	p.pipeline, err = device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  "epicycle trail",
		Layout: p.layout,
		Vertex: wgpu.VertexState{
			Module:     p.shader,
			EntryPoint: vertexEntryPoint,
			Buffers:    []gputypes.VertexBufferLayout{vertexLayout()},
		},
		Primitive: gputypes.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyLineStrip,
		},
		Multisample: gputypes.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
		Fragment: &wgpu.FragmentState{
			Module:     p.shader,
			EntryPoint: fragmentEntryPoint,
			Targets: []gputypes.ColorTargetState{{
				Format:    format,
				WriteMask: gputypes.ColorWriteMaskAll,
			}},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: render pipeline: %w", err)
	}

	p.uniforms, err = device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "epicycle uniforms",
		Size:  uniformSize,
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: uniform buffer: %w", err)
	}

	p.bindGroup, err = device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "epicycle uniforms",
		Layout: p.bindings,
		Entries: []wgpu.BindGroupEntry{{
			Binding: 0,
			Buffer:  p.uniforms,
			Size:    uniformSize,
		}},
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: bind group: %w", err)
	}
	return p, nil
}

// setScale writes the world-to-clip scale for the next submission.
func (p *trailPipeline) setScale(queue *wgpu.Queue, sx, sy float64) error {
	return queue.WriteBuffer(p.uniforms, 0, encodeScale(sx, sy))
}

func (p *trailPipeline) destroy() {
	if p == nil {
		return
	}
	if p.bindGroup != nil {
		p.bindGroup.Release()
	}
	if p.uniforms != nil {
		p.uniforms.Release()
	}
	if p.pipeline != nil {
		p.pipeline.Release()
	}
	if p.layout != nil {
		p.layout.Release()
	}
	if p.bindings != nil {
		p.bindings.Release()
	}
	if p.shader != nil {
		p.shader.Release()
	}
	*p = trailPipeline{}
}
