package wgpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu"

	"github.com/gogpu/epicycle/backend"
)

// vertexBuffer is a device buffer owned by a Backend.
type vertexBuffer struct {
	owner *Backend
	buf   *wgpu.Buffer
	size  uint64
}

func (v *vertexBuffer) Size() uint64 { return v.size }

// Release frees the device buffer. Release is idempotent.
func (v *vertexBuffer) Release() {
	v.owner.mu.Lock()
	defer v.owner.mu.Unlock()
	v.release()
}

func (v *vertexBuffer) release() {
	if v.buf != nil {
		v.buf.Release()
		v.buf = nil
	}
}

type drawCmd struct {
	vertices     *vertexBuffer
	first, count uint32
}

// frame records the uploads and draws of one presented image.
type frame struct {
	owner   *Backend
	texture *wgpu.SurfaceTexture
	view    *wgpu.TextureView
	draws   []drawCmd
	err     error
}

func (f *frame) buffer(buf backend.Buffer) (*vertexBuffer, error) {
	vb, ok := buf.(*vertexBuffer)
	if !ok || vb.owner != f.owner {
		return nil, backend.ErrForeignBuffer
	}
	if vb.buf == nil {
		return nil, fmt.Errorf("wgpu: buffer released")
	}
	return vb, nil
}

// Upload queues a write of data at offset. Only len(data) bytes change.
func (f *frame) Upload(dst backend.Buffer, offset uint64, data []byte) {
	if f.err != nil {
		return
	}
	vb, err := f.buffer(dst)
	if err != nil {
		f.err = err
		return
	}
	if offset+uint64(len(data)) > vb.size {
		f.err = fmt.Errorf("wgpu: upload of %d bytes at %d overruns buffer (%d bytes)", len(data), offset, vb.size)
		return
	}
	if err := f.owner.queue.WriteBuffer(vb.buf, offset, data); err != nil {
		f.err = fmt.Errorf("wgpu: upload at %d: %w", offset, err)
	}
}

// Draw records a line strip of count vertices starting at first.
func (f *frame) Draw(vertices backend.Buffer, first, count uint32) {
	if f.err != nil || count == 0 {
		return
	}
	vb, err := f.buffer(vertices)
	if err != nil {
		f.err = err
		return
	}
	if uint64(first+count)*backend.VertexStride > vb.size {
		f.err = fmt.Errorf("wgpu: draw [%d,+%d) overruns buffer", first, count)
		return
	}
	f.draws = append(f.draws, drawCmd{vertices: vb, first: first, count: count})
}

// Present encodes one render pass that clears to the background and draws
// every recorded strip, submits it and presents the surface image.
func (f *frame) Present() error {
	b := f.owner
	b.mu.Lock()
	defer b.mu.Unlock()
	defer f.releaseView()

	if err := b.usable(); err != nil {
		return err
	}
	if f.err != nil {
		f.discard()
		return f.err
	}

	encoder, err := b.device.CreateCommandEncoder(&wgpu.CommandEncoderDescriptor{Label: "epicycle frame"})
	if err != nil {
		f.discard()
		return fmt.Errorf("wgpu: command encoder: %w", frameStatus(err))
	}

	pass, err := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		Label: "epicycle trail",
		ColorAttachments: []wgpu.RenderPassColorAttachment{{
			View:       f.view,
			LoadOp:     gputypes.LoadOpClear,
			StoreOp:    gputypes.StoreOpStore,
			ClearValue: b.cfg.Background,
		}},
	})
	if err != nil {
		encoder.DiscardEncoding()
		f.discard()
		return fmt.Errorf("wgpu: begin render pass: %w", err)
	}

	pass.SetPipeline(b.trail.pipeline)
	pass.SetBindGroup(0, b.trail.bindGroup, nil)
	var bound *vertexBuffer
	for _, d := range f.draws {
		if d.vertices != bound {
			pass.SetVertexBuffer(0, d.vertices.buf, 0)
			bound = d.vertices
		}
		pass.Draw(d.count, 1, d.first, 0)
	}
	if err := pass.End(); err != nil {
		encoder.DiscardEncoding()
		f.discard()
		return fmt.Errorf("wgpu: end render pass: %w", err)
	}

	commands, err := encoder.Finish()
	if err != nil {
		f.discard()
		return fmt.Errorf("wgpu: finish: %w", frameStatus(err))
	}
	if _, err := b.queue.Submit(commands); err != nil {
		commands.Release()
		f.discard()
		return fmt.Errorf("wgpu: submit: %w", frameStatus(err))
	}

	if f.texture == nil {
		return nil
	}
	if err := b.surface.Present(f.texture); err != nil {
		return fmt.Errorf("wgpu: present: %w", frameStatus(err))
	}
	return nil
}

func (f *frame) discard() {
	if f.texture != nil && f.owner.surface != nil {
		f.owner.surface.DiscardTexture()
	}
}

// releaseView releases the per-frame surface view. The offscreen view is
// owned by the backend.
func (f *frame) releaseView() {
	if f.texture != nil && f.view != nil {
		f.view.Release()
		f.view = nil
	}
}
