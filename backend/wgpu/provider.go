package wgpu

import (
	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
)

var _ gpucontext.DeviceProvider = (*Backend)(nil)

// Device returns the *wgpu.Device, or nil before Init.
func (b *Backend) Device() gpucontext.Device {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.device == nil {
		return nil
	}
	return b.device
}

// Queue returns the *wgpu.Queue, or nil before Init.
func (b *Backend) Queue() gpucontext.Queue {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.queue == nil {
		return nil
	}
	return b.queue
}

// Adapter returns the *wgpu.Adapter, or nil before Init.
func (b *Backend) Adapter() gpucontext.Adapter {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.adapter == nil {
		return nil
	}
	return b.adapter
}

// SurfaceFormat returns the swapchain format.
func (b *Backend) SurfaceFormat() gputypes.TextureFormat {
	return surfaceFormat
}

// AdapterInfo returns the adapter name and type.
func (b *Backend) AdapterInfo() gpucontext.AdapterInfo {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.adapter == nil {
		return gpucontext.AdapterInfo{Type: gpucontext.AdapterTypeUnknown}
	}
	return gpucontext.AdapterInfo{Name: b.info.Name, Type: adapterType(b.info.DeviceType)}
}
