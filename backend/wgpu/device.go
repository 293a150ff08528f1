package wgpu

import (
	"fmt"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu"

	"github.com/gogpu/epicycle/backend"
)

// GPUInfo contains information about the selected GPU.
type GPUInfo struct {
	// Name is the GPU name (e.g., "NVIDIA GeForce RTX 3080").
	Name string
	// Vendor is the GPU vendor.
	Vendor string
	// DeviceType is the type of GPU (discrete, integrated, etc.).
	DeviceType gputypes.DeviceType
	// Driver is the driver version string.
	Driver string
}

// String returns a human-readable description of the GPU.
func (g GPUInfo) String() string {
	return fmt.Sprintf("%s (%s)", g.Name, deviceTypeName(g.DeviceType))
}

func gpuInfo(info gputypes.AdapterInfo) GPUInfo {
	return GPUInfo{
		Name:       info.Name,
		Vendor:     info.Vendor,
		DeviceType: info.DeviceType,
		Driver:     info.Driver,
	}
}

func deviceTypeName(t gputypes.DeviceType) string {
	switch t {
	case gputypes.DeviceTypeDiscreteGPU:
		return "discrete"
	case gputypes.DeviceTypeIntegratedGPU:
		return "integrated"
	case gputypes.DeviceTypeVirtualGPU:
		return "virtual"
	case gputypes.DeviceTypeCPU:
		return "cpu"
	default:
		return "other"
	}
}

// adapterType classifies the device for gpucontext consumers.
func adapterType(t gputypes.DeviceType) gpucontext.AdapterType {
	switch t {
	case gputypes.DeviceTypeDiscreteGPU:
		return gpucontext.AdapterTypeDiscrete
	case gputypes.DeviceTypeIntegratedGPU:
		return gpucontext.AdapterTypeIntegrated
	case gputypes.DeviceTypeCPU:
		return gpucontext.AdapterTypeSoftware
	default:
		return gpucontext.AdapterTypeUnknown
	}
}

// logGPUInfo logs information about the selected GPU.
func logGPUInfo(info GPUInfo) {
	backend.Logger().Info("wgpu: GPU selected",
		"name", info.Name,
		"vendor", info.Vendor,
		"type", deviceTypeName(info.DeviceType))
	if info.Driver != "" {
		backend.Logger().Debug("wgpu: driver", "version", info.Driver)
	}
}

// openDevice requests an adapter able to present to surface, or any adapter
// when surface is nil, and opens a device on it.
func openDevice(instance *wgpu.Instance, surface *wgpu.Surface) (*wgpu.Adapter, *wgpu.Device, error) {
	opts := &wgpu.RequestAdapterOptions{
		PowerPreference:   wgpu.PowerPreferenceHighPerformance,
		CompatibleSurface: surface,
	}
	adapter, err := instance.RequestAdapter(opts)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrNoAdapter, err)
	}
	if adapter == nil {
		return nil, nil, ErrNoAdapter
	}

	device, err := adapter.RequestDevice(nil)
	if err != nil {
		adapter.Release()
		return nil, nil, fmt.Errorf("wgpu: request device: %w", err)
	}
	return adapter, device, nil
}
