package wgpu

import (
	"context"
	"fmt"
	"sync"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu"

	"github.com/gogpu/epicycle/backend"
)

// surfaceFormat is the swapchain and offscreen target format.
const surfaceFormat = gputypes.TextureFormatBGRA8Unorm

// Backend renders trails with gogpu/wgpu. It implements backend.Backend and
// gpucontext.DeviceProvider.
//
// Vertex buffers live on the device for the lifetime of the backend. Every
// Frame.Upload is a Queue.WriteBuffer of just the uploaded bytes, which the
// queue flushes ahead of the frame's render pass on Submit.
//
// Backend is safe for concurrent use from multiple goroutines, but frames
// must be presented from the goroutine that owns the window.
type Backend struct {
	mu sync.Mutex

	cfg backend.Config

	instance *wgpu.Instance
	surface  *wgpu.Surface
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue
	info     GPUInfo

	trail   *trailPipeline
	buffers []*vertexBuffer

	// offscreen is the render target when there is no surface.
	offscreen     *wgpu.Texture
	offscreenView *wgpu.TextureView

	width, height int
	configured    bool
	closed        bool
}

func init() {
	backend.Register(backend.BackendWGPU, func(cfg backend.Config) backend.Backend {
		return New(cfg)
	})
}

// New creates a wgpu backend. The backend must be initialized with Init or
// InitHeadless before use.
func New(cfg backend.Config) *Backend {
	return &Backend{cfg: cfg}
}

// Name returns the backend identifier.
func (b *Backend) Name() string {
	return backend.BackendWGPU
}

// Init creates a surface for target, which must implement
// backend.NativeWindow, and opens a device that can present to it.
// Init on a backend that already holds a device, including one opened by
// InitHeadless, does nothing.
func (b *Backend) Init(ctx context.Context, target backend.Target) error {
	if b.initialized() {
		return nil
	}
	nw, ok := target.(backend.NativeWindow)
	if !ok {
		return fmt.Errorf("%w: %T has no native window handles", backend.ErrUnsupportedTarget, target)
	}
	return b.init(ctx, func(instance *wgpu.Instance) (*wgpu.Surface, error) {
		display, window := nw.NativeHandles()
		surface, err := instance.CreateSurface(display, window)
		if err != nil {
			return nil, fmt.Errorf("wgpu: create surface: %w", err)
		}
		return surface, nil
	})
}

func (b *Backend) initialized() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.device != nil && !b.closed
}

// InitHeadless opens a device without a surface. Frames render into an
// offscreen texture of the configured size and Present only submits.
func (b *Backend) InitHeadless(ctx context.Context) error {
	return b.init(ctx, nil)
}

func (b *Backend) init(ctx context.Context, newSurface func(*wgpu.Instance) (*wgpu.Surface, error)) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("wgpu: init: %w", err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return backend.ErrClosed
	}
	if b.device != nil {
		return nil
	}

	if _, err := ValidateShader(); err != nil {
		return err
	}

	instance, err := wgpu.CreateInstance(nil)
	if err != nil {
		return fmt.Errorf("wgpu: create instance: %w", err)
	}
	b.instance = instance

	if newSurface != nil {
		surface, err := newSurface(instance)
		if err != nil {
			b.releaseLocked()
			return err
		}
		b.surface = surface
	}

	adapter, device, err := openDevice(instance, b.surface)
	if err != nil {
		b.releaseLocked()
		return err
	}
	b.adapter, b.device = adapter, device

	b.queue = device.Queue()
	if b.queue == nil {
		b.releaseLocked()
		return fmt.Errorf("%w: device has no queue", backend.ErrBackendNotAvailable)
	}

	trail, err := newTrailPipeline(device, surfaceFormat)
	if err != nil {
		b.releaseLocked()
		return err
	}
	b.trail = trail

	b.info = gpuInfo(adapter.Info())
	logGPUInfo(b.info)
	backend.Logger().Info("wgpu: backend initialized", "headless", b.surface == nil)
	return nil
}

// Configure sizes the surface, or the offscreen target, and updates the
// world-to-clip scale.
func (b *Backend) Configure(width, height int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.usable(); err != nil {
		return err
	}
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: %dx%d", backend.ErrInvalidDimensions, width, height)
	}

	if b.surface != nil {
		err := b.surface.Configure(b.device, &wgpu.SurfaceConfiguration{
			Width:       uint32(width),
			Height:      uint32(height),
			Format:      surfaceFormat,
			Usage:       gputypes.TextureUsageRenderAttachment,
			PresentMode: presentMode(b.cfg.VSync),
			AlphaMode:   gputypes.CompositeAlphaModeOpaque,
		})
		if err != nil {
			return fmt.Errorf("wgpu: configure surface: %w", frameStatus(err))
		}
	} else if err := b.resizeOffscreen(width, height); err != nil {
		return err
	}

	sx, sy := b.cfg.Scale(width, height)
	if err := b.trail.setScale(b.queue, sx, sy); err != nil {
		return fmt.Errorf("wgpu: write scale: %w", err)
	}
	b.width, b.height = width, height
	b.configured = true
	backend.Logger().Debug("wgpu: configured", "width", width, "height", height)
	return nil
}

// CreateVertexBuffer creates a device buffer initialized with contents.
func (b *Backend) CreateVertexBuffer(label string, contents []byte) (backend.Buffer, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.usable(); err != nil {
		return nil, err
	}

	size := alignCopy(uint64(len(contents)))
	buf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: label,
		Size:  size,
		Usage: wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create %q: %w", label, frameStatus(err))
	}
	if len(contents) > 0 {
		if err := b.queue.WriteBuffer(buf, 0, padCopy(contents)); err != nil {
			buf.Release()
			return nil, fmt.Errorf("wgpu: initialize %q: %w", label, err)
		}
	}

	vb := &vertexBuffer{owner: b, buf: buf, size: size}
	b.buffers = append(b.buffers, vb)
	return vb, nil
}

// AcquireFrame acquires the next surface image.
func (b *Backend) AcquireFrame() (backend.Frame, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.usable(); err != nil {
		return nil, err
	}
	if !b.configured {
		return nil, fmt.Errorf("%w: surface not configured", backend.ErrSurfaceOutdated)
	}

	if b.surface == nil {
		return &frame{owner: b, view: b.offscreenView}, nil
	}

	tex, suboptimal, err := b.surface.GetCurrentTexture()
	if err != nil {
		return nil, frameStatus(err)
	}
	if suboptimal {
		backend.Logger().Debug("wgpu: suboptimal surface texture")
	}
	view, err := tex.CreateView(nil)
	if err != nil {
		b.surface.DiscardTexture()
		return nil, fmt.Errorf("wgpu: surface view: %w", err)
	}
	return &frame{owner: b, texture: tex, view: view}, nil
}

// Close waits for the device to go idle and releases every GPU object.
// Close is idempotent.
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true

	var err error
	if b.device != nil {
		if werr := b.device.WaitIdle(); werr != nil {
			err = fmt.Errorf("wgpu: wait idle: %w", werr)
		}
	}
	b.releaseLocked()
	backend.Logger().Info("wgpu: backend closed")
	return err
}

// Info returns the selected GPU, valid after Init.
func (b *Backend) Info() GPUInfo {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.info
}

// Size returns the configured size.
func (b *Backend) Size() (width, height int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.width, b.height
}

func (b *Backend) usable() error {
	if b.closed {
		return backend.ErrClosed
	}
	if b.device == nil {
		return backend.ErrNotInitialized
	}
	return nil
}

func (b *Backend) resizeOffscreen(width, height int) error {
	b.releaseOffscreen()
	tex, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         "epicycle offscreen",
		Size:          wgpu.Extent3D{Width: uint32(width), Height: uint32(height), DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        surfaceFormat,
		Usage:         gputypes.TextureUsageRenderAttachment,
	})
	if err != nil {
		return fmt.Errorf("wgpu: offscreen texture: %w", frameStatus(err))
	}
	view, err := b.device.CreateTextureView(tex, nil)
	if err != nil {
		tex.Release()
		return fmt.Errorf("wgpu: offscreen view: %w", err)
	}
	b.offscreen, b.offscreenView = tex, view
	return nil
}

func (b *Backend) releaseOffscreen() {
	if b.offscreenView != nil {
		b.offscreenView.Release()
		b.offscreenView = nil
	}
	if b.offscreen != nil {
		b.offscreen.Release()
		b.offscreen = nil
	}
}

// releaseLocked releases GPU objects in reverse creation order.
func (b *Backend) releaseLocked() {
	for _, vb := range b.buffers {
		vb.release()
	}
	b.buffers = nil
	b.trail.destroy()
	b.trail = nil
	b.releaseOffscreen()

	if b.surface != nil {
		if b.configured {
			b.surface.Unconfigure()
		}
		b.surface.Release()
		b.surface = nil
	}
	if b.device != nil {
		b.device.Release()
		b.device = nil
	}
	b.queue = nil
	if b.adapter != nil {
		b.adapter.Release()
		b.adapter = nil
	}
	if b.instance != nil {
		b.instance.Release()
		b.instance = nil
	}
	b.configured = false
}

func presentMode(vsync bool) gputypes.PresentMode {
	if vsync {
		return gputypes.PresentModeFifo
	}
	return gputypes.PresentModeImmediate
}

// alignCopy rounds n up to the 4-byte copy alignment.
func alignCopy(n uint64) uint64 {
	return (n + 3) &^ 3
}

func padCopy(data []byte) []byte {
	if n := alignCopy(uint64(len(data))); n != uint64(len(data)) {
		padded := make([]byte, n)
		copy(padded, data)
		return padded
	}
	return data
}
