package backend

import (
	"context"
	"errors"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
)

// Common backend errors.
var (
	// ErrBackendNotAvailable is returned when a requested backend is not available.
	ErrBackendNotAvailable = errors.New("backend: not available")

	// ErrNotInitialized is returned when operations are called before Init.
	ErrNotInitialized = errors.New("backend: not initialized")

	// ErrClosed is returned when operations are called after Close.
	ErrClosed = errors.New("backend: closed")

	// ErrUnsupportedTarget is returned by Init when the target lacks
	// something the backend needs, such as native window handles.
	ErrUnsupportedTarget = errors.New("backend: unsupported target")

	// ErrInvalidDimensions is returned by Configure for a non-positive size.
	ErrInvalidDimensions = errors.New("backend: invalid dimensions")

	// ErrForeignBuffer is returned when a buffer from another backend is used.
	ErrForeignBuffer = errors.New("backend: buffer belongs to another backend")
)

// Frame status errors. AcquireFrame and Frame.Present return nil for Ok or
// one of these, possibly wrapped.
var (
	// ErrSurfaceLost means the surface must be reconfigured before reuse.
	ErrSurfaceLost = errors.New("backend: surface lost")

	// ErrSurfaceOutdated means the surface no longer matches the window.
	ErrSurfaceOutdated = errors.New("backend: surface outdated")

	// ErrOutOfMemory means the device ran out of memory or was lost.
	ErrOutOfMemory = errors.New("backend: out of memory")

	// ErrTimeout means no surface image became available in time.
	ErrTimeout = errors.New("backend: timeout")
)

// VertexStride is the size of one trail vertex in bytes.
//
// Layout (little-endian float32):
//
//	[0:12]  @location(0) position x, y, z
//	[12:24] @location(1) color r, g, b
const VertexStride = 24

// Target is the window a backend presents into.
type Target = gpucontext.WindowProvider

// NativeWindow is implemented by targets that expose platform handles.
// display is the X11 Display* or HINSTANCE and may be zero; window is the
// X11 Window or HWND.
type NativeWindow interface {
	NativeHandles() (display, window uintptr)
}

// Config carries the presentation settings shared by all backends.
type Config struct {
	// Background is the clear color of every frame.
	Background gputypes.Color
	// Extent is the world half-size mapped onto the shorter viewport side.
	// Zero means 1.
	Extent float64
	// VSync selects FIFO presentation where the backend supports it.
	VSync bool
}

// Scale returns the per-axis factors that map world units to normalized
// device coordinates for a viewport of the given size, keeping the aspect
// ratio square.
func (c Config) Scale(width, height int) (sx, sy float64) {
	extent := c.Extent
	if extent <= 0 {
		extent = 1
	}
	sx, sy = 1/extent, 1/extent
	if width <= 0 || height <= 0 {
		return sx, sy
	}
	if width > height {
		sx *= float64(height) / float64(width)
	} else {
		sy *= float64(width) / float64(height)
	}
	return sx, sy
}

// Buffer is a device vertex buffer.
type Buffer interface {
	// Size returns the buffer size in bytes.
	Size() uint64

	// Release frees the buffer. Release is idempotent.
	Release()
}

// Frame records the work for one presented image.
//
// Uploads are ordered before draws within a frame, so a draw always sees the
// bytes uploaded in the same frame.
type Frame interface {
	// Upload copies data into dst at offset. Only len(data) bytes change.
	Upload(dst Buffer, offset uint64, data []byte)

	// Draw draws count vertices of vertices, starting at first, as one
	// line strip.
	Draw(vertices Buffer, first, count uint32)

	// Present submits the recorded work and presents the image. When it
	// fails, the uploads of the frame may or may not have been applied.
	Present() error
}

// Backend is the interface for rendering backends.
//
// Backends must be registered via Register() and are selected via
// Get() or Default().
type Backend interface {
	// Name returns the backend identifier (e.g., "software", "wgpu").
	Name() string

	// Init acquires the device and binds the backend to target.
	// It blocks until the device is ready or ctx is done.
	Init(ctx context.Context, target Target) error

	// Configure sizes the output surface in physical pixels.
	Configure(width, height int) error

	// CreateVertexBuffer creates a vertex buffer holding contents.
	// The buffer accepts Frame.Upload and feeds Frame.Draw.
	CreateVertexBuffer(label string, contents []byte) (Buffer, error)

	// AcquireFrame waits for the next presentable image.
	AcquireFrame() (Frame, error)

	// Close releases all backend resources.
	// The backend should not be used after Close is called.
	Close() error
}
