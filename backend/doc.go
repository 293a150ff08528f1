// Package backend provides a pluggable rendering backend abstraction.
//
// A backend owns the device and the output surface. It creates vertex
// buffers, copies byte ranges into them, draws line strips from them and
// presents frames. The epicycle scheduler drives a backend one frame at a
// time and never touches the device directly.
//
// # Backend Registration
//
// Backends are registered via init() functions and selected at runtime.
// The software backend is registered by this package; the others register
// when imported:
//
//	import (
//		"github.com/gogpu/epicycle/backend"
//		_ "github.com/gogpu/epicycle/backend/terminal"
//		_ "github.com/gogpu/epicycle/backend/wgpu"
//	)
//
// # Backend Selection
//
// Use Default() to get the best available backend, or Get() to request
// a specific backend by name:
//
//	b := backend.Default(backend.Config{Extent: 400})
//	b = backend.Get("terminal", backend.Config{Extent: 400})
//
// # Frame Status
//
// AcquireFrame and Frame.Present report surface trouble through
// ErrSurfaceLost, ErrSurfaceOutdated, ErrOutOfMemory and ErrTimeout.
// Callers classify them with errors.Is.
//
// # Available Backends
//
//   - "wgpu": GPU rendering via gogpu/wgpu into a native window
//   - "terminal": line strips rasterized into terminal cells via tcell
//   - "software": CPU buffers and a command log, no output (always available)
package backend
