// Package wgpu provides the GPU trail backend using gogpu/wgpu.
//
// Importing the package registers the "wgpu" backend. A HAL implementation
// must also be linked in, usually through
//
//	import _ "github.com/gogpu/wgpu/hal/vulkan"
//
// # Rendering
//
// The trail is a single vertex buffer of 24-byte records (position and color,
// both vec3<f32>) drawn with a line-strip pipeline. The vertex shader scales
// world positions into clip space with a uniform written on every Configure,
// so resizing never touches the vertex data.
//
// Each frame clears the target to the configured background and draws the
// strips recorded on the frame. Uploads go through Queue.WriteBuffer at the
// record's offset and land before the frame's render pass.
//
// # Targets
//
// Init needs a target implementing backend.NativeWindow to create the
// surface. InitHeadless skips the surface and renders into an offscreen
// texture, which keeps the full encoding path available without a window.
//
// # Errors
//
// Surface and device errors from wgpu are reported as the backend status
// sentinels (backend.ErrSurfaceLost, backend.ErrSurfaceOutdated,
// backend.ErrTimeout, backend.ErrOutOfMemory) with the wgpu error wrapped
// alongside. A lost device counts as out of memory.
//
// The backend also implements gpucontext.DeviceProvider so other gogpu
// libraries can share its device.
package wgpu
