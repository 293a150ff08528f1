// Package window provides the native desktop window that the wgpu backend
// presents into.
//
// A Window is a GLFW window created without a client API. It reports
// framebuffer resizes and close requests as epicycle events and exposes
// the platform handles wgpu needs to create a surface: the X11 display and
// window on Linux and the HWND on Windows. Opening a window on any other
// platform, or in a build without cgo, fails with ErrUnsupportedPlatform.
//
// GLFW must be driven from the main OS thread; callers lock it in an init
// function before calling Open.
package window
