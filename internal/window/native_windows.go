//go:build cgo && windows

package window

import (
	"unsafe"

	"github.com/go-gl/glfw/v3.3/glfw"
)

func nativeHandles(win *glfw.Window) (display, window uintptr, err error) {
	return 0, uintptr(unsafe.Pointer(win.GetWin32Window())), nil
}
