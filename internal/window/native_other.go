//go:build cgo && !windows && !(linux && !wayland)

package window

import (
	"fmt"
	"runtime"

	"github.com/go-gl/glfw/v3.3/glfw"
)

func nativeHandles(*glfw.Window) (display, window uintptr, err error) {
	return 0, 0, fmt.Errorf("%w: %s", ErrUnsupportedPlatform, runtime.GOOS)
}
