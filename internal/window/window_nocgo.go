//go:build !cgo

package window

import (
	"fmt"

	"github.com/gogpu/epicycle"
)

// Window is unavailable without cgo.
type Window struct{}

// Open always fails with ErrUnsupportedPlatform.
func Open(title string, width, height int) (*Window, error) {
	return nil, fmt.Errorf("%w: built without cgo", ErrUnsupportedPlatform)
}

func (*Window) Size() (width, height int)                { return 0, 0 }
func (*Window) ScaleFactor() float64                     { return 1 }
func (*Window) RequestRedraw()                           {}
func (*Window) PollEvents() []epicycle.Event             { return nil }
func (*Window) NativeHandles() (display, window uintptr) { return 0, 0 }
func (*Window) Destroy()                                 {}
