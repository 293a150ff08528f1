//go:build cgo

package window

import (
	"fmt"

	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/gogpu/epicycle"
)

// Window is a GLFW window without a client API. It implements epicycle.Host
// and backend.NativeWindow.
type Window struct {
	win    *glfw.Window
	queue  eventQueue
	handle [2]uintptr
}

var _ epicycle.Host = (*Window)(nil)

// Open initializes GLFW and creates a resizable window of width x height
// logical pixels. It must be called from the main OS thread.
func Open(title string, width, height int) (*Window, error) {
	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("%w: init glfw: %w", ErrNoDisplay, err)
	}
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	glfw.WindowHint(glfw.Resizable, glfw.True)

	win, err := glfw.CreateWindow(width, height, title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, fmt.Errorf("%w: create: %w", ErrNoDisplay, err)
	}

	display, handle, err := nativeHandles(win)
	if err != nil {
		win.Destroy()
		glfw.Terminate()
		return nil, err
	}

	w := &Window{win: win, handle: [2]uintptr{display, handle}}
	win.SetFramebufferSizeCallback(func(_ *glfw.Window, width, height int) {
		w.queue.resize(width, height)
	})
	win.SetCloseCallback(func(*glfw.Window) {
		w.queue.close()
	})
	win.SetKeyCallback(func(_ *glfw.Window, key glfw.Key, _ int, action glfw.Action, mods glfw.ModifierKey) {
		if action != glfw.Press {
			return
		}
		if key == glfw.KeyEscape || key == glfw.KeyQ || (key == glfw.KeyC && mods&glfw.ModControl != 0) {
			w.queue.close()
		}
	})

	epicycle.Logger().Info("window opened", "title", title, "width", width, "height", height)
	return w, nil
}

// Size returns the window size in logical pixels.
func (w *Window) Size() (width, height int) {
	return w.win.GetSize()
}

// ScaleFactor returns the ratio of framebuffer pixels to logical pixels.
func (w *Window) ScaleFactor() float64 {
	fbw, _ := w.win.GetFramebufferSize()
	ww, _ := w.win.GetSize()
	return scaleFactor(fbw, ww)
}

// RequestRedraw wakes up the event loop.
func (w *Window) RequestRedraw() {
	glfw.PostEmptyEvent()
}

// PollEvents processes pending platform events and returns the resize and
// close notifications they produced.
func (w *Window) PollEvents() []epicycle.Event {
	glfw.PollEvents()
	return w.queue.drain()
}

// NativeHandles returns the platform display and window handles.
func (w *Window) NativeHandles() (display, window uintptr) {
	return w.handle[0], w.handle[1]
}

// Destroy closes the window and terminates GLFW.
func (w *Window) Destroy() {
	if w.win == nil {
		return
	}
	w.win.Destroy()
	w.win = nil
	glfw.Terminate()
}
