package window

import (
	"errors"
	"sync"

	"github.com/gogpu/epicycle"
)

var (
	// ErrUnsupportedPlatform is returned by Open where native surface
	// handles are not available.
	ErrUnsupportedPlatform = errors.New("window: unsupported platform")

	// ErrNoDisplay is returned by Open when no window can be created, as on
	// a machine without a display server.
	ErrNoDisplay = errors.New("window: no display")
)

// eventQueue collects callback notifications between polls. Consecutive
// resizes collapse into the last one.
type eventQueue struct {
	mu     sync.Mutex
	events []epicycle.Event
	closed bool
}

func (q *eventQueue) resize(width, height int) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if n := len(q.events); n > 0 && q.events[n-1].Kind == epicycle.EventResize {
		q.events[n-1].Width, q.events[n-1].Height = width, height
		return
	}
	q.events = append(q.events, epicycle.Event{Kind: epicycle.EventResize, Width: width, Height: height})
}

// close queues a single close event no matter how often it is called.
func (q *eventQueue) close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	q.events = append(q.events, epicycle.Event{Kind: epicycle.EventClose})
}

func (q *eventQueue) drain() []epicycle.Event {
	q.mu.Lock()
	defer q.mu.Unlock()
	evs := q.events
	q.events = nil
	return evs
}

// scaleFactor derives the physical-to-logical ratio from the framebuffer
// and window widths.
func scaleFactor(fbWidth, winWidth int) float64 {
	if fbWidth <= 0 || winWidth <= 0 {
		return 1
	}
	return float64(fbWidth) / float64(winWidth)
}
