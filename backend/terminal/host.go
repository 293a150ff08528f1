package terminal

import (
	"fmt"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/gogpu/epicycle"
)

// Host is an epicycle.Host backed by a tcell screen. Sizes are in cells
// and the scale factor is always 1.
type Host struct {
	screen tcell.Screen
	ticker *time.Ticker

	done chan struct{}
	once sync.Once
}

var _ epicycle.Host = (*Host)(nil)

// Open initializes the controlling terminal and returns a host that paces
// frames at interval.
func Open(interval time.Duration) (*Host, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("terminal: new screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return nil, fmt.Errorf("terminal: init screen: %w", err)
	}
	return NewHost(screen, interval), nil
}

// NewHost wraps an initialized screen. A non-positive interval disables
// pacing, so PollEvents never waits.
func NewHost(screen tcell.Screen, interval time.Duration) *Host {
	h := &Host{screen: screen, done: make(chan struct{})}
	if interval > 0 {
		h.ticker = time.NewTicker(interval)
	}
	return h
}

// Screen returns the tcell screen.
func (h *Host) Screen() tcell.Screen { return h.screen }

// Size returns the screen size in cells.
func (h *Host) Size() (width, height int) { return h.screen.Size() }

// ScaleFactor returns 1.
func (h *Host) ScaleFactor() float64 { return 1 }

// RequestRedraw does nothing; the host renders continuously.
func (h *Host) RequestRedraw() {}

// Stopped reports whether Close has finalized the screen.
func (h *Host) Stopped() bool {
	select {
	case <-h.done:
		return true
	default:
		return false
	}
}

// PollEvents waits for the next frame tick and returns the events that
// arrived since the previous call. Esc, q and Ctrl-C close the host, as
// does a closed host.
func (h *Host) PollEvents() []epicycle.Event {
	if h.ticker != nil {
		select {
		case <-h.ticker.C:
		case <-h.done:
		}
	}

	if h.Stopped() {
		return []epicycle.Event{{Kind: epicycle.EventClose}}
	}

	var evs []epicycle.Event
	for h.screen.HasPendingEvent() {
		switch ev := h.screen.PollEvent().(type) {
		case nil:
			return append(evs, epicycle.Event{Kind: epicycle.EventClose})
		case *tcell.EventKey:
			if quitKey(ev) {
				evs = append(evs, epicycle.Event{Kind: epicycle.EventClose})
			}
		case *tcell.EventResize:
			w, hgt := ev.Size()
			evs = append(evs, epicycle.Event{Kind: epicycle.EventResize, Width: w, Height: hgt})
		}
	}
	return evs
}

// Close stops pacing and restores the terminal. Close is idempotent.
func (h *Host) Close() {
	h.once.Do(func() {
		if h.ticker != nil {
			h.ticker.Stop()
		}
		close(h.done)
		h.screen.Fini()
	})
}

func quitKey(ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return true
	case tcell.KeyRune:
		return ev.Rune() == 'q' || ev.Rune() == 'Q'
	}
	return false
}
