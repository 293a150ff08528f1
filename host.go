package epicycle

import (
	"context"

	"github.com/gogpu/gpucontext"

	"github.com/gogpu/epicycle/backend"
)

// EventKind identifies a host notification.
type EventKind int

const (
	// EventResize reports a new framebuffer size in physical pixels.
	EventResize EventKind = iota + 1
	// EventClose asks the loop to shut down.
	EventClose
)

// Event is a window notification delivered by a Host.
type Event struct {
	Kind          EventKind
	Width, Height int
}

// Host is the window collaborator driven by Run.
type Host interface {
	backend.Target

	// PollEvents processes pending platform events and returns the
	// notifications received since the previous call. It may block to pace
	// frames.
	PollEvents() []Event
}

// Run starts s against host and ticks it until the host closes, ctx is done
// or a frame fails. It returns nil on a normal close.
//
// Run must be called from the goroutine that owns the host, which for most
// windowing systems is the main OS thread.
func Run(ctx context.Context, host Host, s *Scheduler) error {
	if err := s.Start(ctx, host); err != nil {
		return err
	}

	var frame uint64
	for {
		if ctx.Err() != nil {
			Logger().Info("context done", "err", ctx.Err())
			return s.Close()
		}
		for _, ev := range host.PollEvents() {
			switch ev.Kind {
			case EventResize:
				if err := s.Resize(ev.Width, ev.Height); err != nil {
					return err
				}
			case EventClose:
				return s.Close()
			}
		}
		if err := s.Tick(frame); err != nil {
			return err
		}
		frame++
	}
}

// HeadlessHost is a Host without a window. It reports a fixed size,
// delivers scripted events and closes after a set number of frames.
type HeadlessHost struct {
	gpucontext.NullWindowProvider

	frames int
	polls  int
	events map[int][]Event
}

// NewHeadlessHost creates a host of width x height that closes after frames
// frames. A non-positive frames value never closes on its own.
func NewHeadlessHost(width, height, frames int) *HeadlessHost {
	return &HeadlessHost{
		NullWindowProvider: gpucontext.NullWindowProvider{W: width, H: height},
		frames:             frames,
		events:             make(map[int][]Event),
	}
}

// At schedules ev for delivery just before frame number frame is ticked.
func (h *HeadlessHost) At(frame int, ev ...Event) {
	h.events[frame] = append(h.events[frame], ev...)
}

// PollEvents returns the events scheduled for the next frame.
func (h *HeadlessHost) PollEvents() []Event {
	evs := h.events[h.polls]
	delete(h.events, h.polls)
	if h.frames > 0 && h.polls >= h.frames {
		evs = append(evs, Event{Kind: EventClose})
	}
	h.polls++

	for _, ev := range evs {
		if ev.Kind == EventResize {
			h.W, h.H = ev.Width, ev.Height
		}
	}
	return evs
}
