package epicycle

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/gogpu/epicycle/backend"
)

// Scheduler errors.
var (
	// ErrNotStarted is returned by Tick before Start.
	ErrNotStarted = errors.New("epicycle: scheduler not started")

	// ErrClosed is returned by Tick after Close.
	ErrClosed = errors.New("epicycle: scheduler closed")

	// ErrFailed wraps the cause of an unrecoverable failure.
	ErrFailed = errors.New("epicycle: scheduler failed")

	// ErrInvalidState is returned when an operation is not allowed in the
	// current state.
	ErrInvalidState = errors.New("epicycle: invalid scheduler state")

	// ErrNilBackend is returned by NewScheduler for a nil backend.
	ErrNilBackend = errors.New("epicycle: nil backend")
)

// State is the lifecycle state of a Scheduler.
type State int

const (
	// StateUninitialized is the state before Start.
	StateUninitialized State = iota
	// StateReady means the device is acquired and the next frame may run.
	StateReady
	// StateRendering is held for the duration of one Tick.
	StateRendering
	// StateClosingDown is terminal; resources are released.
	StateClosingDown
	// StateFailed is terminal after an unrecoverable error.
	StateFailed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "Uninitialized"
	case StateReady:
		return "Ready"
	case StateRendering:
		return "Rendering"
	case StateClosingDown:
		return "ClosingDown"
	case StateFailed:
		return "Failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Scheduler samples the chain, keeps the vertex buffer in sync with the
// trail and draws it every frame.
//
// Each sampled record reaches the device as a single record-sized upload at
// its own offset, so frame cost does not grow with the trail. Uploads stay
// pending until a frame is presented; a failed acquire or present leaves
// them queued for the next frame.
//
// A Scheduler is driven from a single goroutine and is not safe for
// concurrent use.
type Scheduler struct {
	backend    backend.Backend
	integrator *Integrator
	trail      *Trail
	opts       options

	vertices backend.Buffer
	pending  []int

	overlay      *overlay
	overlayBuf   backend.Buffer
	joints       []Vec3
	overlayDirty bool

	state         State
	err           error
	width, height int
	fullLogged    bool

	frames       uint64
	skipped      uint64
	reconfigures uint64
}

// NewScheduler creates a scheduler for chain rendering through b.
func NewScheduler(b backend.Backend, chain Chain, opts ...Option) (*Scheduler, error) {
	if b == nil {
		return nil, ErrNilBackend
	}
	if err := chain.Validate(); err != nil {
		return nil, err
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	trail, err := NewTrail(o.capacity, o.policy, NewRecord(Vec3{}, o.base))
	if err != nil {
		return nil, err
	}

	in := NewIntegrator(chain)
	return &Scheduler{
		backend:    b,
		integrator: in,
		trail:      trail,
		opts:       o,
		overlay:    newOverlay(o, len(chain)),
		joints:     in.Joints(),
	}, nil
}

// Start acquires the device, configures the surface and creates the vertex
// buffer from the whole trail mirror. It moves the scheduler from
// Uninitialized to Ready, or to Failed if any step fails.
//
// The surface size is the one set by an earlier Resize, or else the
// physical size of target. A zero-area target leaves the surface
// unconfigured until the first non-zero Resize.
func (s *Scheduler) Start(ctx context.Context, target backend.Target) error {
	if s.state != StateUninitialized {
		return fmt.Errorf("%w: Start in state %v", ErrInvalidState, s.state)
	}
	if s.width == 0 && target != nil {
		s.width, s.height = physicalSize(target)
	}

	if err := s.backend.Init(ctx, target); err != nil {
		return s.fail(fmt.Errorf("epicycle: acquire device: %w", err))
	}
	if s.width > 0 && s.height > 0 {
		if err := s.backend.Configure(s.width, s.height); err != nil {
			return s.fail(fmt.Errorf("epicycle: configure %dx%d: %w", s.width, s.height, err))
		}
	}

	buf, err := s.backend.CreateVertexBuffer("epicycle trail", s.trail.Mirror())
	if err != nil {
		return s.fail(fmt.Errorf("epicycle: create vertex buffer: %w", err))
	}
	s.vertices = buf

	if s.overlay != nil {
		ob, err := s.backend.CreateVertexBuffer("epicycle joints", s.overlay.encode(s.joints))
		if err != nil {
			return s.fail(fmt.Errorf("epicycle: create joint buffer: %w", err))
		}
		s.overlayBuf = ob
	}
	s.state = StateReady

	Logger().Info("scheduler ready",
		"backend", s.backend.Name(),
		"width", s.width, "height", s.height,
		"capacity", s.trail.Capacity(),
		"policy", s.trail.Policy(),
		"interval", s.opts.interval,
		"buffer_bytes", buf.Size())
	return nil
}

// Tick runs frame number frame. Every Kth frame samples the chain and
// appends one record; every frame draws the live trail.
//
// Lost and outdated surfaces are reconfigured at the last size and timeouts
// skip the frame; both return nil. Any other frame error moves the scheduler
// to Failed, releases its resources and is returned wrapped in ErrFailed.
func (s *Scheduler) Tick(frame uint64) error {
	if err := s.ready(); err != nil {
		return err
	}

	if frame%s.opts.interval == 0 {
		s.sample()
	}

	s.state = StateRendering
	f, err := s.backend.AcquireFrame()
	if err != nil {
		return s.recover(err)
	}

	for _, idx := range s.pending {
		f.Upload(s.vertices, uint64(idx)*RecordSize, s.trail.Bytes(idx))
	}
	if s.overlayDirty {
		f.Upload(s.overlayBuf, 0, s.overlay.encode(s.joints))
	}

	for _, span := range s.trail.Spans() {
		f.Draw(s.vertices, span.First, span.Count)
	}
	if s.overlay != nil {
		for _, span := range s.overlay.spans() {
			f.Draw(s.overlayBuf, span.First, span.Count)
		}
	}

	if err := f.Present(); err != nil {
		return s.recover(err)
	}
	s.pending = s.pending[:0]
	s.overlayDirty = false
	s.frames++
	s.state = StateReady
	return nil
}

// Resize reconfigures the surface to width x height physical pixels.
// A zero-area size, as reported for a minimized window, is ignored.
func (s *Scheduler) Resize(width, height int) error {
	if width <= 0 || height <= 0 {
		Logger().Debug("ignoring zero-area resize", "width", width, "height", height)
		return nil
	}

	switch s.state {
	case StateUninitialized:
		s.width, s.height = width, height
	case StateReady:
		if err := s.backend.Configure(width, height); err != nil {
			return s.fail(fmt.Errorf("epicycle: configure %dx%d: %w", width, height, err))
		}
		s.width, s.height = width, height
		Logger().Debug("surface configured", "width", width, "height", height)
	default:
		Logger().Debug("ignoring resize", "state", s.state)
	}
	return nil
}

// Close moves the scheduler to ClosingDown and releases the vertex buffer
// and the backend. Close is idempotent and a no-op after a failure, which
// has already released everything.
func (s *Scheduler) Close() error {
	if s.state == StateClosingDown || s.state == StateFailed {
		return nil
	}
	s.state = StateClosingDown
	Logger().Info("scheduler closing", "frames", s.frames, "samples", s.integrator.Steps())
	return s.release()
}

// State returns the lifecycle state.
func (s *Scheduler) State() State { return s.state }

// Err returns the cause of the failure in StateFailed, and nil otherwise.
func (s *Scheduler) Err() error { return s.err }

// SurfaceSize returns the last configured surface size.
func (s *Scheduler) SurfaceSize() (width, height int) { return s.width, s.height }

// Trail returns the trail. Callers must not modify it.
func (s *Scheduler) Trail() *Trail { return s.trail }

// Samples returns the number of times the chain was sampled.
func (s *Scheduler) Samples() uint64 { return s.integrator.Steps() }

// Frames returns the number of presented frames.
func (s *Scheduler) Frames() uint64 { return s.frames }

// Skipped returns the number of frames dropped on timeout.
func (s *Scheduler) Skipped() uint64 { return s.skipped }

// Reconfigures returns the number of recoveries from a lost or outdated
// surface.
func (s *Scheduler) Reconfigures() uint64 { return s.reconfigures }

// Vertices returns the device vertex buffer, or nil before Start and after
// the scheduler is released.
func (s *Scheduler) Vertices() backend.Buffer { return s.vertices }

// Pending returns the number of uploads waiting for a frame.
func (s *Scheduler) Pending() int { return len(s.pending) }

// Joints returns the arm ends at the phases of the latest sample, or at the
// initial phases before the first one. The last joint is the newest sampled
// tip.
func (s *Scheduler) Joints() []Vec3 { return slices.Clone(s.joints) }

// JointVertices returns the device buffer of the joint overlay, or nil when
// no overlay is configured or the scheduler is released.
func (s *Scheduler) JointVertices() backend.Buffer { return s.overlayBuf }

func (s *Scheduler) ready() error {
	switch s.state {
	case StateReady:
		return nil
	case StateUninitialized:
		return ErrNotStarted
	case StateClosingDown:
		return ErrClosed
	case StateFailed:
		return s.err
	default:
		return fmt.Errorf("%w: Tick in state %v", ErrInvalidState, s.state)
	}
}

func (s *Scheduler) sample() {
	s.joints = s.integrator.Joints()
	s.overlayDirty = s.overlay != nil
	pos := s.integrator.Step()
	w, err := s.trail.Append(NewRecord(pos, s.opts.color))
	if err != nil {
		if !s.fullLogged {
			Logger().Debug("trail full, dropping samples", "capacity", s.trail.Capacity())
			s.fullLogged = true
		}
		return
	}
	s.queue(w.Index)
	if w.Seam {
		s.queue(s.trail.Capacity())
	}
}

func (s *Scheduler) queue(idx int) {
	if !slices.Contains(s.pending, idx) {
		s.pending = append(s.pending, idx)
	}
}

func (s *Scheduler) recover(err error) error {
	switch action := classify(err); action {
	case recoverReconfigure:
		Logger().Warn("surface unusable, reconfiguring", "err", err, "width", s.width, "height", s.height)
		if s.width > 0 && s.height > 0 {
			if cerr := s.backend.Configure(s.width, s.height); cerr != nil {
				return s.fail(fmt.Errorf("epicycle: reconfigure after %v: %w", err, cerr))
			}
		}
		s.reconfigures++
		s.state = StateReady
		return nil
	case recoverSkip:
		Logger().Warn("frame skipped", "err", err)
		s.skipped++
		s.state = StateReady
		return nil
	default:
		return s.fail(fmt.Errorf("epicycle: frame: %w", err))
	}
}

func (s *Scheduler) fail(err error) error {
	Logger().Error("scheduler failed", "err", err)
	if rerr := s.release(); rerr != nil {
		Logger().Warn("release after failure", "err", rerr)
	}
	s.state = StateFailed
	s.err = fmt.Errorf("%w: %w", ErrFailed, err)
	return s.err
}

func (s *Scheduler) release() error {
	if s.vertices != nil {
		s.vertices.Release()
		s.vertices = nil
	}
	if s.overlayBuf != nil {
		s.overlayBuf.Release()
		s.overlayBuf = nil
	}
	s.pending = nil
	return s.backend.Close()
}

// physicalSize converts the logical window size to physical pixels.
func physicalSize(t backend.Target) (int, int) {
	w, h := t.Size()
	sf := t.ScaleFactor()
	if sf <= 0 {
		sf = 1
	}
	return int(math.Round(float64(w) * sf)), int(math.Round(float64(h) * sf))
}
