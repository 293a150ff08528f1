package backend

import (
	"context"
	"fmt"
	"sync"
)

// Upload is one partial copy recorded by the software backend.
type Upload struct {
	Label  string
	Offset uint64
	Size   uint64
}

// Draw is one line-strip draw recorded by the software backend.
type Draw struct {
	Label string
	First uint32
	Count uint32
}

// Software is a CPU-side backend. Buffers are byte slices, uploads are
// applied on Present in recording order, and every command is kept for
// inspection. It needs no window and drives headless runs and tests.
//
// Failures can be scripted with FailAcquire and FailPresent to exercise
// surface recovery without a GPU.
//
// Software is safe for concurrent inspection while a single goroutine
// drives it.
type Software struct {
	mu sync.Mutex

	cfg         Config
	target      Target
	initialized bool
	closed      bool

	width, height int
	configures    [][2]int

	buffers      []*softBuffer
	frames       int
	uploads      []Upload
	lastDraws    []Draw
	acquireFails []error
	presentFails []error
}

func init() {
	Register(BackendSoftware, func(cfg Config) Backend {
		return NewSoftware(cfg)
	})
}

// NewSoftware creates a new software backend.
func NewSoftware(cfg Config) *Software {
	return &Software{cfg: cfg}
}

// Name returns the backend identifier.
func (b *Software) Name() string {
	return BackendSoftware
}

// Init binds the backend to target. It only fails if ctx is already done.
func (b *Software) Init(ctx context.Context, target Target) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("software: init: %w", err)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrClosed
	}
	b.target = target
	b.initialized = true
	Logger().Info("software backend initialized")
	return nil
}

// Configure records the surface size.
func (b *Software) Configure(width, height int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.usable(); err != nil {
		return err
	}
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, width, height)
	}
	b.width, b.height = width, height
	b.configures = append(b.configures, [2]int{width, height})
	return nil
}

// CreateVertexBuffer creates a buffer holding a copy of contents.
func (b *Software) CreateVertexBuffer(label string, contents []byte) (Buffer, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.usable(); err != nil {
		return nil, err
	}
	buf := &softBuffer{owner: b, label: label, data: append([]byte(nil), contents...)}
	b.buffers = append(b.buffers, buf)
	return buf, nil
}

// AcquireFrame returns a new frame, or the next scripted acquire error.
func (b *Software) AcquireFrame() (Frame, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.usable(); err != nil {
		return nil, err
	}
	if err := pop(&b.acquireFails); err != nil {
		return nil, err
	}
	return &softFrame{owner: b}, nil
}

// Close releases every buffer. Close is idempotent.
func (b *Software) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	for _, buf := range b.buffers {
		buf.released = true
	}
	b.closed = true
	b.initialized = false
	return nil
}

// FailAcquire queues errors returned by the next AcquireFrame calls.
// A nil entry lets the corresponding call succeed.
func (b *Software) FailAcquire(errs ...error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.acquireFails = append(b.acquireFails, errs...)
}

// FailPresent queues errors returned by the next Present calls. Uploads of a
// failing frame are still applied, as they would be on a GPU where the
// submission precedes presentation.
func (b *Software) FailPresent(errs ...error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.presentFails = append(b.presentFails, errs...)
}

// Config returns the presentation settings.
func (b *Software) Config() Config { return b.cfg }

// Target returns the target passed to Init.
func (b *Software) Target() Target {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.target
}

// Size returns the configured surface size.
func (b *Software) Size() (width, height int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.width, b.height
}

// Configures returns every size passed to a successful Configure.
func (b *Software) Configures() [][2]int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([][2]int(nil), b.configures...)
}

// Frames returns the number of presented frames.
func (b *Software) Frames() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.frames
}

// Uploads returns every applied upload in order.
func (b *Software) Uploads() []Upload {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Upload(nil), b.uploads...)
}

// LastDraws returns the draws of the most recently presented frame.
func (b *Software) LastDraws() []Draw {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Draw(nil), b.lastDraws...)
}

// Closed reports whether Close was called.
func (b *Software) Closed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

// Contents returns a copy of a buffer created by this backend.
func (b *Software) Contents(buf Buffer) ([]byte, error) {
	sb, ok := buf.(*softBuffer)
	if !ok || sb.owner != b {
		return nil, ErrForeignBuffer
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]byte(nil), sb.data...), nil
}

func (b *Software) usable() error {
	if b.closed {
		return ErrClosed
	}
	if !b.initialized {
		return ErrNotInitialized
	}
	return nil
}

func pop(q *[]error) error {
	if len(*q) == 0 {
		return nil
	}
	err := (*q)[0]
	*q = (*q)[1:]
	return err
}

type softBuffer struct {
	owner    *Software
	label    string
	data     []byte
	released bool
}

func (s *softBuffer) Size() uint64 { return uint64(len(s.data)) }

func (s *softBuffer) Release() {
	s.owner.mu.Lock()
	defer s.owner.mu.Unlock()
	s.released = true
}

type softCopy struct {
	dst    *softBuffer
	offset uint64
	data   []byte
}

type softFrame struct {
	owner  *Software
	copies []softCopy
	draws  []Draw
	err    error
}

func (f *softFrame) Upload(dst Buffer, offset uint64, data []byte) {
	sb, ok := dst.(*softBuffer)
	if !ok || sb.owner != f.owner {
		f.err = ErrForeignBuffer
		return
	}
	if offset+uint64(len(data)) > sb.Size() {
		f.err = fmt.Errorf("software: upload of %d bytes at %d overruns %q (%d bytes)",
			len(data), offset, sb.label, sb.Size())
		return
	}
	f.copies = append(f.copies, softCopy{dst: sb, offset: offset, data: append([]byte(nil), data...)})
}

func (f *softFrame) Draw(vertices Buffer, first, count uint32) {
	sb, ok := vertices.(*softBuffer)
	if !ok || sb.owner != f.owner {
		f.err = ErrForeignBuffer
		return
	}
	if uint64(first+count)*VertexStride > sb.Size() {
		f.err = fmt.Errorf("software: draw [%d,+%d) overruns %q", first, count, sb.label)
		return
	}
	f.draws = append(f.draws, Draw{Label: sb.label, First: first, Count: count})
}

func (f *softFrame) Present() error {
	b := f.owner
	b.mu.Lock()
	defer b.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if err := b.usable(); err != nil {
		return err
	}
	for _, c := range f.copies {
		if c.dst.released {
			return fmt.Errorf("software: upload into released buffer %q", c.dst.label)
		}
		copy(c.dst.data[c.offset:], c.data)
		b.uploads = append(b.uploads, Upload{Label: c.dst.label, Offset: c.offset, Size: uint64(len(c.data))})
	}
	if err := pop(&b.presentFails); err != nil {
		return err
	}
	b.lastDraws = f.draws
	b.frames++
	return nil
}
