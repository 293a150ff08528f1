package terminal

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/gdamore/tcell/v2"

	"github.com/gogpu/epicycle/backend"
)

// ErrScreenStopped is wrapped by frame errors once the host has stopped.
var ErrScreenStopped = errors.New("terminal: screen stopped")

// Screener is implemented by targets that own a tcell screen.
// Stopped reports whether the owner has finalized the screen.
type Screener interface {
	Screen() tcell.Screen
	Stopped() bool
}

// Backend draws trails into a tcell screen. It implements backend.Backend.
type Backend struct {
	mu sync.Mutex

	cfg    backend.Config
	owner  Screener
	screen tcell.Screen
	style  tcell.Style

	buffers    []*cellBuffer
	cols, rows int
	configured bool
	closed     bool
	plotted    int
}

func init() {
	backend.Register(backend.BackendTerminal, func(cfg backend.Config) backend.Backend {
		return New(cfg)
	})
}

// New creates a terminal backend.
func New(cfg backend.Config) *Backend {
	return &Backend{cfg: cfg, style: background(cfg.Background)}
}

// Name returns the backend identifier.
func (b *Backend) Name() string {
	return backend.BackendTerminal
}

// Init binds the backend to the screen of target, which must implement
// Screener. The screen stays owned by the target.
func (b *Backend) Init(ctx context.Context, target backend.Target) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("terminal: init: %w", err)
	}
	sc, ok := target.(Screener)
	if !ok || sc.Screen() == nil {
		return fmt.Errorf("%w: %T has no terminal screen", backend.ErrUnsupportedTarget, target)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return backend.ErrClosed
	}
	b.owner = sc
	b.screen = sc.Screen()
	b.screen.SetStyle(b.style)
	backend.Logger().Info("terminal: backend initialized")
	return nil
}

// Configure sets the cell grid size.
func (b *Backend) Configure(cols, rows int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.usable(); err != nil {
		return err
	}
	if cols <= 0 || rows <= 0 {
		return fmt.Errorf("%w: %dx%d", backend.ErrInvalidDimensions, cols, rows)
	}
	b.cols, b.rows = cols, rows
	b.configured = true
	backend.Logger().Debug("terminal: configured", "cols", cols, "rows", rows)
	return nil
}

// CreateVertexBuffer creates an in-memory buffer holding a copy of contents.
func (b *Backend) CreateVertexBuffer(label string, contents []byte) (backend.Buffer, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.usable(); err != nil {
		return nil, err
	}
	buf := &cellBuffer{owner: b, label: label, data: append([]byte(nil), contents...)}
	b.buffers = append(b.buffers, buf)
	return buf, nil
}

// AcquireFrame returns a frame for the configured grid.
func (b *Backend) AcquireFrame() (backend.Frame, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.usable(); err != nil {
		return nil, err
	}
	if err := b.alive(); err != nil {
		return nil, err
	}
	if !b.configured {
		return nil, fmt.Errorf("%w: grid not configured", backend.ErrSurfaceOutdated)
	}
	return &cellFrame{owner: b}, nil
}

// Close releases every buffer. The screen is left to its owner.
// Close is idempotent.
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	for _, buf := range b.buffers {
		buf.data = nil
	}
	b.buffers = nil
	b.owner = nil
	b.screen = nil
	b.closed = true
	backend.Logger().Info("terminal: backend closed")
	return nil
}

// Size returns the configured grid size.
func (b *Backend) Size() (cols, rows int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.cols, b.rows
}

// Plotted returns the number of cells written by the last presented frame.
func (b *Backend) Plotted() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.plotted
}

func (b *Backend) usable() error {
	if b.closed {
		return backend.ErrClosed
	}
	if b.screen == nil {
		return backend.ErrNotInitialized
	}
	return nil
}

// alive reports a lost surface once the owner has finalized the screen.
func (b *Backend) alive() error {
	if b.owner.Stopped() {
		return fmt.Errorf("%w: %w", backend.ErrSurfaceLost, ErrScreenStopped)
	}
	return nil
}

type cellBuffer struct {
	owner *Backend
	label string
	data  []byte
}

func (c *cellBuffer) Size() uint64 { return uint64(len(c.data)) }

// Release drops the buffer contents. Release is idempotent.
func (c *cellBuffer) Release() {
	c.owner.mu.Lock()
	defer c.owner.mu.Unlock()
	c.data = nil
}

type cellCopy struct {
	dst    *cellBuffer
	offset uint64
	data   []byte
}

type cellDraw struct {
	src          *cellBuffer
	first, count uint32
}

type cellFrame struct {
	owner  *Backend
	copies []cellCopy
	draws  []cellDraw
	err    error
}

func (f *cellFrame) buffer(buf backend.Buffer) (*cellBuffer, error) {
	cb, ok := buf.(*cellBuffer)
	if !ok || cb.owner != f.owner {
		return nil, backend.ErrForeignBuffer
	}
	return cb, nil
}

func (f *cellFrame) Upload(dst backend.Buffer, offset uint64, data []byte) {
	if f.err != nil {
		return
	}
	cb, err := f.buffer(dst)
	if err != nil {
		f.err = err
		return
	}
	if offset+uint64(len(data)) > cb.Size() {
		f.err = fmt.Errorf("terminal: upload of %d bytes at %d overruns %q (%d bytes)",
			len(data), offset, cb.label, cb.Size())
		return
	}
	f.copies = append(f.copies, cellCopy{dst: cb, offset: offset, data: append([]byte(nil), data...)})
}

func (f *cellFrame) Draw(vertices backend.Buffer, first, count uint32) {
	if f.err != nil || count == 0 {
		return
	}
	cb, err := f.buffer(vertices)
	if err != nil {
		f.err = err
		return
	}
	if uint64(first+count)*backend.VertexStride > cb.Size() {
		f.err = fmt.Errorf("terminal: draw [%d,+%d) overruns %q", first, count, cb.label)
		return
	}
	f.draws = append(f.draws, cellDraw{src: cb, first: first, count: count})
}

// Present applies the uploads, clears the screen to the background and
// rasterizes every strip before showing the screen.
func (f *cellFrame) Present() error {
	b := f.owner
	b.mu.Lock()
	defer b.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if err := b.usable(); err != nil {
		return err
	}
	if err := b.alive(); err != nil {
		return err
	}

	for _, c := range f.copies {
		if c.dst.data == nil {
			return fmt.Errorf("terminal: upload into released buffer %q", c.dst.label)
		}
		copy(c.dst.data[c.offset:], c.data)
	}

	b.screen.Fill(' ', b.style)
	g := newGrid(b.cfg, b.cols, b.rows)
	n := 0
	for _, d := range f.draws {
		n += b.strip(g, d)
	}
	b.screen.Show()
	b.plotted = n
	return nil
}

// strip rasterizes one line strip and returns the number of cells written.
// A strip needs two vertices to produce a segment.
func (b *Backend) strip(g grid, d cellDraw) int {
	if d.count < 2 || d.src.data == nil {
		return 0
	}
	n := 0
	prev := vertexAt(d.src.data, int(d.first))
	pc, pr := g.project(prev.Position[0], prev.Position[1])
	for i := int(d.first) + 1; i < int(d.first+d.count); i++ {
		v := vertexAt(d.src.data, i)
		c, r := g.project(v.Position[0], v.Position[1])
		style := b.style.Foreground(rgb(v.Color))
		line(pc, pr, c, r, func(x, y int) {
			if g.contains(x, y) {
				b.screen.SetContent(x, y, glyph, nil, style)
				n++
			}
		})
		pc, pr = c, r
	}
	return n
}
