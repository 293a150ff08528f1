package epicycle

import (
	"errors"
	"fmt"
	"strings"
)

// Trail errors.
var (
	// ErrTrailFull is returned by Append on a full trail under PolicyFreeze.
	ErrTrailFull = errors.New("epicycle: trail is full")

	// ErrInvalidCapacity is returned by NewTrail for a non-positive capacity.
	ErrInvalidCapacity = errors.New("epicycle: trail capacity must be positive")

	// ErrUnknownPolicy is returned by ParsePolicy for unrecognized names.
	ErrUnknownPolicy = errors.New("epicycle: unknown trail policy")
)

// Policy decides what Append does once the trail is full.
type Policy int

const (
	// PolicyWrap overwrites the oldest record, turning the trail into a ring.
	PolicyWrap Policy = iota

	// PolicyFreeze rejects further records with ErrTrailFull.
	PolicyFreeze
)

// String returns the policy name.
func (p Policy) String() string {
	switch p {
	case PolicyWrap:
		return "wrap"
	case PolicyFreeze:
		return "freeze"
	default:
		return fmt.Sprintf("Policy(%d)", int(p))
	}
}

// ParsePolicy parses "wrap" or "freeze", case-insensitively.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "wrap", "ring":
		return PolicyWrap, nil
	case "freeze":
		return PolicyFreeze, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownPolicy, s)
	}
}

// Write describes the slot touched by an Append.
type Write struct {
	// Index is the slot that received the record.
	Index int
	// Seam is set when Index is 0 under PolicyWrap. The seam slot at
	// index Capacity mirrors slot 0 and must be uploaded too.
	Seam bool
}

// Span is a contiguous run of vertices drawn as one line strip.
type Span struct {
	First uint32
	Count uint32
}

// Trail is a fixed-capacity sequence of records with a write cursor.
//
// Trail owns the CPU copy of the vertex buffer: every Append re-encodes
// exactly one slot, and Bytes exposes that slot for a partial upload. Under
// PolicyWrap the mirror holds one extra seam slot after the last record that
// duplicates slot 0, so a wrapped ring can be drawn without a gap.
//
// Trail is not safe for concurrent use.
type Trail struct {
	policy   Policy
	capacity int
	cursor   int
	wrapped  bool
	storage  []Record
	mirror   []byte
}

// NewTrail creates a trail with every slot set to base.
func NewTrail(capacity int, policy Policy, base Record) (*Trail, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCapacity, capacity)
	}
	if policy != PolicyWrap && policy != PolicyFreeze {
		return nil, fmt.Errorf("%w: %v", ErrUnknownPolicy, policy)
	}

	slots := capacity
	if policy == PolicyWrap {
		slots++
	}
	t := &Trail{
		policy:   policy,
		capacity: capacity,
		storage:  make([]Record, capacity),
		mirror:   make([]byte, slots*RecordSize),
	}
	for i := range t.storage {
		t.storage[i] = base
		base.Encode(t.mirror[i*RecordSize:])
	}
	if policy == PolicyWrap {
		base.Encode(t.mirror[capacity*RecordSize:])
	}
	return t, nil
}

// Append writes r at the cursor and advances it.
//
// On a full trail, PolicyFreeze returns ErrTrailFull without writing and
// PolicyWrap moves the cursor back to 0 before writing.
func (t *Trail) Append(r Record) (Write, error) {
	if t.cursor == t.capacity {
		if t.policy == PolicyFreeze {
			return Write{Index: -1}, ErrTrailFull
		}
		t.cursor = 0
		t.wrapped = true
	}

	idx := t.cursor
	t.storage[idx] = r
	r.Encode(t.mirror[idx*RecordSize:])
	w := Write{Index: idx}
	if idx == 0 && t.policy == PolicyWrap {
		copy(t.mirror[t.capacity*RecordSize:], t.mirror[:RecordSize])
		w.Seam = true
	}
	t.cursor++
	return w, nil
}

// Drawable returns the records written since the trail was created or last
// wrapped, oldest first. The slice aliases the trail's storage.
func (t *Trail) Drawable() []Record {
	return t.storage[:t.cursor]
}

// Ordered returns a copy of every live record, oldest first.
func (t *Trail) Ordered() []Record {
	out := make([]Record, 0, t.Len())
	if t.wrapped {
		out = append(out, t.storage[t.cursor:t.capacity]...)
	}
	return append(out, t.storage[:t.cursor]...)
}

// Spans returns the vertex ranges that draw every live record in age order.
//
// Before the first wrap this is the single span [0, cursor). After a wrap the
// oldest records sit at [cursor, capacity) and continue through the seam slot
// into [0, cursor).
func (t *Trail) Spans() []Span {
	if t.cursor == 0 {
		return nil
	}
	if !t.wrapped || t.cursor == t.capacity {
		return []Span{{First: 0, Count: uint32(t.cursor)}}
	}
	return []Span{
		{First: uint32(t.cursor), Count: uint32(t.capacity - t.cursor + 1)},
		{First: 0, Count: uint32(t.cursor)},
	}
}

// At returns the record stored at slot i.
func (t *Trail) At(i int) Record {
	return t.storage[i]
}

// Bytes returns the encoded slot i of the mirror. Under PolicyWrap, i may be
// Capacity to address the seam slot.
func (t *Trail) Bytes(i int) []byte {
	off := i * RecordSize
	return t.mirror[off : off+RecordSize : off+RecordSize]
}

// Mirror returns the whole encoded vertex buffer. It is used once, to
// initialize the GPU buffer.
func (t *Trail) Mirror() []byte {
	return t.mirror
}

// BufferSize returns the byte size the GPU vertex buffer needs.
func (t *Trail) BufferSize() uint64 {
	return uint64(len(t.mirror))
}

// Cursor returns the next write position, in [0, Capacity].
func (t *Trail) Cursor() int { return t.cursor }

// Capacity returns the number of record slots.
func (t *Trail) Capacity() int { return t.capacity }

// Policy returns the capacity policy.
func (t *Trail) Policy() Policy { return t.policy }

// Wrapped reports whether the trail has overwritten a record.
func (t *Trail) Wrapped() bool { return t.wrapped }

// Len returns the number of live records.
func (t *Trail) Len() int {
	if t.wrapped {
		return t.capacity
	}
	return t.cursor
}

// Full reports whether the next Append starts at slot 0 or is rejected.
func (t *Trail) Full() bool {
	return t.cursor == t.capacity
}
