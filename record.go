package epicycle

import (
	"encoding/binary"
	"math"

	"github.com/gogpu/epicycle/backend"
)

// RecordSize is the encoded size of one Record in bytes.
// Records use the backend vertex layout: position at [0:12], color at [12:24].
const RecordSize = backend.VertexStride

// Record is one trail vertex.
type Record struct {
	Position [3]float32
	Color    [3]float32
}

// NewRecord builds a record from a world position and a color.
// The alpha channel is not part of the vertex layout.
func NewRecord(p Vec3, c RGBA) Record {
	return Record{Position: p.vertex(), Color: c.vertex()}
}

// Encode writes the record into buf, which must be at least RecordSize bytes.
func (r Record) Encode(buf []byte) {
	_ = buf[RecordSize-1]
	for i, v := range r.Position {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	for i, v := range r.Color {
		binary.LittleEndian.PutUint32(buf[12+i*4:], math.Float32bits(v))
	}
}

// DecodeRecord reads a record from buf, which must be at least RecordSize bytes.
func DecodeRecord(buf []byte) Record {
	_ = buf[RecordSize-1]
	var r Record
	for i := range r.Position {
		r.Position[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	for i := range r.Color {
		r.Color[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[12+i*4:]))
	}
	return r
}
